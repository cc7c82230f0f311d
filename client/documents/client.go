package documents

import (
	"context"
	"net/http"
	"time"

	"document-gateway/client/documents/application"
	"document-gateway/client/documents/domain"
	"document-gateway/client/documents/infra"
	"document-gateway/client/documents/metrics"

	"github.com/go-logr/logr"
)

type Options struct {
	// Endpoint do POST; vazio usa infra.DefaultEndpoint.
	Endpoint string

	WindowUnit   time.Duration
	WindowCount  int
	RequestLimit int
	ResetPolicy  domain.ResetPolicy

	// AcquireTimeout <= 0 espera até o ctx do chamador cancelar.
	AcquireTimeout time.Duration

	HTTPClient *http.Client
	Headers    map[string]string

	// Serializer e Transport substituem os padrões JSON/HTTP.
	Serializer domain.Serializer
	Transport  domain.Transport

	Stats domain.StatsStore
	// Metrics liga o metrics.Recorder e registra os gauges do pool em
	// metrics.Registry.
	Metrics bool

	Logger logr.Logger
}

// Client compõe PermitPool -> Dispatcher -> Transport. É seguro para uso
// concorrente; crie um por endpoint e compartilhe o ponteiro.
type Client struct {
	pool       *infra.PermitPool
	dispatcher application.Dispatcher
	unregister func()
}

// New valida as opções, inicia o timer da janela e devolve o Client.
// Parâmetros inválidos retornam erro que casa com domain.ErrConfiguration.
func New(opts Options) (*Client, error) {
	log := opts.Logger
	if log.GetSink() == nil {
		log = logr.Discard()
	}

	window := domain.Window{Unit: opts.WindowUnit, Count: opts.WindowCount}
	pool, err := infra.NewPermitPool(window, opts.RequestLimit,
		infra.WithResetPolicy(opts.ResetPolicy),
		infra.WithPoolLogger(log.WithName("admission")),
	)
	if err != nil {
		return nil, err
	}

	serializer := opts.Serializer
	if serializer == nil {
		serializer = infra.JSONSerializer{}
	}
	transport := opts.Transport
	if transport == nil {
		transportOpts := []infra.HTTPTransportOption{infra.WithHTTPClient(opts.HTTPClient)}
		for k, v := range opts.Headers {
			transportOpts = append(transportOpts, infra.WithHeader(k, v))
		}
		transport = infra.NewHTTPTransport(opts.Endpoint, transportOpts...)
	}

	c := &Client{pool: pool, unregister: func() {}}
	stats := opts.Stats
	if opts.Metrics {
		metrics.Register()
		unregister, err := metrics.RegisterPool(pool)
		if err != nil {
			_ = pool.Close()
			return nil, err
		}
		c.unregister = unregister
		stats = infra.MultiStatsStore{opts.Stats, metrics.Recorder{}}
	}

	log.V(1).Info("documents client configured",
		"window", pool.Window(), "requestLimit", pool.Limit(), "policy", pool.Policy().String())

	c.dispatcher = application.Dispatcher{
		Admission:      pool,
		Serializer:     serializer,
		Transport:      transport,
		Stats:          stats,
		Logger:         log.WithName("dispatcher"),
		AcquireTimeout: opts.AcquireTimeout,
	}
	return c, nil
}

// Submit envia um documento com a assinatura fornecida pelo chamador e
// devolve o corpo da resposta. Bloqueia enquanto não houver permit.
func (c *Client) Submit(ctx context.Context, document any, signature string) ([]byte, error) {
	return c.dispatcher.Submit(ctx, document, signature)
}

// SubmitAsync não bloqueia; o Outcome chega no canal retornado.
func (c *Client) SubmitAsync(ctx context.Context, document any, signature string) <-chan domain.Outcome {
	return c.dispatcher.SubmitAsync(ctx, document, signature)
}

func (c *Client) Available() int { return c.pool.Available() }

func (c *Client) Waiting() int { return c.pool.Waiting() }

// Close para o timer da janela e remove os gauges do pool de
// metrics.Registry; submissões pendentes falham com domain.ErrClosed.
func (c *Client) Close() error {
	c.unregister()
	return c.pool.Close()
}
