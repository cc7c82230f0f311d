package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"document-gateway/client/documents/domain"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
)

// Dispatcher transforma um par (documento, assinatura) em exatamente uma
// chamada ao Transport, sempre dentro de um ciclo Acquire/Release.
//
// Admission, Serializer e Transport são obrigatórios. Stats e Logger são
// opcionais.
type Dispatcher struct {
	Admission  domain.PermitPool
	Serializer domain.Serializer
	Transport  domain.Transport
	Stats      domain.StatsStore
	Logger     logr.Logger

	// AcquireTimeout limita a espera por admissão.
	// - Se <= 0, espera até o ctx cancelar.
	// - Se > 0, espera até o timeout; o envio em si usa o ctx original.
	AcquireTimeout time.Duration

	// NewRequestID gera o id de cada submissão (padrão uuid.NewString).
	NewRequestID func() string
}

// Submit bloqueia até a admissão, envia e devolve o corpo da resposta.
// Não faz retry.
func (d Dispatcher) Submit(ctx context.Context, document any, signature string) ([]byte, error) {
	out := d.dispatch(ctx, document, signature)
	return out.Body, out.Err
}

// SubmitAsync executa Submit em uma goroutine e entrega exatamente um Outcome
// no canal retornado, que é fechado em seguida.
func (d Dispatcher) SubmitAsync(ctx context.Context, document any, signature string) <-chan domain.Outcome {
	ch := make(chan domain.Outcome, 1)
	go func() {
		defer close(ch)
		ch <- d.dispatch(ctx, document, signature)
	}()
	return ch
}

func (d Dispatcher) dispatch(ctx context.Context, document any, signature string) (out domain.Outcome) {
	start := time.Now()
	out.RequestID = d.requestID()
	log := d.logger().WithValues("requestID", out.RequestID)

	var (
		wait     time.Duration
		finished bool
	)
	defer func() {
		// em panic o permit é devolvido, mas o evento não é contabilizado.
		if finished {
			d.record(ctx, log, out, wait, time.Since(start))
		}
	}()

	if err := d.acquire(ctx); err != nil {
		log.V(1).Info("admission failed", "err", err.Error())
		out.Err = err
		finished = true
		return out
	}
	wait = time.Since(start)
	defer d.Admission.Release()

	payload, err := d.Serializer.Serialize(document, signature)
	if err != nil {
		out.Err = wrapAs(domain.ErrSerialization, err)
		log.Error(out.Err, "failed to serialize document")
		finished = true
		return out
	}

	body, err := d.Transport.Send(domain.WithRequestID(ctx, out.RequestID), payload)
	if err != nil {
		out.Err = wrapAs(domain.ErrTransport, err)
		log.Error(out.Err, "failed to send document", "wait", wait)
		finished = true
		return out
	}

	log.V(1).Info("document submitted", "wait", wait, "bytes", len(payload))
	out.Body = body
	finished = true
	return out
}

func (d Dispatcher) acquire(ctx context.Context) error {
	if d.AcquireTimeout <= 0 {
		return d.Admission.Acquire(ctx)
	}
	acqCtx, cancel := context.WithTimeout(ctx, d.AcquireTimeout)
	defer cancel()
	return d.Admission.Acquire(acqCtx)
}

func (d Dispatcher) record(ctx context.Context, log logr.Logger, out domain.Outcome, wait, took time.Duration) {
	if d.Stats == nil {
		return
	}
	ev := domain.StatsEvent{
		RequestID: out.RequestID,
		Outcome:   Classify(out.Err),
		Wait:      wait,
		Took:      took,
		At:        time.Now(),
	}
	if err := d.Stats.Record(context.WithoutCancel(ctx), ev); err != nil {
		log.Error(err, "failed to record submission stats")
	}
}

// Classify mapeia o erro de uma submissão para o seu OutcomeKind.
func Classify(err error) domain.OutcomeKind {
	switch {
	case err == nil:
		return domain.OutcomeSuccess
	case errors.Is(err, domain.ErrCancelled):
		return domain.OutcomeCancelled
	case errors.Is(err, domain.ErrClosed):
		return domain.OutcomeClosed
	case errors.Is(err, domain.ErrSerialization):
		return domain.OutcomeSerialization
	default:
		return domain.OutcomeTransport
	}
}

func (d Dispatcher) requestID() string {
	if d.NewRequestID != nil {
		return d.NewRequestID()
	}
	return uuid.NewString()
}

func (d Dispatcher) logger() logr.Logger {
	if d.Logger.GetSink() == nil {
		return logr.Discard()
	}
	return d.Logger
}

func wrapAs(kind, err error) error {
	if errors.Is(err, kind) {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}
