package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"document-gateway/client/documents"
	"document-gateway/client/documents/application"
	"document-gateway/client/documents/domain"
	"document-gateway/client/documents/infra"
	"document-gateway/client/documents/metrics"
	"document-gateway/config"
	"document-gateway/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		signature     = pflag.String("signature", "", "document signature (base64), passed through unchanged")
		signatureFile = pflag.String("signature-file", "", "read the signature from a file")
		endpoint      = pflag.String("endpoint", "", "override DOCS_ENDPOINT_URL")
		verbosity     = pflag.IntP("verbose", "v", -1, "log verbosity (overrides LOG_LEVEL)")
	)
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: docsender [flags] document.json [document.json ...]\n\"-\" reads one document from stdin.\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		return 2
	}
	if *verbosity >= 0 {
		cfg.LogLevel = *verbosity
	}
	if *endpoint != "" {
		cfg.EndpointURL = *endpoint
	}

	log, syncLog := logging.New(cfg.LogLevel)
	defer syncLog()

	sign, err := readSignature(*signature, *signatureFile)
	if err != nil {
		logging.Fatal(log, err, "invalid signature")
	}
	docs, err := readDocuments(pflag.Args())
	if err != nil {
		logging.Fatal(log, err, "invalid documents")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var stats domain.StatsStore
	if cfg.Stats.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Stats.RedisAddr,
			Password: cfg.Stats.RedisPassword,
			DB:       cfg.Stats.RedisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
		err := rdb.Ping(pingCtx).Err()
		pingCancel()
		if err != nil {
			logging.Fatal(log, err, "redis stats ping failed", "addr", cfg.Stats.RedisAddr)
		}
		stats = infra.NewRedisStatsStore(rdb,
			infra.WithStatsPrefix(cfg.Stats.Prefix),
			infra.WithStatsTTL(cfg.Stats.TTL),
			infra.WithStatsBucket(cfg.Stats.Bucket),
		)
	}

	opts := documents.Options{
		Endpoint:       cfg.EndpointURL,
		WindowUnit:     cfg.WindowUnit,
		WindowCount:    cfg.WindowCount,
		RequestLimit:   cfg.RequestLimit,
		ResetPolicy:    cfg.ResetPolicy,
		AcquireTimeout: cfg.AcquireTimeout,
		HTTPClient:     &http.Client{Timeout: cfg.HTTPTimeout},
		Stats:          stats,
		Metrics:        cfg.MetricsAddr != "",
		Logger:         log.WithName("documents"),
	}
	if cfg.AuthToken != "" {
		opts.Headers = map[string]string{"Authorization": "Bearer " + cfg.AuthToken}
	}

	client, err := documents.New(opts)
	if err != nil {
		log.Error(err, "failed to create documents client")
		return exitCode(err)
	}
	defer func() { _ = client.Close() }()

	if cfg.MetricsAddr != "" {
		stopMetrics := serveMetrics(log, cfg.MetricsAddr)
		defer stopMetrics()
	}

	log.Info("submitting documents",
		"count", len(docs), "endpoint", cfg.EndpointURL, "requestLimit", cfg.RequestLimit,
		"window", (domain.Window{Unit: cfg.WindowUnit, Count: cfg.WindowCount}).Duration().String(),
		"policy", cfg.ResetPolicy.String())

	failed := submitAll(ctx, log, client, docs, sign)
	if failed > 0 {
		log.Info("finished with failures", "failed", failed, "total", len(docs))
		return 1
	}
	log.Info("all documents submitted", "total", len(docs))
	return 0
}

// exitCode: 2 para erro de configuração, 1 para qualquer outra falha.
func exitCode(err error) int {
	if errors.Is(err, domain.ErrConfiguration) {
		return 2
	}
	return 1
}

type namedDocument struct {
	name string
	doc  json.RawMessage
}

func submitAll(ctx context.Context, log logr.Logger, client *documents.Client, docs []namedDocument, sign string) int {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	for _, d := range docs {
		d := d
		wg.Add(1)
		go func() {
			defer wg.Done()
			body, err := client.Submit(ctx, d.doc, sign)
			if err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
				log.Error(err, "document failed", "file", d.name, "outcome", string(application.Classify(err)))
				return
			}
			log.Info("document accepted", "file", d.name, "response", strings.TrimSpace(string(body)))
		}()
	}
	wg.Wait()
	return failed
}

func readSignature(flagValue, file string) (string, error) {
	if flagValue != "" && file != "" {
		return "", errors.New("use either --signature or --signature-file")
	}
	if file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		flagValue = strings.TrimSpace(string(b))
	}
	if flagValue == "" {
		return "", errors.New("signature is required")
	}
	return flagValue, nil
}

func readDocuments(paths []string) ([]namedDocument, error) {
	if len(paths) == 0 {
		return nil, errors.New("at least one document file is required")
	}
	docs := make([]namedDocument, 0, len(paths))
	for _, p := range paths {
		var (
			b   []byte
			err error
		)
		if p == "-" {
			b, err = io.ReadAll(os.Stdin)
		} else {
			b, err = os.ReadFile(p)
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		if !json.Valid(b) {
			return nil, fmt.Errorf("%s is not valid json", p)
		}
		docs = append(docs, namedDocument{name: p, doc: json.RawMessage(b)})
	}
	return docs, nil
}

func serveMetrics(log logr.Logger, addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(err, "metrics server failed", "addr", addr)
		}
	}()
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}
