package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"document-gateway/logging"
	"document-gateway/stubapi"
)

func main() {
	// Substituto local do endpoint de criação de documentos, com a mesma
	// cota por chave que o servidor real aplica.
	_ = godotenv.Load()

	verbosity, _ := strconv.Atoi(os.Getenv("LOG_LEVEL"))
	log, syncLog := logging.New(verbosity)
	defer syncLog()

	requests := getenvIntDefault("STUB_REQUESTS", 10)
	window := getenvDurationDefault("STUB_WINDOW", time.Second)
	quota := stubapi.NewQuota(requests, window,
		stubapi.WithIdleTTL(getenvDurationDefault("STUB_IDLE_TTL", 10*time.Minute)),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	quota.StartJanitor(ctx)

	inflight := stubapi.NewInFlight(
		getenvIntDefault("STUB_MAX_INFLIGHT", 0),
		getenvDurationDefault("STUB_INFLIGHT_TIMEOUT", 0),
	)

	server := stubapi.NewServer(log.WithName("stubapi"))
	h := server.Router(
		stubapi.Throttle(stubapi.ThrottleOptions{
			Quota:     quota,
			KeyHeader: "Authorization",
			Logger:    log.WithName("throttle"),
		}),
		inflight.Middleware,
	)

	addr := getenvDefault("LISTEN_ADDR", ":8082")
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("stub endpoint listening", "addr", addr, "path", stubapi.DocumentsPath,
		"requests", requests, "window", window.String())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Fatal(log, err, "server error")
	}
	log.Info("stub endpoint stopped", "accepted", server.Accepted(), "peakInFlight", inflight.Peak())
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func getenvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
