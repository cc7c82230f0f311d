package documents

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"document-gateway/client/documents/domain"
	"document-gateway/client/documents/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNew_RejectsInvalidOptions(t *testing.T) {
	cases := []Options{
		{WindowUnit: time.Second, WindowCount: 1, RequestLimit: 0},
		{WindowUnit: 0, WindowCount: 1, RequestLimit: 1},
		{WindowUnit: time.Second, WindowCount: 0, RequestLimit: 1},
		{WindowUnit: time.Hour, WindowCount: 1 << 40, RequestLimit: 1},
	}
	for _, opts := range cases {
		c, err := New(opts)
		if !errors.Is(err, domain.ErrConfiguration) {
			t.Fatalf("expected ErrConfiguration for %+v, got %v", opts, err)
		}
		if c != nil {
			t.Fatalf("expected no client on configuration error")
		}
	}
}

func TestClient_SubmitPostsSignedDocument(t *testing.T) {
	var got struct {
		Document map[string]any `json:"document"`
		Sign     string         `json:"sign"`
	}
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &got)
		_, _ = io.WriteString(w, `{"value":"uuid-1"}`)
	}))
	defer srv.Close()

	c, err := New(Options{Endpoint: srv.URL, WindowUnit: time.Hour, WindowCount: 1, RequestLimit: 1})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer c.Close()

	body, err := c.Submit(context.Background(), map[string]any{"doc_id": "42"}, "signature")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if string(body) != `{"value":"uuid-1"}` {
		t.Fatalf("unexpected body %q", body)
	}
	if contentType != "application/json" {
		t.Fatalf("expected json content type, got %q", contentType)
	}
	if got.Sign != "signature" || got.Document["doc_id"] != "42" {
		t.Fatalf("unexpected payload %+v", got)
	}
	if c.Available() != 1 {
		t.Fatalf("expected permit back after submit, got %d", c.Available())
	}
}

func TestClient_NeverExceedsLimitInFlight(t *testing.T) {
	const limit = 3
	var inFlight, peak atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	// janela longa: a capacidade só volta pelos releases.
	c, err := New(Options{Endpoint: srv.URL, WindowUnit: time.Hour, WindowCount: 1, RequestLimit: limit})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer c.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Submit(context.Background(), map[string]any{}, "s"); err != nil {
				t.Errorf("submit: %v", err)
			}
		}()
	}
	wg.Wait()

	if p := peak.Load(); p > limit {
		t.Fatalf("expected at most %d requests in flight, saw %d", limit, p)
	}
	if c.Available() != limit {
		t.Fatalf("expected all permits back, got %d", c.Available())
	}
}

func TestClient_TransportErrorReleasesPermit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream", http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := New(Options{Endpoint: srv.URL, WindowUnit: time.Hour, WindowCount: 1, RequestLimit: 1})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer c.Close()

	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		_, err := c.Submit(ctx, map[string]any{}, "s")
		cancel()
		var se *domain.StatusError
		if !errors.As(err, &se) || se.Code != http.StatusBadGateway {
			t.Fatalf("attempt %d: expected StatusError 502, got %v", i+1, err)
		}
	}
}

func TestClient_CloseFailsPendingSubmit(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	c, err := New(Options{Endpoint: srv.URL, WindowUnit: time.Hour, WindowCount: 1, RequestLimit: 1})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	first := c.SubmitAsync(context.Background(), map[string]any{}, "s")
	deadline := time.Now().Add(time.Second)
	for c.Available() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("first submit never admitted")
		}
		time.Sleep(time.Millisecond)
	}

	second := c.SubmitAsync(context.Background(), map[string]any{}, "s")
	for c.Waiting() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("second submit never queued")
		}
		time.Sleep(time.Millisecond)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	out := <-second
	if !errors.Is(out.Err, domain.ErrClosed) {
		t.Fatalf("expected ErrClosed for pending submit, got %v", out.Err)
	}
	_ = first
}

func TestClient_CloseUnregistersPoolMetrics(t *testing.T) {
	opts := Options{Endpoint: "http://127.0.0.1:0", WindowUnit: time.Hour, WindowCount: 1, RequestLimit: 3, Metrics: true}

	first, err := New(opts)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := New(opts); err == nil {
		t.Fatalf("expected second metrics client to fail while the first is open")
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// sem os gauges do primeiro, um novo client registra os seus.
	second, err := New(opts)
	if err != nil {
		t.Fatalf("expected metrics client after close, got %v", err)
	}
	defer second.Close()
	got, err := testutil.GatherAndCount(metrics.Registry, "documents_permits_available")
	if err != nil || got != 1 {
		t.Fatalf("expected one permits_available gauge, got %d err=%v", got, err)
	}
}
