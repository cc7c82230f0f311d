package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"document-gateway/client/documents/domain"

	"github.com/google/go-cmp/cmp"
)

func TestJSONSerializer_EnvelopesDocumentAndSign(t *testing.T) {
	doc := domain.Document{
		DocID:          "abc",
		DocType:        "LP_INTRODUCE_GOODS",
		ImportRequest:  true,
		ProductionDate: domain.NewDate(2020, time.January, 23),
		Products: []domain.Product{
			{TnvedCode: "6401", UITCode: "010460"},
		},
	}

	b, err := JSONSerializer{}.Serialize(doc, "c2lnbg==")
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("payload is not json: %v", err)
	}
	if got["sign"] != "c2lnbg==" {
		t.Fatalf("expected sign field, got %v", got["sign"])
	}
	document, ok := got["document"].(map[string]any)
	if !ok {
		t.Fatalf("expected document object, got %T", got["document"])
	}
	want := map[string]any{
		"doc_id":          "abc",
		"doc_type":        "LP_INTRODUCE_GOODS",
		"importRequest":   true,
		"production_date": "2020-01-23",
	}
	for k, v := range want {
		if diff := cmp.Diff(v, document[k]); diff != "" {
			t.Fatalf("field %s mismatch (-want +got):\n%s", k, diff)
		}
	}
}

func TestJSONSerializer_PassesOpaqueDocumentsThrough(t *testing.T) {
	doc := map[string]any{"nested": map[string]any{"list": []any{1.0, "x"}}}
	b, err := JSONSerializer{}.Serialize(doc, "s")
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	var got struct {
		Document map[string]any `json:"document"`
		Sign     string         `json:"sign"`
	}
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff(doc, got.Document); diff != "" {
		t.Fatalf("document changed (-want +got):\n%s", diff)
	}
}

func TestJSONSerializer_WrapsEncodingErrors(t *testing.T) {
	_, err := JSONSerializer{}.Serialize(math.Inf(1), "s")
	if !errors.Is(err, domain.ErrSerialization) {
		t.Fatalf("expected ErrSerialization, got %v", err)
	}
}

func TestHTTPTransport_PostsJSON(t *testing.T) {
	var gotMethod, gotCT, gotID, gotAuth string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotCT = r.Header.Get("Content-Type")
		gotID = r.Header.Get("X-Request-Id")
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `{"value":"ok"}`)
	}))
	defer srv.Close()

	tr := NewHTTPTransport(srv.URL, WithHeader("Authorization", "Bearer t"))
	ctx := domain.WithRequestID(context.Background(), "req-1")
	body, err := tr.Send(ctx, []byte(`{"a":1}`))
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if string(body) != `{"value":"ok"}` {
		t.Fatalf("unexpected body %q", body)
	}
	if gotMethod != http.MethodPost {
		t.Fatalf("expected POST, got %s", gotMethod)
	}
	if gotCT != "application/json" {
		t.Fatalf("expected json content type, got %q", gotCT)
	}
	if gotID != "req-1" {
		t.Fatalf("expected request id header, got %q", gotID)
	}
	if gotAuth != "Bearer t" {
		t.Fatalf("expected static header, got %q", gotAuth)
	}
	if string(gotBody) != `{"a":1}` {
		t.Fatalf("unexpected request body %q", gotBody)
	}
}

func TestHTTPTransport_NonSuccessStatusIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewHTTPTransport(srv.URL).Send(context.Background(), []byte(`{}`))
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	var se *domain.StatusError
	if !errors.As(err, &se) || se.Code != http.StatusTooManyRequests {
		t.Fatalf("expected StatusError 429, got %v", err)
	}
}

func TestHTTPTransport_OversizedResponseIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(bytes.Repeat([]byte("a"), maxResponseBytes+1024))
	}))
	defer srv.Close()

	body, err := NewHTTPTransport(srv.URL).Send(context.Background(), []byte(`{}`))
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("expected ErrTransport for oversized body, got %v", err)
	}
	if body != nil {
		t.Fatalf("expected no body, got %d bytes", len(body))
	}
}

func TestHTTPTransport_ResponseAtLimitIsAccepted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(bytes.Repeat([]byte("a"), maxResponseBytes))
	}))
	defer srv.Close()

	body, err := NewHTTPTransport(srv.URL).Send(context.Background(), []byte(`{}`))
	if err != nil {
		t.Fatalf("expected success at the limit, got %v", err)
	}
	if len(body) != maxResponseBytes {
		t.Fatalf("expected %d bytes, got %d", maxResponseBytes, len(body))
	}
}

func TestHTTPTransport_NetworkFailureIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewHTTPTransport(url).Send(context.Background(), []byte(`{}`))
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}

func TestNewHTTPTransport_DefaultsEndpoint(t *testing.T) {
	if got := NewHTTPTransport("").URL(); got != DefaultEndpoint {
		t.Fatalf("expected default endpoint, got %q", got)
	}
}
