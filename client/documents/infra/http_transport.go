package infra

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"document-gateway/client/documents/domain"
)

// DefaultEndpoint é o endpoint de criação de documentos.
const DefaultEndpoint = "https://ismp.crpt.ru/api/v3/lk/documents/create"

const contentTypeJSON = "application/json"

// maxResponseBytes é o maior corpo de resposta aceito; acima disso Send falha.
const maxResponseBytes = 4 << 20

// HTTPTransport envia o payload via POST para um único URL fixo.
type HTTPTransport struct {
	client *http.Client
	url    string
	header http.Header
}

var _ domain.Transport = (*HTTPTransport)(nil)

type HTTPTransportOption func(*HTTPTransport)

func WithHTTPClient(c *http.Client) HTTPTransportOption {
	return func(t *HTTPTransport) {
		if c != nil {
			t.client = c
		}
	}
}

// WithHeader adiciona um header fixo a todas as requisições (ex.: Authorization).
func WithHeader(key, value string) HTTPTransportOption {
	return func(t *HTTPTransport) { t.header.Set(key, value) }
}

func NewHTTPTransport(url string, opts ...HTTPTransportOption) *HTTPTransport {
	if url == "" {
		url = DefaultEndpoint
	}
	t := &HTTPTransport{
		client: &http.Client{Timeout: 30 * time.Second},
		url:    url,
		header: make(http.Header),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *HTTPTransport) URL() string { return t.url }

func (t *HTTPTransport) Send(ctx context.Context, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", domain.ErrTransport, err)
	}
	for k, vs := range t.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", contentTypeJSON)
	if id := domain.RequestIDFrom(ctx); id != "" {
		req.Header.Set("X-Request-Id", id)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", domain.ErrTransport, err)
	}
	if len(body) > maxResponseBytes {
		return nil, fmt.Errorf("%w: response exceeds %d bytes", domain.ErrTransport, maxResponseBytes)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.StatusError{Code: resp.StatusCode, Body: body}
	}
	return body, nil
}
