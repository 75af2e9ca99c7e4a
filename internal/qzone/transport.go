package qzone

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/qzarchive/qzarchive/pkg/config"
)

// Transport fetches a URL. Implementations own timeouts and pacing; the
// client never retries.
type Transport interface {
	Open(ctx context.Context, url string, header http.Header) (io.ReadCloser, error)
}

// HTTPTransport is the default Transport: an instrumented http.Client
// paced by a token bucket.
type HTTPTransport struct {
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTPTransport builds a transport from the service config. A zero
// RequestsPerSecond disables pacing.
func NewHTTPTransport(cfg *config.QzoneConfig) *HTTPTransport {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &HTTPTransport{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Open issues a GET and returns the body of a 2xx response
func (t *HTTPTransport) Open(ctx context.Context, url string, header http.Header) (io.ReadCloser, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &TransportError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}
	return resp.Body, nil
}
