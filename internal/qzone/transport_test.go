package qzone

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/qzarchive/qzarchive/pkg/config"
)

func TestHTTPTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			if r.Header.Get("Cookie") != "uin=o1" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			w.Write([]byte("cb(1)"))
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	tr := NewHTTPTransport(&config.QzoneConfig{Timeout: 5 * time.Second, RequestsPerSecond: 50})
	header := http.Header{"Cookie": []string{"uin=o1"}}

	t.Run("success", func(t *testing.T) {
		rc, err := tr.Open(context.Background(), srv.URL+"/ok", header)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer rc.Close()
		body, _ := io.ReadAll(rc)
		if string(body) != "cb(1)" {
			t.Errorf("body = %q", body)
		}
	})

	t.Run("non-2xx", func(t *testing.T) {
		_, err := tr.Open(context.Background(), srv.URL+"/down", header)
		var te *TransportError
		if !errors.As(err, &te) {
			t.Fatalf("Open() error = %v, want *TransportError", err)
		}
		if te.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("StatusCode = %d", te.StatusCode)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := tr.Open(ctx, srv.URL+"/ok", header)
		var te *TransportError
		if !errors.As(err, &te) {
			t.Fatalf("Open() error = %v, want *TransportError", err)
		}
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Open() error = %v, want context.Canceled inside", err)
		}
	})
}
