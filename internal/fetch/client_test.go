package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// TestClientFetch tests single-request resource fetching.
func TestClientFetch(t *testing.T) {
	t.Parallel()

	t.Run("returns body and content type", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte("png-bytes"))
		}))
		defer srv.Close()

		client, err := NewClient(5 * time.Second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		payload, err := client.Fetch(context.Background(), srv.URL+"/a.png")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(payload.Body) != "png-bytes" {
			t.Errorf("unexpected body %q", payload.Body)
		}
		if payload.ContentType != "image/png" {
			t.Errorf("expected content type image/png, got %q", payload.ContentType)
		}
		if payload.StatusCode != http.StatusOK {
			t.Errorf("expected status 200, got %d", payload.StatusCode)
		}
	})

	t.Run("sends browser headers and document referer", func(t *testing.T) {
		t.Parallel()

		var got http.Header
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r.Header.Clone()
			_, _ = w.Write([]byte("ok"))
		}))
		defer srv.Close()

		client, err := NewClient(5*time.Second,
			WithHeaders(map[string]string{"X-Extra": "1"}),
			WithCookie("a=b"),
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		docClient := client.ForDocument("https://mp.weixin.qq.com/s/article")
		if _, err := docClient.Fetch(context.Background(), srv.URL); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got.Get("User-Agent") != DefaultUserAgent {
			t.Errorf("unexpected user agent %q", got.Get("User-Agent"))
		}
		if got.Get("Accept") != DefaultAccept {
			t.Errorf("unexpected accept %q", got.Get("Accept"))
		}
		if got.Get("Referer") != "https://mp.weixin.qq.com/s/article" {
			t.Errorf("unexpected referer %q", got.Get("Referer"))
		}
		if got.Get("Cookie") != "a=b" {
			t.Errorf("unexpected cookie %q", got.Get("Cookie"))
		}
		if got.Get("X-Extra") != "1" {
			t.Errorf("expected extra header, got %q", got.Get("X-Extra"))
		}
	})

	t.Run("non-2xx status is an error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "forbidden", http.StatusForbidden)
		}))
		defer srv.Close()

		client, err := NewClient(5 * time.Second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		_, err = client.Fetch(context.Background(), srv.URL)
		if !errors.Is(err, ErrUnexpectedStatus) {
			t.Errorf("expected ErrUnexpectedStatus, got %v", err)
		}
	})

	t.Run("oversized body is an error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(strings.Repeat("x", 64)))
		}))
		defer srv.Close()

		client, err := NewClient(5*time.Second, WithMaxBodySize(16))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		_, err = client.Fetch(context.Background(), srv.URL)
		if !errors.Is(err, ErrBodyTooLarge) {
			t.Errorf("expected ErrBodyTooLarge, got %v", err)
		}
	})

	t.Run("timeout is an error", func(t *testing.T) {
		t.Parallel()

		done := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			select {
			case <-done:
			case <-time.After(2 * time.Second):
			}
			_, _ = w.Write([]byte("late"))
		}))
		defer srv.Close()
		defer close(done)

		client, err := NewClient(50 * time.Millisecond)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := client.Fetch(context.Background(), srv.URL); err == nil {
			t.Error("expected timeout error")
		}
	})

	t.Run("invalid URL is an error", func(t *testing.T) {
		t.Parallel()

		client, err := NewClient(time.Second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		_, err = client.Fetch(context.Background(), "http://[::1")
		if !errors.Is(err, ErrInvalidURL) {
			t.Errorf("expected ErrInvalidURL, got %v", err)
		}
	})
}

// TestClientForDocument tests referer selection.
func TestClientForDocument(t *testing.T) {
	t.Parallel()

	client, err := NewClient(time.Second, WithReferer("https://fallback.example/"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name    string
		referer string
		want    string
	}{
		{name: "canonical url is used", referer: "https://site.example/post", want: "https://site.example/post"},
		{name: "empty keeps fallback", referer: "", want: "https://fallback.example/"},
		{name: "non-http keeps fallback", referer: "/relative/post", want: "https://fallback.example/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := client.ForDocument(tt.referer).Referer(); got != tt.want {
				t.Errorf("expected referer %q, got %q", tt.want, got)
			}
		})
	}

	if client.Referer() != "https://fallback.example/" {
		t.Error("ForDocument must not modify the original client")
	}
}

// TestNewClientWithProxy tests SOCKS5 transport construction.
func TestNewClientWithProxy(t *testing.T) {
	t.Parallel()

	client, err := NewClient(time.Second, WithProxy("127.0.0.1:1080"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	transport, ok := client.httpClient.Transport.(*http.Transport)
	if !ok {
		t.Fatal("expected *http.Transport")
	}
	if transport.DialContext == nil {
		t.Error("expected SOCKS5 DialContext to be installed")
	}
	if transport.Proxy != nil {
		t.Error("expected environment proxy to be disabled")
	}
}
