package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// Default request settings.
const (
	// DefaultUserAgent mimics a desktop Chrome browser. Image CDNs used by
	// article platforms answer bot user agents with 403 or an anti-hotlink image.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/122.0.0.0 Safari/537.36"

	// DefaultAccept prefers image formats, like a browser loading an <img>.
	DefaultAccept = "image/avif,image/webp,image/apng,image/*,*/*;q=0.8"

	// DefaultReferer is used when the document carries no canonical URL.
	DefaultReferer = "https://mp.weixin.qq.com/"

	// DefaultTimeout bounds a single resource request.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodySize limits how much of one resource is read into memory.
	DefaultMaxBodySize = 20 * 1024 * 1024 // 20MB
)

// Payload is a successfully fetched resource.
type Payload struct {
	// Body is the complete response body.
	Body []byte

	// ContentType is the raw Content-Type response header, possibly empty.
	ContentType string

	// StatusCode is the HTTP status of the response.
	StatusCode int
}

// Client fetches remote resources over HTTP.
// A Client is safe for concurrent use; ForDocument returns a copy that
// shares the underlying http.Client.
type Client struct {
	// httpClient performs the requests. Its Timeout is the per-request limit.
	httpClient *http.Client

	// userAgent is sent as the User-Agent header.
	userAgent string

	// accept is sent as the Accept header.
	accept string

	// referer is sent as the Referer header.
	referer string

	// cookie is sent as the Cookie header when non-empty.
	cookie string

	// headers are extra request headers from the configuration file.
	headers map[string]string

	// maxBodySize limits the response body size. Larger bodies are failures.
	maxBodySize int64

	// proxyAddress is an optional SOCKS5 proxy in host:port form.
	proxyAddress string
}

// Option configures a Client.
type Option func(*Client)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithReferer sets the fallback Referer header.
func WithReferer(referer string) Option {
	return func(c *Client) {
		if referer != "" {
			c.referer = referer
		}
	}
}

// WithCookie sets a Cookie header sent with every request.
func WithCookie(cookie string) Option {
	return func(c *Client) {
		c.cookie = cookie
	}
}

// WithHeaders adds extra headers sent with every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		if len(headers) == 0 {
			return
		}
		c.headers = make(map[string]string, len(headers))
		for k, v := range headers {
			c.headers[k] = v
		}
	}
}

// WithMaxBodySize sets the maximum accepted response size.
func WithMaxBodySize(size int64) Option {
	return func(c *Client) {
		if size > 0 {
			c.maxBodySize = size
		}
	}
}

// WithProxy routes all requests through a SOCKS5 proxy at address (host:port).
func WithProxy(address string) Option {
	return func(c *Client) {
		c.proxyAddress = address
	}
}

// WithHTTPClient replaces the underlying http.Client. Mostly useful in tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a Client whose requests time out after timeout.
// It returns an error only when the proxy dialer cannot be created.
func NewClient(timeout time.Duration, opts ...Option) (*Client, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		userAgent:   DefaultUserAgent,
		accept:      DefaultAccept,
		referer:     DefaultReferer,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		transport, err := newTransport(c.proxyAddress)
		if err != nil {
			return nil, err
		}
		c.httpClient = &http.Client{
			Timeout:   timeout,
			Transport: transport,
		}
	}

	return c, nil
}

// newTransport builds the HTTP transport, optionally dialing through SOCKS5.
func newTransport(proxyAddress string) (*http.Transport, error) {
	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		base = &http.Transport{}
	}
	transport := base.Clone()

	if proxyAddress == "" {
		return transport, nil
	}

	dialer, err := proxy.SOCKS5("tcp", proxyAddress, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}

	// Environment proxies must not bypass the SOCKS5 route.
	transport.Proxy = nil
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		transport.DialContext = cd.DialContext
	} else {
		transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	}

	return transport, nil
}

// ForDocument returns a copy of c that sends referer as the Referer header.
// An empty or non-http referer keeps the client's fallback referer.
func (c *Client) ForDocument(referer string) *Client {
	clone := *c
	if referer = strings.TrimSpace(referer); strings.HasPrefix(referer, "http") {
		clone.referer = referer
	}
	return &clone
}

// Referer returns the Referer header this client sends.
func (c *Client) Referer() string {
	return c.referer
}

// Fetch performs a single GET request for rawURL.
// Any transport error, non-2xx status or oversized body is returned as an error.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", c.accept)
	req.Header.Set("Referer", c.referer)
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.CopyN(io.Discard, resp.Body, 4096) //nolint:errcheck // best effort
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	if resp.ContentLength > c.maxBodySize {
		return nil, ErrBodyTooLarge
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > c.maxBodySize {
		return nil, ErrBodyTooLarge
	}

	return &Payload{
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}, nil
}
