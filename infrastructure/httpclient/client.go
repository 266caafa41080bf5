// Package httpclient implements ports.HTTPClient on net/http with a body
// size limit, a bounded redirect policy and optional client-side rate
// limiting.
package httpclient

import (
	"bytes"
	"context"
	stdErrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/reglet-dev/opensearch-nix/domain/errors"
	"github.com/reglet-dev/opensearch-nix/domain/ports"
	"golang.org/x/time/rate"
)

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	transport    http.RoundTripper
	logger       *slog.Logger
	userAgent    string
	timeout      time.Duration
	maxBodySize  int64
	rateLimit    float64
	maxRedirects int
}

func defaultClientConfig() clientConfig {
	return clientConfig{
		userAgent:    "opensearch-nix/1.0",
		timeout:      30 * time.Second,
		maxRedirects: 10,
		maxBodySize:  10 * 1024 * 1024, // 10MB
		logger:       slog.Default(),
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxRedirects sets how many redirects are followed. Zero disables
// following redirects.
func WithMaxRedirects(n int) Option {
	return func(c *clientConfig) {
		if n >= 0 {
			c.maxRedirects = n
		}
	}
}

// WithMaxBodySize sets the largest response body accepted, in bytes.
func WithMaxBodySize(size int64) Option {
	return func(c *clientConfig) {
		if size > 0 {
			c.maxBodySize = size
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *clientConfig) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithRateLimit caps outgoing requests per second across all goroutines
// sharing the client. Zero means unlimited.
func WithRateLimit(perSecond float64) Option {
	return func(c *clientConfig) {
		if perSecond >= 0 {
			c.rateLimit = perSecond
		}
	}
}

// WithTransport replaces the underlying round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *clientConfig) {
		c.transport = rt
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// Client performs HTTP requests. It is safe for concurrent use.
type Client struct {
	client  *http.Client
	limiter *rate.Limiter
	config  clientConfig
}

var _ ports.HTTPClient = (*Client)(nil)

// New creates a Client with the given options.
func New(opts ...Option) *Client {
	cfg := defaultClientConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	transport := cfg.transport
	if transport == nil {
		transport = &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		}
	}

	maxRedirects := cfg.maxRedirects
	client := &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}

	c := &Client{client: client, config: cfg}
	if cfg.rateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.rateLimit), 1)
	}
	return c
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, url string) (*ports.HTTPResponse, error) {
	return c.Do(ctx, ports.HTTPRequest{Method: http.MethodGet, URL: url})
}

// Do executes a request. Any response that arrives is returned, whatever its
// status code; transport failures, timeouts and oversized bodies are errors.
func (c *Client) Do(ctx context.Context, req ports.HTTPRequest) (*ports.HTTPResponse, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	if req.URL == "" {
		return nil, &errors.HTTPError{Method: method, Err: stdErrors.New("URL is required")}
	}

	timeout := c.config.timeout
	if req.Timeout > 0 {
		timeout = time.Duration(req.Timeout) * time.Millisecond
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &errors.HTTPError{Method: method, URL: req.URL, Err: err}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, &errors.HTTPError{Method: method, URL: req.URL, Err: err}
	}
	httpReq.Header.Set("User-Agent", c.config.userAgent)
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, c.classify(ctx, err, method, req.URL, timeout)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.config.maxBodySize+1))
	if err != nil {
		return nil, c.classify(ctx, err, method, req.URL, timeout)
	}
	if int64(len(data)) > c.config.maxBodySize {
		return nil, &errors.HTTPError{
			Method:     method,
			URL:        req.URL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("response body exceeds %d bytes", c.config.maxBodySize),
		}
	}

	finalURL := req.URL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	c.config.logger.Debug("http request",
		"method", method,
		"url", req.URL,
		"final_url", finalURL,
		"status", resp.StatusCode,
		"bytes", len(data),
		"latency", time.Since(start),
	)

	return &ports.HTTPResponse{
		Headers:    resp.Header,
		Body:       data,
		Proto:      resp.Proto,
		FinalURL:   finalURL,
		StatusCode: resp.StatusCode,
	}, nil
}

func (c *Client) classify(ctx context.Context, err error, method, url string, timeout time.Duration) error {
	var netErr net.Error
	if stdErrors.Is(ctx.Err(), context.DeadlineExceeded) || (stdErrors.As(err, &netErr) && netErr.Timeout()) {
		return &errors.TimeoutError{Operation: "http " + method, Target: url, Duration: timeout}
	}
	return &errors.HTTPError{Method: method, URL: url, Err: err}
}
