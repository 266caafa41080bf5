package ports

import (
	"context"
	"net/http"
)

// HTTPClient defines the interface for HTTP operations.
// Infrastructure adapters implement this to provide HTTP functionality.
type HTTPClient interface {
	// Do executes an HTTP request and returns the response.
	Do(ctx context.Context, req HTTPRequest) (*HTTPResponse, error)

	// Get performs an HTTP GET request.
	Get(ctx context.Context, url string) (*HTTPResponse, error)
}

// HTTPRequest represents an HTTP request.
type HTTPRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
	Timeout int // milliseconds
}

// HTTPResponse represents an HTTP response.
type HTTPResponse struct {
	Headers    map[string][]string
	Body       []byte
	Proto      string // e.g. "HTTP/1.1"
	FinalURL   string // URL after redirects
	StatusCode int
}

// ContentType returns the first Content-Type header value, or "".
func (r *HTTPResponse) ContentType() string {
	return http.Header(r.Headers).Get("Content-Type")
}
