package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/reglet-dev/opensearch-nix/domain/errors"
	"github.com/reglet-dev/opensearch-nix/domain/ports"
	"github.com/reglet-dev/opensearch-nix/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Get(t *testing.T) {
	site := testutil.NewSite(t, map[string]testutil.Page{
		"/": {ContentType: "text/html; charset=utf-8", Body: "<html></html>"},
	})

	resp, err := New().Get(context.Background(), site.URLFor("/"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "<html></html>", string(resp.Body))
	assert.Equal(t, "text/html; charset=utf-8", resp.ContentType())
	assert.Equal(t, "HTTP/1.1", resp.Proto)
	assert.Equal(t, site.URLFor("/"), resp.FinalURL)
}

func TestClient_UserAgent(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	_, err := New(WithUserAgent("test-agent/2")).Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "test-agent/2", got)

	_, err = New().Do(context.Background(), ports.HTTPRequest{
		URL:     srv.URL,
		Headers: map[string]string{"User-Agent": "override"},
	})
	require.NoError(t, err)
	assert.Equal(t, "override", got)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestClient_WithTransport(t *testing.T) {
	var seen []string
	transport := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		seen = append(seen, r.URL.String()+" "+r.Header.Get("User-Agent"))
		return &http.Response{
			StatusCode: http.StatusOK,
			Proto:      "HTTP/1.1",
			Header:     http.Header{"Content-Type": {"application/opensearchdescription+xml"}},
			Body:       io.NopCloser(strings.NewReader("<OpenSearchDescription/>")),
			Request:    r,
		}, nil
	})

	resp, err := New(WithTransport(transport), WithUserAgent("offline/1")).Get(context.Background(), "https://example.invalid/osd.xml")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.invalid/osd.xml offline/1"}, seen)
	assert.Equal(t, "<OpenSearchDescription/>", string(resp.Body))
	assert.Equal(t, "application/opensearchdescription+xml", resp.ContentType())
	assert.Equal(t, "https://example.invalid/osd.xml", resp.FinalURL)
}

func TestClient_NonSuccessIsReturned(t *testing.T) {
	site := testutil.NewSite(t, nil)

	resp, err := New().Get(context.Background(), site.URLFor("/missing"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestClient_Redirects(t *testing.T) {
	site := testutil.NewSite(t, map[string]testutil.Page{
		"/a":    {Location: "/b"},
		"/b":    {Location: "/page"},
		"/page": {Body: "ok"},
	})

	t.Run("followed", func(t *testing.T) {
		resp, err := New().Get(context.Background(), site.URLFor("/a"))
		require.NoError(t, err)
		assert.Equal(t, "ok", string(resp.Body))
		assert.Equal(t, site.URLFor("/page"), resp.FinalURL)
	})

	t.Run("limit", func(t *testing.T) {
		_, err := New(WithMaxRedirects(1)).Get(context.Background(), site.URLFor("/a"))
		httpErr := testutil.RequireErrorAs[*errors.HTTPError](t, err)
		assert.Contains(t, httpErr.Error(), "stopped after 1 redirects")
	})

	t.Run("disabled", func(t *testing.T) {
		_, err := New(WithMaxRedirects(0)).Get(context.Background(), site.URLFor("/b"))
		assert.Error(t, err)
	})
}

func TestClient_MaxBodySize(t *testing.T) {
	site := testutil.NewSite(t, map[string]testutil.Page{
		"/big":   {Body: strings.Repeat("x", 64)},
		"/exact": {Body: strings.Repeat("x", 32)},
	})
	c := New(WithMaxBodySize(32))

	_, err := c.Get(context.Background(), site.URLFor("/big"))
	httpErr := testutil.RequireErrorAs[*errors.HTTPError](t, err)
	assert.Equal(t, http.StatusOK, httpErr.StatusCode)
	assert.Contains(t, httpErr.Error(), "exceeds 32 bytes")

	resp, err := c.Get(context.Background(), site.URLFor("/exact"))
	require.NoError(t, err)
	assert.Len(t, resp.Body, 32)
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	_, err := New(WithTimeout(50*time.Millisecond)).Get(context.Background(), srv.URL)
	timeoutErr := testutil.RequireErrorAs[*errors.TimeoutError](t, err)
	assert.True(t, timeoutErr.Timeout())
	assert.Equal(t, srv.URL, timeoutErr.Target)
}

func TestClient_InvalidRequest(t *testing.T) {
	_, err := New().Do(context.Background(), ports.HTTPRequest{})
	testutil.RequireErrorAs[*errors.HTTPError](t, err)

	_, err = New().Get(context.Background(), "http://bad host/")
	testutil.RequireErrorAs[*errors.HTTPError](t, err)
}

func TestClient_RateLimit(t *testing.T) {
	site := testutil.NewSite(t, map[string]testutil.Page{"/": {Body: "ok"}})
	c := New(WithRateLimit(20))

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.Get(context.Background(), site.URLFor("/"))
		require.NoError(t, err)
	}
	// Burst of one: the second and third requests each wait ~50ms.
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
	assert.Equal(t, 3, site.Hits("/"))
}

func TestClient_RateLimitHonorsContext(t *testing.T) {
	c := New(WithRateLimit(0.001))
	site := testutil.NewSite(t, map[string]testutil.Page{"/": {Body: "ok"}})

	_, err := c.Get(context.Background(), site.URLFor("/"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Get(ctx, site.URLFor("/"))
	assert.Error(t, err)
}
