package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Page is a canned HTTP response served by a Site.
type Page struct {
	ContentType string
	Body        string
	Status      int
	// Location makes the page a redirect to the given path.
	Location string
}

// Site is an httptest server serving fixed pages by path.
type Site struct {
	*httptest.Server
	pages map[string]Page
	hits  map[string]int
	mu    sync.Mutex
}

// NewSite starts a server for the given pages. Unknown paths return 404.
// The server is closed when the test ends.
func NewSite(t *testing.T, pages map[string]Page) *Site {
	t.Helper()
	s := &Site{pages: pages, hits: make(map[string]int)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// Hits returns how many times path was requested.
func (s *Site) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// URLFor returns the absolute URL of path on the site.
func (s *Site) URLFor(path string) string {
	return s.Server.URL + path
}

func (s *Site) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.hits[r.URL.Path]++
	s.mu.Unlock()

	page, ok := s.pages[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	if page.Location != "" {
		http.Redirect(w, r, page.Location, http.StatusFound)
		return
	}
	if page.ContentType != "" {
		w.Header().Set("Content-Type", page.ContentType)
	}
	status := page.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte(page.Body))
}
