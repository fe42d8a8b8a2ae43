// Package testutil provides a scripted download site for tests.
package testutil

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// File is a downloadable resource of a Site.
type File struct {
	Content      []byte
	LastModified time.Time
	// Header is added to every response for the file.
	Header http.Header
}

// Site is an httptest server serving files with conditional GET support,
// redirects, Refresh redirects and plain pages.
type Site struct {
	Server *httptest.Server
	URL    string

	mu       sync.Mutex
	files    map[string]File
	pages    map[string]string
	handlers map[string]http.HandlerFunc
	requests []*http.Request
}

// NewSite starts a Site that is closed when the test ends.
func NewSite(t *testing.T) *Site {
	t.Helper()
	s := &Site{
		files:    make(map[string]File),
		pages:    make(map[string]string),
		handlers: make(map[string]http.HandlerFunc),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	s.URL = s.Server.URL
	t.Cleanup(s.Server.Close)
	return s
}

// AddFile serves content at path with the given modification time.
func (s *Site) AddFile(path string, content []byte, modTime time.Time) {
	s.SetFile(path, File{Content: content, LastModified: modTime})
}

// SetFile serves f at path.
func (s *Site) SetFile(path string, f File) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = f
}

// AddPage serves html at path as text/html.
func (s *Site) AddPage(path, html string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[path] = html
}

// AddRedirect answers path with code and Location target.
func (s *Site) AddRedirect(path string, code int, target string) {
	s.Handle(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", target)
		w.WriteHeader(code)
	})
}

// AddRefresh answers path with 200 and a Refresh header pointing at target.
func (s *Site) AddRefresh(path, target string) {
	s.Handle(path, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Refresh", fmt.Sprintf("0; url=%s", target))
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>Redirecting</body></html>"))
	})
}

// Handle installs a custom handler for path.
func (s *Site) Handle(path string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[path] = h
}

// URLFor returns the absolute URL of path on the site.
func (s *Site) URLFor(t *testing.T, path string) *url.URL {
	t.Helper()
	u, err := url.Parse(s.URL + path)
	if err != nil {
		t.Fatalf("invalid site path %q: %v", path, err)
	}
	return u
}

// Requests returns the requests received so far.
func (s *Site) Requests() []*http.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*http.Request(nil), s.requests...)
}

// LastRequest returns the most recent request, or nil.
func (s *Site) LastRequest() *http.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return nil
	}
	return s.requests[len(s.requests)-1]
}

func (s *Site) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests = append(s.requests, r.Clone(r.Context()))
	h, hasHandler := s.handlers[r.URL.Path]
	f, hasFile := s.files[r.URL.Path]
	page, hasPage := s.pages[r.URL.Path]
	s.mu.Unlock()

	switch {
	case hasHandler:
		h(w, r)
	case hasFile:
		for k, v := range f.Header {
			w.Header()[k] = v
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		http.ServeContent(w, r, filepath.Base(r.URL.Path), f.LastModified, bytes.NewReader(f.Content))
	case hasPage:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	default:
		http.NotFound(w, r)
	}
}
