package module

import (
	"net/http"
	"strings"
)

// Router maps the first path segment to a mounted Module; anything else
// falls through to a plain ServeMux for endpoints like health checks.
type Router struct {
	mounts   map[string]*Module
	fallback *http.ServeMux
}

// NewRouter returns a Router with no mounts.
func NewRouter() *Router {
	return &Router{
		mounts:   make(map[string]*Module),
		fallback: http.NewServeMux(),
	}
}

// Mount attaches a module at its prefix.
func (r *Router) Mount(m *Module) {
	r.mounts[m.prefix] = m
}

// HandleNative registers a handler on the fallback mux.
func (r *Router) HandleNative(pattern string, handler http.HandlerFunc) {
	r.fallback.HandleFunc(pattern, handler)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	path := trimTrailingSlash(req)
	if m, ok := r.mounts[firstSegment(path)]; ok {
		m.Serve(w, req)
		return
	}
	r.fallback.ServeHTTP(w, req)
}

func firstSegment(path string) string {
	parts := strings.SplitN(path, "/", 3)
	if len(parts) >= 2 {
		return "/" + parts[1]
	}
	return path
}

// trimTrailingSlash normalizes in place so /api/items/ and /api/items hit
// the same route.
func trimTrailingSlash(req *http.Request) string {
	path := req.URL.Path
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = strings.TrimSuffix(path, "/")
		req.URL.Path = path
	}
	return path
}
