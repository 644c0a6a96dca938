// Package module mounts prefix-scoped HTTP modules, each with its own
// middleware stack, under a shared top-level router.
package module

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/scorely/scorely/pkg/middleware"
)

// Module serves one top-level path prefix. Incoming paths have the prefix
// stripped before the inner router sees them.
type Module struct {
	prefix     string
	router     http.Handler
	middleware middleware.System
}

// New builds a Module for a single-level prefix such as "/api".
// An empty, slash-less, or nested prefix panics; prefixes are wired at
// startup and a bad one is a programming error.
func New(prefix string, router http.Handler) *Module {
	if err := checkPrefix(prefix); err != nil {
		panic(err)
	}
	return &Module{
		prefix:     prefix,
		router:     router,
		middleware: middleware.New(),
	}
}

// Prefix returns the mount point.
func (m *Module) Prefix() string {
	return m.prefix
}

// Handler wraps the inner router with the module middleware stack.
func (m *Module) Handler() http.Handler {
	return m.middleware.Apply(m.router)
}

// Use appends middleware to this module's stack.
func (m *Module) Use(mw func(http.Handler) http.Handler) {
	m.middleware.Use(mw)
}

// Serve rewrites the request path relative to the prefix and dispatches.
func (m *Module) Serve(w http.ResponseWriter, req *http.Request) {
	m.Handler().ServeHTTP(w, rebase(req, m.prefix))
}

// rebase shallow-copies the request with the prefix removed so inner mux
// patterns stay prefix-agnostic.
func rebase(req *http.Request, prefix string) *http.Request {
	inner := strings.TrimPrefix(req.URL.Path, prefix)
	if inner == "" {
		inner = "/"
	}

	clone := new(http.Request)
	*clone = *req
	clone.URL = new(url.URL)
	*clone.URL = *req.URL
	clone.URL.Path = inner
	clone.URL.RawPath = ""
	return clone
}

func checkPrefix(prefix string) error {
	if prefix == "" {
		return fmt.Errorf("module prefix cannot be empty")
	}
	if !strings.HasPrefix(prefix, "/") {
		return fmt.Errorf("module prefix must start with /: %s", prefix)
	}
	if strings.Count(prefix, "/") != 1 {
		return fmt.Errorf("module prefix must be single-level sub-path: %s", prefix)
	}
	return nil
}
