// Package module mounts independently guarded HTTP surfaces under
// single-segment path prefixes on one listener.
package module

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/JaimeStill/courier/pkg/middleware"
)

// Module serves an inner router beneath a prefix such as "/api". Requests
// reach the router with the prefix removed and the module's middleware
// applied.
type Module struct {
	prefix  string
	router  http.Handler
	chain   middleware.Chain
	once    sync.Once
	handler http.Handler
}

// New creates a Module. It panics unless prefix is a single segment with a
// leading slash.
func New(prefix string, router http.Handler) *Module {
	if err := validatePrefix(prefix); err != nil {
		panic(err)
	}
	return &Module{
		prefix: prefix,
		router: router,
	}
}

// Prefix returns the mount prefix.
func (m *Module) Prefix() string {
	return m.prefix
}

// Use appends middleware. Calls after the first request are ignored.
func (m *Module) Use(fn middleware.Func) {
	m.chain.Use(fn)
}

// Handler returns the router wrapped in the module's middleware.
func (m *Module) Handler() http.Handler {
	m.once.Do(func() {
		m.handler = m.chain.Then(m.router)
	})
	return m.handler
}

// Serve strips the prefix and dispatches to Handler.
func (m *Module) Serve(w http.ResponseWriter, req *http.Request) {
	inner := strings.TrimPrefix(req.URL.Path, m.prefix)
	if inner == "" {
		inner = "/"
	}

	r := req.Clone(req.Context())
	r.URL.Path = inner
	r.URL.RawPath = ""
	m.Handler().ServeHTTP(w, r)
}

func validatePrefix(prefix string) error {
	switch {
	case prefix == "":
		return fmt.Errorf("module prefix cannot be empty")
	case !strings.HasPrefix(prefix, "/"):
		return fmt.Errorf("module prefix must start with /: %s", prefix)
	case strings.Count(prefix, "/") != 1 || len(prefix) == 1:
		return fmt.Errorf("module prefix must be a single path segment: %s", prefix)
	}
	return nil
}
