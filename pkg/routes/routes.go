// Package routes declares handler groups as data and registers them on a
// ServeMux with method-qualified patterns.
package routes

import (
	"net/http"
	"strings"
)

// Route binds a method and a path relative to its group to a handler.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

// Group is a set of routes under a shared prefix. Children extend the prefix.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Register adds every route in groups to mux and returns the registered
// patterns in registration order.
func Register(mux *http.ServeMux, groups ...Group) []string {
	var patterns []string
	for _, g := range groups {
		patterns = register(mux, "", g, patterns)
	}
	return patterns
}

func register(mux *http.ServeMux, parent string, g Group, patterns []string) []string {
	prefix := join(parent, g.Prefix)
	for _, r := range g.Routes {
		pattern := r.Method + " " + join(prefix, r.Pattern)
		mux.HandleFunc(pattern, r.Handler)
		patterns = append(patterns, pattern)
	}
	for _, child := range g.Children {
		patterns = register(mux, prefix, child, patterns)
	}
	return patterns
}

func join(base, path string) string {
	switch {
	case path == "":
		return base
	case base == "":
		return path
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
}
