// Package middleware provides the HTTP middleware shared by Courier's modules:
// request correlation, request logging, panic recovery, and bearer-token
// guarding.
package middleware

import "net/http"

// Func wraps a handler.
type Func func(http.Handler) http.Handler

// Chain is an ordered middleware stack. The first entry sees the request first.
type Chain []Func

// Use appends fn to the chain.
func (c *Chain) Use(fn Func) {
	*c = append(*c, fn)
}

// Then wraps h with every middleware in the chain.
func (c Chain) Then(h http.Handler) http.Handler {
	for i := len(c) - 1; i >= 0; i-- {
		h = c[i](h)
	}
	return h
}
