package httpx

import (
	"sort"
	"strings"
)

type Handler interface {
	ServeRequest(*Request) *Response
}

type HandlerFunc func(*Request) *Response

func (f HandlerFunc) ServeRequest(r *Request) *Response {
	return f(r)
}

type route struct {
	method  string
	pattern string
	h       Handler
}

// Router dispatches on (method, path). Exact routes are tried first, in
// registration order, then prefix routes. A method no route was
// registered for resolves to 405 without running any handler.
//
// Routes are registered once at startup; a Router must not be modified
// while it is serving.
type Router struct {
	exact   []route
	prefix  []route
	methods map[string]bool
}

func NewRouter() *Router {
	return &Router{methods: make(map[string]bool)}
}

// Exact registers h for requests whose path equals path.
func (rt *Router) Exact(method, path string, h Handler) {
	rt.exact = append(rt.exact, route{method: method, pattern: path, h: h})
	rt.methods[method] = true
}

// Prefix registers h for requests whose path starts with prefix. The rest
// of the path is handed to h as Request.Param.
func (rt *Router) Prefix(method, prefix string, h Handler) {
	rt.prefix = append(rt.prefix, route{method: method, pattern: prefix, h: h})
	rt.methods[method] = true
}

// Lookup returns the handler for method and path together with the
// captured parameter. status is 200 on a match, 405 for an unrouted
// method and 404 otherwise; h is nil unless status is 200.
func (rt *Router) Lookup(method, path string) (h Handler, param string, status int) {
	if !rt.methods[method] {
		return nil, "", 405
	}
	for _, r := range rt.exact {
		if r.method == method && r.pattern == path {
			return r.h, "", 200
		}
	}
	for _, r := range rt.prefix {
		if r.method == method && strings.HasPrefix(path, r.pattern) {
			return r.h, path[len(r.pattern):], 200
		}
	}
	return nil, "", 404
}

// Allowed lists the methods the router has routes for.
func (rt *Router) Allowed() []string {
	ms := make([]string, 0, len(rt.methods))
	for m := range rt.methods {
		ms = append(ms, m)
	}
	sort.Strings(ms)
	return ms
}

func (rt *Router) ServeRequest(r *Request) *Response {
	h, param, status := rt.Lookup(r.Method, r.Path)
	switch status {
	case 405:
		res := NewResponse(405)
		res.Header.Set("Allow", strings.Join(rt.Allowed(), ", "))
		return res
	case 404:
		return NewResponse(404)
	}
	r.Param = param
	return h.ServeRequest(r)
}
