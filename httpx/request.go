package httpx

import (
	"context"
)

// Request represents one parsed HTTP/1.1 request.
//
// Body is non-nil only when the client sent Content-Length on a method
// that carries a body. Param holds the path remainder captured by a
// prefix route and is set by the Router before the handler runs.
type Request struct {
	Method        string
	Path          string
	Proto         string
	Header        Header
	Body          []byte
	ContentLength int64
	Param         string
	RemoteAddr    string
	// ID is the server generated identifier for this request.
	ID  string
	ctx context.Context
}

// Context returns the request's context. If nil, returns Background.
func (r *Request) Context() context.Context {
	if r == nil || r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// WithContext returns a shallow copy of r with its context changed to ctx.
func WithContext(r *Request, ctx context.Context) *Request {
	if r == nil {
		return nil
	}
	r2 := *r
	r2.ctx = ctx
	return &r2
}
