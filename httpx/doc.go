// Package httpx is a small HTTP/1.1 server that reads exactly one request
// per connection, dispatches it through a fixed Router and writes one
// response before closing the connection.
//
// Highlights
//   - Server: goroutine per connection, optional connection cap,
//     read/write deadlines, Expect: 100-continue, graceful shutdown,
//     logging/metrics hooks.
//   - Router: exact routes before prefix routes, 404 fallback,
//     405 for methods it does not route.
//   - Wire: Content-Length framing only; no chunked encoding, no
//     keep-alive, no TLS.
//
// Quick start:
//
//	rt := httpx.NewRouter()
//	rt.Exact("GET", "/", httpx.HandlerFunc(func(r *httpx.Request) *httpx.Response {
//	    return httpx.NewResponse(200)
//	}))
//	s := &httpx.Server{Addr: "127.0.0.1:4221", Handler: rt}
//	if err := s.ListenAndServe(); err != nil { log.Fatal(err) }
package httpx
