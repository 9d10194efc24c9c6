// Package fileserve holds the route table of the file server: root, echo,
// user-agent reflection and file retrieval/creation under a serving
// directory.
package fileserve

import (
	"dqx0.com/go/tinyhttp/httpx"
)

// ListenAddr is the fixed address the server listens on.
const ListenAddr = "127.0.0.1:4221"

// Routes builds the fixed route table.
//
//	GET  /             root
//	GET  /echo/<s>     echo
//	GET  /user-agent   user-agent
//	GET  /files/<name> file-get
//	POST /files/<name> file-post
func Routes(o Options) *httpx.Router {
	h := newHandlers(o)
	rt := httpx.NewRouter()
	rt.Exact("GET", "/", httpx.HandlerFunc(h.root))
	rt.Exact("GET", "/user-agent", httpx.HandlerFunc(h.userAgent))
	rt.Prefix("GET", "/echo/", httpx.HandlerFunc(h.echo))
	rt.Prefix("GET", "/files/", httpx.HandlerFunc(h.fileGet))
	rt.Prefix("POST", "/files/", httpx.HandlerFunc(h.filePost))
	return rt
}
