package fileserve

import (
	"bytes"
	"compress/gzip"
	"strings"

	"dqx0.com/go/tinyhttp/httpx"
	"dqx0.com/go/tinyhttp/internal/obs"
)

// Options configure the route handlers.
type Options struct {
	// Dir is the serving directory for /files/. Empty disables file
	// access: reads answer 404 and writes 500.
	Dir string
	// Gzip enables gzip content-encoding of text responses for clients
	// that accept it.
	Gzip   bool
	Logger obs.Logger
}

type handlers struct {
	dir  Dir
	gzip bool
	log  obs.Logger
}

func newHandlers(o Options) *handlers {
	l := o.Logger
	if l == nil {
		l = obs.NopLogger{}
	}
	return &handlers{dir: Dir{Path: o.Dir}, gzip: o.Gzip, log: l}
}

func (h *handlers) root(r *httpx.Request) *httpx.Response {
	return httpx.NewResponse(200)
}

func (h *handlers) echo(r *httpx.Request) *httpx.Response {
	return h.text(r, r.Param)
}

func (h *handlers) userAgent(r *httpx.Request) *httpx.Response {
	return h.text(r, r.Header.Get("User-Agent"))
}

func (h *handlers) text(r *httpx.Request, s string) *httpx.Response {
	if !h.gzip || !acceptsGzip(r.Header.Get("Accept-Encoding")) {
		return httpx.TextResponse(200, s)
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(s)); err != nil {
		h.log.Logf(obs.Error, "request %s: gzip: %v", r.ID, err)
		return httpx.NewResponse(500)
	}
	if err := zw.Close(); err != nil {
		h.log.Logf(obs.Error, "request %s: gzip: %v", r.ID, err)
		return httpx.NewResponse(500)
	}
	res := httpx.BytesResponse(200, "text/plain", buf.Bytes())
	res.Header.Set("Content-Encoding", "gzip")
	return res
}

func (h *handlers) fileGet(r *httpx.Request) *httpx.Response {
	f, fi, err := h.dir.Open(r.Param)
	if err != nil {
		h.log.Logf(obs.Debug, "request %s: open %q: %v", r.ID, r.Param, err)
		return httpx.NewResponse(404)
	}
	res := &httpx.Response{
		StatusCode:    200,
		Header:        httpx.Header{},
		Body:          f,
		ContentLength: fi.Size(),
	}
	res.Header.Set("Content-Type", "application/octet-stream")
	return res
}

func (h *handlers) filePost(r *httpx.Request) *httpx.Response {
	if err := h.dir.WriteFile(r.Param, r.Body); err != nil {
		h.log.Logf(obs.Error, "request %s: write %q: %v", r.ID, r.Param, err)
		return httpx.NewResponse(500)
	}
	return httpx.NewResponse(201)
}

// acceptsGzip reports whether an Accept-Encoding value lists gzip with a
// non-zero quality.
func acceptsGzip(v string) bool {
	for _, part := range strings.Split(v, ",") {
		name, params, _ := strings.Cut(part, ";")
		if !strings.EqualFold(strings.TrimSpace(name), "gzip") {
			continue
		}
		for _, p := range strings.Split(params, ";") {
			k, q, ok := strings.Cut(strings.TrimSpace(p), "=")
			if ok && strings.EqualFold(k, "q") && isZeroQ(strings.TrimSpace(q)) {
				return false
			}
		}
		return true
	}
	return false
}

func isZeroQ(q string) bool {
	return strings.Trim(q, "0.") == "" && q != ""
}
