package fileserve

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"dqx0.com/go/tinyhttp/httpx"
)

func serve(t *testing.T, rt *httpx.Router, method, path string, hdr httpx.Header, body []byte) (*httpx.Response, []byte) {
	t.Helper()
	if hdr == nil {
		hdr = httpx.Header{}
	}
	r := &httpx.Request{Method: method, Path: path, Proto: "HTTP/1.1", Header: hdr, Body: body, ContentLength: int64(len(body))}
	res := rt.ServeRequest(r)
	var b []byte
	if res.Body != nil {
		b, _ = io.ReadAll(res.Body)
		if c, ok := res.Body.(io.Closer); ok {
			c.Close()
		}
	}
	return res, b
}

func TestRoot(t *testing.T) {
	res, b := serve(t, Routes(Options{}), "GET", "/", nil, nil)
	if res.StatusCode != 200 || len(b) != 0 || res.ContentLength != -1 || len(res.Header) != 0 {
		t.Fatalf("res=%+v body=%q", res, b)
	}
}

func TestEcho(t *testing.T) {
	for _, s := range []string{"abc", "", "hello%20world", "a/b/c", "ünïcödé"} {
		res, b := serve(t, Routes(Options{}), "GET", "/echo/"+s, nil, nil)
		if res.StatusCode != 200 || string(b) != s || res.ContentLength != int64(len(s)) {
			t.Fatalf("%q: status=%d body=%q cl=%d", s, res.StatusCode, b, res.ContentLength)
		}
		if ct := res.Header.Get("Content-Type"); ct != "text/plain" {
			t.Fatalf("Content-Type=%q", ct)
		}
	}
}

func TestEcho_Gzip(t *testing.T) {
	rt := Routes(Options{Gzip: true})
	res, b := serve(t, rt, "GET", "/echo/abc", httpx.Header{"Accept-Encoding": "deflate, gzip"}, nil)
	if res.Header.Get("Content-Encoding") != "gzip" || res.ContentLength != int64(len(b)) {
		t.Fatalf("headers=%v cl=%d len=%d", res.Header, res.ContentLength, len(b))
	}
	zr, err := gzip.NewReader(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	dec, _ := io.ReadAll(zr)
	if string(dec) != "abc" {
		t.Fatalf("decoded=%q", dec)
	}

	res, b = serve(t, rt, "GET", "/echo/abc", httpx.Header{"Accept-Encoding": "invalid-encoding"}, nil)
	if res.Header.Has("Content-Encoding") || string(b) != "abc" {
		t.Fatalf("unexpected encoding: %v %q", res.Header, b)
	}

	res, _ = serve(t, Routes(Options{}), "GET", "/echo/abc", httpx.Header{"Accept-Encoding": "gzip"}, nil)
	if res.Header.Has("Content-Encoding") {
		t.Fatal("gzip applied while disabled")
	}
}

func TestAcceptsGzip(t *testing.T) {
	for v, want := range map[string]bool{
		"gzip":                 true,
		"GZIP":                 true,
		"br, gzip;q=0.8":       true,
		"invalid1, invalid2":   false,
		"gzip;q=0":             false,
		"gzip; q=0.000, br":    false,
		"":                     false,
		"x-gzip":               false,
		"deflate ,  gzip , br": true,
	} {
		if got := acceptsGzip(v); got != want {
			t.Fatalf("acceptsGzip(%q)=%v, want %v", v, got, want)
		}
	}
}

func TestUserAgent(t *testing.T) {
	rt := Routes(Options{})
	res, b := serve(t, rt, "GET", "/user-agent", httpx.Header{"User-Agent": "foobar/1.2.3"}, nil)
	if res.StatusCode != 200 || string(b) != "foobar/1.2.3" || res.ContentLength != 12 {
		t.Fatalf("status=%d body=%q", res.StatusCode, b)
	}
	res, b = serve(t, rt, "GET", "/user-agent", nil, nil)
	if res.StatusCode != 200 || len(b) != 0 || res.ContentLength != 0 {
		t.Fatalf("missing UA: status=%d body=%q", res.StatusCode, b)
	}
}

func TestFiles_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	rt := Routes(Options{Dir: dir})
	payload := []byte{'h', 0, 'i', 0xfe, '\r', '\n'}

	res, _ := serve(t, rt, "POST", "/files/data.bin", nil, payload)
	if res.StatusCode != 201 {
		t.Fatalf("POST status=%d", res.StatusCode)
	}
	if b, _ := os.ReadFile(filepath.Join(dir, "data.bin")); !bytes.Equal(b, payload) {
		t.Fatalf("on disk=%q", b)
	}
	res, b := serve(t, rt, "GET", "/files/data.bin", nil, nil)
	if res.StatusCode != 200 || !bytes.Equal(b, payload) || res.ContentLength != int64(len(payload)) {
		t.Fatalf("GET status=%d body=%q", res.StatusCode, b)
	}
	if ct := res.Header.Get("Content-Type"); ct != "application/octet-stream" {
		t.Fatalf("Content-Type=%q", ct)
	}
}

func TestFiles_GetMissing(t *testing.T) {
	res, b := serve(t, Routes(Options{Dir: t.TempDir()}), "GET", "/files/non_existent", nil, nil)
	if res.StatusCode != 404 || len(b) != 0 {
		t.Fatalf("status=%d body=%q", res.StatusCode, b)
	}
}

func TestFiles_NoDirectory(t *testing.T) {
	rt := Routes(Options{})
	if res, _ := serve(t, rt, "GET", "/files/x", nil, nil); res.StatusCode != 404 {
		t.Fatalf("GET status=%d", res.StatusCode)
	}
	if res, _ := serve(t, rt, "POST", "/files/x", nil, []byte("x")); res.StatusCode != 500 {
		t.Fatalf("POST status=%d", res.StatusCode)
	}
}

func TestFiles_Traversal(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "srv")
	if err := os.Mkdir(root, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(parent, "outside"), []byte("no"), 0o644); err != nil {
		t.Fatal(err)
	}
	rt := Routes(Options{Dir: root})
	if res, _ := serve(t, rt, "GET", "/files/../outside", nil, nil); res.StatusCode != 404 {
		t.Fatalf("GET traversal status=%d", res.StatusCode)
	}
	if res, _ := serve(t, rt, "POST", "/files/../planted", nil, []byte("x")); res.StatusCode != 500 {
		t.Fatalf("POST traversal status=%d", res.StatusCode)
	}
	if _, err := os.Stat(filepath.Join(parent, "planted")); !os.IsNotExist(err) {
		t.Fatalf("planted file exists: %v", err)
	}
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	rt := Routes(Options{})
	if res, b := serve(t, rt, "GET", "/unknown", nil, nil); res.StatusCode != 404 || len(b) != 0 {
		t.Fatalf("status=%d body=%q", res.StatusCode, b)
	}
	for _, m := range []string{"PUT", "PATCH", "DELETE"} {
		if res, _ := serve(t, rt, m, "/", nil, nil); res.StatusCode != 405 {
			t.Fatalf("%s status=%d", m, res.StatusCode)
		}
	}
}
