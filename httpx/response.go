package httpx

import (
	"bytes"
	"io"
)

// Response is built by a handler and written exactly once by the server.
//
// ContentLength is -1 when no Content-Length header should be sent; the
// body, if any, is then copied until EOF. If Body implements io.Closer
// the server closes it after writing.
type Response struct {
	StatusCode    int
	Reason        string
	Header        Header
	Body          io.Reader
	ContentLength int64
}

// NewResponse returns an empty-bodied response without Content-Length.
func NewResponse(status int) *Response {
	return &Response{StatusCode: status, Header: Header{}, ContentLength: -1}
}

// BytesResponse returns a response carrying b with the given content type.
func BytesResponse(status int, contentType string, b []byte) *Response {
	res := &Response{
		StatusCode:    status,
		Header:        Header{},
		Body:          bytes.NewReader(b),
		ContentLength: int64(len(b)),
	}
	if contentType != "" {
		res.Header.Set("Content-Type", contentType)
	}
	return res
}

// TextResponse returns a text/plain response carrying s.
func TextResponse(status int, s string) *Response {
	return BytesResponse(status, "text/plain", []byte(s))
}
