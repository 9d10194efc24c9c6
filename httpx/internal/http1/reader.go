package http1

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var (
	ErrMalformedRequestLine = errors.New("http1: malformed request line")
	ErrTruncatedBody        = errors.New("http1: truncated body")
	ErrHeaderTooLarge       = errors.New("http1: header too large")
	ErrInvalidContentLength = errors.New("http1: invalid content-length")
	ErrBodyTooLarge         = errors.New("http1: body too large")
)

// ParsedRequest is a minimal representation parsed from the wire.
// Header keys are canonicalized; a repeated name keeps its last value.
type ParsedRequest struct {
	Method        string
	RequestURI    string
	Proto         string
	Header        map[string]string
	ContentLength int64
	Body          []byte
}

type Reader struct {
	BR *bufio.Reader
	// MaxHeaderBytes bounds a single line and, times four, the whole
	// header block. Zero disables both limits.
	MaxHeaderBytes int
	// MaxBodyBytes bounds the declared Content-Length. Zero disables it.
	MaxBodyBytes int64
	// Continue, if set, is called before reading a body announced with
	// "Expect: 100-continue".
	Continue func() error

	headerBytes int
}

// ReadRequest reads exactly one request. Bytes after the declared body
// are left in BR.
func (r *Reader) ReadRequest() (*ParsedRequest, error) {
	line, err := r.readLine()
	if err != nil {
		if err == io.EOF && line == "" {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedRequestLine, err)
	}
	parts := strings.Fields(line)
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: %q", ErrMalformedRequestLine, line)
	}
	pr := &ParsedRequest{
		Method:     parts[0],
		RequestURI: parts[1],
		Proto:      parts[2],
	}
	pr.Header, err = r.readHeaders()
	if err != nil {
		return nil, err
	}
	v, ok := pr.Header["Content-Length"]
	if !ok || !hasBody(pr.Method) {
		return pr, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidContentLength, v)
	}
	if r.MaxBodyBytes > 0 && n > r.MaxBodyBytes {
		return nil, fmt.Errorf("%w: %d > %d", ErrBodyTooLarge, n, r.MaxBodyBytes)
	}
	if n > 0 && r.Continue != nil && strings.EqualFold(pr.Header["Expect"], "100-continue") {
		if err := r.Continue(); err != nil {
			return nil, err
		}
	}
	pr.ContentLength = n
	pr.Body = make([]byte, n)
	if _, err := io.ReadFull(r.BR, pr.Body); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("%w: want %d bytes", ErrTruncatedBody, n)
		}
		return nil, err
	}
	return pr, nil
}

func (r *Reader) readHeaders() (map[string]string, error) {
	h := make(map[string]string)
	for {
		line, err := r.readLine()
		if err != nil {
			if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		if line == "" {
			break
		}
		i := strings.Index(line, ": ")
		if i < 0 {
			// Tolerated: lines without the delimiter carry nothing we use.
			continue
		}
		k := strings.TrimSpace(line[:i])
		if k == "" {
			continue
		}
		h[CanonicalHeaderKey(k)] = strings.TrimSpace(line[i+2:])
	}
	return h, nil
}

func (r *Reader) readLine() (string, error) {
	var sb strings.Builder
	for {
		b, err := r.BR.ReadByte()
		if err != nil {
			return sb.String(), err
		}
		if b == '\n' {
			break
		}
		if b != '\r' {
			sb.WriteByte(b)
		}
		if r.MaxHeaderBytes > 0 && sb.Len() > r.MaxHeaderBytes {
			return "", ErrHeaderTooLarge
		}
	}
	r.headerBytes += sb.Len() + 2
	if r.MaxHeaderBytes > 0 && r.headerBytes > 4*r.MaxHeaderBytes {
		return "", ErrHeaderTooLarge
	}
	return sb.String(), nil
}

func hasBody(method string) bool {
	switch method {
	case "POST", "PUT", "PATCH":
		return true
	}
	return false
}

// CanonicalHeaderKey is a very small canonicalizer to avoid importing
// textproto here: "content-length" becomes "Content-Length".
func CanonicalHeaderKey(s string) string {
	b := []byte(strings.ToLower(s))
	upper := true
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			if upper {
				b[i] = c - 'a' + 'A'
			}
			upper = false
			continue
		}
		upper = c == '-'
	}
	return string(b)
}
