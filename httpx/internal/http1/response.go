package http1

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParsedResponse is a response read back from the wire.
type ParsedResponse struct {
	Proto      string
	StatusCode int
	Reason     string
	Header     map[string]string
	Body       []byte
}

// ReadResponse parses one response. Interim 1xx responses are skipped.
// Without Content-Length the body runs to EOF, which matches a server
// that closes the connection after every response.
func ReadResponse(br *bufio.Reader) (*ParsedResponse, error) {
	r := &Reader{BR: br}
	for {
		line, err := r.readLine()
		if err != nil {
			return nil, err
		}
		proto, rest, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("http1: malformed status line %q", line)
		}
		codeStr, reason, _ := strings.Cut(rest, " ")
		code, err := strconv.Atoi(codeStr)
		if err != nil || code < 100 || code > 599 {
			return nil, fmt.Errorf("http1: malformed status code %q", codeStr)
		}
		hdr, err := r.readHeaders()
		if err != nil {
			return nil, err
		}
		if code < 200 {
			continue
		}
		res := &ParsedResponse{Proto: proto, StatusCode: code, Reason: reason, Header: hdr}
		if v, ok := hdr["Content-Length"]; ok {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("%w: %q", ErrInvalidContentLength, v)
			}
			res.Body = make([]byte, n)
			if _, err := io.ReadFull(br, res.Body); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrTruncatedBody, err)
			}
			return res, nil
		}
		res.Body, err = io.ReadAll(br)
		return res, err
	}
}
