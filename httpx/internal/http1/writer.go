package http1

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// CopyBufferSize is the chunk size used when streaming response bodies.
const CopyBufferSize = 32 << 10

// leadingHeaders are emitted first and in this order; all other headers
// follow sorted by name so output is deterministic.
var leadingHeaders = []string{"Content-Type", "Content-Encoding", "Content-Length"}

// WriteResponse writes an HTTP/1.1 response. hdr keys should be
// canonicalized by caller. When contentLength is non-negative exactly that
// many bytes are copied from body and a Content-Length header is set;
// otherwise body is copied until EOF and no Content-Length is emitted.
// It returns the number of body bytes written.
func WriteResponse(bw *bufio.Writer, status int, reason string, hdr map[string]string, body io.Reader, contentLength int64) (int64, error) {
	if reason == "" {
		reason = StatusText(status)
	}
	if _, err := fmt.Fprintf(bw, "HTTP/1.1 %d %s\r\n", status, reason); err != nil {
		return 0, err
	}
	if contentLength >= 0 {
		if hdr == nil {
			hdr = make(map[string]string, 1)
		}
		hdr["Content-Length"] = strconv.FormatInt(contentLength, 10)
	} else {
		delete(hdr, "Content-Length")
	}
	for _, k := range headerOrder(hdr) {
		k = SanitizeHeaderKey(k)
		if k == "" {
			continue
		}
		if _, err := fmt.Fprintf(bw, "%s: %s\r\n", k, SanitizeHeaderValue(hdr[k])); err != nil {
			return 0, err
		}
	}
	if _, err := bw.WriteString("\r\n"); err != nil {
		return 0, err
	}
	if body == nil || contentLength == 0 {
		return 0, nil
	}
	if contentLength > 0 {
		n, err := io.CopyN(bw, body, contentLength)
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return n, err
	}
	return io.CopyBuffer(bw, body, make([]byte, CopyBufferSize))
}

func headerOrder(hdr map[string]string) []string {
	keys := make([]string, 0, len(hdr))
	for _, k := range leadingHeaders {
		if _, ok := hdr[k]; ok {
			keys = append(keys, k)
		}
	}
	lead := len(keys)
	for k := range hdr {
		switch k {
		case "Content-Type", "Content-Encoding", "Content-Length":
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys[lead:])
	return keys
}

// StatusText returns the reason phrase for the codes this server emits.
func StatusText(code int) string {
	switch code {
	case 100:
		return "Continue"
	case 200:
		return "OK"
	case 201:
		return "Created"
	case 204:
		return "No Content"
	case 400:
		return "Bad Request"
	case 403:
		return "Forbidden"
	case 404:
		return "Not Found"
	case 405:
		return "Method Not Allowed"
	case 413:
		return "Content Too Large"
	case 431:
		return "Request Header Fields Too Large"
	case 500:
		return "Internal Server Error"
	case 501:
		return "Not Implemented"
	case 503:
		return "Service Unavailable"
	default:
		return ""
	}
}

// WriteContinue writes an interim 100 Continue response.
func WriteContinue(bw *bufio.Writer) error {
	_, err := bw.WriteString("HTTP/1.1 100 Continue\r\n\r\n")
	return err
}

// SanitizeHeaderKey returns k if it is a valid token, "" otherwise.
func SanitizeHeaderKey(k string) string {
	for i := 0; i < len(k); i++ {
		if !isTokenChar(k[i]) {
			return ""
		}
	}
	return k
}

func isTokenChar(c byte) bool {
	if c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9' {
		return true
	}
	return strings.IndexByte("!#$%&'*+-.^_`|~", c) >= 0
}

// SanitizeHeaderValue drops CR, LF, DEL and control bytes other than HTAB.
func SanitizeHeaderValue(v string) string {
	return strings.Map(func(r rune) rune {
		if r == '\t' || (r >= 0x20 && r != 0x7f) {
			return r
		}
		return -1
	}, v)
}
