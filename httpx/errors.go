package httpx

import (
	"errors"

	"dqx0.com/go/tinyhttp/httpx/internal/http1"
)

var (
	ErrMalformedRequestLine = http1.ErrMalformedRequestLine
	ErrTruncatedBody        = http1.ErrTruncatedBody
	ErrHeaderTooLarge       = http1.ErrHeaderTooLarge
	ErrInvalidContentLength = http1.ErrInvalidContentLength
	ErrBodyTooLarge         = http1.ErrBodyTooLarge
	ErrServerClosed         = errors.New("httpx: server closed")
)

// errorKind names a read error for metrics labels.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrMalformedRequestLine):
		return "malformed_request_line"
	case errors.Is(err, ErrTruncatedBody):
		return "truncated_body"
	case errors.Is(err, ErrHeaderTooLarge):
		return "header_too_large"
	case errors.Is(err, ErrInvalidContentLength):
		return "invalid_content_length"
	case errors.Is(err, ErrBodyTooLarge):
		return "body_too_large"
	default:
		return "io"
	}
}
