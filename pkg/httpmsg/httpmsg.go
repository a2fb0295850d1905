// ABOUTME: HTTP status codes, reason phrases, and failure sentinels for the framing layer
// ABOUTME: The wire dialect is LF-terminated HTTP used purely as a length-prefixed envelope

package httpmsg

import "errors"

// This is not a general HTTP implementation. The protocol uses HTTP headers
// for the length field and for compatibility with other JSON-RPC
// implementations; requests and responses are LF-terminated, one message per
// read cycle, framed solely by Content-Length.

// Status codes the protocol emits or recognizes.
const (
	StatusOK                  = 200
	StatusBadRequest          = 400
	StatusUnauthorized        = 401
	StatusForbidden           = 403
	StatusNotFound            = 404
	StatusBadMethod           = 405
	StatusInternalServerError = 500
	StatusServiceUnavailable  = 503
)

// StatusText returns the reason phrase for the given status code. Codes
// outside the reply table (including 405) map to the empty string.
func StatusText(status int) string {
	switch status {
	case StatusOK:
		return "OK"
	case StatusBadRequest:
		return "Bad Request"
	case StatusForbidden:
		return "Forbidden"
	case StatusNotFound:
		return "Not Found"
	case StatusInternalServerError:
		return "Internal Server Error"
	default:
		return ""
	}
}

var (
	// ErrMalformedRequestLine reports a request line that fails the
	// method/URI/token checks. The connection is still usable for writing
	// an error reply.
	ErrMalformedRequestLine = errors.New("malformed request line")

	// ErrOversizeBody reports a declared Content-Length that is negative or
	// exceeds the caller's limit. Nothing has been read from the body.
	ErrOversizeBody = errors.New("content length out of range")

	// ErrStreamFailure reports a connection that failed mid-message. Any
	// partial data is discarded and the connection must be dropped.
	ErrStreamFailure = errors.New("stream failure")
)
