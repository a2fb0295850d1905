// ABOUTME: Request line and status line parsing with legacy token semantics
// ABOUTME: Single-space splitting, GET/POST only, prefix-parsed protocol minor version

package httpmsg

import (
	"bufio"
	"fmt"
	"strings"
)

// RequestLine is the parsed first line of an inbound request. Proto is the
// HTTP/1.x minor version, 0 when absent or unrecognized.
type RequestLine struct {
	Method string
	URI    string
	Proto  int
}

// StatusLine is the parsed first line of an inbound response.
type StatusLine struct {
	Code  int
	Proto int
}

// ReadRequestLine reads and validates one request line. Tokens are separated
// by single spaces; doubled spaces produce empty tokens and fail validation.
// Only GET and POST are accepted and the URI must be an absolute path.
// Malformed lines return ErrMalformedRequestLine; I/O failures (including
// EOF before any data) return the underlying error.
func ReadRequestLine(r *bufio.Reader) (RequestLine, error) {
	line, err := readLine(r)
	if err != nil {
		return RequestLine{}, err
	}

	words := strings.Split(line, " ")
	if len(words) < 2 {
		return RequestLine{}, fmt.Errorf("%w: %q", ErrMalformedRequestLine, line)
	}

	method := words[0]
	if method != "GET" && method != "POST" {
		return RequestLine{}, fmt.Errorf("%w: method %q", ErrMalformedRequestLine, method)
	}

	uri := words[1]
	if uri == "" || uri[0] != '/' {
		return RequestLine{}, fmt.Errorf("%w: uri %q", ErrMalformedRequestLine, uri)
	}

	proto := 0
	if len(words) > 2 {
		if at := strings.Index(words[2], "HTTP/1."); at >= 0 {
			proto = atoiPrefix(words[2][at+len("HTTP/1."):])
		}
	}

	return RequestLine{Method: method, URI: uri, Proto: proto}, nil
}

// ReadStatusLine reads one response status line. A line with fewer than two
// tokens yields StatusInternalServerError as a sentinel code with a nil
// error; error returns are reserved for I/O failures. The protocol version
// is scanned anywhere in the line, so "HTTP/1.1 200 OK" yields proto 1 from
// the "1 200 OK" tail.
func ReadStatusLine(r *bufio.Reader) (StatusLine, error) {
	line, err := readLine(r)
	if err != nil {
		return StatusLine{}, err
	}

	words := strings.Split(line, " ")
	if len(words) < 2 {
		return StatusLine{Code: StatusInternalServerError}, nil
	}

	proto := 0
	if at := strings.Index(line, "HTTP/1."); at >= 0 {
		proto = atoiPrefix(line[at+len("HTTP/1."):])
	}

	return StatusLine{Code: atoiPrefix(words[1]), Proto: proto}, nil
}
