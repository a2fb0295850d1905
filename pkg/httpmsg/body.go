// ABOUTME: Bounded body reading and whole-message assembly
// ABOUTME: Length is validated before allocation; reads happen in fixed-size chunks

package httpmsg

import (
	"bufio"
	"fmt"
	"io"
)

// DefaultReadChunk is the allocation and read granularity for message
// bodies. Bounding each step keeps a hostile Content-Length from forcing
// one huge up-front allocation.
const DefaultReadChunk = 256 * 1024

// Message is one framed message: its collected headers (with the
// connection header normalized) and the exact declared body bytes.
type Message struct {
	Headers HeaderMap
	Body    []byte
}

// ReadBody reads exactly n bytes from r in steps of at most chunk bytes.
// n < 0 or n > max fails with ErrOversizeBody before anything is read or
// allocated. A short or failed read fails with ErrStreamFailure and the
// partial data is discarded. chunk <= 0 selects DefaultReadChunk.
func ReadBody(r io.Reader, n, max, chunk int) ([]byte, error) {
	if n < 0 || n > max {
		return nil, fmt.Errorf("%w: declared length %d, limit %d", ErrOversizeBody, n, max)
	}
	if chunk <= 0 {
		chunk = DefaultReadChunk
	}

	body := make([]byte, 0, min(n, chunk))
	for len(body) < n {
		step := min(chunk, n-len(body))
		off := len(body)
		body = append(body, make([]byte, step)...)
		if _, err := io.ReadFull(r, body[off:]); err != nil {
			return nil, fmt.Errorf("%w: reading body: %v", ErrStreamFailure, err)
		}
	}
	return body, nil
}

// ReadMessage reads one message after the start line: the header block,
// then a body of the declared length bounded by maxSize. After a
// successful read the connection header is normalized: any value other
// than "close" or "keep-alive" becomes "keep-alive" for proto >= 1 and
// "close" otherwise. Errors are ErrOversizeBody, ErrStreamFailure, or a
// header read failure wrapped as ErrStreamFailure.
func ReadMessage(r *bufio.Reader, proto int, maxSize int) (Message, error) {
	length, headers, err := ReadHeaders(r)
	if err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrStreamFailure, err)
	}

	body, err := ReadBody(r, length, maxSize, DefaultReadChunk)
	if err != nil {
		return Message{}, err
	}

	conn, _ := headers.Get("connection")
	if conn != "close" && conn != "keep-alive" {
		if proto >= 1 {
			headers.Set("connection", "keep-alive")
		} else {
			headers.Set("connection", "close")
		}
	}

	return Message{Headers: headers, Body: body}, nil
}
