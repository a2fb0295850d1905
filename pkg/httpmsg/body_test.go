// ABOUTME: Tests for bounded body reading and whole-message assembly
// ABOUTME: Covers length validation, chunked reads, stream failures, and connection normalization

package httpmsg

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

// errReader fails every read, proving a code path never touches the stream.
type errReader struct{}

func (errReader) Read([]byte) (int, error) {
	return 0, errors.New("read should not happen")
}

// --- ReadBody ---

func TestReadBodyExactLength(t *testing.T) {
	payload := strings.Repeat("x", 1000) + "tail-not-part-of-body"
	body, err := ReadBody(strings.NewReader(payload), 1000, 2000, 0)
	if err != nil {
		t.Fatalf("ReadBody: %v", err)
	}
	if len(body) != 1000 {
		t.Fatalf("len(body) = %d; want 1000", len(body))
	}
	if string(body) != strings.Repeat("x", 1000) {
		t.Error("body content mismatch")
	}
}

func TestReadBodyZeroLength(t *testing.T) {
	body, err := ReadBody(strings.NewReader("leftover"), 0, 100, 0)
	if err != nil {
		t.Fatalf("ReadBody: %v", err)
	}
	if len(body) != 0 {
		t.Errorf("len(body) = %d; want 0", len(body))
	}
}

func TestReadBodySmallChunks(t *testing.T) {
	// chunk smaller than n forces multiple read steps.
	input := "abcdefghij"
	body, err := ReadBody(strings.NewReader(input), len(input), 100, 3)
	if err != nil {
		t.Fatalf("ReadBody: %v", err)
	}
	if string(body) != input {
		t.Errorf("body = %q; want %q", body, input)
	}
}

func TestReadBodyLengthEqualsMax(t *testing.T) {
	body, err := ReadBody(strings.NewReader("12345"), 5, 5, 0)
	if err != nil {
		t.Fatalf("ReadBody: %v", err)
	}
	if string(body) != "12345" {
		t.Errorf("body = %q; want %q", body, "12345")
	}
}

func TestReadBodyRejectsBadLengths(t *testing.T) {
	tests := []struct {
		name string
		n    int
		max  int
	}{
		{"negative", -1, 100},
		{"over_max", 101, 100},
		{"far_over_max", 1 << 40, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// errReader proves rejection happens before any read.
			_, err := ReadBody(errReader{}, tt.n, tt.max, 0)
			if !errors.Is(err, ErrOversizeBody) {
				t.Errorf("err = %v; want ErrOversizeBody", err)
			}
		})
	}
}

func TestReadBodyPrematureEOF(t *testing.T) {
	body, err := ReadBody(strings.NewReader("only7ch"), 20, 100, 0)
	if !errors.Is(err, ErrStreamFailure) {
		t.Fatalf("err = %v; want ErrStreamFailure", err)
	}
	if body != nil {
		t.Errorf("body = %q; want nil (partial data discarded)", body)
	}
}

func TestReadBodyPrematureEOFAcrossChunks(t *testing.T) {
	_, err := ReadBody(strings.NewReader("12345"), 8, 100, 2)
	if !errors.Is(err, ErrStreamFailure) {
		t.Errorf("err = %v; want ErrStreamFailure", err)
	}
}

// --- ReadMessage ---

func TestReadMessage(t *testing.T) {
	input := "Content-Length: 11\n" +
		"Content-Type: application/json\n" +
		"\n" +
		"hello world" +
		"NEXT" // pipelined data stays unread
	r := newReader(input)

	msg, err := ReadMessage(r, 1, 1024)
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if string(msg.Body) != "hello world" {
		t.Errorf("Body = %q; want %q", msg.Body, "hello world")
	}
	if got, _ := msg.Headers.Get("content-type"); got != "application/json" {
		t.Errorf("content-type = %q; want %q", got, "application/json")
	}

	rest := make([]byte, 4)
	if _, err := r.Read(rest); err != nil {
		t.Fatalf("reading rest: %v", err)
	}
	if string(rest) != "NEXT" {
		t.Errorf("rest = %q; want %q", rest, "NEXT")
	}
}

func TestReadMessageNoBody(t *testing.T) {
	msg, err := ReadMessage(newReader("Connection: close\n\n"), 1, 1024)
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if len(msg.Body) != 0 {
		t.Errorf("len(Body) = %d; want 0", len(msg.Body))
	}
}

func TestReadMessageConnectionNormalization(t *testing.T) {
	tests := []struct {
		name    string
		headers string
		proto   int
		want    string
	}{
		{"absent_proto0", "", 0, "close"},
		{"absent_proto1", "", 1, "keep-alive"},
		{"unknown_value_proto0", "Connection: upgrade\n", 0, "close"},
		{"unknown_value_proto1", "Connection: upgrade\n", 1, "keep-alive"},
		{"explicit_close_proto1", "Connection: close\n", 1, "close"},
		{"explicit_keepalive_proto0", "Connection: keep-alive\n", 0, "keep-alive"},
		{"case_folded_value_normalizes", "Connection: Keep-Alive\n", 0, "close"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := ReadMessage(newReader(tt.headers+"\n"), tt.proto, 1024)
			if err != nil {
				t.Fatalf("ReadMessage: %v", err)
			}
			got, ok := msg.Headers.Get("connection")
			if !ok {
				t.Fatal("connection header missing after normalization")
			}
			if got != tt.want {
				t.Errorf("connection = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestReadMessageOversize(t *testing.T) {
	input := "Content-Length: 50\n\n" + strings.Repeat("x", 50)
	_, err := ReadMessage(newReader(input), 1, 10)
	if !errors.Is(err, ErrOversizeBody) {
		t.Errorf("err = %v; want ErrOversizeBody", err)
	}
}

func TestReadMessageNegativeLength(t *testing.T) {
	_, err := ReadMessage(newReader("Content-Length: -5\n\n"), 1, 1024)
	if !errors.Is(err, ErrOversizeBody) {
		t.Errorf("err = %v; want ErrOversizeBody", err)
	}
}

func TestReadMessageTruncatedBody(t *testing.T) {
	input := "Content-Length: 100\n\nshort"
	_, err := ReadMessage(newReader(input), 1, 1024)
	if !errors.Is(err, ErrStreamFailure) {
		t.Errorf("err = %v; want ErrStreamFailure", err)
	}
}

func TestReadMessageBodyBytesExact(t *testing.T) {
	payload := []byte{0x00, 0x01, 0xFF, '\n', '\r', 'a'}
	var buf bytes.Buffer
	buf.WriteString("Content-Length: 6\n\n")
	buf.Write(payload)

	msg, err := ReadMessage(newReader(buf.String()), 1, 1024)
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if !bytes.Equal(msg.Body, payload) {
		t.Errorf("Body = %v; want %v", msg.Body, payload)
	}
}
