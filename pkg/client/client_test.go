// ABOUTME: Tests for the RPC client using in-memory pipe transports
// ABOUTME: Covers request shape, status mapping, and error envelope decoding

package client

import (
	"bufio"
	"context"
	"encoding/base64"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/meridian-node/meridian/pkg/httpmsg"
	"github.com/meridian-node/meridian/pkg/jsonrpc"
	"github.com/meridian-node/meridian/pkg/jsonval"
)

// capturedRequest is what the fake server saw on the wire.
type capturedRequest struct {
	line httpmsg.RequestLine
	msg  httpmsg.Message
}

// dialTo returns a DialFunc that hands the server side of a fresh pipe to
// serve and the client side to the caller.
func dialTo(serve func(net.Conn)) DialFunc {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		clientSide, serverSide := net.Pipe()
		go serve(serverSide)
		return clientSide, nil
	}
}

// respondWith reads one request off conn, captures it, and writes raw back.
func respondWith(raw []byte, captured chan<- capturedRequest) func(net.Conn) {
	return func(conn net.Conn) {
		defer conn.Close()
		r := bufio.NewReader(conn)
		line, err := httpmsg.ReadRequestLine(r)
		if err != nil {
			return
		}
		msg, err := httpmsg.ReadMessage(r, line.Proto, 1<<20)
		if err != nil {
			return
		}
		if captured != nil {
			captured <- capturedRequest{line: line, msg: msg}
		}
		if len(raw) > 0 {
			conn.Write(raw)
		}
	}
}

func jsonReply(status int, body []byte) []byte {
	f := httpmsg.ReplyFormatter{ServerToken: "test/1.0"}
	return f.Reply(status, body, false, false, "application/json")
}

func TestCallSuccess(t *testing.T) {
	t.Parallel()

	raw := jsonReply(httpmsg.StatusOK, jsonrpc.EncodeReply(jsonval.String("pong"), jsonval.Null(), jsonval.Int(1)))
	captured := make(chan capturedRequest, 1)
	c := New("127.0.0.1:9332", "user", "pass", WithDialFunc(dialTo(respondWith(raw, captured))))

	result, err := c.Call(context.Background(), "ping", jsonval.Array())
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if s, ok := result.AsString(); !ok || s != "pong" {
		t.Errorf("Call() result = %v; want %q", result, "pong")
	}

	req := <-captured
	if req.line.Method != "POST" || req.line.URI != "/" {
		t.Errorf("request line = %+v; want POST /", req.line)
	}
	v, err := jsonval.Parse(req.msg.Body)
	if err != nil {
		t.Fatalf("parsing captured body: %v", err)
	}
	methodVal, _ := v.Get("method")
	if m, _ := methodVal.AsString(); m != "ping" {
		t.Errorf("request method = %q; want %q", m, "ping")
	}
	idVal, _ := v.Get("id")
	if id, _ := idVal.AsInt(); id != 1 {
		t.Errorf("request id = %d; want 1", id)
	}
}

func TestCallRequestHeaders(t *testing.T) {
	t.Parallel()

	raw := jsonReply(httpmsg.StatusOK, jsonrpc.EncodeReply(jsonval.Null(), jsonval.Null(), jsonval.Int(1)))
	captured := make(chan capturedRequest, 1)
	c := New("rpc.example.com:9332", "alice", "secret",
		WithDialFunc(dialTo(respondWith(raw, captured))),
		WithUserAgent("meridian-json-rpc/9.9"))

	if _, err := c.Call(context.Background(), "getinfo", jsonval.Null()); err != nil {
		t.Fatalf("Call() error = %v", err)
	}

	req := <-captured
	wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("alice:secret"))
	if got, _ := req.msg.Headers.Get("authorization"); got != wantAuth {
		t.Errorf("authorization = %q; want %q", got, wantAuth)
	}
	if got, _ := req.msg.Headers.Get("host"); got != "rpc.example.com" {
		t.Errorf("host = %q; want %q", got, "rpc.example.com")
	}
	if got, _ := req.msg.Headers.Get("user-agent"); got != "meridian-json-rpc/9.9" {
		t.Errorf("user-agent = %q; want %q", got, "meridian-json-rpc/9.9")
	}
	if got, _ := req.msg.Headers.Get("content-type"); got != "application/json" {
		t.Errorf("content-type = %q; want %q", got, "application/json")
	}
}

func TestCallNullParamsSentAsEmptyArray(t *testing.T) {
	t.Parallel()

	raw := jsonReply(httpmsg.StatusOK, jsonrpc.EncodeReply(jsonval.Null(), jsonval.Null(), jsonval.Int(1)))
	captured := make(chan capturedRequest, 1)
	c := New("127.0.0.1:9332", "user", "pass", WithDialFunc(dialTo(respondWith(raw, captured))))

	if _, err := c.Call(context.Background(), "getinfo", jsonval.Null()); err != nil {
		t.Fatalf("Call() error = %v", err)
	}

	req := <-captured
	v, err := jsonval.Parse(req.msg.Body)
	if err != nil {
		t.Fatalf("parsing captured body: %v", err)
	}
	params, _ := v.Get("params")
	if elems, ok := params.AsArray(); !ok || len(elems) != 0 {
		t.Errorf("params = %v; want empty array", params)
	}
}

func TestCallRejectsNonArrayParams(t *testing.T) {
	t.Parallel()

	c := New("127.0.0.1:9332", "user", "pass", WithDialFunc(
		func(ctx context.Context, network, addr string) (net.Conn, error) {
			t.Error("dial called for invalid params")
			return nil, errors.New("unreachable")
		}))

	if _, err := c.Call(context.Background(), "getinfo", jsonval.String("x")); err == nil {
		t.Fatal("Call() error = nil; want params error")
	}
}

func TestCallErrorEnvelope(t *testing.T) {
	t.Parallel()

	errv := jsonrpc.NewError(jsonrpc.ErrCodeInvalidParameter, "Invalid parameter").Value()
	raw := jsonReply(httpmsg.StatusInternalServerError, jsonrpc.EncodeReply(jsonval.Null(), errv, jsonval.Int(1)))
	c := New("127.0.0.1:9332", "user", "pass", WithDialFunc(dialTo(respondWith(raw, nil))))

	_, err := c.Call(context.Background(), "getinfo", jsonval.Array())
	var rpcErr *jsonrpc.Error
	if !errors.As(err, &rpcErr) {
		t.Fatalf("Call() error = %v; want *jsonrpc.Error", err)
	}
	if rpcErr.Code != jsonrpc.ErrCodeInvalidParameter {
		t.Errorf("error code = %d; want %d", rpcErr.Code, jsonrpc.ErrCodeInvalidParameter)
	}
	if rpcErr.Message != "Invalid parameter" {
		t.Errorf("error message = %q; want %q", rpcErr.Message, "Invalid parameter")
	}
}

func TestCallUnauthorized(t *testing.T) {
	t.Parallel()

	c := New("127.0.0.1:9332", "user", "wrong", WithDialFunc(dialTo(respondWith(httpmsg.Unauthorized(), nil))))

	_, err := c.Call(context.Background(), "getinfo", jsonval.Array())
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Call() error = %v; want ErrUnauthorized", err)
	}
}

func TestCallHTTPErrorStatus(t *testing.T) {
	t.Parallel()

	f := httpmsg.ReplyFormatter{ServerToken: "test/1.0"}
	raw := f.Reply(httpmsg.StatusForbidden, nil, false, false, "application/json")
	c := New("127.0.0.1:9332", "user", "pass", WithDialFunc(dialTo(respondWith(raw, nil))))

	_, err := c.Call(context.Background(), "getinfo", jsonval.Array())
	if err == nil {
		t.Fatal("Call() error = nil; want HTTP error")
	}
	if got, want := err.Error(), "server returned HTTP error 403"; got != want {
		t.Errorf("Call() error = %q; want %q", got, want)
	}
}

func TestCallEmptyReply(t *testing.T) {
	t.Parallel()

	// Server reads the request and closes without answering.
	c := New("127.0.0.1:9332", "user", "pass", WithDialFunc(dialTo(respondWith(nil, nil))))

	_, err := c.Call(context.Background(), "getinfo", jsonval.Array())
	if !errors.Is(err, ErrEmptyReply) {
		t.Errorf("Call() error = %v; want ErrEmptyReply", err)
	}
}

func TestCallEmptyBodyWithOKStatus(t *testing.T) {
	t.Parallel()

	raw := jsonReply(httpmsg.StatusOK, nil)
	c := New("127.0.0.1:9332", "user", "pass", WithDialFunc(dialTo(respondWith(raw, nil))))

	_, err := c.Call(context.Background(), "getinfo", jsonval.Array())
	if !errors.Is(err, ErrEmptyReply) {
		t.Errorf("Call() error = %v; want ErrEmptyReply", err)
	}
}

func TestCallMalformedReplyBody(t *testing.T) {
	t.Parallel()

	raw := jsonReply(httpmsg.StatusOK, []byte("not json\n"))
	c := New("127.0.0.1:9332", "user", "pass", WithDialFunc(dialTo(respondWith(raw, nil))))

	_, err := c.Call(context.Background(), "getinfo", jsonval.Array())
	if err == nil {
		t.Fatal("Call() error = nil; want decode error")
	}
}

func TestCallTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	serve := func(conn net.Conn) {
		defer conn.Close()
		r := bufio.NewReader(conn)
		if _, err := httpmsg.ReadRequestLine(r); err != nil {
			return
		}
		if _, err := httpmsg.ReadMessage(r, 1, 1<<20); err != nil {
			return
		}
		<-release
	}

	c := New("127.0.0.1:9332", "user", "pass",
		WithDialFunc(dialTo(serve)),
		WithTimeout(50*time.Millisecond))

	start := time.Now()
	_, err := c.Call(context.Background(), "getinfo", jsonval.Array())
	if err == nil {
		t.Fatal("Call() error = nil; want timeout")
	}
	if errors.Is(err, ErrEmptyReply) {
		t.Errorf("Call() error = %v; want a deadline error", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Call() took %v; want prompt timeout", elapsed)
	}
}

func TestCallDialFailure(t *testing.T) {
	t.Parallel()

	c := New("127.0.0.1:9332", "user", "pass", WithDialFunc(
		func(ctx context.Context, network, addr string) (net.Conn, error) {
			return nil, errors.New("connection refused")
		}))

	_, err := c.Call(context.Background(), "getinfo", jsonval.Array())
	if err == nil {
		t.Fatal("Call() error = nil; want dial error")
	}
}
