// ABOUTME: Synchronous JSON-RPC client speaking the LF-framed HTTP envelope
// ABOUTME: One request per connection with basic auth and optional TLS

package client

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/meridian-node/meridian/pkg/httpmsg"
	"github.com/meridian-node/meridian/pkg/jsonrpc"
	"github.com/meridian-node/meridian/pkg/jsonval"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultMaxReplySize = 32 * 1024 * 1024
	defaultUserAgent    = "meridian-json-rpc-client"
)

var (
	// ErrUnauthorized means the server rejected the supplied credentials.
	ErrUnauthorized = errors.New("incorrect RPC credentials (authorization failed)")

	// ErrEmptyReply means the server closed the connection without sending
	// a reply body.
	ErrEmptyReply = errors.New("no response from server")
)

// DialFunc opens the transport connection. It matches the signature of
// net.Dialer.DialContext so a dialer method can be used directly.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Client issues JSON-RPC calls to one server. Every call opens a fresh
// connection, sends a single POST, and reads a single reply.
type Client struct {
	addr      string
	user      string
	password  string
	userAgent string
	timeout   time.Duration
	maxReply  int
	tlsConfig *tls.Config
	dial      DialFunc
}

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	userAgent string
	timeout   time.Duration
	maxReply  int
	tlsConfig *tls.Config
	dial      DialFunc
}

// WithUserAgent sets the User-Agent header sent with each request.
func WithUserAgent(ua string) Option {
	return func(c *clientConfig) {
		c.userAgent = ua
	}
}

// WithTimeout bounds each call's dial plus round trip. Zero disables the
// bound.
func WithTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = d
	}
}

// WithMaxReplySize caps the reply body size the client will accept.
func WithMaxReplySize(n int) Option {
	return func(c *clientConfig) {
		c.maxReply = n
	}
}

// WithTLS enables TLS on the transport using cfg.
func WithTLS(cfg *tls.Config) Option {
	return func(c *clientConfig) {
		c.tlsConfig = cfg
	}
}

// WithDialFunc sets the transport dialer (for testing or custom transports).
func WithDialFunc(dial DialFunc) Option {
	return func(c *clientConfig) {
		c.dial = dial
	}
}

// New creates a client for the server at addr ("host:port") using HTTP
// basic auth with the given credentials.
func New(addr, user, password string, opts ...Option) *Client {
	cfg := &clientConfig{
		userAgent: defaultUserAgent,
		timeout:   defaultTimeout,
		maxReply:  defaultMaxReplySize,
	}
	for _, o := range opts {
		o(cfg)
	}
	return &Client{
		addr:      addr,
		user:      user,
		password:  password,
		userAgent: cfg.userAgent,
		timeout:   cfg.timeout,
		maxReply:  cfg.maxReply,
		tlsConfig: cfg.tlsConfig,
		dial:      cfg.dial,
	}
}

// Call invokes method with params (an array value, or null for none) and
// returns the result. A non-null error member in the reply is returned as
// a *jsonrpc.Error.
func (c *Client) Call(ctx context.Context, method string, params jsonval.Value) (jsonval.Value, error) {
	if params.Kind() == jsonval.KindNull {
		params = jsonval.Array()
	}
	if params.Kind() != jsonval.KindArray {
		return jsonval.Value{}, errors.New("params must be an array or null")
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	conn, err := c.connect(ctx)
	if err != nil {
		return jsonval.Value{}, fmt.Errorf("connecting to %s: %w", c.addr, err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return jsonval.Value{}, fmt.Errorf("setting deadline: %w", err)
		}
	}

	reqBody := jsonrpc.EncodeRequest(method, params, jsonval.Int(1))
	extra := map[string]string{
		"Authorization": "Basic " + basicToken(c.user, c.password),
	}
	if _, err := conn.Write(httpmsg.PostRequest(c.userAgent, c.host(), reqBody, extra)); err != nil {
		return jsonval.Value{}, fmt.Errorf("writing request: %w", err)
	}

	r := bufio.NewReader(conn)
	status, err := httpmsg.ReadStatusLine(r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return jsonval.Value{}, ErrEmptyReply
		}
		return jsonval.Value{}, fmt.Errorf("reading status line: %w", err)
	}

	// The body read is best-effort: a declared length the peer never
	// delivers (the fixed 401 declares more than it sends) reads as an
	// empty body and the status mapping below decides what to report.
	var body []byte
	if msg, err := httpmsg.ReadMessage(r, status.Proto, c.maxReply); err == nil {
		body = msg.Body
	}

	// 400, 404 and 500 carry JSON-RPC error envelopes and fall through to
	// decoding; every other failure status has no envelope to decode.
	switch {
	case status.Code == httpmsg.StatusUnauthorized:
		return jsonval.Value{}, ErrUnauthorized
	case status.Code >= 400 && status.Code != httpmsg.StatusBadRequest &&
		status.Code != httpmsg.StatusNotFound && status.Code != httpmsg.StatusInternalServerError:
		return jsonval.Value{}, fmt.Errorf("server returned HTTP error %d", status.Code)
	case len(body) == 0:
		return jsonval.Value{}, ErrEmptyReply
	}

	reply, err := jsonrpc.DecodeReply(body)
	if err != nil {
		return jsonval.Value{}, fmt.Errorf("decoding reply: %w", err)
	}
	if reply.Err != nil {
		return jsonval.Value{}, reply.Err
	}
	return reply.Result, nil
}

func (c *Client) connect(ctx context.Context) (net.Conn, error) {
	dial := c.dial
	if dial == nil {
		var d net.Dialer
		dial = d.DialContext
	}
	conn, err := dial(ctx, "tcp", c.addr)
	if err != nil {
		return nil, err
	}
	if c.tlsConfig == nil {
		return conn, nil
	}
	tconn := tls.Client(conn, c.tlsConfig)
	if err := tconn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}
	return tconn, nil
}

// host returns the Host header value: the host part of addr, or addr
// itself when it has no port.
func (c *Client) host() string {
	host, _, err := net.SplitHostPort(c.addr)
	if err != nil {
		return c.addr
	}
	return host
}

func basicToken(user, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(user + ":" + password))
}
