// ABOUTME: Connection service loop for the LF-framed JSON-RPC server
// ABOUTME: Accepts TCP clients, enforces allowlist and basic auth, dispatches requests

package rpcserver

import (
	"bufio"
	"context"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/meridian-node/meridian/internal/version"
	"github.com/meridian-node/meridian/pkg/httpmsg"
	"github.com/meridian-node/meridian/pkg/jsonrpc"
	"github.com/meridian-node/meridian/pkg/jsonval"
)

// DefaultMaxBodyBytes caps request bodies when Config leaves it unset.
const DefaultMaxBodyBytes = 32 * 1024 * 1024

// Config carries the service-loop knobs. Zero timeouts disable the
// corresponding deadline.
type Config struct {
	// User and Password are the expected basic auth credentials.
	User     string
	Password string

	// ServerToken names this build in reply Server headers. Defaults to
	// version.UserAgent().
	ServerToken string

	// MaxBodyBytes caps the declared Content-Length of request bodies.
	MaxBodyBytes int

	// ReadTimeout bounds reading one request; WriteTimeout bounds writing
	// one reply.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// AuthFailDelay is slept before answering a bad-credential attempt.
	AuthFailDelay time.Duration

	// AllowIPs lists addresses or CIDR subnets allowed to connect.
	// Loopback peers are always allowed.
	AllowIPs []string
}

// Server owns the accept loop and per-connection request cycle.
type Server struct {
	cfg      Config
	router   *Router
	log      zerolog.Logger
	format   httpmsg.ReplyFormatter
	allowed  []netip.Prefix
	userPass []byte
}

// New builds a Server from cfg. It fails when an AllowIPs entry does not
// parse as an address or CIDR subnet.
func New(cfg Config, router *Router, logger zerolog.Logger) (*Server, error) {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.ServerToken == "" {
		cfg.ServerToken = version.UserAgent()
	}
	allowed, err := parseAllowList(cfg.AllowIPs)
	if err != nil {
		return nil, err
	}
	return &Server{
		cfg:      cfg,
		router:   router,
		log:      logger,
		format:   httpmsg.ReplyFormatter{ServerToken: cfg.ServerToken},
		allowed:  allowed,
		userPass: []byte(cfg.User + ":" + cfg.Password),
	}, nil
}

func parseAllowList(specs []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(specs))
	for _, spec := range specs {
		if strings.Contains(spec, "/") {
			p, err := netip.ParsePrefix(spec)
			if err != nil {
				return nil, fmt.Errorf("parsing allowed subnet %q: %w", spec, err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		a, err := netip.ParseAddr(spec)
		if err != nil {
			return nil, fmt.Errorf("parsing allowed address %q: %w", spec, err)
		}
		prefixes = append(prefixes, netip.PrefixFrom(a, a.BitLen()))
	}
	return prefixes, nil
}

// Serve accepts connections from ln until ctx is canceled, running each
// connection's request cycle on its own goroutine.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		ln.Close()
		return nil
	})

	g.Go(func() error {
		for {
			conn, err := ln.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("accepting connection: %w", err)
			}
			g.Go(func() error {
				defer conn.Close()
				// Cancellation poisons reads: a cycle blocked on the
				// peer fails immediately, while an in-flight reply
				// (the stop call's own) still gets written.
				unregister := context.AfterFunc(ctx, func() {
					conn.SetReadDeadline(time.Now())
				})
				defer unregister()
				s.serveConn(ctx, conn)
				return nil
			})
		}
	})

	return g.Wait()
}

// serveConn runs the request cycle for one connection until the peer
// closes, an error reply forces a close, or keep-alive is switched off.
func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	peer := conn.RemoteAddr()
	if !s.ClientAllowed(peer) {
		s.log.Warn().Stringer("peer", peer).Msg("rejected connection from disallowed address")
		s.write(conn, s.format.Reply(httpmsg.StatusForbidden, nil, false, false, "application/json"))
		return
	}
	s.log.Debug().Stringer("peer", peer).Msg("connection accepted")

	r := bufio.NewReader(conn)
	for {
		if s.cfg.ReadTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		}
		if ctx.Err() != nil {
			return
		}

		line, err := httpmsg.ReadRequestLine(r)
		if err != nil {
			if errors.Is(err, httpmsg.ErrMalformedRequestLine) {
				s.write(conn, s.format.Error(httpmsg.StatusBadRequest, false, false))
			}
			return
		}

		msg, err := httpmsg.ReadMessage(r, line.Proto, s.cfg.MaxBodyBytes)
		if err != nil {
			if errors.Is(err, httpmsg.ErrOversizeBody) {
				s.write(conn, s.format.Error(httpmsg.StatusInternalServerError, false, false))
			}
			return
		}

		connHdr, _ := msg.Headers.Get("connection")
		keepAlive := connHdr != "close"

		if line.URI != "/" {
			s.write(conn, s.format.Error(httpmsg.StatusNotFound, false, false))
			return
		}
		if !msg.Headers.Has("authorization") {
			s.write(conn, httpmsg.Unauthorized())
			return
		}
		if !s.Authorized(msg.Headers) {
			s.log.Warn().Stringer("peer", peer).Msg("incorrect password attempt")
			// Deter brute forcing.
			if s.cfg.AuthFailDelay > 0 {
				time.Sleep(s.cfg.AuthFailDelay)
			}
			s.write(conn, httpmsg.Unauthorized())
			return
		}
		if line.Method != "POST" {
			s.write(conn, s.format.Error(httpmsg.StatusBadMethod, false, false))
			return
		}

		status, reply := s.execute(ctx, msg.Body)
		if status != httpmsg.StatusOK {
			s.write(conn, s.format.Reply(status, reply, false, false, "application/json"))
			return
		}
		s.write(conn, s.format.Reply(httpmsg.StatusOK, reply, keepAlive, false, "application/json"))
		if !keepAlive {
			return
		}
	}
}

// execute parses one request body and produces the HTTP status and reply
// body for it. Objects run a single call, arrays run a batch.
func (s *Server) execute(ctx context.Context, body []byte) (int, []byte) {
	v, err := jsonval.Parse(body)
	if err != nil {
		return s.errorReply(jsonrpc.NewParseError(), jsonval.Null())
	}
	switch v.Kind() {
	case jsonval.KindObject:
		req, rpcErr := jsonrpc.ParseRequest(v)
		if rpcErr != nil {
			return s.errorReply(rpcErr, req.ID)
		}
		s.log.Debug().Str("method", req.Method).Msg("rpc request")
		result, rpcErr := s.router.Dispatch(ctx, req.Method, req.Params)
		if rpcErr != nil {
			return s.errorReply(rpcErr, req.ID)
		}
		return httpmsg.StatusOK, jsonrpc.EncodeReply(result, jsonval.Null(), req.ID)
	case jsonval.KindArray:
		return httpmsg.StatusOK, s.executeBatch(ctx, v)
	default:
		return s.errorReply(jsonrpc.NewError(jsonrpc.ErrCodeParse, "Top-level object parse error"), jsonval.Null())
	}
}

// executeBatch runs every element of batch and returns the array of reply
// objects. Per-element failures ride inside their reply object; the batch
// itself always reports HTTP 200.
func (s *Server) executeBatch(ctx context.Context, batch jsonval.Value) []byte {
	elems, _ := batch.AsArray()
	replies := make([]jsonval.Value, 0, len(elems))
	for _, elem := range elems {
		replies = append(replies, s.executeOne(ctx, elem))
	}
	return append(jsonval.Marshal(jsonval.Array(replies...)), '\n')
}

func (s *Server) executeOne(ctx context.Context, v jsonval.Value) jsonval.Value {
	req, rpcErr := jsonrpc.ParseRequest(v)
	if rpcErr != nil {
		return jsonrpc.ReplyObj(jsonval.Null(), rpcErr.Value(), req.ID)
	}
	s.log.Debug().Str("method", req.Method).Msg("rpc request")
	result, rpcErr := s.router.Dispatch(ctx, req.Method, req.Params)
	if rpcErr != nil {
		return jsonrpc.ReplyObj(jsonval.Null(), rpcErr.Value(), req.ID)
	}
	return jsonrpc.ReplyObj(result, jsonval.Null(), req.ID)
}

func (s *Server) errorReply(rpcErr *jsonrpc.Error, id jsonval.Value) (int, []byte) {
	return jsonrpc.HTTPStatusFor(rpcErr.Code), jsonrpc.EncodeReply(jsonval.Null(), rpcErr.Value(), id)
}

// Authorized checks the authorization header against the configured
// credentials, comparing in constant time.
func (s *Server) Authorized(headers httpmsg.HeaderMap) bool {
	auth, ok := headers.Get("authorization")
	if !ok || !strings.HasPrefix(auth, "Basic ") {
		return false
	}
	encoded := strings.TrimSpace(strings.TrimPrefix(auth, "Basic "))
	userPass, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(userPass, s.userPass) == 1
}

// ClientAllowed reports whether a peer address may use the server.
// Loopback is always allowed; other addresses must match an AllowIPs
// entry. Non-IP transports (in-process pipes) are local by construction
// and are allowed.
func (s *Server) ClientAllowed(remote net.Addr) bool {
	if remote == nil {
		return false
	}
	ap, err := netip.ParseAddrPort(remote.String())
	if err != nil {
		return true
	}
	addr := ap.Addr().Unmap()
	if addr.IsLoopback() {
		return true
	}
	for _, p := range s.allowed {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func (s *Server) write(conn net.Conn, b []byte) {
	if s.cfg.WriteTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	if _, err := conn.Write(b); err != nil {
		s.log.Debug().Err(err).Msg("writing reply")
	}
}
