// ABOUTME: Daemon entry point for the meridian JSON-RPC server
// ABOUTME: Parses flags, loads config, builds the listener stack, serves until signaled

package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/netutil"

	"github.com/meridian-node/meridian/internal/config"
	"github.com/meridian-node/meridian/internal/log"
	"github.com/meridian-node/meridian/internal/rpcserver"
	"github.com/meridian-node/meridian/internal/version"
)

func main() {
	args := parseFlags()

	if args.version {
		fmt.Printf("meridiand %s\n", version.Full())
		os.Exit(0)
	}

	if err := run(args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run performs the full startup sequence and serves until a signal or a
// stop request arrives.
func run(args cliArgs) error {
	cfg, err := config.Load(args.conf)
	if err != nil {
		return err
	}
	cfg = config.Merge(cfg, args.overrides())
	if err := config.Validate(cfg); err != nil {
		return err
	}

	logger, err := log.New(cfg.LogLevel, os.Stderr)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx, stopSignals := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	router := rpcserver.NewRouter()
	rpcserver.RegisterBuiltins(router, rpcserver.BuiltinDeps{
		StartTime: time.Now(),
		Stop:      cancel,
	})

	server, err := rpcserver.New(rpcserver.Config{
		User:          cfg.User,
		Password:      cfg.Password,
		MaxBodyBytes:  cfg.MaxBodyBytes,
		ReadTimeout:   cfg.ReadTimeout.Std(),
		WriteTimeout:  cfg.WriteTimeout.Std(),
		AuthFailDelay: cfg.AuthFailDelay.Std(),
		AllowIPs:      cfg.AllowIPs,
	}, router, logger)
	if err != nil {
		return err
	}

	ln, err := buildListener(cfg)
	if err != nil {
		return err
	}

	logger.Info().
		Str("addr", ln.Addr().String()).
		Str("version", version.Full()).
		Bool("tls", cfg.TLSCert != "").
		Msg("rpc server listening")

	if err := server.Serve(ctx, ln); err != nil {
		return err
	}
	logger.Info().Msg("rpc server stopped")
	return nil
}

// buildListener stacks TLS and the connection limit onto the TCP listener.
func buildListener(cfg config.Config) (net.Listener, error) {
	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", cfg.Listen, err)
	}
	if cfg.TLSCert != "" {
		cert, err := tls.LoadX509KeyPair(cfg.TLSCert, cfg.TLSKey)
		if err != nil {
			ln.Close()
			return nil, fmt.Errorf("loading TLS key pair: %w", err)
		}
		ln = tls.NewListener(ln, &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		})
	}
	return netutil.LimitListener(ln, cfg.MaxConnections), nil
}
