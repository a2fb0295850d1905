// ABOUTME: Command-line RPC client for a running meridian daemon
// ABOUTME: Sends one JSON-RPC call and prints the result or error

package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/meridian-node/meridian/internal/config"
	"github.com/meridian-node/meridian/internal/version"
	"github.com/meridian-node/meridian/pkg/client"
	"github.com/meridian-node/meridian/pkg/jsonrpc"
	"github.com/meridian-node/meridian/pkg/jsonval"
)

func main() {
	args := parseFlags()

	if args.version {
		fmt.Printf("meridian-cli %s\n", version.Full())
		os.Exit(0)
	}

	os.Exit(run(args))
}

// run executes one call and returns the process exit code: 0 on success,
// the absolute RPC error code on an error reply, 1 on anything else.
func run(args cliArgs) int {
	positional := args.remaining()
	if len(positional) < 1 {
		fmt.Fprintln(os.Stderr, "usage: meridian-cli [options] <method> [params...]")
		return 1
	}
	method, rest := positional[0], positional[1:]

	cfg, err := config.Load(args.conf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	cfg = config.Merge(cfg, config.Config{User: args.rpcUser, Password: args.rpcPass})
	if cfg.User == "" && cfg.Password == "" {
		fmt.Fprintf(os.Stderr, "error: you must set rpcuser and rpcpassword in %s\n", config.ConfigFile())
		return 1
	}

	addr, err := targetAddr(cfg, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	opts := []client.Option{
		client.WithUserAgent(version.UserAgent()),
		client.WithTimeout(args.timeout),
	}
	if args.rpcSSL {
		host, _, _ := net.SplitHostPort(addr)
		opts = append(opts, client.WithTLS(&tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}))
	}

	c := client.New(addr, cfg.User, cfg.Password, opts...)
	result, err := c.Call(context.Background(), method, convertParams(rest))
	if err != nil {
		var rpcErr *jsonrpc.Error
		if errors.As(err, &rpcErr) {
			fmt.Fprintf(os.Stderr, "error: %s\n", jsonval.Marshal(rpcErr.Value()))
			return abs(rpcErr.Code)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	if out := renderResult(result); out != "" {
		fmt.Println(out)
	}
	return 0
}

// targetAddr resolves the server address from the config listen address
// with per-flag host and port overrides.
func targetAddr(cfg config.Config, args cliArgs) (string, error) {
	host, port, err := net.SplitHostPort(cfg.Listen)
	if err != nil {
		return "", fmt.Errorf("invalid listen address %q: %w", cfg.Listen, err)
	}
	if args.rpcConnect != "" {
		host = args.rpcConnect
	}
	if args.rpcPort != "" {
		port = args.rpcPort
	}
	return net.JoinHostPort(host, port), nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
