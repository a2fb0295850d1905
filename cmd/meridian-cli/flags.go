// ABOUTME: CLI flag parsing using stdlib flag package
// ABOUTME: Connection flags override the shared config file

package main

import (
	"flag"
	"time"
)

type cliArgs struct {
	conf       string
	rpcConnect string
	rpcPort    string
	rpcUser    string
	rpcPass    string
	rpcSSL     bool
	timeout    time.Duration
	version    bool
}

func parseFlags() cliArgs {
	var args cliArgs

	flag.StringVar(&args.conf, "conf", "", "Config file path (default ~/.meridian/config.yaml)")
	flag.StringVar(&args.rpcConnect, "rpcconnect", "", "Server host (default from config listen address)")
	flag.StringVar(&args.rpcPort, "rpcport", "", "Server port (default from config listen address)")
	flag.StringVar(&args.rpcUser, "rpcuser", "", "RPC basic auth username")
	flag.StringVar(&args.rpcPass, "rpcpassword", "", "RPC basic auth password")
	flag.BoolVar(&args.rpcSSL, "rpcssl", false, "Connect over TLS")
	flag.DurationVar(&args.timeout, "timeout", 30*time.Second, "Round trip timeout")
	flag.BoolVar(&args.version, "version", false, "Show version and exit")

	flag.Parse()
	return args
}

// remaining returns the non-flag arguments: the method and its params.
func (a cliArgs) remaining() []string {
	return flag.Args()
}
