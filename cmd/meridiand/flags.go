// ABOUTME: Daemon flag parsing using stdlib flag package
// ABOUTME: Flags override config file and environment settings

package main

import (
	"flag"

	"github.com/meridian-node/meridian/internal/config"
)

type cliArgs struct {
	conf     string
	listen   string
	rpcUser  string
	rpcPass  string
	logLevel string
	verbose  bool
	version  bool
}

func parseFlags() cliArgs {
	var args cliArgs

	flag.StringVar(&args.conf, "conf", "", "Config file path (default ~/.meridian/config.yaml)")
	flag.StringVar(&args.listen, "listen", "", "Listen address as host:port")
	flag.StringVar(&args.rpcUser, "rpcuser", "", "RPC basic auth username")
	flag.StringVar(&args.rpcPass, "rpcpassword", "", "RPC basic auth password")
	flag.StringVar(&args.logLevel, "loglevel", "", "Log level (trace, debug, info, warn, error)")
	flag.BoolVar(&args.verbose, "verbose", false, "Shorthand for -loglevel debug")
	flag.BoolVar(&args.version, "version", false, "Show version and exit")

	flag.Parse()
	return args
}

// overrides maps the set flags onto a Config for merging.
func (a cliArgs) overrides() config.Config {
	cfg := config.Config{
		Listen:   a.listen,
		User:     a.rpcUser,
		Password: a.rpcPass,
		LogLevel: a.logLevel,
	}
	if a.verbose {
		cfg.LogLevel = "debug"
	}
	return cfg
}
