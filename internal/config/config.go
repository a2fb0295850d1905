// ABOUTME: Daemon and CLI settings with defaults, YAML file, and env layering
// ABOUTME: Later layers override earlier ones; zero values mean unset

package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML files can use "30s" syntax.
type Duration time.Duration

// UnmarshalYAML decodes a Go duration string such as "250ms" or "1m30s".
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"30s\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds the merged daemon and CLI settings.
type Config struct {
	// Listen is the host:port the daemon binds.
	Listen string `yaml:"listen"`

	// User and Password are the RPC basic auth credentials. Both are
	// required to start the daemon.
	User     string `yaml:"rpcuser"`
	Password string `yaml:"rpcpassword"`

	// AllowIPs lists non-loopback addresses or CIDR subnets allowed to
	// connect.
	AllowIPs []string `yaml:"rpcallowip"`

	// MaxBodyBytes caps request body sizes.
	MaxBodyBytes int `yaml:"max_body_bytes"`

	// ReadTimeout and WriteTimeout bound one request read and one reply
	// write respectively.
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`

	// MaxConnections caps concurrently served connections.
	MaxConnections int `yaml:"max_connections"`

	// AuthFailDelay is slept before answering a bad-credential attempt.
	AuthFailDelay Duration `yaml:"auth_fail_delay"`

	// TLSCert and TLSKey enable TLS on the listener when both are set.
	TLSCert string `yaml:"tls_cert"`
	TLSKey  string `yaml:"tls_key"`

	// LogLevel is a zerolog level name.
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Listen:         "127.0.0.1:9332",
		MaxBodyBytes:   32 * 1024 * 1024,
		ReadTimeout:    Duration(30 * time.Second),
		WriteTimeout:   Duration(30 * time.Second),
		MaxConnections: 125,
		AuthFailDelay:  Duration(250 * time.Millisecond),
		LogLevel:       "info",
	}
}

// Load builds the configuration: defaults, then the YAML file at path,
// then environment variables. An empty path falls back to ConfigFile()
// and tolerates its absence; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = ConfigFile()
	}
	file, err := loadFile(path)
	if err != nil {
		if explicit || !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = Merge(cfg, file)
	}

	return applyEnv(cfg), nil
}

// loadFile reads one Config from a YAML file.
func loadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return c, nil
}

// applyEnv overrides cfg from the MERIDIAN_* environment variables.
func applyEnv(cfg Config) Config {
	if v := os.Getenv("MERIDIAN_RPC_USER"); v != "" {
		cfg.User = v
	}
	if v := os.Getenv("MERIDIAN_RPC_PASSWORD"); v != "" {
		cfg.Password = v
	}
	if v := os.Getenv("MERIDIAN_RPC_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("MERIDIAN_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	return cfg
}

// Merge returns base with every non-zero field of override applied on top.
func Merge(base, override Config) Config {
	result := base

	if override.Listen != "" {
		result.Listen = override.Listen
	}
	if override.User != "" {
		result.User = override.User
	}
	if override.Password != "" {
		result.Password = override.Password
	}
	if len(override.AllowIPs) > 0 {
		result.AllowIPs = override.AllowIPs
	}
	if override.MaxBodyBytes != 0 {
		result.MaxBodyBytes = override.MaxBodyBytes
	}
	if override.ReadTimeout != 0 {
		result.ReadTimeout = override.ReadTimeout
	}
	if override.WriteTimeout != 0 {
		result.WriteTimeout = override.WriteTimeout
	}
	if override.MaxConnections != 0 {
		result.MaxConnections = override.MaxConnections
	}
	if override.AuthFailDelay != 0 {
		result.AuthFailDelay = override.AuthFailDelay
	}
	if override.TLSCert != "" {
		result.TLSCert = override.TLSCert
	}
	if override.TLSKey != "" {
		result.TLSKey = override.TLSKey
	}
	if override.LogLevel != "" {
		result.LogLevel = override.LogLevel
	}

	return result
}

// Validate rejects configurations the daemon cannot run with.
func Validate(cfg Config) error {
	if cfg.User == "" || cfg.Password == "" {
		return fmt.Errorf("rpcuser and rpcpassword must be set (config file %s)", ConfigFile())
	}
	if _, _, err := net.SplitHostPort(cfg.Listen); err != nil {
		return fmt.Errorf("invalid listen address %q: %w", cfg.Listen, err)
	}
	if cfg.MaxBodyBytes <= 0 {
		return fmt.Errorf("max_body_bytes must be positive, got %d", cfg.MaxBodyBytes)
	}
	if cfg.MaxConnections <= 0 {
		return fmt.Errorf("max_connections must be positive, got %d", cfg.MaxConnections)
	}
	if cfg.ReadTimeout < 0 || cfg.WriteTimeout < 0 || cfg.AuthFailDelay < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	if (cfg.TLSCert == "") != (cfg.TLSKey == "") {
		return fmt.Errorf("tls_cert and tls_key must be set together")
	}
	return nil
}
