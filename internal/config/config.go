package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultHost      = "10.255.254.43"
	DefaultPort      = 4370
	DefaultTimeoutMS = 15000

	defaultEchoTimeoutMS = 2000
	defaultTraceMaxHops  = 16
	defaultTraceWaitMS   = 2000
	defaultDNSPort       = "53"
)

type Config struct {
	Target     TargetConfig     `toml:"target"`
	DNS        DNSConfig        `toml:"dns"`
	Proxy      ProxyConfig      `toml:"proxy"`
	ICMP       ICMPConfig       `toml:"icmp"`
	Traceroute TracerouteConfig `toml:"traceroute"`
	Logging    LoggingConfig    `toml:"logging"`
}

type TargetConfig struct {
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
	TimeoutMS int    `toml:"timeout_ms"`
}

type DNSConfig struct {
	Resolvers []string `toml:"resolvers"`
}

type ProxyConfig struct {
	URL string `toml:"url"`
}

type ICMPConfig struct {
	Enabled   bool `toml:"enabled"`
	TimeoutMS int  `toml:"timeout_ms"`
}

// TracerouteConfig with TCP set traces with SYNs to the target port.
type TracerouteConfig struct {
	Enabled bool `toml:"enabled"`
	MaxHops int  `toml:"max_hops"`
	WaitMS  int  `toml:"wait_ms"`
	TCP     bool `toml:"tcp"`
}

// LoggingConfig enables the JSONL result log when Dir is set.
type LoggingConfig struct {
	Dir      string `toml:"dir"`
	MaxMB    int    `toml:"max_mb"`
	MaxFiles int    `toml:"max_files"`
}

func Default() Config {
	return Config{
		Target: TargetConfig{
			Host:      DefaultHost,
			Port:      DefaultPort,
			TimeoutMS: DefaultTimeoutMS,
		},
		ICMP: ICMPConfig{TimeoutMS: defaultEchoTimeoutMS},
		Traceroute: TracerouteConfig{
			MaxHops: defaultTraceMaxHops,
			WaitMS:  defaultTraceWaitMS,
		},
		Logging: LoggingConfig{
			MaxMB:    10,
			MaxFiles: 5,
		},
	}
}

// Load decodes the file at path over the defaults. An empty path yields the
// defaults alone.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return cfg, fmt.Errorf("config file not found: %w", err)
		}

		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("decode config: %w", err)
		}
	}

	cfg.DNS.Resolvers = normalizeResolvers(cfg.DNS.Resolvers)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func (c Config) Timeout() time.Duration {
	return time.Duration(c.Target.TimeoutMS) * time.Millisecond
}

func (c Config) EchoTimeout() time.Duration {
	return time.Duration(c.ICMP.TimeoutMS) * time.Millisecond
}

func (c Config) TraceWait() time.Duration {
	return time.Duration(c.Traceroute.WaitMS) * time.Millisecond
}

func (c *Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.Target.Host) == "" {
		errs = append(errs, "target.host is required")
	}
	if c.Target.Port < 1 || c.Target.Port > 65535 {
		errs = append(errs, "target.port must be in [1, 65535]")
	}
	if c.Target.TimeoutMS <= 0 {
		errs = append(errs, "target.timeout_ms must be > 0")
	}
	for i, r := range c.DNS.Resolvers {
		if _, _, err := net.SplitHostPort(r); err != nil {
			errs = append(errs, fmt.Sprintf("dns.resolvers[%d] is not host:port", i))
		}
	}
	if strings.TrimSpace(c.Proxy.URL) != "" {
		u, err := url.Parse(c.Proxy.URL)
		if err != nil || u.Host == "" {
			errs = append(errs, "proxy.url is invalid")
		} else if u.Scheme != "socks5" && u.Scheme != "socks5h" {
			errs = append(errs, "proxy.url scheme must be socks5 or socks5h")
		}
	}
	if c.ICMP.Enabled && c.ICMP.TimeoutMS <= 0 {
		errs = append(errs, "icmp.timeout_ms must be > 0")
	}
	if c.Traceroute.Enabled {
		if c.Traceroute.MaxHops <= 0 || c.Traceroute.MaxHops > 255 {
			errs = append(errs, "traceroute.max_hops must be in [1, 255]")
		}
		if c.Traceroute.WaitMS < 1000 {
			errs = append(errs, "traceroute.wait_ms must be >= 1000")
		}
	}
	if strings.TrimSpace(c.Logging.Dir) != "" {
		if c.Logging.MaxMB <= 0 {
			errs = append(errs, "logging.max_mb must be > 0")
		}
		if c.Logging.MaxFiles <= 0 {
			errs = append(errs, "logging.max_files must be > 0")
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

// normalizeResolvers appends the DNS port to entries that lack one.
func normalizeResolvers(in []string) []string {
	out := make([]string, 0, len(in))
	for _, r := range in {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if _, _, err := net.SplitHostPort(r); err != nil {
			r = net.JoinHostPort(strings.Trim(r, "[]"), defaultDNSPort)
		}
		out = append(out, r)
	}
	return out
}
