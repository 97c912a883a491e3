package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/iaserrat/tcpprobe/internal/config"
	"github.com/iaserrat/tcpprobe/internal/logging"
	"github.com/iaserrat/tcpprobe/internal/probe"
	"github.com/iaserrat/tcpprobe/internal/report"
	"github.com/iaserrat/tcpprobe/internal/traceroute"
)

var version = "dev"

const exitProbeFailed = 2

type options struct {
	configPath string
	host       string
	port       int
	timeout    float64
	set        map[string]bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Path to optional TOML config file")
	flag.StringVar(&opts.host, "host", config.DefaultHost, "Target host or IP")
	flag.IntVar(&opts.port, "port", config.DefaultPort, "Target TCP port")
	flag.Float64Var(&opts.timeout, "timeout", float64(config.DefaultTimeoutMS)/1000, "Connect timeout in seconds")
	strict := flag.Bool("strict", false, "Exit with status 2 when the probe fails")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	opts.set = make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := run(ctx, opts, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *strict && !res.OK() {
		stop()
		os.Exit(exitProbeFailed)
	}
}

func run(ctx context.Context, opts options, out io.Writer) (probe.Result, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return probe.Result{}, err
	}

	var logger *logging.Logger
	if strings.TrimSpace(cfg.Logging.Dir) != "" {
		logger, err = newLogger(cfg)
		if err != nil {
			return probe.Result{}, err
		}
		defer logger.Close()
	}

	prober, err := newProber(cfg)
	if err != nil {
		return probe.Result{}, err
	}

	target := probe.Target{Host: cfg.Target.Host, Port: cfg.Target.Port}
	timeout := cfg.Timeout()

	if err := report.Start(out, target, timeout); err != nil {
		return probe.Result{}, err
	}
	res := prober.Probe(ctx, target, timeout)
	if err := report.Result(out, res); err != nil {
		return res, err
	}
	if logger != nil {
		if err := logger.Emit(toProbeRecord(cfg, res)); err != nil {
			return res, fmt.Errorf("write probe record: %w", err)
		}
	}

	if !needsPathDiagnosis(res) {
		return res, nil
	}

	// Echo and traceroute must look at the address the probe dialed.
	addr, err := prober.LookupAddr(ctx, target.Host)
	if err != nil {
		addr = target.Host
	}

	if cfg.ICMP.Enabled {
		echo := probe.Echo(ctx, addr, cfg.EchoTimeout())
		if err := report.Echo(out, echo); err != nil {
			return res, err
		}
		if logger != nil {
			if err := logger.Emit(toEchoRecord(echo)); err != nil {
				return res, fmt.Errorf("write echo record: %w", err)
			}
		}
	}

	if cfg.Traceroute.Enabled {
		if err := runTraceroute(ctx, cfg, target, addr, out, logger); err != nil {
			return res, err
		}
	}

	return res, nil
}

func runTraceroute(ctx context.Context, cfg config.Config, target probe.Target, addr string, out io.Writer, logger *logging.Logger) error {
	trCfg := traceroute.Config{
		MaxHops: cfg.Traceroute.MaxHops,
		Wait:    cfg.TraceWait(),
	}
	if cfg.Traceroute.TCP {
		trCfg.Port = target.Port
	}
	traceTimeout := time.Duration(trCfg.MaxHops)*trCfg.Wait + 2*time.Second

	trCtx, cancel := context.WithTimeout(ctx, traceTimeout)
	tr := traceroute.Run(trCtx, addr, trCfg)
	cancel()

	if err := report.Traceroute(out, tr); err != nil {
		return err
	}
	if logger == nil {
		return nil
	}
	if err := logger.Emit(toTracerouteRecord(target.Host, addr, tr)); err != nil {
		return fmt.Errorf("write traceroute record: %w", err)
	}
	return nil
}

// loadConfig layers explicitly set flags over the config file.
func loadConfig(opts options) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return cfg, err
	}

	if opts.set["host"] {
		cfg.Target.Host = opts.host
	}
	if opts.set["port"] {
		cfg.Target.Port = opts.port
	}
	if opts.set["timeout"] {
		cfg.Target.TimeoutMS = int(math.Round(opts.timeout * 1000))
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func newLogger(cfg config.Config) (*logging.Logger, error) {
	hostID, err := os.Hostname()
	if err != nil || hostID == "" {
		hostID = "unknown"
	}
	return logging.New(logging.Config{
		Dir:         cfg.Logging.Dir,
		MaxMB:       cfg.Logging.MaxMB,
		MaxFiles:    cfg.Logging.MaxFiles,
		ToolName:    "tcpprobe",
		ToolVersion: version,
		HostID:      hostID,
	})
}

func newProber(cfg config.Config) (*probe.Prober, error) {
	dialer, err := probe.NewDialer(cfg.Proxy.URL)
	if err != nil {
		return nil, err
	}

	p := &probe.Prober{Dialer: dialer}
	if len(cfg.DNS.Resolvers) > 0 {
		p.Resolver = probe.NewResolver(cfg.DNS.Resolvers, cfg.Timeout())
	}

	return p, nil
}

// needsPathDiagnosis reports whether echo and traceroute can tell a dead host
// from a filtered port.
func needsPathDiagnosis(res probe.Result) bool {
	return !res.OK() && (res.Kind == probe.KindTimeout || res.Kind == probe.KindHostUnreachable)
}

func toProbeRecord(cfg config.Config, res probe.Result) *logging.ProbeResult {
	var errno *int
	if res.Errno != 0 {
		v := res.Errno
		errno = &v
	}

	via := "direct"
	if scheme, _, ok := strings.Cut(cfg.Proxy.URL, "://"); ok {
		via = scheme
	}

	return &logging.ProbeResult{
		BaseEvent: logging.BaseEvent{
			Type:   "probe_result",
			Target: res.Target.String(),
		},
		Outcome:     string(res.Outcome),
		ElapsedMs:   float64(res.Elapsed.Microseconds()) / 1000.0,
		TimeoutMs:   cfg.Timeout().Milliseconds(),
		RemoteAddr:  res.RemoteAddr,
		FailureKind: string(res.Kind),
		Detail:      res.Detail,
		Errno:       errno,
		Hint:        res.Hint,
		Via:         via,
	}
}

func toEchoRecord(res probe.EchoResult) *logging.EchoResult {
	var rtt *float64
	if res.OK {
		val := res.RTTMs
		rtt = &val
	}
	return &logging.EchoResult{
		BaseEvent: logging.BaseEvent{
			Type:   "echo_result",
			Target: res.Target,
		},
		OK:    res.OK,
		RttMs: rtt,
		Err:   res.Err,
	}
}

func toTracerouteRecord(host, addr string, res traceroute.Result) *logging.TracerouteResult {
	hops := make([]logging.TracerouteHop, 0, len(res.Hops))
	for _, h := range res.Hops {
		var rtt *float64
		if h.IP != "" {
			val := h.RttMs
			rtt = &val
		}
		hops = append(hops, logging.TracerouteHop{TTL: h.TTL, IP: h.IP, RttMs: rtt})
	}

	var lastIP string
	if last, ok := res.LastHop(); ok {
		lastIP = last.IP
	}

	return &logging.TracerouteResult{
		BaseEvent: logging.BaseEvent{
			Type:   "traceroute_result",
			Target: host,
		},
		Hops:      hops,
		LastHopIP: lastIP,
		Reached:   res.Reached(addr),
		Err:       res.Err,
	}
}
