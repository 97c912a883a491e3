package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/iaserrat/tcpprobe/internal/probe"
	"github.com/iaserrat/tcpprobe/internal/traceroute"
)

func targetOpts(host string, port int, timeout float64) options {
	return options{
		host:    host,
		port:    port,
		timeout: timeout,
		set:     map[string]bool{"host": true, "port": true, "timeout": true},
	}
}

func TestRunConnected(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	var out bytes.Buffer
	res, err := run(context.Background(), targetOpts("127.0.0.1", port, 2), &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !res.OK() {
		t.Fatalf("expected success, got %+v", res)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", out.String())
	}
	if want := "Attempting TCP connect to 127.0.0.1:" + strconv.Itoa(port) + " (2s timeout)..."; lines[0] != want {
		t.Fatalf("expected %q, got %q", want, lines[0])
	}
	if lines[1] != "Connected in 0.0s!" {
		t.Fatalf("unexpected result line %q", lines[1])
	}
}

func TestRunRefusedWritesLog(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	body := "[logging]\ndir = \"" + filepath.ToSlash(filepath.Join(dir, "logs")) + "\"\n"
	if err := os.WriteFile(cfgPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	opts := targetOpts("127.0.0.1", port, 15)
	opts.configPath = cfgPath

	var out bytes.Buffer
	res, err := run(context.Background(), opts, &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Kind != probe.KindConnectionRefused {
		t.Fatalf("expected %s, got %s", probe.KindConnectionRefused, res.Kind)
	}
	if !strings.Contains(out.String(), "Error type: connection-refused, errno: ") {
		t.Fatalf("missing error type line in %q", out.String())
	}

	data, err := os.ReadFile(filepath.Join(dir, "logs", "tcpprobe.jsonl"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &rec); err != nil {
		t.Fatalf("unmarshal record: %v", err)
	}
	if rec["type"] != "probe_result" || rec["outcome"] != "failure" || rec["failure_kind"] != "connection-refused" {
		t.Fatalf("unexpected record: %#v", rec)
	}
	if rec["via"] != "direct" {
		t.Fatalf("expected via direct, got %v", rec["via"])
	}
}

func TestRunRejectsInvalidFlags(t *testing.T) {
	var out bytes.Buffer
	if _, err := run(context.Background(), targetOpts("127.0.0.1", 0, 1), &out); err == nil {
		t.Fatalf("expected config error for port 0")
	}
	if out.Len() != 0 {
		t.Fatalf("expected no output on config error, got %q", out.String())
	}
}

func TestLoadConfigKeepsUnsetFlags(t *testing.T) {
	cfg, err := loadConfig(options{host: "ignored", port: 1, timeout: 1, set: map[string]bool{"timeout": true}})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Target.Host != "10.255.254.43" || cfg.Target.Port != 4370 {
		t.Fatalf("unset flags leaked into config: %+v", cfg.Target)
	}
	if cfg.Target.TimeoutMS != 1000 {
		t.Fatalf("expected timeout override, got %d", cfg.Target.TimeoutMS)
	}
}

func TestNeedsPathDiagnosis(t *testing.T) {
	cases := map[probe.FailureKind]bool{
		probe.KindTimeout:           true,
		probe.KindHostUnreachable:   true,
		probe.KindConnectionRefused: false,
		probe.KindNameResolution:    false,
	}
	for kind, want := range cases {
		res := probe.Result{Outcome: probe.OutcomeFailure, Kind: kind}
		if got := needsPathDiagnosis(res); got != want {
			t.Fatalf("needsPathDiagnosis(%s) = %v, want %v", kind, got, want)
		}
	}
	if needsPathDiagnosis(probe.Result{Outcome: probe.OutcomeSuccess}) {
		t.Fatalf("success should not trigger echo")
	}
}

func TestToTracerouteRecord(t *testing.T) {
	rec := toTracerouteRecord("10.255.254.43", "10.255.254.43", traceroute.Result{Hops: []traceroute.Hop{
		{TTL: 1, IP: "192.168.1.1", RttMs: 0.5},
		{TTL: 2},
	}})
	if rec.LastHopIP != "192.168.1.1" || rec.Reached {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if len(rec.Hops) != 2 || rec.Hops[0].RttMs == nil || rec.Hops[1].RttMs != nil {
		t.Fatalf("unexpected hops: %+v", rec.Hops)
	}
}

func TestToTracerouteRecordReachedByResolvedAddr(t *testing.T) {
	rec := toTracerouteRecord("device.example", "10.255.254.43", traceroute.Result{Hops: []traceroute.Hop{
		{TTL: 1, IP: "192.168.1.1", RttMs: 0.5},
		{TTL: 2, IP: "10.255.254.43", RttMs: 1.2},
	}})
	if !rec.Reached {
		t.Fatalf("expected target reached by resolved address: %+v", rec)
	}
	if rec.Target != "device.example" {
		t.Fatalf("expected record target to keep the host name, got %s", rec.Target)
	}
}
