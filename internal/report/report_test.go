package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/iaserrat/tcpprobe/internal/probe"
	"github.com/iaserrat/tcpprobe/internal/traceroute"
)

func TestStart(t *testing.T) {
	var buf bytes.Buffer
	target := probe.Target{Host: "10.255.254.43", Port: 4370}

	if err := Start(&buf, target, 15*time.Second); err != nil {
		t.Fatalf("start: %v", err)
	}
	want := "Attempting TCP connect to 10.255.254.43:4370 (15s timeout)...\n"
	if buf.String() != want {
		t.Fatalf("expected %q, got %q", want, buf.String())
	}

	buf.Reset()
	_ = Start(&buf, target, 1500*time.Millisecond)
	if want := "Attempting TCP connect to 10.255.254.43:4370 (1.5s timeout)...\n"; buf.String() != want {
		t.Fatalf("expected %q, got %q", want, buf.String())
	}
}

func TestResultSuccess(t *testing.T) {
	var buf bytes.Buffer
	res := probe.Result{Outcome: probe.OutcomeSuccess, Elapsed: 240 * time.Millisecond}

	if err := Result(&buf, res); err != nil {
		t.Fatalf("result: %v", err)
	}
	if want := "Connected in 0.2s!\n"; buf.String() != want {
		t.Fatalf("expected %q, got %q", want, buf.String())
	}
}

func TestResultFailure(t *testing.T) {
	var buf bytes.Buffer
	res := probe.Result{
		Outcome: probe.OutcomeFailure,
		Elapsed: 15020 * time.Millisecond,
		Kind:    probe.KindTimeout,
		Detail:  "dial tcp 10.255.254.1:4370: i/o timeout",
		Hint:    probe.Hint(probe.KindTimeout),
	}

	if err := Result(&buf, res); err != nil {
		t.Fatalf("result: %v", err)
	}
	want := "Failed after 15.0s: dial tcp 10.255.254.1:4370: i/o timeout\n" +
		"Error type: timeout, errno: N/A\n" +
		"Hint: Connection timeout - device may be unreachable or IP/port incorrect\n"
	if buf.String() != want {
		t.Fatalf("expected %q, got %q", want, buf.String())
	}
}

func TestResultFailureWithErrnoNoHint(t *testing.T) {
	var buf bytes.Buffer
	res := probe.Result{
		Outcome: probe.OutcomeFailure,
		Kind:    probe.KindOther,
		Detail:  "dial tcp 10.0.0.1:4370: connect: permission denied",
		Errno:   13,
	}

	_ = Result(&buf, res)
	want := "Failed after 0.0s: dial tcp 10.0.0.1:4370: connect: permission denied\n" +
		"Error type: other, errno: 13\n"
	if buf.String() != want {
		t.Fatalf("expected %q, got %q", want, buf.String())
	}
}

func TestEcho(t *testing.T) {
	var buf bytes.Buffer
	_ = Echo(&buf, probe.EchoResult{OK: true, RTTMs: 3.24})
	_ = Echo(&buf, probe.EchoResult{Err: "read reply: i/o timeout"})

	want := "ICMP echo: reply in 3.2ms\nICMP echo: no reply (read reply: i/o timeout)\n"
	if buf.String() != want {
		t.Fatalf("expected %q, got %q", want, buf.String())
	}
}

func TestTraceroute(t *testing.T) {
	var buf bytes.Buffer
	_ = Traceroute(&buf, traceroute.Result{Hops: []traceroute.Hop{
		{TTL: 1, IP: "192.168.1.1", RttMs: 0.51},
		{TTL: 2},
	}})
	_ = Traceroute(&buf, traceroute.Result{Err: "exec: \"traceroute\": executable file not found in $PATH"})
	_ = Traceroute(&buf, traceroute.Result{Hops: []traceroute.Hop{{TTL: 1}}})

	want := "Traceroute: last hop 1 192.168.1.1 (0.5ms)\n" +
		"Traceroute: failed (exec: \"traceroute\": executable file not found in $PATH)\n" +
		"Traceroute: no hop answered\n"
	if buf.String() != want {
		t.Fatalf("expected %q, got %q", want, buf.String())
	}
}
