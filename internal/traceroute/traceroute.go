// Package traceroute wraps the system traceroute binary to find the last
// responding hop on the way to an unreachable target.
package traceroute

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	MaxHops int
	Wait    time.Duration
	// Port, when set, probes with TCP SYNs to that port (traceroute -T).
	Port int
}

type Hop struct {
	TTL   int
	IP    string
	RttMs float64
}

type Result struct {
	Hops []Hop
	Err  string
}

// LastHop returns the furthest hop that answered, or false if none did.
func (r Result) LastHop() (Hop, bool) {
	for i := len(r.Hops) - 1; i >= 0; i-- {
		if r.Hops[i].IP != "" {
			return r.Hops[i], true
		}
	}
	return Hop{}, false
}

// Reached reports whether the final answering hop is the target itself.
func (r Result) Reached(ip string) bool {
	last, ok := r.LastHop()
	return ok && last.IP == ip
}

var hopLine = regexp.MustCompile(`^\s*(\d+)\s+(.+)$`)

func Run(ctx context.Context, target string, cfg Config) Result {
	cmd := exec.CommandContext(ctx, "traceroute", args(target, cfg)...)

	out, err := cmd.CombinedOutput()
	res := Result{Hops: parseOutput(string(out))}
	if err != nil {
		res.Err = err.Error()
	}
	return res
}

func args(target string, cfg Config) []string {
	a := []string{"-n", "-q", "1", "-m", strconv.Itoa(cfg.MaxHops), "-w", fmt.Sprintf("%.0f", cfg.Wait.Seconds())}
	if cfg.Port > 0 {
		a = append(a, "-T", "-p", strconv.Itoa(cfg.Port))
	}
	return append(a, target)
}

func parseOutput(out string) []Hop {
	scanner := bufio.NewScanner(strings.NewReader(out))
	var hops []Hop

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "traceroute") {
			continue
		}

		m := hopLine.FindStringSubmatch(line)
		if len(m) < 3 {
			continue
		}

		ttl, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		ip, rtt := parseHop(m[2])
		hops = append(hops, Hop{TTL: ttl, IP: ip, RttMs: rtt})
	}

	return hops
}

// parseHop reads "10.0.0.1  0.512 ms" style fields; "*" means no answer.
func parseHop(rest string) (string, float64) {
	fields := strings.Fields(rest)
	if len(fields) == 0 || fields[0] == "*" {
		return "", 0
	}

	ip := fields[0]
	for i := 1; i < len(fields); i++ {
		if fields[i] == "ms" {
			rtt, _ := strconv.ParseFloat(fields[i-1], 64)
			return ip, rtt
		}
	}

	return ip, 0
}
