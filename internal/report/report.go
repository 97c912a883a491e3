// Package report renders probe progress and results as human-readable lines.
package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/iaserrat/tcpprobe/internal/probe"
	"github.com/iaserrat/tcpprobe/internal/traceroute"
)

func Start(w io.Writer, target probe.Target, timeout time.Duration) error {
	_, err := fmt.Fprintf(w, "Attempting TCP connect to %s (%ss timeout)...\n", target, seconds(timeout))
	return err
}

func Result(w io.Writer, res probe.Result) error {
	if res.OK() {
		_, err := fmt.Fprintf(w, "Connected in %.1fs!\n", res.Elapsed.Seconds())
		return err
	}

	if _, err := fmt.Fprintf(w, "Failed after %.1fs: %s\n", res.Elapsed.Seconds(), res.Detail); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Error type: %s, errno: %s\n", res.Kind, res.ErrnoString()); err != nil {
		return err
	}
	if res.Hint != "" {
		_, err := fmt.Fprintf(w, "Hint: %s\n", res.Hint)
		return err
	}
	return nil
}

func Echo(w io.Writer, res probe.EchoResult) error {
	if res.OK {
		_, err := fmt.Fprintf(w, "ICMP echo: reply in %.1fms\n", res.RTTMs)
		return err
	}
	_, err := fmt.Fprintf(w, "ICMP echo: no reply (%s)\n", res.Err)
	return err
}

func Traceroute(w io.Writer, res traceroute.Result) error {
	last, ok := res.LastHop()
	switch {
	case ok:
		_, err := fmt.Fprintf(w, "Traceroute: last hop %d %s (%.1fms)\n", last.TTL, last.IP, last.RttMs)
		return err
	case res.Err != "":
		_, err := fmt.Fprintf(w, "Traceroute: failed (%s)\n", res.Err)
		return err
	default:
		_, err := fmt.Fprintln(w, "Traceroute: no hop answered")
		return err
	}
}

// seconds prints whole seconds without a fraction, so 15s reads "15".
func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
