package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

var echoPayload = []byte("tcpprobe")

// Echo sends a single ICMP echo request to host and waits up to timeout for
// the matching reply. It needs root or CAP_NET_RAW.
func Echo(ctx context.Context, host string, timeout time.Duration) EchoResult {
	res := EchoResult{Target: host}
	rtt, err := echo(ctx, host, timeout)
	res.Time = time.Now().UTC()
	if err != nil {
		res.Err = err.Error()
		return res
	}

	res.OK = true
	res.RTTMs = float64(rtt.Microseconds()) / 1000.0
	return res
}

func echo(ctx context.Context, host string, timeout time.Duration) (time.Duration, error) {
	ipAddr, err := net.ResolveIPAddr("ip4", host)
	if err != nil {
		return 0, fmt.Errorf("resolve target: %w", err)
	}

	conn, err := icmp.ListenPacket("ip4:icmp", "0.0.0.0")
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return 0, fmt.Errorf("icmp listen requires root or CAP_NET_RAW: %w", err)
		}
		return 0, fmt.Errorf("icmp listen: %w", err)
	}
	defer conn.Close()

	id := os.Getpid() & 0xffff
	msg := icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Code: 0,
		Body: &icmp.Echo{
			ID:   id,
			Seq:  1,
			Data: echoPayload,
		},
	}

	b, err := msg.Marshal(nil)
	if err != nil {
		return 0, fmt.Errorf("icmp marshal: %w", err)
	}

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetReadDeadline(deadline)

	start := time.Now()
	if _, err := conn.WriteTo(b, ipAddr); err != nil {
		return 0, fmt.Errorf("icmp write: %w", err)
	}

	buf := make([]byte, 1500)
	for {
		n, peer, err := conn.ReadFrom(buf)
		if err != nil {
			return 0, fmt.Errorf("read reply: %w", err)
		}

		recv, err := icmp.ParseMessage(ipv4.ICMPTypeEchoReply.Protocol(), buf[:n])
		if err != nil || recv.Type != ipv4.ICMPTypeEchoReply {
			continue
		}
		// The raw socket sees every echo reply on the host.
		if e, ok := recv.Body.(*icmp.Echo); !ok || e.ID != id || peer.String() != ipAddr.String() {
			continue
		}

		return time.Since(start), nil
	}
}
