package probe

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"
)

// Prober runs single-shot TCP connect probes. The zero value dials directly
// and leaves name resolution to the dialer.
type Prober struct {
	Dialer   ContextDialer
	Resolver *Resolver
}

// Probe attempts one TCP connection to target, bounded by timeout, and
// closes it straight away on success. Failures are returned as classified
// results, never as errors.
func (p *Prober) Probe(ctx context.Context, target Target, timeout time.Duration) Result {
	res := Result{Target: target, Time: time.Now().UTC()}

	if err := target.Validate(); err != nil {
		return fail(res, err)
	}
	if timeout <= 0 {
		return fail(res, errors.New("timeout must be > 0"))
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := p.dial(ctx, target)
	res.Elapsed = time.Since(start)

	if err != nil {
		return fail(res, err)
	}

	res.Outcome = OutcomeSuccess
	if ra := conn.RemoteAddr(); ra != nil {
		res.RemoteAddr = ra.String()
	}
	_ = conn.Close()

	return res
}

func (p *Prober) dial(ctx context.Context, target Target) (net.Conn, error) {
	addr := target.Address()
	if p.Resolver != nil {
		ip, err := p.Resolver.LookupHost(ctx, target.Host)
		if err != nil {
			return nil, err
		}
		addr = net.JoinHostPort(ip, strconv.Itoa(target.Port))
	}

	dialer := p.Dialer
	if dialer == nil {
		dialer = &net.Dialer{}
	}

	return dialer.DialContext(ctx, "tcp", addr)
}

// LookupAddr resolves host the way Probe does: through the configured
// Resolver when set, otherwise the system resolver, preferring IPv4.
func (p *Prober) LookupAddr(ctx context.Context, host string) (string, error) {
	if p.Resolver != nil {
		return p.Resolver.LookupHost(ctx, host)
	}
	if net.ParseIP(host) != nil {
		return host, nil
	}

	ips, err := net.DefaultResolver.LookupIP(ctx, "ip", host)
	if err != nil {
		return "", err
	}
	if len(ips) == 0 {
		return "", &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
	}
	for _, ip := range ips {
		if ip.To4() != nil {
			return ip.String(), nil
		}
	}
	return ips[0].String(), nil
}

func fail(res Result, err error) Result {
	res.Outcome = OutcomeFailure
	res.Kind, res.Errno = Classify(err)
	res.Detail = err.Error()
	res.Hint = Hint(res.Kind)
	return res
}
