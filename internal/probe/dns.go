package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"
)

// ResolveError reports a failed lookup against the configured DNS servers.
type ResolveError struct {
	Host     string
	Server   string
	NotFound bool
	Err      error
}

func (e *ResolveError) Error() string {
	if e.NotFound {
		return fmt.Sprintf("lookup %s on %s: no such host", e.Host, e.Server)
	}
	if e.Err != nil {
		return fmt.Sprintf("lookup %s on %s: %v", e.Host, e.Server, e.Err)
	}
	return fmt.Sprintf("lookup %s on %s: no address records", e.Host, e.Server)
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}

// Resolver looks up hosts through explicitly configured DNS servers instead of
// the system resolver. Servers are tried in order until one answers.
type Resolver struct {
	Servers []string
	client  *dns.Client
}

func NewResolver(servers []string, timeout time.Duration) *Resolver {
	return &Resolver{
		Servers: servers,
		client:  &dns.Client{Timeout: timeout},
	}
}

// LookupHost returns the first IPv4 address for host, falling back to IPv6.
// IP literals are returned unchanged.
func (r *Resolver) LookupHost(ctx context.Context, host string) (string, error) {
	if ip := net.ParseIP(host); ip != nil {
		return host, nil
	}
	if len(r.Servers) == 0 {
		return "", &ResolveError{Host: host, Err: errors.New("no dns servers configured")}
	}

	var lastErr error
	for _, server := range r.Servers {
		addr, err := r.lookup(ctx, host, server)
		if err == nil {
			return addr, nil
		}
		var re *ResolveError
		if errors.As(err, &re) && re.Err == nil {
			// Authoritative negative answer; other servers would agree.
			return "", err
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}

	return "", lastErr
}

func (r *Resolver) lookup(ctx context.Context, host, server string) (string, error) {
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		msg := new(dns.Msg)
		msg.SetQuestion(dns.Fqdn(host), qtype)

		reply, _, err := r.client.ExchangeContext(ctx, msg, server)
		if err != nil {
			return "", &ResolveError{Host: host, Server: server, Err: err}
		}
		if reply.Rcode == dns.RcodeNameError {
			return "", &ResolveError{Host: host, Server: server, NotFound: true}
		}
		if reply.Rcode != dns.RcodeSuccess {
			return "", &ResolveError{Host: host, Server: server, Err: fmt.Errorf("rcode %s", dns.RcodeToString[reply.Rcode])}
		}

		for _, rr := range reply.Answer {
			switch v := rr.(type) {
			case *dns.A:
				return v.A.String(), nil
			case *dns.AAAA:
				return v.AAAA.String(), nil
			}
		}
	}

	return "", &ResolveError{Host: host, Server: server}
}
