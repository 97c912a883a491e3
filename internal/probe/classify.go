package probe

import (
	"context"
	"errors"
	"net"
	"syscall"
)

var hints = map[FailureKind]string{
	KindTimeout:           "Connection timeout - device may be unreachable or IP/port incorrect",
	KindConnectionRefused: "Connection refused - check if device is powered on and network accessible",
	KindHostUnreachable:   "Host unreachable - check network configuration",
	KindNameResolution:    "Name resolution failed - check the hostname or DNS servers",
}

// Classify maps a dial error to a failure kind and the platform errno, if any.
// Cancellation is always KindOther. Otherwise resolution errors win, so a
// resolver that times out is still reported as a resolution failure.
func Classify(err error) (FailureKind, int) {
	if err == nil {
		return "", 0
	}

	errno := errnoOf(err)

	if errors.Is(err, context.Canceled) {
		return KindOther, errno
	}

	var resolveErr *ResolveError
	if errors.As(err, &resolveErr) {
		return KindNameResolution, errno
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindNameResolution, errno
	}

	switch syscall.Errno(errno) {
	case syscall.ECONNREFUSED:
		return KindConnectionRefused, errno
	case syscall.EHOSTUNREACH, syscall.ENETUNREACH, syscall.EHOSTDOWN:
		return KindHostUnreachable, errno
	case syscall.ETIMEDOUT:
		return KindTimeout, errno
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout, errno
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout, errno
	}

	return KindOther, errno
}

// Hint returns the operator-facing remedy for a failure kind, or "".
func Hint(kind FailureKind) string {
	return hints[kind]
}

func errnoOf(err error) int {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return int(errno)
	}
	return 0
}
