package probe

import (
	"errors"
	"net"
	"strconv"
	"strings"
	"time"
)

type Target struct {
	Host string
	Port int
}

// Address returns host:port, bracketing IPv6 literals.
func (t Target) Address() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

func (t Target) String() string {
	return t.Host + ":" + strconv.Itoa(t.Port)
}

func (t Target) Validate() error {
	if strings.TrimSpace(t.Host) == "" {
		return errors.New("host is required")
	}
	if t.Port < 1 || t.Port > 65535 {
		return errors.New("port must be in [1, 65535]")
	}
	return nil
}

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

type FailureKind string

const (
	KindTimeout           FailureKind = "timeout"
	KindConnectionRefused FailureKind = "connection-refused"
	KindHostUnreachable   FailureKind = "host-unreachable"
	KindNameResolution    FailureKind = "name-resolution-failure"
	KindOther             FailureKind = "other"
)

// Result is the outcome of one probe. Kind, Detail, Errno and Hint are only
// set on failure; Errno is 0 when the platform reported no code.
type Result struct {
	Target     Target
	Time       time.Time
	Outcome    Outcome
	Elapsed    time.Duration
	Kind       FailureKind
	Detail     string
	Errno      int
	Hint       string
	RemoteAddr string
}

func (r Result) OK() bool {
	return r.Outcome == OutcomeSuccess
}

func (r Result) ErrnoString() string {
	if r.Errno == 0 {
		return "N/A"
	}
	return strconv.Itoa(r.Errno)
}

type EchoResult struct {
	Target string
	Time   time.Time
	OK     bool
	RTTMs  float64
	Err    string
}
