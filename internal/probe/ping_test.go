package probe

import (
	"context"
	"testing"
	"time"
)

func TestEchoReportsResolveFailure(t *testing.T) {
	res := Echo(context.Background(), "no-such-host.invalid", 100*time.Millisecond)
	if res.OK {
		t.Fatalf("expected failure, got %+v", res)
	}
	if res.Err == "" {
		t.Fatalf("expected error text")
	}
	if res.Time.IsZero() {
		t.Fatalf("expected result time")
	}
}
