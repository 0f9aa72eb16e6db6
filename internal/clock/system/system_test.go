package system

import (
	"testing"
	"time"
)

func TestNowIsUTC(t *testing.T) {
	t.Parallel()

	now := New().Now()
	if now.Location() != time.UTC {
		t.Fatalf("expected UTC, got %v", now.Location())
	}
	if time.Since(now) > time.Minute {
		t.Fatalf("clock is stale: %v", now)
	}
}

func TestNowHasMicrosecondPrecision(t *testing.T) {
	t.Parallel()

	now := New().Now()
	if now.Nanosecond()%1000 != 0 {
		t.Fatalf("expected microsecond precision, got %d ns", now.Nanosecond())
	}
}
