package resilience

import (
	"testing"
	"time"
)

func TestGate_DropsTriggersWhileRunningAndWithinInterval(t *testing.T) {
	g := NewGate(5 * time.Second)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }

	if !g.TryEnter() {
		t.Fatalf("expected first trigger to be admitted")
	}
	if g.TryEnter() {
		t.Fatalf("expected re-entry to be dropped while running")
	}
	g.Leave()

	now = now.Add(2 * time.Second)
	if g.Run(func() {}) {
		t.Fatalf("expected trigger inside debounce window to be dropped")
	}

	now = now.Add(4 * time.Second)
	ran := false
	if !g.Run(func() { ran = true }) || !ran {
		t.Fatalf("expected trigger after interval to run")
	}
}
