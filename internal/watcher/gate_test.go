package watcher

import (
	"testing"
	"time"
)

type fakeClock struct {
	current time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.current
}

func (c *fakeClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}

func newTestGate(window time.Duration) (*stabilityGate, *fakeClock) {
	clock := &fakeClock{current: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	return newStabilityGate(window, clock.Now), clock
}

func TestGatePromotesAfterWindow(t *testing.T) {
	gate, clock := newTestGate(30 * time.Second)

	if gate.Observe("/in/a.md", 100) {
		t.Fatal("new file must not promote immediately")
	}

	clock.Advance(15 * time.Second)
	if gate.Observe("/in/a.md", 100) {
		t.Fatal("file must not promote before the window elapses")
	}

	clock.Advance(15 * time.Second)
	if !gate.Observe("/in/a.md", 100) {
		t.Fatal("file should promote once the window elapses")
	}
}

func TestGateGrowthResetsWindow(t *testing.T) {
	gate, clock := newTestGate(30 * time.Second)

	gate.Observe("/in/a.md", 100)

	clock.Advance(25 * time.Second)
	if gate.Observe("/in/a.md", 250) {
		t.Fatal("growing file must not promote")
	}

	clock.Advance(29 * time.Second)
	if gate.Observe("/in/a.md", 250) {
		t.Fatal("window restarts from the last size change")
	}

	clock.Advance(time.Second)
	if !gate.Observe("/in/a.md", 250) {
		t.Fatal("file should promote once steady for the full window again")
	}
}

func TestGatePromotesAtMostOnce(t *testing.T) {
	gate, clock := newTestGate(30 * time.Second)

	gate.Observe("/in/a.md", 100)
	clock.Advance(30 * time.Second)
	if !gate.Observe("/in/a.md", 100) {
		t.Fatal("expected promotion")
	}
	gate.MarkPromoted("/in/a.md")

	clock.Advance(time.Hour)
	if gate.Observe("/in/a.md", 100) {
		t.Fatal("promoted file must not be offered again")
	}
}

func TestGateReoffersUntilMarked(t *testing.T) {
	gate, clock := newTestGate(30 * time.Second)

	gate.Observe("/in/a.md", 100)
	clock.Advance(30 * time.Second)

	// Delivery failed downstream, so the caller never marked the path.
	if !gate.Observe("/in/a.md", 100) {
		t.Fatal("expected promotion offer")
	}
	if !gate.Observe("/in/a.md", 100) {
		t.Fatal("unmarked path should be offered on every scan")
	}
}

func TestGateChangeAfterPromotionRearms(t *testing.T) {
	gate, clock := newTestGate(30 * time.Second)

	gate.Observe("/in/a.md", 100)
	clock.Advance(30 * time.Second)
	gate.Observe("/in/a.md", 100)
	gate.MarkPromoted("/in/a.md")

	// The file was rewritten in place after promotion.
	clock.Advance(time.Minute)
	if gate.Observe("/in/a.md", 300) {
		t.Fatal("resized file restarts the window")
	}
	clock.Advance(30 * time.Second)
	if !gate.Observe("/in/a.md", 300) {
		t.Fatal("rewritten file should promote again once steady")
	}
}

func TestGateRearmReoffersPromotedPath(t *testing.T) {
	gate, clock := newTestGate(30 * time.Second)

	gate.Observe("/in/a.md", 100)
	clock.Advance(30 * time.Second)
	if !gate.Observe("/in/a.md", 100) {
		t.Fatal("file should promote once the window elapses")
	}
	gate.MarkPromoted("/in/a.md")

	if gate.Observe("/in/a.md", 100) {
		t.Fatal("marked path must not promote again on its own")
	}

	// Downstream could not act on the promotion; the next scan offers the
	// path again without waiting for another size change.
	gate.Rearm("/in/a.md")
	if !gate.Observe("/in/a.md", 100) {
		t.Fatal("rearmed path should promote on the next observation")
	}
}

func TestGatePruneForgetsVanishedPaths(t *testing.T) {
	gate, clock := newTestGate(30 * time.Second)

	gate.Observe("/in/a.md", 100)
	gate.Observe("/in/b.md", 200)
	if gate.Tracked() != 2 {
		t.Fatalf("expected 2 tracked paths, got %d", gate.Tracked())
	}

	gate.Prune(map[string]struct{}{"/in/b.md": {}})
	if gate.Tracked() != 1 {
		t.Fatalf("expected 1 tracked path after prune, got %d", gate.Tracked())
	}

	// The vanished path reappearing is treated as brand new.
	clock.Advance(time.Hour)
	if gate.Observe("/in/a.md", 100) {
		t.Fatal("reappearing path must wait out the window again")
	}
}

func TestGateZeroWindowPromotesImmediately(t *testing.T) {
	gate, _ := newTestGate(0)

	if !gate.Observe("/in/a.md", 100) {
		t.Fatal("zero window should promote on first sight")
	}
}
