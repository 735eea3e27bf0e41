package watcher

import (
	"time"
)

// candidate tracks one path's observed size and how long it has held steady.
type candidate struct {
	size        int64
	steadySince time.Time
	promoted    bool
}

// stabilityGate decides when a file has stopped changing and is safe to hand
// to the pipeline. A path is promoted once its size has stayed constant for
// the full window; any size change restarts the clock. Paths are promoted at
// most once for as long as the gate tracks them.
type stabilityGate struct {
	window     time.Duration
	now        func() time.Time
	candidates map[string]*candidate
}

func newStabilityGate(window time.Duration, now func() time.Time) *stabilityGate {
	if now == nil {
		now = time.Now
	}
	return &stabilityGate{
		window:     window,
		now:        now,
		candidates: make(map[string]*candidate),
	}
}

// Observe records the path's current size and reports whether the path is
// ready for promotion. It returns false for paths already promoted.
func (g *stabilityGate) Observe(path string, size int64) bool {
	now := g.now()
	cand, ok := g.candidates[path]
	if !ok {
		g.candidates[path] = &candidate{size: size, steadySince: now}
		return g.window <= 0
	}
	if cand.size != size {
		cand.size = size
		cand.steadySince = now
		cand.promoted = false
		return g.window <= 0
	}
	if cand.promoted {
		return false
	}
	return now.Sub(cand.steadySince) >= g.window
}

// MarkPromoted records that the path was delivered downstream. Until the file
// changes size again (or vanishes and reappears), Observe will not offer it a
// second time.
func (g *stabilityGate) MarkPromoted(path string) {
	if cand, ok := g.candidates[path]; ok {
		cand.promoted = true
	}
}

// Rearm clears a path's promoted flag so the next scan offers it again.
// Used when a delivered promotion could not be acted on downstream.
func (g *stabilityGate) Rearm(path string) {
	if cand, ok := g.candidates[path]; ok {
		cand.promoted = false
	}
}

// Prune drops tracked paths that the latest scan no longer saw, so a deleted
// file that later reappears is treated as brand new.
func (g *stabilityGate) Prune(seen map[string]struct{}) {
	for path := range g.candidates {
		if _, ok := seen[path]; !ok {
			delete(g.candidates, path)
		}
	}
}

// Tracked returns the number of paths the gate currently follows.
func (g *stabilityGate) Tracked() int {
	return len(g.candidates)
}
