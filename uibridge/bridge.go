// Package uibridge lets background goroutines request indicator changes
// without touching UI toolkit objects. The UI goroutine drains pending
// requests on a short fixed interval.
package uibridge

import (
	"context"
	"sync"
	"time"
)

const DefaultInterval = 50 * time.Millisecond

// Ops is the set of requests pending at drain time.
type Ops struct {
	Show     bool
	Hide     bool
	Level    float64
	HasLevel bool
}

func (o Ops) Empty() bool { return !o.Show && !o.Hide && !o.HasLevel }

// Bridge holds at most one pending show or hide and the latest level.
type Bridge struct {
	mu       sync.Mutex
	show     bool
	hide     bool
	level    float64
	hasLevel bool
}

func New() *Bridge {
	return &Bridge{}
}

func (b *Bridge) RequestShow() {
	b.mu.Lock()
	b.show = true
	b.hide = false
	b.mu.Unlock()
}

func (b *Bridge) RequestHide() {
	b.mu.Lock()
	b.hide = true
	b.show = false
	b.mu.Unlock()
}

// RequestLevel replaces any level not yet drained.
func (b *Bridge) RequestLevel(v float64) {
	b.mu.Lock()
	b.level = v
	b.hasLevel = true
	b.mu.Unlock()
}

// Drain returns and clears everything pending. Call it from the UI
// goroutine only.
func (b *Bridge) Drain() Ops {
	b.mu.Lock()
	defer b.mu.Unlock()
	ops := Ops{Show: b.show, Hide: b.hide, Level: b.level, HasLevel: b.hasLevel}
	b.show, b.hide, b.level, b.hasLevel = false, false, 0, false
	return ops
}

// Poll drains every interval until ctx is done, calling apply for each
// non-empty drain. apply is responsible for getting onto the UI goroutine
// if the caller's goroutine is not it.
func (b *Bridge) Poll(ctx context.Context, interval time.Duration, apply func(Ops)) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ops := b.Drain(); !ops.Empty() {
				apply(ops)
			}
		}
	}
}
