package bot

import (
	"context"
	"sync"
	"time"
)

// tracker keeps the set of in-flight invocations so shutdown can wait a
// bounded time for them and name the ones it abandons.
type tracker struct {
	mu     sync.Mutex
	active map[string]time.Time
}

func newTracker() *tracker {
	return &tracker{active: make(map[string]time.Time)}
}

// add records an invocation; the returned func removes it when it finishes.
func (t *tracker) add(id string) func() {
	t.mu.Lock()
	t.active[id] = time.Now()
	t.mu.Unlock()
	return func() {
		t.mu.Lock()
		delete(t.active, id)
		t.mu.Unlock()
	}
}

func (t *tracker) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.active)
}

// list returns the ids of invocations still running.
func (t *tracker) list() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]string, 0, len(t.active))
	for id := range t.active {
		ids = append(ids, id)
	}
	return ids
}

// wait blocks until no invocations are in flight or ctx expires.
func (t *tracker) wait(ctx context.Context) error {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		if t.count() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
