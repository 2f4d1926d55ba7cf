package poolsup

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/cametumbling/crawler-shard/internal/crawlerr"
)

// adminRoute is the default op: hand the envelope payload to whichever
// worker goroutine picks it up next from the shared routeCh.
func adminRoute(ctx context.Context, s *Supervisor, data []byte) error {
	select {
	case s.routeCh <- data:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// adminTogglePause flips the pause state of every live worker. Per spec
// §4.1, pause is pool-wide, not per worker: a worker mid-OnMessage finishes
// that message before the gate takes effect on its next iteration.
func adminTogglePause(ctx context.Context, s *Supervisor, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.handles {
		h.gate.Toggle()
	}
	return nil
}

type setCountPayload struct {
	Count int `json:"count"`
}

// adminSetCount resizes the pool to a new target count. Growing spins up
// new workers immediately; shrinking lowers the target and cancels the
// highest-numbered excess slots under the same lock. Cancelled workers
// leave s.handles only as they reap themselves (see killNLocked), so until
// then the active count can exceed the new, smaller target.
func adminSetCount(ctx context.Context, s *Supervisor, data []byte) error {
	var p setCountPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return crawlerr.Wrap(crawlerr.CodeParseError, "malformed SET_COUNT payload", err)
	}
	if p.Count < 0 {
		return crawlerr.New(crawlerr.CodeAllocationValueError, "negative worker count")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.configuredCount = p.Count

	if excess := len(s.handles) - s.configuredCount; excess > 0 {
		killNLocked(s, excess)
	}
	for len(s.handles) < s.configuredCount {
		s.spinUpLocked(ctx)
	}
	return nil
}

type killOffPayload struct {
	Count int `json:"count"`
}

// adminKillOff cancels `count` workers without changing the configured
// target, so Run's next SET_COUNT (or a future SPIN_UP) can refill them.
func adminKillOff(ctx context.Context, s *Supervisor, data []byte) error {
	var p killOffPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return crawlerr.Wrap(crawlerr.CodeParseError, "malformed KILL_OFF payload", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	killNLocked(s, p.Count)
	return nil
}

// adminSpinUp starts one additional worker above the configured count,
// bumping the target to match so the invariant active <= configured holds.
func adminSpinUp(ctx context.Context, s *Supervisor, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.configuredCount++
	s.spinUpLocked(ctx)
	return nil
}

// adminDie cancels every worker, marks the pool dead, and refuses any
// further Publish call. It is terminal: Run returns once this completes.
func adminDie(ctx context.Context, s *Supervisor, data []byte) error {
	s.mu.Lock()
	s.dead = true
	s.mu.Unlock()
	return nil
}

// killNLocked cancels the n numerically-highest live slots in one pass.
// Caller must hold s.mu. Cancelled workers reap themselves asynchronously
// (reap acquires s.mu itself), so len(s.handles) does not shrink until
// after this function's caller releases the lock — callers must therefore
// pick all victims up front rather than re-checking len(s.handles) in a
// loop around a single cancel.
func killNLocked(s *Supervisor, n int) {
	if n <= 0 {
		return
	}

	slots := make([]int, 0, len(s.handles))
	for slot := range s.handles {
		slots = append(slots, slot)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(slots)))

	if n > len(slots) {
		n = len(slots)
	}
	for _, slot := range slots[:n] {
		s.handles[slot].cancel()
	}
}
