package session

import (
	"context"
	"sync"
	"time"

	"github.com/HendryAvila/phasegate/internal/project"
)

// DefaultDebounce is the quiet period before a scheduled save is written.
const DefaultDebounce = time.Second

// Putter writes a project snapshot to the persistence boundary.
type Putter interface {
	Put(ctx context.Context, p *project.Project) error
}

type snapshot struct {
	p   project.Project
	seq uint64
}

// Saver writes project snapshots in the two modes the gate asks for.
// Schedule coalesces edits: every call restarts the quiet period and only
// the latest snapshot is written. SaveNow writes synchronously and drops any
// pending snapshot.
//
// Each snapshot gets a sequence number when it is handed in. A write whose
// sequence is not newer than the last attempted write is skipped, so a
// debounced write already in flight can never land on top of a later
// immediate one.
type Saver struct {
	put     Putter
	delay   time.Duration
	onError func(error)

	mu      sync.Mutex
	timer   *time.Timer
	pending *snapshot
	seq     uint64
	savedAt time.Time

	writeMu   sync.Mutex
	attempted uint64
	stopped   bool
}

// NewSaver returns a Saver writing through put. A non-positive delay uses
// DefaultDebounce. onError receives failures of debounced writes, which have
// no caller to return them to; it may be nil.
func NewSaver(put Putter, delay time.Duration, onError func(error)) *Saver {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Saver{put: put, delay: delay, onError: onError}
}

// Schedule queues p for a debounced write.
func (s *Saver) Schedule(p project.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	s.pending = &snapshot{p: p, seq: s.seq}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, s.fire)
}

// SaveNow cancels any pending debounced write and writes p immediately.
func (s *Saver) SaveNow(ctx context.Context, p project.Project) error {
	s.mu.Lock()
	s.seq++
	snap := &snapshot{p: p, seq: s.seq}
	s.stopTimerLocked()
	s.mu.Unlock()

	return s.write(ctx, snap)
}

// Flush writes the pending snapshot, if any, without waiting for the timer.
func (s *Saver) Flush(ctx context.Context) error {
	s.mu.Lock()
	snap := s.pending
	s.stopTimerLocked()
	s.mu.Unlock()

	if snap == nil {
		return nil
	}
	return s.write(ctx, snap)
}

// Cancel drops the pending snapshot and stops the Saver for good: later
// writes, including one already in flight, are discarded. Used when the
// project is deleted.
func (s *Saver) Cancel() {
	s.mu.Lock()
	s.stopTimerLocked()
	s.mu.Unlock()

	s.writeMu.Lock()
	s.stopped = true
	s.writeMu.Unlock()
}

// SavedAt returns the UpdatedAt stamped by the last successful write, or the
// zero time before the first one.
func (s *Saver) SavedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.savedAt
}

// Pending reports whether a debounced write is waiting.
func (s *Saver) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

func (s *Saver) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = nil
}

func (s *Saver) fire() {
	s.mu.Lock()
	snap := s.pending
	s.pending = nil
	s.timer = nil
	s.mu.Unlock()

	if snap == nil {
		return
	}
	if err := s.write(context.Background(), snap); err != nil && s.onError != nil {
		s.onError(err)
	}
}

func (s *Saver) write(ctx context.Context, snap *snapshot) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.stopped || snap.seq <= s.attempted {
		return nil
	}
	s.attempted = snap.seq
	p := snap.p
	if err := s.put.Put(ctx, &p); err != nil {
		return err
	}

	s.mu.Lock()
	if p.UpdatedAt.After(s.savedAt) {
		s.savedAt = p.UpdatedAt
	}
	s.mu.Unlock()
	return nil
}
