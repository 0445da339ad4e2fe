package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/HendryAvila/phasegate/internal/project"
)

func named(name string) project.Project {
	return project.Project{ID: "p1", Name: name}
}

func TestSaver_ScheduleWritesLatestOnly(t *testing.T) {
	store := newFakeStore()
	s := NewSaver(store, testDebounce, nil)

	s.Schedule(named("one"))
	s.Schedule(named("two"))
	s.Schedule(named("three"))

	waitFor(t, "debounced write", func() bool { return store.putCount() == 1 })
	time.Sleep(2 * testDebounce)
	if store.putCount() != 1 {
		t.Errorf("puts = %d, want 1", store.putCount())
	}
	if got := store.lastPut().Name; got != "three" {
		t.Errorf("written %q, want three", got)
	}
}

func TestSaver_ScheduleRestartsQuietPeriod(t *testing.T) {
	store := newFakeStore()
	s := NewSaver(store, 200*time.Millisecond, nil)

	for i := 0; i < 4; i++ {
		s.Schedule(named("edit"))
		time.Sleep(50 * time.Millisecond)
	}
	if store.putCount() != 0 {
		t.Errorf("write happened while edits kept coming: puts = %d", store.putCount())
	}
	waitFor(t, "write after quiet period", func() bool { return store.putCount() == 1 })
}

func TestSaver_SaveNowDropsPending(t *testing.T) {
	store := newFakeStore()
	s := NewSaver(store, testDebounce, nil)

	s.Schedule(named("draft"))
	if err := s.SaveNow(context.Background(), named("approved")); err != nil {
		t.Fatalf("SaveNow: %v", err)
	}
	if s.Pending() {
		t.Error("SaveNow should clear the pending snapshot")
	}

	time.Sleep(3 * testDebounce)
	if store.putCount() != 1 || store.lastPut().Name != "approved" {
		t.Errorf("puts = %d last = %q, want only approved", store.putCount(), store.lastPut().Name)
	}
}

func TestSaver_StaleWriteSkipped(t *testing.T) {
	store := newFakeStore()
	s := NewSaver(store, time.Hour, nil)
	ctx := context.Background()

	if err := s.write(ctx, &snapshot{p: named("newer"), seq: 2}); err != nil {
		t.Fatal(err)
	}
	if err := s.write(ctx, &snapshot{p: named("older"), seq: 1}); err != nil {
		t.Fatal(err)
	}
	if store.putCount() != 1 || store.lastPut().Name != "newer" {
		t.Errorf("older snapshot overwrote newer one")
	}
}

func TestSaver_Flush(t *testing.T) {
	store := newFakeStore()
	s := NewSaver(store, time.Hour, nil)

	if err := s.Flush(context.Background()); err != nil || store.putCount() != 0 {
		t.Errorf("Flush with nothing pending = (%v, %d puts)", err, store.putCount())
	}

	s.Schedule(named("pending"))
	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if store.putCount() != 1 || s.Pending() {
		t.Errorf("Flush did not write the pending snapshot")
	}
}

func TestSaver_CancelDiscardsEverything(t *testing.T) {
	store := newFakeStore()
	s := NewSaver(store, testDebounce, nil)

	s.Schedule(named("pending"))
	s.Cancel()
	if err := s.SaveNow(context.Background(), named("after")); err != nil {
		t.Fatal(err)
	}
	time.Sleep(3 * testDebounce)
	if store.putCount() != 0 {
		t.Errorf("puts = %d after Cancel, want 0", store.putCount())
	}
}

func TestSaver_DebouncedErrorReported(t *testing.T) {
	store := newFakeStore()
	store.setPutErr(errors.New("busy"))

	var mu sync.Mutex
	var got error
	s := NewSaver(store, testDebounce, func(err error) {
		mu.Lock()
		got = err
		mu.Unlock()
	})
	s.Schedule(named("x"))

	waitFor(t, "error callback", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return got != nil
	})
}

func TestSaver_SaveNowReturnsError(t *testing.T) {
	store := newFakeStore()
	boom := errors.New("full")
	store.setPutErr(boom)
	s := NewSaver(store, testDebounce, nil)

	if err := s.SaveNow(context.Background(), named("x")); !errors.Is(err, boom) {
		t.Errorf("SaveNow err = %v, want %v", err, boom)
	}
}

func TestNewSaver_DefaultDelay(t *testing.T) {
	if s := NewSaver(newFakeStore(), 0, nil); s.delay != DefaultDebounce {
		t.Errorf("delay = %v, want %v", s.delay, DefaultDebounce)
	}
}
