package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/HendryAvila/phasegate/internal/project"
)

// ErrProjectNotFound is returned when an operation targets a project that
// does not exist.
var ErrProjectNotFound = errors.New("project not found")

// Store is the persistence boundary the Manager needs.
type Store interface {
	Putter
	Get(ctx context.Context, id string) (*project.Project, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, includeArchived bool) ([]project.Project, error)
}

// Options configures a Manager.
type Options struct {
	// Debounce is the quiet period for section edits. Zero means
	// DefaultDebounce.
	Debounce time.Duration

	// OnSaveError receives failures of debounced writes. Nil logs them.
	OnSaveError func(projectID string, err error)
}

// Manager owns one Session per open project.
type Manager struct {
	store Store
	opts  Options

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager returns a Manager over store.
func NewManager(store Store, opts Options) *Manager {
	if opts.OnSaveError == nil {
		opts.OnSaveError = func(id string, err error) {
			log.Printf("WARNING: saving project %s: %v", id, err)
		}
	}
	return &Manager{store: store, opts: opts, sessions: make(map[string]*Session)}
}

func (m *Manager) newSaver(id string) *Saver {
	return NewSaver(m.store, m.opts.Debounce, func(err error) {
		m.opts.OnSaveError(id, err)
	})
}

// Open returns the session for a project, loading it on first use.
func (m *Manager) Open(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	p, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading project %s: %w", id, err)
	}
	if p == nil {
		return nil, ErrProjectNotFound
	}
	s := newSession(*p, m.newSaver(id))
	m.sessions[id] = s
	return s, nil
}

// Create makes a new project and writes it immediately.
func (m *Manager) Create(ctx context.Context, name string) (*Session, error) {
	p, err := project.New(name)
	if err != nil {
		return nil, err
	}

	s := newSession(p, m.newSaver(p.ID))
	if err := s.saver.SaveNow(ctx, p); err != nil {
		return nil, fmt.Errorf("saving new project: %w", err)
	}

	m.mu.Lock()
	m.sessions[p.ID] = s
	m.mu.Unlock()
	return s, nil
}

// Delete removes a project and drops any save still pending for it. The
// manager lock is held throughout, so a concurrent Open either finds the
// project gone or has its session cancelled here.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, open := m.sessions[id]
	delete(m.sessions, id)
	if open {
		s.saver.Cancel()
	} else {
		p, err := m.store.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("loading project %s: %w", id, err)
		}
		if p == nil {
			return ErrProjectNotFound
		}
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting project %s: %w", id, err)
	}
	return nil
}

// List returns stored projects, most recently updated first. Open sessions
// override the stored copy so edits still waiting for their debounced save
// are visible.
func (m *Manager) List(ctx context.Context, includeArchived bool) ([]project.Project, error) {
	stored, err := m.store.List(ctx, includeArchived)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]project.Project, 0, len(stored))
	for _, p := range stored {
		if s, ok := m.sessions[p.ID]; ok {
			p = s.Project()
			if p.IsArchived() && !includeArchived {
				continue
			}
		}
		out = append(out, p)
	}
	return out, nil
}

// Close flushes every pending save. It returns all flush errors joined.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		if err := s.Flush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flushing project %s: %w", s.ID(), err))
		}
	}
	return errors.Join(errs...)
}
