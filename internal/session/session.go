// Package session keeps the current version of each open project in memory
// and turns the save intent of every gate operation into an actual write.
//
// A Session is the single writer for one project: operations run one at a
// time under its lock, each replacing the held aggregate with the version
// the pure operation returned.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/HendryAvila/phasegate/internal/project"
)

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// ErrUnreadableAnalysis is returned by Reanalyze when no JSON array of
// mappings could be read from the AI output.
var ErrUnreadableAnalysis = errors.New("no mapping array could be read from the analysis")

// Session holds one project and its Saver.
type Session struct {
	mu      sync.Mutex
	current project.Project
	saver   *Saver
}

func newSession(p project.Project, saver *Saver) *Session {
	return &Session{current: p, saver: saver}
}

// Project returns the current version.
func (s *Session) Project() project.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncSavedLocked()
	return s.current
}

// syncSavedLocked carries the UpdatedAt stamped by the store into the held
// version. Stamps only move forward.
func (s *Session) syncSavedLocked() {
	if at := s.saver.SavedAt(); at.After(s.current.UpdatedAt) {
		s.current.UpdatedAt = at
	}
}

// ID returns the project id.
func (s *Session) ID() string {
	return s.Project().ID
}

// apply runs op against the current version and saves the result the way
// op asks for. changed is false when op reported SaveNone; the project is
// then returned as it was. A failed immediate save still keeps the new
// version in memory, so the next save retries it.
func (s *Session) apply(ctx context.Context, op func(project.Project) (project.Project, project.SaveIntent)) (project.Project, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.syncSavedLocked()
	next, intent := op(s.current)
	switch intent {
	case project.SaveDebounced:
		s.current = next
		s.saver.Schedule(next)
	case project.SaveImmediate:
		s.current = next
		err := s.saver.SaveNow(ctx, next)
		s.syncSavedLocked()
		if err != nil {
			return s.current, true, err
		}
	default:
		return s.current, false, nil
	}
	return s.current, true, nil
}

// UpdateSection edits one section. The write is debounced.
func (s *Session) UpdateSection(ctx context.Context, phase project.PhaseType, sectionID, content string) (project.Project, bool, error) {
	return s.apply(ctx, func(p project.Project) (project.Project, project.SaveIntent) {
		return project.UpdateSection(p, phase, sectionID, content)
	})
}

// Approve marks a draft phase as reviewed.
func (s *Session) Approve(ctx context.Context, phase project.PhaseType) (project.Project, bool, error) {
	return s.apply(ctx, func(p project.Project) (project.Project, project.SaveIntent) {
		return project.ApprovePhase(p, phase)
	})
}

// Reopen returns a reviewed phase, and every phase after it, to draft.
func (s *Session) Reopen(ctx context.Context, phase project.PhaseType) (project.Project, bool, error) {
	return s.apply(ctx, func(p project.Project) (project.Project, project.SaveIntent) {
		return project.EditReviewedPhase(p, phase)
	})
}

// Evaluate runs the rule checks for a phase and stores the evaluation.
// deep is an optional AI analysis stored as given.
func (s *Session) Evaluate(ctx context.Context, phase project.PhaseType, deep json.RawMessage) (project.Project, project.PhaseEvaluation, error) {
	var ev project.PhaseEvaluation
	p, _, err := s.apply(ctx, func(p project.Project) (project.Project, project.SaveIntent) {
		if _, ok := p.Phase(phase); !ok {
			return p, project.SaveNone
		}
		var next project.Project
		next, ev = project.EvaluatePhase(p, phase, deep, timeNow())
		return next, project.SaveImmediate
	})
	return p, ev, err
}

// AddMapping appends a traceability mapping.
func (s *Session) AddMapping(ctx context.Context, m project.TraceabilityMapping) (project.Project, error) {
	p, _, err := s.apply(ctx, func(p project.Project) (project.Project, project.SaveIntent) {
		return project.AddMapping(p, m), project.SaveImmediate
	})
	return p, err
}

// RemoveMapping drops a mapping by id. changed is false for unknown ids.
func (s *Session) RemoveMapping(ctx context.Context, mappingID string) (project.Project, bool, error) {
	return s.apply(ctx, func(p project.Project) (project.Project, project.SaveIntent) {
		next := project.RemoveMapping(p, mappingID)
		if len(next.TraceabilityMappings) == len(p.TraceabilityMappings) {
			return p, project.SaveNone
		}
		return next, project.SaveImmediate
	})
}

// Reanalyze replaces the AI mappings with the batch parsed from raw AI
// output and returns the number of mappings applied. An empty array clears
// the AI mappings. Output with no readable array returns
// ErrUnreadableAnalysis and leaves the project untouched.
func (s *Session) Reanalyze(ctx context.Context, raw string) (project.Project, int, bool, error) {
	batch, ok := project.ParseMappingBatch(raw)
	if !ok {
		return s.Project(), 0, false, ErrUnreadableAnalysis
	}
	p, changed, err := s.apply(ctx, func(p project.Project) (project.Project, project.SaveIntent) {
		if len(batch) == 0 && !hasAIMappings(p) {
			return p, project.SaveNone
		}
		return project.ApplyReanalysis(p, batch), project.SaveImmediate
	})
	return p, len(batch), changed, err
}

func hasAIMappings(p project.Project) bool {
	for _, m := range p.TraceabilityMappings {
		if m.Origin == project.OriginAI {
			return true
		}
	}
	return false
}

// Archive hides the project from default listings.
func (s *Session) Archive(ctx context.Context) (project.Project, bool, error) {
	return s.apply(ctx, func(p project.Project) (project.Project, project.SaveIntent) {
		return project.Archive(p, timeNow())
	})
}

// Unarchive restores an archived project.
func (s *Session) Unarchive(ctx context.Context) (project.Project, bool, error) {
	return s.apply(ctx, project.Unarchive)
}

// Flush writes any pending debounced save.
func (s *Session) Flush(ctx context.Context) error {
	return s.saver.Flush(ctx)
}
