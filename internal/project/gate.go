package project

import (
	"fmt"
	"strings"
)

// --- Phase gate state machine ---
//
// Statuses move locked → draft → reviewed one phase at a time. A phase
// leaves locked only when its predecessor is approved, and reopening a
// reviewed phase pushes every later phase back to draft.
//
// The operations below never fail. When a precondition is not met they
// return the project unchanged with SaveNone, and the caller decides how to
// explain it (see CanApprove).

// SaveIntent tells the persistence layer how to schedule the write that
// follows an operation.
type SaveIntent int

const (
	// SaveNone means the operation was rejected and nothing changed.
	SaveNone SaveIntent = iota
	// SaveDebounced collapses bursts of edits into one write.
	SaveDebounced
	// SaveImmediate writes right away and supersedes pending debounced writes.
	SaveImmediate
)

func (i SaveIntent) String() string {
	switch i {
	case SaveDebounced:
		return "debounced"
	case SaveImmediate:
		return "immediate"
	default:
		return "none"
	}
}

// Changed reports whether the operation produced a new version.
func (i SaveIntent) Changed() bool {
	return i != SaveNone
}

// UpdateSection replaces the content of one section. Reviewed phases and
// unknown sections are left alone. If the phase's evaluation no longer
// matches the new content it is cleared.
func UpdateSection(p Project, phase PhaseType, sectionID, content string) (Project, SaveIntent) {
	idx := phase.Ordinal()
	if idx < 0 {
		return p, SaveNone
	}
	ph := p.Phases[idx]
	if ph.Status == StatusReviewed {
		return p, SaveNone
	}

	pos := -1
	for i, s := range ph.Sections {
		if s.ID == sectionID {
			pos = i
			break
		}
	}
	if pos < 0 {
		return p, SaveNone
	}

	sections := make([]Section, len(ph.Sections))
	copy(sections, ph.Sections)
	sections[pos].Content = content
	ph.Sections = sections

	next := withPhase(p, idx, ph)
	if ev, ok := GetEvaluation(next, phase); ok && ev.ContentHash != HashSections(sections) {
		next = ClearEvaluation(next, phase)
	}
	return next, SaveDebounced
}

// ApprovePhase marks a draft phase reviewed when every section has content
// and the previous phase is reviewed, and unlocks the next phase if it is
// still locked. Nothing changes if any
// precondition fails.
func ApprovePhase(p Project, phase PhaseType) (Project, SaveIntent) {
	if CanApprove(p, phase) != nil {
		return p, SaveNone
	}

	idx := phase.Ordinal()
	ph := p.Phases[idx]
	ph.Status = StatusReviewed
	next := withPhase(p, idx, ph)

	if idx+1 < len(next.Phases) && next.Phases[idx+1].Status == StatusLocked {
		following := next.Phases[idx+1]
		following.Status = StatusDraft
		next = withPhase(next, idx+1, following)
	}
	return next, SaveImmediate
}

// EditReviewedPhase reopens a reviewed phase. Every later phase becomes
// draft whatever its previous status, including locked ones. Section
// content, evaluations and mappings are kept.
func EditReviewedPhase(p Project, phase PhaseType) (Project, SaveIntent) {
	idx := phase.Ordinal()
	if idx < 0 || p.Phases[idx].Status != StatusReviewed {
		return p, SaveNone
	}

	for i := idx; i < len(p.Phases); i++ {
		ph := p.Phases[i]
		ph.Status = StatusDraft
		p = withPhase(p, i, ph)
	}
	return p, SaveImmediate
}

// CanApprove returns nil when ApprovePhase would succeed, otherwise an error
// describing the first unmet precondition. Adapters use it to explain why
// an approval was ignored.
func CanApprove(p Project, phase PhaseType) error {
	ph, ok := p.Phase(phase)
	if !ok {
		return fmt.Errorf("unknown phase %q", phase)
	}
	if ph.Status != StatusDraft {
		return fmt.Errorf("phase %s is %s, only draft phases can be approved", phase, ph.Status)
	}
	if idx := phase.Ordinal(); idx > 0 {
		if prev := p.Phases[idx-1]; prev.Status != StatusReviewed {
			return fmt.Errorf("phase %s cannot be approved until %s is reviewed", phase, prev.Type)
		}
	}

	var empty []string
	for _, s := range ph.Sections {
		if strings.TrimSpace(s.Content) == "" {
			empty = append(empty, s.Title)
		}
	}
	if len(empty) > 0 {
		return fmt.Errorf("phase %s has empty sections: %s", phase, strings.Join(empty, ", "))
	}
	return nil
}
