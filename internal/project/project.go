package project

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxNameLength is the longest project name accepted by New.
const MaxNameLength = 100

// sectionTemplates defines the fixed sections of each phase, in display
// order. Sections are never added or removed at runtime.
var sectionTemplates = map[PhaseType][]Section{
	PhaseSpec: {
		{ID: "overview", Title: "Overview"},
		{ID: "requirements", Title: "Requirements"},
		{ID: "acceptance", Title: "Acceptance Criteria"},
	},
	PhasePlan: {
		{ID: "architecture", Title: "Architecture"},
		{ID: "api-contracts", Title: "API Contracts"},
		{ID: "data-model", Title: "Data Model"},
		{ID: "tech-decisions", Title: "Tech Decisions"},
		{ID: "security", Title: "Security & Edge Cases"},
	},
	PhaseTasks: {
		{ID: "breakdown", Title: "Task Breakdown"},
		{ID: "testing", Title: "Testing Strategy"},
	},
}

// SectionTemplate returns a copy of the empty sections for a phase.
func SectionTemplate(t PhaseType) []Section {
	tmpl := sectionTemplates[t]
	out := make([]Section, len(tmpl))
	copy(out, tmpl)
	return out
}

// New creates a project with the first phase in draft and the rest locked.
// The name is trimmed and must be between 1 and MaxNameLength characters.
func New(name string) (Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Project{}, fmt.Errorf("project name is required")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return Project{}, fmt.Errorf("project name must be at most %d characters", MaxNameLength)
	}

	now := timeNow().UTC()
	p := Project{
		ID:        newID(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i, t := range PhaseOrder {
		status := StatusLocked
		if i == 0 {
			status = StatusDraft
		}
		p.Phases[i] = Phase{Type: t, Status: status, Sections: SectionTemplate(t)}
	}
	return p, nil
}

// AssembleContent renders sections as "## {title}\n{content}" blocks joined
// by a blank line. Rule evaluation and requirement parsing both read this
// form.
func AssembleContent(sections []Section) string {
	blocks := make([]string, len(sections))
	for i, s := range sections {
		blocks[i] = "## " + s.Title + "\n" + s.Content
	}
	return strings.Join(blocks, "\n\n")
}

// Archive marks the project archived. Archiving an archived project is a
// no-op.
func Archive(p Project, now time.Time) (Project, SaveIntent) {
	if p.IsArchived() {
		return p, SaveNone
	}
	at := now.UTC()
	p.ArchivedAt = &at
	return p, SaveImmediate
}

// Unarchive clears the archived mark.
func Unarchive(p Project) (Project, SaveIntent) {
	if !p.IsArchived() {
		return p, SaveNone
	}
	p.ArchivedAt = nil
	return p, SaveImmediate
}

func uuidString() string {
	return uuid.NewString()
}

// withPhase returns a copy of p whose phase at idx is replaced. Only the
// phase array is copied; section slices of other phases are shared.
func withPhase(p Project, idx int, ph Phase) Project {
	p.Phases[idx] = ph
	return p
}
