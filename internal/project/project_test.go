package project

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

var idCounter int

func init() {
	// Freeze time and ids for deterministic tests.
	timeNow = func() time.Time {
		return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	}
	newID = func() string {
		idCounter++
		return fmt.Sprintf("id-%d", idCounter)
	}
}

// --- Helpers ---

func newTestProject(t *testing.T) Project {
	t.Helper()
	p, err := New("Todo App")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return p
}

// fillPhase writes non-empty content into every section of a phase.
func fillPhase(t *testing.T, p Project, phase PhaseType) Project {
	t.Helper()
	ph, _ := p.Phase(phase)
	for _, s := range ph.Sections {
		var intent SaveIntent
		p, intent = UpdateSection(p, phase, s.ID, "content for "+s.ID)
		if intent != SaveDebounced {
			t.Fatalf("UpdateSection(%s/%s) intent = %s, want debounced", phase, s.ID, intent)
		}
	}
	return p
}

func statusOf(p Project, phase PhaseType) PhaseStatus {
	ph, _ := p.Phase(phase)
	return ph.Status
}

func assertStatuses(t *testing.T, p Project, spec, plan, tasks PhaseStatus) {
	t.Helper()
	want := map[PhaseType]PhaseStatus{PhaseSpec: spec, PhasePlan: plan, PhaseTasks: tasks}
	for _, phase := range PhaseOrder {
		if got := statusOf(p, phase); got != want[phase] {
			t.Errorf("%s status = %s, want %s", phase, got, want[phase])
		}
	}
}

// --- PhaseType ---

func TestPhaseType_Ordinal(t *testing.T) {
	tests := []struct {
		phase PhaseType
		want  int
	}{
		{PhaseSpec, 0},
		{PhasePlan, 1},
		{PhaseTasks, 2},
		{PhaseType("design"), -1},
	}
	for _, tt := range tests {
		t.Run(string(tt.phase), func(t *testing.T) {
			if got := tt.phase.Ordinal(); got != tt.want {
				t.Errorf("Ordinal(%s) = %d, want %d", tt.phase, got, tt.want)
			}
		})
	}
}

func TestParsePhaseType_Invalid(t *testing.T) {
	if _, err := ParsePhaseType("design"); err == nil {
		t.Error("ParsePhaseType(design) should fail")
	}
}

// --- New ---

func TestNew_InitialState(t *testing.T) {
	p := newTestProject(t)

	if p.ID == "" {
		t.Error("ID should be set")
	}
	if p.Name != "Todo App" {
		t.Errorf("Name = %q, want Todo App", p.Name)
	}
	assertStatuses(t, p, StatusDraft, StatusLocked, StatusLocked)
	for _, ph := range p.Phases {
		if len(ph.Sections) == 0 {
			t.Errorf("phase %s has no sections", ph.Type)
		}
		for _, s := range ph.Sections {
			if s.Content != "" {
				t.Errorf("section %s/%s should start empty", ph.Type, s.ID)
			}
		}
	}
	if p.Evaluations != nil {
		t.Error("new project should have no evaluations")
	}
	if len(p.TraceabilityMappings) != 0 {
		t.Error("new project should have no mappings")
	}
	if p.IsArchived() {
		t.Error("new project should not be archived")
	}
}

func TestNew_TrimsName(t *testing.T) {
	p, err := New("   Padded   ")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if p.Name != "Padded" {
		t.Errorf("Name = %q, want Padded", p.Name)
	}
}

func TestNew_RejectsBadNames(t *testing.T) {
	for _, name := range []string{"", "   ", strings.Repeat("x", MaxNameLength+1)} {
		if _, err := New(name); err == nil {
			t.Errorf("New(%q) should fail", name)
		}
	}
}

func TestNew_AcceptsMaxLengthName(t *testing.T) {
	if _, err := New(strings.Repeat("é", MaxNameLength)); err != nil {
		t.Errorf("New(100 runes) failed: %v", err)
	}
}

// --- AssembleContent ---

func TestAssembleContent(t *testing.T) {
	got := AssembleContent([]Section{
		{ID: "a", Title: "First", Content: "one"},
		{ID: "b", Title: "Second", Content: ""},
	})
	want := "## First\none\n\n## Second\n"
	if got != want {
		t.Errorf("AssembleContent = %q, want %q", got, want)
	}
}

func TestAssembleContent_Empty(t *testing.T) {
	if got := AssembleContent(nil); got != "" {
		t.Errorf("AssembleContent(nil) = %q, want empty", got)
	}
}

// --- Archive ---

func TestArchive_Unarchive(t *testing.T) {
	p := newTestProject(t)
	now := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)

	archived, intent := Archive(p, now)
	if intent != SaveImmediate {
		t.Fatalf("Archive intent = %s, want immediate", intent)
	}
	if !archived.IsArchived() || !archived.ArchivedAt.Equal(now) {
		t.Errorf("ArchivedAt = %v, want %v", archived.ArchivedAt, now)
	}
	if p.IsArchived() {
		t.Error("Archive mutated its input")
	}

	if _, intent := Archive(archived, now); intent != SaveNone {
		t.Errorf("re-archive intent = %s, want none", intent)
	}

	restored, intent := Unarchive(archived)
	if intent != SaveImmediate || restored.IsArchived() {
		t.Errorf("Unarchive = (%v, %s), want unarchived/immediate", restored.ArchivedAt, intent)
	}
	if _, intent := Unarchive(restored); intent != SaveNone {
		t.Errorf("Unarchive of active project intent = %s, want none", intent)
	}
}
