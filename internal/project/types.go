// Package project holds the project aggregate and the pure operations that
// govern it: the phase gate, the evaluation store and the traceability
// mapper.
//
// Every operation takes a Project by value and returns the next version.
// Inputs are never mutated; slices and maps are copied before they change,
// so the previous version stays valid for callers that still hold it.
// Persistence and timers live elsewhere (see the session and storage
// packages). Gate operations report what kind of save they need through a
// SaveIntent instead of scheduling it themselves.
package project

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/HendryAvila/phasegate/internal/rules"
)

// --- Phase type enum ---

// PhaseType names one of the three fixed phase slots.
type PhaseType string

const (
	PhaseSpec  PhaseType = "spec"
	PhasePlan  PhaseType = "plan"
	PhaseTasks PhaseType = "tasks"
)

// PhaseOrder is the only valid progression order.
var PhaseOrder = []PhaseType{PhaseSpec, PhasePlan, PhaseTasks}

const phaseCount = 3

// Ordinal returns the position of the phase in PhaseOrder, or -1 if the
// phase is not recognized.
func (t PhaseType) Ordinal() int {
	for i, p := range PhaseOrder {
		if p == t {
			return i
		}
	}
	return -1
}

// ParsePhaseType validates a phase name.
func ParsePhaseType(s string) (PhaseType, error) {
	t := PhaseType(s)
	if t.Ordinal() < 0 {
		return "", fmt.Errorf("invalid phase %q: must be one of: spec, plan, tasks", s)
	}
	return t, nil
}

// --- Phase status enum ---

// PhaseStatus is the gate state of a phase.
type PhaseStatus string

const (
	StatusLocked   PhaseStatus = "locked"
	StatusDraft    PhaseStatus = "draft"
	StatusReviewed PhaseStatus = "reviewed"
)

// --- Target type / origin enums ---

// TargetType is the kind of section a traceability mapping points at.
type TargetType string

const (
	TargetPlan TargetType = "plan"
	TargetTask TargetType = "task"
)

// ParseTargetType validates a mapping target type.
func ParseTargetType(s string) (TargetType, error) {
	switch TargetType(s) {
	case TargetPlan, TargetTask:
		return TargetType(s), nil
	}
	return "", fmt.Errorf("invalid target type %q: must be one of: plan, task", s)
}

// Origin tells AI-generated mappings apart from user-created ones.
type Origin string

const (
	OriginAI     Origin = "ai"
	OriginManual Origin = "manual"
)

// --- Core data structures ---

// Section is one fixed slot of phase content. Only Content changes at runtime.
type Section struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Phase is one of the three slots of a project.
type Phase struct {
	Type     PhaseType   `json:"type"`
	Status   PhaseStatus `json:"status"`
	Sections []Section   `json:"sections"`
}

// PhaseEvaluation is a stored rule run. It is valid only while ContentHash
// equals the current hash of the phase's sections.
type PhaseEvaluation struct {
	ContentHash  string          `json:"content_hash"`
	RuleResults  []rules.Result  `json:"rule_results"`
	DeepAnalysis json.RawMessage `json:"deep_analysis,omitempty"`
	EvaluatedAt  time.Time       `json:"evaluated_at"`
}

// TraceabilityMapping links a requirement to a plan or task section.
// Identity is the ID; the same requirement/target pair may appear twice.
type TraceabilityMapping struct {
	ID               string     `json:"id"`
	RequirementID    string     `json:"requirement_id"`
	RequirementLabel string     `json:"requirement_label"`
	TargetType       TargetType `json:"target_type"`
	TargetID         string     `json:"target_id"`
	TargetLabel      string     `json:"target_label"`
	Origin           Origin     `json:"origin"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Project is the root aggregate, persisted as one record.
//
// Evaluations is nil when nothing has been evaluated; a missing key means
// that phase was never evaluated. Use GetEvaluation rather than indexing.
type Project struct {
	ID                   string                        `json:"id"`
	Name                 string                        `json:"name"`
	CreatedAt            time.Time                     `json:"created_at"`
	UpdatedAt            time.Time                     `json:"updated_at"`
	Phases               [phaseCount]Phase             `json:"phases"`
	TraceabilityMappings []TraceabilityMapping         `json:"traceability_mappings"`
	Evaluations          map[PhaseType]PhaseEvaluation `json:"evaluations,omitempty"`
	ArchivedAt           *time.Time                    `json:"archived_at,omitempty"`
}

// Phase returns the phase slot for t. The second value is false when t is
// not a known phase.
func (p Project) Phase(t PhaseType) (Phase, bool) {
	idx := t.Ordinal()
	if idx < 0 {
		return Phase{}, false
	}
	return p.Phases[idx], true
}

// IsArchived reports whether the project has been archived.
func (p Project) IsArchived() bool {
	return p.ArchivedAt != nil
}
