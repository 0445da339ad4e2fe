package project

import (
	"encoding/json"
	"time"

	"github.com/HendryAvila/phasegate/internal/rules"
)

// SetEvaluation stores the evaluation for one phase, replacing any previous
// one. Other phases keep their evaluations.
func SetEvaluation(p Project, phase PhaseType, ev PhaseEvaluation) Project {
	next := make(map[PhaseType]PhaseEvaluation, len(p.Evaluations)+1)
	for k, v := range p.Evaluations {
		next[k] = v
	}
	next[phase] = ev
	p.Evaluations = next
	return p
}

// GetEvaluation returns the stored evaluation for a phase. The second value
// is false when the phase has never been evaluated (or its evaluation was
// cleared), which is distinct from an evaluation with no results.
func GetEvaluation(p Project, phase PhaseType) (PhaseEvaluation, bool) {
	ev, ok := p.Evaluations[phase]
	return ev, ok
}

// ClearEvaluation removes the evaluation for a phase. When nothing is left
// the evaluations map becomes nil rather than empty.
func ClearEvaluation(p Project, phase PhaseType) Project {
	if _, ok := p.Evaluations[phase]; !ok {
		return p
	}
	if len(p.Evaluations) == 1 {
		p.Evaluations = nil
		return p
	}
	next := make(map[PhaseType]PhaseEvaluation, len(p.Evaluations)-1)
	for k, v := range p.Evaluations {
		if k != phase {
			next[k] = v
		}
	}
	p.Evaluations = next
	return p
}

// HasEvaluations reports whether any phase has a stored evaluation.
func HasEvaluations(p Project) bool {
	return len(p.Evaluations) > 0
}

// IsEvaluationFresh reports whether the phase has an evaluation that still
// matches its current content.
func IsEvaluationFresh(p Project, phase PhaseType) bool {
	ev, ok := GetEvaluation(p, phase)
	if !ok {
		return false
	}
	ph, ok := p.Phase(phase)
	return ok && ev.ContentHash == HashSections(ph.Sections)
}

// EvaluatePhase runs the rule checks for a phase against its assembled
// content and stores the result together with the content hash. deep is an
// optional AI analysis kept verbatim. Unknown phases return p unchanged.
func EvaluatePhase(p Project, phase PhaseType, deep json.RawMessage, now time.Time) (Project, PhaseEvaluation) {
	ph, ok := p.Phase(phase)
	evaluate := rules.ForPhase(string(phase))
	if !ok || evaluate == nil {
		return p, PhaseEvaluation{}
	}

	ev := PhaseEvaluation{
		ContentHash:  HashSections(ph.Sections),
		RuleResults:  evaluate(AssembleContent(ph.Sections)),
		DeepAnalysis: deep,
		EvaluatedAt:  now.UTC(),
	}
	return SetEvaluation(p, phase, ev), ev
}

// HealthScore is the percentage of passed checks across all evaluated
// phases. The second value is false when the project has no evaluations.
func HealthScore(p Project) (int, bool) {
	if !HasEvaluations(p) {
		return 0, false
	}
	passed, total := 0, 0
	for _, ev := range p.Evaluations {
		ps, ts := rules.Summary(ev.RuleResults)
		passed += ps
		total += ts
	}
	if total == 0 {
		return 0, true
	}
	return passed * 100 / total, true
}
