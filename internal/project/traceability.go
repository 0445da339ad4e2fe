package project

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"
)

// RequirementRef is a requirement found in the spec phase.
type RequirementRef struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Coverage counts requirements with at least one mapping of a target type.
type Coverage struct {
	Covered int `json:"covered"`
	Total   int `json:"total"`
}

// CoverageStats holds coverage for both target types.
type CoverageStats struct {
	PlanCoverage Coverage `json:"plan_coverage"`
	TaskCoverage Coverage `json:"task_coverage"`
}

// AddMapping appends a mapping. Duplicates are not checked.
func AddMapping(p Project, m TraceabilityMapping) Project {
	next := make([]TraceabilityMapping, len(p.TraceabilityMappings), len(p.TraceabilityMappings)+1)
	copy(next, p.TraceabilityMappings)
	p.TraceabilityMappings = append(next, m)
	return p
}

// RemoveMapping drops the first mapping with the given id. Unknown ids leave
// the project unchanged.
func RemoveMapping(p Project, mappingID string) Project {
	for i, m := range p.TraceabilityMappings {
		if m.ID != mappingID {
			continue
		}
		next := make([]TraceabilityMapping, 0, len(p.TraceabilityMappings)-1)
		next = append(next, p.TraceabilityMappings[:i]...)
		next = append(next, p.TraceabilityMappings[i+1:]...)
		p.TraceabilityMappings = next
		return p
	}
	return p
}

// ClearAIMappings removes every AI-origin mapping. Manual mappings keep their
// relative order.
func ClearAIMappings(p Project) Project {
	next := make([]TraceabilityMapping, 0, len(p.TraceabilityMappings))
	for _, m := range p.TraceabilityMappings {
		if m.Origin != OriginAI {
			next = append(next, m)
		}
	}
	p.TraceabilityMappings = next
	return p
}

// ApplyReanalysis replaces the AI mappings with a fresh batch: it clears
// first, then appends, so manual mappings are never touched. Every batch
// entry is tagged as AI origin.
func ApplyReanalysis(p Project, batch []TraceabilityMapping) Project {
	p = ClearAIMappings(p)
	for _, m := range batch {
		m.Origin = OriginAI
		p = AddMapping(p, m)
	}
	return p
}

// NewManualMapping builds a user-created mapping with a fresh id.
func NewManualMapping(requirementID, requirementLabel, targetType, targetID, targetLabel string) (TraceabilityMapping, error) {
	tt, err := ParseTargetType(targetType)
	if err != nil {
		return TraceabilityMapping{}, err
	}
	return TraceabilityMapping{
		ID:               newID(),
		RequirementID:    strings.TrimSpace(requirementID),
		RequirementLabel: strings.TrimSpace(requirementLabel),
		TargetType:       tt,
		TargetID:         strings.TrimSpace(targetID),
		TargetLabel:      strings.TrimSpace(targetLabel),
		Origin:           OriginManual,
		CreatedAt:        timeNow().UTC(),
	}, nil
}

// --- Requirement extraction ---

var (
	// "## Req 1: Login" / "### Requirement 2: Export"
	reqHeading = regexp.MustCompile(`^#{2,3}[ \t]+Req(?:uirement)?[ \t]*(\d+)[ \t]*:?[ \t]*(.*)$`)

	// "**FR-001**: Users can log in" / "- **NFR-2** Pages load fast"
	reqMarker = regexp.MustCompile(`^\s*(?:[-*]\s+)?\*\*((?:FR|NFR|REQ)-\d+)\*\*:?\s*(.*)$`)
)

// ParseRequirementIDs extracts requirements from the spec phase in document
// order. Both heading style ("## Req 1: ...") and bold marker style
// ("**FR-001**: ...") are recognized; repeated ids are reported once.
func ParseRequirementIDs(p Project) []RequirementRef {
	spec, _ := p.Phase(PhaseSpec)
	content := AssembleContent(spec.Sections)

	seen := make(map[string]bool)
	var refs []RequirementRef
	for _, line := range strings.Split(content, "\n") {
		var id, label string
		if m := reqHeading.FindStringSubmatch(line); m != nil {
			id, label = "Req "+m[1], m[2]
		} else if m := reqMarker.FindStringSubmatch(line); m != nil {
			id, label = m[1], m[2]
		} else {
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		refs = append(refs, RequirementRef{ID: id, Label: strings.TrimSpace(label)})
	}
	return refs
}

// GetCoverageStats counts, per target type, the distinct parsed requirements
// that have at least one mapping. Mappings to ids not found in the spec do
// not count.
func GetCoverageStats(p Project) CoverageStats {
	reqs := ParseRequirementIDs(p)
	known := make(map[string]bool, len(reqs))
	for _, r := range reqs {
		known[r.ID] = true
	}

	covered := map[TargetType]map[string]bool{
		TargetPlan: {},
		TargetTask: {},
	}
	for _, m := range p.TraceabilityMappings {
		set, ok := covered[m.TargetType]
		if !ok || !known[m.RequirementID] {
			continue
		}
		set[m.RequirementID] = true
	}

	total := len(reqs)
	return CoverageStats{
		PlanCoverage: Coverage{Covered: len(covered[TargetPlan]), Total: total},
		TaskCoverage: Coverage{Covered: len(covered[TargetTask]), Total: total},
	}
}

// --- AI batch parsing ---

// batchEntry is the shape an AI reanalysis response is expected to use.
// Both snake_case and camelCase keys are accepted.
type batchEntry struct {
	RequirementID    string `json:"requirement_id"`
	RequirementIDAlt string `json:"requirementId"`
	RequirementLabel string `json:"requirement_label"`
	ReqLabelAlt      string `json:"requirementLabel"`
	TargetType       string `json:"target_type"`
	TargetTypeAlt    string `json:"targetType"`
	TargetID         string `json:"target_id"`
	TargetIDAlt      string `json:"targetId"`
	TargetLabel      string `json:"target_label"`
	TargetLabelAlt   string `json:"targetLabel"`
}

// ParseMappingBatch reads AI output holding a JSON array of mappings,
// optionally wrapped in prose or a markdown code fence. ok is false when
// no JSON array could be decoded; a decoded array that is empty, or whose
// entries were all dropped, returns an empty batch with ok true. Entries
// without a requirement or target id, or with an unknown target type, are
// dropped.
func ParseMappingBatch(raw string) (batch []TraceabilityMapping, ok bool) {
	raw = fencedBody(raw)
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return nil, false
	}

	var entries []batchEntry
	if err := json.Unmarshal([]byte(raw[start:end+1]), &entries); err != nil {
		return nil, false
	}

	now := timeNow().UTC()
	for _, e := range entries {
		if m, valid := e.mapping(now); valid {
			batch = append(batch, m)
		}
	}
	return batch, true
}

// fencedBody returns the body of the first markdown code fence in raw, or
// raw itself when there is none.
func fencedBody(raw string) string {
	open := strings.Index(raw, "```")
	if open < 0 {
		return raw
	}
	rest := raw[open+3:]
	nl := strings.Index(rest, "\n")
	if nl < 0 {
		return raw
	}
	rest = rest[nl+1:]
	if end := strings.Index(rest, "```"); end >= 0 {
		return rest[:end]
	}
	return rest
}

func (e batchEntry) mapping(now time.Time) (TraceabilityMapping, bool) {
	reqID := strings.TrimSpace(firstNonEmpty(e.RequirementID, e.RequirementIDAlt))
	targetID := strings.TrimSpace(firstNonEmpty(e.TargetID, e.TargetIDAlt))
	tt, err := ParseTargetType(strings.ToLower(strings.TrimSpace(firstNonEmpty(e.TargetType, e.TargetTypeAlt))))
	if reqID == "" || targetID == "" || err != nil {
		return TraceabilityMapping{}, false
	}
	return TraceabilityMapping{
		ID:               newID(),
		RequirementID:    reqID,
		RequirementLabel: strings.TrimSpace(firstNonEmpty(e.RequirementLabel, e.ReqLabelAlt)),
		TargetType:       tt,
		TargetID:         targetID,
		TargetLabel:      strings.TrimSpace(firstNonEmpty(e.TargetLabel, e.TargetLabelAlt)),
		Origin:           OriginAI,
		CreatedAt:        now,
	}, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
