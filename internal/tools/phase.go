package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/HendryAvila/phasegate/internal/project"
	"github.com/HendryAvila/phasegate/internal/rules"
	"github.com/HendryAvila/phasegate/internal/session"
	"github.com/mark3labs/mcp-go/mcp"
)

// ─── SectionUpdateTool ───────────────────────────────────────────────────────

// SectionUpdateTool handles the section_update MCP tool.
type SectionUpdateTool struct {
	manager *session.Manager
}

// NewSectionUpdateTool creates a SectionUpdateTool.
func NewSectionUpdateTool(m *session.Manager) *SectionUpdateTool {
	return &SectionUpdateTool{manager: m}
}

// Definition returns the MCP tool definition for section_update.
func (t *SectionUpdateTool) Definition() mcp.Tool {
	return mcp.NewTool("section_update",
		mcp.WithDescription(
			"Replace the content of one section of a phase. Reviewed phases cannot be edited; "+
				"reopen them with `phase_reopen` first. Changing the content discards the phase's "+
				"stored evaluation. Edits are saved after a short quiet period.",
		),
		withProjectID(),
		withPhase("Phase that owns the section"),
		mcp.WithString("section_id",
			mcp.Required(),
			mcp.Description("Section ID, e.g. 'overview', 'requirements', 'architecture', 'breakdown'"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("New markdown content. Replaces the whole section; an empty string clears it."),
		),
	)
}

// Handle processes the section_update tool call.
func (t *SectionUpdateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	phase, res := phaseArg(req)
	if res != nil {
		return res, nil
	}
	sectionID := strings.TrimSpace(req.GetString("section_id", ""))
	content := req.GetString("content", "")

	s, res, err := openSession(ctx, t.manager, req)
	if s == nil {
		return res, err
	}

	p, changed, err := s.UpdateSection(ctx, phase, sectionID, content)
	if err != nil {
		return errorResult(err)
	}
	if !changed {
		return mcp.NewToolResultError(sectionRejection(p, phase, sectionID)), nil
	}

	ph, _ := p.Phase(phase)
	response := fmt.Sprintf(
		"Updated `%s/%s` (%d characters). %d/%d sections of %s filled.\n\n**Next:** %s",
		phase, sectionID, len(content), filledSections(ph), len(ph.Sections), phase, nextStep(p),
	)
	return mcp.NewToolResultText(response), nil
}

// sectionRejection explains why UpdateSection did nothing.
func sectionRejection(p project.Project, phase project.PhaseType, sectionID string) string {
	ph, _ := p.Phase(phase)
	if ph.Status == project.StatusReviewed {
		return fmt.Sprintf("Phase %s is reviewed and cannot be edited. Reopen it with `phase_reopen` first.", phase)
	}
	ids := make([]string, len(ph.Sections))
	for i, sec := range ph.Sections {
		ids[i] = sec.ID
	}
	return fmt.Sprintf("Unknown section %q for phase %s. Valid sections: %s", sectionID, phase, strings.Join(ids, ", "))
}

// ─── ApproveTool ─────────────────────────────────────────────────────────────

// ApproveTool handles the phase_approve MCP tool.
type ApproveTool struct {
	manager *session.Manager
}

// NewApproveTool creates an ApproveTool.
func NewApproveTool(m *session.Manager) *ApproveTool {
	return &ApproveTool{manager: m}
}

// Definition returns the MCP tool definition for phase_approve.
func (t *ApproveTool) Definition() mcp.Tool {
	return mcp.NewTool("phase_approve",
		mcp.WithDescription(
			"Approve a draft phase whose sections are all non-empty and whose previous phase is reviewed. The phase becomes reviewed "+
				"and the next phase unlocks. Approval does not require an evaluation.",
		),
		withProjectID(),
		withPhase("Phase to approve"),
	)
}

// Handle processes the phase_approve tool call.
func (t *ApproveTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	phase, res := phaseArg(req)
	if res != nil {
		return res, nil
	}
	s, res, err := openSession(ctx, t.manager, req)
	if s == nil {
		return res, err
	}

	p, changed, err := s.Approve(ctx, phase)
	if err != nil {
		return errorResult(err)
	}
	if !changed {
		// p is the version the approval was refused on.
		return mcp.NewToolResultError(fmt.Sprintf("Cannot approve: %v", project.CanApprove(p, phase))), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "✅ Phase %s approved.\n\n", phase)
	if next := phase.Ordinal() + 1; next < len(project.PhaseOrder) {
		nextPhase := project.PhaseOrder[next]
		ph, _ := p.Phase(nextPhase)
		fmt.Fprintf(&b, "Phase %s is now %s.\n\n", nextPhase, ph.Status)
	}
	fmt.Fprintf(&b, "**Next:** %s", nextStep(p))
	return mcp.NewToolResultText(b.String()), nil
}

// ─── ReopenTool ──────────────────────────────────────────────────────────────

// ReopenTool handles the phase_reopen MCP tool.
type ReopenTool struct {
	manager *session.Manager
}

// NewReopenTool creates a ReopenTool.
func NewReopenTool(m *session.Manager) *ReopenTool {
	return &ReopenTool{manager: m}
}

// Definition returns the MCP tool definition for phase_reopen.
func (t *ReopenTool) Definition() mcp.Tool {
	return mcp.NewTool("phase_reopen",
		mcp.WithDescription(
			"Return a reviewed phase to draft so it can be edited. Every later phase also returns "+
				"to draft and must be approved again. Content, evaluations and mappings are kept.",
		),
		withProjectID(),
		withPhase("Reviewed phase to reopen"),
	)
}

// Handle processes the phase_reopen tool call.
func (t *ReopenTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	phase, res := phaseArg(req)
	if res != nil {
		return res, nil
	}
	s, res, err := openSession(ctx, t.manager, req)
	if s == nil {
		return res, err
	}

	p, changed, err := s.Reopen(ctx, phase)
	if err != nil {
		return errorResult(err)
	}
	if !changed {
		ph, _ := p.Phase(phase)
		return mcp.NewToolResultError(fmt.Sprintf("Phase %s is %s; only reviewed phases can be reopened.", phase, ph.Status)), nil
	}

	var later []string
	for _, pt := range project.PhaseOrder[phase.Ordinal()+1:] {
		later = append(later, string(pt))
	}
	response := fmt.Sprintf("📝 Phase %s reopened.", phase)
	if len(later) > 0 {
		response += fmt.Sprintf(" Later phases returned to draft: %s.", strings.Join(later, ", "))
	}
	return mcp.NewToolResultText(response), nil
}

// ─── EvaluateTool ────────────────────────────────────────────────────────────

// EvaluateTool handles the phase_evaluate MCP tool.
type EvaluateTool struct {
	manager *session.Manager
}

// NewEvaluateTool creates an EvaluateTool.
func NewEvaluateTool(m *session.Manager) *EvaluateTool {
	return &EvaluateTool{manager: m}
}

// Definition returns the MCP tool definition for phase_evaluate.
func (t *EvaluateTool) Definition() mcp.Tool {
	return mcp.NewTool("phase_evaluate",
		mcp.WithDescription(
			"Run the rule checks for a phase and store the result. Optionally attach your own "+
				"deep analysis as a JSON document; it is stored as given. The evaluation is discarded "+
				"as soon as the phase content changes.",
		),
		withProjectID(),
		withPhase("Phase to evaluate"),
		mcp.WithString("deep_analysis",
			mcp.Description("Optional JSON document with an AI review of the phase"),
		),
	)
}

// Handle processes the phase_evaluate tool call.
func (t *EvaluateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	phase, res := phaseArg(req)
	if res != nil {
		return res, nil
	}

	var deep json.RawMessage
	if raw := strings.TrimSpace(req.GetString("deep_analysis", "")); raw != "" {
		if !json.Valid([]byte(raw)) {
			return mcp.NewToolResultError("'deep_analysis' must be valid JSON"), nil
		}
		deep = json.RawMessage(raw)
	}

	s, res, err := openSession(ctx, t.manager, req)
	if s == nil {
		return res, err
	}

	_, ev, err := s.Evaluate(ctx, phase, deep)
	if err != nil {
		return errorResult(err)
	}

	passed, total := rules.Summary(ev.RuleResults)
	var b strings.Builder
	fmt.Fprintf(&b, "# Evaluation: %s\n\n**Passed:** %d/%d\n\n", phase, passed, total)
	for _, r := range ev.RuleResults {
		mark := "✅"
		if !r.Passed {
			mark = "❌"
		}
		fmt.Fprintf(&b, "- %s **%s** (`%s`)", mark, r.Name, r.ID)
		if r.Explanation != "" {
			fmt.Fprintf(&b, ": %s", r.Explanation)
		}
		b.WriteString("\n")
	}
	if deep != nil {
		b.WriteString("\nDeep analysis stored.\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}
