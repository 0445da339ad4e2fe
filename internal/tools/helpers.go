// Package tools implements the MCP tool handlers for phasegate projects.
//
// Each tool is a struct holding its dependencies, with Definition() for
// registration and Handle() compatible with mcp-go's CallToolRequest
// signature. Gate rules live in the project package; handlers only parse
// arguments, dispatch to a session and format the answer.
//
// Mistakes the caller can fix (bad arguments, unmet preconditions, storage
// messages) come back as tool errors. Unexpected failures are returned as
// Go errors.
package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/HendryAvila/phasegate/internal/project"
	"github.com/HendryAvila/phasegate/internal/rules"
	"github.com/HendryAvila/phasegate/internal/session"
	"github.com/HendryAvila/phasegate/internal/storage"
	"github.com/mark3labs/mcp-go/mcp"
)

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// withProjectID adds the project_id argument shared by most tools.
func withProjectID() mcp.ToolOption {
	return mcp.WithString("project_id",
		mcp.Required(),
		mcp.Description("Project ID, as returned by `project_create` or `project_list`"),
	)
}

// withPhase adds a required phase argument.
func withPhase(desc string) mcp.ToolOption {
	return mcp.WithString("phase",
		mcp.Required(),
		mcp.Enum(string(project.PhaseSpec), string(project.PhasePlan), string(project.PhaseTasks)),
		mcp.Description(desc),
	)
}

// openSession resolves the project_id argument. A non-nil result means the
// handler should return it as is.
func openSession(ctx context.Context, m *session.Manager, req mcp.CallToolRequest) (*session.Session, *mcp.CallToolResult, error) {
	id := strings.TrimSpace(req.GetString("project_id", ""))
	if id == "" {
		return nil, mcp.NewToolResultError("'project_id' is required"), nil
	}
	s, err := m.Open(ctx, id)
	if err != nil {
		res, err := errorResult(err)
		return nil, res, err
	}
	return s, nil, nil
}

// phaseArg parses the phase argument.
func phaseArg(req mcp.CallToolRequest) (project.PhaseType, *mcp.CallToolResult) {
	phase, err := project.ParsePhaseType(req.GetString("phase", ""))
	if err != nil {
		return "", mcp.NewToolResultError(err.Error())
	}
	return phase, nil
}

// errorResult turns errors a user can act on into tool errors. Anything
// else is passed through as a Go error.
func errorResult(err error) (*mcp.CallToolResult, error) {
	if errors.Is(err, session.ErrProjectNotFound) {
		return mcp.NewToolResultError("Project not found. Use `project_list` to see available projects."), nil
	}
	if msg, ok := storage.Message(err); ok {
		return mcp.NewToolResultError(msg), nil
	}
	return nil, err
}

// ─── Formatting ──────────────────────────────────────────────────────────────

func statusMarker(s project.PhaseStatus) string {
	switch s {
	case project.StatusReviewed:
		return "✅"
	case project.StatusDraft:
		return "📝"
	default:
		return "🔒"
	}
}

func filledSections(ph project.Phase) int {
	n := 0
	for _, s := range ph.Sections {
		if strings.TrimSpace(s.Content) != "" {
			n++
		}
	}
	return n
}

func evaluationSummary(p project.Project, phase project.PhaseType) string {
	ev, ok := project.GetEvaluation(p, phase)
	if !ok {
		return "not evaluated"
	}
	passed, total := rules.Summary(ev.RuleResults)
	freshness := "stale"
	if project.IsEvaluationFresh(p, phase) {
		freshness = "fresh"
	}
	return fmt.Sprintf("%d/%d passed (%s)", passed, total, freshness)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.UTC().Format("2006-01-02 15:04 UTC")
}

// formatProject renders the phase table and traceability summary of a
// project as markdown.
func formatProject(p project.Project) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", p.Name)
	fmt.Fprintf(&b, "**ID:** `%s`\n", p.ID)
	fmt.Fprintf(&b, "**Created:** %s\n", formatTime(p.CreatedAt))
	fmt.Fprintf(&b, "**Updated:** %s\n", formatTime(p.UpdatedAt))
	if p.IsArchived() {
		fmt.Fprintf(&b, "**Archived:** %s\n", formatTime(*p.ArchivedAt))
	}
	if score, ok := project.HealthScore(p); ok {
		fmt.Fprintf(&b, "**Health:** %d%%\n", score)
	}

	b.WriteString("\n## Phases\n\n")
	b.WriteString("| Phase | Status | Sections | Evaluation |\n")
	b.WriteString("|-------|--------|----------|------------|\n")
	for _, ph := range p.Phases {
		fmt.Fprintf(&b, "| %s %s | %s | %d/%d filled | %s |\n",
			statusMarker(ph.Status), ph.Type, ph.Status,
			filledSections(ph), len(ph.Sections), evaluationSummary(p, ph.Type))
	}

	cov := project.GetCoverageStats(p)
	b.WriteString("\n## Traceability\n\n")
	fmt.Fprintf(&b, "- Plan coverage: %d/%d requirements\n", cov.PlanCoverage.Covered, cov.PlanCoverage.Total)
	fmt.Fprintf(&b, "- Task coverage: %d/%d requirements\n", cov.TaskCoverage.Covered, cov.TaskCoverage.Total)
	fmt.Fprintf(&b, "- Mappings: %d\n", len(p.TraceabilityMappings))
	return b.String()
}

// nextStep suggests what to do after a successful change.
func nextStep(p project.Project) string {
	for _, ph := range p.Phases {
		if ph.Status != project.StatusDraft {
			continue
		}
		if err := project.CanApprove(p, ph.Type); err != nil {
			return fmt.Sprintf("Fill the empty sections of `%s`, then approve it with `phase_approve`.", ph.Type)
		}
		return fmt.Sprintf("`%s` is ready: evaluate it with `phase_evaluate` or approve it with `phase_approve`.", ph.Type)
	}
	return "All phases are reviewed. Use `phase_reopen` to revise one."
}
