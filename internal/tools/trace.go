package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/HendryAvila/phasegate/internal/project"
	"github.com/HendryAvila/phasegate/internal/session"
	"github.com/mark3labs/mcp-go/mcp"
)

// ─── TraceAddTool ────────────────────────────────────────────────────────────

// TraceAddTool handles the trace_add MCP tool.
type TraceAddTool struct {
	manager *session.Manager
}

// NewTraceAddTool creates a TraceAddTool.
func NewTraceAddTool(m *session.Manager) *TraceAddTool {
	return &TraceAddTool{manager: m}
}

// Definition returns the MCP tool definition for trace_add.
func (t *TraceAddTool) Definition() mcp.Tool {
	return mcp.NewTool("trace_add",
		mcp.WithDescription(
			"Link a requirement to a plan element or a task. Mappings added here are manual "+
				"and survive `trace_reanalyze`.",
		),
		withProjectID(),
		mcp.WithString("requirement_id",
			mcp.Required(),
			mcp.Description("Requirement ID as written in the spec, e.g. 'FR-001' or 'Req 1'"),
		),
		mcp.WithString("requirement_label",
			mcp.Description("Short requirement description"),
		),
		mcp.WithString("target_type",
			mcp.Required(),
			mcp.Enum(string(project.TargetPlan), string(project.TargetTask)),
			mcp.Description("What the requirement maps to"),
		),
		mcp.WithString("target_id",
			mcp.Required(),
			mcp.Description("Plan section ID or task ID, e.g. 'architecture' or 'T3'"),
		),
		mcp.WithString("target_label",
			mcp.Description("Short target description"),
		),
	)
}

// Handle processes the trace_add tool call.
func (t *TraceAddTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reqID := strings.TrimSpace(req.GetString("requirement_id", ""))
	targetID := strings.TrimSpace(req.GetString("target_id", ""))
	if reqID == "" || targetID == "" {
		return mcp.NewToolResultError("'requirement_id' and 'target_id' are required"), nil
	}

	m, err := project.NewManualMapping(
		reqID,
		req.GetString("requirement_label", ""),
		req.GetString("target_type", ""),
		targetID,
		req.GetString("target_label", ""),
	)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s, res, err := openSession(ctx, t.manager, req)
	if s == nil {
		return res, err
	}
	p, err := s.AddMapping(ctx, m)
	if err != nil {
		return errorResult(err)
	}

	response := fmt.Sprintf("Mapped %s → %s `%s` (mapping `%s`).", m.RequirementID, m.TargetType, m.TargetID, m.ID)
	if !requirementKnown(p, m.RequirementID) {
		response += fmt.Sprintf("\n\n⚠️ %s is not a requirement in the spec, so it does not count toward coverage.", m.RequirementID)
	}
	return mcp.NewToolResultText(response), nil
}

func requirementKnown(p project.Project, id string) bool {
	for _, r := range project.ParseRequirementIDs(p) {
		if r.ID == id {
			return true
		}
	}
	return false
}

// ─── TraceRemoveTool ─────────────────────────────────────────────────────────

// TraceRemoveTool handles the trace_remove MCP tool.
type TraceRemoveTool struct {
	manager *session.Manager
}

// NewTraceRemoveTool creates a TraceRemoveTool.
func NewTraceRemoveTool(m *session.Manager) *TraceRemoveTool {
	return &TraceRemoveTool{manager: m}
}

// Definition returns the MCP tool definition for trace_remove.
func (t *TraceRemoveTool) Definition() mcp.Tool {
	return mcp.NewTool("trace_remove",
		mcp.WithDescription("Remove one traceability mapping by its ID."),
		withProjectID(),
		mcp.WithString("mapping_id",
			mcp.Required(),
			mcp.Description("Mapping ID, as shown by `trace_coverage`"),
		),
	)
}

// Handle processes the trace_remove tool call.
func (t *TraceRemoveTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mappingID := strings.TrimSpace(req.GetString("mapping_id", ""))
	if mappingID == "" {
		return mcp.NewToolResultError("'mapping_id' is required"), nil
	}
	s, res, err := openSession(ctx, t.manager, req)
	if s == nil {
		return res, err
	}

	_, changed, err := s.RemoveMapping(ctx, mappingID)
	if err != nil {
		return errorResult(err)
	}
	if !changed {
		return mcp.NewToolResultError(fmt.Sprintf("No mapping with ID %q.", mappingID)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Mapping `%s` removed.", mappingID)), nil
}

// ─── TraceReanalyzeTool ──────────────────────────────────────────────────────

// TraceReanalyzeTool handles the trace_reanalyze MCP tool.
type TraceReanalyzeTool struct {
	manager *session.Manager
}

// NewTraceReanalyzeTool creates a TraceReanalyzeTool.
func NewTraceReanalyzeTool(m *session.Manager) *TraceReanalyzeTool {
	return &TraceReanalyzeTool{manager: m}
}

// Definition returns the MCP tool definition for trace_reanalyze.
func (t *TraceReanalyzeTool) Definition() mcp.Tool {
	return mcp.NewTool("trace_reanalyze",
		mcp.WithDescription(
			"Replace all AI-generated mappings with a new set. Manual mappings are never touched. "+
				"Read the spec, plan and tasks with `project_status` (include_content=true), work out "+
				"which plan sections and tasks cover each requirement, and pass the result as a JSON array of "+
				`{"requirement_id","requirement_label","target_type":"plan"|"task","target_id","target_label"} objects. `+
				"An empty array clears the AI mappings; if no array can be read the existing ones are kept.",
		),
		withProjectID(),
		mcp.WithString("mappings",
			mcp.Required(),
			mcp.Description("JSON array of mappings; a markdown code fence around it is fine"),
		),
	)
}

// Handle processes the trace_reanalyze tool call.
func (t *TraceReanalyzeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw := req.GetString("mappings", "")
	s, res, err := openSession(ctx, t.manager, req)
	if s == nil {
		return res, err
	}

	p, n, _, err := s.Reanalyze(ctx, raw)
	if errors.Is(err, session.ErrUnreadableAnalysis) {
		return mcp.NewToolResultError("Could not read a JSON array of mappings from the analysis; existing AI mappings were kept."), nil
	}
	if err != nil {
		return errorResult(err)
	}
	if n == 0 {
		return mcp.NewToolResultText("The analysis holds no mappings; AI mappings were cleared and manual mappings were kept."), nil
	}

	cov := project.GetCoverageStats(p)
	response := fmt.Sprintf(
		"Applied %d AI mappings.\n\n- Plan coverage: %d/%d\n- Task coverage: %d/%d",
		n, cov.PlanCoverage.Covered, cov.PlanCoverage.Total, cov.TaskCoverage.Covered, cov.TaskCoverage.Total,
	)
	return mcp.NewToolResultText(response), nil
}

// ─── TraceCoverageTool ───────────────────────────────────────────────────────

// TraceCoverageTool handles the trace_coverage MCP tool.
type TraceCoverageTool struct {
	manager *session.Manager
}

// NewTraceCoverageTool creates a TraceCoverageTool.
func NewTraceCoverageTool(m *session.Manager) *TraceCoverageTool {
	return &TraceCoverageTool{manager: m}
}

// Definition returns the MCP tool definition for trace_coverage.
func (t *TraceCoverageTool) Definition() mcp.Tool {
	return mcp.NewTool("trace_coverage",
		mcp.WithDescription(
			"Show the requirements found in the spec, every mapping, and how many requirements "+
				"are covered by the plan and by tasks.",
		),
		withProjectID(),
	)
}

// Handle processes the trace_coverage tool call.
func (t *TraceCoverageTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, res, err := openSession(ctx, t.manager, req)
	if s == nil {
		return res, err
	}
	p := s.Project()

	reqs := project.ParseRequirementIDs(p)
	cov := project.GetCoverageStats(p)

	byReq := make(map[string]map[project.TargetType]bool)
	for _, m := range p.TraceabilityMappings {
		if byReq[m.RequirementID] == nil {
			byReq[m.RequirementID] = make(map[project.TargetType]bool)
		}
		byReq[m.RequirementID][m.TargetType] = true
	}

	var b strings.Builder
	b.WriteString("# Traceability\n\n")
	fmt.Fprintf(&b, "**Plan coverage:** %d/%d\n**Task coverage:** %d/%d\n\n",
		cov.PlanCoverage.Covered, cov.PlanCoverage.Total, cov.TaskCoverage.Covered, cov.TaskCoverage.Total)

	if len(reqs) == 0 {
		b.WriteString("No requirements found in the spec. Use `**FR-001**: ...` markers or `## Req 1: ...` headings.\n")
	} else {
		b.WriteString("## Requirements\n\n| ID | Label | Plan | Task |\n|----|-------|------|------|\n")
		for _, r := range reqs {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", r.ID, r.Label,
				check(byReq[r.ID][project.TargetPlan]), check(byReq[r.ID][project.TargetTask]))
		}
	}

	if len(p.TraceabilityMappings) > 0 {
		b.WriteString("\n## Mappings\n\n| ID | Requirement | Target | Origin |\n|----|-------------|--------|--------|\n")
		for _, m := range p.TraceabilityMappings {
			fmt.Fprintf(&b, "| `%s` | %s | %s `%s` | %s |\n", m.ID, m.RequirementID, m.TargetType, m.TargetID, m.Origin)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

func check(ok bool) string {
	if ok {
		return "✅"
	}
	return "—"
}
