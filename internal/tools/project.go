package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/phasegate/internal/project"
	"github.com/HendryAvila/phasegate/internal/session"
	"github.com/mark3labs/mcp-go/mcp"
)

// ─── CreateTool ──────────────────────────────────────────────────────────────

// CreateTool handles the project_create MCP tool.
type CreateTool struct {
	manager *session.Manager
}

// NewCreateTool creates a CreateTool.
func NewCreateTool(m *session.Manager) *CreateTool {
	return &CreateTool{manager: m}
}

// Definition returns the MCP tool definition for project_create.
func (t *CreateTool) Definition() mcp.Tool {
	return mcp.NewTool("project_create",
		mcp.WithDescription(
			"Create a new project with three phases: spec (draft), plan (locked) and tasks (locked). "+
				"Each phase has fixed sections to fill. A phase must be approved before the next one unlocks.",
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description(fmt.Sprintf("Project name (1-%d characters)", project.MaxNameLength)),
		),
	)
}

// Handle processes the project_create tool call.
func (t *CreateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	if strings.TrimSpace(name) == "" {
		return mcp.NewToolResultError("'name' is required"), nil
	}

	s, err := t.manager.Create(ctx, name)
	if err != nil {
		if res, rerr := errorResult(err); res != nil || rerr == nil {
			return res, rerr
		}
		// Name validation errors from project.New.
		return mcp.NewToolResultError(err.Error()), nil
	}

	p := s.Project()
	var b strings.Builder
	fmt.Fprintf(&b, "# Project Created\n\n**Name:** %s\n**ID:** `%s`\n\n", p.Name, p.ID)
	b.WriteString("## Spec sections\n\n")
	for _, sec := range project.SectionTemplate(project.PhaseSpec) {
		fmt.Fprintf(&b, "- `%s`: %s\n", sec.ID, sec.Title)
	}
	b.WriteString("\nFill them with `section_update`, then approve the spec with `phase_approve`.\n")
	return mcp.NewToolResultText(b.String()), nil
}

// ─── ListTool ────────────────────────────────────────────────────────────────

// ListTool handles the project_list MCP tool.
type ListTool struct {
	manager *session.Manager
}

// NewListTool creates a ListTool.
func NewListTool(m *session.Manager) *ListTool {
	return &ListTool{manager: m}
}

// Definition returns the MCP tool definition for project_list.
func (t *ListTool) Definition() mcp.Tool {
	return mcp.NewTool("project_list",
		mcp.WithDescription("List projects, most recently updated first."),
		mcp.WithBoolean("include_archived",
			mcp.Description("Also list archived projects"),
		),
	)
}

// Handle processes the project_list tool call.
func (t *ListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	includeArchived := boolArg(req, "include_archived", false)

	projects, err := t.manager.List(ctx, includeArchived)
	if err != nil {
		return errorResult(err)
	}
	if len(projects) == 0 {
		return mcp.NewToolResultText("No projects yet. Create one with `project_create`."), nil
	}

	var b strings.Builder
	b.WriteString("# Projects\n\n")
	b.WriteString("| Name | ID | spec | plan | tasks | Updated |\n")
	b.WriteString("|------|----|------|------|-------|---------|\n")
	for _, p := range projects {
		name := p.Name
		if p.IsArchived() {
			name += " (archived)"
		}
		fmt.Fprintf(&b, "| %s | `%s` |", name, p.ID)
		for _, ph := range p.Phases {
			fmt.Fprintf(&b, " %s %s |", statusMarker(ph.Status), ph.Status)
		}
		fmt.Fprintf(&b, " %s |\n", formatTime(p.UpdatedAt))
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ─── StatusTool ──────────────────────────────────────────────────────────────

// StatusTool handles the project_status MCP tool.
type StatusTool struct {
	manager *session.Manager
}

// NewStatusTool creates a StatusTool.
func NewStatusTool(m *session.Manager) *StatusTool {
	return &StatusTool{manager: m}
}

// Definition returns the MCP tool definition for project_status.
func (t *StatusTool) Definition() mcp.Tool {
	return mcp.NewTool("project_status",
		mcp.WithDescription(
			"Show a project's phase states, evaluation results, health score and traceability coverage. "+
				"Set include_content to also return every section.",
		),
		withProjectID(),
		mcp.WithBoolean("include_content",
			mcp.Description("Include the content of every section"),
		),
	)
}

// Handle processes the project_status tool call.
func (t *StatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, res, err := openSession(ctx, t.manager, req)
	if s == nil {
		return res, err
	}
	p := s.Project()

	var b strings.Builder
	b.WriteString(formatProject(p))
	if boolArg(req, "include_content", false) {
		for _, ph := range p.Phases {
			fmt.Fprintf(&b, "\n---\n\n# Phase: %s\n\n", ph.Type)
			for _, sec := range ph.Sections {
				content := sec.Content
				if strings.TrimSpace(content) == "" {
					content = "_(empty)_"
				}
				fmt.Fprintf(&b, "## %s (`%s`)\n%s\n\n", sec.Title, sec.ID, content)
			}
		}
	}
	fmt.Fprintf(&b, "\n**Next:** %s\n", nextStep(p))
	return mcp.NewToolResultText(b.String()), nil
}

// ─── ArchiveTool ─────────────────────────────────────────────────────────────

// ArchiveTool handles the project_archive MCP tool.
type ArchiveTool struct {
	manager *session.Manager
}

// NewArchiveTool creates an ArchiveTool.
func NewArchiveTool(m *session.Manager) *ArchiveTool {
	return &ArchiveTool{manager: m}
}

// Definition returns the MCP tool definition for project_archive.
func (t *ArchiveTool) Definition() mcp.Tool {
	return mcp.NewTool("project_archive",
		mcp.WithDescription(
			"Archive a project so it no longer shows in the default listing, or restore it with restore=true.",
		),
		withProjectID(),
		mcp.WithBoolean("restore",
			mcp.Description("If true, unarchive the project instead"),
		),
	)
}

// Handle processes the project_archive tool call.
func (t *ArchiveTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, res, err := openSession(ctx, t.manager, req)
	if s == nil {
		return res, err
	}

	restore := boolArg(req, "restore", false)
	var p project.Project
	var changed bool
	if restore {
		p, changed, err = s.Unarchive(ctx)
	} else {
		p, changed, err = s.Archive(ctx)
	}
	if err != nil {
		return errorResult(err)
	}

	switch {
	case !changed && restore:
		return mcp.NewToolResultText(fmt.Sprintf("Project %q is not archived.", p.Name)), nil
	case !changed:
		return mcp.NewToolResultText(fmt.Sprintf("Project %q is already archived.", p.Name)), nil
	case restore:
		return mcp.NewToolResultText(fmt.Sprintf("Project %q restored.", p.Name)), nil
	default:
		return mcp.NewToolResultText(fmt.Sprintf("Project %q archived.", p.Name)), nil
	}
}

// ─── DeleteTool ──────────────────────────────────────────────────────────────

// DeleteTool handles the project_delete MCP tool.
type DeleteTool struct {
	manager *session.Manager
}

// NewDeleteTool creates a DeleteTool.
func NewDeleteTool(m *session.Manager) *DeleteTool {
	return &DeleteTool{manager: m}
}

// Definition returns the MCP tool definition for project_delete.
func (t *DeleteTool) Definition() mcp.Tool {
	return mcp.NewTool("project_delete",
		mcp.WithDescription(
			"Permanently delete a project, its evaluations, mappings and chat history. "+
				"Requires confirm=true.",
		),
		withProjectID(),
		mcp.WithBoolean("confirm",
			mcp.Required(),
			mcp.Description("Must be true to delete"),
		),
	)
}

// Handle processes the project_delete tool call.
func (t *DeleteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := strings.TrimSpace(req.GetString("project_id", ""))
	if id == "" {
		return mcp.NewToolResultError("'project_id' is required"), nil
	}
	if !boolArg(req, "confirm", false) {
		return mcp.NewToolResultError("Deletion is permanent. Call again with confirm=true."), nil
	}

	if err := t.manager.Delete(ctx, id); err != nil {
		return errorResult(err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("Project `%s` deleted.", id)), nil
}
