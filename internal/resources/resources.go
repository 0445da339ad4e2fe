// Package resources implements MCP resource handlers for phasegate.
//
// Resources provide read-only data the host can pull in as context. They
// use URI-based addressing (phasegate://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/HendryAvila/phasegate/internal/project"
	"github.com/HendryAvila/phasegate/internal/session"
	"github.com/mark3labs/mcp-go/mcp"
)

// ProjectsURI addresses the project listing.
const ProjectsURI = "phasegate://projects"

// Lister lists projects. *session.Manager satisfies it.
type Lister interface {
	List(ctx context.Context, includeArchived bool) ([]project.Project, error)
}

var _ Lister = (*session.Manager)(nil)

// Handler manages phasegate resource endpoints.
type Handler struct {
	projects Lister
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(projects Lister) *Handler {
	return &Handler{projects: projects}
}

// ProjectSummary is one entry of the project listing.
type ProjectSummary struct {
	ID        string                         `json:"id"`
	Name      string                         `json:"name"`
	Phases    map[string]project.PhaseStatus `json:"phases"`
	Health    *int                           `json:"health,omitempty"`
	Coverage  project.CoverageStats          `json:"coverage"`
	Archived  bool                           `json:"archived"`
	UpdatedAt time.Time                      `json:"updated_at"`
}

// Summarize builds the listing entry for a project.
func Summarize(p project.Project) ProjectSummary {
	s := ProjectSummary{
		ID:        p.ID,
		Name:      p.Name,
		Phases:    make(map[string]project.PhaseStatus, len(p.Phases)),
		Coverage:  project.GetCoverageStats(p),
		Archived:  p.IsArchived(),
		UpdatedAt: p.UpdatedAt,
	}
	for _, ph := range p.Phases {
		s.Phases[string(ph.Type)] = ph.Status
	}
	if score, ok := project.HealthScore(p); ok {
		s.Health = &score
	}
	return s
}

// ProjectsResource returns the MCP resource definition for the project listing.
func (h *Handler) ProjectsResource() mcp.Resource {
	return mcp.NewResource(
		ProjectsURI,
		"Phasegate Projects",
		mcp.WithResourceDescription("Active projects with phase status, health score and coverage"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleProjects returns the active projects as JSON.
func (h *Handler) HandleProjects(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	projects, err := h.projects.List(ctx, false)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}

	summaries := make([]ProjectSummary, 0, len(projects))
	for _, p := range projects {
		summaries = append(summaries, Summarize(p))
	}

	data, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling projects: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
