// Package prompts implements MCP prompt handlers for phasegate.
//
// Prompts are user-triggered workflows (like slash commands) that tell the
// AI which tools to call in which order. Unlike tools, the user starts them.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// StartPrompt handles the phasegate-start MCP prompt.
type StartPrompt struct{}

// NewStartPrompt creates a StartPrompt.
func NewStartPrompt() *StartPrompt {
	return &StartPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StartPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("phasegate-start",
		mcp.WithPromptDescription(
			"Start a new project and walk through the spec, plan and tasks phases, "+
				"approving each one before moving to the next.",
		),
		mcp.WithArgument("project_name",
			mcp.ArgumentDescription("Name of the project to create"),
		),
	)
}

// Handle processes the phasegate-start prompt request.
func (p *StartPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	projectName := "my-project"
	if name := strings.TrimSpace(req.Params.Arguments["project_name"]); name != "" {
		projectName = name
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Start project: %s", projectName),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"I want to start a new project called '%s'.\n\n"+
						"Please:\n"+
						"1. Run `project_create` with name='%s'\n"+
						"2. Ask me about the idea, then fill the spec sections with `section_update`. "+
						"Write requirements as `**FR-001**: ...` so they can be traced\n"+
						"3. Run `phase_evaluate` on the spec and fix what fails, then ask me before running `phase_approve`\n"+
						"4. Do the same for the plan and then the tasks\n"+
						"5. Once tasks exist, map requirements with `trace_reanalyze` and show me `trace_coverage`\n\n"+
						"Never edit a reviewed phase: if something upstream must change, ask me before using `phase_reopen`, "+
						"because every later phase goes back to draft.",
					projectName, projectName,
				)),
			},
		},
	}, nil
}
