package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatusPrompt handles the phasegate-status MCP prompt.
// It asks the AI to present a project's gate state and the next step.
type StatusPrompt struct{}

// NewStatusPrompt creates a StatusPrompt.
func NewStatusPrompt() *StatusPrompt {
	return &StatusPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StatusPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("phasegate-status",
		mcp.WithPromptDescription(
			"Check where a project stands: phase states, evaluation results, "+
				"health score, traceability coverage and what to do next.",
		),
		mcp.WithArgument("project_id",
			mcp.ArgumentDescription("Project ID. If omitted, the AI lists projects first."),
		),
	)
}

// Handle processes the phasegate-status prompt request.
func (p *StatusPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	first := "Run `project_list` and ask me which project I mean. Then run `project_status` on it."
	if id := strings.TrimSpace(req.Params.Arguments["project_id"]); id != "" {
		first = fmt.Sprintf("Run `project_status` with project_id='%s'.", id)
	}

	return &mcp.GetPromptResult{
		Description: "Project Status",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					first + "\n\n" +
						"Then:\n" +
						"1. Show the three phases and their status in a clear, visual format\n" +
						"2. Point out stale or failing evaluations\n" +
						"3. Run `trace_coverage` if the spec is reviewed and mention uncovered requirements\n" +
						"4. Tell me exactly what I should do next",
				),
			},
		},
	}, nil
}
