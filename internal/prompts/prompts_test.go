package prompts

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func promptText(t *testing.T, result *mcp.GetPromptResult) string {
	t.Helper()
	if len(result.Messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(result.Messages))
	}
	msg := result.Messages[0]
	if msg.Role != mcp.RoleUser {
		t.Errorf("role = %s, want user", msg.Role)
	}
	tc, ok := msg.Content.(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", msg.Content)
	}
	return tc.Text
}

func TestStartPrompt_Definition(t *testing.T) {
	def := NewStartPrompt().Definition()
	if def.Name != "phasegate-start" {
		t.Errorf("name = %s", def.Name)
	}
	if len(def.Arguments) != 1 || def.Arguments[0].Name != "project_name" {
		t.Errorf("arguments = %+v", def.Arguments)
	}
}

func TestStartPrompt_Handle(t *testing.T) {
	req := mcp.GetPromptRequest{}
	req.Params.Arguments = map[string]string{"project_name": "Todo App"}

	result, err := NewStartPrompt().Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	text := promptText(t, result)
	if !strings.Contains(text, "name='Todo App'") || !strings.Contains(text, "phase_approve") {
		t.Errorf("unexpected prompt:\n%s", text)
	}
}

func TestStartPrompt_Handle_DefaultName(t *testing.T) {
	result, err := NewStartPrompt().Handle(context.Background(), mcp.GetPromptRequest{})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if text := promptText(t, result); !strings.Contains(text, "'my-project'") {
		t.Errorf("expected default name:\n%s", text)
	}
}

func TestStatusPrompt_Handle(t *testing.T) {
	req := mcp.GetPromptRequest{}
	req.Params.Arguments = map[string]string{"project_id": "abc"}

	result, err := NewStatusPrompt().Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if text := promptText(t, result); !strings.HasPrefix(text, "Run `project_status` with project_id='abc'.") {
		t.Errorf("unexpected prompt:\n%s", text)
	}

	result, err = NewStatusPrompt().Handle(context.Background(), mcp.GetPromptRequest{})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if text := promptText(t, result); !strings.Contains(text, "project_list") {
		t.Errorf("without an id the prompt should list projects:\n%s", text)
	}
}
