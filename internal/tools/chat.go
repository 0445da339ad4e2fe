package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/phasegate/internal/session"
	"github.com/HendryAvila/phasegate/internal/storage"
	"github.com/mark3labs/mcp-go/mcp"
)

// ChatStore persists the assistant conversation of a project.
type ChatStore interface {
	AppendChatMessage(ctx context.Context, projectID, role, content string) (storage.ChatMessage, error)
	ChatHistory(ctx context.Context, projectID string, limit int) ([]storage.ChatMessage, error)
}

// ─── ChatAppendTool ──────────────────────────────────────────────────────────

// ChatAppendTool handles the chat_append MCP tool.
type ChatAppendTool struct {
	manager *session.Manager
	chat    ChatStore
}

// NewChatAppendTool creates a ChatAppendTool.
func NewChatAppendTool(m *session.Manager, chat ChatStore) *ChatAppendTool {
	return &ChatAppendTool{manager: m, chat: chat}
}

// Definition returns the MCP tool definition for chat_append.
func (t *ChatAppendTool) Definition() mcp.Tool {
	return mcp.NewTool("chat_append",
		mcp.WithDescription("Record one message of the conversation about a project."),
		withProjectID(),
		mcp.WithString("role",
			mcp.Required(),
			mcp.Enum(storage.RoleUser, storage.RoleAssistant),
			mcp.Description("Who wrote the message"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Message text"),
		),
	)
}

// Handle processes the chat_append tool call.
func (t *ChatAppendTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	role := req.GetString("role", "")
	content := req.GetString("content", "")
	if strings.TrimSpace(content) == "" {
		return mcp.NewToolResultError("'content' is required"), nil
	}

	s, res, err := openSession(ctx, t.manager, req)
	if s == nil {
		return res, err
	}

	msg, err := t.chat.AppendChatMessage(ctx, s.ID(), role, content)
	if err != nil {
		if res, rerr := errorResult(err); res != nil {
			return res, rerr
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Message #%d saved.", msg.ID)), nil
}

// ─── ChatHistoryTool ─────────────────────────────────────────────────────────

// ChatHistoryTool handles the chat_history MCP tool.
type ChatHistoryTool struct {
	manager *session.Manager
	chat    ChatStore
}

// NewChatHistoryTool creates a ChatHistoryTool.
func NewChatHistoryTool(m *session.Manager, chat ChatStore) *ChatHistoryTool {
	return &ChatHistoryTool{manager: m, chat: chat}
}

// Definition returns the MCP tool definition for chat_history.
func (t *ChatHistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("chat_history",
		mcp.WithDescription("Show the most recent conversation messages of a project, oldest first."),
		withProjectID(),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Maximum number of messages (default %d)", storage.DefaultChatLimit)),
		),
	)
}

// Handle processes the chat_history tool call.
func (t *ChatHistoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, res, err := openSession(ctx, t.manager, req)
	if s == nil {
		return res, err
	}

	msgs, err := t.chat.ChatHistory(ctx, s.ID(), intArg(req, "limit", 0))
	if err != nil {
		return errorResult(err)
	}
	if len(msgs) == 0 {
		return mcp.NewToolResultText("No messages yet."), nil
	}

	var b strings.Builder
	for _, m := range msgs {
		fmt.Fprintf(&b, "**%s** (%s):\n%s\n\n", m.Role, formatTime(m.CreatedAt), m.Content)
	}
	return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
}
