// Package httpapi exposes phasegate projects over a JSON HTTP API.
//
// Routes mirror the MCP tools. Mutating routes answer with the resulting
// project and whether the gate accepted the change; a rejected change is
// not an HTTP error.
package httpapi

import (
	"context"
	"net/http"

	"github.com/HendryAvila/phasegate/internal/session"
	"github.com/HendryAvila/phasegate/internal/storage"
	"github.com/gin-gonic/gin"
)

// ChatStore persists the assistant conversation of a project.
type ChatStore interface {
	AppendChatMessage(ctx context.Context, projectID, role, content string) (storage.ChatMessage, error)
	ChatHistory(ctx context.Context, projectID string, limit int) ([]storage.ChatMessage, error)
}

// Handler serves the API routes.
type Handler struct {
	manager *session.Manager
	chat    ChatStore
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(m *session.Manager, chat ChatStore) *gin.Engine {
	r := gin.Default()
	h := &Handler{manager: m, chat: chat}

	api := r.Group("/api/projects")

	// PROJECTS
	api.GET("", h.ListProjects)
	api.POST("", h.CreateProject)
	api.GET("/:id", h.GetProject)
	api.DELETE("/:id", h.DeleteProject)
	api.POST("/:id/archive", h.ArchiveProject)
	api.POST("/:id/unarchive", h.UnarchiveProject)

	// PHASES
	api.PUT("/:id/phases/:phase/sections/:section", h.UpdateSection)
	api.POST("/:id/phases/:phase/approve", h.ApprovePhase)
	api.POST("/:id/phases/:phase/reopen", h.ReopenPhase)
	api.POST("/:id/phases/:phase/evaluate", h.EvaluatePhase)

	// TRACEABILITY
	api.GET("/:id/trace", h.GetTrace)
	api.POST("/:id/trace", h.AddMapping)
	api.DELETE("/:id/trace/:mapping", h.RemoveMapping)
	api.POST("/:id/trace/reanalyze", h.Reanalyze)

	// CHAT
	api.GET("/:id/chat", h.ChatHistory)
	api.POST("/:id/chat", h.AppendChat)

	// HEALTHCHECK
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	return r
}
