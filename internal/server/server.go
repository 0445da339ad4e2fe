// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it opens storage, builds the session
// manager and injects them into the tools, prompts and resources. No gate
// logic lives here, only wiring.
package server

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/HendryAvila/phasegate/internal/config"
	"github.com/HendryAvila/phasegate/internal/prompts"
	"github.com/HendryAvila/phasegate/internal/resources"
	"github.com/HendryAvila/phasegate/internal/session"
	"github.com/HendryAvila/phasegate/internal/storage"
	"github.com/HendryAvila/phasegate/internal/tools"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// shutdownTimeout bounds the final flush of pending saves.
const shutdownTimeout = 5 * time.Second

// Backend holds the shared dependencies of every transport.
type Backend struct {
	Store   *storage.Store
	Manager *session.Manager
}

// OpenBackend opens the project store and the session manager.
//
// The returned cleanup function flushes pending saves and closes the
// database. It is always non-nil and safe to call even if opening failed.
func OpenBackend(cfg config.Config) (*Backend, func(), error) {
	store, err := storage.New(storage.Config{DataDir: cfg.DataDir})
	if err != nil {
		return nil, noop, fmt.Errorf("opening storage: %w", err)
	}
	m := session.NewManager(store, session.Options{Debounce: cfg.Debounce})

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := m.Close(ctx); err != nil {
			log.Printf("WARNING: flushing pending saves: %v", err)
		}
		if err := store.Close(); err != nil {
			log.Printf("WARNING: closing storage: %v", err)
		}
	}
	return &Backend{Store: store, Manager: m}, cleanup, nil
}

// New creates the MCP server with all tools, prompts and resources
// registered against b.
func New(b *Backend) *server.MCPServer {
	s := server.NewMCPServer(
		"phasegate",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register project tools ---

	createTool := tools.NewCreateTool(b.Manager)
	s.AddTool(createTool.Definition(), createTool.Handle)

	listTool := tools.NewListTool(b.Manager)
	s.AddTool(listTool.Definition(), listTool.Handle)

	statusTool := tools.NewStatusTool(b.Manager)
	s.AddTool(statusTool.Definition(), statusTool.Handle)

	archiveTool := tools.NewArchiveTool(b.Manager)
	s.AddTool(archiveTool.Definition(), archiveTool.Handle)

	deleteTool := tools.NewDeleteTool(b.Manager)
	s.AddTool(deleteTool.Definition(), deleteTool.Handle)

	// --- Register gate tools ---

	sectionTool := tools.NewSectionUpdateTool(b.Manager)
	s.AddTool(sectionTool.Definition(), sectionTool.Handle)

	approveTool := tools.NewApproveTool(b.Manager)
	s.AddTool(approveTool.Definition(), approveTool.Handle)

	reopenTool := tools.NewReopenTool(b.Manager)
	s.AddTool(reopenTool.Definition(), reopenTool.Handle)

	evaluateTool := tools.NewEvaluateTool(b.Manager)
	s.AddTool(evaluateTool.Definition(), evaluateTool.Handle)

	// --- Register traceability tools ---

	traceAdd := tools.NewTraceAddTool(b.Manager)
	s.AddTool(traceAdd.Definition(), traceAdd.Handle)

	traceRemove := tools.NewTraceRemoveTool(b.Manager)
	s.AddTool(traceRemove.Definition(), traceRemove.Handle)

	traceReanalyze := tools.NewTraceReanalyzeTool(b.Manager)
	s.AddTool(traceReanalyze.Definition(), traceReanalyze.Handle)

	traceCoverage := tools.NewTraceCoverageTool(b.Manager)
	s.AddTool(traceCoverage.Definition(), traceCoverage.Handle)

	// --- Register chat tools ---

	chatAppend := tools.NewChatAppendTool(b.Manager, b.Store)
	s.AddTool(chatAppend.Definition(), chatAppend.Handle)

	chatHistory := tools.NewChatHistoryTool(b.Manager, b.Store)
	s.AddTool(chatHistory.Definition(), chatHistory.Handle)

	// --- Register prompts ---

	startPrompt := prompts.NewStartPrompt()
	s.AddPrompt(startPrompt.Definition(), startPrompt.Handle)

	statusPrompt := prompts.NewStatusPrompt()
	s.AddPrompt(statusPrompt.Definition(), statusPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(b.Manager)
	s.AddResource(resourceHandler.ProjectsResource(), resourceHandler.HandleProjects)

	return s
}

// noop is a no-op cleanup function.
func noop() {}

// serverInstructions returns the system instructions that tell the AI
// how to use phasegate.
func serverInstructions() string {
	return `You have access to phasegate, a phase-gated authoring server for
Spec → Plan → Tasks documents.

## HOW PHASES WORK

Every project has three phases in a fixed order: spec, plan, tasks.
Each phase is locked, draft or reviewed.

- A new project starts with spec in draft and plan/tasks locked.
- Only draft phases can be edited (section_update).
- phase_approve marks a draft phase reviewed once every section has content
  and the phase before it is reviewed, and unlocks the next phase.
- Reviewed phases are read-only. phase_reopen returns one to draft and sends
  every later phase back to draft too. Ask the user before reopening.

## EVALUATIONS

phase_evaluate runs rule checks on a phase and stores the result with a
fingerprint of the content. Editing the phase discards the evaluation, so
re-run it after changes. Approval never requires an evaluation, but suggest
one before approving. You may attach your own review as deep_analysis (JSON).

## REQUIREMENTS AND TRACEABILITY

Write spec requirements as "**FR-001**: ..." (or "## Req 1: ..." headings) so
they can be traced. trace_add records a manual mapping from a requirement to
a plan section or task. trace_reanalyze replaces every AI mapping with the
JSON array you pass, so an empty array clears them; manual mappings are
never touched. trace_coverage shows
which requirements are covered.

## CONVERSATION

Use chat_append to keep notable user decisions with the project, and
chat_history to recall them in a later session.`
}
