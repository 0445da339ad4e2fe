package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/HendryAvila/phasegate/internal/project"
	"github.com/HendryAvila/phasegate/internal/session"
	"github.com/HendryAvila/phasegate/internal/storage"
	"github.com/gin-gonic/gin"
)

// mutation is the body of every mutating response.
type mutation struct {
	Project project.Project `json:"project"`
	Changed bool            `json:"changed"`
}

// openSession loads the project named by the :id parameter, writing the
// error response itself when that fails.
func (h *Handler) openSession(c *gin.Context) (*session.Session, bool) {
	s, err := h.manager.Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return s, true
}

// phaseParam parses the :phase parameter.
func phaseParam(c *gin.Context) (project.PhaseType, bool) {
	phase, err := project.ParsePhaseType(c.Param("phase"))
	if err != nil {
		badRequest(c, err.Error())
		return "", false
	}
	return phase, true
}

//
// PROJECTS
//

func (h *Handler) ListProjects(c *gin.Context) {
	includeArchived, _ := strconv.ParseBool(c.Query("include_archived"))
	projects, err := h.manager.List(c.Request.Context(), includeArchived)
	if err != nil {
		writeError(c, err)
		return
	}
	if projects == nil {
		projects = []project.Project{}
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

type createRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) CreateProject(c *gin.Context) {
	var body createRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "name is required")
		return
	}
	s, err := h.manager.Create(c.Request.Context(), body.Name)
	if err != nil {
		if mapped(err) {
			writeError(c, err)
			return
		}
		badRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusCreated, mutation{Project: s.Project(), Changed: true})
}

func (h *Handler) GetProject(c *gin.Context) {
	s, ok := h.openSession(c)
	if !ok {
		return
	}
	p := s.Project()
	resp := gin.H{
		"project":  p,
		"coverage": project.GetCoverageStats(p),
	}
	if score, ok := project.HealthScore(p); ok {
		resp["health"] = score
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) DeleteProject(c *gin.Context) {
	if err := h.manager.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ArchiveProject(c *gin.Context) {
	s, ok := h.openSession(c)
	if !ok {
		return
	}
	p, changed, err := s.Archive(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, mutation{Project: p, Changed: changed})
}

func (h *Handler) UnarchiveProject(c *gin.Context) {
	s, ok := h.openSession(c)
	if !ok {
		return
	}
	p, changed, err := s.Unarchive(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, mutation{Project: p, Changed: changed})
}

//
// PHASES
//

type sectionRequest struct {
	Content *string `json:"content" binding:"required"`
}

func (h *Handler) UpdateSection(c *gin.Context) {
	phase, ok := phaseParam(c)
	if !ok {
		return
	}
	var body sectionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "content is required")
		return
	}
	s, ok := h.openSession(c)
	if !ok {
		return
	}
	p, changed, err := s.UpdateSection(c.Request.Context(), phase, c.Param("section"), *body.Content)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, mutation{Project: p, Changed: changed})
}

func (h *Handler) ApprovePhase(c *gin.Context) {
	phase, ok := phaseParam(c)
	if !ok {
		return
	}
	s, ok := h.openSession(c)
	if !ok {
		return
	}
	p, changed, err := s.Approve(c.Request.Context(), phase)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := gin.H{"project": p, "changed": changed}
	if !changed {
		// p is the version the approval was refused on.
		if reason := project.CanApprove(p, phase); reason != nil {
			resp["reason"] = reason.Error()
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) ReopenPhase(c *gin.Context) {
	phase, ok := phaseParam(c)
	if !ok {
		return
	}
	s, ok := h.openSession(c)
	if !ok {
		return
	}
	p, changed, err := s.Reopen(c.Request.Context(), phase)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, mutation{Project: p, Changed: changed})
}

type evaluateRequest struct {
	DeepAnalysis json.RawMessage `json:"deep_analysis"`
}

func (h *Handler) EvaluatePhase(c *gin.Context) {
	phase, ok := phaseParam(c)
	if !ok {
		return
	}
	var body evaluateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, "deep_analysis must be valid JSON")
			return
		}
	}
	deep := body.DeepAnalysis
	if bytes.Equal(bytes.TrimSpace(deep), []byte("null")) {
		deep = nil
	}

	s, ok := h.openSession(c)
	if !ok {
		return
	}
	p, ev, err := s.Evaluate(c.Request.Context(), phase, deep)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": p, "changed": true, "evaluation": ev})
}

//
// TRACEABILITY
//

func (h *Handler) GetTrace(c *gin.Context) {
	s, ok := h.openSession(c)
	if !ok {
		return
	}
	p := s.Project()
	reqs := project.ParseRequirementIDs(p)
	if reqs == nil {
		reqs = []project.RequirementRef{}
	}
	mappings := p.TraceabilityMappings
	if mappings == nil {
		mappings = []project.TraceabilityMapping{}
	}
	c.JSON(http.StatusOK, gin.H{
		"requirements": reqs,
		"mappings":     mappings,
		"coverage":     project.GetCoverageStats(p),
	})
}

type mappingRequest struct {
	RequirementID    string `json:"requirement_id" binding:"required"`
	RequirementLabel string `json:"requirement_label"`
	TargetType       string `json:"target_type" binding:"required"`
	TargetID         string `json:"target_id" binding:"required"`
	TargetLabel      string `json:"target_label"`
}

func (h *Handler) AddMapping(c *gin.Context) {
	var body mappingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "requirement_id, target_type and target_id are required")
		return
	}
	m, err := project.NewManualMapping(body.RequirementID, body.RequirementLabel, body.TargetType, body.TargetID, body.TargetLabel)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	s, ok := h.openSession(c)
	if !ok {
		return
	}
	p, err := s.AddMapping(c.Request.Context(), m)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"project": p, "changed": true, "mapping": m})
}

func (h *Handler) RemoveMapping(c *gin.Context) {
	s, ok := h.openSession(c)
	if !ok {
		return
	}
	p, changed, err := s.RemoveMapping(c.Request.Context(), c.Param("mapping"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, mutation{Project: p, Changed: changed})
}

type reanalyzeRequest struct {
	Mappings string `json:"mappings"`
}

func (h *Handler) Reanalyze(c *gin.Context) {
	var body reanalyzeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "body must be a JSON object with a mappings string")
		return
	}
	s, ok := h.openSession(c)
	if !ok {
		return
	}
	p, n, changed, err := s.Reanalyze(c.Request.Context(), body.Mappings)
	if errors.Is(err, session.ErrUnreadableAnalysis) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "project": p})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": p, "changed": changed, "applied": n})
}

//
// CHAT
//

func (h *Handler) ChatHistory(c *gin.Context) {
	s, ok := h.openSession(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	msgs, err := h.chat.ChatHistory(c.Request.Context(), s.ID(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	if msgs == nil {
		msgs = []storage.ChatMessage{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

type chatRequest struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content" binding:"required"`
}

func (h *Handler) AppendChat(c *gin.Context) {
	var body chatRequest
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Content) == "" {
		badRequest(c, "role and content are required")
		return
	}
	s, ok := h.openSession(c)
	if !ok {
		return
	}
	msg, err := h.chat.AppendChatMessage(c.Request.Context(), s.ID(), body.Role, body.Content)
	if err != nil {
		if mapped(err) {
			writeError(c, err)
			return
		}
		badRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusCreated, msg)
}
