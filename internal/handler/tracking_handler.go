package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"projecthub/internal/model"
	"projecthub/internal/service"
)

// TrackingHandler 风险与问题
type TrackingHandler struct {
	risks  *service.RiskService
	issues *service.IssueService
	logger *zap.Logger
}

func NewTrackingHandler(risks *service.RiskService, issues *service.IssueService, logger *zap.Logger) *TrackingHandler {
	return &TrackingHandler{risks: risks, issues: issues, logger: logger}
}

// ListRisks handles GET /api/projects/:projectID/risks
func (h *TrackingHandler) ListRisks(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "projectID")
	if !ok {
		return
	}
	risks, err := h.risks.List(c.Request.Context(), sess, projectID)
	if err != nil {
		respondError(c, requestLogger(c, h.logger, sess).With(zap.Int("project_id", projectID)), "List risks", err)
		return
	}
	c.JSON(http.StatusOK, risks)
}

// CreateRisk handles POST /api/projects/:projectID/risks
func (h *TrackingHandler) CreateRisk(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "projectID")
	if !ok {
		return
	}
	log := requestLogger(c, h.logger, sess).With(zap.Int("project_id", projectID))

	var in model.RiskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		log.Warn("Invalid risk payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	r, err := h.risks.Create(c.Request.Context(), sess, projectID, in)
	if err != nil {
		respondError(c, log, "Create risk", err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

// UpdateRisk handles PUT /api/projects/:projectID/risks/:riskID
func (h *TrackingHandler) UpdateRisk(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "projectID")
	if !ok {
		return
	}
	riskID, ok := pathID(c, "riskID")
	if !ok {
		return
	}
	log := requestLogger(c, h.logger, sess).With(zap.Int("risk_id", riskID))

	var in model.RiskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		log.Warn("Invalid risk payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	r, err := h.risks.Update(c.Request.Context(), sess, projectID, riskID, in)
	if err != nil {
		respondError(c, log, "Update risk", err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// DeleteRisk handles DELETE /api/projects/:projectID/risks/:riskID
func (h *TrackingHandler) DeleteRisk(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "projectID")
	if !ok {
		return
	}
	riskID, ok := pathID(c, "riskID")
	if !ok {
		return
	}
	if err := h.risks.Delete(c.Request.Context(), sess, projectID, riskID); err != nil {
		respondError(c, requestLogger(c, h.logger, sess).With(zap.Int("risk_id", riskID)), "Delete risk", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListIssues handles GET /api/projects/:projectID/issues
func (h *TrackingHandler) ListIssues(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "projectID")
	if !ok {
		return
	}
	issues, err := h.issues.List(c.Request.Context(), sess, projectID)
	if err != nil {
		respondError(c, requestLogger(c, h.logger, sess).With(zap.Int("project_id", projectID)), "List issues", err)
		return
	}
	c.JSON(http.StatusOK, issues)
}

// CreateIssue handles POST /api/projects/:projectID/issues
func (h *TrackingHandler) CreateIssue(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "projectID")
	if !ok {
		return
	}
	log := requestLogger(c, h.logger, sess).With(zap.Int("project_id", projectID))

	var in model.IssueInput
	if err := c.ShouldBindJSON(&in); err != nil {
		log.Warn("Invalid issue payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	issue, err := h.issues.Create(c.Request.Context(), sess, projectID, in)
	if err != nil {
		respondError(c, log, "Create issue", err)
		return
	}
	c.JSON(http.StatusCreated, issue)
}

// UpdateIssue handles PUT /api/projects/:projectID/issues/:issueID
func (h *TrackingHandler) UpdateIssue(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "projectID")
	if !ok {
		return
	}
	issueID, ok := pathID(c, "issueID")
	if !ok {
		return
	}
	log := requestLogger(c, h.logger, sess).With(zap.Int("issue_id", issueID))

	var in model.IssueInput
	if err := c.ShouldBindJSON(&in); err != nil {
		log.Warn("Invalid issue payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	issue, err := h.issues.Update(c.Request.Context(), sess, projectID, issueID, in)
	if err != nil {
		respondError(c, log, "Update issue", err)
		return
	}
	c.JSON(http.StatusOK, issue)
}

// DeleteIssue handles DELETE /api/projects/:projectID/issues/:issueID
func (h *TrackingHandler) DeleteIssue(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "projectID")
	if !ok {
		return
	}
	issueID, ok := pathID(c, "issueID")
	if !ok {
		return
	}
	if err := h.issues.Delete(c.Request.Context(), sess, projectID, issueID); err != nil {
		respondError(c, requestLogger(c, h.logger, sess).With(zap.Int("issue_id", issueID)), "Delete issue", err)
		return
	}
	c.Status(http.StatusNoContent)
}
