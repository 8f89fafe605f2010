package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"projecthub/internal/model"
	"projecthub/internal/service"
)

type ProjectHandler struct {
	projects  *service.ProjectService
	dashboard *service.DashboardService
	logger    *zap.Logger
}

func NewProjectHandler(projects *service.ProjectService, dashboard *service.DashboardService, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, dashboard: dashboard, logger: logger}
}

// Dashboard handles GET /api/dashboard（项目经理）
func (h *ProjectHandler) Dashboard(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	d, err := h.projects.Dashboard(c.Request.Context(), sess)
	if err != nil {
		respondError(c, requestLogger(c, h.logger, sess), "Load dashboard", err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// MemberDashboard handles GET /api/Member-Dashboard
// 上游按任务返回的项目记录在这里按项目合并
func (h *ProjectHandler) MemberDashboard(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	view, err := h.dashboard.Member(c.Request.Context(), sess)
	if err != nil {
		respondError(c, requestLogger(c, h.logger, sess), "Load member dashboard", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// List handles GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	projects, err := h.projects.List(c.Request.Context(), sess)
	if err != nil {
		respondError(c, requestLogger(c, h.logger, sess), "List projects", err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

// Get handles GET /api/projects/:projectID
func (h *ProjectHandler) Get(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "projectID")
	if !ok {
		return
	}
	p, err := h.projects.Get(c.Request.Context(), sess, projectID)
	if err != nil {
		respondError(c, requestLogger(c, h.logger, sess).With(zap.Int("project_id", projectID)), "Get project", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Create handles POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	log := requestLogger(c, h.logger, sess)

	var in model.ProjectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		log.Warn("Invalid project payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	log.Info("Create project request received", zap.String("title", in.Title))

	p, err := h.projects.Create(c.Request.Context(), sess, in)
	if err != nil {
		respondError(c, log, "Create project", err)
		return
	}

	log.Info("Create project: success", zap.Int("project_id", p.ID))
	c.JSON(http.StatusCreated, p)
}

// Update handles PUT /api/projects/:projectID
func (h *ProjectHandler) Update(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "projectID")
	if !ok {
		return
	}
	log := requestLogger(c, h.logger, sess).With(zap.Int("project_id", projectID))

	var in model.ProjectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		log.Warn("Invalid project payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	log.Info("Update project request received")

	p, err := h.projects.Update(c.Request.Context(), sess, projectID, in)
	if err != nil {
		respondError(c, log, "Update project", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Delete handles DELETE /api/projects/:projectID
func (h *ProjectHandler) Delete(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "projectID")
	if !ok {
		return
	}
	log := requestLogger(c, h.logger, sess).With(zap.Int("project_id", projectID))

	if err := h.projects.Delete(c.Request.Context(), sess, projectID); err != nil {
		respondError(c, log, "Delete project", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Progress handles GET /api/projects/:projectID/progress
func (h *ProjectHandler) Progress(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "projectID")
	if !ok {
		return
	}
	p, err := h.projects.Progress(c.Request.Context(), sess, projectID)
	if err != nil {
		respondError(c, requestLogger(c, h.logger, sess).With(zap.Int("project_id", projectID)), "Compute progress", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Overview handles GET /api/progress（所有项目）
func (h *ProjectHandler) Overview(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	all, err := h.projects.Overview(c.Request.Context(), sess)
	if err != nil {
		respondError(c, requestLogger(c, h.logger, sess), "Compute progress overview", err)
		return
	}
	c.JSON(http.StatusOK, all)
}

// Gantt handles GET /api/projects/:projectID/gantt
func (h *ProjectHandler) Gantt(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "projectID")
	if !ok {
		return
	}
	chart, err := h.projects.Gantt(c.Request.Context(), sess, projectID)
	if err != nil {
		respondError(c, requestLogger(c, h.logger, sess).With(zap.Int("project_id", projectID)), "Build gantt chart", err)
		return
	}
	c.JSON(http.StatusOK, chart)
}
