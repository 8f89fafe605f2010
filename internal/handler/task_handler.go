package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"projecthub/internal/model"
	"projecthub/internal/service"
)

type TaskHandler struct {
	tasks        *service.TaskService
	expenditures *service.ExpenditureService
	logger       *zap.Logger
}

func NewTaskHandler(tasks *service.TaskService, expenditures *service.ExpenditureService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, expenditures: expenditures, logger: logger}
}

// taskResponse 任务与非阻断的工时警告
type taskResponse struct {
	Task     model.Task `json:"task"`
	Warnings []string   `json:"warnings,omitempty"`
}

// List handles GET /api/projects/:projectID/tasks
func (h *TaskHandler) List(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "projectID")
	if !ok {
		return
	}
	tasks, err := h.tasks.List(c.Request.Context(), sess, projectID)
	if err != nil {
		respondError(c, requestLogger(c, h.logger, sess).With(zap.Int("project_id", projectID)), "List tasks", err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// Create handles POST /api/projects/:projectID/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "projectID")
	if !ok {
		return
	}
	log := requestLogger(c, h.logger, sess).With(zap.Int("project_id", projectID))

	var in model.TaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		log.Warn("Invalid task payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	log.Info("Create task request received", zap.String("title", in.Title))

	t, warnings, err := h.tasks.Create(c.Request.Context(), sess, projectID, in)
	if err != nil {
		respondError(c, log, "Create task", err)
		return
	}

	log.Info("Create task: success", zap.Int("task_id", t.ID), zap.Int("warnings", len(warnings)))
	c.JSON(http.StatusCreated, taskResponse{Task: t, Warnings: warnings})
}

// Update handles PUT /api/projects/:projectID/tasks/:taskID
func (h *TaskHandler) Update(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "projectID")
	if !ok {
		return
	}
	taskID, ok := pathID(c, "taskID")
	if !ok {
		return
	}
	log := requestLogger(c, h.logger, sess).With(zap.Int("project_id", projectID), zap.Int("task_id", taskID))

	var in model.TaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		log.Warn("Invalid task payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	t, warnings, err := h.tasks.Update(c.Request.Context(), sess, projectID, taskID, in)
	if err != nil {
		respondError(c, log, "Update task", err)
		return
	}
	c.JSON(http.StatusOK, taskResponse{Task: t, Warnings: warnings})
}

// UpdateStatus handles PATCH /api/projects/:projectID/tasks/:taskID/status
// 成员只能更新分配给自己的任务
func (h *TaskHandler) UpdateStatus(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "projectID")
	if !ok {
		return
	}
	taskID, ok := pathID(c, "taskID")
	if !ok {
		return
	}
	log := requestLogger(c, h.logger, sess).With(zap.Int("project_id", projectID), zap.Int("task_id", taskID))

	var upd model.TaskStatusUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		log.Warn("Invalid status payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	log.Info("Task status update received", zap.String("status", string(upd.Status)))

	t, err := h.tasks.UpdateStatus(c.Request.Context(), sess, projectID, taskID, upd)
	if err != nil {
		respondError(c, log, "Update task status", err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// Delete handles DELETE /api/projects/:projectID/tasks/:taskID
func (h *TaskHandler) Delete(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "projectID")
	if !ok {
		return
	}
	taskID, ok := pathID(c, "taskID")
	if !ok {
		return
	}
	if err := h.tasks.Delete(c.Request.Context(), sess, projectID, taskID); err != nil {
		respondError(c, requestLogger(c, h.logger, sess).With(zap.Int("task_id", taskID)), "Delete task", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Expenditures handles GET /api/projects/:projectID/expenditures
// 返回支出列表及预算汇总
func (h *TaskHandler) Expenditures(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "projectID")
	if !ok {
		return
	}
	view, err := h.expenditures.List(c.Request.Context(), sess, projectID)
	if err != nil {
		respondError(c, requestLogger(c, h.logger, sess).With(zap.Int("project_id", projectID)), "List expenditures", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// CreateExpenditure handles POST /api/projects/:projectID/expenditures
func (h *TaskHandler) CreateExpenditure(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "projectID")
	if !ok {
		return
	}
	log := requestLogger(c, h.logger, sess).With(zap.Int("project_id", projectID))

	var form model.ExpenditureForm
	if err := c.ShouldBindJSON(&form); err != nil {
		log.Warn("Invalid expenditure payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	log.Info("Create expenditure request received",
		zap.String("category", form.Category),
		zap.String("amount", form.Amount),
	)

	e, err := h.expenditures.Create(c.Request.Context(), sess, projectID, form)
	if err != nil {
		respondError(c, log, "Create expenditure", err)
		return
	}

	log.Info("Create expenditure: success", zap.Int("expenditure_id", e.ID))
	c.JSON(http.StatusCreated, e)
}
