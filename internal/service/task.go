package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"projecthub/internal/model"
	"projecthub/internal/session"
	"projecthub/internal/validation"
	"projecthub/pkg/logger"
	"projecthub/pkg/rbac"
)

type TaskService struct {
	api    API
	logger *zap.Logger
}

func (s *TaskService) List(ctx context.Context, sess *session.Session, projectID int) ([]model.Task, error) {
	return s.api.ListTasks(ctx, sess, projectID)
}

// validate 字段与工时检查，日期以所属项目为约束；返回的 warnings 不阻止提交
func (s *TaskService) validate(ctx context.Context, sess *session.Session, projectID int, in model.TaskInput) ([]string, error) {
	log := logger.WithTrace(ctx, s.logger)
	fields := validation.ValidateTaskInput(in)
	if err := reject(log, "task", fields); err != nil {
		return nil, err
	}

	project, err := s.api.GetProject(ctx, sess, projectID)
	if err != nil {
		return nil, err
	}
	if err := reject(log, "task_dates", validation.ValidateTask(in, project)); err != nil {
		return nil, err
	}
	return fields.Warnings, nil
}

// Create 返回创建的任务与工时警告
func (s *TaskService) Create(ctx context.Context, sess *session.Session, projectID int, in model.TaskInput) (model.Task, []string, error) {
	if err := rbac.CheckPermission(sess.Role, rbac.PermissionCreateTask); err != nil {
		return model.Task{}, nil, err
	}
	if in.Status == "" {
		in.Status = model.TaskStatusPending
	}
	warnings, err := s.validate(ctx, sess, projectID, in)
	if err != nil {
		return model.Task{}, nil, err
	}

	t, err := s.api.CreateTask(ctx, sess, projectID, in)
	if err != nil {
		return model.Task{}, nil, err
	}
	logger.WithTrace(ctx, s.logger).Info("Task created",
		zap.Int("project_id", projectID),
		zap.Int("task_id", t.ID),
		zap.Strings("warnings", warnings),
	)
	return t, warnings, nil
}

// Update 完整编辑任务，仅项目经理；成员走 UpdateStatus
func (s *TaskService) Update(ctx context.Context, sess *session.Session, projectID, taskID int, in model.TaskInput) (model.Task, []string, error) {
	if err := rbac.CheckPermission(sess.Role, rbac.PermissionEditTask); err != nil {
		return model.Task{}, nil, err
	}
	warnings, err := s.validate(ctx, sess, projectID, in)
	if err != nil {
		return model.Task{}, nil, err
	}

	t, err := s.api.UpdateTask(ctx, sess, projectID, taskID, in)
	if err != nil {
		return model.Task{}, nil, err
	}
	logger.WithTrace(ctx, s.logger).Info("Task updated",
		zap.Int("project_id", projectID),
		zap.Int("task_id", taskID),
	)
	return t, warnings, nil
}

// UpdateStatus 成员更新状态与实际工时；实际工时超过预估时拒绝提交
func (s *TaskService) UpdateStatus(ctx context.Context, sess *session.Session, projectID, taskID int, upd model.TaskStatusUpdate) (model.Task, error) {
	log := logger.WithTrace(ctx, s.logger)
	if err := rbac.CheckPermission(sess.Role, rbac.PermissionUpdateTask); err != nil {
		return model.Task{}, err
	}

	var r validation.Result
	if !validation.ValidStatus(upd.Status) {
		r.Errors = append(r.Errors, fmt.Sprintf("Invalid task status %q", upd.Status))
	}
	if upd.ActualHours.IsNegative() {
		r.Errors = append(r.Errors, "Actual hours cannot be negative")
	}
	if err := reject(log, "task_status", r); err != nil {
		return model.Task{}, err
	}

	task, err := s.find(ctx, sess, projectID, taskID)
	if err != nil {
		return model.Task{}, err
	}
	if !sess.IsProjectManager() && (task.UserID == nil || *task.UserID != sess.UserID) {
		return model.Task{}, rbac.DenyOwnership(sess.UserID, rbac.PermissionUpdateTask, "task is not assigned to you")
	}

	hours := validation.ValidateHours(decimal.NewNullDecimal(upd.ActualHours), task.EstimatedHours)
	if len(hours.Warnings) > 0 {
		// 成员视图把超出预估当作错误处理
		hours.Errors = append(hours.Errors, hours.Warnings...)
		hours.Warnings = nil
	}
	if err := reject(log, "hours", hours); err != nil {
		return model.Task{}, err
	}

	in := model.InputFromTask(task)
	in.Status = upd.Status
	in.ActualHours = decimal.NewNullDecimal(upd.ActualHours)

	updated, err := s.api.UpdateTask(ctx, sess, projectID, taskID, in)
	if err != nil {
		return model.Task{}, err
	}
	log.Info("Task status updated",
		zap.Int("project_id", projectID),
		zap.Int("task_id", taskID),
		zap.String("status", string(upd.Status)),
		zap.String("actual_hours", upd.ActualHours.String()),
	)
	return updated, nil
}

func (s *TaskService) Delete(ctx context.Context, sess *session.Session, projectID, taskID int) error {
	if err := rbac.CheckPermission(sess.Role, rbac.PermissionDeleteTask); err != nil {
		return err
	}
	if err := s.api.DeleteTask(ctx, sess, projectID, taskID); err != nil {
		return err
	}
	logger.WithTrace(ctx, s.logger).Info("Task deleted", zap.Int("project_id", projectID), zap.Int("task_id", taskID))
	return nil
}

func (s *TaskService) find(ctx context.Context, sess *session.Session, projectID, taskID int) (model.Task, error) {
	tasks, err := s.api.ListTasks(ctx, sess, projectID)
	if err != nil {
		return model.Task{}, err
	}
	for _, t := range tasks {
		if t.ID == taskID {
			return t, nil
		}
	}
	return model.Task{}, &NotFoundError{Kind: "task", ID: taskID}
}
