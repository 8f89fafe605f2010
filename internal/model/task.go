package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

type Task struct {
	ID             int                 `json:"id"`
	ProjectID      int                 `json:"project_id"`
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	Status         TaskStatus          `json:"status"`
	Priority       TaskPriority        `json:"priority"`
	UserID         *int                `json:"user_id,omitempty"` // 负责人，可为空
	StartDate      *Date               `json:"start_date,omitempty"`
	Deadline       *Date               `json:"deadline,omitempty"`
	EstimatedHours decimal.NullDecimal `json:"estimated_hours"`
	ActualHours    decimal.NullDecimal `json:"actual_hours"`
	CreatedAt      time.Time           `json:"created_at,omitempty"`
	UpdatedAt      time.Time           `json:"updated_at,omitempty"`
}

// TaskInput 创建/更新任务的表单
type TaskInput struct {
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	Status         TaskStatus          `json:"status"`
	Priority       TaskPriority        `json:"priority"`
	UserID         *int                `json:"user_id,omitempty"`
	StartDate      *Date               `json:"start_date,omitempty"`
	Deadline       *Date               `json:"deadline,omitempty"`
	EstimatedHours decimal.NullDecimal `json:"estimated_hours"`
	ActualHours    decimal.NullDecimal `json:"actual_hours"`
}

// TaskStatusUpdate 成员在自己的视图里更新状态与实际工时
type TaskStatusUpdate struct {
	Status      TaskStatus      `json:"status"`
	ActualHours decimal.Decimal `json:"actual_hours"`
}

// InputFromTask 以现有任务为基础构造完整的更新表单，避免覆盖未修改字段
func InputFromTask(t Task) TaskInput {
	return TaskInput{
		Title:          t.Title,
		Description:    t.Description,
		Status:         t.Status,
		Priority:       t.Priority,
		UserID:         t.UserID,
		StartDate:      t.StartDate,
		Deadline:       t.Deadline,
		EstimatedHours: t.EstimatedHours,
		ActualHours:    t.ActualHours,
	}
}
