package mq

import "time"

// ActivityRecordedPayload 动态流中的新记录
type ActivityRecordedPayload struct {
	ActivityID   int       `json:"activity_id"`
	Scope        string    `json:"scope"` // all / project-<id> / task-<id>
	ActivityType string    `json:"activity_type"`
	Description  string    `json:"description"`
	UserName     string    `json:"user_name,omitempty"`
	ProjectID    *int      `json:"project_id,omitempty"`
	TaskID       *int      `json:"task_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
