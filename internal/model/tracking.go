package model

import "time"

// 风险与问题的枚举值与上游保持一致（首字母大写）
const (
	LevelLow    = "Low"
	LevelMedium = "Medium"
	LevelHigh   = "High"

	RiskIdentified = "Identified"
	RiskResolved   = "Resolved"

	SeverityMinor    = "Minor"
	SeverityMajor    = "Major"
	SeverityCritical = "Critical"

	IssueOpen       = "Open"
	IssueInProgress = "In Progress"
	IssueResolved   = "Resolved"
)

type Risk struct {
	ID             int       `json:"id"`
	ProjectID      int       `json:"project_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Probability    string    `json:"probability"`
	Impact         string    `json:"impact"`
	MitigationPlan string    `json:"mitigation_plan"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at,omitempty"`
}

type RiskInput struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Probability    string `json:"probability"`
	Impact         string `json:"impact"`
	MitigationPlan string `json:"mitigation_plan"`
	Status         string `json:"status"`
}

type Issue struct {
	ID              int       `json:"id"`
	ProjectID       int       `json:"project_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Severity        string    `json:"severity"`
	AssignedUserID  *int      `json:"assigned_user_id,omitempty"`
	Status          string    `json:"status"`
	ResolutionNotes string    `json:"resolution_notes"`
	CreatedAt       time.Time `json:"created_at,omitempty"`
}

type IssueInput struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Severity        string `json:"severity"`
	AssignedUserID  *int   `json:"assigned_user_id,omitempty"`
	Status          string `json:"status"`
	ResolutionNotes string `json:"resolution_notes"`
}
