package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Project struct {
	ID              int                 `json:"id"`
	UserID          int                 `json:"user_id,omitempty"`
	Title           string              `json:"title"`
	Description     string              `json:"description"`
	Budget          decimal.Decimal     `json:"budget"`
	RemainingBudget decimal.NullDecimal `json:"remaining_budget"`
	StartDate       *Date               `json:"start_date,omitempty"`
	Deadline        *Date               `json:"deadline,omitempty"`
	Tasks           []Task              `json:"tasks,omitempty"`
	CreatedAt       time.Time           `json:"created_at,omitempty"`
	UpdatedAt       time.Time           `json:"updated_at,omitempty"`
}

// ProjectInput 创建/更新项目的表单
type ProjectInput struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Budget      decimal.Decimal `json:"budget"`
	UserID      int             `json:"user_id,omitempty"`
	StartDate   *Date           `json:"start_date,omitempty"`
	Deadline    *Date           `json:"deadline,omitempty"`
}

// ProjectAssignment Member-Dashboard 返回的一条记录：项目 + 分配给当前成员的部分任务
type ProjectAssignment struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Tasks []Task `json:"tasks"`
}

// ProjectGroup 合并后的成员视图
type ProjectGroup struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Tasks []Task `json:"tasks"`
}

// Dashboard /dashboard 与 /Member-Dashboard 的响应
type Dashboard struct {
	Message  string    `json:"message"`
	Projects []Project `json:"projects"`
}

type MemberDashboard struct {
	Message  string              `json:"message"`
	Projects []ProjectAssignment `json:"projects"`
}
