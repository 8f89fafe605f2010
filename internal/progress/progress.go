// Package progress 任务与项目的进度计算，全部为纯函数
package progress

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"projecthub/internal/budget"
	"projecthub/internal/model"
)

// TaskProgress 实际工时占预估工时的百分比，不截断到 100
func TaskProgress(actual, estimated decimal.NullDecimal) float64 {
	if !estimated.Valid || estimated.Decimal.IsZero() {
		return 0
	}
	spent := decimal.Zero
	if actual.Valid {
		spent = actual.Decimal
	}
	pct, _ := spent.Mul(decimal.NewFromInt(100)).Div(estimated.Decimal).Float64()
	return pct
}

// Overrun 实际工时超过预估
func Overrun(actual, estimated decimal.NullDecimal) bool {
	return TaskProgress(actual, estimated) > 100
}

// TaskCompletion 已完成任务占比
func TaskCompletion(tasks []model.Task) int {
	if len(tasks) == 0 {
		return 0
	}
	done := 0
	for _, t := range tasks {
		if t.Status == model.TaskStatusCompleted {
			done++
		}
	}
	return roundPercent(float64(done), float64(len(tasks)))
}

// TimelineProgress 时间进度：开始前 0，截止后 100，中间线性插值
func TimelineProgress(start, deadline *model.Date, now time.Time) int {
	if !model.Present(start) || !model.Present(deadline) {
		return 0
	}
	if now.Before(start.Time) {
		return 0
	}
	if now.After(deadline.Time) {
		return 100
	}
	window := deadline.Sub(start.Time)
	if window <= 0 {
		return 100
	}
	return roundPercent(float64(now.Sub(start.Time)), float64(window))
}

// BudgetProgress 预算使用率
func BudgetProgress(p model.Project, expenditures []model.Expenditure) int {
	return budget.Summarize(p, expenditures).UtilizationPercent
}

func roundPercent(part, whole float64) int {
	return int(math.Round(100 * part / whole))
}

// ProjectProgress 项目进度总览的一行
type ProjectProgress struct {
	ProjectID      int            `json:"project_id"`
	Title          string         `json:"title"`
	TaskCompletion int            `json:"task_completion"`
	Timeline       int            `json:"timeline"`
	Budget         int            `json:"budget"`
	BudgetLevel    string         `json:"budget_level"`
	Summary        budget.Summary `json:"summary"`
	TaskCount      int            `json:"task_count"`
	OverrunTasks   []int          `json:"overrun_tasks,omitempty"`
}

// Overview 组合三种进度
func Overview(p model.Project, tasks []model.Task, expenditures []model.Expenditure, now time.Time) ProjectProgress {
	summary := budget.Summarize(p, expenditures)
	pp := ProjectProgress{
		ProjectID:      p.ID,
		Title:          p.Title,
		TaskCompletion: TaskCompletion(tasks),
		Timeline:       TimelineProgress(p.StartDate, p.Deadline, now),
		Budget:         summary.UtilizationPercent,
		BudgetLevel:    summary.Level,
		Summary:        summary,
		TaskCount:      len(tasks),
	}
	for _, t := range tasks {
		if Overrun(t.ActualHours, t.EstimatedHours) {
			pp.OverrunTasks = append(pp.OverrunTasks, t.ID)
		}
	}
	return pp
}
