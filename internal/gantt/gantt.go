// Package gantt 根据任务日期生成甘特图数据
package gantt

import (
	"sort"

	"projecthub/internal/model"
)

// 按优先级着色
const (
	ColorHigh    = "#ff0000"
	ColorMedium  = "#ff9900"
	ColorLow     = "#00ff00"
	colorDefault = "#cccccc"
)

type Bar struct {
	TaskID   int              `json:"task_id"`
	Name     string           `json:"name"`
	Start    model.Date       `json:"start"`
	End      model.Date       `json:"end"`
	Progress int              `json:"progress"`
	Status   model.TaskStatus `json:"status"`
	Color    string           `json:"color"`
}

// Chart 图表窗口为所有任务的最早开始到最晚结束
type Chart struct {
	ProjectID int        `json:"project_id"`
	Title     string     `json:"title"`
	Start     model.Date `json:"start"`
	End       model.Date `json:"end"`
	Bars      []Bar      `json:"bars"`
	Skipped   int        `json:"skipped"`
}

// Build 只有同时具备开始与截止日期的任务才会出现在图上
func Build(p model.Project, tasks []model.Task) Chart {
	chart := Chart{ProjectID: p.ID, Title: p.Title, Bars: []Bar{}}
	for _, t := range tasks {
		if !model.Present(t.StartDate) || !model.Present(t.Deadline) {
			chart.Skipped++
			continue
		}
		chart.Bars = append(chart.Bars, Bar{
			TaskID:   t.ID,
			Name:     t.Title,
			Start:    *t.StartDate,
			End:      *t.Deadline,
			Progress: statusProgress(t.Status),
			Status:   t.Status,
			Color:    priorityColor(t.Priority),
		})
	}

	sort.SliceStable(chart.Bars, func(i, j int) bool {
		a, b := chart.Bars[i], chart.Bars[j]
		if !a.Start.Equal(b.Start.Time) {
			return a.Start.Before(b.Start)
		}
		return a.TaskID < b.TaskID
	})

	for i, b := range chart.Bars {
		if i == 0 || b.Start.Before(chart.Start) {
			chart.Start = b.Start
		}
		if i == 0 || b.End.After(chart.End) {
			chart.End = b.End
		}
	}
	return chart
}

func statusProgress(s model.TaskStatus) int {
	switch s {
	case model.TaskStatusCompleted:
		return 100
	case model.TaskStatusInProgress:
		return 50
	default:
		return 0
	}
}

func priorityColor(p model.TaskPriority) string {
	switch p {
	case model.TaskPriorityHigh:
		return ColorHigh
	case model.TaskPriorityMedium:
		return ColorMedium
	case model.TaskPriorityLow:
		return ColorLow
	default:
		return colorDefault
	}
}
