package gantt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projecthub/internal/model"
)

func TestBuild(t *testing.T) {
	p := model.Project{ID: 3, Title: "Migration"}
	tasks := []model.Task{
		{ID: 9, Title: "cutover", Status: model.TaskStatusPending, Priority: model.TaskPriorityHigh,
			StartDate: model.DatePtr(2024, 3, 10), Deadline: model.DatePtr(2024, 3, 20)},
		{ID: 4, Title: "design", Status: model.TaskStatusCompleted, Priority: model.TaskPriorityLow,
			StartDate: model.DatePtr(2024, 3, 1), Deadline: model.DatePtr(2024, 3, 5)},
		{ID: 2, Title: "backfill", Status: model.TaskStatusInProgress, Priority: model.TaskPriorityMedium,
			StartDate: model.DatePtr(2024, 3, 10), Deadline: model.DatePtr(2024, 3, 25)},
		{ID: 5, Title: "undated", StartDate: model.DatePtr(2024, 3, 2)},
	}

	chart := Build(p, tasks)
	require.Len(t, chart.Bars, 3)
	assert.Equal(t, 1, chart.Skipped)

	assert.Equal(t, []int{4, 2, 9}, []int{chart.Bars[0].TaskID, chart.Bars[1].TaskID, chart.Bars[2].TaskID})
	assert.Equal(t, 100, chart.Bars[0].Progress)
	assert.Equal(t, 50, chart.Bars[1].Progress)
	assert.Equal(t, 0, chart.Bars[2].Progress)
	assert.Equal(t, ColorLow, chart.Bars[0].Color)
	assert.Equal(t, ColorMedium, chart.Bars[1].Color)
	assert.Equal(t, ColorHigh, chart.Bars[2].Color)

	assert.Equal(t, "2024-03-01", chart.Start.String())
	assert.Equal(t, "2024-03-25", chart.End.String())
}

func TestBuildEmpty(t *testing.T) {
	chart := Build(model.Project{ID: 1}, nil)
	assert.Empty(t, chart.Bars)
	assert.True(t, chart.Start.IsZero())
}
