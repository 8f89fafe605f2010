package validation

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projecthub/internal/model"
)

func d(y int, m time.Month, day int) *model.Date { return model.DatePtr(y, m, day) }

func TestValidateProjectDates(t *testing.T) {
	tests := []struct {
		name     string
		start    *model.Date
		deadline *model.Date
		wantErrs []string
	}{
		{"start after deadline", d(2024, 5, 10), d(2024, 5, 1), []string{MsgProjectStartAfterDeadline}},
		{"same day", d(2024, 5, 1), d(2024, 5, 1), nil},
		{"ordered", d(2024, 5, 1), d(2024, 6, 1), nil},
		{"missing start", nil, d(2024, 5, 1), nil},
		{"missing deadline", d(2024, 5, 1), nil, nil},
		{"zero value counts as missing", &model.Date{}, d(2024, 5, 1), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ValidateProjectDates(tt.start, tt.deadline)
			assert.Equal(t, tt.wantErrs, r.Errors)
			assert.Equal(t, len(tt.wantErrs) == 0, r.IsValid())
		})
	}
}

func TestValidateTaskDates(t *testing.T) {
	ps, pd := d(2024, 1, 1), d(2024, 1, 31)

	t.Run("inside window", func(t *testing.T) {
		r := ValidateTaskDates(d(2024, 1, 5), d(2024, 1, 10), ps, pd)
		assert.True(t, r.IsValid())
	})

	t.Run("boundaries are inclusive", func(t *testing.T) {
		r := ValidateTaskDates(d(2024, 1, 1), d(2024, 1, 31), ps, pd)
		assert.True(t, r.IsValid())
	})

	t.Run("all three violations reported", func(t *testing.T) {
		r := ValidateTaskDates(d(2023, 12, 31), d(2023, 12, 1), d(2024, 1, 1), d(2023, 11, 30))
		assert.Equal(t, []string{
			MsgTaskStartBeforeProject,
			MsgTaskDeadlineAfterProject,
			MsgTaskDeadlineBeforeStart,
		}, r.Errors)
	})

	t.Run("deadline before own start only", func(t *testing.T) {
		r := ValidateTaskDates(d(2024, 1, 10), d(2024, 1, 5), ps, pd)
		assert.Equal(t, []string{MsgTaskDeadlineBeforeStart}, r.Errors)
	})

	t.Run("time of day is ignored", func(t *testing.T) {
		late := model.Date{Time: time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)}
		r := ValidateTaskDates(d(2024, 1, 1), nil, &late, nil)
		assert.True(t, r.IsValid())
	})

	t.Run("absent project dates do not constrain", func(t *testing.T) {
		r := ValidateTaskDates(d(1999, 1, 1), d(2099, 1, 1), nil, nil)
		assert.True(t, r.IsValid())
	})
}

func TestFieldChecks(t *testing.T) {
	assert.False(t, TaskStartDateValid(d(2023, 12, 31), d(2024, 1, 1)))
	assert.True(t, TaskStartDateValid(nil, d(2024, 1, 1)))
	assert.False(t, TaskDeadlineValid(nil, d(2024, 2, 1), d(2024, 1, 31)))
	assert.False(t, TaskDeadlineValid(d(2024, 1, 10), d(2024, 1, 9), nil))
	assert.True(t, TaskDeadlineValid(d(2024, 1, 10), d(2024, 1, 10), d(2024, 1, 10)))
}

func TestParseAmount(t *testing.T) {
	amount, err := ParseAmount(" 100.50 ")
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.RequireFromString("100.5")))

	for _, raw := range []string{"", "abc", "0", "-3", "12,5"} {
		_, err := ParseAmount(raw)
		assert.Error(t, err, raw)
	}
}

func TestValidateExpenditure(t *testing.T) {
	in, r := ValidateExpenditure(model.ExpenditureForm{
		Description: "Laptops",
		Category:    model.CategoryEquipment,
		Amount:      "2500",
		Date:        "2024-03-02",
	})
	require.True(t, r.IsValid(), r.Errors)
	assert.Equal(t, "2024-03-02", in.Date.String())
	assert.True(t, in.Amount.Equal(decimal.NewFromInt(2500)))

	_, r = ValidateExpenditure(model.ExpenditureForm{Category: "Food", Amount: "x"})
	assert.Len(t, r.Errors, 4)
}

func TestValidateHours(t *testing.T) {
	est := decimal.NewNullDecimal(decimal.NewFromInt(10))
	over := decimal.NewNullDecimal(decimal.NewFromInt(12))

	r := ValidateHours(over, est)
	assert.True(t, r.IsValid())
	assert.Equal(t, []string{MsgActualExceedsEstimate}, r.Warnings)

	r = ValidateHours(decimal.NewNullDecimal(decimal.NewFromInt(-1)), decimal.NullDecimal{})
	assert.False(t, r.IsValid())
}

func TestValidateTaskInput(t *testing.T) {
	r := ValidateTaskInput(model.TaskInput{Title: "Write docs", Status: model.TaskStatusPending, Priority: model.TaskPriorityLow})
	assert.True(t, r.IsValid())

	r = ValidateTaskInput(model.TaskInput{Status: "done", Priority: "urgent"})
	assert.Len(t, r.Errors, 3)
}

func TestValidateRiskAndIssue(t *testing.T) {
	ok := ValidateRiskInput(model.RiskInput{Title: "Vendor delay", Probability: "High", Impact: "Low", Status: "Identified"})
	assert.True(t, ok.IsValid())

	bad := ValidateRiskInput(model.RiskInput{Title: "x", Probability: "high", Impact: "Low", Status: "Open"})
	assert.Len(t, bad.Errors, 2)

	ok = ValidateIssueInput(model.IssueInput{Title: "Crash", Severity: "Critical", Status: "In Progress"})
	assert.True(t, ok.IsValid())
}

func TestValidateRole(t *testing.T) {
	assert.True(t, ValidateRole("Project Manager").IsValid())
	assert.True(t, ValidateRole("Team Member").IsValid())
	assert.False(t, ValidateRole("Admin").IsValid())
}

func TestResultErr(t *testing.T) {
	assert.NoError(t, Result{Warnings: []string{"w"}}.Err("x"))

	err := ValidateProjectDates(d(2024, 2, 1), d(2024, 1, 1)).Err("project_dates")
	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "project_dates", verr.Rule)
	assert.Equal(t, []string{MsgProjectStartAfterDeadline}, verr.Messages())
}
