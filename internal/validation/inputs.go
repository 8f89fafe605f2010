package validation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"projecthub/internal/model"
	"projecthub/pkg/rbac"
)

const MsgActualExceedsEstimate = "Actual hours exceed estimated hours"

// ParseAmount 解析金额：必须是数字且大于 0，绝不静默转换成 0
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, fmt.Errorf("amount is required")
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("amount %q is not a number", raw)
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("amount must be greater than 0")
	}
	return amount, nil
}

// ValidateCategory 支出类别必须在固定枚举内
func ValidateCategory(category string) Result {
	var r Result
	if !slices.Contains(model.ExpenditureCategories, category) {
		r.addError(fmt.Sprintf("Category must be one of %s", strings.Join(model.ExpenditureCategories, ", ")))
	}
	return r
}

// ValidateExpenditure 把原始表单转换成可提交的支出
func ValidateExpenditure(form model.ExpenditureForm) (model.ExpenditureInput, Result) {
	var r Result
	in := model.ExpenditureInput{
		Description: strings.TrimSpace(form.Description),
		Category:    form.Category,
	}

	if in.Description == "" {
		r.addError("Description is required")
	}
	amount, err := ParseAmount(form.Amount)
	if err != nil {
		r.addError("Invalid amount: " + err.Error())
	}
	in.Amount = amount

	r = Merge(r, ValidateCategory(form.Category))

	if strings.TrimSpace(form.Date) == "" {
		r.addError("Date is required")
	} else if d, err := model.ParseDate(form.Date); err != nil {
		r.addError("Invalid date: " + form.Date)
	} else {
		in.Date = d
	}
	return in, r
}

// ValidateBudget 预算不能为负数
func ValidateBudget(budget decimal.Decimal) Result {
	var r Result
	if budget.IsNegative() {
		r.addError("Budget cannot be negative")
	}
	return r
}

// ValidateProjectInput 标题、预算与日期
func ValidateProjectInput(in model.ProjectInput) Result {
	var r Result
	if strings.TrimSpace(in.Title) == "" {
		r.addError("Project title is required")
	}
	return Merge(r, ValidateBudget(in.Budget), ValidateProjectDates(in.StartDate, in.Deadline))
}

// ValidateHours 工时不能为负；实际超过预估只给警告
func ValidateHours(actual, estimated decimal.NullDecimal) Result {
	var r Result
	if estimated.Valid && estimated.Decimal.IsNegative() {
		r.addError("Estimated hours cannot be negative")
	}
	if actual.Valid && actual.Decimal.IsNegative() {
		r.addError("Actual hours cannot be negative")
	}
	if actual.Valid && estimated.Valid && actual.Decimal.GreaterThan(estimated.Decimal) {
		r.addWarning(MsgActualExceedsEstimate)
	}
	return r
}

// ValidateTaskInput 标题、状态、优先级、工时
func ValidateTaskInput(in model.TaskInput) Result {
	var r Result
	if strings.TrimSpace(in.Title) == "" {
		r.addError("Task title is required")
	}
	if !ValidStatus(in.Status) {
		r.addError(fmt.Sprintf("Invalid task status %q", in.Status))
	}
	switch in.Priority {
	case model.TaskPriorityLow, model.TaskPriorityMedium, model.TaskPriorityHigh:
	default:
		r.addError(fmt.Sprintf("Invalid task priority %q", in.Priority))
	}
	return Merge(r, ValidateHours(in.ActualHours, in.EstimatedHours))
}

func ValidStatus(s model.TaskStatus) bool {
	switch s {
	case model.TaskStatusPending, model.TaskStatusInProgress, model.TaskStatusCompleted:
		return true
	}
	return false
}

func oneOf(field, value string, allowed ...string) Result {
	var r Result
	if !slices.Contains(allowed, value) {
		r.addError(fmt.Sprintf("%s must be one of %s", field, strings.Join(allowed, ", ")))
	}
	return r
}

// ValidateRiskInput 概率、影响、状态枚举
func ValidateRiskInput(in model.RiskInput) Result {
	var r Result
	if strings.TrimSpace(in.Title) == "" {
		r.addError("Risk title is required")
	}
	return Merge(r,
		oneOf("Probability", in.Probability, model.LevelLow, model.LevelMedium, model.LevelHigh),
		oneOf("Impact", in.Impact, model.LevelLow, model.LevelMedium, model.LevelHigh),
		oneOf("Status", in.Status, model.RiskIdentified, model.RiskResolved),
	)
}

// ValidateIssueInput 严重程度、状态枚举
func ValidateIssueInput(in model.IssueInput) Result {
	var r Result
	if strings.TrimSpace(in.Title) == "" {
		r.addError("Issue title is required")
	}
	return Merge(r,
		oneOf("Severity", in.Severity, model.SeverityMinor, model.SeverityMajor, model.SeverityCritical),
		oneOf("Status", in.Status, model.IssueOpen, model.IssueInProgress, model.IssueResolved),
	)
}

// ValidateRole 注册/登录只接受两种角色
func ValidateRole(role string) Result {
	var r Result
	if !rbac.IsKnownRole(role) {
		r.addError("Invalid role")
	}
	return r
}
