// Package budget 汇总项目支出与预算使用情况
package budget

import (
	"github.com/shopspring/decimal"

	"projecthub/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Summary 预算汇总
type Summary struct {
	Budget             decimal.Decimal `json:"budget"`
	TotalSpent         decimal.Decimal `json:"total_spent"`
	RemainingBudget    decimal.Decimal `json:"remaining_budget"`
	UtilizationPercent int             `json:"utilization_percent"`
	Level              string          `json:"level"`
}

const (
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelDanger  = "danger"
)

// TotalSpent 支出金额求和
func TotalSpent(expenditures []model.Expenditure) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenditures {
		total = total.Add(e.Amount)
	}
	return total
}

// SummarizeBudget 剩余预算不截断，超支时为负数；预算为 0 时使用率为 0
func SummarizeBudget(budget decimal.Decimal, expenditures []model.Expenditure) Summary {
	spent := TotalSpent(expenditures)
	pct := Utilization(budget, spent)
	return Summary{
		Budget:             budget,
		TotalSpent:         spent,
		RemainingBudget:    budget.Sub(spent),
		UtilizationPercent: pct,
		Level:              Level(pct),
	}
}

// Summarize 以项目预算为基准
func Summarize(p model.Project, expenditures []model.Expenditure) Summary {
	return SummarizeBudget(p.Budget, expenditures)
}

// Utilization round(100*spent/budget)，四舍五入远离零
func Utilization(budget, spent decimal.Decimal) int {
	if !budget.IsPositive() {
		return 0
	}
	return int(spent.Mul(hundred).Div(budget).Round(0).IntPart())
}

// Level 进度条颜色档位
func Level(percent int) string {
	switch {
	case percent >= 90:
		return LevelDanger
	case percent >= 70:
		return LevelWarning
	default:
		return LevelSuccess
	}
}

// CategoryTotal 某一类别的支出合计
type CategoryTotal struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// SpentByCategory 按固定类别顺序输出，未知类别追加在末尾
func SpentByCategory(expenditures []model.Expenditure) []CategoryTotal {
	sums := make(map[string]decimal.Decimal)
	var extra []string
	for _, e := range expenditures {
		cur, seen := sums[e.Category]
		if !seen && !isKnown(e.Category) {
			extra = append(extra, e.Category)
		}
		sums[e.Category] = cur.Add(e.Amount)
	}

	var out []CategoryTotal
	for _, c := range append(append([]string{}, model.ExpenditureCategories...), extra...) {
		if amount, ok := sums[c]; ok {
			out = append(out, CategoryTotal{Category: c, Amount: amount})
		}
	}
	return out
}

func isKnown(category string) bool {
	for _, c := range model.ExpenditureCategories {
		if c == category {
			return true
		}
	}
	return false
}
