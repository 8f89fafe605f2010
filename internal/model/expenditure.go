package model

import "github.com/shopspring/decimal"

// 支出类别固定枚举
const (
	CategoryLabor     = "Labor"
	CategoryMaterials = "Materials"
	CategoryEquipment = "Equipment"
	CategorySoftware  = "Software"
	CategoryTravel    = "Travel"
	CategoryOther     = "Other"
)

var ExpenditureCategories = []string{
	CategoryLabor,
	CategoryMaterials,
	CategoryEquipment,
	CategorySoftware,
	CategoryTravel,
	CategoryOther,
}

type Expenditure struct {
	ID          int             `json:"id"`
	ProjectID   int             `json:"project_id"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Date        *Date           `json:"date,omitempty"`
}

// ExpenditureForm 原始表单输入，amount 保持字符串直到校验
type ExpenditureForm struct {
	Description string `json:"description"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
}

// ExpenditureInput 校验通过后提交给上游
type ExpenditureInput struct {
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Date        Date            `json:"date"`
}
