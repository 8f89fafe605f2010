package validation

import "strings"

// Result 校验结果：Errors 阻止提交，Warnings 只做提示
type Result struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings,omitempty"`
}

func (r Result) IsValid() bool {
	return len(r.Errors) == 0
}

func (r *Result) addError(msg string) {
	r.Errors = append(r.Errors, msg)
}

func (r *Result) addWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// Merge 合并多个校验结果
func Merge(results ...Result) Result {
	var merged Result
	for _, r := range results {
		merged.Errors = append(merged.Errors, r.Errors...)
		merged.Warnings = append(merged.Warnings, r.Warnings...)
	}
	return merged
}

// Error 校验失败，在发起任何网络请求之前返回给调用方
type Error struct {
	Rule   string
	Result Result
}

// Err 校验不通过时返回 *Error，否则返回 nil
func (r Result) Err(rule string) error {
	if r.IsValid() {
		return nil
	}
	return &Error{Rule: rule, Result: r}
}

func (e *Error) Error() string {
	return "validation failed: " + strings.Join(e.Result.Errors, "; ")
}

// Messages 给用户看的错误列表
func (e *Error) Messages() []string {
	return e.Result.Errors
}
