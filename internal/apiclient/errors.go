package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"

	"projecthub/pkg/circuitbreaker"
)

var (
	// ErrUnauthorized 上游返回 401/419，token 缺失或过期
	ErrUnauthorized = errors.New("upstream rejected the session token")
	// ErrCircuitOpen 上游连续失败，熔断中
	ErrCircuitOpen = circuitbreaker.ErrCircuitBreakerOpen
)

// statusSessionExpired Laravel 的 CSRF/session 过期状态码
const statusSessionExpired = 419

// APIError 上游返回的非 2xx 响应
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string][]string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream returned %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) HTTPStatus() int {
	return e.StatusCode
}

// Is 让 errors.Is(err, ErrUnauthorized) 对 401/419 成立
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized &&
		(e.StatusCode == http.StatusUnauthorized || e.StatusCode == statusSessionExpired)
}

// Messages 上游的字段校验错误（422）展开成列表
func (e *APIError) Messages() []string {
	if len(e.Fields) == 0 {
		if e.Message == "" {
			return nil
		}
		return []string{e.Message}
	}
	// 按字段名排序，保证输出稳定
	var out []string
	for _, field := range slices.Sorted(maps.Keys(e.Fields)) {
		out = append(out, e.Fields[field]...)
	}
	return out
}

// parseAPIError 兼容 {"message": ...}、{"error": ...} 与 {"errors": {...}}
func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var payload struct {
		Message string              `json:"message"`
		Error   string              `json:"error"`
		Errors  map[string][]string `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		apiErr.Message = strings.TrimSpace(string(body))
		if len(apiErr.Message) > 200 {
			apiErr.Message = apiErr.Message[:200]
		}
		return apiErr
	}

	apiErr.Message = payload.Message
	if apiErr.Message == "" {
		apiErr.Message = payload.Error
	}
	apiErr.Fields = payload.Errors
	return apiErr
}

// isBreakerFailure 只有网络错误和 5xx 计入熔断
func isBreakerFailure(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}
	return true
}
