package util

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"

	"projecthub/pkg/circuitbreaker"
	"projecthub/pkg/rbac"
)

// 错误类别，用于日志和指标
const (
	ErrorTypeValidation   = "validation"
	ErrorTypeUnauthorized = "unauthorized"
	ErrorTypeForbidden    = "forbidden"
	ErrorTypeNotFound     = "not_found"
	ErrorTypeClient       = "upstream_4xx"
	ErrorTypeServer       = "upstream_5xx"
	ErrorTypeCircuitOpen  = "circuit_open"
	ErrorTypeTimeout      = "timeout"
	ErrorTypeNetwork      = "network"
	ErrorTypeCanceled     = "context_canceled"
	ErrorTypeUnknown      = "unknown"
)

// statusCoder 上游 API 错误实现
type statusCoder interface {
	HTTPStatus() int
}

// messageLister 校验错误实现
type messageLister interface {
	Messages() []string
}

// ClassifyError 返回 (是否值得重试, 错误类别)
// 客户端本身从不自动重试，这里的结果只用于提示用户与打点
func ClassifyError(err error) (bool, string) {
	if err == nil {
		return false, ""
	}

	// 上游错误同样带 Messages，按状态码归类
	var validationErr messageLister
	if errors.As(err, &validationErr) {
		if _, upstream := validationErr.(statusCoder); !upstream {
			return false, ErrorTypeValidation
		}
	}

	var denied *rbac.PermissionDeniedError
	if errors.As(err, &denied) {
		return false, ErrorTypeForbidden
	}

	if errors.Is(err, circuitbreaker.ErrCircuitBreakerOpen) {
		return true, ErrorTypeCircuitOpen
	}

	var sc statusCoder
	if errors.As(err, &sc) {
		status := sc.HTTPStatus()
		switch {
		case status == http.StatusUnauthorized || status == 419:
			return false, ErrorTypeUnauthorized
		case status == http.StatusForbidden:
			return false, ErrorTypeForbidden
		case status == http.StatusNotFound:
			return false, ErrorTypeNotFound
		case status == http.StatusTooManyRequests:
			return true, ErrorTypeClient
		case status >= 500:
			return true, ErrorTypeServer
		default:
			return false, ErrorTypeClient
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true, ErrorTypeTimeout
	}
	if errors.Is(err, context.Canceled) {
		return false, ErrorTypeCanceled
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return true, ErrorTypeTimeout
		}
		return true, ErrorTypeNetwork
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true, ErrorTypeNetwork
	}

	return false, ErrorTypeUnknown
}
