package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"projecthub/internal/apiclient"
	"projecthub/internal/service"
	"projecthub/internal/session"
	"projecthub/internal/validation"
	"projecthub/pkg/logger"
	"projecthub/pkg/rbac"
	"projecthub/pkg/util"
)

// SessionKey 认证中间件把会话放在 gin context 的这个 key 下
const SessionKey = "session"

// LoginPath 会话失效时前端跳转的地址
const LoginPath = "/login"

// ErrorResponse 把错误映射成状态码和响应体
func ErrorResponse(err error) (int, gin.H) {
	var validationErr *validation.Error
	if errors.As(err, &validationErr) {
		return http.StatusUnprocessableEntity, gin.H{
			"error":  "validation failed",
			"errors": validationErr.Messages(),
		}
	}

	if errors.Is(err, apiclient.ErrUnauthorized) {
		return http.StatusUnauthorized, gin.H{
			"error":    "session expired, please log in again",
			"redirect": LoginPath,
		}
	}

	var denied *rbac.PermissionDeniedError
	if errors.As(err, &denied) {
		return http.StatusForbidden, gin.H{"error": denied.Error()}
	}

	if errors.Is(err, apiclient.ErrCircuitOpen) {
		return http.StatusServiceUnavailable, gin.H{"error": "project API temporarily unavailable"}
	}

	var notFound *service.NotFoundError
	if errors.As(err, &notFound) {
		return http.StatusNotFound, gin.H{"error": notFound.Error()}
	}

	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		body := gin.H{"error": apiErr.Error()}
		if apiErr.Message != "" {
			body["error"] = apiErr.Message
		}
		if apiErr.StatusCode == http.StatusUnprocessableEntity {
			body["errors"] = apiErr.Messages()
		}
		return apiErr.StatusCode, body
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, gin.H{"error": "project API timed out"}
	}

	return http.StatusBadGateway, gin.H{"error": "project API unreachable"}
}

// respondError 记录日志并写出错误响应；4xx 记 Warn，其余记 Error
func respondError(c *gin.Context, log *zap.Logger, action string, err error) {
	status, body := ErrorResponse(err)
	_, errType := util.ClassifyError(err)

	fields := []zap.Field{
		zap.Int("status", status),
		zap.String("error_type", errType),
		zap.Error(err),
	}
	if status < http.StatusInternalServerError {
		log.Warn(action+" rejected", fields...)
	} else {
		log.Error(action+" failed", fields...)
	}
	c.JSON(status, body)
}

// currentSession 读取认证中间件放入的会话
func currentSession(c *gin.Context) (*session.Session, bool) {
	v, ok := c.Get(SessionKey)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not logged in", "redirect": LoginPath})
		return nil, false
	}
	sess, ok := v.(*session.Session)
	if !ok || sess == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invalid session"})
		return nil, false
	}
	return sess, true
}

// pathID 解析路径里的正整数 id
func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// requestLogger 带 trace_id 与 user_id 的 logger
func requestLogger(c *gin.Context, base *zap.Logger, sess *session.Session) *zap.Logger {
	log := logger.WithTrace(c.Request.Context(), base)
	if sess != nil {
		log = log.With(zap.Int("user_id", sess.UserID))
	}
	return log
}
