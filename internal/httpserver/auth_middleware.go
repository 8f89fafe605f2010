package httpserver

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"projecthub/internal/apiclient"
	"projecthub/internal/handler"
	"projecthub/internal/service"
	"projecthub/internal/session"
	"projecthub/pkg/logger"
	"projecthub/pkg/rbac"
	"projecthub/pkg/util"
)

var errNoSession = fmt.Errorf("%w: no session on request", apiclient.ErrUnauthorized)

// AuthMiddleware 会话 id 来自 Authorization: Bearer 或会话 cookie
func AuthMiddleware(auth *service.AuthService, cookieName string, base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := util.ExtractToken(c.Request)
		if id == "" {
			id, _ = c.Cookie(cookieName)
		}

		sess, err := auth.Resume(c.Request.Context(), id)
		if err != nil {
			status, body := handler.ErrorResponse(err)
			logger.WithTrace(c.Request.Context(), base).Debug("Session rejected",
				zap.Int("status", status),
				zap.Error(err),
			)
			c.JSON(status, body)
			c.Abort()
			return
		}

		// handler 从 gin context 取，service 层从 request context 取
		c.Set(handler.SessionKey, sess)
		c.Request = c.Request.WithContext(session.WithContext(c.Request.Context(), sess))

		c.Next()
	}
}

// RequirePermission 中间件：要求当前会话的角色具有指定权限
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := session.FromContext(c.Request.Context())
		if !ok {
			status, body := handler.ErrorResponse(errNoSession)
			c.JSON(status, body)
			c.Abort()
			return
		}

		if err := rbac.CheckPermission(sess.Role, permission); err != nil {
			status, body := handler.ErrorResponse(err)
			c.JSON(status, body)
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireRole 中间件：只允许指定角色访问
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := session.FromContext(c.Request.Context())
		if !ok {
			status, body := handler.ErrorResponse(errNoSession)
			c.JSON(status, body)
			c.Abort()
			return
		}

		for _, role := range roles {
			if sess.Role == role {
				c.Next()
				return
			}
		}

		status, body := handler.ErrorResponse(&rbac.PermissionDeniedError{
			Role:   sess.Role,
			UserID: sess.UserID,
			Reason: "role " + sess.Role + " cannot access this page",
		})
		c.JSON(status, body)
		c.Abort()
	}
}
