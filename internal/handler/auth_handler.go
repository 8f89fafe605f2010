package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"projecthub/internal/apiclient"
	"projecthub/internal/model"
	"projecthub/internal/service"
	"projecthub/pkg/logger"
)

type AuthHandler struct {
	auth       *service.AuthService
	cookieName string
	ttl        time.Duration
	logger     *zap.Logger
}

func NewAuthHandler(auth *service.AuthService, cookieName string, ttl time.Duration, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, cookieName: cookieName, ttl: ttl, logger: logger}
}

// Login handles POST /api/login
// 上游 token 留在服务端，浏览器只拿到会话 id（cookie + 响应体）
func (h *AuthHandler) Login(c *gin.Context) {
	log := logger.WithTrace(c.Request.Context(), h.logger)

	var creds model.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		log.Warn("Invalid login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	log.Info("Login request received", zap.String("email", creds.Email))

	sess, err := h.auth.Login(c.Request.Context(), creds)
	if errors.Is(err, apiclient.ErrUnauthorized) {
		log.Warn("Login rejected by project API", zap.String("email", creds.Email))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}
	if err != nil {
		respondError(c, log, "Login", err)
		return
	}

	maxAge := int(sess.TTL(h.ttl, time.Now()).Seconds())
	c.SetCookie(h.cookieName, sess.ID, maxAge, "/", "", false, true)

	log.Info("Login: success",
		zap.Int("user_id", sess.UserID),
		zap.String("role", sess.Role),
	)
	c.JSON(http.StatusOK, gin.H{
		"session_id": sess.ID,
		"user":       sess.User(),
		"expires_at": sess.ExpiresAt,
	})
}

// Register handles POST /api/register
func (h *AuthHandler) Register(c *gin.Context) {
	log := logger.WithTrace(c.Request.Context(), h.logger)

	var reg model.Registration
	if err := c.ShouldBindJSON(&reg); err != nil {
		log.Warn("Invalid register request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	log.Info("Register request received", zap.String("email", reg.Email))

	u, err := h.auth.Register(c.Request.Context(), reg)
	if err != nil {
		respondError(c, log, "Register", err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

// Logout handles POST /api/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	log := requestLogger(c, h.logger, sess)

	if err := h.auth.Logout(c.Request.Context(), sess); err != nil {
		respondError(c, log, "Logout", err)
		return
	}
	c.SetCookie(h.cookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// CurrentUser handles GET /api/user
func (h *AuthHandler) CurrentUser(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	u, err := h.auth.CurrentUser(c.Request.Context(), sess)
	if err != nil {
		respondError(c, requestLogger(c, h.logger, sess), "Get current user", err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// Users handles GET /api/users
func (h *AuthHandler) Users(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	users, err := h.auth.Users(c.Request.Context(), sess)
	if err != nil {
		respondError(c, requestLogger(c, h.logger, sess), "List users", err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// ProjectMembers handles GET /api/projects/:projectID/members
func (h *AuthHandler) ProjectMembers(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "projectID")
	if !ok {
		return
	}
	users, err := h.auth.ProjectMembers(c.Request.Context(), sess, projectID)
	if err != nil {
		respondError(c, requestLogger(c, h.logger, sess), "List project members", err)
		return
	}
	c.JSON(http.StatusOK, users)
}
