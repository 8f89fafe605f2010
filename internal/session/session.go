// Package session 控制台会话：上游 token 保存在服务端，浏览器只拿到会话 id
package session

import (
	"context"
	"errors"
	"time"

	"projecthub/internal/model"
	"projecthub/pkg/rbac"
	"projecthub/pkg/trace"
	"projecthub/pkg/util"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrExpired  = errors.New("session expired")
)

// Session 每次调用上游都显式传入，不存在全局 token
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	UserID    int       `json:"user_id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty"` // token 不是 JWT 时为零值
}

// NewFromLogin 用登录结果创建会话，JWT 的 exp 作为过期时间
func NewFromLogin(resp model.LoginResponse, now time.Time) *Session {
	s := &Session{
		ID:        trace.GenerateTraceID(),
		Token:     resp.Token,
		UserID:    resp.UserID,
		Name:      resp.Name,
		Role:      resp.Role,
		CreatedAt: now,
	}
	if exp, ok := util.TokenExpiry(resp.Token); ok {
		s.ExpiresAt = exp
	}
	return s
}

// Anonymous 只带 token 的会话，用于登录/注册等无需身份的调用
func Anonymous() *Session {
	return &Session{}
}

// Expired 没有过期时间的会话由 store 的 TTL 控制
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// TTL 存储时长：不超过 token 剩余有效期
func (s *Session) TTL(max time.Duration, now time.Time) time.Duration {
	if s.ExpiresAt.IsZero() {
		return max
	}
	left := s.ExpiresAt.Sub(now)
	if left < max {
		return left
	}
	return max
}

func (s *Session) IsProjectManager() bool {
	return s.Role == rbac.RoleProjectManager
}

// User 会话对应的用户
func (s *Session) User() model.User {
	return model.User{ID: s.UserID, Name: s.Name, Role: s.Role}
}

// Store 会话存储
type Store interface {
	Save(ctx context.Context, s *Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

type ctxKey struct{}

// WithContext 把会话挂到请求 context 上
func WithContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext 取出中间件放入的会话
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok && s != nil
}
