package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"projecthub/internal/apiclient"
	"projecthub/internal/model"
	"projecthub/internal/session"
	"projecthub/internal/validation"
	"projecthub/pkg/logger"
)

type AuthService struct {
	api    API
	store  session.Store
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

func credentialsResult(email, password string) validation.Result {
	var r validation.Result
	if strings.TrimSpace(email) == "" {
		r.Errors = append(r.Errors, "Email is required")
	}
	if password == "" {
		r.Errors = append(r.Errors, "Password is required")
	}
	return r
}

// Login 上游登录成功且角色有效时创建会话
func (s *AuthService) Login(ctx context.Context, creds model.Credentials) (*session.Session, error) {
	log := logger.WithTrace(ctx, s.logger)
	if err := reject(log, "credentials", credentialsResult(creds.Email, creds.Password)); err != nil {
		return nil, err
	}

	resp, err := s.api.Login(ctx, creds)
	if err != nil {
		log.Warn("Login failed", zap.String("email", creds.Email), zap.Error(err))
		return nil, err
	}
	if err := reject(log, "role", validation.ValidateRole(resp.Role)); err != nil {
		return nil, err
	}

	now := s.now()
	sess := session.NewFromLogin(resp, now)
	if sess.Name == "" {
		if u, err := s.api.CurrentUser(ctx, sess); err == nil {
			sess.Name = u.Name
		} else {
			log.Warn("Failed to load current user after login", zap.Int("user_id", sess.UserID), zap.Error(err))
		}
	}

	if err := s.store.Save(ctx, sess, sess.TTL(s.ttl, now)); err != nil {
		log.Error("Failed to save session", zap.Int("user_id", sess.UserID), zap.Error(err))
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	log.Info("User logged in",
		zap.Int("user_id", sess.UserID),
		zap.String("role", sess.Role),
		zap.Time("expires_at", sess.ExpiresAt),
	)
	return sess, nil
}

func (s *AuthService) Register(ctx context.Context, reg model.Registration) (model.User, error) {
	log := logger.WithTrace(ctx, s.logger)

	r := credentialsResult(reg.Email, reg.Password)
	if strings.TrimSpace(reg.Name) == "" {
		r.Errors = append(r.Errors, "Name is required")
	}
	if err := reject(log, "registration", validation.Merge(r, validation.ValidateRole(reg.Role))); err != nil {
		return model.User{}, err
	}

	u, err := s.api.Register(ctx, reg)
	if err != nil {
		log.Warn("Registration failed", zap.String("email", reg.Email), zap.Error(err))
		return model.User{}, err
	}
	log.Info("User registered", zap.Int("user_id", u.ID), zap.String("role", u.Role))
	return u, nil
}

// Resume 根据会话 id 恢复会话；不存在或 token 过期时返回 ErrUnauthorized
func (s *AuthService) Resume(ctx context.Context, id string) (*session.Session, error) {
	if id == "" {
		return nil, apiclient.ErrUnauthorized
	}
	sess, err := s.store.Get(ctx, id)
	if errors.Is(err, session.ErrNotFound) {
		return nil, fmt.Errorf("%w: %w", apiclient.ErrUnauthorized, err)
	}
	if err != nil {
		return nil, err
	}
	if sess.Expired(s.now()) {
		if err := s.store.Delete(ctx, id); err != nil {
			logger.WithTrace(ctx, s.logger).Warn("Failed to delete expired session",
				zap.Int("user_id", sess.UserID),
				zap.Error(err),
			)
		}
		return nil, fmt.Errorf("%w: %w", apiclient.ErrUnauthorized, session.ErrExpired)
	}
	return sess, nil
}

// Logout 删除本地会话；上游登出失败只记录日志
func (s *AuthService) Logout(ctx context.Context, sess *session.Session) error {
	log := logger.WithTrace(ctx, s.logger)
	if err := s.api.Logout(ctx, sess); err != nil {
		log.Debug("Upstream logout failed", zap.Int("user_id", sess.UserID), zap.Error(err))
	}
	if err := s.store.Delete(ctx, sess.ID); err != nil {
		log.Error("Failed to delete session", zap.Int("user_id", sess.UserID), zap.Error(err))
		return err
	}
	log.Info("User logged out", zap.Int("user_id", sess.UserID))
	return nil
}

func (s *AuthService) CurrentUser(ctx context.Context, sess *session.Session) (model.User, error) {
	return s.api.CurrentUser(ctx, sess)
}

func (s *AuthService) Users(ctx context.Context, sess *session.Session) ([]model.User, error) {
	return s.api.ListUsers(ctx, sess)
}

func (s *AuthService) ProjectMembers(ctx context.Context, sess *session.Session, projectID int) ([]model.User, error) {
	return s.api.ListProjectMembers(ctx, sess, projectID)
}
