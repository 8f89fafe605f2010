package service

import (
	"context"

	"go.uber.org/zap"

	"projecthub/internal/apiclient"
	"projecthub/internal/grouping"
	"projecthub/internal/model"
	"projecthub/internal/session"
	"projecthub/pkg/logger"
	"projecthub/pkg/rbac"
)

type NotificationService struct {
	api    API
	logger *zap.Logger
}

func (s *NotificationService) List(ctx context.Context, sess *session.Session) ([]model.Notification, error) {
	return s.api.ListNotifications(ctx, sess)
}

func (s *NotificationService) UnreadCount(ctx context.Context, sess *session.Session) (int, error) {
	return s.api.UnreadCount(ctx, sess)
}

func (s *NotificationService) MarkRead(ctx context.Context, sess *session.Session, id int) error {
	if err := s.api.MarkNotificationRead(ctx, sess, id); err != nil {
		return err
	}
	logger.WithTrace(ctx, s.logger).Debug("Notification marked as read", zap.Int("notification_id", id))
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, sess *session.Session) error {
	if err := s.api.MarkAllNotificationsRead(ctx, sess); err != nil {
		return err
	}
	logger.WithTrace(ctx, s.logger).Info("All notifications marked as read", zap.Int("user_id", sess.UserID))
	return nil
}

func (s *NotificationService) Delete(ctx context.Context, sess *session.Session, id int) error {
	if err := s.api.DeleteNotification(ctx, sess, id); err != nil {
		return err
	}
	logger.WithTrace(ctx, s.logger).Info("Notification deleted", zap.Int("notification_id", id))
	return nil
}

type ActivityService struct {
	api    API
	logger *zap.Logger
}

func (s *ActivityService) List(ctx context.Context, sess *session.Session, scope apiclient.ActivityScope) ([]model.Activity, error) {
	if err := rbac.CheckPermission(sess.Role, rbac.PermissionReadActivity); err != nil {
		return nil, err
	}
	return s.api.ListActivities(ctx, sess, scope)
}

type DashboardService struct {
	api    API
	mode   grouping.Mode
	logger *zap.Logger
}

// MemberView 成员首页：按项目合并后的任务
type MemberView struct {
	Message  string               `json:"message"`
	GroupBy  grouping.Mode        `json:"group_by"`
	Projects []model.ProjectGroup `json:"projects"`
}

func (s *DashboardService) Member(ctx context.Context, sess *session.Session) (MemberView, error) {
	d, err := s.api.MemberDashboard(ctx, sess)
	if err != nil {
		return MemberView{}, err
	}
	groups := grouping.Group(s.mode, d.Projects)
	logger.WithTrace(ctx, s.logger).Debug("Member dashboard grouped",
		zap.Int("records", len(d.Projects)),
		zap.Int("groups", len(groups)),
		zap.String("mode", string(s.mode)),
	)
	return MemberView{Message: d.Message, GroupBy: s.mode, Projects: groups}, nil
}
