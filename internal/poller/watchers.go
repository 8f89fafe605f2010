package poller

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	mqcontract "projecthub/contracts/mq"
	"projecthub/internal/apiclient"
	"projecthub/internal/model"
	"projecthub/internal/session"
	"projecthub/pkg/logger"
	"projecthub/pkg/metrics"
)

// FeedAPI 轮询用到的上游接口
type FeedAPI interface {
	Login(ctx context.Context, creds model.Credentials) (model.LoginResponse, error)
	UnreadCount(ctx context.Context, sess *session.Session) (int, error)
	ListNotifications(ctx context.Context, sess *session.Session) ([]model.Notification, error)
	ListActivities(ctx context.Context, sess *session.Session, scope apiclient.ActivityScope) ([]model.Activity, error)
}

// SessionSource 提供当前会话；上游返回 401 时作废并在下一次 tick 重新登录
type SessionSource interface {
	Current(ctx context.Context) (*session.Session, error)
	Invalidate()
}

// StaticSession 固定会话（pmctl 已登录的会话）
type StaticSession struct {
	Session *session.Session
}

func (s StaticSession) Current(context.Context) (*session.Session, error) { return s.Session, nil }
func (s StaticSession) Invalidate()                                       {}

// LoginSession 用账号密码登录并缓存会话
type LoginSession struct {
	api   FeedAPI
	creds model.Credentials
	now   func() time.Time

	mu   sync.Mutex
	sess *session.Session
}

func NewLoginSession(api FeedAPI, creds model.Credentials) *LoginSession {
	return &LoginSession{api: api, creds: creds, now: time.Now}
}

func (l *LoginSession) Current(ctx context.Context) (*session.Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sess != nil && !l.sess.Expired(l.now()) {
		return l.sess, nil
	}
	resp, err := l.api.Login(ctx, l.creds)
	if err != nil {
		return nil, fmt.Errorf("watcher login failed: %w", err)
	}
	l.sess = session.NewFromLogin(resp, l.now())
	return l.sess, nil
}

func (l *LoginSession) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sess = nil
}

func withSession(ctx context.Context, src SessionSource, fn func(*session.Session) error) error {
	sess, err := src.Current(ctx)
	if err != nil {
		return err
	}
	err = fn(sess)
	if errors.Is(err, apiclient.ErrUnauthorized) {
		src.Invalidate()
	}
	return err
}

// NotificationWatcher 每次 tick 拉取未读数与通知列表
type NotificationWatcher struct {
	API       FeedAPI
	Sessions  SessionSource
	Publisher Publisher
	Dedup     Deduper
	Counts    CountCache
	Logger    *zap.Logger
	Now       func() time.Time
}

func (w *NotificationWatcher) Tick(ctx context.Context) error {
	return withSession(ctx, w.Sessions, func(sess *session.Session) error {
		log := logger.WithTrace(ctx, w.Logger)

		count, err := w.API.UnreadCount(ctx, sess)
		if err != nil {
			return err
		}
		// 广播成功后才写缓存，失败时下一次 tick 会重发
		var countErr error
		prev, found, err := w.Counts.Get(ctx, sess.UserID)
		if err != nil {
			log.Warn("Failed to read cached unread count", zap.Int("user_id", sess.UserID), zap.Error(err))
		} else if !found || prev != count {
			payload := mqcontract.NotificationCountPayload{UserID: sess.UserID, Count: count, Previous: prev, PolledAt: w.now()}
			if err := w.Publisher.Publish(ctx, mqcontract.RoutingNotificationCount, payload); err != nil {
				countErr = fmt.Errorf("publish unread count: %w", err)
			} else {
				metrics.IncrementAnnouncement("count")
				if err := w.Counts.Set(ctx, sess.UserID, count); err != nil {
					log.Warn("Failed to cache unread count", zap.Int("user_id", sess.UserID), zap.Error(err))
				}
			}
		}

		if count == 0 && found && prev == 0 {
			return nil
		}

		notifications, err := w.API.ListNotifications(ctx, sess)
		if err != nil {
			return errors.Join(countErr, err)
		}

		announced := 0
		scope := fmt.Sprintf("notification:%d", sess.UserID)
		for _, n := range notifications {
			if n.Read || !w.Dedup.AcquireOnce(ctx, scope, n.ID) {
				continue
			}
			payload := mqcontract.NotificationUnreadPayload{
				UserID:         sess.UserID,
				NotificationID: n.ID,
				Message:        n.Message,
				CreatedAt:      n.CreatedAt,
			}
			if err := w.Publisher.Publish(ctx, mqcontract.RoutingNotificationUnread, payload); err != nil {
				return errors.Join(countErr, fmt.Errorf("publish notification %d: %w", n.ID, err))
			}
			metrics.IncrementAnnouncement("notification")
			announced++
		}

		log.Debug("Notification tick finished",
			zap.Int("user_id", sess.UserID),
			zap.Int("unread", count),
			zap.Int("announced", announced),
		)
		return countErr
	})
}

func (w *NotificationWatcher) now() time.Time {
	if w.Now == nil {
		return time.Now()
	}
	return w.Now()
}

// ActivityWatcher 每次 tick 拉取动态流，新记录按时间顺序广播
type ActivityWatcher struct {
	API       FeedAPI
	Sessions  SessionSource
	Scope     apiclient.ActivityScope
	Publisher Publisher
	Dedup     Deduper
	Logger    *zap.Logger
}

func (w *ActivityWatcher) Tick(ctx context.Context) error {
	return withSession(ctx, w.Sessions, func(sess *session.Session) error {
		activities, err := w.API.ListActivities(ctx, sess, w.Scope)
		if err != nil {
			return err
		}

		sort.SliceStable(activities, func(i, j int) bool {
			if !activities[i].CreatedAt.Equal(activities[j].CreatedAt) {
				return activities[i].CreatedAt.Before(activities[j].CreatedAt)
			}
			return activities[i].ID < activities[j].ID
		})

		announced := 0
		scope := "activity:" + w.Scope.String()
		for _, a := range activities {
			if !w.Dedup.AcquireOnce(ctx, scope, a.ID) {
				continue
			}
			payload := mqcontract.ActivityRecordedPayload{
				ActivityID:   a.ID,
				Scope:        w.Scope.String(),
				ActivityType: a.ActivityType,
				Description:  a.Description,
				ProjectID:    a.ProjectID,
				TaskID:       a.TaskID,
				CreatedAt:    a.CreatedAt,
			}
			if a.User != nil {
				payload.UserName = a.User.Name
			}
			if err := w.Publisher.Publish(ctx, mqcontract.RoutingActivityRecorded, payload); err != nil {
				return fmt.Errorf("publish activity %d: %w", a.ID, err)
			}
			metrics.IncrementAnnouncement("activity")
			announced++
		}

		logger.WithTrace(ctx, w.Logger).Debug("Activity tick finished",
			zap.String("scope", w.Scope.String()),
			zap.Int("fetched", len(activities)),
			zap.Int("announced", announced),
		)
		return nil
	})
}
