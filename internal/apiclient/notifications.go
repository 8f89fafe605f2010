package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"projecthub/internal/model"
	"projecthub/internal/session"
)

func (c *Client) ListNotifications(ctx context.Context, sess *session.Session) ([]model.Notification, error) {
	return getList[model.Notification](ctx, c, sess, "notifications.list", "/notifications")
}

// UnreadCount 返回 {"count": n}
func (c *Client) UnreadCount(ctx context.Context, sess *session.Session) (int, error) {
	resp, err := doJSON[struct {
		Count int `json:"count"`
	}](ctx, c, sess, "notifications.unread_count", http.MethodGet, "/notifications/unread-count", nil)
	if err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, sess *session.Session, id int) error {
	return c.doNoContent(ctx, sess, "notifications.mark_read", http.MethodPost, fmt.Sprintf("/notifications/%d/mark-as-read", id), nil)
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context, sess *session.Session) error {
	return c.doNoContent(ctx, sess, "notifications.mark_all_read", http.MethodPost, "/notifications/mark-all-as-read", nil)
}

func (c *Client) DeleteNotification(ctx context.Context, sess *session.Session, id int) error {
	return c.doNoContent(ctx, sess, "notifications.delete", http.MethodDelete, fmt.Sprintf("/notifications/%d", id), nil)
}

// ActivityScope 动态范围：全部、某个项目或某个任务，TaskID 优先
type ActivityScope struct {
	ProjectID int
	TaskID    int
}

func (s ActivityScope) path() string {
	switch {
	case s.TaskID > 0:
		return fmt.Sprintf("/tasks/%d/activities", s.TaskID)
	case s.ProjectID > 0:
		return fmt.Sprintf("/projects/%d/activities", s.ProjectID)
	default:
		return "/activities"
	}
}

// String 用作去重与日志的 scope 名
func (s ActivityScope) String() string {
	switch {
	case s.TaskID > 0:
		return fmt.Sprintf("task-%d", s.TaskID)
	case s.ProjectID > 0:
		return fmt.Sprintf("project-%d", s.ProjectID)
	default:
		return "all"
	}
}

// ParseActivityScope 解析 all、project:<id>、task:<id>
func ParseActivityScope(s string) (ActivityScope, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "all" {
		return ActivityScope{}, nil
	}
	kind, raw, ok := strings.Cut(s, ":")
	id, err := strconv.Atoi(raw)
	if !ok || err != nil || id <= 0 {
		return ActivityScope{}, fmt.Errorf("invalid activity scope %q", s)
	}
	switch kind {
	case "project":
		return ActivityScope{ProjectID: id}, nil
	case "task":
		return ActivityScope{TaskID: id}, nil
	}
	return ActivityScope{}, fmt.Errorf("invalid activity scope %q", s)
}

// ListActivities 动态接口是分页的 {data:[...]}
func (c *Client) ListActivities(ctx context.Context, sess *session.Session, scope ActivityScope) ([]model.Activity, error) {
	return getList[model.Activity](ctx, c, sess, "activities.list", scope.path())
}
