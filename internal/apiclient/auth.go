package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"projecthub/internal/model"
	"projecthub/internal/session"
)

// Login 登录不需要会话
func (c *Client) Login(ctx context.Context, creds model.Credentials) (model.LoginResponse, error) {
	return doJSON[model.LoginResponse](ctx, c, nil, "auth.login", http.MethodPost, "/login", creds)
}

func (c *Client) Register(ctx context.Context, reg model.Registration) (model.User, error) {
	return doJSON[model.User](ctx, c, nil, "auth.register", http.MethodPost, "/register", reg)
}

// Logout 上游没有登出接口时返回的 404 由调用方忽略
func (c *Client) Logout(ctx context.Context, sess *session.Session) error {
	return c.doNoContent(ctx, sess, "auth.logout", http.MethodPost, "/logout", nil)
}

// CurrentUser GET /user
func (c *Client) CurrentUser(ctx context.Context, sess *session.Session) (model.User, error) {
	return doJSON[model.User](ctx, c, sess, "auth.user", http.MethodGet, "/user", nil)
}

func (c *Client) ListUsers(ctx context.Context, sess *session.Session) ([]model.User, error) {
	return getList[model.User](ctx, c, sess, "users.list", "/users")
}

func (c *Client) ListProjectMembers(ctx context.Context, sess *session.Session, projectID int) ([]model.User, error) {
	return getList[model.User](ctx, c, sess, "projects.members", fmt.Sprintf("/projects/%d/members", projectID))
}
