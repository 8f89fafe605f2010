package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"projecthub/internal/model"
	"projecthub/internal/session"
)

// Dashboard 项目经理视图：自己的项目与任务
func (c *Client) Dashboard(ctx context.Context, sess *session.Session) (model.Dashboard, error) {
	return doJSON[model.Dashboard](ctx, c, sess, "dashboard", http.MethodGet, "/dashboard", nil)
}

// MemberDashboard 成员视图：每条记录是一个项目下分配给该成员的一部分任务
func (c *Client) MemberDashboard(ctx context.Context, sess *session.Session) (model.MemberDashboard, error) {
	return doJSON[model.MemberDashboard](ctx, c, sess, "dashboard.member", http.MethodGet, "/Member-Dashboard", nil)
}

func (c *Client) GetProject(ctx context.Context, sess *session.Session, projectID int) (model.Project, error) {
	return doJSON[model.Project](ctx, c, sess, "projects.show", http.MethodGet, projectPath(projectID), nil)
}

func (c *Client) CreateProject(ctx context.Context, sess *session.Session, in model.ProjectInput) (model.Project, error) {
	return doJSON[model.Project](ctx, c, sess, "projects.create", http.MethodPost, "/projects", in)
}

func (c *Client) UpdateProject(ctx context.Context, sess *session.Session, projectID int, in model.ProjectInput) (model.Project, error) {
	return doJSON[model.Project](ctx, c, sess, "projects.update", http.MethodPut, projectPath(projectID), in)
}

func (c *Client) DeleteProject(ctx context.Context, sess *session.Session, projectID int) error {
	return c.doNoContent(ctx, sess, "projects.delete", http.MethodDelete, projectPath(projectID), nil)
}

func (c *Client) ListTasks(ctx context.Context, sess *session.Session, projectID int) ([]model.Task, error) {
	return getList[model.Task](ctx, c, sess, "tasks.list", projectPath(projectID)+"/tasks")
}

func (c *Client) CreateTask(ctx context.Context, sess *session.Session, projectID int, in model.TaskInput) (model.Task, error) {
	return doJSON[model.Task](ctx, c, sess, "tasks.create", http.MethodPost, projectPath(projectID)+"/tasks", in)
}

func (c *Client) UpdateTask(ctx context.Context, sess *session.Session, projectID, taskID int, in any) (model.Task, error) {
	return doJSON[model.Task](ctx, c, sess, "tasks.update", http.MethodPut, taskPath(projectID, taskID), in)
}

func (c *Client) DeleteTask(ctx context.Context, sess *session.Session, projectID, taskID int) error {
	return c.doNoContent(ctx, sess, "tasks.delete", http.MethodDelete, taskPath(projectID, taskID), nil)
}

func (c *Client) ListExpenditures(ctx context.Context, sess *session.Session, projectID int) ([]model.Expenditure, error) {
	return getList[model.Expenditure](ctx, c, sess, "expenditures.list", projectPath(projectID)+"/expenditures")
}

func (c *Client) CreateExpenditure(ctx context.Context, sess *session.Session, projectID int, in model.ExpenditureInput) (model.Expenditure, error) {
	return doJSON[model.Expenditure](ctx, c, sess, "expenditures.create", http.MethodPost, projectPath(projectID)+"/expenditures", in)
}

func projectPath(projectID int) string {
	return fmt.Sprintf("/projects/%d", projectID)
}

func taskPath(projectID, taskID int) string {
	return fmt.Sprintf("/projects/%d/tasks/%d", projectID, taskID)
}
