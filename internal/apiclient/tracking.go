package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"projecthub/internal/model"
	"projecthub/internal/session"
)

func (c *Client) ListRisks(ctx context.Context, sess *session.Session, projectID int) ([]model.Risk, error) {
	return getList[model.Risk](ctx, c, sess, "risks.list", projectPath(projectID)+"/risks")
}

func (c *Client) CreateRisk(ctx context.Context, sess *session.Session, projectID int, in model.RiskInput) (model.Risk, error) {
	return doJSON[model.Risk](ctx, c, sess, "risks.create", http.MethodPost, projectPath(projectID)+"/risks", in)
}

func (c *Client) UpdateRisk(ctx context.Context, sess *session.Session, projectID, riskID int, in model.RiskInput) (model.Risk, error) {
	path := fmt.Sprintf("%s/risks/%d", projectPath(projectID), riskID)
	return doJSON[model.Risk](ctx, c, sess, "risks.update", http.MethodPut, path, in)
}

func (c *Client) DeleteRisk(ctx context.Context, sess *session.Session, projectID, riskID int) error {
	path := fmt.Sprintf("%s/risks/%d", projectPath(projectID), riskID)
	return c.doNoContent(ctx, sess, "risks.delete", http.MethodDelete, path, nil)
}

func (c *Client) ListIssues(ctx context.Context, sess *session.Session, projectID int) ([]model.Issue, error) {
	return getList[model.Issue](ctx, c, sess, "issues.list", projectPath(projectID)+"/issues")
}

func (c *Client) CreateIssue(ctx context.Context, sess *session.Session, projectID int, in model.IssueInput) (model.Issue, error) {
	return doJSON[model.Issue](ctx, c, sess, "issues.create", http.MethodPost, projectPath(projectID)+"/issues", in)
}

func (c *Client) UpdateIssue(ctx context.Context, sess *session.Session, projectID, issueID int, in model.IssueInput) (model.Issue, error) {
	path := fmt.Sprintf("%s/issues/%d", projectPath(projectID), issueID)
	return doJSON[model.Issue](ctx, c, sess, "issues.update", http.MethodPut, path, in)
}

func (c *Client) DeleteIssue(ctx context.Context, sess *session.Session, projectID, issueID int) error {
	path := fmt.Sprintf("%s/issues/%d", projectPath(projectID), issueID)
	return c.doNoContent(ctx, sess, "issues.delete", http.MethodDelete, path, nil)
}
