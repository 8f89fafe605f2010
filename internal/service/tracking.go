package service

import (
	"context"

	"go.uber.org/zap"

	"projecthub/internal/access"
	"projecthub/internal/model"
	"projecthub/internal/session"
	"projecthub/internal/validation"
	"projecthub/pkg/logger"
	"projecthub/pkg/rbac"
)

type RiskService struct {
	api    API
	logger *zap.Logger
}

func (s *RiskService) List(ctx context.Context, sess *session.Session, projectID int) ([]model.Risk, error) {
	return s.api.ListRisks(ctx, sess, projectID)
}

func (s *RiskService) Create(ctx context.Context, sess *session.Session, projectID int, in model.RiskInput) (model.Risk, error) {
	log := logger.WithTrace(ctx, s.logger)
	if err := rbac.CheckPermission(sess.Role, rbac.PermissionManageRisk); err != nil {
		return model.Risk{}, err
	}
	if in.Status == "" {
		in.Status = model.RiskIdentified
	}
	if err := reject(log, "risk", validation.ValidateRiskInput(in)); err != nil {
		return model.Risk{}, err
	}
	r, err := s.api.CreateRisk(ctx, sess, projectID, in)
	if err != nil {
		return model.Risk{}, err
	}
	log.Info("Risk created", zap.Int("project_id", projectID), zap.Int("risk_id", r.ID))
	return r, nil
}

func (s *RiskService) Update(ctx context.Context, sess *session.Session, projectID, riskID int, in model.RiskInput) (model.Risk, error) {
	log := logger.WithTrace(ctx, s.logger)
	if err := rbac.CheckPermission(sess.Role, rbac.PermissionManageRisk); err != nil {
		return model.Risk{}, err
	}
	if err := reject(log, "risk", validation.ValidateRiskInput(in)); err != nil {
		return model.Risk{}, err
	}
	r, err := s.api.UpdateRisk(ctx, sess, projectID, riskID, in)
	if err != nil {
		return model.Risk{}, err
	}
	log.Info("Risk updated", zap.Int("risk_id", riskID), zap.String("status", r.Status))
	return r, nil
}

// Delete 只有项目经理可以删除
func (s *RiskService) Delete(ctx context.Context, sess *session.Session, projectID, riskID int) error {
	if err := access.RequireDeleteRiskOrIssue(sess.Role, rbac.PermissionDeleteRisk); err != nil {
		return err
	}
	if err := s.api.DeleteRisk(ctx, sess, projectID, riskID); err != nil {
		return err
	}
	logger.WithTrace(ctx, s.logger).Info("Risk deleted", zap.Int("risk_id", riskID))
	return nil
}

type IssueService struct {
	api    API
	logger *zap.Logger
}

func (s *IssueService) List(ctx context.Context, sess *session.Session, projectID int) ([]model.Issue, error) {
	return s.api.ListIssues(ctx, sess, projectID)
}

func (s *IssueService) Create(ctx context.Context, sess *session.Session, projectID int, in model.IssueInput) (model.Issue, error) {
	log := logger.WithTrace(ctx, s.logger)
	if err := rbac.CheckPermission(sess.Role, rbac.PermissionManageIssue); err != nil {
		return model.Issue{}, err
	}
	if in.Status == "" {
		in.Status = model.IssueOpen
	}
	if err := reject(log, "issue", validation.ValidateIssueInput(in)); err != nil {
		return model.Issue{}, err
	}
	is, err := s.api.CreateIssue(ctx, sess, projectID, in)
	if err != nil {
		return model.Issue{}, err
	}
	log.Info("Issue created", zap.Int("project_id", projectID), zap.Int("issue_id", is.ID))
	return is, nil
}

func (s *IssueService) Update(ctx context.Context, sess *session.Session, projectID, issueID int, in model.IssueInput) (model.Issue, error) {
	log := logger.WithTrace(ctx, s.logger)
	if err := rbac.CheckPermission(sess.Role, rbac.PermissionManageIssue); err != nil {
		return model.Issue{}, err
	}
	if err := reject(log, "issue", validation.ValidateIssueInput(in)); err != nil {
		return model.Issue{}, err
	}
	is, err := s.api.UpdateIssue(ctx, sess, projectID, issueID, in)
	if err != nil {
		return model.Issue{}, err
	}
	log.Info("Issue updated", zap.Int("issue_id", issueID), zap.String("status", is.Status))
	return is, nil
}

func (s *IssueService) Delete(ctx context.Context, sess *session.Session, projectID, issueID int) error {
	if err := access.RequireDeleteRiskOrIssue(sess.Role, rbac.PermissionDeleteIssue); err != nil {
		return err
	}
	if err := s.api.DeleteIssue(ctx, sess, projectID, issueID); err != nil {
		return err
	}
	logger.WithTrace(ctx, s.logger).Info("Issue deleted", zap.Int("issue_id", issueID))
	return nil
}
