package service

import (
	"context"

	"go.uber.org/zap"

	"projecthub/internal/budget"
	"projecthub/internal/model"
	"projecthub/internal/session"
	"projecthub/internal/validation"
	"projecthub/pkg/logger"
	"projecthub/pkg/rbac"
)

type ExpenditureService struct {
	api    API
	logger *zap.Logger
}

// ExpenditureView 支出列表与预算汇总
type ExpenditureView struct {
	Expenditures []model.Expenditure    `json:"expenditures"`
	Summary      budget.Summary         `json:"summary"`
	ByCategory   []budget.CategoryTotal `json:"by_category"`
}

func (s *ExpenditureService) List(ctx context.Context, sess *session.Session, projectID int) (ExpenditureView, error) {
	p, err := s.api.GetProject(ctx, sess, projectID)
	if err != nil {
		return ExpenditureView{}, err
	}
	exps, err := s.api.ListExpenditures(ctx, sess, projectID)
	if err != nil {
		return ExpenditureView{}, err
	}
	return ExpenditureView{
		Expenditures: exps,
		Summary:      budget.Summarize(p, exps),
		ByCategory:   budget.SpentByCategory(exps),
	}, nil
}

// Create 金额在提交前解析，非法金额不会到达上游
func (s *ExpenditureService) Create(ctx context.Context, sess *session.Session, projectID int, form model.ExpenditureForm) (model.Expenditure, error) {
	log := logger.WithTrace(ctx, s.logger)
	if err := rbac.CheckPermission(sess.Role, rbac.PermissionAddExpense); err != nil {
		return model.Expenditure{}, err
	}

	in, r := validation.ValidateExpenditure(form)
	if err := reject(log, "expenditure", r); err != nil {
		return model.Expenditure{}, err
	}

	e, err := s.api.CreateExpenditure(ctx, sess, projectID, in)
	if err != nil {
		return model.Expenditure{}, err
	}
	log.Info("Expenditure recorded",
		zap.Int("project_id", projectID),
		zap.Int("expenditure_id", e.ID),
		zap.String("amount", in.Amount.String()),
		zap.String("category", in.Category),
	)
	return e, nil
}
