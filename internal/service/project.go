package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"projecthub/internal/gantt"
	"projecthub/internal/model"
	"projecthub/internal/progress"
	"projecthub/internal/session"
	"projecthub/internal/validation"
	"projecthub/pkg/logger"
	"projecthub/pkg/rbac"
)

type ProjectService struct {
	api         API
	now         func() time.Time
	concurrency int
	logger      *zap.Logger
}

// Dashboard 项目经理首页
func (s *ProjectService) Dashboard(ctx context.Context, sess *session.Session) (model.Dashboard, error) {
	d, err := s.api.Dashboard(ctx, sess)
	if err != nil {
		return model.Dashboard{}, err
	}
	if d.Projects == nil {
		d.Projects = []model.Project{}
	}
	return d, nil
}

func (s *ProjectService) List(ctx context.Context, sess *session.Session) ([]model.Project, error) {
	d, err := s.Dashboard(ctx, sess)
	if err != nil {
		return nil, err
	}
	return d.Projects, nil
}

func (s *ProjectService) Get(ctx context.Context, sess *session.Session, projectID int) (model.Project, error) {
	return s.api.GetProject(ctx, sess, projectID)
}

func (s *ProjectService) Create(ctx context.Context, sess *session.Session, in model.ProjectInput) (model.Project, error) {
	log := logger.WithTrace(ctx, s.logger)
	if err := rbac.CheckPermission(sess.Role, rbac.PermissionCreateProject); err != nil {
		return model.Project{}, err
	}
	if err := reject(log, "project", validation.ValidateProjectInput(in)); err != nil {
		return model.Project{}, err
	}
	if in.UserID == 0 {
		in.UserID = sess.UserID
	}

	p, err := s.api.CreateProject(ctx, sess, in)
	if err != nil {
		return model.Project{}, err
	}
	log.Info("Project created", zap.Int("project_id", p.ID), zap.String("title", p.Title))
	return p, nil
}

func (s *ProjectService) Update(ctx context.Context, sess *session.Session, projectID int, in model.ProjectInput) (model.Project, error) {
	log := logger.WithTrace(ctx, s.logger)
	if err := rbac.CheckPermission(sess.Role, rbac.PermissionUpdateProject); err != nil {
		return model.Project{}, err
	}
	if err := reject(log, "project", validation.ValidateProjectInput(in)); err != nil {
		return model.Project{}, err
	}

	p, err := s.api.UpdateProject(ctx, sess, projectID, in)
	if err != nil {
		return model.Project{}, err
	}
	log.Info("Project updated", zap.Int("project_id", projectID))
	return p, nil
}

func (s *ProjectService) Delete(ctx context.Context, sess *session.Session, projectID int) error {
	if err := rbac.CheckPermission(sess.Role, rbac.PermissionDeleteProject); err != nil {
		return err
	}
	if err := s.api.DeleteProject(ctx, sess, projectID); err != nil {
		return err
	}
	logger.WithTrace(ctx, s.logger).Info("Project deleted", zap.Int("project_id", projectID))
	return nil
}

// Progress 单个项目的进度
func (s *ProjectService) Progress(ctx context.Context, sess *session.Session, projectID int) (progress.ProjectProgress, error) {
	p, err := s.api.GetProject(ctx, sess, projectID)
	if err != nil {
		return progress.ProjectProgress{}, err
	}
	tasks, err := s.api.ListTasks(ctx, sess, projectID)
	if err != nil {
		return progress.ProjectProgress{}, err
	}
	exps, err := s.api.ListExpenditures(ctx, sess, projectID)
	if err != nil {
		return progress.ProjectProgress{}, err
	}
	return progress.Overview(p, tasks, exps, s.now()), nil
}

// Overview 所有项目的进度。每个项目的任务与支出并发拉取，
// 单个项目拉取失败时按空列表计算并记录日志
func (s *ProjectService) Overview(ctx context.Context, sess *session.Session) ([]progress.ProjectProgress, error) {
	log := logger.WithTrace(ctx, s.logger)
	projects, err := s.List(ctx, sess)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]progress.ProjectProgress, len(projects))
	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup

	for i, p := range projects {
		wg.Add(1)
		go func(i int, p model.Project) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()
			if ctx.Err() != nil {
				return
			}

			tasks, err := s.api.ListTasks(ctx, sess, p.ID)
			if err != nil {
				log.Warn("Failed to fetch tasks for progress", zap.Int("project_id", p.ID), zap.Error(err))
				tasks = p.Tasks
			}
			exps, err := s.api.ListExpenditures(ctx, sess, p.ID)
			if err != nil {
				log.Warn("Failed to fetch expenditures for progress", zap.Int("project_id", p.ID), zap.Error(err))
				exps = nil
			}
			out[i] = progress.Overview(p, tasks, exps, now)
		}(i, p)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		log.Warn("Progress overview cancelled", zap.Int("project_count", len(projects)), zap.Error(err))
		return nil, err
	}
	log.Info("Progress overview computed", zap.Int("project_count", len(out)))
	return out, nil
}

// Gantt 项目甘特图
func (s *ProjectService) Gantt(ctx context.Context, sess *session.Session, projectID int) (gantt.Chart, error) {
	p, err := s.api.GetProject(ctx, sess, projectID)
	if err != nil {
		return gantt.Chart{}, err
	}
	tasks, err := s.api.ListTasks(ctx, sess, projectID)
	if err != nil {
		return gantt.Chart{}, err
	}
	return gantt.Build(p, tasks), nil
}
