// Package service 控制台与命令行共用的业务流程：先做本地校验，再调用上游
package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"projecthub/internal/apiclient"
	"projecthub/internal/grouping"
	"projecthub/internal/model"
	"projecthub/internal/session"
	"projecthub/internal/validation"
	"projecthub/pkg/metrics"
)

// API 上游 REST API，*apiclient.Client 实现
type API interface {
	Login(ctx context.Context, creds model.Credentials) (model.LoginResponse, error)
	Register(ctx context.Context, reg model.Registration) (model.User, error)
	Logout(ctx context.Context, sess *session.Session) error
	CurrentUser(ctx context.Context, sess *session.Session) (model.User, error)
	ListUsers(ctx context.Context, sess *session.Session) ([]model.User, error)
	ListProjectMembers(ctx context.Context, sess *session.Session, projectID int) ([]model.User, error)

	Dashboard(ctx context.Context, sess *session.Session) (model.Dashboard, error)
	MemberDashboard(ctx context.Context, sess *session.Session) (model.MemberDashboard, error)
	GetProject(ctx context.Context, sess *session.Session, projectID int) (model.Project, error)
	CreateProject(ctx context.Context, sess *session.Session, in model.ProjectInput) (model.Project, error)
	UpdateProject(ctx context.Context, sess *session.Session, projectID int, in model.ProjectInput) (model.Project, error)
	DeleteProject(ctx context.Context, sess *session.Session, projectID int) error

	ListTasks(ctx context.Context, sess *session.Session, projectID int) ([]model.Task, error)
	CreateTask(ctx context.Context, sess *session.Session, projectID int, in model.TaskInput) (model.Task, error)
	UpdateTask(ctx context.Context, sess *session.Session, projectID, taskID int, in any) (model.Task, error)
	DeleteTask(ctx context.Context, sess *session.Session, projectID, taskID int) error

	ListExpenditures(ctx context.Context, sess *session.Session, projectID int) ([]model.Expenditure, error)
	CreateExpenditure(ctx context.Context, sess *session.Session, projectID int, in model.ExpenditureInput) (model.Expenditure, error)

	ListComments(ctx context.Context, sess *session.Session, projectID, taskID int) ([]model.Comment, error)
	CreateComment(ctx context.Context, sess *session.Session, projectID, taskID int, content string, files []model.Upload) (model.Comment, error)
	UpdateComment(ctx context.Context, sess *session.Session, projectID, taskID, commentID int, content string) (model.Comment, error)
	DeleteComment(ctx context.Context, sess *session.Session, projectID, taskID, commentID int) error

	ListFiles(ctx context.Context, sess *session.Session, projectID int) ([]model.File, error)
	UploadFile(ctx context.Context, sess *session.Session, projectID int, upload model.Upload, access model.FileAccessUpdate) (model.File, error)
	UpdateFileAccess(ctx context.Context, sess *session.Session, projectID, fileID int, access model.FileAccessUpdate) (model.File, error)
	DeleteFile(ctx context.Context, sess *session.Session, projectID, fileID int) error
	DownloadFile(ctx context.Context, sess *session.Session, projectID, fileID int) (*apiclient.Download, error)
	ListFileMembers(ctx context.Context, sess *session.Session, projectID, fileID int) ([]model.User, error)
	AddFileMembers(ctx context.Context, sess *session.Session, projectID, fileID int, userIDs []int) error
	RemoveFileMembers(ctx context.Context, sess *session.Session, projectID, fileID int, userIDs []int) error

	ListRisks(ctx context.Context, sess *session.Session, projectID int) ([]model.Risk, error)
	CreateRisk(ctx context.Context, sess *session.Session, projectID int, in model.RiskInput) (model.Risk, error)
	UpdateRisk(ctx context.Context, sess *session.Session, projectID, riskID int, in model.RiskInput) (model.Risk, error)
	DeleteRisk(ctx context.Context, sess *session.Session, projectID, riskID int) error
	ListIssues(ctx context.Context, sess *session.Session, projectID int) ([]model.Issue, error)
	CreateIssue(ctx context.Context, sess *session.Session, projectID int, in model.IssueInput) (model.Issue, error)
	UpdateIssue(ctx context.Context, sess *session.Session, projectID, issueID int, in model.IssueInput) (model.Issue, error)
	DeleteIssue(ctx context.Context, sess *session.Session, projectID, issueID int) error

	ListNotifications(ctx context.Context, sess *session.Session) ([]model.Notification, error)
	UnreadCount(ctx context.Context, sess *session.Session) (int, error)
	MarkNotificationRead(ctx context.Context, sess *session.Session, id int) error
	MarkAllNotificationsRead(ctx context.Context, sess *session.Session) error
	DeleteNotification(ctx context.Context, sess *session.Session, id int) error
	ListActivities(ctx context.Context, sess *session.Session, scope apiclient.ActivityScope) ([]model.Activity, error)
}

var _ API = (*apiclient.Client)(nil)

// Options 服务层配置
type Options struct {
	SessionTTL time.Duration
	GroupMode  grouping.Mode
	// 项目总览并发拉取任务/支出的上限
	OverviewConcurrency int
	Now                 func() time.Time
}

// Services 所有服务的集合，handler 与 pmctl 使用
type Services struct {
	Auth          *AuthService
	Projects      *ProjectService
	Tasks         *TaskService
	Expenditures  *ExpenditureService
	Comments      *CommentService
	Files         *FileService
	Risks         *RiskService
	Issues        *IssueService
	Notifications *NotificationService
	Activities    *ActivityService
	Dashboard     *DashboardService
}

func New(api API, store session.Store, opts Options, logger *zap.Logger) *Services {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	if opts.OverviewConcurrency <= 0 {
		opts.OverviewConcurrency = 4
	}
	if opts.GroupMode == "" {
		opts.GroupMode = grouping.ByTitle
	}

	return &Services{
		Auth:          &AuthService{api: api, store: store, ttl: opts.SessionTTL, now: opts.Now, logger: logger},
		Projects:      &ProjectService{api: api, now: opts.Now, concurrency: opts.OverviewConcurrency, logger: logger},
		Tasks:         &TaskService{api: api, logger: logger},
		Expenditures:  &ExpenditureService{api: api, logger: logger},
		Comments:      &CommentService{api: api, logger: logger},
		Files:         &FileService{api: api, logger: logger},
		Risks:         &RiskService{api: api, logger: logger},
		Issues:        &IssueService{api: api, logger: logger},
		Notifications: &NotificationService{api: api, logger: logger},
		Activities:    &ActivityService{api: api, logger: logger},
		Dashboard:     &DashboardService{api: api, mode: opts.GroupMode, logger: logger},
	}
}

// NotFoundError 本地查找资源失败
type NotFoundError struct {
	Kind string
	ID   int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

func (e *NotFoundError) HTTPStatus() int {
	return http.StatusNotFound
}

// reject 记录一次被拦截的提交；结果有效时返回 nil
func reject(log *zap.Logger, rule string, r validation.Result) error {
	err := r.Err(rule)
	if err == nil {
		return nil
	}
	metrics.IncrementValidationReject(rule)
	log.Warn("Submission blocked by validation",
		zap.String("rule", rule),
		zap.Strings("errors", r.Errors),
	)
	return err
}
