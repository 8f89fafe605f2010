package service

import (
	"context"
	"sync"

	"projecthub/internal/apiclient"
	"projecthub/internal/model"
	"projecthub/internal/session"
)

// fakeAPI 只实现测试用到的方法，其它方法调用会 panic
type fakeAPI struct {
	API

	mu           sync.Mutex
	calls        []string
	login        model.LoginResponse
	projects     map[int]model.Project
	tasks        map[int][]model.Task
	expenditures map[int][]model.Expenditure
	comments     []model.Comment
	files        []model.File
	member       model.MemberDashboard
	failTasksFor map[int]error
	lastTaskIn   any
	tasksHook    func(ctx context.Context) error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		projects:     map[int]model.Project{},
		tasks:        map[int][]model.Task{},
		expenditures: map[int][]model.Expenditure{},
		failTasksFor: map[int]error{},
	}
}

func (f *fakeAPI) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeAPI) called(call string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == call {
			return true
		}
	}
	return false
}

func (f *fakeAPI) Login(_ context.Context, _ model.Credentials) (model.LoginResponse, error) {
	f.record("login")
	return f.login, nil
}

func (f *fakeAPI) CurrentUser(_ context.Context, sess *session.Session) (model.User, error) {
	f.record("user")
	return model.User{ID: sess.UserID, Name: "Fetched Name", Role: sess.Role}, nil
}

func (f *fakeAPI) Logout(_ context.Context, _ *session.Session) error {
	f.record("logout")
	return &apiclient.APIError{StatusCode: 404}
}

func (f *fakeAPI) Dashboard(_ context.Context, _ *session.Session) (model.Dashboard, error) {
	f.record("dashboard")
	var d model.Dashboard
	for id := 1; id <= len(f.projects); id++ {
		d.Projects = append(d.Projects, f.projects[id])
	}
	return d, nil
}

func (f *fakeAPI) MemberDashboard(_ context.Context, _ *session.Session) (model.MemberDashboard, error) {
	f.record("member_dashboard")
	return f.member, nil
}

func (f *fakeAPI) GetProject(_ context.Context, _ *session.Session, id int) (model.Project, error) {
	f.record("get_project")
	p, ok := f.projects[id]
	if !ok {
		return model.Project{}, &apiclient.APIError{StatusCode: 404}
	}
	return p, nil
}

func (f *fakeAPI) CreateProject(_ context.Context, _ *session.Session, in model.ProjectInput) (model.Project, error) {
	f.record("create_project")
	return model.Project{ID: 99, Title: in.Title, Budget: in.Budget, StartDate: in.StartDate, Deadline: in.Deadline}, nil
}

func (f *fakeAPI) ListTasks(ctx context.Context, _ *session.Session, projectID int) ([]model.Task, error) {
	f.record("list_tasks")
	if f.tasksHook != nil {
		if err := f.tasksHook(ctx); err != nil {
			return nil, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failTasksFor[projectID]; err != nil {
		return nil, err
	}
	return f.tasks[projectID], nil
}

func (f *fakeAPI) CreateTask(_ context.Context, _ *session.Session, projectID int, in model.TaskInput) (model.Task, error) {
	f.record("create_task")
	return model.Task{ID: 50, ProjectID: projectID, Title: in.Title, Status: in.Status}, nil
}

func (f *fakeAPI) UpdateTask(_ context.Context, _ *session.Session, projectID, taskID int, in any) (model.Task, error) {
	f.record("update_task")
	f.mu.Lock()
	f.lastTaskIn = in
	f.mu.Unlock()
	ti := in.(model.TaskInput)
	return model.Task{ID: taskID, ProjectID: projectID, Status: ti.Status, ActualHours: ti.ActualHours, EstimatedHours: ti.EstimatedHours}, nil
}

func (f *fakeAPI) ListExpenditures(_ context.Context, _ *session.Session, projectID int) ([]model.Expenditure, error) {
	f.record("list_expenditures")
	return f.expenditures[projectID], nil
}

func (f *fakeAPI) CreateExpenditure(_ context.Context, _ *session.Session, projectID int, in model.ExpenditureInput) (model.Expenditure, error) {
	f.record("create_expenditure")
	return model.Expenditure{ID: 1, ProjectID: projectID, Amount: in.Amount, Category: in.Category}, nil
}

func (f *fakeAPI) ListComments(_ context.Context, _ *session.Session, _, _ int) ([]model.Comment, error) {
	f.record("list_comments")
	return f.comments, nil
}

func (f *fakeAPI) UpdateComment(_ context.Context, _ *session.Session, _, _, commentID int, content string) (model.Comment, error) {
	f.record("update_comment")
	return model.Comment{ID: commentID, Content: content}, nil
}

func (f *fakeAPI) DeleteComment(_ context.Context, _ *session.Session, _, _, _ int) error {
	f.record("delete_comment")
	return nil
}

func (f *fakeAPI) ListFiles(_ context.Context, _ *session.Session, _ int) ([]model.File, error) {
	f.record("list_files")
	return f.files, nil
}

func (f *fakeAPI) UpdateFileAccess(_ context.Context, _ *session.Session, _, fileID int, a model.FileAccessUpdate) (model.File, error) {
	f.record("update_file_access")
	return model.File{ID: fileID, AccessLevel: a.AccessLevel, AssignedUserIDs: a.AssignedUserIDs}, nil
}

func (f *fakeAPI) DeleteFile(_ context.Context, _ *session.Session, _, _ int) error {
	f.record("delete_file")
	return nil
}

func (f *fakeAPI) DeleteRisk(_ context.Context, _ *session.Session, _, _ int) error {
	f.record("delete_risk")
	return nil
}

func (f *fakeAPI) DeleteIssue(_ context.Context, _ *session.Session, _, _ int) error {
	f.record("delete_issue")
	return nil
}
