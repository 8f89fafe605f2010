package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"projecthub/internal/apiclient"
	"projecthub/internal/grouping"
	"projecthub/internal/model"
	"projecthub/internal/session"
	"projecthub/internal/validation"
	"projecthub/pkg/rbac"
)

var fixedNow = time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)

func newServices(api *fakeAPI, store session.Store) *Services {
	if store == nil {
		store = session.NewMemoryStore()
	}
	return New(api, store, Options{
		SessionTTL: time.Hour,
		GroupMode:  grouping.ByTitle,
		Now:        func() time.Time { return fixedNow },
	}, zap.NewNop())
}

var (
	pm     = &session.Session{ID: "pm", Token: "t1", UserID: 1, Role: rbac.RoleProjectManager}
	member = &session.Session{ID: "tm", Token: "t2", UserID: 3, Role: rbac.RoleTeamMember}
)

func hours(v int64) decimal.NullDecimal { return decimal.NewNullDecimal(decimal.NewFromInt(v)) }
func intPtr(v int) *int               { return &v }

func requireValidation(t *testing.T, err error) *validation.Error {
	t.Helper()
	var verr *validation.Error
	require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
	return verr
}

func TestAuthLogin(t *testing.T) {
	api := newFakeAPI()
	exp := fixedNow.Add(30 * time.Minute)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()}).SignedString([]byte("k"))
	require.NoError(t, err)
	api.login = model.LoginResponse{Token: tok, Role: rbac.RoleTeamMember, UserID: 3}

	store := session.NewMemoryStore()
	svc := newServices(api, store)

	sess, err := svc.Auth.Login(context.Background(), model.Credentials{Email: "a@b.c", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "Fetched Name", sess.Name)

	resumed, err := svc.Auth.Resume(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, tok, resumed.Token)

	require.NoError(t, svc.Auth.Logout(context.Background(), sess))
	_, err = svc.Auth.Resume(context.Background(), sess.ID)
	assert.ErrorIs(t, err, apiclient.ErrUnauthorized)
}

func TestAuthLoginRejectsUnknownRole(t *testing.T) {
	api := newFakeAPI()
	api.login = model.LoginResponse{Token: "x", Role: "Admin", UserID: 1, Name: "n"}
	svc := newServices(api, nil)

	_, err := svc.Auth.Login(context.Background(), model.Credentials{Email: "a@b.c", Password: "pw"})
	verr := requireValidation(t, err)
	assert.Equal(t, []string{"Invalid role"}, verr.Messages())
}

func TestAuthLoginRequiresCredentials(t *testing.T) {
	api := newFakeAPI()
	svc := newServices(api, nil)

	_, err := svc.Auth.Login(context.Background(), model.Credentials{})
	requireValidation(t, err)
	assert.False(t, api.called("login"))
}

func TestAuthResumeExpired(t *testing.T) {
	store := session.NewMemoryStore()
	svc := newServices(newFakeAPI(), store)
	s := &session.Session{ID: "old", ExpiresAt: fixedNow.Add(-time.Minute)}
	require.NoError(t, store.Save(context.Background(), s, time.Hour))

	_, err := svc.Auth.Resume(context.Background(), "old")
	assert.ErrorIs(t, err, apiclient.ErrUnauthorized)
	assert.ErrorIs(t, err, session.ErrExpired)
}

// failingDeleteStore 删除会话总是失败
type failingDeleteStore struct {
	session.Store
}

func (failingDeleteStore) Delete(context.Context, string) error {
	return errors.New("redis unavailable")
}

func TestAuthResumeLogsFailedCleanup(t *testing.T) {
	store := failingDeleteStore{Store: session.NewMemoryStore()}
	s := &session.Session{ID: "old", UserID: 7, ExpiresAt: fixedNow.Add(-time.Minute)}
	require.NoError(t, store.Save(context.Background(), s, time.Hour))

	core, logs := observer.New(zap.WarnLevel)
	svc := New(newFakeAPI(), store, Options{
		SessionTTL: time.Hour,
		GroupMode:  grouping.ByTitle,
		Now:        func() time.Time { return fixedNow },
	}, zap.New(core))

	_, err := svc.Auth.Resume(context.Background(), "old")
	assert.ErrorIs(t, err, session.ErrExpired)

	entries := logs.FilterMessage("Failed to delete expired session").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(7), entries[0].ContextMap()["user_id"])
}

func TestProjectCreateValidation(t *testing.T) {
	api := newFakeAPI()
	svc := newServices(api, nil)

	_, err := svc.Projects.Create(context.Background(), pm, model.ProjectInput{
		Title:     "Bad",
		StartDate: model.DatePtr(2024, 5, 10),
		Deadline:  model.DatePtr(2024, 5, 1),
	})
	verr := requireValidation(t, err)
	assert.Equal(t, []string{validation.MsgProjectStartAfterDeadline}, verr.Messages())
	assert.False(t, api.called("create_project"))

	_, err = svc.Projects.Create(context.Background(), member, model.ProjectInput{Title: "x"})
	var denied *rbac.PermissionDeniedError
	assert.True(t, errors.As(err, &denied))

	p, err := svc.Projects.Create(context.Background(), pm, model.ProjectInput{Title: "Good", Budget: decimal.NewFromInt(10)})
	require.NoError(t, err)
	assert.Equal(t, 99, p.ID)
}

func TestTaskCreateChecksProjectWindow(t *testing.T) {
	api := newFakeAPI()
	api.projects[1] = model.Project{ID: 1, StartDate: model.DatePtr(2024, 1, 1), Deadline: model.DatePtr(2024, 1, 31)}
	svc := newServices(api, nil)

	_, _, err := svc.Tasks.Create(context.Background(), pm, 1, model.TaskInput{
		Title:     "late",
		Priority:  model.TaskPriorityHigh,
		StartDate: model.DatePtr(2023, 12, 30),
		Deadline:  model.DatePtr(2024, 2, 2),
	})
	verr := requireValidation(t, err)
	assert.Equal(t, []string{validation.MsgTaskStartBeforeProject, validation.MsgTaskDeadlineAfterProject}, verr.Messages())
	assert.False(t, api.called("create_task"))

	task, warnings, err := svc.Tasks.Create(context.Background(), pm, 1, model.TaskInput{
		Title:          "ok",
		Priority:       model.TaskPriorityLow,
		EstimatedHours: hours(2),
		ActualHours:    hours(3),
	})
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusPending, task.Status)
	assert.Equal(t, []string{validation.MsgActualExceedsEstimate}, warnings)
}

func TestTaskUpdateStatus(t *testing.T) {
	api := newFakeAPI()
	api.tasks[1] = []model.Task{
		{ID: 10, Title: "mine", UserID: intPtr(3), Status: model.TaskStatusPending, Priority: model.TaskPriorityLow, EstimatedHours: hours(8)},
		{ID: 11, Title: "theirs", UserID: intPtr(4), EstimatedHours: hours(8)},
	}
	svc := newServices(api, nil)
	ctx := context.Background()

	_, err := svc.Tasks.UpdateStatus(ctx, member, 1, 10, model.TaskStatusUpdate{Status: model.TaskStatusInProgress, ActualHours: decimal.NewFromInt(9)})
	verr := requireValidation(t, err)
	assert.Equal(t, []string{validation.MsgActualExceedsEstimate}, verr.Messages())
	assert.False(t, api.called("update_task"))

	_, err = svc.Tasks.UpdateStatus(ctx, member, 1, 11, model.TaskStatusUpdate{Status: model.TaskStatusCompleted, ActualHours: decimal.NewFromInt(1)})
	var denied *rbac.PermissionDeniedError
	assert.True(t, errors.As(err, &denied))

	_, err = svc.Tasks.UpdateStatus(ctx, member, 1, 12, model.TaskStatusUpdate{Status: model.TaskStatusCompleted})
	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf))

	updated, err := svc.Tasks.UpdateStatus(ctx, member, 1, 10, model.TaskStatusUpdate{Status: model.TaskStatusCompleted, ActualHours: decimal.NewFromInt(8)})
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusCompleted, updated.Status)

	in := api.lastTaskIn.(model.TaskInput)
	assert.Equal(t, "mine", in.Title)
	assert.Equal(t, model.TaskPriorityLow, in.Priority)
}

func TestTaskUpdateIsManagerOnly(t *testing.T) {
	api := newFakeAPI()
	api.projects[1] = model.Project{ID: 1}
	api.tasks[1] = []model.Task{{ID: 11, Title: "theirs", UserID: intPtr(4)}}
	svc := newServices(api, nil)
	ctx := context.Background()

	in := model.TaskInput{
		Title:    "rewritten",
		Status:   model.TaskStatusPending,
		Priority: model.TaskPriorityHigh,
		UserID:   intPtr(3),
	}
	_, _, err := svc.Tasks.Update(ctx, member, 1, 11, in)
	var denied *rbac.PermissionDeniedError
	require.True(t, errors.As(err, &denied))
	assert.Equal(t, rbac.PermissionEditTask, denied.Permission)
	assert.False(t, api.called("update_task"))

	task, _, err := svc.Tasks.Update(ctx, pm, 1, 11, in)
	require.NoError(t, err)
	assert.Equal(t, 11, task.ID)
	assert.True(t, api.called("update_task"))
}

func TestExpenditureCreateRejectsBadAmount(t *testing.T) {
	api := newFakeAPI()
	svc := newServices(api, nil)

	_, err := svc.Expenditures.Create(context.Background(), pm, 1, model.ExpenditureForm{
		Description: "Licences", Category: model.CategorySoftware, Amount: "12abc", Date: "2024-01-02",
	})
	requireValidation(t, err)
	assert.False(t, api.called("create_expenditure"))

	e, err := svc.Expenditures.Create(context.Background(), pm, 1, model.ExpenditureForm{
		Description: "Licences", Category: model.CategorySoftware, Amount: "12.50", Date: "2024-01-02",
	})
	require.NoError(t, err)
	assert.Equal(t, "12.5", e.Amount.String())
}

func TestExpenditureList(t *testing.T) {
	api := newFakeAPI()
	api.projects[1] = model.Project{ID: 1, Budget: decimal.NewFromInt(1000)}
	api.expenditures[1] = []model.Expenditure{
		{Amount: decimal.RequireFromString("100.00"), Category: model.CategoryLabor},
		{Amount: decimal.RequireFromString("250.50"), Category: model.CategoryLabor},
	}
	svc := newServices(api, nil)

	view, err := svc.Expenditures.List(context.Background(), pm, 1)
	require.NoError(t, err)
	assert.Equal(t, "350.5", view.Summary.TotalSpent.String())
	assert.Equal(t, 35, view.Summary.UtilizationPercent)
	require.Len(t, view.ByCategory, 1)
}

func TestProjectOverviewDegradesPerProject(t *testing.T) {
	api := newFakeAPI()
	api.projects[1] = model.Project{ID: 1, Title: "A", Budget: decimal.NewFromInt(100),
		StartDate: model.DatePtr(2024, 1, 1), Deadline: model.DatePtr(2024, 1, 11)}
	api.projects[2] = model.Project{ID: 2, Title: "B", Tasks: []model.Task{{Status: model.TaskStatusCompleted}}}
	api.tasks[1] = []model.Task{{Status: model.TaskStatusCompleted}, {Status: model.TaskStatusPending}}
	api.expenditures[1] = []model.Expenditure{{Amount: decimal.NewFromInt(75)}}
	api.failTasksFor[2] = errors.New("boom")
	svc := newServices(api, nil)

	rows, err := svc.Projects.Overview(context.Background(), pm)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 1, rows[0].ProjectID)
	assert.Equal(t, 50, rows[0].TaskCompletion)
	assert.Equal(t, 50, rows[0].Timeline)
	assert.Equal(t, 75, rows[0].Budget)
	assert.Equal(t, "warning", rows[0].BudgetLevel)

	assert.Equal(t, 2, rows[1].ProjectID)
	assert.Equal(t, 100, rows[1].TaskCompletion)
}

func TestProjectOverviewStopsOnCancel(t *testing.T) {
	api := newFakeAPI()
	for id := 1; id <= 5; id++ {
		api.projects[id] = model.Project{ID: id}
	}
	started := make(chan struct{}, 5)
	api.tasksHook = func(ctx context.Context) error {
		started <- struct{}{}
		<-ctx.Done()
		return ctx.Err()
	}
	svc := New(api, session.NewMemoryStore(), Options{OverviewConcurrency: 1}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := svc.Projects.Overview(ctx, pm)
		done <- err
	}()

	<-started
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("overview kept waiting after cancel")
	}
	assert.Empty(t, started, "no project fetch should start after cancel")
}

func TestCommentOwnership(t *testing.T) {
	api := newFakeAPI()
	api.comments = []model.Comment{{ID: 1, UserID: 3}, {ID: 2, UserID: 4}}
	svc := newServices(api, nil)
	ctx := context.Background()

	_, err := svc.Comments.Update(ctx, member, 1, 1, 2, "edit")
	var denied *rbac.PermissionDeniedError
	require.True(t, errors.As(err, &denied))
	assert.False(t, api.called("update_comment"))

	c, err := svc.Comments.Update(ctx, member, 1, 1, 1, "edit")
	require.NoError(t, err)
	assert.Equal(t, "edit", c.Content)

	assert.Error(t, svc.Comments.Delete(ctx, member, 1, 1, 2))
	require.NoError(t, svc.Comments.Delete(ctx, member, 1, 1, 1))

	_, err = svc.Comments.Create(ctx, member, 1, 1, "   ", nil)
	requireValidation(t, err)
}

func TestFileAccess(t *testing.T) {
	api := newFakeAPI()
	api.files = []model.File{
		{ID: 1, UploaderID: 7, AccessLevel: model.AccessRestricted, AssignedUserIDs: []int{3}},
		{ID: 2, UploaderID: 7, AccessLevel: model.AccessRestricted},
		{ID: 3, UploaderID: 3, AccessLevel: model.AccessRestricted, AssignedUserIDs: []int{8}},
	}
	svc := newServices(api, nil)
	ctx := context.Background()

	files, err := svc.Files.List(ctx, member, 1)
	require.NoError(t, err)
	assert.Len(t, files, 2)

	assert.Error(t, svc.Files.Delete(ctx, member, 1, 1))
	assert.False(t, api.called("delete_file"))

	f, err := svc.Files.UpdateAccess(ctx, member, 1, 3, model.FileAccessUpdate{AccessLevel: model.AccessEveryone, AssignedUserIDs: []int{8}})
	require.NoError(t, err)
	assert.Empty(t, f.AssignedUserIDs)

	_, _, err = svc.Files.Download(ctx, member, 1, 2)
	var denied *rbac.PermissionDeniedError
	assert.True(t, errors.As(err, &denied))
}

func TestRiskIssueDeleteIsManagerOnly(t *testing.T) {
	api := newFakeAPI()
	svc := newServices(api, nil)
	ctx := context.Background()

	assert.Error(t, svc.Risks.Delete(ctx, member, 1, 1))
	assert.Error(t, svc.Issues.Delete(ctx, member, 1, 1))
	assert.False(t, api.called("delete_risk"))

	require.NoError(t, svc.Risks.Delete(ctx, pm, 1, 1))
	require.NoError(t, svc.Issues.Delete(ctx, pm, 1, 1))
}

func TestMemberDashboardGrouping(t *testing.T) {
	api := newFakeAPI()
	api.member = model.MemberDashboard{Message: "hi", Projects: []model.ProjectAssignment{
		{ID: 1, Title: "A", Tasks: []model.Task{{ID: 1}}},
		{ID: 1, Title: "A", Tasks: []model.Task{{ID: 2}}},
	}}
	svc := newServices(api, nil)

	view, err := svc.Dashboard.Member(context.Background(), member)
	require.NoError(t, err)
	require.Len(t, view.Projects, 1)
	assert.Len(t, view.Projects[0].Tasks, 2)
	assert.Equal(t, grouping.ByTitle, view.GroupBy)
}
