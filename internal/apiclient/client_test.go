package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"projecthub/internal/model"
	"projecthub/internal/session"
	"projecthub/pkg/circuitbreaker"
	"projecthub/pkg/trace"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{
		BaseURL: srv.URL + "/api/",
		Timeout: 2 * time.Second,
		Breaker: circuitbreaker.Config{FailureThreshold: 2, SuccessThreshold: 1, Timeout: time.Minute},
	}, zap.NewNop())
}

var sess = &session.Session{ID: "s1", Token: "tok-123", UserID: 7, Role: "Project Manager"}

func TestDecodeList(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"bare array", `[{"id":1},{"id":2}]`, 2},
		{"data envelope", `{"data":[{"id":1}]}`, 1},
		{"nested pagination", `{"data":{"current_page":1,"data":[{"id":1},{"id":2},{"id":3}]}}`, 3},
		{"empty body", ``, 0},
		{"null", `null`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeList[model.Task]([]byte(tt.body))
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
			assert.NotNil(t, got)
		})
	}

	_, err := decodeList[model.Task]([]byte(`{"message":"ok"}`))
	assert.Error(t, err)
}

func TestDecodeOne(t *testing.T) {
	p, err := decodeOne[model.Project]([]byte(`{"data":{"id":4,"title":"Wrapped","budget":"10"}}`))
	require.NoError(t, err)
	assert.Equal(t, 4, p.ID)

	p, err = decodeOne[model.Project]([]byte(`{"id":5,"title":"Plain","budget":10,"data":{"x":1}}`))
	require.NoError(t, err)
	assert.Equal(t, "Plain", p.Title)
}

func TestRequestHeaders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/projects/3/tasks", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "trace-abc", r.Header.Get(trace.HeaderName))
		_, _ = io.WriteString(w, `{"data":[{"id":1,"title":"a","status":"pending","estimated_hours":"4.5","actual_hours":null}]}`)
	})

	ctx := trace.WithContext(context.Background(), "trace-abc")
	tasks, err := c.ListTasks(ctx, sess, 3)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.True(t, tasks[0].EstimatedHours.Valid)
	assert.False(t, tasks[0].ActualHours.Valid)
}

func TestCreateExpenditureRejectsMalformedAmount(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var in map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "2024-02-01", in["date"])
		_, _ = io.WriteString(w, `{"id":9,"amount":"not-a-number"}`)
	})

	_, err := c.CreateExpenditure(context.Background(), sess, 1, model.ExpenditureInput{
		Description: "x",
		Category:    model.CategoryOther,
		Amount:      decimal.NewFromInt(5),
		Date:        model.NewDate(2024, 2, 1),
	})
	assert.Error(t, err)
}

func TestErrorMapping(t *testing.T) {
	t.Run("unauthorized", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"message":"Unauthenticated."}`)
		})
		_, err := c.CurrentUser(context.Background(), sess)
		assert.ErrorIs(t, err, ErrUnauthorized)

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "Unauthenticated.", apiErr.Message)
	})

	t.Run("session expired 419", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(419)
		})
		_, err := c.ListNotifications(context.Background(), sess)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("field errors", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = io.WriteString(w, `{"message":"invalid","errors":{"title":["The title field is required."]}}`)
		})
		_, err := c.CreateProject(context.Background(), sess, model.ProjectInput{})
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusUnprocessableEntity, apiErr.HTTPStatus())
		assert.Equal(t, []string{"The title field is required."}, apiErr.Messages())
		assert.NotErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("error key", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = io.WriteString(w, `{"error":"Only the uploader can delete this file"}`)
		})
		err := c.DeleteFile(context.Background(), sess, 1, 2)
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "Only the uploader can delete this file", apiErr.Message)
	})
}

func TestAPIErrorMessagesSortedByField(t *testing.T) {
	apiErr := parseAPIError(http.StatusUnprocessableEntity, []byte(`{
		"message": "The given data was invalid.",
		"errors": {
			"title": ["The title field is required."],
			"budget": ["The budget must be a number.", "The budget must be at least 0."],
			"deadline": ["The deadline is not a valid date."]
		}
	}`))

	want := []string{
		"The budget must be a number.",
		"The budget must be at least 0.",
		"The deadline is not a valid date.",
		"The title field is required.",
	}
	for range 5 {
		assert.Equal(t, want, apiErr.Messages())
	}
}

func TestCircuitBreakerOpensOn5xxOnly(t *testing.T) {
	calls := 0
	status := http.StatusNotFound
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(status)
	})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := c.GetProject(ctx, sess, 1)
		require.Error(t, err)
	}
	assert.Equal(t, circuitbreaker.StateClosed, c.BreakerState())

	status = http.StatusBadGateway
	for i := 0; i < 2; i++ {
		_, _ = c.GetProject(ctx, sess, 1)
	}
	assert.Equal(t, circuitbreaker.StateOpen, c.BreakerState())

	before := calls
	_, err := c.GetProject(ctx, sess, 1)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, before, calls)
}

func TestUploadFileMultipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "restricted", r.FormValue("access_level"))
		assert.Equal(t, "[3,4]", r.FormValue("assigned_user_ids"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "plan.pdf", hdr.Filename)

		_, _ = io.WriteString(w, `{"id":11,"name":"plan.pdf","uploader_id":7,"access_level":"restricted","assigned_user_ids":[3,4]}`)
	})

	file, err := c.UploadFile(context.Background(), sess, 2,
		model.Upload{Name: "plan.pdf", Content: []byte("%PDF")},
		model.FileAccessUpdate{AccessLevel: model.AccessRestricted, AssignedUserIDs: []int{3, 4}},
	)
	require.NoError(t, err)
	assert.Equal(t, 11, file.ID)
	assert.Equal(t, []int{3, 4}, file.AssignedUserIDs)
}

func TestCreateCommentAttachments(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/projects/1/tasks/2/comments", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "looks good", r.FormValue("content"))
		assert.Len(t, r.MultipartForm.File["files[0]"], 1)
		assert.Len(t, r.MultipartForm.File["files[1]"], 1)
		_, _ = io.WriteString(w, `{"id":5,"user_id":7,"content":"looks good"}`)
	})

	comment, err := c.CreateComment(context.Background(), sess, 1, 2, "looks good", []model.Upload{
		{Name: "a.txt", Content: []byte("a")},
		{Name: "b.txt", Content: []byte("b")},
	})
	require.NoError(t, err)
	assert.Equal(t, 7, comment.UserID)
}

func TestDownloadFile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = io.WriteString(w, "binary-content")
	})

	dl, err := c.DownloadFile(context.Background(), sess, 1, 2)
	require.NoError(t, err)
	defer dl.Body.Close()

	data, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	assert.Equal(t, "binary-content", string(data))
	assert.Equal(t, "application/pdf", dl.ContentType)
}

func newSlowClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{
		BaseURL: srv.URL + "/api",
		Timeout: 100 * time.Millisecond,
		Breaker: circuitbreaker.Config{FailureThreshold: 5, SuccessThreshold: 1, Timeout: time.Minute},
	}, zap.NewNop())
}

func TestDownloadOutlivesCallTimeout(t *testing.T) {
	c := newSlowClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "first ")
		w.(http.Flusher).Flush()
		time.Sleep(300 * time.Millisecond)
		_, _ = io.WriteString(w, "second")
	})

	dl, err := c.DownloadFile(context.Background(), sess, 1, 2)
	require.NoError(t, err)
	defer dl.Body.Close()

	body, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	assert.Equal(t, "first second", string(body))
}

func TestJSONCallHonoursTimeout(t *testing.T) {
	c := newSlowClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(300 * time.Millisecond):
		case <-r.Context().Done():
		}
		_, _ = io.WriteString(w, `[]`)
	})

	start := time.Now()
	_, err := c.ListNotifications(context.Background(), sess)
	require.Error(t, err)
	var netErr net.Error
	require.True(t, errors.As(err, &netErr), "expected a network error, got %v", err)
	assert.True(t, netErr.Timeout())
	assert.Less(t, time.Since(start), 250*time.Millisecond)
}

func TestNotificationsAndActivities(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/notifications/unread-count":
			_, _ = io.WriteString(w, `{"count":4}`)
		case "/api/notifications/mark-all-as-read":
			assert.Equal(t, http.MethodPost, r.Method)
			_, _ = io.WriteString(w, `{"message":"ok"}`)
		case "/api/projects/3/activities":
			_, _ = io.WriteString(w, `{"data":{"data":[{"id":1,"activity_type":"task_created","description":"created"}]}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	n, err := c.UnreadCount(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	require.NoError(t, c.MarkAllNotificationsRead(ctx, sess))

	acts, err := c.ListActivities(ctx, sess, ActivityScope{ProjectID: 3})
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, "task_created", acts[0].ActivityType)
}

func TestParseActivityScope(t *testing.T) {
	s, err := ParseActivityScope("all")
	require.NoError(t, err)
	assert.Equal(t, "/activities", s.path())

	s, err = ParseActivityScope("project:3")
	require.NoError(t, err)
	assert.Equal(t, "project-3", s.String())

	s, err = ParseActivityScope("task:8")
	require.NoError(t, err)
	assert.Equal(t, "/tasks/8/activities", s.path())

	for _, bad := range []string{"project", "task:x", "user:1", "project:0"} {
		_, err := ParseActivityScope(bad)
		assert.Error(t, err, bad)
	}
}
