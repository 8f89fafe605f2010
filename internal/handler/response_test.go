package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projecthub/internal/apiclient"
	"projecthub/internal/service"
	"projecthub/internal/session"
	"projecthub/internal/validation"
	"projecthub/pkg/rbac"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestErrorResponse(t *testing.T) {
	invalid := validation.Result{Errors: []string{validation.MsgProjectStartAfterDeadline}}.Err("project")

	tests := []struct {
		name   string
		err    error
		status int
		check  func(t *testing.T, body gin.H)
	}{
		{
			name:   "validation",
			err:    invalid,
			status: http.StatusUnprocessableEntity,
			check: func(t *testing.T, body gin.H) {
				assert.Equal(t, []string{validation.MsgProjectStartAfterDeadline}, body["errors"])
			},
		},
		{
			name:   "upstream 401",
			err:    fmt.Errorf("projects.list: %w", &apiclient.APIError{StatusCode: 401}),
			status: http.StatusUnauthorized,
			check: func(t *testing.T, body gin.H) {
				assert.Equal(t, LoginPath, body["redirect"])
			},
		},
		{
			name:   "session expired",
			err:    fmt.Errorf("%w: %w", apiclient.ErrUnauthorized, session.ErrExpired),
			status: http.StatusUnauthorized,
		},
		{
			name:   "permission",
			err:    rbac.CheckPermission(rbac.RoleTeamMember, rbac.PermissionCreateProject),
			status: http.StatusForbidden,
		},
		{
			name:   "circuit open",
			err:    fmt.Errorf("projects.list: %w", apiclient.ErrCircuitOpen),
			status: http.StatusServiceUnavailable,
		},
		{
			name:   "not found",
			err:    &service.NotFoundError{Kind: "task", ID: 9},
			status: http.StatusNotFound,
		},
		{
			name: "upstream 422 keeps field errors",
			err: &apiclient.APIError{
				StatusCode: 422,
				Message:    "The given data was invalid.",
				Fields:     map[string][]string{"title": {"The title field is required."}},
			},
			status: http.StatusUnprocessableEntity,
			check: func(t *testing.T, body gin.H) {
				assert.Equal(t, "The given data was invalid.", body["error"])
				assert.Equal(t, []string{"The title field is required."}, body["errors"])
			},
		},
		{
			name:   "upstream 500",
			err:    &apiclient.APIError{StatusCode: 500},
			status: http.StatusInternalServerError,
		},
		{
			name:   "timeout",
			err:    fmt.Errorf("dashboard: %w", context.DeadlineExceeded),
			status: http.StatusGatewayTimeout,
		},
		{
			name:   "transport",
			err:    errors.New("dial tcp: connection refused"),
			status: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := ErrorResponse(tt.err)
			assert.Equal(t, tt.status, status)
			assert.NotEmpty(t, body["error"])
			if tt.check != nil {
				tt.check(t, body)
			}
		})
	}
}

func TestPathID(t *testing.T) {
	tests := []struct {
		raw string
		ok  bool
	}{
		{"12", true},
		{"0", false},
		{"-3", false},
		{"abc", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Params = gin.Params{{Key: "projectID", Value: tt.raw}}

			id, ok := pathID(c, "projectID")
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, 12, id)
			} else {
				assert.Equal(t, http.StatusBadRequest, w.Code)
			}
		})
	}
}

func TestParseUserIDs(t *testing.T) {
	ids, err := parseUserIDs([]string{"[3,4]", "7", " "})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4, 7}, ids)

	_, err = parseUserIDs([]string{"[3,"})
	assert.Error(t, err)

	_, err = parseUserIDs([]string{"x"})
	assert.Error(t, err)
}

func TestCurrentSessionMissing(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	_, ok := currentSession(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
