package access

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projecthub/internal/model"
	"projecthub/pkg/rbac"
)

func TestCanViewFile(t *testing.T) {
	restricted := model.File{ID: 1, UploaderID: 7, AccessLevel: model.AccessRestricted, AssignedUserIDs: []int{3}}
	public := model.File{ID: 2, UploaderID: 7, AccessLevel: model.AccessEveryone}

	tests := []struct {
		name  string
		file  model.File
		actor int
		want  bool
	}{
		{"assigned member", restricted, 3, true},
		{"stranger", restricted, 9, false},
		{"uploader", restricted, 7, true},
		{"everyone file", public, 9, true},
		{"everyone file any actor", public, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanViewFile(tt.file, tt.actor))
			assert.Equal(t, tt.want, CanViewFile(tt.file, tt.actor))
		})
	}
}

func TestCanManageFile(t *testing.T) {
	f := model.File{UploaderID: 7, AccessLevel: model.AccessEveryone, AssignedUserIDs: []int{3}}
	assert.True(t, CanManageFile(f, 7))
	assert.False(t, CanManageFile(f, 3))

	err := RequireManageFile(f, 3)
	var denied *rbac.PermissionDeniedError
	require.True(t, errors.As(err, &denied))
	assert.Equal(t, rbac.PermissionManageFile, denied.Permission)
	assert.NoError(t, RequireManageFile(f, 7))
}

func TestComments(t *testing.T) {
	c := model.Comment{ID: 4, UserID: 12}
	assert.True(t, CanEditComment(c, 12))
	assert.False(t, CanEditComment(c, 13))
	assert.False(t, CanDeleteComment(c, 13))
	assert.Error(t, RequireEditComment(c, 13))
}

func TestCanDeleteRiskOrIssue(t *testing.T) {
	assert.True(t, CanDeleteRiskOrIssue(rbac.RoleProjectManager))
	assert.False(t, CanDeleteRiskOrIssue(rbac.RoleTeamMember))
	assert.False(t, CanDeleteRiskOrIssue(""))

	assert.NoError(t, RequireDeleteRiskOrIssue(rbac.RoleProjectManager, rbac.PermissionDeleteIssue))
	assert.Error(t, RequireDeleteRiskOrIssue(rbac.RoleTeamMember, rbac.PermissionDeleteRisk))
}

func TestVisibleFiles(t *testing.T) {
	files := []model.File{
		{ID: 1, UploaderID: 7, AccessLevel: model.AccessRestricted, AssignedUserIDs: []int{3}},
		{ID: 2, UploaderID: 8, AccessLevel: model.AccessRestricted},
		{ID: 3, UploaderID: 8, AccessLevel: model.AccessEveryone},
	}
	got := VisibleFiles(files, 3)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].ID)
	assert.Equal(t, 3, got[1].ID)
	assert.Empty(t, VisibleFiles(nil, 3))
}
