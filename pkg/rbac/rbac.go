package rbac

import "fmt"

// 权限常量
const (
	// 项目经理专属
	PermissionCreateProject = "project:create"
	PermissionUpdateProject = "project:update"
	PermissionDeleteProject = "project:delete"
	PermissionCreateTask    = "task:create"
	PermissionEditTask      = "task:edit"
	PermissionDeleteTask    = "task:delete"
	PermissionDeleteRisk    = "risk:delete"
	PermissionDeleteIssue   = "issue:delete"
	PermissionAddExpense    = "expenditure:create"

	// 所有成员
	PermissionReadProject  = "project:read"
	PermissionUpdateTask   = "task:update" // 只改自己任务的状态与实际工时
	PermissionComment      = "comment:create"
	PermissionUploadFile   = "file:upload"
	PermissionManageRisk   = "risk:write"
	PermissionManageIssue  = "issue:write"
	PermissionReadActivity = "activity:read"

	// 按资源归属判断，不进角色表
	PermissionViewFile    = "file:read"
	PermissionManageFile  = "file:manage"
	PermissionEditComment = "comment:edit"
)

// 角色常量（与上游 API 返回的 role 字段一致）
const (
	RoleProjectManager = "Project Manager"
	RoleTeamMember     = "Team Member"
)

var memberPermissions = []string{
	PermissionReadProject,
	PermissionUpdateTask,
	PermissionComment,
	PermissionUploadFile,
	PermissionManageRisk,
	PermissionManageIssue,
	PermissionReadActivity,
}

// 角色权限映射
var rolePermissions = map[string][]string{
	RoleTeamMember: memberPermissions,
	RoleProjectManager: append([]string{
		PermissionCreateProject,
		PermissionUpdateProject,
		PermissionDeleteProject,
		PermissionCreateTask,
		PermissionEditTask,
		PermissionDeleteTask,
		PermissionDeleteRisk,
		PermissionDeleteIssue,
		PermissionAddExpense,
	}, memberPermissions...),
}

// IsKnownRole 上游只定义了两种角色，其它值登录时拒绝
func IsKnownRole(role string) bool {
	_, ok := rolePermissions[role]
	return ok
}

// HasPermission 检查角色是否有指定权限
func HasPermission(role string, permission string) bool {
	permissions, ok := rolePermissions[role]
	if !ok {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// CheckPermission 检查角色是否有指定权限（返回错误而不是布尔值，便于处理）
func CheckPermission(role string, permission string) error {
	if !HasPermission(role, permission) {
		return &PermissionDeniedError{
			Role:       role,
			Permission: permission,
		}
	}
	return nil
}

// PermissionDeniedError 表示权限不足的错误
type PermissionDeniedError struct {
	Role       string
	UserID     int
	Permission string
	Reason     string
}

func (e *PermissionDeniedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("insufficient permissions: %s", e.Reason)
	}
	return "insufficient permissions"
}

// DenyOwnership 资源归属检查失败时使用（评论作者、文件上传者）
func DenyOwnership(userID int, permission, reason string) error {
	return &PermissionDeniedError{
		UserID:     userID,
		Permission: permission,
		Reason:     reason,
	}
}
