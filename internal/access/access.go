// Package access 文件、评论、风险/问题的访问判断。
// 这里的结果只用于隐藏或禁用操作，上游 API 会再次校验。
package access

import (
	"slices"

	"projecthub/internal/model"
	"projecthub/pkg/rbac"
)

// CanViewFile 公开文件、上传者本人、被指定的成员可见
func CanViewFile(f model.File, actorID int) bool {
	if f.AccessLevel == model.AccessEveryone {
		return true
	}
	if f.UploaderID == actorID {
		return true
	}
	return slices.Contains(f.AssignedUserIDs, actorID)
}

// CanManageFile 只有上传者可以修改访问范围或删除
func CanManageFile(f model.File, actorID int) bool {
	return f.UploaderID == actorID
}

// CanEditComment 只有作者可以编辑
func CanEditComment(c model.Comment, actorID int) bool {
	return c.UserID == actorID
}

// CanDeleteComment 与编辑规则相同
func CanDeleteComment(c model.Comment, actorID int) bool {
	return CanEditComment(c, actorID)
}

// CanDeleteRiskOrIssue 只有项目经理可以删除风险与问题
func CanDeleteRiskOrIssue(role string) bool {
	return rbac.HasPermission(role, rbac.PermissionDeleteRisk) &&
		rbac.HasPermission(role, rbac.PermissionDeleteIssue)
}

// VisibleFiles 过滤出 actor 可见的文件，保持原顺序
func VisibleFiles(files []model.File, actorID int) []model.File {
	visible := make([]model.File, 0, len(files))
	for _, f := range files {
		if CanViewFile(f, actorID) {
			visible = append(visible, f)
		}
	}
	return visible
}

func RequireViewFile(f model.File, actorID int) error {
	if !CanViewFile(f, actorID) {
		return rbac.DenyOwnership(actorID, rbac.PermissionViewFile, "file is restricted")
	}
	return nil
}

func RequireManageFile(f model.File, actorID int) error {
	if !CanManageFile(f, actorID) {
		return rbac.DenyOwnership(actorID, rbac.PermissionManageFile, "only the uploader can manage this file")
	}
	return nil
}

func RequireEditComment(c model.Comment, actorID int) error {
	if !CanEditComment(c, actorID) {
		return rbac.DenyOwnership(actorID, rbac.PermissionEditComment, "only the author can change this comment")
	}
	return nil
}

// RequireDeleteRiskOrIssue perm 传 rbac.PermissionDeleteRisk 或 rbac.PermissionDeleteIssue
func RequireDeleteRiskOrIssue(role, perm string) error {
	return rbac.CheckPermission(role, perm)
}
