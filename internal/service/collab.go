package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"projecthub/internal/access"
	"projecthub/internal/apiclient"
	"projecthub/internal/model"
	"projecthub/internal/session"
	"projecthub/internal/validation"
	"projecthub/pkg/logger"
	"projecthub/pkg/rbac"
)

type CommentService struct {
	api    API
	logger *zap.Logger
}

func (s *CommentService) List(ctx context.Context, sess *session.Session, projectID, taskID int) ([]model.Comment, error) {
	return s.api.ListComments(ctx, sess, projectID, taskID)
}

// Create 内容与附件至少有一项
func (s *CommentService) Create(ctx context.Context, sess *session.Session, projectID, taskID int, content string, files []model.Upload) (model.Comment, error) {
	log := logger.WithTrace(ctx, s.logger)
	if err := rbac.CheckPermission(sess.Role, rbac.PermissionComment); err != nil {
		return model.Comment{}, err
	}
	var r validation.Result
	if strings.TrimSpace(content) == "" && len(files) == 0 {
		r.Errors = append(r.Errors, "Comment content or attachment is required")
	}
	if err := reject(log, "comment", r); err != nil {
		return model.Comment{}, err
	}

	c, err := s.api.CreateComment(ctx, sess, projectID, taskID, content, files)
	if err != nil {
		return model.Comment{}, err
	}
	log.Info("Comment created",
		zap.Int("task_id", taskID),
		zap.Int("comment_id", c.ID),
		zap.Int("attachments", len(files)),
	)
	return c, nil
}

func (s *CommentService) Update(ctx context.Context, sess *session.Session, projectID, taskID, commentID int, content string) (model.Comment, error) {
	log := logger.WithTrace(ctx, s.logger)
	var r validation.Result
	if strings.TrimSpace(content) == "" {
		r.Errors = append(r.Errors, "Comment content is required")
	}
	if err := reject(log, "comment", r); err != nil {
		return model.Comment{}, err
	}

	existing, err := s.find(ctx, sess, projectID, taskID, commentID)
	if err != nil {
		return model.Comment{}, err
	}
	if err := access.RequireEditComment(existing, sess.UserID); err != nil {
		return model.Comment{}, err
	}

	c, err := s.api.UpdateComment(ctx, sess, projectID, taskID, commentID, content)
	if err != nil {
		return model.Comment{}, err
	}
	log.Info("Comment updated", zap.Int("comment_id", commentID))
	return c, nil
}

func (s *CommentService) Delete(ctx context.Context, sess *session.Session, projectID, taskID, commentID int) error {
	existing, err := s.find(ctx, sess, projectID, taskID, commentID)
	if err != nil {
		return err
	}
	if !access.CanDeleteComment(existing, sess.UserID) {
		return rbac.DenyOwnership(sess.UserID, rbac.PermissionEditComment, "only the author can delete this comment")
	}
	if err := s.api.DeleteComment(ctx, sess, projectID, taskID, commentID); err != nil {
		return err
	}
	logger.WithTrace(ctx, s.logger).Info("Comment deleted", zap.Int("comment_id", commentID))
	return nil
}

func (s *CommentService) find(ctx context.Context, sess *session.Session, projectID, taskID, commentID int) (model.Comment, error) {
	comments, err := s.api.ListComments(ctx, sess, projectID, taskID)
	if err != nil {
		return model.Comment{}, err
	}
	for _, c := range comments {
		if c.ID == commentID {
			return c, nil
		}
	}
	return model.Comment{}, &NotFoundError{Kind: "comment", ID: commentID}
}

type FileService struct {
	api    API
	logger *zap.Logger
}

// List 只返回当前用户可见的文件
func (s *FileService) List(ctx context.Context, sess *session.Session, projectID int) ([]model.File, error) {
	files, err := s.api.ListFiles(ctx, sess, projectID)
	if err != nil {
		return nil, err
	}
	return access.VisibleFiles(files, sess.UserID), nil
}

func normalizeAccess(a model.FileAccessUpdate) (model.FileAccessUpdate, validation.Result) {
	var r validation.Result
	switch a.AccessLevel {
	case "":
		a.AccessLevel = model.AccessRestricted
	case model.AccessRestricted, model.AccessEveryone:
	default:
		r.Errors = append(r.Errors, "Access level must be restricted or everyone")
	}
	if a.AccessLevel == model.AccessEveryone {
		a.AssignedUserIDs = []int{}
	}
	return a, r
}

func (s *FileService) Upload(ctx context.Context, sess *session.Session, projectID int, upload model.Upload, a model.FileAccessUpdate) (model.File, error) {
	log := logger.WithTrace(ctx, s.logger)
	if err := rbac.CheckPermission(sess.Role, rbac.PermissionUploadFile); err != nil {
		return model.File{}, err
	}

	a, r := normalizeAccess(a)
	if upload.Name == "" || len(upload.Content) == 0 {
		r.Errors = append(r.Errors, "Please select a file to upload")
	}
	if err := reject(log, "file", r); err != nil {
		return model.File{}, err
	}

	f, err := s.api.UploadFile(ctx, sess, projectID, upload, a)
	if err != nil {
		return model.File{}, err
	}
	log.Info("File uploaded",
		zap.Int("project_id", projectID),
		zap.Int("file_id", f.ID),
		zap.String("access_level", string(a.AccessLevel)),
	)
	return f, nil
}

// UpdateAccess 改为 everyone 时清空指定成员
func (s *FileService) UpdateAccess(ctx context.Context, sess *session.Session, projectID, fileID int, a model.FileAccessUpdate) (model.File, error) {
	log := logger.WithTrace(ctx, s.logger)
	a, r := normalizeAccess(a)
	if err := reject(log, "file_access", r); err != nil {
		return model.File{}, err
	}
	if _, err := s.manageable(ctx, sess, projectID, fileID); err != nil {
		return model.File{}, err
	}

	f, err := s.api.UpdateFileAccess(ctx, sess, projectID, fileID, a)
	if err != nil {
		return model.File{}, err
	}
	log.Info("File access updated", zap.Int("file_id", fileID), zap.String("access_level", string(a.AccessLevel)))
	return f, nil
}

func (s *FileService) Delete(ctx context.Context, sess *session.Session, projectID, fileID int) error {
	if _, err := s.manageable(ctx, sess, projectID, fileID); err != nil {
		return err
	}
	if err := s.api.DeleteFile(ctx, sess, projectID, fileID); err != nil {
		return err
	}
	logger.WithTrace(ctx, s.logger).Info("File deleted", zap.Int("file_id", fileID))
	return nil
}

// Download 调用方负责关闭 Body
func (s *FileService) Download(ctx context.Context, sess *session.Session, projectID, fileID int) (model.File, *apiclient.Download, error) {
	f, err := s.find(ctx, sess, projectID, fileID)
	if err != nil {
		return model.File{}, nil, err
	}
	if err := access.RequireViewFile(f, sess.UserID); err != nil {
		return model.File{}, nil, err
	}
	dl, err := s.api.DownloadFile(ctx, sess, projectID, fileID)
	if err != nil {
		return model.File{}, nil, err
	}
	return f, dl, nil
}

func (s *FileService) Members(ctx context.Context, sess *session.Session, projectID, fileID int) ([]model.User, error) {
	f, err := s.find(ctx, sess, projectID, fileID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireViewFile(f, sess.UserID); err != nil {
		return nil, err
	}
	return s.api.ListFileMembers(ctx, sess, projectID, fileID)
}

func (s *FileService) AddMembers(ctx context.Context, sess *session.Session, projectID, fileID int, userIDs []int) error {
	if _, err := s.manageable(ctx, sess, projectID, fileID); err != nil {
		return err
	}
	return s.api.AddFileMembers(ctx, sess, projectID, fileID, userIDs)
}

func (s *FileService) RemoveMembers(ctx context.Context, sess *session.Session, projectID, fileID int, userIDs []int) error {
	if _, err := s.manageable(ctx, sess, projectID, fileID); err != nil {
		return err
	}
	return s.api.RemoveFileMembers(ctx, sess, projectID, fileID, userIDs)
}

func (s *FileService) manageable(ctx context.Context, sess *session.Session, projectID, fileID int) (model.File, error) {
	f, err := s.find(ctx, sess, projectID, fileID)
	if err != nil {
		return model.File{}, err
	}
	return f, access.RequireManageFile(f, sess.UserID)
}

func (s *FileService) find(ctx context.Context, sess *session.Session, projectID, fileID int) (model.File, error) {
	files, err := s.api.ListFiles(ctx, sess, projectID)
	if err != nil {
		return model.File{}, err
	}
	for _, f := range files {
		if f.ID == fileID {
			return f, nil
		}
	}
	return model.File{}, &NotFoundError{Kind: "file", ID: fileID}
}
