package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"projecthub/internal/model"
	"projecthub/internal/service"
)

// maxUploadSize 单个上传文件的大小上限（与上游 10MB 限制一致）
const maxUploadSize = 10 << 20

type CollabHandler struct {
	comments *service.CommentService
	files    *service.FileService
	logger   *zap.Logger
}

func NewCollabHandler(comments *service.CommentService, files *service.FileService, logger *zap.Logger) *CollabHandler {
	return &CollabHandler{comments: comments, files: files, logger: logger}
}

// readUpload 读取 multipart 中的一个文件
func readUpload(fh *multipart.FileHeader) (model.Upload, error) {
	if fh.Size > maxUploadSize {
		return model.Upload{}, fmt.Errorf("file %s exceeds %d bytes", fh.Filename, maxUploadSize)
	}
	f, err := fh.Open()
	if err != nil {
		return model.Upload{}, err
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, maxUploadSize+1))
	if err != nil {
		return model.Upload{}, err
	}
	if len(content) > maxUploadSize {
		return model.Upload{}, fmt.Errorf("file %s exceeds %d bytes", fh.Filename, maxUploadSize)
	}
	return model.Upload{Name: fh.Filename, Content: content}, nil
}

// ListComments handles GET /api/projects/:projectID/tasks/:taskID/comments
func (h *CollabHandler) ListComments(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "projectID")
	if !ok {
		return
	}
	taskID, ok := pathID(c, "taskID")
	if !ok {
		return
	}
	comments, err := h.comments.List(c.Request.Context(), sess, projectID, taskID)
	if err != nil {
		respondError(c, requestLogger(c, h.logger, sess).With(zap.Int("task_id", taskID)), "List comments", err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

// CreateComment handles POST /api/projects/:projectID/tasks/:taskID/comments
// 支持 JSON 与 multipart（content + files[]）两种提交方式
func (h *CollabHandler) CreateComment(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "projectID")
	if !ok {
		return
	}
	taskID, ok := pathID(c, "taskID")
	if !ok {
		return
	}
	log := requestLogger(c, h.logger, sess).With(zap.Int("project_id", projectID), zap.Int("task_id", taskID))

	var content string
	var uploads []model.Upload
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		form, err := c.MultipartForm()
		if err != nil {
			log.Warn("Invalid comment form", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
			return
		}
		content = c.PostForm("content")
		for _, key := range []string{"files", "files[]"} {
			for _, fh := range form.File[key] {
				u, err := readUpload(fh)
				if err != nil {
					log.Warn("Rejected comment attachment", zap.Error(err))
					c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				uploads = append(uploads, u)
			}
		}
	} else {
		var req struct {
			Content string `json:"content"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			log.Warn("Invalid comment payload", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		content = req.Content
	}

	log.Info("Create comment request received", zap.Int("attachments", len(uploads)))

	comment, err := h.comments.Create(c.Request.Context(), sess, projectID, taskID, content, uploads)
	if err != nil {
		respondError(c, log, "Create comment", err)
		return
	}

	log.Info("Create comment: success", zap.Int("comment_id", comment.ID))
	c.JSON(http.StatusCreated, comment)
}

// UpdateComment handles PUT /api/projects/:projectID/tasks/:taskID/comments/:commentID
func (h *CollabHandler) UpdateComment(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "projectID")
	if !ok {
		return
	}
	taskID, ok := pathID(c, "taskID")
	if !ok {
		return
	}
	commentID, ok := pathID(c, "commentID")
	if !ok {
		return
	}
	log := requestLogger(c, h.logger, sess).With(zap.Int("comment_id", commentID))

	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid comment payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	comment, err := h.comments.Update(c.Request.Context(), sess, projectID, taskID, commentID, req.Content)
	if err != nil {
		respondError(c, log, "Update comment", err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// DeleteComment handles DELETE /api/projects/:projectID/tasks/:taskID/comments/:commentID
func (h *CollabHandler) DeleteComment(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "projectID")
	if !ok {
		return
	}
	taskID, ok := pathID(c, "taskID")
	if !ok {
		return
	}
	commentID, ok := pathID(c, "commentID")
	if !ok {
		return
	}
	if err := h.comments.Delete(c.Request.Context(), sess, projectID, taskID, commentID); err != nil {
		respondError(c, requestLogger(c, h.logger, sess).With(zap.Int("comment_id", commentID)), "Delete comment", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListFiles handles GET /api/projects/:projectID/files
func (h *CollabHandler) ListFiles(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "projectID")
	if !ok {
		return
	}
	files, err := h.files.List(c.Request.Context(), sess, projectID)
	if err != nil {
		respondError(c, requestLogger(c, h.logger, sess).With(zap.Int("project_id", projectID)), "List files", err)
		return
	}
	c.JSON(http.StatusOK, files)
}

// parseUserIDs 兼容 JSON 数组字符串与重复表单字段两种写法
func parseUserIDs(values []string) ([]int, error) {
	var ids []int
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if strings.HasPrefix(v, "[") {
			var batch []int
			if err := json.Unmarshal([]byte(v), &batch); err != nil {
				return nil, fmt.Errorf("invalid assigned_user_ids: %w", err)
			}
			ids = append(ids, batch...)
			continue
		}
		id, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid assigned_user_ids: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// UploadFile handles POST /api/projects/:projectID/files (multipart: file, access_level, assigned_user_ids)
func (h *CollabHandler) UploadFile(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "projectID")
	if !ok {
		return
	}
	log := requestLogger(c, h.logger, sess).With(zap.Int("project_id", projectID))

	fh, err := c.FormFile("file")
	if err != nil {
		log.Warn("Upload without file", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	upload, err := readUpload(fh)
	if err != nil {
		log.Warn("Rejected upload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	values := c.PostFormArray("assigned_user_ids")
	values = append(values, c.PostFormArray("assigned_user_ids[]")...)
	ids, err := parseUserIDs(values)
	if err != nil {
		log.Warn("Invalid assigned users", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	access := model.FileAccessUpdate{
		AccessLevel:     model.AccessLevel(c.PostForm("access_level")),
		AssignedUserIDs: ids,
	}

	log.Info("File upload request received",
		zap.String("file_name", upload.Name),
		zap.Int("size", len(upload.Content)),
		zap.String("access_level", string(access.AccessLevel)),
	)

	f, err := h.files.Upload(c.Request.Context(), sess, projectID, upload, access)
	if err != nil {
		respondError(c, log, "Upload file", err)
		return
	}

	log.Info("File upload: success", zap.Int("file_id", f.ID))
	c.JSON(http.StatusCreated, f)
}

// UpdateFileAccess handles PUT /api/projects/:projectID/files/:fileID
func (h *CollabHandler) UpdateFileAccess(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "projectID")
	if !ok {
		return
	}
	fileID, ok := pathID(c, "fileID")
	if !ok {
		return
	}
	log := requestLogger(c, h.logger, sess).With(zap.Int("file_id", fileID))

	var in model.FileAccessUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		log.Warn("Invalid file access payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	f, err := h.files.UpdateAccess(c.Request.Context(), sess, projectID, fileID, in)
	if err != nil {
		respondError(c, log, "Update file access", err)
		return
	}
	c.JSON(http.StatusOK, f)
}

// DeleteFile handles DELETE /api/projects/:projectID/files/:fileID
func (h *CollabHandler) DeleteFile(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "projectID")
	if !ok {
		return
	}
	fileID, ok := pathID(c, "fileID")
	if !ok {
		return
	}
	if err := h.files.Delete(c.Request.Context(), sess, projectID, fileID); err != nil {
		respondError(c, requestLogger(c, h.logger, sess).With(zap.Int("file_id", fileID)), "Delete file", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DownloadFile handles GET /api/projects/:projectID/files/:fileID/download
// 上游响应体直接转发给浏览器
func (h *CollabHandler) DownloadFile(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "projectID")
	if !ok {
		return
	}
	fileID, ok := pathID(c, "fileID")
	if !ok {
		return
	}
	log := requestLogger(c, h.logger, sess).With(zap.Int("file_id", fileID))

	f, dl, err := h.files.Download(c.Request.Context(), sess, projectID, fileID)
	if err != nil {
		respondError(c, log, "Download file", err)
		return
	}
	defer dl.Body.Close()

	contentType := dl.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, dl.ContentLength, contentType, dl.Body, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", f.Name),
	})
	log.Info("File download: success", zap.String("file_name", f.Name))
}

type fileMembersRequest struct {
	UserIDs []int `json:"user_ids" binding:"required"`
}

// FileMembers handles GET /api/projects/:projectID/files/:fileID/members
func (h *CollabHandler) FileMembers(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "projectID")
	if !ok {
		return
	}
	fileID, ok := pathID(c, "fileID")
	if !ok {
		return
	}
	users, err := h.files.Members(c.Request.Context(), sess, projectID, fileID)
	if err != nil {
		respondError(c, requestLogger(c, h.logger, sess).With(zap.Int("file_id", fileID)), "List file members", err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// AddFileMembers handles POST /api/projects/:projectID/files/:fileID/members
func (h *CollabHandler) AddFileMembers(c *gin.Context) {
	h.changeFileMembers(c, true)
}

// RemoveFileMembers handles DELETE /api/projects/:projectID/files/:fileID/members
func (h *CollabHandler) RemoveFileMembers(c *gin.Context) {
	h.changeFileMembers(c, false)
}

func (h *CollabHandler) changeFileMembers(c *gin.Context, add bool) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "projectID")
	if !ok {
		return
	}
	fileID, ok := pathID(c, "fileID")
	if !ok {
		return
	}
	log := requestLogger(c, h.logger, sess).With(zap.Int("file_id", fileID), zap.Bool("add", add))

	var req fileMembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid file members payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if add {
		err := h.files.AddMembers(c.Request.Context(), sess, projectID, fileID, req.UserIDs)
		if err != nil {
			respondError(c, log, "Add file members", err)
			return
		}
	} else {
		err := h.files.RemoveMembers(c.Request.Context(), sess, projectID, fileID, req.UserIDs)
		if err != nil {
			respondError(c, log, "Remove file members", err)
			return
		}
	}
	log.Info("File members changed", zap.Ints("user_ids", req.UserIDs))
	c.JSON(http.StatusOK, gin.H{"message": "members updated"})
}
