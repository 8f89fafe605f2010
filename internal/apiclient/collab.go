package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"projecthub/internal/model"
	"projecthub/internal/session"
)

func commentsPath(projectID, taskID int) string {
	return taskPath(projectID, taskID) + "/comments"
}

func filePath(projectID, fileID int) string {
	return fmt.Sprintf("/projects/%d/files/%d", projectID, fileID)
}

func (c *Client) ListComments(ctx context.Context, sess *session.Session, projectID, taskID int) ([]model.Comment, error) {
	return getList[model.Comment](ctx, c, sess, "comments.list", commentsPath(projectID, taskID))
}

// CreateComment multipart：content 与 files[i]
func (c *Client) CreateComment(ctx context.Context, sess *session.Session, projectID, taskID int, content string, files []model.Upload) (model.Comment, error) {
	fields := map[string]string{"content": content}
	uploads := make(map[string]model.Upload, len(files))
	for i, f := range files {
		uploads[fmt.Sprintf("files[%d]", i)] = f
	}

	req, err := multipartRequest("comments.create", http.MethodPost, commentsPath(projectID, taskID), fields, uploads)
	if err != nil {
		return model.Comment{}, err
	}
	body, err := c.call(ctx, sess, req)
	if err != nil {
		return model.Comment{}, err
	}
	return decodeOne[model.Comment](body)
}

func (c *Client) UpdateComment(ctx context.Context, sess *session.Session, projectID, taskID, commentID int, content string) (model.Comment, error) {
	path := fmt.Sprintf("%s/%d", commentsPath(projectID, taskID), commentID)
	return doJSON[model.Comment](ctx, c, sess, "comments.update", http.MethodPut, path, map[string]string{"content": content})
}

func (c *Client) DeleteComment(ctx context.Context, sess *session.Session, projectID, taskID, commentID int) error {
	path := fmt.Sprintf("%s/%d", commentsPath(projectID, taskID), commentID)
	return c.doNoContent(ctx, sess, "comments.delete", http.MethodDelete, path, nil)
}

func (c *Client) ListFiles(ctx context.Context, sess *session.Session, projectID int) ([]model.File, error) {
	return getList[model.File](ctx, c, sess, "files.list", projectPath(projectID)+"/files")
}

// UploadFile 受限文件的成员列表以 JSON 字符串提交
func (c *Client) UploadFile(ctx context.Context, sess *session.Session, projectID int, upload model.Upload, access model.FileAccessUpdate) (model.File, error) {
	fields := map[string]string{"access_level": string(access.AccessLevel)}
	if access.AccessLevel == model.AccessRestricted {
		ids, err := json.Marshal(nonNil(access.AssignedUserIDs))
		if err != nil {
			return model.File{}, fmt.Errorf("failed to encode assigned users: %w", err)
		}
		fields["assigned_user_ids"] = string(ids)
	}

	req, err := multipartRequest("files.upload", http.MethodPost, projectPath(projectID)+"/files", fields, map[string]model.Upload{"file": upload})
	if err != nil {
		return model.File{}, err
	}
	body, err := c.call(ctx, sess, req)
	if err != nil {
		return model.File{}, err
	}
	return decodeOne[model.File](body)
}

func (c *Client) UpdateFileAccess(ctx context.Context, sess *session.Session, projectID, fileID int, access model.FileAccessUpdate) (model.File, error) {
	access.AssignedUserIDs = nonNil(access.AssignedUserIDs)
	return doJSON[model.File](ctx, c, sess, "files.update", http.MethodPut, filePath(projectID, fileID), access)
}

func (c *Client) DeleteFile(ctx context.Context, sess *session.Session, projectID, fileID int) error {
	return c.doNoContent(ctx, sess, "files.delete", http.MethodDelete, filePath(projectID, fileID), nil)
}

func (c *Client) ListFileMembers(ctx context.Context, sess *session.Session, projectID, fileID int) ([]model.User, error) {
	return getList[model.User](ctx, c, sess, "files.members", filePath(projectID, fileID)+"/members")
}

func (c *Client) AddFileMembers(ctx context.Context, sess *session.Session, projectID, fileID int, userIDs []int) error {
	return c.doNoContent(ctx, sess, "files.members.add", http.MethodPost, filePath(projectID, fileID)+"/members", map[string][]int{"user_ids": userIDs})
}

func (c *Client) RemoveFileMembers(ctx context.Context, sess *session.Session, projectID, fileID int, userIDs []int) error {
	return c.doNoContent(ctx, sess, "files.members.remove", http.MethodDelete, filePath(projectID, fileID)+"/members", map[string][]int{"user_ids": userIDs})
}

// Download 文件内容流，调用方负责关闭 Body
type Download struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

// DownloadFile 返回上游的响应流，调用方负责关闭 Body；读 body 只受 ctx 限制
func (c *Client) DownloadFile(ctx context.Context, sess *session.Session, projectID, fileID int) (*Download, error) {
	resp, err := c.send(ctx, sess, request{
		op:     "files.download",
		method: http.MethodGet,
		path:   filePath(projectID, fileID) + "/download",
		accept: "*/*",
	})
	if err != nil {
		return nil, err
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &Download{Body: resp.Body, ContentType: contentType, ContentLength: resp.ContentLength}, nil
}

func multipartRequest(op, method, path string, fields map[string]string, files map[string]model.Upload) (request, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return request{}, fmt.Errorf("failed to write field %s: %w", name, err)
		}
	}
	for name, f := range files {
		part, err := w.CreateFormFile(name, f.Name)
		if err != nil {
			return request{}, fmt.Errorf("failed to add file %s: %w", f.Name, err)
		}
		if _, err := part.Write(f.Content); err != nil {
			return request{}, fmt.Errorf("failed to write file %s: %w", f.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return request{}, fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return request{
		op:          op,
		method:      method,
		path:        path,
		body:        &buf,
		contentType: w.FormDataContentType(),
	}, nil
}

func nonNil(ids []int) []int {
	if ids == nil {
		return []int{}
	}
	return ids
}

