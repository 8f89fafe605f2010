package model

import "time"

type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

type Comment struct {
	ID        int          `json:"id"`
	TaskID    int          `json:"task_id"`
	ProjectID int          `json:"project_id"`
	UserID    int          `json:"user_id"`
	User      *User        `json:"user,omitempty"`
	Content   string       `json:"content"`
	Files     []Attachment `json:"files,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

type AccessLevel string

const (
	AccessRestricted AccessLevel = "restricted"
	AccessEveryone   AccessLevel = "everyone"
)

type File struct {
	ID              int         `json:"id"`
	ProjectID       int         `json:"project_id"`
	Name            string      `json:"name"`
	UploaderID      int         `json:"uploader_id"`
	AccessLevel     AccessLevel `json:"access_level"`
	AssignedUserIDs []int       `json:"assigned_user_ids"`
	CreatedAt       time.Time   `json:"created_at,omitempty"`
}

// FileAccessUpdate 修改文件可见范围
type FileAccessUpdate struct {
	AccessLevel     AccessLevel `json:"access_level"`
	AssignedUserIDs []int       `json:"assigned_user_ids"`
}

// Upload 上传的文件内容（评论附件与项目文件共用）
type Upload struct {
	Name    string
	Content []byte
}

type Activity struct {
	ID           int            `json:"id"`
	ActivityType string         `json:"activity_type"`
	Description  string         `json:"description"`
	User         *User          `json:"user,omitempty"`
	ProjectID    *int           `json:"project_id,omitempty"`
	TaskID       *int           `json:"task_id,omitempty"`
	NewValues    map[string]any `json:"new_values,omitempty"`
	OldValues    map[string]any `json:"old_values,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

type Notification struct {
	ID        int       `json:"id"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
