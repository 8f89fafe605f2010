package model

type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// LoginResponse 上游 /login 的返回
type LoginResponse struct {
	Token  string `json:"token"`
	Role   string `json:"role"`
	UserID int    `json:"user_id"`
	Name   string `json:"name,omitempty"`
}
