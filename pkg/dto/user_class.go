package dto

type CreateUserClassRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

type AssignUserRequest struct {
	UserID int64 `json:"user_id"`
}
