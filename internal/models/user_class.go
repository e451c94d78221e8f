package models

import "time"

type UserClass struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type UserClassAssignment struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	UserClassID int64     `json:"user_class_id"`
	AssignedBy  *int64    `json:"assigned_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
