package models

import "time"

const (
	MinWeight     = 1
	MaxWeight     = 10
	MinPreference = 1
	MaxPreference = 5
)

type WorkPortion struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Weight      int       `json:"weight"`
	CreatedBy   *int64    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type WorkPortionAccess struct {
	ID            int64     `json:"id"`
	WorkPortionID int64     `json:"work_portion_id"`
	UserClassID   int64     `json:"user_class_id"`
	CreatedAt     time.Time `json:"created_at"`
}

type WorkloadPreference struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	WorkPortionID   int64     `json:"work_portion_id"`
	PreferenceLevel int       `json:"preference_level"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// WorkAssignment is one row of a cycle's active assignment set.
type WorkAssignment struct {
	ID              int64     `json:"id"`
	WorkPortionID   int64     `json:"work_portion_id"`
	UserID          int64     `json:"user_id"`
	AssignedAt      time.Time `json:"assigned_at"`
	AssignmentCycle time.Time `json:"assignment_cycle"`
}

// AssignmentHistory rows are append-only copies of WorkAssignment rows.
type AssignmentHistory struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"user_id"`
	WorkPortionID int64      `json:"work_portion_id"`
	AssignedDate  time.Time  `json:"assigned_date"`
	CompletedDate *time.Time `json:"completed_date,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// WorkAssignmentDetail is a WorkAssignment joined with the names shown to users.
type WorkAssignmentDetail struct {
	WorkAssignment
	WorkPortionName string `json:"work_portion_name"`
	Weight          int    `json:"weight"`
	Username        string `json:"username"`
}

// AssignmentHistoryDetail carries optional names; history can outlive the
// portion or user it refers to.
type AssignmentHistoryDetail struct {
	AssignmentHistory
	WorkPortionName *string `json:"work_portion_name,omitempty"`
	Username        *string `json:"username,omitempty"`
}
