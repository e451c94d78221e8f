package dto

import (
	"time"

	"github.com/teambalancer/teambalancer-api/internal/models"
)

type CurrentAssignmentsResponse struct {
	CycleDate     string                        `json:"cycle_date"`
	NextCycleDate string                        `json:"next_cycle_date"`
	Assignments   []models.WorkAssignmentDetail `json:"assignments"`
}

type CompleteHistoryResponse struct {
	ID            int64      `json:"id"`
	CompletedDate *time.Time `json:"completed_date"`
}
