package handlers

import (
	"time"

	"github.com/m1z23r/drift/pkg/drift"

	"github.com/teambalancer/teambalancer-api/internal/cycle"
	"github.com/teambalancer/teambalancer-api/pkg/dto"
)

const dateLayout = "2006-01-02"

type AssignmentHandler struct {
	assignmentService AssignmentServiceInterface
	cycles            *cycle.Calculator
	now               func() time.Time
}

func NewAssignmentHandler(assignmentService AssignmentServiceInterface, cycles *cycle.Calculator) *AssignmentHandler {
	return &AssignmentHandler{
		assignmentService: assignmentService,
		cycles:            cycles,
		now:               time.Now,
	}
}

// Current returns the active set of the cycle containing now.
func (h *AssignmentHandler) Current(c *drift.Context) {
	now := h.now()
	cycleDate := h.cycles.Current(now)

	assignments, err := h.assignmentService.Current(c.Request.Context(), cycleDate)
	if err != nil {
		respondError(c, err, "failed to load assignments")
		return
	}

	_ = c.JSON(200, dto.CurrentAssignmentsResponse{
		CycleDate:     cycleDate.Format(dateLayout),
		NextCycleDate: h.cycles.Next(now).Format(dateLayout),
		Assignments:   assignments,
	})
}

// Generate regenerates the cycle containing ?date=YYYY-MM-DD, or the current
// cycle when no date is given.
func (h *AssignmentHandler) Generate(c *drift.Context) {
	at := h.now()
	if raw := c.QueryParam("date"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			c.BadRequest("date must be formatted as YYYY-MM-DD")
			return
		}
		at = parsed
	}

	result, err := h.assignmentService.GenerateAndSave(c.Request.Context(), h.cycles.Current(at))
	if err != nil {
		respondError(c, err, "failed to generate assignments")
		return
	}
	_ = c.JSON(201, result)
}

func (h *AssignmentHandler) History(c *drift.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	history, err := h.assignmentService.HistoryForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "failed to load history")
		return
	}
	_ = c.JSON(200, history)
}

func (h *AssignmentHandler) PortionHistory(c *drift.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	history, err := h.assignmentService.HistoryForWorkPortion(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to load history")
		return
	}
	_ = c.JSON(200, history)
}

func (h *AssignmentHandler) CompleteHistory(c *drift.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	entry, err := h.assignmentService.CompleteHistoryEntry(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, "failed to complete history entry")
		return
	}
	_ = c.JSON(200, dto.CompleteHistoryResponse{ID: entry.ID, CompletedDate: entry.CompletedDate})
}
