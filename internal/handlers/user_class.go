package handlers

import (
	"github.com/m1z23r/drift/pkg/drift"

	"github.com/teambalancer/teambalancer-api/pkg/dto"
)

type UserClassHandler struct {
	classService UserClassServiceInterface
}

func NewUserClassHandler(classService UserClassServiceInterface) *UserClassHandler {
	return &UserClassHandler{classService: classService}
}

func (h *UserClassHandler) List(c *drift.Context) {
	classes, err := h.classService.List(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to list user classes")
		return
	}
	_ = c.JSON(200, classes)
}

// Mine lists the classes the caller belongs to.
func (h *UserClassHandler) Mine(c *drift.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	classes, err := h.classService.ClassesForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "failed to list user classes")
		return
	}
	_ = c.JSON(200, classes)
}

func (h *UserClassHandler) Create(c *drift.Context) {
	var req dto.CreateUserClassRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	class, err := h.classService.Create(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		respondError(c, err, "failed to create user class")
		return
	}
	_ = c.JSON(201, class)
}

func (h *UserClassHandler) ListUsers(c *drift.Context) {
	classID, ok := paramID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if _, err := h.classService.GetByID(ctx, classID); err != nil {
		respondError(c, err, "failed to load user class")
		return
	}

	users, err := h.classService.ListUsers(ctx, classID)
	if err != nil {
		respondError(c, err, "failed to list class users")
		return
	}
	_ = c.JSON(200, dto.NewUserResponses(users))
}

func (h *UserClassHandler) AssignUser(c *drift.Context) {
	adminID, ok := requireUser(c)
	if !ok {
		return
	}

	classID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req dto.AssignUserRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.UserID <= 0 {
		c.BadRequest("user_id is required")
		return
	}

	assignment, err := h.classService.AssignUser(c.Request.Context(), classID, req.UserID, adminID)
	if err != nil {
		respondError(c, err, "failed to assign user")
		return
	}
	_ = c.JSON(201, assignment)
}

func (h *UserClassHandler) RemoveUser(c *drift.Context) {
	classID, ok := paramID(c, "id")
	if !ok {
		return
	}
	userID, ok := paramID(c, "userId")
	if !ok {
		return
	}

	if err := h.classService.RemoveUser(c.Request.Context(), classID, userID); err != nil {
		respondError(c, err, "failed to remove user")
		return
	}
	_ = c.JSON(200, map[string]string{"message": "user removed from class"})
}
