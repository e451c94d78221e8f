package handlers

import (
	"github.com/m1z23r/drift/pkg/drift"

	"github.com/teambalancer/teambalancer-api/internal/middleware"
	"github.com/teambalancer/teambalancer-api/internal/services"
	"github.com/teambalancer/teambalancer-api/pkg/dto"
)

type WorkPortionHandler struct {
	portionService WorkPortionServiceInterface
	accessService  AccessServiceInterface
	userService    UserServiceInterface
}

func NewWorkPortionHandler(portionService WorkPortionServiceInterface, accessService AccessServiceInterface, userService UserServiceInterface) *WorkPortionHandler {
	return &WorkPortionHandler{
		portionService: portionService,
		accessService:  accessService,
		userService:    userService,
	}
}

func (h *WorkPortionHandler) List(c *drift.Context) {
	portions, err := h.portionService.List(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to list work portions")
		return
	}
	_ = c.JSON(200, portions)
}

func (h *WorkPortionHandler) Get(c *drift.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	portion, err := h.portionService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to load work portion")
		return
	}
	_ = c.JSON(200, portion)
}

func (h *WorkPortionHandler) Create(c *drift.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req dto.WorkPortionRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	ctx := c.Request.Context()

	creator, err := h.userService.GetByID(ctx, userID)
	if err != nil {
		c.Unauthorized("user not found")
		return
	}

	portion, err := h.portionService.Create(ctx, services.WorkPortionInput{
		Name:        req.Name,
		Description: req.Description,
		Weight:      req.Weight,
	}, creator)
	if err != nil {
		respondError(c, err, "failed to create work portion")
		return
	}
	_ = c.JSON(201, portion)
}

func (h *WorkPortionHandler) Update(c *drift.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req dto.WorkPortionRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	portion, err := h.portionService.Update(c.Request.Context(), id, services.WorkPortionInput{
		Name:        req.Name,
		Description: req.Description,
		Weight:      req.Weight,
	})
	if err != nil {
		respondError(c, err, "failed to update work portion")
		return
	}
	_ = c.JSON(200, portion)
}

func (h *WorkPortionHandler) Delete(c *drift.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.portionService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err, "failed to delete work portion")
		return
	}
	_ = c.JSON(200, map[string]string{"message": "work portion deleted"})
}

func (h *WorkPortionHandler) ListAccess(c *drift.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	classes, err := h.portionService.ListAccess(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to list access")
		return
	}
	_ = c.JSON(200, classes)
}

func (h *WorkPortionHandler) GrantAccess(c *drift.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req dto.GrantAccessRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.UserClassID <= 0 {
		c.BadRequest("user_class_id is required")
		return
	}

	if err := h.portionService.GrantAccess(c.Request.Context(), id, req.UserClassID); err != nil {
		respondError(c, err, "failed to grant access")
		return
	}
	_ = c.JSON(201, map[string]int64{"work_portion_id": id, "user_class_id": req.UserClassID})
}

func (h *WorkPortionHandler) RevokeAccess(c *drift.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	classID, ok := paramID(c, "classId")
	if !ok {
		return
	}

	if err := h.portionService.RevokeAccess(c.Request.Context(), id, classID); err != nil {
		respondError(c, err, "failed to revoke access")
		return
	}
	_ = c.JSON(200, map[string]string{"message": "access revoked"})
}

// CheckAccess reports whether the caller may work on the portion. Admins
// always may.
func (h *WorkPortionHandler) CheckAccess(c *drift.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	allowed := middleware.IsAdmin(c)
	if !allowed {
		var err error
		allowed, err = h.accessService.HasAccess(c.Request.Context(), userID, id)
		if err != nil {
			respondError(c, err, "failed to check access")
			return
		}
	}

	_ = c.JSON(200, dto.AccessCheckResponse{WorkPortionID: id, HasAccess: allowed})
}
