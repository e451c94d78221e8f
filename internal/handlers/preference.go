package handlers

import (
	"github.com/m1z23r/drift/pkg/drift"

	"github.com/teambalancer/teambalancer-api/pkg/dto"
)

type PreferenceHandler struct {
	preferenceService PreferenceServiceInterface
}

func NewPreferenceHandler(preferenceService PreferenceServiceInterface) *PreferenceHandler {
	return &PreferenceHandler{preferenceService: preferenceService}
}

func (h *PreferenceHandler) List(c *drift.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	prefs, err := h.preferenceService.ListForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "failed to list preferences")
		return
	}
	_ = c.JSON(200, prefs)
}

func (h *PreferenceHandler) Set(c *drift.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req dto.SetPreferenceRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.WorkPortionID <= 0 {
		c.BadRequest("work_portion_id is required")
		return
	}

	pref, err := h.preferenceService.Set(c.Request.Context(), userID, req.WorkPortionID, req.PreferenceLevel)
	if err != nil {
		respondError(c, err, "failed to save preference")
		return
	}
	_ = c.JSON(200, pref)
}
