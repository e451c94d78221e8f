package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/m1z23r/drift/pkg/drift"

	"github.com/teambalancer/teambalancer-api/internal/middleware"
	"github.com/teambalancer/teambalancer-api/internal/oracle"
	"github.com/teambalancer/teambalancer-api/internal/services"
)

// respondError maps a service error onto an HTTP status. fallback is the
// message used for unexpected errors so internals are never echoed.
func respondError(c *drift.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrValidation):
		c.BadRequest(err.Error())
	case errors.Is(err, services.ErrForbidden):
		c.Forbidden(err.Error())
	case errors.Is(err, services.ErrNotFound):
		c.NotFound(err.Error())
	case errors.Is(err, services.ErrConflict):
		_ = c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
		c.Abort()
	case errors.Is(err, oracle.ErrUnavailable), errors.Is(err, oracle.ErrTimeout), errors.Is(err, oracle.ErrMalformedReply):
		c.BadGateway("distribution oracle failed: " + oracle.Kind(err))
	default:
		slog.Error(fallback, "error", err, "path", c.Request.URL.Path)
		c.InternalServerError(fallback)
	}
}

func paramID(c *drift.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.BadRequest("invalid " + name)
		return 0, false
	}
	return id, true
}

func requireUser(c *drift.Context) (int64, bool) {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		c.Unauthorized("not authenticated")
		return 0, false
	}
	return userID, true
}
