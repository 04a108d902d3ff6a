package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/djishijima/hellbuild-v3/internal/application/port"
	appwf "github.com/djishijima/hellbuild-v3/internal/application/workflow"
	"github.com/djishijima/hellbuild-v3/internal/domain/schema"
	"github.com/djishijima/hellbuild-v3/internal/domain/validation"
	domainwf "github.com/djishijima/hellbuild-v3/internal/domain/workflow"
)

// Response is the standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// statusFor maps a service error onto an HTTP status code
func statusFor(err error) int {
	switch {
	case errors.Is(err, validation.ErrValidationFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domainwf.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, appwf.ErrMissingApprover),
		errors.Is(err, appwf.ErrMissingRemarks),
		errors.Is(err, appwf.ErrMissingApplicant),
		errors.Is(err, domainwf.ErrGuardFailed),
		errors.Is(err, schema.ErrUnknownCategory),
		errors.Is(err, schema.ErrUnknownApplicationCode):
		return http.StatusBadRequest
	case errors.Is(err, port.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, port.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, port.ErrEnrichmentUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with its mapped status. Internal errors are logged
// and hidden from the client.
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	resp := Response{Success: false, Error: err.Error()}
	if status == http.StatusUnprocessableEntity {
		resp.Details = validation.FieldErrors(err)
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "error", err, "path", c.Request.URL.Path)
		resp.Error = "internal server error"
	}
	c.JSON(status, resp)
}

func respondBadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}
