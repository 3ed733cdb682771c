package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/ridecompare/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: validation_error, not_found, internal_error, etc.
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, id MessageID) error {
	return newError(c, fiber.StatusBadRequest, "validation_error", Text(id))
}

// errorMapping ties a domain sentinel to its HTTP representation.
type errorMapping struct {
	target error
	status int
	code   string
	msg    MessageID
}

var errorMappings = []errorMapping{
	{domain.ErrValidation, fiber.StatusBadRequest, "validation_error", MsgEnterBothLocations},
	{domain.ErrPermissionDenied, fiber.StatusForbidden, "permission_denied", MsgLocationPermissionDenied},
	{domain.ErrLocationUnavailable, fiber.StatusServiceUnavailable, "location_unavailable", MsgLocationUnavailable},
	{domain.ErrGeocodingUnresolved, fiber.StatusNotFound, "geocoding_unresolved", MsgGeocodingUnresolved},
	{domain.ErrSessionNotFound, fiber.StatusNotFound, "not_found", MsgSessionNotFound},
	{domain.ErrAppsMissing, fiber.StatusConflict, "apps_missing", MsgAppsRequired},
	{domain.ErrStaleUpdate, fiber.StatusConflict, "conflict", MsgSessionChanged},
	{context.DeadlineExceeded, fiber.StatusGatewayTimeout, "timeout", MsgTimeout},
}

// writeError maps err onto an APIError response. Unknown errors are logged
// and reported as 500 without their text.
func writeError(c *fiber.Ctx, err error) error {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return newError(c, m.status, m.code, Text(m.msg))
		}
	}

	LoggerFromCtx(c.UserContext()).Error("request failed", "path", c.Path(), "error", err)
	return newError(c, fiber.StatusInternalServerError, "internal_error", Text(MsgInternal))
}
