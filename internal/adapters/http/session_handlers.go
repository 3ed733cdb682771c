package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	natsadapter "github.com/samirrijal/ridecompare/internal/adapters/nats"
	"github.com/samirrijal/ridecompare/internal/core/domain"
)

type createSessionRequest struct {
	DeviceID string `json:"device_id"`
}

type textRequest struct {
	Text string `json:"text"`
}

type deviceLocationRequest struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// sessionView is a session plus what the form needs to render its warning.
type sessionView struct {
	*domain.Session
	Apps    domain.AppAvailability `json:"apps"`
	Warning string                 `json:"warning,omitempty"`
}

func viewOf(deps *Dependencies, s *domain.Session) sessionView {
	avail := deps.Compare.Availability(s.DeviceID)
	return sessionView{Session: s, Apps: avail, Warning: MissingAppsWarning(avail)}
}

// CreateSessionHandler starts an empty form session for a device.
func CreateSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createSessionRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, MsgInvalidBody)
		}
		req.DeviceID = strings.TrimSpace(req.DeviceID)
		if !natsadapter.ValidToken(req.DeviceID) {
			return errBadRequest(c, MsgDeviceIDRequired)
		}

		s, err := deps.Sessions.Create(c.UserContext(), req.DeviceID)
		if err != nil {
			return writeError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(viewOf(deps, s))
	}
}

// GetSessionHandler returns a session with app availability.
func GetSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := deps.Sessions.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(viewOf(deps, s))
	}
}

// DeleteSessionHandler removes a session.
func DeleteSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Sessions.Delete(c.UserContext(), c.Params("id")); err != nil {
			return writeError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// SetPickupHandler replaces the pickup text.
func SetPickupHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		text, ok := parseText(c)
		if !ok {
			return nil
		}
		s, err := deps.Sessions.SetPickup(c.UserContext(), c.Params("id"), text)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(viewOf(deps, s))
	}
}

// SetDropoffHandler replaces the dropoff text.
func SetDropoffHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		text, ok := parseText(c)
		if !ok {
			return nil
		}
		s, err := deps.Sessions.SetDropoff(c.UserContext(), c.Params("id"), text)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(viewOf(deps, s))
	}
}

// DeviceLocationHandler fills the pickup from the device. The body may carry
// a fix the client already has; otherwise the device is asked for one.
func DeviceLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var fix *domain.GeoPoint
		if len(c.Body()) > 0 {
			var req deviceLocationRequest
			if err := c.BodyParser(&req); err != nil {
				return errBadRequest(c, MsgInvalidBody)
			}
			switch {
			case req.Lat == nil && req.Lon == nil:
			case req.Lat == nil || req.Lon == nil:
				return errBadRequest(c, MsgInvalidCoordinates)
			default:
				fix = &domain.GeoPoint{Lat: *req.Lat, Lon: *req.Lon}
				if !fix.Valid() {
					return errBadRequest(c, MsgInvalidCoordinates)
				}
			}
		}

		s, err := deps.Sessions.UseDeviceLocation(c.UserContext(), c.Params("id"), fix)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(viewOf(deps, s))
	}
}

// CompareSessionHandler validates the session's trip, builds the links and
// launches both apps on the session's device.
func CompareSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := deps.Sessions.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeError(c, err)
		}

		res, err := deps.Compare.Compare(c.UserContext(), s.DeviceID, s.Trip)
		if err != nil {
			return compareError(c, deps, s.DeviceID, err)
		}
		return c.JSON(toCompareResponse(res))
	}
}

// parseText reads a textRequest body. On failure the error response has
// already been written.
func parseText(c *fiber.Ctx) (string, bool) {
	var req textRequest
	if err := c.BodyParser(&req); err != nil {
		_ = errBadRequest(c, MsgInvalidBody)
		return "", false
	}
	if len(req.Text) > maxTextLen {
		_ = errBadRequest(c, MsgTextTooLong)
		return "", false
	}
	return req.Text, true
}
