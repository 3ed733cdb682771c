package http

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	natsadapter "github.com/samirrijal/ridecompare/internal/adapters/nats"
	"github.com/samirrijal/ridecompare/internal/core/domain"
)

const (
	maxQueryLen = 200
	maxTextLen  = 500
)

type tripRequest struct {
	Pickup      string           `json:"pickup"`
	Dropoff     string           `json:"dropoff"`
	PickupPoint *domain.GeoPoint `json:"pickup_point,omitempty"`
}

type launchResult struct {
	Provider domain.Provider `json:"provider"`
	URI      string          `json:"uri"`
	OK       bool            `json:"ok"`
	Error    string          `json:"error,omitempty"`
}

type compareResponse struct {
	Links    domain.DeepLinkSet `json:"links"`
	Launches []launchResult     `json:"launches"`
}

type appsResponse struct {
	domain.AppAvailability
	Warning string `json:"warning,omitempty"`
}

// BuildLinksHandler formats the deep links for a trip without launching them.
func BuildLinksHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req tripRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, MsgInvalidBody)
		}
		if len(req.Pickup) > maxTextLen || len(req.Dropoff) > maxTextLen {
			return errBadRequest(c, MsgTextTooLong)
		}
		if req.PickupPoint != nil && !req.PickupPoint.Valid() {
			return errBadRequest(c, MsgInvalidCoordinates)
		}

		trip := domain.TripRequest{PickupText: req.Pickup, DropoffText: req.Dropoff, PickupPoint: req.PickupPoint}
		if err := trip.Validate(); err != nil {
			return errBadRequest(c, MsgEnterBothLocations)
		}

		links, err := deps.Compare.BuildLinks(c.UserContext(), trip)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(links)
	}
}

// GeocodeHandler resolves free text to a rounded coordinate.
func GeocodeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := strings.TrimSpace(c.Query("q"))
		if q == "" || len(q) > maxQueryLen {
			return errBadRequest(c, MsgQueryRequired)
		}

		p := deps.Locations.ForwardGeocode(c.UserContext(), q)
		if p == nil {
			return writeError(c, domain.ErrGeocodingUnresolved)
		}
		return c.JSON(p)
	}
}

// ReverseGeocodeHandler resolves a coordinate to an address line.
func ReverseGeocodeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := queryPoint(c)
		if !ok {
			return errBadRequest(c, MsgInvalidCoordinates)
		}

		address, found := deps.Locations.ReverseGeocode(c.UserContext(), p)
		if !found {
			return writeError(c, domain.ErrGeocodingUnresolved)
		}
		return c.JSON(fiber.Map{"address": address, "lat": p.Lat, "lon": p.Lon})
	}
}

// AppsHandler reports which of the two apps a device has installed.
func AppsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		deviceID := c.Query("device_id")
		if !natsadapter.ValidToken(deviceID) {
			return errBadRequest(c, MsgDeviceIDRequired)
		}

		avail := deps.Compare.Availability(deviceID)
		return c.JSON(appsResponse{AppAvailability: avail, Warning: MissingAppsWarning(avail)})
	}
}

func queryPoint(c *fiber.Ctx) (domain.GeoPoint, bool) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		return domain.GeoPoint{}, false
	}
	lon, err := strconv.ParseFloat(c.Query("lon"), 64)
	if err != nil {
		return domain.GeoPoint{}, false
	}
	p := domain.GeoPoint{Lat: lat, Lon: lon}
	return p, p.Valid()
}

func toCompareResponse(res *domain.CompareResult) compareResponse {
	out := compareResponse{Links: res.Links, Launches: make([]launchResult, 0, len(res.Launches))}
	for _, l := range res.Launches {
		r := launchResult{Provider: l.Provider, URI: l.URI, OK: l.OK()}
		if !r.OK {
			r.Error = Text(MsgLaunchFailed, providerName(l.Provider))
		}
		out.Launches = append(out.Launches, r)
	}
	return out
}

// compareError maps a refused compare onto a response. A missing app gets the
// warning text naming exactly the missing apps.
func compareError(c *fiber.Ctx, deps *Dependencies, deviceID string, err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return errBadRequest(c, MsgEnterBothLocations)
	case errors.Is(err, domain.ErrAppsMissing):
		warning := MissingAppsWarning(deps.Compare.Availability(deviceID))
		if warning == "" {
			warning = Text(MsgAppsRequired)
		}
		return newError(c, fiber.StatusConflict, "apps_missing", warning)
	default:
		return writeError(c, err)
	}
}
