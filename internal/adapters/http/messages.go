package http

import (
	"fmt"

	"github.com/samirrijal/ridecompare/internal/core/domain"
)

// MessageID identifies a user-facing message. Handlers and services deal in
// IDs and errors; text is looked up only when a response is written.
type MessageID string

const (
	MsgEnterBothLocations       MessageID = "enter_both_locations"
	MsgLocationPermissionDenied MessageID = "location_permission_denied"
	MsgLocationUnavailable      MessageID = "location_unavailable"
	MsgGeocodingUnresolved      MessageID = "geocoding_unresolved"
	MsgSessionNotFound          MessageID = "session_not_found"
	MsgSessionChanged           MessageID = "session_changed"
	MsgAppsRequired             MessageID = "apps_required"
	MsgLaunchFailed             MessageID = "launch_failed"
	MsgInvalidBody              MessageID = "invalid_body"
	MsgDeviceIDRequired         MessageID = "device_id_required"
	MsgInvalidCoordinates       MessageID = "invalid_coordinates"
	MsgQueryRequired            MessageID = "query_required"
	MsgTextTooLong              MessageID = "text_too_long"
	MsgTimeout                  MessageID = "timeout"
	MsgRealtimeUnavailable      MessageID = "realtime_unavailable"
	MsgInternal                 MessageID = "internal"
)

var messages = map[MessageID]string{
	MsgEnterBothLocations:       "Please enter both pickup and dropoff locations",
	MsgLocationPermissionDenied: "Location permission not granted",
	MsgLocationUnavailable:      "Could not get current location",
	MsgGeocodingUnresolved:      "No results found for this location",
	MsgSessionNotFound:          "Session not found",
	MsgSessionChanged:           "The pickup was edited while the location was being resolved",
	MsgAppsRequired:             "Warning: Uber and Bolt apps are required for this to work",
	MsgLaunchFailed:             "Could not open %s",
	MsgInvalidBody:              "Invalid request body",
	MsgDeviceIDRequired:         "device_id is required and must not contain '.', '*', '>' or spaces",
	MsgInvalidCoordinates:       "lat and lon must be valid WGS 84 coordinates",
	MsgQueryRequired:            "q query parameter is required (max 200 characters)",
	MsgTextTooLong:              "text too long (max 500 characters)",
	MsgTimeout:                  "Request timed out",
	MsgRealtimeUnavailable:      "Realtime updates are not available",
	MsgInternal:                 "Internal server error",
}

// Text returns the message for id, formatted with args when it has verbs.
func Text(id MessageID, args ...any) string {
	s, ok := messages[id]
	if !ok {
		return string(id)
	}
	if len(args) > 0 {
		return fmt.Sprintf(s, args...)
	}
	return s
}

// MissingAppsWarning is shown while either app is not installed, e.g.
// "Warning: Bolt app is required for this to work". Empty when both are.
func MissingAppsWarning(a domain.AppAvailability) string {
	missing := a.Missing()
	switch len(missing) {
	case 0:
		return ""
	case 1:
		return "Warning: " + missing[0] + " app is required for this to work"
	default:
		return "Warning: " + a.MissingLabel() + " apps are required for this to work"
	}
}

func providerName(p domain.Provider) string {
	switch p {
	case domain.ProviderUber:
		return "Uber"
	case domain.ProviderBolt:
		return "Bolt"
	default:
		return string(p)
	}
}
