package domain

import (
	"fmt"
	"strings"
	"time"
)

// TripRequest is the pickup/dropoff pair a user wants to compare.
//
// PickupPoint is only set while PickupText still holds the address that was
// derived from the device location. The update methods return a new value, so
// the text and the point always change together.
type TripRequest struct {
	PickupText  string    `json:"pickup"`
	DropoffText string    `json:"dropoff"`
	PickupPoint *GeoPoint `json:"pickup_point,omitempty"`
}

// WithPickup replaces the pickup text and drops any device coordinate.
func (t TripRequest) WithPickup(text string) TripRequest {
	t.PickupText = text
	t.PickupPoint = nil
	return t
}

// WithDropoff replaces the dropoff text.
func (t TripRequest) WithDropoff(text string) TripRequest {
	t.DropoffText = text
	return t
}

// WithDeviceLocation sets the pickup from a device fix and its display address.
func (t TripRequest) WithDeviceLocation(point GeoPoint, address string) TripRequest {
	p := point
	t.PickupText = address
	t.PickupPoint = &p
	return t
}

// UsingDeviceLocation reports whether the pickup came from the device.
func (t TripRequest) UsingDeviceLocation() bool {
	return t.PickupPoint != nil
}

// Validate checks the trip can be submitted.
func (t TripRequest) Validate() error {
	var missing []string
	if strings.TrimSpace(t.PickupText) == "" {
		missing = append(missing, "pickup")
	}
	if strings.TrimSpace(t.DropoffText) == "" {
		missing = append(missing, "dropoff")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required", ErrValidation, strings.Join(missing, " and "))
	}
	return nil
}

// Session is the form state owned by the trip controller for one device.
type Session struct {
	ID        string      `json:"id"`
	DeviceID  string      `json:"device_id"`
	Trip      TripRequest `json:"trip"`
	Version   int64       `json:"version"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
