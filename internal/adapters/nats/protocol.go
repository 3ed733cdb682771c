package natsadapter

import (
	"strings"
	"time"
)

// Subjects exchanged between the API and device agents. <id> is a device or
// session ID and must not contain '.', '*' or '>'.
const (
	subjectPrefix  = "ridecompare"
	StatusWildcard = subjectPrefix + ".device.*.status"
	SessionPrefix  = subjectPrefix + ".session."
)

// StatusSubject carries periodic DeviceStatus heartbeats.
func StatusSubject(deviceID string) string {
	return subjectPrefix + ".device." + deviceID + ".status"
}

// LocationSubject answers LocationRequest with LocationReply.
func LocationSubject(deviceID string) string {
	return subjectPrefix + ".device." + deviceID + ".location"
}

// OpenSubject answers OpenRequest with OpenReply.
func OpenSubject(deviceID string) string {
	return subjectPrefix + ".device." + deviceID + ".open"
}

// SessionSubject carries JSON session snapshots.
func SessionSubject(sessionID string) string {
	return SessionPrefix + sessionID + ".state"
}

// ValidToken reports whether id can be used as a single subject token.
func ValidToken(id string) bool {
	return id != "" && !strings.ContainsAny(id, ".*> \t\r\n")
}

// DeviceStatus is what a device agent reports about itself.
type DeviceStatus struct {
	DeviceID           string    `json:"device_id"`
	LocationPermission bool      `json:"location_permission"`
	InstalledApps      []string  `json:"installed_apps"`
	SentAt             time.Time `json:"sent_at"`
}

// Reply error codes.
const (
	CodePermissionDenied = "permission_denied"
	CodeUnavailable      = "unavailable"
	CodeNoHandler        = "no_handler"
)

// ReplyError is set on a reply when the device could not do what was asked.
type ReplyError struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

type LocationRequest struct {
	Priority string `json:"priority"`
}

type LocationReply struct {
	Lat   float64     `json:"lat"`
	Lon   float64     `json:"lon"`
	Error *ReplyError `json:"error,omitempty"`
}

type OpenRequest struct {
	URI string `json:"uri"`
}

type OpenReply struct {
	Error *ReplyError `json:"error,omitempty"`
}
