package domain

import "strings"

// Provider identifies one of the two ride-hailing apps being compared.
type Provider string

const (
	ProviderUber Provider = "uber"
	ProviderBolt Provider = "bolt"
)

// DeepLinkSet holds the URIs built for one compare action. It is derived on
// every submit and never stored.
type DeepLinkSet struct {
	Uber        string `json:"uber"`
	Bolt        string `json:"bolt"`
	BoltWeb     string `json:"bolt_web,omitempty"`
	Coordinates bool   `json:"coordinates"`
}

// Link is a single provider URI.
type Link struct {
	Provider Provider `json:"provider"`
	URI      string   `json:"uri"`
}

// LaunchOrder returns the native links in the order they must be opened.
// With preferWeb the Bolt slot uses the web link when one was built.
func (s DeepLinkSet) LaunchOrder(preferWeb bool) []Link {
	bolt := s.Bolt
	if preferWeb && s.BoltWeb != "" {
		bolt = s.BoltWeb
	}
	return []Link{
		{Provider: ProviderUber, URI: s.Uber},
		{Provider: ProviderBolt, URI: bolt},
	}
}

// AppAvailability reports whether both target apps are installed on a device.
type AppAvailability struct {
	UberInstalled bool `json:"uber_installed"`
	BoltInstalled bool `json:"bolt_installed"`
}

// Ready reports whether a compare can be launched.
func (a AppAvailability) Ready() bool {
	return a.UberInstalled && a.BoltInstalled
}

// Missing lists the display names of apps that are not installed.
func (a AppAvailability) Missing() []string {
	var out []string
	if !a.UberInstalled {
		out = append(out, "Uber")
	}
	if !a.BoltInstalled {
		out = append(out, "Bolt")
	}
	return out
}

// MissingLabel joins Missing for display, e.g. "Uber and Bolt".
func (a AppAvailability) MissingLabel() string {
	return strings.Join(a.Missing(), " and ")
}

// LaunchOutcome is the result of opening one provider link.
type LaunchOutcome struct {
	Provider Provider `json:"provider"`
	URI      string   `json:"uri"`
	Err      error    `json:"-"`
}

// OK reports whether the link was opened.
func (o LaunchOutcome) OK() bool { return o.Err == nil }

// CompareResult is returned by a compare action.
type CompareResult struct {
	Links    DeepLinkSet     `json:"links"`
	Launches []LaunchOutcome `json:"launches"`
}
