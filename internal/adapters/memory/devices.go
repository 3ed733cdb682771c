package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/samirrijal/ridecompare/internal/core/domain"
)

// Device is the fixed state of a device registered with Devices.
type Device struct {
	LocationPermission bool
	Fix                *domain.GeoPoint
	InstalledApps      []string
}

// Devices implements ports.LocationProvider, ports.AppCatalog and
// ports.URILauncher for devices registered in process. Opened URIs are
// recorded instead of launched. Unknown devices have no permission and no apps.
type Devices struct {
	mu      sync.RWMutex
	devices map[string]Device
	opened  map[string][]string
}

// NewDevices creates an empty registry.
func NewDevices() *Devices {
	return &Devices{devices: make(map[string]Device), opened: make(map[string][]string)}
}

// Register adds or replaces a device.
func (d *Devices) Register(id string, dev Device) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.devices[id] = dev
}

func (d *Devices) HasLocationPermission(deviceID string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.devices[deviceID].LocationPermission
}

func (d *Devices) CurrentPosition(ctx context.Context, deviceID string, _ domain.LocationPriority) (domain.GeoPoint, error) {
	if err := ctx.Err(); err != nil {
		return domain.GeoPoint{}, err
	}
	d.mu.RLock()
	dev, ok := d.devices[deviceID]
	d.mu.RUnlock()
	if !ok || dev.Fix == nil {
		return domain.GeoPoint{}, fmt.Errorf("%w: no fix for device %s", domain.ErrLocationUnavailable, deviceID)
	}
	return *dev.Fix, nil
}

func (d *Devices) IsInstalled(deviceID, appID string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, a := range d.devices[deviceID].InstalledApps {
		if a == appID {
			return true
		}
	}
	return false
}

func (d *Devices) Open(ctx context.Context, deviceID, uri string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.devices[deviceID]; !ok {
		return fmt.Errorf("unknown device %s", deviceID)
	}
	d.opened[deviceID] = append(d.opened[deviceID], uri)
	return nil
}

// Opened returns the URIs opened on a device, in order.
func (d *Devices) Opened(deviceID string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]string(nil), d.opened[deviceID]...)
}
