package main

import (
	"log/slog"

	"github.com/samirrijal/ridecompare/internal/adapters/memory"
	"github.com/samirrijal/ridecompare/internal/core/domain"
	"github.com/samirrijal/ridecompare/internal/pkg/config"
)

// localDevices serves devices without NATS: the device described by the
// agent settings is registered in process, and opened links are only recorded.
func localDevices(cfg config.AgentConfig) *memory.Devices {
	devs := memory.NewDevices()
	if cfg.DeviceID == "" {
		slog.Warn("no agent.device_id configured, sessions have no device to use")
		return devs
	}

	dev := memory.Device{
		LocationPermission: cfg.LocationPermission,
		InstalledApps:      cfg.InstalledApps,
	}
	if cfg.HasFix {
		dev.Fix = &domain.GeoPoint{Lat: cfg.Lat, Lon: cfg.Lon}
	}
	devs.Register(cfg.DeviceID, dev)
	slog.Info("local device registered", "device_id", cfg.DeviceID, "apps", cfg.InstalledApps)
	return devs
}
