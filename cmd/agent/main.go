package main

import (
	"context"
	"log"
	"log/slog"
	"os/signal"
	"syscall"

	natsadapter "github.com/samirrijal/ridecompare/internal/adapters/nats"
	"github.com/samirrijal/ridecompare/internal/agent"
	"github.com/samirrijal/ridecompare/internal/core/domain"
	"github.com/samirrijal/ridecompare/internal/pkg/config"
	"github.com/samirrijal/ridecompare/internal/pkg/logging"
)

func main() {
	cfg, err := config.Load("ridecompare-agent")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.ValidateAgent(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	nc, err := natsadapter.Connect(cfg.NATS.URL, "ridecompare-agent-"+cfg.Agent.DeviceID)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer nc.Drain()

	var fix *domain.GeoPoint
	if cfg.Agent.HasFix {
		fix = &domain.GeoPoint{Lat: cfg.Agent.Lat, Lon: cfg.Agent.Lon}
	}

	a, err := agent.New(nc, agent.Config{
		DeviceID:           cfg.Agent.DeviceID,
		LocationPermission: cfg.Agent.LocationPermission,
		Fix:                fix,
		InstalledApps:      cfg.Agent.InstalledApps,
		StatusInterval:     cfg.Agent.StatusInterval,
	}, agent.CommandOpener{Command: cfg.Agent.Opener})
	if err != nil {
		log.Fatalf("agent: %v", err)
	}

	if err := a.Run(ctx); err != nil {
		log.Fatalf("agent: %v", err)
	}
	slog.Info("agent stopped")
}
