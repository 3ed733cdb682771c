package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/ridecompare/internal/adapters/http"
	"github.com/samirrijal/ridecompare/internal/adapters/memory"
	natsadapter "github.com/samirrijal/ridecompare/internal/adapters/nats"
	"github.com/samirrijal/ridecompare/internal/adapters/nominatim"
	"github.com/samirrijal/ridecompare/internal/adapters/valkey"
	"github.com/samirrijal/ridecompare/internal/core/deeplink"
	"github.com/samirrijal/ridecompare/internal/core/ports"
	"github.com/samirrijal/ridecompare/internal/core/usecases"
	"github.com/samirrijal/ridecompare/internal/pkg/config"
	"github.com/samirrijal/ridecompare/internal/pkg/logging"
	"github.com/samirrijal/ridecompare/internal/pkg/metrics"
	"github.com/samirrijal/ridecompare/internal/pkg/telemetry"
)

// devices is what the core needs from whatever reaches the phones.
type devices interface {
	ports.LocationProvider
	ports.AppCatalog
	ports.URILauncher
}

type sessionStore interface {
	ports.SessionStore
	http.Pinger
}

func main() {
	cfg, err := config.Load("ridecompare-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.Init(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr, cfg.Telemetry.SampleRatio)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer func() { _ = shutdown(context.Background()) }()
		}
	}

	// Session store: Valkey, or process memory when it is disabled or down
	var store sessionStore
	if cfg.Valkey.Enabled {
		vs, err := valkey.New(cfg.Valkey.Addr)
		if err != nil {
			slog.Warn("valkey unavailable, sessions kept in memory", "error", err)
			metrics.StoreFallbacks.Inc()
		} else {
			defer vs.Close()
			store = vs
		}
	}
	if store == nil {
		store = memory.NewSessionStore()
	}

	// NATS: device gateway and session fan-out
	var (
		nc     *nats.Conn
		devs   devices
		events ports.SessionEvents
	)
	if cfg.NATS.Enabled {
		nc, err = natsadapter.Connect(cfg.NATS.URL, cfg.Telemetry.ServiceName)
		if err != nil {
			slog.Warn("nats unavailable, devices and live updates disabled", "error", err)
			nc = nil
		}
	}
	if nc != nil {
		defer nc.Close()

		gw := natsadapter.NewDeviceGateway(nc, cfg.Device.RequestTimeout, cfg.Device.StaleAfter)
		if err := gw.Start(); err != nil {
			log.Fatalf("device gateway: %v", err)
		}
		defer gw.Close()
		devs = gw

		pub, err := natsadapter.NewPublisher(nc, cfg.Session.TTL)
		if err != nil {
			slog.Warn("session stream unavailable, live updates disabled", "error", err)
		} else {
			events = pub
		}
	} else {
		devs = localDevices(cfg.Agent)
	}

	// Use cases
	geocoder := nominatim.New(nominatim.Options{
		BaseURL:       cfg.Geocoder.BaseURL,
		UserAgent:     cfg.Geocoder.UserAgent,
		Language:      cfg.Geocoder.Language,
		Timeout:       cfg.Geocoder.Timeout,
		RatePerSecond: cfg.Geocoder.RatePerSecond,
	})
	locationSvc := usecases.NewLocationService(geocoder, devs, cfg.Resolve.GeocodeTimeout, cfg.Resolve.LocationTimeout)
	builder := deeplink.NewBuilder(deeplink.Schemes{
		Uber:    cfg.Providers.UberScheme,
		Bolt:    cfg.Providers.BoltScheme,
		BoltWeb: cfg.Providers.BoltWebBase,
	})
	compareSvc := usecases.NewCompareService(
		locationSvc,
		builder,
		devs,
		usecases.AppIDs{Uber: cfg.Providers.UberAppID, Bolt: cfg.Providers.BoltAppID},
		usecases.NewSplitScreenLauncher(devs, cfg.Launch.SettleDelay),
		cfg.Launch.PreferWeb,
	)
	sessionSvc := usecases.NewSessionService(store, events, locationSvc, cfg.Session.TTL)

	deps := &http.Dependencies{
		Locations:      locationSvc,
		Compare:        compareSvc,
		Sessions:       sessionSvc,
		NATS:           nc,
		Store:          store,
		Version:        version,
		RequestTimeout: cfg.Server.RequestTimeout,
		RateLimit:      cfg.Server.RateLimit,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    64 * 1024,
		AppName:      "RideCompare API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "nats", nc != nil)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"
