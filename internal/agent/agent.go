// Package agent answers device requests from the API over NATS.
//
// An agent stands in for the phone: it reports its permission and installed
// apps on a heartbeat, replies to location requests from a configured fix and
// hands URIs to an Opener.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/ridecompare/internal/adapters/nats"
	"github.com/samirrijal/ridecompare/internal/core/domain"
)

// Config is the fixed state an Agent reports.
type Config struct {
	DeviceID           string
	LocationPermission bool
	Fix                *domain.GeoPoint // nil means no fix can be produced
	InstalledApps      []string
	StatusInterval     time.Duration
}

// Agent serves one device.
type Agent struct {
	conn   *nats.Conn
	cfg    Config
	opener Opener
	now    func() time.Time
}

// New creates an Agent.
func New(conn *nats.Conn, cfg Config, opener Opener) (*Agent, error) {
	if !natsadapter.ValidToken(cfg.DeviceID) {
		return nil, fmt.Errorf("invalid device id %q", cfg.DeviceID)
	}
	if cfg.StatusInterval <= 0 {
		cfg.StatusInterval = 15 * time.Second
	}
	return &Agent{conn: conn, cfg: cfg, opener: opener, now: time.Now}, nil
}

// Run subscribes to the device subjects and sends heartbeats until ctx ends.
func (a *Agent) Run(ctx context.Context) error {
	id := a.cfg.DeviceID

	locSub, err := a.conn.Subscribe(natsadapter.LocationSubject(id), func(msg *nats.Msg) {
		if err := msg.Respond(a.handleLocation(msg.Data)); err != nil {
			slog.Warn("location reply failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe location: %w", err)
	}
	defer func() { _ = locSub.Unsubscribe() }()

	openSub, err := a.conn.Subscribe(natsadapter.OpenSubject(id), func(msg *nats.Msg) {
		if err := msg.Respond(a.handleOpen(ctx, msg.Data)); err != nil {
			slog.Warn("open reply failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe open: %w", err)
	}
	defer func() { _ = openSub.Unsubscribe() }()

	ticker := time.NewTicker(a.cfg.StatusInterval)
	defer ticker.Stop()

	slog.Info("agent running", "device_id", id, "interval", a.cfg.StatusInterval)

	// Report once immediately so the API sees the device without waiting.
	a.publishStatus()
	for {
		select {
		case <-ticker.C:
			a.publishStatus()
		case <-ctx.Done():
			return nil
		}
	}
}

func (a *Agent) publishStatus() {
	if err := a.conn.Publish(natsadapter.StatusSubject(a.cfg.DeviceID), a.status()); err != nil {
		slog.Warn("status publish failed", "error", err)
	}
}

func (a *Agent) status() []byte {
	apps := a.cfg.InstalledApps
	if apps == nil {
		apps = []string{}
	}
	data, _ := json.Marshal(natsadapter.DeviceStatus{
		DeviceID:           a.cfg.DeviceID,
		LocationPermission: a.cfg.LocationPermission,
		InstalledApps:      apps,
		SentAt:             a.now().UTC(),
	})
	return data
}

func (a *Agent) handleLocation(data []byte) []byte {
	var req natsadapter.LocationRequest
	if len(data) > 0 {
		if err := json.Unmarshal(data, &req); err != nil {
			return mustMarshal(natsadapter.LocationReply{Error: &natsadapter.ReplyError{
				Code: natsadapter.CodeUnavailable, Message: "bad request",
			}})
		}
	}

	switch {
	case !a.cfg.LocationPermission:
		return mustMarshal(natsadapter.LocationReply{Error: &natsadapter.ReplyError{Code: natsadapter.CodePermissionDenied}})
	case a.cfg.Fix == nil:
		return mustMarshal(natsadapter.LocationReply{Error: &natsadapter.ReplyError{
			Code: natsadapter.CodeUnavailable, Message: "no fix",
		}})
	}
	slog.Debug("location requested", "priority", req.Priority)
	return mustMarshal(natsadapter.LocationReply{Lat: a.cfg.Fix.Lat, Lon: a.cfg.Fix.Lon})
}

func (a *Agent) handleOpen(ctx context.Context, data []byte) []byte {
	var req natsadapter.OpenRequest
	if err := json.Unmarshal(data, &req); err != nil || req.URI == "" {
		return mustMarshal(natsadapter.OpenReply{Error: &natsadapter.ReplyError{
			Code: natsadapter.CodeNoHandler, Message: "missing uri",
		}})
	}

	if err := a.opener.Open(ctx, req.URI); err != nil {
		slog.Warn("open failed", "uri", req.URI, "error", err)
		code := natsadapter.CodeUnavailable
		if errors.Is(err, ErrNoHandler) {
			code = natsadapter.CodeNoHandler
		}
		return mustMarshal(natsadapter.OpenReply{Error: &natsadapter.ReplyError{Code: code, Message: err.Error()}})
	}
	slog.Info("opened", "uri", req.URI)
	return mustMarshal(natsadapter.OpenReply{})
}

func mustMarshal(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte(`{"error":{"code":"unavailable"}}`)
	}
	return data
}
