package natsadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/ridecompare/internal/core/domain"
	"github.com/samirrijal/ridecompare/internal/pkg/metrics"
	"github.com/samirrijal/ridecompare/internal/pkg/telemetry"
)

// DeviceGateway reaches device agents over NATS. It implements
// ports.LocationProvider, ports.AppCatalog and ports.URILauncher.
//
// Permission and installed apps are answered from the last status heartbeat
// so those checks never block. Location and open are request/reply.
type DeviceGateway struct {
	conn       *nats.Conn
	timeout    time.Duration
	staleAfter time.Duration
	now        func() time.Time

	mu      sync.RWMutex
	devices map[string]deviceState
	sub     *nats.Subscription
}

type deviceState struct {
	permission bool
	apps       map[string]struct{}
	seenAt     time.Time
}

// NewDeviceGateway creates a gateway. Devices that have not reported for
// staleAfter are treated as having nothing installed and no permission.
func NewDeviceGateway(conn *nats.Conn, requestTimeout, staleAfter time.Duration) *DeviceGateway {
	return &DeviceGateway{
		conn:       conn,
		timeout:    requestTimeout,
		staleAfter: staleAfter,
		now:        time.Now,
		devices:    make(map[string]deviceState),
	}
}

// Start subscribes to device heartbeats.
func (g *DeviceGateway) Start() error {
	sub, err := g.conn.Subscribe(StatusWildcard, func(msg *nats.Msg) {
		if err := g.handleStatus(msg.Data); err != nil {
			slog.Warn("bad device status", "subject", msg.Subject, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", StatusWildcard, err)
	}
	g.sub = sub
	return nil
}

// Close stops listening for heartbeats. The connection is owned by the caller.
func (g *DeviceGateway) Close() {
	if g.sub != nil {
		_ = g.sub.Unsubscribe()
	}
}

func (g *DeviceGateway) handleStatus(data []byte) error {
	var st DeviceStatus
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}
	if !ValidToken(st.DeviceID) {
		return fmt.Errorf("invalid device id %q", st.DeviceID)
	}

	apps := make(map[string]struct{}, len(st.InstalledApps))
	for _, a := range st.InstalledApps {
		apps[a] = struct{}{}
	}

	now := g.now()
	g.mu.Lock()
	g.devices[st.DeviceID] = deviceState{permission: st.LocationPermission, apps: apps, seenAt: now}
	online := 0
	for _, d := range g.devices {
		if now.Sub(d.seenAt) < g.staleAfter {
			online++
		}
	}
	g.mu.Unlock()

	metrics.DevicesOnline.Set(float64(online))
	return nil
}

func (g *DeviceGateway) state(deviceID string) (deviceState, bool) {
	g.mu.RLock()
	d, ok := g.devices[deviceID]
	g.mu.RUnlock()
	if !ok || g.now().Sub(d.seenAt) >= g.staleAfter {
		return deviceState{}, false
	}
	return d, true
}

// Online reports whether the device sent a heartbeat recently.
func (g *DeviceGateway) Online(deviceID string) bool {
	_, ok := g.state(deviceID)
	return ok
}

func (g *DeviceGateway) HasLocationPermission(deviceID string) bool {
	d, ok := g.state(deviceID)
	return ok && d.permission
}

func (g *DeviceGateway) IsInstalled(deviceID, appID string) bool {
	d, ok := g.state(deviceID)
	if !ok {
		return false
	}
	_, installed := d.apps[appID]
	return installed
}

// CurrentPosition asks the device agent for a fix.
func (g *DeviceGateway) CurrentPosition(ctx context.Context, deviceID string, priority domain.LocationPriority) (domain.GeoPoint, error) {
	req, _ := json.Marshal(LocationRequest{Priority: string(priority)})
	data, err := g.request(ctx, "location", deviceID, LocationSubject(deviceID), req)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("%w: %v", domain.ErrLocationUnavailable, err)
	}
	return decodeLocationReply(data)
}

// Open asks the device agent to open uri.
func (g *DeviceGateway) Open(ctx context.Context, deviceID, uri string) error {
	req, _ := json.Marshal(OpenRequest{URI: uri})
	data, err := g.request(ctx, "open", deviceID, OpenSubject(deviceID), req)
	if err != nil {
		return err
	}
	return decodeOpenReply(data)
}

func (g *DeviceGateway) request(ctx context.Context, op, deviceID, subject string, payload []byte) ([]byte, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "device."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(telemetry.AttrDeviceID.String(deviceID)),
	)
	defer span.End()

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	msg, err := g.conn.RequestWithContext(ctx, subject, payload)
	if err != nil {
		metrics.DeviceRequestErrors.WithLabelValues(op).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, nats.ErrNoResponders) {
			return nil, fmt.Errorf("device offline: %w", err)
		}
		return nil, err
	}
	return msg.Data, nil
}

func decodeLocationReply(data []byte) (domain.GeoPoint, error) {
	var reply LocationReply
	if err := json.Unmarshal(data, &reply); err != nil {
		return domain.GeoPoint{}, fmt.Errorf("%w: decode reply: %v", domain.ErrLocationUnavailable, err)
	}
	if reply.Error != nil {
		if reply.Error.Code == CodePermissionDenied {
			return domain.GeoPoint{}, domain.ErrPermissionDenied
		}
		return domain.GeoPoint{}, fmt.Errorf("%w: %s: %s", domain.ErrLocationUnavailable, reply.Error.Code, reply.Error.Message)
	}
	return domain.GeoPoint{Lat: reply.Lat, Lon: reply.Lon}, nil
}

func decodeOpenReply(data []byte) error {
	var reply OpenReply
	if err := json.Unmarshal(data, &reply); err != nil {
		return fmt.Errorf("decode reply: %w", err)
	}
	if reply.Error != nil {
		if reply.Error.Message != "" {
			return fmt.Errorf("%s: %s", reply.Error.Code, reply.Error.Message)
		}
		return errors.New(reply.Error.Code)
	}
	return nil
}
