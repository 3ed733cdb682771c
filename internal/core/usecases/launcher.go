package usecases

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samirrijal/ridecompare/internal/core/domain"
	"github.com/samirrijal/ridecompare/internal/core/ports"
	"github.com/samirrijal/ridecompare/internal/pkg/metrics"
)

// DefaultSettleDelay is how long the first app gets before the second one is
// opened. Opening two full-screen apps back to back can keep the platform
// from entering split-screen.
const DefaultSettleDelay = 500 * time.Millisecond

// SplitScreenLauncher opens provider links one after another with a settle
// delay in between.
type SplitScreenLauncher struct {
	launcher ports.URILauncher
	delay    time.Duration
}

// NewSplitScreenLauncher creates a new SplitScreenLauncher.
func NewSplitScreenLauncher(launcher ports.URILauncher, delay time.Duration) *SplitScreenLauncher {
	return &SplitScreenLauncher{launcher: launcher, delay: delay}
}

// Launch opens links in order. A failed launch is recorded on its outcome and
// does not stop or undo the others. The returned error is non-nil only when
// ctx ends before every link was attempted.
func (l *SplitScreenLauncher) Launch(ctx context.Context, deviceID string, links []domain.Link) ([]domain.LaunchOutcome, error) {
	outcomes := make([]domain.LaunchOutcome, 0, len(links))

	for i, link := range links {
		if i > 0 && l.delay > 0 {
			if err := sleepCtx(ctx, l.delay); err != nil {
				return outcomes, err
			}
		}

		outcome := domain.LaunchOutcome{Provider: link.Provider, URI: link.URI}
		if err := l.launcher.Open(ctx, deviceID, link.URI); err != nil {
			var le *domain.LaunchError
			if !errors.As(err, &le) {
				le = &domain.LaunchError{Provider: link.Provider, URI: link.URI, Err: err}
			}
			outcome.Err = le
			metrics.Launches.WithLabelValues(string(link.Provider), "failed").Inc()
			slog.WarnContext(ctx, "launch failed", "provider", link.Provider, "device_id", deviceID, "error", err)
		} else {
			metrics.Launches.WithLabelValues(string(link.Provider), "ok").Inc()
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
