package usecases_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/ridecompare/internal/core/domain"
	"github.com/samirrijal/ridecompare/internal/core/usecases"
)

var testLinks = []domain.Link{
	{Provider: domain.ProviderUber, URI: "providerA://?action=setPickup"},
	{Provider: domain.ProviderBolt, URI: "providerB://ride?pickup=a&destination=b"},
}

func TestSplitScreenLauncher_FailureKeepsEarlierLaunch(t *testing.T) {
	launcher := &mockLauncher{openFn: func(ctx context.Context, deviceID, uri string) error {
		if uri == testLinks[1].URI {
			return errors.New("no handler")
		}
		return nil
	}}
	l := usecases.NewSplitScreenLauncher(launcher, 0)

	out, err := l.Launch(context.Background(), "dev-1", testLinks)
	require.NoError(t, err)
	assert.True(t, out[0].OK(), "first launch should stand, got %v", out[0].Err)

	var le *domain.LaunchError
	require.ErrorAs(t, out[1].Err, &le)
	assert.Equal(t, domain.ProviderBolt, le.Provider)
	assert.Equal(t, testLinks[1].URI, le.URI)
}

func TestSplitScreenLauncher_CancelDuringDelay(t *testing.T) {
	launcher := &mockLauncher{}
	l := usecases.NewSplitScreenLauncher(launcher, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	out, err := l.Launch(ctx, "dev-1", testLinks)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, out, 1)
	assert.Len(t, launcher.opened(), 1, "only the first link should open")
}

func TestSplitScreenLauncher_NoDelayBeforeFirst(t *testing.T) {
	launcher := &mockLauncher{}
	l := usecases.NewSplitScreenLauncher(launcher, 50*time.Millisecond)

	start := time.Now()
	_, err := l.Launch(context.Background(), "dev-1", testLinks)
	require.NoError(t, err)

	calls := launcher.opened()
	require.NotEmpty(t, calls)
	assert.Less(t, calls[0].at.Sub(start), 50*time.Millisecond, "first link delayed")
}
