package valkey

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valkey-io/valkey-go/mock"
	"go.uber.org/mock/gomock"

	"github.com/samirrijal/ridecompare/internal/core/domain"
)

func newMockStore(t *testing.T) (*SessionStore, *mock.Client) {
	ctrl := gomock.NewController(t)
	client := mock.NewClient(ctrl)
	return NewWithClient(client), client
}

func TestSessionStore_Get(t *testing.T) {
	ctx := context.Background()
	store, client := newMockStore(t)

	in := domain.Session{ID: "s1", DeviceID: "dev-1", Trip: domain.TripRequest{PickupText: "Times Square"}, Version: 3}
	b, err := json.Marshal(in)
	require.NoError(t, err)

	client.EXPECT().
		Do(ctx, mock.Match("GET", "ridecompare:session:s1")).
		Return(mock.Result(mock.ValkeyBlobString(string(b))))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "dev-1", got.DeviceID)
	assert.Equal(t, "Times Square", got.Trip.PickupText)
	assert.EqualValues(t, 3, got.Version)
}

func TestSessionStore_GetMissing(t *testing.T) {
	ctx := context.Background()
	store, client := newMockStore(t)

	client.EXPECT().
		Do(ctx, mock.Match("GET", "ridecompare:session:gone")).
		Return(mock.Result(mock.ValkeyNil()))

	_, err := store.Get(ctx, "gone")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionStore_GetErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("transport", func(t *testing.T) {
		store, client := newMockStore(t)
		client.EXPECT().
			Do(ctx, mock.Match("GET", "ridecompare:session:s1")).
			Return(mock.ErrorResult(errors.New("connection reset")))

		_, err := store.Get(ctx, "s1")
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("corrupt value", func(t *testing.T) {
		store, client := newMockStore(t)
		client.EXPECT().
			Do(ctx, mock.Match("GET", "ridecompare:session:s1")).
			Return(mock.Result(mock.ValkeyBlobString("{not json")))

		_, err := store.Get(ctx, "s1")
		assert.ErrorContains(t, err, "decode session s1")
	})
}

func TestSessionStore_Save(t *testing.T) {
	ctx := context.Background()
	store, client := newMockStore(t)

	in := &domain.Session{ID: "s1", DeviceID: "dev-1"}
	b, err := json.Marshal(in)
	require.NoError(t, err)

	client.EXPECT().
		Do(ctx, mock.Match("SET", "ridecompare:session:s1", string(b), "EX", "3600")).
		Return(mock.Result(mock.ValkeyString("OK")))

	require.NoError(t, store.Save(ctx, in, time.Hour))
}

func TestSessionStore_Delete(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		deleted int64
		wantErr error
	}{
		{"existing", 1, nil},
		{"missing", 0, domain.ErrSessionNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, client := newMockStore(t)
			client.EXPECT().
				Do(ctx, mock.Match("DEL", "ridecompare:session:s1")).
				Return(mock.Result(mock.ValkeyInt64(tt.deleted)))

			err := store.Delete(ctx, "s1")
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
