package natsadapter

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/ridecompare/internal/core/domain"
)

func runServer(t *testing.T, jetStream bool) *nats.Conn {
	t.Helper()
	srv, err := server.NewServer(&server.Options{
		Host:      "127.0.0.1",
		Port:      -1,
		JetStream: jetStream,
		StoreDir:  t.TempDir(),
		NoLog:     true,
		NoSigs:    true,
	})
	require.NoError(t, err)
	go srv.Start()
	t.Cleanup(srv.Shutdown)
	require.True(t, srv.ReadyForConnections(5*time.Second), "nats server not ready")

	conn, err := nats.Connect(srv.ClientURL())
	require.NoError(t, err)
	t.Cleanup(conn.Close)
	return conn
}

// received collects the session snapshots written to a client.
type received struct {
	mu       sync.Mutex
	sessions []domain.Session
}

func (r *received) send(data []byte) error {
	var s domain.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	r.mu.Lock()
	r.sessions = append(r.sessions, s)
	r.mu.Unlock()
	return nil
}

func (r *received) snapshot() []domain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Session(nil), r.sessions...)
}

func (r *received) lastVersion() int64 {
	got := r.snapshot()
	if len(got) == 0 {
		return -1
	}
	return got[len(got)-1].Version
}

func versions(sessions []domain.Session) []int64 {
	out := make([]int64, len(sessions))
	for i, s := range sessions {
		out[i] = s.Version
	}
	return out
}

func snapshotAt(version int64, pickup string) *domain.Session {
	return &domain.Session{
		ID:       "s1",
		DeviceID: "pixel-7",
		Trip:     domain.TripRequest{PickupText: pickup},
		Version:  version,
	}
}

func assertIncreasing(t *testing.T, sessions []domain.Session) {
	t.Helper()
	for i := 1; i < len(sessions); i++ {
		assert.Greater(t, sessions[i].Version, sessions[i-1].Version, "versions %v", versions(sessions))
	}
}

func TestFollowSession_UpdateDuringLoad(t *testing.T) {
	for _, tc := range []struct {
		name      string
		jetStream bool
	}{
		{"stream", true},
		{"core", false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			conn := runServer(t, tc.jetStream)
			ctx := context.Background()

			var pub interface {
				PublishSession(context.Context, *domain.Session) error
			}
			if tc.jetStream {
				p, err := NewPublisher(conn, time.Hour)
				require.NoError(t, err)
				pub = p
			} else {
				pub = corePublisher{conn}
			}

			// The store hands back v0, but v1 is published while it is loading.
			load := func(ctx context.Context) (*domain.Session, error) {
				require.NoError(t, pub.PublishSession(ctx, snapshotAt(1, "NEW PICKUP")))
				require.NoError(t, conn.Flush())
				return snapshotAt(0, ""), nil
			}

			var got received
			stop, err := FollowSession(ctx, conn, "s1", load, got.send)
			require.NoError(t, err)
			defer stop()

			require.Eventually(t, func() bool { return got.lastVersion() == 1 }, 2*time.Second, 10*time.Millisecond,
				"client stuck on version %d", got.lastVersion())

			all := got.snapshot()
			assertIncreasing(t, all)
			assert.Equal(t, "NEW PICKUP", all[len(all)-1].Trip.PickupText)
		})
	}
}

func TestFollowSession_ReplaysStreamOnce(t *testing.T) {
	conn := runServer(t, true)
	ctx := context.Background()

	pub, err := NewPublisher(conn, time.Hour)
	require.NoError(t, err)
	require.NoError(t, pub.PublishSession(ctx, snapshotAt(2, "Times Square")))
	require.NoError(t, pub.PublishSession(ctx, snapshotAt(3, "Central Park")))

	var got received
	stop, err := FollowSession(ctx, conn, "s1",
		func(context.Context) (*domain.Session, error) { return snapshotAt(3, "Central Park"), nil },
		got.send)
	require.NoError(t, err)
	defer stop()

	require.NoError(t, pub.PublishSession(ctx, snapshotAt(4, "Union Square")))
	require.Eventually(t, func() bool { return got.lastVersion() == 4 }, 2*time.Second, 10*time.Millisecond)

	// The stream replay of v3 and the store read of v3 collapse into one message.
	assert.Equal(t, []int64{3, 4}, versions(got.snapshot()))
}

func TestFollowSession_LoadError(t *testing.T) {
	conn := runServer(t, false)

	var got received
	_, err := FollowSession(context.Background(), conn, "s1",
		func(context.Context) (*domain.Session, error) { return nil, domain.ErrSessionNotFound },
		got.send)
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.Empty(t, got.snapshot())

	_, err = FollowSession(context.Background(), conn, "bad.id", nil, got.send)
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSnapshotRelay_DropsOlderVersions(t *testing.T) {
	var sent []string
	r := &snapshotRelay{last: -1, send: func(b []byte) error {
		sent = append(sent, string(b))
		return nil
	}}

	require.NoError(t, r.offer(2, []byte("v2")))
	require.NoError(t, r.offer(1, []byte("v1")))
	require.NoError(t, r.offer(2, []byte("v2 again")))
	require.NoError(t, r.offer(5, []byte("v5")))

	assert.Equal(t, []string{"v2", "v5"}, sent)
}

// corePublisher publishes snapshots without JetStream.
type corePublisher struct{ conn *nats.Conn }

func (p corePublisher) PublishSession(_ context.Context, s *domain.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return p.conn.Publish(SessionSubject(s.ID), data)
}
