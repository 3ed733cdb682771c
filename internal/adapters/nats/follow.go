package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/ridecompare/internal/core/domain"
)

// SnapshotFunc loads the current state of the followed session.
type SnapshotFunc func(ctx context.Context) (*domain.Session, error)

// FollowSession sends the session's snapshots to send, oldest first and each
// version at most once. It subscribes before loading the current snapshot so
// no update falls between the two; whichever arrives first is sent and older
// versions are dropped.
//
// The last snapshot kept in the session stream is replayed on subscribe. When
// the stream is missing it falls back to a plain subscription.
//
// The returned stop unsubscribes. send is never called concurrently.
func FollowSession(ctx context.Context, conn *nats.Conn, sessionID string, current SnapshotFunc, send func([]byte) error) (func(), error) {
	if !ValidToken(sessionID) {
		return nil, domain.ErrSessionNotFound
	}

	relay := &snapshotRelay{last: -1, send: send}
	sub, err := subscribeSnapshots(conn, SessionSubject(sessionID), func(msg *nats.Msg) {
		var head struct {
			Version int64 `json:"version"`
		}
		if err := json.Unmarshal(msg.Data, &head); err != nil {
			return
		}
		_ = relay.offer(head.Version, msg.Data)
	})
	if err != nil {
		return nil, err
	}
	stop := func() { _ = sub.Unsubscribe() }

	session, err := current(ctx)
	if err != nil {
		stop()
		return nil, err
	}
	data, err := json.Marshal(session)
	if err != nil {
		stop()
		return nil, fmt.Errorf("encode session: %w", err)
	}
	if err := relay.offer(session.Version, data); err != nil {
		stop()
		return nil, err
	}
	return stop, nil
}

func subscribeSnapshots(conn *nats.Conn, subject string, handler nats.MsgHandler) (*nats.Subscription, error) {
	if js, err := conn.JetStream(); err == nil {
		sub, err := js.Subscribe(subject, handler,
			nats.BindStream(SessionStream),
			nats.OrderedConsumer(),
			nats.DeliverLastPerSubject(),
		)
		if err == nil {
			return sub, nil
		}
	}
	sub, err := conn.Subscribe(subject, handler)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	return sub, nil
}

// snapshotRelay forwards only versions newer than the last one sent.
type snapshotRelay struct {
	mu   sync.Mutex
	last int64
	send func([]byte) error
}

func (r *snapshotRelay) offer(version int64, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if version <= r.last {
		return nil
	}
	if err := r.send(data); err != nil {
		return err
	}
	r.last = version
	return nil
}
