package valkey

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/samirrijal/ridecompare/internal/core/domain"
)

const keyPrefix = "ridecompare:session:"

// SessionStore implements ports.SessionStore using Valkey (Redis-compatible).
// Sessions are stored as JSON with a TTL that is refreshed on every save.
type SessionStore struct {
	client valkey.Client
}

// New creates a new Valkey session store.
func New(addr string) (*SessionStore, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return NewWithClient(client), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client valkey.Client) *SessionStore {
	return &SessionStore{client: client}
}

func sessionKey(id string) string { return keyPrefix + id }

// Get loads a session by ID.
func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	b, err := s.client.Do(ctx, s.client.B().Get().Key(sessionKey(id)).Build()).AsBytes()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("valkey get session: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(b, &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &session, nil
}

// Save stores a session for ttl.
func (s *SessionStore) Save(ctx context.Context, session *domain.Session, ttl time.Duration) error {
	b, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	cmd := s.client.Do(ctx,
		s.client.B().Set().Key(sessionKey(session.ID)).Value(string(b)).Ex(ttl).Build(),
	)
	return cmd.Error()
}

// Delete removes a session.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	n, err := s.client.Do(ctx, s.client.B().Del().Key(sessionKey(id)).Build()).AsInt64()
	if err != nil {
		return fmt.Errorf("valkey del session: %w", err)
	}
	if n == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

// Ping checks the connection for the readiness endpoint.
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.client.Do(ctx, s.client.B().Ping().Build()).Error()
}

// Close releases the client.
func (s *SessionStore) Close() {
	s.client.Close()
}
