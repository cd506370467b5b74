// internal/pkg/session/manager.go
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	xerrors "subdesk-service/internal/pkg/errors"

	"github.com/redis/go-redis/v9"
)

// Manager stores sessions in Redis. A token is only accepted while its
// session record exists, so logout revokes it immediately even though the
// JWT itself stays cryptographically valid until expiry.
type Manager struct {
	client *redis.Client
}

func NewManager(client *redis.Client) *Manager {
	return &Manager{client: client}
}

func (m *Manager) sessionKey(userID, jti string) string {
	return fmt.Sprintf("session:%s:%s", userID, jti)
}

// Create stores a new session with a TTL matching the token lifetime.
func (m *Manager) Create(ctx context.Context, data *Data) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	ttl := time.Until(data.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}

	if err := m.client.Set(ctx, m.sessionKey(data.UserID, data.JTI), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session in redis: %w", err)
	}
	return nil
}

// Get retrieves a session; a missing key reads as an expired session.
func (m *Manager) Get(ctx context.Context, userID, jti string) (*Data, error) {
	raw, err := m.client.Get(ctx, m.sessionKey(userID, jti)).Bytes()
	if err == redis.Nil {
		return nil, xerrors.ErrSessionExpired
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &data, nil
}

// Touch updates the last-activity timestamp without extending the TTL.
func (m *Manager) Touch(ctx context.Context, userID, jti string) {
	key := m.sessionKey(userID, jti)
	raw, err := m.client.Get(ctx, key).Bytes()
	if err != nil {
		return
	}
	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return
	}
	data.LastActivityAt = time.Now()
	payload, err := json.Marshal(&data)
	if err != nil {
		return
	}
	m.client.Set(ctx, key, payload, redis.KeepTTL)
}

// Revoke deletes one session (logout).
func (m *Manager) Revoke(ctx context.Context, userID, jti string) error {
	if err := m.client.Del(ctx, m.sessionKey(userID, jti)).Err(); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// RevokeAll deletes every session for a user (user deleted or re-roled).
func (m *Manager) RevokeAll(ctx context.Context, userID string) error {
	pattern := fmt.Sprintf("session:%s:*", userID)
	iter := m.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := m.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to revoke session %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan sessions: %w", err)
	}
	return nil
}
