// Package idempotency lets at-least-once consumers skip events they have
// already handled.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/printshop-backend/pkg/instance"
	"github.com/angelmondragon/printshop-backend/pkg/redis"
)

const keyScope = "evt:processed"

var errConsumerRequired = errors.New("consumer name is required")

// Manager claims (consumer, event id) pairs in Redis. A claim lives for ttl;
// zero keeps it until deleted.
type Manager struct {
	store redis.IdempotencyStore
	ttl   time.Duration
	owner string
	now   func() time.Time
}

func NewManager(store redis.IdempotencyStore, ttl time.Duration) (*Manager, error) {
	switch {
	case store == nil:
		return nil, errors.New("idempotency store is required")
	case ttl < 0:
		return nil, errors.New("ttl must be non-negative")
	}
	return &Manager{store: store, ttl: ttl, owner: instance.GetID(), now: time.Now}, nil
}

// CheckAndMarkProcessed claims the event for consumer. It returns true when
// an earlier delivery already holds the claim.
func (m *Manager) CheckAndMarkProcessed(ctx context.Context, consumer, eventID string) (bool, error) {
	key, err := m.key(consumer, eventID)
	if err != nil {
		return false, err
	}
	claimed, err := m.store.SetNX(ctx, key, m.marker(), m.ttl)
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", key, err)
	}
	return !claimed, nil
}

// Release drops the claim so a redelivery is handled again.
func (m *Manager) Release(ctx context.Context, consumer, eventID string) error {
	key, err := m.key(consumer, eventID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

// marker records who claimed the event and when.
func (m *Manager) marker() string {
	return m.owner + "@" + m.now().UTC().Format(time.RFC3339)
}

func (m *Manager) key(consumer, eventID string) (string, error) {
	consumer = strings.TrimSpace(consumer)
	if consumer == "" {
		return "", errConsumerRequired
	}
	id, err := uuid.Parse(strings.TrimSpace(eventID))
	if err != nil || id == uuid.Nil {
		return "", fmt.Errorf("invalid event id %q", eventID)
	}
	return m.store.IdempotencyKey(keyScope+":"+consumer, id.String()), nil
}
