// Package bus implements the event dispatch client and the stream relay on
// top of Redis Streams. Publishing is fire-and-forget: a nil error means the
// stream accepted the entry, not that any consumer processed it.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/identity-mirror/idsync/internal/core/domain"
	"github.com/identity-mirror/idsync/internal/core/ports"
	"github.com/identity-mirror/idsync/internal/pkg/metrics"
)

// DefaultStream is the stream identity events travel on.
const DefaultStream = "idsync:events"

// envelope field names on the stream entry.
const (
	fieldName = "name"
	fieldData = "data"
	fieldTS   = "ts"
)

// Publisher implements ports.EventBus by appending entries to a Redis stream.
// It performs no retries and keeps no local state; delivery guarantees belong
// to the bus.
type Publisher struct {
	client *redis.Client
	stream string
	log    zerolog.Logger
}

// NewPublisher creates a Publisher writing to stream. An empty stream name
// falls back to DefaultStream.
func NewPublisher(client *redis.Client, stream string, log zerolog.Logger) *Publisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &Publisher{client: client, stream: stream, log: log}
}

func (p *Publisher) PublishUserCreated(ctx context.Context, profile domain.IdentityProfile) error {
	return p.publish(ctx, domain.EventIdentityCreated, profile)
}

func (p *Publisher) PublishUserUpdated(ctx context.Context, profile domain.IdentityProfile) error {
	return p.publish(ctx, domain.EventIdentityUpdated, profile)
}

func (p *Publisher) PublishUserDeleted(ctx context.Context, externalID string) error {
	return p.publish(ctx, domain.EventIdentityDeleted, domain.IdentityProfile{ExternalID: externalID})
}

func (p *Publisher) PublishUserActivity(ctx context.Context, externalID, activity string, ts time.Time) error {
	return p.publish(ctx, domain.EventUserActivity, domain.UserActivity{
		ExternalID: externalID,
		Activity:   activity,
		Timestamp:  ts.UTC(),
	})
}

func (p *Publisher) PublishBulkSyncRequested(ctx context.Context, externalIDs []string, requestedAt time.Time) error {
	return p.publish(ctx, domain.EventBulkSync, domain.BulkSyncRequest{
		ExternalIDs: externalIDs,
		RequestedAt: requestedAt.UTC(),
	})
}

func (p *Publisher) PublishCustom(ctx context.Context, name string, payload any) error {
	return p.publish(ctx, domain.EventName(name), payload)
}

func (p *Publisher) publish(ctx context.Context, name domain.EventName, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("publish %s: encode payload: %w", name, err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			fieldName: string(name),
			fieldData: string(data),
			fieldTS:   time.Now().UTC().Format(time.RFC3339Nano),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("publish %s: %w", name, err)
	}

	metrics.EventsPublishedTotal.WithLabelValues(string(name)).Inc()
	p.log.Debug().Str("event", string(name)).Msg("event published")
	return nil
}

var _ ports.EventBus = (*Publisher)(nil)
