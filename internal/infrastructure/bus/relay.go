package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/identity-mirror/idsync/internal/core/domain"
	"github.com/identity-mirror/idsync/internal/core/ports"
	"github.com/identity-mirror/idsync/internal/infrastructure/queue"
)

const (
	relayGroup    = "idsync-relay"
	relayConsumer = "relay-1"
	readBlock     = 5 * time.Second
	readCount     = 64
)

// Relay consumes lifecycle events from the Redis stream and feeds them to
// the sharded dispatcher, so stream deliveries and webhook deliveries
// converge on the same sync handlers. Entries are acked only after the
// handler succeeds; unacked entries are redelivered on restart.
type Relay struct {
	client     *redis.Client
	stream     string
	dispatcher *queue.Dispatcher
	log        zerolog.Logger
}

// NewRelay creates a Relay reading from stream. An empty stream name falls
// back to DefaultStream.
func NewRelay(client *redis.Client, stream string, dispatcher *queue.Dispatcher, log zerolog.Logger) *Relay {
	if stream == "" {
		stream = DefaultStream
	}
	return &Relay{client: client, stream: stream, dispatcher: dispatcher, log: log}
}

// Start creates the consumer group if needed and launches the read loop.
// The loop stops when ctx is cancelled.
func (r *Relay) Start(ctx context.Context) error {
	err := r.client.XGroupCreateMkStream(ctx, r.stream, relayGroup, "0").Err()
	if err != nil && !isBusyGroup(err) {
		return fmt.Errorf("relay: create group: %w", err)
	}

	go r.run(ctx)
	return nil
}

func (r *Relay) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		streams, err := r.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    relayGroup,
			Consumer: relayConsumer,
			Streams:  []string{r.stream, ">"},
			Count:    readCount,
			Block:    readBlock,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			r.log.Warn().Err(err).Msg("relay read failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		for _, s := range streams {
			for _, msg := range s.Messages {
				r.handle(ctx, msg)
			}
		}
	}
}

func (r *Relay) handle(ctx context.Context, msg redis.XMessage) {
	del, err := r.decode(msg)
	if err != nil {
		// A malformed entry would be redelivered forever; ack and drop it.
		r.log.Error().Err(err).Str("entry_id", msg.ID).Msg("malformed stream entry dropped")
		r.ack(ctx, msg.ID)
		return
	}
	r.dispatcher.Enqueue(del)
}

func (r *Relay) decode(msg redis.XMessage) (queue.Delivery, error) {
	name, _ := msg.Values[fieldName].(string)
	if name == "" {
		return queue.Delivery{}, fmt.Errorf("entry %s: missing event name", msg.ID)
	}

	var input ports.IdentityEventInput
	if raw, _ := msg.Values[fieldData].(string); raw != "" {
		var profile domain.IdentityProfile
		if err := json.Unmarshal([]byte(raw), &profile); err != nil {
			return queue.Delivery{}, fmt.Errorf("entry %s: decode payload: %w", msg.ID, err)
		}
		input = ports.IdentityEventInput{
			ExternalID: profile.ExternalID,
			FirstName:  profile.FirstName,
			LastName:   profile.LastName,
			Username:   profile.Username,
			Email:      profile.Email,
			ImageURL:   profile.ImageURL,
		}
	}
	if raw, _ := msg.Values[fieldTS].(string); raw != "" {
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			input.Timestamp = ts
		}
	}

	id := msg.ID
	return queue.Delivery{
		Name:  domain.EventName(name),
		Input: input,
		Ack: func() {
			r.ack(context.Background(), id)
		},
	}, nil
}

func (r *Relay) ack(ctx context.Context, entryID string) {
	if err := r.client.XAck(ctx, r.stream, relayGroup, entryID).Err(); err != nil {
		r.log.Warn().Err(err).Str("entry_id", entryID).Msg("failed to ack stream entry")
	}
}

func isBusyGroup(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}
