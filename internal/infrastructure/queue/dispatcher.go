package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/identity-mirror/idsync/internal/core/domain"
	"github.com/identity-mirror/idsync/internal/core/ports"
	"github.com/identity-mirror/idsync/internal/pkg/metrics"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// Delivery is one bus-delivered lifecycle event heading for a sync handler.
type Delivery struct {
	Name  domain.EventName
	Input ports.IdentityEventInput
	// Ack, when non-nil, is called after the handler succeeds so the bus can
	// mark the delivery as consumed. Failures leave the delivery unacked for
	// redelivery.
	Ack func()
}

// Dispatcher routes deliveries to a fixed set of workers using consistent
// hashing on the externalId, so events for the same identity are processed
// in arrival order while different identities proceed concurrently.
type Dispatcher struct {
	workers []chan Delivery
	service ports.SyncService
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.SyncService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan Delivery, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan Delivery, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue sends a delivery to the worker responsible for its externalId.
// The call is non-blocking up to channelBuffer capacity.
func (d *Dispatcher) Enqueue(del Delivery) {
	idx := d.shardIndex(del.Input.ExternalID)
	d.workers[idx] <- del
	metrics.RelayQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
}

// shardIndex maps an externalId deterministically to a worker index.
func (d *Dispatcher) shardIndex(externalID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(externalID))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan Delivery) {
	workerID := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case del, ok := <-ch:
			if !ok {
				return
			}
			metrics.RelayQueueDepth.WithLabelValues(workerID).Set(float64(len(ch)))
			if err := d.process(ctx, del); err != nil {
				d.log.Error().Err(err).
					Str("event", string(del.Name)).
					Str("external_id", del.Input.ExternalID).
					Int("worker_id", id).
					Msg("delivery processing failed")
				continue
			}
			if del.Ack != nil {
				del.Ack()
			}
		}
	}
}

func (d *Dispatcher) process(ctx context.Context, del Delivery) error {
	var err error
	switch del.Name {
	case domain.EventIdentityCreated:
		_, err = d.service.HandleCreated(ctx, del.Input)
	case domain.EventIdentityUpdated:
		_, err = d.service.HandleUpdated(ctx, del.Input)
	case domain.EventIdentityDeleted:
		_, err = d.service.HandleDeleted(ctx, del.Input.ExternalID)
	default:
		// Not ours; the bus shares the stream with unrelated event types.
		metrics.EventsIgnoredTotal.WithLabelValues(string(del.Name)).Inc()
	}
	return err
}
