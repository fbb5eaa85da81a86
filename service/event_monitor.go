package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/giftring/giftring-core/engine"
	"github.com/giftring/giftring-core/log"
)

// eventBatchSize bounds how many audit events one poll drains.
const eventBatchSize = 256

// EventMonitor tails the persistent audit log and mirrors every new event to
// the structured logger, giving operators a live view of protocol activity
// without polling the API.
type EventMonitor struct {
	engine   *engine.Engine
	interval time.Duration
	mu       sync.Mutex
	cancel   context.CancelFunc
	cursor   uint64
}

// NewEventMonitor creates a new EventMonitor service over the given engine.
func NewEventMonitor(eng *engine.Engine, interval time.Duration) *EventMonitor {
	return &EventMonitor{
		engine:   eng,
		interval: interval,
	}
}

// Start begins tailing the audit log. It returns an error if the service is
// already running.
func (em *EventMonitor) Start(ctx context.Context) error {
	em.mu.Lock()
	defer em.mu.Unlock()

	if em.cancel != nil {
		return fmt.Errorf("service already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	em.cancel = cancel

	go em.tailEvents(ctx)
	return nil
}

// Stop halts the monitoring service.
func (em *EventMonitor) Stop() {
	em.mu.Lock()
	defer em.mu.Unlock()

	if em.cancel != nil {
		em.cancel()
		em.cancel = nil
	}
}

// Cursor returns the sequence number of the last event mirrored so far.
func (em *EventMonitor) Cursor() uint64 {
	em.mu.Lock()
	defer em.mu.Unlock()
	return em.cursor
}

func (em *EventMonitor) tailEvents(ctx context.Context) {
	ticker := time.NewTicker(em.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			em.drain()
		}
	}
}

// drain logs every event appended since the cursor, batch by batch, and
// advances the cursor past the last one seen.
func (em *EventMonitor) drain() {
	for {
		em.mu.Lock()
		after := em.cursor
		em.mu.Unlock()

		events, err := em.engine.Events(after, eventBatchSize)
		if err != nil {
			log.Warnw("failed to read audit events", "error", err.Error())
			return
		}
		if len(events) == 0 {
			return
		}
		for _, ev := range events {
			log.Infow("audit event",
				"seq", ev.Seq,
				"kind", string(ev.Event.Kind),
				"data", fmt.Sprintf("%v", ev.Event.Data))
		}

		em.mu.Lock()
		em.cursor = events[len(events)-1].Seq
		em.mu.Unlock()
	}
}
