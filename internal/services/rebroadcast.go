package services

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Default retry offsets from the initial broadcast: one re-send after 500ms
// and another 2s after that. These exist to paper over the race between a
// client joining a room and a message arriving moments earlier; they are a
// best-effort heuristic, not a delivery guarantee. Receivers deduplicate by
// message ID if repeats matter to them.
var defaultRebroadcastDelays = []time.Duration{
	500 * time.Millisecond,
	2500 * time.Millisecond,
}

// GroupMessenger is the transport substrate consumed by the chat service and
// the rebroadcaster.
type GroupMessenger interface {
	SendToGroup(roomID, event string, payload interface{}) error
}

// Rebroadcaster schedules delayed re-sends of an already-broadcast payload.
// Each retry consults room membership at fire time, so connections that left
// in the delay window simply miss the repeat. Tasks are tracked so Stop can
// cancel whatever is still pending at shutdown; the domain itself never
// cancels an individual retry.
type Rebroadcaster struct {
	messenger GroupMessenger
	delays    []time.Duration

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
}

func NewRebroadcaster(messenger GroupMessenger) *Rebroadcaster {
	return NewRebroadcasterWithDelays(messenger, defaultRebroadcastDelays)
}

func NewRebroadcasterWithDelays(messenger GroupMessenger, delays []time.Duration) *Rebroadcaster {
	return &Rebroadcaster{
		messenger: messenger,
		delays:    delays,
		timers:    make(map[string]*time.Timer),
	}
}

// Schedule queues the configured re-sends of payload to roomID. Failures in
// the retries are logged and never surfaced to the original caller.
func (r *Rebroadcaster) Schedule(roomID, event string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}

	for i, delay := range r.delays {
		taskID := uuid.New().String()
		attempt := i + 1
		r.timers[taskID] = time.AfterFunc(delay, func() {
			r.mu.Lock()
			delete(r.timers, taskID)
			r.mu.Unlock()

			if err := r.messenger.SendToGroup(roomID, event, payload); err != nil {
				slog.Error("rebroadcast failed", "roomID", roomID, "attempt", attempt, "error", err)
				return
			}
			slog.Debug("rebroadcast delivered", "roomID", roomID, "attempt", attempt)
		})
	}
}

// Pending reports how many scheduled re-sends have not fired yet.
func (r *Rebroadcaster) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}

// Stop cancels all outstanding timers. Schedule becomes a no-op afterwards.
func (r *Rebroadcaster) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	for id, timer := range r.timers {
		timer.Stop()
		delete(r.timers, id)
	}
}
