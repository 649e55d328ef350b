package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/genericsdirect/dealtracker/internal/allocation"
	"github.com/genericsdirect/dealtracker/pkg/enums"
	"github.com/genericsdirect/dealtracker/pkg/logger"
)

const defaultBuffer = 32

// Event is one membership change of a scenario as delivered to subscribers.
type Event struct {
	ScenarioID uuid.UUID                               `json:"scenario_id"`
	Kind       enums.AllocationChangeKind              `json:"kind"`
	LineItemID *uuid.UUID                              `json:"line_item_id,omitempty"`
	Source     allocation.BucketID                     `json:"source,omitempty"`
	Target     allocation.BucketID                     `json:"target,omitempty"`
	Totals     map[allocation.BucketID]decimal.Decimal `json:"totals"`
	Timestamp  time.Time                               `json:"timestamp"`
}

// FromChange builds the event published for a model change.
func FromChange(scenarioID uuid.UUID, change allocation.Change, at time.Time) Event {
	evt := Event{
		ScenarioID: scenarioID,
		Kind:       change.Kind,
		Source:     change.Source,
		Target:     change.Target,
		Totals:     change.Totals,
		Timestamp:  at.UTC(),
	}
	if change.LineItemID != uuid.Nil {
		id := change.LineItemID
		evt.LineItemID = &id
	}
	return evt
}

type subscriber struct {
	ch     chan Event
	closed bool
}

// Hub fans scenario events out to per-subscriber buffered channels. A slow
// subscriber loses events instead of blocking the publisher.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uuid.UUID]map[*subscriber]struct{}
	buffer int
	logg   *logger.Logger
}

func NewHub(buffer int, logg *logger.Logger) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Hub{
		subs:   map[uuid.UUID]map[*subscriber]struct{}{},
		buffer: buffer,
		logg:   logg,
	}
}

// Subscribe registers interest in one scenario. The returned cancel func
// unregisters and closes the channel; it is safe to call more than once and
// after CloseScenario.
func (h *Hub) Subscribe(scenarioID uuid.UUID) (<-chan Event, func()) {
	sub := &subscriber{ch: make(chan Event, h.buffer)}

	h.mu.Lock()
	set, ok := h.subs[scenarioID]
	if !ok {
		set = map[*subscriber]struct{}{}
		h.subs[scenarioID] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if set, ok := h.subs[scenarioID]; ok {
				delete(set, sub)
				if len(set) == 0 {
					delete(h.subs, scenarioID)
				}
			}
			if !sub.closed {
				sub.closed = true
				close(sub.ch)
			}
		})
	}
	return sub.ch, cancel
}

// Publish delivers evt to every subscriber of its scenario without blocking.
func (h *Hub) Publish(ctx context.Context, evt Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[evt.ScenarioID] {
		select {
		case sub.ch <- evt:
		default:
			h.logg.Warn(h.logg.WithFields(ctx, map[string]any{
				"scenario_id": evt.ScenarioID.String(),
				"event_kind":  evt.Kind.String(),
			}), "event channel full, dropping event")
		}
	}
}

// CloseScenario ends every subscription of a scenario. Subscribers see their
// channel closed and the scenario is forgotten.
func (h *Hub) CloseScenario(scenarioID uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.subs[scenarioID]
	for sub := range set {
		if !sub.closed {
			sub.closed = true
			close(sub.ch)
		}
	}
	delete(h.subs, scenarioID)
	return len(set)
}

// Subscribers returns the number of live subscribers for a scenario.
func (h *Hub) Subscribers(scenarioID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[scenarioID])
}
