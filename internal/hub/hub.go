// Package hub fans console events (mode switches, connection status, feed
// updates) out to every attached browser. With Redis configured, events go
// through Pub/Sub so all console instances see them.
package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	EventMode   = "mode"
	EventStatus = "status"
	EventFeed   = "feed"
	EventPong   = "pong"
	EventError  = "error"
)

// Event is the envelope sent to browsers.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Subscriber receives encoded events on C until it is unsubscribed.
type Subscriber struct {
	C chan []byte
}

type Hub struct {
	mu      sync.RWMutex
	subs    map[*Subscriber]struct{}
	mode    atomic.Int32
	rdb     *redis.Client
	channel string
	log     zerolog.Logger
}

// New creates a Hub. rdb may be nil for a single-instance console.
func New(rdb *redis.Client, channel string, log zerolog.Logger) *Hub {
	return &Hub{
		subs:    make(map[*Subscriber]struct{}),
		rdb:     rdb,
		channel: channel,
		log:     log.With().Str("component", "hub").Logger(),
	}
}

// Subscribe attaches a new subscriber with a buffer of size events.
func (h *Hub) Subscribe(size int) *Subscriber {
	s := &Subscriber{C: make(chan []byte, size)}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// Unsubscribe detaches s and closes its channel.
func (h *Hub) Unsubscribe(s *Subscriber) {
	h.mu.Lock()
	if _, ok := h.subs[s]; ok {
		delete(h.subs, s)
		close(s.C)
	}
	h.mu.Unlock()
}

// Mode returns the current UI mode.
func (h *Hub) Mode() int {
	return int(h.mode.Load())
}

// SwitchTo records mode and announces it to every subscriber.
func (h *Hub) SwitchTo(mode int) {
	h.mode.Store(int32(mode))
	if err := h.Publish(context.Background(), Event{Event: EventMode, Data: mode}); err != nil {
		h.log.Error().Err(err).Int("mode", mode).Msg("Publish mode failed")
	}
}

// Publish sends ev to subscribers, through Redis when configured. If the
// Redis publish fails the event is still delivered locally.
func (h *Hub) Publish(ctx context.Context, ev Event) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", ev.Event, err)
	}
	if h.rdb == nil {
		h.broadcast(raw)
		return nil
	}
	if err := h.rdb.Publish(ctx, h.channel, raw).Err(); err != nil {
		h.broadcast(raw)
		return fmt.Errorf("publish %s event: %w", ev.Event, err)
	}
	return nil
}

// Run relays Redis Pub/Sub messages to local subscribers until ctx is done.
// Without Redis it just waits for ctx.
func (h *Hub) Run(ctx context.Context) error {
	if h.rdb == nil {
		<-ctx.Done()
		return nil
	}

	pubsub := h.rdb.Subscribe(ctx, h.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", h.channel, err)
	}
	h.log.Info().Str("channel", h.channel).Msg("Relaying console events")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			h.apply([]byte(msg.Payload))
			h.broadcast([]byte(msg.Payload))
		}
	}
}

// apply keeps the local mode in step with mode events from other instances.
func (h *Hub) apply(raw []byte) {
	var ev struct {
		Event string `json:"event"`
		Data  int    `json:"data"`
	}
	if err := json.Unmarshal(raw, &ev); err != nil || ev.Event != EventMode {
		return
	}
	h.mode.Store(int32(ev.Data))
}

// broadcast never blocks: a subscriber whose buffer is full misses the event.
func (h *Hub) broadcast(raw []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs {
		select {
		case s.C <- raw:
		default:
			h.log.Warn().Msg("Slow subscriber, event dropped")
		}
	}
}
