package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fabtrain/console/internal/feed"
	"github.com/fabtrain/console/internal/form"
	"github.com/fabtrain/console/internal/hub"
	"github.com/fabtrain/console/internal/transport"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Publisher sends an event to attached browsers.
type Publisher interface {
	Publish(ctx context.Context, ev hub.Event) error
}

// FeedService keeps the train feed in step with the backend.
type FeedService struct {
	store     feed.Store
	publisher Publisher
	modes     form.ModeSwitcher
	sfg       singleflight.Group
	log       zerolog.Logger
}

// NewFeedService creates a new FeedService.
func NewFeedService(store feed.Store, publisher Publisher, modes form.ModeSwitcher, log zerolog.Logger) *FeedService {
	return &FeedService{
		store:     store,
		publisher: publisher,
		modes:     modes,
		log:       log.With().Str("component", "feed_service").Logger(),
	}
}

// View renders the stored feed. Concurrent callers share one store read,
// which is detached from any single caller's cancellation; each caller
// still stops waiting when its own ctx is done.
func (s *FeedService) View(ctx context.Context) (feed.View, error) {
	loadCtx := context.WithoutCancel(ctx)
	ch := s.sfg.DoChan("feed", func() (interface{}, error) {
		return s.store.Load(loadCtx)
	})

	select {
	case <-ctx.Done():
		return feed.View{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return feed.View{}, res.Err
		}
		return feed.Render(res.Val.([]feed.Entry)), nil
	}
}

// Replace stores a new feed, pushes it to browsers and returns the UI to
// the list view.
func (s *FeedService) Replace(ctx context.Context, entries []feed.Entry) error {
	if err := s.store.Save(ctx, entries); err != nil {
		return fmt.Errorf("save feed: %w", err)
	}
	s.push(ctx, feed.Render(entries))
	s.modes.SwitchTo(form.ModeFeed)
	return nil
}

// AppendMessage adds a message entry to the feed.
func (s *FeedService) AppendMessage(ctx context.Context, key, msg string) error {
	if err := s.store.Append(ctx, feed.MessageEntry(key, msg)); err != nil {
		return fmt.Errorf("append feed: %w", err)
	}
	entries, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load feed: %w", err)
	}
	s.push(ctx, feed.Render(entries))
	s.modes.SwitchTo(form.ModeFeed)
	return nil
}

// HandleFrame applies an inbound backend frame.
func (s *FeedService) HandleFrame(f transport.Frame) {
	ctx := context.Background()

	switch f.Event {
	case transport.EventFeed:
		var entries []feed.Entry
		if err := json.Unmarshal(f.Payload, &entries); err != nil {
			s.log.Warn().Err(err).Msg("Invalid feed payload")
			return
		}
		if err := s.Replace(ctx, entries); err != nil {
			s.log.Error().Err(err).Msg("Feed update failed")
		}
	case transport.EventError:
		var msg string
		if err := json.Unmarshal(f.Payload, &msg); err != nil {
			msg = string(f.Payload)
		}
		s.log.Warn().Str("error", msg).Msg("Backend reported an error")
		if err := s.AppendMessage(ctx, transport.EventError, msg); err != nil {
			s.log.Error().Err(err).Msg("Feed update failed")
		}
	default:
		s.log.Debug().Str("event", f.Event).Msg("Unhandled backend event")
	}
}

func (s *FeedService) push(ctx context.Context, v feed.View) {
	if err := s.publisher.Publish(ctx, hub.Event{Event: hub.EventFeed, Data: v}); err != nil {
		s.log.Error().Err(err).Msg("Publish feed failed")
	}
}
