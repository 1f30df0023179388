package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/fabtrain/console/internal/feed"
	"github.com/fabtrain/console/internal/form"
	"github.com/fabtrain/console/internal/hub"
)

const defaultWidth = 80

// screen prints console events to a terminal. It stands in for the hub as
// the feed publisher and mode switcher, and for the message box as the
// notifier.
type screen struct {
	mu    sync.Mutex
	out   io.Writer
	width func() int
	feeds chan feed.View
}

func newScreen(out io.Writer, width func() int) *screen {
	if width == nil {
		width = func() int { return defaultWidth }
	}
	return &screen{out: out, width: width, feeds: make(chan feed.View, 8)}
}

// Publish prints feed events and hands them to whoever waits in awaitFeed.
func (s *screen) Publish(_ context.Context, ev hub.Event) error {
	view, ok := ev.Data.(feed.View)
	if ev.Event != hub.EventFeed || !ok {
		return nil
	}
	s.printFeed(view)
	select {
	case s.feeds <- view:
	default:
	}
	return nil
}

func (s *screen) SwitchTo(mode int) {
	if mode == form.ModePending {
		s.println("Request sent, waiting for the backend...")
	}
}

func (s *screen) Notify(message string) {
	s.println("! " + message)
}

func (s *screen) status(connected bool) {
	if connected {
		s.println("Connected to backend")
		return
	}
	s.println("DISCONNECTED")
}

func (s *screen) awaitFeed(ctx context.Context) (feed.View, error) {
	select {
	case <-ctx.Done():
		return feed.View{}, ctx.Err()
	case v := <-s.feeds:
		return v, nil
	}
}

func (s *screen) printFeed(v feed.View) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v.Placeholder {
		fmt.Fprintln(s.out, "(no trains)")
		return
	}
	width := s.width()
	for _, row := range v.Rows {
		fmt.Fprintln(s.out, truncate(row.Primary+"  "+row.Secondary, width))
	}
}

func (s *screen) println(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.out, line)
}

// truncate cuts line to width runes, marking the cut with "…".
func truncate(line string, width int) string {
	if width <= 1 || utf8.RuneCountInString(line) <= width {
		return line
	}
	runes := []rune(line)
	return string(runes[:width-1]) + "…"
}

// drainFeeds discards feeds that arrived before a request was sent, so the
// next awaitFeed sees the backend's reply to it.
func (s *screen) drainFeeds() {
	for {
		select {
		case <-s.feeds:
		default:
			return
		}
	}
}

// readFields fills a Field Store of kind with one line per declared field.
// A blank line leaves the field not entered. Prompts are written only when
// interactive.
func readFields(in io.Reader, out io.Writer, kind form.Kind, interactive bool) (form.Snapshot, error) {
	store, err := form.NewStore(kind)
	if err != nil {
		return nil, err
	}

	sc := bufio.NewScanner(in)
	for _, name := range store.Definition().Fields {
		if interactive {
			fmt.Fprintf(out, "%s: ", name)
		}
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return nil, fmt.Errorf("read %s: %w", name, err)
			}
			break
		}
		if v := strings.TrimRight(sc.Text(), "\r"); v != "" {
			if err := store.Set(name, form.String(v)); err != nil {
				return nil, err
			}
		}
	}
	return store.Snapshot(), nil
}
