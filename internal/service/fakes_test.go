package service

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/fabtrain/console/internal/hub"
)

type fakeTransport struct {
	mu        sync.Mutex
	connected bool
	err       error
	frames    []string
}

func (f *fakeTransport) Emit(event string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	f.frames = append(f.frames, event+" "+string(raw))
	return nil
}

func (f *fakeTransport) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeTransport) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.frames...)
}

type fakeModes struct {
	mu    sync.Mutex
	modes []int
}

func (f *fakeModes) SwitchTo(mode int) {
	f.mu.Lock()
	f.modes = append(f.modes, mode)
	f.mu.Unlock()
}

func (f *fakeModes) switched() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.modes...)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []hub.Event
}

func (f *fakePublisher) Publish(_ context.Context, ev hub.Event) error {
	f.mu.Lock()
	f.events = append(f.events, ev)
	f.mu.Unlock()
	return nil
}
