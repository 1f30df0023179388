package hub

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_SwitchToBroadcastsMode(t *testing.T) {
	h := New(nil, "test:events", zerolog.Nop())
	a := h.Subscribe(4)
	b := h.Subscribe(4)

	h.SwitchTo(1)

	assert.Equal(t, 1, h.Mode())
	assert.JSONEq(t, `{"event":"mode","data":1}`, string(<-a.C))
	assert.JSONEq(t, `{"event":"mode","data":1}`, string(<-b.C))
}

func TestHub_PublishSkipsFullSubscriber(t *testing.T) {
	h := New(nil, "test:events", zerolog.Nop())
	slow := h.Subscribe(1)
	fast := h.Subscribe(4)

	require.NoError(t, h.Publish(context.Background(), Event{Event: EventStatus, Data: true}))
	require.NoError(t, h.Publish(context.Background(), Event{Event: EventStatus, Data: false}))

	assert.Len(t, slow.C, 1)
	assert.Len(t, fast.C, 2)
}

func TestHub_Unsubscribe(t *testing.T) {
	h := New(nil, "test:events", zerolog.Nop())
	s := h.Subscribe(1)
	h.Unsubscribe(s)
	h.Unsubscribe(s)

	_, open := <-s.C
	assert.False(t, open)
	require.NoError(t, h.Publish(context.Background(), Event{Event: EventFeed}))
}

func TestHub_ApplyRemoteMode(t *testing.T) {
	h := New(nil, "test:events", zerolog.Nop())
	h.apply([]byte(`{"event":"mode","data":1}`))
	assert.Equal(t, 1, h.Mode())

	h.apply([]byte(`{"event":"status","data":true}`))
	assert.Equal(t, 1, h.Mode())
}

func TestHub_RunWithoutRedisReturnsOnCancel(t *testing.T) {
	h := New(nil, "test:events", zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, h.Run(ctx))
}

func newRedisClient(t *testing.T, mr *miniredis.Miniredis) *redis.Client {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func TestHub_RunRelaysAcrossInstances(t *testing.T) {
	const channel = "test:events"
	mr := miniredis.RunT(t)

	a := New(newRedisClient(t, mr), channel, zerolog.Nop())
	b := New(newRedisClient(t, mr), channel, zerolog.Nop())
	sub := b.Subscribe(4)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	require.Eventually(t, func() bool {
		return mr.PubSubNumSub(channel)[channel] == 1
	}, 2*time.Second, 10*time.Millisecond)

	a.SwitchTo(1)

	select {
	case raw := <-sub.C:
		assert.JSONEq(t, `{"event":"mode","data":1}`, string(raw))
	case <-time.After(2 * time.Second):
		t.Fatal("mode event not relayed")
	}
	assert.Equal(t, 1, a.Mode())
	assert.Equal(t, 1, b.Mode())

	require.NoError(t, a.Publish(context.Background(), Event{Event: EventStatus, Data: map[string]bool{"connected": true}}))
	select {
	case raw := <-sub.C:
		assert.JSONEq(t, `{"event":"status","data":{"connected":true}}`, string(raw))
	case <-time.After(2 * time.Second):
		t.Fatal("status event not relayed")
	}
	assert.Equal(t, 1, b.Mode())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestHub_PublishFallsBackLocallyWhenRedisFails(t *testing.T) {
	mr := miniredis.RunT(t)
	h := New(newRedisClient(t, mr), "test:events", zerolog.Nop())
	sub := h.Subscribe(1)
	mr.Close()

	err := h.Publish(context.Background(), Event{Event: EventStatus, Data: false})
	assert.Error(t, err)
	require.Len(t, sub.C, 1)
	assert.JSONEq(t, `{"event":"status","data":false}`, string(<-sub.C))
}
