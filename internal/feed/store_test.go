package feed

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFeedKey = "test:feed"

func newRedisStore(t *testing.T) (*miniredis.Miniredis, *redis.Client, *RedisStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb, NewRedisStore(rdb, testFeedKey)
}

func sampleTrain() Entry {
	return Entry{Key: "TRAIN1", Record: &Train{Fname: "Asha", Gender: "F", Place: "Pune-Goa", Class: "SL", Status: "Confirmed"}}
}

func TestRedisStore_LoadMissingKey(t *testing.T) {
	_, _, s := newRedisStore(t)

	entries, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRedisStore_SaveAndLoad(t *testing.T) {
	mr, _, s := newRedisStore(t)
	ctx := context.Background()

	want := []Entry{sampleTrain(), MessageEntry("ERROR", "ledger busy")}
	require.NoError(t, s.Save(ctx, want))

	raw, err := mr.Get(testFeedKey)
	require.NoError(t, err)
	assert.Contains(t, raw, `"Key":"TRAIN1"`)

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRedisStore_AppendFromTwoInstances(t *testing.T) {
	_, rdb, a := newRedisStore(t)
	b := NewRedisStore(rdb, testFeedKey)
	ctx := context.Background()

	require.NoError(t, a.Save(ctx, []Entry{sampleTrain()}))
	require.NoError(t, a.Append(ctx, MessageEntry("ERROR", "first")))
	require.NoError(t, b.Append(ctx, MessageEntry("ERROR", "second")))

	got, err := a.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Entry{sampleTrain(), MessageEntry("ERROR", "first"), MessageEntry("ERROR", "second")}, got)
}

func TestRedisStore_AppendToEmptyFeed(t *testing.T) {
	_, _, s := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, MessageEntry("ERROR", "no trains")))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Entry{MessageEntry("ERROR", "no trains")}, got)
}

func TestRedisStore_CorruptDocument(t *testing.T) {
	mr, _, s := newRedisStore(t)
	require.NoError(t, mr.Set(testFeedKey, "not json"))

	_, err := s.Load(context.Background())
	assert.ErrorContains(t, err, "decode feed")

	err = s.Append(context.Background(), MessageEntry("ERROR", "x"))
	assert.ErrorContains(t, err, "decode feed")
}

func TestRedisStore_Unavailable(t *testing.T) {
	mr, _, s := newRedisStore(t)
	mr.Close()

	_, err := s.Load(context.Background())
	assert.ErrorContains(t, err, "get feed")
	assert.ErrorContains(t, s.Save(context.Background(), nil), "set feed")
}
