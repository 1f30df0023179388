package config

type CacheKeyStruct struct {
	prefix string
}

func NewCacheKeyStruct(prefix string) *CacheKeyStruct {
	return &CacheKeyStruct{prefix: prefix}
}

// FeedKey returns the cache key holding the last train feed received from the backend.
func (r *CacheKeyStruct) FeedKey() string {
	return r.prefix + ":feed"
}

// EventsChannel returns the Redis PubSub channel shared by console instances.
func (r *CacheKeyStruct) EventsChannel() string {
	return r.prefix + ":events"
}

var CacheKey = NewCacheKeyStruct("console")
