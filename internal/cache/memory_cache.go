package cache

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/sashko-guz/splitter/internal/logger"
)

// MemoryCache keeps encoded source bytes in memory, bounded by their total size
type MemoryCache struct {
	cache *ristretto.Cache
	log   logger.Scope
	ttl   time.Duration
}

type MemoryCacheConfig struct {
	Name     string        // used in log lines
	MaxSize  int64         // bytes
	MaxItems int64         // expected entry count, sizes the admission counters
	TTL      time.Duration // 0 keeps entries until evicted
}

func NewMemoryCache(cfg MemoryCacheConfig) (*MemoryCache, error) {
	if cfg.MaxSize <= 0 {
		return nil, fmt.Errorf("MaxSize must be specified for memory cache")
	}

	if cfg.MaxItems <= 0 {
		// source images average a few MB
		cfg.MaxItems = cfg.MaxSize / (4 << 20)
		if cfg.MaxItems < 16 {
			cfg.MaxItems = 16
		}
	}

	log := logger.For("MemoryCache").With(cfg.Name)
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.MaxItems * 10,
		MaxCost:     cfg.MaxSize,
		BufferItems: 64,
		OnEvict: func(item *ristretto.Item) {
			log.Debugf("Evicted item (cost: %s)", formatBytes(item.Cost))
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ristretto cache: %w", err)
	}

	log.Infof("Initialized: MaxSize=%s, MaxItems=%d", formatBytes(cfg.MaxSize), cfg.MaxItems)

	return &MemoryCache{cache: c, log: log, ttl: cfg.TTL}, nil
}

func (mc *MemoryCache) Get(key string) ([]byte, bool) {
	value, found := mc.cache.Get(key)
	if !found {
		return nil, false
	}

	data, ok := value.([]byte)
	if !ok {
		mc.log.Warnf("Invalid data type for key: %s", key)
		return nil, false
	}
	return data, true
}

// Set stores data with a cost equal to its length. Writes are buffered,
// so an entry becomes visible once Wait returns.
func (mc *MemoryCache) Set(key string, data []byte) bool {
	var ok bool
	if mc.ttl > 0 {
		ok = mc.cache.SetWithTTL(key, data, int64(len(data)), mc.ttl)
	} else {
		ok = mc.cache.Set(key, data, int64(len(data)))
	}
	if !ok {
		mc.log.Debugf("Set rejected for key: %s", key)
	}
	return ok
}

func (mc *MemoryCache) Delete(key string) {
	mc.cache.Del(key)
}

func (mc *MemoryCache) Clear() {
	mc.cache.Clear()
}

// Wait blocks until buffered writes are applied
func (mc *MemoryCache) Wait() {
	mc.cache.Wait()
}

func (mc *MemoryCache) Close() {
	mc.cache.Close()
	mc.log.Debugf("Closed")
}
