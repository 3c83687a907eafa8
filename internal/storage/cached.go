package storage

import (
	"context"

	"github.com/sashko-guz/splitter/internal/cache"
	"github.com/sashko-guz/splitter/internal/logger"
)

// CachedStorage serves source reads through a memory layer and a disk layer
// in front of the underlying driver. Either layer may be nil. Writes go
// straight to the driver and drop any cached copy of the key.
type CachedStorage struct {
	underlying  Storage
	name        string
	log         logger.Scope
	diskCache   *cache.DiskCache
	memoryCache *cache.MemoryCache
}

func (cs *CachedStorage) GetObject(ctx context.Context, key string) ([]byte, error) {
	cacheKey := cs.name + ":" + key

	if cs.memoryCache != nil {
		if data, found := cs.memoryCache.Get(cacheKey); found {
			cs.log.Debugf("Memory cache HIT for key: %s", key)
			return data, nil
		}
	}

	if cs.diskCache != nil {
		if data, err := cs.diskCache.Get(cacheKey); err == nil {
			cs.log.Debugf("Disk cache HIT for key: %s", key)
			if cs.memoryCache != nil {
				cs.memoryCache.Set(cacheKey, data)
			}
			return data, nil
		}
	}

	cs.log.Debugf("Cache miss, fetching from underlying storage: %s", key)
	data, err := cs.underlying.GetObject(ctx, key)
	if err != nil {
		return nil, err
	}

	if cs.memoryCache != nil {
		cs.memoryCache.Set(cacheKey, data)
	}
	if cs.diskCache != nil {
		if err := cs.diskCache.Set(cacheKey, data); err != nil {
			cs.log.Warnf("Error writing to disk cache: %v", err)
		}
	}

	return data, nil
}

func (cs *CachedStorage) PutObject(ctx context.Context, key string, data []byte) error {
	if err := cs.underlying.PutObject(ctx, key, data); err != nil {
		return err
	}

	cacheKey := cs.name + ":" + key
	if cs.memoryCache != nil {
		cs.memoryCache.Delete(cacheKey)
	}
	if cs.diskCache != nil {
		if err := cs.diskCache.Delete(cacheKey); err != nil {
			cs.log.Warnf("Error invalidating disk cache: %v", err)
		}
	}
	return nil
}

// ClearCache drops every cached entry
func (cs *CachedStorage) ClearCache() error {
	if cs.memoryCache != nil {
		cs.memoryCache.Clear()
	}
	if cs.diskCache != nil {
		return cs.diskCache.Clear()
	}
	return nil
}

// Close releases cache resources
func (cs *CachedStorage) Close() error {
	if cs.memoryCache != nil {
		cs.memoryCache.Wait()
		cs.memoryCache.Close()
	}
	return nil
}
