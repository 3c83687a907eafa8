package processor

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/sashko-guz/splitter/internal/logger"
	"github.com/sashko-guz/splitter/internal/storage"
)

var proberLog = logger.For("Prober")

const defaultDimensionCacheSize = 1024

type size struct {
	width, height int
}

// Prober reads image dimensions through a storage, remembering them per key.
// Concurrent probes of one key share a single read.
type Prober struct {
	cropper Cropper
	storage storage.Storage
	cache   *lru.Cache[string, size]
	group   singleflight.Group
}

func NewProber(cropper Cropper, store storage.Storage, cacheSize int) (*Prober, error) {
	if cacheSize <= 0 {
		cacheSize = defaultDimensionCacheSize
	}
	cache, err := lru.New[string, size](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create dimension cache: %w", err)
	}
	return &Prober{cropper: cropper, storage: store, cache: cache}, nil
}

func (p *Prober) Dimensions(ctx context.Context, key string) (int, int, error) {
	if s, ok := p.cache.Get(key); ok {
		return s.width, s.height, nil
	}

	v, err, shared := p.group.Do(key, func() (any, error) {
		data, err := p.storage.GetObject(ctx, key)
		if err != nil {
			return nil, err
		}
		w, h, err := p.cropper.Dimensions(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		s := size{width: w, height: h}
		p.cache.Add(key, s)
		return s, nil
	})
	if err != nil {
		return 0, 0, err
	}

	s := v.(size)
	proberLog.Debugf("%s is %dx%d (shared=%v)", key, s.width, s.height, shared)
	return s.width, s.height, nil
}

// Forget drops the remembered size of key
func (p *Prober) Forget(key string) {
	p.cache.Remove(key)
}
