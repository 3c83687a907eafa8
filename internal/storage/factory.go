package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sashko-guz/splitter/internal/cache"
	"github.com/sashko-guz/splitter/internal/logger"
	"github.com/sashko-guz/splitter/internal/storage/drivers"
)

var storageLog = logger.For("Storage")

const defaultCacheTTL = 24 * time.Hour

// NewStorage creates a driver for cfg with its configured cache layers applied
func NewStorage(ctx context.Context, cfg StorageItem) (Storage, error) {
	baseStorage, err := createBaseStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	logParts := []string{fmt.Sprintf("driver: %s", cfg.Driver)}

	if !cfg.Cache.memoryEnabled() && !cfg.Cache.diskEnabled() {
		storageLog.With(cfg.Name).Infof("Initialized (%s)", strings.Join(logParts, ", "))
		return baseStorage, nil
	}

	var cacheInfo []string
	if cfg.Cache.memoryEnabled() {
		cacheInfo = append(cacheInfo, fmt.Sprintf("memory: %dMB", cfg.Cache.Memory.MaxSizeMB))
	}
	if cfg.Cache.diskEnabled() {
		cacheInfo = append(cacheInfo, "disk: "+cfg.Cache.Disk.Dir)
	}
	logParts = append(logParts, fmt.Sprintf("cache: %s", strings.Join(cacheInfo, ", ")))

	cachedStorage, err := wrapWithCache(baseStorage, cfg)
	if err != nil {
		return nil, err
	}

	storageLog.With(cfg.Name).Infof("Initialized (%s)", strings.Join(logParts, ", "))
	return cachedStorage, nil
}

func createBaseStorage(ctx context.Context, cfg StorageItem) (Storage, error) {
	switch cfg.Driver {
	case DriverS3:
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("storage '%s': bucket is required for S3 driver", cfg.Name)
		}
		// S3-compatible endpoints do not go through the AWS credential chain
		if cfg.BaseURL != "" && (cfg.AccessKey == "" || cfg.SecretKey == "") {
			return nil, fmt.Errorf("storage '%s': access_key and secret_key are required when using base_url for S3-compatible storage", cfg.Name)
		}
		client, err := drivers.NewS3Client(ctx, drivers.S3Options{
			Region:    cfg.Region,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Bucket:    cfg.Bucket,
			BaseURL:   cfg.BaseURL,
			Prefix:    cfg.Prefix,
			HTTP:      cfg.S3HTTPConfig,
		})
		if err != nil {
			return nil, fmt.Errorf("storage '%s': failed to initialize S3: %w", cfg.Name, err)
		}
		return client, nil

	case DriverLocal:
		local, err := drivers.NewLocalStorage(cfg.Root)
		if err != nil {
			return nil, fmt.Errorf("storage '%s': failed to initialize local storage: %w", cfg.Name, err)
		}
		return local, nil

	default:
		return nil, fmt.Errorf("storage '%s': unknown driver '%s'", cfg.Name, cfg.Driver)
	}
}

func wrapWithCache(baseStorage Storage, cfg StorageItem) (*CachedStorage, error) {
	cs := &CachedStorage{
		underlying: baseStorage,
		name:       cfg.Name,
		log:        logger.For("CachedStorage").With(cfg.Name),
	}

	ttl := defaultCacheTTL
	if cfg.Cache.Disk != nil && cfg.Cache.Disk.TTLSeconds > 0 {
		ttl = time.Duration(cfg.Cache.Disk.TTLSeconds) * time.Second
	}

	if cfg.Cache.memoryEnabled() {
		memCache, err := cache.NewMemoryCache(cache.MemoryCacheConfig{
			Name:     cfg.Name,
			MaxSize:  int64(cfg.Cache.Memory.MaxSizeMB) << 20,
			MaxItems: int64(cfg.Cache.Memory.MaxItems),
		})
		if err != nil {
			cs.log.Warnf("Failed to init memory cache: %v", err)
		} else {
			cs.memoryCache = memCache
		}
	}

	if cfg.Cache.diskEnabled() {
		if cfg.Cache.Disk.Dir == "" {
			return nil, fmt.Errorf("storage '%s': cache dir is required when disk cache is enabled", cfg.Name)
		}

		clearOnStartup := cfg.Cache.Disk.ClearOnStartup != nil && *cfg.Cache.Disk.ClearOnStartup
		diskCache, err := cache.NewDiskCache(cfg.Cache.Disk.Dir, ttl, clearOnStartup, int64(cfg.Cache.Disk.MaxSizeMB)<<20)
		if err != nil {
			return nil, fmt.Errorf("storage '%s': failed to create disk cache: %w", cfg.Name, err)
		}
		cs.diskCache = diskCache
	}

	return cs, nil
}

// InitializeStorages creates every configured storage, keyed by name
func InitializeStorages(ctx context.Context, config *StorageConfig) (map[string]Storage, error) {
	if len(config.Storages) == 0 {
		return nil, fmt.Errorf("no storages configured")
	}

	storageLog.Debugf("Initializing %d storage(s)", len(config.Storages))

	storages := make(map[string]Storage, len(config.Storages))
	for _, cfg := range config.Storages {
		store, err := NewStorage(ctx, cfg)
		if err != nil {
			CloseAll(storages)
			return nil, err
		}
		storages[cfg.Name] = store
	}
	return storages, nil
}

// Pick returns the named storage
func Pick(storages map[string]Storage, name string) (Storage, error) {
	store, ok := storages[name]
	if !ok {
		return nil, fmt.Errorf("storage '%s' is not configured", name)
	}
	return store, nil
}

// ClearCaches empties the cache layers of every cached storage
func ClearCaches(storages map[string]Storage) error {
	var errs []error
	for name, store := range storages {
		if cs, ok := store.(*CachedStorage); ok {
			if err := cs.ClearCache(); err != nil {
				errs = append(errs, fmt.Errorf("storage '%s': %w", name, err))
				continue
			}
			storageLog.Infof("Cleared cache of '%s'", name)
		}
	}
	return errors.Join(errs...)
}

// CloseAll closes every storage holding resources
func CloseAll(storages map[string]Storage) error {
	var errs []error
	for name, store := range storages {
		if c, ok := store.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("storage '%s': %w", name, err))
			}
		}
	}
	return errors.Join(errs...)
}
