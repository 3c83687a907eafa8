package cache

import (
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"lukechampine.com/blake3"

	"github.com/sashko-guz/splitter/internal/logger"
)

var diskLog = logger.For("DiskCache")

const (
	cacheExt       = ".cache"
	defaultDiskTTL = 24 * time.Hour
)

// DiskCache stores entries as files named {blake3}_{expiresUnix}.cache in a
// two-level directory fan-out, so expiry is known without opening the file.
type DiskCache struct {
	basePath string
	MaxSize  int64 // bytes, 0 = unlimited
	TTL      time.Duration
	mu       sync.RWMutex
}

type PruneStats struct {
	Scanned int
	Kept    int
	Deleted int
	Freed   int64
	Size    int64 // bytes kept
}

type cacheFile struct {
	path      string
	size      int64
	expiresAt time.Time
}

// NewDiskCache opens (and creates) a cache directory and prunes it once.
// clearOnStartup removes every entry instead of only expired ones.
func NewDiskCache(basePath string, ttl time.Duration, clearOnStartup bool, maxSizeBytes int64) (*DiskCache, error) {
	if basePath == "" {
		return nil, fmt.Errorf("disk cache base path is required")
	}
	if ttl <= 0 {
		ttl = defaultDiskTTL
	}

	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache path: %w", err)
	}

	if err := os.MkdirAll(absPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	dc := &DiskCache{
		basePath: absPath,
		MaxSize:  maxSizeBytes,
		TTL:      ttl,
	}

	if clearOnStartup {
		diskLog.Infof("Clearing all cache files in %s", absPath)
		if err := dc.Clear(); err != nil {
			diskLog.Warnf("Error during startup cache clear: %v", err)
		}
	} else {
		stats := dc.Prune()
		diskLog.Debugf("Startup prune: scanned %d, deleted %d (%s), kept %d (%s)",
			stats.Scanned, stats.Deleted, formatBytes(stats.Freed), stats.Kept, formatBytes(stats.Size))
	}

	diskLog.Infof("Initialized: BasePath=%s, TTL=%v, MaxSize=%s", absPath, ttl, formatBytes(maxSizeBytes))
	return dc, nil
}

func (dc *DiskCache) Get(key string) ([]byte, error) {
	dc.mu.RLock()
	defer dc.mu.RUnlock()

	hash := hashKey(key)
	filePath, expiresAt, err := dc.findCacheFile(dc.dirFor(hash), hash)
	if err != nil {
		return nil, ErrCacheNotFound
	}

	if time.Now().After(expiresAt) {
		diskLog.Debugf("Entry expired for key: %s (at %s)", key, expiresAt.Format(time.RFC3339))
		return nil, ErrCacheNotFound
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}
	return data, nil
}

// Set replaces any previous entry for key
func (dc *DiskCache) Set(key string, data []byte) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	hash := hashKey(key)
	dir := dc.dirFor(hash)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory structure: %w", err)
	}

	if old, _, err := dc.findCacheFile(dir, hash); err == nil {
		os.Remove(old)
	}

	expiresAt := time.Now().Add(dc.TTL)
	filePath := filepath.Join(dir, fmt.Sprintf("%s_%d%s", hash, expiresAt.Unix(), cacheExt))

	tmpPath := filePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tmpPath, filePath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename cache file: %w", err)
	}

	diskLog.Debugf("Stored %s for key: %s (expires %s)", formatBytes(int64(len(data))), key, expiresAt.Format(time.RFC3339))
	return nil
}

func (dc *DiskCache) Delete(key string) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	hash := hashKey(key)
	filePath, _, err := dc.findCacheFile(dc.dirFor(hash), hash)
	if err != nil {
		return nil
	}
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete cache file: %w", err)
	}
	return nil
}

func (dc *DiskCache) Clear() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if err := os.RemoveAll(dc.basePath); err != nil {
		return fmt.Errorf("failed to remove cache directory: %w", err)
	}
	if err := os.MkdirAll(dc.basePath, 0755); err != nil {
		return fmt.Errorf("failed to recreate cache directory: %w", err)
	}
	return nil
}

// Prune deletes expired and unparseable entries, then evicts the entries
// closest to expiry until the cache fits MaxSize.
func (dc *DiskCache) Prune() PruneStats {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	now := time.Now()
	var stats PruneStats
	var valid []cacheFile

	err := filepath.WalkDir(dc.basePath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(p) != cacheExt {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		stats.Scanned++

		expiresAt, err := parseExpiration(d.Name())
		if err != nil || now.After(expiresAt) {
			if rmErr := os.Remove(p); rmErr == nil || os.IsNotExist(rmErr) {
				stats.Deleted++
				stats.Freed += info.Size()
			}
			return nil
		}

		valid = append(valid, cacheFile{path: p, size: info.Size(), expiresAt: expiresAt})
		stats.Size += info.Size()
		return nil
	})
	if err != nil {
		diskLog.Warnf("Error during prune walk: %v", err)
	}

	if dc.MaxSize > 0 && stats.Size > dc.MaxSize {
		sort.Slice(valid, func(i, j int) bool {
			return valid[i].expiresAt.Before(valid[j].expiresAt)
		})
		for len(valid) > 0 && stats.Size > dc.MaxSize {
			f := valid[0]
			valid = valid[1:]
			if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
				continue
			}
			stats.Deleted++
			stats.Freed += f.size
			stats.Size -= f.size
		}
	}
	stats.Kept = len(valid)

	dc.removeEmptyDirs()
	return stats
}

func hashKey(key string) string {
	sum := blake3.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// dirFor fans entries out nginx-style (levels=2:2) from the end of the hash
func (dc *DiskCache) dirFor(hash string) string {
	n := len(hash)
	return filepath.Join(dc.basePath, hash[n-2:], hash[n-4:n-2])
}

func (dc *DiskCache) findCacheFile(dir, hash string) (string, time.Time, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", time.Time{}, err
	}

	prefix := hash + "_"
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, cacheExt) {
			continue
		}
		expiresAt, err := parseExpiration(name)
		if err != nil {
			continue
		}
		return filepath.Join(dir, name), expiresAt, nil
	}
	return "", time.Time{}, ErrCacheNotFound
}

func parseExpiration(filename string) (time.Time, error) {
	name := strings.TrimSuffix(filename, cacheExt)
	i := strings.LastIndex(name, "_")
	if i == -1 {
		return time.Time{}, fmt.Errorf("invalid cache filename: %s", filename)
	}
	ts, err := strconv.ParseInt(name[i+1:], 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp in cache filename: %w", err)
	}
	return time.Unix(ts, 0), nil
}

// removeEmptyDirs drops empty fan-out directories left behind by deletions
func (dc *DiskCache) removeEmptyDirs() {
	level1, err := os.ReadDir(dc.basePath)
	if err != nil {
		return
	}
	for _, l1 := range level1 {
		if !l1.IsDir() {
			continue
		}
		l1Path := filepath.Join(dc.basePath, l1.Name())
		level2, err := os.ReadDir(l1Path)
		if err != nil {
			continue
		}
		for _, l2 := range level2 {
			if l2.IsDir() {
				// Remove fails on non-empty directories
				os.Remove(filepath.Join(l1Path, l2.Name()))
			}
		}
		os.Remove(l1Path)
	}
}
