package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/sashko-guz/splitter/internal/storage/drivers"
)

type StorageDriver string

const (
	DriverS3    StorageDriver = "s3"
	DriverLocal StorageDriver = "local"
)

// DefaultStorageName is used when no storage.json exists
const DefaultStorageName = "local"

type StorageItem struct {
	Name   string        `json:"name"`
	Driver StorageDriver `json:"driver"`

	Cache *StorageCacheConfig `json:"cache,omitempty"`

	// S3 specific fields
	Bucket    string `json:"bucket,omitempty"`
	Region    string `json:"region,omitempty"`
	AccessKey string `json:"access_key,omitempty"`
	SecretKey string `json:"secret_key,omitempty"`
	BaseURL   string `json:"base_url,omitempty"` // Custom endpoint for S3-compatible storage
	Prefix    string `json:"prefix,omitempty"`

	S3HTTPConfig *drivers.S3HTTPConfig `json:"s3_http_config,omitempty"`

	// Local specific fields. An empty root accepts any filesystem path.
	Root string `json:"root,omitempty"`
}

// MemoryCacheOptions configures the in-memory layer for source reads
type MemoryCacheOptions struct {
	Enabled   *bool `json:"enabled,omitempty"`
	MaxSizeMB int   `json:"max_size_mb,omitempty"`
	MaxItems  int   `json:"max_items,omitempty"`
}

// DiskCacheOptions configures the on-disk layer for source reads
type DiskCacheOptions struct {
	Enabled        *bool  `json:"enabled,omitempty"`
	TTLSeconds     int    `json:"ttl_seconds,omitempty"`
	MaxSizeMB      int    `json:"max_size_mb,omitempty"` // 0 = unlimited
	Dir            string `json:"dir,omitempty"`
	ClearOnStartup *bool  `json:"clear_on_startup,omitempty"`
}

type StorageCacheConfig struct {
	Memory *MemoryCacheOptions `json:"memory,omitempty"`
	Disk   *DiskCacheOptions   `json:"disk,omitempty"`
}

func (c *StorageCacheConfig) memoryEnabled() bool {
	return c != nil && c.Memory != nil && c.Memory.Enabled != nil && *c.Memory.Enabled && c.Memory.MaxSizeMB > 0
}

func (c *StorageCacheConfig) diskEnabled() bool {
	return c != nil && c.Disk != nil && c.Disk.Enabled != nil && *c.Disk.Enabled
}

// StorageConfig is the contents of storage.json. Source names the storage images are
// read from and Output the one cropped files are written to.
type StorageConfig struct {
	Storages []StorageItem `json:"storages"`
	Source   string        `json:"source,omitempty"`
	Output   string        `json:"output,omitempty"`
}

// DefaultStorageConfig reads and writes plain filesystem paths
func DefaultStorageConfig() *StorageConfig {
	return &StorageConfig{
		Storages: []StorageItem{{Name: DefaultStorageName, Driver: DriverLocal}},
		Source:   DefaultStorageName,
		Output:   DefaultStorageName,
	}
}

// LoadStorageConfig reads configPath. A missing file yields DefaultStorageConfig.
func LoadStorageConfig(configPath string) (*StorageConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			storageLog.Debugf("No config at %s, using local filesystem", configPath)
			return DefaultStorageConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config StorageConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks names are unique and that Source and Output refer to configured
// storages. Empty Source or Output fall back to the first storage.
func (c *StorageConfig) Validate() error {
	if len(c.Storages) == 0 {
		return fmt.Errorf("no storages configured")
	}

	seen := make(map[string]bool, len(c.Storages))
	for _, item := range c.Storages {
		if item.Name == "" {
			return fmt.Errorf("storage with driver '%s' has no name", item.Driver)
		}
		if seen[item.Name] {
			return fmt.Errorf("duplicate storage name '%s'", item.Name)
		}
		seen[item.Name] = true
	}

	if c.Source == "" {
		c.Source = c.Storages[0].Name
	}
	if c.Output == "" {
		c.Output = c.Storages[0].Name
	}
	if !seen[c.Source] {
		return fmt.Errorf("source storage '%s' is not configured", c.Source)
	}
	if !seen[c.Output] {
		return fmt.Errorf("output storage '%s' is not configured", c.Output)
	}
	return nil
}
