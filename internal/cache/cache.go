package cache

import (
	"errors"
	"fmt"
)

// ErrCacheNotFound is returned on a miss or an expired entry
var ErrCacheNotFound = errors.New("cache entry not found")

// formatBytes converts bytes to human-readable format
func formatBytes(bytes int64) string {
	if bytes <= 0 {
		return "0"
	}
	units := []string{"B", "KB", "MB", "GB"}
	size := float64(bytes)
	unitIndex := 0
	for size >= 1024 && unitIndex < len(units)-1 {
		size /= 1024
		unitIndex++
	}
	return fmt.Sprintf("%.2f%s", size, units[unitIndex])
}
