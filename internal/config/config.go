package config

import (
	"os"
	"runtime"
	"strconv"
	"strings"
)

type Config struct {
	LogLevel           string
	StorageConfigPath  string
	SourceStorage      string // overrides storage.json "source"
	OutputStorage      string // overrides storage.json "output"
	ProcessorBackend   string
	VipsConcurrency    int
	OutputQuality      int
	OutputLossless     bool
	Workers            int
	DimensionCacheSize int
}

func Load() *Config {
	return &Config{
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		StorageConfigPath:  getEnv("STORAGE_CONFIG_PATH", "./storage.json"),
		SourceStorage:      getEnv("SOURCE_STORAGE", ""),
		OutputStorage:      getEnv("OUTPUT_STORAGE", ""),
		ProcessorBackend:   strings.ToLower(getEnv("PROCESSOR_BACKEND", "imaging")),
		VipsConcurrency:    getEnvInt("VIPS_CONCURRENCY", runtime.NumCPU()),
		OutputQuality:      clamp(getEnvInt("OUTPUT_QUALITY", 90), 1, 100),
		OutputLossless:     getEnvBool("OUTPUT_LOSSLESS", false),
		Workers:            getEnvInt("WORKERS", defaultWorkers()),
		DimensionCacheSize: getEnvInt("DIMENSION_CACHE_SIZE", 1024),
	}
}

func defaultWorkers() int {
	return min(2*runtime.NumCPU(), 8)
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return defaultValue
	}

	return parsed
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
