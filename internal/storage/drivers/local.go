package drivers

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sashko-guz/splitter/internal/logger"
)

var localLog = logger.For("LocalStorage")

// LocalStorage reads and writes files on the local filesystem.
// With a base path, keys are confined to that directory. Without one, keys are plain
// filesystem paths, which is what the command line hands over.
type LocalStorage struct {
	basePath string
}

func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if basePath == "" {
		localLog.Debugf("Initializing unrestricted local storage")
		return &LocalStorage{}, nil
	}

	localLog.Infof("Initializing local storage with base path: %s", basePath)

	absBasePath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base path: %w", err)
	}

	if err := os.MkdirAll(absBasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStorage{
		basePath: absBasePath,
	}, nil
}

// resolve maps a key onto an absolute filesystem path
func (l *LocalStorage) resolve(key string) (string, error) {
	if l.basePath == "" {
		return filepath.Abs(filepath.FromSlash(key))
	}

	cleanPath := filepath.Clean(filepath.FromSlash(key))

	if filepath.IsAbs(cleanPath) || strings.HasPrefix(cleanPath, "..") {
		return "", fmt.Errorf("invalid path: absolute paths and parent references not allowed")
	}

	absFullPath, err := filepath.Abs(filepath.Join(l.basePath, cleanPath))
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	basePathWithSep := l.basePath
	if !strings.HasSuffix(basePathWithSep, string(filepath.Separator)) {
		basePathWithSep += string(filepath.Separator)
	}

	if !strings.HasPrefix(absFullPath, basePathWithSep) && absFullPath != l.basePath {
		return "", fmt.Errorf("invalid path: directory traversal detected")
	}

	return absFullPath, nil
}

func (l *LocalStorage) GetObject(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	absFullPath, err := l.resolve(key)
	if err != nil {
		return nil, err
	}

	// Check if file exists and is accessible
	fileInfo, err := os.Stat(absFullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			localLog.Debugf("file not found: %s", absFullPath)
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		if errors.Is(err, fs.ErrPermission) {
			localLog.Warnf("permission denied: %s", absFullPath)
			return nil, fmt.Errorf("permission denied for file: %s", key)
		}
		return nil, fmt.Errorf("failed to access file %s: %w", key, err)
	}

	// Ensure it's a regular file, not a directory
	if fileInfo.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", key)
	}

	data, err := os.ReadFile(absFullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", key, err)
	}

	return data, nil
}

// PutObject writes data to key. The parent directory must already exist.
// The file is written under a temporary name and renamed into place.
func (l *LocalStorage) PutObject(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	absFullPath, err := l.resolve(key)
	if err != nil {
		return err
	}

	dir := filepath.Dir(absFullPath)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("output directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output directory %s is not a directory", dir)
	}

	tmpPath := absFullPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", key, err)
	}

	if err := os.Rename(tmpPath, absFullPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename file %s: %w", key, err)
	}

	localLog.Debugf("wrote %s (%d bytes)", absFullPath, len(data))
	return nil
}
