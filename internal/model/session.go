package model

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/sashko-guz/splitter/internal/logger"
	"github.com/sashko-guz/splitter/internal/preset"
)

var sessionLog = logger.For("Session")

// Session owns every open Image and the presets applied to each newly opened
// one. Images are stored in an arena keyed by ImageID. Session methods are safe
// for concurrent use. Methods that touch one image, such as Close, must not
// run concurrently for the same image.
type Session struct {
	prober   DimensionProber
	exporter Exporter

	mu        sync.RWMutex
	presets   []preset.Preset
	images    map[ImageID]*Image
	order     []ImageID
	nextID    ImageID
	outputDir string
}

func NewSession(prober DimensionProber, exporter Exporter, presets ...preset.Preset) *Session {
	return &Session{
		prober:   prober,
		exporter: exporter,
		presets:  slices.Clone(presets),
		images:   make(map[ImageID]*Image),
	}
}

// Presets returns the presets applied on Open
func (s *Session) Presets() []preset.Preset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.presets)
}

// SetOutputDir sets the output directory of images opened afterwards.
// An empty dir keeps output next to each source.
func (s *Session) SetOutputDir(dir string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outputDir = dir
}

// Open probes key and applies every preset to it. An image that cannot be
// read is not added.
func (s *Session) Open(ctx context.Context, key string) (*Image, error) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	presets := s.presets
	outputDir := s.outputDir
	s.mu.Unlock()

	img := NewImage(id, key, s.prober)
	if outputDir != "" {
		img.SetOutputDir(outputDir)
	}

	w, h, err := img.Size(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", key, err)
	}

	for _, p := range presets {
		if _, err := img.AddPreset(ctx, p); err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", key, err)
		}
	}

	s.mu.Lock()
	s.images[id] = img
	s.order = append(s.order, id)
	s.mu.Unlock()

	sessionLog.Infof("Opened %s (%dx%d, %d selections)", key, w, h, img.SelectionCount())
	return img, nil
}

// OpenAll opens every key in order. Keys that fail are skipped and their
// errors joined.
func (s *Session) OpenAll(ctx context.Context, keys []string) ([]*Image, error) {
	var opened []*Image
	var errs []error
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		img, err := s.Open(ctx, key)
		if err != nil {
			sessionLog.Errorf("%v", err)
			errs = append(errs, err)
			continue
		}
		opened = append(opened, img)
	}
	return opened, errors.Join(errs...)
}

// Image looks up an open image
func (s *Session) Image(id ImageID) (*Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	img, ok := s.images[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrImageNotFound, id)
	}
	return img, nil
}

// Owner returns the image a selection belongs to
func (s *Session) Owner(sel Selection) (*Image, error) {
	img, err := s.Image(sel.Owner)
	if err != nil {
		return nil, err
	}
	if img.IndexOf(sel) == 0 {
		return nil, fmt.Errorf("%w: %s in %s", ErrSelectionNotFound, sel, img.Path)
	}
	return img, nil
}

// Images returns open images in the order they were opened
func (s *Session) Images() []*Image {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Image, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.images[id])
	}
	return out
}

func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Close removes an image from the session, first writing its selections when
// save is set. The image is closed even when some writes fail. An image
// without selections closes without error.
func (s *Session) Close(ctx context.Context, id ImageID, save bool) (Report, error) {
	img, err := s.Image(id)
	if err != nil {
		return Report{Image: id}, err
	}

	report := Report{Image: id}
	if save {
		report, err = img.WriteOutput(ctx, s.exporter)
		if errors.Is(err, ErrNoSelections) {
			err = nil
		}
		if err != nil && ctx.Err() != nil {
			// a cancelled image stays open
			return report, err
		}
	}

	s.remove(id)
	sessionLog.Debugf("Closed %s", img.Path)
	return report, err
}

// SaveAndCloseAll writes and closes every image in order. When ctx is
// cancelled it stops before the next file; images not yet closed stay open.
func (s *Session) SaveAndCloseAll(ctx context.Context) ([]Report, error) {
	var reports []Report
	var errs []error

	for _, img := range s.Images() {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		report, err := s.Close(ctx, img.ID, true)
		reports = append(reports, report)
		if err != nil {
			errs = append(errs, err)
			if ctx.Err() != nil {
				break
			}
		}
	}
	return reports, errors.Join(errs...)
}

func (s *Session) remove(id ImageID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.images, id)
	if i := slices.Index(s.order, id); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
}
