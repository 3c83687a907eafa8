package model

import (
	"context"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/sashko-guz/splitter/internal/geometry"
	"github.com/sashko-guz/splitter/internal/logger"
	"github.com/sashko-guz/splitter/internal/preset"
)

var imageLog = logger.For("Image")

// DimensionProber reports the pixel size of a stored image
type DimensionProber interface {
	Dimensions(ctx context.Context, key string) (width, height int, err error)
}

// Exporter decodes a stored image for writing
type Exporter interface {
	Load(ctx context.Context, key string) (Source, error)
}

// Source is a decoded image that cropped regions are written from.
// Close releases its pixel data.
type Source interface {
	Write(ctx context.Context, rect geometry.Rectangle, key string) error
	Close()
}

// ProgressFunc receives (done, total) steps. Each selection takes two steps,
// one when its region is cropped and one when it is stored.
type ProgressFunc func(done, total int)

// FileError is a failed write of one selection
type FileError struct {
	Index int
	Path  string
	Err   error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Report is the result of a WriteOutput call
type Report struct {
	Image   ImageID
	Written []string
	Failed  []*FileError
}

// Image is an opened source file and its ordered selections. The position of a
// selection in that order, starting at 1, numbers its output file.
// An Image is not safe for concurrent mutation.
type Image struct {
	ID   ImageID
	Path string

	outputDir  string
	prober     DimensionProber
	width      int
	height     int
	sized      bool
	selections []Selection
	nextID     SelectionID
	progress   ProgressFunc
}

// NewImage creates an image record for a storage key. Output goes next to the
// source until SetOutputDir is called.
func NewImage(id ImageID, key string, prober DimensionProber) *Image {
	return &Image{
		ID:        id,
		Path:      key,
		outputDir: path.Dir(key),
		prober:    prober,
	}
}

func (img *Image) OutputDir() string {
	return img.outputDir
}

func (img *Image) SetOutputDir(dir string) {
	img.outputDir = dir
}

// OnProgress registers a callback for WriteOutput progress
func (img *Image) OnProgress(fn ProgressFunc) {
	img.progress = fn
}

// Size returns the image dimensions, probing them on first use
func (img *Image) Size(ctx context.Context) (int, int, error) {
	if img.sized {
		return img.width, img.height, nil
	}
	if img.prober == nil {
		return 0, 0, fmt.Errorf("%s: no dimension prober", img.Path)
	}

	w, h, err := img.prober.Dimensions(ctx, img.Path)
	if err != nil {
		return 0, 0, err
	}
	img.width, img.height, img.sized = w, h, true
	return w, h, nil
}

// AddSelection appends rect as the last selection
func (img *Image) AddSelection(rect geometry.Rectangle) Selection {
	img.nextID++
	sel := Selection{ID: img.nextID, Owner: img.ID, Rect: rect}
	img.selections = append(img.selections, sel)
	return sel
}

// AddPreset resolves p against the image size and appends the result
func (img *Image) AddPreset(ctx context.Context, p preset.Preset) (Selection, error) {
	w, h, err := img.Size(ctx)
	if err != nil {
		return Selection{}, err
	}
	rect, err := p.Resolve(w, h)
	if err != nil {
		return Selection{}, fmt.Errorf("preset %q on %s: %w", p, img.Path, err)
	}
	return img.AddSelection(rect), nil
}

// Selections returns a copy of the selections in output order
func (img *Image) Selections() []Selection {
	return slices.Clone(img.selections)
}

func (img *Image) SelectionCount() int {
	return len(img.selections)
}

// IndexOf returns the 1-based position of sel, or 0 when it does not belong to img
func (img *Image) IndexOf(sel Selection) int {
	if sel.Owner != img.ID {
		return 0
	}
	i := slices.IndexFunc(img.selections, func(s Selection) bool { return s.ID == sel.ID })
	return i + 1
}

// RemoveSelection removes sel. Later selections move up one position.
func (img *Image) RemoveSelection(sel Selection) error {
	index := img.IndexOf(sel)
	if index == 0 {
		return fmt.Errorf("%w: %s in %s", ErrSelectionNotFound, sel, img.Path)
	}
	img.selections = slices.Delete(img.selections, index-1, index)
	return nil
}

// RemoveSelectionAt removes the selection at a 1-based position, the same
// numbering OutputName uses. Position 1 is the first selection, not 0.
func (img *Image) RemoveSelectionAt(index int) (Selection, error) {
	if index < 1 || index > len(img.selections) {
		return Selection{}, fmt.Errorf("%w: %d (image has %d)", ErrIndexOutOfRange, index, len(img.selections))
	}
	sel := img.selections[index-1]
	img.selections = slices.Delete(img.selections, index-1, index)
	return sel, nil
}

// OutputName is the file name of the selection at a 1-based position:
// "{stem}_{index:05}{suffix}" of the source file name.
func (img *Image) OutputName(index int) string {
	stem, suffix := splitName(path.Base(img.Path))
	return fmt.Sprintf("%s_%05d%s", stem, index, suffix)
}

// OutputPath joins OutputName with the output directory
func (img *Image) OutputPath(index int) string {
	name := img.OutputName(index)
	if img.outputDir == "" || img.outputDir == "." {
		return name
	}
	return path.Join(img.outputDir, name)
}

// splitName splits a file name into stem and final suffix. A leading dot
// does not start a suffix.
func splitName(name string) (string, string) {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return name, ""
	}
	return name[:i], name[i:]
}

// WriteOutput crops and stores every selection in order. The source is decoded
// once and released before returning. A failed file is recorded and the
// remaining selections are still written. Cancellation of ctx is observed
// between files. With no selections, nothing is read and ErrNoSelections is
// returned.
func (img *Image) WriteOutput(ctx context.Context, exp Exporter) (Report, error) {
	report := Report{Image: img.ID}

	if len(img.selections) == 0 {
		imageLog.Warnf("%s has no selections, nothing to write", img.Path)
		return report, fmt.Errorf("%s: %w", img.Path, ErrNoSelections)
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}

	source, err := exp.Load(ctx, img.Path)
	if err != nil {
		return report, fmt.Errorf("failed to load %s: %w", img.Path, err)
	}
	defer source.Close()

	total := 2 * len(img.selections)
	img.reportProgress(0, total)

	var errs []error
	for i, sel := range img.selections {
		if err := ctx.Err(); err != nil {
			imageLog.Infof("%s: export cancelled after %d of %d files", img.Path, i, len(img.selections))
			errs = append(errs, err)
			break
		}

		index := i + 1
		target := img.OutputPath(index)
		img.reportProgress(2*index-1, total)

		if err := source.Write(ctx, sel.Rect, target); err != nil {
			fe := &FileError{Index: index, Path: target, Err: err}
			imageLog.Errorf("Failed to write %s: %v", target, err)
			report.Failed = append(report.Failed, fe)
			errs = append(errs, fe)
		} else {
			imageLog.Debugf("Wrote %s %s", target, sel.Rect)
			report.Written = append(report.Written, target)
		}
		img.reportProgress(2*index, total)
	}

	return report, errors.Join(errs...)
}

func (img *Image) reportProgress(done, total int) {
	if img.progress != nil {
		img.progress(done, total)
	}
}

func (img *Image) String() string {
	return fmt.Sprintf("Image(%s, selections=%d, output=%s)", img.Path, len(img.selections), img.outputDir)
}
