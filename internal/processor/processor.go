package processor

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/sashko-guz/splitter/internal/geometry"
)

var (
	ErrEmptySelection    = errors.New("selection covers no pixels")
	ErrOutOfBounds       = errors.New("selection outside image bounds")
	ErrUnsupportedFormat = errors.New("unsupported output format")
	ErrUnknownBackend    = errors.New("unknown processor backend")
)

const defaultQuality = 90

var supportedOutputFormat = []string{"jpeg", "png", "webp", "gif", "tiff", "bmp"}

// Cropper decodes source image bytes, reports their size and extracts regions.
// Implementations must be safe for concurrent use.
type Cropper interface {
	// Dimensions returns the pixel size of the encoded image
	Dimensions(data []byte) (width, height int, err error)

	// Load decodes data once. Any number of regions can then be cropped from the result.
	Load(data []byte) (Decoded, error)

	// Name identifies the backend in logs
	Name() string
}

// Decoded is an image held in decoded form. Crop is safe for concurrent use.
// Close releases the pixels; the image must not be cropped afterwards.
type Decoded interface {
	Size() (width, height int)

	// Crop extracts rect and returns it encoded per opts
	Crop(rect geometry.Rectangle, opts EncodeOptions) ([]byte, error)

	Close()
}

// EncodeOptions controls output encoding
type EncodeOptions struct {
	Format   string // jpeg, png, webp, gif, tiff, bmp
	Quality  int    // 1-100, JPEG and WebP only
	Lossless bool   // WebP only
}

func (o EncodeOptions) quality() int {
	if o.Quality < 1 || o.Quality > 100 {
		return defaultQuality
	}
	return o.Quality
}

// FormatFromPath detects the output format from a file extension.
// Returns "" when the extension is not a known image type.
func FormatFromPath(p string) string {
	switch strings.ToLower(path.Ext(p)) {
	case ".jpg", ".jpeg", ".jpe":
		return "jpeg"
	case ".png":
		return "png"
	case ".webp":
		return "webp"
	case ".gif":
		return "gif"
	case ".tif", ".tiff":
		return "tiff"
	case ".bmp":
		return "bmp"
	default:
		return ""
	}
}

// ValidateFormat reports whether format is one of the supported output formats
func ValidateFormat(format string) error {
	for _, f := range supportedOutputFormat {
		if f == format {
			return nil
		}
	}
	return fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedFormat, format, strings.Join(supportedOutputFormat, ", "))
}

// checkBounds rejects rectangles a cropper cannot extract from a width x height image
func checkBounds(rect geometry.Rectangle, width, height int) error {
	if rect.Empty() {
		return fmt.Errorf("%w: %s", ErrEmptySelection, rect)
	}
	if !rect.Within(geometry.Rect(0, 0, width, height)) {
		return fmt.Errorf("%w: image is %dx%d, selection is %s", ErrOutOfBounds, width, height, rect)
	}
	return nil
}

// New returns the cropper for a backend name
func New(backend string) (Cropper, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "vips", "libvips":
		return NewVipsCropper(), nil
	case "imaging", "go", "":
		return NewImagingCropper(), nil
	default:
		return nil, fmt.Errorf("%w: %s (use 'vips' or 'imaging')", ErrUnknownBackend, backend)
	}
}
