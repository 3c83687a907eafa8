package processor

import (
	"fmt"
	"strings"

	"github.com/cshum/vipsgen/vips"

	"github.com/sashko-guz/splitter/internal/geometry"
)

// vipsOutputFormats lists what encodeVips writes. BMP has no libvips saver without ImageMagick.
var vipsOutputFormats = []string{"jpeg", "png", "webp", "tiff", "gif"}

// VipsCropper crops through libvips. vips.Startup must have been called.
type VipsCropper struct{}

func NewVipsCropper() *VipsCropper {
	return &VipsCropper{}
}

func (p *VipsCropper) Name() string {
	return "vips"
}

func (p *VipsCropper) Dimensions(data []byte) (int, int, error) {
	img, err := vips.NewImageFromBuffer(data, vips.DefaultLoadOptions())
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load image: %w", err)
	}
	defer img.Close()

	return img.Width(), img.Height(), nil
}

func (p *VipsCropper) Load(data []byte) (Decoded, error) {
	opts := vips.DefaultLoadOptions()
	opts.Memory = true

	img, err := vips.NewImageFromBuffer(data, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	return &vipsImage{img: img}, nil
}

// vipsImage holds one decoded libvips image. Each crop works on a copy.
type vipsImage struct {
	img *vips.Image
}

func (d *vipsImage) Size() (int, int) {
	return d.img.Width(), d.img.Height()
}

func (d *vipsImage) Crop(rect geometry.Rectangle, opts EncodeOptions) ([]byte, error) {
	if err := checkBounds(rect, d.img.Width(), d.img.Height()); err != nil {
		return nil, err
	}

	region, err := d.img.Copy(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to copy image: %w", err)
	}
	defer region.Close()

	left, top, width, height := rect.Area()
	if err := region.ExtractArea(left, top, width, height); err != nil {
		return nil, fmt.Errorf("failed to crop image: %w", err)
	}

	return encodeVips(region, opts)
}

func (d *vipsImage) Close() {
	d.img.Close()
}

func encodeVips(img *vips.Image, opts EncodeOptions) ([]byte, error) {
	var result []byte
	var err error

	switch opts.Format {
	case "webp":
		result, err = img.WebpsaveBuffer(&vips.WebpsaveBufferOptions{
			Q:        opts.quality(),
			Lossless: opts.Lossless,
		})
	case "png":
		result, err = img.PngsaveBuffer(&vips.PngsaveBufferOptions{})
	case "jpeg", "jpg":
		result, err = img.JpegsaveBuffer(&vips.JpegsaveBufferOptions{
			Q: opts.quality(),
		})
	case "tiff":
		tiff := vips.DefaultTiffsaveBufferOptions()
		tiff.Compression = vips.TiffCompressionLzw
		result, err = img.TiffsaveBuffer(tiff)
	case "gif":
		result, err = img.GifsaveBuffer(vips.DefaultGifsaveBufferOptions())
	default:
		return nil, fmt.Errorf("%w: %s (vips backend exports %s)", ErrUnsupportedFormat, opts.Format, strings.Join(vipsOutputFormats, ", "))
	}

	if err != nil {
		return nil, fmt.Errorf("failed to export image: %w", err)
	}
	return result, nil
}
