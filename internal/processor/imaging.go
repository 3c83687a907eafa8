package processor

import (
	"bytes"
	"fmt"
	"image"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/sashko-guz/splitter/internal/geometry"
)

// ImagingCropper crops in pure Go using disintegration/imaging, with chai2010/webp for WebP output
type ImagingCropper struct{}

func NewImagingCropper() *ImagingCropper {
	return &ImagingCropper{}
}

func (p *ImagingCropper) Name() string {
	return "imaging"
}

func (p *ImagingCropper) Dimensions(data []byte) (int, int, error) {
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		return cfg.Width, cfg.Height, nil
	}

	// Fallback: explicit WebP header decode
	cfg, err := webp.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("image: unknown or unsupported format")
	}
	return cfg.Width, cfg.Height, nil
}

func (p *ImagingCropper) decode(data []byte) (image.Image, error) {
	if img, err := imaging.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	return nil, fmt.Errorf("image: unknown or unsupported format")
}

func (p *ImagingCropper) Load(data []byte) (Decoded, error) {
	img, err := p.decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	return &imagingImage{img: img}, nil
}

// imagingImage is a decoded image.Image. Crops never modify it.
type imagingImage struct {
	img image.Image
}

func (d *imagingImage) Size() (int, int) {
	b := d.img.Bounds()
	return b.Dx(), b.Dy()
}

func (d *imagingImage) Crop(rect geometry.Rectangle, opts EncodeOptions) ([]byte, error) {
	b := d.img.Bounds()
	if err := checkBounds(rect, b.Dx(), b.Dy()); err != nil {
		return nil, err
	}

	// Decoded images may not start at the origin; selections are relative to the top-left pixel
	cropRect := rect.ImageRect().Add(b.Min)
	cropped := imaging.Crop(d.img, cropRect)

	return encodeImaging(cropped, opts)
}

// Close is a no-op; the pixels go with the last reference
func (d *imagingImage) Close() {}

func encodeImaging(img image.Image, opts EncodeOptions) ([]byte, error) {
	var buf bytes.Buffer
	var err error

	switch opts.Format {
	case "webp":
		err = webp.Encode(&buf, img, &webp.Options{Lossless: opts.Lossless, Quality: float32(opts.quality())})
	case "png":
		err = imaging.Encode(&buf, img, imaging.PNG)
	case "jpeg", "jpg":
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(opts.quality()))
	case "gif":
		err = imaging.Encode(&buf, img, imaging.GIF)
	case "tiff":
		err = imaging.Encode(&buf, img, imaging.TIFF)
	case "bmp":
		err = imaging.Encode(&buf, img, imaging.BMP)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, opts.Format)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to export image: %w", err)
	}
	return buf.Bytes(), nil
}
