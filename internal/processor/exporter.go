package processor

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/sashko-guz/splitter/internal/geometry"
	"github.com/sashko-guz/splitter/internal/logger"
	"github.com/sashko-guz/splitter/internal/model"
	"github.com/sashko-guz/splitter/internal/storage"
)

var exporterLog = logger.For("Exporter")

// Exporter reads sources from one storage and writes crops to another.
// The output format follows the output key's extension, falling back to the
// format of the source.
type Exporter struct {
	cropper Cropper
	source  storage.Storage
	output  storage.Storage
	opts    EncodeOptions
}

func NewExporter(cropper Cropper, source, output storage.Storage, opts EncodeOptions) *Exporter {
	return &Exporter{cropper: cropper, source: source, output: output, opts: opts}
}

// Load reads and decodes key once for any number of Write calls
func (e *Exporter) Load(ctx context.Context, key string) (model.Source, error) {
	data, err := e.source.GetObject(ctx, key)
	if err != nil {
		return nil, err
	}

	decoded, err := e.cropper.Load(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}

	w, h := decoded.Size()
	exporterLog.Debugf("Decoded %s (%dx%d, %d bytes, backend=%s)", key, w, h, len(data), e.cropper.Name())
	return &loadedSource{
		exp:     e,
		key:     key,
		format:  sniffFormat(data),
		decoded: decoded,
	}, nil
}

// loadedSource is one decoded source image bound to its exporter
type loadedSource struct {
	exp     *Exporter
	key     string
	format  string
	decoded Decoded
}

func (s *loadedSource) Write(ctx context.Context, rect geometry.Rectangle, key string) error {
	opts := s.exp.opts
	opts.Format = FormatFromPath(key)
	if opts.Format == "" {
		opts.Format = s.format
	}
	if err := ValidateFormat(opts.Format); err != nil {
		return err
	}

	data, err := s.decoded.Crop(rect, opts)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.exp.output.PutObject(ctx, key, data)
}

func (s *loadedSource) Close() {
	s.decoded.Close()
	exporterLog.Debugf("Released %s", s.key)
}

// sniffFormat names the encoding of data using the registered decoders
func sniffFormat(data []byte) string {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ""
	}
	return format
}
