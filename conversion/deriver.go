package conversion

import (
	"bytes"
	"context"
	"fmt"

	"github.com/disintegration/imaging"
)

// Deriver produces the thumbnail bytes for an uploaded original.
type Deriver interface {
	Derive(ctx context.Context, original []byte, filename string) ([]byte, error)
}

// CopyDeriver uses the original bytes unchanged as the thumbnail.
type CopyDeriver struct{}

func (CopyDeriver) Derive(ctx context.Context, original []byte, filename string) ([]byte, error) {
	out := make([]byte, len(original))
	copy(out, original)
	return out, nil
}

// ImagingDeriver resizes originals with a Transformer conversion and encodes
// the result in the format implied by the filename.
type ImagingDeriver struct {
	transformer    Transformer
	conversionName string
	options        []Option
	quality        int
	fallback       Deriver
}

// NewImagingDeriver passes options to every Transform call. Their Quality
// is the JPEG encoding quality; values outside 1..100 mean 90.
func NewImagingDeriver(transformer Transformer, conversionName string, options ...Option) *ImagingDeriver {
	quality := NewOptions(options...).Quality
	if quality <= 0 || quality > 100 {
		quality = 90
	}
	return &ImagingDeriver{
		transformer:    transformer,
		conversionName: conversionName,
		options:        options,
		quality:        quality,
		fallback:       CopyDeriver{},
	}
}

// Derive resizes original. Formats imaging cannot decode (webp, svg) fall
// back to a byte copy so every upload still gets a thumbnail.
func (d *ImagingDeriver) Derive(ctx context.Context, original []byte, filename string) ([]byte, error) {
	format, err := imaging.FormatFromFilename(filename)
	if err != nil {
		return d.fallback.Derive(ctx, original, filename)
	}

	img, err := imaging.Decode(bytes.NewReader(original), imaging.AutoOrientation(true))
	if err != nil {
		return d.fallback.Derive(ctx, original, filename)
	}

	transformed, err := d.transformer.Transform(ctx, img, d.conversionName, d.options...)
	if err != nil {
		return nil, fmt.Errorf("failed to transform image: %w", err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, transformed, format, imaging.JPEGQuality(d.quality)); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return buf.Bytes(), nil
}
