package conversion

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/disintegration/imaging"
)

// ThumbnailConversion is the conversion name used for property thumbnails.
const ThumbnailConversion = "thumbnail"

// ImagingTransformer implements Transformer with disintegration/imaging.
type ImagingTransformer struct {
	conversions map[string]Conversion
	defaults    []Option
	mu          sync.RWMutex
}

// NewImagingTransformer creates a transformer. defaults apply to every
// Transform call before the per-call options.
func NewImagingTransformer(defaults ...Option) *ImagingTransformer {
	return &ImagingTransformer{
		conversions: make(map[string]Conversion),
		defaults:    defaults,
	}
}

func (t *ImagingTransformer) RegisterConversion(name string, conversion Conversion) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.conversions[name] = conversion
}

// RegisterThumbnail registers ThumbnailConversion as a resize into a
// width x height box.
func (t *ImagingTransformer) RegisterThumbnail(width, height int) {
	t.RegisterConversion(ThumbnailConversion, func(img image.Image, opts *Options) (image.Image, error) {
		return Resize(img, width, height, opts)
	})
}

func (t *ImagingTransformer) Transform(ctx context.Context, img image.Image, conversionName string, options ...Option) (image.Image, error) {
	t.mu.RLock()
	conversion, exists := t.conversions[conversionName]
	t.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("conversion not found: %s", conversionName)
	}

	opts := NewOptions(append(append([]Option{}, t.defaults...), options...)...)

	return conversion(img, opts)
}

// Resize scales img into the box, with opts.Width and opts.Height taking
// precedence over width and height when set.
func Resize(img image.Image, width, height int, opts *Options) (image.Image, error) {
	if opts.Width > 0 {
		width = opts.Width
	}
	if opts.Height > 0 {
		height = opts.Height
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", width, height)
	}

	switch opts.Fit {
	case FitMax:
		return imaging.Resize(img, width, 0, imaging.Lanczos), nil
	case FitFill:
		return imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos), nil
	case FitStretch:
		return imaging.Resize(img, width, height, imaging.Lanczos), nil
	case FitThumbnail:
		return imaging.Thumbnail(img, width, height, imaging.Lanczos), nil
	default:
		return imaging.Fit(img, width, height, imaging.Lanczos), nil
	}
}

var _ Transformer = (*ImagingTransformer)(nil)
