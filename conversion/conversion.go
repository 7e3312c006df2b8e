package conversion

import (
	"context"
	"fmt"
	"image"
	"strings"
)

// Fit says how an image is scaled into the target box.
type Fit string

const (
	// FitContain scales to fit inside the box, keeping the aspect ratio.
	FitContain Fit = "contain"
	// FitFill crops to cover the whole box.
	FitFill Fit = "fill"
	// FitMax scales to the target width only.
	FitMax Fit = "max"
	// FitStretch ignores the aspect ratio.
	FitStretch Fit = "stretch"
	// FitThumbnail crops to the box like FitFill but is tuned for small outputs.
	FitThumbnail Fit = "thumbnail"
)

// ParseFit maps a config value to a Fit. Empty means FitContain.
func ParseFit(s string) (Fit, error) {
	switch f := Fit(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FitContain, nil
	case FitContain, FitFill, FitMax, FitStretch, FitThumbnail:
		return f, nil
	default:
		return "", fmt.Errorf("unknown fit %q", s)
	}
}

// Transformer applies named conversions to decoded images.
type Transformer interface {
	Transform(ctx context.Context, img image.Image, conversionName string, options ...Option) (image.Image, error)

	RegisterConversion(name string, conversion Conversion)
}

// Conversion turns one image into another using the resolved options.
type Conversion func(img image.Image, opts *Options) (image.Image, error)

type Option func(*Options)

// Options are the per-call resize settings. Zero Width or Height means the
// conversion's own size is used.
type Options struct {
	Width   int
	Height  int
	Quality int
	Fit     Fit
}

func WithSize(width, height int) Option {
	return func(o *Options) {
		o.Width = width
		o.Height = height
	}
}

func WithQuality(quality int) Option {
	return func(o *Options) {
		o.Quality = quality
	}
}

func WithFit(fit Fit) Option {
	return func(o *Options) {
		o.Fit = fit
	}
}

// NewOptions applies opts over quality 90 and FitContain.
func NewOptions(opts ...Option) *Options {
	options := &Options{
		Quality: 90,
		Fit:     FitContain,
	}

	for _, opt := range opts {
		opt(options)
	}

	return options
}
