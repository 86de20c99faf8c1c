package ocr

import (
	"context"
	"image"
)

// Recognizer turns an image into raw text under one configuration.
// Implementations must be safe for concurrent use.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image, cfg Configuration) (string, error)
}

// RecognizerFunc adapts a function to Recognizer.
type RecognizerFunc func(ctx context.Context, img image.Image, cfg Configuration) (string, error)

func (f RecognizerFunc) Recognize(ctx context.Context, img image.Image, cfg Configuration) (string, error) {
	return f(ctx, img, cfg)
}
