//go:build !gosseract

package ocr

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/joseph-ayodele/lyrics-extractor/internal/common"
)

// Gosseract is unavailable in builds without the gosseract tag.
type Gosseract struct{}

// NewGosseract always fails; rebuild with -tags gosseract to link libtesseract.
func NewGosseract(string, *slog.Logger) (*Gosseract, error) {
	return nil, fmt.Errorf("%w: built without the gosseract tag", common.ErrEngineUnavailable)
}

func (*Gosseract) Recognize(context.Context, image.Image, Configuration) (string, error) {
	return "", common.ErrEngineUnavailable
}
