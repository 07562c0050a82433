// internal/imaging/preparer.go
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"print-server/internal/config"
)

// Preparer decodes incoming images and scales them to the raster width of
// the configured paper class
type Preparer struct {
	targetWidth int
	fs          afero.Fs
	logger      *zap.Logger
}

// NewPreparer creates a new image preparer
func NewPreparer(cfg *config.PrinterConfig, fs afero.Fs, logger *zap.Logger) *Preparer {
	return &Preparer{
		targetWidth: cfg.TargetWidth(),
		fs:          fs,
		logger:      logger.With(zap.String("component", "preparer")),
	}
}

// TargetWidth returns the fixed output width in pixels
func (p *Preparer) TargetWidth() int {
	return p.targetWidth
}

// Prepare decodes raw image bytes and resizes them
func (p *Preparer) Prepare(data []byte) (*image.RGBA, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	p.logger.Debug("Image decoded",
		zap.String("format", format),
		zap.Int("width", src.Bounds().Dx()),
		zap.Int("height", src.Bounds().Dy()),
	)

	return p.Resize(src)
}

// PrepareFile loads an image from the filesystem and resizes it
func (p *Preparer) PrepareFile(path string) (*image.RGBA, error) {
	data, err := afero.ReadFile(p.fs, path)
	if err != nil {
		return nil, &DecodeError{Err: fmt.Errorf("failed to read %s: %w", path, err)}
	}
	return p.Prepare(data)
}

// Resize scales src proportionally so its width equals the target width
func (p *Preparer) Resize(src image.Image) (*image.RGBA, error) {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, &DecodeError{Err: errors.New("image has zero size")}
	}

	targetW, targetH := ScaledSize(w, h, p.targetWidth)

	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)

	return dst, nil
}

// ScaledSize returns the size of a w×h image scaled to targetWidth. The
// height is truncated and never less than one pixel.
func ScaledSize(w, h, targetWidth int) (int, int) {
	targetH := h * targetWidth / w
	if targetH < 1 {
		targetH = 1
	}
	return targetWidth, targetH
}
