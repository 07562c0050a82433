// internal/imaging/annotate.go
package imaging

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"print-server/internal/config"
)

// widthSample is the set of characters whose mean advance estimates the
// width of an average glyph. Only Latin letters are sampled, so text in other
// scripts may wrap early or late.
const widthSample = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Annotator renders wrapped text under a prepared image
type Annotator struct {
	face        font.Face
	wrapRatio   float64
	margin      int
	lineSpacing int
	background  color.Color
	foreground  color.Color
	logger      *zap.Logger

	// font.Face implementations cache glyphs and are not safe for
	// concurrent use.
	mu sync.Mutex
}

// Layout describes how a piece of annotation text is placed on the canvas
type Layout struct {
	Lines        []string
	MaxChars     int
	LineHeight   int
	InkOffset    int
	BlockHeight  int
	AvgCharWidth float64
}

// NewAnnotator loads the annotation font and creates a renderer. When
// cfg.FontPath is empty the bold Go font compiled into the binary is used;
// a configured path that cannot be loaded is a ResourceError.
func NewAnnotator(cfg *config.AnnotationConfig, fs afero.Fs, logger *zap.Logger) (*Annotator, error) {
	data := gobold.TTF
	if cfg.FontPath != "" {
		raw, err := afero.ReadFile(fs, cfg.FontPath)
		if err != nil {
			return nil, &ResourceError{Resource: "font", Path: cfg.FontPath, Err: err}
		}
		data = raw
	}

	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, &ResourceError{Resource: "font", Path: cfg.FontPath, Err: err}
	}

	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    cfg.FontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, &ResourceError{Resource: "font face", Path: cfg.FontPath, Err: err}
	}

	return &Annotator{
		face:        face,
		wrapRatio:   cfg.WrapRatio,
		margin:      cfg.Margin,
		lineSpacing: cfg.LineSpacing,
		background:  color.White,
		foreground:  color.Black,
		logger:      logger.With(zap.String("component", "annotator")),
	}, nil
}

// Layout computes the wrapped lines and block height of text for an image of
// the given width
func (a *Annotator) Layout(text string, width int) Layout {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.layout(text, width)
}

func (a *Annotator) layout(text string, width int) Layout {
	avg := a.averageCharWidth()
	maxChars := 1
	if avg > 0 {
		maxChars = int(float64(width) * a.wrapRatio / avg)
	}
	if maxChars < 1 {
		maxChars = 1
	}

	lines := Wrap(text, maxChars)

	metrics := a.face.Metrics()
	lineHeight := (metrics.Ascent + metrics.Descent).Ceil()

	// Distance between the top of the line box and the top of the ink, the
	// equivalent of a font's reported vertical offset for this text.
	bounds, _ := font.BoundString(a.face, text)
	inkOffset := (metrics.Ascent + bounds.Min.Y).Floor()
	if inkOffset < 0 {
		inkOffset = 0
	}

	// Whitespace-only text still reserves one blank line.
	textHeight := lineHeight
	if len(lines) > 0 {
		textHeight = len(lines)*lineHeight + (len(lines)-1)*a.lineSpacing
	}

	return Layout{
		Lines:        lines,
		MaxChars:     maxChars,
		LineHeight:   lineHeight,
		InkOffset:    inkOffset,
		BlockHeight:  textHeight + inkOffset,
		AvgCharWidth: avg,
	}
}

// Annotate returns a new, taller image with text rendered beneath img. An
// empty text returns img itself; whitespace-only text adds a blank band.
func (a *Annotator) Annotate(img *image.RGBA, text string) (*image.RGBA, error) {
	if text == "" {
		return img, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	imgW, imgH := img.Bounds().Dx(), img.Bounds().Dy()
	layout := a.layout(text, imgW)

	canvasH := imgH + layout.BlockHeight + a.margin
	canvas := image.NewRGBA(image.Rect(0, 0, imgW, canvasH))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(a.background), image.Point{}, draw.Src)
	draw.Draw(canvas, image.Rect(0, 0, imgW, imgH), img, img.Bounds().Min, draw.Src)

	// Centre the block inside the band below the original image.
	centerY := imgH + (canvasH-imgH)/2
	textHeight := layout.BlockHeight - layout.InkOffset
	top := centerY - textHeight/2
	ascent := a.face.Metrics().Ascent.Ceil()

	drawer := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(a.foreground),
		Face: a.face,
	}

	for i, line := range layout.Lines {
		lineWidth := font.MeasureString(a.face, line).Round()
		x := (imgW - lineWidth) / 2
		baseline := top + i*(layout.LineHeight+a.lineSpacing) + ascent
		drawer.Dot = fixed.P(x, baseline)
		drawer.DrawString(line)
	}

	a.logger.Debug("Image annotated",
		zap.Int("lines", len(layout.Lines)),
		zap.Int("max_chars", layout.MaxChars),
		zap.String("size", fmt.Sprintf("%dx%d", imgW, canvasH)),
	)

	return canvas, nil
}

func (a *Annotator) averageCharWidth() float64 {
	var total fixed.Int26_6
	for _, r := range widthSample {
		advance, ok := a.face.GlyphAdvance(r)
		if !ok {
			continue
		}
		total += advance
	}
	return float64(total) / 64 / float64(len(widthSample))
}

// Wrap breaks text into lines of at most width runes. Words are separated by
// whitespace; a word longer than width is split across lines.
func Wrap(text string, width int) []string {
	if width < 1 {
		width = 1
	}

	var lines []string
	var current []rune

	flush := func() {
		if len(current) > 0 {
			lines = append(lines, string(current))
			current = current[:0]
		}
	}

	for _, word := range strings.Fields(text) {
		runes := []rune(word)

		for len(runes) > width {
			if len(current) > 0 {
				room := width - len(current) - 1
				if room <= 0 {
					flush()
					continue
				}
				current = append(current, ' ')
				current = append(current, runes[:room]...)
				runes = runes[room:]
				flush()
				continue
			}
			lines = append(lines, string(runes[:width]))
			runes = runes[width:]
		}

		if len(runes) == 0 {
			continue
		}

		switch {
		case len(current) == 0:
			current = append(current, runes...)
		case len(current)+1+len(runes) <= width:
			current = append(current, ' ')
			current = append(current, runes...)
		default:
			flush()
			current = append(current, runes...)
		}
	}
	flush()

	return lines
}
