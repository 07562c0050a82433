package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"print-server/internal/config"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0x80, A: 0xff})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testAnnotationConfig() *config.AnnotationConfig {
	return &config.AnnotationConfig{
		FontSize:    24,
		WrapRatio:   0.95,
		Margin:      5,
		LineSpacing: 4,
	}
}

func newTestAnnotator(t *testing.T) *Annotator {
	t.Helper()
	a, err := NewAnnotator(testAnnotationConfig(), afero.NewMemMapFs(), zap.NewNop())
	require.NoError(t, err)
	return a
}

func TestPreparer_TargetWidthByPaperClass(t *testing.T) {
	tests := []struct {
		paper string
		want  int
	}{
		{"62", 696},
		{"50", 554},
		{"29", 554},
	}

	for _, tt := range tests {
		t.Run(tt.paper, func(t *testing.T) {
			p := NewPreparer(&config.PrinterConfig{PaperWidth: tt.paper}, afero.NewMemMapFs(), zap.NewNop())
			img, err := p.Prepare(encodePNG(t, 300, 120))
			require.NoError(t, err)

			assert.Equal(t, tt.want, img.Bounds().Dx())
			assert.Equal(t, 120*tt.want/300, img.Bounds().Dy())
		})
	}
}

func TestPreparer_ScalesProportionally(t *testing.T) {
	p := NewPreparer(&config.PrinterConfig{PaperWidth: "62"}, afero.NewMemMapFs(), zap.NewNop())

	img, err := p.Prepare(encodePNG(t, 600, 400))
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 696, 464), img.Bounds())
}

func TestPreparer_DecodesJPEG(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 100, 50))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, src, nil))

	p := NewPreparer(&config.PrinterConfig{PaperWidth: "50"}, afero.NewMemMapFs(), zap.NewNop())
	img, err := p.Prepare(buf.Bytes())
	require.NoError(t, err)

	assert.Equal(t, 554, img.Bounds().Dx())
	assert.Equal(t, 277, img.Bounds().Dy())
}

func TestPreparer_HeightNeverZero(t *testing.T) {
	p := NewPreparer(&config.PrinterConfig{PaperWidth: "50"}, afero.NewMemMapFs(), zap.NewNop())

	img, err := p.Prepare(encodePNG(t, 2000, 1))
	require.NoError(t, err)

	assert.Equal(t, 1, img.Bounds().Dy())
}

func TestPreparer_InvalidBytes(t *testing.T) {
	p := NewPreparer(&config.PrinterConfig{PaperWidth: "62"}, afero.NewMemMapFs(), zap.NewNop())

	_, err := p.Prepare([]byte("definitely not an image"))
	require.Error(t, err)

	var decodeErr *DecodeError
	assert.True(t, errors.As(err, &decodeErr))
}

func TestPreparer_PrepareFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/labels/qr.png", encodePNG(t, 348, 100), 0o644))

	p := NewPreparer(&config.PrinterConfig{PaperWidth: "62"}, fs, zap.NewNop())

	img, err := p.PrepareFile("/labels/qr.png")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 696, 200), img.Bounds())

	_, err = p.PrepareFile("/labels/missing.png")
	var decodeErr *DecodeError
	assert.True(t, errors.As(err, &decodeErr))
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  []string
	}{
		{"fits", "Lot 42", 10, []string{"Lot 42"}},
		{"breaks on words", "serial number 0042 passed", 13, []string{"serial number", "0042 passed"}},
		{"collapses whitespace", "  a   b  ", 10, []string{"a b"}},
		{"splits long word", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"fills line before splitting", "ab cdefghij", 5, []string{"ab cd", "efghi", "j"}},
		{"empty", "", 5, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Wrap(tt.text, tt.width))
		})
	}
}

func TestNewAnnotator_MissingFont(t *testing.T) {
	cfg := testAnnotationConfig()
	cfg.FontPath = "/fonts/helvetica-bold.ttf"

	_, err := NewAnnotator(cfg, afero.NewMemMapFs(), zap.NewNop())
	require.Error(t, err)

	var resErr *ResourceError
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, "/fonts/helvetica-bold.ttf", resErr.Path)
}

func TestNewAnnotator_CorruptFont(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/fonts/broken.ttf", []byte("not a font"), 0o644))

	cfg := testAnnotationConfig()
	cfg.FontPath = "/fonts/broken.ttf"

	_, err := NewAnnotator(cfg, fs, zap.NewNop())
	var resErr *ResourceError
	assert.True(t, errors.As(err, &resErr))
}

func TestAnnotate_EmptyIsIdentity(t *testing.T) {
	a := newTestAnnotator(t)
	img := image.NewRGBA(image.Rect(0, 0, 696, 464))

	out, err := a.Annotate(img, "")
	require.NoError(t, err)
	assert.Same(t, img, out)
}

func TestAnnotate_WhitespaceOnlyGrows(t *testing.T) {
	a := newTestAnnotator(t)
	img := image.NewRGBA(image.Rect(0, 0, 696, 464))

	for _, text := range []string{" ", "   ", "\t\n"} {
		layout := a.Layout(text, 696)
		assert.Empty(t, layout.Lines)
		assert.Greater(t, layout.BlockHeight, 0)

		out, err := a.Annotate(img, text)
		require.NoError(t, err)
		assert.Equal(t, 696, out.Bounds().Dx())
		assert.Equal(t, 464+layout.BlockHeight+5, out.Bounds().Dy(), "text %q", text)
	}
}

func TestAnnotate_GrowsByBlockAndMargin(t *testing.T) {
	a := newTestAnnotator(t)
	img := image.NewRGBA(image.Rect(0, 0, 696, 464))

	layout := a.Layout("Lot 42", 696)
	require.Equal(t, []string{"Lot 42"}, layout.Lines)
	require.Greater(t, layout.BlockHeight, 0)

	out, err := a.Annotate(img, "Lot 42")
	require.NoError(t, err)

	assert.Equal(t, 696, out.Bounds().Dx())
	assert.Equal(t, 464+layout.BlockHeight+5, out.Bounds().Dy())
}

func TestAnnotate_PreservesImageAndDrawsText(t *testing.T) {
	a := newTestAnnotator(t)

	img := image.NewRGBA(image.Rect(0, 0, 200, 50))
	red := color.RGBA{R: 0xff, A: 0xff}
	for y := 0; y < 50; y++ {
		for x := 0; x < 200; x++ {
			img.SetRGBA(x, y, red)
		}
	}

	out, err := a.Annotate(img, "OK")
	require.NoError(t, err)

	for y := 0; y < 50; y++ {
		for x := 0; x < 200; x++ {
			require.Equal(t, red, out.RGBAAt(x, y))
		}
	}

	dark := 0
	for y := 50; y < out.Bounds().Dy(); y++ {
		for x := 0; x < 200; x++ {
			if out.RGBAAt(x, y).R < 0x80 {
				dark++
			}
		}
	}
	assert.Greater(t, dark, 0, "annotation text should be rendered in the band")
	assert.Equal(t, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, out.RGBAAt(0, out.Bounds().Dy()-1))
}

func TestAnnotate_LongTextWraps(t *testing.T) {
	a := newTestAnnotator(t)
	text := strings.Repeat("quality assurance passed ", 8)

	single := a.Layout("Lot 42", 300)
	layout := a.Layout(text, 300)

	require.Greater(t, len(layout.Lines), 1)
	for _, line := range layout.Lines {
		assert.LessOrEqual(t, len([]rune(line)), layout.MaxChars)
	}
	assert.Greater(t, layout.BlockHeight, single.BlockHeight)

	out, err := a.Annotate(image.NewRGBA(image.Rect(0, 0, 300, 100)), text)
	require.NoError(t, err)
	assert.Equal(t, 100+layout.BlockHeight+5, out.Bounds().Dy())
}
