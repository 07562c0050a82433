package raster

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"print-server/internal/config"
)

func whiteImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}

func newEncoder(t *testing.T, cfg *config.PrinterConfig) *QLEncoder {
	t.Helper()
	if cfg.Threshold == 0 {
		cfg.Threshold = 70
	}
	enc, err := NewQLEncoder(cfg, NewRegistry())
	require.NoError(t, err)
	return enc
}

func TestRegistry_LookupIgnoresCase(t *testing.T) {
	r := NewRegistry()

	spec, err := r.Lookup("ql-800")
	require.NoError(t, err)
	assert.Equal(t, "QL-800", spec.Name)
	assert.True(t, spec.TwoColor)
	assert.Equal(t, 720, spec.DeviceDots())

	_, err = r.Lookup("PT-P700")
	assert.Error(t, err)

	assert.Contains(t, r.ListModels(), "QL-1110NWB")
}

func TestNewRegistry_DefaultModelsOnce(t *testing.T) {
	models := NewRegistry().ListModels()

	assert.Len(t, models, 16)
	seen := make(map[string]bool)
	for _, name := range models {
		assert.False(t, seen[name], "duplicate model %s", name)
		seen[name] = true
	}
}

func TestLabelFor(t *testing.T) {
	assert.Equal(t, 696, LabelFor("62").Dots)
	assert.Equal(t, 554, LabelFor("50").Dots)
	assert.Equal(t, 554, LabelFor("29").Dots)
}

func TestNewQLEncoder_Validation(t *testing.T) {
	_, err := NewQLEncoder(&config.PrinterConfig{Model: "QL-9999", PaperWidth: "62"}, NewRegistry())
	assert.Error(t, err)

	_, err = NewQLEncoder(&config.PrinterConfig{Model: "QL-700", PaperWidth: "62", Red: true}, NewRegistry())
	assert.Error(t, err)

	_, err = NewQLEncoder(&config.PrinterConfig{Model: "QL-820NWB", PaperWidth: "62", Red: true}, NewRegistry())
	assert.NoError(t, err)
}

func TestEncode_CommandStream(t *testing.T) {
	enc := newEncoder(t, &config.PrinterConfig{Model: "QL-700", PaperWidth: "62"})

	job, err := enc.Encode(whiteImage(696, 3))
	require.NoError(t, err)

	assert.Equal(t, "QL-700", job.Model)
	assert.Equal(t, 3, job.Lines)
	assert.Equal(t, 696, job.Width)
	assert.False(t, job.TwoColor)

	data := job.Data
	assert.Equal(t, make([]byte, 200), data[:200])
	assert.Equal(t, []byte{0x1B, 0x40}, data[200:202])
	assert.Equal(t, []byte{0x1B, 0x69, 0x61, 0x01}, data[202:206])

	lines := make([]byte, 4)
	binary.LittleEndian.PutUint32(lines, 3)
	media := append([]byte{0x1B, 0x69, 0x7A, 0x8E, 0x0A, 62, 0x00}, lines...)
	media = append(media, 0x00, 0x00)
	assert.True(t, bytes.Contains(data, media), "media info command missing")

	assert.True(t, bytes.Contains(data, []byte{0x1B, 0x69, 0x4D, 0x40}), "autocut missing")
	assert.True(t, bytes.Contains(data, []byte{0x1B, 0x69, 0x4B, 0x08}), "expanded mode missing")
	assert.True(t, bytes.Contains(data, []byte{0x1B, 0x69, 0x64, 35, 0x00}), "margin missing")

	assert.Equal(t, 3, bytes.Count(data, []byte{0x67, 0x00, 0x5A}))
	assert.Equal(t, byte(0x1A), data[len(data)-1])
}

func TestEncode_MirrorsAndOffsetsDots(t *testing.T) {
	enc := newEncoder(t, &config.PrinterConfig{Model: "QL-700", PaperWidth: "62"})

	img := whiteImage(696, 1)
	img.Set(0, 0, color.Black)
	img.Set(695, 0, color.Black)

	job, err := enc.Encode(img)
	require.NoError(t, err)

	idx := bytes.Index(job.Data, []byte{0x67, 0x00, 0x5A})
	require.GreaterOrEqual(t, idx, 0)
	row := job.Data[idx+3 : idx+3+90]

	// column 0 lands on dot 707, column 695 on dot 12
	assert.Equal(t, byte(0x10), row[88])
	assert.Equal(t, byte(0x08), row[1])

	set := 0
	for _, b := range row {
		for ; b != 0; b &= b - 1 {
			set++
		}
	}
	assert.Equal(t, 2, set)
}

func TestEncode_ThresholdSkipsLightPixels(t *testing.T) {
	enc := newEncoder(t, &config.PrinterConfig{Model: "QL-700", PaperWidth: "50"})

	img := whiteImage(554, 1)
	img.Set(10, 0, color.Gray{Y: 0xC0})
	img.Set(20, 0, color.Gray{Y: 0x20})

	job, err := enc.Encode(img)
	require.NoError(t, err)

	idx := bytes.Index(job.Data, []byte{0x67, 0x00, 0x5A})
	row := job.Data[idx+3 : idx+3+90]

	dot := func(column int) bool {
		d := 554 + 12 - 1 - column
		return row[d/8]&(0x80>>uint(d%8)) != 0
	}
	assert.False(t, dot(10))
	assert.True(t, dot(20))
}

func TestEncode_TwoColor(t *testing.T) {
	enc := newEncoder(t, &config.PrinterConfig{Model: "QL-800", PaperWidth: "62", Red: true})

	img := whiteImage(696, 2)
	img.Set(5, 0, color.RGBA{R: 0xff, A: 0xff})
	img.Set(6, 0, color.Black)

	job, err := enc.Encode(img)
	require.NoError(t, err)
	assert.True(t, job.TwoColor)

	assert.True(t, bytes.Contains(job.Data, []byte{0x1B, 0x69, 0x4B, 0x09}), "expanded mode should carry the two-colour flag")
	assert.Equal(t, 2, bytes.Count(job.Data, []byte{0x77, 0x01, 0x5A}))
	assert.Equal(t, 2, bytes.Count(job.Data, []byte{0x77, 0x02, 0x5A}))

	blackIdx := bytes.Index(job.Data, []byte{0x77, 0x01, 0x5A})
	redIdx := bytes.Index(job.Data, []byte{0x77, 0x02, 0x5A})
	black := job.Data[blackIdx+3 : blackIdx+3+90]
	red := job.Data[redIdx+3 : redIdx+3+90]

	redDot := 696 + 12 - 1 - 5
	blackDot := 696 + 12 - 1 - 6
	assert.NotZero(t, red[redDot/8]&(0x80>>uint(redDot%8)))
	assert.Zero(t, black[redDot/8]&(0x80>>uint(redDot%8)))
	assert.NotZero(t, black[blackDot/8]&(0x80>>uint(blackDot%8)))
}

func TestEncode_RejectsWrongWidth(t *testing.T) {
	enc := newEncoder(t, &config.PrinterConfig{Model: "QL-700", PaperWidth: "62"})

	_, err := enc.Encode(whiteImage(554, 10))
	assert.Error(t, err)
}

func statusFrame(statusType StatusType, err1, err2 byte) []byte {
	frame := make([]byte, StatusSize)
	frame[0], frame[1], frame[2] = 0x80, 0x20, 0x42
	frame[8] = err1
	frame[9] = err2
	frame[10] = 62
	frame[11] = 0x0A
	frame[18] = byte(statusType)
	return frame
}

func TestParseStatus(t *testing.T) {
	status, err := ParseStatus(statusFrame(StatusPrintingDone, 0, 0))
	require.NoError(t, err)
	assert.True(t, status.Completed())
	assert.NoError(t, status.Err())
	assert.Equal(t, 62, status.MediaWidth)

	status, err = ParseStatus(statusFrame(StatusErrorOccurred, 0x01, 0x10))
	require.NoError(t, err)
	assert.False(t, status.Completed())
	assert.Equal(t, []string{"no media", "cover open"}, status.Errors)
	assert.ErrorContains(t, status.Err(), "cover open")

	_, err = ParseStatus([]byte{0x80, 0x20})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	bad := statusFrame(StatusReply, 0, 0)
	bad[2] = 0x00
	_, err = ParseStatus(bad)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
