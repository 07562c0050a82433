// internal/raster/encoder.go
package raster

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"

	"print-server/internal/config"
)

// Job is a device specific raster command stream ready for transmission
type Job struct {
	Data     []byte
	Model    string
	Label    string
	Width    int
	Lines    int
	TwoColor bool
}

// Size returns the number of bytes in the command stream
func (j *Job) Size() int {
	return len(j.Data)
}

// Encoder converts a prepared image into a raster job
type Encoder interface {
	Encode(img image.Image) (*Job, error)
}

// QLEncoder produces Brother QL raster jobs for continuous tape
type QLEncoder struct {
	model     ModelSpec
	label     Label
	red       bool
	cut       bool
	threshold uint8
}

// NewQLEncoder creates an encoder for the configured printer profile
func NewQLEncoder(cfg *config.PrinterConfig, registry *Registry) (*QLEncoder, error) {
	spec, err := registry.Lookup(cfg.Model)
	if err != nil {
		return nil, err
	}

	if cfg.Red && !spec.TwoColor {
		return nil, fmt.Errorf("printer model %s does not support two-colour printing", spec.Name)
	}

	label := LabelFor(cfg.PaperWidth)
	if label.Dots+label.RightMargin > spec.DeviceDots() {
		return nil, fmt.Errorf("label %s is too wide for %s", label.Identifier, spec.Name)
	}

	return &QLEncoder{
		model:     spec,
		label:     label,
		red:       cfg.Red,
		cut:       spec.Cutting,
		threshold: luminanceCutoff(cfg.Threshold),
	}, nil
}

// Encode builds the full command stream for img. The image must already be
// scaled to the label's printable width.
func (e *QLEncoder) Encode(img image.Image) (*Job, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width != e.label.Dots {
		return nil, fmt.Errorf("image width %d does not match label %s (%d dots)", width, e.label.Identifier, e.label.Dots)
	}
	if height <= 0 {
		return nil, fmt.Errorf("image has no rows")
	}

	var buf bytes.Buffer

	buf.Write(QL_COMMANDS.INVALIDATE)
	buf.Write(QL_COMMANDS.INITIALIZE)
	if e.model.ModeSetting {
		buf.Write(QL_COMMANDS.SWITCH_RASTER_MODE)
	}

	e.writeMediaInfo(&buf, height)

	if e.cut {
		buf.Write(QL_COMMANDS.VARIOUS_MODE)
		buf.WriteByte(variousModeAutoCut)
		buf.Write(QL_COMMANDS.CUT_EVERY)
		buf.WriteByte(0x01)
	}

	if e.model.Expanded {
		var flags byte
		if e.cut {
			flags |= expandedModeCutAtEnd
		}
		if e.red {
			flags |= expandedModeTwoColor
		}
		buf.Write(QL_COMMANDS.EXPANDED_MODE)
		buf.WriteByte(flags)
	}

	buf.Write(QL_COMMANDS.MARGIN)
	_ = binary.Write(&buf, binary.LittleEndian, uint16(e.label.FeedMargin))

	if e.model.Compression {
		buf.Write(QL_COMMANDS.COMPRESSION)
		buf.WriteByte(compressionNone)
	}

	e.writeRasterLines(&buf, img)

	buf.Write(QL_COMMANDS.PRINT_WITH_FEEDING)

	return &Job{
		Data:     buf.Bytes(),
		Model:    e.model.Name,
		Label:    e.label.Identifier,
		Width:    width,
		Lines:    height,
		TwoColor: e.red,
	}, nil
}

// writeMediaInfo writes ESC i z for continuous tape of the given length
func (e *QLEncoder) writeMediaInfo(buf *bytes.Buffer, lines int) {
	buf.Write(QL_COMMANDS.MEDIA_INFO)
	buf.WriteByte(mediaFlagRecover | mediaFlagKind | mediaFlagWidth | mediaFlagLength)
	buf.WriteByte(mediaTypeContinuous)
	buf.WriteByte(e.label.WidthMM)
	buf.WriteByte(0x00) // length, continuous
	_ = binary.Write(buf, binary.LittleEndian, uint32(lines))
	buf.WriteByte(0x00) // starting page
	buf.WriteByte(0x00)
}

func (e *QLEncoder) writeRasterLines(buf *bytes.Buffer, img image.Image) {
	bounds := img.Bounds()
	rowBytes := e.model.BytesPerRow

	black := make([]byte, rowBytes)
	red := make([]byte, rowBytes)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		clear(black)
		clear(red)

		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			dot := e.dotFor(x - bounds.Min.X)
			isBlack, isRed := e.classify(img.At(x, y))
			if isRed {
				setDot(red, dot)
			} else if isBlack {
				setDot(black, dot)
			}
		}

		if e.red {
			buf.Write(QL_COMMANDS.RASTER_LINE_BLACK)
			buf.WriteByte(byte(rowBytes))
			buf.Write(black)
			buf.Write(QL_COMMANDS.RASTER_LINE_RED)
			buf.WriteByte(byte(rowBytes))
			buf.Write(red)
			continue
		}

		buf.Write(QL_COMMANDS.RASTER_LINE)
		buf.WriteByte(byte(rowBytes))
		buf.Write(black)
	}
}

// dotFor maps an image column to a print head dot. The head prints mirrored
// and the image is right aligned against the label's right margin.
func (e *QLEncoder) dotFor(column int) int {
	return e.label.Dots + e.label.RightMargin - 1 - column
}

// classify decides whether a pixel prints black, red or not at all
func (e *QLEncoder) classify(c color.Color) (black bool, red bool) {
	r, g, b, a := c.RGBA()
	if a == 0 {
		return false, false
	}

	// Composite over white paper.
	r8 := blendOverWhite(r, a)
	g8 := blendOverWhite(g, a)
	b8 := blendOverWhite(b, a)

	if e.red && r8 >= 0x80 && g8 < 0x60 && b8 < 0x60 {
		return false, true
	}

	gray := color.GrayModel.Convert(color.RGBA{R: r8, G: g8, B: b8, A: 0xff}).(color.Gray)
	return gray.Y <= e.threshold, false
}

func blendOverWhite(v, a uint32) uint8 {
	return uint8((v + (0xffff - a)) >> 8)
}

func setDot(row []byte, dot int) {
	if dot < 0 || dot >= len(row)*8 {
		return
	}
	row[dot/8] |= 0x80 >> uint(dot%8)
}

// luminanceCutoff converts a darkness threshold in percent into the highest
// grey level that still prints
func luminanceCutoff(threshold float64) uint8 {
	v := (100.0 - threshold) / 100.0 * 255.0
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	return uint8(v)
}
