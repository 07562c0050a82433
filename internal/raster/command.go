// internal/raster/command.go
package raster

// QL_COMMANDS contains the Brother QL raster command definitions
var QL_COMMANDS = struct {
	// Basic commands
	INVALIDATE []byte
	INITIALIZE []byte

	// Mode selection
	SWITCH_RASTER_MODE []byte
	MEDIA_INFO         []byte // + 10 parameter bytes
	VARIOUS_MODE       []byte // + flags
	CUT_EVERY          []byte // + page count
	EXPANDED_MODE      []byte // + flags
	MARGIN             []byte // + 2 bytes little endian
	COMPRESSION        []byte // + mode

	// Raster data
	RASTER_LINE        []byte // + length + data
	RASTER_LINE_BLACK  []byte // + length + data
	RASTER_LINE_RED    []byte // + length + data
	PRINT_WITH_FEEDING []byte
}{
	// Basic commands
	INVALIDATE: make([]byte, 200),  // 200 x NULL
	INITIALIZE: []byte{0x1B, 0x40}, // ESC @

	// Mode selection
	SWITCH_RASTER_MODE: []byte{0x1B, 0x69, 0x61, 0x01}, // ESC i a 1
	MEDIA_INFO:         []byte{0x1B, 0x69, 0x7A},       // ESC i z
	VARIOUS_MODE:       []byte{0x1B, 0x69, 0x4D},       // ESC i M
	CUT_EVERY:          []byte{0x1B, 0x69, 0x41},       // ESC i A
	EXPANDED_MODE:      []byte{0x1B, 0x69, 0x4B},       // ESC i K
	MARGIN:             []byte{0x1B, 0x69, 0x64},       // ESC i d
	COMPRESSION:        []byte{0x4D},                   // M

	// Raster data
	RASTER_LINE:        []byte{0x67, 0x00}, // g 0
	RASTER_LINE_BLACK:  []byte{0x77, 0x01}, // w 1
	RASTER_LINE_RED:    []byte{0x77, 0x02}, // w 2
	PRINT_WITH_FEEDING: []byte{0x1A},       // Control-Z
}

// Flag values for the parameterised commands
const (
	mediaFlagKind    byte = 0x02
	mediaFlagWidth   byte = 0x04
	mediaFlagLength  byte = 0x08
	mediaFlagRecover byte = 0x80

	mediaTypeContinuous byte = 0x0A

	variousModeAutoCut byte = 0x40

	expandedModeTwoColor byte = 0x01
	expandedModeCutAtEnd byte = 0x08

	compressionNone byte = 0x00
)
