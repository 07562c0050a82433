// internal/raster/status.go
package raster

import (
	"errors"
	"fmt"
	"strings"
)

// StatusSize is the length of a status reply
const StatusSize = 32

// StatusType is byte 18 of a status reply
type StatusType byte

const (
	StatusReply         StatusType = 0x00
	StatusPrintingDone  StatusType = 0x01
	StatusErrorOccurred StatusType = 0x02
	StatusTurnedOff     StatusType = 0x04
	StatusNotification  StatusType = 0x05
	StatusPhaseChange   StatusType = 0x06
)

func (t StatusType) String() string {
	switch t {
	case StatusReply:
		return "reply"
	case StatusPrintingDone:
		return "printing_completed"
	case StatusErrorOccurred:
		return "error_occurred"
	case StatusTurnedOff:
		return "turned_off"
	case StatusNotification:
		return "notification"
	case StatusPhaseChange:
		return "phase_change"
	default:
		return fmt.Sprintf("unknown(0x%02x)", byte(t))
	}
}

var errorInfo1 = []string{
	"no media",
	"end of media",
	"cutter jam",
	"weak batteries",
	"printer in use",
	"printer turned off",
	"high-voltage adapter",
	"fan motor error",
}

var errorInfo2 = []string{
	"replace media",
	"expansion buffer full",
	"communication error",
	"communication buffer full",
	"cover open",
	"overheating",
	"black marking not detected",
	"system error",
}

// ErrInvalidStatus is returned for replies that are not a QL status frame
var ErrInvalidStatus = errors.New("invalid printer status reply")

// Status is a decoded status reply
type Status struct {
	Type        StatusType `json:"type"`
	Phase       byte       `json:"phase"`
	MediaWidth  int        `json:"media_width_mm"`
	MediaLength int        `json:"media_length_mm"`
	MediaType   byte       `json:"media_type"`
	Errors      []string   `json:"errors,omitempty"`
}

// ParseStatus decodes a 32 byte status reply
func ParseStatus(data []byte) (*Status, error) {
	if len(data) < StatusSize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidStatus, len(data))
	}
	if data[0] != 0x80 || data[1] != 0x20 || data[2] != 0x42 {
		return nil, fmt.Errorf("%w: bad header % x", ErrInvalidStatus, data[:3])
	}

	status := &Status{
		Type:        StatusType(data[18]),
		Phase:       data[19],
		MediaWidth:  int(data[10]),
		MediaLength: int(data[17]),
		MediaType:   data[11],
	}
	status.Errors = append(status.Errors, decodeBits(data[8], errorInfo1)...)
	status.Errors = append(status.Errors, decodeBits(data[9], errorInfo2)...)

	return status, nil
}

// Completed reports whether the printer finished the job
func (s *Status) Completed() bool {
	return s.Type == StatusPrintingDone
}

// Err returns the printer reported error, if any
func (s *Status) Err() error {
	if s.Type != StatusErrorOccurred && len(s.Errors) == 0 {
		return nil
	}
	if len(s.Errors) == 0 {
		return errors.New("printer reported an error")
	}
	return fmt.Errorf("printer reported: %s", strings.Join(s.Errors, ", "))
}

func decodeBits(b byte, names []string) []string {
	var out []string
	for i, name := range names {
		if b&(1<<uint(i)) != 0 {
			out = append(out, name)
		}
	}
	return out
}
