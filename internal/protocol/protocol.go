// internal/protocol/protocol.go
package protocol

import "context"

// DeviceProtocol represents a communication channel to the printer
type DeviceProtocol interface {
	// Connection lifecycle
	Open(ctx context.Context) error
	Close() error

	// Data communication
	Write(ctx context.Context, data []byte) error
	Read(ctx context.Context, maxBytes int) ([]byte, error)
}

// Sender transmits an encoded raster job to the device at address. A nil
// return means the transport accepted the whole job.
type Sender interface {
	Send(ctx context.Context, data []byte, address string) error
}

// StatusReader is implemented by connections that can report whether the
// device has a readable status channel
type StatusReader interface {
	CanReadStatus() bool
}
