// internal/transport/candidate.go
package transport

import (
	"context"

	"print-server/internal/model"
	"print-server/internal/protocol"
	"print-server/internal/raster"
)

// Candidate is one way of reaching the printer
type Candidate interface {
	Address() model.DeviceAddress
	Attempt(ctx context.Context, job *raster.Job) error
}

// SenderCandidate delivers through a protocol sender at a fixed address
type SenderCandidate struct {
	address model.DeviceAddress
	sender  protocol.Sender
}

// NewSenderCandidate creates a candidate for address using sender
func NewSenderCandidate(address model.DeviceAddress, sender protocol.Sender) *SenderCandidate {
	return &SenderCandidate{
		address: address,
		sender:  sender,
	}
}

// Address implements Candidate
func (c *SenderCandidate) Address() model.DeviceAddress {
	return c.address
}

// Attempt implements Candidate
func (c *SenderCandidate) Attempt(ctx context.Context, job *raster.Job) error {
	return c.sender.Send(ctx, job.Data, c.address.Address)
}
