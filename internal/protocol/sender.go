// internal/protocol/sender.go
package protocol

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"print-server/internal/model"
	"print-server/internal/raster"
)

// Dialer creates an unopened connection for an address
type Dialer func(address string) (DeviceProtocol, error)

// ConnectionSender delivers a job over a fresh connection per call: open,
// write, wait for the completion status when the channel supports it, close
type ConnectionSender struct {
	backend       model.Backend
	dial          Dialer
	statusTimeout time.Duration
	pollInterval  time.Duration
	logger        *zap.Logger
}

// NewConnectionSender creates a sender for backend using dial
func NewConnectionSender(backend model.Backend, dial Dialer, statusTimeout time.Duration, logger *zap.Logger) *ConnectionSender {
	return &ConnectionSender{
		backend:       backend,
		dial:          dial,
		statusTimeout: statusTimeout,
		pollInterval:  50 * time.Millisecond,
		logger:        logger.With(zap.String("backend", string(backend))),
	}
}

// Backend returns the backend this sender serves
func (s *ConnectionSender) Backend() model.Backend {
	return s.backend
}

// Send implements Sender
func (s *ConnectionSender) Send(ctx context.Context, data []byte, address string) error {
	conn, err := s.dial(address)
	if err != nil {
		return err
	}

	if err := conn.Open(ctx); err != nil {
		return err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			s.logger.Warn("Failed to close connection",
				zap.String("address", address),
				zap.Error(err),
			)
		}
	}()

	if err := conn.Write(ctx, data); err != nil {
		return err
	}

	reader, ok := conn.(StatusReader)
	if !ok || !reader.CanReadStatus() || s.statusTimeout <= 0 {
		return nil
	}

	return s.awaitCompletion(ctx, conn, address)
}

// awaitCompletion reads status frames until the printer reports completion
// or an error. Running out of time is not a failure: the job was written.
func (s *ConnectionSender) awaitCompletion(ctx context.Context, conn DeviceProtocol, address string) error {
	ctx, cancel := context.WithTimeout(ctx, s.statusTimeout)
	defer cancel()

	var pending []byte
	for {
		chunk, err := conn.Read(ctx, raster.StatusSize)
		if err != nil {
			s.logger.Debug("No completion status received",
				zap.String("address", address),
				zap.Error(err),
			)
			return nil
		}

		if len(chunk) == 0 {
			select {
			case <-ctx.Done():
				s.logger.Debug("Timed out waiting for completion status", zap.String("address", address))
				return nil
			case <-time.After(s.pollInterval):
			}
			continue
		}

		pending = append(pending, chunk...)
		for len(pending) >= raster.StatusSize {
			status, err := raster.ParseStatus(pending[:raster.StatusSize])
			pending = pending[raster.StatusSize:]
			if err != nil {
				s.logger.Debug("Ignoring malformed status", zap.Error(err))
				pending = nil
				break
			}

			s.logger.Debug("Printer status",
				zap.String("address", address),
				zap.Stringer("type", status.Type),
				zap.Strings("errors", status.Errors),
			)

			if err := status.Err(); err != nil {
				return fmt.Errorf("job rejected: %w", err)
			}
			if status.Completed() {
				return nil
			}
		}
	}
}
