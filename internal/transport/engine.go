// internal/transport/engine.go
package transport

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"print-server/internal/model"
	"print-server/internal/raster"
)

// AttemptResult records one delivery attempt
type AttemptResult struct {
	Candidate model.DeviceAddress `json:"candidate"`
	Duration  time.Duration       `json:"duration"`
	Err       error               `json:"-"`
	Error     string              `json:"error,omitempty"`
}

// DeliveryReport describes how a job was delivered
type DeliveryReport struct {
	Delivered *model.DeviceAddress `json:"delivered,omitempty"`
	Attempts  []AttemptResult      `json:"attempts"`
}

// DeliveryError is returned when no candidate accepted the job
type DeliveryError struct {
	Attempts []AttemptResult
	Err      error
}

func (e *DeliveryError) Error() string {
	if len(e.Attempts) == 0 && e.Err == nil {
		return "printing failed: no delivery candidates"
	}
	return fmt.Sprintf("printing failed: no backend was able to handle the task: %v", e.combined())
}

// Unwrap returns every per-candidate failure
func (e *DeliveryError) Unwrap() []error {
	return multierr.Errors(e.combined())
}

// Reasons returns a human readable failure reason per attempted candidate
func (e *DeliveryError) Reasons() []string {
	reasons := make([]string, 0, len(e.Attempts)+1)
	for _, attempt := range e.Attempts {
		reasons = append(reasons, fmt.Sprintf("%s: %v", attempt.Candidate, attempt.Err))
	}
	if e.Err != nil {
		reasons = append(reasons, e.Err.Error())
	}
	return reasons
}

func (e *DeliveryError) combined() error {
	var err error
	for _, attempt := range e.Attempts {
		err = multierr.Append(err, fmt.Errorf("%s: %w", attempt.Candidate, attempt.Err))
	}
	return multierr.Append(err, e.Err)
}

// Engine tries candidates in order until one accepts the job
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a new delivery engine
func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{
		logger: logger.With(zap.String("component", "delivery")),
	}
}

// Deliver attempts each candidate in order and stops at the first success.
// A failed candidate is logged and the next one is tried; only exhausting
// the list is an error.
func (e *Engine) Deliver(ctx context.Context, job *raster.Job, candidates []Candidate) (*DeliveryReport, error) {
	report := &DeliveryReport{}

	if len(candidates) == 0 {
		return report, &DeliveryError{}
	}

	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return report, &DeliveryError{Attempts: report.Attempts, Err: fmt.Errorf("delivery aborted: %w", err)}
		}

		address := candidate.Address()
		start := time.Now()
		err := candidate.Attempt(ctx, job)

		result := AttemptResult{
			Candidate: address,
			Duration:  time.Since(start),
			Err:       err,
		}

		if err == nil {
			report.Attempts = append(report.Attempts, result)
			report.Delivered = &address

			e.logger.Debug("Printing succeeded",
				zap.String("backend", string(address.Backend)),
				zap.String("address", address.Address),
				zap.Duration("duration", result.Duration),
				zap.Int("attempt", len(report.Attempts)),
			)
			return report, nil
		}

		result.Error = err.Error()
		report.Attempts = append(report.Attempts, result)

		e.logger.Warn("Delivery attempt failed",
			zap.String("backend", string(address.Backend)),
			zap.String("address", address.Address),
			zap.Error(err),
		)
	}

	return report, &DeliveryError{Attempts: report.Attempts}
}
