// internal/service/errors.go
package service

import (
	"fmt"

	"print-server/internal/model"
)

// DeviceUnavailableError is returned when there is no plausible route to the
// printer, before any image work is done
type DeviceUnavailableError struct {
	Model string
}

func (e *DeviceUnavailableError) Error() string {
	return fmt.Sprintf("printer %s disconnected: no USB address and no fallback devices, task dropped", e.Model)
}

// StepError records the pipeline step in which a job failed
type StepError struct {
	Step model.JobState
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
