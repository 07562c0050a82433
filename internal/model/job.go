// internal/model/job.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// JobState represents a step of the print pipeline
type JobState string

const (
	JobStateStart       JobState = "start"
	JobStateDeviceCheck JobState = "device_check"
	JobStatePrepare     JobState = "prepare"
	JobStateAnnotate    JobState = "annotate"
	JobStateEncode      JobState = "encode"
	JobStateDeliver     JobState = "deliver"
	JobStateDone        JobState = "done"
	JobStateFailed      JobState = "failed"
)

// IsTerminal reports whether no further transitions follow this state
func (s JobState) IsTerminal() bool {
	return s == JobStateDone || s == JobStateFailed
}

// PrintJob is a single request to print an image. It lives only for the
// duration of the job.
type PrintJob struct {
	ID         uuid.UUID `json:"id"`
	ImageData  []byte    `json:"-"`
	ImagePath  string    `json:"image_path,omitempty"`
	Annotation string    `json:"annotation,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewPrintJob creates a job for in-memory image bytes
func NewPrintJob(data []byte, annotation string) *PrintJob {
	return &PrintJob{
		ID:         uuid.New(),
		ImageData:  data,
		Annotation: annotation,
		CreatedAt:  time.Now(),
	}
}

// NewFilePrintJob creates a job for an image stored on disk
func NewFilePrintJob(path string, annotation string) *PrintJob {
	return &PrintJob{
		ID:         uuid.New(),
		ImagePath:  path,
		Annotation: annotation,
		CreatedAt:  time.Now(),
	}
}

// HasAnnotation reports whether the job carries annotation text
func (j *PrintJob) HasAnnotation() bool {
	return j.Annotation != ""
}

// JobEvent is published on every state transition of a job
type JobEvent struct {
	JobID     uuid.UUID `json:"job_id"`
	State     JobState  `json:"state"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
