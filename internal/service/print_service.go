// internal/service/print_service.go
package service

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"print-server/internal/config"
	"print-server/internal/model"
	"print-server/internal/raster"
	"print-server/internal/transport"
	"print-server/internal/utils"
)

// DeviceLocator resolves the printer's current USB address
type DeviceLocator interface {
	Locate(ctx context.Context) (*model.DeviceAddress, bool)
}

// CandidatePlanner builds the ordered delivery candidates for a job
type CandidatePlanner interface {
	Plan(ctx context.Context, primary *model.DeviceAddress) []transport.Candidate
}

// ImagePreparer decodes and scales input images
type ImagePreparer interface {
	Prepare(data []byte) (*image.RGBA, error)
	PrepareFile(path string) (*image.RGBA, error)
}

// ImageAnnotator renders annotation text under an image
type ImageAnnotator interface {
	Annotate(img *image.RGBA, text string) (*image.RGBA, error)
}

// Deliverer sends a raster job through the first working candidate
type Deliverer interface {
	Deliver(ctx context.Context, job *raster.Job, candidates []transport.Candidate) (*transport.DeliveryReport, error)
}

// JobObserver receives every job state transition
type JobObserver interface {
	OnJobEvent(event model.JobEvent)
}

// PrintResult summarises a completed job
type PrintResult struct {
	JobID     uuid.UUID                 `json:"job_id"`
	Width     int                       `json:"width"`
	Height    int                       `json:"height"`
	Bytes     int                       `json:"bytes"`
	Delivered *model.DeviceAddress      `json:"delivered_via,omitempty"`
	Attempts  []transport.AttemptResult `json:"attempts"`
	Duration  time.Duration             `json:"duration"`
}

// PrinterStatus reports the routes currently available to the printer
type PrinterStatus struct {
	Model      string                `json:"model"`
	PaperWidth string                `json:"paper_width"`
	Red        bool                  `json:"red"`
	Primary    *model.DeviceAddress  `json:"primary,omitempty"`
	Candidates []model.DeviceAddress `json:"candidates"`
	Busy       bool                  `json:"busy"`
}

// Reachable reports whether at least one route to the printer exists
func (s *PrinterStatus) Reachable() bool {
	return s.Primary != nil || len(s.Candidates) > 0
}

// PrintService runs print jobs one at a time:
// device check, prepare, annotate, encode, deliver
type PrintService struct {
	config    *config.PrinterConfig
	locator   DeviceLocator
	planner   CandidatePlanner
	preparer  ImagePreparer
	annotator ImageAnnotator
	encoder   raster.Encoder
	engine    Deliverer
	observer  JobObserver
	logger    *utils.ServiceLogger

	// slot holds a token while a job owns the printer.
	slot chan struct{}
}

// NewPrintService creates a new print service instance
func NewPrintService(
	cfg *config.PrinterConfig,
	locator DeviceLocator,
	planner CandidatePlanner,
	preparer ImagePreparer,
	annotator ImageAnnotator,
	encoder raster.Encoder,
	engine Deliverer,
	logger *zap.Logger,
) *PrintService {
	return &PrintService{
		config:    cfg,
		locator:   locator,
		planner:   planner,
		preparer:  preparer,
		annotator: annotator,
		encoder:   encoder,
		engine:    engine,
		logger:    utils.NewServiceLogger(logger, "print-service"),
		slot:      make(chan struct{}, 1),
	}
}

// SetObserver registers the receiver of job events
func (s *PrintService) SetObserver(observer JobObserver) {
	s.observer = observer
}

// Print runs a job to completion. Jobs are serialized: a call blocks while
// another job is in flight, or until ctx is done.
func (s *PrintService) Print(ctx context.Context, job *model.PrintJob) (*PrintResult, error) {
	select {
	case s.slot <- struct{}{}:
	case <-ctx.Done():
		return nil, &StepError{Step: model.JobStateStart, Err: fmt.Errorf("waiting for printer: %w", ctx.Err())}
	}
	defer func() { <-s.slot }()

	jobLogger := utils.NewJobLogger(s.logger.Logger, job.ID.String())
	jobLogger.Start(zap.Bool("annotated", job.HasAnnotation()))
	s.publish(job, model.JobStateStart, nil)

	start := time.Now()
	result, err := s.run(ctx, job, jobLogger)
	if err != nil {
		s.publish(job, model.JobStateFailed, err)
		jobLogger.Error(err)
		return nil, err
	}

	result.Duration = time.Since(start)
	s.publish(job, model.JobStateDone, nil)
	jobLogger.Success(
		zap.Stringer("delivered_via", result.Delivered),
		zap.Int("attempts", len(result.Attempts)),
	)
	return result, nil
}

func (s *PrintService) run(ctx context.Context, job *model.PrintJob, jobLogger *utils.JobLogger) (*PrintResult, error) {
	enter := func(state model.JobState) error {
		if err := ctx.Err(); err != nil {
			return &StepError{Step: state, Err: err}
		}
		s.publish(job, state, nil)
		jobLogger.Step(string(state))
		return nil
	}

	if err := enter(model.JobStateDeviceCheck); err != nil {
		return nil, err
	}
	primary, found := s.locator.Locate(ctx)
	candidates := s.planner.Plan(ctx, primary)
	if !found && len(candidates) == 0 {
		return nil, &StepError{Step: model.JobStateDeviceCheck, Err: &DeviceUnavailableError{Model: s.config.Model}}
	}

	if err := enter(model.JobStatePrepare); err != nil {
		return nil, err
	}
	img, err := s.prepare(job)
	if err != nil {
		return nil, &StepError{Step: model.JobStatePrepare, Err: err}
	}

	if job.HasAnnotation() {
		if err := enter(model.JobStateAnnotate); err != nil {
			return nil, err
		}
		img, err = s.annotator.Annotate(img, job.Annotation)
		if err != nil {
			return nil, &StepError{Step: model.JobStateAnnotate, Err: err}
		}
	}

	if err := enter(model.JobStateEncode); err != nil {
		return nil, err
	}
	jobLogger.Logger().Info("Printing image",
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()),
	)
	rasterJob, err := s.encoder.Encode(img)
	if err != nil {
		return nil, &StepError{Step: model.JobStateEncode, Err: err}
	}

	if err := enter(model.JobStateDeliver); err != nil {
		return nil, err
	}
	report, err := s.engine.Deliver(ctx, rasterJob, candidates)
	if err != nil {
		return nil, &StepError{Step: model.JobStateDeliver, Err: err}
	}

	return &PrintResult{
		JobID:     job.ID,
		Width:     img.Bounds().Dx(),
		Height:    img.Bounds().Dy(),
		Bytes:     rasterJob.Size(),
		Delivered: report.Delivered,
		Attempts:  report.Attempts,
	}, nil
}

func (s *PrintService) prepare(job *model.PrintJob) (*image.RGBA, error) {
	if job.ImagePath != "" {
		return s.preparer.PrepareFile(job.ImagePath)
	}
	return s.preparer.Prepare(job.ImageData)
}

// Status reports the printer's current routes without printing
func (s *PrintService) Status(ctx context.Context) *PrinterStatus {
	primary, _ := s.locator.Locate(ctx)

	status := &PrinterStatus{
		Model:      s.config.Model,
		PaperWidth: s.config.PaperWidth,
		Red:        s.config.Red,
		Primary:    primary,
		Candidates: []model.DeviceAddress{},
		Busy:       len(s.slot) > 0,
	}

	for _, candidate := range s.planner.Plan(ctx, primary) {
		status.Candidates = append(status.Candidates, candidate.Address())
	}

	return status
}

func (s *PrintService) publish(job *model.PrintJob, state model.JobState, err error) {
	if s.observer == nil {
		return
	}

	event := model.JobEvent{
		JobID:     job.ID,
		State:     state,
		Timestamp: time.Now(),
	}
	if err != nil {
		event.Error = err.Error()
	}

	s.observer.OnJobEvent(event)
}
