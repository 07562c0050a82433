package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"print-server/internal/config"
	"print-server/internal/imaging"
	"print-server/internal/model"
	"print-server/internal/protocol"
	"print-server/internal/raster"
	"print-server/internal/transport"
)

var primaryAddress = &model.DeviceAddress{Backend: model.BackendUSB, Address: "usb://0x04f9:0x209b"}

type fakeLocator struct {
	address *model.DeviceAddress
	calls   int
}

func (f *fakeLocator) Locate(ctx context.Context) (*model.DeviceAddress, bool) {
	f.calls++
	return f.address, f.address != nil
}

type countingPreparer struct {
	ImagePreparer
	calls int
}

func (c *countingPreparer) Prepare(data []byte) (*image.RGBA, error) {
	c.calls++
	return c.ImagePreparer.Prepare(data)
}

type recordingEncoder struct {
	images []image.Image
}

func (r *recordingEncoder) Encode(img image.Image) (*raster.Job, error) {
	r.images = append(r.images, img)
	return &raster.Job{Data: []byte{0x1B, 0x40}, Width: img.Bounds().Dx(), Lines: img.Bounds().Dy()}, nil
}

type scriptedSender struct {
	err   error
	mu    sync.Mutex
	calls []string
}

func (s *scriptedSender) Send(ctx context.Context, data []byte, address string) error {
	s.mu.Lock()
	s.calls = append(s.calls, address)
	s.mu.Unlock()
	return s.err
}

type eventRecorder struct {
	mu     sync.Mutex
	states []model.JobState
}

func (e *eventRecorder) OnJobEvent(event model.JobEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.states = append(e.states, event.State)
}

type harness struct {
	cfg      *config.PrinterConfig
	fs       afero.Fs
	locator  *fakeLocator
	preparer *countingPreparer
	encoder  *recordingEncoder
	usb      *scriptedSender
	kernel   *scriptedSender
	events   *eventRecorder
	service  *PrintService
}

func newHarness(t *testing.T, primary *model.DeviceAddress, kernelDevices ...string) *harness {
	t.Helper()

	h := &harness{
		cfg: &config.PrinterConfig{
			Model:        "QL-800",
			PaperWidth:   "62",
			DeviceDir:    "/dev/usb",
			DevicePrefix: "lp",
		},
		fs:      afero.NewMemMapFs(),
		locator: &fakeLocator{address: primary},
		encoder: &recordingEncoder{},
		usb:     &scriptedSender{},
		kernel:  &scriptedSender{},
		events:  &eventRecorder{},
	}

	for _, name := range kernelDevices {
		require.NoError(t, afero.WriteFile(h.fs, "/dev/usb/"+name, nil, 0o660))
	}

	h.preparer = &countingPreparer{ImagePreparer: imaging.NewPreparer(h.cfg, h.fs, zap.NewNop())}

	annotator, err := imaging.NewAnnotator(&config.AnnotationConfig{
		FontSize:    24,
		WrapRatio:   0.95,
		Margin:      5,
		LineSpacing: 4,
	}, h.fs, zap.NewNop())
	require.NoError(t, err)

	senders := map[model.Backend]protocol.Sender{
		model.BackendUSB:         h.usb,
		model.BackendLinuxKernel: h.kernel,
	}
	planner := transport.NewPlanner(h.cfg, h.fs, senders, zap.NewNop())

	h.service = NewPrintService(h.cfg, h.locator, planner, h.preparer, annotator, h.encoder, transport.NewEngine(zap.NewNop()), zap.NewNop())
	h.service.SetObserver(h.events)
	return h
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0x40, A: 0xff})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPrint_ScenarioA_PreparesToPaperWidth(t *testing.T) {
	h := newHarness(t, primaryAddress)

	result, err := h.service.Print(context.Background(), model.NewPrintJob(pngBytes(t, 600, 400), ""))
	require.NoError(t, err)

	assert.Equal(t, 696, result.Width)
	assert.Equal(t, 464, result.Height)
	require.Len(t, h.encoder.images, 1)
	assert.Equal(t, image.Rect(0, 0, 696, 464), h.encoder.images[0].Bounds())

	assert.Equal(t, []string{"usb://0x04f9:0x209b"}, h.usb.calls)
	assert.Equal(t, []model.JobState{
		model.JobStateStart,
		model.JobStateDeviceCheck,
		model.JobStatePrepare,
		model.JobStateEncode,
		model.JobStateDeliver,
		model.JobStateDone,
	}, h.events.states)
}

func TestPrint_ScenarioB_AnnotationGrowsImage(t *testing.T) {
	h := newHarness(t, primaryAddress)

	annotator, err := imaging.NewAnnotator(&config.AnnotationConfig{FontSize: 24, WrapRatio: 0.95, Margin: 5, LineSpacing: 4}, h.fs, zap.NewNop())
	require.NoError(t, err)
	layout := annotator.Layout("Lot 42", 696)

	result, err := h.service.Print(context.Background(), model.NewPrintJob(pngBytes(t, 600, 400), "Lot 42"))
	require.NoError(t, err)

	assert.Equal(t, 696, result.Width)
	assert.Equal(t, 464+layout.BlockHeight+5, result.Height)
	assert.Contains(t, h.events.states, model.JobStateAnnotate)
}

func TestPrint_ScenarioC_NoRouteFailsBeforeImageWork(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.service.Print(context.Background(), model.NewPrintJob(pngBytes(t, 600, 400), "Lot 42"))
	require.Error(t, err)

	var unavailable *DeviceUnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.Equal(t, "QL-800", unavailable.Model)

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, model.JobStateDeviceCheck, stepErr.Step)

	assert.Zero(t, h.preparer.calls)
	assert.Empty(t, h.encoder.images)
	assert.Equal(t, model.JobStateFailed, h.events.states[len(h.events.states)-1])
}

func TestPrint_ScenarioD_FallsBackToKernelDevice(t *testing.T) {
	h := newHarness(t, primaryAddress, "lp0", "lp1")
	h.usb.err = errors.New("usb timeout")

	result, err := h.service.Print(context.Background(), model.NewPrintJob(pngBytes(t, 600, 400), ""))
	require.NoError(t, err)

	assert.Len(t, result.Attempts, 2)
	require.NotNil(t, result.Delivered)
	assert.Equal(t, model.DeviceAddress{Backend: model.BackendLinuxKernel, Address: "/dev/usb/lp0"}, *result.Delivered)
	assert.Equal(t, []string{"usb://0x04f9:0x209b"}, h.usb.calls)
	assert.Equal(t, []string{"/dev/usb/lp0"}, h.kernel.calls)
}

func TestPrint_NoPrimaryButKernelDevice(t *testing.T) {
	h := newHarness(t, nil, "lp0")

	result, err := h.service.Print(context.Background(), model.NewPrintJob(pngBytes(t, 100, 50), ""))
	require.NoError(t, err)
	assert.Len(t, result.Attempts, 1)
	assert.Empty(t, h.usb.calls)
}

func TestPrint_AllCandidatesFail(t *testing.T) {
	h := newHarness(t, primaryAddress, "lp0")
	h.usb.err = errors.New("usb timeout")
	h.kernel.err = errors.New("device busy")

	_, err := h.service.Print(context.Background(), model.NewPrintJob(pngBytes(t, 100, 50), ""))

	var deliveryErr *transport.DeliveryError
	require.True(t, errors.As(err, &deliveryErr))
	assert.Len(t, deliveryErr.Attempts, 2)

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, model.JobStateDeliver, stepErr.Step)
}

func TestPrint_DecodeError(t *testing.T) {
	h := newHarness(t, primaryAddress)

	_, err := h.service.Print(context.Background(), model.NewPrintJob([]byte("GIF89a broken"), ""))

	var decodeErr *imaging.DecodeError
	require.True(t, errors.As(err, &decodeErr))

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, model.JobStatePrepare, stepErr.Step)
	assert.Empty(t, h.usb.calls)
}

func TestPrint_FileJob(t *testing.T) {
	h := newHarness(t, primaryAddress)
	require.NoError(t, afero.WriteFile(h.fs, "/tmp/label.png", pngBytes(t, 348, 174), 0o644))

	result, err := h.service.Print(context.Background(), model.NewFilePrintJob("/tmp/label.png", ""))
	require.NoError(t, err)
	assert.Equal(t, 348, result.Height)
}

func TestPrint_CancelledContext(t *testing.T) {
	h := newHarness(t, primaryAddress)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.service.Print(ctx, model.NewPrintJob(pngBytes(t, 10, 10), ""))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, h.usb.calls)
}

type blockingSender struct {
	active  int32
	overlap int32
	calls   int32
}

func (b *blockingSender) Send(ctx context.Context, data []byte, address string) error {
	if atomic.AddInt32(&b.active, 1) > 1 {
		atomic.StoreInt32(&b.overlap, 1)
	}
	atomic.AddInt32(&b.calls, 1)
	time.Sleep(10 * time.Millisecond)
	atomic.AddInt32(&b.active, -1)
	return nil
}

func TestPrint_JobsAreSerialized(t *testing.T) {
	h := newHarness(t, primaryAddress)
	sender := &blockingSender{}
	planner := transport.NewPlanner(h.cfg, h.fs, map[model.Backend]protocol.Sender{model.BackendUSB: sender}, zap.NewNop())
	h.service.planner = planner
	h.service.encoder = &lockedEncoder{}

	data := pngBytes(t, 60, 40)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.service.Print(context.Background(), model.NewPrintJob(data, ""))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(5), atomic.LoadInt32(&sender.calls))
	assert.Zero(t, atomic.LoadInt32(&sender.overlap))
}

type lockedEncoder struct{}

func (lockedEncoder) Encode(img image.Image) (*raster.Job, error) {
	return &raster.Job{Data: []byte{0}}, nil
}

func TestPrint_WaitingJobHonoursContext(t *testing.T) {
	h := newHarness(t, primaryAddress)
	h.service.slot <- struct{}{}
	defer func() { <-h.service.slot }()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := h.service.Print(ctx, model.NewPrintJob(pngBytes(t, 10, 10), ""))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, h.locator.calls)
}

func TestStatus(t *testing.T) {
	h := newHarness(t, primaryAddress, "lp0")

	status := h.service.Status(context.Background())
	assert.True(t, status.Reachable())
	assert.Equal(t, primaryAddress, status.Primary)
	assert.Len(t, status.Candidates, 2)
	assert.False(t, status.Busy)

	h = newHarness(t, nil)
	status = h.service.Status(context.Background())
	assert.False(t, status.Reachable())
	assert.Empty(t, status.Candidates)
}
