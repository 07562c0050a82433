package transport

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"print-server/internal/config"
	"print-server/internal/model"
	"print-server/internal/protocol"
	"print-server/internal/raster"
)

type fakeCandidate struct {
	address model.DeviceAddress
	err     error
	calls   *[]string
}

func (f *fakeCandidate) Address() model.DeviceAddress { return f.address }

func (f *fakeCandidate) Attempt(ctx context.Context, job *raster.Job) error {
	*f.calls = append(*f.calls, f.address.Address)
	return f.err
}

func candidates(calls *[]string, outcomes ...error) []Candidate {
	list := make([]Candidate, len(outcomes))
	for i, err := range outcomes {
		list[i] = &fakeCandidate{
			address: model.DeviceAddress{Backend: model.BackendLinuxKernel, Address: fmt.Sprintf("/dev/usb/lp%d", i)},
			err:     err,
			calls:   calls,
		}
	}
	return list
}

type recordingSender struct {
	addresses []string
}

func (r *recordingSender) Send(ctx context.Context, data []byte, address string) error {
	r.addresses = append(r.addresses, address)
	return nil
}

var testJob = &raster.Job{Data: []byte{0x1B, 0x40}}

func TestDeliver_StopsAtFirstSuccess(t *testing.T) {
	fail := errors.New("timeout")

	tests := []struct {
		name     string
		outcomes []error
		want     int
	}{
		{"first succeeds", []error{nil, nil, nil}, 1},
		{"second succeeds", []error{fail, nil, nil}, 2},
		{"last succeeds", []error{fail, fail, fail, nil}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []string
			report, err := NewEngine(zap.NewNop()).Deliver(context.Background(), testJob, candidates(&calls, tt.outcomes...))
			require.NoError(t, err)

			assert.Len(t, calls, tt.want)
			assert.Len(t, report.Attempts, tt.want)
			require.NotNil(t, report.Delivered)
			assert.Equal(t, fmt.Sprintf("/dev/usb/lp%d", tt.want-1), report.Delivered.Address)
		})
	}
}

func TestDeliver_EmptyCandidateList(t *testing.T) {
	report, err := NewEngine(zap.NewNop()).Deliver(context.Background(), testJob, nil)

	var deliveryErr *DeliveryError
	require.True(t, errors.As(err, &deliveryErr))
	assert.Empty(t, deliveryErr.Attempts)
	assert.Empty(t, report.Attempts)
	assert.Nil(t, report.Delivered)
}

func TestDeliver_Exhaustion(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	errBusy := errors.New("resource busy")
	errNoDevice := errors.New("no such device")

	var calls []string
	_, err := NewEngine(zap.New(core)).Deliver(context.Background(), testJob, candidates(&calls, errBusy, errNoDevice))

	var deliveryErr *DeliveryError
	require.True(t, errors.As(err, &deliveryErr))
	assert.Len(t, deliveryErr.Attempts, 2)
	assert.Len(t, calls, 2)

	assert.ErrorIs(t, err, errBusy)
	assert.ErrorIs(t, err, errNoDevice)
	assert.Equal(t, []string{
		"linux_kernel:/dev/usb/lp0: resource busy",
		"linux_kernel:/dev/usb/lp1: no such device",
	}, deliveryErr.Reasons())

	assert.Equal(t, 2, logs.FilterMessage("Delivery attempt failed").Len())
}

func TestDeliver_CancelledBetweenAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls []string
	list := candidates(&calls, errors.New("io error"), nil)
	list[0] = &cancellingCandidate{Candidate: list[0], cancel: cancel}

	_, err := NewEngine(zap.NewNop()).Deliver(ctx, testJob, list)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, calls, 1)
}

type cancellingCandidate struct {
	Candidate
	cancel context.CancelFunc
}

func (c *cancellingCandidate) Attempt(ctx context.Context, job *raster.Job) error {
	err := c.Candidate.Attempt(ctx, job)
	c.cancel()
	return err
}

func TestPlanner_Order(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, name := range []string{"lp1", "lp0", "hiddev0"} {
		require.NoError(t, afero.WriteFile(fs, "/dev/usb/"+name, nil, 0o660))
	}

	cfg := &config.PrinterConfig{
		DeviceDir:        "/dev/usb",
		DevicePrefix:     "lp",
		NetworkAddresses: []string{"tcp://10.0.0.5:9100"},
		SerialPorts:      []string{"/dev/ttyUSB0"},
	}

	senders := map[model.Backend]protocol.Sender{
		model.BackendUSB:         &recordingSender{},
		model.BackendLinuxKernel: &recordingSender{},
		model.BackendNetwork:     &recordingSender{},
		model.BackendSerial:      &recordingSender{},
	}

	primary := &model.DeviceAddress{Backend: model.BackendUSB, Address: "usb://0x04f9:0x209b"}
	plan := NewPlanner(cfg, fs, senders, zap.NewNop()).Plan(context.Background(), primary)

	var got []string
	for _, c := range plan {
		got = append(got, c.Address().String())
	}
	assert.Equal(t, []string{
		"usb:usb://0x04f9:0x209b",
		"linux_kernel:/dev/usb/lp0",
		"linux_kernel:/dev/usb/lp1",
		"network:tcp://10.0.0.5:9100",
		"serial:/dev/ttyUSB0",
	}, got)
}

func TestPlanner_NoPrimaryNoDevices(t *testing.T) {
	cfg := &config.PrinterConfig{DeviceDir: "/dev/usb", DevicePrefix: "lp"}
	senders := map[model.Backend]protocol.Sender{model.BackendLinuxKernel: &recordingSender{}}

	planner := NewPlanner(cfg, afero.NewMemMapFs(), senders, zap.NewNop())
	assert.Empty(t, planner.Plan(context.Background(), nil))
	assert.Empty(t, planner.KernelDevices())
}

func TestPlanner_SkipsBackendsWithoutSender(t *testing.T) {
	cfg := &config.PrinterConfig{SerialPorts: []string{"/dev/ttyUSB0"}}

	primary := &model.DeviceAddress{Backend: model.BackendUSB, Address: "usb://0x04f9:0x2042"}
	plan := NewPlanner(cfg, afero.NewMemMapFs(), map[model.Backend]protocol.Sender{}, zap.NewNop()).Plan(context.Background(), primary)
	assert.Empty(t, plan)
}

func TestSenderCandidate_AttemptUsesAddress(t *testing.T) {
	sender := &recordingSender{}
	c := NewSenderCandidate(model.DeviceAddress{Backend: model.BackendLinuxKernel, Address: "/dev/usb/lp0"}, sender)

	require.NoError(t, c.Attempt(context.Background(), testJob))
	assert.Equal(t, []string{"/dev/usb/lp0"}, sender.addresses)
}
