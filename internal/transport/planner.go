// internal/transport/planner.go
package transport

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"print-server/internal/config"
	"print-server/internal/model"
	"print-server/internal/protocol"
)

// Planner builds the ordered candidate list for a job
type Planner struct {
	config  *config.PrinterConfig
	fs      afero.Fs
	senders map[model.Backend]protocol.Sender
	logger  *zap.Logger
}

// NewPlanner creates a planner. Backends without a sender are skipped.
func NewPlanner(cfg *config.PrinterConfig, fs afero.Fs, senders map[model.Backend]protocol.Sender, logger *zap.Logger) *Planner {
	return &Planner{
		config:  cfg,
		fs:      fs,
		senders: senders,
		logger:  logger.With(zap.String("component", "planner")),
	}
}

// Plan returns the candidates in delivery order: the located USB address,
// then every kernel printer device in directory order, then configured
// network addresses and serial ports
func (p *Planner) Plan(ctx context.Context, primary *model.DeviceAddress) []Candidate {
	var candidates []Candidate

	if primary != nil {
		candidates = p.appendCandidate(candidates, *primary)
	}

	for _, path := range p.KernelDevices() {
		candidates = p.appendCandidate(candidates, model.DeviceAddress{
			Backend: model.BackendLinuxKernel,
			Address: path,
		})
	}

	for _, address := range p.config.NetworkAddresses {
		candidates = p.appendCandidate(candidates, model.DeviceAddress{
			Backend: model.BackendNetwork,
			Address: address,
		})
	}

	for _, port := range p.config.SerialPorts {
		candidates = p.appendCandidate(candidates, model.DeviceAddress{
			Backend: model.BackendSerial,
			Address: port,
		})
	}

	p.logger.Debug("Delivery candidates planned", zap.Int("count", len(candidates)))
	return candidates
}

// KernelDevices lists printer device files in the configured directory. A
// missing directory yields no devices.
func (p *Planner) KernelDevices() []string {
	if p.config.DeviceDir == "" {
		return nil
	}

	entries, err := afero.ReadDir(p.fs, p.config.DeviceDir)
	if err != nil {
		p.logger.Debug("Device directory not readable",
			zap.String("dir", p.config.DeviceDir),
			zap.Error(err),
		)
		return nil
	}

	var devices []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), p.config.DevicePrefix) {
			continue
		}
		devices = append(devices, filepath.Join(p.config.DeviceDir, entry.Name()))
	}
	return devices
}

func (p *Planner) appendCandidate(candidates []Candidate, address model.DeviceAddress) []Candidate {
	sender, ok := p.senders[address.Backend]
	if !ok {
		p.logger.Warn("No sender for backend, skipping candidate", zap.Stringer("address", address))
		return candidates
	}
	return append(candidates, NewSenderCandidate(address, sender))
}
