// internal/protocol/kernel_connection.go
package protocol

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// KernelConnection implements DeviceProtocol over a printer character device
// exposed by the usblp driver
type KernelConnection struct {
	config *KernelConfig
	fs     afero.Fs
	file   afero.File
	logger *zap.Logger
	mutex  sync.RWMutex
	isOpen bool
}

// NewKernelConnection creates a new kernel device connection
func NewKernelConnection(config *KernelConfig, fs afero.Fs, logger *zap.Logger) *KernelConnection {
	return &KernelConnection{
		config: config,
		fs:     fs,
		logger: logger.With(
			zap.String("protocol", "linux_kernel"),
			zap.String("path", config.Path),
		),
	}
}

// Open opens the device file for reading and writing
func (kc *KernelConnection) Open(ctx context.Context) error {
	kc.mutex.Lock()
	defer kc.mutex.Unlock()

	if kc.isOpen {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	file, err := kc.fs.OpenFile(kc.config.Path, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", kc.config.Path, err)
	}

	kc.file = file
	kc.isOpen = true

	kc.logger.Debug("Kernel device opened")
	return nil
}

// Close closes the device file
func (kc *KernelConnection) Close() error {
	kc.mutex.Lock()
	defer kc.mutex.Unlock()

	if !kc.isOpen || kc.file == nil {
		return nil
	}

	err := kc.file.Close()
	kc.file = nil
	kc.isOpen = false

	if err != nil {
		return fmt.Errorf("failed to close %s: %w", kc.config.Path, err)
	}
	return nil
}

// CanReadStatus reports false: reads on usblp block until the printer
// answers, and an afero file cannot be polled
func (kc *KernelConnection) CanReadStatus() bool {
	return false
}

// Write writes data to the device file
func (kc *KernelConnection) Write(ctx context.Context, data []byte) error {
	kc.mutex.RLock()
	defer kc.mutex.RUnlock()

	if !kc.isOpen || kc.file == nil {
		return fmt.Errorf("kernel device not open")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	n, err := kc.file.Write(data)
	if err != nil {
		return fmt.Errorf("failed to write to %s: %w", kc.config.Path, err)
	}

	if n != len(data) {
		return fmt.Errorf("incomplete write: wrote %d of %d bytes", n, len(data))
	}

	kc.logger.Debug("Kernel device write completed", zap.Int("bytes", len(data)))
	return nil
}

// Read reads from the device file
func (kc *KernelConnection) Read(ctx context.Context, maxBytes int) ([]byte, error) {
	kc.mutex.RLock()
	defer kc.mutex.RUnlock()

	if !kc.isOpen || kc.file == nil {
		return nil, fmt.Errorf("kernel device not open")
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	buffer := make([]byte, maxBytes)
	n, err := kc.file.Read(buffer)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read from %s: %w", kc.config.Path, err)
	}

	return buffer[:n], nil
}
