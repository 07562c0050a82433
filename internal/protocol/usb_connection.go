// internal/protocol/usb_connection.go
package protocol

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/gousb"
	"go.uber.org/zap"
)

// USBConnection implements DeviceProtocol over libusb bulk endpoints
type USBConnection struct {
	config   *USBConfig
	ctx      *gousb.Context
	device   *gousb.Device
	intf     *gousb.Interface
	done     func()
	outEndpt *gousb.OutEndpoint
	inEndpt  *gousb.InEndpoint
	logger   *zap.Logger
	mutex    sync.RWMutex
	isOpen   bool
}

// NewUSBConnection creates a new USB connection
func NewUSBConnection(config *USBConfig, logger *zap.Logger) *USBConnection {
	return &USBConnection{
		config: config,
		logger: logger.With(
			zap.String("protocol", "usb"),
			zap.String("vendor_id", config.VendorID),
			zap.String("product_id", config.ProductID),
		),
	}
}

// Open claims the printer's default interface and its bulk endpoints
func (uc *USBConnection) Open(ctx context.Context) error {
	uc.mutex.Lock()
	defer uc.mutex.Unlock()

	if uc.isOpen {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	vendorID, err := parseHexID(uc.config.VendorID)
	if err != nil {
		return fmt.Errorf("invalid vendor ID: %w", err)
	}

	productID, err := parseHexID(uc.config.ProductID)
	if err != nil {
		return fmt.Errorf("invalid product ID: %w", err)
	}

	uc.ctx = gousb.NewContext()
	if uc.config.Debug {
		uc.ctx.Debug(3)
	}

	device, err := uc.findAndOpenDevice(vendorID, productID)
	if err != nil {
		uc.ctx.Close()
		return fmt.Errorf("failed to find USB device: %w", err)
	}

	// The usblp kernel driver usually owns the interface.
	if err := device.SetAutoDetach(true); err != nil {
		uc.logger.Debug("Auto detach not supported", zap.Error(err))
	}

	intf, done, err := device.DefaultInterface()
	if err != nil {
		device.Close()
		uc.ctx.Close()
		return fmt.Errorf("failed to claim interface: %w", err)
	}

	outNum, inNum := -1, -1
	for _, ep := range intf.Setting.Endpoints {
		if ep.TransferType != gousb.TransferTypeBulk {
			continue
		}
		switch ep.Direction {
		case gousb.EndpointDirectionOut:
			if outNum < 0 {
				outNum = ep.Number
			}
		case gousb.EndpointDirectionIn:
			if inNum < 0 {
				inNum = ep.Number
			}
		}
	}

	if outNum < 0 {
		done()
		device.Close()
		uc.ctx.Close()
		return fmt.Errorf("no bulk out endpoint on %s", intf)
	}

	outEndpt, err := intf.OutEndpoint(outNum)
	if err != nil {
		done()
		device.Close()
		uc.ctx.Close()
		return fmt.Errorf("failed to get out endpoint: %w", err)
	}

	var inEndpt *gousb.InEndpoint
	if inNum >= 0 {
		inEndpt, err = intf.InEndpoint(inNum)
		if err != nil {
			uc.logger.Warn("No in endpoint found", zap.Error(err))
		}
	}

	uc.device = device
	uc.intf = intf
	uc.done = done
	uc.outEndpt = outEndpt
	uc.inEndpt = inEndpt
	uc.isOpen = true

	uc.logger.Debug("USB connection opened",
		zap.Int("out_endpoint", outNum),
		zap.Int("in_endpoint", inNum),
	)
	return nil
}

// Close releases the interface, the device and the libusb context
func (uc *USBConnection) Close() error {
	uc.mutex.Lock()
	defer uc.mutex.Unlock()

	if !uc.isOpen {
		return nil
	}

	if uc.done != nil {
		uc.done()
		uc.done = nil
		uc.intf = nil
	}

	var closeErr error
	if uc.device != nil {
		closeErr = uc.device.Close()
		uc.device = nil
	}

	if uc.ctx != nil {
		if err := uc.ctx.Close(); err != nil && closeErr == nil {
			closeErr = err
		}
		uc.ctx = nil
	}

	uc.outEndpt = nil
	uc.inEndpt = nil
	uc.isOpen = false

	if closeErr != nil {
		return fmt.Errorf("failed to close USB device: %w", closeErr)
	}
	return nil
}

// CanReadStatus reports whether the interface exposes an in endpoint
func (uc *USBConnection) CanReadStatus() bool {
	uc.mutex.RLock()
	defer uc.mutex.RUnlock()
	return uc.inEndpt != nil
}

// Write sends data in chunks over the bulk out endpoint
func (uc *USBConnection) Write(ctx context.Context, data []byte) error {
	uc.mutex.RLock()
	defer uc.mutex.RUnlock()

	if !uc.isOpen || uc.outEndpt == nil {
		return fmt.Errorf("USB connection not open")
	}

	if uc.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.config.Timeout)
		defer cancel()
	}

	chunk := uc.config.ChunkSize
	if chunk <= 0 {
		chunk = len(data)
	}

	written := 0
	for written < len(data) {
		end := written + chunk
		if end > len(data) {
			end = len(data)
		}

		n, err := uc.outEndpt.WriteContext(ctx, data[written:end])
		if err != nil {
			return fmt.Errorf("failed to write to USB device after %d bytes: %w", written+n, err)
		}
		if n != end-written {
			return fmt.Errorf("incomplete write: wrote %d of %d bytes", written+n, len(data))
		}
		written += n
	}

	uc.logger.Debug("USB write completed", zap.Int("bytes", len(data)))
	return nil
}

// Read reads up to maxBytes from the bulk in endpoint
func (uc *USBConnection) Read(ctx context.Context, maxBytes int) ([]byte, error) {
	uc.mutex.RLock()
	defer uc.mutex.RUnlock()

	if !uc.isOpen || uc.inEndpt == nil {
		return nil, fmt.Errorf("USB connection not open or no in endpoint")
	}

	buffer := make([]byte, maxBytes)
	n, err := uc.inEndpt.ReadContext(ctx, buffer)
	if err != nil {
		return nil, fmt.Errorf("failed to read from USB device: %w", err)
	}

	return buffer[:n], nil
}

// findAndOpenDevice opens the first device with the given IDs, optionally
// narrowed down by serial number
func (uc *USBConnection) findAndOpenDevice(vendorID, productID gousb.ID) (*gousb.Device, error) {
	devices, err := uc.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == vendorID && desc.Product == productID
	})
	if err != nil && len(devices) == 0 {
		return nil, fmt.Errorf("failed to enumerate USB devices: %w", err)
	}

	var chosen *gousb.Device
	for _, device := range devices {
		if chosen == nil && uc.matchesSerial(device) {
			chosen = device
			continue
		}
		device.Close()
	}

	if chosen == nil {
		return nil, fmt.Errorf("USB device not found (VID: %04X, PID: %04X)", uint16(vendorID), uint16(productID))
	}

	if len(devices) > 1 {
		uc.logger.Warn("Multiple matching USB devices found, using first one")
	}

	return chosen, nil
}

func (uc *USBConnection) matchesSerial(device *gousb.Device) bool {
	if uc.config.SerialNumber == "" {
		return true
	}
	serial, err := device.SerialNumber()
	if err != nil {
		return false
	}
	return strings.TrimSpace(serial) == uc.config.SerialNumber
}

// parseHexID parses hex ID string (0x1234 or 1234)
func parseHexID(hexStr string) (gousb.ID, error) {
	hexStr = strings.TrimPrefix(strings.ToLower(hexStr), "0x")

	id, err := strconv.ParseUint(hexStr, 16, 16)
	if err != nil {
		return 0, err
	}

	return gousb.ID(id), nil
}
