// internal/discovery/usb/scanner.go - printer USB address lookup
package usb

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/gousb"
	"go.uber.org/zap"

	"print-server/internal/model"
)

// DeviceDescriptor is the structured view of one attached USB device
type DeviceDescriptor struct {
	Vendor       gousb.ID `json:"vendor_id"`
	Product      gousb.ID `json:"product_id"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	ProductName  string   `json:"product,omitempty"`
	SerialNumber string   `json:"serial_number,omitempty"`
	Bus          int      `json:"bus"`
	Address      int      `json:"address"`
}

// Enumerator lists the USB devices currently attached to the host
type Enumerator interface {
	Enumerate(ctx context.Context) ([]DeviceDescriptor, error)
}

// Locator resolves the printer's current USB address. Results are never
// cached because the bus address changes across reconnects.
type Locator struct {
	enumerator   Enumerator
	model        string
	knownDevices *DeviceDatabase
	logger       *zap.Logger
}

// NewLocator creates a locator matching devices against printerModel
func NewLocator(enumerator Enumerator, printerModel string, logger *zap.Logger) *Locator {
	return &Locator{
		enumerator:   enumerator,
		model:        printerModel,
		knownDevices: NewDeviceDatabase(),
		logger:       logger.With(zap.String("scanner", "usb")),
	}
}

// Locate returns the primary USB address of the printer. The boolean is
// false when no attached device matches or enumeration fails; neither case
// is an error for the caller.
func (l *Locator) Locate(ctx context.Context) (*model.DeviceAddress, bool) {
	desc, ok := l.Find(ctx)
	if !ok {
		return nil, false
	}

	addr := &model.DeviceAddress{
		Backend: model.BackendUSB,
		Address: model.USBAddress(uint16(desc.Vendor), uint16(desc.Product)),
	}

	l.logger.Debug("Printer located",
		zap.String("address", addr.Address),
		zap.Int("bus", desc.Bus),
		zap.Int("device", desc.Address),
	)

	return addr, true
}

// Find returns the descriptor of the first attached device matching the
// configured model
func (l *Locator) Find(ctx context.Context) (*DeviceDescriptor, bool) {
	devices, err := l.enumerator.Enumerate(ctx)
	if err != nil {
		l.logger.Warn("Could not get the printer USB bus address. The printer may be disconnected.")
		l.logger.Debug("USB enumeration failed", zap.Error(err))
		return nil, false
	}

	needle := strings.ToLower(l.model)
	printersSeen := 0
	for i := range devices {
		if strings.Contains(strings.ToLower(l.describe(&devices[i])), needle) {
			return &devices[i], true
		}
		if l.knownDevices.IsKnownVendor(devices[i].Vendor) {
			printersSeen++
		}
	}

	// Another Brother device on the bus usually means a model mismatch in
	// the configuration rather than a disconnected printer.
	l.logger.Warn("Could not get the printer USB bus address. The printer may be disconnected.",
		zap.String("model", l.model),
		zap.Int("devices_seen", len(devices)),
		zap.Int("other_brother_devices", printersSeen),
	)
	return nil, false
}

// describe renders a device the way a USB listing line would, with the
// model name from the known devices database appended
func (l *Locator) describe(desc *DeviceDescriptor) string {
	line := fmt.Sprintf("%04x:%04x %s %s", uint16(desc.Vendor), uint16(desc.Product), desc.Manufacturer, desc.ProductName)
	if product := l.knownDevices.Lookup(desc.Vendor, desc.Product); product != nil {
		line += " " + product.Model
	}
	return line
}

// GousbEnumerator enumerates devices through libusb
type GousbEnumerator struct {
	debug  bool
	logger *zap.Logger
}

// NewGousbEnumerator creates a libusb backed enumerator
func NewGousbEnumerator(debug bool, logger *zap.Logger) *GousbEnumerator {
	return &GousbEnumerator{
		debug:  debug,
		logger: logger.With(zap.String("scanner", "usb")),
	}
}

// Enumerate lists attached devices. Devices that cannot be opened are still
// reported with their numeric IDs.
func (e *GousbEnumerator) Enumerate(ctx context.Context) ([]DeviceDescriptor, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	usbCtx := gousb.NewContext()
	defer func() {
		if err := usbCtx.Close(); err != nil {
			e.logger.Warn("Failed to close USB context", zap.Error(err))
		}
	}()

	if e.debug {
		usbCtx.Debug(3)
	}

	var descriptors []DeviceDescriptor
	index := make(map[[2]int]int)

	devices, err := usbCtx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		index[[2]int{desc.Bus, desc.Address}] = len(descriptors)
		descriptors = append(descriptors, DeviceDescriptor{
			Vendor:  desc.Vendor,
			Product: desc.Product,
			Bus:     desc.Bus,
			Address: desc.Address,
		})
		return true
	})
	defer e.closeAllDevices(devices)

	if err != nil {
		if len(descriptors) == 0 {
			return nil, fmt.Errorf("failed to enumerate USB devices: %w", err)
		}
		// Some devices could not be opened, usually for lack of permissions.
		e.logger.Debug("Some USB devices could not be opened", zap.Error(err))
	}

	for _, device := range devices {
		i, ok := index[[2]int{device.Desc.Bus, device.Desc.Address}]
		if !ok {
			continue
		}
		descriptors[i].Manufacturer = e.readString(device.Manufacturer)
		descriptors[i].ProductName = e.readString(device.Product)
		descriptors[i].SerialNumber = e.readString(device.SerialNumber)
	}

	e.logger.Debug("USB devices enumerated", zap.Int("device_count", len(descriptors)))
	return descriptors, nil
}

// readString reads an optional string descriptor
func (e *GousbEnumerator) readString(read func() (string, error)) string {
	str, err := read()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(str)
}

// closeAllDevices safely closes all opened USB devices
func (e *GousbEnumerator) closeAllDevices(devices []*gousb.Device) {
	for i, device := range devices {
		if device == nil {
			continue
		}
		if err := device.Close(); err != nil {
			e.logger.Warn("Failed to close USB device",
				zap.Int("device_index", i),
				zap.Error(err),
			)
		}
	}
}
