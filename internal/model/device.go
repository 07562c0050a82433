// internal/model/device.go
package model

import "fmt"

// Backend identifies a transport mechanism able to carry a raster job
type Backend string

const (
	BackendUSB         Backend = "usb"
	BackendLinuxKernel Backend = "linux_kernel"
	BackendNetwork     Backend = "network"
	BackendSerial      Backend = "serial"
)

// DeviceAddress pairs a backend with its connection string
type DeviceAddress struct {
	Backend Backend `json:"backend"`
	Address string  `json:"address"`
}

// String implements fmt.Stringer
func (a DeviceAddress) String() string {
	return fmt.Sprintf("%s:%s", a.Backend, a.Address)
}

// USBAddress builds the connection string for a vendor/product pair
func USBAddress(vendor, product uint16) string {
	return fmt.Sprintf("usb://0x%04x:0x%04x", vendor, product)
}
