// internal/protocol/factory.go
package protocol

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"print-server/internal/config"
	"print-server/internal/model"
)

// DefaultNetworkPort is the raw printing port of Brother network models
const DefaultNetworkPort = 9100

// NewSender creates the sender for a backend
func NewSender(backend model.Backend, cfg *config.PrinterConfig, fs afero.Fs, logger *zap.Logger) (Sender, error) {
	switch backend {
	case model.BackendUSB:
		return NewConnectionSender(backend, usbDialer(cfg, logger), cfg.USB.StatusTimeout, logger), nil
	case model.BackendLinuxKernel:
		return NewConnectionSender(backend, kernelDialer(fs, logger), 0, logger), nil
	case model.BackendNetwork:
		return NewConnectionSender(backend, tcpDialer(cfg, logger), cfg.USB.StatusTimeout, logger), nil
	case model.BackendSerial:
		return NewConnectionSender(backend, serialDialer(cfg, logger), cfg.USB.StatusTimeout, logger), nil
	default:
		return nil, fmt.Errorf("unsupported backend: %s", backend)
	}
}

// NewSenders creates a sender for every supported backend
func NewSenders(cfg *config.PrinterConfig, fs afero.Fs, logger *zap.Logger) (map[model.Backend]Sender, error) {
	backends := []model.Backend{
		model.BackendUSB,
		model.BackendLinuxKernel,
		model.BackendNetwork,
		model.BackendSerial,
	}

	senders := make(map[model.Backend]Sender, len(backends))
	for _, backend := range backends {
		sender, err := NewSender(backend, cfg, fs, logger)
		if err != nil {
			return nil, err
		}
		senders[backend] = sender
	}
	return senders, nil
}

func usbDialer(cfg *config.PrinterConfig, logger *zap.Logger) Dialer {
	return func(address string) (DeviceProtocol, error) {
		vendor, product, serial, err := ParseUSBAddress(address)
		if err != nil {
			return nil, err
		}
		return NewUSBConnection(&USBConfig{
			VendorID:     vendor,
			ProductID:    product,
			SerialNumber: serial,
			Timeout:      cfg.USB.WriteTimeout,
			ChunkSize:    cfg.USB.ChunkSize,
			Debug:        cfg.USB.Debug,
		}, logger), nil
	}
}

func kernelDialer(fs afero.Fs, logger *zap.Logger) Dialer {
	return func(address string) (DeviceProtocol, error) {
		path := strings.TrimPrefix(address, "file://")
		if path == "" {
			return nil, fmt.Errorf("kernel device path is required")
		}
		return NewKernelConnection(&KernelConfig{Path: path}, fs, logger), nil
	}
}

func tcpDialer(cfg *config.PrinterConfig, logger *zap.Logger) Dialer {
	return func(address string) (DeviceProtocol, error) {
		host, port, err := ParseNetworkAddress(address)
		if err != nil {
			return nil, err
		}
		return NewTCPConnection(&TCPConfig{
			Host:           host,
			Port:           port,
			ConnectTimeout: cfg.TCP.ConnectTimeout,
			WriteTimeout:   cfg.TCP.WriteTimeout,
		}, logger), nil
	}
}

func serialDialer(cfg *config.PrinterConfig, logger *zap.Logger) Dialer {
	return func(address string) (DeviceProtocol, error) {
		if address == "" {
			return nil, fmt.Errorf("serial port is required")
		}
		return NewSerialConnection(&SerialConfig{
			Port:     address,
			BaudRate: cfg.Serial.BaudRate,
			DataBits: cfg.Serial.DataBits,
			StopBits: cfg.Serial.StopBits,
			Parity:   cfg.Serial.Parity,
			Timeout:  cfg.Serial.Timeout,
		}, logger), nil
	}
}

// ParseUSBAddress splits usb://0xVVVV:0xPPPP[/serial] into its parts
func ParseUSBAddress(address string) (vendor, product, serial string, err error) {
	rest, ok := strings.CutPrefix(address, "usb://")
	if !ok {
		return "", "", "", fmt.Errorf("invalid USB address %q: missing usb:// scheme", address)
	}

	rest, serial, _ = strings.Cut(rest, "/")

	vendor, product, ok = strings.Cut(rest, ":")
	if !ok || vendor == "" || product == "" {
		return "", "", "", fmt.Errorf("invalid USB address %q: expected vendor:product", address)
	}

	for _, id := range []string{vendor, product} {
		if _, err := parseHexID(id); err != nil {
			return "", "", "", fmt.Errorf("invalid USB address %q: %w", address, err)
		}
	}

	return vendor, product, serial, nil
}

// ParseNetworkAddress accepts tcp://host[:port], host:port or a bare host
func ParseNetworkAddress(address string) (string, int, error) {
	address = strings.TrimPrefix(address, "tcp://")
	if address == "" {
		return "", 0, fmt.Errorf("network address is required")
	}

	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		// No port given.
		return strings.Trim(address, "[]"), DefaultNetworkPort, nil
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, fmt.Errorf("invalid port in %q", address)
	}

	return host, port, nil
}
