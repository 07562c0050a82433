package service

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"print-server/internal/config"
	"print-server/internal/discovery/usb"
)

type stubEnumerator []usb.DeviceDescriptor

func (s stubEnumerator) Enumerate(ctx context.Context) ([]usb.DeviceDescriptor, error) {
	return s, nil
}

func builderConfig(model string) *config.Config {
	return &config.Config{
		Printer: config.PrinterConfig{
			Model:        model,
			PaperWidth:   "62",
			Threshold:    70,
			DeviceDir:    "/dev/usb",
			DevicePrefix: "lp",
		},
		Annotation: config.AnnotationConfig{FontSize: 24, WrapRatio: 0.95, Margin: 5, LineSpacing: 4},
	}
}

func TestNewPrintServiceFromConfig(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/dev/usb/lp0", nil, 0o660))

	devices := stubEnumerator{{Vendor: 0x04f9, Product: 0x2042, ProductName: "QL-700"}}
	svc, err := NewPrintServiceFromConfig(builderConfig("QL-700"), fs, devices, zap.NewNop())
	require.NoError(t, err)

	status := svc.Status(context.Background())
	require.NotNil(t, status.Primary)
	assert.Equal(t, "usb://0x04f9:0x2042", status.Primary.Address)
	assert.Len(t, status.Candidates, 2)
}

func TestNewPrintServiceFromConfig_UnknownModel(t *testing.T) {
	_, err := NewPrintServiceFromConfig(builderConfig("QL-9999"), afero.NewMemMapFs(), stubEnumerator{}, zap.NewNop())
	assert.Error(t, err)
}

func TestNewPrintServiceFromConfig_MissingFont(t *testing.T) {
	cfg := builderConfig("QL-700")
	cfg.Annotation.FontPath = "/usr/share/fonts/missing.ttf"

	_, err := NewPrintServiceFromConfig(cfg, afero.NewMemMapFs(), stubEnumerator{}, zap.NewNop())
	assert.Error(t, err)
}
