package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWith_LegacyEnvironment(t *testing.T) {
	t.Setenv("PRINTER_MODEL", "QL-800")
	t.Setenv("PAPER_WIDTH", "62")
	t.Setenv("RED", "true")

	cfg, err := LoadWith(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "QL-800", cfg.Printer.Model)
	assert.Equal(t, "62", cfg.Printer.PaperWidth)
	assert.True(t, cfg.Printer.Red)
	assert.Equal(t, 696, cfg.Printer.TargetWidth())

	assert.Equal(t, "0.0.0.0:8083", cfg.GetServerAddr())
	assert.Equal(t, 70.0, cfg.Printer.Threshold)
	assert.Equal(t, "/dev/usb", cfg.Printer.DeviceDir)
	assert.Equal(t, 60*time.Second, cfg.Printer.JobTimeout)
	assert.Equal(t, 24.0, cfg.Annotation.FontSize)
}

func TestLoadWith_PrefixedEnvironmentWins(t *testing.T) {
	t.Setenv("PRINTER_MODEL", "QL-500")
	t.Setenv("PRINT_SERVER_PRINTER_MODEL", "QL-700")
	t.Setenv("PAPER_WIDTH", "29")
	t.Setenv("PRINT_SERVER_SERVER_PORT", "9000")

	cfg, err := LoadWith(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "QL-700", cfg.Printer.Model)
	assert.Equal(t, 554, cfg.Printer.TargetWidth())
	assert.Equal(t, "9000", cfg.Server.Port)
}

func TestLoadWith_MissingPrinterProfile(t *testing.T) {
	t.Setenv("PAPER_WIDTH", "62")

	_, err := LoadWith(viper.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "printer.model")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:     ServerConfig{Host: "localhost", Port: "8083"},
			Printer:    PrinterConfig{Model: "QL-700", PaperWidth: "62", Threshold: 70},
			Annotation: AnnotationConfig{FontSize: 24, WrapRatio: 0.95},
			Logging:    LoggingConfig{Level: "info"},
			App:        AppConfig{Name: "print-server", Version: "1.0.0", Environment: "test"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"threshold above range", func(c *Config) { c.Printer.Threshold = 120 }, "threshold"},
		{"zero wrap ratio", func(c *Config) { c.Annotation.WrapRatio = 0 }, "wrap_ratio"},
		{"unknown environment", func(c *Config) { c.App.Environment = "qa" }, "app.environment"},
		{"unknown log level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
