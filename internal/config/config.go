// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Printer    PrinterConfig    `mapstructure:"printer"`
	Annotation AnnotationConfig `mapstructure:"annotation"`
	Security   SecurityConfig   `mapstructure:"security"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	App        AppConfig        `mapstructure:"app"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host" validate:"required"`
	Port           string        `mapstructure:"port" validate:"required"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
	TLS            TLSConfig     `mapstructure:"tls"`
}

// TLSConfig represents TLS configuration
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

// PrinterConfig is the process-wide printer profile. It is read once at
// startup and never mutated afterwards.
type PrinterConfig struct {
	Model            string           `mapstructure:"model" validate:"required"`
	PaperWidth       string           `mapstructure:"paper_width" validate:"required"`
	Red              bool             `mapstructure:"red"`
	Threshold        float64          `mapstructure:"threshold"`
	DeviceDir        string           `mapstructure:"device_dir"`
	DevicePrefix     string           `mapstructure:"device_prefix"`
	NetworkAddresses []string         `mapstructure:"network_addresses"`
	SerialPorts      []string         `mapstructure:"serial_ports"`
	JobTimeout       time.Duration    `mapstructure:"job_timeout"`
	USB              USBPortConfig    `mapstructure:"usb"`
	TCP              TCPPortConfig    `mapstructure:"tcp"`
	Serial           SerialPortConfig `mapstructure:"serial"`
}

// USBPortConfig represents USB transport configuration
type USBPortConfig struct {
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	StatusTimeout time.Duration `mapstructure:"status_timeout"`
	ChunkSize     int           `mapstructure:"chunk_size"`
	Debug         bool          `mapstructure:"debug"`
}

// TCPPortConfig represents network transport configuration
type TCPPortConfig struct {
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
}

// SerialPortConfig represents serial port configuration
type SerialPortConfig struct {
	BaudRate int           `mapstructure:"baud_rate"`
	DataBits int           `mapstructure:"data_bits"`
	StopBits int           `mapstructure:"stop_bits"`
	Parity   string        `mapstructure:"parity"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// AnnotationConfig controls the text rendered under annotated labels
type AnnotationConfig struct {
	FontPath    string  `mapstructure:"font_path"`
	FontSize    float64 `mapstructure:"font_size"`
	WrapRatio   float64 `mapstructure:"wrap_ratio"`
	Margin      int     `mapstructure:"margin"`
	LineSpacing int     `mapstructure:"line_spacing"`
}

// SecurityConfig represents security configuration
type SecurityConfig struct {
	AllowedOrigins []string          `mapstructure:"allowed_origins"`
	BasicAuth      map[string]string `mapstructure:"basic_auth"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level" validate:"required"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// AppConfig represents application metadata
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Version     string `mapstructure:"version" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required"`
	Debug       bool   `mapstructure:"debug"`
}

// legacyEnv maps config keys to the bare environment variable names older
// deployments of the print server use.
var legacyEnv = map[string]string{
	"printer.paper_width": "PAPER_WIDTH",
	"printer.model":       "PRINTER_MODEL",
	"printer.red":         "RED",
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	return LoadWith(viper.New())
}

// LoadWith loads configuration using the given viper instance
func LoadWith(v *viper.Viper) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/print-server")

	// Environment variable support
	v.SetEnvPrefix("PRINT_SERVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, "PRINT_SERVER_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	// Set defaults
	setDefaults(v)

	// The config file is optional, a deployment may be configured through
	// the environment alone.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8083")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.max_upload_bytes", 32<<20)
	v.SetDefault("server.tls.enabled", false)

	// Printer defaults
	v.SetDefault("printer.red", false)
	v.SetDefault("printer.threshold", 70.0)
	v.SetDefault("printer.device_dir", "/dev/usb")
	v.SetDefault("printer.device_prefix", "lp")
	v.SetDefault("printer.network_addresses", []string{})
	v.SetDefault("printer.serial_ports", []string{})
	v.SetDefault("printer.job_timeout", "60s")

	v.SetDefault("printer.usb.write_timeout", "10s")
	v.SetDefault("printer.usb.status_timeout", "10s")
	v.SetDefault("printer.usb.chunk_size", 4096)
	v.SetDefault("printer.usb.debug", false)

	v.SetDefault("printer.tcp.connect_timeout", "5s")
	v.SetDefault("printer.tcp.write_timeout", "30s")

	v.SetDefault("printer.serial.baud_rate", 115200)
	v.SetDefault("printer.serial.data_bits", 8)
	v.SetDefault("printer.serial.stop_bits", 1)
	v.SetDefault("printer.serial.parity", "none")
	v.SetDefault("printer.serial.timeout", "5s")

	// Annotation defaults
	v.SetDefault("annotation.font_path", "")
	v.SetDefault("annotation.font_size", 24.0)
	v.SetDefault("annotation.wrap_ratio", 0.95)
	v.SetDefault("annotation.margin", 5)
	v.SetDefault("annotation.line_spacing", 4)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 28)
	v.SetDefault("logging.compress", true)

	// App defaults
	v.SetDefault("app.name", "print-server")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)
}

// validate validates the configuration
func validate(config *Config) error {
	// Basic validation
	if config.Server.Host == "" {
		return fmt.Errorf("server.host is required")
	}
	if config.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if config.Printer.Model == "" {
		return fmt.Errorf("printer.model is required (PRINTER_MODEL)")
	}
	if config.Printer.PaperWidth == "" {
		return fmt.Errorf("printer.paper_width is required (PAPER_WIDTH)")
	}
	if config.Printer.Threshold < 0 || config.Printer.Threshold > 100 {
		return fmt.Errorf("printer.threshold must be between 0 and 100")
	}
	if config.Annotation.FontSize <= 0 {
		return fmt.Errorf("annotation.font_size must be positive")
	}
	if config.Annotation.WrapRatio <= 0 || config.Annotation.WrapRatio > 1 {
		return fmt.Errorf("annotation.wrap_ratio must be in (0, 1]")
	}

	// Validate environment
	validEnvs := []string{"development", "staging", "production", "test"}
	isValidEnv := false
	for _, env := range validEnvs {
		if config.App.Environment == env {
			isValidEnv = true
			break
		}
	}
	if !isValidEnv {
		return fmt.Errorf("app.environment must be one of: %v", validEnvs)
	}

	// Validate logging level
	validLevels := []string{"debug", "info", "warn", "error", "fatal"}
	isValidLevel := false
	for _, level := range validLevels {
		if config.Logging.Level == level {
			isValidLevel = true
			break
		}
	}
	if !isValidLevel {
		return fmt.Errorf("logging.level must be one of: %v", validLevels)
	}

	return nil
}

// TargetWidth returns the raster width in pixels for the configured paper class
func (p *PrinterConfig) TargetWidth() int {
	if p.PaperWidth == "62" {
		return 696
	}
	return 554
}

// GetServerAddr returns the server address
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// IsProduction checks if the environment is production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment checks if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsDebugEnabled checks if debug mode is enabled
func (c *Config) IsDebugEnabled() bool {
	return c.App.Debug || c.IsDevelopment()
}
