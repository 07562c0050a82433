// cmd/labelprint/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"print-server/internal/config"
	"print-server/internal/discovery/usb"
	"print-server/internal/model"
	"print-server/internal/service"
	"print-server/internal/utils"
)

// flagBindings maps command line flags onto configuration keys
var flagBindings = map[string]string{
	"model":       "printer.model",
	"paper-width": "printer.paper_width",
	"red":         "printer.red",
	"threshold":   "printer.threshold",
	"log-level":   "logging.level",
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("labelprint", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprintln(stderr, "Usage: labelprint [flags] IMAGE")
		flags.PrintDefaults()
	}

	annotation := flags.StringP("annotation", "a", "", "Text printed under the image")
	flags.String("model", "", "Printer model, overrides PRINTER_MODEL")
	flags.String("paper-width", "", "Paper class, overrides PAPER_WIDTH")
	flags.Bool("red", false, "Print black and red on two-colour media")
	flags.Float64("threshold", 70, "Black threshold in percent")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return 2
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer func() {
		_ = utils.CloseLogger(logger)
	}()

	printService, err := service.NewPrintServiceFromConfig(cfg, afero.NewOsFs(), usb.NewGousbEnumerator(cfg.Printer.USB.Debug, logger), logger)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to initialize printer: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if cfg.Printer.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Printer.JobTimeout)
		defer cancel()
	}

	job := model.NewFilePrintJob(flags.Arg(0), *annotation)
	result, err := printService.Print(ctx, job)
	if err != nil {
		logger.Error("An error occurred while printing the image", zap.Error(err))
		fmt.Fprintf(stderr, "Printing failed: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "Printed %dx%d via %s after %d attempt(s)\n",
		result.Width, result.Height, result.Delivered, len(result.Attempts))
	return 0
}

// loadConfig reads the same configuration as the server, with explicitly
// set flags taking precedence and logs going to stderr
func loadConfig(flags *pflag.FlagSet) (*config.Config, error) {
	v := viper.New()
	for name, key := range flagBindings {
		if !flags.Changed(name) {
			continue
		}
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return nil, fmt.Errorf("failed to bind --%s: %w", name, err)
		}
	}

	cfg, err := config.LoadWith(v)
	if err != nil {
		return nil, err
	}

	cfg.Logging.Format = "console"
	cfg.Logging.Output = "stderr"
	return cfg, nil
}
