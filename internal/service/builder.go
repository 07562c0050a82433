// internal/service/builder.go
package service

import (
	"fmt"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"print-server/internal/config"
	"print-server/internal/discovery/usb"
	"print-server/internal/imaging"
	"print-server/internal/protocol"
	"print-server/internal/raster"
	"print-server/internal/transport"
)

// NewPrintServiceFromConfig assembles the print pipeline from configuration.
// An unknown printer model or an unloadable annotation font fails here, at
// startup, rather than on the first job.
func NewPrintServiceFromConfig(cfg *config.Config, fs afero.Fs, enumerator usb.Enumerator, logger *zap.Logger) (*PrintService, error) {
	printer := &cfg.Printer

	registry := raster.NewRegistry()

	encoder, err := raster.NewQLEncoder(printer, registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create raster encoder: %w", err)
	}

	annotator, err := imaging.NewAnnotator(&cfg.Annotation, fs, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load annotation font: %w", err)
	}

	senders, err := protocol.NewSenders(printer, fs, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create senders: %w", err)
	}

	logger.Info("Print pipeline initialized",
		zap.String("model", printer.Model),
		zap.String("paper_width", printer.PaperWidth),
		zap.Int("target_width", printer.TargetWidth()),
		zap.Bool("red", printer.Red),
		zap.Int("senders", len(senders)),
		zap.Int("known_models", len(registry.ListModels())),
	)

	return NewPrintService(
		printer,
		usb.NewLocator(enumerator, printer.Model, logger),
		transport.NewPlanner(printer, fs, senders, logger),
		imaging.NewPreparer(printer, fs, logger),
		annotator,
		encoder,
		transport.NewEngine(logger),
		logger,
	), nil
}
