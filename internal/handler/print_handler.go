// internal/handler/print_handler.go
package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"print-server/internal/config"
	"print-server/internal/imaging"
	"print-server/internal/model"
	"print-server/internal/service"
	"print-server/internal/transport"
	"print-server/internal/utils"
)

// Printer is the part of the print service the HTTP layer depends on
type Printer interface {
	Print(ctx context.Context, job *model.PrintJob) (*service.PrintResult, error)
	Status(ctx context.Context) *service.PrinterStatus
}

// PrintHandler handles print requests
type PrintHandler struct {
	printer        Printer
	jobTimeout     time.Duration
	maxUploadBytes int64
	logger         *utils.ServiceLogger
}

// NewPrintHandler creates a new print handler
func NewPrintHandler(printer Printer, cfg *config.Config, logger *zap.Logger) *PrintHandler {
	return &PrintHandler{
		printer:        printer,
		jobTimeout:     cfg.Printer.JobTimeout,
		maxUploadBytes: cfg.Server.MaxUploadBytes,
		logger:         utils.NewServiceLogger(logger, "print-handler"),
	}
}

// RegisterRoutes registers the print endpoint on router and the printer
// status endpoint on api
func (h *PrintHandler) RegisterRoutes(router gin.IRoutes, api *gin.RouterGroup) {
	router.POST("/print_image", h.PrintImage)
	api.GET("/printer/status", h.GetStatus)
}

// PrintImage prints an uploaded image, annotated if requested
// @Summary Print an image
// @Description Scale an uploaded image to the label width, optionally render annotation text under it and print it
// @Tags Printing
// @Accept multipart/form-data
// @Produce json
// @Param image_file formData file true "Image to print"
// @Param annotation formData string false "Text printed under the image"
// @Success 200 {object} utils.APIResponse{data=service.PrintResult} "Task handled as expected"
// @Failure 400 {object} utils.APIResponse "Missing or undecodable image"
// @Failure 413 {object} utils.APIResponse "Upload too large"
// @Failure 500 {object} utils.APIResponse "Internal server error"
// @Failure 502 {object} utils.APIResponse "No backend was able to handle the task"
// @Failure 503 {object} utils.APIResponse "Printer not connected"
// @Failure 504 {object} utils.APIResponse "Job timed out"
// @Router /print_image [post]
func (h *PrintHandler) PrintImage(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	data, err := h.readUpload(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "Image file too large", err)
			return
		}
		utils.ErrorResponse(c, http.StatusBadRequest, "image_file is required", err)
		return
	}

	job := model.NewPrintJob(data, c.PostForm("annotation"))

	ctx := c.Request.Context()
	if h.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.jobTimeout)
		defer cancel()
	}

	result, err := h.printer.Print(ctx, job)
	if err != nil {
		h.logger.Error("An error occurred while printing the image",
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)
		h.writePrintError(ctx, c, err)
		return
	}

	h.logger.Info("Task handled as expected",
		zap.String("job_id", job.ID.String()),
		zap.Int("attempts", len(result.Attempts)),
	)
	utils.SuccessResponse(c, http.StatusOK, "Task handled as expected", result)
}

func (h *PrintHandler) readUpload(c *gin.Context) ([]byte, error) {
	file, _, err := c.Request.FormFile("image_file")
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read image_file: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("image_file is empty")
	}
	return data, nil
}

// writePrintError maps the typed cause of a failed job to a status code. A
// delivery failure is a timeout only when the job deadline itself expired.
func (h *PrintHandler) writePrintError(ctx context.Context, c *gin.Context, err error) {
	var (
		decodeErr   *imaging.DecodeError
		resourceErr *imaging.ResourceError
		unavailable *service.DeviceUnavailableError
		deliveryErr *transport.DeliveryError
	)

	delivery := errors.As(err, &deliveryErr)
	jobExpired := errors.Is(ctx.Err(), context.DeadlineExceeded)

	switch {
	case errors.As(err, &decodeErr):
		utils.ErrorResponse(c, http.StatusBadRequest, "Image could not be decoded", err)
	case errors.As(err, &unavailable):
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "Printer not connected", err)
	case errors.Is(err, context.DeadlineExceeded) && (jobExpired || !delivery):
		utils.ErrorResponse(c, http.StatusGatewayTimeout, "Print job timed out", err)
	case delivery:
		utils.ErrorResponseWithReasons(c, http.StatusBadGateway, "No backend was able to handle the task", err, deliveryErr.Reasons())
	case errors.As(err, &resourceErr):
		utils.ErrorResponse(c, http.StatusInternalServerError, "Printer resources unavailable", err)
	default:
		utils.ErrorResponse(c, http.StatusInternalServerError, "An error occurred while printing the image", err)
	}
}

// GetStatus reports the routes currently available to the printer
// @Summary Printer status
// @Description Locate the printer and list the delivery candidates a job would try, without printing
// @Tags Printing
// @Produce json
// @Success 200 {object} utils.APIResponse{data=service.PrinterStatus} "Printer reachable"
// @Failure 503 {object} utils.APIResponse{data=service.PrinterStatus} "Printer not connected"
// @Router /api/v1/printer/status [get]
func (h *PrintHandler) GetStatus(c *gin.Context) {
	status := h.printer.Status(c.Request.Context())

	if !status.Reachable() {
		c.JSON(http.StatusServiceUnavailable, utils.APIResponse{
			Success:   false,
			Message:   "Printer not connected",
			Data:      status,
			Timestamp: time.Now(),
			RequestID: c.GetString("request_id"),
		})
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Printer reachable", status)
}
