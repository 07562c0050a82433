// internal/routes/routes.go
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"print-server/internal/config"
	"print-server/internal/handler"
	"print-server/internal/middleware"
	"print-server/internal/utils"
)

// Router holds all dependencies for routing
type Router struct {
	config    *config.Config
	logger    *zap.Logger
	printer   handler.Printer
	wsHandler *handler.WebSocketHandler
}

// NewRouter creates a new router instance
func NewRouter(
	config *config.Config,
	logger *zap.Logger,
	printer handler.Printer,
	wsHandler *handler.WebSocketHandler,
) *Router {
	return &Router{
		config:    config,
		logger:    logger,
		printer:   printer,
		wsHandler: wsHandler,
	}
}

// SetupRouter creates and configures the Gin router
func (r *Router) SetupRouter() *gin.Engine {
	switch {
	case r.config.IsProduction():
		gin.SetMode(gin.ReleaseMode)
	case r.config.App.Environment == "test":
		gin.SetMode(gin.TestMode)
	case r.config.IsDebugEnabled():
		gin.SetMode(gin.DebugMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	r.addMiddleware(router)
	r.addRoutes(router)

	return router
}

// addMiddleware adds middleware to the router
func (r *Router) addMiddleware(router *gin.Engine) {
	// Request ID first so recovery and logging can tag their entries
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RecoveryMiddleware(r.logger))

	serviceLogger := utils.NewServiceLogger(r.logger, "http-server")
	router.Use(middleware.LoggingMiddleware(serviceLogger))

	router.Use(middleware.CORSMiddleware(&r.config.Security))

	r.logger.Info("Middleware configured")
}

// addRoutes sets up all application routes
func (r *Router) addRoutes(router *gin.Engine) {
	healthHandler := handler.NewHealthHandler(r.printer, r.wsHandler, r.config, r.logger)
	printHandler := handler.NewPrintHandler(r.printer, r.config, r.logger)

	// Health check routes (no auth required)
	healthHandler.RegisterRoutes(router)

	secured := router.Group("", middleware.BasicAuthMiddleware(&r.config.Security))
	printHandler.RegisterRoutes(secured, secured.Group("/api/v1"))

	if r.wsHandler != nil {
		r.wsHandler.RegisterRoutes(secured.Group("/ws"))
	}

	r.addDocumentationRoutes(router)

	r.logger.Info("All routes configured successfully")
}

// addDocumentationRoutes sets up documentation routes
func (r *Router) addDocumentationRoutes(router *gin.Engine) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	router.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
}
