// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sheet-uploader/backend/internal/config"
	"github.com/sheet-uploader/backend/internal/logging"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Files   FileService
	Ingest  IngestService
	Jobs    JobService
	DB      HealthChecker
	Log     logging.Logger
	Version string
}

// Handlers holds all handler instances
type Handlers struct {
	Health HealthHandler
	Files  FileHandler
	Ingest IngestHandler
	Jobs   JobHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	log := deps.Log
	if log == nil {
		log = logging.Nop()
	}

	return &Handlers{
		Health: NewHealthHandler(deps.Version, deps.DB),
		Files:  NewFileHandler(deps.Files, log.Named("files")),
		Ingest: NewIngestHandler(deps.Ingest, deps.Jobs, log.Named("ingest")),
		Jobs:   NewJobHandler(deps.Jobs, log.Named("jobs")),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	e.GET("/", handlers.Health.HandleRoot)
	e.GET("/health", handlers.Health.HandleHealth)

	files := e.Group("/files")

	// Upload and listing
	files.POST("/upload", handlers.Files.HandleUploadFile)
	files.GET("", handlers.Files.HandleListFiles)
	files.GET("/", handlers.Files.HandleListFiles)
	files.GET("/:file_id/records", handlers.Files.HandleListRecords)
	files.DELETE("/:file_id", handlers.Files.HandleDeleteFile)

	// Ingestion
	files.GET("/preview/:file_id", handlers.Ingest.HandlePreview)
	files.GET("/preview/:file_id/msgpack", handlers.Ingest.HandlePreviewMsgpack)
	files.POST("/insert/:file_id", handlers.Ingest.HandleInsert)

	// Insert jobs
	files.GET("/insert/jobs/:job_id", handlers.Jobs.HandleJobStatus)
	files.GET("/insert/jobs/:job_id/stream", handlers.Jobs.HandleJobStream)
	files.GET("/insert/jobs/:job_id/ws", handlers.Jobs.HandleJobWebSocket)
	files.DELETE("/insert/jobs/:job_id", handlers.Jobs.HandleCancelJob)

	// Aggregation
	files.GET("/chart", handlers.Ingest.HandleChart)
	files.GET("/chart/msgpack", handlers.Ingest.HandleChartMsgpack)
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, cfg config.ServerConfig, log logging.Logger) {
	e.HTTPErrorHandler = NewErrorHandler(true, log)

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			if !cfg.EnableRequestLogging {
				return true
			}
			path := c.Request().URL.Path
			return path == "/health" || strings.HasSuffix(path, "/stream")
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	if cfg.ReadTimeout > 0 {
		e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
			Timeout: time.Duration(cfg.ReadTimeout) * time.Second,
			Skipper: func(c echo.Context) bool {
				path := c.Request().URL.Path
				return strings.HasSuffix(path, "/stream") ||
					strings.HasSuffix(path, "/ws") ||
					strings.Contains(path, "/insert/")
			},
			ErrorMessage: "Request timeout",
		}))
	}

	if cfg.EnableCompression {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
			Level: cfg.CompressionLevel,
			Skipper: func(c echo.Context) bool {
				return c.Request().Header.Get("Accept") == "text/event-stream" ||
					strings.HasSuffix(c.Request().URL.Path, "/ws")
			},
		}))
	}

	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
}
