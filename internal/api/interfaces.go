// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"
	"io"

	"github.com/labstack/echo/v4"
	"github.com/sheet-uploader/backend/internal/ingest"
	"github.com/sheet-uploader/backend/internal/jobs"
	"github.com/sheet-uploader/backend/internal/models"
)

// FileHandler handles upload, listing and deletion of workbooks
type FileHandler interface {
	HandleUploadFile(c echo.Context) error
	HandleListFiles(c echo.Context) error
	HandleListRecords(c echo.Context) error
	HandleDeleteFile(c echo.Context) error
}

// IngestHandler handles preview, insert and chart operations
type IngestHandler interface {
	HandlePreview(c echo.Context) error
	HandlePreviewMsgpack(c echo.Context) error
	HandleInsert(c echo.Context) error
	HandleChart(c echo.Context) error
	HandleChartMsgpack(c echo.Context) error
}

// JobHandler handles asynchronous insert jobs
type JobHandler interface {
	HandleJobStatus(c echo.Context) error
	HandleJobStream(c echo.Context) error
	HandleJobWebSocket(c echo.Context) error
	HandleCancelJob(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleRoot(c echo.Context) error
	HandleHealth(c echo.Context) error
}

// FileService defines what the handlers need from upload management.
// This allows mocking in tests
type FileService interface {
	Accept(ctx context.Context, filename, contentType string, r io.Reader) (*models.UploadedFile, error)
	List(ctx context.Context) ([]models.UploadedFile, error)
	Records(ctx context.Context, id uint) (*models.UploadedFile, []models.DataRecord, error)
	Delete(ctx context.Context, id uint) (*models.UploadedFile, error)
	AllowedExtensions() []string
}

// IngestService defines the ingestion operations used by the handlers
type IngestService interface {
	Preview(ctx context.Context, fileID uint) ([]models.SheetOutcome, error)
	Insert(ctx context.Context, fileID uint, progress ingest.ProgressFunc) (*models.InsertSummary, error)
	Chart(ctx context.Context) ([]models.ChartAggregate, error)
}

// JobService defines the job manager operations used by the handlers
type JobService interface {
	StartInsert(fileID uint) jobs.Job
	GetJob(id string) (jobs.Job, bool)
	Cancel(id string) bool
}

// HealthChecker reports whether the record store is reachable
type HealthChecker interface {
	Health(ctx context.Context) error
}
