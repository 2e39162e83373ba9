// handlers_ingest.go - Preview, insert and chart handlers
package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sheet-uploader/backend/internal/logging"
)

// IngestHandlerImpl implements the IngestHandler interface
type IngestHandlerImpl struct {
	ingest IngestService
	jobs   JobService
	log    logging.Logger
}

// NewIngestHandler creates a new ingest handler instance
func NewIngestHandler(ingest IngestService, jobs JobService, log logging.Logger) IngestHandler {
	return &IngestHandlerImpl{
		ingest: ingest,
		jobs:   jobs,
		log:    log,
	}
}

// HandlePreview validates every sheet and returns up to ten rows of each
func (h *IngestHandlerImpl) HandlePreview(c echo.Context) error {
	return h.preview(c, false)
}

// HandlePreviewMsgpack is HandlePreview encoded as msgpack
func (h *IngestHandlerImpl) HandlePreviewMsgpack(c echo.Context) error {
	return h.preview(c, true)
}

func (h *IngestHandlerImpl) preview(c echo.Context, asMsgpack bool) error {
	id, apiErr := parseFileID(c)
	if apiErr != nil {
		return apiErr.WithType("preview")
	}

	sheets, err := h.ingest.Preview(c.Request().Context(), id)
	if err != nil {
		return fromDomainError(err, c.Param("file_id"), "failed to preview file").WithType("preview")
	}

	return respond(c, asMsgpack, success(
		"preview",
		"Workbook preview",
		fmt.Sprintf("%d sheets inspected", len(sheets)),
		map[string]any{"sheets": sheets},
	))
}

// HandleInsert loads every valid sheet into the store. With ?async=true
// the insert runs as a background job and 202 is returned immediately.
func (h *IngestHandlerImpl) HandleInsert(c echo.Context) error {
	id, apiErr := parseFileID(c)
	if apiErr != nil {
		return apiErr.WithType("insert")
	}

	if async, _ := strconv.ParseBool(c.QueryParam("async")); async && h.jobs != nil {
		job := h.jobs.StartInsert(id)
		h.log.Info("insert job %s started for file %d", job.ID, id)

		return respondJSON(c, http.StatusAccepted, success(
			"insert",
			"Insert started",
			fmt.Sprintf("Insert of file %d started.", id),
			map[string]any{
				"job_id": job.ID,
				"status": job.Status,
			},
		))
	}

	summary, err := h.ingest.Insert(c.Request().Context(), id, func(done, total int, stage string) {
		h.log.Info("insert progress for file %d: %d%% (%s)", id, done*100/total, stage)
	})
	if err != nil {
		return fromDomainError(err, c.Param("file_id"), "failed to insert records").WithType("insert")
	}

	return respondJSON(c, http.StatusOK, success(
		"insert",
		"Load complete",
		fmt.Sprintf("%d records inserted successfully.", summary.TotalInserted),
		map[string]any{
			"total_inserted": summary.TotalInserted,
			"sheets":         summary.Sheets,
		},
	))
}

// HandleChart returns the summed quantity of every product
func (h *IngestHandlerImpl) HandleChart(c echo.Context) error {
	return h.chart(c, false)
}

// HandleChartMsgpack is HandleChart encoded as msgpack
func (h *IngestHandlerImpl) HandleChartMsgpack(c echo.Context) error {
	return h.chart(c, true)
}

func (h *IngestHandlerImpl) chart(c echo.Context, asMsgpack bool) error {
	totals, err := h.ingest.Chart(c.Request().Context())
	if err != nil {
		return NewInternalError("error retrieving chart data", err).WithType("chart")
	}

	return respond(c, asMsgpack, success(
		"chart",
		"Chart data",
		"Aggregated data retrieved successfully",
		map[string]any{"chart": totals},
	))
}
