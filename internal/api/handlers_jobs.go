// handlers_jobs.go - Insert job status, SSE and WebSocket progress handlers
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/sheet-uploader/backend/internal/jobs"
	"github.com/sheet-uploader/backend/internal/logging"
)

const (
	defaultPollInterval = 100 * time.Millisecond
	defaultStreamLimit  = 5 * time.Minute
)

// JobHandlerImpl implements the JobHandler interface
type JobHandlerImpl struct {
	jobs         JobService
	log          logging.Logger
	upgrader     websocket.Upgrader
	pollInterval time.Duration
	streamLimit  time.Duration
}

// NewJobHandler creates a new job handler instance
func NewJobHandler(jobService JobService, log logging.Logger) JobHandler {
	return newJobHandler(jobService, log, defaultPollInterval)
}

func newJobHandler(jobService JobService, log logging.Logger, poll time.Duration) *JobHandlerImpl {
	return &JobHandlerImpl{
		jobs: jobService,
		log:  log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Origins are enforced by the CORS middleware
				return true
			},
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
		},
		pollInterval: poll,
		streamLimit:  defaultStreamLimit,
	}
}

// HandleJobStatus returns the current state of an insert job
func (h *JobHandlerImpl) HandleJobStatus(c echo.Context) error {
	id := c.Param("job_id")
	job, ok := h.jobs.GetJob(id)
	if !ok {
		return NewNotFoundError("job", id).WithType("job")
	}

	return respondJSON(c, http.StatusOK, success(
		"job",
		"Insert job",
		fmt.Sprintf("Job is %s", job.Status),
		job,
	))
}

// HandleCancelJob stops a running insert job
func (h *JobHandlerImpl) HandleCancelJob(c echo.Context) error {
	id := c.Param("job_id")
	if _, ok := h.jobs.GetJob(id); !ok {
		return NewNotFoundError("job", id).WithType("job")
	}

	if !h.jobs.Cancel(id) {
		return NewBadRequestError("job already finished", nil).WithType("job")
	}

	return respondJSON(c, http.StatusAccepted, success("job", "Cancelling", "Insert job is being cancelled.", nil))
}

// HandleJobStream streams job progress via Server-Sent Events.
func (h *JobHandlerImpl) HandleJobStream(c echo.Context) error {
	id := c.Param("job_id")

	// Set SSE headers
	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
	c.Response().WriteHeader(http.StatusOK)

	job, ok := h.jobs.GetJob(id)
	if !ok {
		sendSSEData(c, map[string]string{"error": "job not found"})
		return nil
	}
	sendSSEData(c, job)
	if job.Status.Done() {
		return nil
	}

	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()
	timeout := time.After(h.streamLimit)

	last := job
	for {
		select {
		case <-c.Request().Context().Done():
			return nil
		case <-timeout:
			sendSSEData(c, map[string]string{"error": "stream timeout"})
			return nil
		case <-ticker.C:
			job, ok = h.jobs.GetJob(id)
			if !ok {
				sendSSEData(c, map[string]string{"error": "job not found"})
				return nil
			}

			if changed(last, job) {
				sendSSEData(c, job)
				last = job
			}

			// Stop if job is finished
			if job.Status.Done() {
				return nil
			}
		}
	}
}

// HandleJobWebSocket pushes job progress over a WebSocket until the job
// finishes or the client disconnects.
func (h *JobHandlerImpl) HandleJobWebSocket(c echo.Context) error {
	id := c.Param("job_id")
	if _, ok := h.jobs.GetJob(id); !ok {
		return NewNotFoundError("job", id).WithType("job")
	}

	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	// Reader loop: only needed to notice the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()
	timeout := time.After(h.streamLimit)

	var last jobs.Job
	first := true
	for {
		job, ok := h.jobs.GetJob(id)
		if !ok {
			ws.WriteJSON(map[string]string{"error": "job not found"})
			return nil
		}

		if first || changed(last, job) {
			if err := ws.WriteJSON(job); err != nil {
				h.log.Debug("websocket write for job %s failed: %v", id, err)
				return nil
			}
			last, first = job, false
		}

		if job.Status.Done() {
			ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(job.Status)))
			return nil
		}

		select {
		case <-closed:
			return nil
		case <-timeout:
			return nil
		case <-ticker.C:
		}
	}
}

func changed(a, b jobs.Job) bool {
	return a.Status != b.Status || a.StepsDone != b.StepsDone || a.Stage != b.Stage
}

// sendSSEData writes one SSE data frame and flushes it
func sendSSEData(c echo.Context, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(c.Response(), "data: %s\n\n", data)
	c.Response().Flush()
}
