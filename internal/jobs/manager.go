// Package jobs runs workbook inserts in the background and tracks their progress.
package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sheet-uploader/backend/internal/ingest"
	"github.com/sheet-uploader/backend/internal/logging"
	"github.com/sheet-uploader/backend/internal/models"
)

// Status represents the insert job status.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusReading   Status = "reading"
	StatusWriting   Status = "writing"
	StatusComplete  Status = "complete"
	StatusError     Status = "error"
	StatusCancelled Status = "cancelled"
)

// Done reports whether the status is final.
func (s Status) Done() bool {
	return s == StatusComplete || s == StatusError || s == StatusCancelled
}

// Job represents an async insert job.
type Job struct {
	ID          string                `json:"id"`
	FileID      uint                  `json:"file_id"`
	Status      Status                `json:"status"`
	Progress    float64               `json:"progress"`
	Stage       string                `json:"stage"`
	StepsDone   int                   `json:"steps_done"`
	StepsTotal  int                   `json:"steps_total"`
	Summary     *models.InsertSummary `json:"summary,omitempty"`
	Error       string                `json:"error,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	CompletedAt *time.Time            `json:"completed_at,omitempty"`
}

// Inserter performs the insert a job runs.
type Inserter interface {
	Insert(ctx context.Context, fileID uint, progress ingest.ProgressFunc) (*models.InsertSummary, error)
}

// Manager handles async insert jobs.
type Manager struct {
	jobs     map[string]*Job
	cancels  map[string]context.CancelFunc
	mu       sync.RWMutex
	wg       sync.WaitGroup
	inserter Inserter
	log      logging.Logger
}

// NewManager creates a new job manager.
func NewManager(inserter Inserter, log logging.Logger) *Manager {
	return &Manager{
		jobs:     make(map[string]*Job),
		cancels:  make(map[string]context.CancelFunc),
		inserter: inserter,
		log:      log,
	}
}

// StartInsert begins an async insert of fileID and returns a snapshot of
// the new job. The job outlives the request that started it.
func (m *Manager) StartInsert(fileID uint) Job {
	job := &Job{
		ID:        uuid.New().String(),
		FileID:    fileID,
		Status:    StatusQueued,
		Stage:     "queued",
		CreatedAt: time.Now(),
	}

	ctx, cancel := context.WithCancel(context.Background())

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.cancels[job.ID] = cancel
	snapshot := *job
	m.mu.Unlock()

	m.wg.Add(1)
	go m.processJob(ctx, job)

	return snapshot
}

// GetJob returns a snapshot of a job by ID.
func (m *Manager) GetJob(id string) (Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Cancel stops a running job. It reports false for unknown or finished jobs.
func (m *Manager) Cancel(id string) bool {
	m.mu.RLock()
	job, ok := m.jobs[id]
	cancel := m.cancels[id]
	running := ok && !job.Status.Done()
	m.mu.RUnlock()

	if !running || cancel == nil {
		return false
	}
	cancel()
	return true
}

// Wait blocks until every started job has finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// processJob runs the insert and mirrors its progress into the job.
func (m *Manager) processJob(ctx context.Context, job *Job) {
	defer m.wg.Done()
	defer m.release(job.ID)

	short := job.ID[:8]
	m.log.Info("[InsertJob %s] starting insert of file %d", short, job.FileID)
	m.updateJobStatus(job, StatusReading, "reading workbook", 0, 0)

	summary, err := m.inserter.Insert(ctx, job.FileID, func(done, total int, stage string) {
		status := StatusReading
		if stage == ingest.StageWrite {
			status = StatusWriting
		}
		m.updateJobStatus(job, status, stage, done, total)
	})

	switch {
	case err != nil && ctx.Err() != nil:
		m.markJobCancelled(job)
	case err != nil:
		m.markJobError(job, err.Error())
	default:
		m.markJobComplete(job, summary)
		m.log.Info("[InsertJob %s] complete: %d records", short, summary.TotalInserted)
	}
}

func (m *Manager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cancel, ok := m.cancels[id]; ok {
		cancel()
		delete(m.cancels, id)
	}
}

// updateJobStatus updates job progress (thread-safe).
func (m *Manager) updateJobStatus(job *Job, status Status, stage string, done, total int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job.Status = status
	job.Stage = stage
	job.StepsDone = done
	job.StepsTotal = total

	// Keep the last percent for completion.
	if total > 0 {
		job.Progress = float64(done) / float64(total) * 99
	}
}

// markJobComplete marks job as complete (thread-safe).
func (m *Manager) markJobComplete(job *Job, summary *models.InsertSummary) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job.Status = StatusComplete
	job.Stage = "complete"
	job.Progress = 100
	job.Summary = summary
	now := time.Now()
	job.CompletedAt = &now
}

// markJobError marks job as failed (thread-safe).
func (m *Manager) markJobError(job *Job, errMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job.Status = StatusError
	job.Error = errMsg
	now := time.Now()
	job.CompletedAt = &now
	m.log.Error("[InsertJob %s] error: %s", job.ID[:8], errMsg)
}

func (m *Manager) markJobCancelled(job *Job) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job.Status = StatusCancelled
	job.Error = "insert cancelled"
	now := time.Now()
	job.CompletedAt = &now
	m.log.Warn("[InsertJob %s] cancelled", job.ID[:8])
}

// CleanupOldJobs removes finished jobs older than the specified duration.
func (m *Manager) CleanupOldJobs(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	cutoff := time.Now().Add(-maxAge)
	for id, job := range m.jobs {
		if job.Status.Done() && job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(m.jobs, id)
			removed++
		}
	}
	return removed
}

// RunCleanup removes old jobs every interval until ctx is done.
func (m *Manager) RunCleanup(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.CleanupOldJobs(maxAge); n > 0 {
				m.log.Debug("removed %d finished insert jobs", n)
			}
		}
	}
}
