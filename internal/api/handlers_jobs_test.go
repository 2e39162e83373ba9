package api

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sheet-uploader/backend/internal/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startAsyncInsert(t *testing.T, s *testServer, fileID uint) string {
	t.Helper()
	rec := s.do(httptest.NewRequest(http.MethodPost, "/files/insert/"+itoa(fileID)+"?async=true", nil))
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var data struct {
		JobID  string      `json:"job_id"`
		Status jobs.Status `json:"status"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
	require.NotEmpty(t, data.JobID)
	assert.Equal(t, jobs.StatusQueued, data.Status)
	return data.JobID
}

func TestJobHandler_AsyncInsert(t *testing.T) {
	s := newTestServer(t, 1<<20)
	id := uploadWorkbook(t, s, workbook(t))

	jobID := startAsyncInsert(t, s, id)
	s.jobs.Wait()

	rec := s.do(httptest.NewRequest(http.MethodGet, "/files/insert/jobs/"+jobID, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var job jobs.Job
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &job))
	assert.Equal(t, jobs.StatusComplete, job.Status)
	assert.Equal(t, float64(100), job.Progress)
	assert.Equal(t, id, job.FileID)
	require.NotNil(t, job.Summary)
	assert.Equal(t, 3, job.Summary.TotalInserted)
	assert.Equal(t, 3, s.records.RecordCount())

	// Finished jobs cannot be cancelled
	rec = s.do(httptest.NewRequest(http.MethodDelete, "/files/insert/jobs/"+jobID, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "job already finished", decode(t, rec).Message)
}

func TestJobHandler_AsyncInsertOfMissingFile(t *testing.T) {
	s := newTestServer(t, 1<<20)

	jobID := startAsyncInsert(t, s, 77)
	s.jobs.Wait()

	job, ok := s.jobs.GetJob(jobID)
	require.True(t, ok)
	assert.Equal(t, jobs.StatusError, job.Status)
	assert.Contains(t, job.Error, "file not found")
}

func TestJobHandler_UnknownJob(t *testing.T) {
	s := newTestServer(t, 1<<20)

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		rec := s.do(httptest.NewRequest(method, "/files/insert/jobs/nope", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, method)
		env := decode(t, rec)
		assert.Equal(t, "job", env.Type)
		assert.Equal(t, "NOT_FOUND", env.Errors["code"])
	}

	rec := s.do(httptest.NewRequest(http.MethodGet, "/files/insert/jobs/nope/ws", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func readSSE(t *testing.T, body string) []string {
	t.Helper()
	var frames []string
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		if line := sc.Text(); strings.HasPrefix(line, "data: ") {
			frames = append(frames, strings.TrimPrefix(line, "data: "))
		}
	}
	require.NoError(t, sc.Err())
	return frames
}

func TestJobHandler_Stream(t *testing.T) {
	s := newTestServer(t, 1<<20)
	id := uploadWorkbook(t, s, workbook(t))
	jobID := startAsyncInsert(t, s, id)
	s.jobs.Wait()

	rec := s.do(httptest.NewRequest(http.MethodGet, "/files/insert/jobs/"+jobID+"/stream", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	frames := readSSE(t, rec.Body.String())
	require.Len(t, frames, 1, "a finished job is sent once")

	var job jobs.Job
	require.NoError(t, json.Unmarshal([]byte(frames[0]), &job))
	assert.Equal(t, jobs.StatusComplete, job.Status)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/files/insert/jobs/missing/stream", nil))
	frames = readSSE(t, rec.Body.String())
	require.Len(t, frames, 1)
	assert.JSONEq(t, `{"error":"job not found"}`, frames[0])
}

func TestJobHandler_WebSocket(t *testing.T) {
	s := newTestServer(t, 1<<20)
	id := uploadWorkbook(t, s, workbook(t))
	jobID := startAsyncInsert(t, s, id)

	srv := httptest.NewServer(s.e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/files/insert/jobs/" + jobID + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer ws.Close()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))

	var last jobs.Job
	for {
		var job jobs.Job
		if err := ws.ReadJSON(&job); err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected error: %v", err)
			break
		}
		assert.GreaterOrEqual(t, job.StepsDone, last.StepsDone, "progress never goes backwards")
		last = job
	}

	assert.Equal(t, jobs.StatusComplete, last.Status)
	assert.Equal(t, last.StepsTotal, last.StepsDone)
}
