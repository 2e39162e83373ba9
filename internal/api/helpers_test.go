package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sheet-uploader/backend/internal/ingest"
	"github.com/sheet-uploader/backend/internal/jobs"
	"github.com/sheet-uploader/backend/internal/logging"
	"github.com/sheet-uploader/backend/internal/sheet"
	"github.com/sheet-uploader/backend/internal/testutil"
	"github.com/sheet-uploader/backend/internal/upload"
	"github.com/stretchr/testify/require"
)

// testServer wires the real services over in-memory stores.
type testServer struct {
	e       *echo.Echo
	records *testutil.MemoryRecordStore
	files   *testutil.MemoryFileStore
	jobs    *jobs.Manager
}

func newTestServer(t *testing.T, maxSize int64) *testServer {
	t.Helper()

	records := testutil.NewMemoryRecordStore()
	files := testutil.NewMemoryFileStore()
	log := logging.Nop()

	uploads := upload.NewManager(records, files, upload.Config{
		AllowedExtensions: []string{"xls", "xlsx"},
		MaxFileSize:       maxSize,
	}, log)
	svc := ingest.NewService(records, files, sheet.NewRegistry(), sheet.NewProcessor(), log)
	jobMgr := jobs.NewManager(svc, log)
	t.Cleanup(jobMgr.Wait)

	e := echo.New()
	e.HTTPErrorHandler = NewErrorHandler(true, log)
	RegisterRoutes(e, NewHandlers(&Dependencies{
		Files:   uploads,
		Ingest:  svc,
		Jobs:    jobMgr,
		DB:      records,
		Log:     log,
		Version: "test",
	}))

	return &testServer{e: e, records: records, files: files, jobs: jobMgr}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func multipartBody(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func (s *testServer) upload(t *testing.T, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, "file", filename, data)
	req := httptest.NewRequest(http.MethodPost, "/files/upload", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	return s.do(req)
}

// envelope mirrors Response with raw data for decoding in tests.
type envelope struct {
	Status  string            `json:"status"`
	Type    string            `json:"type"`
	Title   string            `json:"title"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func workbook(t *testing.T) []byte {
	return testutil.WorkbookBytes(t,
		testutil.SheetSpec{Name: "Orders", Rows: [][]any{
			testutil.Header(),
			{"Ann", "Main St", 1234567, "Widget", 3},
			{"Bob", "Side St", "0800", "Gadget", "5.0"},
			{"Cid", "Hill Rd", 7654321, "Widget", 2},
		}},
		testutil.SheetSpec{Name: "NoProduct", Rows: [][]any{
			{"Name", "Address", "Phone", "Quantity"},
			{"Dan", "Lane", 1, 1},
		}},
		testutil.SheetSpec{Name: "Empty"},
	)
}
