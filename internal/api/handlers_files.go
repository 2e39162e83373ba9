// handlers_files.go - File upload, listing and deletion handlers
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sheet-uploader/backend/internal/logging"
	"github.com/sheet-uploader/backend/internal/upload"
)

// FileHandlerImpl implements the FileHandler interface
type FileHandlerImpl struct {
	files FileService
	log   logging.Logger
}

// NewFileHandler creates a new file handler instance
func NewFileHandler(files FileService, log logging.Logger) FileHandler {
	return &FileHandlerImpl{
		files: files,
		log:   log,
	}
}

// HandleUploadFile accepts a multipart upload in the "file" field
func (h *FileHandlerImpl) HandleUploadFile(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return NewValidationError("file").WithType("upload")
	}

	if fh.Filename == "" {
		return NewValidationError("file").WithType("upload")
	}

	src, err := fh.Open()
	if err != nil {
		return NewBadRequestError("failed to read uploaded file", err).WithType("upload")
	}
	defer src.Close()

	file, err := h.files.Accept(c.Request().Context(), fh.Filename, fh.Header.Get(echo.HeaderContentType), src)
	if err != nil {
		h.log.Warn("upload of %s rejected: %v", fh.Filename, err)
		if errors.Is(err, upload.ErrExtensionNotAllowed) {
			msg := fmt.Sprintf("only %s files are allowed", allowedList(h.files.AllowedExtensions()))
			return NewBadRequestError(msg, err).WithType("upload")
		}
		return fromDomainError(err, fh.Filename, "failed to save upload").WithType("upload")
	}

	return respondJSON(c, http.StatusCreated, success(
		"upload",
		"Upload successful",
		fmt.Sprintf("File '%s' uploaded successfully.", file.Filename),
		map[string]any{
			"file_id":  file.ID,
			"filename": file.Filename,
			"checksum": file.Checksum,
		},
	))
}

// HandleListFiles returns every registered upload, newest first
func (h *FileHandlerImpl) HandleListFiles(c echo.Context) error {
	files, err := h.files.List(c.Request().Context())
	if err != nil {
		return NewInternalError("failed to list files", err).WithType("list")
	}

	return respondJSON(c, http.StatusOK, success(
		"list",
		"Registered files",
		fmt.Sprintf("%d uploaded files", len(files)),
		map[string]any{"files": files},
	))
}

// HandleListRecords returns the persisted records of one upload
func (h *FileHandlerImpl) HandleListRecords(c echo.Context) error {
	id, apiErr := parseFileID(c)
	if apiErr != nil {
		return apiErr.WithType("records")
	}

	file, records, err := h.files.Records(c.Request().Context(), id)
	if err != nil {
		return fromDomainError(err, c.Param("file_id"), "failed to list records").WithType("records")
	}

	return respondJSON(c, http.StatusOK, success(
		"records",
		"Stored records",
		fmt.Sprintf("%d records stored for '%s'", len(records), file.Filename),
		map[string]any{
			"file_id": file.ID,
			"records": records,
		},
	))
}

// HandleDeleteFile removes an upload, its records and its stored file
func (h *FileHandlerImpl) HandleDeleteFile(c echo.Context) error {
	id, apiErr := parseFileID(c)
	if apiErr != nil {
		return apiErr.WithType("delete")
	}

	file, err := h.files.Delete(c.Request().Context(), id)
	if err != nil {
		return fromDomainError(err, c.Param("file_id"), "failed to delete file").WithType("delete")
	}

	return respondJSON(c, http.StatusOK, success(
		"delete",
		"Deletion complete",
		fmt.Sprintf("File '%s' deleted successfully.", file.Filename),
		nil,
	))
}

func parseFileID(c echo.Context) (uint, *APIError) {
	raw := c.Param("file_id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, NewValidationError("file_id")
	}
	return uint(id), nil
}

func allowedList(exts []string) string {
	out := make([]string, len(exts))
	for i, e := range exts {
		out[i] = "." + e
	}
	return strings.Join(out, " or ")
}
