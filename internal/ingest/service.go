// Package ingest turns stored workbooks into previews and persisted records.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sheet-uploader/backend/internal/db"
	"github.com/sheet-uploader/backend/internal/logging"
	"github.com/sheet-uploader/backend/internal/models"
	"github.com/sheet-uploader/backend/internal/sheet"
	"github.com/sheet-uploader/backend/internal/storage"
)

var (
	ErrFileNotFound   = errors.New("file not found")
	ErrUnreadableFile = errors.New("unable to read workbook")
)

// StageWrite is the stage reported once the bulk write finished.
const StageWrite = "write"

// ProgressFunc receives the number of finished steps out of total. Every
// sheet is one step and the final bulk write is one more. stage holds the
// sheet name, or StageWrite for the last step.
type ProgressFunc func(done, total int, stage string)

// Service orchestrates previews and inserts of uploaded workbooks.
type Service struct {
	records   db.RecordStore
	files     storage.Store
	registry  *sheet.Registry
	processor *sheet.Processor
	log       logging.Logger
}

// NewService creates an ingestion service.
func NewService(records db.RecordStore, files storage.Store, registry *sheet.Registry, processor *sheet.Processor, log logging.Logger) *Service {
	return &Service{
		records:   records,
		files:     files,
		registry:  registry,
		processor: processor,
		log:       log,
	}
}

// Preview validates every sheet of the file and returns up to the preview
// limit of coerced rows per valid sheet, in file order.
func (s *Service) Preview(ctx context.Context, fileID uint) ([]models.SheetOutcome, error) {
	_, wb, err := s.open(ctx, fileID)
	if err != nil {
		return nil, err
	}

	outcomes := make([]models.SheetOutcome, 0, len(wb.Sheets))
	for _, sh := range wb.Sheets {
		out := s.processor.Process(sh, sheet.ModePreview, fileID)
		outcomes = append(outcomes, out.SheetOutcome())
	}
	return outcomes, nil
}

// Insert loads every valid sheet of the file into the record store with a
// single bulk write. Invalid and empty sheets are skipped and reported in
// the summary. progress may be nil.
func (s *Service) Insert(ctx context.Context, fileID uint, progress ProgressFunc) (*models.InsertSummary, error) {
	file, wb, err := s.open(ctx, fileID)
	if err != nil {
		return nil, err
	}

	if progress == nil {
		progress = func(int, int, string) {}
	}

	total := len(wb.Sheets) + 1
	summary := &models.InsertSummary{
		FileID:   file.ID,
		Filename: file.Filename,
		Sheets:   make([]models.SheetSummary, 0, len(wb.Sheets)),
	}

	var batch []models.DataRecord
	for i, sh := range wb.Sheets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		out := s.processor.Process(sh, sheet.ModeInsert, file.ID)
		if !out.Valid {
			s.log.Warn("sheet %q of %s skipped: %s", sh.Name, file.Filename, out.Message)
		}

		batch = append(batch, out.Records...)
		summary.Sheets = append(summary.Sheets, models.SheetSummary{
			Name:    out.Sheet,
			Message: out.Message,
			Rows:    len(out.Records),
			Missing: out.Missing,
		})

		progress(i+1, total, sh.Name)
		s.log.Debug("insert progress for %s: %d/%d (%s)", file.Filename, i+1, total, sh.Name)
	}

	inserted, err := s.records.BulkInsertRecords(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("failed to insert records of file %d: %w", file.ID, err)
	}
	summary.TotalInserted = inserted
	progress(total, total, StageWrite)

	s.log.Info("%d records inserted from file %s", inserted, file.Filename)
	return summary, nil
}

// open resolves the metadata of fileID and decodes its stored workbook.
func (s *Service) open(ctx context.Context, fileID uint) (*models.UploadedFile, *sheet.Workbook, error) {
	file, err := s.records.GetFileMetadata(ctx, fileID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: %d", ErrFileNotFound, fileID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load file %d: %w", fileID, err)
	}

	rc, err := s.files.Open(file.Filepath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrUnreadableFile, err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrUnreadableFile, err)
	}

	wb, err := s.registry.Read(file.Filename, data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrUnreadableFile, err)
	}
	return file, wb, nil
}
