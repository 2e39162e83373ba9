package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/marcboeker/go-duckdb"
	"github.com/sheet-uploader/backend/internal/models"
)

// DuckStore implements RecordStore on an embedded DuckDB database. Records
// are loaded with the native Appender API.
type DuckStore struct {
	db *sql.DB

	// insertMu serializes bulk inserts; record ids continue from MAX(id).
	insertMu sync.Mutex
}

// DuckDBConfig holds DuckDB-specific configuration. An empty Path opens an
// in-memory database.
type DuckDBConfig struct {
	Path        string
	Threads     int
	MemoryLimit string
}

var duckSchema = []string{
	`CREATE SEQUENCE IF NOT EXISTS excel_files_id_seq START 1`,
	`CREATE TABLE IF NOT EXISTS excel_files (
		id          BIGINT PRIMARY KEY DEFAULT nextval('excel_files_id_seq'),
		filename    VARCHAR NOT NULL,
		filepath    VARCHAR NOT NULL,
		filesize    BIGINT NOT NULL,
		filetype    VARCHAR NOT NULL,
		checksum    VARCHAR,
		upload_date TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS excel_data (
		id         BIGINT PRIMARY KEY,
		name       VARCHAR NOT NULL,
		address    VARCHAR NOT NULL,
		phone      VARCHAR NOT NULL,
		product    VARCHAR NOT NULL,
		quantity   BIGINT NOT NULL,
		sheet_name VARCHAR NOT NULL,
		file_id    BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_excel_data_file_id ON excel_data (file_id)`,
}

// NewDuckStore opens a DuckDB database with the configured pragmas.
func NewDuckStore(ctx context.Context, cfg DuckDBConfig) (*DuckStore, error) {
	pragmas := []string{"PRAGMA enable_progress_bar=false"}
	if cfg.MemoryLimit != "" {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA memory_limit='%s'", cfg.MemoryLimit))
	}
	if cfg.Threads > 0 {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA threads=%d", cfg.Threads))
	}

	connector, err := duckdb.NewConnector(cfg.Path, func(execer driver.ExecerContext) error {
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return fmt.Errorf("%s: %w", pragma, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to duckdb: %w", err)
	}

	return &DuckStore{db: db}, nil
}

func (s *DuckStore) Close() error {
	return s.db.Close()
}

func (s *DuckStore) Migrate(ctx context.Context) error {
	for _, stmt := range duckSchema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate duckdb schema: %w", err)
		}
	}
	return nil
}

func (s *DuckStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *DuckStore) InsertFileMetadata(ctx context.Context, file *models.UploadedFile) error {
	if file.UploadDate.IsZero() {
		file.UploadDate = time.Now().UTC()
	}

	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO excel_files (filename, filepath, filesize, filetype, checksum, upload_date)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`,
		file.Filename, file.Filepath, file.Filesize, file.Filetype, file.Checksum, file.UploadDate,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to insert file metadata: %w", err)
	}

	file.ID = uint(id)
	return nil
}

const fileColumns = `id, filename, filepath, filesize, filetype, COALESCE(checksum, ''), upload_date`

func scanFile(row interface{ Scan(...any) error }) (*models.UploadedFile, error) {
	var (
		f  models.UploadedFile
		id int64
	)
	if err := row.Scan(&id, &f.Filename, &f.Filepath, &f.Filesize, &f.Filetype, &f.Checksum, &f.UploadDate); err != nil {
		return nil, err
	}
	f.ID = uint(id)
	return &f, nil
}

func (s *DuckStore) GetFileMetadata(ctx context.Context, id uint) (*models.UploadedFile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM excel_files WHERE id = ?`, int64(id))
	f, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s *DuckStore) ListFileMetadata(ctx context.Context) ([]models.UploadedFile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+fileColumns+` FROM excel_files ORDER BY upload_date DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	files := []models.UploadedFile{}
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, *f)
	}
	return files, rows.Err()
}

func (s *DuckStore) DeleteFile(ctx context.Context, id uint) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM excel_files WHERE id = ?`, int64(id)).Scan(&exists)
	if err != nil {
		return false, err
	}
	if exists == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM excel_data WHERE file_id = ?`, int64(id)); err != nil {
		return false, fmt.Errorf("failed to delete records: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM excel_files WHERE id = ?`, int64(id)); err != nil {
		return false, fmt.Errorf("failed to delete file metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// BulkInsertRecords appends every record through a single connection inside
// one transaction. Ids continue from the current maximum, so concurrent
// calls run one after the other.
func (s *DuckStore) BulkInsertRecords(ctx context.Context, records []models.DataRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	s.insertMu.Lock()
	defer s.insertMu.Unlock()

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN TRANSACTION"); err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			conn.ExecContext(context.Background(), "ROLLBACK")
		}
	}()

	var baseID int64
	if err := conn.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) FROM excel_data`).Scan(&baseID); err != nil {
		return 0, err
	}

	// Access the raw driver connection to use the Appender API
	err = conn.Raw(func(driverConn any) error {
		dConn, ok := driverConn.(*duckdb.Conn)
		if !ok {
			return fmt.Errorf("failed to cast to duckdb.Conn")
		}

		appender, err := duckdb.NewAppenderFromConn(dConn, "", "excel_data")
		if err != nil {
			return fmt.Errorf("failed to create appender: %w", err)
		}
		defer appender.Close()

		for i := range records {
			r := &records[i]
			r.ID = uint(baseID) + uint(i) + 1
			err := appender.AppendRow(
				int64(r.ID),
				r.Name,
				r.Address,
				r.Phone,
				r.Product,
				r.Quantity,
				r.SheetName,
				int64(r.FileID),
			)
			if err != nil {
				return fmt.Errorf("failed to append row %d: %w", i, err)
			}
		}

		return appender.Flush()
	})
	if err != nil {
		return 0, fmt.Errorf("appender error: %w", err)
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return 0, fmt.Errorf("bulk insert failed: %w", err)
	}
	committed = true

	return len(records), nil
}

func (s *DuckStore) ListRecords(ctx context.Context, fileID uint) ([]models.DataRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, address, phone, product, quantity, sheet_name, file_id
		FROM excel_data WHERE file_id = ? ORDER BY id`, int64(fileID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []models.DataRecord{}
	for rows.Next() {
		var (
			r          models.DataRecord
			id, fileID int64
		)
		if err := rows.Scan(&id, &r.Name, &r.Address, &r.Phone, &r.Product, &r.Quantity, &r.SheetName, &fileID); err != nil {
			return nil, err
		}
		r.ID = uint(id)
		r.FileID = uint(fileID)
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *DuckStore) AggregateByProduct(ctx context.Context) ([]models.ChartAggregate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT product, CAST(SUM(quantity) AS BIGINT) AS total
		FROM excel_data
		GROUP BY product
		ORDER BY product`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := []models.ChartAggregate{}
	for rows.Next() {
		var agg models.ChartAggregate
		if err := rows.Scan(&agg.Product, &agg.Total); err != nil {
			return nil, err
		}
		totals = append(totals, agg)
	}
	return totals, rows.Err()
}
