package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/offlinify/internal/model"
)

// FileName is the name of the ledger database inside the database directory.
const FileName = "offlinify.db"

// ErrDatabaseNotFound is returned by Open when the database does not exist
// and CreateIfNotExists is false.
var ErrDatabaseNotFound = errors.New("database not found")

// Ledger stores the history of processed documents.
//
// Design decision: All runs share one database file rather than one file per
// output root, so `history` works regardless of where the pages were written.
type Ledger struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Ledger behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a Ledger in dbDir.
// If CreateIfNotExists is false and the database doesn't exist,
// ErrDatabaseNotFound is returned.
func Open(dbDir string, opts Options) (*Ledger, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrDatabaseNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file; mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	l := &Ledger{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := l.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return l, nil
}

// Path returns the database file path.
func (l *Ledger) Path() string {
	return l.dbPath
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (l *Ledger) createTables() error {
	schema := `
	-- One row per processed document
	CREATE TABLE IF NOT EXISTS documents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		stem TEXT NOT NULL,
		source TEXT NOT NULL,
		output_dir TEXT NOT NULL,
		processed_at TEXT NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		resources INTEGER NOT NULL DEFAULT 0,
		placeholders INTEGER NOT NULL DEFAULT 0,
		removed_wall_images INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_documents_stem ON documents(stem);

	-- Localized resources of each document run
	CREATE TABLE IF NOT EXISTS resources (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		document_id INTEGER NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		local_path TEXT NOT NULL,
		content_type TEXT,
		size INTEGER NOT NULL DEFAULT 0,
		placeholder INTEGER NOT NULL DEFAULT 0,
		digest TEXT,
		has_gps INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_resources_document ON resources(document_id);
	CREATE INDEX IF NOT EXISTS idx_resources_digest ON resources(digest);
	`

	_, err := l.db.ExecContext(context.Background(), schema)
	return err
}

// DocumentRecord is a summary row of one document run.
type DocumentRecord struct {
	// ID is the unique identifier of the run in the database.
	ID int64 `json:"id"`

	// Stem is the output directory name.
	Stem string `json:"stem"`

	// Source is the input HTML file.
	Source string `json:"source"`

	// OutputDir is where the cleaned document was written.
	OutputDir string `json:"output_dir"`

	// ProcessedAt is when processing started.
	ProcessedAt time.Time `json:"processed_at"`

	// Duration is how long processing took.
	Duration time.Duration `json:"duration"`

	// Resources and Placeholders count the localized files.
	Resources    int `json:"resources"`
	Placeholders int `json:"placeholders"`

	// RemovedWallImages is the number of trailing wall images deleted.
	RemovedWallImages int `json:"removed_wall_images"`

	// Error is the failure message, empty on success.
	Error string `json:"error,omitempty"`
}

// Failed reports whether the run failed.
func (r DocumentRecord) Failed() bool {
	return r.Error != ""
}

// SaveDocumentReport stores one document report with its resources and
// returns the new run ID.
func (l *Ledger) SaveDocumentReport(ctx context.Context, report *model.DocumentReport) (int64, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after Commit
	}()

	id, err := insertDocument(ctx, tx, report)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit document report: %w", err)
	}
	return id, nil
}

// SaveBatch stores every started document of summary in one transaction.
// Documents that never started are skipped.
func (l *Ledger) SaveBatch(ctx context.Context, summary *model.BatchSummary) (int, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after Commit
	}()

	saved := 0
	for _, report := range summary.Documents {
		if report == nil {
			continue
		}
		if _, err := insertDocument(ctx, tx, report); err != nil {
			return 0, err
		}
		saved++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit batch: %w", err)
	}
	return saved, nil
}

// insertDocument writes a document row and its resource rows.
func insertDocument(ctx context.Context, tx *sql.Tx, report *model.DocumentReport) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	var errMsg sql.NullString
	if report.ErrorMessage != "" {
		errMsg = sql.NullString{String: report.ErrorMessage, Valid: true}
	}

	result, err := tx.ExecContext(ctx, `
	INSERT INTO documents (stem, source, output_dir, processed_at, duration_ms,
		resources, placeholders, removed_wall_images, error, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.Stem,
		report.Source,
		report.OutputDir,
		report.DateProcessed.UTC().Format(time.RFC3339Nano),
		report.Duration.Milliseconds(),
		len(report.Resources),
		report.PlaceholderCount(),
		report.RemovedWallImages,
		errMsg,
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert document %s: %w", report.Stem, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read document id: %w", err)
	}

	for _, res := range report.Resources {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO resources (document_id, url, local_path, content_type, size, placeholder, digest, has_gps)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			id,
			res.URL,
			res.LocalPath,
			res.ContentType,
			res.Size,
			res.Placeholder,
			res.Digest,
			res.HasGPS,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert resource %s: %w", res.LocalPath, err)
		}
	}

	return id, nil
}

// ListStems returns every stem in the ledger in alphabetical order.
func (l *Ledger) ListStems(ctx context.Context) ([]string, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT DISTINCT stem FROM documents ORDER BY stem`)
	if err != nil {
		return nil, fmt.Errorf("failed to list stems: %w", err)
	}
	defer rows.Close()

	var stems []string
	for rows.Next() {
		var stem string
		if err := rows.Scan(&stem); err != nil {
			return nil, fmt.Errorf("failed to scan stem: %w", err)
		}
		stems = append(stems, stem)
	}

	return stems, rows.Err()
}

// GetDocumentHistory returns every run of stem, newest first.
func (l *Ledger) GetDocumentHistory(ctx context.Context, stem string) ([]DocumentRecord, error) {
	rows, err := l.db.QueryContext(ctx, `
	SELECT id, stem, source, output_dir, processed_at, duration_ms,
		resources, placeholders, removed_wall_images, error
	FROM documents
	WHERE stem = ?
	ORDER BY id DESC
	`, stem)
	if err != nil {
		return nil, fmt.Errorf("failed to get document history: %w", err)
	}
	defer rows.Close()

	var results []DocumentRecord
	for rows.Next() {
		var (
			rec         DocumentRecord
			processedAt string
			durationMS  int64
			errMsg      sql.NullString
		)

		err := rows.Scan(
			&rec.ID,
			&rec.Stem,
			&rec.Source,
			&rec.OutputDir,
			&processedAt,
			&durationMS,
			&rec.Resources,
			&rec.Placeholders,
			&rec.RemovedWallImages,
			&errMsg,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document record: %w", err)
		}

		rec.ProcessedAt = parseTimestamp(processedAt)
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		rec.Error = errMsg.String
		results = append(results, rec)
	}

	return results, rows.Err()
}

// GetDocumentReportByID returns the full report stored for a run.
// It returns nil without error when the ID does not exist.
func (l *Ledger) GetDocumentReportByID(ctx context.Context, id int64) (*model.DocumentReport, error) {
	var reportJSON string
	err := l.db.QueryRowContext(ctx, `SELECT report_json FROM documents WHERE id = ?`, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document report: %w", err)
	}

	var report model.DocumentReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

// GetResources returns the resources of a run in allocation order.
func (l *Ledger) GetResources(ctx context.Context, documentID int64) ([]model.Resource, error) {
	rows, err := l.db.QueryContext(ctx, `
	SELECT url, local_path, content_type, size, placeholder, digest, has_gps
	FROM resources
	WHERE document_id = ?
	ORDER BY id
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get resources: %w", err)
	}
	defer rows.Close()

	var results []model.Resource
	for rows.Next() {
		var (
			res         model.Resource
			contentType sql.NullString
			digest      sql.NullString
		)
		if err := rows.Scan(
			&res.URL,
			&res.LocalPath,
			&contentType,
			&res.Size,
			&res.Placeholder,
			&digest,
			&res.HasGPS,
		); err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		res.ContentType = contentType.String
		res.Digest = digest.String
		results = append(results, res)
	}

	return results, rows.Err()
}

// FindStemsByDigest returns the stems whose runs stored a resource with digest.
// The same image downloaded for several articles shares one digest.
func (l *Ledger) FindStemsByDigest(ctx context.Context, digest string) ([]string, error) {
	rows, err := l.db.QueryContext(ctx, `
	SELECT DISTINCT d.stem
	FROM resources r JOIN documents d ON d.id = r.document_id
	WHERE r.digest = ?
	ORDER BY d.stem
	`, digest)
	if err != nil {
		return nil, fmt.Errorf("failed to find digest: %w", err)
	}
	defer rows.Close()

	var stems []string
	for rows.Next() {
		var stem string
		if err := rows.Scan(&stem); err != nil {
			return nil, fmt.Errorf("failed to scan stem: %w", err)
		}
		stems = append(stems, stem)
	}

	return stems, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, it returns the zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
