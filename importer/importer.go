// Package importer persists parsed marksheets into postgres or sqlite.
package importer

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nonsonwune/tu_results/migrations"
	"github.com/nonsonwune/tu_results/models"
)

// Defaults for Config.
const (
	DefaultBatchSize = 100
	DefaultFailedDir = "failed_imports"
)

// Error codes carried by ImportError.
const (
	CodeInvalidSymbol = "INVALID_SYMBOL"
	CodeDuplicate     = "DUPLICATE_SYMBOL"
	CodeDatabase      = "DB_ERROR"
)

var symbolPattern = regexp.MustCompile(`^\d+$`)

// Config controls an import.
type Config struct {
	Driver    string
	BatchSize int
	// FailedDir receives a CSV of the records that could not be imported.
	FailedDir string
}

// ImportError describes why one record was not imported.
type ImportError struct {
	Code      string
	Message   string
	Symbol    string
	Timestamp time.Time
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Symbol, e.Message)
}

// Stats summarises an import.
type Stats struct {
	BatchID        string
	TotalProcessed int
	Imported       int
	Skipped        int
	ErrorsByType   map[string]int
	Failures       []*ImportError
	FailedFile     string
}

func newStats() Stats {
	return Stats{BatchID: uuid.NewString(), ErrorsByType: make(map[string]int)}
}

func (s *Stats) addFailure(e *ImportError) {
	s.ErrorsByType[e.Code]++
	s.Skipped++
	s.Failures = append(s.Failures, e)
}

// PrintSummary logs the import statistics.
func (s Stats) PrintSummary(log zerolog.Logger) {
	log.Info().
		Str("batch_id", s.BatchID).
		Int("processed", s.TotalProcessed).
		Int("imported", s.Imported).
		Int("skipped", s.Skipped).
		Msg("import statistics")

	codes := make([]string, 0, len(s.ErrorsByType))
	for code := range s.ErrorsByType {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		return s.ErrorsByType[codes[i]] > s.ErrorsByType[codes[j]]
	})
	for _, code := range codes {
		log.Warn().Str("code", code).Int("occurrences", s.ErrorsByType[code]).Msg("import errors")
	}
	if s.FailedFile != "" {
		log.Info().Str("file", s.FailedFile).Msg("failed records saved")
	}
}

// DataImporter writes marksheets in batched transactions. Each record runs
// under its own savepoint so one bad row does not abort its batch.
type DataImporter struct {
	db  *sql.DB
	cfg Config
	log zerolog.Logger
	now func() time.Time
}

// New creates an importer over db.
func New(db *sql.DB, cfg Config, log zerolog.Logger) (*DataImporter, error) {
	switch cfg.Driver {
	case migrations.Postgres, migrations.SQLite:
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.FailedDir == "" {
		cfg.FailedDir = DefaultFailedDir
	}
	return &DataImporter{db: db, cfg: cfg, log: log, now: time.Now}, nil
}

// Import upserts records by symbol number, replacing their subject rows.
// Records that fail are skipped, counted in Stats and written to a CSV in
// FailedDir. The error is non-nil only when the import itself could not
// proceed.
func (d *DataImporter) Import(ctx context.Context, records []models.MarksheetRecord) (Stats, error) {
	stats := newStats()
	log := d.log.With().Str("batch_id", stats.BatchID).Logger()
	seen := make(map[string]bool, len(records))

	var failed []models.MarksheetRecord
	for start := 0; start < len(records); start += d.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		end := min(start+d.cfg.BatchSize, len(records))

		batchFailed, err := d.importBatch(ctx, records[start:end], seen, &stats)
		if err != nil {
			return stats, fmt.Errorf("batch starting at record %d: %w", start+1, err)
		}
		failed = append(failed, batchFailed...)
		log.Debug().Int("from", start+1).Int("to", end).Msg("batch committed")
	}

	if len(failed) > 0 {
		path, err := d.saveFailedRecords(failed, stats.Failures)
		if err != nil {
			log.Error().Err(err).Msg("could not save failed records")
		}
		stats.FailedFile = path
	}
	stats.PrintSummary(log)
	return stats, nil
}

func (d *DataImporter) importBatch(ctx context.Context, batch []models.MarksheetRecord, seen map[string]bool, stats *Stats) ([]models.MarksheetRecord, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	importedAt := d.now().UTC()
	var failed []models.MarksheetRecord
	for _, rec := range batch {
		stats.TotalProcessed++
		if ierr := d.importRecord(ctx, tx, rec, seen, stats.BatchID, importedAt); ierr != nil {
			stats.addFailure(ierr)
			failed = append(failed, rec)
			continue
		}
		seen[rec.SymbolNumber] = true
		stats.Imported++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing transaction: %w", err)
	}
	return failed, nil
}

func (d *DataImporter) importRecord(ctx context.Context, tx *sql.Tx, rec models.MarksheetRecord, seen map[string]bool, batchID string, importedAt time.Time) *ImportError {
	fail := func(code, msg string) *ImportError {
		return &ImportError{Code: code, Message: msg, Symbol: rec.SymbolNumber, Timestamp: d.now()}
	}

	if !symbolPattern.MatchString(rec.SymbolNumber) {
		return fail(CodeInvalidSymbol, "symbol number must be digits")
	}
	if seen[rec.SymbolNumber] {
		return fail(CodeDuplicate, "symbol number already imported in this run")
	}

	if _, err := tx.ExecContext(ctx, "SAVEPOINT record"); err != nil {
		return fail(CodeDatabase, err.Error())
	}
	if err := d.writeRecord(ctx, tx, rec, batchID, importedAt); err != nil {
		if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT record"); rbErr != nil {
			err = errors.Join(err, rbErr)
		} else if _, relErr := tx.ExecContext(ctx, "RELEASE SAVEPOINT record"); relErr != nil {
			err = errors.Join(err, relErr)
		}
		return fail(CodeDatabase, err.Error())
	}
	if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT record"); err != nil {
		return fail(CodeDatabase, err.Error())
	}
	return nil
}

func (d *DataImporter) writeRecord(ctx context.Context, tx *sql.Tx, rec models.MarksheetRecord, batchID string, importedAt time.Time) error {
	_, err := tx.ExecContext(ctx, d.rebind(upsertMarksheet),
		rec.SymbolNumber, nullString(rec.Name), nullString(rec.RollNumber), nullString(rec.Program),
		nullString(rec.Exam), nullFloat(rec.TotalMarks), nullFloat(rec.ObtainedMarks),
		nullString(rec.Result), batchID, importedAt)
	if err != nil {
		return fmt.Errorf("upsert marksheet: %w", err)
	}

	if _, err := tx.ExecContext(ctx, d.rebind(deleteSubjects), rec.SymbolNumber); err != nil {
		return fmt.Errorf("clear subjects: %w", err)
	}
	for i, s := range rec.Subjects {
		_, err := tx.ExecContext(ctx, d.rebind(insertSubject),
			rec.SymbolNumber, i, s.Code, s.FullMarks, s.PassMarks, nullFloat(s.ObtainedMarks))
		if err != nil {
			return fmt.Errorf("insert subject %s: %w", s.Code, err)
		}
	}
	return nil
}

// saveFailedRecords writes the skipped records with their error next to
// them and returns the file path.
func (d *DataImporter) saveFailedRecords(records []models.MarksheetRecord, failures []*ImportError) (string, error) {
	if err := os.MkdirAll(d.cfg.FailedDir, 0o755); err != nil {
		return "", fmt.Errorf("error creating %s directory: %w", d.cfg.FailedDir, err)
	}

	timestamp := d.now().Format("20060102_150405")
	path := filepath.Join(d.cfg.FailedDir, fmt.Sprintf("failed_records_%s.csv", timestamp))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("error creating failed records file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"symbol_number", "name", "roll_number", "result", "subjects", "error_code", "error"}); err != nil {
		return "", fmt.Errorf("error writing headers: %w", err)
	}
	for i, rec := range records {
		row := []string{
			rec.SymbolNumber,
			deref(rec.Name),
			deref(rec.RollNumber),
			deref(rec.Result),
			strconv.Itoa(len(rec.Subjects)),
			failures[i].Code,
			failures[i].Message,
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("error writing record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return path, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
