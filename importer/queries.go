package importer

import (
	"regexp"

	"github.com/nonsonwune/tu_results/migrations"
)

// Queries use postgres placeholders and are rebound for sqlite.
const (
	upsertMarksheet = `
		INSERT INTO marksheets (symbol_number, name, roll_number, program, exam,
			total_marks, obtained_marks, result, batch_id, imported_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (symbol_number) DO UPDATE SET
			name = excluded.name,
			roll_number = excluded.roll_number,
			program = excluded.program,
			exam = excluded.exam,
			total_marks = excluded.total_marks,
			obtained_marks = excluded.obtained_marks,
			result = excluded.result,
			batch_id = excluded.batch_id,
			imported_at = excluded.imported_at`

	deleteSubjects = `DELETE FROM subject_marks WHERE symbol_number = $1`

	insertSubject = `
		INSERT INTO subject_marks (symbol_number, position, code, full_marks, pass_marks, obtained_marks)
		VALUES ($1, $2, $3, $4, $5, $6)`

	selectMarksheets = `
		SELECT symbol_number, name, roll_number, program, exam, total_marks, obtained_marks, result
		FROM marksheets
		ORDER BY symbol_number`

	selectSubjects = `
		SELECT symbol_number, code, full_marks, pass_marks, obtained_marks
		FROM subject_marks
		ORDER BY symbol_number, position`
)

var placeholder = regexp.MustCompile(`\$(\d+)`)

func (d *DataImporter) rebind(query string) string {
	return rebind(d.cfg.Driver, query)
}

func rebind(driver, query string) string {
	if driver == migrations.SQLite {
		return placeholder.ReplaceAllString(query, "?$1")
	}
	return query
}
