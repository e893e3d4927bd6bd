package importer

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nonsonwune/tu_results/models"
)

// LoadRecords reads every stored marksheet with its subjects, ordered by
// symbol number.
func LoadRecords(ctx context.Context, db *sql.DB, driver string) ([]models.MarksheetRecord, error) {
	rows, err := db.QueryContext(ctx, rebind(driver, selectMarksheets))
	if err != nil {
		return nil, fmt.Errorf("query marksheets: %w", err)
	}
	defer rows.Close()

	var records []models.MarksheetRecord
	index := make(map[string]int)
	for rows.Next() {
		var (
			rec                           models.MarksheetRecord
			name, roll, program, exam, rs sql.NullString
			total, obtained               sql.NullFloat64
		)
		if err := rows.Scan(&rec.SymbolNumber, &name, &roll, &program, &exam, &total, &obtained, &rs); err != nil {
			return nil, fmt.Errorf("scan marksheet: %w", err)
		}
		rec.Name = fromNullString(name)
		rec.RollNumber = fromNullString(roll)
		rec.Program = fromNullString(program)
		rec.Exam = fromNullString(exam)
		rec.TotalMarks = fromNullFloat(total)
		rec.ObtainedMarks = fromNullFloat(obtained)
		rec.Result = fromNullString(rs)

		index[rec.SymbolNumber] = len(records)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	subjects, err := db.QueryContext(ctx, rebind(driver, selectSubjects))
	if err != nil {
		return nil, fmt.Errorf("query subjects: %w", err)
	}
	defer subjects.Close()

	for subjects.Next() {
		var (
			symbol   string
			s        models.SubjectMark
			obtained sql.NullFloat64
		)
		if err := subjects.Scan(&symbol, &s.Code, &s.FullMarks, &s.PassMarks, &obtained); err != nil {
			return nil, fmt.Errorf("scan subject: %w", err)
		}
		s.ObtainedMarks = fromNullFloat(obtained)
		if i, ok := index[symbol]; ok {
			records[i].Subjects = append(records[i].Subjects, s)
		}
	}
	return records, subjects.Err()
}

func fromNullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return models.String(s.String)
}

func fromNullFloat(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	return models.Float(f.Float64)
}
