package extractor

import (
	"strconv"
	"strings"

	"github.com/nonsonwune/tu_results/models"
)

// Extract parses one OCR text block into a marksheet record. It never fails:
// unmatched fields stay nil and unparsable subject rows are skipped. The
// returned record has no symbol number; callers that know it set it.
func Extract(text string) models.MarksheetRecord {
	var rec models.MarksheetRecord
	for _, rule := range rules {
		value, ok := rule.Match(text)
		if !ok {
			continue
		}
		// A value the rule cannot store leaves the field absent.
		_ = rule.Apply(&rec, value)
	}
	rec.Subjects = ExtractSubjects(text)
	return rec
}

// ExtractFor is Extract with the symbol number filled in.
func ExtractFor(symbol, text string) models.MarksheetRecord {
	rec := Extract(text)
	rec.SymbolNumber = symbol
	return rec
}

// ExtractSubjects returns every non-overlapping subject row in order of
// appearance.
func ExtractSubjects(text string) []models.SubjectMark {
	matches := subjectPattern.FindAllStringSubmatch(text, -1)
	subjects := make([]models.SubjectMark, 0, len(matches))
	for _, m := range matches {
		full, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		pass, err := strconv.ParseFloat(m[3], 64)
		if err != nil {
			continue
		}
		obtained, err := strconv.ParseFloat(m[4], 64)
		if err != nil {
			continue
		}
		subjects = append(subjects, models.SubjectMark{
			Code:          strings.TrimSpace(m[1]),
			FullMarks:     full,
			PassMarks:     pass,
			ObtainedMarks: models.Float(obtained),
		})
	}
	return subjects
}
