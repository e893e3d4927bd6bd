// Package extractor recovers marksheet fields from raw OCR text.
//
// Extraction is best effort: every field is driven by a rule in a fixed
// table, a rule that finds nothing leaves its field nil, and subject rows
// that fail to match are skipped.
package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/nonsonwune/tu_results/models"
)

// Field names used by the rule table.
const (
	FieldName          = "name"
	FieldRollNumber    = "roll_number"
	FieldProgram       = "program"
	FieldExam          = "exam"
	FieldTotalMarks    = "total_marks"
	FieldObtainedMarks = "obtained_marks"
	FieldResult        = "result"
)

// FieldRule maps one marksheet field to the patterns that locate it and the
// function that stores the captured text. Patterns are tried in order and
// the first one that matches wins.
type FieldRule struct {
	Field    string
	Patterns []*regexp.Regexp
	Apply    func(rec *models.MarksheetRecord, value string) error
}

// Match returns the trimmed first capture group of the first matching
// pattern.
func (r FieldRule) Match(text string) (string, bool) {
	for _, p := range r.Patterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		v := strings.TrimSpace(m[1])
		if v == "" {
			continue
		}
		return v, true
	}
	return "", false
}

// labels ends a free-text field when OCR puts several labels on one line.
const labels = `NAME:|ROLL\s*NO|PROGRAM:|EXAM:|Total\s*Marks|Obtained\s*Marks|Result:`

// freeText captures the rest of the line after label, stopping early at the
// next known label.
func freeText(label string) string {
	return `(?i)` + label + `[ \t]*([^\n]*?)[ \t]*(?:\n|` + labels + `|$)`
}

// Label patterns are case-insensitive. The numeric ones let "\s" cross
// newlines so a label wrapped onto the next OCR line still matches.
var rules = []FieldRule{
	{
		Field:    FieldName,
		Patterns: compile(freeText(`NAME:`)),
		Apply:    setString(func(r *models.MarksheetRecord, v *string) { r.Name = v }),
	},
	{
		Field:    FieldRollNumber,
		Patterns: compile(`(?is)ROLL\s*NO:\s*(\d+)`),
		Apply:    setString(func(r *models.MarksheetRecord, v *string) { r.RollNumber = v }),
	},
	{
		Field:    FieldProgram,
		Patterns: compile(freeText(`PROGRAM:`)),
		Apply:    setString(func(r *models.MarksheetRecord, v *string) { r.Program = v }),
	},
	{
		Field:    FieldExam,
		Patterns: compile(freeText(`EXAM:`)),
		Apply:    setString(func(r *models.MarksheetRecord, v *string) { r.Exam = v }),
	},
	{
		// OCR sometimes drops the colon after the label.
		Field:    FieldTotalMarks,
		Patterns: compile(`(?is)Total\s*Marks:\s*(\d+)`, `(?is)Total\s*Marks\s*(\d+)`),
		Apply:    setFloat(func(r *models.MarksheetRecord, v *float64) { r.TotalMarks = v }),
	},
	{
		Field:    FieldObtainedMarks,
		Patterns: compile(`(?is)Obtained\s*Marks:\s*(\d+)`, `(?is)Obtained\s*Marks\s*(\d+)`),
		Apply:    setFloat(func(r *models.MarksheetRecord, v *float64) { r.ObtainedMarks = v }),
	},
	{
		Field:    FieldResult,
		Patterns: compile(`(?is)Result:\s*(\w+)`),
		Apply:    setString(func(r *models.MarksheetRecord, v *string) { r.Result = v }),
	},
}

// subjectPattern matches a short course code, optional digits and colons, a
// description, then full, pass and obtained marks.
var subjectPattern = regexp.MustCompile(`([A-Z]{2,4}[:\s]*\d*[:\s]*[^\n\d]+?)\s+(\d+)\s+(\d+\.?\d*)\s+(\d+)`)

// Rules returns a copy of the field rule table.
func Rules() []FieldRule {
	out := make([]FieldRule, len(rules))
	copy(out, rules)
	return out
}

// Rule looks up the rule for a field.
func Rule(field string) (FieldRule, bool) {
	for _, r := range rules {
		if r.Field == field {
			return r, true
		}
	}
	return FieldRule{}, false
}

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(e))
	}
	return out
}

func setString(set func(*models.MarksheetRecord, *string)) func(*models.MarksheetRecord, string) error {
	return func(rec *models.MarksheetRecord, value string) error {
		set(rec, models.String(value))
		return nil
	}
}

func setFloat(set func(*models.MarksheetRecord, *float64)) func(*models.MarksheetRecord, string) error {
	return func(rec *models.MarksheetRecord, value string) error {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		set(rec, models.Float(f))
		return nil
	}
}
