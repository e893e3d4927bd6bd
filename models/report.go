package models

import (
	"encoding/json"
	"math"
)

// SubjectStats holds per-subject aggregates over attempts with an obtained mark
type SubjectStats struct {
	Code       string  `json:"code" yaml:"code"`
	Attempts   int     `json:"total_attempts" yaml:"total_attempts"`
	Passes     int     `json:"passes" yaml:"passes"`
	Failures   int     `json:"failures" yaml:"failures"`
	Highest    float64 `json:"highest" yaml:"highest"`
	Lowest     float64 `json:"lowest" yaml:"lowest"`
	Average    float64 `json:"average" yaml:"average"`
	TotalMarks float64 `json:"total_marks" yaml:"total_marks"`
}

// PassRate is the share of attempts that passed, in percent.
func (s SubjectStats) PassRate() float64 {
	if s.Attempts == 0 {
		return 0
	}
	return float64(s.Passes) / float64(s.Attempts) * 100
}

// RankedSubject is a subject code with its failure count
type RankedSubject struct {
	Code     string `json:"code" yaml:"code"`
	Failures int    `json:"failures" yaml:"failures"`
}

// Report is the aggregate view over a set of marksheets
type Report struct {
	TotalStudents  int               `json:"total_students" yaml:"total_students"`
	PassedStudents int               `json:"passed_students" yaml:"passed_students"`
	FailedStudents int               `json:"failed_students" yaml:"failed_students"`
	PassPercentage float64           `json:"pass_percentage" yaml:"pass_percentage"`
	Subjects       []SubjectStats    `json:"subject_analysis" yaml:"subject_analysis"`
	TopStudents    []MarksheetRecord `json:"top_students" yaml:"top_students"`
	WeakSubjects   []RankedSubject   `json:"weak_subjects" yaml:"weak_subjects"`
}

// MarshalJSON writes an infinite Lowest (a subject with no attempts) as null.
func (s SubjectStats) MarshalJSON() ([]byte, error) {
	type alias SubjectStats
	out := struct {
		alias
		Lowest *float64 `json:"lowest"`
	}{alias: alias(s)}
	if !math.IsInf(s.Lowest, 0) {
		out.Lowest = &s.Lowest
	}
	return json.Marshal(out)
}
