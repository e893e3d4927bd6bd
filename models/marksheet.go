package models

// SubjectMark represents one subject row of a marksheet
type SubjectMark struct {
	Code          string   `db:"subject_code" json:"code" yaml:"code"`
	FullMarks     float64  `db:"full_marks" json:"full_marks" yaml:"full_marks"`
	PassMarks     float64  `db:"pass_marks" json:"pass_marks" yaml:"pass_marks"`
	ObtainedMarks *float64 `db:"obtained_marks" json:"obtained_marks,omitempty" yaml:"obtained_marks,omitempty"`
}

// Failed reports whether the subject has an obtained mark below its pass mark.
// A subject without an obtained mark is never failed.
func (s SubjectMark) Failed() bool {
	return s.ObtainedMarks != nil && *s.ObtainedMarks < s.PassMarks
}

// MarksheetRecord represents one parsed exam result. Optional fields are nil
// when the OCR text carried no match for them.
type MarksheetRecord struct {
	SymbolNumber  string        `db:"symbol_number" json:"symbol_number" yaml:"symbol_number"`
	Name          *string       `db:"name" json:"name,omitempty" yaml:"name,omitempty"`
	RollNumber    *string       `db:"roll_number" json:"roll_number,omitempty" yaml:"roll_number,omitempty"`
	Program       *string       `db:"program" json:"program,omitempty" yaml:"program,omitempty"`
	Exam          *string       `db:"exam" json:"exam,omitempty" yaml:"exam,omitempty"`
	Subjects      []SubjectMark `db:"-" json:"subjects" yaml:"subjects"`
	TotalMarks    *float64      `db:"total_marks" json:"total_marks,omitempty" yaml:"total_marks,omitempty"`
	ObtainedMarks *float64      `db:"obtained_marks" json:"obtained_marks,omitempty" yaml:"obtained_marks,omitempty"`
	Result        *string       `db:"result" json:"result,omitempty" yaml:"result,omitempty"`
}

// HasFields reports whether any top-level field was recovered.
func (r MarksheetRecord) HasFields() bool {
	return r.Name != nil || r.RollNumber != nil || r.Program != nil || r.Exam != nil ||
		r.TotalMarks != nil || r.ObtainedMarks != nil || r.Result != nil
}

// FailedSubjects returns the codes of subjects scored below their pass mark,
// in marksheet order.
func (r MarksheetRecord) FailedSubjects() []string {
	var failed []string
	for _, s := range r.Subjects {
		if s.Failed() {
			failed = append(failed, s.Code)
		}
	}
	return failed
}

// ResultToken returns the raw result token or "" when absent.
func (r MarksheetRecord) ResultToken() string {
	if r.Result == nil {
		return ""
	}
	return *r.Result
}

// Obtained returns the obtained total or 0 when absent.
func (r MarksheetRecord) Obtained() float64 {
	if r.ObtainedMarks == nil {
		return 0
	}
	return *r.ObtainedMarks
}

// String returns a pointer to s.
func String(s string) *string { return &s }

// Float returns a pointer to f.
func Float(f float64) *float64 { return &f }
