// Package analyzer folds parsed marksheets into summary statistics.
package analyzer

import (
	"math"
	"sort"

	"github.com/nonsonwune/tu_results/models"
)

const (
	// Pass and Fail are the only result tokens counted; any other token
	// falls in neither bucket.
	Pass = "P"
	Fail = "F"

	// TopStudentCount bounds Report.TopStudents.
	TopStudentCount = 3
	// WeakSubjectCount is how many of Report.WeakSubjects a display shows.
	WeakSubjectCount = 5
)

// Analyze builds a report over records. Records are not modified.
func Analyze(records []models.MarksheetRecord) models.Report {
	report := models.Report{TotalStudents: len(records)}

	for _, r := range records {
		switch r.ResultToken() {
		case Pass:
			report.PassedStudents++
		case Fail:
			report.FailedStudents++
		}
	}
	if report.TotalStudents > 0 {
		report.PassPercentage = float64(report.PassedStudents) / float64(report.TotalStudents) * 100
	}

	report.Subjects, report.WeakSubjects = subjectStats(records)
	report.TopStudents = topStudents(records, TopStudentCount)
	return report
}

// subjectStats returns per-subject stats in order of first encounter, and
// subjects with failures ranked by failure count. Ties keep the order in
// which each subject first failed.
func subjectStats(records []models.MarksheetRecord) ([]models.SubjectStats, []models.RankedSubject) {
	var stats []models.SubjectStats
	index := make(map[string]int)
	var weak []models.RankedSubject
	weakIndex := make(map[string]int)

	for _, r := range records {
		for _, s := range r.Subjects {
			i, ok := index[s.Code]
			if !ok {
				i = len(stats)
				index[s.Code] = i
				stats = append(stats, models.SubjectStats{Code: s.Code, Lowest: math.Inf(1)})
			}
			if s.ObtainedMarks == nil {
				continue
			}

			obtained := *s.ObtainedMarks
			st := &stats[i]
			st.Attempts++
			st.TotalMarks += obtained
			if obtained >= s.PassMarks {
				st.Passes++
			} else {
				st.Failures++
				w, ok := weakIndex[s.Code]
				if !ok {
					w = len(weak)
					weakIndex[s.Code] = w
					weak = append(weak, models.RankedSubject{Code: s.Code})
				}
				weak[w].Failures++
			}
			if obtained > st.Highest {
				st.Highest = obtained
			}
			if obtained < st.Lowest {
				st.Lowest = obtained
			}
		}
	}

	for i := range stats {
		if stats[i].Attempts > 0 {
			stats[i].Average = stats[i].TotalMarks / float64(stats[i].Attempts)
		}
	}
	sort.SliceStable(weak, func(a, b int) bool {
		return weak[a].Failures > weak[b].Failures
	})
	return stats, weak
}

func topStudents(records []models.MarksheetRecord, n int) []models.MarksheetRecord {
	var passed []models.MarksheetRecord
	for _, r := range records {
		if r.ResultToken() == Pass {
			passed = append(passed, r)
		}
	}
	sort.SliceStable(passed, func(a, b int) bool {
		return passed[a].Obtained() > passed[b].Obtained()
	})
	if len(passed) > n {
		passed = passed[:n]
	}
	return passed
}
