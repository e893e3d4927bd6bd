package main

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/nonsonwune/tu_results/analyzer"
	"github.com/nonsonwune/tu_results/importer"
	"github.com/nonsonwune/tu_results/models"
)

var (
	heading = color.New(color.FgYellow)
	success = color.New(color.FgGreen)
	failure = color.New(color.FgRed)
)

func getString(s *string) string {
	if s == nil {
		return "N/A"
	}
	return *s
}

func formatMarks(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return "N/A"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func getMarks(f *float64) string {
	if f == nil {
		return "N/A"
	}
	return formatMarks(*f)
}

func displayMarksheet(w io.Writer, rec models.MarksheetRecord) {
	heading.Fprintln(w, "\n=== Marksheet Data ===")
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Field", "Value"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	if rec.SymbolNumber != "" {
		table.Append([]string{"Symbol Number", rec.SymbolNumber})
	}
	table.AppendBulk([][]string{
		{"Name", getString(rec.Name)},
		{"Roll No", getString(rec.RollNumber)},
		{"Program", getString(rec.Program)},
		{"Exam", getString(rec.Exam)},
	})
	table.Render()

	heading.Fprintln(w, "\nSubjects")
	subjects := tablewriter.NewWriter(w)
	subjects.SetHeader([]string{"Subject", "Obtained", "Full Marks", "Pass Marks"})
	for _, s := range rec.Subjects {
		subjects.Append([]string{
			s.Code,
			fmt.Sprintf("%s/%s", getMarks(s.ObtainedMarks), formatMarks(s.FullMarks)),
			formatMarks(s.FullMarks),
			formatMarks(s.PassMarks),
		})
	}
	subjects.Render()

	fmt.Fprintf(w, "\nTotal Marks: %s\n", getMarks(rec.TotalMarks))
	fmt.Fprintf(w, "Obtained Marks: %s\n", getMarks(rec.ObtainedMarks))
	switch result := getString(rec.Result); result {
	case analyzer.Pass:
		success.Fprintf(w, "Result: %s\n", result)
	case analyzer.Fail:
		failure.Fprintf(w, "Result: %s\n", result)
	default:
		fmt.Fprintf(w, "Result: %s\n", result)
	}

	if failed := rec.FailedSubjects(); len(failed) > 0 {
		failure.Fprintf(w, "Failed Subjects: %s\n", strings.Join(failed, ", "))
	}
}

func displayReport(w io.Writer, report models.Report) {
	heading.Fprintln(w, "\n=== Overall Results Analysis ===")
	overall := tablewriter.NewWriter(w)
	overall.SetHeader([]string{"Metric", "Value"})
	overall.AppendBulk([][]string{
		{"Total Students", strconv.Itoa(report.TotalStudents)},
		{"Passed Students", strconv.Itoa(report.PassedStudents)},
		{"Failed Students", strconv.Itoa(report.FailedStudents)},
		{"Pass Percentage", fmt.Sprintf("%.2f%%", report.PassPercentage)},
	})
	overall.Render()

	heading.Fprintln(w, "\n=== Subject-wise Analysis ===")
	subjects := tablewriter.NewWriter(w)
	subjects.SetHeader([]string{"Subject", "Attempts", "Passes", "Pass Rate", "Failures", "Highest", "Lowest", "Average"})
	for _, s := range report.Subjects {
		subjects.Append([]string{
			s.Code,
			strconv.Itoa(s.Attempts),
			strconv.Itoa(s.Passes),
			fmt.Sprintf("%.2f%%", s.PassRate()),
			strconv.Itoa(s.Failures),
			formatMarks(s.Highest),
			formatMarks(s.Lowest),
			fmt.Sprintf("%.2f", s.Average),
		})
	}
	subjects.Render()

	heading.Fprintln(w, "\n=== Top Performing Students ===")
	top := tablewriter.NewWriter(w)
	top.SetHeader([]string{"Rank", "Symbol Number", "Name", "Roll No", "Obtained Marks"})
	for i, r := range report.TopStudents {
		top.Append([]string{
			strconv.Itoa(i + 1),
			r.SymbolNumber,
			getString(r.Name),
			getString(r.RollNumber),
			formatMarks(r.Obtained()),
		})
	}
	top.Render()

	heading.Fprintln(w, "\n=== Most Challenging Subjects ===")
	weak := tablewriter.NewWriter(w)
	weak.SetHeader([]string{"Subject", "Failures"})
	for i, s := range report.WeakSubjects {
		if i == analyzer.WeakSubjectCount {
			break
		}
		weak.Append([]string{s.Code, strconv.Itoa(s.Failures)})
	}
	weak.Render()
}

func displayImportStats(w io.Writer, stats importer.Stats) {
	heading.Fprintln(w, "\n=== Import Summary ===")
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Metric", "Value"})
	table.AppendBulk([][]string{
		{"Batch ID", stats.BatchID},
		{"Records Processed", strconv.Itoa(stats.TotalProcessed)},
		{"Imported", strconv.Itoa(stats.Imported)},
		{"Skipped", strconv.Itoa(stats.Skipped)},
	})
	codes := make([]string, 0, len(stats.ErrorsByType))
	for code := range stats.ErrorsByType {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		table.Append([]string{"Errors: " + code, strconv.Itoa(stats.ErrorsByType[code])})
	}
	table.Render()
	if stats.FailedFile != "" {
		fmt.Fprintf(w, "Failed records saved to: %s\n", stats.FailedFile)
	}
}
