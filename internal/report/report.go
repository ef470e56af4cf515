// Package report exports learner progress as spreadsheets.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-course/internal/progress"
)

const (
	summarySheet  = "Summary"
	lecturesSheet = "Lectures"
)

var lectureHeader = []any{"#", "Chapter", "Lecture ID", "Title", "Requires quiz", "Status"}

// WriteProgress writes an XLSX workbook for one session snapshot: a
// summary sheet and one row per lecture in traversal order.
func WriteProgress(w io.Writer, snap progress.Snapshot) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// NewFile starts with Sheet1.
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("naming summary sheet: %w", err)
	}
	if _, err := f.NewSheet(lecturesSheet); err != nil {
		return fmt.Errorf("creating lectures sheet: %w", err)
	}

	summary := [][]any{
		{"Learner", snap.LearnerID},
		{"Course", snap.CourseID},
		{"State", string(snap.State)},
		{"Completed", snap.CompletedCount},
		{"Total", snap.TotalCount},
		{"Progress %", snap.ProgressPercent},
		{"Resume at", snap.ResumeLectureID},
	}
	for i, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("writing summary row: %w", err)
		}
	}

	if err := f.SetSheetRow(lecturesSheet, "A1", &lectureHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	if err := f.SetCellStyle(lecturesSheet, "A1", "F1", bold); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}

	for i, l := range snap.Lectures {
		row := []any{i + 1, l.ChapterTitle, l.LectureID, l.Title, l.RequiresQuiz, string(l.Status)}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(lecturesSheet, cell, &row); err != nil {
			return fmt.Errorf("writing lecture row: %w", err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
