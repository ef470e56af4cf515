package report_test

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-course/internal/progress"
	"github.com/p-n-ai/pai-course/internal/report"
)

func TestWriteProgress(t *testing.T) {
	snap := progress.Snapshot{
		LearnerID:       "learner-1",
		CourseID:        "course-1",
		State:           progress.StateIdle,
		CompletedCount:  1,
		TotalCount:      2,
		ProgressPercent: 50,
		ResumeLectureID: "B",
		Lectures: []progress.LectureProgress{
			{LectureID: "A", Title: "Intro", ChapterTitle: "Basics", Status: progress.StatusCompleted},
			{LectureID: "B", Title: "Next", ChapterTitle: "Basics", RequiresQuiz: true, Status: progress.StatusAvailable},
		},
	}

	var buf bytes.Buffer
	if err := report.WriteProgress(&buf, snap); err != nil {
		t.Fatalf("WriteProgress() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	if got, _ := f.GetCellValue("Summary", "B1"); got != "learner-1" {
		t.Errorf("Summary!B1 = %q, want learner-1", got)
	}
	if got, _ := f.GetCellValue("Summary", "B7"); got != "B" {
		t.Errorf("Summary!B7 = %q, want B", got)
	}

	rows, err := f.GetRows("Lectures")
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if rows[1][2] != "A" || rows[1][5] != "completed" {
		t.Errorf("row 1 = %v", rows[1])
	}
	if rows[2][5] != "available" {
		t.Errorf("row 2 status = %q, want available", rows[2][5])
	}
}
