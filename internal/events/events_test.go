package events_test

import (
	"context"
	"testing"

	"github.com/p-n-ai/pai-course/internal/enrollment"
	"github.com/p-n-ai/pai-course/internal/events"
	"github.com/p-n-ai/pai-course/internal/platform/database/dbtest"
)

func TestMemoryLogger_LogEvent(t *testing.T) {
	logger := events.NewMemoryLogger()

	err := logger.LogEvent(context.Background(), events.Event{
		LearnerID: "learner-1",
		CourseID:  "algebra-101",
		LectureID: "lec-1",
		Type:      events.TypeLectureCompleted,
		Data:      map[string]any{"progress_percent": 50.0},
	})
	if err != nil {
		t.Fatalf("LogEvent() error = %v", err)
	}

	got := logger.Events()
	if len(got) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(got))
	}
	if got[0].CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
	if len(logger.OfType(events.TypeCourseCompleted)) != 0 {
		t.Error("OfType(course_completed) should be empty")
	}
}

func TestMemoryLogger_RequiresType(t *testing.T) {
	logger := events.NewMemoryLogger()
	if err := logger.LogEvent(context.Background(), events.Event{LearnerID: "x"}); err == nil {
		t.Fatal("expected error for missing event type")
	}
}

func TestPostgresLogger_NilPool(t *testing.T) {
	logger := events.NewPostgresLogger(nil)

	err := logger.LogEvent(context.Background(), events.Event{
		LearnerID: "learner-1",
		CourseID:  "algebra-101",
		Type:      events.TypeLectureLocked,
	})
	if err == nil {
		t.Fatal("expected error for nil pool")
	}
}

func TestPostgresLogger_LogEvent(t *testing.T) {
	db := dbtest.New(t)
	ctx := t.Context()

	store, _ := enrollment.NewPostgresStore(db.Pool)
	e, err := store.Create(ctx, "learner-1", "algebra-101")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	logger := events.NewPostgresLogger(db.Pool)
	if err := logger.LogEvent(ctx, events.Event{
		EnrollmentID: e.ID,
		LearnerID:    "learner-1",
		CourseID:     "algebra-101",
		LectureID:    "lec-1",
		Type:         events.TypeLectureCompleted,
	}); err != nil {
		t.Fatalf("LogEvent() error = %v", err)
	}

	var count int
	if err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM progress_events WHERE enrollment_id = $1::uuid AND event_type = $2`,
		e.ID, events.TypeLectureCompleted,
	).Scan(&count); err != nil {
		t.Fatalf("count events: %v", err)
	}
	if count != 1 {
		t.Errorf("events in table = %d, want 1", count)
	}
}
