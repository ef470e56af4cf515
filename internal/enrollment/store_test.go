package enrollment_test

import (
	"context"
	"errors"
	"testing"

	"github.com/p-n-ai/pai-course/internal/enrollment"
)

func TestMemoryStore_CreateAndFetch(t *testing.T) {
	store := enrollment.NewMemoryStore()
	ctx := context.Background()

	created, err := store.Create(ctx, "learner-1", "algebra-101")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == "" {
		t.Fatal("Create() returned empty ID")
	}

	got, err := store.Fetch(ctx, "learner-1", "algebra-101")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("Fetch().ID = %q, want %q", got.ID, created.ID)
	}
	if len(got.CompletedLectureIDs) != 0 {
		t.Errorf("CompletedLectureIDs = %v, want empty", got.CompletedLectureIDs)
	}
}

func TestMemoryStore_CreateIsIdempotent(t *testing.T) {
	store := enrollment.NewMemoryStore()
	ctx := context.Background()

	first, _ := store.Create(ctx, "learner-1", "algebra-101")
	second, err := store.Create(ctx, "learner-1", "algebra-101")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("second Create() ID = %q, want existing %q", second.ID, first.ID)
	}
}

func TestMemoryStore_CreateRequiresIdentity(t *testing.T) {
	store := enrollment.NewMemoryStore()
	if _, err := store.Create(context.Background(), "", "algebra-101"); err == nil {
		t.Error("Create() should error without learner id")
	}
}

func TestMemoryStore_FetchNotFound(t *testing.T) {
	store := enrollment.NewMemoryStore()

	_, err := store.Fetch(context.Background(), "nobody", "algebra-101")
	if !errors.Is(err, enrollment.ErrNotFound) {
		t.Errorf("Fetch() error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_PersistCompletion(t *testing.T) {
	store := enrollment.NewMemoryStore()
	ctx := context.Background()
	e, _ := store.Create(ctx, "learner-1", "algebra-101")

	for _, c := range []enrollment.Completion{
		{EnrollmentID: e.ID, LectureID: "a", ProgressPercent: 33},
		{EnrollmentID: e.ID, LectureID: "b", ProgressPercent: 66},
		{EnrollmentID: e.ID, LectureID: "a", ProgressPercent: 33},
	} {
		if err := store.PersistCompletion(ctx, c); err != nil {
			t.Fatalf("PersistCompletion(%s) error = %v", c.LectureID, err)
		}
	}

	got, _ := store.Fetch(ctx, "learner-1", "algebra-101")
	if len(got.CompletedLectureIDs) != 2 {
		t.Errorf("CompletedLectureIDs = %v, want [a b]", got.CompletedLectureIDs)
	}
	if got.ProgressPercent != 66 {
		t.Errorf("ProgressPercent = %v, want 66 (never decreases)", got.ProgressPercent)
	}
}

func TestMemoryStore_PersistCompletion_UnknownEnrollment(t *testing.T) {
	store := enrollment.NewMemoryStore()

	err := store.PersistCompletion(context.Background(), enrollment.Completion{EnrollmentID: "missing", LectureID: "a"})
	if !errors.Is(err, enrollment.ErrNotFound) {
		t.Errorf("PersistCompletion() error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_FetchReturnsCopy(t *testing.T) {
	store := enrollment.NewMemoryStore()
	ctx := context.Background()
	e, _ := store.Create(ctx, "learner-1", "algebra-101")
	_ = store.PersistCompletion(ctx, enrollment.Completion{EnrollmentID: e.ID, LectureID: "a"})

	got, _ := store.Fetch(ctx, "learner-1", "algebra-101")
	got.CompletedLectureIDs[0] = "tampered"

	again, _ := store.Fetch(ctx, "learner-1", "algebra-101")
	if again.CompletedLectureIDs[0] != "a" {
		t.Error("Fetch() should return a copy, store was mutated")
	}
}
