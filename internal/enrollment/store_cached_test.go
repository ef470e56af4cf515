package enrollment_test

import (
	"context"
	"testing"
	"time"

	"github.com/p-n-ai/pai-course/internal/enrollment"
	"github.com/p-n-ai/pai-course/internal/platform/cache/cachetest"
)

// countingStore counts Fetch calls reaching the inner store.
type countingStore struct {
	enrollment.Store
	fetches int
}

func (s *countingStore) Fetch(ctx context.Context, learnerID, courseID string) (*enrollment.Enrollment, error) {
	s.fetches++
	return s.Store.Fetch(ctx, learnerID, courseID)
}

func TestCachedStore_ReadThroughAndInvalidate(t *testing.T) {
	c := cachetest.New(t)
	ctx := t.Context()

	inner := &countingStore{Store: enrollment.NewMemoryStore()}
	store := enrollment.NewCachedStore(inner, c, time.Minute)

	e, err := store.Create(ctx, "learner-1", "algebra-101")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := store.Fetch(ctx, "learner-1", "algebra-101"); err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
	}
	if inner.fetches != 1 {
		t.Errorf("inner fetches = %d, want 1 (cached)", inner.fetches)
	}

	if err := store.PersistCompletion(ctx, enrollment.Completion{
		EnrollmentID: e.ID,
		LearnerID:    "learner-1",
		CourseID:     "algebra-101",
		LectureID:    "a",
	}); err != nil {
		t.Fatalf("PersistCompletion() error = %v", err)
	}

	got, err := store.Fetch(ctx, "learner-1", "algebra-101")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if inner.fetches != 2 {
		t.Errorf("inner fetches = %d, want 2 after invalidation", inner.fetches)
	}
	if len(got.CompletedLectureIDs) != 1 || got.CompletedLectureIDs[0] != "a" {
		t.Errorf("CompletedLectureIDs = %v, want [a]", got.CompletedLectureIDs)
	}
}
