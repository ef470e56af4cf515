package quiz_test

import (
	"testing"

	"github.com/p-n-ai/pai-course/internal/platform/database/dbtest"
	"github.com/p-n-ai/pai-course/internal/quiz"
)

func TestNewPostgresStore_NilPool(t *testing.T) {
	if _, err := quiz.NewPostgresStore(nil); err == nil {
		t.Fatal("expected error for nil pool")
	}
}

func TestPostgresStore_AggregatePass(t *testing.T) {
	db := dbtest.New(t)
	ctx := t.Context()

	store, err := quiz.NewPostgresStore(db.Pool)
	if err != nil {
		t.Fatalf("NewPostgresStore() error = %v", err)
	}

	if passed, err := store.IsQuizPassed(ctx, "learner-1", "lec-1"); err != nil || passed {
		t.Fatalf("IsQuizPassed() with no bindings = %v, %v; want false, nil", passed, err)
	}

	if err := store.Bind(ctx, "lec-1", "q1", "q2", "q1"); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	quizzes, err := store.QuizzesFor(ctx, "lec-1")
	if err != nil || len(quizzes) != 2 {
		t.Fatalf("QuizzesFor() = %v, %v; want 2 quizzes", quizzes, err)
	}

	steps := []struct {
		quizID string
		passed bool
		want   bool
	}{
		{"q1", false, false},
		{"q1", true, false},
		{"q2", true, true},
		{"q2", false, true},
	}
	for _, s := range steps {
		if _, err := store.RecordAttempt(ctx, quiz.Attempt{
			LearnerID: "learner-1",
			QuizID:    s.quizID,
			Passed:    s.passed,
			Answers:   map[string]string{"1": "a"},
		}); err != nil {
			t.Fatalf("RecordAttempt() error = %v", err)
		}
		got, err := store.IsQuizPassed(ctx, "learner-1", "lec-1")
		if err != nil {
			t.Fatalf("IsQuizPassed() error = %v", err)
		}
		if got != s.want {
			t.Errorf("after %s passed=%v: IsQuizPassed() = %v, want %v", s.quizID, s.passed, got, s.want)
		}
	}
}
