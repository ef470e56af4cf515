package progress_test

import (
	"context"
	"errors"
	"testing"

	"github.com/p-n-ai/pai-course/internal/course"
	"github.com/p-n-ai/pai-course/internal/progress"
)

type staticQuizzes bool

func (s staticQuizzes) IsQuizPassed(context.Context, string, string) (bool, error) {
	return bool(s), nil
}

func TestQuizGate_Admit(t *testing.T) {
	gated := course.Lecture{ID: "A", RequiresQuiz: true}
	plain := course.Lecture{ID: "B"}

	tests := []struct {
		name    string
		quizzes progress.QuizService
		lecture course.Lecture
		kind    progress.EventKind
		want    error
	}{
		{"ungated playback", nil, plain, progress.PlaybackCompleted, nil},
		{"ungated quiz", nil, plain, progress.QuizPassed, nil},
		{"gated playback", staticQuizzes(true), gated, progress.PlaybackCompleted, progress.ErrQuizRequired},
		{"gated quiz passed", staticQuizzes(true), gated, progress.QuizPassed, nil},
		{"gated quiz not passed", staticQuizzes(false), gated, progress.QuizPassed, progress.ErrQuizNotPassed},
		{"gated without quiz service", nil, gated, progress.QuizPassed, progress.ErrQuizNotPassed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := progress.QuizGate{Quizzes: tt.quizzes}
			err := gate.Admit(t.Context(), "learner-1", tt.lecture, tt.kind)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("Admit() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("Admit() error = %v, want %v", err, tt.want)
			}
		})
	}
}
