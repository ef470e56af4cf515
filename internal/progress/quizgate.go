package progress

import (
	"context"
	"fmt"

	"github.com/p-n-ai/pai-course/internal/course"
)

// QuizService answers whether a learner passed every quiz bound to a lecture.
type QuizService interface {
	IsQuizPassed(ctx context.Context, learnerID, lectureID string) (bool, error)
}

// IsGatedBy reports whether the lecture completes by quiz instead of playback.
func IsGatedBy(l course.Lecture) bool {
	return l.RequiresQuiz
}

// QuizGate decides whether a completion event counts for a lecture.
type QuizGate struct {
	Quizzes QuizService
}

// Admit returns nil when the event completes the lecture. Ungated lectures
// accept either event kind. Gated lectures only accept QuizPassed, and only
// once every bound quiz has been passed.
func (g QuizGate) Admit(ctx context.Context, learnerID string, l course.Lecture, kind EventKind) error {
	if !IsGatedBy(l) {
		return nil
	}
	if kind != QuizPassed {
		return ErrQuizRequired
	}
	if g.Quizzes == nil {
		return ErrQuizNotPassed
	}

	passed, err := g.Quizzes.IsQuizPassed(ctx, learnerID, l.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrQuizNotPassed, err)
	}
	if !passed {
		return ErrQuizNotPassed
	}
	return nil
}
