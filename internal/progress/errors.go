package progress

import "errors"

// Conditions the core resolves locally and reports through Decision and
// Outcome values rather than failing the caller.
var (
	// ErrOutlineNotReady means the lecture is not in the loaded outline yet.
	ErrOutlineNotReady = errors.New("course outline not ready")
	// ErrEnrollmentMissing means the learner has no enrollment for the course.
	ErrEnrollmentMissing = errors.New("enrollment missing")
	// ErrQuizRequired means a playback event arrived for a quiz-gated lecture.
	ErrQuizRequired = errors.New("lecture completes by passing its quiz")
	// ErrQuizNotPassed means not every quiz bound to the lecture was passed.
	ErrQuizNotPassed = errors.New("quiz not passed")
	// ErrSessionClosed means the coordinator was closed before the event arrived.
	ErrSessionClosed = errors.New("progress session closed")
)
