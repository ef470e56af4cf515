package progress

import (
	"github.com/p-n-ai/pai-course/internal/course"
	"github.com/p-n-ai/pai-course/internal/enrollment"
)

// Session is the explicit state of one learner working through one course:
// the outline, the completed set, the pending auto-navigation and the
// pre-authorized transition token. It is owned by a single Coordinator and
// is not safe for concurrent use on its own.
type Session struct {
	LearnerID    string
	CourseID     string
	EnrollmentID string
	Outline      course.Outline

	completed CompletedSet
	pending   *pendingNavigation
	token     *transitionToken
}

// pendingNavigation is an auto-advance waiting for its delay to elapse.
type pendingNavigation struct {
	lectureID string
	seq       uint64
	timer     Timer
}

// transitionToken pre-authorizes the lecture an auto-advance navigates to.
// It is discarded by the first access check after the navigation is issued.
type transitionToken struct {
	lectureID string
	issued    bool
}

// NewSession builds a session. A nil enrollment yields a session that
// reports ErrEnrollmentMissing for every decision.
func NewSession(learnerID, courseID string, outline course.Outline, e *enrollment.Enrollment) *Session {
	s := &Session{
		LearnerID: learnerID,
		CourseID:  courseID,
		Outline:   outline,
		completed: NewCompletedSet(),
	}
	if e != nil {
		s.EnrollmentID = e.ID
		s.completed.Union(e.CompletedLectureIDs)
	}
	return s
}

// Enrolled reports whether the session has an enrollment.
func (s *Session) Enrolled() bool {
	return s.EnrollmentID != ""
}

// Completed returns a copy of the completed set.
func (s *Session) Completed() CompletedSet {
	return s.completed.clone()
}

// Reconcile unions remote completions into the local set. Local
// completions are never removed.
func (s *Session) Reconcile(e *enrollment.Enrollment) int {
	if e == nil {
		return 0
	}
	if s.EnrollmentID == "" {
		s.EnrollmentID = e.ID
	}
	return s.completed.Union(e.CompletedLectureIDs)
}

// Finished reports whether every outline lecture is completed.
func (s *Session) Finished() bool {
	total := s.Outline.Len()
	return total > 0 && s.completed.CountIn(s.Outline) == total
}

// Percent is the share of outline lectures completed, 0-100.
func (s *Session) Percent() float64 {
	total := s.Outline.Len()
	if total == 0 {
		return 0
	}
	return float64(s.completed.CountIn(s.Outline)) * 100 / float64(total)
}

func (s *Session) authorize(lectureID string) {
	s.token = &transitionToken{lectureID: lectureID}
}

// consumeToken reports whether lectureID was pre-authorized. A matching
// token is spent; a non-matching token is discarded once its navigation
// has been issued so it cannot leak into later navigations.
func (s *Session) consumeToken(lectureID string) bool {
	t := s.token
	if t == nil {
		return false
	}
	if t.lectureID == lectureID {
		s.token = nil
		return true
	}
	if t.issued {
		s.token = nil
	}
	return false
}

func (s *Session) cancelPending() bool {
	p := s.pending
	if p == nil {
		return false
	}
	p.timer.Stop()
	s.pending = nil
	s.token = nil
	return true
}
