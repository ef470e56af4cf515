package progress

import "github.com/p-n-ai/pai-course/internal/course"

// Reason explains an access decision.
type Reason string

const (
	ReasonOutlineNotReady      Reason = "outline_not_ready"
	ReasonFirstLecture         Reason = "first_lecture"
	ReasonCompleted            Reason = "completed"
	ReasonPredecessorCompleted Reason = "predecessor_completed"
	ReasonPreAuthorized        Reason = "pre_authorized"
	ReasonLocked               Reason = "locked"
	ReasonEnrollmentMissing    Reason = "enrollment_missing"
)

// Decision is the result of evaluating access to a lecture.
type Decision struct {
	Accessible bool   `json:"accessible"`
	RedirectTo string `json:"redirect_to,omitempty"`
	Reason     Reason `json:"reason"`
}

// Evaluate decides whether currentLectureID is accessible given the
// completed set. A lecture is open when it is first in the outline, already
// completed, or its immediate predecessor is completed. A locked lecture
// redirects to the earliest unfinished lecture, which may be well before
// the predecessor when the learner deep-linked ahead.
//
// A lecture missing from the outline is reported accessible: the outline
// has not loaded yet and the decision is deferred.
func Evaluate(outline course.Outline, currentLectureID string, completed CompletedSet) Decision {
	i, ok := outline.Index(currentLectureID)
	if !ok {
		return Decision{Accessible: true, Reason: ReasonOutlineNotReady}
	}
	if i == 0 {
		return Decision{Accessible: true, Reason: ReasonFirstLecture}
	}
	if completed.Has(currentLectureID) {
		return Decision{Accessible: true, Reason: ReasonCompleted}
	}
	if completed.Has(outline.Entries[i-1].Lecture.ID) {
		return Decision{Accessible: true, Reason: ReasonPredecessorCompleted}
	}
	return Decision{
		Accessible: false,
		RedirectTo: ResumePoint(outline, completed),
		Reason:     ReasonLocked,
	}
}

// ResumePoint returns the first lecture in traversal order that is not
// completed, or "" when every lecture is completed.
func ResumePoint(outline course.Outline, completed CompletedSet) string {
	for _, e := range outline.Entries {
		if !completed.Has(e.Lecture.ID) {
			return e.Lecture.ID
		}
	}
	return ""
}
