package progress

// LectureStatus is a lecture's standing for the learner.
type LectureStatus string

const (
	StatusCompleted LectureStatus = "completed"
	StatusAvailable LectureStatus = "available"
	StatusLocked    LectureStatus = "locked"
)

// LectureProgress is one row of a Snapshot.
type LectureProgress struct {
	LectureID    string        `json:"lecture_id"`
	Title        string        `json:"title"`
	ChapterID    string        `json:"chapter_id"`
	ChapterTitle string        `json:"chapter_title"`
	RequiresQuiz bool          `json:"requires_quiz"`
	Status       LectureStatus `json:"status"`
}

// Snapshot is a read-only view of a session.
type Snapshot struct {
	LearnerID         string            `json:"learner_id"`
	CourseID          string            `json:"course_id"`
	EnrollmentID      string            `json:"enrollment_id,omitempty"`
	State             State             `json:"state"`
	CompletedCount    int               `json:"completed_count"`
	TotalCount        int               `json:"total_count"`
	ProgressPercent   float64           `json:"progress_percent"`
	ResumeLectureID   string            `json:"resume_lecture_id,omitempty"`
	PendingNavigation string            `json:"pending_navigation,omitempty"`
	CompletedLectures []string          `json:"completed_lectures"`
	Lectures          []LectureProgress `json:"lectures"`
}

// Snapshot returns the current session view. Lecture statuses come from
// Evaluate and do not consume the pre-authorized transition token.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.session
	snap := Snapshot{
		LearnerID:         s.LearnerID,
		CourseID:          s.CourseID,
		EnrollmentID:      s.EnrollmentID,
		State:             c.state,
		CompletedCount:    s.completed.CountIn(s.Outline),
		TotalCount:        s.Outline.Len(),
		ProgressPercent:   s.Percent(),
		ResumeLectureID:   ResumePoint(s.Outline, s.completed),
		CompletedLectures: s.completed.Ordered(s.Outline),
		Lectures:          make([]LectureProgress, 0, s.Outline.Len()),
	}
	if s.pending != nil {
		snap.PendingNavigation = s.pending.lectureID
	}

	for _, e := range s.Outline.Entries {
		status := StatusLocked
		switch {
		case s.completed.Has(e.Lecture.ID):
			status = StatusCompleted
		case s.Enrolled() && Evaluate(s.Outline, e.Lecture.ID, s.completed).Accessible:
			status = StatusAvailable
		}
		snap.Lectures = append(snap.Lectures, LectureProgress{
			LectureID:    e.Lecture.ID,
			Title:        e.Lecture.Title,
			ChapterID:    e.ChapterID,
			ChapterTitle: e.ChapterTitle,
			RequiresQuiz: e.Lecture.RequiresQuiz,
			Status:       status,
		})
	}
	return snap
}
