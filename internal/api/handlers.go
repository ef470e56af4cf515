package api

import (
	"errors"
	"log/slog"
	"net/http"
	"slices"

	"github.com/p-n-ai/pai-course/internal/course"
	"github.com/p-n-ai/pai-course/internal/progress"
	"github.com/p-n-ai/pai-course/internal/quiz"
	"github.com/p-n-ai/pai-course/internal/report"
)

type outlineResponse struct {
	CourseID string           `json:"course_id"`
	Title    string           `json:"title"`
	Chapters []course.Chapter `json:"chapters"`
	Lectures []string         `json:"lectures"`
}

func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	courseID := r.PathValue("courseID")
	chapters, err := s.deps.Catalog.FetchChapters(r.Context(), courseID)
	if err != nil {
		if errors.Is(err, course.ErrCourseNotFound) {
			writeError(w, http.StatusNotFound, "course not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load outline")
		return
	}

	outline := course.Build(chapters)
	crs, _ := s.deps.Catalog.Course(courseID)
	writeJSON(w, http.StatusOK, outlineResponse{
		CourseID: courseID,
		Title:    crs.Title,
		Chapters: outline.Chapters,
		Lectures: outline.LectureIDs(),
	})
}

func (s *Server) handleEnroll(w http.ResponseWriter, r *http.Request) {
	learnerID := r.Header.Get(LearnerHeader)
	if learnerID == "" {
		writeError(w, http.StatusUnauthorized, "missing "+LearnerHeader+" header")
		return
	}
	courseID := r.PathValue("courseID")
	if _, ok := s.deps.Catalog.Course(courseID); !ok {
		writeError(w, http.StatusNotFound, "course not found")
		return
	}

	e, err := s.deps.Enrollments.Create(r.Context(), learnerID, courseID)
	if err != nil {
		slog.Error("failed to create enrollment", "learner_id", learnerID, "course_id", courseID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to enroll")
		return
	}

	// A session opened before enrolling picks the enrollment up here.
	c := s.session(w, r)
	if c == nil {
		return
	}
	if err := c.Refresh(r.Context()); err != nil {
		slog.Warn("failed to refresh session after enrolling", "learner_id", learnerID, "course_id", courseID, "error", err)
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	c := s.session(w, r)
	if c == nil {
		return
	}
	writeJSON(w, http.StatusOK, c.Snapshot())
}

func (s *Server) handleProgressExport(w http.ResponseWriter, r *http.Request) {
	c := s.session(w, r)
	if c == nil {
		return
	}
	snap := c.Snapshot()
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+snap.CourseID+`-progress.xlsx"`)
	if err := report.WriteProgress(w, snap); err != nil {
		slog.Error("failed to export progress", "learner_id", snap.LearnerID, "course_id", snap.CourseID, "error", err)
	}
}

func (s *Server) handleAccess(w http.ResponseWriter, r *http.Request) {
	c := s.session(w, r)
	if c == nil {
		return
	}
	d := c.CheckAccess(r.Context(), r.PathValue("lectureID"))
	writeDecision(w, d)
}

type navigateRequest struct {
	LectureID string `json:"lecture_id"`
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req navigateRequest
	if err := decodeJSON(w, r, &req); err != nil || req.LectureID == "" {
		writeError(w, http.StatusBadRequest, "lecture_id is required")
		return
	}
	c := s.session(w, r)
	if c == nil {
		return
	}
	writeDecision(w, c.Navigate(r.Context(), req.LectureID))
}

func writeDecision(w http.ResponseWriter, d progress.Decision) {
	status := http.StatusOK
	if d.Reason == progress.ReasonEnrollmentMissing {
		status = http.StatusForbidden
	}
	writeJSON(w, status, d)
}

func (s *Server) handlePlaybackCompleted(w http.ResponseWriter, r *http.Request) {
	c := s.session(w, r)
	if c == nil {
		return
	}
	out := c.Handle(r.Context(), progress.Event{Kind: progress.PlaybackCompleted, LectureID: r.PathValue("lectureID")})
	writeOutcome(w, out)
}

type outcomeResponse struct {
	progress.Outcome
	Error string `json:"error,omitempty"`
}

func writeOutcome(w http.ResponseWriter, out progress.Outcome) {
	status := http.StatusOK
	switch out.Result {
	case progress.ResultEnrollmentMissing:
		status = http.StatusForbidden
	case progress.ResultOutlineNotReady:
		status = http.StatusNotFound
	case progress.ResultQuizRequired, progress.ResultQuizNotPassed:
		status = http.StatusConflict
	case progress.ResultSessionClosed:
		status = http.StatusServiceUnavailable
	}
	resp := outcomeResponse{Outcome: out}
	if out.Err != nil {
		resp.Error = out.Err.Error()
	}
	writeJSON(w, status, resp)
}

type quizAttemptRequest struct {
	QuizID  string            `json:"quiz_id"`
	Answers map[string]string `json:"answers"`
	Passed  bool              `json:"passed"`
}

type quizAttemptResponse struct {
	Attempt     quiz.Attempt      `json:"attempt"`
	LecturePass bool              `json:"lecture_passed"`
	Outcome     *progress.Outcome `json:"outcome,omitempty"`
}

// handleQuizAttempt records a graded attempt. Once every quiz bound to the
// lecture is passed the lecture is completed through the coordinator.
// Attempts are only accepted for lectures the learner can open.
func (s *Server) handleQuizAttempt(w http.ResponseWriter, r *http.Request) {
	var req quizAttemptRequest
	if err := decodeJSON(w, r, &req); err != nil || req.QuizID == "" {
		writeError(w, http.StatusBadRequest, "quiz_id is required")
		return
	}
	c := s.session(w, r)
	if c == nil {
		return
	}

	ctx := r.Context()
	learnerID := r.Header.Get(LearnerHeader)
	lectureID := r.PathValue("lectureID")

	if _, ok := c.Outline().Lecture(lectureID); !ok {
		writeError(w, http.StatusNotFound, "lecture not found")
		return
	}
	switch d := c.Peek(lectureID); {
	case d.Reason == progress.ReasonEnrollmentMissing:
		writeError(w, http.StatusForbidden, "not enrolled in this course")
		return
	case !d.Accessible:
		writeJSON(w, http.StatusForbidden, d)
		return
	}

	bound, err := s.deps.Quizzes.QuizzesFor(ctx, lectureID)
	if err != nil {
		slog.Error("failed to load quiz bindings", "lecture_id", lectureID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load quizzes")
		return
	}
	if !slices.Contains(bound, req.QuizID) {
		writeError(w, http.StatusBadRequest, "quiz is not bound to this lecture")
		return
	}

	attempt, err := s.deps.Quizzes.RecordAttempt(ctx, quiz.Attempt{
		LearnerID: learnerID,
		QuizID:    req.QuizID,
		Answers:   req.Answers,
		Passed:    req.Passed,
	})
	if err != nil {
		slog.Error("failed to record quiz attempt", "learner_id", learnerID, "quiz_id", req.QuizID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to record attempt")
		return
	}

	resp := quizAttemptResponse{Attempt: attempt}
	if attempt.Passed {
		passed, err := s.deps.Quizzes.IsQuizPassed(ctx, learnerID, lectureID)
		if err != nil {
			slog.Warn("quiz pass check failed", "learner_id", learnerID, "lecture_id", lectureID, "error", err)
		}
		resp.LecturePass = passed
		if passed {
			out := c.Handle(ctx, progress.Event{Kind: progress.QuizPassed, LectureID: lectureID})
			resp.Outcome = &out
		}
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	c := s.session(w, r)
	if c == nil {
		return
	}
	if err := c.Refresh(r.Context()); err != nil {
		if errors.Is(err, progress.ErrEnrollmentMissing) {
			writeError(w, http.StatusForbidden, "not enrolled in this course")
			return
		}
		slog.Error("failed to refresh progress", "error", err)
		writeError(w, http.StatusBadGateway, "failed to refresh progress")
		return
	}
	writeJSON(w, http.StatusOK, c.Snapshot())
}

// handleWebSocket streams navigation and notices to the learner. Browsers
// cannot set headers on the upgrade request, so learner_id may also come
// from the query string.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	learnerID := r.Header.Get(LearnerHeader)
	if learnerID == "" {
		learnerID = r.URL.Query().Get("learner_id")
	}
	if learnerID == "" {
		writeError(w, http.StatusUnauthorized, "learner_id is required")
		return
	}

	if s.deps.Gateway != nil {
		lang := r.URL.Query().Get("lang")
		if lang == "" {
			lang = r.Header.Get("Accept-Language")
		}
		s.deps.Gateway.PreferLanguage(learnerID, lang)
	}

	if err := s.deps.WebSocket.Serve(w, r, learnerID); err != nil {
		slog.Warn("websocket session failed", "learner_id", learnerID, "error", err)
	}
}
