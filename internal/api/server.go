// Package api exposes course progress over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/p-n-ai/pai-course/internal/course"
	"github.com/p-n-ai/pai-course/internal/enrollment"
	"github.com/p-n-ai/pai-course/internal/notify"
	"github.com/p-n-ai/pai-course/internal/progress"
	"github.com/p-n-ai/pai-course/internal/quiz"
)

// LearnerHeader carries the caller's learner ID.
const LearnerHeader = "X-Learner-ID"

// Catalog serves course outlines.
type Catalog interface {
	FetchChapters(ctx context.Context, courseID string) ([]course.RawChapter, error)
	Course(id string) (course.Course, bool)
}

// Deps holds the collaborators the handlers use.
type Deps struct {
	Catalog     Catalog
	Enrollments enrollment.Store
	Quizzes     quiz.Store
	Sessions    *progress.Manager
	Gateway     *notify.Gateway
	WebSocket   *notify.WebSocketChannel
}

// Server holds HTTP handlers.
type Server struct {
	deps Deps
}

// NewServer creates the API server.
func NewServer(deps Deps) *Server {
	return &Server{deps: deps}
}

// Register mounts the API routes on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/courses/{courseID}/outline", s.handleOutline)
	mux.HandleFunc("POST /v1/courses/{courseID}/enrollments", s.handleEnroll)
	mux.HandleFunc("GET /v1/courses/{courseID}/progress", s.handleProgress)
	mux.HandleFunc("GET /v1/courses/{courseID}/progress.xlsx", s.handleProgressExport)
	mux.HandleFunc("GET /v1/courses/{courseID}/lectures/{lectureID}/access", s.handleAccess)
	mux.HandleFunc("POST /v1/courses/{courseID}/lectures/{lectureID}/playback-completed", s.handlePlaybackCompleted)
	mux.HandleFunc("POST /v1/courses/{courseID}/lectures/{lectureID}/quiz-attempts", s.handleQuizAttempt)
	mux.HandleFunc("POST /v1/courses/{courseID}/navigate", s.handleNavigate)
	mux.HandleFunc("POST /v1/courses/{courseID}/refresh", s.handleRefresh)
	if s.deps.WebSocket != nil {
		mux.HandleFunc("GET /v1/ws", s.handleWebSocket)
	}
}

// Handler returns a mux serving only the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return mux
}

// session resolves the caller and opens their coordinator for the course.
// It writes the error response itself and returns nil on failure.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *progress.Coordinator {
	learnerID := r.Header.Get(LearnerHeader)
	if learnerID == "" {
		writeError(w, http.StatusUnauthorized, "missing "+LearnerHeader+" header")
		return nil
	}

	c, err := s.deps.Sessions.Open(r.Context(), learnerID, r.PathValue("courseID"))
	if err != nil {
		if errors.Is(err, course.ErrCourseNotFound) {
			writeError(w, http.StatusNotFound, "course not found")
			return nil
		}
		slog.Error("failed to open progress session", "learner_id", learnerID, "course_id", r.PathValue("courseID"), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load progress")
		return nil
	}
	return c
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
