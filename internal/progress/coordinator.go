// Package progress enforces sequential lecture unlocking and drives lecture
// completion, auto-advance and course completion for a learner's session.
package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/p-n-ai/pai-course/internal/course"
	"github.com/p-n-ai/pai-course/internal/enrollment"
	"github.com/p-n-ai/pai-course/internal/events"
)

const (
	defaultAdvanceDelay   = 1500 * time.Millisecond
	defaultPersistTimeout = 10 * time.Second
)

// State is the coordinator's position in the completion state machine.
type State string

const (
	StateIdle           State = "idle"
	StateCompleting     State = "completing"
	StateAdvancing      State = "advancing"
	StateCourseFinished State = "course_finished"
)

// EventKind distinguishes the two completion signals.
type EventKind string

const (
	PlaybackCompleted EventKind = "playback_completed"
	QuizPassed        EventKind = "quiz_passed"
)

// Event is a completion signal for one lecture. Each is handled once.
type Event struct {
	Kind      EventKind
	LectureID string
}

// Result is what handling an Event did.
type Result string

const (
	ResultAdvancing         Result = "advancing"
	ResultCompleted         Result = "completed"
	ResultCourseFinished    Result = "course_finished"
	ResultAlreadyCompleted  Result = "already_completed"
	ResultQuizRequired      Result = "quiz_required"
	ResultQuizNotPassed     Result = "quiz_not_passed"
	ResultOutlineNotReady   Result = "outline_not_ready"
	ResultEnrollmentMissing Result = "enrollment_missing"
	ResultSessionClosed     Result = "session_closed"
)

// Outcome reports the effect of an Event on the session.
type Outcome struct {
	Result          Result  `json:"result"`
	LectureID       string  `json:"lecture_id"`
	NextLectureID   string  `json:"next_lecture_id,omitempty"`
	State           State   `json:"state"`
	ProgressPercent float64 `json:"progress_percent"`
	Err             error   `json:"-"`
}

// EnrollmentService is the remote source of truth for completions.
type EnrollmentService interface {
	Fetch(ctx context.Context, learnerID, courseID string) (*enrollment.Enrollment, error)
	PersistCompletion(ctx context.Context, c enrollment.Completion) error
}

// Navigation replaces the learner's current view target.
type Navigation struct {
	LearnerID string `json:"learner_id"`
	CourseID  string `json:"course_id"`
	LectureID string `json:"lecture_id"`
}

// Navigator performs navigation on behalf of the core.
type Navigator interface {
	GoTo(ctx context.Context, nav Navigation) error
}

// NoticeKind is the kind of user-facing notice.
type NoticeKind string

const (
	NoticeLocked          NoticeKind = "locked"
	NoticeLectureComplete NoticeKind = "lectureComplete"
	NoticeCourseComplete  NoticeKind = "courseComplete"
)

// Notice is a user-facing signal. Rendering is up to the Notifier.
type Notice struct {
	Kind            NoticeKind `json:"kind"`
	LearnerID       string     `json:"learner_id"`
	CourseID        string     `json:"course_id"`
	LectureID       string     `json:"lecture_id,omitempty"`
	RedirectTo      string     `json:"redirect_to,omitempty"`
	CompletedCount  int        `json:"completed_count"`
	TotalCount      int        `json:"total_count"`
	ProgressPercent float64    `json:"progress_percent"`
}

// Notifier delivers notices to the learner.
type Notifier interface {
	Notify(ctx context.Context, n Notice) error
}

// CoordinatorConfig holds dependencies for a Coordinator.
type CoordinatorConfig struct {
	Enrollments    EnrollmentService
	Quizzes        QuizService
	Navigator      Navigator
	Notifier       Notifier
	Events         events.Logger
	Scheduler      Scheduler
	AdvanceDelay   time.Duration // pause before auto-advance (default 1.5s)
	PersistTimeout time.Duration // bound on each background completion write (default 10s)
	Logger         *slog.Logger
}

// Coordinator owns one Session and processes its completion events one at
// a time.
type Coordinator struct {
	mu      sync.Mutex
	session *Session
	state   State
	seq     uint64
	closed  bool

	enrollments    EnrollmentService
	gate           QuizGate
	nav            Navigator
	notifier       Notifier
	events         events.Logger
	scheduler      Scheduler
	advanceDelay   time.Duration
	persistTimeout time.Duration
	log            *slog.Logger

	ctx      context.Context
	cancel   context.CancelFunc
	inflight sync.WaitGroup
}

// NewCoordinator creates a coordinator for the session. A session whose
// outline is already fully completed starts in CourseFinished without
// re-announcing the course completion.
func NewCoordinator(session *Session, cfg CoordinatorConfig) *Coordinator {
	delay := cfg.AdvanceDelay
	if delay == 0 {
		delay = defaultAdvanceDelay
	}
	persistTimeout := cfg.PersistTimeout
	if persistTimeout == 0 {
		persistTimeout = defaultPersistTimeout
	}
	scheduler := cfg.Scheduler
	if scheduler == nil {
		scheduler = TimeScheduler{}
	}
	evts := cfg.Events
	if evts == nil {
		evts = events.NopLogger{}
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		session:        session,
		state:          StateIdle,
		enrollments:    cfg.Enrollments,
		gate:           QuizGate{Quizzes: cfg.Quizzes},
		nav:            cfg.Navigator,
		notifier:       cfg.Notifier,
		events:         evts,
		scheduler:      scheduler,
		advanceDelay:   delay,
		persistTimeout: persistTimeout,
		log:            log.With("learner_id", session.LearnerID, "course_id", session.CourseID),
		ctx:            ctx,
		cancel:         cancel,
	}
	if session.Finished() {
		c.state = StateCourseFinished
	}
	return c
}

// effect is a collaborator call made after the session lock is released.
type effect func(ctx context.Context)

func (c *Coordinator) run(ctx context.Context, effects []effect) {
	for _, fx := range effects {
		fx(ctx)
	}
}

// Handle processes a completion event.
func (c *Coordinator) Handle(ctx context.Context, ev Event) Outcome {
	c.mu.Lock()
	out, effects := c.handle(ctx, ev)
	c.mu.Unlock()

	c.run(ctx, effects)

	c.log.Info("completion event handled",
		"kind", ev.Kind,
		"lecture_id", ev.LectureID,
		"result", out.Result,
		"state", out.State,
	)
	return out
}

func (c *Coordinator) handle(ctx context.Context, ev Event) (Outcome, []effect) {
	s := c.session
	out := Outcome{LectureID: ev.LectureID}
	finish := func(r Result, err error) Outcome {
		out.Result = r
		out.Err = err
		out.State = c.state
		out.ProgressPercent = s.Percent()
		return out
	}

	if c.closed {
		return finish(ResultSessionClosed, ErrSessionClosed), nil
	}
	if !s.Enrolled() {
		return finish(ResultEnrollmentMissing, ErrEnrollmentMissing), nil
	}
	lecture, ok := s.Outline.Lecture(ev.LectureID)
	if !ok {
		return finish(ResultOutlineNotReady, ErrOutlineNotReady), nil
	}
	if s.completed.Has(lecture.ID) {
		return finish(ResultAlreadyCompleted, nil), nil
	}

	if err := c.gate.Admit(ctx, s.LearnerID, lecture, ev.Kind); err != nil {
		if errors.Is(err, ErrQuizRequired) {
			return finish(ResultQuizRequired, err), nil
		}
		if errors.Unwrap(err) != nil {
			c.log.Warn("quiz service check failed", "lecture_id", lecture.ID, "error", err)
		}
		return finish(ResultQuizNotPassed, err), nil
	}

	c.state = StateCompleting
	s.completed.Add(lecture.ID)

	var effects []effect
	effects = append(effects, c.persist(lecture.ID, s.Percent()))
	effects = append(effects, c.notice(NoticeLectureComplete, lecture.ID, ""))
	effects = append(effects, c.event(events.TypeLectureCompleted, lecture.ID, map[string]any{
		"kind":             string(ev.Kind),
		"progress_percent": s.Percent(),
	}))

	if s.Finished() {
		s.cancelPending()
		c.state = StateCourseFinished
		effects = append(effects, c.notice(NoticeCourseComplete, lecture.ID, ""))
		effects = append(effects, c.event(events.TypeCourseCompleted, lecture.ID, nil))
		return finish(ResultCourseFinished, nil), effects
	}

	next, ok := s.Outline.Next(lecture.ID)
	if !ok {
		// Completed out of order; nothing follows this lecture. An earlier
		// auto-advance may still be pending.
		c.state = StateIdle
		if s.pending != nil {
			c.state = StateAdvancing
		}
		return finish(ResultCompleted, nil), effects
	}

	c.scheduleAdvance(next)
	out.NextLectureID = next.ID
	return finish(ResultAdvancing, nil), effects
}

// scheduleAdvance pre-authorizes next and navigates to it after the delay.
// A newer advance supersedes an older pending one.
func (c *Coordinator) scheduleAdvance(next course.Lecture) {
	s := c.session
	if s.pending != nil {
		s.pending.timer.Stop()
		s.pending = nil
	}

	c.seq++
	seq := c.seq
	s.authorize(next.ID)
	s.pending = &pendingNavigation{
		lectureID: next.ID,
		seq:       seq,
		timer:     c.scheduler.AfterFunc(c.advanceDelay, func() { c.fireAdvance(seq) }),
	}
	c.state = StateAdvancing
}

func (c *Coordinator) fireAdvance(seq uint64) {
	c.mu.Lock()
	s := c.session
	p := s.pending
	if c.closed || p == nil || p.seq != seq {
		c.mu.Unlock()
		return
	}
	s.pending = nil
	if s.token != nil && s.token.lectureID == p.lectureID {
		s.token.issued = true
	}
	if c.state == StateAdvancing {
		c.state = StateIdle
	}
	c.mu.Unlock()

	c.goTo(c.ctx, p.lectureID)
}

// CheckAccess decides whether the learner may open lectureID. A locked
// lecture emits a locked notice and navigates to the resume point.
func (c *Coordinator) CheckAccess(ctx context.Context, lectureID string) Decision {
	c.mu.Lock()
	d, effects := c.checkAccess(lectureID)
	c.mu.Unlock()

	c.run(ctx, effects)
	return d
}

func (c *Coordinator) checkAccess(lectureID string) (Decision, []effect) {
	s := c.session
	if !s.Enrolled() {
		return Decision{Accessible: false, Reason: ReasonEnrollmentMissing}, nil
	}
	if s.consumeToken(lectureID) {
		return Decision{Accessible: true, Reason: ReasonPreAuthorized}, nil
	}

	d := Evaluate(s.Outline, lectureID, s.completed)
	if d.Accessible {
		return d, nil
	}

	effects := []effect{
		c.notice(NoticeLocked, lectureID, d.RedirectTo),
		c.event(events.TypeLectureLocked, lectureID, map[string]any{"redirect_to": d.RedirectTo}),
	}
	if d.RedirectTo != "" {
		target := d.RedirectTo
		effects = append(effects, func(ctx context.Context) { c.goTo(ctx, target) })
	}
	return d, effects
}

// Peek evaluates access to lectureID without notices, navigation or
// spending the transition token.
func (c *Coordinator) Peek(lectureID string) Decision {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.session
	if !s.Enrolled() {
		return Decision{Accessible: false, Reason: ReasonEnrollmentMissing}
	}
	if s.token != nil && s.token.lectureID == lectureID {
		return Decision{Accessible: true, Reason: ReasonPreAuthorized}
	}
	return Evaluate(s.Outline, lectureID, s.completed)
}

// Navigate records a learner-initiated navigation: any pending auto-advance
// is abandoned and the target is checked for access.
func (c *Coordinator) Navigate(ctx context.Context, lectureID string) Decision {
	c.mu.Lock()
	if c.session.cancelPending() {
		c.log.Debug("auto-advance cancelled by navigation", "lecture_id", lectureID)
	}
	if c.state == StateAdvancing {
		c.state = StateIdle
	}
	d, effects := c.checkAccess(lectureID)
	c.mu.Unlock()

	c.run(ctx, effects)
	return d
}

// Refresh re-fetches the enrollment and unions the remote completed set
// into the local one. It never removes local completions.
func (c *Coordinator) Refresh(ctx context.Context) error {
	if c.enrollments == nil {
		return nil
	}
	e, err := c.enrollments.Fetch(ctx, c.session.LearnerID, c.session.CourseID)
	if err != nil {
		if errors.Is(err, enrollment.ErrNotFound) {
			return fmt.Errorf("%w: %v", ErrEnrollmentMissing, err)
		}
		return fmt.Errorf("refreshing enrollment: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	added := c.session.Reconcile(e)
	if c.session.Finished() && c.state != StateCourseFinished {
		c.session.cancelPending()
		c.state = StateCourseFinished
	}
	if added > 0 {
		c.log.Info("enrollment reconciled", "added", added)
	}
	return nil
}

// State returns the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// PendingNavigation returns the lecture an auto-advance is waiting to open.
func (c *Coordinator) PendingNavigation() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.pending == nil {
		return "", false
	}
	return c.session.pending.lectureID, true
}

// Outline returns the session's outline.
func (c *Coordinator) Outline() course.Outline {
	return c.session.Outline
}

// Closed reports whether Close has been called.
func (c *Coordinator) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Wait blocks until background completion writes finish.
func (c *Coordinator) Wait() {
	c.inflight.Wait()
}

// Close abandons pending navigation and waits for background writes.
// Events handled after Close are rejected with ErrSessionClosed.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	c.session.cancelPending()
	c.mu.Unlock()
	c.cancel()
	c.inflight.Wait()
}

// persist must be called with c.mu held so the write is counted before
// Close can start waiting.
func (c *Coordinator) persist(lectureID string, percent float64) effect {
	s := c.session
	if c.enrollments == nil {
		return func(context.Context) {}
	}
	comp := enrollment.Completion{
		EnrollmentID:    s.EnrollmentID,
		LearnerID:       s.LearnerID,
		CourseID:        s.CourseID,
		LectureID:       lectureID,
		ProgressPercent: percent,
		CompletedAt:     time.Now(),
	}
	c.inflight.Add(1)
	return func(ctx context.Context) {
		go func() {
			defer c.inflight.Done()
			wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.persistTimeout)
			defer cancel()
			// Not retried: the local set stays authoritative for the session
			// and the next enrollment refresh reconciles.
			if err := c.enrollments.PersistCompletion(wctx, comp); err != nil {
				c.log.Warn("completion write failed",
					"lecture_id", comp.LectureID,
					"enrollment_id", comp.EnrollmentID,
					"error", err,
				)
			}
		}()
	}
}

func (c *Coordinator) notice(kind NoticeKind, lectureID, redirectTo string) effect {
	s := c.session
	n := Notice{
		Kind:            kind,
		LearnerID:       s.LearnerID,
		CourseID:        s.CourseID,
		LectureID:       lectureID,
		RedirectTo:      redirectTo,
		CompletedCount:  s.completed.CountIn(s.Outline),
		TotalCount:      s.Outline.Len(),
		ProgressPercent: s.Percent(),
	}
	return func(ctx context.Context) {
		if c.notifier == nil {
			return
		}
		if err := c.notifier.Notify(ctx, n); err != nil {
			c.log.Warn("notify failed", "kind", kind, "error", err)
		}
	}
}

func (c *Coordinator) event(eventType, lectureID string, data map[string]any) effect {
	s := c.session
	ev := events.Event{
		EnrollmentID: s.EnrollmentID,
		LearnerID:    s.LearnerID,
		CourseID:     s.CourseID,
		LectureID:    lectureID,
		Type:         eventType,
		Data:         data,
	}
	return func(ctx context.Context) {
		if err := c.events.LogEvent(ctx, ev); err != nil {
			c.log.Warn("failed to log event", "type", eventType, "error", err)
		}
	}
}

func (c *Coordinator) goTo(ctx context.Context, lectureID string) {
	if c.nav == nil {
		return
	}
	nav := Navigation{
		LearnerID: c.session.LearnerID,
		CourseID:  c.session.CourseID,
		LectureID: lectureID,
	}
	if err := c.nav.GoTo(ctx, nav); err != nil {
		c.log.Warn("navigation failed", "lecture_id", lectureID, "error", err)
	}
}
