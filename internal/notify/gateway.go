// Package notify delivers navigation commands and progress notices to
// learners over the registered channels (WebSocket, log).
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/text/language"

	"github.com/p-n-ai/pai-course/internal/progress"
)

// Message types.
const (
	TypeNavigate = "navigate"
	TypeNotice   = "notice"
)

// Message is what a channel delivers to a learner.
type Message struct {
	Type            string              `json:"type"`
	CourseID        string              `json:"course_id"`
	LectureID       string              `json:"lecture_id,omitempty"`
	Kind            progress.NoticeKind `json:"kind,omitempty"`
	Text            string              `json:"text,omitempty"`
	RedirectTo      string              `json:"redirect_to,omitempty"`
	CompletedCount  int                 `json:"completed_count,omitempty"`
	TotalCount      int                 `json:"total_count,omitempty"`
	ProgressPercent float64             `json:"progress_percent,omitempty"`
}

// Channel is the interface each delivery transport implements.
type Channel interface {
	Send(ctx context.Context, learnerID string, msg Message) error
}

// Gateway fans messages out to every registered channel. It implements
// progress.Navigator and progress.Notifier.
type Gateway struct {
	channels  map[string]Channel
	languages map[string]language.Tag
	fallback  language.Tag
	mu        sync.RWMutex
}

// NewGateway creates a gateway that renders text in fallback until a
// learner's language is known.
func NewGateway(fallback language.Tag) *Gateway {
	return &Gateway{
		channels:  make(map[string]Channel),
		languages: make(map[string]language.Tag),
		fallback:  fallback,
	}
}

// Register adds a channel to the gateway.
func (g *Gateway) Register(name string, ch Channel) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.channels[name] = ch
	slog.Info("notify channel registered", "channel", name)
}

// HasChannel returns true if the named channel is registered.
func (g *Gateway) HasChannel(name string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.channels[name]
	return ok
}

// SetLanguage records the learner's preferred language for notice text.
func (g *Gateway) SetLanguage(learnerID string, tag language.Tag) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.languages[learnerID] = Match(tag)
}

// PreferLanguage records the best supported match for an Accept-Language
// style preference. An empty or unparsable preference leaves the learner on
// their current language, or the gateway fallback.
func (g *Gateway) PreferLanguage(learnerID, accept string) {
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return
	}
	g.SetLanguage(learnerID, MatchAcceptLanguage(accept))
}

// Language returns the language notices for the learner are rendered in.
func (g *Gateway) Language(learnerID string) language.Tag {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if tag, ok := g.languages[learnerID]; ok {
		return tag
	}
	return g.fallback
}

// GoTo tells the learner's client to open a lecture.
func (g *Gateway) GoTo(ctx context.Context, nav progress.Navigation) error {
	return g.broadcast(ctx, nav.LearnerID, Message{
		Type:      TypeNavigate,
		CourseID:  nav.CourseID,
		LectureID: nav.LectureID,
	})
}

// Notify renders a notice in the learner's language and delivers it.
func (g *Gateway) Notify(ctx context.Context, n progress.Notice) error {
	return g.broadcast(ctx, n.LearnerID, Message{
		Type:            TypeNotice,
		CourseID:        n.CourseID,
		LectureID:       n.LectureID,
		Kind:            n.Kind,
		Text:            Format(g.Language(n.LearnerID), n),
		RedirectTo:      n.RedirectTo,
		CompletedCount:  n.CompletedCount,
		TotalCount:      n.TotalCount,
		ProgressPercent: n.ProgressPercent,
	})
}

func (g *Gateway) broadcast(ctx context.Context, learnerID string, msg Message) error {
	g.mu.RLock()
	names := make([]string, 0, len(g.channels))
	for name := range g.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	channels := make([]Channel, len(names))
	for i, name := range names {
		channels[i] = g.channels[name]
	}
	g.mu.RUnlock()

	var errs []error
	for i, ch := range channels {
		if err := ch.Send(ctx, learnerID, msg); err != nil {
			errs = append(errs, fmt.Errorf("channel %s: %w", names[i], err))
		}
	}
	return errors.Join(errs...)
}

// LogChannel writes every message to the structured log.
type LogChannel struct {
	Logger *slog.Logger
}

func (c LogChannel) Send(ctx context.Context, learnerID string, msg Message) error {
	log := c.Logger
	if log == nil {
		log = slog.Default()
	}
	log.InfoContext(ctx, "learner message",
		"learner_id", learnerID,
		"type", msg.Type,
		"course_id", msg.CourseID,
		"lecture_id", msg.LectureID,
		"kind", msg.Kind,
		"text", msg.Text,
	)
	return nil
}

// MockChannel is a test double for Channel.
type MockChannel struct {
	mu   sync.Mutex
	Sent []Message
	To   []string
	Err  error
}

func (m *MockChannel) Send(_ context.Context, learnerID string, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, msg)
	m.To = append(m.To, learnerID)
	return nil
}

// Messages returns a copy of the delivered messages.
func (m *MockChannel) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.Sent...)
}
