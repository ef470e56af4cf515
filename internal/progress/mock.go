package progress

import (
	"context"
	"sync"
)

// MockNavigator records navigations.
type MockNavigator struct {
	mu   sync.Mutex
	Navs []Navigation
	Err  error
}

func (m *MockNavigator) GoTo(_ context.Context, nav Navigation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Navs = append(m.Navs, nav)
	return m.Err
}

// Targets returns the navigated lecture IDs in order.
func (m *MockNavigator) Targets() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Navs))
	for i, n := range m.Navs {
		out[i] = n.LectureID
	}
	return out
}

// MockNotifier records notices.
type MockNotifier struct {
	mu      sync.Mutex
	Notices []Notice
}

func (m *MockNotifier) Notify(_ context.Context, n Notice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Notices = append(m.Notices, n)
	return nil
}

// Kinds returns the notice kinds in order.
func (m *MockNotifier) Kinds() []NoticeKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]NoticeKind, len(m.Notices))
	for i, n := range m.Notices {
		out[i] = n.Kind
	}
	return out
}

// Count returns how many notices of kind were sent.
func (m *MockNotifier) Count(kind NoticeKind) int {
	n := 0
	for _, k := range m.Kinds() {
		if k == kind {
			n++
		}
	}
	return n
}
