package notify_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/p-n-ai/pai-course/internal/notify"
)

func TestWebSocketChannel_Send(t *testing.T) {
	ch := notify.NewWebSocketChannel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = ch.Serve(w, r, r.URL.Query().Get("learner_id"))
	}))
	t.Cleanup(srv.Close)

	ctx := t.Context()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?learner_id=learner-1"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.CloseNow()

	deadline := time.Now().Add(2 * time.Second)
	for ch.Connections("learner-1") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("connection was never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := ch.Send(ctx, "learner-1", notify.Message{Type: notify.TypeNavigate, CourseID: "course-1", LectureID: "B"}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	var got notify.Message
	if err := wsjson.Read(ctx, conn, &got); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got.Type != notify.TypeNavigate || got.LectureID != "B" {
		t.Errorf("received %+v, want navigate to B", got)
	}
}

func TestWebSocketChannel_SendWithoutConnection(t *testing.T) {
	ch := notify.NewWebSocketChannel()

	if err := ch.Send(t.Context(), "nobody", notify.Message{Type: notify.TypeNotice}); err != nil {
		t.Errorf("Send() error = %v, want nil for offline learner", err)
	}
}
