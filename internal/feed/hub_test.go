package feed_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/p-n-ai/teaching-torch/internal/catalog"
	"github.com/p-n-ai/teaching-torch/internal/feed"
)

type staticSource []catalog.Activity

func (s staticSource) RecentActivities(limit int) []catalog.Activity {
	return append([]catalog.Activity{}, s[:min(limit, len(s))]...)
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) feed.Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var ev feed.Event
	if err := wsjson.Read(ctx, conn, &ev); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	return ev
}

func TestHub_BacklogThenStream(t *testing.T) {
	src := staticSource{
		{ID: "2", Message: "Added new grade: Grade 12"},
		{ID: "1", Message: "Added new grade: Grade 11"},
	}
	hub := feed.NewHub(src, feed.Options{})
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv.URL)

	ev := read(t, conn)
	if ev.Type != feed.EventRecent {
		t.Fatalf("first event type = %q, want %q", ev.Type, feed.EventRecent)
	}
	if len(ev.Activities) != 2 || ev.Activities[0].ID != "1" {
		t.Errorf("backlog = %+v, want oldest first", ev.Activities)
	}

	hub.Publish(catalog.Activity{ID: "3", Message: "Deleted grade: grade12"})
	ev = read(t, conn)
	if ev.Type != feed.EventActivity || ev.Activity == nil || ev.Activity.ID != "3" {
		t.Errorf("event = %+v, want activity 3", ev)
	}
}

func TestHub_ClientsTracked(t *testing.T) {
	hub := feed.NewHub(staticSource{}, feed.Options{})
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv.URL)
	read(t, conn)
	if got := hub.Clients(); got != 1 {
		t.Errorf("Clients() = %d, want 1", got)
	}

	conn.Close(websocket.StatusNormalClosure, "")
	deadline := time.Now().Add(5 * time.Second)
	for hub.Clients() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := hub.Clients(); got != 0 {
		t.Errorf("Clients() after close = %d, want 0", got)
	}
}

func TestHub_CloseDisconnects(t *testing.T) {
	hub := feed.NewHub(staticSource{}, feed.Options{})
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv.URL)
	read(t, conn)
	hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _, err := conn.Read(ctx)
	if got := websocket.CloseStatus(err); got != websocket.StatusGoingAway {
		t.Errorf("close status = %v (err %v), want StatusGoingAway", got, err)
	}
}

func TestHub_PublishWithoutClients(t *testing.T) {
	hub := feed.NewHub(staticSource{}, feed.Options{})
	hub.Publish(catalog.Activity{ID: "1"})
	if got := hub.Clients(); got != 0 {
		t.Errorf("Clients() = %d, want 0", got)
	}
}
