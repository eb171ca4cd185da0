// ABOUTME: Tests for the monitor endpoint
// ABOUTME: Drives the WebSocket and HTTP handlers through httptest
package monitor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type fakeControl struct {
	mu     sync.Mutex
	volume int
	muted  bool
	calls  int
}

func (f *fakeControl) SetVolume(v int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volume = v
	f.calls++
}

func (f *fakeControl) SetMuted(m bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.muted = m
	f.calls++
}

func (f *fakeControl) state() (int, bool, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.volume, f.muted, f.calls
}

type status struct {
	Streams int `json:"streams"`
}

func newTestMonitor(t *testing.T, ctrl Controller) (*Server, *httptest.Server) {
	t.Helper()
	return newTestMonitorWithConfig(t, Config{Interval: 10 * time.Millisecond}, ctrl)
}

func newTestMonitorWithConfig(t *testing.T, cfg Config, ctrl Controller) (*Server, *httptest.Server) {
	t.Helper()
	mon, err := New(cfg, func() interface{} {
		return status{Streams: 2}
	}, ctrl)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	srv := httptest.NewServer(mon.Handler())
	t.Cleanup(func() {
		srv.Close()
		mon.Stop()
	})
	return mon, srv
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestMonitorPushesStatus(t *testing.T) {
	_, srv := newTestMonitor(t, nil)
	conn := dial(t, srv, "/monitor")

	for i := 0; i < 2; i++ {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read %d failed: %v", i, err)
		}

		var msg struct {
			Type    string `json:"type"`
			Payload status `json:"payload"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("bad message %s: %v", data, err)
		}
		if msg.Type != "status" || msg.Payload.Streams != 2 {
			t.Errorf("unexpected message: %+v", msg)
		}
	}
}

func TestMonitorCommands(t *testing.T) {
	ctrl := &fakeControl{}
	_, srv := newTestMonitor(t, ctrl)
	conn := dial(t, srv, "/monitor")

	commands := []string{
		`{"type":"volume","volume":35}`,
		`{"type":"mute","muted":true}`,
		`{"type":"volume"}`,
		`not json`,
		`{"type":"reboot"}`,
	}
	for _, c := range commands {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(c)); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, _, calls := ctrl.state(); calls >= 2 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	volume, muted, calls := ctrl.state()
	if volume != 35 || !muted {
		t.Errorf("expected volume 35 muted, got %d %v", volume, muted)
	}
	if calls != 2 {
		t.Errorf("expected 2 applied commands, got %d", calls)
	}
}

func TestMonitorStatusEndpoint(t *testing.T) {
	_, srv := newTestMonitor(t, nil)

	resp, err := http.Get(srv.URL + "/status")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON content type, got %s", ct)
	}

	var msg struct {
		Type    string `json:"type"`
		Payload status `json:"payload"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if msg.Payload.Streams != 2 {
		t.Errorf("expected 2 streams, got %d", msg.Payload.Streams)
	}
}

func TestMonitorStartStop(t *testing.T) {
	mon, err := New(Config{Addr: "127.0.0.1:0"}, func() interface{} { return nil }, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if mon.Tap() != nil {
		t.Error("expected no tap without an audio codec")
	}
	if mon.Port() != 0 {
		t.Errorf("expected port 0 before Start, got %d", mon.Port())
	}
	if err := mon.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if mon.Port() == 0 {
		t.Error("expected a bound port after Start")
	}
	if mon.Path() != "/monitor" {
		t.Errorf("expected default path, got %s", mon.Path())
	}
	mon.Stop()
}
