package network

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/GridSnake/internal/domain/grid"
	"github.com/MRamiBalles/GridSnake/internal/engine"
	"github.com/MRamiBalles/GridSnake/internal/events"
	"github.com/MRamiBalles/GridSnake/internal/platform/metrics"
)

type staticBoard struct {
	mu   sync.Mutex
	best int
}

func (b *staticBoard) RecordHighScore(score int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if score > b.best {
		b.best = score
	}
}

func (b *staticBoard) Best() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.best
}

type testServer struct {
	hub        *Hub
	url        string
	schedulers chan *engine.ManualScheduler
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil, metrics.New())
	go hub.Run(ctx)

	ts := &testServer{hub: hub, schedulers: make(chan *engine.ManualScheduler, 8)}
	srv := NewServer(hub, ServerConfig{
		Rules: engine.DefaultRules(),
		Board: &staticBoard{best: 3},
		NewScheduler: func() engine.Scheduler {
			s := engine.NewManualScheduler()
			ts.schedulers <- s
			return s
		},
	})
	mux := http.NewServeMux()
	mux.Handle("/ws", srv)
	httpSrv := httptest.NewServer(mux)
	ts.url = "ws" + strings.TrimPrefix(httpSrv.URL, "http") + "/ws"

	t.Cleanup(func() {
		cancel()
		httpSrv.Close()
	})
	return ts
}

func (ts *testServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(ts.url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// waitFor reads frames until a message satisfies match.
func waitFor(t *testing.T, conn *websocket.Conn, match func(ServerMessage) bool) ServerMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read failed before the expected message: %v", err)
		}
		for _, line := range bytes.Split(frame, []byte{'\n'}) {
			var msg ServerMessage
			if err := json.Unmarshal(line, &msg); err != nil {
				t.Fatalf("invalid server message %q: %v", line, err)
			}
			if match(msg) {
				return msg
			}
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, msg ClientMessage) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}

func hasEvent(msg ServerMessage, typ events.EventType) bool {
	for _, ev := range msg.Events {
		if ev.Type == typ {
			return true
		}
	}
	return false
}

func TestWebSocketGameFlow(t *testing.T) {
	ts := startTestServer(t)
	conn := ts.dial(t)

	hello := waitFor(t, conn, func(m ServerMessage) bool { return m.Type == MessageHello })
	if hello.SessionID == "" || hello.HighScore != 3 {
		t.Errorf("Expected a session id and high score 3, got %+v", hello)
	}
	first := waitFor(t, conn, func(m ServerMessage) bool { return m.Type == MessageState })
	if first.State.Phase != engine.PhaseNotStarted || first.State.HighScore != 3 {
		t.Errorf("Expected a fresh game seeded with the best score, got %+v", first.State)
	}

	sched := <-ts.schedulers

	send(t, conn, ClientMessage{Type: ActionKey, Key: "ArrowUp"})
	started := waitFor(t, conn, func(m ServerMessage) bool {
		return m.Type == MessageState && hasEvent(m, events.EventTypeGameStarted)
	})
	if started.State.Direction != grid.Up {
		t.Errorf("Expected direction UP, got %s", started.State.Direction)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if !sched.Fire(ctx) {
		t.Fatal("tick not delivered")
	}
	moved := waitFor(t, conn, func(m ServerMessage) bool { return m.Type == MessageState && m.State.Tick == 1 })
	want := grid.Cell{X: 10, Y: 9}
	if moved.State.Head() != want {
		t.Errorf("Expected head %v, got %v", want, moved.State.Head())
	}

	send(t, conn, ClientMessage{Type: ActionPause})
	paused := waitFor(t, conn, func(m ServerMessage) bool { return m.Type == MessageState && m.State.Paused })
	if paused.State.Phase != engine.PhasePaused {
		t.Errorf("Expected paused, got %s", paused.State.Phase)
	}
}

func TestWebSocketRejectsBadMessages(t *testing.T) {
	ts := startTestServer(t)
	conn := ts.dial(t)
	waitFor(t, conn, func(m ServerMessage) bool { return m.Type == MessageState })

	conn.WriteMessage(websocket.TextMessage, []byte("not json"))
	errMsg := waitFor(t, conn, func(m ServerMessage) bool { return m.Type == MessageError })
	if errMsg.Error == "" {
		t.Error("Expected an error description")
	}

	send(t, conn, ClientMessage{Type: "teleport"})
	errMsg = waitFor(t, conn, func(m ServerMessage) bool { return m.Type == MessageError })
	if !strings.Contains(errMsg.Error, "teleport") {
		t.Errorf("Expected the unknown type to be named, got %q", errMsg.Error)
	}
}

func TestWebSocketResize(t *testing.T) {
	ts := startTestServer(t)
	conn := ts.dial(t)
	waitFor(t, conn, func(m ServerMessage) bool { return m.Type == MessageState })

	send(t, conn, ClientMessage{Type: ActionResize, Width: 320})
	resized := waitFor(t, conn, func(m ServerMessage) bool {
		return m.Type == MessageState && hasEvent(m, events.EventTypeGridResized)
	})
	if resized.State.GridSize != 12 {
		t.Errorf("Expected grid 12 for a 320px viewport, got %d", resized.State.GridSize)
	}
}

func TestHighScoreBroadcastReachesEveryClient(t *testing.T) {
	ts := startTestServer(t)
	a := ts.dial(t)
	b := ts.dial(t)
	waitFor(t, a, func(m ServerMessage) bool { return m.Type == MessageState })
	waitFor(t, b, func(m ServerMessage) bool { return m.Type == MessageState })

	ts.hub.BroadcastHighScore(42)

	for _, conn := range []*websocket.Conn{a, b} {
		msg := waitFor(t, conn, func(m ServerMessage) bool { return m.Type == MessageHighScore })
		if msg.HighScore != 42 {
			t.Errorf("Expected high score 42, got %d", msg.HighScore)
		}
	}
}

func TestDisconnectUnregisters(t *testing.T) {
	ts := startTestServer(t)
	conn := ts.dial(t)
	waitFor(t, conn, func(m ServerMessage) bool { return m.Type == MessageState })
	sched := <-ts.schedulers

	if ts.hub.ClientCount() != 1 {
		t.Fatalf("Expected one client, got %d", ts.hub.ClientCount())
	}
	conn.Close()

	deadline := time.Now().Add(3 * time.Second)
	for ts.hub.ClientCount() != 0 || !sched.Stopped() {
		if time.Now().After(deadline) {
			t.Fatalf("client not cleaned up: clients=%d scheduler stopped=%v", ts.hub.ClientCount(), sched.Stopped())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestClientMessageIntent(t *testing.T) {
	cases := []struct {
		name string
		msg  ClientMessage
		want engine.Intent
		err  error
	}{
		{"direction", ClientMessage{Type: ActionDirection, Direction: "left"}, engine.DirectionIntent(grid.Left), nil},
		{"key", ClientMessage{Type: ActionKey, Key: "ArrowDown"}, engine.DirectionIntent(grid.Down), nil},
		{"space", ClientMessage{Type: ActionKey, Key: " "}, engine.Intent{Kind: engine.IntentPause}, nil},
		{"unmapped key", ClientMessage{Type: ActionKey, Key: "x"}, engine.Intent{}, ErrNoIntent},
		{"swipe", ClientMessage{Type: ActionSwipe, DX: -90, DY: 12}, engine.DirectionIntent(grid.Left), nil},
		{"tap", ClientMessage{Type: ActionSwipe, DX: 4, DY: 2}, engine.Intent{}, ErrNoIntent},
		{"start", ClientMessage{Type: ActionStart}, engine.Intent{Kind: engine.IntentStart}, nil},
		{"reset", ClientMessage{Type: ActionReset}, engine.Intent{Kind: engine.IntentReset}, nil},
		{"resize", ClientMessage{Type: ActionResize, Width: 1024}, engine.Intent{Kind: engine.IntentResize, GridSize: 20}, nil},
		{"unknown", ClientMessage{Type: "fly"}, engine.Intent{}, ErrUnknownMessage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.msg.Intent()
			if tc.err != nil {
				if !errors.Is(err, tc.err) {
					t.Fatalf("Expected %v, got %v", tc.err, err)
				}
				return
			}
			if err != nil || got != tc.want {
				t.Errorf("Intent() = %+v, %v; want %+v", got, err, tc.want)
			}
		})
	}

	if _, err := (ClientMessage{Type: ActionDirection, Direction: "sideways"}).Intent(); err == nil {
		t.Error("Expected an unknown direction to fail")
	}
	if _, err := (ClientMessage{Type: ActionResize}).Intent(); err == nil {
		t.Error("Expected a resize without width to fail")
	}
}

func TestClientRateLimit(t *testing.T) {
	c := &Client{rateLimit: 3}
	now := time.Unix(100, 0)
	for i := 0; i < 3; i++ {
		if !c.allow(now) {
			t.Fatalf("message %d rejected inside the budget", i+1)
		}
	}
	if c.allow(now.Add(500 * time.Millisecond)) {
		t.Error("Expected the fourth message in one second to be rejected")
	}
	if !c.allow(now.Add(time.Second)) {
		t.Error("Expected a new window to reset the budget")
	}

	unlimited := &Client{}
	for i := 0; i < 1000; i++ {
		if !unlimited.allow(now) {
			t.Fatal("Expected no limit when disabled")
		}
	}
}

func TestHighScoreAPI(t *testing.T) {
	api := NewAPI(&staticBoard{best: 17}, engine.DefaultRules(), nil)
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/highscore", nil))
	var body map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["high_score"] != 17 {
		t.Errorf("Expected 17, got %v", body)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/highscore", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405 for POST, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rules", nil))
	if !strings.Contains(rec.Body.String(), `"border":"bounded"`) {
		t.Errorf("Expected the border policy in %s", rec.Body.String())
	}
}
