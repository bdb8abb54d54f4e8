package network

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/GridSnake/internal/engine"
	"github.com/MRamiBalles/GridSnake/internal/platform/logger"
	"github.com/MRamiBalles/GridSnake/internal/platform/metrics"
)

// ServerConfig wires the websocket endpoint.
type ServerConfig struct {
	Rules   engine.Rules
	Board   engine.ScoreBoard
	Logger  *logger.Logger
	Metrics *metrics.Collector
	// RateLimit caps accepted messages per client per second; 0 disables it.
	RateLimit int
	// CheckOrigin overrides the upgrader's origin check. Nil accepts any
	// origin.
	CheckOrigin func(r *http.Request) bool
	// NewScheduler builds the heartbeat of each session. Nil means the wall
	// clock.
	NewScheduler func() engine.Scheduler
}

// Server upgrades HTTP requests to websocket games. Every connection plays
// its own session until it closes.
type Server struct {
	hub      *Hub
	cfg      ServerConfig
	upgrader websocket.Upgrader
}

// NewServer creates the websocket endpoint on top of a running hub.
func NewServer(hub *Hub, cfg ServerConfig) *Server {
	if cfg.Logger == nil {
		cfg.Logger = hub.logger
	}
	if cfg.Metrics == nil {
		cfg.Metrics = hub.metrics
	}
	if cfg.NewScheduler == nil {
		cfg.NewScheduler = func() engine.Scheduler { return engine.NewClockScheduler() }
	}
	checkOrigin := cfg.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &Server{
		hub: hub,
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// ServeHTTP handles websocket requests from the peer. It blocks until the
// connection closes and the session has stopped.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.cfg.Metrics.RecordWSError()
		s.cfg.Logger.Warnf("Failed to upgrade websocket connection: %v", err)
		return
	}

	id := uuid.NewString()
	client := NewClient(s.hub, conn, id, s.cfg.RateLimit)
	session, err := engine.NewSession(engine.SessionConfig{
		ID:        id,
		Rules:     s.cfg.Rules,
		Scheduler: s.cfg.NewScheduler(),
		Publisher: client,
		Board:     s.cfg.Board,
		Logger:    s.cfg.Logger,
		Metrics:   s.cfg.Metrics,
	})
	if err != nil {
		s.cfg.Logger.Errorf("Failed to create session: %v", err)
		conn.Close()
		return
	}
	client.SetSession(session)

	if !s.hub.add(client) {
		conn.Close()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		<-session.Done()
	}()

	// hello goes out before the first state snapshot.
	client.sendMessage(ServerMessage{Type: MessageHello, SessionID: id, HighScore: s.bestScore()})
	go session.Run(ctx)
	go client.WritePump()
	client.ReadPump(ctx)
}

func (s *Server) bestScore() int {
	if s.cfg.Board == nil {
		return 0
	}
	return s.cfg.Board.Best()
}
