// Package main is the terminal client: the same session loop as the server,
// rendered with tcell.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"

	"github.com/MRamiBalles/GridSnake/internal/engine"
	"github.com/MRamiBalles/GridSnake/internal/infra/storage"
	"github.com/MRamiBalles/GridSnake/internal/platform/config"
	"github.com/MRamiBalles/GridSnake/internal/platform/logger"
	"github.com/MRamiBalles/GridSnake/internal/platform/metrics"
	"github.com/MRamiBalles/GridSnake/internal/scoreboard"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "snake-term: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadWithFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		return err
	}

	// The screen belongs to the game, so logs go to a file or nowhere.
	var logOut io.Writer = io.Discard
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	log := logger.NewLoggerTo(logOut)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var repo storage.HighScoreRepository
	db, err := storage.InitSQLite(cfg.DBPath)
	if err != nil {
		log.Warnf("SQLite unavailable, high score kept in memory: %v", err)
		repo = storage.NewMemoryHighScoreRepository(0)
	} else {
		defer db.Close()
		repo = storage.NewSQLiteHighScoreRepository(db)
	}
	m := metrics.New()
	keeper := scoreboard.NewKeeper(repo, log, m)
	defer keeper.Close()
	keeper.Load(ctx)

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()
	screen.HideCursor()

	w, h := screen.Size()
	rules := cfg.Rules()
	rules.GridSize = gridSizeForTerminal(w, h, cfg.GridSize)

	frames := newLatestFrame()
	session, err := engine.NewSession(engine.SessionConfig{
		ID:        uuid.NewString(),
		Rules:     rules,
		Scheduler: engine.NewClockScheduler(),
		Publisher: frames,
		Board:     keeper,
		Logger:    log,
		Metrics:   m,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go session.Run(ctx)

	return loop(ctx, screen, session, frames, cfg.GridSize)
}

// loop renders frames and forwards keys until the player quits or the
// session stops.
func loop(ctx context.Context, screen tcell.Screen, session *engine.Session, frames *latestFrame, maxGrid int) error {
	input := make(chan tcell.Event, 32)
	quit := make(chan struct{})
	defer close(quit)
	go screen.ChannelEvents(input, quit)

	v := &view{screen: screen}
	var last frame
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-session.Done():
			return nil
		case f := <-frames.ch:
			last = f
			v.render(f)
		case ev, ok := <-input:
			if !ok {
				return nil
			}
			switch e := ev.(type) {
			case *tcell.EventResize:
				screen.Sync()
				w, h := screen.Size()
				size := gridSizeForTerminal(w, h, maxGrid)
				if err := session.Submit(ctx, engine.Intent{Kind: engine.IntentResize, GridSize: size}); err != nil {
					return nil
				}
				v.render(frame{state: last.state})
			case *tcell.EventKey:
				if isQuit(e) {
					return nil
				}
				if isThemeToggle(e) {
					v.toggleTheme()
					v.render(frame{state: last.state})
					continue
				}
				if in, ok := keyIntent(e); ok {
					if err := session.Submit(ctx, in); err != nil {
						return nil
					}
				}
			}
		}
	}
}
