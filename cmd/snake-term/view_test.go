package main

import (
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/MRamiBalles/GridSnake/internal/domain/grid"
	"github.com/MRamiBalles/GridSnake/internal/engine"
	"github.com/MRamiBalles/GridSnake/internal/events"
)

func TestKeyIntent(t *testing.T) {
	for _, tc := range []struct {
		name string
		ev   *tcell.EventKey
		want engine.Intent
		ok   bool
	}{
		{"up", tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone), engine.DirectionIntent(grid.Up), true},
		{"left", tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone), engine.DirectionIntent(grid.Left), true},
		{"enter", tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), engine.Intent{Kind: engine.IntentStart}, true},
		{"space", tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone), engine.Intent{Kind: engine.IntentPause}, true},
		{"reset", tcell.NewEventKey(tcell.KeyRune, 'r', tcell.ModNone), engine.Intent{Kind: engine.IntentReset}, true},
		{"other", tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone), engine.Intent{}, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := keyIntent(tc.ev)
			if ok != tc.ok || got != tc.want {
				t.Errorf("Expected %+v/%v, got %+v/%v", tc.want, tc.ok, got, ok)
			}
		})
	}
}

func TestIsQuit(t *testing.T) {
	if !isQuit(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)) {
		t.Error("Expected Esc to quit")
	}
	if !isQuit(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)) {
		t.Error("Expected q to quit")
	}
	if isQuit(tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone)) {
		t.Error("Expected arrows not to quit")
	}
}

func TestGridSizeForTerminal(t *testing.T) {
	for _, tc := range []struct {
		w, h, max, want int
	}{
		{80, 24, 20, 19},
		{200, 60, 20, 20},
		{42, 60, 0, 20},
		{3, 3, 20, engine.MinGridSize},
	} {
		if got := gridSizeForTerminal(tc.w, tc.h, tc.max); got != tc.want {
			t.Errorf("gridSizeForTerminal(%d, %d, %d) = %d, expected %d", tc.w, tc.h, tc.max, got, tc.want)
		}
	}
}

func TestLatestFrameKeepsNewest(t *testing.T) {
	l := newLatestFrame()
	l.Publish(engine.GameState{Score: 1}, []events.Event{{Type: events.EventTypeFoodEaten, Score: 1}})
	l.Publish(engine.GameState{Score: 2}, nil)

	f := <-l.ch
	if f.state.Score != 2 {
		t.Errorf("Expected the newest frame, got score %d", f.state.Score)
	}
	if f.toast == "" {
		t.Error("Expected the dropped frame's toast to carry over")
	}
	select {
	case extra := <-l.ch:
		t.Errorf("Expected a single frame, got another: %+v", extra)
	default:
	}
}

func screenText(s tcell.SimulationScreen) string {
	cells, w, h := s.GetContents()
	var b strings.Builder
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if r := cells[y*w+x].Runes; len(r) > 0 {
				b.WriteRune(r[0])
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func TestRenderShowsScoreAndOverlay(t *testing.T) {
	s := tcell.NewSimulationScreen("")
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}
	defer s.Fini()
	s.SetSize(80, 24)

	g := engine.NewGame(engine.DefaultRules(), engine.WithSeed(1), engine.WithHighScore(7))
	v := &view{screen: s}
	v.render(frame{state: g.State()})

	out := screenText(s)
	for _, want := range []string{"Score: 0", "High Score: 7", "Press Enter"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected screen to contain %q:\n%s", want, out)
		}
	}

	st := g.State()
	st.Over, st.Won, st.Phase = true, true, engine.PhaseWon
	v.render(frame{state: st, toast: "You filled the board!"})
	out = screenText(s)
	if !strings.Contains(out, "You Win!") || !strings.Contains(out, "You filled the board!") {
		t.Errorf("Expected the win overlay and toast:\n%s", out)
	}
}
