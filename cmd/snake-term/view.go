package main

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/MRamiBalles/GridSnake/internal/controls"
	"github.com/MRamiBalles/GridSnake/internal/engine"
	"github.com/MRamiBalles/GridSnake/internal/events"
)

// Each cell is two columns wide so the board looks square.
const cellColumns = 2

// hudRows are the lines above and below the board.
const hudRows = 3

type theme struct {
	fg    tcell.Color
	board tcell.Color
	wall  tcell.Color
	head  tcell.Color
	body  tcell.Color
	food  tcell.Color
}

var themes = []theme{
	{fg: tcell.ColorWhite, board: tcell.ColorBlack, wall: tcell.ColorGray, head: tcell.ColorLawnGreen, body: tcell.ColorGreen, food: tcell.ColorRed},
	{fg: tcell.ColorBlack, board: tcell.ColorWhiteSmoke, wall: tcell.ColorDarkGray, head: tcell.ColorDarkGreen, body: tcell.ColorSeaGreen, food: tcell.ColorCrimson},
}

// frame is one published snapshot plus the toast it should show.
type frame struct {
	state engine.GameState
	toast string
}

// latestFrame keeps only the newest frame so a slow terminal never stalls
// the session goroutine.
type latestFrame struct {
	ch chan frame
}

func newLatestFrame() *latestFrame {
	return &latestFrame{ch: make(chan frame, 1)}
}

func (l *latestFrame) Publish(st engine.GameState, evs []events.Event) {
	f := frame{state: st, toast: toastFor(evs)}
	for {
		select {
		case l.ch <- f:
			return
		default:
		}
		select {
		case old := <-l.ch:
			if f.toast == "" {
				f.toast = old.toast
			}
		default:
		}
	}
}

func toastFor(evs []events.Event) string {
	msg := ""
	for _, ev := range evs {
		switch ev.Type {
		case events.EventTypeFoodEaten:
			msg = fmt.Sprintf("Yum! Score %d", ev.Score)
		case events.EventTypeNewHighScore:
			msg = fmt.Sprintf("New high score: %d", ev.Score)
		case events.EventTypeGameWon:
			msg = "You filled the board!"
		case events.EventTypeGameOver:
			msg = fmt.Sprintf("Game over (%s)", ev.Cause)
		}
	}
	return msg
}

// keyIntent maps a terminal key to the same intents as the browser keys,
// plus r for reset.
func keyIntent(e *tcell.EventKey) (engine.Intent, bool) {
	switch e.Key() {
	case tcell.KeyUp:
		return controls.KeyIntent("ArrowUp")
	case tcell.KeyDown:
		return controls.KeyIntent("ArrowDown")
	case tcell.KeyLeft:
		return controls.KeyIntent("ArrowLeft")
	case tcell.KeyRight:
		return controls.KeyIntent("ArrowRight")
	case tcell.KeyEnter:
		return controls.KeyIntent("Enter")
	case tcell.KeyRune:
		switch e.Rune() {
		case ' ':
			return controls.KeyIntent(" ")
		case 'r', 'R':
			return engine.Intent{Kind: engine.IntentReset}, true
		}
	}
	return engine.Intent{}, false
}

func isQuit(e *tcell.EventKey) bool {
	if e.Key() == tcell.KeyEscape || e.Key() == tcell.KeyCtrlC {
		return true
	}
	if e.Key() != tcell.KeyRune {
		return false
	}
	r := e.Rune()
	return r == 'q' || r == 'Q'
}

func isThemeToggle(e *tcell.EventKey) bool {
	return e.Key() == tcell.KeyRune && (e.Rune() == 't' || e.Rune() == 'T')
}

// gridSizeForTerminal fits the board and its border into w x h, no larger
// than max.
func gridSizeForTerminal(w, h, max int) int {
	size := (w - 2) / cellColumns
	if rows := h - hudRows - 2; rows < size {
		size = rows
	}
	if max > 0 && size > max {
		size = max
	}
	if size < engine.MinGridSize {
		size = engine.MinGridSize
	}
	return size
}

type view struct {
	screen tcell.Screen
	theme  int
	toast  string
}

func (v *view) toggleTheme() {
	v.theme = (v.theme + 1) % len(themes)
}

func (v *view) render(f frame) {
	if f.toast != "" {
		v.toast = f.toast
	}
	st := f.state
	th := themes[v.theme]
	s := v.screen
	s.Clear()

	text := tcell.StyleDefault.Foreground(th.fg)
	drawText(s, 0, 0, fmt.Sprintf("Score: %d   High Score: %d   Speed: %dms", st.Score, st.HighScore, st.SpeedIntervalMs), text.Bold(true))

	left, top := 0, 1
	wall := tcell.StyleDefault.Background(th.wall)
	width := st.GridSize*cellColumns + 2
	for x := 0; x < width; x++ {
		s.SetContent(left+x, top, ' ', nil, wall)
		s.SetContent(left+x, top+st.GridSize+1, ' ', nil, wall)
	}
	for y := 0; y <= st.GridSize+1; y++ {
		s.SetContent(left, top+y, ' ', nil, wall)
		s.SetContent(left+width-1, top+y, ' ', nil, wall)
	}

	board := tcell.StyleDefault.Background(th.board)
	for y := 0; y < st.GridSize; y++ {
		for x := 0; x < st.GridSize*cellColumns; x++ {
			s.SetContent(left+1+x, top+1+y, ' ', nil, board)
		}
	}

	paint := func(x, y int, st tcell.Style) {
		for i := 0; i < cellColumns; i++ {
			s.SetContent(left+1+x*cellColumns+i, top+1+y, ' ', nil, st)
		}
	}
	if !st.Over {
		paint(st.Food.X, st.Food.Y, tcell.StyleDefault.Background(th.food))
	}
	for i := len(st.Snake) - 1; i >= 0; i-- {
		c := st.Snake[i]
		color := th.body
		if i == 0 {
			color = th.head
		}
		paint(c.X, c.Y, tcell.StyleDefault.Background(color))
	}

	cx, cy := left+width/2, top+(st.GridSize+2)/2
	overlay := tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorDarkSlateGray).Bold(true)
	switch st.Phase {
	case engine.PhaseNotStarted:
		drawCentered(s, cx, cy, " Press Enter or an arrow to start ", overlay)
	case engine.PhasePaused:
		drawCentered(s, cx, cy, " Paused - space to resume ", overlay)
	case engine.PhaseOver:
		drawCentered(s, cx, cy, fmt.Sprintf(" Game Over! Score %d - r to restart ", st.Score), overlay.Background(tcell.ColorMaroon))
	case engine.PhaseWon:
		drawCentered(s, cx, cy, fmt.Sprintf(" You Win! Score %d - r to restart ", st.Score), overlay.Background(tcell.ColorDarkGreen))
	}

	bottom := top + st.GridSize + 2
	drawText(s, 0, bottom, v.toast, text.Foreground(tcell.ColorYellow))
	drawText(s, 0, bottom+1, "arrows move  space pause  enter start  r reset  t theme  q quit", text.Dim(true))
	s.Show()
}

func drawText(s tcell.Screen, x, y int, text string, st tcell.Style) {
	for i, ch := range []rune(text) {
		s.SetContent(x+i, y, ch, nil, st)
	}
}

func drawCentered(s tcell.Screen, cx, cy int, text string, st tcell.Style) {
	x := cx - len([]rune(text))/2
	if x < 0 {
		x = 0
	}
	drawText(s, x, cy, text, st)
}
