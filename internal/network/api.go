package network

import (
	"encoding/json"
	"net/http"

	"github.com/MRamiBalles/GridSnake/internal/engine"
	"github.com/MRamiBalles/GridSnake/internal/platform/logger"
)

// API serves the small REST surface next to the websocket.
type API struct {
	board engine.ScoreBoard
	rules engine.Rules
	log   *logger.Logger
}

// NewAPI creates the REST handlers.
func NewAPI(board engine.ScoreBoard, rules engine.Rules, log *logger.Logger) *API {
	if log == nil {
		log = logger.Discard()
	}
	return &API{board: board, rules: rules, log: log}
}

// HandleHighScore returns the server-wide best.
// GET /api/highscore
func (a *API) HandleHighScore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	best := 0
	if a.board != nil {
		best = a.board.Best()
	}
	a.jsonSuccess(w, map[string]int{"high_score": best})
}

// HandleRules returns the tunables new games start with.
// GET /api/rules
func (a *API) HandleRules(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	a.jsonSuccess(w, map[string]interface{}{
		"grid_size":           a.rules.GridSize,
		"initial_interval_ms": a.rules.InitialInterval.Milliseconds(),
		"min_interval_ms":     a.rules.MinInterval.Milliseconds(),
		"interval_step_ms":    a.rules.IntervalStep.Milliseconds(),
		"border":              a.rules.Border,
	})
}

// RegisterRoutes sets up the API routes.
func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/highscore", a.HandleHighScore)
	mux.HandleFunc("/api/rules", a.HandleRules)
}

// jsonError sends an error response.
func (a *API) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// jsonSuccess sends a success response.
func (a *API) jsonSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		a.log.Warnf("Failed to write API response: %v", err)
	}
}
