package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"snake-duel/internal/game"
)

// Handler methods for routerHandlers
// These are used by both the standalone router (for testing) and the full Server.

func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	// Clone so the encoder never reads a slot the tick is rewriting
	writeJSON(w, h.engine.GetSnapshot().Clone())
}

func (h *routerHandlers) handleGetGameOver(w http.ResponseWriter, r *http.Request) {
	ev, ok := h.engine.GameOver()
	if !ok {
		writeError(w, "No finished session", http.StatusNotFound)
		return
	}
	writeJSON(w, ev)
}

func (h *routerHandlers) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	if limit > game.EventBufferSize {
		limit = game.EventBufferSize
	}

	stats := h.events.Stats()
	UpdateEventLogStats(stats)

	writeJSON(w, map[string]interface{}{
		"events": h.events.Recent(limit),
		"stats":  stats,
	})
}

func (h *routerHandlers) handleBoardPNG(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.GetSnapshot().Clone()

	start := time.Now()
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := RenderBoard(w, snap, h.cellSize); err != nil {
		log.Printf("⚠️ Board render failed: %v", err)
		return
	}
	RecordRender(time.Since(start))
}

type inputRequest struct {
	Player    int             `json:"player"`
	Direction *game.Direction `json:"direction"`
}

func (h *routerHandlers) handleInput(w http.ResponseWriter, r *http.Request) {
	var req inputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Direction == nil {
		writeError(w, "Direction is required", http.StatusBadRequest)
		return
	}
	if req.Player == 0 {
		req.Player = 1
	}

	if err := h.engine.SetIntendedDirection(req.Player, *req.Direction); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

type startRequest struct {
	Mode game.Mode `json:"mode"`
}

func (h *routerHandlers) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	log.Printf("🎮 Session start requested via API: %s", req.Mode)
	if err := h.engine.Start(req.Mode); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{"success": true, "mode": req.Mode})
}

func (h *routerHandlers) handleSessionStop(w http.ResponseWriter, r *http.Request) {
	log.Println("🎮 Session stop requested via API")
	h.engine.Stop()

	ev, ok := h.engine.GameOver()
	if !ok {
		writeJSON(w, map[string]bool{"success": true})
		return
	}
	writeJSON(w, map[string]interface{}{"success": true, "gameOver": ev})
}

// Helper functions (package-level for reuse)

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeEngineError maps engine sentinel errors onto HTTP status codes
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrNotRunning):
		writeError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, game.ErrInvalidPlayer):
		writeError(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, game.ErrInvalidDirection), errors.Is(err, game.ErrUnknownMode):
		writeError(w, err.Error(), http.StatusBadRequest)
	default:
		writeError(w, err.Error(), http.StatusInternalServerError)
	}
}
