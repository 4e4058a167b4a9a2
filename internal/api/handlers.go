package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"team-deathmatch/internal/engine"
	"team-deathmatch/internal/host"
	"team-deathmatch/internal/match"
)

func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"match": h.match.Snapshot(),
		"host":  h.host.GetState(),
	})
}

func (h *routerHandlers) handleGetScoreboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.match.Scoreboard())
}

func (h *routerHandlers) handleGetPlayers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.host.Players())
}

func (h *routerHandlers) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "Invalid player id", http.StatusBadRequest)
		return
	}
	p := engine.PlayerID(id)

	player, ok := h.host.GetPlayer(p)
	if !ok {
		writeError(w, host.ErrUnknownPlayer.Error(), http.StatusNotFound)
		return
	}

	resp := map[string]interface{}{
		"player":        player,
		"notifications": h.host.Notifications(p),
	}
	if stats, ok := h.match.Stats(p); ok {
		resp["stats"] = stats
	}
	if h.switchr != nil {
		if state, point, ok := h.switchr.State(p); ok {
			resp["teamSwitch"] = map[string]interface{}{
				"state": state.String(),
				"point": point,
			}
		}
	}
	writeJSON(w, resp)
}

func (h *routerHandlers) handleMatchStart(w http.ResponseWriter, r *http.Request) {
	// The freeze outlives this request
	if err := h.host.StartMatch(h.baseCtx); err != nil {
		h.log.Warnw("Match start rejected", "error", err)
		writeHostError(w, err)
		return
	}
	writeJSON(w, h.match.Snapshot())
}

func (h *routerHandlers) handlePlayerJoin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string        `json:"name"`
		Team engine.TeamID `json:"team"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Team < 0 {
		writeError(w, "Invalid team", http.StatusBadRequest)
		return
	}

	player, err := h.host.Join(req.Name, req.Team)
	if err != nil {
		writeHostError(w, err)
		return
	}
	writeJSON(w, player)
}

type playerRequest struct {
	Player engine.PlayerID `json:"player"`
}

func (h *routerHandlers) handlePlayerLeave(w http.ResponseWriter, r *http.Request) {
	h.playerAction(w, r, h.host.Leave)
}

func (h *routerHandlers) handlePlayerDeploy(w http.ResponseWriter, r *http.Request) {
	h.playerAction(w, r, h.host.Deploy)
}

func (h *routerHandlers) handlePlayerUndeploy(w http.ResponseWriter, r *http.Request) {
	h.playerAction(w, r, h.host.Undeploy)
}

func (h *routerHandlers) playerAction(w http.ResponseWriter, r *http.Request, action func(engine.PlayerID) error) {
	var req playerRequest
	if !decode(w, r, &req) {
		return
	}
	if err := action(req.Player); err != nil {
		writeHostError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

func (h *routerHandlers) handlePlayerKill(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Player engine.PlayerID `json:"player"`
		Victim engine.PlayerID `json:"victim"`
		Death  string          `json:"death"`
	}
	if !decode(w, r, &req) {
		return
	}

	death := engine.DeathNormal
	if req.Death != "" {
		var ok bool
		if death, ok = engine.ParseDeathType(req.Death); !ok {
			writeError(w, "Unknown death type", http.StatusBadRequest)
			return
		}
	}

	if err := h.host.Kill(req.Player, req.Victim, death); err != nil {
		writeHostError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

func (h *routerHandlers) handlePlayerAssist(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Player engine.PlayerID `json:"player"`
		Other  engine.PlayerID `json:"other"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.host.Assist(req.Player, req.Other); err != nil {
		writeHostError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

func (h *routerHandlers) handlePlayerInteract(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Player engine.PlayerID `json:"player"`
		Point  engine.ObjectID `json:"point"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.host.Interact(req.Player, req.Point); err != nil {
		writeHostError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

func (h *routerHandlers) handlePlayerZone(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Player engine.PlayerID `json:"player"`
		Area   engine.AreaID   `json:"area"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.host.EnterArea(req.Player, req.Area); err != nil {
		writeHostError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

func (h *routerHandlers) handlePlayerMove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Player   engine.PlayerID `json:"player"`
		Position engine.Vec3     `json:"position"`
		Facing   engine.Vec3     `json:"facing"`
		Velocity engine.Vec3     `json:"velocity"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.host.Move(req.Player, req.Position, req.Facing, req.Velocity); err != nil {
		writeHostError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

// Helper functions

const maxBodyBytes = 1 << 16

func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return false
	}
	return true
}

func writeHostError(w http.ResponseWriter, err error) {
	writeError(w, err.Error(), statusFor(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, host.ErrUnknownPlayer), errors.Is(err, host.ErrUnknownObject):
		return http.StatusNotFound
	case errors.Is(err, host.ErrGameFull):
		return http.StatusServiceUnavailable
	case errors.Is(err, host.ErrDeployDisabled),
		errors.Is(err, host.ErrAlreadyDeployed),
		errors.Is(err, host.ErrNotDeployed),
		errors.Is(err, match.ErrAlreadyStarted),
		errors.Is(err, match.ErrClosed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
