package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	"ludo-server/internal/app/reconnect"
)

type ReconnectHandlers struct {
	resolver *reconnect.Resolver
}

func NewReconnectHandlers(resolver *reconnect.Resolver) *ReconnectHandlers {
	return &ReconnectHandlers{resolver: resolver}
}

// Reconnect resolves the caller's current standing: waiting, at a table,
// completed, or nothing. Tournament reconnects carry the tournament context
// so the round's sub-tables can be polled.
func (h *ReconnectHandlers) Reconnect() http.HandlerFunc {
	type request struct {
		UserID       string `json:"userId"`
		TournamentID string `json:"tournamentId,omitempty"`
		RoundNo      int    `json:"roundNo,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := DecodeJSON(r, &req); err != nil || req.UserID == "" {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		var (
			view reconnect.View
			err  error
		)
		if req.TournamentID != "" {
			view, err = h.resolver.ResolveTournament(r.Context(), req.UserID, req.TournamentID, req.RoundNo)
		} else {
			view, err = h.resolver.Resolve(r.Context(), req.UserID)
		}
		if errors.Is(err, reconnect.ErrRoundNotReady) {
			WriteHTTPError(w, http.StatusConflict, "round_not_ready")
			return
		}
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, view)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
