package httptransport

import (
	"errors"
	"net/http"

	"ludo-server/internal/app/lobby"
	"ludo-server/internal/app/tourney"
	"ludo-server/internal/lock"
)

// TourneyHandlers serve the tournament metadata service, not players: it
// calls in to fan a round's cohort out into sub-tables.
type TourneyHandlers struct {
	tourneySvc *tourney.Service
	types      map[string]lobby.TableType
}

func NewTourneyHandlers(tourneySvc *tourney.Service, types []lobby.TableType) *TourneyHandlers {
	byID := make(map[string]lobby.TableType, len(types))
	for _, tt := range types {
		byID[tt.ID] = tt
	}
	return &TourneyHandlers{tourneySvc: tourneySvc, types: byID}
}

func (h *TourneyHandlers) StartRound() http.HandlerFunc {
	type request struct {
		TournamentID string   `json:"tournamentId"`
		RoundNo      int      `json:"roundNo"`
		UserIDs      []string `json:"userIds"`
		TableTypeID  string   `json:"tableTypeId"`
	}
	type response struct {
		Promoted []string `json:"promoted"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := DecodeJSON(r, &req); err != nil ||
			req.TournamentID == "" || req.RoundNo < 1 || len(req.UserIDs) == 0 {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		tt, ok := h.types[req.TableTypeID]
		if !ok {
			WriteHTTPError(w, http.StatusBadRequest, "unknown_table_type")
			return
		}
		promoted, err := h.tourneySvc.StartRound(r.Context(), req.TournamentID, req.RoundNo, req.UserIDs, tt)
		if err != nil {
			if errors.Is(err, lock.ErrResourceBusy) {
				WriteHTTPError(w, http.StatusServiceUnavailable, "resource_busy")
				return
			}
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		if promoted == nil {
			promoted = []string{}
		}
		writeJSON(w, response{Promoted: promoted})
	}
}
