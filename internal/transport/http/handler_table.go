package httptransport

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ludo-server/internal/app/play"
	"ludo-server/internal/clients"
	"ludo-server/internal/game"
	"ludo-server/internal/lock"
	"ludo-server/internal/push"
)

type TableHandlers struct {
	playSvc *play.Service
}

func NewTableHandlers(playSvc *play.Service) *TableHandlers {
	return &TableHandlers{playSvc: playSvc}
}

type tableActionRequest struct {
	UserID  string `json:"userId"`
	TableID string `json:"tableId"`
}

func (req tableActionRequest) valid() bool {
	return req.UserID != "" && req.TableID != ""
}

func (h *TableHandlers) Ready() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tableActionRequest
		if err := DecodeJSON(r, &req); err != nil || !req.valid() {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		writeActionResult(w, h.playSvc.Ready(r.Context(), req.UserID, req.TableID))
	}
}

func (h *TableHandlers) RollDice() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tableActionRequest
		if err := DecodeJSON(r, &req); err != nil || !req.valid() {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		writeActionResult(w, h.playSvc.RollDice(r.Context(), req.UserID, req.TableID))
	}
}

func (h *TableHandlers) MovePawn() http.HandlerFunc {
	type request struct {
		UserID  string `json:"userId"`
		TableID string `json:"tableId"`
		PawnID  string `json:"pawnId"`
		Dice    int    `json:"dice"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := DecodeJSON(r, &req); err != nil ||
			req.UserID == "" || req.TableID == "" || req.PawnID == "" || req.Dice < 1 || req.Dice > 6 {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		writeActionResult(w, h.playSvc.MovePawn(r.Context(), req.UserID, req.TableID, req.PawnID, req.Dice))
	}
}

func (h *TableHandlers) SkipTurn() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tableActionRequest
		if err := DecodeJSON(r, &req); err != nil || !req.valid() {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		writeActionResult(w, h.playSvc.SkipTurn(r.Context(), req.UserID, req.TableID))
	}
}

func (h *TableHandlers) Leave() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tableActionRequest
		if err := DecodeJSON(r, &req); err != nil || !req.valid() {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		writeActionResult(w, h.playSvc.Leave(r.Context(), req.UserID, req.TableID))
	}
}

// LastEvent is the catch-up query after a missed push: the last envelope
// published on the table's topic, verbatim.
func (h *TableHandlers) LastEvent() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tableID := chi.URLParam(r, "table_id")
		raw, err := h.playSvc.LastEvent(r.Context(), tableID)
		if errors.Is(err, push.ErrNoEvents) {
			WriteHTTPError(w, http.StatusNotFound, "no_events")
			return
		}
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(raw)
	}
}

func writeActionResult(w http.ResponseWriter, err error) {
	if err != nil {
		writeCoreError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"ok":true}`))
}

// writeCoreError maps the core's sentinel errors onto HTTP statuses. Rule
// violations are conflicts, not server faults.
func writeCoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrOutOfTurn),
		errors.Is(err, game.ErrWrongAction),
		errors.Is(err, game.ErrNotStarted),
		errors.Is(err, game.ErrNotSeated),
		errors.Is(err, game.ErrInvalidPawn),
		errors.Is(err, game.ErrInvalidDice),
		errors.Is(err, game.ErrIllegalMove),
		errors.Is(err, game.ErrGameOver),
		errors.Is(err, game.ErrAlreadyLeft):
		WriteHTTPError(w, http.StatusConflict, err.Error())
	case errors.Is(err, play.ErrTableNotFound):
		WriteHTTPError(w, http.StatusNotFound, "table_not_found")
	case errors.Is(err, clients.ErrInsufficientFunds):
		WriteHTTPError(w, http.StatusPaymentRequired, "insufficient_funds")
	case errors.Is(err, lock.ErrResourceBusy):
		WriteHTTPError(w, http.StatusServiceUnavailable, "resource_busy")
	default:
		WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
	}
}
