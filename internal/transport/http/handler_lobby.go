package httptransport

import (
	"errors"
	"net/http"
	"time"

	"ludo-server/internal/app/lobby"
	"ludo-server/internal/clients"
	"ludo-server/internal/lock"
)

type LobbyHandlers struct {
	lobbySvc *lobby.Service
	types    map[string]lobby.TableType
}

func NewLobbyHandlers(lobbySvc *lobby.Service, types []lobby.TableType) *LobbyHandlers {
	byID := make(map[string]lobby.TableType, len(types))
	for _, tt := range types {
		byID[tt.ID] = tt
	}
	return &LobbyHandlers{lobbySvc: lobbySvc, types: byID}
}

// Join puts the caller into a table type's waiting pool. The origin IP comes
// from the connection (behind RealIP), never from the body, because it feeds
// the anti-collusion grouping.
func (h *LobbyHandlers) Join() http.HandlerFunc {
	type request struct {
		UserID      string `json:"userId"`
		TableTypeID string `json:"tableTypeId"`
	}
	type response struct {
		Deadline time.Time `json:"deadline"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := DecodeJSON(r, &req); err != nil || req.UserID == "" || req.TableTypeID == "" {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		tt, ok := h.types[req.TableTypeID]
		if !ok {
			WriteHTTPError(w, http.StatusBadRequest, "unknown_table_type")
			return
		}
		deadline, err := h.lobbySvc.Join(r.Context(), req.UserID, r.RemoteAddr, tt)
		if err != nil {
			switch {
			case errors.Is(err, clients.ErrInsufficientFunds):
				WriteHTTPError(w, http.StatusPaymentRequired, "insufficient_funds")
			case errors.Is(err, lobby.ErrAlreadyWaiting):
				WriteHTTPError(w, http.StatusConflict, "already_waiting")
			case errors.Is(err, lock.ErrResourceBusy):
				WriteHTTPError(w, http.StatusServiceUnavailable, "resource_busy")
			default:
				WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			}
			return
		}
		writeJSON(w, response{Deadline: deadline})
	}
}

func (h *LobbyHandlers) LeaveWaiting() http.HandlerFunc {
	type request struct {
		UserID      string `json:"userId"`
		TableTypeID string `json:"tableTypeId"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := DecodeJSON(r, &req); err != nil || req.UserID == "" || req.TableTypeID == "" {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		err := h.lobbySvc.Leave(r.Context(), req.UserID, req.TableTypeID)
		if err != nil {
			switch {
			case errors.Is(err, lobby.ErrNotWaiting):
				WriteHTTPError(w, http.StatusConflict, "not_waiting")
			case errors.Is(err, lock.ErrResourceBusy):
				WriteHTTPError(w, http.StatusServiceUnavailable, "resource_busy")
			default:
				WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			}
			return
		}
		writeActionResult(w, nil)
	}
}
