package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"ludo-server/internal/app/lobby"
	"ludo-server/internal/app/play"
	"ludo-server/internal/app/reconnect"
	"ludo-server/internal/app/tourney"
)

// NewRouter wires the inbound player actions onto the core services. The
// transport stays thin: it validates shape, the core validates legality.
func NewRouter(playSvc *play.Service, lobbySvc *lobby.Service, tourneySvc *tourney.Service,
	resolver *reconnect.Resolver, types []lobby.TableType) *chi.Mux {
	tableHandlers := NewTableHandlers(playSvc)
	lobbyHandlers := NewLobbyHandlers(lobbySvc, types)
	tourneyHandlers := NewTourneyHandlers(tourneySvc, types)
	reconnectHandlers := NewReconnectHandlers(resolver)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(APILogMiddleware())

		r.Post("/waiting/join", lobbyHandlers.Join())
		r.Post("/waiting/leave", lobbyHandlers.LeaveWaiting())

		r.Post("/table/ready", tableHandlers.Ready())
		r.Post("/table/roll", tableHandlers.RollDice())
		r.Post("/table/move", tableHandlers.MovePawn())
		r.Post("/table/skip", tableHandlers.SkipTurn())
		r.Post("/table/leave", tableHandlers.Leave())
		r.Get("/table/{table_id}/last-event", tableHandlers.LastEvent())

		r.Post("/reconnect", reconnectHandlers.Reconnect())

		r.Post("/tournament/round", tourneyHandlers.StartRound())
	})

	return r
}
