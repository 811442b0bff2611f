package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"ludo-server/internal/app/lobby"
	"ludo-server/internal/app/play"
	"ludo-server/internal/app/reconnect"
	"ludo-server/internal/app/tourney"
	"ludo-server/internal/board"
	"ludo-server/internal/clients"
	"ludo-server/internal/config"
	"ludo-server/internal/lock"
	"ludo-server/internal/logging"
	"ludo-server/internal/push"
	"ludo-server/internal/sched"
	"ludo-server/internal/state"
	"ludo-server/internal/store"
	httptransport "ludo-server/internal/transport/http"
)

const clientTimeout = 10 * time.Second

func main() {
	cfg, err := config.LoadApp()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logging.Init(cfg.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := store.New(cfg.Server.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer db.Close()
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("ping postgres")
	}
	if err := db.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("ensure schema")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.Server.RedisAddr,
		DB:   cfg.Server.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Msg("ping redis")
	}
	defer rdb.Close()

	states := state.NewRedisStore(rdb)
	locks := lock.New(rdb, cfg.Game.LockTTL)
	pub := push.NewRedisPublisher(rdb)
	delay := sched.New(ctx, clientTimeout)

	wallet := clients.NewHTTPWallet(cfg.Server.WalletBaseURL, clientTimeout)
	users := clients.NewHTTPUsers(cfg.Server.UserBaseURL, clientTimeout)
	notify := clients.NewHTTPNotifier(cfg.Server.NotifyBaseURL, clientTimeout)
	meta := clients.NewHTTPTournamentMeta(cfg.Server.TournamentBaseURL, clientTimeout)

	playSvc := play.New(cfg.Game, locks, states, db, wallet, users, meta, pub, delay)
	types := defaultTableTypes()
	lobbySvc := lobby.New(cfg.Game, locks, states, db, wallet, notify, pub, playSvc, types)
	tourneySvc := tourney.New(cfg.Game, locks, states, db, lobbySvc, playSvc, meta, pub, delay)
	playSvc.SetRoundSink(tourneySvc)
	resolver := reconnect.New(states, db)

	go lobbySvc.RunSweeper(ctx)

	router := httptransport.NewRouter(playSvc, lobbySvc, tourneySvc, resolver, types)
	logRoutes(router)

	server := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Info().Str("addr", cfg.Server.HTTPAddr).Msg("game server listening")
	log.Fatal().Err(server.ListenAndServe()).Msg("server stopped")
}

// defaultTableTypes is the served catalogue. A table type is immutable for
// the lifetime of the process; waiting entries reference it by id.
func defaultTableTypes() []lobby.TableType {
	return []lobby.TableType{
		{ID: "classic-2-free", Variant: board.VariantClassic, JoinFee: 0, RoomSize: 2},
		{ID: "classic-4-100", Variant: board.VariantClassic, JoinFee: 100, RoomSize: 4},
		{ID: "classic-4-1000", Variant: board.VariantClassic, JoinFee: 1000, RoomSize: 4},
		{ID: "quick-2-100", Variant: board.VariantQuick, JoinFee: 100, RoomSize: 2},
		{ID: "quick-4-500", Variant: board.VariantQuick, JoinFee: 500, RoomSize: 4},
	}
}

func logRoutes(router *chi.Mux) {
	walker := func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		log.Debug().Str("method", method).Str("route", route).Msg("route registered")
		return nil
	}
	if err := chi.Walk(router, walker); err != nil {
		log.Warn().Err(err).Msg("route walk failed")
	}
}
