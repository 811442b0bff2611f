package tourney

import (
	"context"
	"errors"
	"math/rand"
	"sort"

	"github.com/rs/zerolog/log"

	"ludo-server/internal/app/lobby"
	"ludo-server/internal/clients"
	"ludo-server/internal/config"
	"ludo-server/internal/game"
	"ludo-server/internal/lock"
	"ludo-server/internal/push"
	"ludo-server/internal/sched"
	"ludo-server/internal/state"
	"ludo-server/internal/store"
)

// ErrDataInconsistency marks a round whose permanent and ephemeral records
// disagree: a sub-table's record is still active but the table is gone.
// Surfaced and logged, never auto-healed.
var ErrDataInconsistency = errors.New("data_inconsistency")

// TableBuilder is the lobby's construction path; tournament sub-tables are
// built the same way matched tables are.
type TableBuilder interface {
	BuildTable(ctx context.Context, tt lobby.TableType, userIDs []string, tournamentID string, roundNo int) (*game.Table, error)
}

// Tables is the slice of the gameplay service the coordinator drives.
type Tables interface {
	BeginTable(ctx context.Context, tableID string) error
	EndTable(ctx context.Context, tableID string) error
}

// Records is the permanent-store slice used for round aggregation. The
// records are the fallback oracle once ephemeral tables are deleted.
type Records interface {
	TournamentRoundRecords(ctx context.Context, tournamentID string, roundNo int) ([]store.TableRecord, error)
}

// Service fans a tournament cohort out into sub-tables each round and fans
// the results back in when the last sub-table ends.
type Service struct {
	cfg     config.GameConfig
	locks   *lock.Manager
	states  state.Store
	recs    Records
	builder TableBuilder
	tables  Tables
	meta    clients.TournamentMeta
	pub     push.Publisher
	delay   sched.Delayer

	shuffle func(n int, swap func(i, j int))
}

func New(cfg config.GameConfig, locks *lock.Manager, states state.Store, recs Records,
	builder TableBuilder, tables Tables, meta clients.TournamentMeta,
	pub push.Publisher, delay sched.Delayer) *Service {
	return &Service{
		cfg:     cfg,
		locks:   locks,
		states:  states,
		recs:    recs,
		builder: builder,
		tables:  tables,
		meta:    meta,
		pub:     pub,
		delay:   delay,
		shuffle: rand.Shuffle,
	}
}

// SetShuffle overrides the cohort shuffle (tests).
func (s *Service) SetShuffle(f func(n int, swap func(i, j int))) { s.shuffle = f }

// StartRound shuffles the cohort and splits it into consecutive chunks of the
// tournament's per-game player count. Each chunk of two or more becomes a
// sub-table that begins after the post-match waiting window; a lone remainder
// is promoted to the next round without playing. Returns the promoted users.
func (s *Service) StartRound(ctx context.Context, tournamentID string, roundNo int,
	userIDs []string, tt lobby.TableType) ([]string, error) {
	key := lock.TournamentKey(tournamentID)
	if err := s.locks.Acquire(ctx, key); err != nil {
		return nil, err
	}
	defer s.locks.Release(ctx, key)

	meta, err := s.meta.Tournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	perGame := meta.NoPlayersPerGame
	if perGame < 2 {
		perGame = tt.RoomSize
	}

	cohort := append([]string(nil), userIDs...)
	s.shuffle(len(cohort), func(i, j int) { cohort[i], cohort[j] = cohort[j], cohort[i] })

	var (
		tableIDs []string
		promoted []string
	)
	for start := 0; start < len(cohort); start += perGame {
		end := start + perGame
		if end > len(cohort) {
			end = len(cohort)
		}
		chunk := cohort[start:end]
		if len(chunk) == 1 {
			promoted = append(promoted, chunk[0])
			continue
		}
		tbl, err := s.builder.BuildTable(ctx, tt, chunk, tournamentID, roundNo)
		if err != nil {
			return nil, err
		}
		tableIDs = append(tableIDs, tbl.Info.ID)
		ev := lobby.MatchedTablesEvent{
			TableTypeID: tt.ID,
			TableID:     tbl.Info.ID,
			UserIDs:     append([]string(nil), chunk...),
			JoinFee:     tt.JoinFee,
		}
		for _, uid := range chunk {
			s.pub.Publish(ctx, uid, ev)
		}
	}
	if err := s.states.SaveRoundTables(ctx, tournamentID, roundNo, tableIDs); err != nil {
		return nil, err
	}

	for _, id := range tableIDs {
		tableID := id
		s.delay.Schedule("table:"+tableID, s.cfg.TournamentStartDelay, func(ctx context.Context) {
			if err := s.tables.BeginTable(ctx, tableID); err != nil {
				log.Warn().Err(err).Str("table", tableID).Msg("begin tournament table")
			}
		})
		s.delay.Schedule("table:"+tableID, s.cfg.TournamentStartDelay+s.cfg.RoundDuration, func(ctx context.Context) {
			// usually a no-op: the table has long finished and been removed
			if err := s.tables.EndTable(ctx, tableID); err != nil {
				log.Debug().Err(err).Str("table", tableID).Msg("round deadline end")
			}
		})
	}
	return promoted, nil
}

// RoundFinished is the sink the gameplay service hands every terminal
// tournament sub-table to. When the last sub-table of the round is terminal
// the whole round completes.
func (s *Service) RoundFinished(ctx context.Context, ev game.RoundFinishedEvent) {
	if err := s.completeIfDone(ctx, ev.TournamentID, ev.RoundNo); err != nil {
		log.Error().Err(err).
			Str("tournament", ev.TournamentID).Int("round", ev.RoundNo).
			Msg("round aggregation")
	}
}

func (s *Service) completeIfDone(ctx context.Context, tournamentID string, roundNo int) error {
	key := lock.TournamentKey(tournamentID)
	if err := s.locks.Acquire(ctx, key); err != nil {
		return err
	}
	defer s.locks.Release(ctx, key)

	recs, err := s.recs.TournamentRoundRecords(ctx, tournamentID, roundNo)
	if err != nil {
		return err
	}
	for _, r := range recs {
		if r.Status != store.StatusActive {
			continue
		}
		// record still active: either the sub-table is really still
		// playing, or the stores disagree
		if _, err := s.states.LoadTable(ctx, r.ID); errors.Is(err, state.ErrNotFound) {
			return ErrDataInconsistency
		}
		return nil // round still in progress
	}
	return s.completeRound(ctx, tournamentID, roundNo, recs)
}

// completeRound aggregates every sub-table's outcome and reports either an
// interim continuation signal or, after the last round, the leaderboard.
func (s *Service) completeRound(ctx context.Context, tournamentID string, roundNo int,
	recs []store.TableRecord) error {
	winners, scores := aggregate(recs)

	// everyone who played and did not win this round is out
	for _, r := range recs {
		for _, uid := range r.Players {
			if !contains(r.Winners, uid) {
				if err := s.meta.ReportLoser(ctx, tournamentID, uid); err != nil {
					log.Warn().Err(err).Str("tournament", tournamentID).Str("user", uid).Msg("report loser")
				}
			}
		}
	}

	meta, err := s.meta.Tournament(ctx, tournamentID)
	if err != nil {
		return err
	}
	if meta.TotalRounds > 0 && roundNo >= meta.TotalRounds {
		s.pub.Publish(ctx, tournamentID, game.GameFinishedEvent{
			TableID: tournamentID,
			Winners: winners,
			Scores:  scores,
		})
		return nil
	}
	s.pub.Publish(ctx, tournamentID, game.RoundFinishedEvent{
		TournamentID: tournamentID,
		RoundNo:      roundNo,
		Winners:      winners,
		Scores:       scores,
	})
	return nil
}

// aggregate merges sub-table outcomes into the round's advancing winners and
// a combined score sheet. Discarded sub-tables contribute nothing.
func aggregate(recs []store.TableRecord) ([]string, map[string]int) {
	var winners []string
	scores := make(map[string]int)
	for _, r := range recs {
		if r.Status != store.StatusFinished {
			continue
		}
		winners = append(winners, r.Winners...)
		for uid, sc := range r.Scores {
			scores[uid] += sc
		}
	}
	sort.Strings(winners)
	return winners, scores
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
