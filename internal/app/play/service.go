package play

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"ludo-server/internal/clients"
	"ludo-server/internal/config"
	"ludo-server/internal/game"
	"ludo-server/internal/lock"
	"ludo-server/internal/push"
	"ludo-server/internal/sched"
	"ludo-server/internal/state"
	"ludo-server/internal/store"
)

// Records is the slice of the permanent store this service writes.
type Records interface {
	FinishTableRecord(ctx context.Context, tableID, status string, winners []string, scores map[string]int) error
}

// RoundSink receives tournament sub-table results for aggregation instead of
// the standalone finish path.
type RoundSink interface {
	RoundFinished(ctx context.Context, ev game.RoundFinishedEvent)
}

// Service drives every gameplay mutation: lock, load, engine transition,
// save, publish. The engine itself never touches storage; this is the only
// place the two meet.
type Service struct {
	cfg     config.GameConfig
	locks   *lock.Manager
	tables  state.Store
	records Records
	wallet  clients.Wallet
	users   clients.Users
	meta    clients.TournamentMeta
	pub     push.Publisher
	delay   sched.Delayer
	roll    game.RollFunc
	rounds  RoundSink
}

func New(cfg config.GameConfig, locks *lock.Manager, tables state.Store, records Records,
	wallet clients.Wallet, users clients.Users, meta clients.TournamentMeta,
	pub push.Publisher, delay sched.Delayer) *Service {
	return &Service{
		cfg:     cfg,
		locks:   locks,
		tables:  tables,
		records: records,
		wallet:  wallet,
		users:   users,
		meta:    meta,
		pub:     pub,
		delay:   delay,
		roll:    func(sides int) int { return rand.Intn(sides) + 1 },
	}
}

// SetRoundSink wires the tournament coordinator in after construction; the
// two services reference each other.
func (s *Service) SetRoundSink(r RoundSink) { s.rounds = r }

// SetRollFunc overrides the dice source (tests).
func (s *Service) SetRollFunc(f game.RollFunc) { s.roll = f }

// Ready records the pre-start handshake. The last ready starts the game and
// arms its first turn deadline; free tables also consume a free-game credit.
func (s *Service) Ready(ctx context.Context, userID, tableID string) error {
	var started bool
	err := s.withTable(ctx, tableID, false, func(t *game.Table) ([]game.Event, error) {
		evs, err := t.ReadyUp(userID)
		started = t.Started()
		return evs, err
	})
	if err != nil {
		return err
	}
	if started {
		s.consumeFreeGames(ctx, tableID)
	}
	return nil
}

// RollDice draws for the current player. The trailing turn announcement is
// delayed so clients finish the dice animation first; the delayed publish is
// guarded by a fresh lock+reload staleness check.
func (s *Service) RollDice(ctx context.Context, userID, tableID string) error {
	return s.withTable(ctx, tableID, true, func(t *game.Table) ([]game.Event, error) {
		return t.RollDice(userID, s.roll, s.cfg.SixRule)
	})
}

func (s *Service) MovePawn(ctx context.Context, userID, tableID, pawnID string, dice int) error {
	return s.withTable(ctx, tableID, false, func(t *game.Table) ([]game.Event, error) {
		return t.MovePawn(userID, pawnID, dice)
	})
}

// SkipTurn is the client-voluntary variant; the player gives up the turn and
// pays the same lives penalty the timeout would charge.
func (s *Service) SkipTurn(ctx context.Context, userID, tableID string) error {
	return s.withTable(ctx, tableID, false, func(t *game.Table) ([]game.Event, error) {
		cur := t.Current()
		if cur == nil || cur.UserID != userID {
			return nil, game.ErrOutOfTurn
		}
		return t.SkipTurn()
	})
}

// Leave removes a player mid-game. Takes the user lock as well because the
// active-table pointer changes alongside the table.
func (s *Service) Leave(ctx context.Context, userID, tableID string) error {
	userKey := lock.UserKey(userID)
	if err := s.locks.Acquire(ctx, userKey); err != nil {
		return err
	}
	defer s.locks.Release(ctx, userKey)

	var tournamentID string
	err := s.withTable(ctx, tableID, false, func(t *game.Table) ([]game.Event, error) {
		tournamentID = t.Info.TournamentID
		return t.Leave(userID)
	})
	if err != nil {
		return err
	}
	if err := s.tables.ClearActiveTable(ctx, userID); err != nil {
		log.Warn().Err(err).Str("user", userID).Msg("clear active table pointer")
	}
	if tournamentID != "" {
		if err := s.meta.ReportLoser(ctx, tournamentID, userID); err != nil {
			log.Warn().Err(err).Str("tournament", tournamentID).Str("user", userID).Msg("report loser")
		}
		// attrition: a short-handed sub-table ends early instead of
		// sitting out the full round duration
		s.delay.Schedule("table:"+tableID, s.cfg.AttritionEndDelay, func(ctx context.Context) {
			if err := s.EndTable(ctx, tableID); err != nil && !errors.Is(err, ErrTableNotFound) {
				log.Warn().Err(err).Str("table", tableID).Msg("attrition early end")
			}
		})
	}
	return nil
}

// EndTable force-finishes a table; round deadlines and attrition use this.
func (s *Service) EndTable(ctx context.Context, tableID string) error {
	return s.withTable(ctx, tableID, false, func(t *game.Table) ([]game.Event, error) {
		return t.EndGame()
	})
}

// BeginTable starts a tournament sub-table without the ready handshake.
func (s *Service) BeginTable(ctx context.Context, tableID string) error {
	return s.withTable(ctx, tableID, false, func(t *game.Table) ([]game.Event, error) {
		if t.Started() {
			return nil, game.ErrWrongAction
		}
		return t.Begin(), nil
	})
}

// ArmReadyTimeout starts the ready-handshake clock on a freshly matched
// table. Without it a table nobody readies would sit in the store forever.
func (s *Service) ArmReadyTimeout(ctx context.Context, tableID string) error {
	return s.withTable(ctx, tableID, false, func(*game.Table) ([]game.Event, error) {
		return nil, nil
	})
}

// LastEvent serves the catch-up query after a missed push.
func (s *Service) LastEvent(ctx context.Context, tableID string) ([]byte, error) {
	return s.pub.LastEvent(ctx, tableID)
}

// withTable runs one locked read-modify-write span against a table.
func (s *Service) withTable(ctx context.Context, tableID string, delayNext bool,
	fn func(t *game.Table) ([]game.Event, error)) error {
	key := lock.TableKey(tableID)
	if err := s.locks.Acquire(ctx, key); err != nil {
		return err
	}
	defer s.locks.Release(ctx, key)

	t, err := s.tables.LoadTable(ctx, tableID)
	if errors.Is(err, state.ErrNotFound) {
		return ErrTableNotFound
	}
	if err != nil {
		return err
	}
	evs, err := fn(t)
	if err != nil {
		return err
	}
	return s.commit(ctx, t, evs, delayNext)
}

// commit persists a transitioned table and fans its events out. Non-terminal
// tables get a fresh action deadline and a guarded timeout job; terminal
// tables are settled and removed. Callers hold the table lock.
func (s *Service) commit(ctx context.Context, t *game.Table, evs []game.Event, delayNext bool) error {
	if t.Finished() {
		return s.finalize(ctx, t, evs)
	}
	if !t.Started() {
		return s.commitUnstarted(ctx, t, evs)
	}

	wait := s.cfg.TurnTimeout
	if delayNext {
		wait += s.cfg.RollAnnounceDelay
	}
	deadline := time.Now().Add(wait)
	t.State.Deadline = deadline

	var held *game.NextEvent
	rest := make([]game.Event, 0, len(evs))
	for _, ev := range evs {
		if ne, ok := ev.(game.NextEvent); ok {
			ne.Deadline = deadline
			if delayNext {
				held = &ne
				continue
			}
			ev = ne
		}
		rest = append(rest, ev)
	}

	if err := s.tables.SaveTable(ctx, t); err != nil {
		return err
	}
	s.pub.Publish(ctx, t.Info.ID, rest...)

	// Timers are never cancelled; each job re-checks the turn counter under
	// the lock and goes inert once the table has moved past its target.
	target := t.State.TurnNo + 1
	if held != nil {
		announce := *held
		s.scheduleGuarded(t.Info.ID, target, s.cfg.RollAnnounceDelay, func(ctx context.Context, live *game.Table) {
			s.pub.Publish(ctx, live.Info.ID, announce)
		})
	}
	s.scheduleGuarded(t.Info.ID, target, wait, func(ctx context.Context, live *game.Table) {
		fallbackEvs, err := s.timeoutFallback(live)
		if err != nil {
			log.Warn().Err(err).Str("table", live.Info.ID).Msg("timeout fallback rejected")
			return
		}
		if err := s.commit(ctx, live, fallbackEvs, false); err != nil {
			log.Error().Err(err).Str("table", live.Info.ID).Msg("timeout fallback commit")
		}
	})
	return nil
}

// commitUnstarted persists a table still in the ready handshake. The ready
// clock is armed exactly once: intermediate readies neither extend the
// deadline nor add timers, because ReadyUp does not advance the turn counter
// and an earlier timer would fire live against a pushed-out deadline. The
// armed deadline stands until the last ready starts the game, which bumps
// TurnNo to 1 and makes the discard job inert.
func (s *Service) commitUnstarted(ctx context.Context, t *game.Table, evs []game.Event) error {
	arm := t.State.Deadline.IsZero()
	if arm {
		t.State.Deadline = time.Now().Add(s.cfg.ReadyTimeout)
	}
	if err := s.tables.SaveTable(ctx, t); err != nil {
		return err
	}
	s.pub.Publish(ctx, t.Info.ID, evs...)

	if arm {
		s.scheduleGuarded(t.Info.ID, t.State.TurnNo+1, s.cfg.ReadyTimeout, func(ctx context.Context, live *game.Table) {
			fallbackEvs, err := s.timeoutFallback(live)
			if err != nil {
				log.Warn().Err(err).Str("table", live.Info.ID).Msg("ready deadline fallback rejected")
				return
			}
			if err := s.commit(ctx, live, fallbackEvs, false); err != nil {
				log.Error().Err(err).Str("table", live.Info.ID).Msg("ready deadline fallback commit")
			}
		})
	}
	return nil
}

func (s *Service) timeoutFallback(t *game.Table) ([]game.Event, error) {
	if !t.Started() {
		return t.Discard("ready_timeout")
	}
	return t.SkipTurn()
}

// scheduleGuarded defers a job that only runs if the table still exists and
// has not advanced past the turn-counter target captured at schedule time.
func (s *Service) scheduleGuarded(tableID string, target int, delay time.Duration,
	job func(ctx context.Context, t *game.Table)) {
	s.delay.Schedule("table:"+tableID, delay, func(ctx context.Context) {
		key := lock.TableKey(tableID)
		if err := s.locks.Acquire(ctx, key); err != nil {
			log.Warn().Err(err).Str("table", tableID).Msg("timer could not take table lock")
			return
		}
		defer s.locks.Release(ctx, key)

		t, err := s.tables.LoadTable(ctx, tableID)
		if err != nil {
			// table ended and was removed; the timer is stale
			return
		}
		if t.State.TurnNo >= target {
			return // a real action superseded this timer
		}
		job(ctx, t)
	})
}

// finalize settles a terminal table: permanent record, pointer cleanup,
// ephemeral delete, event fan-out, winnings. The lock is released by the
// caller's defer no matter what fails here.
func (s *Service) finalize(ctx context.Context, t *game.Table, evs []game.Event) error {
	var (
		winners []string
		scores  map[string]int
		status  = store.StatusFinished
		roundEv *game.RoundFinishedEvent
	)
	for _, ev := range evs {
		switch e := ev.(type) {
		case game.GameFinishedEvent:
			winners, scores = e.Winners, e.Scores
		case game.RoundFinishedEvent:
			winners, scores = e.Winners, e.Scores
			round := e
			roundEv = &round
		case game.TableDiscardedEvent:
			status = store.StatusDiscarded
		}
	}

	if err := s.records.FinishTableRecord(ctx, t.Info.ID, status, winners, scores); err != nil {
		// ephemeral and permanent stores now disagree; surfaced, not auto-healed
		log.Error().Err(err).Str("table", t.Info.ID).Msg("terminal record update failed")
	}
	for _, p := range t.Info.Players {
		if err := s.tables.ClearActiveTable(ctx, p.UserID); err != nil {
			log.Warn().Err(err).Str("user", p.UserID).Msg("clear active table pointer")
		}
	}
	if err := s.tables.DeleteTable(ctx, t.Info.ID); err != nil {
		log.Warn().Err(err).Str("table", t.Info.ID).Msg("delete ephemeral table")
	}
	s.pub.Publish(ctx, t.Info.ID, evs...)

	if roundEv != nil {
		if s.rounds != nil {
			s.rounds.RoundFinished(ctx, *roundEv)
		}
		return nil
	}
	if status == store.StatusFinished && len(winners) > 0 && t.Info.JoinFee > 0 {
		pot := t.Info.JoinFee * int64(len(t.Info.Players))
		share := pot / int64(len(winners))
		for _, w := range winners {
			if err := s.wallet.CreditWinnings(ctx, t.Info.ID, w, share); err != nil {
				log.Error().Err(err).Str("table", t.Info.ID).Str("user", w).Msg("credit winnings failed, reconcile out-of-band")
			}
		}
	}
	return nil
}

func (s *Service) consumeFreeGames(ctx context.Context, tableID string) {
	t, err := s.tables.LoadTable(ctx, tableID)
	if err != nil || t.Info.JoinFee != 0 {
		return
	}
	for _, p := range t.Info.Players {
		if err := s.users.ConsumeFreeGame(ctx, p.UserID); err != nil {
			log.Warn().Err(err).Str("user", p.UserID).Msg("consume free game")
		}
	}
}
