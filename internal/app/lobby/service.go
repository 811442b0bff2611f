package lobby

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"ludo-server/internal/board"
	"ludo-server/internal/clients"
	"ludo-server/internal/config"
	"ludo-server/internal/game"
	"ludo-server/internal/lock"
	"ludo-server/internal/push"
	"ludo-server/internal/state"
	"ludo-server/internal/store"
)

var (
	ErrAlreadyWaiting = errors.New("already_waiting")
	ErrNotWaiting     = errors.New("not_waiting")
)

// TableType describes one joinable queue: its board variant, stake and room
// size. The set of types is static per deployment.
type TableType struct {
	ID       string
	Variant  board.Variant
	JoinFee  int64
	RoomSize int
}

// Records is the slice of the permanent store the queue writes.
type Records interface {
	CreateTableRecord(ctx context.Context, r store.TableRecord) error
	FinishTableRecord(ctx context.Context, tableID, status string, winners []string, scores map[string]int) error
}

// TableArmer starts the ready-handshake clock on a table the queue created.
type TableArmer interface {
	ArmReadyTimeout(ctx context.Context, tableID string) error
}

// Service is the matchmaking queue: per table-type waiting pools swept on a
// timer. All pool mutation happens under the table-type lock.
type Service struct {
	cfg    config.GameConfig
	locks  *lock.Manager
	states state.Store
	recs   Records
	wallet clients.Wallet
	notify clients.Notifier
	pub    push.Publisher
	armer  TableArmer
	types  []TableType
}

func New(cfg config.GameConfig, locks *lock.Manager, states state.Store, recs Records,
	wallet clients.Wallet, notify clients.Notifier, pub push.Publisher,
	armer TableArmer, types []TableType) *Service {
	return &Service{
		cfg:    cfg,
		locks:  locks,
		states: states,
		recs:   recs,
		wallet: wallet,
		notify: notify,
		pub:    pub,
		armer:  armer,
		types:  types,
	}
}

// Join puts a user into a table type's waiting pool. The wallet balance is
// checked before anything mutates; the actual debit happens only at match
// time, keyed by the new table id.
func (s *Service) Join(ctx context.Context, userID, ip string, tt TableType) (time.Time, error) {
	if tt.JoinFee > 0 {
		bal, err := s.wallet.Balance(ctx, userID)
		if err != nil {
			return time.Time{}, err
		}
		if bal < tt.JoinFee {
			return time.Time{}, clients.ErrInsufficientFunds
		}
	}

	key := lock.TableTypeKey(tt.ID)
	if err := s.locks.Acquire(ctx, key); err != nil {
		return time.Time{}, err
	}
	defer s.locks.Release(ctx, key)

	if _, err := s.states.WaitingEntry(ctx, userID); err == nil {
		return time.Time{}, ErrAlreadyWaiting
	}
	now := time.Now()
	w := state.WaitingUser{
		UserID:      userID,
		TableTypeID: tt.ID,
		IP:          ip,
		JoinedAt:    now,
		ExpiresAt:   now.Add(s.cfg.MatchingWindow),
		JoinFee:     tt.JoinFee,
	}
	if err := s.states.AddWaiting(ctx, w); err != nil {
		return time.Time{}, err
	}
	s.broadcastGroup(ctx, tt, userID)
	return w.ExpiresAt, nil
}

// Leave withdraws a still-pending waiting entry. Once the entry has been
// matched or has expired the withdrawal fails; the caller learns the truth
// from the reconnect view instead.
func (s *Service) Leave(ctx context.Context, userID, tableTypeID string) error {
	key := lock.TableTypeKey(tableTypeID)
	if err := s.locks.Acquire(ctx, key); err != nil {
		return err
	}
	defer s.locks.Release(ctx, key)

	w, err := s.states.WaitingEntry(ctx, userID)
	if errors.Is(err, state.ErrNotFound) {
		return ErrNotWaiting
	}
	if err != nil {
		return err
	}
	if w.TableTypeID != tableTypeID || time.Now().After(w.ExpiresAt) {
		return ErrNotWaiting
	}
	if err := s.states.RemoveWaiting(ctx, tableTypeID, userID); err != nil {
		return err
	}
	s.pub.Publish(ctx, userID, LeftWaitingEvent{UserID: userID, TableTypeID: tableTypeID})
	return nil
}

// Sweep re-evaluates every table type once: full chunks and chunks whose
// leader's window has passed become tables, expired loners time out.
func (s *Service) Sweep(ctx context.Context) error {
	var firstErr error
	for _, tt := range s.types {
		if err := s.sweepType(ctx, tt); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// RunSweeper drives Sweep on the configured interval until ctx ends.
func (s *Service) RunSweeper(ctx context.Context) {
	tick := time.NewTicker(s.cfg.MatchSweepInterval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			if err := s.Sweep(ctx); err != nil {
				log.Warn().Err(err).Msg("matchmaking sweep")
			}
		}
	}
}

func (s *Service) sweepType(ctx context.Context, tt TableType) error {
	key := lock.TableTypeKey(tt.ID)
	if err := s.locks.Acquire(ctx, key); err != nil {
		return err
	}
	defer s.locks.Release(ctx, key)

	entries, err := s.states.Waiting(ctx, tt.ID)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	now := time.Now()
	for _, g := range groupWaiting(entries, tt.RoomSize, s.cfg.IPRestriction) {
		leaderExpired := !now.Before(g[0].ExpiresAt)
		switch {
		case len(g) == tt.RoomSize || (len(g) >= 2 && leaderExpired):
			if err := s.match(ctx, tt, g); err != nil {
				log.Error().Err(err).Str("tableType", tt.ID).Msg("match group")
			}
		case len(g) == 1 && leaderExpired:
			s.timeOut(ctx, g[0])
		}
	}
	return nil
}

// groupWaiting splits an expiry-sorted pool into prospective tables. With IP
// restriction on, two entries sharing an origin IP never land in the same
// chunk (first-fit into the earliest chunk that can take the entry).
func groupWaiting(entries []state.WaitingUser, roomSize int, ipRestricted bool) [][]state.WaitingUser {
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].ExpiresAt.Equal(entries[j].ExpiresAt) {
			return entries[i].ExpiresAt.Before(entries[j].ExpiresAt)
		}
		return entries[i].UserID < entries[j].UserID
	})
	var groups [][]state.WaitingUser
next:
	for _, e := range entries {
		for i, g := range groups {
			if len(g) >= roomSize {
				continue
			}
			if ipRestricted && groupHasIP(g, e.IP) {
				continue
			}
			groups[i] = append(g, e)
			continue next
		}
		groups = append(groups, []state.WaitingUser{e})
	}
	return groups
}

func groupHasIP(g []state.WaitingUser, ip string) bool {
	if ip == "" {
		return false
	}
	for _, e := range g {
		if e.IP == ip {
			return true
		}
	}
	return false
}

// match promotes one chunk into a live table. Caller holds the type lock.
func (s *Service) match(ctx context.Context, tt TableType, g []state.WaitingUser) error {
	userIDs := make([]string, len(g))
	for i, e := range g {
		userIDs[i] = e.UserID
	}

	tbl, err := s.BuildTable(ctx, tt, userIDs, "", 0)
	if errors.Is(err, clients.ErrInsufficientFunds) {
		// a member spent their stake while waiting; the whole chunk is
		// bounced back to not-matched rather than guessing who
		for _, e := range g {
			s.timeOut(ctx, e)
		}
		return nil
	}
	if err != nil {
		return err
	}
	for _, e := range g {
		if err := s.states.RemoveWaiting(ctx, tt.ID, e.UserID); err != nil {
			log.Warn().Err(err).Str("user", e.UserID).Msg("remove matched waiting entry")
		}
	}
	ev := MatchedTablesEvent{
		TableTypeID: tt.ID,
		TableID:     tbl.Info.ID,
		UserIDs:     userIDs,
		JoinFee:     tt.JoinFee,
	}
	for _, uid := range userIDs {
		s.pub.Publish(ctx, uid, ev)
	}
	if err := s.armer.ArmReadyTimeout(ctx, tbl.Info.ID); err != nil {
		log.Warn().Err(err).Str("table", tbl.Info.ID).Msg("arm ready timeout")
	}
	return nil
}

// BuildTable is the single construction path for tables, shared with the
// tournament coordinator. It writes the permanent record, debits stakes for
// non-tournament tables, persists the table and points every player at it.
func (s *Service) BuildTable(ctx context.Context, tt TableType, userIDs []string,
	tournamentID string, roundNo int) (*game.Table, error) {
	id := store.NewTableID()
	rec := store.TableRecord{
		ID:           id,
		TableTypeID:  tt.ID,
		Variant:      string(tt.Variant),
		JoinFee:      tt.JoinFee,
		TournamentID: tournamentID,
		RoundNo:      roundNo,
		Players:      userIDs,
	}
	if err := s.recs.CreateTableRecord(ctx, rec); err != nil {
		return nil, err
	}
	// tournament stakes are collected at registration, not per sub-table
	if tournamentID == "" && tt.JoinFee > 0 {
		if err := s.wallet.DebitJoinFee(ctx, id, userIDs, tt.JoinFee); err != nil {
			if ferr := s.recs.FinishTableRecord(ctx, id, store.StatusDiscarded, nil, nil); ferr != nil {
				log.Error().Err(ferr).Str("table", id).Msg("discard stillborn record")
			}
			return nil, err
		}
	}

	tbl := game.NewTable(id, tt.ID, tt.Variant, tt.JoinFee, userIDs, s.cfg.DefaultLives)
	tbl.Info.TournamentID = tournamentID
	tbl.Info.RoundNo = roundNo
	if err := s.states.SaveTable(ctx, tbl); err != nil {
		return nil, err
	}
	for _, uid := range userIDs {
		if err := s.states.SetActiveTable(ctx, uid, id); err != nil {
			log.Warn().Err(err).Str("user", uid).Msg("set active table pointer")
		}
	}
	return tbl, nil
}

func (s *Service) timeOut(ctx context.Context, w state.WaitingUser) {
	if err := s.states.RemoveWaiting(ctx, w.TableTypeID, w.UserID); err != nil {
		log.Warn().Err(err).Str("user", w.UserID).Msg("remove expired waiting entry")
	}
	big := w.JoinFee > s.cfg.BigTableFee
	s.pub.Publish(ctx, w.UserID, WaitingTimedOutEvent{
		UserID:      w.UserID,
		TableTypeID: w.TableTypeID,
		BigTable:    big,
	})
	if big {
		if err := s.notify.BigTableAvailable(ctx, w.TableTypeID, w.JoinFee); err != nil {
			log.Warn().Err(err).Str("tableType", w.TableTypeID).Msg("big table fan-out")
		}
	}
}

// broadcastGroup tells every member of the joiner's prospective chunk who
// they are currently grouped with and when the group will be forced.
func (s *Service) broadcastGroup(ctx context.Context, tt TableType, userID string) {
	entries, err := s.states.Waiting(ctx, tt.ID)
	if err != nil {
		log.Warn().Err(err).Str("tableType", tt.ID).Msg("load pool for group broadcast")
		return
	}
	for _, g := range groupWaiting(entries, tt.RoomSize, s.cfg.IPRestriction) {
		if !groupHasUser(g, userID) {
			continue
		}
		ev := MatchedTablesEvent{
			TableTypeID: tt.ID,
			UserIDs:     userIDsOf(g),
			JoinFee:     tt.JoinFee,
			Deadline:    g[0].ExpiresAt,
		}
		for _, e := range g {
			s.pub.Publish(ctx, e.UserID, ev)
		}
		return
	}
}

func groupHasUser(g []state.WaitingUser, userID string) bool {
	for _, e := range g {
		if e.UserID == userID {
			return true
		}
	}
	return false
}

func userIDsOf(g []state.WaitingUser) []string {
	out := make([]string, len(g))
	for i, e := range g {
		out[i] = e.UserID
	}
	return out
}
