package reconnect

import (
	"context"
	"errors"
	"time"

	"ludo-server/internal/board"
	"ludo-server/internal/game"
	"ludo-server/internal/state"
	"ludo-server/internal/store"
)

// The resolver reconstructs a client view after a dropped connection. It is
// strictly read-only: no locks, no turn advancement. A stale snapshot is
// acceptable and self-corrects on the next query.

// ErrRoundNotReady means the tournament round's tables never materialized
// within the polling budget.
var ErrRoundNotReady = errors.New("round_not_ready")

const (
	pollAttempts = 10
	pollInterval = 200 * time.Millisecond
)

type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusTable     Status = "table"
	StatusCompleted Status = "completed"
	StatusNone      Status = "none"
)

// WaitingView is the matchmaking side of a reconnect: the pool the user sits
// in and their personal deadline.
type WaitingView struct {
	TableTypeID string    `json:"tableTypeId"`
	JoinFee     int64     `json:"joinFee"`
	Deadline    time.Time `json:"deadline"`
}

// TableView is an in-progress game filtered to what the client may see:
// non-left players, current turn, outstanding dice and the movable pawns if
// the requester holds the turn.
type TableView struct {
	TableID      string            `json:"tableId"`
	Variant      board.Variant     `json:"variant"`
	JoinFee      int64             `json:"joinFee"`
	TournamentID string            `json:"tournamentId,omitempty"`
	RoundNo      int               `json:"roundNo,omitempty"`
	Players      []game.PlayerInfo `json:"players"`
	Positions    map[string]string `json:"positions"`
	CurrentTurn  int               `json:"currentTurn"`
	TurnNo       int               `json:"turnNo"`
	Action       game.Action       `json:"action"`
	Dice         []int             `json:"dice,omitempty"`
	Movable      []string          `json:"movable,omitempty"`
	Deadline     time.Time         `json:"deadline"`
}

type View struct {
	Status  Status       `json:"status"`
	Waiting *WaitingView `json:"waiting,omitempty"`
	Table   *TableView   `json:"table,omitempty"`
	Winners []string     `json:"winners,omitempty"`
}

// Records is the permanent-store fallback for tables already removed from
// the ephemeral store.
type Records interface {
	TableRecord(ctx context.Context, tableID string) (store.TableRecord, error)
}

type Resolver struct {
	states   state.Store
	recs     Records
	attempts int
	interval time.Duration
}

func New(states state.Store, recs Records) *Resolver {
	return &Resolver{
		states:   states,
		recs:     recs,
		attempts: pollAttempts,
		interval: pollInterval,
	}
}

// Resolve walks the priority chain: waiting entry, then active table, then
// nothing. Tournament reconnects go through ResolveTournament instead.
func (r *Resolver) Resolve(ctx context.Context, userID string) (View, error) {
	if w, err := r.states.WaitingEntry(ctx, userID); err == nil {
		return View{Status: StatusWaiting, Waiting: &WaitingView{
			TableTypeID: w.TableTypeID,
			JoinFee:     w.JoinFee,
			Deadline:    w.ExpiresAt,
		}}, nil
	} else if !errors.Is(err, state.ErrNotFound) {
		return View{}, err
	}

	tableID, err := r.states.ActiveTable(ctx, userID)
	if errors.Is(err, state.ErrNotFound) {
		return View{Status: StatusNone}, nil
	}
	if err != nil {
		return View{}, err
	}
	return r.tableView(ctx, userID, tableID)
}

// ResolveTournament re-polls until the round's tables are materialized, then
// resolves the requester's sub-table. Bounded: after the polling budget it
// fails with ErrRoundNotReady instead of retrying forever.
func (r *Resolver) ResolveTournament(ctx context.Context, userID, tournamentID string, roundNo int) (View, error) {
	var tableIDs []string
	for attempt := 0; attempt < r.attempts; attempt++ {
		ids, err := r.states.RoundTables(ctx, tournamentID, roundNo)
		if err != nil && !errors.Is(err, state.ErrNotFound) {
			return View{}, err
		}
		if len(ids) > 0 {
			tableIDs = ids
			break
		}
		select {
		case <-ctx.Done():
			return View{}, ctx.Err()
		case <-time.After(r.interval):
		}
	}
	if len(tableIDs) == 0 {
		return View{}, ErrRoundNotReady
	}
	for _, id := range tableIDs {
		t, err := r.states.LoadTable(ctx, id)
		if errors.Is(err, state.ErrNotFound) {
			continue
		}
		if err != nil {
			return View{}, err
		}
		if t.Player(userID) != nil {
			return r.tableView(ctx, userID, id)
		}
	}
	// not seated in any live sub-table: either promoted or already out
	return View{Status: StatusNone}, nil
}

func (r *Resolver) tableView(ctx context.Context, userID, tableID string) (View, error) {
	t, err := r.states.LoadTable(ctx, tableID)
	if errors.Is(err, state.ErrNotFound) {
		return r.recordView(ctx, tableID)
	}
	if err != nil {
		return View{}, err
	}

	if p := t.Player(userID); p != nil && p.DidLeave {
		// the requester already left; the game goes on without them
		var others []string
		for _, a := range t.ActivePlayers() {
			others = append(others, a.UserID)
		}
		return View{Status: StatusCompleted, Winners: others}, nil
	}

	view := &TableView{
		TableID:      t.Info.ID,
		Variant:      t.Info.Variant,
		JoinFee:      t.Info.JoinFee,
		TournamentID: t.Info.TournamentID,
		RoundNo:      t.Info.RoundNo,
		Players:      t.ActivePlayers(),
		Positions:    t.State.Positions,
		CurrentTurn:  t.State.CurrentTurn,
		TurnNo:       t.State.TurnNo,
		Action:       t.State.Action,
		Dice:         t.State.Dice,
		Deadline:     t.State.Deadline,
	}
	if cur := t.Current(); cur != nil && cur.UserID == userID && t.State.Action == game.ActionMovePawn {
		view.Movable = t.MovablePawns(t.State.Dice)
	}
	return View{Status: StatusTable, Table: view}, nil
}

// recordView handles a dangling active-table pointer: the ephemeral table is
// gone, so the permanent record decides between "completed" and nothing.
func (r *Resolver) recordView(ctx context.Context, tableID string) (View, error) {
	rec, err := r.recs.TableRecord(ctx, tableID)
	if errors.Is(err, store.ErrNotFound) {
		return View{Status: StatusNone}, nil
	}
	if err != nil {
		return View{}, err
	}
	if rec.Status == store.StatusFinished {
		return View{Status: StatusCompleted, Winners: rec.Winners}, nil
	}
	return View{Status: StatusNone}, nil
}
