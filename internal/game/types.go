package game

import (
	"time"

	"ludo-server/internal/board"
)

// Action is the next move a table expects.
type Action string

const (
	ActionRollDice Action = "rollDice"
	ActionMovePawn Action = "movePawn"
	ActionSkipTurn Action = "skipTurn"
	ActionEndGame  Action = "endGame"
	ActionDiscard  Action = "discardGame"
)

// PlayerInfo is a seat at the table. Seat numbers are stable for the life of
// the table and independent of the user occupying them.
type PlayerInfo struct {
	Seat     int    `json:"seat"`
	UserID   string `json:"userId"`
	Lives    int    `json:"lives"`
	DidLeave bool   `json:"didLeave"`
	CanGet6  bool   `json:"canGet6"`
	Got6     bool   `json:"got6"`
}

// TableInfo is fixed at construction time.
type TableInfo struct {
	ID           string        `json:"id"`
	Variant      board.Variant `json:"variant"`
	JoinFee      int64         `json:"joinFee"`
	TableTypeID  string        `json:"tableTypeId"`
	TournamentID string        `json:"tournamentId,omitempty"`
	RoundNo      int           `json:"roundNo,omitempty"`
	Players      []PlayerInfo  `json:"players"`
}

// TableState is everything that changes while the game runs.
type TableState struct {
	Positions    map[string]string `json:"positions"` // pawn id -> cell
	CurrentTurn  int               `json:"currentTurn"`
	TurnNo       int               `json:"turnNo"`
	Action       Action            `json:"action"`
	Dice         []int             `json:"dice,omitempty"`
	Ready        []string          `json:"ready,omitempty"`
	ExtraChances int               `json:"extraChances"`
	Deadline     time.Time         `json:"deadline"`
}

// Table is one waiting or in-progress game. Engine transitions mutate the
// table they are handed and return the outbound events; persistence and lock
// discipline belong to the caller.
type Table struct {
	Info  TableInfo  `json:"info"`
	State TableState `json:"state"`
}

// NewTable seats users in order and puts every pawn in its base. The table
// stays in the ready handshake (TurnNo 0) until all players have readied.
func NewTable(id, tableTypeID string, variant board.Variant, joinFee int64, userIDs []string, lives int) *Table {
	t := &Table{
		Info: TableInfo{
			ID:          id,
			Variant:     variant,
			JoinFee:     joinFee,
			TableTypeID: tableTypeID,
		},
		State: TableState{
			Positions:   make(map[string]string, len(userIDs)*board.PawnsPerSeat),
			CurrentTurn: 1,
			Action:      ActionRollDice,
		},
	}
	for i, uid := range userIDs {
		seat := i + 1
		t.Info.Players = append(t.Info.Players, PlayerInfo{
			Seat:    seat,
			UserID:  uid,
			Lives:   lives,
			CanGet6: true,
		})
		for n := 1; n <= board.PawnsPerSeat; n++ {
			pawn := board.PawnID(seat, n)
			t.State.Positions[pawn] = board.BaseCell(pawn)
		}
	}
	return t
}

// Player returns the seated player for a user id, nil when not seated.
func (t *Table) Player(userID string) *PlayerInfo {
	for i := range t.Info.Players {
		if t.Info.Players[i].UserID == userID {
			return &t.Info.Players[i]
		}
	}
	return nil
}

// PlayerBySeat returns the player at a seat, nil when the seat is empty.
func (t *Table) PlayerBySeat(seat int) *PlayerInfo {
	for i := range t.Info.Players {
		if t.Info.Players[i].Seat == seat {
			return &t.Info.Players[i]
		}
	}
	return nil
}

// Current returns the player holding the turn.
func (t *Table) Current() *PlayerInfo {
	return t.PlayerBySeat(t.State.CurrentTurn)
}

// ActivePlayers is the list of players who have not left.
func (t *Table) ActivePlayers() []PlayerInfo {
	out := make([]PlayerInfo, 0, len(t.Info.Players))
	for _, p := range t.Info.Players {
		if !p.DidLeave {
			out = append(out, p)
		}
	}
	return out
}

// Started reports whether the ready handshake has completed.
func (t *Table) Started() bool {
	return t.State.TurnNo > 0
}

// HomeCount is the number of a seat's pawns that reached HOME.
func (t *Table) HomeCount(seat int) int {
	n := 0
	for n2 := 1; n2 <= board.PawnsPerSeat; n2++ {
		if t.State.Positions[board.PawnID(seat, n2)] == board.CellHome {
			n++
		}
	}
	return n
}

// PawnsAt lists the pawns occupying a cell. HOME and base cells are never
// contested, so callers only ask about ring and home-path cells.
func (t *Table) PawnsAt(cell string) []string {
	var out []string
	for pawn, at := range t.State.Positions {
		if at == cell {
			out = append(out, pawn)
		}
	}
	return out
}
