package game

import "time"

// Event is the closed set of outbound gameplay events. The transport layer
// delivers them fire-and-forget; the engine only produces them.
type Event interface {
	Kind() string
}

// NextEvent announces whose turn it is and what action is expected.
type NextEvent struct {
	TableID  string    `json:"tableId"`
	Seat     int       `json:"seat"`
	UserID   string    `json:"userId"`
	Action   Action    `json:"action"`
	TurnNo   int       `json:"turnNo"`
	Deadline time.Time `json:"deadline,omitempty"`
}

func (NextEvent) Kind() string { return "next" }

type RolledDiceEvent struct {
	TableID string `json:"tableId"`
	Seat    int    `json:"seat"`
	Value   int    `json:"value"`
	Dice    []int  `json:"dice"`
}

func (RolledDiceEvent) Kind() string { return "rolledDice" }

type MovedPawnEvent struct {
	TableID string `json:"tableId"`
	Seat    int    `json:"seat"`
	PawnID  string `json:"pawnId"`
	Dice    int    `json:"dice"`
	From    string `json:"from"`
	To      string `json:"to"`
}

func (MovedPawnEvent) Kind() string { return "movedPawn" }

type CapturedPawnEvent struct {
	TableID string `json:"tableId"`
	BySeat  int    `json:"bySeat"`
	PawnID  string `json:"pawnId"`
	Cell    string `json:"cell"`
}

func (CapturedPawnEvent) Kind() string { return "capturedPawn" }

type SkippedTurnEvent struct {
	TableID   string `json:"tableId"`
	Seat      int    `json:"seat"`
	LivesLeft int    `json:"livesLeft"`
}

func (SkippedTurnEvent) Kind() string { return "skippedTurn" }

type LeftTableEvent struct {
	TableID string `json:"tableId"`
	Seat    int    `json:"seat"`
	UserID  string `json:"userId"`
}

func (LeftTableEvent) Kind() string { return "leftTable" }

type GameFinishedEvent struct {
	TableID string         `json:"tableId"`
	Winners []string       `json:"winners"`
	Scores  map[string]int `json:"scores"`
}

func (GameFinishedEvent) Kind() string { return "gameFinished" }

// RoundFinishedEvent replaces GameFinishedEvent for tournament sub-tables;
// the round coordinator aggregates them before anything reaches clients.
type RoundFinishedEvent struct {
	TableID      string         `json:"tableId"`
	TournamentID string         `json:"tournamentId"`
	RoundNo      int            `json:"roundNo"`
	Winners      []string       `json:"winners"`
	Scores       map[string]int `json:"scores"`
}

func (RoundFinishedEvent) Kind() string { return "roundFinished" }

type TableDiscardedEvent struct {
	TableID string `json:"tableId"`
	Reason  string `json:"reason"`
}

func (TableDiscardedEvent) Kind() string { return "tableDiscarded" }
