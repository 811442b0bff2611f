package game

import "ludo-server/internal/board"

// SkipTurn is the timeout fallback, also reachable as a voluntary client
// action. It costs a life; a player dropping below zero lives is removed
// from the table entirely.
func (t *Table) SkipTurn() ([]Event, error) {
	if t.State.Action != ActionRollDice && t.State.Action != ActionMovePawn {
		return nil, ErrWrongAction
	}
	if !t.Started() {
		return nil, ErrNotStarted
	}
	p := t.Current()
	if p == nil {
		return nil, ErrNotSeated
	}
	p.Lives--
	events := []Event{SkippedTurnEvent{
		TableID:   t.Info.ID,
		Seat:      p.Seat,
		LivesLeft: p.Lives,
	}}
	if p.Lives < 0 {
		more, err := t.Leave(p.UserID)
		if err != nil {
			return events, err
		}
		return append(events, more...), nil
	}
	t.advanceTurn()
	return append(events, t.nextEvent()), nil
}

// Leave marks a player gone and evacuates their pawns. The last player
// standing wins immediately; otherwise a leaver holding the turn passes it
// on without a lives penalty.
func (t *Table) Leave(userID string) ([]Event, error) {
	p := t.Player(userID)
	if p == nil {
		return nil, ErrNotSeated
	}
	if p.DidLeave {
		return nil, ErrAlreadyLeft
	}
	p.DidLeave = true
	p.Got6 = false
	for n := 1; n <= board.PawnsPerSeat; n++ {
		pawn := board.PawnID(p.Seat, n)
		if _, ok := t.State.Positions[pawn]; ok {
			t.State.Positions[pawn] = board.BaseCell(pawn)
		}
	}
	events := []Event{LeftTableEvent{
		TableID: t.Info.ID,
		Seat:    p.Seat,
		UserID:  userID,
	}}

	active := t.ActivePlayers()
	if len(active) == 1 {
		return append(events, t.finish([]string{active[0].UserID})...), nil
	}
	if len(active) == 0 {
		t.State.Action = ActionDiscard
		return append(events, TableDiscardedEvent{TableID: t.Info.ID, Reason: "all_players_left"}), nil
	}
	if t.Started() && p.Seat == t.State.CurrentTurn {
		t.advanceTurn()
		events = append(events, t.nextEvent())
	}
	return events, nil
}
