package game

// ReadyUp records the pre-start handshake for one player. When the last
// seated player readies, the game begins.
func (t *Table) ReadyUp(userID string) ([]Event, error) {
	if t.Started() {
		return nil, ErrWrongAction
	}
	if t.Player(userID) == nil {
		return nil, ErrNotSeated
	}
	for _, uid := range t.State.Ready {
		if uid == userID {
			return nil, nil
		}
	}
	t.State.Ready = append(t.State.Ready, userID)
	if len(t.State.Ready) < len(t.Info.Players) {
		return nil, nil
	}
	return t.Begin(), nil
}

// Begin starts play: first seat's turn, dice expected. Tournament sub-tables
// call this directly after the post-match waiting window instead of running
// the ready handshake.
func (t *Table) Begin() []Event {
	t.State.TurnNo = 1
	t.State.CurrentTurn = seatOrder[0]
	if p := t.Current(); p == nil || p.DidLeave {
		t.State.CurrentTurn = t.NextSeat(seatOrder[0])
	}
	t.State.Action = ActionRollDice
	return []Event{t.nextEvent()}
}
