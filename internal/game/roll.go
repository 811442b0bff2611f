package game

// RollFunc draws a die value in [1, sides]. Injected so tests are
// deterministic and the service owns the randomness source.
type RollFunc func(sides int) int

// RollDice draws for the current player and appends to the outstanding dice.
//
// With the six rule on, a player in the penalty box (canGet6=false) draws
// from a five-sided die. A 6 grants another roll; the third consecutive 6 in
// one turn forfeits the privilege and the turn. When nothing is movable for
// the outstanding dice the turn advances immediately.
func (t *Table) RollDice(userID string, roll RollFunc, sixRule bool) ([]Event, error) {
	if t.State.Action != ActionRollDice {
		return nil, ErrWrongAction
	}
	if !t.Started() {
		if t.Info.TournamentID == "" {
			return nil, ErrNotStarted
		}
		t.Begin()
	}
	p := t.Current()
	if p == nil || p.UserID != userID {
		return nil, ErrOutOfTurn
	}

	sides := 6
	if sixRule && !p.CanGet6 {
		sides = 5
	}
	value := roll(sides)
	if value < 1 || value > sides {
		return nil, ErrInvalidDice
	}
	t.State.Dice = append(t.State.Dice, value)

	events := []Event{RolledDiceEvent{
		TableID: t.Info.ID,
		Seat:    p.Seat,
		Value:   value,
		Dice:    append([]int(nil), t.State.Dice...),
	}}

	if sixRule && value == 6 {
		p.Got6 = true
		if countSixes(t.State.Dice) >= 3 {
			t.advanceTurn()
			return append(events, t.nextEvent()), nil
		}
		// another roll before moving
		t.continueTurn(ActionRollDice)
		return append(events, t.nextEvent()), nil
	}

	if len(t.MovablePawns(t.State.Dice)) == 0 {
		t.advanceTurn()
		return append(events, t.nextEvent()), nil
	}
	t.continueTurn(ActionMovePawn)
	return append(events, t.nextEvent()), nil
}
