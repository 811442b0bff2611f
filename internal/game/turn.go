package game

import "ludo-server/internal/board"

// seatOrder is the fixed round-robin permutation over seats. Opposite seats
// alternate (1 faces 3, 2 faces 4) so a four-player game never gives two
// adjacent seats consecutive turns.
var seatOrder = []int{1, 3, 2, 4}

// NextSeat returns the seat that plays after `from`, skipping empty seats and
// players who left. Returns 0 when no other active seat exists.
func (t *Table) NextSeat(from int) int {
	start := 0
	for i, s := range seatOrder {
		if s == from {
			start = i
			break
		}
	}
	for step := 1; step <= len(seatOrder); step++ {
		seat := seatOrder[(start+step)%len(seatOrder)]
		p := t.PlayerBySeat(seat)
		if p != nil && !p.DidLeave {
			return seat
		}
	}
	return 0
}

// MovablePawns lists the current player's pawns that can consume at least one
// of the outstanding dice.
func (t *Table) MovablePawns(dice []int) []string {
	seat := t.State.CurrentTurn
	var out []string
	for n := 1; n <= board.PawnsPerSeat; n++ {
		pawn := board.PawnID(seat, n)
		cell, ok := t.State.Positions[pawn]
		if !ok || cell == board.CellHome {
			continue
		}
		for _, d := range dice {
			if _, legal := board.NextCell(seat, cell, d); legal {
				out = append(out, pawn)
				break
			}
		}
	}
	return out
}

// advanceTurn hands the turn to the next active seat and performs the
// six-privilege bookkeeping: a player who advances with got6 set forfeits
// canGet6, and once no non-left player holds canGet6 the privilege is
// restored to everyone still seated. The predicate is checked on every
// advance path (roll, move, skip, leave) so the reset cannot be missed.
func (t *Table) advanceTurn() {
	if p := t.Current(); p != nil {
		if p.Got6 {
			p.CanGet6 = false
		}
		p.Got6 = false
	}
	if t.noneCanGet6() {
		for i := range t.Info.Players {
			if !t.Info.Players[i].DidLeave {
				t.Info.Players[i].CanGet6 = true
			}
		}
	}
	t.State.Dice = nil
	t.State.ExtraChances = 0
	if next := t.NextSeat(t.State.CurrentTurn); next != 0 {
		t.State.CurrentTurn = next
	}
	t.State.TurnNo++
	t.State.Action = ActionRollDice
}

func (t *Table) noneCanGet6() bool {
	for _, p := range t.Info.Players {
		if !p.DidLeave && p.CanGet6 {
			return false
		}
	}
	return true
}

// continueTurn keeps the turn with the current player under a new expected
// action. The counter still advances so stale timers die.
func (t *Table) continueTurn(action Action) {
	t.State.TurnNo++
	t.State.Action = action
}

func (t *Table) nextEvent() NextEvent {
	cur := t.Current()
	ev := NextEvent{
		TableID:  t.Info.ID,
		Seat:     t.State.CurrentTurn,
		Action:   t.State.Action,
		TurnNo:   t.State.TurnNo,
		Deadline: t.State.Deadline,
	}
	if cur != nil {
		ev.UserID = cur.UserID
	}
	return ev
}

func countSixes(dice []int) int {
	n := 0
	for _, d := range dice {
		if d == 6 {
			n++
		}
	}
	return n
}

func removeDie(dice []int, value int) []int {
	for i, d := range dice {
		if d == value {
			return append(dice[:i:i], dice[i+1:]...)
		}
	}
	return dice
}
