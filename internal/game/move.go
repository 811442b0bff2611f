package game

import (
	"slices"

	"ludo-server/internal/board"
)

// MovePawn consumes one outstanding die to walk a pawn of the current player.
//
// Landing exactly on HOME banks an extra chance and can end the game on the
// spot when the variant's target is reached. Landing on a lone opposing pawn
// outside a protected cell captures it back to its base and banks an extra
// chance. With dice still outstanding the player keeps moving; with a banked
// extra chance they roll again; otherwise the turn advances.
func (t *Table) MovePawn(userID, pawnID string, dice int) ([]Event, error) {
	if t.State.Action != ActionMovePawn {
		return nil, ErrWrongAction
	}
	p := t.Current()
	if p == nil || p.UserID != userID {
		return nil, ErrOutOfTurn
	}
	if !slices.Contains(t.State.Dice, dice) {
		return nil, ErrInvalidDice
	}
	if board.PawnSeat(pawnID) != p.Seat {
		return nil, ErrInvalidPawn
	}
	from, seated := t.State.Positions[pawnID]
	if !seated || from == board.CellHome {
		return nil, ErrInvalidPawn
	}
	dest, legal := board.NextCell(p.Seat, from, dice)
	if !legal {
		return nil, ErrIllegalMove
	}

	occupants := t.PawnsAt(dest)
	t.State.Positions[pawnID] = dest
	t.State.Dice = removeDie(t.State.Dice, dice)

	events := []Event{MovedPawnEvent{
		TableID: t.Info.ID,
		Seat:    p.Seat,
		PawnID:  pawnID,
		Dice:    dice,
		From:    from,
		To:      dest,
	}}

	if dest == board.CellHome {
		t.State.ExtraChances++
		if t.HomeCount(p.Seat) >= board.TargetHomePawns(t.Info.Variant) {
			return append(events, t.finish([]string{p.UserID})...), nil
		}
	} else if len(occupants) == 1 && !board.IsProtected(dest) {
		victim := occupants[0]
		if board.PawnSeat(victim) != p.Seat {
			t.State.Positions[victim] = board.BaseCell(victim)
			t.State.ExtraChances++
			events = append(events, CapturedPawnEvent{
				TableID: t.Info.ID,
				BySeat:  p.Seat,
				PawnID:  victim,
				Cell:    dest,
			})
		}
	}

	if len(t.MovablePawns(t.State.Dice)) > 0 {
		t.continueTurn(ActionMovePawn)
	} else {
		t.State.Dice = nil
		if t.State.ExtraChances > 0 {
			t.State.ExtraChances--
			t.continueTurn(ActionRollDice)
		} else {
			t.advanceTurn()
		}
	}
	return append(events, t.nextEvent()), nil
}
