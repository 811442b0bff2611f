package game

import "ludo-server/internal/board"

// Scores computes the per-user score. Classic games score board position
// (sum of each pawn's path progress); quick games only count pawns home.
// A player who left always scores zero, before winner selection.
func (t *Table) Scores() map[string]int {
	out := make(map[string]int, len(t.Info.Players))
	for _, p := range t.Info.Players {
		if p.DidLeave {
			out[p.UserID] = 0
			continue
		}
		if t.Info.Variant == board.VariantQuick {
			out[p.UserID] = t.HomeCount(p.Seat)
			continue
		}
		score := 0
		for n := 1; n <= board.PawnsPerSeat; n++ {
			score += board.Progress(p.Seat, t.State.Positions[board.PawnID(p.Seat, n)])
		}
		out[p.UserID] = score
	}
	return out
}

// Winners returns every non-left player holding the maximum score. Ties are
// allowed; leavers are never winners even on a score tie.
func (t *Table) Winners() []string {
	scores := t.Scores()
	best := -1
	for _, p := range t.Info.Players {
		if !p.DidLeave && scores[p.UserID] > best {
			best = scores[p.UserID]
		}
	}
	var out []string
	for _, p := range t.Info.Players {
		if !p.DidLeave && scores[p.UserID] == best {
			out = append(out, p.UserID)
		}
	}
	return out
}

// EndGame force-finishes the table (round deadline, attrition, admin stop).
// Winners are the current max-score holders.
func (t *Table) EndGame() ([]Event, error) {
	if t.State.Action == ActionEndGame || t.State.Action == ActionDiscard {
		return nil, ErrGameOver
	}
	return t.finish(t.Winners()), nil
}

// Discard abandons the table without naming winners (e.g. nobody readied).
func (t *Table) Discard(reason string) ([]Event, error) {
	if t.State.Action == ActionEndGame || t.State.Action == ActionDiscard {
		return nil, ErrGameOver
	}
	t.State.TurnNo++
	t.State.Action = ActionDiscard
	return []Event{TableDiscardedEvent{TableID: t.Info.ID, Reason: reason}}, nil
}

// Finished reports whether the table reached a terminal action.
func (t *Table) Finished() bool {
	return t.State.Action == ActionEndGame || t.State.Action == ActionDiscard
}

func (t *Table) finish(winners []string) []Event {
	t.State.TurnNo++
	t.State.Action = ActionEndGame
	t.State.Dice = nil
	scores := t.Scores()
	if t.Info.TournamentID != "" {
		return []Event{RoundFinishedEvent{
			TableID:      t.Info.ID,
			TournamentID: t.Info.TournamentID,
			RoundNo:      t.Info.RoundNo,
			Winners:      winners,
			Scores:       scores,
		}}
	}
	return []Event{GameFinishedEvent{
		TableID: t.Info.ID,
		Winners: winners,
		Scores:  scores,
	}}
}
