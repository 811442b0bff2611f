package game

import (
	"testing"

	"ludo-server/internal/board"
)

func TestScoresClassicUsePathProgress(t *testing.T) {
	tbl := newStartedTable(t, 2, board.VariantClassic)
	place(tbl, "1-1", "C3") // seat 1 progress 3
	place(tbl, "2-1", board.CellHome)

	scores := tbl.Scores()
	if scores["u1"] != 3 {
		t.Fatalf("u1 score = %d, want 3", scores["u1"])
	}
	if scores["u2"] != board.PathLen {
		t.Fatalf("u2 score = %d, want %d", scores["u2"], board.PathLen)
	}
}

func TestScoresQuickCountHomePawns(t *testing.T) {
	tbl := newStartedTable(t, 2, board.VariantQuick)
	place(tbl, "1-1", board.CellHome)
	place(tbl, "1-2", "C40")

	scores := tbl.Scores()
	if scores["u1"] != 1 {
		t.Fatalf("u1 score = %d, want 1", scores["u1"])
	}
}

func TestLeaverScoresZeroAndNeverWins(t *testing.T) {
	tbl := newStartedTable(t, 2, board.VariantClassic)
	// u1 is far ahead but leaves; a tie on raw progress must still not
	// name the leaver a winner.
	place(tbl, "1-1", "H1-5")
	tbl.Player("u1").DidLeave = true

	scores := tbl.Scores()
	if scores["u1"] != 0 {
		t.Fatalf("leaver score = %d, want 0", scores["u1"])
	}
	winners := tbl.Winners()
	if len(winners) != 1 || winners[0] != "u2" {
		t.Fatalf("winners = %v, want [u2]", winners)
	}
}

func TestWinnersAllowTies(t *testing.T) {
	tbl := newStartedTable(t, 2, board.VariantClassic)
	place(tbl, "1-1", "C3")
	place(tbl, "2-1", "C16") // seat 2 progress 3 as well

	winners := tbl.Winners()
	if len(winners) != 2 {
		t.Fatalf("winners = %v, want both on a tie", winners)
	}
}

func TestEndGameEmitsFinishedOnce(t *testing.T) {
	tbl := newStartedTable(t, 2, board.VariantClassic)
	evs, err := tbl.EndGame()
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if _, ok := evs[0].(GameFinishedEvent); !ok {
		t.Fatalf("event = %#v, want GameFinishedEvent", evs[0])
	}
	if _, err := tbl.EndGame(); err != ErrGameOver {
		t.Fatalf("second end err = %v, want ErrGameOver", err)
	}
}

func TestTournamentTableEmitsRoundFinished(t *testing.T) {
	tbl := newStartedTable(t, 2, board.VariantClassic)
	tbl.Info.TournamentID = "tour1"
	tbl.Info.RoundNo = 2

	evs, err := tbl.EndGame()
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	rf, ok := evs[0].(RoundFinishedEvent)
	if !ok {
		t.Fatalf("event = %#v, want RoundFinishedEvent", evs[0])
	}
	if rf.TournamentID != "tour1" || rf.RoundNo != 2 {
		t.Fatalf("round event = %+v", rf)
	}
}

func TestDiscard(t *testing.T) {
	tbl := NewTable("t1", "tt1", board.VariantQuick, 0, []string{"u1", "u2"}, 2)
	evs, err := tbl.Discard("nobody_readied")
	if err != nil {
		t.Fatalf("discard: %v", err)
	}
	d := evs[0].(TableDiscardedEvent)
	if d.Reason != "nobody_readied" {
		t.Fatalf("reason = %q", d.Reason)
	}
	if !tbl.Finished() {
		t.Fatal("discarded table not terminal")
	}
}
