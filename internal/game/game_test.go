package game

import (
	"testing"

	"ludo-server/internal/board"
)

func fixedRoll(v int) RollFunc {
	return func(sides int) int {
		if v > sides {
			return sides
		}
		return v
	}
}

func newStartedTable(t *testing.T, players int, variant board.Variant) *Table {
	t.Helper()
	users := []string{"u1", "u2", "u3", "u4"}[:players]
	tbl := NewTable("t1", "tt1", variant, 0, users, 2)
	for _, u := range users {
		if _, err := tbl.ReadyUp(u); err != nil {
			t.Fatalf("ready %s: %v", u, err)
		}
	}
	if !tbl.Started() {
		t.Fatal("table did not start after full handshake")
	}
	return tbl
}

func TestReadyHandshakeStartsGame(t *testing.T) {
	tbl := NewTable("t1", "tt1", board.VariantQuick, 0, []string{"u1", "u2"}, 2)

	evs, err := tbl.ReadyUp("u1")
	if err != nil || len(evs) != 0 {
		t.Fatalf("first ready: evs=%v err=%v", evs, err)
	}
	if tbl.Started() {
		t.Fatal("started before all players ready")
	}
	evs, err = tbl.ReadyUp("u2")
	if err != nil {
		t.Fatalf("second ready: %v", err)
	}
	if tbl.State.TurnNo != 1 || tbl.State.CurrentTurn != 1 || tbl.State.Action != ActionRollDice {
		t.Fatalf("post-start state = %+v", tbl.State)
	}
	next, ok := evs[0].(NextEvent)
	if !ok || next.Seat != 1 || next.Action != ActionRollDice {
		t.Fatalf("expected next event for seat 1 rollDice, got %#v", evs[0])
	}
}

func TestReadyRejectsStranger(t *testing.T) {
	tbl := NewTable("t1", "tt1", board.VariantQuick, 0, []string{"u1", "u2"}, 2)
	if _, err := tbl.ReadyUp("intruder"); err != ErrNotSeated {
		t.Fatalf("err = %v, want ErrNotSeated", err)
	}
	if len(tbl.State.Ready) != 0 {
		t.Fatal("ready list mutated by rejected handshake")
	}
}

func TestReadyListNeverExceedsPlayers(t *testing.T) {
	tbl := NewTable("t1", "tt1", board.VariantQuick, 0, []string{"u1", "u2"}, 2)
	for i := 0; i < 3; i++ {
		tbl.ReadyUp("u1")
	}
	if len(tbl.State.Ready) != 1 {
		t.Fatalf("ready list = %v, want single entry", tbl.State.Ready)
	}
}

func TestRollRequiresHandshakeOutsideTournament(t *testing.T) {
	tbl := NewTable("t1", "tt1", board.VariantQuick, 0, []string{"u1", "u2"}, 2)
	if _, err := tbl.RollDice("u1", fixedRoll(3), true); err != ErrNotStarted {
		t.Fatalf("err = %v, want ErrNotStarted", err)
	}
}

func TestRollNoMovablePawnAdvancesTurn(t *testing.T) {
	tbl := newStartedTable(t, 2, board.VariantQuick)

	// everything in base, 5 cannot exit
	evs, err := tbl.RollDice("u1", fixedRoll(5), true)
	if err != nil {
		t.Fatalf("roll: %v", err)
	}
	if tbl.State.CurrentTurn != 2 || tbl.State.Action != ActionRollDice {
		t.Fatalf("turn did not advance: %+v", tbl.State)
	}
	if tbl.State.TurnNo != 2 {
		t.Fatalf("turnNo = %d, want 2", tbl.State.TurnNo)
	}
	last := evs[len(evs)-1].(NextEvent)
	if last.Seat != 2 {
		t.Fatalf("next seat = %d, want 2", last.Seat)
	}
}

func TestRollOutOfTurnRejected(t *testing.T) {
	tbl := newStartedTable(t, 2, board.VariantQuick)
	before := tbl.State
	if _, err := tbl.RollDice("u2", fixedRoll(3), true); err != ErrOutOfTurn {
		t.Fatalf("err = %v, want ErrOutOfTurn", err)
	}
	if tbl.State.TurnNo != before.TurnNo || len(tbl.State.Dice) != 0 {
		t.Fatal("rejected roll mutated state")
	}
}

func TestRollSixGrantsAnotherRoll(t *testing.T) {
	tbl := newStartedTable(t, 2, board.VariantQuick)

	if _, err := tbl.RollDice("u1", fixedRoll(6), true); err != nil {
		t.Fatalf("roll: %v", err)
	}
	if tbl.State.CurrentTurn != 1 || tbl.State.Action != ActionRollDice {
		t.Fatalf("expected same player to roll again, got %+v", tbl.State)
	}
	if !tbl.Current().Got6 {
		t.Fatal("got6 not set after rolling a six")
	}

	if _, err := tbl.RollDice("u1", fixedRoll(3), true); err != nil {
		t.Fatalf("second roll: %v", err)
	}
	if tbl.State.Action != ActionMovePawn {
		t.Fatalf("action = %s, want movePawn", tbl.State.Action)
	}
	if len(tbl.State.Dice) != 2 || tbl.State.Dice[0] != 6 || tbl.State.Dice[1] != 3 {
		t.Fatalf("dice = %v, want [6 3]", tbl.State.Dice)
	}
}

func TestThreeConsecutiveSixesForfeitTurnAndPrivilege(t *testing.T) {
	tbl := newStartedTable(t, 2, board.VariantQuick)

	for i := 0; i < 3; i++ {
		if _, err := tbl.RollDice("u1", fixedRoll(6), true); err != nil {
			t.Fatalf("roll %d: %v", i+1, err)
		}
	}
	if tbl.State.CurrentTurn != 2 {
		t.Fatalf("turn = %d, want 2 after triple six", tbl.State.CurrentTurn)
	}
	if p := tbl.Player("u1"); p.CanGet6 {
		t.Fatal("canGet6 not forfeited after triple six")
	}
	if len(tbl.State.Dice) != 0 {
		t.Fatalf("dice = %v, want empty", tbl.State.Dice)
	}
}

func TestPenaltyBoxDrawsFiveSidedDie(t *testing.T) {
	tbl := newStartedTable(t, 2, board.VariantQuick)
	tbl.Player("u1").CanGet6 = false

	var sawSides int
	roll := func(sides int) int {
		sawSides = sides
		return 5
	}
	if _, err := tbl.RollDice("u1", roll, true); err != nil {
		t.Fatalf("roll: %v", err)
	}
	if sawSides != 5 {
		t.Fatalf("sides = %d, want 5 for penalty box", sawSides)
	}
}

func TestPrivilegeResetWhenAllPenalized(t *testing.T) {
	tbl := newStartedTable(t, 2, board.VariantQuick)
	// u2 already penalized; u1 loses the privilege with a triple six, after
	// which no non-left player holds it and everyone is reset.
	tbl.Player("u2").CanGet6 = false

	for i := 0; i < 3; i++ {
		if _, err := tbl.RollDice("u1", fixedRoll(6), true); err != nil {
			t.Fatalf("roll %d: %v", i+1, err)
		}
	}
	if !tbl.Player("u1").CanGet6 || !tbl.Player("u2").CanGet6 {
		t.Fatalf("privilege not reset: u1=%v u2=%v",
			tbl.Player("u1").CanGet6, tbl.Player("u2").CanGet6)
	}
}

func TestPrivilegeResetSkipsLeftPlayers(t *testing.T) {
	tbl := newStartedTable(t, 3, board.VariantQuick)
	tbl.Player("u2").CanGet6 = false
	tbl.Player("u3").DidLeave = true
	tbl.Player("u3").CanGet6 = true // left players never satisfy the predicate

	for i := 0; i < 3; i++ {
		if _, err := tbl.RollDice("u1", fixedRoll(6), true); err != nil {
			t.Fatalf("roll %d: %v", i+1, err)
		}
	}
	if !tbl.Player("u1").CanGet6 || !tbl.Player("u2").CanGet6 {
		t.Fatal("active players not reset when only a left player held canGet6")
	}
}

func TestSixRuleDisabled(t *testing.T) {
	tbl := newStartedTable(t, 2, board.VariantQuick)
	if _, err := tbl.RollDice("u1", fixedRoll(6), false); err != nil {
		t.Fatalf("roll: %v", err)
	}
	if tbl.Player("u1").Got6 {
		t.Fatal("got6 set with six rule disabled")
	}
	// a 6 exits the base, so the player should be moving, not re-rolling
	if tbl.State.Action != ActionMovePawn {
		t.Fatalf("action = %s, want movePawn", tbl.State.Action)
	}
}
