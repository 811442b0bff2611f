package board

import "testing"

func TestPathLengthAndEnds(t *testing.T) {
	for seat := 1; seat <= Seats; seat++ {
		p := Path(seat)
		if len(p) != PathLen {
			t.Fatalf("seat %d path len = %d, want %d", seat, len(p), PathLen)
		}
		if p[0] != StartCell(seat) {
			t.Fatalf("seat %d path[0] = %s, want %s", seat, p[0], StartCell(seat))
		}
		if p[PathLen-1] != CellHome {
			t.Fatalf("seat %d path end = %s, want HOME", seat, p[PathLen-1])
		}
	}
}

func TestPathWrapsRing(t *testing.T) {
	p := Path(2)
	// seat 2 starts at C14 and must wrap past C52 back to C1.
	if p[0] != "C14" {
		t.Fatalf("seat 2 start = %s, want C14", p[0])
	}
	if p[38] != "C52" || p[39] != "C1" {
		t.Fatalf("seat 2 wrap = %s,%s, want C52,C1", p[38], p[39])
	}
}

func TestNextCellWalk(t *testing.T) {
	got, ok := NextCell(1, "C1", 5)
	if !ok || got != "C6" {
		t.Fatalf("NextCell(1,C1,5) = %s,%v, want C6,true", got, ok)
	}
	got, ok = NextCell(1, "C50", 4)
	if !ok || got != "C2" {
		t.Fatalf("NextCell(1,C50,4) = %s,%v, want C2,true", got, ok)
	}
}

func TestNextCellBaseExit(t *testing.T) {
	for _, steps := range []int{2, 3, 4, 5} {
		if _, ok := NextCell(1, "B1-1", steps); ok {
			t.Fatalf("base exit allowed with %d", steps)
		}
	}
	for _, steps := range []int{1, 6} {
		got, ok := NextCell(3, "B3-2", steps)
		if !ok || got != "C27" {
			t.Fatalf("base exit with %d = %s,%v, want C27,true", steps, got, ok)
		}
	}
}

func TestNextCellHomeOvershoot(t *testing.T) {
	// H1-4 is one step from H1-5 and two from HOME.
	if got, ok := NextCell(1, "H1-4", 2); !ok || got != CellHome {
		t.Fatalf("exact landing = %s,%v, want HOME,true", got, ok)
	}
	if _, ok := NextCell(1, "H1-4", 3); ok {
		t.Fatal("overshoot past HOME allowed")
	}
}

func TestNextCellMatchesPathIndex(t *testing.T) {
	for seat := 1; seat <= Seats; seat++ {
		p := Path(seat)
		for _, dice := range []int{1, 2, 3, 4, 5, 6} {
			for i := 0; i+dice < PathLen; i++ {
				got, ok := NextCell(seat, p[i], dice)
				if !ok || got != p[i+dice] {
					t.Fatalf("seat %d from %s + %d = %s,%v, want %s", seat, p[i], dice, got, ok, p[i+dice])
				}
			}
		}
	}
}

func TestPawnSeat(t *testing.T) {
	if PawnSeat("3-4") != 3 {
		t.Fatalf("PawnSeat(3-4) = %d, want 3", PawnSeat("3-4"))
	}
	if PawnSeat("bogus") != 0 || PawnSeat("9-1") != 0 {
		t.Fatal("malformed pawn id not rejected")
	}
}

func TestProgress(t *testing.T) {
	if Progress(1, "B1-1") != 0 {
		t.Fatal("base progress not 0")
	}
	if Progress(1, "C1") != 1 {
		t.Fatalf("start progress = %d, want 1", Progress(1, "C1"))
	}
	if Progress(1, CellHome) != PathLen {
		t.Fatalf("home progress = %d, want %d", Progress(1, CellHome), PathLen)
	}
}

func TestTargetHomePawns(t *testing.T) {
	if TargetHomePawns(VariantClassic) != 4 || TargetHomePawns(VariantQuick) != 2 {
		t.Fatal("variant targets wrong")
	}
}
