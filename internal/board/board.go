package board

import (
	"fmt"
	"strconv"
	"strings"
)

// Board geometry for a four-seat Ludo board. The shared ring has 52 cells
// C1..C52; each seat owns four base cells, a five-cell home stretch and the
// HOME terminal. All of it is fixed at compile time and safe to share.

const (
	Seats          = 4
	PawnsPerSeat   = 4
	RingSize       = 52
	homeStretchLen = 5
	// PathLen is the number of cells a pawn traverses from its start cell
	// to HOME inclusive: 51 ring cells, 5 home cells, then HOME.
	PathLen = 57

	CellHome = "HOME"
)

// Variant selects the win target.
type Variant string

const (
	VariantClassic Variant = "classic"
	VariantQuick   Variant = "quick"
)

// TargetHomePawns is how many pawns a player must bring HOME to win.
func TargetHomePawns(v Variant) int {
	if v == VariantQuick {
		return 2
	}
	return PawnsPerSeat
}

var startCells = map[int]int{1: 1, 2: 14, 3: 27, 4: 40}

var protectedRing = map[string]bool{
	"C1": true, "C9": true, "C14": true, "C22": true,
	"C27": true, "C35": true, "C40": true, "C48": true,
}

var paths = buildPaths()

func buildPaths() map[int][]string {
	out := make(map[int][]string, Seats)
	for seat := 1; seat <= Seats; seat++ {
		path := make([]string, 0, PathLen)
		start := startCells[seat]
		for i := 0; i < RingSize-1; i++ {
			cell := (start-1+i)%RingSize + 1
			path = append(path, "C"+strconv.Itoa(cell))
		}
		for i := 1; i <= homeStretchLen; i++ {
			path = append(path, fmt.Sprintf("H%d-%d", seat, i))
		}
		path = append(path, CellHome)
		out[seat] = path
	}
	return out
}

// Path returns the fixed 57-cell walk for a seat. The returned slice is
// shared; callers must not mutate it.
func Path(seat int) []string {
	return paths[seat]
}

// StartCell is the ring cell a pawn enters when leaving its base.
func StartCell(seat int) string {
	return "C" + strconv.Itoa(startCells[seat])
}

// PawnID builds the canonical pawn identifier "<seat>-<n>".
func PawnID(seat, n int) string {
	return fmt.Sprintf("%d-%d", seat, n)
}

// PawnSeat extracts the owning seat from a pawn id; 0 when malformed.
func PawnSeat(pawnID string) int {
	idx := strings.IndexByte(pawnID, '-')
	if idx <= 0 {
		return 0
	}
	seat, err := strconv.Atoi(pawnID[:idx])
	if err != nil || seat < 1 || seat > Seats {
		return 0
	}
	return seat
}

// BaseCell is the off-board cell a pawn starts in and returns to when captured.
func BaseCell(pawnID string) string {
	return "B" + pawnID
}

func IsBase(cell string) bool {
	return strings.HasPrefix(cell, "B")
}

func IsProtected(cell string) bool {
	return protectedRing[cell]
}

// NextCell walks a pawn `steps` cells along its seat's path. Base exit
// requires a 1 or a 6 and always lands on the start cell. A walk that would
// overshoot HOME is illegal and reports ok=false.
func NextCell(seat int, from string, steps int) (string, bool) {
	if seat < 1 || seat > Seats || steps < 1 {
		return "", false
	}
	if IsBase(from) {
		if steps != 1 && steps != 6 {
			return "", false
		}
		return StartCell(seat), true
	}
	path := paths[seat]
	idx := pathIndex(path, from)
	if idx < 0 || idx+steps > PathLen-1 {
		return "", false
	}
	return path[idx+steps], true
}

// Progress is the 0-based distance a pawn has covered on its seat's path,
// used for position scoring: base = 0, start cell = 1, HOME = 57.
func Progress(seat int, cell string) int {
	if IsBase(cell) {
		return 0
	}
	idx := pathIndex(paths[seat], cell)
	if idx < 0 {
		return 0
	}
	return idx + 1
}

func pathIndex(path []string, cell string) int {
	for i, c := range path {
		if c == cell {
			return i
		}
	}
	return -1
}
