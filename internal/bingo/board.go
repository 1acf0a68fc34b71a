package bingo

// Size is the number of slots on a board (5x5).
const Size = 25

const side = 5

// Board is a player's 25-slot grid. An empty string marks an unfilled slot.
type Board []string

// Lines holds the slot indexes of the 12 bingo lines: 5 rows, 5 columns, 2 diagonals.
var Lines = buildLines()

func buildLines() [][side]int {
	lines := make([][side]int, 0, 2*side+2)
	for r := 0; r < side; r++ {
		var row [side]int
		for c := 0; c < side; c++ {
			row[c] = r*side + c
		}
		lines = append(lines, row)
	}
	for c := 0; c < side; c++ {
		var col [side]int
		for r := 0; r < side; r++ {
			col[r] = r*side + c
		}
		lines = append(lines, col)
	}
	var diag, anti [side]int
	for i := 0; i < side; i++ {
		diag[i] = i*side + i
		anti[i] = i*side + (side - 1 - i)
	}
	return append(lines, diag, anti)
}

// MaxLines is the highest score a board can reach.
var MaxLines = len(Lines)

// NewBoard returns an all-empty board.
func NewBoard() Board {
	return make(Board, Size)
}

// Normalize returns a copy padded or trimmed to Size slots.
func (b Board) Normalize() Board {
	out := NewBoard()
	copy(out, b)
	return out
}

// Filled counts non-empty slots.
func (b Board) Filled() int {
	n := 0
	for _, v := range b {
		if v != "" {
			n++
		}
	}
	return n
}

// Complete reports whether all 25 slots are filled.
func (b Board) Complete() bool {
	return len(b) == Size && b.Filled() == Size
}

// IndexOf returns the slot holding item, or -1.
func (b Board) IndexOf(item string) int {
	if item == "" {
		return -1
	}
	for i, v := range b {
		if v == item {
			return i
		}
	}
	return -1
}

// CountBingoLines counts lines whose every slot is filled with a drawn name.
// Boards that are not exactly 25 slots long score 0.
func CountBingoLines(b Board, drawn []string) int {
	if len(b) != Size || len(drawn) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(drawn))
	for _, name := range drawn {
		seen[name] = struct{}{}
	}
	count := 0
	for _, line := range Lines {
		complete := true
		for _, idx := range line {
			v := b[idx]
			if v == "" {
				complete = false
				break
			}
			if _, ok := seen[v]; !ok {
				complete = false
				break
			}
		}
		if complete {
			count++
		}
	}
	return count
}

// CheckFullBingo reports whether every slot is filled and every line is complete.
func CheckFullBingo(b Board, drawn []string) bool {
	if !b.Complete() {
		return false
	}
	return CountBingoLines(b, drawn) == MaxLines
}
