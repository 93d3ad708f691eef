package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Cell represents a board cell state.
type Cell uint8

const (
	Empty Cell = iota
	X
	O
)

func (c Cell) String() string {
	switch c {
	case X:
		return "X"
	case O:
		return "O"
	default:
		return "."
	}
}

func (c Cell) side() bool { return c == X || c == O }

// Opponent returns the other side, or Empty for Empty.
func (c Cell) Opponent() Cell {
	switch c {
	case X:
		return O
	case O:
		return X
	default:
		return Empty
	}
}

// Board is a fixed 3x3 board stored row-major. It is a value: every
// transition returns a new Board and leaves the receiver untouched.
// Boards from Initial, Apply and ParseBoard are always valid; a Board built
// as a literal should be checked with Validate before use.
type Board [9]Cell

// Action names the cell a move is played on (row, col in 0..2).
type Action struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (a Action) String() string { return fmt.Sprintf("(%d,%d)", a.Row, a.Col) }

func (a Action) inBounds() bool { return a.Row >= 0 && a.Row <= 2 && a.Col >= 0 && a.Col <= 2 }

func (a Action) index() int { return a.Row*3 + a.Col }

// Errors returned by board operations.
var (
	ErrInvalidAction  = errors.New("invalid action")
	ErrOutOfBounds    = errors.New("out of bounds")
	ErrOccupied       = errors.New("cell occupied")
	ErrGameOver       = errors.New("game over")
	ErrNotTerminal    = errors.New("board is not terminal")
	ErrMalformedBoard = errors.New("malformed board")
)

var lines = [8][3]int{
	// rows
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	// cols
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	// diags
	{0, 4, 8}, {2, 4, 6},
}

// Initial returns the empty board.
func Initial() Board {
	return Board{}
}

// At returns the cell at row r, column c.
func (b Board) At(r, c int) Cell {
	return b[r*3+c]
}

func (b Board) count(side Cell) int {
	n := 0
	for _, c := range b {
		if c == side {
			n++
		}
	}
	return n
}

// SideToMove returns the side whose turn it is. X moves first and the sides
// alternate, so X is to move when both have the same number of marks. A
// terminal board has no side to move and reports Empty.
func (b Board) SideToMove() Cell {
	if b.IsTerminal() {
		return Empty
	}
	if b.count(X) == b.count(O) {
		return X
	}
	return O
}

// LegalActions lists every empty cell in row-major order. It is nil once the
// game has ended, even if empty cells remain.
func (b Board) LegalActions() []Action {
	if b.IsTerminal() {
		return nil
	}
	actions := make([]Action, 0, 9)
	for i, c := range b {
		if c == Empty {
			actions = append(actions, Action{Row: i / 3, Col: i % 3})
		}
	}
	return actions
}

// Apply returns the board after the side to move plays a. Every failure
// matches ErrInvalidAction plus one of ErrOutOfBounds, ErrOccupied or
// ErrGameOver.
func (b Board) Apply(a Action) (Board, error) {
	if !a.inBounds() {
		return b, fmt.Errorf("%w %v: %w", ErrInvalidAction, a, ErrOutOfBounds)
	}
	side := b.SideToMove()
	if side == Empty {
		return b, fmt.Errorf("%w %v: %w", ErrInvalidAction, a, ErrGameOver)
	}
	if b[a.index()] != Empty {
		return b, fmt.Errorf("%w %v: %w", ErrInvalidAction, a, ErrOccupied)
	}
	next := b
	next[a.index()] = side
	return next, nil
}

// Winner scans rows, then columns, then diagonals and returns the first side
// holding a full line, or Empty.
func (b Board) Winner() Cell {
	for _, ln := range lines {
		if c := b[ln[0]]; c.side() && b[ln[1]] == c && b[ln[2]] == c {
			return c
		}
	}
	return Empty
}

func (b Board) full() bool {
	for _, c := range b {
		if c == Empty {
			return false
		}
	}
	return true
}

// IsTerminal reports whether someone has won or the board is full.
func (b Board) IsTerminal() bool {
	return b.Winner() != Empty || b.full()
}

// Utility scores a finished board from X's point of view: 1 for an X win,
// -1 for an O win and 0 for a draw.
func (b Board) Utility() (int, error) {
	if !b.IsTerminal() {
		return 0, ErrNotTerminal
	}
	switch b.Winner() {
	case X:
		return 1, nil
	case O:
		return -1, nil
	default:
		return 0, nil
	}
}

// String renders the board as three rows separated by '/', with '.' for
// empty cells, e.g. "XX./.O./..O".
func (b Board) String() string {
	var sb strings.Builder
	for i, c := range b {
		if i > 0 && i%3 == 0 {
			sb.WriteByte('/')
		}
		sb.WriteString(c.String())
	}
	return sb.String()
}

// ParseBoard reads the form produced by Board.String. Whitespace is ignored
// and '/' separators are optional. Boards that cannot arise from alternating
// play starting with X are rejected.
func ParseBoard(s string) (Board, error) {
	var b Board
	i := 0
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '/':
			continue
		}
		if i >= len(b) {
			return Board{}, fmt.Errorf("%w: more than 9 cells in %q", ErrMalformedBoard, s)
		}
		switch r {
		case 'X', 'x':
			b[i] = X
		case 'O', 'o':
			b[i] = O
		case '.', '_', '-':
			b[i] = Empty
		default:
			return Board{}, fmt.Errorf("%w: unexpected %q", ErrMalformedBoard, r)
		}
		i++
	}
	if i != len(b) {
		return Board{}, fmt.Errorf("%w: want 9 cells, got %d", ErrMalformedBoard, i)
	}
	if err := b.Validate(); err != nil {
		return Board{}, err
	}
	return b, nil
}

// Validate reports ErrMalformedBoard when b holds a value other than Empty,
// X or O, or could not arise from alternating play starting with X.
func (b Board) Validate() error {
	for i, c := range b {
		if c != Empty && !c.side() {
			return fmt.Errorf("%w: cell %d holds unknown value %d", ErrMalformedBoard, i, c)
		}
	}
	nx, no := b.count(X), b.count(O)
	if nx != no && nx != no+1 {
		return fmt.Errorf("%w: %d X marks against %d O marks", ErrMalformedBoard, nx, no)
	}
	var xLine, oLine bool
	for _, ln := range lines {
		if c := b[ln[0]]; c.side() && b[ln[1]] == c && b[ln[2]] == c {
			xLine = xLine || c == X
			oLine = oLine || c == O
		}
	}
	switch {
	case xLine && oLine:
		return fmt.Errorf("%w: both sides have a line", ErrMalformedBoard)
	case xLine && nx != no+1:
		return fmt.Errorf("%w: X won but O moved after", ErrMalformedBoard)
	case oLine && nx != no:
		return fmt.Errorf("%w: O won but X moved after", ErrMalformedBoard)
	}
	return nil
}
