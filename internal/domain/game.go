package domain

// Game holds the current state of a Tic-Tac-Toe match. The board itself is
// immutable; Game just tracks the latest Board and the moves that led to it.
type Game struct {
	Board   Board
	Turn    Cell
	Winner  Cell
	Over    bool
	Moves   int
	History []Action
}

// Result summarizes how a finished game ended.
type Result uint8

const (
	InProgress Result = iota
	XWins
	OWins
	Draw
)

func (r Result) String() string {
	switch r {
	case XWins:
		return "X wins"
	case OWins:
		return "O wins"
	case Draw:
		return "draw"
	default:
		return "in progress"
	}
}

// New returns a new game with X to move.
func New() Game {
	return Game{Board: Initial(), Turn: X}
}

// FromBoard resumes a game at b. History is unknown and left empty.
func FromBoard(b Board) Game {
	g := Game{Board: b, Moves: 9 - b.count(Empty)}
	g.sync()
	return g
}

// Play attempts to play the current turn at row r, column c (0..2).
func (g *Game) Play(r, c int) error {
	return g.Apply(Action{Row: r, Col: c})
}

// Apply plays a for the side to move.
func (g *Game) Apply(a Action) error {
	next, err := g.Board.Apply(a)
	if err != nil {
		return err
	}
	g.Board = next
	g.Moves++
	g.History = append(g.History, a)
	g.sync()
	return nil
}

func (g *Game) sync() {
	g.Turn = g.Board.SideToMove()
	g.Winner = g.Board.Winner()
	g.Over = g.Board.IsTerminal()
}

// Result reports the outcome so far.
func (g Game) Result() Result {
	switch {
	case !g.Over:
		return InProgress
	case g.Winner == X:
		return XWins
	case g.Winner == O:
		return OWins
	default:
		return Draw
	}
}
