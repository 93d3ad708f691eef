package selfplay

import (
	"strings"

	"github.com/logrusorgru/aurora"

	"github.com/jaminalder/minimax-tic-tac-toe/internal/domain"
)

// Render draws b as a text grid, coloring X red and O blue when au has
// colors enabled.
func Render(b domain.Board, au aurora.Aurora) string {
	var sb strings.Builder
	for r := 0; r < 3; r++ {
		if r > 0 {
			sb.WriteString("---+---+---\n")
		}
		for c := 0; c < 3; c++ {
			if c > 0 {
				sb.WriteByte('|')
			}
			sb.WriteByte(' ')
			switch cell := b.At(r, c); cell {
			case domain.X:
				sb.WriteString(au.Bold(au.Red("X")).String())
			case domain.O:
				sb.WriteString(au.Bold(au.Blue("O")).String())
			default:
				sb.WriteByte(' ')
			}
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
