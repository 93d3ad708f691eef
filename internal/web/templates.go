package web

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/jaminalder/minimax-tic-tac-toe/internal/app"
	"github.com/jaminalder/minimax-tic-tac-toe/internal/domain"
)

type templates struct {
	base  *template.Template
	game  *template.Template
	board *template.Template
	index *template.Template
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"iter": func(n int) []int {
			a := make([]int, n)
			for i := range a {
				a[i] = i
			}
			return a
		},
		"cellSymbol": func(c domain.Cell) string {
			if c == domain.Empty {
				return ""
			}
			return c.String()
		},
		"at": func(b domain.Board, r, c int) domain.Cell { return b.At(r, c) },
	}
}

func loadTemplates() *templates {
	base := template.Must(template.New("base").Funcs(funcs()).Parse(`<!doctype html><html><head>
<meta charset="utf-8"/>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="https://unpkg.com/htmx.org/dist/ext/sse.js"></script>
</head><body>{{template "content" .}}</body></html>`))
	// Define the board template within the same set so game can include it
	template.Must(base.New("board").Funcs(funcs()).Parse(boardTemplate))
	index := template.Must(template.Must(base.Clone()).New("content").Parse(indexTemplate))
	game := template.Must(template.Must(base.Clone()).New("content").Parse(`
<div hx-ext="sse" hx-sse="connect:/game/{{.ID}}/events">
  <div id="board" hx-sse="swap:board">{{template "board" .}}</div>
</div>`))
	// Standalone board template used for fragment rendering
	board := template.Must(template.New("board_only").Funcs(funcs()).Parse(boardTemplate))
	return &templates{base: base, game: game, board: board, index: index}
}

func renderTemplate(t *template.Template, name string, data any) []byte {
	var buf bytes.Buffer
	if name == "" {
		_ = t.Execute(&buf, data)
	} else {
		_ = t.ExecuteTemplate(&buf, name, data)
	}
	return buf.Bytes()
}

const indexTemplate = `<h1>TicTacToe</h1>
<form action="/game" method="post"><button>Two players</button></form>
<form action="/game" method="post"><input type="hidden" name="computer" value="O"><button>Play X against the computer</button></form>
<form action="/game" method="post"><input type="hidden" name="computer" value="X"><button>Play O against the computer</button></form>`

const boardTemplate = `
<div id="board">
  {{if .Error}}
  <div class="alert">{{.Error}}</div>
  {{end}}
  <div class="status">{{.Status}}</div>
  {{/* 3x3 grid */}}
  {{range $r := iter 3}}
  <div class="row">
    {{range $c := iter 3}}
      <form hx-post="/game/{{$.ID}}/play" hx-target="#board" hx-swap="outerHTML" method="post">
        <input type="hidden" name="r" value="{{$r}}">
        <input type="hidden" name="c" value="{{$c}}">
        <button type="submit">{{cellSymbol (at $.Board $r $c)}}</button>
      </form>
    {{end}}
  </div>
  {{end}}
</div>
`

// boardView is the data behind the board fragment.
type boardView struct {
	ID     string
	Board  domain.Board
	Status string
	Error  string
}

func newBoardView(gs app.GameState, errMsg string) boardView {
	return boardView{ID: gs.ID, Board: gs.Game.Board, Status: status(gs), Error: errMsg}
}

func status(gs app.GameState) string {
	switch gs.Game.Result() {
	case domain.XWins:
		return "X wins"
	case domain.OWins:
		return "O wins"
	case domain.Draw:
		return "Draw"
	}
	if gs.Game.Turn == gs.Computer() {
		return "Computer to move"
	}
	return gs.Game.Turn.String() + " to move"
}

// Helper to set cookie
func ensurePlayerCookie(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie("player_id"); err == nil && c.Value != "" {
		return c.Value
	}
	v := app.NewPlayerID()
	http.SetCookie(w, &http.Cookie{Name: "player_id", Value: v, Path: "/"})
	return v
}
