package web

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"

	"github.com/jaminalder/minimax-tic-tac-toe/internal/app"
	"github.com/jaminalder/minimax-tic-tac-toe/internal/domain"
	"github.com/jaminalder/minimax-tic-tac-toe/internal/minimax"
	"github.com/jaminalder/minimax-tic-tac-toe/internal/store"
)

const (
	maxBodyBytes      = 1 << 10
	defaultArchiveLen = 20
)

type gameJSON struct {
	ID       string          `json:"id"`
	Board    string          `json:"board"`
	Turn     string          `json:"turn,omitempty"`
	Winner   string          `json:"winner,omitempty"`
	Over     bool            `json:"over"`
	Result   string          `json:"result"`
	Moves    int             `json:"moves"`
	History  []domain.Action `json:"history"`
	Computer string          `json:"computer,omitempty"`
}

func newGameJSON(gs app.GameState) gameJSON {
	out := gameJSON{
		ID:      gs.ID,
		Board:   gs.Game.Board.String(),
		Over:    gs.Game.Over,
		Result:  gs.Game.Result().String(),
		Moves:   gs.Game.Moves,
		History: gs.Game.History,
	}
	if gs.Game.Turn != domain.Empty {
		out.Turn = gs.Game.Turn.String()
	}
	if gs.Game.Winner != domain.Empty {
		out.Winner = gs.Game.Winner.String()
	}
	if c := gs.Computer(); c != domain.Empty {
		out.Computer = c.String()
	}
	if out.History == nil {
		out.History = []domain.Action{}
	}
	return out
}

type solveRequest struct {
	Board string `json:"board"`
}

type errorJSON struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, "encoding failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorJSON{Error: err.Error()})
}

func (h *handlers) apiGame(w http.ResponseWriter, r *http.Request) {
	gs, ok := h.svc.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, app.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, newGameJSON(*gs))
}

func (h *handlers) apiHint(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Hint(chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, app.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrGameOver):
		writeError(w, http.StatusConflict, err)
	case err != nil:
		h.logger.Error().Err(err).Msg("hint")
		writeError(w, http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusOK, struct {
			Action domain.Action `json:"action"`
		}{a})
	}
}

func (h *handlers) apiSolve(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req solveRequest
	if err := sonic.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	b, err := domain.ParseBoard(req.Board)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res, err := h.searcher.Search(b)
	switch {
	case errors.Is(err, minimax.ErrNoMoveAvailable):
		writeError(w, http.StatusConflict, domain.ErrGameOver)
	case err != nil:
		h.logger.Error().Err(err).Str("board", b.String()).Msg("solve")
		writeError(w, http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

func (h *handlers) apiArchive(w http.ResponseWriter, r *http.Request) {
	limit := defaultArchiveLen
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, errors.New("limit must be a positive integer"))
			return
		}
		limit = n
	}
	recs, err := h.svc.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("archive")
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if recs == nil {
		recs = []store.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (h *handlers) apiArchived(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Archived(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case err != nil:
		h.logger.Error().Err(err).Msg("archived game")
		writeError(w, http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusOK, rec)
	}
}
