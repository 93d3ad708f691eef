package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/logrusorgru/aurora"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"

	"github.com/jaminalder/minimax-tic-tac-toe/internal/domain"
	"github.com/jaminalder/minimax-tic-tac-toe/internal/logging"
	"github.com/jaminalder/minimax-tic-tac-toe/internal/minimax"
	"github.com/jaminalder/minimax-tic-tac-toe/internal/selfplay"
)

var (
	games    = flag.Int("games", 10, "number of games to play")
	random   = flag.Int("random", 0, "opening plies chosen at random")
	seed     = flag.Uint64("seed", 1, "seed for the random openings")
	parallel = flag.Bool("parallel", false, "search root moves in parallel")
	color    = flag.Bool("color", true, "color the final boards")
	level    = flag.String("log", "warn", "log level")
)

func main() {
	flag.Parse()
	logger, err := logging.New(*level, true, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuring logger: %v\n", err)
		os.Exit(2)
	}

	var opts []minimax.Option
	if *parallel {
		opts = append(opts, minimax.WithParallel())
	}
	au := aurora.NewAurora(*color)
	bar := progressbar.NewOptions(*games,
		progressbar.OptionSetDescription("self-play"),
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        au.Yellow("█").String(),
			SaucerHead:    au.Yellow("█").String(),
			SaucerPadding: " ",
			BarStart:      "|",
			BarEnd:        "|",
		}),
	)

	var last domain.Game
	arena := selfplay.NewArena(minimax.New(opts...), selfplay.Config{Games: *games, RandomPlies: *random, Seed: *seed},
		selfplay.WithLogger(logger),
		selfplay.WithObserver(func(_ int, g domain.Game) {
			last = g
			_ = bar.Add(1)
		}),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	sum, err := arena.Run(ctx)
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)
	if err != nil {
		log.Error().Err(err).Msg("self-play aborted")
	}

	if sum.Games > 0 {
		fmt.Printf("last game (%s):\n%s\n", last.Result(), selfplay.Render(last.Board, au))
	}
	fmt.Println(sum)
	if err != nil {
		os.Exit(1)
	}
	if *random == 0 && sum.Draws != sum.Games {
		// perfect play from the empty board is always a draw
		os.Exit(3)
	}
}
