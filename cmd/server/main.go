package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/jaminalder/minimax-tic-tac-toe/internal/app"
	"github.com/jaminalder/minimax-tic-tac-toe/internal/config"
	"github.com/jaminalder/minimax-tic-tac-toe/internal/debug"
	"github.com/jaminalder/minimax-tic-tac-toe/internal/logging"
	"github.com/jaminalder/minimax-tic-tac-toe/internal/minimax"
	"github.com/jaminalder/minimax-tic-tac-toe/internal/store"
	"github.com/jaminalder/minimax-tic-tac-toe/internal/web"
)

var configFile = flag.String("f", "etc/server.yaml", "the config file")

const shutdownTimeout = 10 * time.Second

func main() {
	flag.Parse()

	c, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(c.Log.Level, c.Log.Pretty, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuring logger: %v\n", err)
		os.Exit(1)
	}
	if err := run(c, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func run(c config.Config, logger zerolog.Logger) error {
	archive, err := newArchive(c.Mongo, logger)
	if err != nil {
		return err
	}

	searchOpts := []minimax.Option{minimax.WithLogger(logger.With().Str("component", "minimax").Logger())}
	if c.Search.Parallel {
		searchOpts = append(searchOpts, minimax.WithParallel())
	}
	searcher := minimax.New(searchOpts...)

	svc := app.NewService(
		app.WithMover(searcher),
		app.WithArchive(archive),
		app.WithLogger(logger.With().Str("component", "app").Logger()),
	)
	srv := &http.Server{
		Addr:              c.Addr,
		Handler:           web.NewServer(svc, web.WithSearcher(searcher), web.WithLogger(logger.With().Str("component", "web").Logger())),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	servers := []*http.Server{srv}
	if c.PprofAddr != "" {
		servers = append(servers, debug.NewServer(c.PprofAddr))
	}
	errs := make(chan error, len(servers))
	for _, s := range servers {
		go func(s *http.Server) {
			logger.Info().Str("addr", s.Addr).Msg("listening")
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errs <- fmt.Errorf("serve %s: %w", s.Addr, err)
			}
		}(s)
	}

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
	case err = <-errs:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, s := range servers {
		if serr := s.Shutdown(shutdownCtx); serr != nil {
			logger.Error().Err(serr).Str("addr", s.Addr).Msg("shutdown")
		}
	}
	return err
}

func newArchive(c config.MongoConf, logger zerolog.Logger) (app.Archive, error) {
	if c.URL == "" {
		logger.Info().Msg("archiving finished games in memory")
		return store.NewMemoryStore(), nil
	}
	s, err := store.NewMongoStore(c.URL, c.Database, c.Collection)
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	logger.Info().Str("database", c.Database).Str("collection", c.Collection).Msg("archiving finished games in mongo")
	return s, nil
}
