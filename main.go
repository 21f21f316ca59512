package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/danielnylander/minnet/assets"
	"github.com/danielnylander/minnet/internal/config"
	"github.com/danielnylander/minnet/internal/db"
	"github.com/danielnylander/minnet/internal/httpserver"
	"github.com/danielnylander/minnet/internal/results"
	"github.com/danielnylander/minnet/internal/settings"
	"github.com/danielnylander/minnet/internal/store"
	"github.com/danielnylander/minnet/internal/symbols"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if !cfg.Production() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	pool, err := symbols.Load(cfg.SymbolsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load card symbols")
	}
	if err := cfg.CheckPairs(len(pool)); err != nil {
		log.Fatal().Err(err).Str("symbols", cfg.SymbolsFile).Msg("pair counts do not fit the symbol pool")
	}

	conn, err := db.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("open database")
	}
	defer conn.Close()
	if err := db.Migrate(conn, assets.Migrations()); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	hist := results.Open(cfg.ResultsPath(), cfg.ResultsLimit)
	prefs := settings.Open(cfg.SettingsPath())
	log.Info().
		Str("dataDir", cfg.DataDir).
		Int("results", hist.Len()).
		Int("symbols", len(pool)).
		Msg("loaded local data")

	srv := httpserver.New(cfg, httpserver.Deps{
		Store:    store.NewMemoryStore(),
		DB:       conn,
		Symbols:  pool,
		Results:  hist,
		Settings: prefs,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("port", cfg.Port).Msg("starting minnet")
	if err := srv.Run(ctx, ":"+cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("bye")
}
