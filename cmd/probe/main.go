// Command probe serves book lookups and probes over HTTP.
package main

import (
	"context"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/freeeve/openbook/internal/book"
	"github.com/freeeve/openbook/internal/config"
	"github.com/freeeve/openbook/internal/eco"
	"github.com/freeeve/openbook/internal/httpapi"
	"github.com/freeeve/openbook/internal/logx"
	"github.com/freeeve/openbook/internal/selector"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config file (default $OPENBOOK_CONFIG)")
		addr       = flag.String("addr", "", "listen address, overrides the config")
		bookPath   = flag.String("book", "", "book file, overrides the config")
		onTheFly   = flag.Bool("on-the-fly", false, "bisect the book file instead of loading it")
		ecoDir     = flag.String("eco-dir", "", "directory of ECO .tsv files naming openings")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger := logx.NewLogger("info")
		logger.Fatal().Err(err).Msg("load config")
	}
	logger := logx.NewLogger(cfg.LogLevel)
	if *addr != "" {
		cfg.Addr = *addr
	}
	path := cfg.BookPath()
	if *bookPath != "" {
		path = *bookPath
	}

	st := book.NewStore(
		book.WithLogger(logger.With().Str("component", "book").Logger()),
		book.WithIgnorePly(cfg.IgnorePly),
	)
	if err := st.Read(path, cfg.OnTheFly || *onTheFly); err != nil {
		logger.Fatal().Err(err).Str("path", path).Msg("read book")
	}
	defer st.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	sel := selector.New(st, cfg.SelectorOptions(),
		selector.WithLogger(logger.With().Str("component", "selector").Logger()),
		selector.WithMetrics(selector.NewMetrics(reg)))

	// Load ECO opening database
	var ecoDB *eco.Database
	if *ecoDir != "" {
		ecoDB = eco.NewDatabase()
		if err := ecoDB.LoadDir(*ecoDir); err != nil {
			logger.Warn().Err(err).Str("dir", *ecoDir).Msg("failed to load ECO database")
			ecoDB = nil
		} else {
			logger.Info().Int("openings", ecoDB.Count()).Msg("ECO database loaded")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      httpapi.NewRouter(logger, st, sel, reg, ecoDB),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Str("book", path).
			Str("mode", st.Mode().String()).
			Msg("probe listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("probe server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http server shutdown error")
	}

	stats := st.Stats()
	logger.Info().
		Uint64("lookups", stats.Lookups).
		Uint64("hits", stats.Hits).
		Uint64("seeks", stats.Seeks).
		Msg("shutdown complete")
}
