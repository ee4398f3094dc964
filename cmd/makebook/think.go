package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/google/subcommands"

	"github.com/freeeve/openbook/internal/book"
	"github.com/freeeve/openbook/internal/engine"
	"github.com/freeeve/openbook/internal/makebook"
)

type thinkCommand struct {
	enginePath   string
	depth        int
	width        int
	nodes        uint64
	workers      int
	hashMB       int
	threads      int
	startMoves   int
	moves        int
	saveInterval string
}

func (*thinkCommand) Name() string     { return "think" }
func (*thinkCommand) Synopsis() string { return "Search the positions of PGN games with a UCI engine" }
func (*thinkCommand) Usage() string {
	return `think [flags] BOOK.db GAMES.pgn[.zst]...

Positions between -start-moves and -moves of every game are searched and
stored in BOOK.db, which is created when missing.
`
}

func (c *thinkCommand) SetFlags(flags *flag.FlagSet) {
	flags.StringVar(&c.enginePath, "engine", "", "UCI engine binary (default from config)")
	flags.IntVar(&c.depth, "depth", 16, "search depth")
	flags.IntVar(&c.width, "multipv", 4, "candidate moves kept per position")
	flags.Uint64Var(&c.nodes, "nodes", 0, "node budget per search (0 = unlimited)")
	flags.IntVar(&c.workers, "workers", runtime.NumCPU(), "parallel engine processes")
	flags.IntVar(&c.hashMB, "hash", 256, "engine hash MB per worker")
	flags.IntVar(&c.threads, "threads", 1, "engine threads per worker")
	flags.IntVar(&c.startMoves, "start-moves", 1, "first ply searched")
	flags.IntVar(&c.moves, "moves", makebook.DefaultMoves, "last ply searched")
	flags.StringVar(&c.saveInterval, "save-interval", makebook.DefaultSaveInterval.String(), "autosave interval")
}

func (c *thinkCommand) Execute(ctx context.Context, flags *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if flags.NArg() < 2 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	interval, err := parseDuration(c.saveInterval)
	if err != nil {
		fmt.Fprintf(os.Stderr, "think: -save-interval: %v\n", err)
		return subcommands.ExitUsageError
	}
	cfg, log, err := settings()
	if err != nil {
		log.Error().Err(err).Msg("load config")
		return subcommands.ExitFailure
	}
	if c.enginePath == "" {
		c.enginePath = cfg.EnginePath
	}

	bookPath := flags.Arg(0)
	st := book.NewStore(book.WithLogger(log), book.WithIgnorePly(cfg.IgnorePly))
	if _, statErr := os.Stat(bookPath); statErr == nil {
		if err := st.Read(bookPath, false); err != nil {
			log.Error().Err(err).Str("path", bookPath).Msg("read book")
			return subcommands.ExitFailure
		}
	}

	positions, err := makebook.CollectPositions(ctx, flags.Args()[1:], c.startMoves, c.moves)
	if err != nil {
		log.Error().Err(err).Msg("collect positions")
		return subcommands.ExitFailure
	}

	stats, err := makebook.Think(ctx, st, positions, func(worker int) (engine.Searcher, error) {
		return engine.NewUCI(engine.Config{
			Path:    c.enginePath,
			HashMB:  c.hashMB,
			Threads: c.threads,
			Logger:  log.With().Int("worker", worker).Logger(),
		})
	}, makebook.ThinkOptions{
		Depth:        c.depth,
		Width:        c.width,
		Nodes:        c.nodes,
		Workers:      c.workers,
		SavePath:     bookPath,
		SaveInterval: interval,
		Logger:       log,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("think")
		return subcommands.ExitFailure
	}
	log.Info().
		Int64("searched", stats.Searched).
		Int64("skipped", stats.Skipped).
		Int64("failed", stats.Failed).
		Str("path", bookPath).
		Msg("think done")
	return subcommands.ExitSuccess
}
