package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"time"

	"github.com/google/subcommands"

	"github.com/freeeve/openbook/internal/book"
	"github.com/freeeve/openbook/internal/position"
	"github.com/freeeve/openbook/internal/selector"
)

type probeCommand struct {
	fen      string
	bookPath string
	lazy     bool
	samples  int
	seed     int64
}

func (*probeCommand) Name() string     { return "probe" }
func (*probeCommand) Synopsis() string { return "Show the book candidates and picks for a position" }
func (*probeCommand) Usage() string {
	return `probe [flags]

Loads the configured book (or -book) and prints the move the selector
picks for -fen, or the pick distribution over -n draws.
`
}

func (c *probeCommand) SetFlags(flags *flag.FlagSet) {
	flags.StringVar(&c.fen, "fen", "", "position to probe (default initial position)")
	flags.StringVar(&c.bookPath, "book", "", "book file, overrides the config")
	flags.BoolVar(&c.lazy, "lazy", false, "bisect the book file instead of loading it")
	flags.IntVar(&c.samples, "n", 1, "number of draws")
	flags.Int64Var(&c.seed, "seed", 0, "random seed (0 = time based)")
}

func (c *probeCommand) Execute(ctx context.Context, flags *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, log, err := settings()
	if err != nil {
		log.Error().Err(err).Msg("load config")
		return subcommands.ExitFailure
	}

	pos := position.Start()
	if c.fen != "" {
		if pos, err = position.FromFEN(c.fen); err != nil {
			fmt.Fprintf(os.Stderr, "probe: %v\n", err)
			return subcommands.ExitUsageError
		}
	}

	path := c.bookPath
	if path == "" {
		path = cfg.BookPath()
	}
	st := book.NewStore(book.WithLogger(log), book.WithIgnorePly(cfg.IgnorePly))
	if err := st.Read(path, c.lazy || cfg.OnTheFly); err != nil {
		log.Error().Err(err).Str("path", path).Msg("read book")
		return subcommands.ExitFailure
	}
	defer st.Close()

	seed := c.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	opts := cfg.SelectorOptions()
	opts.OwnBook = true
	sel := selector.New(st, opts,
		selector.WithRand(rand.New(rand.NewSource(seed))),
		selector.WithLogger(log))

	if c.samples < 1 {
		c.samples = 1
	}
	counts := make(map[string]int)
	for i := 0; i < c.samples; i++ {
		d, ok := sel.ProbeRoot(pos, i > 0)
		if !ok {
			counts["(none)"]++
			continue
		}
		counts[d.Move.String()+" ponder "+d.Ponder.String()]++
	}

	if c.samples == 1 {
		for k := range counts {
			fmt.Printf("bestmove %s\n", k)
		}
		return subcommands.ExitSuccess
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		fmt.Printf("%6d %5.1f%% %s\n", counts[k], 100*float64(counts[k])/float64(c.samples), k)
	}
	return subcommands.ExitSuccess
}
