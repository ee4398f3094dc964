package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/freeeve/openbook/internal/book"
	"github.com/freeeve/openbook/internal/makebook"
)

type fromPGNCommand struct {
	moves     int
	ratingMin int
	side      string
	maxGames  int64
	appendTo  bool
}

func (*fromPGNCommand) Name() string     { return "from-pgn" }
func (*fromPGNCommand) Synopsis() string { return "Build a book from the moves of PGN games" }
func (*fromPGNCommand) Usage() string {
	return `from-pgn [flags] OUT.db GAMES.pgn[.zst]...
`
}

func (c *fromPGNCommand) SetFlags(flags *flag.FlagSet) {
	flags.IntVar(&c.moves, "moves", makebook.DefaultMoves, "plies recorded from each game")
	flags.IntVar(&c.ratingMin, "rating-min", 0, "skip games with a player rated below this")
	flags.StringVar(&c.side, "side", "", "record only positions with this side to move (w or b)")
	flags.Int64Var(&c.maxGames, "max-games", 0, "maximum games to import (0 = unlimited)")
	flags.BoolVar(&c.appendTo, "append", false, "add to OUT.db instead of starting empty")
}

func (c *fromPGNCommand) Execute(ctx context.Context, flags *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if flags.NArg() < 2 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	if c.side != "" && c.side != "w" && c.side != "b" {
		fmt.Fprintf(os.Stderr, "from-pgn: -side must be w or b, got %q\n", c.side)
		return subcommands.ExitUsageError
	}
	cfg, log, err := settings()
	if err != nil {
		log.Error().Err(err).Msg("load config")
		return subcommands.ExitFailure
	}

	out := flags.Arg(0)
	st := book.NewStore(book.WithLogger(log), book.WithIgnorePly(cfg.IgnorePly))
	if c.appendTo {
		if err := st.Read(out, false); err != nil {
			log.Error().Err(err).Str("path", out).Msg("read book")
			return subcommands.ExitFailure
		}
	}

	stats, err := makebook.FromGames(ctx, st, flags.Args()[1:], makebook.GamesOptions{
		Moves:     c.moves,
		RatingMin: c.ratingMin,
		Side:      c.side,
		MaxGames:  c.maxGames,
		Logger:    log,
	})
	if err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("import games")
		return subcommands.ExitFailure
	}
	if _, err := st.Write(out); err != nil {
		log.Error().Err(err).Str("path", out).Msg("write book")
		return subcommands.ExitFailure
	}
	log.Info().
		Int64("games", stats.Games).
		Int64("skipped", stats.Skipped).
		Int("positions", st.Len()).
		Str("path", out).
		Msg("from-pgn done")
	return subcommands.ExitSuccess
}
