package makebook

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/freeeve/pgn/v3"
	"github.com/rs/zerolog"

	"github.com/freeeve/openbook/internal/book"
	"github.com/freeeve/openbook/internal/position"
)

// Defaults for game import.
const (
	DefaultMoves     = 16
	gameRecordDepth  = 32
	progressInterval = 10 * time.Second
)

// GamesOptions controls FromGames.
type GamesOptions struct {
	// Moves is the number of plies recorded from each game.
	Moves int
	// RatingMin skips games where either player is rated lower.
	RatingMin int
	// Side limits recording to positions with this side to move ("w" or
	// "b"). Empty records both.
	Side string
	// MaxGames stops after this many games. 0 means no limit.
	MaxGames int64
	Logger   zerolog.Logger
}

// GamesStats summarizes an import.
type GamesStats struct {
	Games     int64
	Skipped   int64
	Positions int64
}

// FromGames replays the games in the PGN files at paths (".pgn" or
// ".pgn.zst") and records every move of the first opts.Moves plies. A
// move seen again accumulates its occurrence and win/loss counts. The next
// move of the game becomes the ponder move.
func FromGames(ctx context.Context, st *book.Store, paths []string, opts GamesOptions) (GamesStats, error) {
	if opts.Moves <= 0 {
		opts.Moves = DefaultMoves
	}
	var stats GamesStats
	for _, path := range paths {
		if err := importFile(ctx, st, path, opts, &stats); err != nil {
			return stats, err
		}
		if ctx.Err() != nil || (opts.MaxGames > 0 && stats.Games >= opts.MaxGames) {
			break
		}
	}
	opts.Logger.Info().
		Int64("games", stats.Games).
		Int64("skipped", stats.Skipped).
		Int64("positions", stats.Positions).
		Msg("game import complete")
	return stats, ctx.Err()
}

func importFile(ctx context.Context, st *book.Store, path string, opts GamesOptions, stats *GamesStats) error {
	startTime := time.Now()
	lastLog := startTime

	// Parse PGN file (handles .zst automatically)
	parser := pgn.Games(path)

	stopped := false
gameLoop:
	for game := range parser.Games {
		select {
		case <-ctx.Done():
			if !stopped {
				parser.Stop()
				stopped = true
			}
			break gameLoop
		default:
		}

		if opts.MaxGames > 0 && stats.Games >= opts.MaxGames {
			parser.Stop()
			stopped = true
			break gameLoop
		}

		whiteRating := parseRating(game.Tags["WhiteElo"])
		blackRating := parseRating(game.Tags["BlackElo"])
		if whiteRating < opts.RatingMin || blackRating < opts.RatingMin {
			stats.Skipped++
			continue
		}

		n, err := recordGame(st, game, opts)
		if err != nil {
			opts.Logger.Debug().Err(err).Str("file", filepath.Base(path)).Msg("skipping game")
			stats.Skipped++
			continue
		}
		stats.Games++
		stats.Positions += int64(n)

		if time.Since(lastLog) > progressInterval {
			opts.Logger.Info().
				Str("file", filepath.Base(path)).
				Int64("games", stats.Games).
				Int64("skipped", stats.Skipped).
				Int64("positions", stats.Positions).
				Msg("import progress")
			lastLog = time.Now()
		}
	}

	if err := parser.Err(); err != nil && !stopped {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	opts.Logger.Info().
		Str("file", filepath.Base(path)).
		Dur("elapsed", time.Since(startTime)).
		Msg("file import complete")
	return nil
}

// recordGame inserts the opening moves of one game and returns how many
// were recorded.
func recordGame(st *book.Store, game *pgn.Game, opts GamesOptions) (int, error) {
	pos := position.Start()
	if fen := game.Tags["FEN"]; fen != "" {
		var err error
		if pos, err = position.FromFEN(fen); err != nil {
			return 0, err
		}
	}

	result := game.Tags["Result"]
	recorded := 0
	for i, mv := range game.Moves {
		if i >= opts.Moves {
			break
		}
		side := pos.SideToMove()
		if opts.Side == "" || opts.Side == side.String() {
			ponder := position.MoveNone
			if i+1 < len(game.Moves) {
				ponder = position.FromMv(game.Moves[i+1])
			}
			r := book.NewRecord(position.FromMv(mv), ponder, 0, gameRecordDepth, 1)
			r.Wins, r.Losses = outcome(result, side)
			st.Insert(pos.Key(), r, true)
			recorded++
		}

		next, err := pos.PlayMv(mv)
		if err != nil {
			return recorded, nil
		}
		pos = next
	}
	return recorded, nil
}

// outcome returns the win and loss credit of a game result from the
// perspective of the side to move.
func outcome(result string, side position.Color) (wins, losses uint64) {
	switch result {
	case "1-0":
		wins = 1
	case "0-1":
		losses = 1
	default:
		return 0, 0
	}
	if side == position.Black {
		wins, losses = losses, wins
	}
	return wins, losses
}

func parseRating(s string) int {
	if s == "" || s == "?" || s == "-" {
		return 0
	}
	r, _ := strconv.Atoi(s)
	return r
}
