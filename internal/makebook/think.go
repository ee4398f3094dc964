package makebook

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/freeeve/pgn/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/freeeve/openbook/internal/book"
	"github.com/freeeve/openbook/internal/engine"
	"github.com/freeeve/openbook/internal/position"
)

// DefaultSaveInterval is how often Think saves intermediate books.
const DefaultSaveInterval = 15 * time.Minute

// SearcherFactory creates the searcher for one worker.
type SearcherFactory func(worker int) (engine.Searcher, error)

// ThinkOptions controls Think.
type ThinkOptions struct {
	Depth   int
	Width   int // candidate moves kept per position (MultiPV)
	Nodes   uint64
	Workers int

	// SavePath receives the final book. Intermediate saves go to
	// <SavePath without extension>-<n>.db every SaveInterval while new
	// results are arriving.
	SavePath     string
	SaveInterval time.Duration

	Logger zerolog.Logger
}

// ThinkStats summarizes a Think run.
type ThinkStats struct {
	Positions int64 // positions offered
	Skipped   int64 // already searched deep and wide enough
	Searched  int64
	Failed    int64
	Saves     int64
}

// CollectPositions replays the PGN files at paths and returns the distinct
// positions between plies startMoves and endMoves (inclusive, 1-based).
func CollectPositions(ctx context.Context, paths []string, startMoves, endMoves int) ([]*position.Position, error) {
	seen := make(map[string]bool)
	var out []*position.Position
	for _, path := range paths {
		parser := pgn.Games(path)
		for game := range parser.Games {
			if ctx.Err() != nil {
				parser.Stop()
				return out, ctx.Err()
			}
			pos := position.Start()
			if fen := game.Tags["FEN"]; fen != "" {
				p, err := position.FromFEN(fen)
				if err != nil {
					continue
				}
				pos = p
			}
			for ply := 1; ply <= endMoves; ply++ {
				if ply >= startMoves && !seen[pos.Key()] {
					seen[pos.Key()] = true
					out = append(out, pos)
				}
				if ply > len(game.Moves) {
					break
				}
				next, err := pos.PlayMv(game.Moves[ply-1])
				if err != nil {
					break
				}
				pos = next
			}
		}
		if err := parser.Err(); err != nil {
			return out, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return out, nil
}

// needsSearch reports whether the stored set for a position is shallower or
// narrower than requested.
func needsSearch(set *book.RecordSet, depth, width int) bool {
	if set == nil {
		return true
	}
	best, ok := set.Best()
	if !ok {
		return true
	}
	return best.Depth < depth || set.Len() < width
}

// Think searches positions with opts.Workers parallel searchers and stores
// the ranked results, replacing what the book held for each position.
// Positions already searched to the requested depth and width are skipped.
// On cancellation the workers stop taking new positions and the results so
// far are still saved.
func Think(ctx context.Context, st *book.Store, positions []*position.Position, newSearcher SearcherFactory, opts ThinkOptions) (ThinkStats, error) {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Width < 1 {
		opts.Width = 1
	}
	if opts.SaveInterval <= 0 {
		opts.SaveInterval = DefaultSaveInterval
	}

	var stats ThinkStats
	var todo []*position.Position
	for _, pos := range positions {
		stats.Positions++
		set, _ := st.FindKey(pos.Key())
		if !needsSearch(set, opts.Depth, opts.Width) {
			stats.Skipped++
			continue
		}
		todo = append(todo, pos)
	}
	opts.Logger.Info().
		Int64("positions", stats.Positions).
		Int64("skipped", stats.Skipped).
		Int("todo", len(todo)).
		Int("workers", opts.Workers).
		Msg("think started")
	if len(todo) == 0 {
		return stats, nil
	}

	searchers := make([]engine.Searcher, 0, opts.Workers)
	defer func() {
		for _, s := range searchers {
			if c, ok := s.(interface{ Close() }); ok {
				c.Close()
			}
		}
	}()
	for i := 0; i < opts.Workers; i++ {
		s, err := newSearcher(i)
		if err != nil {
			return stats, fmt.Errorf("start searcher %d: %w", i, err)
		}
		searchers = append(searchers, s)
	}

	var searched, failed int64
	var dirty atomic.Bool

	stopSaver := make(chan struct{})
	saverDone := make(chan struct{})
	go func() {
		defer close(saverDone)
		ticker := time.NewTicker(opts.SaveInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stopSaver:
				return
			case <-ticker.C:
				if opts.SavePath == "" || !dirty.Swap(false) {
					continue
				}
				stats.Saves++
				path := autosavePath(opts.SavePath, stats.Saves)
				if _, err := st.Write(path); err != nil {
					opts.Logger.Warn().Err(err).Str("path", path).Msg("autosave failed")
				}
			}
		}
	}()

	jobs := make(chan *position.Position)
	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		defer close(jobs)
		for _, pos := range todo {
			select {
			case jobs <- pos:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	for i, s := range searchers {
		grp.Go(func() error {
			for pos := range jobs {
				lines, err := s.Search(gctx, pos, opts.Depth, opts.Width, opts.Nodes)
				if err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					atomic.AddInt64(&failed, 1)
					opts.Logger.Warn().Err(err).Int("worker", i).Str("fen", pos.Key()).Msg("search failed")
					continue
				}
				set := book.NewRecordSet()
				for _, l := range lines {
					set.Insert(book.NewRecord(l.Move, l.Ponder, l.Score, l.Depth, 1), false)
				}
				if set.Len() == 0 {
					continue
				}
				st.Append(pos.Key(), set)
				dirty.Store(true)
				if n := atomic.AddInt64(&searched, 1); n%100 == 0 {
					opts.Logger.Info().Int64("searched", n).Int("todo", len(todo)).Msg("think progress")
				}
			}
			return nil
		})
	}
	err := grp.Wait()
	close(stopSaver)
	<-saverDone

	stats.Searched = searched
	stats.Failed = failed
	if opts.SavePath != "" && searched > 0 {
		if _, werr := st.Write(opts.SavePath); werr != nil && err == nil {
			err = werr
		}
	}
	opts.Logger.Info().
		Int64("searched", stats.Searched).
		Int64("failed", stats.Failed).
		Int64("saves", stats.Saves).
		Msg("think complete")
	return stats, err
}

func autosavePath(savePath string, n int64) string {
	base := strings.TrimSuffix(savePath, filepath.Ext(savePath))
	return fmt.Sprintf("%s-%d.db", base, n)
}
