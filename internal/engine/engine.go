// Package engine runs position searches for book generation.
package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/freeeve/uci"
	"github.com/rs/zerolog"

	"github.com/freeeve/openbook/internal/position"
)

// MateScore is the value reported for a mate in zero. Mate in n scores
// MateScore-n from the winning side.
const MateScore = 32000

// Line is one ranked result of a search.
type Line struct {
	Move   position.Move
	Ponder position.Move
	Score  int // from the side to move
	Depth  int
}

// Searcher searches a position and returns up to width lines, best first.
// nodes is a node budget; 0 means unlimited.
type Searcher interface {
	Search(ctx context.Context, pos *position.Position, depth, width int, nodes uint64) ([]Line, error)
}

// Config for a UCI engine process.
type Config struct {
	Path    string
	HashMB  int
	Threads int
	Logger  zerolog.Logger
}

// UCI drives an external UCI engine. A UCI value owns one engine process
// and serializes its searches.
type UCI struct {
	mu     sync.Mutex
	engine *uci.Engine
	cfg    Config
	width  int
	log    zerolog.Logger
}

// NewUCI starts the engine binary at cfg.Path.
func NewUCI(cfg Config) (*UCI, error) {
	if cfg.HashMB == 0 {
		cfg.HashMB = 256
	}
	if cfg.Threads == 0 {
		cfg.Threads = 1
	}

	eng, err := uci.NewEngine(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}
	u := &UCI{engine: eng, cfg: cfg, log: cfg.Logger}
	if err := u.setWidth(1); err != nil {
		eng.Close()
		return nil, err
	}
	return u, nil
}

func (u *UCI) setWidth(width int) error {
	if width == u.width {
		return nil
	}
	opts := uci.Options{
		Hash:    u.cfg.HashMB,
		Threads: u.cfg.Threads,
		MultiPV: width,
		Ponder:  false,
		OwnBook: false,
	}
	if err := u.engine.SetOptions(opts); err != nil {
		return fmt.Errorf("set options: %w", err)
	}
	u.width = width
	return nil
}

// Search runs a fixed-depth multi-PV search. The node budget is not
// supported by the driver and only logged.
func (u *UCI) Search(ctx context.Context, pos *position.Position, depth, width int, nodes uint64) ([]Line, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if width < 1 {
		width = 1
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if err := u.setWidth(width); err != nil {
		return nil, err
	}
	if nodes > 0 {
		u.log.Debug().Uint64("nodes", nodes).Msg("node budget ignored, searching by depth")
	}
	if err := u.engine.SetFEN(pos.Key()); err != nil {
		return nil, fmt.Errorf("set FEN: %w", err)
	}
	results, err := u.engine.GoDepth(depth, uci.HighestDepthOnly)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", pos.Key(), err)
	}

	lines := make([]rankedLine, 0, len(results.Results))
	for _, r := range results.Results {
		if len(r.BestMoves) == 0 {
			continue
		}
		move, err := position.ParseMove(r.BestMoves[0])
		if err != nil {
			continue
		}
		ponder := position.MoveNone
		if len(r.BestMoves) > 1 {
			ponder, _ = position.ParseMove(r.BestMoves[1])
		}
		lines = append(lines, rankedLine{
			rank: r.MultiPV,
			Line: Line{Move: move, Ponder: ponder, Score: scoreOf(r.Score, r.Mate), Depth: depth},
		})
	}
	return rankLines(lines, width), nil
}

// Close stops the engine process.
func (u *UCI) Close() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.engine.Close()
}

type rankedLine struct {
	rank int
	Line
}

// rankLines orders lines by their multipv rank, drops repeated moves and
// keeps at most width.
func rankLines(lines []rankedLine, width int) []Line {
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].rank < lines[j].rank })
	out := make([]Line, 0, width)
	seen := make(map[position.Move]bool, len(lines))
	for _, l := range lines {
		if seen[l.Move] || len(out) == width {
			continue
		}
		seen[l.Move] = true
		out = append(out, l.Line)
	}
	return out
}

// scoreOf converts a UCI score to a book value. Mate distances map to
// values near MateScore.
func scoreOf(score int, mate bool) int {
	if !mate {
		return score
	}
	switch {
	case score > 0:
		return MateScore - score
	case score < 0:
		return -MateScore - score
	}
	return -MateScore
}
