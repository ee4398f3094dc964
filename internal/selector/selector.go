// Package selector chooses a move from the opening book.
package selector

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/freeeve/openbook/internal/book"
	"github.com/freeeve/openbook/internal/position"
)

// ErrIllegalBookMove is logged when the book suggests a move that is not
// legal in the probed position.
var ErrIllegalBookMove = errors.New("book move is illegal")

// Finder looks up the candidate replies of a position.
type Finder interface {
	Find(pos *position.Position) *book.RecordSet
}

// Decision is a chosen book move.
type Decision struct {
	Move       position.Move
	Ponder     position.Move
	Candidates []book.Record // candidates left after filtering, best first
}

// Option configures a Selector.
type Option func(*Selector)

// WithRand sets the random source. Tests use it for reproducible draws.
func WithRand(r *rand.Rand) Option {
	return func(s *Selector) { s.rng = r }
}

// WithLogger sets the logger that receives candidate diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Selector) { s.log = log }
}

// WithMetrics attaches probe counters.
func WithMetrics(m *Metrics) Option {
	return func(s *Selector) { s.metrics = m }
}

// Selector applies the book filters and draws a move. It is safe for
// concurrent use.
type Selector struct {
	store   Finder
	opts    Options
	log     zerolog.Logger
	metrics *Metrics

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New returns a selector over store.
func New(store Finder, opts Options, setters ...Option) *Selector {
	s := &Selector{
		store: store,
		opts:  opts,
		log:   zerolog.Nop(),
	}
	for _, set := range setters {
		set(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return s
}

// Options returns the selector settings.
func (s *Selector) Options() Options {
	return s.opts
}

func (s *Selector) intn(n int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Intn(n)
}

// uint64n returns a uniform value in [0, n) for any n > 0. Draws from the
// biased tail of the 64-bit range are rejected.
func (s *Selector) uint64n(n uint64) uint64 {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	if n&(n-1) == 0 {
		return s.rng.Uint64() & (n - 1)
	}
	threshold := -n % n
	for {
		if v := s.rng.Uint64(); v >= threshold {
			return v % n
		}
	}
}

// Decide picks a book move for pos. Unless silent, every stored candidate
// is logged with its principal variation. forceHit skips the ignore roll,
// the ply ceiling and the filters, keeping only the best-valued candidates
// and drawing among them by occurrence count; it is used to extend the
// diagnostic PV.
func (s *Selector) Decide(pos *position.Position, silent, forceHit bool) (Decision, bool) {
	if !forceHit {
		if s.opts.IgnoreRate > s.intn(100) {
			s.metrics.ignore()
			return Decision{}, false
		}
		if pos.Ply() > s.opts.BookMoves {
			return Decision{}, false
		}
	}

	set := s.store.Find(pos)
	if set == nil || set.Len() == 0 {
		return Decision{}, false
	}
	moves := set.Records()

	if !silent {
		s.report(pos, moves)
	}

	if forceHit {
		best := moves[0].Value
		moves = filter(moves, func(r book.Record) bool { return r.Value == best })
	} else {
		moves = s.applyFilters(pos, moves, silent)
	}
	if len(moves) == 0 {
		return Decision{}, false
	}

	pick := moves[s.intn(len(moves))]
	if forceHit || s.opts.ConsiderMoveCount {
		pick = s.weightedPick(moves, pick)
	}

	ponder := pick.Ponder
	if ponder == position.MoveNone {
		ponder = s.ponderFor(pos, pick.Move)
	}
	return Decision{Move: pick.Move, Ponder: ponder, Candidates: moves}, true
}

func (s *Selector) applyFilters(pos *position.Position, moves []book.Record, silent bool) []book.Record {
	if total := totalCount(moves); s.opts.NarrowBook && total > 0 {
		n := len(moves)
		moves = filter(moves, func(r book.Record) bool {
			return float64(r.Count)/float64(total) >= narrowThreshold
		})
		if !silent && len(moves) != n {
			s.log.Info().Int("before", n).Int("after", len(moves)).Msg("narrow book")
		}
	}
	if len(moves) == 0 {
		return nil
	}

	if s.opts.DepthLimit != 0 && moves[0].Depth < s.opts.DepthLimit {
		if !silent {
			s.log.Info().
				Int("depth", moves[0].Depth).
				Int("depth_limit", s.opts.DepthLimit).
				Msg("book moves rejected by depth limit")
		}
		return nil
	}

	limit := moves[0].Value - s.opts.EvalDiff
	sideLimit := s.opts.EvalBlackLimit
	if pos.SideToMove() == position.Black {
		sideLimit = s.opts.EvalWhiteLimit
	}
	if sideLimit > limit {
		limit = sideLimit
	}
	n := len(moves)
	moves = filter(moves, func(r book.Record) bool { return r.Value >= limit })
	if !silent && len(moves) != n {
		s.log.Info().
			Int("eval_limit", limit).
			Int("before", n).
			Int("after", len(moves)).
			Msg("book moves filtered by value")
	}
	return moves
}

// weightedPick draws one candidate with probability proportional to its
// count in a single pass. If every count is zero each candidate weighs 1.
func (s *Selector) weightedPick(moves []book.Record, fallback book.Record) book.Record {
	uniform := totalCount(moves) == 0
	pick := fallback
	var running uint64
	for _, r := range moves {
		w := r.Count
		if uniform {
			w = 1
		}
		running = saturatingAdd(running, w)
		if running > 0 && s.uint64n(running) < w {
			pick = r
		}
	}
	return pick
}

// ponderFor looks up the expected reply after m in the book.
func (s *Selector) ponderFor(pos *position.Position, m position.Move) position.Move {
	next, err := pos.Play(m)
	if err != nil {
		return position.MoveNone
	}
	set := s.store.Find(next)
	if set == nil {
		return position.MoveNone
	}
	best, ok := set.Best()
	if !ok {
		return position.MoveNone
	}
	return best.Move
}

// Probe returns a legal book move for pos, or false. It never logs
// candidate diagnostics.
func (s *Selector) Probe(pos *position.Position) (position.Move, bool) {
	s.metrics.probe()
	d, ok := s.Decide(pos, true, false)
	if ok && !s.legal(pos, d.Move) {
		ok = false
	}
	s.metrics.result(ok)
	if !ok {
		return position.MoveNone, false
	}
	return d.Move, true
}

// ProbeRoot is the engine-facing probe: it honors OwnBook and returns the
// full decision.
func (s *Selector) ProbeRoot(pos *position.Position, silent bool) (Decision, bool) {
	if !s.opts.OwnBook {
		return Decision{}, false
	}
	s.metrics.probe()
	d, ok := s.Decide(pos, silent, false)
	if ok && !s.legal(pos, d.Move) {
		ok = false
	}
	s.metrics.result(ok)
	if !ok {
		return Decision{}, false
	}
	return d, true
}

func (s *Selector) legal(pos *position.Position, m position.Move) bool {
	if _, ok := pos.Legal(m); ok {
		return true
	}
	s.metrics.illegalMove()
	s.log.Error().
		Err(ErrIllegalBookMove).
		Str("fen", pos.Key()).
		Str("move", m.String()).
		Msg("book probe")
	return false
}

// report logs one line per stored candidate.
func (s *Selector) report(pos *position.Position, moves []book.Record) {
	total := totalCount(moves)
	if total == 0 {
		total = 1
	}
	for i, r := range moves {
		ev := s.log.Info().
			Int("multipv", i+1).
			Int("score", r.Value).
			Int("depth", r.Depth).
			Str("pv", s.pvString(pos, r)).
			Str("rate", fmt.Sprintf("%.2f%%", 100*float64(r.Count)/float64(total)))
		// engine-searched records carry no game results
		if r.Wins != 0 || r.Losses != 0 {
			ev = ev.Str("wdl", fmt.Sprintf("%d-%d-%d", r.Wins, r.Draws(), r.Losses))
		}
		ev.Msg("book")
	}
}

// totalCount sums the counts, saturating at math.MaxUint64.
func totalCount(moves []book.Record) uint64 {
	var total uint64
	for _, r := range moves {
		total = saturatingAdd(total, r.Count)
	}
	return total
}

func saturatingAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}

func filter(moves []book.Record, keep func(book.Record) bool) []book.Record {
	out := moves[:0]
	for _, r := range moves {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
