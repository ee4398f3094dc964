package makebook

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/freeeve/openbook/internal/book"
	"github.com/freeeve/openbook/internal/packedbook"
	"github.com/freeeve/openbook/internal/position"
)

const (
	convertDepth         = 1
	convertProgressEvery = 100000
)

// ConvertStats summarizes a packed book conversion.
type ConvertStats struct {
	Visited    int // distinct positions examined
	Positions  int // positions written to the book
	Entries    int
	Collisions int // positions whose entries held an illegal move
}

type converter struct {
	fb    book.ForeignBook
	st    *book.Store
	log   zerolog.Logger
	seen  map[string]bool
	stats ConvertStats
}

// ConvertPacked walks every position reachable from the initial position
// through book moves and copies its packed entries into st. Positions
// whose entries contain an illegal move are treated as key collisions and
// their subtree is abandoned. Packed books carry no ponder move, so each
// record gets the best book reply of the position it leads to.
func ConvertPacked(ctx context.Context, fb book.ForeignBook, st *book.Store, log zerolog.Logger) (ConvertStats, error) {
	c := &converter{fb: fb, st: st, log: log, seen: make(map[string]bool)}
	err := c.visit(ctx, position.Start())
	c.report()
	return c.stats, err
}

func (c *converter) report() {
	c.log.Info().
		Int("visited", c.stats.Visited).
		Int("positions", c.stats.Positions).
		Int("entries", c.stats.Entries).
		Int("collisions", c.stats.Collisions).
		Msg("convert progress")
}

func (c *converter) visit(ctx context.Context, pos *position.Position) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	trimmed := position.TrimPly(pos.Key())
	if c.seen[trimmed] {
		return nil
	}
	c.seen[trimmed] = true
	c.stats.Visited++
	if c.stats.Visited%convertProgressEvery == 0 {
		c.report()
	}

	entries := c.fb.Entries(pos)
	if len(entries) == 0 {
		return nil
	}
	for _, e := range entries {
		if _, ok := pos.Legal(e.Move); !ok {
			c.stats.Collisions++
			c.log.Debug().Str("fen", pos.Key()).Str("move", e.Move.String()).Msg("illegal packed move")
			return nil
		}
	}

	for _, m := range pos.LegalMoves() {
		next, err := pos.Play(m)
		if err != nil {
			continue
		}
		if err := c.visit(ctx, next); err != nil {
			return err
		}
	}

	key := pos.Key()
	for _, e := range entries {
		c.st.Insert(key, book.NewRecord(e.Move, position.MoveNone, e.Score, convertDepth, e.Count), true)
	}
	set, ok := c.st.FindKey(key)
	if !ok {
		return nil
	}
	set.Sort()
	set.ForEach(func(r *book.Record) {
		next, err := pos.Play(r.Move)
		if err != nil {
			return
		}
		if child, ok := c.st.FindKey(next.Key()); ok {
			if best, ok := child.Best(); ok {
				r.Ponder = best.Move
			}
		}
	})
	c.stats.Positions++
	c.stats.Entries += len(entries)
	return nil
}

// ConvertPackedFile converts the packed book at src into a text book at dst.
func ConvertPackedFile(ctx context.Context, src, dst string, log zerolog.Logger) (ConvertStats, error) {
	fb, err := packedbook.Open(src)
	if err != nil {
		return ConvertStats{}, err
	}
	log.Info().Str("path", src).Int("entries", fb.Len()).Msg("packed book loaded")

	st := book.NewStore(book.WithLogger(log))
	stats, err := ConvertPacked(ctx, fb, st, log)
	if err != nil {
		return stats, err
	}
	if _, err := st.Write(dst); err != nil {
		return stats, err
	}
	return stats, nil
}

// ExportStats summarizes an export to packed form.
type ExportStats struct {
	Positions  int
	Entries    int
	Unparsable int
}

// ExportPacked writes the text book at src as a packed book at dst.
func ExportPacked(src, dst string, log zerolog.Logger) (ExportStats, error) {
	st, err := readResident(src, log)
	if err != nil {
		return ExportStats{}, err
	}

	var stats ExportStats
	w := packedbook.NewWriter()
	st.ForEach(func(key string, set *book.RecordSet) {
		pos, err := position.FromFEN(key)
		if err != nil {
			stats.Unparsable++
			return
		}
		for _, r := range set.Records() {
			w.Add(pos, packedbook.Entry{Move: r.Move, Score: r.Value, Count: r.Count})
			stats.Entries++
		}
		stats.Positions++
	})
	if err := w.WriteFile(dst); err != nil {
		return stats, err
	}
	log.Info().
		Int("positions", stats.Positions).
		Int("entries", stats.Entries).
		Int("unparsable", stats.Unparsable).
		Msg("packed book written")
	return stats, nil
}
