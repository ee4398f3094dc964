package selector

import (
	"strings"

	"github.com/freeeve/openbook/internal/book"
	"github.com/freeeve/openbook/internal/position"
)

// pvString renders the book line that starts with r.
func (s *Selector) pvString(pos *position.Position, r book.Record) string {
	switch {
	case s.opts.PVMoves <= 1:
		return r.Move.String()
	case s.opts.PVMoves == 2:
		return r.Move.String() + " " + r.Ponder.String()
	}

	var sb strings.Builder
	sb.WriteString(r.Move.String())
	if !s.extendPV(&sb, pos, r.Move, s.opts.PVMoves-3, make(map[string]bool)) {
		sb.WriteString(" " + r.Ponder.String())
	}
	return sb.String()
}

// extendPV appends the book continuation after m to sb and reports whether
// anything was added. A position seen earlier on the line ends it with
// "rep".
func (s *Selector) extendPV(sb *strings.Builder, pos *position.Position, m position.Move, depth int, seen map[string]bool) bool {
	key := pos.RepetitionKey()
	if seen[key] {
		sb.WriteString(" rep")
		return true
	}
	seen[key] = true
	defer delete(seen, key)

	next, err := pos.Play(m)
	if err != nil {
		return false
	}
	d, ok := s.Decide(next, true, true)
	if !ok {
		return false
	}

	sb.WriteString(" " + d.Move.String())
	if depth > 0 && s.extendPV(sb, next, d.Move, depth-1, seen) {
		return true
	}
	sb.WriteString(" " + d.Ponder.String())
	return true
}
