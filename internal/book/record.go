package book

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/freeeve/openbook/internal/position"
)

// Record is one candidate reply in a position.
type Record struct {
	Move   position.Move
	Ponder position.Move // expected reply, MoveNone when unknown
	Value  int           // evaluation from the side to move
	Depth  int           // search depth behind Value
	Count  uint64        // occurrences, used as selection weight
	Wins   uint64
	Losses uint64
}

// NewRecord builds a record with no win/loss statistics.
func NewRecord(move, ponder position.Move, value, depth int, count uint64) Record {
	return Record{Move: move, Ponder: ponder, Value: value, Depth: depth, Count: count}
}

// Draws derives the draw count from the other counters.
func (r Record) Draws() uint64 {
	if r.Wins >= r.Count || r.Losses >= r.Count-r.Wins {
		return 0
	}
	return r.Count - r.Wins - r.Losses
}

// Less reports whether r ranks ahead of o: more occurrences first, then
// higher value.
func (r Record) Less(o Record) bool {
	if r.Count != o.Count {
		return r.Count > o.Count
	}
	return r.Value > o.Value
}

// String formats r as a book reply line.
func (r Record) String() string {
	return fmt.Sprintf("%s %s %d %d %d %d %d",
		r.Move, r.Ponder, r.Value, r.Depth, r.Count, r.Wins, r.Losses)
}

// ParseRecord parses a reply line. It never fails: unparsable moves become
// MoveNone and missing or malformed numbers take their defaults (value 0,
// depth 0, count 1, wins 0, losses 0).
func ParseRecord(line string) Record {
	fields := strings.Fields(line)
	field := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}

	move, _ := position.ParseMove(field(0))
	ponder, _ := position.ParseMove(field(1))
	return Record{
		Move:   move,
		Ponder: ponder,
		Value:  parseInt(field(2), 0),
		Depth:  parseInt(field(3), 0),
		Count:  parseUint(field(4), 1),
		Wins:   parseUint(field(5), 0),
		Losses: parseUint(field(6), 0),
	}
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func parseUint(s string, def uint64) uint64 {
	if s == "" {
		return def
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return def
	}
	return n
}

// saturatingAdd adds two counters, capping at the maximum value.
func saturatingAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}
