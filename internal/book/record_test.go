package book

import (
	"testing"

	"github.com/freeeve/openbook/internal/position"
)

func mv(t *testing.T, s string) position.Move {
	t.Helper()
	m, err := position.ParseMove(s)
	if err != nil {
		t.Fatalf("ParseMove(%q): %v", s, err)
	}
	return m
}

func TestParseRecord(t *testing.T) {
	tests := []struct {
		line string
		want Record
	}{
		{
			"e2e4 e7e5 35 20 12 5 3",
			Record{Move: mv(t, "e2e4"), Ponder: mv(t, "e7e5"), Value: 35, Depth: 20, Count: 12, Wins: 5, Losses: 3},
		},
		{
			"d2d4 none -12 8",
			Record{Move: mv(t, "d2d4"), Value: -12, Depth: 8, Count: 1},
		},
		{
			"g1f3",
			Record{Move: mv(t, "g1f3"), Count: 1},
		},
		{
			"resign resign",
			Record{Count: 1},
		},
		{
			"c2c4 c7c5 x 10 notanumber",
			Record{Move: mv(t, "c2c4"), Ponder: mv(t, "c7c5"), Depth: 10, Count: 1},
		},
	}
	for _, tt := range tests {
		if got := ParseRecord(tt.line); got != tt.want {
			t.Errorf("ParseRecord(%q) = %+v, want %+v", tt.line, got, tt.want)
		}
	}
}

func TestRecordStringRoundTrip(t *testing.T) {
	r := Record{Move: mv(t, "e7e8q"), Ponder: position.MoveNone, Value: -140, Depth: 32, Count: 9, Wins: 4, Losses: 2}
	line := r.String()
	if line != "e7e8q none -140 32 9 4 2" {
		t.Errorf("String() = %q", line)
	}
	if got := ParseRecord(line); got != r {
		t.Errorf("ParseRecord(String()) = %+v, want %+v", got, r)
	}
}

func TestRecordDraws(t *testing.T) {
	if d := (Record{Count: 10, Wins: 3, Losses: 4}).Draws(); d != 3 {
		t.Errorf("Draws() = %d, want 3", d)
	}
	if d := (Record{Count: 2, Wins: 3, Losses: 4}).Draws(); d != 0 {
		t.Errorf("Draws() = %d, want 0", d)
	}
}

func TestRecordLess(t *testing.T) {
	a := Record{Count: 5, Value: 0}
	b := Record{Count: 3, Value: 100}
	c := Record{Count: 3, Value: 50}
	if !a.Less(b) || b.Less(a) {
		t.Error("higher count should rank first")
	}
	if !b.Less(c) || c.Less(b) {
		t.Error("higher value should break count ties")
	}
	if c.Less(c) {
		t.Error("Less must be irreflexive")
	}
}
