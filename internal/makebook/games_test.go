package makebook

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/freeeve/openbook/internal/book"
	"github.com/freeeve/openbook/internal/position"
)

const samplePGN = `[Event "one"]
[White "a"]
[Black "b"]
[Result "1-0"]
[WhiteElo "2000"]
[BlackElo "2100"]

1. e4 e5 2. Nf3 Nc6 1-0

[Event "two"]
[White "c"]
[Black "d"]
[Result "0-1"]
[WhiteElo "2200"]
[BlackElo "1900"]

1. e4 c5 0-1
`

func writePGN(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "games.pgn")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func mv(t *testing.T, s string) position.Move {
	t.Helper()
	m, err := position.ParseMove(s)
	if err != nil {
		t.Fatalf("ParseMove(%q): %v", s, err)
	}
	return m
}

func play(t *testing.T, pos *position.Position, moves ...string) *position.Position {
	t.Helper()
	for _, s := range moves {
		next, err := pos.Play(mv(t, s))
		if err != nil {
			t.Fatalf("Play(%s): %v", s, err)
		}
		pos = next
	}
	return pos
}

func lookup(t *testing.T, st *book.Store, pos *position.Position, move string) book.Record {
	t.Helper()
	set, ok := st.FindKey(pos.Key())
	if !ok {
		t.Fatalf("no book entry for %s", pos.Key())
	}
	r, ok := set.Lookup(mv(t, move))
	if !ok {
		t.Fatalf("no record for %s in %s", move, pos.Key())
	}
	return r
}

func TestFromGamesAccumulates(t *testing.T) {
	st := book.NewStore()
	stats, err := FromGames(context.Background(), st, []string{writePGN(t, samplePGN)}, GamesOptions{})
	if err != nil {
		t.Fatalf("FromGames: %v", err)
	}
	if stats.Games != 2 || stats.Positions != 6 {
		t.Errorf("GamesStats = %+v, want 2 games and 6 positions", stats)
	}

	root := position.Start()
	e4 := lookup(t, st, root, "e2e4")
	if e4.Count != 2 || e4.Wins != 1 || e4.Losses != 1 {
		t.Errorf("e2e4 = %+v, want count 2 with one win and one loss", e4)
	}
	if e4.Depth != gameRecordDepth {
		t.Errorf("e2e4 depth = %d, want %d", e4.Depth, gameRecordDepth)
	}

	afterE4 := play(t, root, "e2e4")
	e5 := lookup(t, st, afterE4, "e7e5")
	if e5.Ponder != mv(t, "g1f3") {
		t.Errorf("e7e5 ponder = %v, want g1f3", e5.Ponder)
	}
	if e5.Losses != 1 || e5.Wins != 0 {
		t.Errorf("e7e5 = %+v, want a loss for black", e5)
	}
	c5 := lookup(t, st, afterE4, "c7c5")
	if c5.Wins != 1 || c5.Ponder != position.MoveNone {
		t.Errorf("c7c5 = %+v, want a win for black and no ponder", c5)
	}
}

func TestFromGamesFilters(t *testing.T) {
	path := writePGN(t, samplePGN)

	st := book.NewStore()
	stats, err := FromGames(context.Background(), st, []string{path}, GamesOptions{RatingMin: 2000})
	if err != nil {
		t.Fatalf("FromGames: %v", err)
	}
	if stats.Games != 1 || stats.Skipped != 1 {
		t.Errorf("rating filter stats = %+v", stats)
	}

	st = book.NewStore()
	if _, err := FromGames(context.Background(), st, []string{path}, GamesOptions{Moves: 1}); err != nil {
		t.Fatalf("FromGames: %v", err)
	}
	if st.Len() != 1 {
		t.Errorf("Moves=1 stored %d positions, want 1", st.Len())
	}

	st = book.NewStore()
	if _, err := FromGames(context.Background(), st, []string{path}, GamesOptions{Side: "b"}); err != nil {
		t.Fatalf("FromGames: %v", err)
	}
	if _, ok := st.FindKey(position.Start().Key()); ok {
		t.Error("Side=b recorded a white-to-move position")
	}
	if _, ok := st.FindKey(play(t, position.Start(), "e2e4").Key()); !ok {
		t.Error("Side=b missed a black-to-move position")
	}
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		result string
		side   position.Color
		wins   uint64
		losses uint64
	}{
		{"1-0", position.White, 1, 0},
		{"1-0", position.Black, 0, 1},
		{"0-1", position.White, 0, 1},
		{"0-1", position.Black, 1, 0},
		{"1/2-1/2", position.White, 0, 0},
		{"*", position.Black, 0, 0},
	}
	for _, tt := range tests {
		w, l := outcome(tt.result, tt.side)
		if w != tt.wins || l != tt.losses {
			t.Errorf("outcome(%q, %v) = (%d, %d), want (%d, %d)", tt.result, tt.side, w, l, tt.wins, tt.losses)
		}
	}
}

func TestCollectPositions(t *testing.T) {
	path := writePGN(t, samplePGN)
	positions, err := CollectPositions(context.Background(), []string{path}, 2, 3)
	if err != nil {
		t.Fatalf("CollectPositions: %v", err)
	}
	// ply 2: after 1.e4 (shared), ply 3: after 1...e5 and after 1...c5
	if len(positions) != 3 {
		keys := make([]string, len(positions))
		for i, p := range positions {
			keys[i] = p.Key()
		}
		t.Fatalf("got %d positions, want 3: %q", len(positions), keys)
	}
	if positions[0].Key() != play(t, position.Start(), "e2e4").Key() {
		t.Errorf("first position = %q", positions[0].Key())
	}
}
