package makebook

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/freeeve/openbook/internal/book"
	"github.com/freeeve/openbook/internal/position"
)

func saveBook(t *testing.T, st *book.Store, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if _, err := st.Write(path); err != nil {
		t.Fatalf("Write(%s): %v", name, err)
	}
	return path
}

func TestMergeFiles(t *testing.T) {
	root := position.Start()
	afterE4 := play(t, root, "e2e4")
	afterD4 := play(t, root, "d2d4")

	a := book.NewStore()
	a.Insert(root.Key(), book.NewRecord(mv(t, "e2e4"), position.MoveNone, 30, 10, 1), false)
	a.Insert(afterE4.Key(), book.NewRecord(mv(t, "c7c5"), position.MoveNone, 0, 10, 1), false)

	b := book.NewStore()
	b.Insert(root.Key(), book.NewRecord(mv(t, "d2d4"), position.MoveNone, 20, 20, 1), false)
	b.Insert(afterD4.Key(), book.NewRecord(mv(t, "d7d5"), position.MoveNone, 0, 10, 1), false)

	out := filepath.Join(t.TempDir(), "merged.db")
	stats, err := MergeFiles(saveBook(t, a, "a.db"), saveBook(t, b, "b.db"), out, zerolog.Nop())
	if err != nil {
		t.Fatalf("MergeFiles: %v", err)
	}
	if stats != (book.MergeStats{Same: 1, OnlyA: 1, OnlyB: 1}) {
		t.Errorf("MergeStats = %+v", stats)
	}

	merged := book.NewStore()
	if err := merged.Read(out, false); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if merged.Len() != 3 {
		t.Errorf("merged book has %d positions, want 3", merged.Len())
	}
	// the deeper set wins
	set := merged.Find(root)
	if set == nil {
		t.Fatal("merged book has no root position")
	}
	if _, ok := set.Lookup(mv(t, "d2d4")); !ok {
		t.Error("root does not hold the deeper d2d4 set")
	}
}

func TestMergeFilesMissingInput(t *testing.T) {
	dir := t.TempDir()
	_, err := MergeFiles(filepath.Join(dir, "nope.db"), filepath.Join(dir, "nope2.db"), filepath.Join(dir, "out.db"), zerolog.Nop())
	if err == nil {
		t.Fatal("MergeFiles succeeded with missing inputs")
	}
}

func TestSortFile(t *testing.T) {
	root := position.Start()
	st := book.NewStore(book.WithIgnorePly(false))
	st.Insert(root.Key(), book.NewRecord(mv(t, "e2e4"), position.MoveNone, 0, 8, 1), false)
	st.Insert(play(t, root, "e2e4").Key(), book.NewRecord(mv(t, "e7e5"), position.MoveNone, 0, 8, 1), false)

	out := filepath.Join(t.TempDir(), "sorted.db.zst")
	stats, err := SortFile(saveBook(t, st, "in.db"), out, zerolog.Nop())
	if err != nil {
		t.Fatalf("SortFile: %v", err)
	}
	if stats.Positions != 2 || stats.Records != 2 {
		t.Errorf("WriteStats = %+v", stats)
	}

	sorted := book.NewStore()
	if err := sorted.Read(out, false); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if sorted.Len() != 2 {
		t.Errorf("sorted book has %d positions, want 2", sorted.Len())
	}
}
