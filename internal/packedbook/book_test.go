package packedbook

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/freeeve/openbook/internal/position"
)

func mustMove(t *testing.T, s string) position.Move {
	t.Helper()
	m, err := position.ParseMove(s)
	if err != nil {
		t.Fatalf("ParseMove(%q): %v", s, err)
	}
	return m
}

func TestWriterOpenRoundTrip(t *testing.T) {
	root := position.Start()
	afterE4, err := root.Play(mustMove(t, "e2e4"))
	if err != nil {
		t.Fatalf("Play: %v", err)
	}

	w := NewWriter()
	w.Add(afterE4, Entry{Move: mustMove(t, "c7c5"), Score: -20, Count: 7})
	w.Add(root, Entry{Move: mustMove(t, "e2e4"), Score: 30, Count: 10})
	w.Add(root, Entry{Move: mustMove(t, "d2d4"), Score: 25, Count: 5})
	w.Add(afterE4, Entry{Move: mustMove(t, "e7e5"), Score: 40000, Count: 1 << 40})

	path := filepath.Join(t.TempDir(), "book.bin")
	if err := w.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	b, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if b.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", b.Len())
	}

	got := b.Entries(root)
	if len(got) != 2 {
		t.Fatalf("Entries(root) = %d entries, want 2", len(got))
	}
	if got[0].Move != mustMove(t, "e2e4") || got[0].Score != 30 || got[0].Count != 10 {
		t.Errorf("Entries(root)[0] = %+v", got[0])
	}
	if got[1].Move != mustMove(t, "d2d4") {
		t.Errorf("Entries(root)[1].Move = %v, want d2d4", got[1].Move)
	}

	reply := b.Entries(afterE4)
	if len(reply) != 2 {
		t.Fatalf("Entries(afterE4) = %d entries, want 2", len(reply))
	}
	if reply[1].Score != 32767 {
		t.Errorf("clamped score = %d, want 32767", reply[1].Score)
	}
	if reply[1].Count != 1<<32-1 {
		t.Errorf("clamped count = %d, want %d", reply[1].Count, uint64(1<<32-1))
	}

	other, err := afterE4.Play(mustMove(t, "c7c5"))
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	if e := b.Entries(other); len(e) != 0 {
		t.Errorf("Entries(unknown) = %v, want none", e)
	}
}

func TestOpenRejectsBadMagic(t *testing.T) {
	buf := make([]byte, headerSize)
	copy(buf, "NOPE")
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "book.bin")
	if err := os.WriteFile(path, enc.EncodeAll(buf, nil), 0o644); err != nil {
		t.Fatal(err)
	}
	enc.Close()

	if _, err := Open(path); !errors.Is(err, ErrBadMagic) {
		t.Errorf("Open = %v, want ErrBadMagic", err)
	}
}

func TestOpenRejectsTruncated(t *testing.T) {
	buf := make([]byte, headerSize+EntrySize)
	encodeHeader(buf, 3)
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "book.bin")
	if err := os.WriteFile(path, enc.EncodeAll(buf, nil), 0o644); err != nil {
		t.Fatal(err)
	}
	enc.Close()

	if _, err := Open(path); !errors.Is(err, ErrTruncated) {
		t.Errorf("Open = %v, want ErrTruncated", err)
	}
}

func TestOpenRejectsOversizedCount(t *testing.T) {
	buf := make([]byte, headerSize+EntrySize)
	encodeHeader(buf, 1<<63)
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "book.bin")
	if err := os.WriteFile(path, enc.EncodeAll(buf, nil), 0o644); err != nil {
		t.Fatal(err)
	}
	enc.Close()

	if _, err := Open(path); !errors.Is(err, ErrTruncated) {
		t.Errorf("Open = %v, want ErrTruncated", err)
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing.bin")); err == nil {
		t.Error("Open(missing) expected error")
	}
}
