package book

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/klauspost/compress/zstd"

	"github.com/freeeve/openbook/internal/position"
)

// WriteStats summarizes a Write.
type WriteStats struct {
	Positions  int // headers written
	Records    int // reply lines written
	Empty      int // keys skipped because their set was empty
	Duplicates int // keys dropped in favour of the same position at a lower move number
	Unparsable int // keys the position encoder rejected, written as they were
}

type writeEntry struct {
	key    string
	prefix string
	ply    int
	set    *RecordSet
}

// Write saves the resident book to path in sorted text form. Keys are
// rewritten into canonical FEN, and a position stored under several move
// numbers is written once, at the lowest. Paths ending in ".zst" are
// compressed.
//
// The file is written to a temporary path and renamed into place.
func (s *Store) Write(path string) (WriteStats, error) {
	s.mu.RLock()
	ignorePly := s.ignorePly
	entries := make([]writeEntry, 0, len(s.body))
	var stats WriteStats
	for key, set := range s.body {
		if set.Len() == 0 {
			stats.Empty++
			continue
		}
		entries = append(entries, writeEntry{key: key, set: set})
	}
	s.mu.RUnlock()

	minPly := make(map[string]int, len(entries))
	for i := range entries {
		e := &entries[i]
		if ignorePly {
			// keys carry no move number to canonicalize or compare
			e.prefix = e.key
			continue
		}
		if canon, err := position.Canonical(e.key); err == nil {
			e.key = canon
		} else {
			stats.Unparsable++
		}
		e.prefix, e.ply = position.SplitPly(e.key)
		if cur, ok := minPly[e.prefix]; !ok || e.ply < cur {
			minPly[e.prefix] = e.ply
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].key < entries[j].key
	})

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return stats, &FileError{Op: "create", Path: path, Kind: ErrFileOpen, Err: err}
	}

	if err := writeEntries(f, path, entries, minPly, ignorePly, &stats); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return stats, &FileError{Op: "write", Path: path, Kind: ErrFileWrite, Err: err}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return stats, &FileError{Op: "close", Path: path, Kind: ErrFileWrite, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return stats, &FileError{Op: "rename", Path: path, Kind: ErrFileWrite, Err: err}
	}

	s.log.Info().
		Str("path", path).
		Int("positions", stats.Positions).
		Int("records", stats.Records).
		Int("duplicates", stats.Duplicates).
		Int("unparsable", stats.Unparsable).
		Msg("book written")
	return stats, nil
}

func writeEntries(f *os.File, path string, entries []writeEntry, minPly map[string]int, ignorePly bool, stats *WriteStats) error {
	var out io.Writer = f
	var enc *zstd.Encoder
	if isCompressed(path) {
		var err error
		enc, err = zstd.NewWriter(f)
		if err != nil {
			return err
		}
		out = enc
	}

	w := bufio.NewWriterSize(out, 1<<20)
	if _, err := fmt.Fprintln(w, VersionLine); err != nil {
		return err
	}
	var last string
	for _, e := range entries {
		if e.key == last || (!ignorePly && minPly[e.prefix] != e.ply) {
			stats.Duplicates++
			continue
		}
		last = e.key
		if _, err := fmt.Fprintf(w, "%s%s\n", HeaderPrefix, e.key); err != nil {
			return err
		}
		for _, r := range e.set.Records() {
			if _, err := fmt.Fprintln(w, r.String()); err != nil {
				return err
			}
			stats.Records++
		}
		stats.Positions++
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if enc != nil {
		return enc.Close()
	}
	return nil
}
