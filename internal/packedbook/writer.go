package packedbook

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"github.com/klauspost/compress/zstd"

	"github.com/freeeve/openbook/internal/position"
)

// Writer accumulates entries and writes them as a packed book.
type Writer struct {
	records []record
}

// NewWriter returns an empty writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Add records e as a book move of pos. Scores and counts are clamped to
// the field widths.
func (w *Writer) Add(pos *position.Position, e Entry) {
	w.records = append(w.records, record{
		key:   pos.Pack(),
		move:  uint16(e.Move),
		score: clampScore(e.Score),
		count: clampCount(e.Count),
	})
}

// Len returns the number of entries added.
func (w *Writer) Len() int {
	return len(w.records)
}

// WriteFile sorts the entries and writes them to path through a temporary
// file.
func (w *Writer) WriteFile(path string) error {
	sort.SliceStable(w.records, func(i, j int) bool {
		return bytes.Compare(w.records[i].key[:], w.records[j].key[:]) < 0
	})

	buf := make([]byte, headerSize+len(w.records)*EntrySize)
	encodeHeader(buf, uint64(len(w.records)))
	for i, r := range w.records {
		encodeRecord(buf[headerSize+i*EntrySize:], r)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("create encoder: %w", err)
	}
	compressed := enc.EncodeAll(buf, nil)
	enc.Close()

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, compressed, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write packed book %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename packed book %s: %w", path, err)
	}
	return nil
}
