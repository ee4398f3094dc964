package packedbook

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"github.com/klauspost/compress/zstd"

	"github.com/freeeve/openbook/internal/position"
)

// Book is a packed book loaded into memory. It is read-only and safe for
// concurrent use.
type Book struct {
	path    string
	records []record
}

// Open reads and decompresses the packed book at path.
func Open(path string) (*Book, error) {
	compressed, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read packed book: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create decoder: %w", err)
	}
	defer dec.Close()
	data, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress packed book %s: %w", path, err)
	}

	count, err := decodeHeader(data)
	if err != nil {
		return nil, fmt.Errorf("packed book %s: %w", path, err)
	}
	body := data[headerSize:]
	if count > uint64(len(body))/EntrySize {
		return nil, fmt.Errorf("packed book %s: %w: %d entries declared, %d bytes present",
			path, ErrTruncated, count, len(body))
	}

	records := make([]record, count)
	for i := range records {
		records[i] = decodeRecord(body[i*EntrySize:])
	}
	return &Book{path: path, records: records}, nil
}

// Path returns the file the book was loaded from.
func (b *Book) Path() string {
	return b.path
}

// Len returns the number of entries.
func (b *Book) Len() int {
	return len(b.records)
}

// Entries returns the book moves stored for pos, in file order.
func (b *Book) Entries(pos *position.Position) []Entry {
	key := pos.Pack()
	i := sort.Search(len(b.records), func(i int) bool {
		return bytes.Compare(b.records[i].key[:], key[:]) >= 0
	})

	var out []Entry
	for ; i < len(b.records) && b.records[i].key == key; i++ {
		r := b.records[i]
		out = append(out, Entry{
			Move:  position.Move(r.move),
			Score: int(r.score),
			Count: uint64(r.count),
		})
	}
	return out
}
