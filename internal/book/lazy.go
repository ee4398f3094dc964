package book

import (
	"bufio"
	"io"
	"strings"
)

// minRecordSize is a lower bound on the distance between two headers in a
// book file. Once the search window is narrower, a linear scan decides.
const minRecordSize = 40

// headerMargin is how far before the probe offset the scan starts, so a
// header beginning right at the offset is not lost when the partial line is
// skipped.
const headerMargin = 2

// lineReader reads lines from a file section while tracking the offset of
// the next unread byte.
type lineReader struct {
	r   *bufio.Reader
	off int64
}

func newLineReader(f io.ReaderAt, off, size int64) *lineReader {
	return &lineReader{
		r:   bufio.NewReader(io.NewSectionReader(f, off, size-off)),
		off: off,
	}
}

// next returns the next line without its terminator. ok is false at EOF.
func (lr *lineReader) next() (line string, ok bool) {
	s, err := lr.r.ReadString('\n')
	if s == "" && err != nil {
		return "", false
	}
	lr.off += int64(len(s))
	return strings.TrimRight(s, "\r\n"), true
}

// nextHeader returns the key of the first header at or after roughly off,
// and a reader positioned just after that header. key is empty when the
// file has no further header.
func (s *Store) nextHeader(off int64) (key string, lr *lineReader) {
	s.stats.IncrementSeeks()
	off -= headerMargin
	if off < 0 {
		off = 0
	}
	lr = newLineReader(s.file, off, s.size)
	if off > 0 {
		// skip the partial line
		lr.next()
	}
	for {
		line, ok := lr.next()
		if !ok {
			return "", lr
		}
		if strings.HasPrefix(line, HeaderPrefix) {
			return s.normalize(line[len(HeaderPrefix):]), lr
		}
	}
}

// findLazy bisects the sorted book file for key. The store lock is held for
// the whole search.
func (s *Store) findLazy(key string) *RecordSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeLazy || s.file == nil {
		return nil
	}

	var lr *lineReader
	lo, hi := int64(0), s.size
	for {
		m := (lo + hi) / 2
		found, r := s.nextHeader(m)
		switch {
		case found == "" || key < found:
			hi = m
		case key > found:
			lo = r.off
		default:
			lr = r
		}
		if lr != nil {
			break
		}
		if lo+minRecordSize > hi {
			found, r = s.nextHeader(lo)
			if found != key {
				return nil
			}
			lr = r
			break
		}
	}

	set := NewRecordSet()
	for {
		line, ok := lr.next()
		if !ok {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" || isComment(line) {
			continue
		}
		if strings.HasPrefix(line, HeaderPrefix) {
			break
		}
		set.Append(ParseRecord(line))
	}
	return set
}
