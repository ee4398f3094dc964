// Package packedbook reads and writes packed binary opening books.
//
// File layout (zstd-compressed as a whole):
//
//	magic   "OBPK"       4 bytes
//	version uint16       2 bytes
//	count   uint64       8 bytes
//	entries count × 42 bytes, sorted by key
//
// Entry layout, big-endian:
//   - Key (pgn.PackedPosition): 34 bytes
//   - Move (position.Move): 2 bytes
//   - Score (int16): 2 bytes, from the side to move
//   - Count (uint32): 4 bytes
package packedbook

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/freeeve/pgn/v3"

	"github.com/freeeve/openbook/internal/position"
)

const (
	Magic      = "OBPK"
	Version    = 1
	KeySize    = 34
	EntrySize  = KeySize + 2 + 2 + 4 // 42 bytes
	headerSize = 4 + 2 + 8
)

var (
	ErrBadMagic   = errors.New("not a packed book")
	ErrBadVersion = errors.New("unsupported packed book version")
	ErrTruncated  = errors.New("packed book truncated")
)

// Entry is one move of a packed book position.
type Entry struct {
	Move  position.Move
	Score int
	Count uint64
}

type record struct {
	key   pgn.PackedPosition
	move  uint16
	score int16
	count uint32
}

func encodeHeader(buf []byte, count uint64) {
	copy(buf[0:4], Magic)
	binary.BigEndian.PutUint16(buf[4:6], Version)
	binary.BigEndian.PutUint64(buf[6:14], count)
}

func decodeHeader(data []byte) (uint64, error) {
	if len(data) < headerSize {
		return 0, ErrTruncated
	}
	if string(data[0:4]) != Magic {
		return 0, ErrBadMagic
	}
	if v := binary.BigEndian.Uint16(data[4:6]); v != Version {
		return 0, fmt.Errorf("%w: %d", ErrBadVersion, v)
	}
	return binary.BigEndian.Uint64(data[6:14]), nil
}

func encodeRecord(buf []byte, r record) {
	copy(buf[0:KeySize], r.key[:])
	binary.BigEndian.PutUint16(buf[34:36], r.move)
	binary.BigEndian.PutUint16(buf[36:38], uint16(r.score))
	binary.BigEndian.PutUint32(buf[38:42], r.count)
}

func decodeRecord(data []byte) record {
	var r record
	copy(r.key[:], data[0:KeySize])
	r.move = binary.BigEndian.Uint16(data[34:36])
	r.score = int16(binary.BigEndian.Uint16(data[36:38]))
	r.count = binary.BigEndian.Uint32(data[38:42])
	return r
}

func clampScore(v int) int16 {
	switch {
	case v > math.MaxInt16:
		return math.MaxInt16
	case v < math.MinInt16:
		return math.MinInt16
	}
	return int16(v)
}

func clampCount(c uint64) uint32 {
	if c > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(c)
}
