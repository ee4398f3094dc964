package position

import (
	"fmt"
	"strings"

	"github.com/freeeve/pgn/v3"
)

// Move encoding (uint16):
//   bits 0-5:   from square (0-63)
//   bits 6-11:  to square (0-63)
//   bits 12-14: promotion piece (0=none, 1=Q, 2=R, 3=B, 4=N)
//
// The code is position independent, so a book line can be decoded without
// the board it was recorded on. a1a1 is never a real move and doubles as
// the "no move" value.
type Move uint16

// MoveNone marks a missing move ("none" or "resign" in book files).
const MoveNone Move = 0

const (
	moveFromMask   = 0x3F   // bits 0-5
	moveToMask     = 0xFC0  // bits 6-11
	movePromoMask  = 0x7000 // bits 12-14
	movePromoShift = 12
	moveToShift    = 6
)

// Promotion piece types
const (
	PromoNone   = 0
	PromoQueen  = 1
	PromoRook   = 2
	PromoBishop = 3
	PromoKnight = 4
)

// EncodeMove creates a Move from square indices and optional promotion.
// from, to: square indices 0-63 (A1=0, B1=1, ..., H8=63)
func EncodeMove(from, to int, promo byte) Move {
	if from < 0 || from > 63 || to < 0 || to > 63 || promo > PromoKnight {
		return MoveNone
	}
	return Move(uint16(from) | uint16(to)<<moveToShift | uint16(promo)<<movePromoShift)
}

// DecodeMove extracts from square, to square, and promotion from a Move.
func DecodeMove(m Move) (from, to int, promo byte) {
	return m.From(), m.To(), m.Promotion()
}

// From returns the source square index (0-63).
func (m Move) From() int {
	return int(m & moveFromMask)
}

// To returns the destination square index (0-63).
func (m Move) To() int {
	return int((m & moveToMask) >> moveToShift)
}

// Promotion returns the promotion piece (0=none, 1=Q, 2=R, 3=B, 4=N).
func (m Move) Promotion() byte {
	return byte((m & movePromoMask) >> movePromoShift)
}

// IsNone reports whether m is the no-move value.
func (m Move) IsNone() bool {
	return m == MoveNone
}

// String returns UCI notation (e.g. "e2e4", "e7e8q"), or "none".
func (m Move) String() string {
	if m == MoveNone {
		return "none"
	}
	from, to, promo := DecodeMove(m)

	buf := []byte{
		byte('a' + from%8), byte('1' + from/8),
		byte('a' + to%8), byte('1' + to/8),
	}
	if promo > 0 {
		buf = append(buf, "qrbn"[promo-1])
	}
	return string(buf)
}

// ParseMove parses a UCI move string. "none" and "resign" yield MoveNone
// without error.
func ParseMove(s string) (Move, error) {
	switch strings.ToLower(s) {
	case "none", "resign", "(none)", "0000":
		return MoveNone, nil
	}
	if len(s) < 4 || len(s) > 5 {
		return MoveNone, fmt.Errorf("invalid move %q", s)
	}

	fromFile := int(s[0]) - 'a'
	fromRank := int(s[1]) - '1'
	toFile := int(s[2]) - 'a'
	toRank := int(s[3]) - '1'
	if fromFile < 0 || fromFile > 7 || fromRank < 0 || fromRank > 7 {
		return MoveNone, fmt.Errorf("invalid from square in move %q", s)
	}
	if toFile < 0 || toFile > 7 || toRank < 0 || toRank > 7 {
		return MoveNone, fmt.Errorf("invalid to square in move %q", s)
	}

	var promo byte = PromoNone
	if len(s) == 5 {
		switch s[4] {
		case 'q', 'Q':
			promo = PromoQueen
		case 'r', 'R':
			promo = PromoRook
		case 'b', 'B':
			promo = PromoBishop
		case 'n', 'N':
			promo = PromoKnight
		default:
			return MoveNone, fmt.Errorf("invalid promotion piece in move %q", s)
		}
	}
	return EncodeMove(fromRank*8+fromFile, toRank*8+toFile, promo), nil
}

// FromMv converts a pgn move into its compact code.
func FromMv(mv pgn.Mv) Move {
	var promo byte = PromoNone
	switch mv.Promo {
	case pgn.PromoQueen:
		promo = PromoQueen
	case pgn.PromoRook:
		promo = PromoRook
	case pgn.PromoBishop:
		promo = PromoBishop
	case pgn.PromoKnight:
		promo = PromoKnight
	}
	return EncodeMove(int(mv.From), int(mv.To), promo)
}
