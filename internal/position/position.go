package position

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/freeeve/pgn/v3"
)

// Color is the side to move. White moves first.
type Color int

const (
	White Color = iota
	Black
)

func (c Color) String() string {
	if c == Black {
		return "b"
	}
	return "w"
}

// Position is an immutable view of a chess position. Play returns a new
// Position, so callers never need to undo moves.
type Position struct {
	gs  *pgn.GameState
	fen string
}

// Start returns the standard initial position.
func Start() *Position {
	gs := pgn.NewStartingPosition()
	return &Position{gs: gs, fen: gs.ToFEN()}
}

// FromFEN parses a FEN string.
func FromFEN(fen string) (*Position, error) {
	fen = strings.TrimSpace(fen)
	if len(strings.Fields(fen)) < 2 {
		return nil, fmt.Errorf("parse fen %q: missing side to move", fen)
	}
	gs, err := pgn.NewGame(fen)
	if err != nil {
		return nil, fmt.Errorf("parse fen %q: %w", fen, err)
	}
	return &Position{gs: gs, fen: gs.ToFEN()}, nil
}

// Key returns the full FEN, which is the book key including the move number.
func (p *Position) Key() string {
	return p.fen
}

// Pack returns the 34-byte packed encoding used by binary books.
func (p *Position) Pack() pgn.PackedPosition {
	return p.gs.Pack()
}

// SideToMove reports whose turn it is.
func (p *Position) SideToMove() Color {
	if strings.Contains(p.fen, " b ") {
		return Black
	}
	return White
}

// Ply returns the game ply of the position, 1 for the initial position.
func (p *Position) Ply() int {
	_, fullmove := SplitPly(p.fen)
	if fullmove < 1 {
		fullmove = 1
	}
	ply := 2*(fullmove-1) + 1
	if p.SideToMove() == Black {
		ply++
	}
	return ply
}

// RepetitionKey identifies the position for repetition checks: placement,
// side to move, castling rights and en passant square.
func (p *Position) RepetitionKey() string {
	return TrimPly(p.fen)
}

// LegalMoves returns the codes of all legal moves.
func (p *Position) LegalMoves() []Move {
	mvs := pgn.GenerateLegalMoves(p.gs)
	out := make([]Move, 0, len(mvs))
	for _, mv := range mvs {
		out = append(out, FromMv(mv))
	}
	return out
}

// Legal reports whether m is a legal move here, returning the matching
// pgn move.
func (p *Position) Legal(m Move) (pgn.Mv, bool) {
	if m == MoveNone {
		return pgn.Mv{}, false
	}
	for _, mv := range pgn.GenerateLegalMoves(p.gs) {
		if FromMv(mv) == m {
			return mv, true
		}
	}
	return pgn.Mv{}, false
}

// Play returns the position after m. m must be legal.
func (p *Position) Play(m Move) (*Position, error) {
	mv, ok := p.Legal(m)
	if !ok {
		return nil, fmt.Errorf("illegal move %s in %s", m, p.fen)
	}
	return p.PlayMv(mv)
}

// PlayMv applies a pgn move to a copy of the position.
func (p *Position) PlayMv(mv pgn.Mv) (*Position, error) {
	gs, err := pgn.NewGame(p.fen)
	if err != nil {
		return nil, err
	}
	if err := pgn.ApplyMove(gs, mv); err != nil {
		return nil, fmt.Errorf("apply move %s: %w", FromMv(mv), err)
	}
	return &Position{gs: gs, fen: gs.ToFEN()}, nil
}

// PlaySAN applies a move in standard algebraic notation ("Nf3", "exd5",
// "O-O") to a copy of the position. Check and mate suffixes are ignored.
func (p *Position) PlaySAN(san string) (*Position, error) {
	san = strings.TrimRight(san, "+#!?")
	mv, err := pgn.ParseSAN(p.gs, san)
	if err != nil {
		return nil, fmt.Errorf("parse san %q: %w", san, err)
	}
	return p.PlayMv(mv)
}

// Canonical rewrites a key into the encoder's own FEN form. Inputs from
// different sources may spell castling or en passant fields differently.
func Canonical(key string) (string, error) {
	pos, err := FromFEN(key)
	if err != nil {
		return "", err
	}
	return pos.fen, nil
}

// counterFields is the number of FEN fields before the halfmove clock and
// the move number.
const counterFields = 4

// TrimPly strips the halfmove clock and the move number from a key, leaving
// placement, side to move, castling rights and en passant square. Keys with
// no counter fields are returned with their whitespace normalized.
func TrimPly(key string) string {
	prefix, _ := SplitPly(key)
	return prefix
}

// SplitPly splits a key into its counter-free prefix and the trailing move
// number. ply is 0 when the key has no move number.
func SplitPly(key string) (prefix string, ply int) {
	fields := strings.Fields(key)
	if len(fields) <= counterFields {
		return strings.Join(fields, " "), 0
	}
	prefix = strings.Join(fields[:counterFields], " ")
	n, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		return prefix, 0
	}
	return prefix, n
}
