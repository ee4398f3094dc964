package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/freeeve/openbook/internal/book"
	"github.com/freeeve/openbook/internal/eco"
	"github.com/freeeve/openbook/internal/position"
)

// BookResponse lists the stored candidates of a position.
type BookResponse struct {
	FEN     string         `json:"fen"`
	Ply     int            `json:"ply"`
	Opening *eco.Opening   `json:"opening,omitempty"`
	Moves   []MoveResponse `json:"moves"`
}

type MoveResponse struct {
	UCI    string  `json:"uci"`              // UCI notation (e.g., "e2e4")
	Ponder string  `json:"ponder,omitempty"` // expected reply, UCI notation
	Value  int     `json:"value"`            // centipawns for the side to move
	Depth  int     `json:"depth"`
	Count  uint64  `json:"count"`
	Wins   uint64  `json:"wins"`
	Draws  uint64  `json:"draws"`
	Losses uint64  `json:"losses"`
	Rate   float64 `json:"rate,omitempty"` // share of the position's occurrences (0-100)
}

// ProbeResponse is the outcome of one selection.
type ProbeResponse struct {
	FEN        string         `json:"fen"`
	Opening    *eco.Opening   `json:"opening,omitempty"`
	Hit        bool           `json:"hit"`
	Move       string         `json:"move,omitempty"`
	Ponder     string         `json:"ponder,omitempty"`
	Candidates []MoveResponse `json:"candidates,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func moveString(m position.Move) string {
	if m == position.MoveNone {
		return ""
	}
	return m.String()
}

func toMoveResponses(records []book.Record) []MoveResponse {
	var total uint64
	for _, r := range records {
		total += r.Count
	}
	out := make([]MoveResponse, 0, len(records))
	for _, r := range records {
		mr := MoveResponse{
			UCI:    r.Move.String(),
			Ponder: moveString(r.Ponder),
			Value:  r.Value,
			Depth:  r.Depth,
			Count:  r.Count,
			Wins:   r.Wins,
			Draws:  r.Draws(),
			Losses: r.Losses,
		}
		if total > 0 {
			mr.Rate = float64(r.Count) / float64(total) * 100
		}
		out = append(out, mr)
	}
	return out
}

func lookupOpening(db *eco.Database, pos *position.Position) *eco.Opening {
	if o, ok := db.Lookup(pos); ok {
		return &o
	}
	return nil
}

// ToBookResponse converts a position and its record set. A nil set yields
// an empty move list; a nil db names no opening.
func ToBookResponse(pos *position.Position, set *book.RecordSet, db *eco.Database) *BookResponse {
	resp := &BookResponse{
		FEN:     pos.Key(),
		Ply:     pos.Ply(),
		Opening: lookupOpening(db, pos),
		Moves:   []MoveResponse{},
	}
	if set != nil {
		resp.Moves = toMoveResponses(set.Records())
	}
	return resp
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: msg})
}
