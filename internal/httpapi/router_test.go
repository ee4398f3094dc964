package httpapi

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/freeeve/openbook/internal/book"
	"github.com/freeeve/openbook/internal/eco"
	"github.com/freeeve/openbook/internal/position"
	"github.com/freeeve/openbook/internal/selector"
)

func mustMove(t *testing.T, s string) position.Move {
	t.Helper()
	m, err := position.ParseMove(s)
	if err != nil {
		t.Fatalf("ParseMove(%q): %v", s, err)
	}
	return m
}

func newTestRouter(t *testing.T) (http.Handler, *book.Store) {
	t.Helper()
	st := book.NewStore()
	root := position.Start().Key()
	st.Insert(root, book.NewRecord(mustMove(t, "e2e4"), mustMove(t, "e7e5"), 20, 20, 30), false)
	st.Insert(root, book.NewRecord(mustMove(t, "d2d4"), position.MoveNone, 10, 20, 10), false)

	reg := prometheus.NewRegistry()
	sel := selector.New(st, selector.DefaultOptions(),
		selector.WithRand(rand.New(rand.NewSource(1))),
		selector.WithMetrics(selector.NewMetrics(reg)))
	return NewRouter(zerolog.Nop(), st, sel, reg, nil), st
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealth(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := get(t, h, "/healthz")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body.String())
	}
	if rid := rec.Header().Get("X-Request-ID"); len(rid) != 8 {
		t.Errorf("X-Request-ID = %q, want 8 characters", rid)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}

func TestReadyWithoutBook(t *testing.T) {
	h, st := newTestRouter(t)
	if rec := get(t, h, "/readyz"); rec.Code != http.StatusOK {
		t.Errorf("readyz with book = %d", rec.Code)
	}
	if err := st.Read(book.NoBookName, false); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if rec := get(t, h, "/readyz"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz without book = %d, want 503", rec.Code)
	}
}

func TestBookLookup(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := get(t, h, "/v1/book")
	if rec.Code != http.StatusOK {
		t.Fatalf("book = %d: %s", rec.Code, rec.Body.String())
	}
	var resp BookResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.FEN != position.Start().Key() || resp.Ply != 1 {
		t.Errorf("fen/ply = %q/%d", resp.FEN, resp.Ply)
	}
	if len(resp.Moves) != 2 {
		t.Fatalf("moves = %+v, want 2", resp.Moves)
	}
	first := resp.Moves[0]
	if first.UCI != "e2e4" || first.Ponder != "e7e5" || first.Count != 30 || first.Rate != 75 {
		t.Errorf("first move = %+v", first)
	}
	if resp.Moves[1].Ponder != "" {
		t.Errorf("second move ponder = %q, want empty", resp.Moves[1].Ponder)
	}
}

func TestBookLookupErrors(t *testing.T) {
	h, _ := newTestRouter(t)

	afterE4 := "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1"
	if rec := get(t, h, "/v1/book?fen="+url.QueryEscape(afterE4)); rec.Code != http.StatusNotFound {
		t.Errorf("unknown position = %d, want 404", rec.Code)
	}
	rec := get(t, h, "/v1/book?fen=not-a-fen")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid fen = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid fen") {
		t.Errorf("error body = %q", rec.Body.String())
	}

	post := httptest.NewRecorder()
	h.ServeHTTP(post, httptest.NewRequest(http.MethodPost, "/v1/book", nil))
	if post.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST = %d, want 405", post.Code)
	}
}

func TestProbe(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := get(t, h, "/v1/probe")
	var resp ProbeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Hit {
		t.Fatalf("probe missed: %s", rec.Body.String())
	}
	if resp.Move != "e2e4" && resp.Move != "d2d4" {
		t.Errorf("move = %q", resp.Move)
	}
	if len(resp.Candidates) != 2 {
		t.Errorf("candidates = %+v", resp.Candidates)
	}

	afterE4 := "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1"
	rec = get(t, h, "/v1/probe?fen="+url.QueryEscape(afterE4))
	resp = ProbeResponse{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Hit || resp.Move != "" {
		t.Errorf("probe outside book = %+v", resp)
	}
}

func TestMetricsAndStats(t *testing.T) {
	h, _ := newTestRouter(t)
	get(t, h, "/v1/probe")

	rec := get(t, h, "/metrics")
	if !strings.Contains(rec.Body.String(), "openbook_selector_probes_total 1") {
		t.Errorf("metrics missing probe counter:\n%s", rec.Body.String())
	}

	rec = get(t, h, "/v1/stats")
	var stats map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats["mode"] != "resident" || stats["positions"] != float64(1) {
		t.Errorf("stats = %v", stats)
	}
}

func TestCORSPreflight(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/v1/book", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("OPTIONS = %d, want 204", rec.Code)
	}
}

func TestOpeningNames(t *testing.T) {
	st := book.NewStore()
	afterE4, err := position.Start().Play(mustMove(t, "e2e4"))
	if err != nil {
		t.Fatal(err)
	}
	st.Insert(afterE4.Key(), book.NewRecord(mustMove(t, "c7c5"), position.MoveNone, 0, 20, 1), false)

	db := eco.NewDatabase()
	if _, err := db.Load(strings.NewReader("B00\tKing's Pawn Game\t1. e4\n")); err != nil {
		t.Fatalf("Load: %v", err)
	}
	h := NewRouter(zerolog.Nop(), st, selector.New(st, selector.DefaultOptions()), nil, db)

	rec := get(t, h, "/v1/book?fen="+url.QueryEscape(afterE4.Key()))
	var resp BookResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Opening == nil || resp.Opening.ECO != "B00" {
		t.Errorf("opening = %+v, want B00", resp.Opening)
	}
	if rec := get(t, h, "/metrics"); rec.Code != http.StatusNotFound {
		t.Errorf("metrics without gatherer = %d, want 404", rec.Code)
	}
}
