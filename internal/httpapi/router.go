package httpapi

import (
	"net/http"
	"net/http/pprof"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/freeeve/openbook/internal/book"
	"github.com/freeeve/openbook/internal/eco"
	"github.com/freeeve/openbook/internal/position"
	"github.com/freeeve/openbook/internal/selector"
)

// Book is the store surface the API reads.
type Book interface {
	Find(pos *position.Position) *book.RecordSet
	Mode() book.Mode
	Path() string
	Len() int
	Stats() book.StatsSnapshot
}

// Handler serves book lookups and probes.
type Handler struct {
	book     Book
	sel      *selector.Selector
	gatherer prometheus.Gatherer
	ecoDB    *eco.Database
	log      zerolog.Logger
}

// NewRouter creates the HTTP router. gatherer is optional; when set,
// /metrics exposes it. ecoDB is optional; when set, responses name the
// opening.
func NewRouter(log zerolog.Logger, b Book, sel *selector.Selector, gatherer prometheus.Gatherer, ecoDB *eco.Database) http.Handler {
	h := &Handler{
		book:     b,
		sel:      sel,
		gatherer: gatherer,
		ecoDB:    ecoDB,
		log:      log,
	}

	mux := http.NewServeMux()
	mux.Handle("/healthz", http.HandlerFunc(h.health))
	mux.Handle("/readyz", http.HandlerFunc(h.ready))
	mux.Handle("/v1/book", http.HandlerFunc(h.lookup))
	mux.Handle("/v1/probe", http.HandlerFunc(h.probe))
	mux.Handle("/v1/stats", http.HandlerFunc(h.stats))
	if gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	// pprof endpoints
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	return CORS(RequestID(AccessLog(log, mux)))
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// ready fails while no book is loaded.
func (h *Handler) ready(w http.ResponseWriter, r *http.Request) {
	if h.book.Mode() == book.ModeDisabled {
		writeError(w, http.StatusServiceUnavailable, "no book loaded")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats := h.book.Stats()
	writeJSON(w, map[string]any{
		"path":      h.book.Path(),
		"mode":      h.book.Mode().String(),
		"positions": h.book.Len(),
		"lookups":   stats.Lookups,
		"hits":      stats.Hits,
		"seeks":     stats.Seeks,
	})
}

// parsePosition reads the fen query parameter. An absent fen means the
// initial position.
func parsePosition(w http.ResponseWriter, r *http.Request) (*position.Position, bool) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return nil, false
	}
	fen := r.URL.Query().Get("fen")
	if fen == "" {
		return position.Start(), true
	}
	pos, err := position.FromFEN(fen)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid fen: "+err.Error())
		return nil, false
	}
	return pos, true
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) {
	pos, ok := parsePosition(w, r)
	if !ok {
		return
	}
	set := h.book.Find(pos)
	if set == nil {
		writeError(w, http.StatusNotFound, "position not in book")
		return
	}
	writeJSON(w, ToBookResponse(pos, set, h.ecoDB))
}

func (h *Handler) probe(w http.ResponseWriter, r *http.Request) {
	pos, ok := parsePosition(w, r)
	if !ok {
		return
	}
	resp := ProbeResponse{FEN: pos.Key(), Opening: lookupOpening(h.ecoDB, pos)}
	d, hit := h.sel.ProbeRoot(pos, true)
	if hit {
		resp.Hit = true
		resp.Move = d.Move.String()
		resp.Ponder = moveString(d.Ponder)
		resp.Candidates = toMoveResponses(d.Candidates)
	}
	h.log.Debug().
		Str("rid", GetRequestID(r.Context())).
		Str("fen", resp.FEN).
		Bool("hit", hit).
		Str("move", resp.Move).
		Msg("probe")
	writeJSON(w, resp)
}
