// Package httpapi exposes the cache over HTTP: rebuild triggers, snapshot
// status, cell and identifier lookups, and the operational endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/project-pearl/Dashboard-sub014/internal/cache"
	"github.com/project-pearl/Dashboard-sub014/internal/domain"
	"github.com/project-pearl/Dashboard-sub014/internal/observability"
	"github.com/project-pearl/Dashboard-sub014/internal/pipeline"
)

// Rebuilder triggers a cache rebuild for one source.
type Rebuilder interface {
	Source() string
	Rebuild(ctx context.Context) pipeline.Result
}

// Server serves the read API, rebuild triggers, and health endpoints.
type Server struct {
	httpServer *http.Server
	stores     map[string]*cache.Store
	rebuilders map[string]Rebuilder
	cells      *cellCache
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewServer wires the API routes over the given stores and rebuilders.
// cacheSize bounds the marshaled-cell LRU; 0 disables it.
func NewServer(addr string, stores []*cache.Store, rebuilders []Rebuilder, cacheSize int, logger *slog.Logger, metrics *observability.Metrics) *Server {
	s := &Server{
		stores:     make(map[string]*cache.Store, len(stores)),
		rebuilders: make(map[string]Rebuilder, len(rebuilders)),
		cells:      newCellCache(cacheSize),
		logger:     logger,
		metrics:    metrics,
	}
	for _, store := range stores {
		s.stores[store.Source()] = store
	}
	for _, rb := range rebuilders {
		s.rebuilders[rb.Source()] = rb
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/rebuild/{source}", s.handleRebuild)
	mux.HandleFunc("GET /api/{source}/status", s.handleStatus)
	mux.HandleFunc("GET /api/{source}/cells/{key}", s.handleCell)
	mux.HandleFunc("GET /api/{source}/partitions/{code}", s.handlePartition)
	mux.HandleFunc("GET /api/compliance/permits/{id}", s.handleRef("compliance"))
	mux.HandleFunc("GET /api/waterquality/sites/{id}", s.handleRef("waterquality"))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// handleRebuild triggers a synchronous rebuild and reports its outcome.
// Coordination refusals (another build in flight) come back as a result
// with status "skipped", not as an HTTP error.
func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	rb, ok := s.rebuilders[r.PathValue("source")]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown source")
		return
	}
	result := rb.Rebuild(r.Context())
	writeJSON(w, http.StatusOK, result)
}

type statusResponse struct {
	Source    string      `json:"source"`
	Published bool        `json:"published"`
	Building  bool        `json:"building"`
	Meta      *cache.Meta `json:"meta,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	source := r.PathValue("source")
	store, ok := s.stores[source]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown source")
		return
	}
	resp := statusResponse{Source: source, Building: store.Building()}
	if meta, published := store.Status(); published {
		resp.Published = true
		resp.Meta = &meta
	}
	writeJSON(w, http.StatusOK, resp)
}

type cellResponse struct {
	Key     string      `json:"key"`
	BBox    [4]float64  `json:"bbox"` // west, south, east, north
	BuiltAt time.Time   `json:"built_at"`
	Cell    *cache.Cell `json:"cell"`
}

func (s *Server) handleCell(w http.ResponseWriter, r *http.Request) {
	source := r.PathValue("source")
	store, ok := s.stores[source]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown source")
		return
	}
	snap := store.Current()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "no snapshot published yet")
		return
	}
	key := r.PathValue("key")

	// Marshaled payloads are cached per snapshot generation; BuiltAt in
	// the cache key invalidates everything on publish without bookkeeping.
	if payload, hit := s.cells.get(source, snap.Meta.BuiltAt, key); hit {
		s.metrics.CellCacheLookups.WithLabelValues("hit").Inc()
		writeRawJSON(w, payload)
		return
	}
	s.metrics.CellCacheLookups.WithLabelValues("miss").Inc()

	cell := snap.Cell(key)
	if cell == nil {
		writeError(w, http.StatusNotFound, "cell not found")
		return
	}
	lat, lng, err := domain.ParseCellKey(key)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed cell key")
		return
	}
	bound := domain.CellBound(lat, lng)
	resp := cellResponse{
		Key:     key,
		BBox:    [4]float64{bound.Min.Lon(), bound.Min.Lat(), bound.Max.Lon(), bound.Max.Lat()},
		BuiltAt: snap.Meta.BuiltAt,
		Cell:    cell,
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "encode cell")
		return
	}
	s.cells.put(source, snap.Meta.BuiltAt, key, payload)
	writeRawJSON(w, payload)
}

type partitionResponse struct {
	Partition string      `json:"partition"`
	BuiltAt   time.Time   `json:"built_at"`
	FreshAt   *time.Time  `json:"fresh_at,omitempty"`
	Records   *cache.Cell `json:"records"`
}

func (s *Server) handlePartition(w http.ResponseWriter, r *http.Request) {
	store, ok := s.stores[r.PathValue("source")]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown source")
		return
	}
	snap := store.Current()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "no snapshot published yet")
		return
	}
	code := r.PathValue("code")
	records := snap.Partition(code)
	if records == nil {
		writeError(w, http.StatusNotFound, "no records for partition")
		return
	}
	resp := partitionResponse{Partition: code, BuiltAt: snap.Meta.BuiltAt, Records: records}
	if at, ok := snap.Meta.Freshness[code]; ok {
		resp.FreshAt = &at
	}
	writeJSON(w, http.StatusOK, resp)
}

type refResponse struct {
	ID      string      `json:"id"`
	BuiltAt time.Time   `json:"built_at"`
	Records *cache.Cell `json:"records"`
}

// handleRef serves lookups by business identifier (permit number, site ID)
// for a fixed source.
func (s *Server) handleRef(source string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := s.stores[source]
		if !ok {
			writeError(w, http.StatusNotFound, "unknown source")
			return
		}
		snap := store.Current()
		if snap == nil {
			writeError(w, http.StatusServiceUnavailable, "no snapshot published yet")
			return
		}
		id := r.PathValue("id")
		records := snap.Ref(id)
		if records == nil {
			writeError(w, http.StatusNotFound, "unknown identifier")
			return
		}
		writeJSON(w, http.StatusOK, refResponse{ID: id, BuiltAt: snap.Meta.BuiltAt, Records: records})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports ready once every store has published a snapshot, so
// load balancers hold traffic until the first builds finish.
func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	for name, store := range s.stores {
		if store.Current() == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":      "unavailable",
				"waiting_for": name,
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Start begins serving HTTP requests. It blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP dispatches to the underlying mux, letting tests exercise
// routes without a listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response write
}

func writeRawJSON(w http.ResponseWriter, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(payload) //nolint:errcheck // best-effort response write
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
