package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/vjranagit/touchdown/pkg/landing"
	"github.com/vjranagit/touchdown/pkg/render"
	"github.com/vjranagit/touchdown/pkg/storage"
)

// Server exposes one loaded signal table over HTTP, read-only
type Server struct {
	addr    string
	timeout time.Duration
	opts    []landing.Option
	layout  render.Layout

	serverOnce sync.Once
	server     *http.Server

	mu       sync.RWMutex
	store    *storage.Store
	loadedAt time.Time
}

// NewServer creates a new API server over store
func NewServer(addr string, store *storage.Store, opts ...landing.Option) *Server {
	return &Server{
		addr:     addr,
		timeout:  30 * time.Second,
		opts:     opts,
		layout:   render.Layout{},
		store:    store,
		loadedAt: time.Now(),
	}
}

// SetTimeout sets the read and write timeouts; call it before Start
func (s *Server) SetTimeout(d time.Duration) {
	s.timeout = d
}

// SetLayout sets the layout of rendered plots
func (s *Server) SetLayout(l render.Layout) {
	s.layout = l
}

// Store returns the table currently served
func (s *Server) Store() *storage.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

// Replace swaps in a freshly loaded table
func (s *Server) Replace(store *storage.Store) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store = store
	s.loadedAt = time.Now()
}

// Handler returns the server's routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/summary", s.handleSummary)
	mux.HandleFunc("/api/v1/signals", s.handleSignals)
	mux.HandleFunc("/api/v1/series", s.handleSeries)
	mux.HandleFunc("/api/v1/plot.png", s.handlePlot)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/metrics", s.handleMetrics)

	return mux
}

// httpServer builds the underlying server once. Start and Stop share it, so a
// Stop that runs before Start still leaves the server closed.
func (s *Server) httpServer() *http.Server {
	s.serverOnce.Do(func() {
		s.server = &http.Server{
			Addr:         s.addr,
			Handler:      s.Handler(),
			ReadTimeout:  s.timeout,
			WriteTimeout: s.timeout,
		}
	})
	return s.server
}

// Start starts the HTTP server. It returns nil once the server is stopped.
func (s *Server) Start() error {
	err := s.httpServer().ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer().Shutdown(ctx)
}

type metricResponse struct {
	Name      string   `json:"name"`
	Unit      string   `json:"unit"`
	Value     *float64 `json:"value"`
	Available bool     `json:"available"`
	Error     string   `json:"error,omitempty"`
}

// handleSummary returns every landing metric
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sum := landing.Summarize(landing.NewExtractor(s.Store(), s.opts...))

	metrics := sum.Metrics()
	resp := make([]metricResponse, 0, len(metrics))
	for _, m := range metrics {
		mr := metricResponse{Name: m.Name, Unit: m.Unit, Available: m.Available()}
		if m.Available() {
			v := m.Value
			mr.Value = &v
		} else {
			mr.Error = m.Err.Error()
		}
		resp = append(resp, mr)
	}

	writeJSON(w, map[string]any{"metrics": resp})
}

type signalResponse struct {
	Signal    string `json:"signal"`
	Label     string `json:"label"`
	Samples   int    `json:"samples"`
	Ascending bool   `json:"ascending"`
}

// handleSignals lists the signals held
func (s *Server) handleSignals(w http.ResponseWriter, r *http.Request) {
	store := s.Store()

	signals := store.Signals()
	resp := make([]signalResponse, 0, len(signals))
	for _, signal := range signals {
		resp = append(resp, signalResponse{
			Signal:    signal,
			Label:     render.Label(signal),
			Samples:   len(store.FilterByID(signal)),
			Ascending: store.Ascending(signal),
		})
	}

	writeJSON(w, map[string]any{
		"origin":  store.Origin(),
		"rows":    store.Len(),
		"signals": resp,
	})
}

type pointResponse struct {
	T float64  `json:"t"`
	V *float64 `json:"v"`
}

// handleSeries returns one signal's (elapsed, value) pairs
func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	signal := r.URL.Query().Get("signal")
	if signal == "" {
		http.Error(w, "Missing signal parameter", http.StatusBadRequest)
		return
	}

	points := s.Store().FilterByID(signal)
	if len(points) == 0 {
		http.Error(w, fmt.Sprintf("Unknown signal %q", signal), http.StatusNotFound)
		return
	}

	resp := make([]pointResponse, len(points))
	for i, p := range points {
		resp[i].T = p.Elapsed
		if v, ok := p.Value.Float(); ok {
			resp[i].V = &v
		}
	}

	writeJSON(w, map[string]any{
		"signal": signal,
		"label":  render.Label(signal),
		"points": resp,
	})
}

// handlePlot renders every signal, or the repeated signal parameters, as a PNG grid
func (s *Server) handlePlot(w http.ResponseWriter, r *http.Request) {
	store := s.Store()

	signals := r.URL.Query()["signal"]
	if len(signals) == 0 {
		signals = store.Signals()
	}

	var buf bytes.Buffer
	if err := render.NewPNG(s.layout).Render(&buf, render.Panels(store, signals)); err != nil {
		slog.Error("api: plot failed", "err", err)
		http.Error(w, fmt.Sprintf("Plot failed: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	loadedAt := s.loadedAt
	rows := s.store.Len()
	s.mu.RUnlock()

	writeJSON(w, map[string]any{
		"status":    "healthy",
		"rows":      rows,
		"loaded_at": loadedAt,
	})
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("api: encode response failed", "err", err)
	}
}
