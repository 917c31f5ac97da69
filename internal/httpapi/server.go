// Package httpapi is the request-handling boundary in front of the
// cache core. It validates input sizes, maps results onto HTTP status
// codes, and triggers emergency eviction under critical memory
// pressure before any write reaches the store.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pressurecache/internal/cache"
	"pressurecache/internal/logging"
	"pressurecache/internal/memory"
	"pressurecache/internal/stats"
)

// ServerConfig holds the request-layer limits and listener address.
type ServerConfig struct {
	Addr              string
	MaxKeyBytes       int
	MaxValueBytes     int
	CriticalMemoryPct int
	EnableMetrics     bool
}

// DefaultServerConfig returns the reference limits on the reference port.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:              "0.0.0.0:7171",
		MaxKeyBytes:       256,
		MaxValueBytes:     256,
		CriticalMemoryPct: cache.CriticalMemoryPercent,
		EnableMetrics:     true,
	}
}

// Server serves the cache over HTTP.
type Server struct {
	config    ServerConfig
	store     *cache.Store
	evictor   *cache.Evictor
	memory    memory.UsageProvider
	collector stats.Collector
	httpSrv   *http.Server
}

// NewServer wires the request layer to the cache core. A nil collector
// disables stats reporting.
func NewServer(config ServerConfig, store *cache.Store, evictor *cache.Evictor, mem memory.UsageProvider, collector stats.Collector) *Server {
	if collector == nil {
		collector = stats.Noop{}
	}

	s := &Server{
		config:    config,
		store:     store,
		evictor:   evictor,
		memory:    mem,
		collector: collector,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/put", s.handlePut)
	mux.HandleFunc("/get", s.handleGet)
	mux.HandleFunc("/health", s.handleHealth)
	if config.EnableMetrics {
		mux.Handle("/metrics", promhttp.Handler())
	}

	s.httpSrv = &http.Server{
		Addr:    config.Addr,
		Handler: logging.HTTPMiddleware(mux),
	}
	return s
}

// statusMessage is the envelope for status-only responses.
type statusMessage struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// putRequest is the /put body. Both fields are required; pointers
// distinguish an absent field from an explicit empty string, which is
// a valid key or value.
type putRequest struct {
	Key   *string `json:"key"`
	Value *string `json:"value"`
}

// getResponse is the successful /get body.
type getResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

// Handler exposes the routed handler stack, mainly for tests and for
// embedding the API under another mux.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// ListenAndServe runs the HTTP server until Shutdown.
func (s *Server) ListenAndServe() error {
	logging.Info(nil, logging.ComponentHTTP, logging.ActionStart, "HTTP server listening", map[string]interface{}{
		"addr": s.config.Addr,
	})
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, statusMessage{Status: "ERROR", Message: "Use POST."})
		return
	}

	var req putRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, statusMessage{Status: "ERROR", Message: "Invalid JSON body."})
		return
	}
	if req.Key == nil || req.Value == nil {
		writeJSON(w, http.StatusBadRequest, statusMessage{Status: "ERROR", Message: "Missing key or value field."})
		return
	}
	key, value := *req.Key, *req.Value

	// Size limits are enforced here so the core never sees invalid
	// input. A key or value of exactly the limit is accepted.
	if len(key) > s.config.MaxKeyBytes || len(value) > s.config.MaxValueBytes {
		logging.Warn(r.Context(), logging.ComponentHTTP, logging.ActionValidate, "Oversized key or value rejected", map[string]interface{}{
			"key_bytes":   len(key),
			"value_bytes": len(value),
		})
		writeJSON(w, http.StatusBadRequest, statusMessage{
			Status:  "ERROR",
			Message: fmt.Sprintf("Key or Value exceeds %d bytes.", s.config.MaxKeyBytes),
		})
		return
	}

	// Emergency eviction when memory is critical. The write proceeds
	// regardless of how much the pass managed to free.
	if pct := s.memory.UsagePercent(); pct >= s.config.CriticalMemoryPct {
		logging.Warn(r.Context(), logging.ComponentHTTP, logging.ActionEvict, "Critical memory pressure, running emergency eviction", map[string]interface{}{
			"memory_pct": pct,
		})
		s.evictor.Evict(r.Context())
	}

	s.store.Put(key, value)
	s.collector.RecordPut()
	s.collector.SetSize(s.store.Len())

	writeJSON(w, http.StatusOK, statusMessage{Status: "OK", Message: "Key inserted/updated successfully."})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, statusMessage{Status: "ERROR", Message: "Use GET."})
		return
	}

	// An absent key parameter is a client error; an explicitly empty
	// one is a valid lookup, since the empty string is a legal key.
	keys, ok := r.URL.Query()["key"]
	if !ok {
		writeJSON(w, http.StatusBadRequest, statusMessage{Status: "ERROR", Message: "Missing key parameter."})
		return
	}
	key := keys[0]

	value, ok := s.store.Get(key)
	if !ok {
		s.collector.RecordMiss()
		writeJSON(w, http.StatusNotFound, statusMessage{Status: "ERROR", Message: "Key not found."})
		return
	}

	s.collector.RecordHit()
	writeJSON(w, http.StatusOK, getResponse{Status: "OK", Key: key, Value: value})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	pct := s.memory.UsagePercent()
	s.collector.SetMemoryPercent(pct)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"healthy":        true,
		"entries":        s.store.Len(),
		"memory_pct":     pct,
		"time":           time.Now().UTC().Format(time.RFC3339),
		"correlation_id": logging.GetCorrelationID(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
