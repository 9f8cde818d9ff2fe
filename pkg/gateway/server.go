// Package gateway is the transport surface of the engine: HTTP endpoints and
// a websocket RPC stream over the same method set. The gateway never invents
// tool semantics; it decodes requests, hands them to the orchestrator,
// dispatcher, resolver or indexer, and encodes whatever result envelope
// comes back.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/toolgate/toolgate/internal/metrics"
	"github.com/toolgate/toolgate/internal/observability"
	"github.com/toolgate/toolgate/pkg/catalog"
	"github.com/toolgate/toolgate/pkg/dispatcher"
	"github.com/toolgate/toolgate/pkg/extractor"
	"github.com/toolgate/toolgate/pkg/indexer"
	"github.com/toolgate/toolgate/pkg/orchestrator"
	"github.com/toolgate/toolgate/pkg/resolver"
	"github.com/toolgate/toolgate/pkg/tool"
)

// Server serves the tool API over HTTP and websocket.
type Server struct {
	host         string
	port         int
	server       *http.Server
	upgrader     websocket.Upgrader
	router       *RPCRouter
	dispatcher   *dispatcher.Dispatcher
	orchestrator *orchestrator.Orchestrator
	resolver     *resolver.Resolver
	indexer      *indexer.Indexer
	provider     catalog.Provider
	metrics      *metrics.Metrics
	audit        *observability.AuditLogger
	logger       zerolog.Logger
	shutdownMu   sync.RWMutex
	shuttingDown bool
}

// Config holds server configuration.
type Config struct {
	Host         string
	Port         int
	Dispatcher   *dispatcher.Dispatcher
	Orchestrator *orchestrator.Orchestrator
	Resolver     *resolver.Resolver
	Indexer      *indexer.Indexer
	Provider     catalog.Provider
	Metrics      *metrics.Metrics
	Audit        *observability.AuditLogger
	Logger       zerolog.Logger
}

// NewServer creates a gateway server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Port <= 0 {
		return nil, fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if cfg.Orchestrator == nil {
		return nil, fmt.Errorf("orchestrator is required")
	}
	if cfg.Resolver == nil {
		return nil, fmt.Errorf("resolver is required")
	}
	if cfg.Indexer == nil {
		return nil, fmt.Errorf("indexer is required")
	}
	if cfg.Provider == nil {
		return nil, fmt.Errorf("catalog provider is required")
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New()
	}
	if cfg.Audit == nil {
		cfg.Audit = observability.NewNopAuditLogger()
	}

	s := &Server{
		host:         cfg.Host,
		port:         cfg.Port,
		router:       NewRPCRouter(),
		dispatcher:   cfg.Dispatcher,
		orchestrator: cfg.Orchestrator,
		resolver:     cfg.Resolver,
		indexer:      cfg.Indexer,
		provider:     cfg.Provider,
		metrics:      cfg.Metrics,
		audit:        cfg.Audit,
		logger:       cfg.Logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	s.registerMethods()

	return s, nil
}

// addr is the listen address: "0.0.0.0" binds all interfaces the same way an
// empty host does, so both spell the default.
func (s *Server) addr() string {
	return fmt.Sprintf("%s:%d", s.host, s.port)
}

// Handler builds the HTTP mux. Exposed separately so tests can drive the
// server through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/tools/invoke", s.handleInvoke)
	mux.HandleFunc("POST /v1/tools/search", s.handleSearch)
	mux.HandleFunc("GET /v1/tools", s.handleListTools)
	mux.HandleFunc("POST /v1/admin/reindex", s.handleReindex)
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.Handle("/metrics", s.metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}

// Start starts serving. It does not block.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    s.addr(),
		Handler: s.Handler(),
	}

	s.logger.Info().Str("addr", s.addr()).Msg("Starting gateway server")

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Gateway server error")
		}
	}()

	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop() error {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.server == nil {
		return nil
	}

	s.logger.Info().Msg("Shutting down gateway server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// handleInvoke serves POST /v1/tools/invoke. Tool-logic failures come back
// as HTTP 200 with a failure envelope; only undecodable bodies are 400.
func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	var req tool.CallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
		return
	}

	if req.Tool == orchestrator.MultiToolName || (req.Tool == "" && req.Query != "") {
		batch := s.runBatch(r.Context(), req)
		writeJSON(w, http.StatusOK, batch)
		return
	}

	if req.Tool == "" {
		writeJSON(w, http.StatusOK, tool.Failure("", "", "missing query or tool_uses"))
		return
	}

	writeJSON(w, http.StatusOK, s.execute(r.Context(), orchestrator.NormalizeToolName(req.Tool), invokeArgs(req)))
}

// invokeArgs returns the explicit arguments of a named invoke, falling back
// to parameters extracted from the raw user input when none were supplied.
func invokeArgs(req tool.CallRequest) map[string]interface{} {
	if len(req.Arguments) > 0 {
		return req.Arguments
	}
	if raw := strings.TrimSpace(req.OriginalUserInput); raw != "" {
		return extractor.ToArguments(extractor.Extract(raw))
	}
	return req.Arguments
}

// handleSearch serves POST /v1/tools/search with the catalog search contract.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
		return
	}

	descriptors, err := s.provider.Search(r.Context(), req.Query)
	if err != nil {
		s.logger.Error().Err(err).Str("query", req.Query).Msg("Catalog search failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}

	active := make([]tool.Descriptor, 0, len(descriptors))
	for _, d := range descriptors {
		if d.IsActive {
			active = append(active, d)
		}
	}

	writeJSON(w, http.StatusOK, SearchResponse{Value: active, Count: len(active)})
}

// handleListTools serves GET /v1/tools.
func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	descriptors, err := s.provider.GetAll(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}

	active := make([]tool.Descriptor, 0, len(descriptors))
	for _, d := range descriptors {
		if d.IsActive {
			active = append(active, d)
		}
	}

	writeJSON(w, http.StatusOK, SearchResponse{Value: active, Count: len(active)})
}

// handleReindex serves POST /v1/admin/reindex. A rebuild already in flight
// is a conflict, not a queueing opportunity.
func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	count, err := s.indexer.Reindex(r.Context())
	s.metrics.ObserveReindex(count, time.Since(start), err)
	s.audit.RecordReindex(count, err)

	if errors.Is(err, indexer.ErrReindexInProgress) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Reindex failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, ReindexResponse{Descriptors: count})
}

// handleWebSocket upgrades the connection and serves RPC frames until the
// peer goes away.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.shutdownMu.RLock()
	if s.shuttingDown {
		s.shutdownMu.RUnlock()
		http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
		return
	}
	s.shutdownMu.RUnlock()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	s.logger.Debug().Str("remote", conn.RemoteAddr().String()).Msg("Websocket client connected")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug().Err(err).Msg("Websocket read error")
			}
			return
		}

		req, rpcErr := s.router.ParseRequest(data)
		var resp *RPCResponse
		if rpcErr != nil {
			resp = &RPCResponse{Error: rpcErr}
		} else {
			resp = s.router.RouteRequest(r.Context(), req)
		}

		if err := conn.WriteJSON(resp); err != nil {
			s.logger.Debug().Err(err).Msg("Websocket write error")
			return
		}
	}
}

// execute dispatches one tool call and records metrics and audit.
func (s *Server) execute(ctx context.Context, name string, args map[string]interface{}) tool.ExecutionResult {
	res := s.dispatcher.Execute(ctx, name, args)
	s.metrics.ObserveExecution(name, res.Success, res.Duration)
	s.audit.RecordExecution(name, res.PluginID, res.Success, res.Duration)
	return res
}

// runBatch hands a request to the orchestrator and records metrics and audit
// per entry, each with its own execution time.
func (s *Server) runBatch(ctx context.Context, req tool.CallRequest) tool.BatchResult {
	batch := s.orchestrator.Run(ctx, req)
	for _, res := range batch.Results {
		s.metrics.ObserveExecution(res.Tool, res.Success, res.Duration)
		s.audit.RecordExecution(res.Tool, res.PluginID, res.Success, res.Duration)
	}
	return batch
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
