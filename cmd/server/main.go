// Package main provides the tracing service: an HTTP API that runs taint
// traces on demand, persists them, and serves previously computed traces.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"solana-fund-tracer/internal/domain"
	"solana-fund-tracer/internal/entity"
	"solana-fund-tracer/internal/idhash"
	"solana-fund-tracer/internal/observability"
	"solana-fund-tracer/internal/reporting"
	"solana-fund-tracer/internal/solana"
	"solana-fund-tracer/internal/storage"
	chstore "solana-fund-tracer/internal/storage/clickhouse"
	"solana-fund-tracer/internal/storage/memory"
	"solana-fund-tracer/internal/storage/migrations"
	pgstore "solana-fund-tracer/internal/storage/postgres"
	"solana-fund-tracer/internal/trace"
	"solana-fund-tracer/internal/txsource"
)

// Server holds the tracing service components.
type Server struct {
	tracer       *trace.Tracer
	registry     *entity.Registry
	maxHops      int
	traceStore   storage.TraceStore
	flowRowStore storage.FlowRowStore
	entityStore  storage.EntityStore
	archive      *chstore.FlowRowStore // nil when ClickHouse is not configured
	reports      *reporting.Generator
	traceTimeout time.Duration
	logger       *log.Logger
}

func main() {
	loadEnvFile()

	rpcEndpoint := flag.String("rpc-endpoint", os.Getenv("SOLANA_RPC_ENDPOINT"), "Solana RPC HTTP endpoint")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (optional)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	listenAddr := flag.String("listen-addr", ":8080", "HTTP listen address")
	maxHops := flag.Int("max-hops", trace.DefaultMaxHops, "Default maximum BFS depth")
	traceTimeout := flag.Duration("trace-timeout", 10*time.Minute, "Per-trace timeout")
	fetchLimit := flag.Int("fetch-limit", trace.DefaultFetchLimit, "Signatures fetched per address")
	verbose := flag.Bool("verbose", false, "Verbose engine logging")

	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if *rpcEndpoint == "" {
		logger.Fatal("--rpc-endpoint is required")
	}
	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Stores
	var (
		traceStore   storage.TraceStore
		flowRowStore storage.FlowRowStore
		entityStore  storage.EntityStore
		archive      *chstore.FlowRowStore
	)
	if *useMemory {
		traceStore = memory.NewTraceStore()
		flowRowStore = memory.NewFlowRowStore()
		entityStore = memory.NewEntityStore()
	} else {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("connect to postgres: %v", err)
		}
		defer pool.Close()
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatalf("run postgres migrations: %v", err)
		}
		traceStore = pgstore.NewTraceStore(pool)
		flowRowStore = pgstore.NewFlowRowStore(pool)
		entityStore = pgstore.NewEntityStore(pool)
	}
	if *clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatalf("run clickhouse migrations: %v", err)
		}
		defer conn.Close()
		archive = chstore.NewFlowRowStore(conn)
	}

	// Engine
	rpc := solana.NewHTTPClient(*rpcEndpoint)
	registry := entity.NewRegistry()
	if err := registry.LoadFrom(ctx, entityStore); err != nil {
		logger.Fatalf("load persisted entities: %v", err)
	}
	source := txsource.NewRPCTransferSource(rpc, registry, logger)
	tracer, err := trace.New(trace.Options{
		Source:        source,
		Registry:      registry,
		MaxHops:       *maxHops,
		FetchLimit:    *fetchLimit,
		CourtesyDelay: trace.DefaultCourtesyDelay,
		Logger:        logger,
		Verbose:       *verbose,
	})
	if err != nil {
		logger.Fatalf("create tracer: %v", err)
	}

	server := &Server{
		tracer:       tracer,
		registry:     registry,
		maxHops:      *maxHops,
		traceStore:   traceStore,
		flowRowStore: flowRowStore,
		entityStore:  entityStore,
		archive:      archive,
		reports:      reporting.NewGenerator(traceStore, flowRowStore),
		traceTimeout: *traceTimeout,
		logger:       logger,
	}

	httpServer := &http.Server{
		Addr:    *listenAddr,
		Handler: server.routes(),
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down", sig)
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("Shutdown error: %v", err)
		}
		cancel()
	}()

	logger.Printf("Listening on %s", *listenAddr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("HTTP server error: %v", err)
	}
	logger.Println("Shutdown complete")
}

// routes wires the HTTP API.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/api/trace", s.handleTrace)
	mux.HandleFunc("/api/traces/", s.handleGetTrace)
	mux.HandleFunc("/api/traces", s.handleRecentTraces)
	mux.HandleFunc("/api/endpoints", s.handleTopEndpoints)
	mux.HandleFunc("/api/entities", s.handleEntities)
	return mux
}

// traceRequest is the POST /api/trace body.
type traceRequest struct {
	Address string `json:"address"`
	Amount  string `json:"amount,omitempty"`
	Mint    string `json:"mint,omitempty"`
	Native  bool   `json:"native,omitempty"`
	MaxHops int    `json:"maxHops,omitempty"`
}

// handleTrace runs a trace synchronously and returns the stored result.
func (s *Server) handleTrace(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req traceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.Address == "" {
		http.Error(w, "address is required", http.StatusBadRequest)
		return
	}
	if req.Mint != "" && req.Native {
		http.Error(w, "mint and native are mutually exclusive", http.StatusBadRequest)
		return
	}

	stolen := decimal.Zero
	if req.Amount != "" {
		parsed, err := decimal.NewFromString(req.Amount)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid amount: %v", err), http.StatusBadRequest)
			return
		}
		stolen = parsed
	}

	var asset *domain.AssetKind
	if req.Native {
		a := domain.NativeAsset()
		asset = &a
	} else if req.Mint != "" {
		a := domain.TokenAsset(req.Mint)
		asset = &a
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.traceTimeout)
	defer cancel()

	observability.RecordTraceStarted()
	start := time.Now()
	result, err := s.tracer.Trace(ctx, trace.Request{
		SourceAddress: req.Address,
		StolenAmount:  stolen,
		Asset:         asset,
		MaxHops:       req.MaxHops,
	})
	if err != nil {
		observability.RecordTraceCompleted("error")
		status := http.StatusBadGateway
		if errors.Is(err, trace.ErrInvalidAddress) || errors.Is(err, trace.ErrInvalidHops) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}
	observability.DefaultMetrics.TraceDuration.Observe(time.Since(start).Seconds())
	observability.DefaultMetrics.FlowRowsProduced.Add(float64(len(result.FlowGraph)))
	for range result.Unreachable {
		observability.RecordBranchFailure()
	}
	for _, ep := range result.Endpoints {
		if ep.Entity != nil {
			observability.DefaultMetrics.EndpointsFound.WithLabelValues(string(ep.Entity.Category)).Inc()
		}
	}
	if len(result.Unreachable) > 0 {
		observability.RecordTraceCompleted("partial")
	} else {
		observability.RecordTraceCompleted("ok")
	}

	maxHops := req.MaxHops
	if maxHops == 0 {
		maxHops = s.maxHops
	}
	traceID := idhash.ComputeTraceID(result.SourceAddress, result.Asset.String(), result.StartedAt)
	record := domain.BuildTraceRecord(traceID, result, maxHops, time.Now().Unix())
	rows := domain.BuildFlowRows(traceID, result)

	if err := s.traceStore.Insert(r.Context(), record); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		s.logger.Printf("insert trace %s: %v", traceID, err)
	}
	if err := s.flowRowStore.InsertBulk(r.Context(), rows); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		s.logger.Printf("insert flow rows for %s: %v", traceID, err)
	}
	if s.archive != nil {
		if err := s.archive.InsertBulk(r.Context(), rows); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			s.logger.Printf("archive flow rows for %s: %v", traceID, err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"traceId": traceID,
		"result":  resultView(result),
	})
}

// handleGetTrace serves one persisted trace with its flow rows.
func (s *Server) handleGetTrace(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	traceID := strings.TrimPrefix(r.URL.Path, "/api/traces/")
	if rest, ok := strings.CutSuffix(traceID, "/report"); ok {
		s.handleTraceReport(w, r, rest)
		return
	}
	if traceID == "" || strings.Contains(traceID, "/") {
		http.Error(w, "trace id required", http.StatusBadRequest)
		return
	}

	record, err := s.traceStore.GetByID(r.Context(), traceID)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "trace not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	rows, err := s.flowRowStore.GetByTraceID(r.Context(), traceID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"trace":    recordView(record),
		"flowRows": rowViews(rows),
	})
}

// handleTraceReport renders the forensic report of a persisted trace.
// Markdown by default, CSV with ?format=csv.
func (s *Server) handleTraceReport(w http.ResponseWriter, r *http.Request, traceID string) {
	if traceID == "" || strings.Contains(traceID, "/") {
		http.Error(w, "trace id required", http.StatusBadRequest)
		return
	}

	report, err := s.reports.Generate(r.Context(), traceID)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "trace not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(reporting.RenderCSV(report)))
		return
	}
	w.Header().Set("Content-Type", "text/markdown")
	w.Write([]byte(reporting.RenderMarkdown(report)))
}

// handleTopEndpoints serves the cross-trace endpoint ranking from the
// ClickHouse archive.
func (s *Server) handleTopEndpoints(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.archive == nil {
		http.Error(w, "clickhouse archive not configured", http.StatusNotImplemented)
		return
	}

	stats, err := s.archive.TopEndpoints(r.Context(), 20)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	views := make([]map[string]interface{}, 0, len(stats))
	for _, st := range stats {
		views = append(views, map[string]interface{}{
			"address":        st.Address,
			"entityName":     st.EntityName,
			"entityCategory": st.EntityCategory,
			"traceCount":     st.TraceCount,
			"totalTaint":     st.TotalTaint.String(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"endpoints": views})
}

// entityRequest is the POST /api/entities body.
type entityRequest struct {
	Address  string `json:"address"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// handleEntities manages the persisted entity registry: GET lists every
// known entity, POST registers a new one for this and future traces.
func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		records, err := s.entityStore.GetAll(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		views := make([]map[string]interface{}, 0, len(records))
		for _, rec := range records {
			views = append(views, map[string]interface{}{
				"address":  rec.Address,
				"name":     rec.Name,
				"category": string(rec.Category),
			})
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"entities": views})

	case http.MethodPost:
		var req entityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
			return
		}
		record := &domain.EntityRecord{
			Address:  req.Address,
			Name:     req.Name,
			Category: domain.EntityCategory(req.Category),
		}
		err := s.entityStore.Insert(r.Context(), record)
		if errors.Is(err, storage.ErrInvalidInput) {
			http.Error(w, "address and a valid category are required", http.StatusBadRequest)
			return
		}
		if errors.Is(err, storage.ErrDuplicateKey) {
			http.Error(w, "entity already registered", http.StatusConflict)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		// Make the entry visible to traces started from now on.
		s.registry.Register(record.Address, domain.EntityRef{
			Name:     record.Name,
			Category: record.Category,
		})
		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"address":  record.Address,
			"name":     record.Name,
			"category": string(record.Category),
		})

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleRecentTraces lists the latest persisted traces.
func (s *Server) handleRecentTraces(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	records, err := s.traceStore.GetRecent(r.Context(), 20)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	views := make([]map[string]interface{}, 0, len(records))
	for _, rec := range records {
		views = append(views, recordView(rec))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"traces": views})
}

func resultView(result *domain.TraceResult) map[string]interface{} {
	endpoints := make([]map[string]interface{}, 0, len(result.Endpoints))
	for _, ep := range result.Endpoints {
		view := map[string]interface{}{
			"address":     ep.Address,
			"taintAmount": ep.TaintAmount.String(),
			"hop":         ep.Hop,
		}
		if ep.Entity != nil {
			view["entity"] = ep.Entity.Name
			view["category"] = string(ep.Entity.Category)
		}
		endpoints = append(endpoints, view)
	}

	return map[string]interface{}{
		"sourceAddress":   result.SourceAddress,
		"asset":           result.AssetSymbol,
		"totalStolen":     result.TotalStolen.String(),
		"tracedAmount":    result.Summary.TracedAmount.String(),
		"exchangeAmount":  result.Summary.ExchangeAmount.String(),
		"swapAmount":      result.Summary.SwapAmount.String(),
		"bridgeAmount":    result.Summary.BridgeAmount.String(),
		"untracedAmount":  result.Summary.UntracedAmount.String(),
		"recoveredAmount": result.RecoveredAmount.String(),
		"flowRowCount":    len(result.FlowGraph),
		"endpoints":       endpoints,
		"unreachable":     result.Unreachable,
		"startedAt":       result.StartedAt,
		"finishedAt":      result.FinishedAt,
	}
}

func recordView(rec *domain.TraceRecord) map[string]interface{} {
	return map[string]interface{}{
		"traceId":        rec.TraceID,
		"sourceAddress":  rec.SourceAddress,
		"assetClass":     string(rec.AssetClass),
		"mint":           rec.Mint,
		"totalStolen":    rec.TotalStolen.String(),
		"tracedAmount":   rec.TracedAmount.String(),
		"exchangeAmount": rec.ExchangeAmount.String(),
		"swapAmount":     rec.SwapAmount.String(),
		"bridgeAmount":   rec.BridgeAmount.String(),
		"untracedAmount": rec.UntracedAmount.String(),
		"maxHops":        rec.MaxHops,
		"rowCount":       rec.RowCount,
		"startedAt":      rec.StartedAt,
		"finishedAt":     rec.FinishedAt,
	}
}

func rowViews(rows []*domain.FlowRow) []map[string]interface{} {
	views := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		view := map[string]interface{}{
			"address":      row.Address,
			"amount":       row.Amount.String(),
			"taintAmount":  row.TaintAmount.String(),
			"taintPercent": row.TaintPercent.String(),
			"txSignature":  row.TxSignature,
			"timestamp":    row.Timestamp,
			"hop":          row.Hop,
		}
		if row.EntityName != "" {
			view["entityName"] = row.EntityName
			view["entityCategory"] = row.EntityCategory
			view["heuristic"] = row.Heuristic
		}
		views = append(views, view)
	}
	return views
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

// loadEnvFile loads .env into the environment without overriding set vars.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
