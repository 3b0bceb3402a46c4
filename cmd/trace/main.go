// Package main provides the one-shot tracing CLI: run a taint trace from a
// victim address, render the forensic report, and optionally persist the
// result to PostgreSQL and ClickHouse.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"solana-fund-tracer/internal/domain"
	"solana-fund-tracer/internal/entity"
	"solana-fund-tracer/internal/idhash"
	"solana-fund-tracer/internal/reporting"
	"solana-fund-tracer/internal/solana"
	"solana-fund-tracer/internal/storage/migrations"
	pgstore "solana-fund-tracer/internal/storage/postgres"
	"solana-fund-tracer/internal/trace"
	"solana-fund-tracer/internal/txsource"

	chstore "solana-fund-tracer/internal/storage/clickhouse"
)

func main() {
	loadEnvFile()

	rpcEndpoint := flag.String("rpc-endpoint", os.Getenv("SOLANA_RPC_ENDPOINT"), "Solana RPC HTTP endpoint")
	address := flag.String("address", "", "Victim wallet address the funds were stolen from")
	amount := flag.String("amount", "", "Known stolen amount (default: everything that left the wallet)")
	mint := flag.String("mint", "", "Trace this SPL token mint instead of auto-detecting")
	native := flag.Bool("native", false, "Force a native SOL trace")
	maxHops := flag.Int("max-hops", trace.DefaultMaxHops, "Maximum BFS depth (1-10)")
	outputDir := flag.String("output-dir", "output", "Directory for report files")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string (optional)")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (optional)")
	timeout := flag.Duration("timeout", 10*time.Minute, "Overall trace timeout")
	fetchLimit := flag.Int("fetch-limit", trace.DefaultFetchLimit, "Signatures fetched per address")
	verbose := flag.Bool("verbose", false, "Verbose engine logging")

	flag.Parse()

	logger := log.New(os.Stdout, "[trace] ", log.LstdFlags)

	if *rpcEndpoint == "" {
		logger.Fatal("--rpc-endpoint is required")
	}
	if *address == "" {
		logger.Fatal("--address is required")
	}
	if *mint != "" && *native {
		logger.Fatal("--mint and --native are mutually exclusive")
	}

	var asset *domain.AssetKind
	if *native {
		a := domain.NativeAsset()
		asset = &a
	} else if *mint != "" {
		a := domain.TokenAsset(*mint)
		asset = &a
	}

	stolen := decimal.Zero
	if *amount != "" {
		parsed, err := decimal.NewFromString(*amount)
		if err != nil {
			logger.Fatalf("invalid --amount %q: %v", *amount, err)
		}
		stolen = parsed
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	// The pool opens before the trace runs so persisted entity labels
	// participate in classification.
	var pool *pgstore.Pool
	if *postgresDSN != "" {
		var err error
		pool, err = pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("connect to postgres: %v", err)
		}
		defer pool.Close()
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatalf("run migrations: %v", err)
		}
	}

	rpc := solana.NewHTTPClient(*rpcEndpoint)
	registry := entity.NewRegistry()
	if pool != nil {
		if err := registry.LoadFrom(ctx, pgstore.NewEntityStore(pool)); err != nil {
			logger.Fatalf("load persisted entities: %v", err)
		}
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

	logger.Printf("Tracing from %s (max hops %d)", *address, *maxHops)
	result, err := tracer.Trace(ctx, trace.Request{
		SourceAddress: *address,
		StolenAmount:  stolen,
		Asset:         asset,
		MaxHops:       *maxHops,
	})
	if err != nil {
		logger.Fatalf("trace failed: %v", err)
	}

	traceID := idhash.ComputeTraceID(result.SourceAddress, result.Asset.String(), result.StartedAt)
	logger.Printf("Trace %s complete: %d flow rows, traced %s, untraced %s",
		traceID, len(result.FlowGraph),
		result.Summary.TracedAmount, result.Summary.UntracedAmount)

	if err := writeReports(*outputDir, traceID, result, *maxHops); err != nil {
		logger.Fatalf("write reports: %v", err)
	}
	logger.Printf("Reports written to %s", *outputDir)

	if pool != nil {
		if err := persistPostgres(ctx, pool, traceID, result, *maxHops); err != nil {
			logger.Fatalf("persist to postgres: %v", err)
		}
		logger.Println("Persisted to PostgreSQL")
	}

	if *clickhouseDSN != "" {
		if err := persistClickhouse(ctx, *clickhouseDSN, traceID, result); err != nil {
			logger.Fatalf("persist to clickhouse: %v", err)
		}
		logger.Println("Archived to ClickHouse")
	}
}

// writeReports renders markdown and CSV into the output directory.
func writeReports(dir, traceID string, result *domain.TraceResult, maxHops int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	report := reporting.FromResult(traceID, result, maxHops, time.Now().UTC())

	mdPath := filepath.Join(dir, fmt.Sprintf("trace_%s.md", traceID[:12]))
	if err := os.WriteFile(mdPath, []byte(reporting.RenderMarkdown(report)), 0o644); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}

	csvPath := filepath.Join(dir, fmt.Sprintf("trace_%s.csv", traceID[:12]))
	if err := os.WriteFile(csvPath, []byte(reporting.RenderCSV(report)), 0o644); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}

	return nil
}

// persistPostgres stores the trace header and flow rows.
func persistPostgres(ctx context.Context, pool *pgstore.Pool, traceID string, result *domain.TraceResult, maxHops int) error {
	now := time.Now().Unix()
	record := domain.BuildTraceRecord(traceID, result, maxHops, now)
	if err := pgstore.NewTraceStore(pool).Insert(ctx, record); err != nil {
		return fmt.Errorf("insert trace: %w", err)
	}
	if err := pgstore.NewFlowRowStore(pool).InsertBulk(ctx, domain.BuildFlowRows(traceID, result)); err != nil {
		return fmt.Errorf("insert flow rows: %w", err)
	}
	return nil
}

// persistClickhouse archives flow rows for cross-trace analytics.
func persistClickhouse(ctx context.Context, dsn, traceID string, result *domain.TraceResult) error {
	conn, err := migrations.RunClickhouseMigrations(ctx, dsn)
	if err != nil {
		return fmt.Errorf("run clickhouse migrations: %w", err)
	}
	defer conn.Close()

	if err := chstore.NewFlowRowStore(conn).InsertBulk(ctx, domain.BuildFlowRows(traceID, result)); err != nil {
		return fmt.Errorf("insert flow rows: %w", err)
	}
	return nil
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
