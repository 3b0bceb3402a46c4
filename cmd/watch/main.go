// Package main provides the watch CLI: live monitoring of flagged wallets
// after a trace, alerting when they move funds again.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"solana-fund-tracer/internal/solana"
	pgstore "solana-fund-tracer/internal/storage/postgres"
	"solana-fund-tracer/internal/watch"
)

func main() {
	rpcEndpoint := flag.String("rpc-endpoint", os.Getenv("SOLANA_RPC_ENDPOINT"), "Solana RPC HTTP endpoint")
	wsEndpoint := flag.String("ws-endpoint", os.Getenv("SOLANA_WS_ENDPOINT"), "Solana WebSocket endpoint")
	addresses := flag.String("addresses", "", "Comma-separated addresses to watch")
	traceID := flag.String("trace-id", "", "Watch endpoint addresses of a persisted trace")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string (required with --trace-id)")

	flag.Parse()

	logger := log.New(os.Stdout, "[watch] ", log.LstdFlags)

	if *rpcEndpoint == "" {
		logger.Fatal("--rpc-endpoint is required")
	}
	if *wsEndpoint == "" {
		logger.Fatal("--ws-endpoint is required")
	}
	if *addresses == "" && *traceID == "" {
		logger.Fatal("--addresses or --trace-id is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watched := splitAddresses(*addresses)
	if *traceID != "" {
		if *postgresDSN == "" {
			logger.Fatal("--postgres-dsn is required with --trace-id")
		}
		fromTrace, err := traceAddresses(ctx, *postgresDSN, *traceID)
		if err != nil {
			logger.Fatalf("load trace %s: %v", *traceID, err)
		}
		watched = append(watched, fromTrace...)
	}
	if len(watched) == 0 {
		logger.Fatal("no addresses to watch")
	}
	logger.Printf("Watching %d addresses", len(watched))

	ws, err := solana.NewWSClient(ctx, *wsEndpoint, nil)
	if err != nil {
		logger.Fatalf("connect websocket: %v", err)
	}
	defer ws.Close()

	rpc := solana.NewHTTPClient(*rpcEndpoint)

	monitor := watch.NewMonitor(watch.MonitorOptions{
		WS:        ws,
		RPC:       rpc,
		Addresses: watched,
		Logger:    logger,
	})

	alerts, err := monitor.Run(ctx)
	if err != nil {
		logger.Fatalf("start monitor: %v", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down", sig)
		cancel()
	}()

	for alert := range alerts {
		for _, tr := range alert.Transfers {
			logger.Printf("ALERT %s moved %s %s to %s (tx %s, slot %d)",
				alert.Address, tr.Amount, tr.Asset.Symbol(), tr.To,
				alert.TxSignature, alert.Slot)
		}
	}
	logger.Println("Monitor stopped")
}

// splitAddresses parses the comma-separated address flag.
func splitAddresses(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// traceAddresses loads the terminal endpoint addresses of a persisted trace.
func traceAddresses(ctx context.Context, dsn, traceID string) ([]string, error) {
	pool, err := pgstore.NewPool(ctx, dsn)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	rows, err := pgstore.NewFlowRowStore(pool).GetByTraceID(ctx, traceID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var out []string
	for _, row := range rows {
		if row.EntityCategory == "" {
			continue
		}
		if _, ok := seen[row.Address]; ok {
			continue
		}
		seen[row.Address] = struct{}{}
		out = append(out, row.Address)
	}
	return out, nil
}
