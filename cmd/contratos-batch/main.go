// contratos-batch processes every PDF under a directory in one run and
// optionally writes an XLSX summary of the resulting contracts. With -inmem
// it runs against a throwaway SQLite database, useful for dry runs.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nvaldebenito/contratos-pipeline/internal/common"
	"github.com/nvaldebenito/contratos-pipeline/internal/export"
	"github.com/nvaldebenito/contratos-pipeline/internal/extract"
	"github.com/nvaldebenito/contratos-pipeline/internal/ingest"
	"github.com/nvaldebenito/contratos-pipeline/internal/llm/openai"
	"github.com/nvaldebenito/contratos-pipeline/internal/pipeline"
	"github.com/nvaldebenito/contratos-pipeline/internal/store"
)

func printError(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		inmem   = flag.Bool("inmem", false, "use in-memory SQLite database")
		dir     = flag.String("dir", "", "directory to process contracts from (required)")
		out     = flag.String("out", "", "output XLSX file path (optional)")
		workers = flag.Int("workers", 4, "documents processed in parallel")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: -dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(*dir), "contratos.xlsx")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()
	cfg := common.LoadConfig()

	var st *store.Store
	var err error
	if *inmem {
		st, err = store.OpenSQLite(logger)
		if err == nil {
			err = st.InitSchema(ctx)
		}
	} else {
		if cfg.Database.DSN == "" {
			printError("Error: DB_URL is required without -inmem\n")
			os.Exit(1)
		}
		st, err = store.OpenPostgres(ctx, cfg.Database.DSN, logger)
	}
	if err != nil {
		printError("Error: opening store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	extractor := extract.NewDocIntelClient(extract.DocIntelConfig{
		Endpoint: cfg.DocIntel.Endpoint,
		Key:      cfg.DocIntel.APIKey,
		Timeout:  cfg.DocIntel.Timeout,
	}, logger)

	semantic := openai.NewClient(openai.Config{
		APIKey:            cfg.LLM.APIKey,
		BaseURL:           cfg.LLM.BaseURL,
		Model:             cfg.LLM.Model,
		Temperature:       cfg.LLM.Temperature,
		Timeout:           cfg.LLM.Timeout,
		RequestsPerMinute: cfg.LLM.RPM,
	}, logger)

	orch := pipeline.NewOrchestrator(st, extractor, semantic, nil, logger)

	results, stats, err := ingest.ProcessDirectory(ctx, orch, *dir, *workers, logger)
	if err != nil {
		printError("Error: processing directory: %v\n", err)
		os.Exit(1)
	}
	for _, r := range results {
		if r.Outcome.Reason != "" {
			logger.Warn("document did not complete",
				"path", r.Path, "status", r.Outcome.Status,
				"stage", r.Outcome.Stage, "reason", r.Outcome.Reason)
		}
	}
	fmt.Printf("scanned=%d matched=%d succeeded=%d skipped=%d failed=%d\n",
		stats.Scanned, stats.Matched, stats.Succeeded, stats.Skipped, stats.Failed)

	data, err := export.NewService(st, logger).ExportContractsXLSX(ctx)
	if err != nil {
		printError("Error: exporting XLSX: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		printError("Error: writing %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s\n", *out)
}
