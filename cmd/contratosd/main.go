// contratosd watches inbound directories for contract PDFs, runs each one
// through the extraction pipeline, and serves gRPC health for probes.
package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"go.uber.org/zap"

	"github.com/nvaldebenito/contratos-pipeline/internal/common"
	"github.com/nvaldebenito/contratos-pipeline/internal/extract"
	"github.com/nvaldebenito/contratos-pipeline/internal/ingest"
	"github.com/nvaldebenito/contratos-pipeline/internal/llm/openai"
	"github.com/nvaldebenito/contratos-pipeline/internal/pipeline"
	"github.com/nvaldebenito/contratos-pipeline/internal/store"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	log := logger.Sugar()

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(slogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.OpenPostgres(ctx, cfg.Database.DSN, slogger)
	if err != nil {
		log.Fatalf("opening DB: %v", err)
	}
	defer st.Close()
	if err := st.Ping(ctx); err != nil {
		log.Fatalf("DB health failed: %v", err)
	}
	log.Infow("DB health OK")

	extractor := extract.NewDocIntelClient(extract.DocIntelConfig{
		Endpoint: cfg.DocIntel.Endpoint,
		Key:      cfg.DocIntel.APIKey,
		Timeout:  cfg.DocIntel.Timeout,
	}, slogger)

	semantic := openai.NewClient(openai.Config{
		APIKey:            cfg.LLM.APIKey,
		BaseURL:           cfg.LLM.BaseURL,
		Model:             cfg.LLM.Model,
		Temperature:       cfg.LLM.Temperature,
		Timeout:           cfg.LLM.Timeout,
		RequestsPerMinute: cfg.LLM.RPM,
	}, slogger)

	orch := pipeline.NewOrchestrator(st, extractor, semantic, nil, slogger)

	evCh, errCh, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{cfg.Watch.Root},
		InitialScan: true,
		Debounce:    cfg.Watch.Debounce,
	}, slogger)
	if err != nil {
		log.Fatalf("starting watcher: %v", err)
	}
	log.Infof("watching %s with %d workers", cfg.Watch.Root, cfg.Watch.Workers)

	var wg sync.WaitGroup
	for i := 0; i < cfg.Watch.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range evCh {
				runCtx, cancel := context.WithTimeout(ctx, cfg.Watch.RunTimeout)
				out := ingest.ProcessPath(runCtx, orch, path, slogger)
				cancel()
				log.Infow("document processed",
					"path", path,
					"status", out.Status,
					"stage", out.Stage,
					"contract_id", out.ContractID,
					"reason", out.Reason,
				)
			}
		}()
	}
	go func() {
		for err := range errCh {
			log.Errorw("watcher error", "error", err)
		}
	}()

	grpcServer := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		log.Fatalf("listen: %v", err)
	}
	log.Infof("gRPC serving on %s", cfg.Server.GRPCAddr)

	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalf("grpc serve: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	grpcServer.GracefulStop()
	wg.Wait()
	log.Info("stopped")
}
