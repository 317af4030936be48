package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/nvaldebenito/contratos-pipeline/constants"
	"github.com/nvaldebenito/contratos-pipeline/internal/pipeline"
)

// Processor runs the pipeline for one document.
type Processor interface {
	Process(ctx context.Context, req pipeline.Request) pipeline.Outcome
}

type FileResult struct {
	Path    string
	Outcome pipeline.Outcome
}

type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Succeeded uint32
	Skipped   uint32
	Failed    uint32
}

// ProcessDirectory walks root and runs every PDF through the processor with
// at most workers documents in flight. Hidden files and directories are
// skipped. Per-file failures land in the results, not in the returned error.
func ProcessDirectory(ctx context.Context, p Processor, root string, workers int, logger *slog.Logger) ([]FileResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	var stats DirStats
	var mu sync.Mutex
	var results []FileResult

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		atomic.AddUint32(&stats.Scanned, 1)
		if err != nil {
			return err
		}
		if isHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !constants.IsPDF(path) {
			return nil
		}
		atomic.AddUint32(&stats.Matched, 1)

		g.Go(func() error {
			out := ProcessPath(gctx, p, path, logger)
			switch out.Status {
			case constants.StatusSuccess:
				atomic.AddUint32(&stats.Succeeded, 1)
			case constants.StatusSkipped:
				atomic.AddUint32(&stats.Skipped, 1)
			default:
				atomic.AddUint32(&stats.Failed, 1)
			}
			mu.Lock()
			results = append(results, FileResult{Path: path, Outcome: out})
			mu.Unlock()
			return nil
		})
		return nil
	})

	if err := g.Wait(); err != nil {
		return results, stats, err
	}
	return results, stats, walkErr
}

// ProcessPath reads one document from disk and runs it through the
// processor. A read failure is a failed outcome at the received stage.
func ProcessPath(ctx context.Context, p Processor, path string, logger *slog.Logger) pipeline.Outcome {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("read document failed", "path", path, "error", err)
		return pipeline.Outcome{
			Status: constants.StatusFailed,
			Stage:  constants.StageReceived,
			Reason: err.Error(),
		}
	}
	return p.Process(ctx, pipeline.Request{
		SourceName: filepath.Base(path),
		Document:   data,
	})
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
