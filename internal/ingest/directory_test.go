package ingest

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvaldebenito/contratos-pipeline/constants"
	"github.com/nvaldebenito/contratos-pipeline/internal/pipeline"
)

type recordingProcessor struct {
	mu   sync.Mutex
	seen []string
}

func (r *recordingProcessor) Process(_ context.Context, req pipeline.Request) pipeline.Outcome {
	r.mu.Lock()
	r.seen = append(r.seen, req.SourceName)
	r.mu.Unlock()
	if req.SourceName == "duplicado.pdf" {
		return pipeline.Outcome{Status: constants.StatusSkipped, Stage: constants.StageDeduplicating}
	}
	return pipeline.Outcome{Status: constants.StatusSuccess, Stage: constants.StageDone}
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.7"), 0o644))
}

func TestProcessDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.pdf"))
	writeFile(t, filepath.Join(root, "sub", "b.PDF"))
	writeFile(t, filepath.Join(root, "sub", "duplicado.pdf"))
	writeFile(t, filepath.Join(root, "notas.txt"))
	writeFile(t, filepath.Join(root, ".oculto", "c.pdf"))

	p := &recordingProcessor{}
	results, stats, err := ProcessDirectory(context.Background(), p, root, 2, nil)
	require.NoError(t, err)

	assert.Equal(t, uint32(3), stats.Matched, "txt and hidden dir must not match")
	assert.Equal(t, uint32(2), stats.Succeeded)
	assert.Equal(t, uint32(1), stats.Skipped)
	assert.Equal(t, uint32(0), stats.Failed)
	assert.Len(t, results, 3)
	assert.ElementsMatch(t, []string{"a.pdf", "b.PDF", "duplicado.pdf"}, p.seen)
}

func TestProcessDirectoryEmptyRoot(t *testing.T) {
	_, _, err := ProcessDirectory(context.Background(), &recordingProcessor{}, "  ", 2, nil)
	require.Error(t, err)
}
