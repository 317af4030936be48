package pipeline

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvaldebenito/contratos-pipeline/constants"
	"github.com/nvaldebenito/contratos-pipeline/internal/common"
	"github.com/nvaldebenito/contratos-pipeline/internal/extract"
	"github.com/nvaldebenito/contratos-pipeline/internal/store"
)

type fakeExtractor struct {
	pages []string
	err   error
	block bool
}

func (f *fakeExtractor) Extract(ctx context.Context, _ []byte) (extract.TextExtractionResult, error) {
	if f.block {
		<-ctx.Done()
		return extract.TextExtractionResult{}, ctx.Err()
	}
	if f.err != nil {
		return extract.TextExtractionResult{}, f.err
	}
	return extract.TextExtractionResult{Pages: f.pages}, nil
}

type fakeSemantic struct {
	raw   string
	err   error
	calls int
}

func (f *fakeSemantic) Extract(_ context.Context, _ string) (map[string]any, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(f.raw), &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

const extractionDoc = `{
	"Contrato": {
		"tipo_contrato": "Prestación de Servicios",
		"tipo_servicio": "Mantención",
		"fecha_inicio": "2024-01-01",
		"fecha_termino": "2024-12-31",
		"monto_total": 500000
	},
	"CompaniaInfo": {"nombre": "Minera Andina SpA", "rut": "76.123.456-7"},
	"Multas": [
		{"tipo_incumplimiento": "Atraso", "monto_multa_uf": 50}
	]
}`

func newTestOrchestrator(t *testing.T, ex *fakeExtractor, sem *fakeSemantic) (*Orchestrator, *store.Store) {
	t.Helper()
	s, err := store.OpenSQLite(nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.InitSchema(context.Background()))
	return NewOrchestrator(s, ex, sem, nil, nil), s
}

func TestProcessSuccess(t *testing.T) {
	ex := &fakeExtractor{pages: []string{"CONTRATO DE SERVICIOS", "CLÁUSULA PRIMERA"}}
	sem := &fakeSemantic{raw: extractionDoc}
	o, s := newTestOrchestrator(t, ex, sem)

	out := o.Process(context.Background(), Request{
		SourceName: "contrato.pdf",
		Document:   []byte("%PDF"),
	})

	require.Equal(t, constants.StatusSuccess, out.Status, "reason: %s", out.Reason)
	require.NotEqual(t, uuid.Nil, out.ContractID)
	assert.Equal(t, constants.StageDone, out.Stage)

	g, err := s.LoadGraph(context.Background(), out.ContractID)
	require.NoError(t, err)
	assert.Equal(t, "contrato.pdf", g.Contract.DocumentKey)
	assert.Equal(t, "contrato.pdf", g.Contract.SourceDocumentName)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), g.Contract.StartDate)
	assert.Equal(t, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), g.Contract.EndDate)
	require.NotNil(t, g.Contract.TotalAmount)
	assert.Equal(t, "500000", g.Contract.TotalAmount.String())
	assert.Equal(t, 2, g.Contract.PageCount)
	require.Len(t, g.Fines, 1)
	require.NotNil(t, g.Fines[0].AmountUF)
	assert.Equal(t, "50", g.Fines[0].AmountUF.String())
	require.Len(t, g.Parties, 1)
	assert.Equal(t, "76123456-7", g.Parties[0].RUT)
}

func TestProcessIdempotent(t *testing.T) {
	ex := &fakeExtractor{pages: []string{"texto"}}
	sem := &fakeSemantic{raw: extractionDoc}
	o, _ := newTestOrchestrator(t, ex, sem)

	req := Request{SourceName: "Contrato.PDF", Document: []byte("%PDF")}

	first := o.Process(context.Background(), req)
	require.Equal(t, constants.StatusSuccess, first.Status, "reason: %s", first.Reason)

	second := o.Process(context.Background(), req)
	assert.Equal(t, constants.StatusSkipped, second.Status)
	assert.Equal(t, constants.StageDeduplicating, second.Stage)
	assert.Equal(t, 1, sem.calls, "duplicate must be skipped before any extraction")
}

func TestProcessTimeoutDuringExtraction(t *testing.T) {
	ex := &fakeExtractor{block: true}
	sem := &fakeSemantic{raw: extractionDoc}
	o, _ := newTestOrchestrator(t, ex, sem)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	out := o.Process(ctx, Request{SourceName: "lento.pdf", Document: []byte("%PDF")})
	assert.Equal(t, constants.StatusFailed, out.Status)
	assert.Equal(t, constants.StageExtractingText, out.Stage)
	assert.Equal(t, "timeout", out.Reason)
}

func TestProcessSemanticFailure(t *testing.T) {
	ex := &fakeExtractor{pages: []string{"texto"}}
	sem := &fakeSemantic{err: &common.SemanticExtractionError{Reason: "model output is not valid JSON"}}
	o, _ := newTestOrchestrator(t, ex, sem)

	out := o.Process(context.Background(), Request{SourceName: "roto.pdf", Document: []byte("%PDF")})
	assert.Equal(t, constants.StatusFailed, out.Status)
	assert.Equal(t, constants.StageExtractingSemantic, out.Stage)
	assert.Contains(t, out.Reason, "not valid JSON")
}

func TestProcessMappingFailure(t *testing.T) {
	ex := &fakeExtractor{pages: []string{"texto"}}
	sem := &fakeSemantic{raw: `{"Contrato": {"tipo_contrato": "Servicios"}}`}
	o, _ := newTestOrchestrator(t, ex, sem)

	out := o.Process(context.Background(), Request{SourceName: "incompleto.pdf", Document: []byte("%PDF")})
	assert.Equal(t, constants.StatusFailed, out.Status)
	assert.Equal(t, constants.StageMapping, out.Stage)
	assert.Contains(t, out.Reason, "tipo_servicio")
}

func TestProcessExtractionFailure(t *testing.T) {
	ex := &fakeExtractor{err: &common.ExtractionError{Document: "malo.pdf"}}
	sem := &fakeSemantic{raw: extractionDoc}
	o, _ := newTestOrchestrator(t, ex, sem)

	out := o.Process(context.Background(), Request{SourceName: "malo.pdf", Document: []byte("no pdf")})
	assert.Equal(t, constants.StatusFailed, out.Status)
	assert.Equal(t, constants.StageExtractingText, out.Stage)
	assert.NotEmpty(t, out.Reason)
}
