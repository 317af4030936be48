// Package pipeline drives one document through the fixed stage sequence:
// received, deduplicating, extracting_text, extracting_semantics, mapping,
// persisting, done. Each run is independent; same-document races resolve in
// the store's transaction.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/nvaldebenito/contratos-pipeline/constants"
	"github.com/nvaldebenito/contratos-pipeline/internal/common"
	"github.com/nvaldebenito/contratos-pipeline/internal/entity"
	"github.com/nvaldebenito/contratos-pipeline/internal/extract"
	"github.com/nvaldebenito/contratos-pipeline/internal/llm"
	"github.com/nvaldebenito/contratos-pipeline/internal/mapper"
)

// ContractStore is the slice of the persistence layer the orchestrator needs.
type ContractStore interface {
	Check(ctx context.Context, key string) (bool, error)
	InsertGraph(ctx context.Context, g *entity.ContractGraph) (uuid.UUID, error)
}

// Request identifies one document to process.
type Request struct {
	// DocumentKey is the stable identity used for deduplication. Empty key
	// falls back to SourceName.
	DocumentKey string
	SourceName  string
	Document    []byte

	InternalReference string
}

// Outcome is the terminal result of a run. Exactly one of the three statuses
// applies: success carries the contract ID, failed carries the stage that
// broke and a reason, skipped carries neither.
type Outcome struct {
	Status     constants.OutcomeStatus
	ContractID uuid.UUID
	Stage      constants.Stage
	Reason     string
	Warnings   []string
}

type Orchestrator struct {
	store     ContractStore
	extractor extract.TextExtractor
	semantic  llm.SemanticExtractor
	mapper    *mapper.Mapper
	logger    *slog.Logger
}

func NewOrchestrator(
	store ContractStore,
	extractor extract.TextExtractor,
	semantic llm.SemanticExtractor,
	m *mapper.Mapper,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = mapper.New(logger)
	}
	return &Orchestrator{
		store:     store,
		extractor: extractor,
		semantic:  semantic,
		mapper:    m,
		logger:    logger,
	}
}

// Process runs the full pipeline for one document. It never panics on bad
// input and never returns an error: every ending is an Outcome.
func (o *Orchestrator) Process(ctx context.Context, req Request) Outcome {
	key := req.DocumentKey
	if key == "" {
		key = req.SourceName
	}
	log := o.logger.With("document", req.SourceName, "document_key", key)
	log.Info("pipeline.start", "stage", constants.StageReceived, "bytes", len(req.Document))

	proceed, err := o.store.Check(ctx, key)
	if err != nil {
		return o.fail(log, constants.StageDeduplicating, err)
	}
	if !proceed {
		log.Info("pipeline.skipped", "stage", constants.StageDeduplicating)
		return Outcome{Status: constants.StatusSkipped, Stage: constants.StageDeduplicating}
	}

	text, err := o.extractor.Extract(ctx, req.Document)
	if err != nil {
		return o.fail(log, constants.StageExtractingText, err)
	}
	contractText := text.Text()

	doc, err := o.semantic.Extract(ctx, contractText)
	if err != nil {
		return o.fail(log, constants.StageExtractingSemantic, err)
	}

	meta := entity.DocumentMetadata{
		SourceDocumentName: req.SourceName,
		PageCount:          text.PageCount(),
		InternalReference:  req.InternalReference,
		PageObservations:   strings.Join(text.Warnings, "; "),
		TokenCount:         estimateTokens(contractText),
		WordCount:          text.WordCount(),
	}
	graph, err := o.mapper.Map(doc, meta)
	if err != nil {
		return o.fail(log, constants.StageMapping, err)
	}
	graph.Contract.DocumentKey = key

	id, err := o.store.InsertGraph(ctx, graph)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateDocument) {
			// lost the race to a concurrent run; same terminal state as the
			// upfront gate
			log.Info("pipeline.skipped", "stage", constants.StagePersisting, "reason", "duplicate document")
			return Outcome{Status: constants.StatusSkipped, Stage: constants.StagePersisting, Warnings: graph.Warnings}
		}
		return o.fail(log, constants.StagePersisting, err)
	}

	log.Info("pipeline.done",
		"stage", constants.StageDone,
		"contract_id", id,
		"warnings", len(graph.Warnings),
	)
	return Outcome{
		Status:     constants.StatusSuccess,
		ContractID: id,
		Stage:      constants.StageDone,
		Warnings:   graph.Warnings,
	}
}

func (o *Orchestrator) fail(log *slog.Logger, stage constants.Stage, err error) Outcome {
	reason := err.Error()
	if common.IsTimeout(err) {
		reason = "timeout"
	}
	log.Error("pipeline.failed", "stage", stage, "reason", reason, "error", err)
	return Outcome{Status: constants.StatusFailed, Stage: stage, Reason: reason}
}

// estimateTokens approximates the model token count of the contract text.
// Close enough for the provenance column; exact usage is not reported by
// every endpoint.
func estimateTokens(text string) int {
	return len(text) / 4
}
