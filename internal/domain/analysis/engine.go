package analysis

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ehr/healthmap/internal/domain/clinical"
	"github.com/ehr/healthmap/internal/domain/compliance"
	"github.com/ehr/healthmap/internal/domain/extraction"
	"github.com/ehr/healthmap/internal/domain/mapping"
)

// DefaultBatchConcurrency bounds the documents analysed at once in a batch.
const DefaultBatchConcurrency = 4

// ErrNoExtractor is returned when an input carries no entities and the
// engine has no extractor to derive them from the content.
var ErrNoExtractor = errors.New("no entity extractor configured")

// Input is one document to analyse. When Entities is nil they are extracted
// from Content.
type Input struct {
	Document extraction.HealthcareDocument `json:"document" yaml:"document"`
	Content  string                        `json:"content,omitempty" yaml:"content,omitempty"`
	Entities []extraction.MedicalEntity    `json:"entities" yaml:"entities"`
}

// AnalysisResult combines the clinical and compliance findings for a document.
type AnalysisResult struct {
	Decisions  []clinical.Decision            `json:"decisions"`
	Risk       clinical.RiskAssessment        `json:"risk"`
	Compliance compliance.SaudiComplianceData `json:"compliance"`
}

// Report is the full output for one document.
type Report struct {
	Mapping  *mapping.Result `json:"mapping"`
	Analysis AnalysisResult  `json:"analysis"`
}

// BatchItem is the outcome for one document of a batch, at the same index
// as its input.
type BatchItem struct {
	Index      int     `json:"index"`
	DocumentID string  `json:"documentId"`
	Report     *Report `json:"report,omitempty"`
	Error      string  `json:"error,omitempty"`
	Succeeded  bool    `json:"succeeded"`
}

// Engine runs mapping, clinical rules and compliance over a document.
type Engine struct {
	mapping     *mapping.Service
	clinical    *clinical.Engine
	compliance  *compliance.Assessor
	extractor   extraction.EntityExtractor
	concurrency int
	logger      zerolog.Logger
}

// Config wires an Engine. Extractor may be nil when callers always supply
// entities.
type Config struct {
	Mapping     *mapping.Service
	Clinical    *clinical.Engine
	Compliance  *compliance.Assessor
	Extractor   extraction.EntityExtractor
	Concurrency int
}

func NewEngine(cfg Config, logger zerolog.Logger) *Engine {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultBatchConcurrency
	}
	return &Engine{
		mapping:     cfg.Mapping,
		clinical:    cfg.Clinical,
		compliance:  cfg.Compliance,
		extractor:   cfg.Extractor,
		concurrency: cfg.Concurrency,
		logger:      logger.With().Str("component", "analysis").Logger(),
	}
}

// Analyze maps the document and evaluates its entities and content. Only a
// construction failure is returned as an error.
func (e *Engine) Analyze(doc extraction.HealthcareDocument, content string, entities []extraction.MedicalEntity) (*Report, error) {
	mapped, err := e.mapping.Map(doc, entities)
	if err != nil {
		return nil, err
	}

	normalized, _ := mapping.NormalizeEntities(entities)
	decisions := e.clinical.Evaluate(normalized)
	risk := clinical.AssessRisk(decisions)
	comp := e.compliance.Assess(content, doc.Category)

	e.logger.Info().
		Str("document_id", doc.ID).
		Str("category", string(doc.Category)).
		Int("quality", mapped.MappingQuality).
		Int("decisions", len(decisions)).
		Str("risk_level", string(risk.Level)).
		Int("risk_score", risk.Score).
		Msg("document analysed")

	return &Report{
		Mapping: mapped,
		Analysis: AnalysisResult{
			Decisions:  decisions,
			Risk:       risk,
			Compliance: comp,
		},
	}, nil
}

// AnalyzeContent extracts entities from content with the configured
// extractor and analyses the result.
func (e *Engine) AnalyzeContent(ctx context.Context, doc extraction.HealthcareDocument, content string) (*Report, error) {
	if e.extractor == nil {
		return nil, ErrNoExtractor
	}
	entities, err := e.extractor.Extract(ctx, content, doc.Category)
	if err != nil {
		return nil, fmt.Errorf("extract entities for document %s: %w", doc.ID, err)
	}
	return e.Analyze(doc, content, entities)
}

// Run analyses a single Input, extracting entities first when none are given.
func (e *Engine) Run(ctx context.Context, in Input) (*Report, error) {
	if in.Entities == nil && in.Content != "" && e.extractor != nil {
		return e.AnalyzeContent(ctx, in.Document, in.Content)
	}
	return e.Analyze(in.Document, in.Content, in.Entities)
}

// AnalyzeBatch analyses the inputs concurrently. A failing document is
// reported in its item and does not stop the others; the returned error is
// non-nil only when ctx is done.
func (e *Engine) AnalyzeBatch(ctx context.Context, inputs []Input) ([]BatchItem, error) {
	items := make([]BatchItem, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			item := BatchItem{Index: i, DocumentID: in.Document.ID}
			if err := gctx.Err(); err != nil {
				item.Error = err.Error()
				items[i] = item
				return err
			}
			report, err := e.Run(gctx, in)
			if err != nil {
				item.Error = err.Error()
			} else {
				item.Report = report
				item.Succeeded = true
			}
			items[i] = item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return items, fmt.Errorf("analyse batch: %w", err)
	}

	failed := 0
	for _, it := range items {
		if !it.Succeeded {
			failed++
		}
	}
	e.logger.Info().Int("documents", len(inputs)).Int("failed", failed).Msg("batch analysed")
	return items, nil
}
