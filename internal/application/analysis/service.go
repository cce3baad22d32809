package analysis

import (
	"context"
	"time"

	"github.com/zojatech/healthmate/backend/internal/domain/entities"
	"github.com/zojatech/healthmate/backend/internal/domain/providers"
	"github.com/zojatech/healthmate/backend/internal/domain/repositories"
	"github.com/zojatech/healthmate/backend/internal/infrastructure/observability"
	"github.com/zojatech/healthmate/backend/pkg/config"
	apperrors "github.com/zojatech/healthmate/backend/pkg/errors"
)

// AnalysisService runs the full document analysis pipeline: cache gate, text
// acquisition, medical data extraction, drug enrichment, interaction check,
// condition inference, assessment, the three insight generators, assembly
// and persistence.
//
// Only text acquisition can fail the run. Every later stage catches its own
// failures and substitutes its documented default, so the caller always gets
// a complete (possibly degraded) result once source text exists.
type AnalysisService struct {
	documents    repositories.DocumentRepository
	analyses     repositories.AnalysisRepository
	parser       providers.DocumentParser
	generator    providers.TextGenerator
	drugs        providers.DrugLookupProvider
	interactions providers.DrugInteractionProvider
	metrics      *observability.Metrics
	cfg          config.PipelineConfig
}

// NewAnalysisService creates the pipeline service. The generator is expected
// to be a fallback chain; metrics may be nil.
func NewAnalysisService(
	documents repositories.DocumentRepository,
	analyses repositories.AnalysisRepository,
	parser providers.DocumentParser,
	generator providers.TextGenerator,
	drugs providers.DrugLookupProvider,
	interactions providers.DrugInteractionProvider,
	metrics *observability.Metrics,
	cfg config.PipelineConfig,
) *AnalysisService {
	if cfg.MinTextLength <= 0 {
		cfg.MinTextLength = 50
	}
	if cfg.MaxPromptChars <= 0 {
		cfg.MaxPromptChars = 8000
	}
	if cfg.EnrichmentWorkers <= 0 {
		cfg.EnrichmentWorkers = 4
	}
	if cfg.MaxRecommendations <= 0 {
		cfg.MaxRecommendations = 6
	}
	return &AnalysisService{
		documents:    documents,
		analyses:     analyses,
		parser:       parser,
		generator:    generator,
		drugs:        drugs,
		interactions: interactions,
		metrics:      metrics,
		cfg:          cfg,
	}
}

// RunFullAnalysis produces the analysis artifact for a document. When
// forceRefresh is false and a current analysis exists it is returned as-is
// with CachedAt set, and no collaborator is called.
func (s *AnalysisService) RunFullAnalysis(ctx context.Context, documentID, userID string, forceRefresh bool) (*entities.FullAnalysisResult, error) {
	if documentID == "" {
		return nil, apperrors.NewValidationError("document ID is required")
	}
	logger := observability.LoggerFromContext(ctx)

	if !forceRefresh {
		cached, err := s.analyses.GetCurrent(ctx, documentID)
		if err == nil && cached != nil {
			logger.Info().Str("document_id", documentID).Msg("analysis cache hit")
			s.recordCache(ctx, true)
			return cached, nil
		}
		if err != nil && !apperrors.IsNotFound(err) {
			logger.Warn().Err(err).Str("document_id", documentID).Msg("analysis cache read failed, running pipeline")
		}
		s.recordCache(ctx, false)
	}

	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	// Text acquisition is the one fatal stage: nothing downstream can run
	// without source text.
	text, err := s.acquireText(ctx, doc)
	if err != nil {
		return nil, err
	}

	data := s.extractMedicalData(ctx, text)
	data.Medications = s.enrichMedications(ctx, data.Medications)
	interactions := s.checkInteractions(ctx, data.Medications)
	inferred := s.inferConditions(ctx, data.Medications)
	assessment := s.generateAssessment(ctx, data, inferred, interactions)
	insights := s.medicationInsights(ctx, data.Medications, interactions)
	foods := s.foodRecommendations(ctx, data, inferred)
	safety := s.safetyInsights(ctx, data, interactions)

	result := assembleResult(assembleInput{
		Document:     doc,
		Data:         data,
		Inferred:     inferred,
		Interactions: interactions,
		Assessment:   assessment,
		Insights:     insights,
		Foods:        foods,
		Safety:       safety,
		MaxRecs:      s.cfg.MaxRecommendations,
	})

	userForPersist := userID
	if userForPersist == "" {
		userForPersist = doc.UserID
	}
	s.persist(ctx, documentID, userForPersist, result)

	logger.Info().
		Str("document_id", documentID).
		Str("document_type", result.DocumentType).
		Int("medications", len(data.Medications)).
		Int("interactions", len(interactions)).
		Msg("analysis pipeline completed")
	return result, nil
}

// persist writes the analysis and its denormalized sub-records. Failures
// are logged, never returned: the caller already holds the full result.
func (s *AnalysisService) persist(ctx context.Context, documentID, userID string, result *entities.FullAnalysisResult) {
	logger := observability.LoggerFromContext(ctx)

	if err := s.analyses.Upsert(ctx, documentID, userID, result); err != nil {
		logger.Error().Err(err).Str("document_id", documentID).Msg("failed to persist analysis")
	}
	if records := conditionRecords(documentID, userID, result); len(records) > 0 {
		if err := s.analyses.UpsertConditions(ctx, records); err != nil {
			logger.Error().Err(err).Str("document_id", documentID).Msg("failed to persist conditions")
		}
	}
	if err := s.analyses.ReplaceFoodRecommendations(ctx, documentID, result.FoodRecommendations); err != nil {
		logger.Error().Err(err).Str("document_id", documentID).Msg("failed to persist food recommendations")
	}
}

// conditionRecords flattens documented and inferred conditions into rows for
// the conditions table.
func conditionRecords(documentID, userID string, result *entities.FullAnalysisResult) []repositories.ConditionRecord {
	var records []repositories.ConditionRecord
	if result.ExtractedData != nil {
		for _, c := range result.ExtractedData.Conditions {
			records = append(records, repositories.ConditionRecord{
				DocumentID:  documentID,
				UserID:      userID,
				Name:        c.Name,
				Severity:    c.Severity,
				Description: c.Description,
				Source:      repositories.ConditionSourceDocument,
			})
		}
	}
	for _, c := range result.DiagnosedConditions {
		records = append(records, repositories.ConditionRecord{
			DocumentID:  documentID,
			UserID:      userID,
			Name:        c.Condition,
			Description: c.Description,
			Source:      repositories.ConditionSourceInference,
		})
	}
	return records
}

func (s *AnalysisService) observeStage(ctx context.Context, stage string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordStageDuration(ctx, stage, time.Since(start))
}

func (s *AnalysisService) recordCache(ctx context.Context, hit bool) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordCacheLookup(ctx, hit)
}
