package analysis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/zojatech/healthmate/backend/internal/application/generation"
	"github.com/zojatech/healthmate/backend/internal/domain/entities"
	"github.com/zojatech/healthmate/backend/internal/domain/providers"
	"github.com/zojatech/healthmate/backend/internal/infrastructure/observability"
)

// extractMedicalData turns document text into structured medical facts with
// one constrained generation call. Any failure yields the all-empty default;
// later stages run fine on an empty medication list.
func (s *AnalysisService) extractMedicalData(ctx context.Context, text string) *entities.ExtractedMedicalData {
	defer s.observeStage(ctx, "extraction", time.Now())
	logger := observability.LoggerFromContext(ctx)

	out, err := s.generator.Generate(ctx, providers.GenerationRequest{
		System:      extractionSystemPrompt,
		Prompt:      buildExtractionPrompt(text, s.cfg.MaxPromptChars),
		Temperature: 0.1,
		MaxTokens:   1500,
		JSONMode:    true,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("medical data extraction call failed, using empty default")
		return entities.EmptyExtractedMedicalData()
	}

	raw := generation.ExtractJSON(out)
	if err := generation.ValidateJSON(extractionSchema, raw); err != nil {
		logger.Warn().Err(err).Msg("medical data extraction payload rejected, using empty default")
		return entities.EmptyExtractedMedicalData()
	}

	var data entities.ExtractedMedicalData
	if err := json.Unmarshal(raw, &data); err != nil {
		logger.Warn().Err(err).Msg("medical data extraction payload unparseable, using empty default")
		return entities.EmptyExtractedMedicalData()
	}

	// Schema guarantees presence but not non-nil decoding of empty arrays.
	if data.Conditions == nil {
		data.Conditions = []entities.MedicalCondition{}
	}
	if data.Medications == nil {
		data.Medications = []entities.Medication{}
	}
	if data.Diagnoses == nil {
		data.Diagnoses = []string{}
	}
	if data.Symptoms == nil {
		data.Symptoms = []string{}
	}
	return &data
}
