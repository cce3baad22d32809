package analysis

import (
	"context"
	"strings"
	"time"

	"github.com/zojatech/healthmate/backend/internal/application/generation"
	"github.com/zojatech/healthmate/backend/internal/domain/entities"
	"github.com/zojatech/healthmate/backend/internal/domain/providers"
	"github.com/zojatech/healthmate/backend/internal/infrastructure/observability"
)

// inferConditions reasons from the medication list to the conditions it
// likely treats. Documents often under-specify the diagnosis while listing
// the prescription in full, so this complements the extracted conditions.
// An empty medication list skips the call entirely.
func (s *AnalysisService) inferConditions(ctx context.Context, meds []entities.Medication) []entities.DiagnosedCondition {
	if len(meds) == 0 {
		return []entities.DiagnosedCondition{}
	}
	defer s.observeStage(ctx, "inference", time.Now())
	logger := observability.LoggerFromContext(ctx)

	out, err := s.generator.Generate(ctx, providers.GenerationRequest{
		System:      inferenceSystemPrompt,
		Prompt:      "Medications:\n" + medicationBlock(meds),
		Temperature: 0.2,
		MaxTokens:   1200,
		JSONMode:    true,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("condition inference call failed, skipping")
		return []entities.DiagnosedCondition{}
	}

	conditions, err := generation.DecodeList[entities.DiagnosedCondition](out, "conditions", "diagnosed_conditions", "items", "data")
	if err != nil {
		logger.Warn().Err(err).Msg("condition inference payload unparseable, skipping")
		return []entities.DiagnosedCondition{}
	}

	kept := make([]entities.DiagnosedCondition, 0, len(conditions))
	for _, c := range conditions {
		if strings.TrimSpace(c.Condition) == "" {
			continue
		}
		c.Confidence = normalizeConfidence(c.Confidence)
		if c.InferredFrom == nil {
			c.InferredFrom = []string{}
		}
		kept = append(kept, c)
	}
	return kept
}

func normalizeConfidence(confidence string) string {
	switch strings.ToLower(strings.TrimSpace(confidence)) {
	case "high":
		return entities.ConfidenceHigh
	case "low":
		return entities.ConfidenceLow
	default:
		return entities.ConfidenceMedium
	}
}
