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

// The three insight generators are independent peers over the accumulated
// context. Each issues one constrained call for its own shape and degrades
// to an empty list on any failure.

// medicationInsights explains why each known medication was prescribed.
// Best-effort: the model may omit a medication.
func (s *AnalysisService) medicationInsights(ctx context.Context, meds []entities.Medication, interactions []entities.DrugInteraction) []entities.MedicationInsight {
	if len(meds) == 0 {
		return []entities.MedicationInsight{}
	}
	defer s.observeStage(ctx, "medication_insights", time.Now())
	logger := observability.LoggerFromContext(ctx)

	prompt := "Medications:\n" + medicationBlock(meds)
	if len(interactions) > 0 {
		prompt += "\nKnown interactions:\n" + interactionBlock(interactions)
	}

	out, err := s.generator.Generate(ctx, providers.GenerationRequest{
		System:      medicationInsightSystemPrompt,
		Prompt:      prompt,
		Temperature: 0.3,
		MaxTokens:   1500,
		JSONMode:    true,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("medication insight call failed, skipping")
		return []entities.MedicationInsight{}
	}

	insights, err := generation.DecodeList[entities.MedicationInsight](out, "insights", "medications", "medication_insights", "items", "data")
	if err != nil {
		logger.Warn().Err(err).Msg("medication insight payload unparseable, skipping")
		return []entities.MedicationInsight{}
	}

	// Attach canonical ids by name so the UI can link back to the
	// enriched medication.
	byName := make(map[string]string, len(meds))
	for _, m := range meds {
		byName[strings.ToLower(strings.TrimSpace(m.Name))] = m.RxCUI
	}
	kept := make([]entities.MedicationInsight, 0, len(insights))
	for _, in := range insights {
		if strings.TrimSpace(in.Medication) == "" {
			continue
		}
		if in.RxCUI == "" {
			in.RxCUI = byName[strings.ToLower(strings.TrimSpace(in.Medication))]
		}
		kept = append(kept, in)
	}
	return kept
}

// foodRecommendations suggests dietary categories for the condition set.
func (s *AnalysisService) foodRecommendations(ctx context.Context, data *entities.ExtractedMedicalData, inferred []entities.DiagnosedCondition) []entities.FoodRecommendation {
	defer s.observeStage(ctx, "food_recommendations", time.Now())
	logger := observability.LoggerFromContext(ctx)

	var b strings.Builder
	b.WriteString("Conditions:\n")
	if block := conditionBlock(data.Conditions, inferred); block != "" {
		b.WriteString(block)
	} else {
		b.WriteString("(none documented)\n")
	}
	b.WriteString("\nMedications:\n")
	if block := medicationBlock(data.Medications); block != "" {
		b.WriteString(block)
	} else {
		b.WriteString("(none documented)\n")
	}

	out, err := s.generator.Generate(ctx, providers.GenerationRequest{
		System:      foodSystemPrompt,
		Prompt:      b.String(),
		Temperature: 0.4,
		MaxTokens:   1500,
		JSONMode:    true,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("food recommendation call failed, skipping")
		return []entities.FoodRecommendation{}
	}

	recs, err := generation.DecodeList[entities.FoodRecommendation](out, "recommendations", "food_recommendations", "foods", "items", "data")
	if err != nil {
		logger.Warn().Err(err).Msg("food recommendation payload unparseable, skipping")
		return []entities.FoodRecommendation{}
	}

	kept := make([]entities.FoodRecommendation, 0, len(recs))
	for _, r := range recs {
		if strings.TrimSpace(r.Category) == "" {
			continue
		}
		if r.Score < 0 {
			r.Score = 0
		}
		if r.Score > 100 {
			r.Score = 100
		}
		if r.Foods == nil {
			r.Foods = []string{}
		}
		kept = append(kept, r)
	}
	return kept
}

// safetyInsights produces 3-5 safety question/answer pairs, each with a
// normalized risk level.
func (s *AnalysisService) safetyInsights(ctx context.Context, data *entities.ExtractedMedicalData, interactions []entities.DrugInteraction) []entities.SafetyInsight {
	defer s.observeStage(ctx, "safety_insights", time.Now())
	logger := observability.LoggerFromContext(ctx)

	var b strings.Builder
	b.WriteString("Conditions:\n")
	if block := conditionBlock(data.Conditions, nil); block != "" {
		b.WriteString(block)
	} else {
		b.WriteString("(none documented)\n")
	}
	b.WriteString("\nMedications:\n")
	if block := medicationBlock(data.Medications); block != "" {
		b.WriteString(block)
	} else {
		b.WriteString("(none documented)\n")
	}
	if len(interactions) > 0 {
		b.WriteString("\nKnown interactions:\n")
		b.WriteString(interactionBlock(interactions))
	}

	out, err := s.generator.Generate(ctx, providers.GenerationRequest{
		System:      safetySystemPrompt,
		Prompt:      b.String(),
		Temperature: 0.3,
		MaxTokens:   1000,
		JSONMode:    true,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("safety insight call failed, skipping")
		return []entities.SafetyInsight{}
	}

	insights, err := generation.DecodeList[entities.SafetyInsight](out, "questions", "safety_insights", "insights", "items", "data")
	if err != nil {
		logger.Warn().Err(err).Msg("safety insight payload unparseable, skipping")
		return []entities.SafetyInsight{}
	}

	kept := make([]entities.SafetyInsight, 0, len(insights))
	for _, in := range insights {
		if strings.TrimSpace(in.Question) == "" || strings.TrimSpace(in.Answer) == "" {
			continue
		}
		in.RiskLevel = normalizeRiskLevel(in.RiskLevel)
		kept = append(kept, in)
		if len(kept) == 5 {
			break
		}
	}
	return kept
}

func normalizeRiskLevel(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "safe", "low":
		return entities.RiskSafe
	case "warning", "high", "danger":
		return entities.RiskWarning
	default:
		return entities.RiskCaution
	}
}
