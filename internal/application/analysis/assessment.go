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

// generateAssessment produces the narrative synthesis over everything known
// so far. This stage never returns an empty object: on any failure it falls
// back to a fixed, domain-neutral narrative, because the assessment anchors
// the top of the report and must always be displayable.
func (s *AnalysisService) generateAssessment(ctx context.Context, data *entities.ExtractedMedicalData, inferred []entities.DiagnosedCondition, interactions []entities.DrugInteraction) entities.DoctorAssessment {
	defer s.observeStage(ctx, "assessment", time.Now())
	logger := observability.LoggerFromContext(ctx)

	out, err := s.generator.Generate(ctx, providers.GenerationRequest{
		System:      assessmentSystemPrompt,
		Prompt:      buildAssessmentPrompt(data, inferred, interactions),
		Temperature: 0.4,
		MaxTokens:   1000,
		JSONMode:    true,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("assessment call failed, using default narrative")
		return defaultAssessment()
	}

	raw := generation.ExtractJSON(out)
	if err := generation.ValidateJSON(assessmentSchema, raw); err != nil {
		logger.Warn().Err(err).Msg("assessment payload rejected, using default narrative")
		return defaultAssessment()
	}

	var assessment entities.DoctorAssessment
	if err := json.Unmarshal(raw, &assessment); err != nil {
		logger.Warn().Err(err).Msg("assessment payload unparseable, using default narrative")
		return defaultAssessment()
	}
	if assessment.Advice == nil {
		assessment.Advice = []string{}
	}
	if assessment.Warnings == nil {
		assessment.Warnings = []string{}
	}
	if assessment.FollowUp == "" {
		assessment.FollowUp = defaultAssessment().FollowUp
	}
	return assessment
}

// defaultAssessment is the fixed narrative used when generation fails.
func defaultAssessment() entities.DoctorAssessment {
	return entities.DoctorAssessment{
		Greeting:      "Hello, thank you for sharing your medical document.",
		Diagnosis:     "Your document has been recorded. A detailed interpretation could not be generated automatically this time.",
		TreatmentPlan: "Continue any treatment your healthcare provider has prescribed.",
		Advice: []string{
			"Follow your healthcare provider's instructions",
			"Keep this document for your records",
		},
		Warnings: []string{
			"Consult your healthcare provider before changing any treatment",
		},
		FollowUp: "Discuss this document with your healthcare provider at your next visit.",
	}
}
