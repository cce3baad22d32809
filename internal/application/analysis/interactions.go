package analysis

import (
	"context"
	"strings"
	"time"

	"github.com/zojatech/healthmate/backend/internal/domain/entities"
	"github.com/zojatech/healthmate/backend/internal/infrastructure/observability"
)

// checkInteractions runs one batched interaction query over the canonically
// identified medications. Fewer than two identified medications is a
// deliberate short-circuit: the lookup service is not called at all. Lookup
// failures read as "no interactions found".
func (s *AnalysisService) checkInteractions(ctx context.Context, meds []entities.Medication) []entities.DrugInteraction {
	var rxcuis []string
	for _, m := range meds {
		if m.RxCUI != "" {
			rxcuis = append(rxcuis, m.RxCUI)
		}
	}
	if len(rxcuis) < 2 || s.interactions == nil {
		return []entities.DrugInteraction{}
	}

	defer s.observeStage(ctx, "interactions", time.Now())
	logger := observability.LoggerFromContext(ctx)

	found, err := s.interactions.CheckInteractions(ctx, rxcuis)
	if err != nil {
		logger.Warn().Err(err).Int("rxcuis", len(rxcuis)).Msg("interaction lookup failed, treating as none found")
		return []entities.DrugInteraction{}
	}

	out := make([]entities.DrugInteraction, 0, len(found))
	for _, in := range found {
		in.Severity = normalizeSeverity(in.Severity)
		out = append(out, in)
	}
	return out
}

// normalizeSeverity maps the lookup service's severity vocabulary onto the
// closed set {high, moderate, low}. Unrecognized values become moderate.
func normalizeSeverity(severity string) string {
	switch strings.ToLower(strings.TrimSpace(severity)) {
	case "high", "severe", "major", "contraindicated":
		return entities.SeverityHigh
	case "low", "minor", "mild":
		return entities.SeverityLow
	default:
		return entities.SeverityModerate
	}
}
