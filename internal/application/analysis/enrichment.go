package analysis

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/zojatech/healthmate/backend/internal/domain/entities"
	"github.com/zojatech/healthmate/backend/internal/infrastructure/observability"
)

// enrichMedications attaches canonical identifiers to medications via the
// drug lookup service. Lookups run on a bounded worker pool; a failed or
// not-found lookup leaves that medication unenriched. Order is preserved.
func (s *AnalysisService) enrichMedications(ctx context.Context, meds []entities.Medication) []entities.Medication {
	if len(meds) == 0 || s.drugs == nil {
		return meds
	}
	defer s.observeStage(ctx, "enrichment", time.Now())
	logger := observability.LoggerFromContext(ctx)

	out := make([]entities.Medication, len(meds))
	copy(out, meds)

	workers := s.cfg.EnrichmentWorkers
	if workers > len(out) {
		workers = len(out)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				concept, err := s.drugs.Search(ctx, out[idx].Name)
				if err != nil {
					logger.Warn().Err(err).Str("medication", out[idx].Name).Msg("drug lookup failed")
					continue
				}
				if concept == nil || concept.RxCUI == "" {
					logger.Debug().Str("medication", out[idx].Name).Msg("drug lookup found no match")
					continue
				}
				out[idx].RxCUI = concept.RxCUI
				if raw, err := json.Marshal(concept); err == nil {
					out[idx].RxNormData = raw
				}
			}
		}()
	}

	for i := range out {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return out
}
