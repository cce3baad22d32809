package generation

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/zojatech/healthmate/backend/internal/domain/providers"
)

// ErrNoProviders is returned when the chain was constructed empty.
var ErrNoProviders = errors.New("no generation providers configured")

// Fallback chains text generation providers in priority order. A call is
// attempted against each provider in turn; the chain advances only on
// failover-able errors (quota, unavailability) and propagates everything
// else, including context cancellation, immediately.
type Fallback struct {
	chain []providers.TextGenerator
}

// NewFallback creates a fallback chain over the given providers.
func NewFallback(chain ...providers.TextGenerator) *Fallback {
	return &Fallback{chain: chain}
}

// Name identifies the chain in logs.
func (f *Fallback) Name() string {
	return "fallback"
}

// Generate tries each provider in order and returns the first success.
func (f *Fallback) Generate(ctx context.Context, req providers.GenerationRequest) (string, error) {
	if len(f.chain) == 0 {
		return "", ErrNoProviders
	}

	var lastErr error
	for _, p := range f.chain {
		text, err := p.Generate(ctx, req)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !shouldFailover(err) {
			return "", err
		}
		log.Warn().
			Err(err).
			Str("provider", p.Name()).
			Msg("generation provider failed, advancing to next")
	}
	return "", lastErr
}

// shouldFailover decides whether an error from one provider justifies trying
// the next one. Cancellation and credential problems do not.
func shouldFailover(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, providers.ErrGenerationUnauthorized) {
		return false
	}
	return errors.Is(err, providers.ErrGenerationQuota) ||
		errors.Is(err, providers.ErrGenerationUnavailable)
}
