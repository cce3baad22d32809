package providers

import (
	"context"
	"errors"
)

// Failover-relevant generation errors. Clients wrap provider responses into
// these sentinels so the fallback chain can decide whether to advance.
var (
	// ErrGenerationQuota indicates the provider rejected the call for
	// quota or rate-limit reasons.
	ErrGenerationQuota = errors.New("generation quota exhausted")

	// ErrGenerationUnavailable indicates the requested model or endpoint
	// is unavailable (unknown model, 5xx, transport failure).
	ErrGenerationUnavailable = errors.New("generation provider unavailable")

	// ErrGenerationUnauthorized indicates bad credentials; there is no
	// point retrying another call against the same provider.
	ErrGenerationUnauthorized = errors.New("generation provider unauthorized")
)

// GenerationRequest describes one constrained text generation call.
type GenerationRequest struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
	// JSONMode asks the provider to constrain output to machine-parseable
	// JSON.
	JSONMode bool
}

// TextGenerator is a single text generation provider.
type TextGenerator interface {
	// Generate issues one generation call and returns the raw model text.
	Generate(ctx context.Context, req GenerationRequest) (string, error)

	// Name identifies the provider in logs and metrics.
	Name() string
}
