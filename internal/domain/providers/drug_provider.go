package providers

import (
	"context"
	"encoding/json"

	"github.com/zojatech/healthmate/backend/internal/domain/entities"
)

// DrugConcept is the canonical record returned by the drug name lookup.
type DrugConcept struct {
	RxCUI      string          `json:"rxcui"`
	Name       string          `json:"name"`
	BrandNames []string        `json:"brand_names,omitempty"`
	Raw        json.RawMessage `json:"raw,omitempty"`
}

// DrugLookupProvider resolves free-text medication names to canonical
// identifiers. A nil concept with nil error means "not found".
type DrugLookupProvider interface {
	Search(ctx context.Context, drugName string) (*DrugConcept, error)
}

// DrugInteractionProvider checks pairwise interactions among canonical drug
// identifiers.
type DrugInteractionProvider interface {
	// CheckInteractions returns the interactions among the given RxCUIs.
	// Implementations return an empty slice, not an error, for non-2xx or
	// non-JSON responses from the upstream service.
	CheckInteractions(ctx context.Context, rxcuis []string) ([]entities.DrugInteraction, error)
}
