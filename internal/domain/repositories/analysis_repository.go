package repositories

import (
	"context"

	"github.com/zojatech/healthmate/backend/internal/domain/entities"
)

// ConditionRecord is a denormalized condition row tagged by where it came
// from: stated in the document or inferred from the medication list.
type ConditionRecord struct {
	DocumentID  string
	UserID      string
	Name        string
	Severity    string
	Description string
	Source      string
}

// Condition record sources.
const (
	ConditionSourceDocument  = "document"
	ConditionSourceInference = "medication_inferred"
)

// AnalysisRepository persists assembled analysis results. Each document has
// at most one current analysis; superseded rows are retained, not deleted.
type AnalysisRepository interface {
	// GetCurrent returns the current analysis for a document, with
	// CachedAt set from the stored row. NOT_FOUND when none exists.
	GetCurrent(ctx context.Context, documentID string) (*entities.FullAnalysisResult, error)

	// Upsert writes a fresh analysis as the current one, flagging any
	// previous current row as superseded.
	Upsert(ctx context.Context, documentID, userID string, result *entities.FullAnalysisResult) error

	// ReplaceFoodRecommendations replaces the food recommendation rows
	// scoped to the document.
	ReplaceFoodRecommendations(ctx context.Context, documentID string, recs []entities.FoodRecommendation) error

	// UpsertConditions writes denormalized condition rows.
	UpsertConditions(ctx context.Context, records []ConditionRecord) error
}
