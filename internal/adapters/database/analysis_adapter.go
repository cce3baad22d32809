package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/zojatech/healthmate/backend/internal/domain/entities"
	"github.com/zojatech/healthmate/backend/internal/domain/repositories"
	"github.com/zojatech/healthmate/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zojatech/healthmate/backend/pkg/errors"
)

// AnalysisAdapter implements the AnalysisRepository interface. Analyses are
// stored as JSONB snapshots in document_analyses with exactly one current
// row per document; superseded rows keep their history.
type AnalysisAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewAnalysisAdapter creates a new analysis adapter.
func NewAnalysisAdapter(client *postgres.Client) repositories.AnalysisRepository {
	return &AnalysisAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// GetCurrent retrieves the current analysis snapshot for a document. CachedAt
// on the returned result carries the stored row's creation time.
func (a *AnalysisAdapter) GetCurrent(ctx context.Context, documentID string) (*entities.FullAnalysisResult, error) {
	query, args, err := a.db.From("document_analyses").
		Select("result", "created_at").
		Where(goqu.Ex{"document_id": documentID, "is_current": true}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build analysis query", err)
	}

	var payload []byte
	var createdAt time.Time
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(&payload, &createdAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no current analysis for document %s", documentID))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get analysis", err)
	}

	result := &entities.FullAnalysisResult{}
	if err := json.Unmarshal(payload, result); err != nil {
		return nil, apperrors.NewInternalError("failed to decode stored analysis", err)
	}
	result.CachedAt = &createdAt
	return result, nil
}

// Upsert stores a fresh analysis as the current row, demoting any previous
// current row inside the same transaction.
func (a *AnalysisAdapter) Upsert(ctx context.Context, documentID, userID string, result *entities.FullAnalysisResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return apperrors.NewInternalError("failed to encode analysis", err)
	}

	demoteQuery, demoteArgs, err := a.db.Update("document_analyses").
		Set(goqu.Record{"is_current": false}).
		Where(goqu.Ex{"document_id": documentID, "is_current": true}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build analysis demote query", err)
	}

	insertQuery, insertArgs, err := a.db.Insert("document_analyses").
		Rows(goqu.Record{
			"id":            uuid.NewString(),
			"document_id":   documentID,
			"user_id":       userID,
			"document_type": result.DocumentType,
			"result":        payload,
			"is_current":    true,
			"created_at":    time.Now(),
		}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build analysis insert query", err)
	}

	tx, err := a.client.DB().BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, demoteQuery, demoteArgs...); err != nil {
		return apperrors.NewInternalError("failed to demote previous analysis", err)
	}
	if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
		return apperrors.NewInternalError("failed to insert analysis", err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit analysis", err)
	}
	return nil
}

// ReplaceFoodRecommendations swaps the food recommendation rows scoped to
// the document for the given set.
func (a *AnalysisAdapter) ReplaceFoodRecommendations(ctx context.Context, documentID string, recs []entities.FoodRecommendation) error {
	deleteQuery, deleteArgs, err := a.db.Delete("food_recommendations").
		Where(goqu.Ex{"document_id": documentID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build recommendation delete query", err)
	}

	rows := make([]interface{}, 0, len(recs))
	now := time.Now()
	for _, rec := range recs {
		foods, err := json.Marshal(rec.Foods)
		if err != nil {
			return apperrors.NewInternalError("failed to encode recommendation foods", err)
		}
		var nutrition []byte
		if rec.Nutrition != nil {
			if nutrition, err = json.Marshal(rec.Nutrition); err != nil {
				return apperrors.NewInternalError("failed to encode recommendation nutrition", err)
			}
		}
		rows = append(rows, goqu.Record{
			"id":          uuid.NewString(),
			"document_id": documentID,
			"category":    rec.Category,
			"foods":       foods,
			"benefit":     rec.Benefit,
			"score":       rec.Score,
			"nutrition":   nutrition,
			"created_at":  now,
		})
	}

	tx, err := a.client.DB().BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, deleteQuery, deleteArgs...); err != nil {
		return apperrors.NewInternalError("failed to delete food recommendations", err)
	}

	if len(rows) > 0 {
		insertQuery, insertArgs, err := a.db.Insert("food_recommendations").Rows(rows...).ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build recommendation insert query", err)
		}
		if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
			return apperrors.NewInternalError("failed to insert food recommendations", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit food recommendations", err)
	}
	return nil
}

// UpsertConditions writes denormalized condition rows, updating severity and
// description when a row with the same document, name and source exists.
func (a *AnalysisAdapter) UpsertConditions(ctx context.Context, records []repositories.ConditionRecord) error {
	if len(records) == 0 {
		return nil
	}

	now := time.Now()
	rows := make([]interface{}, 0, len(records))
	for _, rec := range records {
		rows = append(rows, goqu.Record{
			"id":          uuid.NewString(),
			"document_id": rec.DocumentID,
			"user_id":     rec.UserID,
			"name":        rec.Name,
			"severity":    rec.Severity,
			"description": rec.Description,
			"source":      rec.Source,
			"updated_at":  now,
		})
	}

	query, args, err := a.db.Insert("analysis_conditions").
		Rows(rows...).
		OnConflict(goqu.DoUpdate("document_id, name, source", goqu.Record{
			"severity":    goqu.I("excluded.severity"),
			"description": goqu.I("excluded.description"),
			"updated_at":  now,
		})).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build condition upsert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to upsert conditions", err)
	}
	return nil
}
