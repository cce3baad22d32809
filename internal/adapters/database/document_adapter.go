package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/zojatech/healthmate/backend/internal/domain/entities"
	"github.com/zojatech/healthmate/backend/internal/domain/repositories"
	"github.com/zojatech/healthmate/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zojatech/healthmate/backend/pkg/errors"
)

// DocumentAdapter implements the DocumentRepository interface.
type DocumentAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewDocumentAdapter creates a new document adapter.
func NewDocumentAdapter(client *postgres.Client) repositories.DocumentRepository {
	return &DocumentAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// GetByID retrieves a document by ID.
func (a *DocumentAdapter) GetByID(ctx context.Context, id string) (*entities.Document, error) {
	query, args, err := a.db.From("documents").
		Select("id", "user_id", "file_name", "file_path", "file_type",
			"extracted_text", "summary", "created_at", "updated_at").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build document query", err)
	}

	doc := &entities.Document{}
	var extractedText, summary sql.NullString
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&doc.ID,
		&doc.UserID,
		&doc.FileName,
		&doc.FilePath,
		&doc.FileType,
		&extractedText,
		&summary,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("document with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get document", err)
	}

	doc.ExtractedText = extractedText.String
	doc.Summary = summary.String
	return doc, nil
}

// UpdateExtractedText stores parsed text on the document record.
func (a *DocumentAdapter) UpdateExtractedText(ctx context.Context, id, text string) error {
	query, args, err := a.db.Update("documents").
		Set(goqu.Record{
			"extracted_text": text,
			"updated_at":     time.Now(),
		}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build document update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update document text", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("document with id %s not found", id))
	}

	return nil
}
