package repositories

import (
	"context"

	"github.com/zojatech/healthmate/backend/internal/domain/entities"
)

// DocumentRepository provides access to uploaded document records.
type DocumentRepository interface {
	// GetByID fetches a document record. Returns a NOT_FOUND AppError when
	// the document does not exist.
	GetByID(ctx context.Context, id string) (*entities.Document, error)

	// UpdateExtractedText stores parsed text on the document so later
	// analysis runs can reuse it without re-parsing the file.
	UpdateExtractedText(ctx context.Context, id, text string) error
}
