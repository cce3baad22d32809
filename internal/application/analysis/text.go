package analysis

import (
	"context"
	"strings"
	"time"

	"github.com/zojatech/healthmate/backend/internal/domain/entities"
	"github.com/zojatech/healthmate/backend/internal/infrastructure/observability"
	apperrors "github.com/zojatech/healthmate/backend/pkg/errors"
)

// acquireText returns analyzable text for the document. Stored text above
// the minimum length is reused so repeat analysis requests don't re-pay the
// parsing cost; otherwise the parsing service is called once and its output
// written back to the document record best-effort.
func (s *AnalysisService) acquireText(ctx context.Context, doc *entities.Document) (string, error) {
	defer s.observeStage(ctx, "text_acquisition", time.Now())
	logger := observability.LoggerFromContext(ctx)

	if stored := strings.TrimSpace(doc.ExtractedText); len(stored) >= s.cfg.MinTextLength {
		logger.Debug().Str("document_id", doc.ID).Int("length", len(stored)).Msg("reusing stored document text")
		return doc.ExtractedText, nil
	}

	if s.parser == nil {
		return "", apperrors.NewExternalError("document parsing service not configured", nil)
	}

	text, err := s.parser.Parse(ctx, doc.FilePath, doc.FileType)
	if err != nil {
		return "", apperrors.NewExternalError("failed to parse document", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", apperrors.NewExternalError("document parsing returned empty text", nil)
	}

	if err := s.documents.UpdateExtractedText(ctx, doc.ID, text); err != nil {
		logger.Warn().Err(err).Str("document_id", doc.ID).Msg("failed to store extracted text")
	}
	return text, nil
}
