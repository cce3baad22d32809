package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zojatech/healthmate/backend/internal/domain/entities"
	apperrors "github.com/zojatech/healthmate/backend/pkg/errors"
)

type stubRunner struct {
	result       *entities.FullAnalysisResult
	err          error
	documentID   string
	userID       string
	forceRefresh bool
}

func (s *stubRunner) RunFullAnalysis(ctx context.Context, documentID, userID string, forceRefresh bool) (*entities.FullAnalysisResult, error) {
	s.documentID = documentID
	s.userID = userID
	s.forceRefresh = forceRefresh
	return s.result, s.err
}

func newAnalysisRequest(t *testing.T, method, target string, handler http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(method+" /api/documents/{id}/analysis", handler)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestGetAnalysis_Success(t *testing.T) {
	runner := &stubRunner{result: &entities.FullAnalysisResult{
		Title:        "Analysis of rx.pdf",
		DocumentType: entities.DocumentTypePrescription,
	}}
	handler := NewAnalysisHandler(runner)

	rec := newAnalysisRequest(t, http.MethodGet, "/api/documents/doc-1/analysis?user_id=user-1", handler.GetAnalysis)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "doc-1", runner.documentID)
	assert.Equal(t, "user-1", runner.userID)
	assert.False(t, runner.forceRefresh)

	var body entities.FullAnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Analysis of rx.pdf", body.Title)
}

func TestRefreshAnalysis_ForcesRerun(t *testing.T) {
	runner := &stubRunner{result: &entities.FullAnalysisResult{}}
	handler := NewAnalysisHandler(runner)

	rec := newAnalysisRequest(t, http.MethodPost, "/api/documents/doc-1/analysis?refresh=true", handler.RefreshAnalysis)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, runner.forceRefresh)
}

func TestRefreshAnalysis_WithoutFlagRespectsCache(t *testing.T) {
	runner := &stubRunner{result: &entities.FullAnalysisResult{}}
	handler := NewAnalysisHandler(runner)

	rec := newAnalysisRequest(t, http.MethodPost, "/api/documents/doc-1/analysis", handler.RefreshAnalysis)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, runner.forceRefresh)
}

func TestGetAnalysis_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", apperrors.NewNotFoundError("document not found"), http.StatusNotFound},
		{"validation", apperrors.NewValidationError("document ID is required"), http.StatusBadRequest},
		{"external", apperrors.NewExternalError("parsing service failed", nil), http.StatusBadGateway},
		{"internal", apperrors.NewInternalError("boom", nil), http.StatusInternalServerError},
		{"plain error", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewAnalysisHandler(&stubRunner{err: tt.err})
			rec := newAnalysisRequest(t, http.MethodGet, "/api/documents/doc-1/analysis", handler.GetAnalysis)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestGetAnalysis_UserIDFromHeader(t *testing.T) {
	runner := &stubRunner{result: &entities.FullAnalysisResult{}}
	handler := NewAnalysisHandler(runner)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/documents/{id}/analysis", handler.GetAnalysis)
	req := httptest.NewRequest(http.MethodGet, "/api/documents/doc-1/analysis", nil)
	req.Header.Set("X-User-ID", "user-7")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-7", runner.userID)
}
