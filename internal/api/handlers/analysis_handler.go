package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/zojatech/healthmate/backend/internal/domain/entities"
	apperrors "github.com/zojatech/healthmate/backend/pkg/errors"
)

// AnalysisRunner produces the full analysis artifact for a document.
type AnalysisRunner interface {
	RunFullAnalysis(ctx context.Context, documentID, userID string, forceRefresh bool) (*entities.FullAnalysisResult, error)
}

// AnalysisHandler handles document analysis HTTP requests.
type AnalysisHandler struct {
	service AnalysisRunner
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(service AnalysisRunner) *AnalysisHandler {
	return &AnalysisHandler{
		service: service,
	}
}

// GetAnalysis handles GET /api/documents/{id}/analysis. A current analysis is
// served from cache when one exists.
func (h *AnalysisHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, false)
}

// RefreshAnalysis handles POST /api/documents/{id}/analysis. With
// ?refresh=true the pipeline reruns even when a current analysis exists.
func (h *AnalysisHandler) RefreshAnalysis(w http.ResponseWriter, r *http.Request) {
	forceRefresh := r.URL.Query().Get("refresh") == "true"
	h.run(w, r, forceRefresh)
}

func (h *AnalysisHandler) run(w http.ResponseWriter, r *http.Request, forceRefresh bool) {
	documentID := r.PathValue("id")
	if documentID == "" {
		respondWithError(w, http.StatusBadRequest, "document ID is required")
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = r.Header.Get("X-User-ID")
	}

	result, err := h.service.RunFullAnalysis(r.Context(), documentID, userID, forceRefresh)
	if err != nil {
		if appErr, ok := err.(*apperrors.AppError); ok {
			switch appErr.Type {
			case apperrors.ErrorTypeNotFound:
				respondWithError(w, http.StatusNotFound, appErr.Message)
			case apperrors.ErrorTypeValidation:
				respondWithError(w, http.StatusBadRequest, appErr.Message)
			case apperrors.ErrorTypeExternal:
				respondWithError(w, http.StatusBadGateway, appErr.Message)
			default:
				respondWithError(w, http.StatusInternalServerError, "internal server error")
			}
			return
		}
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// Helper functions
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
