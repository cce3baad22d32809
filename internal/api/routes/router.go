package routes

import (
	"net/http"

	"github.com/zojatech/healthmate/backend/internal/api/handlers"
	"github.com/zojatech/healthmate/backend/internal/api/middleware"
	"github.com/zojatech/healthmate/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	analysisHandler *handlers.AnalysisHandler

	metrics *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	analysisHandler *handlers.AnalysisHandler,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux: http.NewServeMux(),

		analysisHandler: analysisHandler,

		metrics: metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Document analysis endpoints
	r.mux.HandleFunc("GET /api/documents/{id}/analysis", r.analysisHandler.GetAnalysis)
	r.mux.HandleFunc("POST /api/documents/{id}/analysis", r.analysisHandler.RefreshAnalysis)

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// Apply HTTP performance optimizations (compression, ETag, cache headers)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on error responses
	handler = middleware.CORSMiddleware(handler)

	return handler
}
