package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/zojatech/healthmate/backend/internal/domain/entities"
	"github.com/zojatech/healthmate/backend/internal/domain/providers"
	"github.com/zojatech/healthmate/backend/internal/domain/repositories"
)

// CachedAnalysisAdapter wraps AnalysisAdapter with a Redis read-through for
// the hot current-analysis lookup. Writes go straight to the database and
// invalidate the cache entry.
type CachedAnalysisAdapter struct {
	adapter repositories.AnalysisRepository
	cache   providers.CacheProvider
}

// NewCachedAnalysisAdapter creates a new cached analysis adapter.
func NewCachedAnalysisAdapter(adapter repositories.AnalysisRepository, cache providers.CacheProvider) repositories.AnalysisRepository {
	return &CachedAnalysisAdapter{
		adapter: adapter,
		cache:   cache,
	}
}

// currentAnalysisTTL is the Redis TTL in seconds for current-analysis
// snapshots. The database row stays authoritative past expiry.
const currentAnalysisTTL = 1800

func currentAnalysisCacheKey(documentID string) string {
	return fmt.Sprintf("analysis:current:%s", documentID)
}

// GetCurrent retrieves the current analysis with caching.
func (a *CachedAnalysisAdapter) GetCurrent(ctx context.Context, documentID string) (*entities.FullAnalysisResult, error) {
	cacheKey := currentAnalysisCacheKey(documentID)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var result entities.FullAnalysisResult
		unmarshalErr := json.Unmarshal(cached, &result)
		if unmarshalErr == nil {
			return &result, nil
		}
		log.Printf("Failed to unmarshal cached analysis %s: %v", documentID, unmarshalErr)
	}

	result, err := a.adapter.GetCurrent(ctx, documentID)
	if err != nil {
		return nil, err
	}

	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(result); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, currentAnalysisTTL); err != nil {
				log.Printf("Failed to cache analysis %s: %v", documentID, err)
			}
		}
	}()

	return result, nil
}

// Upsert writes the analysis and invalidates its cache entry.
func (a *CachedAnalysisAdapter) Upsert(ctx context.Context, documentID, userID string, result *entities.FullAnalysisResult) error {
	if err := a.adapter.Upsert(ctx, documentID, userID, result); err != nil {
		return err
	}

	if err := a.cache.Delete(ctx, currentAnalysisCacheKey(documentID)); err != nil {
		log.Printf("Failed to invalidate analysis cache %s: %v", documentID, err)
	}
	return nil
}

// ReplaceFoodRecommendations delegates to the database adapter.
func (a *CachedAnalysisAdapter) ReplaceFoodRecommendations(ctx context.Context, documentID string, recs []entities.FoodRecommendation) error {
	return a.adapter.ReplaceFoodRecommendations(ctx, documentID, recs)
}

// UpsertConditions delegates to the database adapter.
func (a *CachedAnalysisAdapter) UpsertConditions(ctx context.Context, records []repositories.ConditionRecord) error {
	return a.adapter.UpsertConditions(ctx, records)
}
