package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_PipelineConfig(t *testing.T) {
	// Setup environment variables
	os.Setenv("PIPELINE_MIN_TEXT_LENGTH", "120")
	os.Setenv("PIPELINE_ENRICHMENT_WORKERS", "8")
	defer func() {
		os.Unsetenv("PIPELINE_MIN_TEXT_LENGTH")
		os.Unsetenv("PIPELINE_ENRICHMENT_WORKERS")
	}()

	// Load config
	cfg, err := Load()
	assert.NoError(t, err)

	// Verify pipeline config
	assert.Equal(t, 120, cfg.Pipeline.MinTextLength)
	assert.Equal(t, 8, cfg.Pipeline.EnrichmentWorkers)
}

func TestLoad_Defaults(t *testing.T) {
	// Ensure env vars are cleared
	os.Unsetenv("PIPELINE_MIN_TEXT_LENGTH")
	os.Unsetenv("PIPELINE_ENRICHMENT_WORKERS")
	os.Unsetenv("RXNORM_BASE_URL")

	cfg, err := Load()
	assert.NoError(t, err)

	// Verify defaults
	assert.Equal(t, 50, cfg.Pipeline.MinTextLength)
	assert.Equal(t, 8000, cfg.Pipeline.MaxPromptChars)
	assert.Equal(t, 4, cfg.Pipeline.EnrichmentWorkers)
	assert.Equal(t, 6, cfg.Pipeline.MaxRecommendations)
	assert.Equal(t, "https://rxnav.nlm.nih.gov/REST", cfg.RxNorm.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.RxNorm.Timeout)
}

func TestLoad_DatabaseDSN(t *testing.T) {
	os.Unsetenv("DB_HOST")
	os.Unsetenv("DB_NAME")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Contains(t, cfg.Database.DatabaseDSN(), "dbname=healthmate")
}
