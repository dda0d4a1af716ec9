// internal/common/config/loader_test.go
package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	applyDefaults(&cfg)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "knowledge_chunks", cfg.Database.Elasticsearch.Index)
	assert.Equal(t, 384, cfg.Embedding.Dimensions)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
	// Overlap is a character count fed straight to the chunker; a handful
	// of characters would be no overlap at all.
	assert.Equal(t, 50, cfg.Retrieval.ChunkOverlap)
	assert.Equal(t, 1200, cfg.Retrieval.MaxChunkChars)
	assert.Equal(t, 0.7, cfg.Escalation.FrustrationThreshold)
	assert.Equal(t, 3, cfg.Escalation.FailureLimit)
}

func TestValidateConfig(t *testing.T) {
	var cfg Config
	applyDefaults(&cfg)
	assert.NoError(t, validateConfig(&cfg))

	bad := cfg
	bad.Appointment.CloseHour = bad.Appointment.OpenHour
	assert.Error(t, validateConfig(&bad))

	bad = cfg
	bad.Notifications.Email.Enabled = true
	assert.Error(t, validateConfig(&bad))
}
