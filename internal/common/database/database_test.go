// internal/common/database/database_test.go
package database

import (
	"testing"

	"care-chatbot/internal/common/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPostgres_AppliesPoolDefaults(t *testing.T) {
	// Opening is lazy, so no server is needed to inspect the pool limits.
	client, err := NewPostgres(config.PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		Database: "chatbot",
		User:     "chatbot",
		SSLMode:  "disable",
	})
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, defaultMaxOpenConns, client.DB.Stats().MaxOpenConnections)
}

func TestNewPostgres_ConfiguredPoolWins(t *testing.T) {
	client, err := NewPostgres(config.PostgresConfig{
		Host:           "localhost",
		Port:           5432,
		Database:       "chatbot",
		User:           "chatbot",
		SSLMode:        "disable",
		MaxConnections: 25,
		MaxIdle:        10,
	})
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, 25, client.DB.Stats().MaxOpenConnections)
}

func TestNewElasticsearch_SingleURLConfig(t *testing.T) {
	client, err := NewElasticsearch(config.ElasticsearchConfig{
		URL: "http://localhost:9200",
	})
	require.NoError(t, err)
	assert.NotNil(t, client.Client)
}
