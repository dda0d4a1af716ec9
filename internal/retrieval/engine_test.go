// internal/retrieval/engine_test.go
package retrieval

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"care-chatbot/internal/common/logger"
	"care-chatbot/internal/models"
)

func newTestEngine(t *testing.T) (*Engine, *MemoryIndex) {
	t.Helper()
	index := NewMemoryIndex()
	engine := NewEngine(NewLocalEmbedder(128), index, Options{
		ChunkSize:      300,
		ChunkOverlap:   50,
		TopK:           3,
		ScoreThreshold: 0.05,
	}, logger.NewTestLogger(t))
	return engine, index
}

var testDocs = []models.KnowledgeDocument{
	{
		ID:      "pricing-001",
		Content: "The premium plan pricing is $99 per month. The cost covers unlimited seats and a yearly subscription discount.",
		Metadata: models.DocumentMetadata{
			Title:    "Pricing Guide",
			Category: "pricing",
		},
	},
	{
		ID:      "support-001",
		Content: "To troubleshoot login failures, clear the browser cache and reset your password from the account page.",
		Metadata: models.DocumentMetadata{
			Title:    "Troubleshooting Logins",
			Category: "support",
		},
	},
}

func TestEngine_IndexAndSearch(t *testing.T) {
	engine, index := newTestEngine(t)
	ctx := context.Background()

	for _, doc := range testDocs {
		n, err := engine.IndexDocument(ctx, doc)
		require.NoError(t, err)
		assert.Greater(t, n, 0)
	}

	count, err := index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	results, err := engine.Search(ctx, "premium plan pricing")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "pricing-001", results[0].DocID)
	assert.Equal(t, "Pricing Guide", results[0].Metadata.Title)
}

func TestEngine_ReindexIsIdempotent(t *testing.T) {
	engine, index := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.IndexDocument(ctx, testDocs[0])
	require.NoError(t, err)
	first, err := index.Count(ctx)
	require.NoError(t, err)

	_, err = engine.IndexDocument(ctx, testDocs[0])
	require.NoError(t, err)
	second, err := index.Count(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second, "re-indexing must overwrite, not duplicate")
}

func TestEngine_SkipsTinyChunks(t *testing.T) {
	engine, index := newTestEngine(t)
	ctx := context.Background()

	n, err := engine.IndexDocument(ctx, models.KnowledgeDocument{
		ID:      "tiny-001",
		Content: "Too short to keep.",
	})
	require.NoError(t, err)
	assert.Zero(t, n)

	count, err := index.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestEngine_EmptyQuery(t *testing.T) {
	engine, _ := newTestEngine(t)

	results, err := engine.Search(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestChunkID_Deterministic(t *testing.T) {
	assert.Equal(t, ChunkID("doc-1", 0), ChunkID("doc-1", 0))
	assert.NotEqual(t, ChunkID("doc-1", 0), ChunkID("doc-1", 1))
	assert.Len(t, ChunkID("doc-1", 0), 32)
}

func TestExpandQuery(t *testing.T) {
	expanded := expandQuery("what is the price")
	assert.Contains(t, expanded, "what is the price")
	assert.Contains(t, expanded, "pricing")

	assert.Equal(t, "hello there", expandQuery("hello there"))
}

func TestExpandQuery_StableTermOrder(t *testing.T) {
	// Two expandable terms; the appended synonyms must come out in table
	// order so the same query always embeds to the same vector.
	first := expandQuery("price of the product")
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, expandQuery("price of the product"))
	}
	assert.Equal(t, "price of the product pricing solution", first)
}

func TestDeduplicate(t *testing.T) {
	results := []models.RetrievalResult{
		{Content: "Shared passage about refunds.", Score: 0.9},
		{Content: "  shared passage about refunds.", Score: 0.8},
		{Content: "A different passage.", Score: 0.7},
	}

	unique := deduplicate(results)
	require.Len(t, unique, 2)
	assert.Equal(t, 0.9, unique[0].Score)
}

func TestExtractTags(t *testing.T) {
	tags := extractTags("Our pricing starts at $10 and includes API integration.")
	assert.Contains(t, tags, "pricing")
	assert.Contains(t, tags, "integration")
	assert.NotContains(t, tags, "security")
}

func TestEngine_GenerateAnswer(t *testing.T) {
	engine, _ := newTestEngine(t)

	results := []models.RetrievalResult{
		{
			Content:  "The premium plan costs $99 per month.",
			Score:    0.9,
			DocID:    "pricing-001",
			Metadata: models.DocumentMetadata{Title: "Pricing Guide"},
		},
	}

	answer := engine.GenerateAnswer("how much does the premium plan cost", results)
	assert.True(t, strings.HasPrefix(answer, "Here's our pricing information:"))
	assert.Contains(t, answer, "**Pricing Guide:**")
	assert.Contains(t, answer, "• The premium plan costs $99 per month.")
	assert.Contains(t, answer, "*Would you like more details about any specific aspect?*")
}

func TestEngine_GenerateAnswerNoResults(t *testing.T) {
	engine, _ := newTestEngine(t)

	answer := engine.GenerateAnswer("anything", nil)
	assert.Contains(t, answer, "couldn't find specific information")
	assert.Contains(t, answer, "Scheduling an appointment")
}

func TestEngine_GenerateAnswerTruncates(t *testing.T) {
	engine, _ := newTestEngine(t)

	long := strings.Repeat("Detailed product capability description. ", 80)
	results := []models.RetrievalResult{
		{Content: long, Score: 0.9, DocID: "a", Metadata: models.DocumentMetadata{Title: "Doc A"}},
		{Content: long + "extra", Score: 0.8, DocID: "b", Metadata: models.DocumentMetadata{Title: "Doc B"}},
	}

	answer := engine.GenerateAnswer("tell me everything", results)
	assert.Contains(t, answer, "*[Truncated for brevity]*")
	assert.LessOrEqual(t, len(answer), maxAnswerLength+len("\n\n*Would you like more details about any specific aspect?*"))
}
