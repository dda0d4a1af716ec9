// internal/retrieval/index.go
package retrieval

import (
	"context"
	"math"
	"sort"
	"sync"

	"care-chatbot/internal/models"
)

// ChunkRecord is one stored retrieval unit.
type ChunkRecord struct {
	ID         string
	DocID      string
	ChunkIndex int
	Content    string
	Vector     []float32
	Metadata   models.DocumentMetadata
	Tags       []string
}

// Hit is one raw similarity match before re-ranking.
type Hit struct {
	Record ChunkRecord
	Score  float64
}

// VectorIndex stores chunk vectors and answers similarity queries. Upserting
// an existing id overwrites the stored record.
type VectorIndex interface {
	Upsert(ctx context.Context, records []ChunkRecord) error
	Search(ctx context.Context, vector []float32, limit int, minScore float64) ([]Hit, error)
	Count(ctx context.Context) (int, error)
}

// MemoryIndex is an in-process cosine-similarity index. It backs tests and
// deployments without an Elasticsearch cluster.
type MemoryIndex struct {
	mu      sync.RWMutex
	records map[string]ChunkRecord
}

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{records: make(map[string]ChunkRecord)}
}

// Upsert stores records, overwriting entries with the same id.
func (m *MemoryIndex) Upsert(_ context.Context, records []ChunkRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range records {
		m.records[rec.ID] = rec
	}
	return nil
}

// Search returns up to limit hits with cosine similarity >= minScore,
// best first.
func (m *MemoryIndex) Search(_ context.Context, vector []float32, limit int, minScore float64) ([]Hit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var hits []Hit
	for _, rec := range m.records {
		score := cosine(vector, rec.Vector)
		if score >= minScore {
			hits = append(hits, Hit{Record: rec, Score: score})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score == hits[j].Score {
			return hits[i].Record.ID < hits[j].Record.ID
		}
		return hits[i].Score > hits[j].Score
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Count returns the number of stored chunks.
func (m *MemoryIndex) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
