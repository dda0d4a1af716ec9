// internal/retrieval/elastic.go
package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"care-chatbot/internal/common/database"
	stderrors "care-chatbot/internal/common/errors"
	"care-chatbot/internal/models"

	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// ElasticIndex stores chunk vectors in an Elasticsearch dense_vector index
// and answers KNN similarity queries.
type ElasticIndex struct {
	es         *database.ElasticsearchClient
	index      string
	dimensions int
}

// NewElasticIndex creates the index wrapper.
func NewElasticIndex(es *database.ElasticsearchClient, index string, dimensions int) *ElasticIndex {
	return &ElasticIndex{es: es, index: index, dimensions: dimensions}
}

// EnsureIndex creates the index with a dense_vector mapping when missing.
func (e *ElasticIndex) EnsureIndex(ctx context.Context) error {
	exists := esapi.IndicesExistsRequest{Index: []string{e.index}}
	res, err := exists.Do(ctx, e.es.Client)
	if err != nil {
		return stderrors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	mapping := map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"doc_id":      map[string]interface{}{"type": "keyword"},
				"chunk_index": map[string]interface{}{"type": "integer"},
				"content":     map[string]interface{}{"type": "text"},
				"title":       map[string]interface{}{"type": "text"},
				"category":    map[string]interface{}{"type": "keyword"},
				"source":      map[string]interface{}{"type": "keyword"},
				"tags":        map[string]interface{}{"type": "keyword"},
				"vector": map[string]interface{}{
					"type":       "dense_vector",
					"dims":       e.dimensions,
					"index":      true,
					"similarity": "cosine",
				},
			},
		},
	}

	body, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("failed to marshal index mapping: %w", err)
	}

	create := esapi.IndicesCreateRequest{Index: e.index, Body: bytes.NewReader(body)}
	createRes, err := create.Do(ctx, e.es.Client)
	if err != nil {
		return stderrors.NewElasticsearchConnectionFailedError(err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		return fmt.Errorf("failed to create index %s: %s", e.index, createRes.Status())
	}
	return nil
}

type chunkDocument struct {
	DocID      string    `json:"doc_id"`
	ChunkIndex int       `json:"chunk_index"`
	Content    string    `json:"content"`
	Title      string    `json:"title"`
	Category   string    `json:"category"`
	Source     string    `json:"source"`
	Tags       []string  `json:"tags"`
	Vector     []float32 `json:"vector"`
}

// Upsert bulk-indexes records by their deterministic ids, so re-indexing
// an unchanged document overwrites rather than duplicates.
func (e *ElasticIndex) Upsert(ctx context.Context, records []ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for _, rec := range records {
		action := map[string]interface{}{
			"index": map[string]interface{}{"_index": e.index, "_id": rec.ID},
		}
		actionLine, err := json.Marshal(action)
		if err != nil {
			return fmt.Errorf("failed to marshal bulk action: %w", err)
		}
		docLine, err := json.Marshal(chunkDocument{
			DocID:      rec.DocID,
			ChunkIndex: rec.ChunkIndex,
			Content:    rec.Content,
			Title:      rec.Metadata.Title,
			Category:   rec.Metadata.Category,
			Source:     rec.Metadata.Source,
			Tags:       rec.Tags,
			Vector:     rec.Vector,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal chunk document: %w", err)
		}
		buf.Write(actionLine)
		buf.WriteByte('\n')
		buf.Write(docLine)
		buf.WriteByte('\n')
	}

	res, err := e.es.Client.Bulk(
		bytes.NewReader(buf.Bytes()),
		e.es.Client.Bulk.WithContext(ctx),
		e.es.Client.Bulk.WithIndex(e.index),
		e.es.Client.Bulk.WithRefresh("true"),
	)
	if err != nil {
		return stderrors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return stderrors.NewSearchQueryFailedError(e.index, fmt.Errorf("bulk indexing failed: %s", res.Status()))
	}
	return nil
}

type knnResponse struct {
	Hits struct {
		Hits []struct {
			ID     string        `json:"_id"`
			Score  float64       `json:"_score"`
			Source chunkDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search runs a KNN query and returns hits above minScore, best first.
func (e *ElasticIndex) Search(ctx context.Context, vector []float32, limit int, minScore float64) ([]Hit, error) {
	query := map[string]interface{}{
		"knn": map[string]interface{}{
			"field":          "vector",
			"query_vector":   vector,
			"k":              limit,
			"num_candidates": limit * 4,
		},
		"size": limit,
	}

	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal knn query: %w", err)
	}

	res, err := e.es.Client.Search(
		e.es.Client.Search.WithContext(ctx),
		e.es.Client.Search.WithIndex(e.index),
		e.es.Client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, stderrors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		if res.StatusCode == 404 {
			return nil, stderrors.NewIndexNotFoundError(e.index)
		}
		return nil, stderrors.NewSearchQueryFailedError(e.index, fmt.Errorf("search failed: %s", res.Status()))
	}

	var out knnResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	hits := make([]Hit, 0, len(out.Hits.Hits))
	for _, h := range out.Hits.Hits {
		if h.Score < minScore {
			continue
		}
		hits = append(hits, Hit{
			Score: h.Score,
			Record: ChunkRecord{
				ID:         h.ID,
				DocID:      h.Source.DocID,
				ChunkIndex: h.Source.ChunkIndex,
				Content:    h.Source.Content,
				Tags:       h.Source.Tags,
				Metadata: models.DocumentMetadata{
					Title:    h.Source.Title,
					Category: h.Source.Category,
					Source:   h.Source.Source,
					Tags:     h.Source.Tags,
				},
			},
		})
	}
	return hits, nil
}

// Count returns the number of stored chunks.
func (e *ElasticIndex) Count(ctx context.Context) (int, error) {
	res, err := e.es.Client.Count(
		e.es.Client.Count.WithContext(ctx),
		e.es.Client.Count.WithIndex(e.index),
	)
	if err != nil {
		return 0, stderrors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, stderrors.NewSearchQueryFailedError(e.index, fmt.Errorf("count failed: %s", res.Status()))
	}

	var out struct {
		Count int `json:"count"`
	}
	payload, err := io.ReadAll(res.Body)
	if err != nil {
		return 0, err
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return 0, fmt.Errorf("failed to decode count response: %w", err)
	}
	return out.Count, nil
}

// DeleteByDoc removes all chunks of one document.
func (e *ElasticIndex) DeleteByDoc(ctx context.Context, docID string) error {
	query := fmt.Sprintf(`{"query":{"term":{"doc_id":%q}}}`, docID)

	res, err := e.es.Client.DeleteByQuery(
		[]string{e.index},
		strings.NewReader(query),
		e.es.Client.DeleteByQuery.WithContext(ctx),
	)
	if err != nil {
		return stderrors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return stderrors.NewSearchQueryFailedError(e.index, fmt.Errorf("delete by query failed: %s", res.Status()))
	}
	return nil
}
