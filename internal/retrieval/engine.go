// Package retrieval implements document chunking/indexing and query-time
// passage ranking for the knowledge corpus.
package retrieval

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"care-chatbot/internal/common/logger"
	"care-chatbot/internal/models"
)

// queryExpansions maps query terms to synonyms; one expansion is added per
// matched term.
var queryExpansions = []struct {
	term       string
	expansions []string
}{
	{"price", []string{"pricing", "cost", "plan", "subscription", "fee"}},
	{"product", []string{"solution", "service", "platform", "tool", "software"}},
	{"support", []string{"help", "assistance", "technical", "customer service"}},
	{"feature", []string{"capability", "function", "functionality", "tool"}},
}

// tagVocabulary drives the light keyword tagging applied at indexing time.
var tagVocabulary = map[string][]string{
	"pricing":     {"pricing", "price", "cost", "$", "plan", "subscription"},
	"features":    {"feature", "capability", "function", "tool"},
	"support":     {"support", "help", "contact", "assistance"},
	"integration": {"integration", "api", "connect", "integrate"},
	"security":    {"security", "encryption", "compliance", "gdpr", "hipaa"},
}

const minChunkChars = 50

// Engine composes chunking, embedding and the vector index.
type Engine struct {
	chunker   *Chunker
	embedder  Embedder
	index     VectorIndex
	topK      int
	threshold float64
	log       logger.Logger
}

// Options tunes the engine.
type Options struct {
	ChunkSize      int
	ChunkOverlap   int
	TopK           int
	ScoreThreshold float64
}

// NewEngine builds a retrieval engine.
func NewEngine(embedder Embedder, index VectorIndex, opts Options, log logger.Logger) *Engine {
	if opts.TopK <= 0 {
		opts.TopK = 3
	}
	if opts.ScoreThreshold <= 0 {
		opts.ScoreThreshold = 0.3
	}
	return &Engine{
		chunker:   NewChunker(opts.ChunkSize, opts.ChunkOverlap),
		embedder:  embedder,
		index:     index,
		topK:      opts.TopK,
		threshold: opts.ScoreThreshold,
		log:       log,
	}
}

// ChunkID derives the deterministic storage id for (docID, chunkIndex).
// Re-indexing an unchanged document therefore overwrites instead of
// duplicating entries.
func ChunkID(docID string, chunkIndex int) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s_%d", docID, chunkIndex)))
	return hex.EncodeToString(sum[:])
}

// IndexDocument chunks, embeds and upserts one document.
func (e *Engine) IndexDocument(ctx context.Context, doc models.KnowledgeDocument) (int, error) {
	if strings.TrimSpace(doc.Content) == "" {
		e.log.Warn("skipping document with empty content", map[string]interface{}{
			"title": doc.Metadata.Title,
		})
		return 0, nil
	}

	chunks := e.chunker.Chunk(doc.Content)
	records := make([]ChunkRecord, 0, len(chunks))

	for i, chunk := range chunks {
		trimmed := strings.TrimSpace(chunk)
		if len(trimmed) < minChunkChars {
			continue
		}

		vector, err := e.embedder.Embed(ctx, trimmed)
		if err != nil {
			return 0, fmt.Errorf("failed to embed chunk %d of %s: %w", i, doc.ID, err)
		}

		records = append(records, ChunkRecord{
			ID:         ChunkID(doc.ID, i),
			DocID:      doc.ID,
			ChunkIndex: i,
			Content:    trimmed,
			Vector:     vector,
			Metadata:   doc.Metadata,
			Tags:       extractTags(trimmed),
		})
	}

	if len(records) == 0 {
		return 0, nil
	}
	if err := e.index.Upsert(ctx, records); err != nil {
		return 0, fmt.Errorf("failed to upsert chunks for %s: %w", doc.ID, err)
	}

	e.log.Info("indexed document", map[string]interface{}{
		"doc_id": doc.ID,
		"title":  doc.Metadata.Title,
		"chunks": len(records),
	})
	return len(records), nil
}

// Search runs the full query pipeline: synonym expansion, over-fetch at a
// relaxed threshold, literal-term re-ranking, dedup and truncation.
func (e *Engine) Search(ctx context.Context, query string) ([]models.RetrievalResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	expanded := expandQuery(query)
	vector, err := e.embedder.Embed(ctx, expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := e.index.Search(ctx, vector, e.topK*2, e.threshold*0.8)
	if err != nil {
		return nil, err
	}

	results := e.rerank(hits, query)
	results = deduplicate(results)

	if len(results) > e.topK {
		results = results[:e.topK]
	}

	e.log.Debug("search complete", map[string]interface{}{
		"query":   query,
		"results": len(results),
	})
	return results, nil
}

func expandQuery(query string) string {
	lower := strings.ToLower(query)
	terms := []string{query}

	for _, entry := range queryExpansions {
		if !strings.Contains(lower, entry.term) {
			continue
		}
		for _, expansion := range entry.expansions {
			if !strings.Contains(lower, expansion) {
				terms = append(terms, expansion)
				break
			}
		}
	}

	return strings.Join(terms, " ")
}

// rerank boosts vector scores by literal term evidence: +10% per query term
// found in the content, +20% if any term appears in the title, capped at 1.0.
func (e *Engine) rerank(hits []Hit, query string) []models.RetrievalResult {
	queryTerms := strings.Fields(strings.ToLower(query))
	var results []models.RetrievalResult

	for _, hit := range hits {
		score := hit.Score

		contentLower := strings.ToLower(hit.Record.Content)
		matches := 0
		for _, term := range queryTerms {
			if strings.Contains(contentLower, term) {
				matches++
			}
		}
		if matches > 0 {
			score *= 1 + 0.1*float64(matches)
		}

		titleLower := strings.ToLower(hit.Record.Metadata.Title)
		for _, term := range queryTerms {
			if strings.Contains(titleLower, term) {
				score *= 1.2
				break
			}
		}

		if score > 1.0 {
			score = 1.0
		}
		if score < e.threshold {
			continue
		}

		results = append(results, models.RetrievalResult{
			Content:    hit.Record.Content,
			Score:      score,
			DocID:      hit.Record.DocID,
			ChunkIndex: hit.Record.ChunkIndex,
			Metadata:   hit.Record.Metadata,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// deduplicate drops passages whose leading content is near-identical,
// keyed on the first 200 characters.
func deduplicate(results []models.RetrievalResult) []models.RetrievalResult {
	seen := make(map[string]bool)
	var unique []models.RetrievalResult

	for _, result := range results {
		sig := result.Content
		if len(sig) > 200 {
			sig = sig[:200]
		}
		sig = strings.ToLower(strings.TrimSpace(sig))
		if !seen[sig] {
			seen[sig] = true
			unique = append(unique, result)
		}
	}
	return unique
}

func extractTags(text string) []string {
	lower := strings.ToLower(text)
	var tags []string
	for _, tag := range []string{"pricing", "features", "support", "integration", "security"} {
		for _, keyword := range tagVocabulary[tag] {
			if strings.Contains(lower, keyword) {
				tags = append(tags, tag)
				break
			}
		}
	}
	return tags
}

// ==========================
// Answer synthesis
// ==========================

const maxAnswerLength = 2000

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	mdHeaderRe   = regexp.MustCompile(`#{1,6}\s+`)
)

// GenerateAnswer builds a reply from ranked passages: grouped by source
// document (at most 3 documents, 2 passages each), with a keyword-chosen
// intro and a generic follow-up prompt.
func (e *Engine) GenerateAnswer(query string, results []models.RetrievalResult) string {
	if len(results) == 0 {
		return noResultsResponse()
	}

	type docGroup struct {
		title   string
		results []models.RetrievalResult
	}

	grouped := make(map[string]*docGroup)
	var order []string
	for _, result := range results {
		title := result.Metadata.Title
		if grouped[title] == nil {
			grouped[title] = &docGroup{title: title}
			order = append(order, title)
		}
		grouped[title].results = append(grouped[title].results, result)
	}

	parts := []string{generateIntro(query)}

	docCount := 0
	for _, title := range order {
		if docCount >= 3 {
			break
		}
		docCount++

		group := grouped[title]
		sort.SliceStable(group.results, func(i, j int) bool {
			return group.results[i].Score > group.results[j].Score
		})

		parts = append(parts, fmt.Sprintf("\n**%s:**", title))
		for i, result := range group.results {
			if i >= 2 {
				break
			}
			if content := cleanContent(result.Content); content != "" {
				parts = append(parts, "• "+content)
			}
		}
	}

	answer := strings.Join(parts, "\n")
	if len(answer) > maxAnswerLength {
		answer = answer[:maxAnswerLength-100] + "\n\n*[Truncated for brevity]*"
	}

	return answer + "\n\n*Would you like more details about any specific aspect?*"
}

func generateIntro(query string) string {
	lower := strings.ToLower(query)
	switch {
	case containsAny(lower, "price", "cost", "pricing"):
		return "Here's our pricing information:\n"
	case containsAny(lower, "product", "service", "solution"):
		return "Here's information about our products:\n"
	case containsAny(lower, "support", "help"):
		return "Here's our support information:\n"
	case containsAny(lower, "feature", "capability"):
		return "Here are the key features:\n"
	default:
		return "Here's what I found:\n"
	}
}

func cleanContent(content string) string {
	content = whitespaceRe.ReplaceAllString(content, " ")
	content = mdHeaderRe.ReplaceAllString(content, "")
	return strings.TrimSpace(content)
}

func noResultsResponse() string {
	return "I couldn't find specific information about that in our knowledge base. " +
		"Could you rephrase your question or ask about:\n" +
		"• Our products and services\n" +
		"• Pricing and plans\n" +
		"• Technical support\n" +
		"• Scheduling an appointment"
}

func containsAny(text string, words ...string) bool {
	for _, word := range words {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}
