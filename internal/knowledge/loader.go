// internal/knowledge/loader.go

// Package knowledge loads the markdown knowledge base from disk, validates
// each document against the JSON schema and hands them to the retrieval
// indexer.
package knowledge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"care-chatbot/internal/common/config"
	"care-chatbot/internal/common/logger"
	"care-chatbot/internal/common/validation"
	"care-chatbot/internal/models"
)

// DocumentIndexer is the slice of the retrieval engine the loader feeds.
type DocumentIndexer interface {
	IndexDocument(ctx context.Context, doc models.KnowledgeDocument) (int, error)
}

// Loader reads *.md files from the configured directory.
type Loader struct {
	dir       string
	validator *validation.Validator
	log       logger.Logger
}

// NewLoader builds the loader. A configured schema file overrides the
// built-in document schema.
func NewLoader(cfg config.KnowledgeConfig, log logger.Logger) (*Loader, error) {
	var validator *validation.Validator
	var err error
	if cfg.SchemaPath != "" {
		validator, err = validation.NewValidatorFromFile(cfg.SchemaPath)
	} else {
		validator, err = validation.NewDocumentValidator()
	}
	if err != nil {
		return nil, fmt.Errorf("build document validator: %w", err)
	}

	return &Loader{
		dir:       cfg.DocsPath,
		validator: validator,
		log: log.WithFields(map[string]interface{}{
			"component": "knowledge-loader",
		}),
	}, nil
}

var (
	multiNewlineRe = regexp.MustCompile(`\n{3,}`)
	multiSpaceRe   = regexp.MustCompile(` {2,}`)
)

// Load reads every markdown file in the docs directory. A file that fails
// schema validation is skipped with an error log; one bad document must not
// take the whole knowledge base down.
func (l *Loader) Load() ([]models.KnowledgeDocument, error) {
	paths, err := filepath.Glob(filepath.Join(l.dir, "*.md"))
	if err != nil {
		return nil, fmt.Errorf("scan knowledge dir: %w", err)
	}
	if len(paths) == 0 {
		l.log.Warn("no markdown files found", map[string]interface{}{
			"dir": l.dir,
		})
		return nil, nil
	}

	documents := make([]models.KnowledgeDocument, 0, len(paths))
	for _, path := range paths {
		doc, err := l.loadFile(path)
		if err != nil {
			l.log.WithError(err).Error("skipping document", map[string]interface{}{
				"path": path,
			})
			continue
		}
		documents = append(documents, doc)
	}

	l.log.Info("knowledge base loaded", map[string]interface{}{
		"documents": len(documents),
		"dir":       l.dir,
	})
	return documents, nil
}

// LoadAndIndex loads the knowledge base and pushes every document through
// the indexer. Returns document and chunk counts.
func (l *Loader) LoadAndIndex(ctx context.Context, indexer DocumentIndexer) (int, int, error) {
	documents, err := l.Load()
	if err != nil {
		return 0, 0, err
	}

	chunks := 0
	for _, doc := range documents {
		n, err := indexer.IndexDocument(ctx, doc)
		if err != nil {
			return len(documents), chunks, fmt.Errorf("index %s: %w", doc.ID, err)
		}
		chunks += n
	}
	return len(documents), chunks, nil
}

func (l *Loader) loadFile(path string) (models.KnowledgeDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return models.KnowledgeDocument{}, err
	}

	id := strings.TrimSuffix(filepath.Base(path), ".md")
	front, content := splitFrontMatter(string(raw))

	doc := models.KnowledgeDocument{
		ID:      id,
		Content: normalize(content),
		Metadata: models.DocumentMetadata{
			Title:    front["title"],
			Category: front["category"],
			Source:   path,
			Tags:     splitTags(front["tags"]),
		},
	}
	if doc.Metadata.Title == "" {
		doc.Metadata.Title = titleFromID(id)
	}
	if doc.Metadata.Category == "" {
		doc.Metadata.Category = "general"
	}

	if err := l.validator.Validate(map[string]interface{}{
		"id":       doc.ID,
		"title":    doc.Metadata.Title,
		"content":  doc.Content,
		"category": doc.Metadata.Category,
	}); err != nil {
		return models.KnowledgeDocument{}, err
	}

	return doc, nil
}

// splitFrontMatter parses an optional leading "---" block of key: value
// pairs and returns it with the remaining body.
func splitFrontMatter(text string) (map[string]string, string) {
	front := make(map[string]string)
	lines := strings.Split(strings.TrimSpace(text), "\n")

	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return front, text
	}

	var body []string
	inFront := true
	for _, line := range lines[1:] {
		if inFront {
			if strings.TrimSpace(line) == "---" {
				inFront = false
				continue
			}
			if key, value, found := strings.Cut(line, ":"); found {
				front[strings.TrimSpace(key)] = strings.Trim(strings.TrimSpace(value), `"'`)
			}
			continue
		}
		body = append(body, line)
	}
	return front, strings.Join(body, "\n")
}

func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func titleFromID(id string) string {
	words := strings.FieldsFunc(id, func(r rune) bool {
		return r == '_' || r == '-'
	})
	for i, word := range words {
		if word != "" {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return strings.Join(words, " ")
}

func normalize(text string) string {
	text = multiNewlineRe.ReplaceAllString(text, "\n\n")
	text = multiSpaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
