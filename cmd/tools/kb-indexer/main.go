// cmd/tools/kb-indexer/main.go

// kb-indexer loads the markdown knowledge base and pushes it into the
// configured vector index, so a document refresh does not need a chatbot
// restart. With -dry-run it only validates and reports.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"care-chatbot/internal/common/config"
	"care-chatbot/internal/common/database"
	"care-chatbot/internal/common/logger"
	"care-chatbot/internal/knowledge"
	"care-chatbot/internal/retrieval"
)

func main() {
	docsPath := flag.String("docs", "", "Knowledge docs directory (default: knowledge.docs_path from config)")
	dryRun := flag.Bool("dry-run", false, "Load and validate documents without indexing")
	timeout := flag.Duration("timeout", 5*time.Minute, "Overall indexing timeout")
	flag.Parse()

	zapLog := logger.New("info", "console")
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}
	if *docsPath != "" {
		cfg.Knowledge.DocsPath = *docsPath
	}

	loader, err := knowledge.NewLoader(cfg.Knowledge, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loader setup failed: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *dryRun {
		docs, err := loader.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "load failed: %v\n", err)
			os.Exit(1)
		}
		for _, doc := range docs {
			fmt.Printf("%s\t%s\t%s\t%d chars\n", doc.ID, doc.Metadata.Category, doc.Metadata.Title, len(doc.Content))
		}
		fmt.Printf("Validated %d documents\n", len(docs))
		return
	}

	engine, err := buildEngine(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine setup failed: %v\n", err)
		os.Exit(1)
	}

	docCount, chunkCount, err := loader.LoadAndIndex(ctx, engine)
	if err != nil {
		fmt.Fprintf(os.Stderr, "indexing failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Indexed %d documents (%d chunks)\n", docCount, chunkCount)
}

func buildEngine(ctx context.Context, cfg *config.Config, log logger.Logger) (*retrieval.Engine, error) {
	if cfg.Database.Elasticsearch.GetURL() == "" {
		return nil, fmt.Errorf("no elasticsearch configured; an in-memory index would be lost on exit")
	}

	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}
	if err := es.Ping(); err != nil {
		return nil, fmt.Errorf("elasticsearch ping: %w", err)
	}

	index := retrieval.NewElasticIndex(es, cfg.Database.Elasticsearch.Index, cfg.Embedding.Dimensions)
	if err := index.EnsureIndex(ctx); err != nil {
		return nil, fmt.Errorf("ensure index: %w", err)
	}

	var embedder retrieval.Embedder
	if cfg.Embedding.BaseURL != "" {
		embedder = retrieval.WithRetry(retrieval.NewHTTPEmbedder(cfg.Embedding), 2)
	} else {
		embedder = retrieval.NewLocalEmbedder(cfg.Embedding.Dimensions)
	}

	return retrieval.NewEngine(embedder, index, retrieval.Options{
		ChunkSize:      cfg.Retrieval.MaxChunkChars,
		ChunkOverlap:   cfg.Retrieval.ChunkOverlap,
		TopK:           cfg.Retrieval.TopK,
		ScoreThreshold: cfg.Retrieval.ScoreThreshold,
	}, log), nil
}
