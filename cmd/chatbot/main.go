// cmd/chatbot/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"go.uber.org/zap"

	"care-chatbot/internal/analytics"
	"care-chatbot/internal/appointment"
	"care-chatbot/internal/common/config"
	"care-chatbot/internal/common/database"
	"care-chatbot/internal/common/logger"
	"care-chatbot/internal/common/observability"
	"care-chatbot/internal/dialog"
	"care-chatbot/internal/escalation"
	"care-chatbot/internal/intent"
	"care-chatbot/internal/knowledge"
	"care-chatbot/internal/nlp"
	"care-chatbot/internal/notify"
	"care-chatbot/internal/retrieval"
	"care-chatbot/internal/server"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting care chatbot...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format)
	log = logger.NewZapAdapter(zapLog)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()
	analyzer := nlp.NewAnalyzer()

	// --- Init Redis (answer cache) with retry ---
	var redisClient *database.RedisClient
	if cfg.Retrieval.AnswerCacheEnabled {
		err = retryWithBackoff(func() error {
			var err error
			redisClient, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redisClient.Ping(ctx)
		}, 5, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			// The answer cache is an optimization; run uncached rather than die.
			zapLog.Warn("redis unavailable, answer cache disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
			zapLog.Info("Redis connected successfully")
		}
	}

	// --- Init appointment store ---
	var store appointment.Store
	if cfg.Database.Postgres.Host != "" {
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()

		pgStore := appointment.NewPostgresStore(pg.GetDB(), log)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			zapLog.Fatal("appointments schema setup failed", zap.Error(err))
		}
		store = pgStore
		zapLog.Info("PostgreSQL connected successfully")
	} else {
		store = appointment.NewMemoryStore()
		zapLog.Warn("no postgres configured, appointments are in-memory only")
	}

	// --- Init vector index ---
	var index retrieval.VectorIndex
	if cfg.Database.Elasticsearch.GetURL() != "" {
		var es *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping()
		}, 10, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}

		elasticIndex := retrieval.NewElasticIndex(es, cfg.Database.Elasticsearch.Index, cfg.Embedding.Dimensions)
		if err := elasticIndex.EnsureIndex(ctx); err != nil {
			zapLog.Fatal("elasticsearch index setup failed", zap.Error(err))
		}
		index = elasticIndex
		zapLog.Info("Elasticsearch connected successfully")
	} else {
		index = retrieval.NewMemoryIndex()
		zapLog.Warn("no elasticsearch configured, vector index is in-memory only")
	}

	// --- Init embedder and retrieval engine ---
	var embedder retrieval.Embedder
	if cfg.Embedding.BaseURL != "" {
		embedder = retrieval.WithRetry(retrieval.NewHTTPEmbedder(cfg.Embedding), 2)
	} else {
		embedder = retrieval.NewLocalEmbedder(cfg.Embedding.Dimensions)
		zapLog.Warn("no embedding API configured, using local hash embedder")
	}

	engine := retrieval.NewEngine(embedder, index, retrieval.Options{
		ChunkSize:      cfg.Retrieval.MaxChunkChars,
		ChunkOverlap:   cfg.Retrieval.ChunkOverlap,
		TopK:           cfg.Retrieval.TopK,
		ScoreThreshold: cfg.Retrieval.ScoreThreshold,
	}, log)

	// --- Load knowledge base ---
	loader, err := knowledge.NewLoader(cfg.Knowledge, log)
	if err != nil {
		zapLog.Fatal("knowledge loader setup failed", zap.Error(err))
	}
	docCount, chunkCount, err := loader.LoadAndIndex(ctx, engine)
	if err != nil {
		zapLog.Fatal("knowledge base indexing failed", zap.Error(err))
	}
	zapLog.Info("knowledge base indexed",
		zap.Int("documents", docCount),
		zap.Int("chunks", chunkCount),
	)

	// --- Init notification channels ---
	var confirmer appointment.ConfirmationSender
	var alerts dialog.AlertSink
	if cfg.Notifications.Email.Enabled || cfg.Notifications.Alerts.Enabled {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Notifications.AWS.Region))
		if err != nil {
			zapLog.Fatal("load AWS config failed", zap.Error(err))
		}
		if cfg.Notifications.Email.Enabled {
			confirmer = notify.NewEmailSender(ses.NewFromConfig(awsCfg), cfg.Notifications, log)
		}
		if cfg.Notifications.Alerts.Enabled {
			alerts = notify.NewAlertPublisher(sns.NewFromConfig(awsCfg), cfg.Notifications, log)
		}
	}

	// --- Build the turn pipeline ---
	escalationEngine := escalation.NewEngine(analyzer, cfg.Escalation, log)
	flow := appointment.NewFlow(appointment.NewRules(cfg.Appointment), store, analyzer, confirmer, log)
	recorder := analytics.NewRecorder(log)
	sessions := dialog.NewSessionStore(cfg.Session, log)

	var cache *dialog.AnswerCache
	if redisClient != nil {
		cache = dialog.NewAnswerCache(redisClient.GetClient(), cfg.Retrieval, log)
	}

	orchestrator := dialog.NewOrchestrator(dialog.Deps{
		Classifier:   intent.NewClassifier(analyzer, log),
		Retrieval:    engine,
		Escalation:   escalationEngine,
		Flow:         flow,
		Appointments: store,
		Sessions:     sessions,
		Cache:        cache,
		Recorder:     recorder,
		Alerts:       alerts,
		Observer:     obs,
		Log:          log,
	})

	// --- Background maintenance ---
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go sessions.RunSweeper(runCtx)
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				recorder.Prune(30 * 24 * time.Hour)
			case <-runCtx.Done():
				return
			}
		}
	}()

	// --- HTTP server ---
	srv := server.NewServer(cfg.Server, server.Deps{
		Orchestrator: orchestrator,
		Escalation:   escalationEngine,
		Retrieval:    engine,
		Analytics:    recorder,
		App:          cfg.App,
		Log:          log,
	})

	go func() {
		if err := srv.Start(); err != nil {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	zapLog.Info("Shutdown signal received, stopping server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("server shutdown failed", zap.Error(err))
	}

	zapLog.Info("Shutdown complete")
}
