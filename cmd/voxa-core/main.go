package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/voxa-labs/voxa-core/internal/adapters/driven/ai"
	"github.com/voxa-labs/voxa-core/internal/adapters/driven/extract"
	"github.com/voxa-labs/voxa-core/internal/adapters/driven/flatindex"
	postgresqueue "github.com/voxa-labs/voxa-core/internal/adapters/driven/queue/postgres"
	redisqueue "github.com/voxa-labs/voxa-core/internal/adapters/driven/queue/redis"
	redisadapter "github.com/voxa-labs/voxa-core/internal/adapters/driven/redis"
	"github.com/voxa-labs/voxa-core/internal/adapters/driven/speech"
	"github.com/voxa-labs/voxa-core/internal/adapters/driven/storage/memory"
	"github.com/voxa-labs/voxa-core/internal/chunker"
	"github.com/voxa-labs/voxa-core/internal/core/domain"
	"github.com/voxa-labs/voxa-core/internal/core/ports/driven"
	"github.com/voxa-labs/voxa-core/internal/core/ports/driving"
	"github.com/voxa-labs/voxa-core/internal/core/services"
	"github.com/voxa-labs/voxa-core/internal/runtime"
	"github.com/voxa-labs/voxa-core/internal/worker"

	_ "github.com/lib/pq"
)

var version = "dev"

func main() {
	// Get run mode from environment (RUN_MODE) or command line arg
	mode := getEnv("RUN_MODE", "all")
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}

	log.Printf("voxa-core %s starting in %s mode", version, mode)

	// Configuration from environment
	redisURL := getEnv("REDIS_URL", "")
	databaseURL := getEnv("DATABASE_URL", "")
	indexPath := getEnv("INDEX_PATH", "data/index.json")
	dimensions := getEnvInt("EMBEDDING_DIMENSIONS", 256)
	chunkSize := getEnvInt("CHUNK_SIZE", 1000)
	chunkOverlap := getEnvInt("CHUNK_OVERLAP", 200)
	workingLanguage := getEnv("WORKING_LANGUAGE", "en")
	openAIKey := getEnv("OPENAI_API_KEY", "")
	openAIBaseURL := getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1")
	embeddingModel := getEnv("EMBEDDING_MODEL", "text-embedding-3-small")
	augmentModel := getEnv("AUGMENT_MODEL", "gpt-4o-mini")

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutdown signal received, stopping...")
		cancel()
	}()

	// ===== Initialize Redis (optional) =====
	var redisClient *redis.Client
	if redisURL != "" {
		log.Println("Connecting to Redis...")
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Fatalf("Failed to parse Redis URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		log.Println("Redis connected")
	}

	// ===== Initialize PostgreSQL (optional, queue fallback) =====
	var db *sql.DB
	if redisClient == nil && databaseURL != "" {
		log.Println("Connecting to PostgreSQL...")
		var err error
		db, err = sql.Open("postgres", databaseURL)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		if err := db.PingContext(ctx); err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		log.Println("PostgreSQL connected")
	}

	// ===== Stores (Redis if available, otherwise in-memory) =====
	docStore := memory.NewDocStore()
	blobStore := memory.NewBlobStore()

	var sessionStore driven.SessionStore
	var distributedLock driven.DistributedLock
	sessionBackend := "memory"
	if redisClient != nil {
		sessionStore = redisadapter.NewSessionStore(redisClient)
		distributedLock = redisadapter.NewLock(redisClient)
		sessionBackend = "redis"
		log.Println("Using Redis session store and lock")
	} else {
		sessionStore = memory.NewSessionStore()
		distributedLock = memory.NewLock()
		log.Println("Using in-memory session store and lock")
	}

	// ===== Task Queue (Redis, then PostgreSQL, then in-memory) =====
	var taskQueue driven.TaskQueue
	queueBackend := "memory"
	switch {
	case redisClient != nil:
		var err error
		taskQueue, err = redisqueue.NewQueue(redisClient, fmt.Sprintf("worker-%d", os.Getpid()))
		if err != nil {
			log.Fatalf("Failed to create task queue: %v", err)
		}
		queueBackend = "redis"
		log.Println("Using Redis task queue")
	case db != nil:
		var err error
		taskQueue, err = postgresqueue.NewQueue(ctx, db)
		if err != nil {
			log.Fatalf("Failed to create task queue: %v", err)
		}
		queueBackend = "postgres"
		log.Println("Using PostgreSQL task queue")
	default:
		taskQueue = memory.NewTaskQueue()
		log.Println("Using in-memory task queue")
	}

	// ===== Embedding provider (OpenAI with hash fallback) =====
	var embedder driven.EmbeddingService
	if openAIKey != "" {
		openAIEmbedder, err := ai.NewOpenAIEmbedding(openAIKey, embeddingModel, openAIBaseURL)
		if err != nil {
			log.Fatalf("Failed to create embedding provider: %v", err)
		}
		probeCtx, probeCancel := context.WithTimeout(ctx, 15*time.Second)
		err = openAIEmbedder.HealthCheck(probeCtx)
		probeCancel()
		if err != nil {
			log.Printf("Warning: embedding provider unavailable, falling back to hash embedding: %v", err)
			embedder = ai.NewHashEmbedding(dimensions)
		} else {
			embedder = openAIEmbedder
			log.Printf("Using OpenAI embedding model %s", embeddingModel)
		}
	} else {
		embedder = ai.NewHashEmbedding(dimensions)
		log.Println("Using hash embedding (no OPENAI_API_KEY configured)")
	}

	// ===== Vector index =====
	index, err := flatindex.New(flatindex.Config{
		Path:            indexPath,
		Dimensions:      embedder.Dimensions(),
		Model:           embedder.Model(),
		ScanParallelism: getEnvInt("INDEX_SCAN_PARALLELISM", 1),
		Logger:          slog.Default(),
	})
	if err != nil {
		// Includes the snapshot/embedder dimension mismatch, which is
		// fatal at startup rather than a recoverable load failure.
		log.Fatalf("Failed to open vector index: %v", err)
	}
	defer index.Close()

	// ===== Runtime configuration and optional providers =====
	runtimeConfig := domain.NewRuntimeConfig(queueBackend, sessionBackend, workingLanguage)
	runtimeServices := runtime.NewServices(runtimeConfig)
	defer runtimeServices.Close()

	var transcriber driven.Transcriber = speech.NewNullTranscriber()
	if openAIKey != "" {
		probeCtx, probeCancel := context.WithTimeout(ctx, 15*time.Second)
		installProviders(probeCtx, runtimeServices, openAIKey, augmentModel, openAIBaseURL, &transcriber)
		probeCancel()
	}

	log.Printf("Runtime config: queue_backend=%s, session_backend=%s, augmentation=%t, translation=%t, synthesis=%t",
		runtimeConfig.QueueBackend,
		runtimeConfig.SessionBackend,
		runtimeConfig.AugmentationAvailable(),
		runtimeConfig.TranslationAvailable(),
		runtimeConfig.SynthesisAvailable())

	// ===== Chunker =====
	textChunker, err := chunker.New(chunkSize, chunkOverlap)
	if err != nil {
		log.Fatalf("Invalid chunking configuration: %v", err)
	}

	// ===== Services (core business logic) =====
	orchestrator := services.NewIndexOrchestrator(services.IndexOrchestratorConfig{
		DocStore:  docStore,
		Index:     index,
		Embedder:  embedder,
		Extractor: extract.NewTextExtractor(blobStore),
		Chunker:   textChunker,
		Lock:      distributedLock,
		Logger:    slog.Default(),
	})

	retrieval := services.NewRetrieval(services.RetrievalConfig{
		Index:    index,
		Embedder: embedder,
		Services: runtimeServices,
		Logger:   slog.Default(),
	})

	pipeline := services.NewSessionPipeline(services.SessionPipelineConfig{
		Sessions:    sessionStore,
		Retrieval:   retrieval,
		Transcriber: transcriber,
		Blobs:       blobStore,
		Services:    runtimeServices,
		Config:      runtimeConfig,
		Logger:      slog.Default(),
	})

	ingest := services.NewIngest(docStore, taskQueue, slog.Default())

	switch mode {
	case "worker":
		runWorkerMode(ctx, taskQueue, orchestrator)

	case "all":
		// ingest and pipeline are the driving surface an embedding
		// host attaches its transport to; the binary itself only
		// runs the worker.
		runAll(ctx, taskQueue, orchestrator, ingest, pipeline)

	default:
		log.Fatalf("Unknown mode: %s (use: worker or all)", mode)
	}

	log.Println("Shutdown complete")
}

// installProviders probes the OpenAI-backed optional providers and
// installs the ones that answer. A failed probe leaves the null
// fallback in place; the pipeline degrades instead of failing.
func installProviders(
	ctx context.Context,
	runtimeServices *runtime.Services,
	apiKey, augmentModel, baseURL string,
	transcriber *driven.Transcriber,
) {
	augmenter, err := ai.NewOpenAIAugmenter(apiKey, augmentModel, baseURL)
	if err == nil {
		if err := runtimeServices.ValidateAndSetAugmenter(ctx, augmenter); err != nil {
			log.Printf("Warning: augmentation provider unavailable: %v", err)
		} else {
			log.Printf("Using OpenAI augmentation model %s", augmentModel)
		}
	}

	speechProvider, err := ai.NewOpenAISpeech(apiKey, baseURL)
	if err != nil {
		log.Printf("Warning: speech provider unavailable: %v", err)
		return
	}

	if err := speechProvider.Ping(ctx); err != nil {
		log.Printf("Warning: speech provider unavailable: %v", err)
		return
	}
	*transcriber = speechProvider
	if err := runtimeServices.ValidateAndSetTranslator(ctx, speechProvider); err != nil {
		log.Printf("Warning: translation provider unavailable: %v", err)
	}
	if err := runtimeServices.ValidateAndSetSynthesizer(ctx, speechProvider); err != nil {
		log.Printf("Warning: synthesis provider unavailable: %v", err)
	}
	log.Println("Using OpenAI speech providers")
}

// runAll runs the full pipeline: worker plus the driving services the
// embedding host wires its transport to.
func runAll(
	ctx context.Context,
	taskQueue driven.TaskQueue,
	orchestrator *services.IndexOrchestrator,
	ingest driving.IngestService,
	pipeline driving.QueryService,
) {
	log.Println("Ingest and query services ready")
	runWorkerMode(ctx, taskQueue, orchestrator)
}

// runWorkerMode starts the background worker and blocks until shutdown.
func runWorkerMode(
	ctx context.Context,
	taskQueue driven.TaskQueue,
	orchestrator *services.IndexOrchestrator,
) {
	log.Println("Starting worker mode...")

	w := worker.NewWorker(worker.WorkerConfig{
		TaskQueue:      taskQueue,
		Orchestrator:   orchestrator,
		Logger:         slog.Default(),
		Concurrency:    getEnvInt("WORKER_CONCURRENCY", 2),
		DequeueTimeout: getEnvInt("WORKER_DEQUEUE_TIMEOUT", 5),
	})

	if err := w.Start(ctx); err != nil {
		log.Fatalf("Failed to start worker: %v", err)
	}

	log.Println("Worker started, processing tasks...")
	log.Println("Worker handles:")
	log.Println("  - index_document: Index a specific document")
	log.Println("  - delete_document: Remove a document's vectors")
	log.Println("  - reindex_all: Rebuild the whole corpus")
	log.Println("  - reconcile_deleted: Sweep deleted documents")

	// Wait for context cancellation
	<-ctx.Done()

	// Graceful shutdown
	log.Println("Stopping worker...")
	w.Stop()
	log.Println("Worker stopped")
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
