package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/docqa/internal/ai"
	"github.com/xxxsen/docqa/internal/config"
	"github.com/xxxsen/docqa/internal/db"
	"github.com/xxxsen/docqa/internal/embedcache"
	"github.com/xxxsen/docqa/internal/filestore"
	"github.com/xxxsen/docqa/internal/handler"
	"github.com/xxxsen/docqa/internal/job"
	"github.com/xxxsen/docqa/internal/middleware"
	"github.com/xxxsen/docqa/internal/rag"
	"github.com/xxxsen/docqa/internal/repo"
	"github.com/xxxsen/docqa/internal/schedule"
	"github.com/xxxsen/docqa/internal/service"
	"github.com/xxxsen/docqa/internal/vectorstore"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "docqa",
		Short: "docqa document question-answering server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run docqa server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			dbc, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(dbc); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, dbc)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func buildEmbedder(cfg *config.Config, cacheRepo *repo.EmbeddingCacheRepo) (ai.IEmbedder, error) {
	providerArgs := cfg.AI.Data
	if providerArgs == nil {
		providerArgs = cfg.AI
	}
	provider, err := ai.NewEmbedProvider(cfg.AI.Provider, providerArgs)
	if err != nil {
		return nil, err
	}
	embedder := ai.NewEmbedder(provider, cfg.AI.EmbedModel)
	embedder = embedcache.WrapDBCacheToEmbedder(embedder, cacheRepo)
	embedder = embedcache.WrapLruCacheToEmbedder(
		embedder,
		cfg.EmbedCache.LRUSize,
		time.Duration(cfg.EmbedCache.LRUTTLMinutes)*time.Minute,
	)
	return embedder, nil
}

func buildGenerator(cfg *config.Config) (ai.IGenerator, error) {
	providerArgs := cfg.AI.Data
	if providerArgs == nil {
		providerArgs = cfg.AI
	}
	provider, err := ai.NewProvider(cfg.AI.Provider, providerArgs)
	if err != nil {
		return nil, err
	}
	entries := []ai.GeneratorEntry{
		{Name: cfg.AI.Provider, Generator: ai.NewGenerator(provider, cfg.AI.ChatModel)},
	}
	if fb := cfg.AI.Fallback; fb != nil {
		fbProvider, err := ai.NewProvider(fb.Provider, fb.Data)
		if err != nil {
			return nil, fmt.Errorf("init fallback provider: %w", err)
		}
		model := fb.ChatModel
		if model == "" {
			model = cfg.AI.ChatModel
		}
		entries = append(entries, ai.GeneratorEntry{Name: fb.Provider, Generator: ai.NewGenerator(fbProvider, model)})
	}
	return ai.NewGroupGenerator(entries), nil
}

func runServer(cfg *config.Config, dbc *sqlx.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("embed_model", cfg.AI.EmbedModel),
	)

	chunkRepo := repo.NewChunkRepo(dbc)
	namespaceRepo := repo.NewNamespaceRepo(dbc)
	cacheRepo := repo.NewEmbeddingCacheRepo(dbc)

	embedder, err := buildEmbedder(cfg, cacheRepo)
	if err != nil {
		return fmt.Errorf("init embed provider: %w", err)
	}
	generator, err := buildGenerator(cfg)
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}

	store := vectorstore.New(chunkRepo, namespaceRepo)
	chunker := rag.NewChunker(cfg.Chunking.MaxWords, cfg.Chunking.OverlapWords)
	retriever := rag.NewRetriever(embedder, store, cfg.Retrieval.MaxTopK)
	answerGen := rag.NewGenerator(generator, cfg.AI.ChatModel, rag.GeneratorConfig{
		TimeoutSeconds: cfg.AI.Timeout,
		MaxTokens:      cfg.AI.MaxTokens,
		EmptyPolicy:    cfg.Answer.EmptyPolicy,
	})

	var archive filestore.Store
	if cfg.Archive.Enabled {
		archive, err = filestore.New(cfg.Archive.FileStore)
		if err != nil {
			return fmt.Errorf("init archive store: %w", err)
		}
	}

	queryService := service.NewQueryService(retriever, answerGen, service.QueryServiceConfig{
		DefaultTopK:   cfg.Retrieval.DefaultTopK,
		MaxInputChars: cfg.AI.MaxInputChars,
		CacheSize:     cfg.Answer.CacheSize,
		CacheTTL:      time.Duration(cfg.Answer.CacheTTLMinutes) * time.Minute,
	})
	ingestService := service.NewIngestService(chunker, embedder, service.WrapStore(store), archive, queryService)
	clientService := service.NewClientService(store, queryService)

	deps := handler.RouterDeps{
		Ingest:  handler.NewIngestHandler(ingestService),
		Query:   handler.NewQueryHandler(queryService),
		Clients: handler.NewClientHandler(clientService),
		Health:  handler.NewHealthHandler(dbc),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSAllow),
			middleware.RequestID(),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	cleanup := job.NewEmbeddingCacheCleanupJob(cacheRepo, cfg.EmbedCache.KeepDays)
	if err := scheduler.AddJob(cleanup, cfg.EmbedCache.CleanupSpec); err != nil {
		return fmt.Errorf("schedule cleanup job: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
