package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/examgen/examgen/internal/ai"
	"github.com/examgen/examgen/internal/chunker"
	"github.com/examgen/examgen/internal/config"
	"github.com/examgen/examgen/internal/db"
	"github.com/examgen/examgen/internal/embedcache"
	"github.com/examgen/examgen/internal/filestore"
	"github.com/examgen/examgen/internal/generator"
	"github.com/examgen/examgen/internal/handler"
	"github.com/examgen/examgen/internal/job"
	"github.com/examgen/examgen/internal/jobstore"
	"github.com/examgen/examgen/internal/middleware"
	"github.com/examgen/examgen/internal/repo"
	"github.com/examgen/examgen/internal/retriever"
	"github.com/examgen/examgen/internal/schedule"
	"github.com/examgen/examgen/internal/service"
	"github.com/examgen/examgen/internal/vecstore"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "examgen",
		Short: "exam question generation server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run examgen server",
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

			conn, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("file_store", cfg.FileStore.Type),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("ai_model", cfg.AI.Model),
	)

	userRepo := repo.NewUserRepo(conn)
	subjectRepo := repo.NewSubjectRepo(conn)
	topicRepo := repo.NewTopicRepo(conn)
	outcomeRepo := repo.NewOutcomeRepo(conn)
	materialRepo := repo.NewMaterialRepo(conn)
	sampleRepo := repo.NewSampleRepo(conn)
	questionRepo := repo.NewQuestionRepo(conn)
	batchRepo := repo.NewBatchRepo(conn)
	cacheRepo := repo.NewEmbeddingCacheRepo(conn)

	provider, err := ai.NewProvider(cfg.AI.Provider, cfg.AI.Data)
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}
	client := ai.NewClient(provider, ai.ClientConfig{
		Model:         cfg.AI.Model,
		FallbackModel: cfg.AI.FallbackModel,
		Timeout:       time.Duration(cfg.AI.TimeoutSeconds) * time.Second,
		MaxTokens:     cfg.AI.MaxTokens,
		Temperature:   cfg.AI.Temperature,
		RatePerMinute: cfg.AI.RatePerMinute,
	})
	embedProvider, err := ai.NewEmbedProvider(cfg.AI.EmbedProvider, cfg.AI.EmbedData)
	if err != nil {
		return fmt.Errorf("init embed provider: %w", err)
	}
	embedder := ai.NewEmbedder(embedProvider, cfg.AI.EmbedModel)
	embedder = embedcache.WrapDBCacheToEmbedder(embedder, cacheRepo)
	embedder = embedcache.WrapLRUCacheToEmbedder(
		embedder,
		cfg.Generation.EmbedCacheSize,
		time.Duration(cfg.Generation.EmbedCacheTTLHours)*time.Hour,
	)

	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}
	vec := vecstore.NewPGStore(conn)
	chunks := chunker.New(chunker.Config{
		MaxChars: cfg.Chunking.MaxChars,
		Overlap:  cfg.Chunking.Overlap,
		MinChars: cfg.Chunking.MinChars,
	})
	retr := retriever.New(embedder, vec, client)
	gen := generator.New(client, generator.Config{
		CorrectionRetries: cfg.Generation.CorrectionRetries,
	})
	jobs := jobstore.NewDBStore(batchRepo)

	jwtTTL := time.Hour * time.Duration(cfg.JWTTTLHours)
	authService := service.NewAuthService(userRepo, []byte(cfg.JWTSecret), jwtTTL)
	subjectService := service.NewSubjectService(subjectRepo, topicRepo, outcomeRepo, sampleRepo)
	indexingService := service.NewIndexingService(materialRepo, store, embedder, vec, chunks)
	generationService := service.NewGenerationService(
		gen, retr, jobs,
		subjectRepo, topicRepo, outcomeRepo, sampleRepo, questionRepo,
		vec, cfg.Generation,
	)
	questionService := service.NewQuestionService(questionRepo)

	deps := handler.RouterDeps{
		Auth:      handler.NewAuthHandler(authService),
		Subjects:  handler.NewSubjectHandler(subjectService),
		Materials: handler.NewMaterialHandler(indexingService),
		Generate:  handler.NewGenerateHandler(generationService),
		Questions: handler.NewQuestionHandler(questionService),
		JWTSecret: []byte(cfg.JWTSecret),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewIndexPendingJob(indexingService), cfg.Schedule.IndexPendingSpec); err != nil {
		return err
	}
	if err := scheduler.AddJob(job.NewBatchCleanupJob(batchRepo, 2*time.Hour), cfg.Schedule.BatchCleanupSpec); err != nil {
		return err
	}
	if err := scheduler.AddJob(job.NewEmbeddingCacheCleanupJob(cacheRepo, 30), cfg.Schedule.CacheCleanupSpec); err != nil {
		return err
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
