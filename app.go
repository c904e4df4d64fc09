package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/radz2291/RZ-Property/internal/cache"
	"github.com/radz2291/RZ-Property/internal/captcha"
	"github.com/radz2291/RZ-Property/internal/config"
	"github.com/radz2291/RZ-Property/internal/db"
	"github.com/radz2291/RZ-Property/internal/email"
	"github.com/radz2291/RZ-Property/internal/images"
	"github.com/radz2291/RZ-Property/internal/logging"
	"github.com/radz2291/RZ-Property/internal/repository"
	"github.com/radz2291/RZ-Property/internal/search"
	"github.com/radz2291/RZ-Property/internal/services"
	"github.com/radz2291/RZ-Property/internal/storage"
	"github.com/radz2291/RZ-Property/internal/tasks"
)

// app holds the connections and services shared by every command.
type app struct {
	cfg *config.Config

	mongoClient *mongo.Client
	redisClient *redis.Client
	taskClient  *asynq.Client

	blobStore   storage.IBlobStore
	pageCache   cache.IPageCache
	emailSender email.Sender
	verifier    captcha.ITurnstileVerifier

	agentRepo repository.IAgentRepository

	properties services.IPropertyService
	inquiries  services.IInquiryService
	content    services.ISiteContentService
	agent      services.IAgentService
	adminAuth  services.IAdminAuthService
	analytics  services.IAnalyticsService
}

// newApp loads configuration, sets up logging and connects to MongoDB,
// Redis, the blob store and the search index.
func newApp(ctx context.Context, runMode string) (*app, error) {
	cfg, err := config.Load(runMode)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logging.Setup(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	a := &app{cfg: cfg}

	mongoClient, mongoDb, err := db.ConnectDB(cfg.MongoURI, cfg.MongoDbName)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.mongoClient = mongoClient
	if err := db.EnsureIndexes(ctx, mongoDb); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to ensure indexes: %w", err)
	}

	redisClient, err := cache.ConnectRedis(ctx, cache.RedisOptions{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	a.redisClient = redisClient
	a.pageCache = cache.NewRedisPageCache(redisClient, cfg.PageCacheTTL)

	if cfg.MockServices {
		log.Println("MOCK_SERVICES enabled: using in-memory blob store and Redis email sender.")
		a.blobStore = storage.NewMemoryStorage(cfg.S3Bucket, cfg.S3PublicBaseURL)
		a.emailSender = email.NewRedisSender(redisClient, cfg)
	} else {
		a.blobStore, err = storage.NewS3Storage(cfg)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize S3 storage: %w", err)
		}
		a.emailSender = a.buildEmailSender()
	}

	indexer := search.NewIndexer(cfg.MeiliHost, cfg.MeiliAPIKey, cfg.MeiliIndex)
	if err := indexer.Init(ctx); err != nil {
		// Search is a mirror; the catalog keeps working without it.
		slog.Warn("search index init failed", "error", err)
	}

	a.taskClient = tasks.NewClient(redisClient)
	enqueuer := tasks.NewEnqueuer(a.taskClient)

	manager := images.NewManager(a.blobStore, images.Options{
		MaxCount:     cfg.ImageMaxCount,
		MaxSizeBytes: cfg.ImageMaxSizeBytes(),
		Concurrency:  cfg.ImageUploadConcurrency,
		MaxAttempts:  cfg.UploadMaxAttempts,
		RetryDelay:   cfg.UploadRetryDelay,
		CallTimeout:  cfg.BlobCallTimeout,
	})

	propertyRepo := repository.NewPropertyRepository(mongoDb)
	inquiryRepo := repository.NewInquiryRepository(mongoDb)
	pageViewRepo := repository.NewPageViewRepository(mongoDb)
	a.agentRepo = repository.NewAgentRepository(mongoDb)

	a.properties = services.NewPropertyService(propertyRepo, a.agentRepo, pageViewRepo, manager, a.pageCache, indexer, enqueuer)
	a.inquiries = services.NewInquiryService(inquiryRepo, propertyRepo, enqueuer)
	a.content = services.NewSiteContentService(repository.NewSiteContentRepository(mongoDb), a.pageCache)
	a.agent = services.NewAgentService(a.agentRepo, a.pageCache)
	a.adminAuth = services.NewAdminAuthService(repository.NewAdminUserRepository(mongoDb), cfg)
	a.analytics = services.NewAnalyticsService(propertyRepo, inquiryRepo, pageViewRepo)
	a.verifier = captcha.NewTurnstileVerifier(cfg)

	return a, nil
}

// buildEmailSender returns SMTP (or logging) delivery, plus a file copy of
// every message when LOG_EMAILS names a path.
func (a *app) buildEmailSender() email.Sender {
	senders := email.Fanout{email.NewSMTPSender(a.cfg)}
	if path := os.Getenv("LOG_EMAILS"); path != "" {
		mailLog, err := email.NewMailLog(path)
		if err != nil {
			slog.Warn("mail log disabled", "path", path, "error", err)
			return senders
		}
		senders = senders.With(mailLog)
	}
	return senders
}

func (a *app) taskProcessor() *tasks.TaskProcessor {
	return tasks.NewTaskProcessor(a.cfg, a.emailSender, a.blobStore, a.agentRepo)
}

// Close releases every connection that was opened.
func (a *app) Close() {
	if a.taskClient != nil {
		if err := a.taskClient.Close(); err != nil {
			log.Printf("Error closing task client: %v", err)
		}
	}
	if a.redisClient != nil {
		if err := cache.CloseRedis(a.redisClient); err != nil {
			log.Printf("Error disconnecting from Redis: %v", err)
		}
	}
	if a.mongoClient != nil {
		if err := db.DisconnectDB(a.mongoClient); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}
}
