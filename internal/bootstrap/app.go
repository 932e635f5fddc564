package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"docforge/internal/agent"
	"docforge/internal/ai"
	"docforge/internal/cache"
	"docforge/internal/config"
	"docforge/internal/model"
	mysqlClient "docforge/internal/platform/mysql"
	rabbitmqClient "docforge/internal/platform/rabbitmq"
	redisClient "docforge/internal/platform/redis"
	"docforge/internal/pipeline"
	"docforge/internal/pkg/textextract"
	"docforge/internal/repository"
	"docforge/internal/search"
	"docforge/internal/storage"
	"docforge/internal/worker"
)

type App struct {
	Config *config.Config
	MySQL  *gorm.DB
	Redis  *redis.Client
	MQConn *amqp.Connection

	Files         *storage.FileStore
	Oracle        *ai.Client
	Agents        *agent.Agents
	Searcher      search.Searcher
	Extractor     *textextract.Extractor
	HistoryCache  *cache.HistoryCache
	InsightsCache *cache.InsightsCache
	Publisher     *rabbitmqClient.IngestPublisher
	IngestWorker  *worker.IngestWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(
		&model.Document{},
		&model.DocumentVariable{},
		&model.Template{},
		&model.TemplateVariable{},
		&model.DocumentType{},
		&model.ChatMessage{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	files, err := storage.NewFileStore(cfg.Storage.UploadDir)
	if err != nil {
		return nil, err
	}

	oracle := ai.NewClient()
	agents := agent.New(oracle, ai.ChatConfig{
		BaseURL:            cfg.LLM.BaseURL,
		APIKey:             cfg.LLM.APIKey,
		Model:              cfg.LLM.Model,
		FoldSystemMessages: cfg.LLM.FoldSystemMessages,
	})
	searcher := search.NewClient(search.Config{
		BaseURL: cfg.Search.BaseURL,
		APIKey:  cfg.Search.APIKey,
	})
	extractor := textextract.New()

	historyCache := cache.NewHistoryCache(
		redisCli,
		time.Duration(cfg.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(cfg.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)
	insightsCache := cache.NewInsightsCache(
		redisCli,
		time.Duration(cfg.Redis.InsightsTTLSeconds)*time.Second,
	)

	docRepo := repository.NewDocumentRepository(mysqlDB)
	varRepo := repository.NewDocumentVariableRepository(mysqlDB)
	typeRepo := repository.NewDocumentTypeRepository(mysqlDB)

	processor := pipeline.NewProcessor(docRepo, varRepo, typeRepo, agents, extractor, insightsCache)
	ingestWorker := worker.NewIngestWorker(mqConn, processor, cfg.RabbitMQ.IngestQueue)
	if err := ingestWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start ingest worker failed: %w", err)
	}

	publisher := rabbitmqClient.NewIngestPublisher(mqConn, cfg.RabbitMQ.IngestQueue)

	return &App{
		Config:        cfg,
		MySQL:         mysqlDB,
		Redis:         redisCli,
		MQConn:        mqConn,
		Files:         files,
		Oracle:        oracle,
		Agents:        agents,
		Searcher:      searcher,
		Extractor:     extractor,
		HistoryCache:  historyCache,
		InsightsCache: insightsCache,
		Publisher:     publisher,
		IngestWorker:  ingestWorker,
		StartedAt:     time.Now(),
	}, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.IngestWorker != nil {
		a.IngestWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
