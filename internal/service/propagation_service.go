package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/LuzuJ/Agro-RedConect-sub001/internal/common/database"
	"github.com/LuzuJ/Agro-RedConect-sub001/internal/common/mqtt"
	"github.com/LuzuJ/Agro-RedConect-sub001/internal/common/redis"
	"github.com/LuzuJ/Agro-RedConect-sub001/internal/config"
	"github.com/LuzuJ/Agro-RedConect-sub001/internal/consumer"
	"github.com/LuzuJ/Agro-RedConect-sub001/internal/notify"
	"github.com/LuzuJ/Agro-RedConect-sub001/internal/propagation"
	"github.com/LuzuJ/Agro-RedConect-sub001/internal/repository"
	"github.com/LuzuJ/Agro-RedConect-sub001/internal/store"

	"go.uber.org/zap"
)

const (
	connectTimeout  = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

// HandlerFactory 构建 HTTP 处理器（由 httpapi.NewHandler 提供）
type HandlerFactory func(analyzer *propagation.Analyzer, batch *propagation.BatchAnalyzer, cache *consumer.CacheManager, plants *PlantService, logger *zap.Logger) http.Handler

// PropagationService 病害传播分析服务（整合各层）
type PropagationService struct {
	config      *config.Config
	db          *sql.DB // Store = "kv" 时为 nil
	redisClient *redis.Client
	mqttClient  *mqtt.Client // 未启用时为 nil
	logger      *zap.Logger

	// 各层组件
	plotRepo     repository.PlotRepository
	plantRepo    repository.PlantRepository
	analyzer     *propagation.Analyzer
	batch        *propagation.BatchAnalyzer
	cacheManager *consumer.CacheManager
	consumer     *consumer.PropagationConsumer
	plants       *PlantService
	httpServer   *http.Server
}

// NewPropagationService 创建传播分析服务
func NewPropagationService(cfg *config.Config, logger *zap.Logger, newHandler HandlerFactory) (*PropagationService, error) {
	s := &PropagationService{
		config: cfg,
		logger: logger,
	}

	// 1. 连接 Redis（告警缓存、Streams，以及 kv 模式下的实体存储）
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	redisClient, err := redis.Connect(ctx, &cfg.Redis)
	if err != nil {
		return nil, err
	}
	s.redisClient = redisClient
	kv := store.NewRedisKV(s.redisClient)

	// 2. 创建 Repository 层
	switch cfg.Propagation.Store {
	case "postgres":
		db, err := database.Open(ctx, &cfg.Database)
		if err != nil {
			s.Stop()
			return nil, err
		}
		s.db = db
		if err := repository.EnsureSchema(ctx, db); err != nil {
			s.Stop()
			return nil, err
		}
		s.plotRepo = repository.NewPostgresPlotRepository(db, logger)
		s.plantRepo = repository.NewPostgresPlantRepository(db, logger)
	case "kv":
		s.plotRepo, s.plantRepo = repository.NewKVRepositories(kv, cfg.Propagation.EntityKeyPrefix)
	default:
		s.Stop()
		return nil, fmt.Errorf("unknown propagation store %q", cfg.Propagation.Store)
	}

	// 3. 创建分析层
	s.analyzer = propagation.NewAnalyzer(s.plotRepo, s.plantRepo, logger)
	s.batch = propagation.NewBatchAnalyzer(s.plotRepo, s.analyzer, cfg.Propagation.Concurrency, logger)

	// 4. 创建 Consumer 层（缓存、发布、通知）
	s.cacheManager = consumer.NewCacheManager(cfg, kv, logger)

	var publishers consumer.MultiPublisher
	if cfg.Propagation.AlertStream != "" {
		publishers = append(publishers, consumer.NewStreamPublisher(s.redisClient, cfg.Propagation.AlertStream))
	}
	if cfg.Propagation.MQTTEnabled {
		mqttClient, err := mqtt.NewClient(&cfg.MQTT, logger)
		if err != nil {
			s.Stop()
			return nil, fmt.Errorf("failed to create mqtt client: %w", err)
		}
		s.mqttClient = mqttClient
		publishers = append(publishers, consumer.NewMQTTPublisher(mqttClient, cfg.Propagation.AlertTopicPrefix))
	}
	var publisher consumer.AlertPublisher
	if len(publishers) > 0 {
		publisher = publishers
	}

	var notifier consumer.Notifier
	if cfg.Propagation.WebhookURL != "" {
		notifier = notify.NewWebhookNotifier(cfg.Propagation.WebhookURL, logger)
	}

	s.consumer = consumer.NewPropagationConsumer(cfg, s.batch, s.cacheManager, publisher, notifier, logger)

	// 5. 创建写入服务与 HTTP 层
	s.plants = NewPlantService(s.plotRepo, s.plantRepo, logger)
	s.httpServer = &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           newHandler(s.analyzer, s.batch, s.cacheManager, s.plants, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

// Handler HTTP 处理器
func (s *PropagationService) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start 启动 HTTP 服务与轮询，ctx 取消后优雅关闭
func (s *PropagationService) Start(ctx context.Context) error {
	s.logger.Info("Starting propagation service",
		zap.String("store", s.config.Propagation.Store),
		zap.String("http_addr", s.config.HTTP.Addr),
		zap.Int("farm_count", len(s.config.Propagation.FarmIDs)),
	)

	httpErr := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErr <- err
		}
		close(httpErr)
	}()

	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		if len(s.config.Propagation.FarmIDs) == 0 {
			s.logger.Info("No farms configured, polling disabled")
			return
		}
		_ = s.consumer.Start(ctx)
	}()

	var startErr error
	select {
	case <-ctx.Done():
	case err, ok := <-httpErr:
		if ok {
			startErr = fmt.Errorf("http server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("Failed to shutdown http server",
			zap.Error(err),
		)
	}
	if startErr == nil {
		<-consumerDone
	}
	return startErr
}

// Stop 释放连接
func (s *PropagationService) Stop() error {
	s.logger.Info("Stopping propagation service")

	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}

	if err := database.Close(s.db); err != nil {
		s.logger.Error("Failed to close database",
			zap.Error(err),
		)
	}

	if err := redis.Close(s.redisClient); err != nil {
		s.logger.Error("Failed to close redis",
			zap.Error(err),
		)
	}

	return nil
}
