package app

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/junhee/namecard-go/internal/config"
	"github.com/junhee/namecard-go/internal/constants"
	"github.com/junhee/namecard-go/internal/extract"
	"github.com/junhee/namecard-go/internal/llm"
	"github.com/junhee/namecard-go/internal/ocr"
	"github.com/junhee/namecard-go/internal/repository"
	"github.com/junhee/namecard-go/internal/server"
	"github.com/junhee/namecard-go/internal/service/cache"
	"github.com/junhee/namecard-go/internal/service/database"
	"github.com/junhee/namecard-go/internal/service/pipeline"
)

// Container bundles assembled services for constructing the HTTP server.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	server  *server.Server
	closers []func()
}

// Server returns the fully-wired HTTP server.
func (c *Container) Server() *server.Server {
	return c.server
}

// Close releases infrastructure connections in reverse build order.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// Build assembles all infrastructure services. Redis and Postgres are
// optional: a failed connection logs a warning and the pipeline runs
// without caching or persistence. OCR and the structuring service are
// required.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	// External collaborators
	ocrClient := ocr.NewClient(
		&http.Client{Timeout: constants.OCRConfig.Timeout},
		cfg.Clova.SecretKey,
		cfg.Clova.InvokeURL,
		logger,
	)

	llmClient, err := llm.NewClient(ctx, llm.Config{
		GeminiAPIKey:   cfg.Gemini.APIKey,
		GeminiModel:    cfg.Gemini.Model,
		OpenAIAPIKey:   cfg.OpenAI.APIKey,
		OpenAIModel:    cfg.OpenAI.Model,
		EnableFallback: cfg.OpenAI.EnableFallback,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create structuring client: %w", err)
	}

	// Cache and database, both optional
	var cacheSvc *cache.CacheService
	if svc, cacheErr := cache.NewCacheService(cache.CacheConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, logger); cacheErr != nil {
		logger.Warn("Redis unavailable, extraction cache disabled", zap.Error(cacheErr))
	} else {
		cacheSvc = svc
		closers = append(closers, func() {
			_ = cacheSvc.Close()
		})
	}

	var (
		postgresSvc *database.PostgresService
		contactRepo *repository.ContactRepository
	)
	if svc, pgErr := database.NewPostgresService(database.PostgresConfig{
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		Database: cfg.Postgres.Database,
	}, logger); pgErr != nil {
		logger.Warn("PostgreSQL unavailable, contact persistence disabled", zap.Error(pgErr))
	} else {
		postgresSvc = svc
		closers = append(closers, func() {
			_ = postgresSvc.Close()
		})

		contactRepo = repository.NewContactRepository(postgresSvc, logger)
		if schemaErr := contactRepo.EnsureSchema(ctx); schemaErr != nil {
			return nil, fmt.Errorf("failed to prepare contacts schema: %w", schemaErr)
		}
	}

	// Extraction agents
	regexExtractor := extract.NewRegexExtractor()
	singleAgent := extract.NewStructuredAgent(llmClient, regexExtractor, logger).
		WithRetryPolicy(cfg.Pipeline.MaxRetries, constants.RetryConfig.Backoff)
	bilingualAgent := extract.NewBilingualAgent(llmClient, logger).
		WithRetryPolicy(cfg.Pipeline.MaxRetries, constants.RetryConfig.Backoff)

	var extractionCache pipeline.ExtractionCache
	if cacheSvc != nil {
		extractionCache = cacheSvc
	}

	pipelineSvc := pipeline.NewService(ocrClient, singleAgent, bilingualAgent, extractionCache, pipeline.Config{
		OCRConcurrency: cfg.Pipeline.OCRConcurrency,
		LLMConcurrency: cfg.Pipeline.LLMConcurrency,
		BatchWorkers:   cfg.Pipeline.BatchWorkers,
	}, logger)

	srv := server.New(pipelineSvc, server.Options{
		Port:           cfg.Server.Port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		OCRConfigured:  cfg.Clova.SecretKey != "" && cfg.Clova.InvokeURL != "",
		Repo:           contactRepo,
		Cache:          cacheSvc,
		Postgres:       postgresSvc,
		LLM:            llmClient,
	}, logger)

	return &Container{
		Config:  cfg,
		Logger:  logger,
		server:  srv,
		closers: closers,
	}, nil
}
