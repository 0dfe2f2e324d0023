package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/junhee/namecard-go/internal/llm"
	"github.com/junhee/namecard-go/internal/repository"
	"github.com/junhee/namecard-go/internal/service/cache"
	"github.com/junhee/namecard-go/internal/service/database"
	"github.com/junhee/namecard-go/internal/service/pipeline"
	"github.com/junhee/namecard-go/pkg/errors"
)

// Server exposes the card-processing pipeline over HTTP. Storage, cache and
// the LLM client are optional; missing collaborators disable their
// endpoints instead of failing startup.
type Server struct {
	httpServer    *http.Server
	pipeline      *pipeline.Service
	repo          *repository.ContactRepository
	cache         *cache.CacheService
	postgres      *database.PostgresService
	llm           *llm.Client
	hub           *ProgressHub
	logger        *zap.Logger
	ocrConfigured bool
}

type Options struct {
	Port           int
	AllowedOrigins []string
	OCRConfigured  bool

	Repo     *repository.ContactRepository
	Cache    *cache.CacheService
	Postgres *database.PostgresService
	LLM      *llm.Client
}

func New(pipelineSvc *pipeline.Service, opts Options, logger *zap.Logger) *Server {
	s := &Server{
		pipeline:      pipelineSvc,
		repo:          opts.Repo,
		cache:         opts.Cache,
		postgres:      opts.Postgres,
		llm:           opts.LLM,
		hub:           NewProgressHub(opts.AllowedOrigins, logger),
		logger:        logger,
		ocrConfigured: opts.OCRConfigured,
	}

	pipelineSvc.WithNotifier(s.hub)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/process-business-card", s.handleProcessCard)
	mux.HandleFunc("POST /api/process-two-sided", s.handleProcessTwoSided)
	mux.HandleFunc("POST /api/process-batch", s.handleProcessBatch)
	mux.HandleFunc("POST /api/generate-files", s.handleGenerateFiles)
	mux.HandleFunc("GET /api/download-vcf", s.handleDownloadVcf)
	mux.HandleFunc("POST /api/download-batch", s.handleDownloadBatch)
	mux.HandleFunc("POST /api/contacts", s.handleCreateContact)
	mux.HandleFunc("GET /api/contacts", s.handleListContacts)
	mux.HandleFunc("GET /api/contacts/{id}", s.handleGetContact)
	mux.HandleFunc("PUT /api/contacts/{id}", s.handleUpdateContact)
	mux.HandleFunc("DELETE /api/contacts/{id}", s.handleDeleteContact)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/progress", s.hub.HandleWS)

	handler := withCORS(opts.AllowedOrigins, withBodyLimit(mux))

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Start blocks until the listener stops.
func (s *Server) Start() error {
	s.logger.Info("HTTP server starting", zap.String("addr", s.httpServer.Addr))

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// respondError maps pipeline error taxonomy onto HTTP statuses; anything
// untagged is a 500.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := errors.CodePipeline

	switch e := err.(type) {
	case *errors.PipelineError:
		status, code = e.StatusCode, e.Code
	case *errors.OCRError:
		status, code = e.StatusCode, e.Code
	case *errors.StructuringError:
		status, code = e.StatusCode, e.Code
	case *errors.ValidationError:
		status, code = e.StatusCode, e.Code
	case *errors.CacheError:
		status, code = e.StatusCode, e.Code
	case *errors.StorageError:
		status, code = e.StatusCode, e.Code
	}

	if status >= 500 {
		s.logger.Error("Request failed", zap.String("code", code), zap.Error(err))
	} else {
		s.logger.Warn("Request rejected", zap.String("code", code), zap.Error(err))
	}

	s.respondJSON(w, status, map[string]any{
		"success": false,
		"error":   err.Error(),
		"code":    code,
	})
}
