package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	httpadapter "github.com/risknavigator/document-classifier/internal/adapters/http"
	"github.com/risknavigator/document-classifier/internal/config"
	"github.com/risknavigator/document-classifier/internal/core/domain"
	"github.com/risknavigator/document-classifier/internal/core/ports"
	"github.com/risknavigator/document-classifier/internal/core/usecase"
	"github.com/risknavigator/document-classifier/internal/infrastructure/extractor"
	"github.com/risknavigator/document-classifier/internal/infrastructure/llm/gemini"
	"github.com/risknavigator/document-classifier/internal/infrastructure/repository/postgres"
	"github.com/risknavigator/document-classifier/internal/infrastructure/resilience"
	"github.com/risknavigator/document-classifier/internal/infrastructure/storage/s3"
	"github.com/risknavigator/document-classifier/internal/observability/metrics"
)

type App struct {
	Config config.Config

	Store      ports.ObjectStore
	Oracle     ports.ClassificationOracle
	Metrics    *metrics.HTTPServerMetrics
	ClassifyUC ports.DocumentClassifyService
	ListUC     ports.FileListService

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	store, err := s3.New(cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3UseSSL, cfg.S3Bucket)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	client := gemini.New(cfg.GeminiURL, cfg.GeminiAPIKey, cfg.GeminiModel, executor)
	m := metrics.NewHTTPServerMetrics(httpadapter.ServiceName)
	oracle := instrumentedOracle{inner: client, metrics: m}

	taxonomy := domain.DefaultTaxonomy()
	if cfg.TaxonomyPath != "" {
		if err := taxonomy.ExtendFromFile(cfg.TaxonomyPath); err != nil {
			return nil, fmt.Errorf("load taxonomy overrides: %w", err)
		}
		logger.Info("taxonomy_extended", "path", cfg.TaxonomyPath)
	}

	var (
		recorder ports.ResultRecorder
		closeFn  = func() {}
	)
	if cfg.ResultsDSN != "" {
		db, err := postgres.OpenDB(cfg.ResultsDSN)
		if err != nil {
			return nil, fmt.Errorf("open results db: %w", err)
		}
		repo := postgres.NewResultRepository(db, client.Model())
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure results schema: %w", err)
		}
		recorder = repo
		closeFn = func() { _ = db.Close() }
		logger.Info("result_audit_enabled")
	}

	classifyUC := usecase.NewClassifyDocumentsUseCase(
		store,
		oracle,
		extractor.New(),
		taxonomy,
		recorder,
		usecase.ClassifyOptions{
			UploadsEnabled: cfg.UploadsEnabled,
			UploadsPrefix:  cfg.UploadsPrefix,
			MaxBatchSize:   cfg.MaxBatchSize,
			MaxFileBytes:   cfg.MaxFileBytes,
			Concurrency:    cfg.ClassifyConcurrency,
			OracleTimeout:  time.Duration(cfg.OracleTimeoutSeconds) * time.Second,
		},
	)
	listUC := usecase.NewListFilesUseCase(store)

	return &App{
		Config:     cfg,
		Store:      store,
		Oracle:     oracle,
		Metrics:    m,
		ClassifyUC: classifyUC,
		ListUC:     listUC,
		closeFn:    closeFn,
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// instrumentedOracle times every oracle round trip.
type instrumentedOracle struct {
	inner   ports.ClassificationOracle
	metrics *metrics.HTTPServerMetrics
}

func (o instrumentedOracle) Classify(ctx context.Context, doc domain.OracleDocument) (string, error) {
	start := time.Now()
	answer, err := o.inner.Classify(ctx, doc)
	o.metrics.RecordOracleCall(httpadapter.ServiceName, time.Since(start))
	return answer, err
}
