package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/risknavigator/document-classifier/internal/core/domain"
	"github.com/risknavigator/document-classifier/internal/core/ports"
)

// supportedExtensions gates what the intake accepts before any side effect.
var supportedExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".xls":  true,
	".xlsx": true,
	".csv":  true,
	".tsv":  true,
	".txt":  true,
}

type ClassifyOptions struct {
	UploadsEnabled bool
	UploadsPrefix  string
	MaxBatchSize   int
	MaxFileBytes   int
	Concurrency    int
	OracleTimeout  time.Duration
}

func (o ClassifyOptions) normalize() ClassifyOptions {
	out := o
	if out.UploadsPrefix == "" {
		out.UploadsPrefix = "documents"
	}
	if out.MaxBatchSize <= 0 {
		out.MaxBatchSize = 20
	}
	if out.MaxFileBytes <= 0 {
		out.MaxFileBytes = 15 * 1024 * 1024
	}
	if out.Concurrency <= 0 {
		out.Concurrency = 1
	}
	if out.OracleTimeout <= 0 {
		out.OracleTimeout = 60 * time.Second
	}
	return out
}

type ClassifyDocumentsUseCase struct {
	store     ports.ObjectStore
	oracle    ports.ClassificationOracle
	extractor ports.ContentExtractor
	taxonomy  *domain.Taxonomy
	recorder  ports.ResultRecorder
	opts      ClassifyOptions
	now       func() time.Time
}

func NewClassifyDocumentsUseCase(
	store ports.ObjectStore,
	oracle ports.ClassificationOracle,
	extractor ports.ContentExtractor,
	taxonomy *domain.Taxonomy,
	recorder ports.ResultRecorder,
	opts ClassifyOptions,
) *ClassifyDocumentsUseCase {
	return &ClassifyDocumentsUseCase{
		store:     store,
		oracle:    oracle,
		extractor: extractor,
		taxonomy:  taxonomy,
		recorder:  recorder,
		opts:      opts.normalize(),
		now:       time.Now,
	}
}

// ClassifyNew uploads each inline payload under the configured prefix and
// classifies it. Validation failures reject the whole request before any
// write or oracle call; per-document failures never abort the batch.
func (uc *ClassifyDocumentsUseCase) ClassifyNew(ctx context.Context, files []domain.FileUpload) (*domain.BatchOutcome, error) {
	if !uc.opts.UploadsEnabled {
		return nil, domain.WrapError(domain.ErrUploadsDisabled, "classify new",
			errors.New("this deployment is read-only; use classify_existing with pre-loaded keys"))
	}
	if err := uc.validateUploads(files); err != nil {
		return nil, err
	}

	items := make([]workItem, len(files))
	batchDir := uc.now().UTC().Format("2006/01/02/15-04-05")
	for i, file := range files {
		items[i] = workItem{
			key:      uc.uploadKey(batchDir, file.Filename),
			filename: file.Filename,
			content:  file.Content,
			upload:   true,
		}
	}
	return uc.run(ctx, items), nil
}

// ClassifyExisting classifies documents already present in the store.
func (uc *ClassifyDocumentsUseCase) ClassifyExisting(ctx context.Context, keys []string) (*domain.BatchOutcome, error) {
	if err := uc.validateKeys(keys); err != nil {
		return nil, err
	}

	items := make([]workItem, len(keys))
	for i, key := range keys {
		items[i] = workItem{
			key:      key,
			filename: path.Base(key),
		}
	}
	return uc.run(ctx, items), nil
}

type workItem struct {
	key      string
	filename string
	content  []byte
	upload   bool
}

func (uc *ClassifyDocumentsUseCase) validateUploads(files []domain.FileUpload) error {
	if len(files) == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "classify new", errors.New("empty file batch"))
	}
	if len(files) > uc.opts.MaxBatchSize {
		return domain.WrapError(domain.ErrInvalidInput, "classify new",
			fmt.Errorf("batch of %d exceeds limit %d", len(files), uc.opts.MaxBatchSize))
	}
	for i, file := range files {
		if strings.TrimSpace(file.Filename) == "" {
			return domain.WrapError(domain.ErrInvalidInput, "classify new", fmt.Errorf("file %d has no filename", i))
		}
		ext := strings.ToLower(filepath.Ext(file.Filename))
		if !supportedExtensions[ext] {
			return domain.WrapError(domain.ErrInvalidInput, "classify new",
				fmt.Errorf("unsupported file type %q for %s", ext, file.Filename))
		}
		if len(file.Content) == 0 {
			return domain.WrapError(domain.ErrInvalidInput, "classify new", fmt.Errorf("file %s is empty", file.Filename))
		}
		if len(file.Content) > uc.opts.MaxFileBytes {
			return domain.WrapError(domain.ErrInvalidInput, "classify new",
				fmt.Errorf("file %s exceeds %d bytes", file.Filename, uc.opts.MaxFileBytes))
		}
	}
	return nil
}

func (uc *ClassifyDocumentsUseCase) validateKeys(keys []string) error {
	if len(keys) == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "classify existing", errors.New("empty key batch"))
	}
	if len(keys) > uc.opts.MaxBatchSize {
		return domain.WrapError(domain.ErrInvalidInput, "classify existing",
			fmt.Errorf("batch of %d exceeds limit %d", len(keys), uc.opts.MaxBatchSize))
	}
	for i, key := range keys {
		if strings.TrimSpace(key) == "" {
			return domain.WrapError(domain.ErrInvalidInput, "classify existing", fmt.Errorf("key %d is empty", i))
		}
	}
	return nil
}

// run fans the batch out with bounded concurrency. Results land in an
// indexed slice so response order always matches request order.
func (uc *ClassifyDocumentsUseCase) run(ctx context.Context, items []workItem) *domain.BatchOutcome {
	results := make([]domain.DocumentResult, len(items))
	sem := make(chan struct{}, uc.opts.Concurrency)

	var wg sync.WaitGroup
	for i := range items {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[i] = uc.failure(items[i], domain.ReasonBudgetExhausted, ctx.Err())
				return
			}
			results[i] = uc.processOne(ctx, items[i])
		}(i)
	}
	wg.Wait()

	outcome := &domain.BatchOutcome{Results: results}
	for _, r := range results {
		if r.Reason == domain.ReasonBudgetExhausted {
			outcome.Partial = true
		}
		uc.record(ctx, r)
	}
	return outcome
}

func (uc *ClassifyDocumentsUseCase) processOne(ctx context.Context, item workItem) domain.DocumentResult {
	if ctx.Err() != nil {
		return uc.failure(item, domain.ReasonBudgetExhausted, ctx.Err())
	}

	content := item.content
	if item.upload {
		if err := uc.store.Put(ctx, item.key, domain.ContentTypeForFilename(item.filename),
			bytes.NewReader(content), int64(len(content))); err != nil {
			return uc.failure(item, domain.ReasonStorageError, fmt.Errorf("store upload: %w", err))
		}
	} else {
		fetched, err := uc.store.Get(ctx, item.key)
		if err != nil {
			return uc.failure(item, domain.ReasonStorageError, fmt.Errorf("fetch object: %w", err))
		}
		content = fetched
	}
	if len(content) == 0 {
		return uc.failure(item, domain.ReasonInvalidContent, errors.New("object has no content"))
	}

	raw, err := uc.callOracle(ctx, item, content)
	if err != nil {
		return uc.failure(item, oracleFailureReason(ctx, err), err)
	}

	category, err := uc.taxonomy.Parse(raw)
	if err != nil {
		return uc.failure(item, domain.ReasonAnswerUnrecognized, err)
	}

	return domain.DocumentResult{
		Key:          item.key,
		Filename:     item.filename,
		Category:     category,
		Status:       domain.ResultOK,
		ClassifiedAt: uc.now().UTC(),
	}
}

// callOracle applies the per-call timeout; the parent context carries the
// overall request budget, so the effective deadline is whichever is sooner.
func (uc *ClassifyDocumentsUseCase) callOracle(ctx context.Context, item workItem, content []byte) (string, error) {
	doc := domain.OracleDocument{
		Filename: item.filename,
		MimeType: domain.ContentTypeForFilename(item.filename),
		Content:  content,
	}
	if text, ok := uc.extractor.Extract(item.filename, content); ok {
		doc.Text = text
	}

	callCtx, cancel := context.WithTimeout(ctx, uc.opts.OracleTimeout)
	defer cancel()
	return uc.oracle.Classify(callCtx, doc)
}

func oracleFailureReason(ctx context.Context, err error) domain.FailureReason {
	if ctx.Err() != nil {
		return domain.ReasonBudgetExhausted
	}
	if domain.IsKind(err, domain.ErrAnswerUnrecognized) {
		return domain.ReasonAnswerUnrecognized
	}
	return domain.ReasonOracleUnreachable
}

func (uc *ClassifyDocumentsUseCase) failure(item workItem, reason domain.FailureReason, err error) domain.DocumentResult {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	slog.Warn("document_classification_failed",
		"key", item.key,
		"filename", item.filename,
		"reason", string(reason),
		"error", detail,
	)
	return domain.DocumentResult{
		Key:          item.key,
		Filename:     item.filename,
		Status:       domain.ResultFailed,
		Reason:       reason,
		Detail:       detail,
		ClassifiedAt: uc.now().UTC(),
	}
}

func (uc *ClassifyDocumentsUseCase) record(ctx context.Context, result domain.DocumentResult) {
	if uc.recorder == nil {
		return
	}
	if err := uc.recorder.Record(ctx, result); err != nil {
		slog.Warn("result_audit_failed", "key", result.Key, "error", err)
	}
}

func (uc *ClassifyDocumentsUseCase) uploadKey(batchDir, filename string) string {
	uniqueID := uuid.NewString()[:8]
	return fmt.Sprintf("%s/%s/%s_%s", uc.opts.UploadsPrefix, batchDir, uniqueID, sanitizeFilename(filename))
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.bin"
	}
	return base
}
