package ports

import (
	"context"

	"github.com/risknavigator/document-classifier/internal/core/domain"
)

// DocumentClassifyService is the inbound contract for the intake pipeline.
type DocumentClassifyService interface {
	ClassifyNew(ctx context.Context, files []domain.FileUpload) (*domain.BatchOutcome, error)
	ClassifyExisting(ctx context.Context, keys []string) (*domain.BatchOutcome, error)
}

// FileListService enumerates stored documents under the configured root.
type FileListService interface {
	ListFiles(ctx context.Context, prefix string) ([]domain.StoredObject, error)
}
