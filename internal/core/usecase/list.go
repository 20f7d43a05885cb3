package usecase

import (
	"context"
	"fmt"

	"github.com/risknavigator/document-classifier/internal/core/domain"
	"github.com/risknavigator/document-classifier/internal/core/ports"
)

// ListFilesUseCase enumerates stored documents. Pure read: no oracle
// interaction and no side effects.
type ListFilesUseCase struct {
	store ports.ObjectStore
}

func NewListFilesUseCase(store ports.ObjectStore) *ListFilesUseCase {
	return &ListFilesUseCase{store: store}
}

// ListFiles returns metadata for every object whose key starts with prefix.
// An empty prefix lists the whole storage root; no matches is an empty
// slice, not an error.
func (uc *ListFilesUseCase) ListFiles(ctx context.Context, prefix string) ([]domain.StoredObject, error) {
	objects, err := uc.store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	if objects == nil {
		objects = []domain.StoredObject{}
	}
	return objects, nil
}
