package ports

import (
	"context"
	"io"

	"github.com/risknavigator/document-classifier/internal/core/domain"
)

// ObjectStore is durable key-addressed blob storage.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, data io.Reader, size int64) error
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]domain.StoredObject, error)
}

// ClassificationOracle returns the raw category answer for one document.
// Mapping the answer into the closed taxonomy is the caller's concern.
type ClassificationOracle interface {
	Classify(ctx context.Context, doc domain.OracleDocument) (string, error)
}

// ContentExtractor converts supported formats into a text representation.
// ok=false means the document should be sent to the oracle as raw bytes.
type ContentExtractor interface {
	Extract(filename string, content []byte) (text string, ok bool)
}

// ResultRecorder persists classification outcomes for audit. Optional;
// recording failures are logged, never surfaced to callers.
type ResultRecorder interface {
	Record(ctx context.Context, result domain.DocumentResult) error
}
