package s3

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/risknavigator/document-classifier/internal/core/domain"
)

// Store is the S3-compatible blob store adapter. Bucket provisioning is a
// deployment concern; the adapter only verifies the bucket is reachable.
type Store struct {
	client *minio.Client
	bucket string
}

func New(endpoint, accessKey, secretKey string, useSSL bool, bucket string) (*Store, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %s does not exist", bucket)
	}

	return &Store{client: client, bucket: bucket}, nil
}

func (s *Store) Put(ctx context.Context, key, contentType string, data io.Reader, size int64) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, data, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer obj.Close()

	raw, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, domain.WrapError(domain.ErrObjectNotFound, "get object", fmt.Errorf("%s", key))
		}
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	return raw, nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]domain.StoredObject, error) {
	objects := []domain.StoredObject{}
	for info := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if info.Err != nil {
			return nil, fmt.Errorf("list objects under %q: %w", prefix, info.Err)
		}
		objects = append(objects, domain.StoredObject{
			Key:          info.Key,
			Size:         info.Size,
			LastModified: info.LastModified,
		})
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}
