package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"

	"veridion/internal/verification"
	"veridion/pkg/domain"
	"veridion/pkg/platform/sentinel"
)

const ledgerObjectPrefix = "ledgers/"

// objectAPI is the part of *minio.Client the store uses, so tests can run
// without a MinIO server.
type objectAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

type minioClientWrapper struct{ c *minio.Client }

func (w minioClientWrapper) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	return w.c.BucketExists(ctx, bucketName)
}

func (w minioClientWrapper) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	return w.c.MakeBucket(ctx, bucketName, opts)
}

func (w minioClientWrapper) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return w.c.PutObject(ctx, bucketName, objectName, reader, objectSize, opts)
}

func (w minioClientWrapper) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	obj, err := w.c.GetObject(ctx, bucketName, objectName, opts)
	if err != nil {
		return nil, err
	}
	return obj, nil
}

func (w minioClientWrapper) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	return w.c.RemoveObject(ctx, bucketName, objectName, opts)
}

// MinioStore keeps one JSON document per wallet under ledgers/{wallet}.json.
// The version check reads the current document before writing, so it is only
// atomic for writers in one process, which are serialised per identity.
type MinioStore struct {
	api    objectAPI
	bucket string
}

// NewMinioStore creates the store over a real client and ensures the bucket.
func NewMinioStore(ctx context.Context, client *minio.Client, bucket string) (*MinioStore, error) {
	return newMinioStoreWithAPI(ctx, minioClientWrapper{c: client}, bucket)
}

func newMinioStoreWithAPI(ctx context.Context, api objectAPI, bucket string) (*MinioStore, error) {
	s := &MinioStore{api: api, bucket: bucket}
	exists, err := api.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := api.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}
	return s, nil
}

func objectName(identity domain.IdentityKey) string {
	return ledgerObjectPrefix + identity.String() + ".json"
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

func (s *MinioStore) Load(ctx context.Context, identity domain.IdentityKey) (*verification.Snapshot, error) {
	rc, err := s.api.GetObject(ctx, s.bucket, objectName(identity), minio.GetObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get ledger object: %w", err)
	}
	defer rc.Close()

	// GetObject is lazy; a missing key surfaces on the first read.
	raw, err := io.ReadAll(rc)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("read ledger object: %w", err)
	}
	var snap verification.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode ledger object: %w", err)
	}
	return &snap, nil
}

func (s *MinioStore) Save(ctx context.Context, snap verification.Snapshot, expected int64) error {
	var stored int64
	current, err := s.Load(ctx, snap.Identity)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
	case err != nil:
		return err
	default:
		stored = current.Version
	}
	if stored != expected {
		return sentinel.ErrStale
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode ledger object: %w", err)
	}
	_, err = s.api.PutObject(ctx, s.bucket, objectName(snap.Identity), bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("put ledger object: %w", err)
	}
	return nil
}

// Delete removes the document. MinIO does not report missing keys on
// removal, so deleting an absent ledger succeeds.
func (s *MinioStore) Delete(ctx context.Context, identity domain.IdentityKey) error {
	if err := s.api.RemoveObject(ctx, s.bucket, objectName(identity), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove ledger object: %w", err)
	}
	return nil
}
