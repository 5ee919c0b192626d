package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"inventory-sync/core/reconcile"

	"github.com/minio/minio-go/v7"
)

// Archive writes run snapshots as JSON objects.
type Archive struct {
	client Client
	bucket string
	region string

	mu    sync.Mutex
	ready bool
}

// NewArchive creates an archive writing to bucket.
func NewArchive(client Client, bucket, region string) *Archive {
	return &Archive{client: client, bucket: bucket, region: region}
}

// ObjectName returns snapshots/<store>/<yyyy>/<mm>/<dd>/<runID>.json.
func ObjectName(state *reconcile.RunState) string {
	t := state.StartedAt.UTC()
	return fmt.Sprintf("snapshots/%s/%04d/%02d/%02d/%s.json", state.Store, t.Year(), int(t.Month()), t.Day(), state.RunID)
}

// Save uploads state and returns the object name.
func (a *Archive) Save(ctx context.Context, state *reconcile.RunState) (string, error) {
	if err := a.ensureBucket(ctx); err != nil {
		return "", err
	}

	body, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	name := ObjectName(state)
	_, err = a.client.PutObject(ctx, a.bucket, name, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("upload snapshot %s: %w", name, err)
	}
	return name, nil
}

// Ping verifies the bucket is reachable.
func (a *Archive) Ping(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", a.bucket, err)
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", a.bucket)
	}
	return nil
}

// ensureBucket creates the bucket once. A failed check is retried on the next save.
func (a *Archive) ensureBucket(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.ready {
		return nil
	}

	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", a.bucket, err)
	}
	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{Region: a.region}); err != nil {
			return fmt.Errorf("create bucket %s: %w", a.bucket, err)
		}
	}
	a.ready = true
	return nil
}
