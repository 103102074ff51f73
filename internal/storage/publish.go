package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"crf-trainer/internal/config"
)

// NewObjectStore returns a LocalObjectStore when LOCAL_STORE_DIR is set and an
// S3ObjectStore otherwise.
func NewObjectStore(cfg *config.Config) (ObjectStore, error) {
	if cfg.LocalStoreDir != "" {
		return NewLocalObjectStore(cfg.LocalStoreDir)
	}
	return NewS3ObjectStore(S3ClientConfig{
		Endpoint:        cfg.S3EndpointURL,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
	})
}

// PublishModelDir uploads the artifacts of a trained model directory under
// bucket/prefix and returns their location.
func PublishModelDir(ctx context.Context, store ObjectStore, bucket, prefix, modelDir string) (string, error) {
	if err := store.CreateBucket(ctx, bucket); err != nil {
		return "", err
	}
	if err := store.UploadDir(ctx, bucket, prefix, modelDir); err != nil {
		return "", fmt.Errorf("error publishing model dir %s: %w", modelDir, err)
	}

	objects, err := store.ListObjects(ctx, bucket, strings.TrimSuffix(prefix, "/")+"/")
	if err != nil {
		return "", err
	}
	location := store.Location(bucket, prefix)
	slog.Info("published model artifacts", "location", location, "objects", len(objects))
	return location, nil
}
