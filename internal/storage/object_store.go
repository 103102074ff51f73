package storage

import (
	"context"
	"io"
)

type Object struct {
	Name string
	Size int64
}

type ObjectIterator func(yield func(obj Object, err error) bool)

type ObjectStore interface {
	CreateBucket(ctx context.Context, bucket string) error

	PutObject(ctx context.Context, bucket, key string, data io.Reader) error

	ListObjects(ctx context.Context, bucket, prefix string) ([]Object, error)

	UploadDir(ctx context.Context, bucket, prefix, src string) error

	// Location renders bucket/prefix as a URI recorded in the run registry.
	Location(bucket, prefix string) string
}
