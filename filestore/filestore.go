package filestore

import (
	"context"
	"errors"
	"io"
)

var ErrObjectNotFound = errors.New("object not found")

// Object is an immutable stored blob.
type Object struct {
	Bucket      string
	Key         string
	ContentType string
	Data        []byte
}

type FileStore interface {
	UploadFileData(ctx context.Context, data []byte, contentType, key string) error
	UploadFile(ctx context.Context, reader io.Reader, contentType, key string) error
	// GetObject reads a whole object. An empty bucket means the store's own bucket.
	GetObject(ctx context.Context, bucket, key string) (*Object, error)
	Bucket() string
}
