package object

import (
	"context"
	"io"
)

// Object describes a stored blob.
type Object struct {
	Key         string
	URL         string
	Size        int64
	ContentType string
}

// ObjectStore saves and retrieves uploaded documents.
type ObjectStore interface {
	Save(ctx context.Context, namespace, fileName, contentType string, r io.Reader) (Object, error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
}
