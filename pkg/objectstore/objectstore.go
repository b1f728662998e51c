// Package objectstore stores opaque blobs under string keys in a single
// bucket. Snapshots of volume images are kept this way.
package objectstore

import (
	"fmt"
	"io"
)

type ObjectNotFoundErr struct {
	Bucket string
	Key    string
}

func (err *ObjectNotFoundErr) Error() string {
	return fmt.Sprintf(
		"object not found (bucket=%s) (key=%s)",
		err.Bucket,
		err.Key,
	)
}

type ObjectStore interface {
	PutObject(key string, data io.ReadSeeker) error
	GetObject(key string) (io.ReadCloser, error)
	ListObjects(prefix string) ([]string, error)
	DeleteObject(key string) error
}

var (
	_ ObjectStore = (*S3ObjectStore)(nil)
	_ ObjectStore = (*GzipObjectStore)(nil)
)
