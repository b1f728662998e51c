package objectstore

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
)

// GzipObjectStore compresses objects on the way in and decompresses them on
// the way out. Keys are passed through unchanged.
type GzipObjectStore struct {
	ObjectStore
}

func (store *GzipObjectStore) PutObject(key string, data io.ReadSeeker) error {
	var b bytes.Buffer
	w, err := gzip.NewWriterLevel(&b, gzip.BestCompression)
	if err != nil {
		return fmt.Errorf("creating gzip writer: %w", err)
	}
	w.Name = key
	if _, err := io.Copy(w, data); err != nil {
		return fmt.Errorf("compressing `%s`: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing gzip writer: %w", err)
	}
	return store.ObjectStore.PutObject(key, bytes.NewReader(b.Bytes()))
}

// gzipReadCloser closes both the decompressor and the underlying body.
type gzipReadCloser struct {
	body io.ReadCloser
	*gzip.Reader
}

func (grc *gzipReadCloser) Close() error {
	if err := grc.Reader.Close(); err != nil {
		grc.body.Close()
		return err
	}
	return grc.body.Close()
}

func (store *GzipObjectStore) GetObject(key string) (io.ReadCloser, error) {
	body, err := store.ObjectStore.GetObject(key)
	if err != nil {
		return nil, fmt.Errorf("getting object from storage: %w", err)
	}
	r, err := gzip.NewReader(body)
	if err != nil {
		body.Close()
		return nil, fmt.Errorf("creating gzip reader for `%s`: %w", key, err)
	}
	return &gzipReadCloser{body: body, Reader: r}, nil
}
