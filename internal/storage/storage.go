// Package storage persists uploaded image blobs keyed by generated filename.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// ErrInvalidName is returned for blob names that could escape the store.
var ErrInvalidName = errors.New("invalid blob name")

// BlobStore is a flat key-value store for image files.
type BlobStore interface {
	// Put writes the blob. It fails if a blob with the same name exists
	// where the backend can detect it.
	Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	// Delete removes the blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// URL returns the retrieval path clients use for the blob.
	URL(name string) string
	// NameFromURL reverses URL. ok is false for URLs this store did not issue.
	NameFromURL(url string) (name string, ok bool)
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`) && path.Base(name) == name
}

func nameAfterPrefix(url, prefix string) (string, bool) {
	if prefix == "" || !strings.HasPrefix(url, prefix+"/") {
		return "", false
	}
	name := strings.TrimPrefix(url, prefix+"/")
	if !validName(name) {
		return "", false
	}
	return name, true
}
