package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/busseva/busseva-backend/internal/config"
	"github.com/busseva/busseva-backend/internal/model"
	"github.com/busseva/busseva-backend/internal/storage"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Sentinel errors for media uploads.
var (
	ErrFileRequired        = errors.New("image file required")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
)

// Allowed image extensions.
var allowedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
}

// MediaService validates and stores uploaded bus images.
type MediaService struct {
	store    storage.BlobStore
	maxBytes int64
	now      func() time.Time
}

// NewMediaService creates a new MediaService.
func NewMediaService(cfg *config.Config, store storage.BlobStore) *MediaService {
	return &MediaService{store: store, maxBytes: cfg.MaxUploadBytes, now: time.Now}
}

// Accept validates an upload and persists it under a fresh unique name.
// Returns the stored file reference carrying its retrieval URL.
func (s *MediaService) Accept(ctx context.Context, up *model.ImageUpload) (*model.StoredFile, error) {
	if up == nil || up.Reader == nil {
		return nil, ErrFileRequired
	}

	// Validate extension.
	ext := strings.ToLower(filepath.Ext(up.Filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return nil, fmt.Errorf("%w: %q (allowed: %s)",
			ErrUnsupportedFileType, ext, strings.Join(allowedTypes(), ", "))
	}

	// Validate declared size, then the real one; clients can understate it.
	if up.Size > s.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes (max: %d)", ErrFileTooLarge, up.Size, s.maxBytes)
	}
	size, err := up.Reader.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("measure upload: %w", err)
	}
	if size > s.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes (max: %d)", ErrFileTooLarge, size, s.maxBytes)
	}
	if _, err := up.Reader.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind upload: %w", err)
	}

	// Validate content.
	mt, err := mimetype.DetectReader(up.Reader)
	if err != nil {
		return nil, fmt.Errorf("detect content type: %w", err)
	}
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("%w: content is %s", ErrUnsupportedFileType, mt.String())
	}
	if _, err := up.Reader.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind upload: %w", err)
	}

	name := s.newName(ext)
	if err := s.store.Put(ctx, name, uploadBody(up.Reader, size), size, mt.String()); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	return &model.StoredFile{
		Name: name,
		URL:  s.store.URL(name),
		Size: size,
	}, nil
}

// Discard deletes a stored file. It is the compensating action for a
// record write that failed after the upload succeeded.
func (s *MediaService) Discard(ctx context.Context, f *model.StoredFile) error {
	if f == nil {
		return nil
	}
	return s.store.Delete(context.WithoutCancel(ctx), f.Name)
}

// DiscardURL deletes the blob behind a retrieval URL this service issued.
// URLs from elsewhere are left alone.
func (s *MediaService) DiscardURL(ctx context.Context, url string) error {
	name, ok := s.store.NameFromURL(url)
	if !ok {
		return nil
	}
	return s.store.Delete(context.WithoutCancel(ctx), name)
}

// newName combines a millisecond timestamp with a random suffix so
// concurrent uploads never collide.
func (s *MediaService) newName(ext string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%d-%s%s", s.now().UnixMilli(), suffix, ext)
}

func allowedTypes() []string {
	types := make([]string, 0, len(allowedExtensions))
	for t := range allowedExtensions {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// uploadBody returns a seekable body of exactly size bytes. Object stores
// rewind the body to checksum it before sending over plain HTTP.
func uploadBody(r io.ReadSeeker, size int64) io.ReadSeeker {
	if ra, ok := r.(io.ReaderAt); ok {
		return io.NewSectionReader(ra, 0, size)
	}
	return r
}
