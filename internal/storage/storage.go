package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"muscledynamics/workout-planner/internal/config"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

// FileStorage defines the object storage operations the catalog needs.
type FileStorage interface {
	// GeneratePresignedDownloadURL creates a temporary URL that allows GET requests
	// for downloading/viewing an object directly from the storage provider.
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)
}

// ImageResolver turns the image references stored on exercise records into
// URLs a browser can load.
type ImageResolver interface {
	ResolveImages(ctx context.Context, refs []string) ([]string, error)
}

// baseURLResolver joins references onto a static base URL.
type baseURLResolver struct {
	base string
}

// NewBaseURLResolver resolves references relative to base.
func NewBaseURLResolver(base string) ImageResolver {
	if base != "" && !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return &baseURLResolver{base: base}
}

func (r *baseURLResolver) ResolveImages(_ context.Context, refs []string) ([]string, error) {
	urls := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
			urls = append(urls, ref)
			continue
		}
		urls = append(urls, r.base+strings.TrimPrefix(ref, "/"))
	}
	return urls, nil
}

// presignedResolver signs a short-lived GET URL per reference.
type presignedResolver struct {
	storage FileStorage
	prefix  string
	expiry  time.Duration
}

// NewPresignedResolver resolves references to presigned URLs for prefix+ref.
func NewPresignedResolver(storage FileStorage, prefix string, expiry time.Duration) ImageResolver {
	if expiry <= 0 {
		expiry = DefaultPresignedURLExpiry
	}
	return &presignedResolver{storage: storage, prefix: prefix, expiry: expiry}
}

func (r *presignedResolver) ResolveImages(ctx context.Context, refs []string) ([]string, error) {
	urls := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		u, err := r.storage.GeneratePresignedDownloadURL(ctx, r.prefix+strings.TrimPrefix(ref, "/"), r.expiry)
		if err != nil {
			return nil, fmt.Errorf("presign image %q: %w", ref, err)
		}
		urls = append(urls, u)
	}
	return urls, nil
}

// NewImageResolver builds the resolver selected by cfg.Driver.
func NewImageResolver(ctx context.Context, cfg config.StorageConfig) (ImageResolver, error) {
	switch cfg.Driver {
	case config.StorageS3:
		s3, err := NewS3Storage(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return NewPresignedResolver(s3, cfg.S3.KeyPrefix, cfg.S3.URLExpiry), nil
	case config.StorageURL, "":
		return NewBaseURLResolver(cfg.ImageBaseURL), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
