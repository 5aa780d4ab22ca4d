package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/foxxcyber/food-finder/internal/config"
)

// MaxPhotoSize is the largest accepted location photo
const MaxPhotoSize = 5 << 20

// sniffLen is how much of an upload http.DetectContentType looks at
const sniffLen = 512

var (
	ErrUnsupportedPhotoType = errors.New("unsupported photo type")
	ErrPhotoTooLarge        = errors.New("photo too large")
	ErrPhotoNotFound        = errors.New("photo not found")
)

var photoExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// PhotoStorage keeps location photos in an S3-compatible bucket
type PhotoStorage struct {
	client *minio.Client
	bucket string
	region string
}

// Photo is an open photo object; callers close Body
type Photo struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
}

// NewPhotoStorage builds a client from the S3_* settings. It does not dial.
func NewPhotoStorage(cfg *config.Config) (*PhotoStorage, error) {
	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
		Region: cfg.S3Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	return &PhotoStorage{client: client, bucket: cfg.S3Bucket, region: cfg.S3Region}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *PhotoStorage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	return nil
}

// PhotoKey builds the object key for a new photo of a location
func PhotoKey(locationID, contentType string) (string, error) {
	ext, ok := photoExtensions[normalizeContentType(contentType)]
	if !ok {
		return "", ErrUnsupportedPhotoType
	}
	return path.Join("locations", locationID, uuid.NewString()+ext), nil
}

func normalizeContentType(ct string) string {
	ct, _, _ = strings.Cut(ct, ";")
	return strings.ToLower(strings.TrimSpace(ct))
}

// sniffPhoto detects the image type from the leading bytes of r. The declared
// multipart type is not trusted. The returned reader replays the sniffed bytes.
func sniffPhoto(r io.Reader) (string, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", nil, err
	}
	head = head[:n]

	ct := normalizeContentType(http.DetectContentType(head))
	if _, ok := photoExtensions[ct]; !ok {
		return "", nil, ErrUnsupportedPhotoType
	}
	return ct, io.MultiReader(bytes.NewReader(head), r), nil
}

// UploadPhoto stores a location photo and returns its key. The stored content
// type comes from the bytes; declaredType only has to be an image type.
func (s *PhotoStorage) UploadPhoto(ctx context.Context, locationID string, body io.Reader, size int64, declaredType string) (string, error) {
	if size > MaxPhotoSize {
		return "", ErrPhotoTooLarge
	}
	if _, ok := photoExtensions[normalizeContentType(declaredType)]; !ok {
		return "", ErrUnsupportedPhotoType
	}

	ct, body, err := sniffPhoto(body)
	if err != nil {
		return "", err
	}
	key, err := PhotoKey(locationID, ct)
	if err != nil {
		return "", err
	}

	_, err = s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{ContentType: ct})
	if err != nil {
		return "", fmt.Errorf("failed to upload photo: %w", err)
	}
	return key, nil
}

// OpenPhoto returns the photo stored under key
func (s *PhotoStorage) OpenPhoto(ctx context.Context, key string) (*Photo, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}

	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrPhotoNotFound
		}
		return nil, fmt.Errorf("failed to stat object: %w", err)
	}
	return &Photo{Body: obj, Size: info.Size, ContentType: info.ContentType}, nil
}

// DeletePhoto removes the photo stored under key; a missing key is not an error
func (s *PhotoStorage) DeletePhoto(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}
