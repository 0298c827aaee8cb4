package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pageza/foodgram/backend/config"
)

// maxImageSize bounds decoded uploads
const maxImageSize = 10 << 20

var ErrInvalidImage = errors.New("invalid image")

// ImageStore persists uploaded images and returns the URL they are served from
type ImageStore interface {
	Save(ctx context.Context, folder string, data []byte, ext, contentType string) (string, error)
	Delete(ctx context.Context, url string) error
}

// DecodedImage is the payload of a data URI
type DecodedImage struct {
	Data        []byte
	ContentType string
	Extension   string
}

// DecodeImage parses "data:image/png;base64,...". The declared type is ignored in favor of
// the sniffed one, and anything that does not sniff as an image is rejected.
func DecodeImage(dataURI string) (*DecodedImage, error) {
	header, payload, ok := strings.Cut(dataURI, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("%w: expected a base64 data URI", ErrInvalidImage)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidImage)
	}
	if len(data) > maxImageSize {
		return nil, fmt.Errorf("%w: larger than %d bytes", ErrInvalidImage, maxImageSize)
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, fmt.Errorf("%w: unsupported content type %s", ErrInvalidImage, mtype.String())
	}

	return &DecodedImage{
		Data:        data,
		ContentType: mtype.String(),
		Extension:   mtype.Extension(),
	}, nil
}

// SaveDataURI decodes dataURI and stores it under folder
func SaveDataURI(ctx context.Context, store ImageStore, folder, dataURI string) (string, error) {
	img, err := DecodeImage(dataURI)
	if err != nil {
		return "", err
	}
	return store.Save(ctx, folder, img.Data, img.Extension, img.ContentType)
}

// discardImage removes an image whose row is already gone or never committed.
// A failure only leaves an orphaned object, so it is logged rather than returned.
func discardImage(ctx context.Context, store ImageStore, url string) {
	if url == "" {
		return
	}
	if err := store.Delete(ctx, url); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("url", url).Msg("failed to delete image")
	}
}

func objectKey(folder, ext string) string {
	return path.Join(folder, uuid.NewString()+ext)
}

// S3ImageStore uploads images to the configured bucket
type S3ImageStore struct {
	s3Config *config.S3Config
}

func NewS3ImageStore(s3Config *config.S3Config) *S3ImageStore {
	return &S3ImageStore{s3Config: s3Config}
}

func (s *S3ImageStore) Save(ctx context.Context, folder string, data []byte, ext, contentType string) (string, error) {
	key := objectKey(folder, ext)
	_, err := s.s3Config.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Config.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return s.s3Config.ObjectURL(key), nil
}

func (s *S3ImageStore) Delete(ctx context.Context, url string) error {
	prefix := s.s3Config.ObjectURL("")
	if !strings.HasPrefix(url, prefix) {
		return nil
	}
	_, err := s.s3Config.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.s3Config.BucketName),
		Key:    aws.String(strings.TrimPrefix(url, prefix)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}

// LocalImageStore writes images below a directory served at baseURL
type LocalImageStore struct {
	dir     string
	baseURL string
}

func NewLocalImageStore(dir, baseURL string) *LocalImageStore {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &LocalImageStore{dir: dir, baseURL: baseURL}
}

func (s *LocalImageStore) Save(_ context.Context, folder string, data []byte, ext, _ string) (string, error) {
	key := objectKey(folder, ext)
	target := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return s.baseURL + key, nil
}

func (s *LocalImageStore) Delete(_ context.Context, url string) error {
	if !strings.HasPrefix(url, s.baseURL) {
		return nil
	}
	key := strings.TrimPrefix(url, s.baseURL)
	if strings.Contains(key, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}
