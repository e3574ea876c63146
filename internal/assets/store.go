// Package assets stores thumbnail and post-body images in S3-compatible
// object storage. Objects live under purpose-specific folder prefixes
// with collision-resistant names; the rest of the system only sees the
// resulting public URLs.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrUnsupportedImageType rejects uploads outside the image whitelist.
	ErrUnsupportedImageType = errors.New("assets: unsupported image type")
	// ErrUploadFailed wraps storage errors during upload.
	ErrUploadFailed = errors.New("assets: upload failed")
	// ErrDeleteFailed wraps storage errors during deletion. When it
	// surfaces after a row deletion already committed, manual cleanup in
	// the object store may be required.
	ErrDeleteFailed = errors.New("assets: delete failed")
)

// allowedImageTypes maps accepted MIME types to the stored extension.
var allowedImageTypes = map[string]string{
	"image/jpg":  "jpg",
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
}

// IsAllowedImageType reports whether the MIME type is on the whitelist.
func IsAllowedImageType(contentType string) bool {
	_, ok := allowedImageTypes[strings.ToLower(strings.TrimSpace(contentType))]
	return ok
}

// ImageFile is an upload candidate: a name for diagnostics, the declared
// MIME type, and the content reader.
type ImageFile struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// StoreConfig configures the S3-compatible image store.
type StoreConfig struct {
	EndpointURL     string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	ForcePathStyle  bool
	ThumbnailFolder string
	PostImageFolder string
	Logger          *zap.Logger
}

// Store uploads and deletes images in one bucket.
type Store struct {
	client          *s3.Client
	endpointURL     string
	bucket          string
	thumbnailFolder string
	postImageFolder string
	logger          *zap.Logger
}

// NewStore constructs the image store client.
func NewStore(cfg StoreConfig) *Store {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		client:          newS3Client(cfg),
		endpointURL:     strings.TrimRight(cfg.EndpointURL, "/"),
		bucket:          cfg.Bucket,
		thumbnailFolder: strings.Trim(cfg.ThumbnailFolder, "/"),
		postImageFolder: strings.Trim(cfg.PostImageFolder, "/"),
		logger:          logger,
	}
}

// UploadThumbnail stores a thumbnail image and returns its public URL.
func (s *Store) UploadThumbnail(ctx context.Context, file ImageFile) (string, error) {
	return s.upload(ctx, s.thumbnailFolder, file)
}

// UploadPostImage stores a post-body image and returns its public URL.
func (s *Store) UploadPostImage(ctx context.Context, file ImageFile) (string, error) {
	return s.upload(ctx, s.postImageFolder, file)
}

func (s *Store) upload(ctx context.Context, folder string, file ImageFile) (string, error) {
	ext, ok := allowedImageTypes[strings.ToLower(strings.TrimSpace(file.ContentType))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedImageType, file.ContentType)
	}

	key := objectKey(folder, uuid.NewString(), ext)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(file.ContentType),
		ACL:         s3types.ObjectCannedACLPublicRead,
		Body:        file.Body,
	})
	if err != nil {
		s.logger.Error("image upload failed",
			zap.String("key", key),
			zap.String("file", file.Name),
			zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	return s.urlFor(key), nil
}

// DeleteThumbnail removes a thumbnail by its public URL.
func (s *Store) DeleteThumbnail(ctx context.Context, url string) error {
	return s.delete(ctx, objectKeyFromURL(s.thumbnailFolder, url))
}

// DeletePostImage removes one post-body image by its public URL or bare
// object name.
func (s *Store) DeletePostImage(ctx context.Context, url string) error {
	return s.delete(ctx, objectKeyFromURL(s.postImageFolder, url))
}

// DeletePostImages removes every listed post-body image, reporting the
// failed URLs so the caller can warn about manual cleanup.
func (s *Store) DeletePostImages(ctx context.Context, urls []string) error {
	var failed []string
	for _, url := range urls {
		if err := s.DeletePostImage(ctx, url); err != nil {
			failed = append(failed, url)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%w: %s", ErrDeleteFailed, strings.Join(failed, ", "))
	}
	return nil
}

func (s *Store) delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		s.logger.Error("image delete failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	return nil
}

func (s *Store) urlFor(key string) string {
	return s.endpointURL + "/" + s.bucket + "/" + key
}

func objectKey(folder, name, ext string) string {
	return folder + "/" + name + "." + ext
}

// objectKeyFromURL rebuilds the object key from a stored URL: only the
// basename is trusted, the folder prefix is always re-applied.
func objectKeyFromURL(folder, url string) string {
	return folder + "/" + path.Base(url)
}

func newS3Client(cfg StoreConfig) *s3.Client {
	opts := []func(*s3.Options){
		func(o *s3.Options) {
			if cfg.Region != "" {
				o.Region = cfg.Region
			} else {
				o.Region = "us-east-1"
			}
			if cfg.EndpointURL != "" {
				o.BaseEndpoint = aws.String(cfg.EndpointURL)
			}
			if cfg.ForcePathStyle {
				o.UsePathStyle = true
			}
			if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
				o.Credentials = credentials.NewStaticCredentialsProvider(
					cfg.AccessKeyID, cfg.SecretAccessKey, "",
				)
			}
		},
	}
	return s3.New(s3.Options{}, opts...)
}
