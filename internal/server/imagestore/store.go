// Package imagestore keeps project images on an S3-compatible media host
// (AWS S3, MinIO, R2).
package imagestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/dmitrijs2005/portfolio/internal/common"
	"github.com/dmitrijs2005/portfolio/internal/server/models"
	"github.com/google/uuid"
)

// ObjectAPI is the subset of the S3 client the store needs.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newUUID = uuid.New
	now     = time.Now
)

// Config describes the media host and upload limits.
type Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	// PublicURL is the base images are served from. Empty means
	// Endpoint + "/" + Bucket.
	PublicURL string
	Folder    string
	MaxSize   int64
	Timeout   time.Duration
}

func (c Config) publicBase() string {
	if c.PublicURL != "" {
		return strings.TrimRight(c.PublicURL, "/")
	}
	return strings.TrimRight(c.Endpoint, "/") + "/" + c.Bucket
}

// ContentHints carries what the client claimed about an upload. The
// stored type and key suffix come from the content itself.
type ContentHints struct {
	Filename    string
	ContentType string
}

// S3Store implements the image store on an S3 bucket.
type S3Store struct {
	client  ObjectAPI
	cfg     Config
	metrics *Metrics
}

// New builds an S3 client from cfg with static credentials and path-style
// addressing, which MinIO requires.
func New(ctx context.Context, cfg Config, metrics *Metrics) (*S3Store, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	})

	return NewWithClient(client, cfg, metrics), nil
}

// NewWithClient returns a store over an existing client.
func NewWithClient(client ObjectAPI, cfg Config, metrics *Metrics) *S3Store {
	return &S3Store{client: client, cfg: cfg, metrics: metrics}
}

// Upload validates data as an image and stores it under a fresh key.
// Every failure wraps common.ErrUpload.
func (s *S3Store) Upload(ctx context.Context, data []byte, hints ContentHints) (models.Image, error) {
	img, err := s.upload(ctx, data, hints)
	s.metrics.observe(opUpload, resultOf(err))
	return img, err
}

func (s *S3Store) upload(ctx context.Context, data []byte, hints ContentHints) (models.Image, error) {
	if len(data) == 0 {
		return models.Image{}, fmt.Errorf("%w: empty image", common.ErrUpload)
	}
	if s.cfg.MaxSize > 0 && int64(len(data)) > s.cfg.MaxSize {
		return models.Image{}, fmt.Errorf("%w: image exceeds %d bytes", common.ErrUpload, s.cfg.MaxSize)
	}

	contentType, err := imageType(data, hints.ContentType)
	if err != nil {
		return models.Image{}, err
	}

	key := s.newKey(extension(contentType))

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return models.Image{}, fmt.Errorf("%w: %v", common.ErrUpload, err)
	}

	return models.Image{URL: s.cfg.publicBase() + "/" + key, Key: key}, nil
}

// Delete removes the object stored under key. It never returns a bare
// error: the outcome, including failures, is in the result.
func (s *S3Store) Delete(ctx context.Context, key string) DeleteResult {
	res := s.delete(ctx, key)
	s.metrics.observe(opDelete, res.Outcome.String())
	return res
}

func (s *S3Store) delete(ctx context.Context, key string) DeleteResult {
	if key == "" {
		return DeleteResult{Outcome: DeleteNotFound}
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return DeleteResult{Key: key, Outcome: DeleteNotFound}
		}
		return failed(key, err)
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return DeleteResult{Key: key, Outcome: DeleteNotFound}
		}
		return failed(key, err)
	}

	return DeleteResult{Key: key, Outcome: DeleteOK}
}

func (s *S3Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.Timeout)
}

// newKey returns <folder>/yyyy/mm/dd/<uuid><ext>.
func (s *S3Store) newKey(ext string) string {
	d := now().UTC()
	name := fmt.Sprintf("%04d/%02d/%02d/%v%s", d.Year(), d.Month(), d.Day(), newUUID(), ext)
	if s.cfg.Folder == "" {
		return name
	}
	return path.Join(s.cfg.Folder, name)
}

// imageType sniffs data and returns its media type. The payload must be
// an image regardless of what the client declared, and a declared type
// that is not an image is refused too.
func imageType(data []byte, declared string) (string, error) {
	if declared != "" {
		if mt, _, err := mime.ParseMediaType(declared); err == nil &&
			mt != "application/octet-stream" && !strings.HasPrefix(mt, "image/") {
			return "", fmt.Errorf("%w: declared content type %q is not an image", common.ErrUpload, mt)
		}
	}

	sniffed, _, err := mime.ParseMediaType(http.DetectContentType(data))
	if err != nil || !strings.HasPrefix(sniffed, "image/") {
		return "", fmt.Errorf("%w: content is %q, not an image", common.ErrUpload, sniffed)
	}
	return sniffed, nil
}

var imageExtensions = map[string]string{
	"image/png":    ".png",
	"image/jpeg":   ".jpg",
	"image/gif":    ".gif",
	"image/webp":   ".webp",
	"image/bmp":    ".bmp",
	"image/x-icon": ".ico",
	"image/avif":   ".avif",
}

// extension derives the key suffix from the sniffed type only.
func extension(contentType string) string {
	if ext, ok := imageExtensions[contentType]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

func resultOf(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
