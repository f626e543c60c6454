package utils

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ImageUploader stores an object and returns its public URL.
type ImageUploader interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

type S3Uploader struct {
	uploader *manager.Uploader
	bucket   string
}

// NewS3Uploader builds an uploader from the default AWS credential chain.
func NewS3Uploader(ctx context.Context, bucket string) (*S3Uploader, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return &S3Uploader{uploader: manager.NewUploader(client), bucket: bucket}, nil
}

func (u *S3Uploader) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	result, err := u.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        body,
		ACL:         "public-read",
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return result.Location, nil
}

// ProductImageKey lays images out as products/YYYY/MM/DD/<uuid>-<name> so
// repeated uploads of the same filename never overwrite each other.
func ProductImageKey(now time.Time, filename string) string {
	name := strings.ToLower(filepath.Base(filename))
	ext := filepath.Ext(name)
	base := Slugify(strings.TrimSuffix(name, ext))
	if base == "" {
		base = "image"
	}
	return path.Join("products", now.Format("2006/01/02"), uuid.NewString()+"-"+base+ext)
}
