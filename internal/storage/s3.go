// Package storage puts listing images into an S3-compatible bucket.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/badabuilder/marketplace/internal/apperr"
)

// MaxImages is the most files a single create or update may carry.
const MaxImages = 10

type Config struct {
	Region          string
	Bucket          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
}

// Image is one uploaded file as received from the client.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

type putter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Store struct {
	client     putter
	bucket     string
	publicBase string
	log        *logrus.Logger
}

func NewS3(ctx context.Context, cfg Config, log *logrus.Logger) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, apperr.Config("s3 bucket is not configured")
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	base := strings.TrimRight(cfg.PublicBaseURL, "/")
	if base == "" {
		if cfg.Endpoint != "" {
			base = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
		} else {
			base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}
	log.Infof("image storage ready, bucket %s", cfg.Bucket)
	return &S3Store{client: client, bucket: cfg.Bucket, publicBase: base, log: log}, nil
}

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// UploadImages stores images under folder and returns their public URLs in
// input order. The first URL is the primary image.
func (s *S3Store) UploadImages(ctx context.Context, folder string, images []Image) ([]string, error) {
	if len(images) > MaxImages {
		return nil, apperr.Validation(fmt.Sprintf("at most %d images are allowed", MaxImages))
	}
	urls := make([]string, 0, len(images))
	for _, img := range images {
		contentType := img.ContentType
		if contentType == "" || contentType == "application/octet-stream" {
			contentType = http.DetectContentType(img.Data)
		}
		ext, ok := extensions[contentType]
		if !ok {
			return nil, apperr.Validation(fmt.Sprintf("%s is not a supported image", filepath.Base(img.Name)))
		}
		key := strings.Trim(folder, "/") + "/" + uuid.NewString() + ext
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(s.bucket),
			Key:           aws.String(key),
			Body:          bytes.NewReader(img.Data),
			ContentType:   aws.String(contentType),
			ContentLength: aws.Int64(int64(len(img.Data))),
		})
		if err != nil {
			return nil, fmt.Errorf("upload %s: %w", key, err)
		}
		s.log.WithFields(logrus.Fields{"key": key, "size": len(img.Data)}).Debug("image uploaded")
		urls = append(urls, s.publicBase+"/"+key)
	}
	return urls, nil
}
