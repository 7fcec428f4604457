package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/badabuilder/marketplace/internal/apperr"
)

type fakePutter struct {
	keys  []string
	types []string
	err   error
}

func (f *fakePutter) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.keys = append(f.keys, aws.ToString(in.Key))
	f.types = append(f.types, aws.ToString(in.ContentType))
	return &s3.PutObjectOutput{}, nil
}

func newTestStore(p putter) *S3Store {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return &S3Store{client: p, bucket: "listings", publicBase: "https://cdn.example.com", log: log}
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n0000")

func TestUploadImagesKeepsOrder(t *testing.T) {
	p := &fakePutter{}
	s := newTestStore(p)

	urls, err := s.UploadImages(context.Background(), "/properties/", []Image{
		{Name: "a.jpg", ContentType: "image/jpeg", Data: []byte("jpeg")},
		{Name: "b.png", Data: pngHeader},
	})
	require.NoError(t, err)
	require.Len(t, urls, 2)
	assert.True(t, strings.HasPrefix(urls[0], "https://cdn.example.com/properties/"))
	assert.True(t, strings.HasSuffix(urls[0], ".jpg"))
	assert.True(t, strings.HasSuffix(urls[1], ".png"))
	assert.Equal(t, []string{"image/jpeg", "image/png"}, p.types)
	assert.NotEqual(t, p.keys[0], p.keys[1])
}

func TestUploadImagesRejects(t *testing.T) {
	s := newTestStore(&fakePutter{})

	_, err := s.UploadImages(context.Background(), "x", []Image{{Name: "doc.txt", Data: []byte("hello")}})
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	many := make([]Image, MaxImages+1)
	_, err = s.UploadImages(context.Background(), "x", many)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestUploadImagesStorageError(t *testing.T) {
	s := newTestStore(&fakePutter{err: errors.New("access denied")})
	_, err := s.UploadImages(context.Background(), "x", []Image{{ContentType: "image/jpeg", Data: []byte("x")}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestUploadImagesEmpty(t *testing.T) {
	urls, err := newTestStore(&fakePutter{}).UploadImages(context.Background(), "x", nil)
	require.NoError(t, err)
	assert.Empty(t, urls)
}

func TestNewS3RequiresBucket(t *testing.T) {
	_, err := NewS3(context.Background(), Config{Region: "ap-south-1"}, logrus.New())
	assert.True(t, errors.Is(err, apperr.ErrConfig))
}
