package media

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

var sseAlgorithm = "AES256"

// S3 is a Store that uses AWS S3
type S3 struct {
	s3     s3iface.S3API
	region string
	bucket string
	prefix string
}

// NewS3 returns a Store writing to bucket under prefix. Credentials come
// from the default AWS chain.
func NewS3(region, bucket, prefix string) (*S3, error) {
	if bucket == "" {
		return nil, fmt.Errorf("media: s3 bucket is required")
	}
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("media: failed to create aws session: %w", err)
	}
	return newS3(s3.New(sess), region, bucket, prefix), nil
}

func newS3(api s3iface.S3API, region, bucket, prefix string) *S3 {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &S3{s3: api, region: region, bucket: bucket, prefix: prefix}
}

func (s *S3) key(name string) string {
	return s.prefix + strings.TrimPrefix(name, "/")
}

// URL is the public virtual-hosted URL of name.
func (s *S3) URL(name string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, s.key(name))
}

func (s *S3) Put(ctx context.Context, name string, r io.ReadSeeker, size int64, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.s3.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:               aws.String(s.bucket),
		Key:                  aws.String(s.key(name)),
		Body:                 r,
		ContentLength:        aws.Int64(size),
		ContentType:          aws.String(contentType),
		ServerSideEncryption: aws.String(sseAlgorithm),
	})
	if err != nil {
		return "", fmt.Errorf("media: failed to upload %q: %w", name, err)
	}
	return s.URL(name), nil
}

func (s *S3) Delete(ctx context.Context, name string) error {
	_, err := s.s3.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	return err
}
