package cloud

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

const presignTTL = time.Hour

// S3Client stores exported reports in a bucket.
type S3Client struct {
	svc     *s3.Client
	presign *s3.PresignClient
	bucket  string
}

func NewS3Client(cfg aws.Config, bucket string, optFns ...func(*s3.Options)) *S3Client {
	svc := s3.NewFromConfig(cfg, optFns...)
	return &S3Client{svc: svc, presign: s3.NewPresignClient(svc), bucket: bucket}
}

// ExportReport uploads body under key and returns a download URL valid for
// one hour.
func (c *S3Client) ExportReport(ctx context.Context, key string, body []byte) (string, error) {
	_, err := c.svc.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"uploaded-at": time.Now().Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	req, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(presignTTL))
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	log.Info().Str("bucket", c.bucket).Str("key", key).Int("bytes", len(body)).Msg("report exported")
	return req.URL, nil
}
