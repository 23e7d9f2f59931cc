// Package storage uploads avatar images to an S3-compatible bucket.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/iliyamo/contacts-api/internal/apperr"
	"github.com/iliyamo/contacts-api/internal/config"
)

// MaxAvatarSize is the largest accepted upload (5 MiB).
const MaxAvatarSize = 5 << 20

// allowed content types and the extension stored with each
var avatarTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// PutObjectAPI is the part of the S3 client the uploader needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader stores avatars under avatars/<owner>/<uuid><ext>.
type S3Uploader struct {
	client    PutObjectAPI
	bucket    string
	publicURL string
}

// NewS3Uploader builds an uploader with static credentials and an explicit
// endpoint, which also covers MinIO.
func NewS3Uploader(ctx context.Context, cfg config.S3Config) (*S3Uploader, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	public := cfg.PublicURL
	if public == "" {
		public = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	return NewUploader(client, cfg.Bucket, public), nil
}

// NewUploader wraps an existing client.
func NewUploader(client PutObjectAPI, bucket, publicURL string) *S3Uploader {
	return &S3Uploader{client: client, bucket: bucket, publicURL: strings.TrimRight(publicURL, "/")}
}

// Validate rejects unsupported content types and oversized payloads.
func Validate(size int, contentType string) error {
	if _, ok := avatarTypes[strings.ToLower(contentType)]; !ok {
		return apperr.BadRequest("Only image files are allowed. Supported formats: JPEG, PNG, GIF, WebP")
	}
	if size > MaxAvatarSize {
		return apperr.BadRequest("File too large. Maximum size is 5MB")
	}
	return nil
}

// Upload stores data and returns its public URL. Validation runs before
// any network call.
func (u *S3Uploader) Upload(ctx context.Context, data []byte, contentType, owner string) (string, error) {
	if err := Validate(len(data), contentType); err != nil {
		return "", err
	}
	key := fmt.Sprintf("avatars/%s/%s%s", owner, uuid.NewString(), avatarTypes[strings.ToLower(contentType)])

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", apperr.Upstream("Failed to upload avatar", err)
	}
	return u.publicURL + "/" + key, nil
}
