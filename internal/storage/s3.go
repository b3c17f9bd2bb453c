package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

const (
	minMultipartSize = 12 << 20
	maxPageSize      = 1000
)

type Credentials struct {
	Location
	AccessKey string
	SecretKey string
}

type S3Bucket struct {
	C       *s3.Client
	Presign *s3.PresignClient
	bucket  *string
}

// NewS3 builds a client for the bucket described by c. A custom endpoint
// (R2, MinIO) switches to path style addressing.
func NewS3(ctx context.Context, c Credentials) (*S3Bucket, error) {
	region := c.Region
	if region == "" {
		region = "auto"
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.AccessKey,
			c.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config, %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Bucket{
		C:       client,
		Presign: s3.NewPresignClient(client),
		bucket:  aws.String(c.Bucket),
	}, nil
}

func (b *S3Bucket) Name() string {
	return *b.bucket
}

func (b *S3Bucket) Check(ctx context.Context) error {
	_, err := b.C.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: b.bucket,
	})
	if err != nil {
		var apiErr smithy.APIError

		if errors.As(err, &apiErr) {
			if apiErr.ErrorCode() == "NotFound" || apiErr.ErrorCode() == "NoSuchBucket" {
				return fmt.Errorf("%w: '%s'", ErrBucketNotFound, *b.bucket)
			}
		}

		return fmt.Errorf("failed to check if bucket exists, %w", err)
	}

	return nil
}

func (b *S3Bucket) List(ctx context.Context, prefix string, maxKeys int) ([]Object, error) {
	in := &s3.ListObjectsV2Input{
		Bucket:     b.bucket,
		FetchOwner: aws.Bool(true),
		MaxKeys:    aws.Int32(int32(min(maxKeys, maxPageSize))),
	}
	if prefix != "" {
		in.Prefix = aws.String(prefix)
	}

	var out []Object
	p := s3.NewListObjectsV2Paginator(b.C, in)

	for p.HasMorePages() && len(out) < maxKeys {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects, %w", err)
		}

		for _, o := range page.Contents {
			if o.Key == nil || len(out) >= maxKeys {
				continue
			}

			obj := Object{
				Key:   *o.Key,
				Size:  aws.ToInt64(o.Size),
				Owner: DefaultUploader,
			}

			if o.LastModified != nil {
				obj.LastModified = *o.LastModified
			}

			if o.Owner != nil && aws.ToString(o.Owner.DisplayName) != "" {
				obj.Owner = *o.Owner.DisplayName
			}

			out = append(out, obj)
		}
	}

	return out, nil
}

func (b *S3Bucket) Exists(ctx context.Context, prefix string) (bool, error) {
	res, err := b.C.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  b.bucket,
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return false, fmt.Errorf("failed to look up prefix, %w", err)
	}

	return aws.ToInt32(res.KeyCount) > 0 || len(res.Contents) > 0, nil
}

func (b *S3Bucket) Delete(ctx context.Context, key string) error {
	_, err := b.C.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: b.bucket,
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object, %w", err)
	}

	return nil
}

func (b *S3Bucket) PutPlaceholder(ctx context.Context, key string) error {
	_, err := b.C.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        b.bucket,
		Key:           aws.String(key),
		Body:          bytes.NewReader(nil),
		ContentLength: aws.Int64(0),
		Metadata: map[string]string{
			PlaceholderMeta: "true",
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create folder placeholder, %w", err)
	}

	return nil
}

// Upload streams body to key. Bodies bigger than minMultipartSize go through
// the multipart uploader.
func (b *S3Bucket) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	in := &s3.PutObjectInput{
		Bucket:      b.bucket,
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}

	var err error
	if size > minMultipartSize {
		u := manager.NewUploader(b.C, func(u *manager.Uploader) {
			u.Concurrency = 5
			u.PartSize = 6 << 20
		})

		_, err = u.Upload(ctx, in)
	} else {
		in.ContentLength = aws.Int64(size)
		_, err = b.C.PutObject(ctx, in)
	}
	if err != nil {
		return fmt.Errorf("failed to upload object, %w", err)
	}

	return nil
}

func (b *S3Bucket) PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (*PresignedPut, error) {
	in := &s3.PutObjectInput{
		Bucket: b.bucket,
		Key:    aws.String(key),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}

	req, err := b.Presign.PresignPutObject(ctx, in, s3.WithPresignExpires(ttl))
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload, %w", err)
	}

	return &PresignedPut{
		URL:       req.URL,
		Method:    req.Method,
		Headers:   req.SignedHeader,
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}
