// Package s3 implements object.ObjectStorage for S3-compatible stores
// (Cloudflare R2, AWS S3, MinIO and friends).
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"mediavault/pkg/object"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

const etagMetaKey = "content-etag"

// Config holds connection details.
type Config struct {
	// AccountID selects the Cloudflare R2 endpoint when EndpointOverride is empty.
	AccountID        string
	AccessKey        string
	SecretAccessKey  string
	Bucket           string
	Region           string
	EndpointOverride string
	// PathStyle forces path-style addressing, which most self-hosted stores need.
	PathStyle bool
}

// Storage implements object.ObjectStorage for an S3 bucket.
type Storage struct {
	client *s3.Client
	bucket string
}

// Init bootstraps the client using static credentials.
func (s *Storage) Init(ctx context.Context, param any) error {
	cfg, ok := param.(Config)
	if !ok {
		if p, ok := param.(*Config); ok && p != nil {
			cfg = *p
		} else {
			return fmt.Errorf("s3: unexpected config type %T", param)
		}
	}

	if cfg.AccountID == "" && cfg.EndpointOverride == "" {
		return errors.New("s3: AccountID or EndpointOverride required")
	}
	if cfg.AccessKey == "" || cfg.SecretAccessKey == "" || cfg.Bucket == "" {
		return errors.New("s3: AccessKey, SecretAccessKey, and Bucket are required")
	}
	if cfg.Region == "" {
		cfg.Region = "auto"
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return fmt.Errorf("s3: load config: %w", err)
	}

	s.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		base := cfg.EndpointOverride
		if base == "" {
			base = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
		}
		o.BaseEndpoint = aws.String(base)
		o.UsePathStyle = cfg.PathStyle
	})
	s.bucket = cfg.Bucket
	return nil
}

// Close cleans up resources; no-op for S3.
func (s *Storage) Close(_ context.Context) error {
	return nil
}

// Put uploads the full object body. PutObject replaces the key atomically.
func (s *Storage) Put(ctx context.Context, key string, r io.Reader, sizeHint int64, contentType string) (object.Object, error) {
	if err := s.ensureClient(); err != nil {
		return object.Object{}, err
	}
	if err := object.ValidateKey(key); err != nil {
		return object.Object{}, err
	}

	// The body is buffered so the SDK can sign and retry with a seekable reader.
	data, err := io.ReadAll(r)
	if err != nil {
		return object.Object{}, fmt.Errorf("s3: read content: %w", err)
	}
	etag := object.ETag(data)

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		Metadata:      map[string]string{etagMetaKey: etag},
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if sizeHint >= 0 && sizeHint != int64(len(data)) {
		return object.Object{}, fmt.Errorf("s3: size hint %d does not match body length %d", sizeHint, len(data))
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return object.Object{}, mapError(err)
	}

	return s.stat(ctx, key)
}

// Get fetches metadata plus a streaming reader.
func (s *Storage) Get(ctx context.Context, key string) (object.Object, io.ReadCloser, error) {
	if err := s.ensureClient(); err != nil {
		return object.Object{}, nil, err
	}

	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return object.Object{}, nil, mapError(err)
	}

	return object.Object{
		Key:          key,
		Size:         aws.ToInt64(resp.ContentLength),
		ETag:         pickETag(resp.Metadata, resp.ETag),
		ContentType:  aws.ToString(resp.ContentType),
		LastModified: aws.ToTime(resp.LastModified),
		Location:     s.location(key),
	}, resp.Body, nil
}

// List returns all objects under prefix.
func (s *Storage) List(ctx context.Context, prefix string) ([]object.Object, error) {
	if err := s.ensureClient(); err != nil {
		return nil, err
	}

	var objects []object.Object
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, mapError(err)
		}
		for _, item := range page.Contents {
			key := aws.ToString(item.Key)
			objects = append(objects, object.Object{
				Key:          key,
				Size:         aws.ToInt64(item.Size),
				ETag:         strings.Trim(aws.ToString(item.ETag), `"`),
				LastModified: aws.ToTime(item.LastModified),
				Location:     s.location(key),
			})
		}
	}
	return objects, nil
}

// Delete removes an object.
func (s *Storage) Delete(ctx context.Context, key string) error {
	if err := s.ensureClient(); err != nil {
		return err
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return mapError(err)
}

func (s *Storage) stat(ctx context.Context, key string) (object.Object, error) {
	resp, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return object.Object{}, mapError(err)
	}

	return object.Object{
		Key:          key,
		Size:         aws.ToInt64(resp.ContentLength),
		ETag:         pickETag(resp.Metadata, resp.ETag),
		ContentType:  aws.ToString(resp.ContentType),
		LastModified: aws.ToTime(resp.LastModified),
		Location:     s.location(key),
	}, nil
}

func (s *Storage) ensureClient() error {
	if s.client == nil {
		return errors.New("s3: client not initialized")
	}
	return nil
}

func (s *Storage) location(key string) string {
	return "s3://" + s.bucket + "/" + key
}

func pickETag(meta map[string]string, fallback *string) string {
	if v, ok := meta[etagMetaKey]; ok && v != "" {
		return v
	}
	return strings.Trim(aws.ToString(fallback), `"`)
}

func mapError(err error) error {
	if err == nil {
		return nil
	}

	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return object.ErrNotFound
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch strings.ToLower(apiErr.ErrorCode()) {
		case "nosuchkey", "notfound", "404":
			return object.ErrNotFound
		}
	}

	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound {
		return object.ErrNotFound
	}

	return fmt.Errorf("s3: %w", err)
}

// Ensure Storage implements ObjectStorage interface.
var _ object.ObjectStorage = (*Storage)(nil)
