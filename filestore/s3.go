package filestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type S3Options struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

type s3FileStore struct {
	client *s3.Client
	bucket string
}

// NewS3FileStore builds a store on the default AWS credential chain unless
// static keys are given. Endpoint targets S3-compatible services such as MinIO.
func NewS3FileStore(ctx context.Context, opts S3Options) (FileStore, error) {
	if opts.Bucket == "" {
		return nil, errors.New("s3filestore: bucket required")
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(opts.Region),
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("fail to load s3filestore config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})

	return &s3FileStore{
		client: client,
		bucket: opts.Bucket,
	}, nil
}

// NewR2FileStore targets a Cloudflare R2 account through its S3 endpoint.
func NewR2FileStore(ctx context.Context, accountId, accessKeyId, secretAccessKey, bucket string) (FileStore, error) {
	return NewS3FileStore(ctx, S3Options{
		Bucket:          bucket,
		Region:          "auto",
		Endpoint:        fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountId),
		AccessKeyID:     accessKeyId,
		SecretAccessKey: secretAccessKey,
	})
}

func (s *s3FileStore) Bucket() string {
	return s.bucket
}

func (s *s3FileStore) UploadFileData(ctx context.Context, data []byte, contentType, key string) error {
	return s.UploadFile(ctx, bytes.NewReader(data), contentType, key)
}

func (s *s3FileStore) UploadFile(ctx context.Context, reader io.Reader, contentType, key string) error {
	obj := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   reader,
	}
	if contentType != "" {
		obj.ContentType = aws.String(contentType)
	}
	_, err := s.client.PutObject(ctx, obj)
	if err != nil {
		return fmt.Errorf("fail to upload s3://%s/%s: %w", s.bucket, key, err)
	}

	return nil
}

func (s *s3FileStore) GetObject(ctx context.Context, bucket, key string) (*Object, error) {
	if bucket == "" {
		bucket = s.bucket
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("s3://%s/%s: %w", bucket, key, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("fail to get s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("fail to read s3://%s/%s: %w", bucket, key, err)
	}

	return &Object{
		Bucket:      bucket,
		Key:         key,
		ContentType: aws.ToString(out.ContentType),
		Data:        data,
	}, nil
}
