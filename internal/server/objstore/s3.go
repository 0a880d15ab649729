package objstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/guvenli/messenger/internal/common"
	sc "github.com/guvenli/messenger/internal/server/config"
)

// chunkSize is the slice size content is split into before upload.
// Zero-padded chunk names keep S3 listing order equal to chunk order.
const chunkSize = 256 * 1024

// s3API is the subset of the S3 client used by S3Store.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store keeps blob content in an S3-compatible backend (MinIO in dev),
// split into fixed-size chunks under blobs/<id>/.
type S3Store struct {
	client s3API
	bucket string
}

// NewS3Store builds an S3-backed Store from server configuration,
// using static credentials and an explicit base endpoint.
func NewS3Store(ctx context.Context, config *sc.Config) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			config.S3RootUser,
			config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return &S3Store{client: client, bucket: config.S3Bucket}, nil
}

func blobPrefix(id string) string {
	return "blobs/" + id + "/"
}

func chunkKey(id string, n int) string {
	return fmt.Sprintf("%s%06d", blobPrefix(id), n)
}

func (s *S3Store) Put(ctx context.Context, id string, data []byte) error {
	if err := s.Delete(ctx, id); err != nil {
		return err
	}

	for n := 0; n*chunkSize < len(data) || n == 0; n++ {
		start := n * chunkSize
		end := start + chunkSize
		if end > len(data) {
			end = len(data)
		}
		key := chunkKey(id, n)
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
			Body:   bytes.NewReader(data[start:end]),
		})
		if err != nil {
			return fmt.Errorf("put chunk %s: %w", key, err)
		}
	}
	return nil
}

func (s *S3Store) Get(ctx context.Context, id string) ([]byte, error) {
	keys, err := s.listKeys(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, common.ErrNotFound
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	for _, key := range keys {
		out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, fmt.Errorf("get chunk %s: %w", key, err)
		}
		_, err = io.Copy(&buf, out.Body)
		out.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read chunk %s: %w", key, err)
		}
	}
	return buf.Bytes(), nil
}

func (s *S3Store) Delete(ctx context.Context, id string) error {
	keys, err := s.listKeys(ctx, id)
	if err != nil {
		return err
	}
	for _, key := range keys {
		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return fmt.Errorf("delete chunk %s: %w", key, err)
		}
	}
	return nil
}

func (s *S3Store) listKeys(ctx context.Context, id string) ([]string, error) {
	var keys []string
	var token *string

	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(blobPrefix(id)),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("list chunks: %w", err)
		}
		for _, obj := range out.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
		if out.IsTruncated == nil || !*out.IsTruncated {
			return keys, nil
		}
		token = out.NextContinuationToken
	}
}
