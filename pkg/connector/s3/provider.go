// Package s3 provides an S3 implementation of the storage provider.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/fsworks/featurestore-go/pkg/featurestore"
)

// API is the subset of the S3 client used by the provider. The narrow
// interface allows mocking in tests.
type API interface {
	GetObject(ctx context.Context, params *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
	DeleteObjects(ctx context.Context, params *awss3.DeleteObjectsInput, optFns ...func(*awss3.Options)) (*awss3.DeleteObjectsOutput, error)
	ListObjectsV2(ctx context.Context, params *awss3.ListObjectsV2Input, optFns ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error)
}

// Provider implements connector.Provider over an S3 bucket.
type Provider struct {
	bucket string
	client API
}

// New creates an S3 provider with an existing client.
func New(bucket string, client API) (*Provider, error) {
	if bucket == "" {
		return nil, featurestore.NewError(featurestore.CodeValidation, "s3 connector has no bucket")
	}
	if client == nil {
		return nil, featurestore.NewError(featurestore.CodeValidation, "s3 client is required")
	}
	return &Provider{bucket: bucket, client: client}, nil
}

// NewFromConnector creates an S3 provider from a connector descriptor.
func NewFromConnector(ctx context.Context, conn *featurestore.StorageConnector) (*Provider, error) {
	if conn.Bucket == "" {
		return nil, featurestore.NewError(featurestore.CodeValidation,
			fmt.Sprintf("s3 connector %q has no bucket", conn.Name))
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if conn.Region != "" {
		opts = append(opts, awsconfig.WithRegion(conn.Region))
	}
	if conn.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(conn.AccessKey, conn.SecretKey, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := awss3.NewFromConfig(cfg, func(o *awss3.Options) {
		if conn.Endpoint != "" {
			o.BaseEndpoint = aws.String(conn.Endpoint)
			o.UsePathStyle = true
		}
	})
	return New(conn.Bucket, client)
}

// Name returns the provider name.
func (p *Provider) Name() string { return "s3" }

// key strips the s3://bucket/ scheme when present.
func (p *Provider) key(path string) string {
	path = strings.TrimPrefix(path, "s3://"+p.bucket+"/")
	path = strings.TrimPrefix(path, "s3://")
	return strings.TrimPrefix(path, "/")
}

// OpenRead opens an object for reading.
func (p *Provider) OpenRead(ctx context.Context, path string) (io.ReadCloser, error) {
	out, err := p.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(p.key(path)),
	})
	if err != nil {
		return nil, fmt.Errorf("get object %s/%s: %w", p.bucket, p.key(path), err)
	}
	return out.Body, nil
}

// OpenWrite buffers writes and commits the object on Close.
func (p *Provider) OpenWrite(ctx context.Context, path string) (io.WriteCloser, error) {
	return &objectWriter{ctx: ctx, provider: p, key: p.key(path)}, nil
}

type objectWriter struct {
	ctx      context.Context
	provider *Provider
	key      string
	buf      bytes.Buffer
}

func (w *objectWriter) Write(b []byte) (int, error) { return w.buf.Write(b) }

func (w *objectWriter) Close() error {
	_, err := w.provider.client.PutObject(w.ctx, &awss3.PutObjectInput{
		Bucket: aws.String(w.provider.bucket),
		Key:    aws.String(w.key),
		Body:   bytes.NewReader(w.buf.Bytes()),
	})
	if err != nil {
		return fmt.Errorf("put object %s/%s: %w", w.provider.bucket, w.key, err)
	}
	return nil
}

// List returns the object keys under a prefix, sorted.
func (p *Provider) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	var continuation *string
	for {
		out, err := p.client.ListObjectsV2(ctx, &awss3.ListObjectsV2Input{
			Bucket:            aws.String(p.bucket),
			Prefix:            aws.String(p.key(prefix)),
			ContinuationToken: continuation,
		})
		if err != nil {
			return nil, fmt.Errorf("list objects %s/%s: %w", p.bucket, p.key(prefix), err)
		}
		for _, obj := range out.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		continuation = out.NextContinuationToken
	}
	sort.Strings(keys)
	return keys, nil
}

// Remove deletes every object under a prefix.
func (p *Provider) Remove(ctx context.Context, prefix string) error {
	keys, err := p.List(ctx, prefix)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	objects := make([]s3types.ObjectIdentifier, 0, len(keys))
	for _, k := range keys {
		objects = append(objects, s3types.ObjectIdentifier{Key: aws.String(k)})
	}
	_, err = p.client.DeleteObjects(ctx, &awss3.DeleteObjectsInput{
		Bucket: aws.String(p.bucket),
		Delete: &s3types.Delete{Objects: objects},
	})
	if err != nil {
		return fmt.Errorf("delete objects %s/%s: %w", p.bucket, p.key(prefix), err)
	}
	return nil
}
