package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	awss3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// mockAPI implements the API interface for testing.
type mockAPI struct {
	getFunc    func(ctx context.Context, in *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
	putFunc    func(ctx context.Context, in *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
	deleteFunc func(ctx context.Context, in *awss3.DeleteObjectsInput, optFns ...func(*awss3.Options)) (*awss3.DeleteObjectsOutput, error)
	listFunc   func(ctx context.Context, in *awss3.ListObjectsV2Input, optFns ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error)
}

func (m *mockAPI) GetObject(ctx context.Context, in *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error) {
	return m.getFunc(ctx, in, optFns...)
}

func (m *mockAPI) PutObject(ctx context.Context, in *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	return m.putFunc(ctx, in, optFns...)
}

func (m *mockAPI) DeleteObjects(ctx context.Context, in *awss3.DeleteObjectsInput, optFns ...func(*awss3.Options)) (*awss3.DeleteObjectsOutput, error) {
	return m.deleteFunc(ctx, in, optFns...)
}

func (m *mockAPI) ListObjectsV2(ctx context.Context, in *awss3.ListObjectsV2Input, optFns ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error) {
	return m.listFunc(ctx, in, optFns...)
}

func TestNewValidation(t *testing.T) {
	if _, err := New("", &mockAPI{}); err == nil {
		t.Error("expected error for missing bucket")
	}
	if _, err := New("bucket", nil); err == nil {
		t.Error("expected error for nil client")
	}
}

func TestKeyStripsScheme(t *testing.T) {
	p, _ := New("datasets", &mockAPI{})
	tests := []struct{ in, want string }{
		{"s3://datasets/td/part-0000.csv", "td/part-0000.csv"},
		{"/td/part-0000.csv", "td/part-0000.csv"},
		{"td/part-0000.csv", "td/part-0000.csv"},
	}
	for _, tt := range tests {
		if got := p.key(tt.in); got != tt.want {
			t.Errorf("key(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOpenRead(t *testing.T) {
	mock := &mockAPI{
		getFunc: func(_ context.Context, in *awss3.GetObjectInput, _ ...func(*awss3.Options)) (*awss3.GetObjectOutput, error) {
			if aws.ToString(in.Key) != "td/part-0000.csv" {
				t.Errorf("unexpected key %q", aws.ToString(in.Key))
			}
			return &awss3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("a\n1\n"))}, nil
		},
	}
	p, _ := New("datasets", mock)

	r, err := p.OpenRead(context.Background(), "s3://datasets/td/part-0000.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, _ := io.ReadAll(r)
	if string(data) != "a\n1\n" {
		t.Errorf("unexpected content %q", data)
	}
}

func TestOpenWriteCommitsOnClose(t *testing.T) {
	var putKey, putBody string
	mock := &mockAPI{
		putFunc: func(_ context.Context, in *awss3.PutObjectInput, _ ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
			putKey = aws.ToString(in.Key)
			data, _ := io.ReadAll(in.Body)
			putBody = string(data)
			return &awss3.PutObjectOutput{}, nil
		},
	}
	p, _ := New("datasets", mock)

	w, err := p.OpenWrite(context.Background(), "td/part-0000.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := w.Write([]byte("a,b\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if putKey != "" {
		t.Error("object must not be committed before Close")
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if putKey != "td/part-0000.csv" || putBody != "a,b\n" {
		t.Errorf("unexpected put %q %q", putKey, putBody)
	}
}

func TestListPaginates(t *testing.T) {
	calls := 0
	mock := &mockAPI{
		listFunc: func(_ context.Context, in *awss3.ListObjectsV2Input, _ ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error) {
			calls++
			if calls == 1 {
				return &awss3.ListObjectsV2Output{
					Contents: []awss3types.Object{
						{Key: aws.String("td/part-0001.csv")},
					},
					IsTruncated:           aws.Bool(true),
					NextContinuationToken: aws.String("next"),
				}, nil
			}
			if aws.ToString(in.ContinuationToken) != "next" {
				t.Error("continuation token not threaded")
			}
			return &awss3.ListObjectsV2Output{
				Contents: []awss3types.Object{
					{Key: aws.String("td/part-0000.csv")},
				},
				IsTruncated: aws.Bool(false),
			}, nil
		},
	}
	p, _ := New("datasets", mock)

	keys, err := p.List(context.Background(), "td")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(keys))
	}
	if keys[0] != "td/part-0000.csv" {
		t.Errorf("expected sorted keys, got %v", keys)
	}
}

func TestRemove(t *testing.T) {
	var deleted []string
	mock := &mockAPI{
		listFunc: func(context.Context, *awss3.ListObjectsV2Input, ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error) {
			return &awss3.ListObjectsV2Output{
				Contents: []awss3types.Object{
					{Key: aws.String("td/part-0000.csv")},
					{Key: aws.String("td/part-0001.csv")},
				},
				IsTruncated: aws.Bool(false),
			}, nil
		},
		deleteFunc: func(_ context.Context, in *awss3.DeleteObjectsInput, _ ...func(*awss3.Options)) (*awss3.DeleteObjectsOutput, error) {
			for _, obj := range in.Delete.Objects {
				deleted = append(deleted, aws.ToString(obj.Key))
			}
			return &awss3.DeleteObjectsOutput{}, nil
		},
	}
	p, _ := New("datasets", mock)

	if err := p.Remove(context.Background(), "td"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(deleted) != 2 {
		t.Errorf("expected 2 deletions, got %v", deleted)
	}
}

func TestRemoveEmptyPrefix(t *testing.T) {
	mock := &mockAPI{
		listFunc: func(context.Context, *awss3.ListObjectsV2Input, ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error) {
			return &awss3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}, nil
		},
		deleteFunc: func(context.Context, *awss3.DeleteObjectsInput, ...func(*awss3.Options)) (*awss3.DeleteObjectsOutput, error) {
			t.Error("delete must not be called for an empty prefix")
			return nil, errors.New("unreachable")
		},
	}
	p, _ := New("datasets", mock)
	if err := p.Remove(context.Background(), "td"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
