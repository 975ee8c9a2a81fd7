// Package s3 loads resources from an Amazon S3 bucket (or any endpoint that
// speaks the S3 API through aws-sdk-go-v2).
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/unkn0wn-root/resload/loader"
)

// Client is the subset of *s3.Client used by Loader.
type Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type Loader struct {
	client Client
	bucket string
	prefix string
}

var _ loader.Loader = (*Loader)(nil)

// New returns a Loader reading bucket. rootPrefix is prepended to every
// resource path (e.g. "assets/").
func New(client Client, bucket, rootPrefix string) *Loader {
	return &Loader{client: client, bucket: bucket, prefix: rootPrefix}
}

// NewFromConfig builds the S3 client from the default AWS credential chain
// (environment, shared config, instance role).
func NewFromConfig(ctx context.Context, bucket, rootPrefix string, optFns ...func(*config.LoadOptions) error) (*Loader, error) {
	cfg, err := config.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("s3 loader: load aws config: %w", err)
	}
	return New(s3.NewFromConfig(cfg), bucket, rootPrefix), nil
}

func (l *Loader) key(name string) string {
	return path.Join(l.prefix, name)
}

func (l *Loader) Load(ctx context.Context, name string) ([]byte, error) {
	key := l.key(name)
	resp, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%w: s3://%s/%s", loader.ErrNotFound, l.bucket, key)
		}
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return nil, fmt.Errorf("%w: s3://%s/%s", loader.ErrNotFound, l.bucket, key)
		}
		return nil, fmt.Errorf("s3 loader: get %s: %w", key, err)
	}
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 loader: read %s: %w", key, err)
	}
	return b, nil
}
