// Package minio loads resources from MinIO or another S3-compatible store
// through minio-go.
package minio

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/unkn0wn-root/resload/loader"
)

type Loader struct {
	client *minio.Client
	bucket string
	prefix string
}

var _ loader.Loader = (*Loader)(nil)

// New returns a Loader reading bucket. rootPrefix is prepended to every
// resource path.
func New(client *minio.Client, bucket, rootPrefix string) *Loader {
	return &Loader{client: client, bucket: bucket, prefix: rootPrefix}
}

// Dial connects to endpoint with static credentials.
func Dial(endpoint, accessKey, secretKey string, secure bool, bucket, rootPrefix string) (*Loader, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("minio loader: %w", err)
	}
	return New(client, bucket, rootPrefix), nil
}

func (l *Loader) key(name string) string {
	return path.Join(l.prefix, name)
}

func (l *Loader) Load(ctx context.Context, name string) ([]byte, error) {
	key := l.key(name)
	obj, err := l.client.GetObject(ctx, l.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, l.mapErr(key, err)
	}
	defer obj.Close()

	// GetObject is lazy; a missing key surfaces on the first read.
	b, err := io.ReadAll(obj)
	if err != nil {
		return nil, l.mapErr(key, err)
	}
	return b, nil
}

func (l *Loader) mapErr(key string, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("%w: %s/%s", loader.ErrNotFound, l.bucket, key)
	}
	return fmt.Errorf("minio loader: %s: %w", key, err)
}

func isNotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound", "NoSuchBucket":
		return true
	}
	return false
}
