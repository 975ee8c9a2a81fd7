package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/resload/loader"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.GetObjectOutput)
	return out, args.Error(1)
}

func keyIs(bucket, key string) func(*s3.GetObjectInput) bool {
	return func(in *s3.GetObjectInput) bool {
		return *in.Bucket == bucket && *in.Key == key
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestLoad(t *testing.T) {
	client := new(mockClient)
	l := New(client, "game-assets", "v2")

	t.Run("Success", func(t *testing.T) {
		client.On("GetObject", mock.Anything, mock.MatchedBy(keyIs("game-assets", "v2/tex/a.png"))).
			Return(&s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("png"))}, nil).Once()

		b, err := l.Load(context.Background(), "tex/a.png")
		require.NoError(t, err)
		assert.Equal(t, "png", string(b))
	})

	t.Run("NoSuchKey", func(t *testing.T) {
		client.On("GetObject", mock.Anything, mock.MatchedBy(keyIs("game-assets", "v2/missing.bin"))).
			Return(nil, &types.NoSuchKey{}).Once()

		_, err := l.Load(context.Background(), "missing.bin")
		assert.ErrorIs(t, err, loader.ErrNotFound)
	})

	t.Run("NotFound", func(t *testing.T) {
		client.On("GetObject", mock.Anything, mock.MatchedBy(keyIs("game-assets", "v2/gone.bin"))).
			Return(nil, &types.NotFound{}).Once()

		_, err := l.Load(context.Background(), "gone.bin")
		assert.ErrorIs(t, err, loader.ErrNotFound)
	})

	t.Run("TransportError", func(t *testing.T) {
		boom := errors.New("throttled")
		client.On("GetObject", mock.Anything, mock.MatchedBy(keyIs("game-assets", "v2/busy.bin"))).
			Return(nil, boom).Once()

		_, err := l.Load(context.Background(), "busy.bin")
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, loader.ErrNotFound)
	})

	t.Run("BodyReadError", func(t *testing.T) {
		client.On("GetObject", mock.Anything, mock.MatchedBy(keyIs("game-assets", "v2/cut.bin"))).
			Return(&s3.GetObjectOutput{Body: io.NopCloser(failingReader{})}, nil).Once()

		_, err := l.Load(context.Background(), "cut.bin")
		require.Error(t, err)
		assert.NotErrorIs(t, err, loader.ErrNotFound)
	})

	client.AssertExpectations(t)
}
