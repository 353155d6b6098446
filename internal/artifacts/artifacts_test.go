package artifacts

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalia-ai/evalia/pkg/errors"
)

func TestKey(t *testing.T) {
	tests := map[string]string{
		"model.pkl":          "events/1/s1/model.pkl",
		"../../etc/passwd":   "events/1/s1/passwd",
		`C:\Users\me\m.h5`:   "events/1/s1/m.h5",
		"mon modèle (v2).pt": "events/1/s1/mon_mod_le_v2_.pt",
		"...":                "events/1/s1/artifact",
		"a..b.pkl":           "events/1/s1/a.b.pkl",
	}
	for in, want := range tests {
		assert.Equal(t, want, Key("1", "s1", in), in)
	}
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	obj, err := s.Put(ctx, "events/1/s1/model.pkl", strings.NewReader("model-bytes"))
	require.NoError(t, err)
	assert.Equal(t, int64(11), obj.Size)
	assert.True(t, strings.HasPrefix(obj.Checksum, "sha256:"))
	assert.Len(t, obj.Checksum, len("sha256:")+64)

	rc, err := s.Open(ctx, obj.Key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "model-bytes", string(data))

	require.NoError(t, s.Delete(ctx, obj.Key))
	require.NoError(t, s.Delete(ctx, obj.Key), "deleting twice is fine")

	_, err = s.Open(ctx, obj.Key)
	assert.True(t, errors.IsNotFound(err))

	_, err = s.Put(ctx, "../escape", strings.NewReader("x"))
	assert.True(t, errors.IsValidationError(err))
}

func TestChecksumIsStable(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	a, err := s.Put(context.Background(), "a/model.pkl", strings.NewReader("same"))
	require.NoError(t, err)
	b, err := s.Put(context.Background(), "b/model.pkl", strings.NewReader("same"))
	require.NoError(t, err)
	assert.Equal(t, a.Checksum, b.Checksum)
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	meta    map[string]map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, meta: map[string]map[string]string{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = data
	f.meta[aws.ToString(in.Key)] = in.Metadata
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	s := newS3Store(fake, S3Config{Bucket: "models", Prefix: "evalia"})

	obj, err := s.Put(ctx, "events/2/s9/model.h5", strings.NewReader("model-bytes"))
	require.NoError(t, err)
	assert.Equal(t, int64(11), obj.Size)

	stored, ok := fake.objects["evalia/events/2/s9/model.h5"]
	require.True(t, ok, "prefix is applied with a separator")
	assert.Equal(t, "model-bytes", string(stored))
	assert.Equal(t, strings.TrimPrefix(obj.Checksum, "sha256:"), fake.meta["evalia/events/2/s9/model.h5"]["sha256"])

	rc, err := s.Open(ctx, obj.Key)
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	assert.Equal(t, "model-bytes", string(data))

	require.NoError(t, s.Delete(ctx, obj.Key))
	_, err = s.Open(ctx, obj.Key)
	assert.True(t, errors.IsNotFound(err))
}

func TestNewS3StoreRequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), S3Config{Region: "eu-west-3"})
	assert.Error(t, err)
}
