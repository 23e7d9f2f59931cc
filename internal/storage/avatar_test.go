package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/contacts-api/internal/apperr"
)

type fakePutter struct {
	calls int
	in    *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.calls++
	f.in = in
	f.body, _ = io.ReadAll(in.Body)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestUpload_Success(t *testing.T) {
	fp := &fakePutter{}
	up := NewUploader(fp, "avatars", "https://cdn.example.com/avatars/")

	url, err := up.Upload(context.Background(), []byte("png-bytes"), "image/png", "alice")
	require.NoError(t, err)

	assert.Equal(t, 1, fp.calls)
	assert.Equal(t, "avatars", aws.ToString(fp.in.Bucket))
	assert.True(t, strings.HasPrefix(aws.ToString(fp.in.Key), "avatars/alice/"))
	assert.True(t, strings.HasSuffix(aws.ToString(fp.in.Key), ".png"))
	assert.Equal(t, "image/png", aws.ToString(fp.in.ContentType))
	assert.Equal(t, []byte("png-bytes"), fp.body)
	assert.Equal(t, "https://cdn.example.com/avatars/"+aws.ToString(fp.in.Key), url)
}

func TestUpload_RejectsBeforeNetwork(t *testing.T) {
	fp := &fakePutter{}
	up := NewUploader(fp, "avatars", "https://cdn")

	_, err := up.Upload(context.Background(), []byte("%PDF"), "application/pdf", "alice")
	assert.ErrorIs(t, err, apperr.ErrBadRequest)

	big := make([]byte, MaxAvatarSize+1)
	_, err = up.Upload(context.Background(), big, "image/jpeg", "alice")
	assert.ErrorIs(t, err, apperr.ErrBadRequest)

	assert.Zero(t, fp.calls)
}

func TestUpload_AcceptsExactLimit(t *testing.T) {
	fp := &fakePutter{}
	up := NewUploader(fp, "avatars", "https://cdn")

	_, err := up.Upload(context.Background(), make([]byte, MaxAvatarSize), "image/webp", "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, fp.calls)
}

func TestUpload_BackendFailure(t *testing.T) {
	fp := &fakePutter{err: errors.New("connection reset")}
	up := NewUploader(fp, "avatars", "https://cdn")

	_, err := up.Upload(context.Background(), []byte("gif"), "image/gif", "alice")
	assert.ErrorIs(t, err, apperr.ErrUpstream)
}

func TestGravatarURL(t *testing.T) {
	// md5("test@example.com")
	want := "https://www.gravatar.com/avatar/55502f40dc8b7c769880b10874abc9d0?d=identicon&s=250"
	assert.Equal(t, want, GravatarURL("  Test@Example.com "))
}
