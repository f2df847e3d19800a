package s3store

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	put  *s3.PutObjectInput
	del  *s3.DeleteObjectInput
	head int
	err  error
}

func (f *fakeAPI) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.put = in
	return &s3.PutObjectOutput{}, f.err
}

func (f *fakeAPI) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.del = in
	return &s3.DeleteObjectOutput{}, f.err
}

func (f *fakeAPI) HeadBucket(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	f.head++
	return &s3.HeadBucketOutput{}, f.err
}

func TestStore_Put(t *testing.T) {
	api := &fakeAPI{}
	s := NewWithAPI(api, "dating-photos", "https://dating-photos.s3.eu-west-1.amazonaws.com")

	url, err := s.Put(context.Background(), "users/5/x.jpg", bytes.NewReader([]byte("jpg")), 3, "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, "https://dating-photos.s3.eu-west-1.amazonaws.com/users/5/x.jpg", url)
	require.NotNil(t, api.put)
	assert.Equal(t, "dating-photos", aws.ToString(api.put.Bucket))
	assert.Equal(t, "users/5/x.jpg", aws.ToString(api.put.Key))
	assert.Equal(t, "image/jpeg", aws.ToString(api.put.ContentType))
	assert.EqualValues(t, 3, aws.ToInt64(api.put.ContentLength))
}

func TestStore_DeleteAndPing(t *testing.T) {
	api := &fakeAPI{}
	s := NewWithAPI(api, "b", "https://cdn")

	require.NoError(t, s.Delete(context.Background(), "users/5/x.jpg"))
	assert.Equal(t, "users/5/x.jpg", aws.ToString(api.del.Key))
	require.NoError(t, s.Ping(context.Background()))
	assert.Equal(t, 1, api.head)
}

func TestStore_Errors(t *testing.T) {
	boom := errors.New("access denied")
	s := NewWithAPI(&fakeAPI{err: boom}, "b", "https://cdn")

	_, err := s.Put(context.Background(), "k", bytes.NewReader(nil), 0, "image/png")
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, s.Delete(context.Background(), "k"), boom)
	assert.ErrorIs(t, s.Ping(context.Background()), boom)
}

func TestNew_ConfigError(t *testing.T) {
	orig := loadConfig
	t.Cleanup(func() { loadConfig = orig })
	loadConfig = func(context.Context, ...func(*config.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no region")
	}

	_, err := New(context.Background(), Config{Bucket: "b"})
	assert.Error(t, err)
}

func TestNew_DefaultPublicURL(t *testing.T) {
	s, err := New(context.Background(), Config{Region: "eu-west-1", Bucket: "photos", AccessKey: "a", SecretKey: "b"})
	require.NoError(t, err)
	assert.Equal(t, "https://photos.s3.eu-west-1.amazonaws.com", s.publicURL)
}
