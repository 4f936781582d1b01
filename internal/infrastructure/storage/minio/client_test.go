package minio

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/fieldplan/internal/config"
	"github.com/turtacn/fieldplan/pkg/errors"
)

type mockObjectAPI struct {
	mock.Mock
}

func (m *mockObjectAPI) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	args := m.Called(ctx, bucketName)
	return args.Bool(0), args.Error(1)
}

func (m *mockObjectAPI) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	return m.Called(ctx, bucketName, opts).Error(0)
}

func (m *mockObjectAPI) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	data, _ := io.ReadAll(reader)
	args := m.Called(ctx, bucketName, objectName, data, objectSize, opts)
	return args.Get(0).(minio.UploadInfo), args.Error(1)
}

func (m *mockObjectAPI) StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	args := m.Called(ctx, bucketName, objectName, opts)
	return args.Get(0).(minio.ObjectInfo), args.Error(1)
}

func (m *mockObjectAPI) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	return m.Called(ctx, bucketName, objectName, opts).Error(0)
}

type ArchiveTestSuite struct {
	suite.Suite
	api     *mockObjectAPI
	archive *PlanArchive
	ctx     context.Context
}

func (s *ArchiveTestSuite) SetupTest() {
	s.api = new(mockObjectAPI)
	s.archive = NewPlanArchiveWithClient(s.api, "plans-bucket", "eu-west-1", nil)
	s.archive.now = func() time.Time { return time.Date(2024, 3, 7, 10, 0, 0, 0, time.UTC) }
	s.ctx = context.Background()
}

func (s *ArchiveTestSuite) TearDownTest() {
	s.api.AssertExpectations(s.T())
}

func (s *ArchiveTestSuite) TestEnsureBucket_Exists() {
	s.api.On("BucketExists", s.ctx, "plans-bucket").Return(true, nil)
	s.NoError(s.archive.EnsureBucket(s.ctx))
}

func (s *ArchiveTestSuite) TestEnsureBucket_Creates() {
	s.api.On("BucketExists", s.ctx, "plans-bucket").Return(false, nil)
	s.api.On("MakeBucket", s.ctx, "plans-bucket", minio.MakeBucketOptions{Region: "eu-west-1"}).Return(nil)
	s.NoError(s.archive.EnsureBucket(s.ctx))
}

func (s *ArchiveTestSuite) TestEnsureBucket_Unavailable() {
	s.api.On("BucketExists", s.ctx, "plans-bucket").Return(false, fmt.Errorf("dial tcp: refused"))
	err := s.archive.EnsureBucket(s.ctx)
	s.True(errors.IsCode(err, errors.ErrCodeServiceUnavailable))
}

func (s *ArchiveTestSuite) TestUpload() {
	data := []byte(`{"id":"abc"}`)
	s.api.On("PutObject", s.ctx, "plans-bucket", "plans/2024/03/07/abc.json.zst", data, int64(len(data)),
		mock.MatchedBy(func(o minio.PutObjectOptions) bool {
			return o.ContentType == "application/zstd" && o.UserMetadata["plan-id"] == "abc"
		})).Return(minio.UploadInfo{Size: int64(len(data)), ETag: "e1"}, nil)

	key, err := s.archive.Upload(s.ctx, "abc", data, true)
	s.Require().NoError(err)
	s.Equal("plans/2024/03/07/abc.json.zst", key)
}

func (s *ArchiveTestSuite) TestUpload_Error() {
	s.api.On("PutObject", s.ctx, "plans-bucket", "plans/2024/03/07/abc.json", mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, fmt.Errorf("quota exceeded"))

	_, err := s.archive.Upload(s.ctx, "abc", []byte("{}"), false)
	s.True(errors.IsCode(err, errors.ErrCodeStorageError))
}

func (s *ArchiveTestSuite) TestExists() {
	s.api.On("StatObject", s.ctx, "plans-bucket", "plans/a.json", minio.StatObjectOptions{}).
		Return(minio.ObjectInfo{Key: "plans/a.json"}, nil)
	s.api.On("StatObject", s.ctx, "plans-bucket", "plans/b.json", minio.StatObjectOptions{}).
		Return(minio.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey"})

	ok, err := s.archive.Exists(s.ctx, "plans/a.json")
	s.NoError(err)
	s.True(ok)
	ok, err = s.archive.Exists(s.ctx, "plans/b.json")
	s.NoError(err)
	s.False(ok)
}

func (s *ArchiveTestSuite) TestDelete() {
	s.api.On("RemoveObject", s.ctx, "plans-bucket", "plans/a.json", minio.RemoveObjectOptions{}).Return(nil)
	s.NoError(s.archive.Delete(s.ctx, "plans/a.json"))
}

func TestArchiveSuite(t *testing.T) {
	suite.Run(t, new(ArchiveTestSuite))
}

func TestObjectKey(t *testing.T) {
	t.Parallel()
	at := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "plans/2025/12/01/x.json", ObjectKey("x", at, false))
	assert.Equal(t, "plans/2025/12/01/x.json.zst", ObjectKey("x", at, true))
}

func TestApplyDefaults(t *testing.T) {
	t.Parallel()
	cfg := config.MinIOConfig{}
	applyDefaults(&cfg)
	assert.Equal(t, "us-east-1", cfg.Region)
	assert.Equal(t, config.DefaultBucket, cfg.Bucket)
	require.NotEmpty(t, cfg.Bucket)
}

//Personal.AI order the ending
