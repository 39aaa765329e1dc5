package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockObjects struct {
	mock.Mock
}

func (m *MockObjects) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.GetObjectOutput), args.Error(1)
}

func (m *MockObjects) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.DeleteObjectOutput), args.Error(1)
}

type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*manager.UploadOutput), args.Error(1)
}

type MockPresigner struct {
	mock.Mock
}

func (m *MockPresigner) PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*v4.PresignedHTTPRequest), args.Error(1)
}

type MockDynamo struct {
	mock.Mock
}

func (m *MockDynamo) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dynamodb.PutItemOutput), args.Error(1)
}

func (m *MockDynamo) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dynamodb.ScanOutput), args.Error(1)
}

func TestObjectKey(t *testing.T) {
	id := uuid.MustParse("3f2a1c4e-0000-4000-8000-000000000001")
	at := time.Date(2024, 3, 7, 23, 0, 0, 0, time.UTC)

	assert.Equal(t, "reports/2024/03/07/3f2a1c4e-0000-4000-8000-000000000001-employees.pdf",
		ObjectKey("reports", at, id, "employees.pdf"))
	assert.Equal(t, "2024/03/07/3f2a1c4e-0000-4000-8000-000000000001-x.csv",
		ObjectKey("", at, id, "x.csv"))
}

func TestS3Client_Upload(t *testing.T) {
	up := new(MockUploader)
	up.On("Upload", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return aws.ToString(in.Bucket) == "bucket" &&
			aws.ToString(in.Key) == "a/b.pdf" &&
			aws.ToString(in.ContentType) == "application/pdf"
	})).Return(&manager.UploadOutput{}, nil)

	c := NewS3ClientWithAPIs(new(MockObjects), up, new(MockPresigner))
	require.NoError(t, c.Upload(context.Background(), "bucket", "a/b.pdf", "application/pdf", strings.NewReader("x")))
	up.AssertExpectations(t)
}

func TestS3Client_UploadError(t *testing.T) {
	up := new(MockUploader)
	boom := errors.New("denied")
	up.On("Upload", mock.Anything, mock.Anything).Return(nil, boom)

	c := NewS3ClientWithAPIs(new(MockObjects), up, new(MockPresigner))
	err := c.Upload(context.Background(), "bucket", "k", "", strings.NewReader("x"))
	assert.ErrorIs(t, err, boom)
}

func TestS3Client_DownloadAndDelete(t *testing.T) {
	objs := new(MockObjects)
	objs.On("GetObject", mock.Anything, mock.Anything).
		Return(&s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("data"))}, nil)
	objs.On("DeleteObject", mock.Anything, mock.Anything).Return(&s3.DeleteObjectOutput{}, nil)

	c := NewS3ClientWithAPIs(objs, new(MockUploader), new(MockPresigner))

	rc, err := c.Download(context.Background(), "bucket", "k")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))

	require.NoError(t, c.Delete(context.Background(), "bucket", "k"))
	objs.AssertExpectations(t)
}

func TestS3Client_GetPresignedURL(t *testing.T) {
	p := new(MockPresigner)
	p.On("PresignGetObject", mock.Anything, mock.Anything).
		Return(&v4.PresignedHTTPRequest{URL: "https://bucket.s3.amazonaws.com/k?sig"}, nil)

	c := NewS3ClientWithAPIs(new(MockObjects), new(MockUploader), p)
	url, err := c.GetPresignedURL(context.Background(), "bucket", "k", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "https://bucket.s3.amazonaws.com/k?sig", url)
}

func TestArchiveIndex_Put(t *testing.T) {
	db := new(MockDynamo)
	db.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		key, ok := in.Item["key"].(*types.AttributeValueMemberS)
		return aws.ToString(in.TableName) == "report-archive" && ok && key.Value == "r/1.pdf"
	})).Return(&dynamodb.PutItemOutput{}, nil)

	idx := NewArchiveIndex(db, "report-archive")
	require.NoError(t, idx.Put(context.Background(), ArchiveEntry{Key: "r/1.pdf", Format: "pdf", Rows: 3}))
	db.AssertExpectations(t)
}

func TestArchiveIndex_ListPagesAndSorts(t *testing.T) {
	older := ArchiveEntry{Key: "old", GeneratedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	newer := ArchiveEntry{Key: "new", GeneratedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)}
	itemOld, err := attributevalue.MarshalMap(older)
	require.NoError(t, err)
	itemNew, err := attributevalue.MarshalMap(newer)
	require.NoError(t, err)

	db := new(MockDynamo)
	db.On("Scan", mock.Anything, mock.MatchedBy(func(in *dynamodb.ScanInput) bool {
		return in.ExclusiveStartKey == nil
	})).Return(&dynamodb.ScanOutput{
		Items:            []map[string]types.AttributeValue{itemOld},
		LastEvaluatedKey: map[string]types.AttributeValue{"key": &types.AttributeValueMemberS{Value: "old"}},
	}, nil).Once()
	db.On("Scan", mock.Anything, mock.MatchedBy(func(in *dynamodb.ScanInput) bool {
		return in.ExclusiveStartKey != nil
	})).Return(&dynamodb.ScanOutput{
		Items: []map[string]types.AttributeValue{itemNew},
	}, nil).Once()

	entries, err := NewArchiveIndex(db, "t").List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "new", entries[0].Key)
	assert.Equal(t, "old", entries[1].Key)
}
