package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aliyun/alibabacloud-oss-go-sdk-v2/oss"
	"github.com/aliyun/alibabacloud-oss-go-sdk-v2/oss/credentials"
)

// OSSStore 基于阿里云OSS的对象存储实现
type OSSStore struct {
	client *oss.Client
	bucket string
}

var _ ObjectStore = &OSSStore{}

func NewOSSStore(region, accessKeyID, accessKeySecret, bucket string) *OSSStore {
	cfg := &oss.Config{
		Region: oss.Ptr(region),
		CredentialsProvider: credentials.NewStaticCredentialsProvider(
			accessKeyID,
			accessKeySecret,
		),
	}

	return &OSSStore{
		client: oss.NewClient(cfg),
		bucket: bucket,
	}
}

func (s *OSSStore) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := s.client.GetObject(ctx, &oss.GetObjectRequest{
		Bucket: oss.Ptr(s.bucket),
		Key:    oss.Ptr(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object from oss: %v", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object: %v", err)
	}

	return data, nil
}

func (s *OSSStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	result, err := s.client.Presign(ctx, &oss.GetObjectRequest{
		Bucket: oss.Ptr(s.bucket),
		Key:    oss.Ptr(key),
	}, oss.PresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("failed to presign get url: %v", err)
	}
	return result.URL, nil
}

func (s *OSSStore) PresignPut(ctx context.Context, key string, ttl time.Duration) (string, error) {
	result, err := s.client.Presign(ctx, &oss.PutObjectRequest{
		Bucket: oss.Ptr(s.bucket),
		Key:    oss.Ptr(key),
	}, oss.PresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("failed to presign put url: %v", err)
	}
	return result.URL, nil
}

func (s *OSSStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &oss.DeleteObjectRequest{
		Bucket: oss.Ptr(s.bucket),
		Key:    oss.Ptr(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object from oss: %v", err)
	}
	return nil
}
