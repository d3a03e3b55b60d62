package storage

import (
	"context"
	"time"
)

// ObjectStore 对象存储能力。上传走签名URL直传，服务端只读取与删除
type ObjectStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	PresignPut(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}
