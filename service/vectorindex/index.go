package vectorindex

import (
	"consultant-agent-backend/model"
	"context"
)

// Chunk 一段待写入的文本窗口及其向量
type Chunk struct {
	Text   string
	Vector []float32
}

// DocumentMeta 写入时随每个chunk冗余存储的文档元数据，用于检索前过滤
type DocumentMeta struct {
	TenantID    string
	DocumentID  string
	Provenance  string
	AccessLevel int
	Tags        []string
}

type ScoredChunk struct {
	DocumentID string
	Text       string
	Provenance string
	Score      float32
}

// Index 向量库能力。Replace为先删后插的全量替换，重建索引期间
// 同一文档的chunk只属于一个"代"，不允许新旧混存
type Index interface {
	Replace(ctx context.Context, meta DocumentMeta, chunks []Chunk) (int, error)
	Search(ctx context.Context, tenantID string, vector []float32, policy model.AccessPolicy, topK int) ([]ScoredChunk, error)
	DeleteDocument(ctx context.Context, tenantID, documentID string) error
}
