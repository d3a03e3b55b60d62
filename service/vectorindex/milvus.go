package vectorindex

import (
	"consultant-agent-backend/model"
	"context"
	"fmt"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	client "github.com/milvus-io/milvus/client/v2/milvusclient"
)

// Milvus 基于Milvus的向量库实现，度量方式为COSINE，score即相似度
type Milvus struct {
	client     *client.Client
	collection string
	vectorDim  int
}

var _ Index = &Milvus{}

func NewMilvus(ctx context.Context, endpoint, apiKey, collection string, vectorDim int) (*Milvus, error) {
	c, err := client.New(ctx, &client.ClientConfig{
		Address: endpoint,
		APIKey:  apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create milvus client: %v", err)
	}

	return &Milvus{
		client:     c,
		collection: collection,
		vectorDim:  vectorDim,
	}, nil
}

// Replace 先删除文档旧的chunk集合，删除完成后再批量插入新集合。
// 顺序不可颠倒：插入在前会出现新旧两代chunk同时可见的窗口
func (m *Milvus) Replace(ctx context.Context, meta DocumentMeta, chunks []Chunk) (int, error) {
	if err := m.DeleteDocument(ctx, meta.TenantID, meta.DocumentID); err != nil {
		return 0, err
	}

	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, 0, len(chunks))
	vectors := make([][]float32, 0, len(chunks))
	tenantIDs := make([]string, 0, len(chunks))
	documentIDs := make([]string, 0, len(chunks))
	provenances := make([]string, 0, len(chunks))
	levels := make([]int64, 0, len(chunks))
	tags := make([][]string, 0, len(chunks))

	for _, ch := range chunks {
		if len(ch.Vector) != m.vectorDim {
			return 0, fmt.Errorf("vector dimension mismatch: got %d, want %d", len(ch.Vector), m.vectorDim)
		}
		texts = append(texts, ch.Text)
		vectors = append(vectors, ch.Vector)
		tenantIDs = append(tenantIDs, meta.TenantID)
		documentIDs = append(documentIDs, meta.DocumentID)
		provenances = append(provenances, meta.Provenance)
		levels = append(levels, int64(meta.AccessLevel))
		tags = append(tags, meta.Tags)
	}

	columns := []column.Column{
		column.NewColumnVarChar("tenant_id", tenantIDs),
		column.NewColumnVarChar("document_id", documentIDs),
		column.NewColumnVarChar("text", texts),
		column.NewColumnVarChar("provenance", provenances),
		column.NewColumnInt64("access_level", levels),
		column.NewColumnVarCharArray("tags", tags),
		column.NewColumnFloatVector("vector", m.vectorDim, vectors),
	}

	insertOption := client.NewColumnBasedInsertOption(m.collection).WithColumns(columns...)
	result, err := m.client.Insert(ctx, insertOption)
	if err != nil {
		return 0, fmt.Errorf("error inserting chunks: %v", err)
	}

	return int(result.InsertCount), nil
}

// Search 访问策略在向量库内作为前置过滤，不在排序结果上再筛
func (m *Milvus) Search(ctx context.Context, tenantID string, vector []float32, policy model.AccessPolicy, topK int) ([]ScoredChunk, error) {
	if len(vector) != m.vectorDim {
		return nil, fmt.Errorf("query vector dimension mismatch: got %d, want %d", len(vector), m.vectorDim)
	}

	expr, params := visibilityFilter(tenantID, policy)

	searchOption := client.NewSearchOption(m.collection, topK, []entity.Vector{
		entity.FloatVector(vector),
	}).
		WithANNSField("vector").
		WithFilter(expr).
		WithOutputFields("document_id", "text", "provenance")
	for key, val := range params {
		searchOption = searchOption.WithTemplateParam(key, val)
	}

	resultSets, err := m.client.Search(ctx, searchOption)
	if err != nil {
		return nil, fmt.Errorf("error searching chunks: %v", err)
	}
	if len(resultSets) == 0 {
		return nil, nil
	}

	rs := resultSets[0]
	documentIDs, ok := rs.GetColumn("document_id").(*column.ColumnVarChar)
	if !ok {
		return nil, fmt.Errorf("unexpected document_id column type")
	}
	texts, ok := rs.GetColumn("text").(*column.ColumnVarChar)
	if !ok {
		return nil, fmt.Errorf("unexpected text column type")
	}
	provenances, ok := rs.GetColumn("provenance").(*column.ColumnVarChar)
	if !ok {
		return nil, fmt.Errorf("unexpected provenance column type")
	}

	chunks := make([]ScoredChunk, 0, rs.ResultCount)
	for i := 0; i < rs.ResultCount; i++ {
		chunks = append(chunks, ScoredChunk{
			DocumentID: documentIDs.Data()[i],
			Text:       texts.Data()[i],
			Provenance: provenances.Data()[i],
			Score:      rs.Scores[i],
		})
	}

	return chunks, nil
}

func (m *Milvus) DeleteDocument(ctx context.Context, tenantID, documentID string) error {
	deleteOption := client.NewDeleteOption(m.collection).
		WithExpr(documentFilter(tenantID, documentID))

	if _, err := m.client.Delete(ctx, deleteOption); err != nil {
		return fmt.Errorf("error deleting chunks: %v", err)
	}
	return nil
}
