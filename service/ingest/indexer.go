package ingest

import (
	"consultant-agent-backend/model"
	"consultant-agent-backend/service/vectorindex"
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
)

// Indexer 嵌入与索引写入器。对文档chunk集合做全量替换，
// 任何一个chunk嵌入失败则整体中止：半索引比无索引更糟，
// 检索无法区分"相关chunk少"与"索引不完整"
type Indexer struct {
	embedder embeddings.Embedder
	index    vectorindex.Index
}

func NewIndexer(embedder embeddings.Embedder, index vectorindex.Index) *Indexer {
	return &Indexer{
		embedder: embedder,
		index:    index,
	}
}

func (i *Indexer) Reindex(ctx context.Context, doc *model.Document, chunks []string, strategy Strategy) (int, error) {
	// 先清空旧chunk。嵌入失败时文档保持"未索引"状态而非新旧混存，
	// 一致性优先于可用性
	if err := i.index.DeleteDocument(ctx, doc.TenantID, doc.ID); err != nil {
		return 0, fmt.Errorf("failed to purge prior chunks: %v", err)
	}

	vectors, err := i.embedder.EmbedDocuments(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("failed to embed chunks: %v", err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embedding count mismatch: got %d vectors for %d chunks", len(vectors), len(chunks))
	}

	indexChunks := make([]vectorindex.Chunk, 0, len(chunks))
	for idx, text := range chunks {
		indexChunks = append(indexChunks, vectorindex.Chunk{
			Text:   text,
			Vector: vectors[idx],
		})
	}

	meta := vectorindex.DocumentMeta{
		TenantID:    doc.TenantID,
		DocumentID:  doc.ID,
		Provenance:  string(strategy),
		AccessLevel: doc.AccessLevel,
		Tags:        doc.Tags,
	}

	count, err := i.index.Replace(ctx, meta, indexChunks)
	if err != nil {
		return 0, fmt.Errorf("failed to write chunks: %v", err)
	}

	return count, nil
}
