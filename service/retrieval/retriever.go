package retrieval

import (
	"consultant-agent-backend/model"
	"consultant-agent-backend/service/vectorindex"
	"context"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/embeddings"
)

const (
	DefaultTopK     = 5
	DefaultMinScore = 0.5
)

// Retriever 检索引擎。访问策略在向量库内前置过滤，排序后不再二次筛选；
// 没有候选超过相似度门限时返回明确的空结果，调用方据此渲染
// "未找到相关内容"，而不是凭空编造上下文
type Retriever struct {
	embedder embeddings.Embedder
	index    vectorindex.Index
	rewriter *QueryRewriter // nil表示不做查询改写
	topK     int
	minScore float32
}

func NewRetriever(embedder embeddings.Embedder, index vectorindex.Index, rewriter *QueryRewriter, topK int, minScore float32) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{
		embedder: embedder,
		index:    index,
		rewriter: rewriter,
		topK:     topK,
		minScore: minScore,
	}
}

func (r *Retriever) Retrieve(ctx context.Context, tenantID, query string, history []model.Message, policy model.AccessPolicy) ([]vectorindex.ScoredChunk, error) {
	// 查询改写尽力而为，失败时退回原始查询
	if r.rewriter != nil && len(history) > 0 {
		rewritten, err := r.rewriter.Rewrite(ctx, query, history)
		if err != nil {
			slog.Warn("query rewrite failed, using raw query", "err", err)
		} else if rewritten != "" {
			query = rewritten
		}
	}

	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %v", err)
	}

	candidates, err := r.index.Search(ctx, tenantID, vector, policy, r.topK)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %v", err)
	}

	// 保留相似度达标的候选，维持降序
	results := make([]vectorindex.ScoredChunk, 0, len(candidates))
	for _, ch := range candidates {
		if ch.Score >= r.minScore {
			results = append(results, ch)
		}
	}

	return results, nil
}
