package retrieval

import (
	"consultant-agent-backend/model"
	"consultant-agent-backend/service/vectorindex"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = []float32{1}
	}
	return vectors, nil
}

func (f *fakeEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{1}, nil
}

// indexedChunk 模拟向量库中一条带访问元数据的记录
type indexedChunk struct {
	chunk       vectorindex.ScoredChunk
	accessLevel int
	tags        []string
}

// fakeIndex 在Search内应用访问策略过滤，模拟向量库的前置过滤语义
type fakeIndex struct {
	records   []indexedChunk
	searchErr error
}

func (f *fakeIndex) Replace(_ context.Context, _ vectorindex.DocumentMeta, chunks []vectorindex.Chunk) (int, error) {
	return len(chunks), nil
}

func (f *fakeIndex) Search(_ context.Context, _ string, _ []float32, policy model.AccessPolicy, topK int) ([]vectorindex.ScoredChunk, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	var out []vectorindex.ScoredChunk
	for _, rec := range f.records {
		if !policy.AllowsDocument(rec.accessLevel, rec.tags) {
			continue
		}
		out = append(out, rec.chunk)
		if len(out) == topK {
			break
		}
	}
	return out, nil
}

func (f *fakeIndex) DeleteDocument(context.Context, string, string) error {
	return nil
}

type fakeLLM struct {
	response string
	err      error
	calls    int
}

func (f *fakeLLM) GenerateContent(context.Context, []llms.MessageContent, ...llms.CallOption) (*llms.ContentResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: f.response}},
	}, nil
}

func (f *fakeLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := f.GenerateContent(ctx, []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)}, options...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

func TestRetrieve_AccessFilterPrecedesRanking(t *testing.T) {
	// 等级10的文档即便是唯一高分候选，对等级5的请求方也不可见
	index := &fakeIndex{records: []indexedChunk{
		{
			chunk:       vectorindex.ScoredChunk{DocumentID: "secret", Text: "机密内容", Score: 0.99},
			accessLevel: 10,
		},
		{
			chunk:       vectorindex.ScoredChunk{DocumentID: "public", Text: "公开内容", Score: 0.7},
			accessLevel: 0,
		},
	}}
	r := NewRetriever(&fakeEmbedder{}, index, nil, 5, 0.5)

	results, err := r.Retrieve(context.Background(), "tenant-1", "问题", nil, model.AccessPolicy{Level: 5})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "public", results[0].DocumentID)
}

func TestRetrieve_TagIntersection(t *testing.T) {
	index := &fakeIndex{records: []indexedChunk{
		{
			chunk: vectorindex.ScoredChunk{DocumentID: "tagged", Score: 0.9},
			tags:  []string{"内科", "营养"},
		},
		{
			chunk: vectorindex.ScoredChunk{DocumentID: "untagged", Score: 0.8},
		},
		{
			chunk: vectorindex.ScoredChunk{DocumentID: "other-dept", Score: 0.7},
			tags:  []string{"外科"},
		},
	}}
	r := NewRetriever(&fakeEmbedder{}, index, nil, 5, 0.5)

	results, err := r.Retrieve(context.Background(), "tenant-1", "问题", nil, model.AccessPolicy{
		Level: 0,
		Tags:  []string{"营养"},
	})
	require.NoError(t, err)

	// 无标签的文档全员可见，有标签的需要交集
	require.Len(t, results, 2)
	assert.Equal(t, "tagged", results[0].DocumentID)
	assert.Equal(t, "untagged", results[1].DocumentID)
}

func TestRetrieve_ScoreThresholdYieldsEmptyResult(t *testing.T) {
	index := &fakeIndex{records: []indexedChunk{
		{chunk: vectorindex.ScoredChunk{DocumentID: "weak", Score: 0.31}},
		{chunk: vectorindex.ScoredChunk{DocumentID: "weaker", Score: 0.12}},
	}}
	r := NewRetriever(&fakeEmbedder{}, index, nil, 5, 0.5)

	results, err := r.Retrieve(context.Background(), "tenant-1", "无关问题", nil, model.AccessPolicy{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrieve_KeepsDescendingOrder(t *testing.T) {
	index := &fakeIndex{records: []indexedChunk{
		{chunk: vectorindex.ScoredChunk{DocumentID: "a", Score: 0.95}},
		{chunk: vectorindex.ScoredChunk{DocumentID: "b", Score: 0.4}},
		{chunk: vectorindex.ScoredChunk{DocumentID: "c", Score: 0.82}},
	}}
	r := NewRetriever(&fakeEmbedder{}, index, nil, 5, 0.5)

	results, err := r.Retrieve(context.Background(), "tenant-1", "问题", nil, model.AccessPolicy{})
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].DocumentID)
	assert.Equal(t, "c", results[1].DocumentID)
}

func TestRetrieve_RewriteFailureFallsBackToRawQuery(t *testing.T) {
	index := &fakeIndex{records: []indexedChunk{
		{chunk: vectorindex.ScoredChunk{DocumentID: "a", Score: 0.9}},
	}}
	llm := &fakeLLM{err: errors.New("model unavailable")}
	r := NewRetriever(&fakeEmbedder{}, index, NewQueryRewriter(llm), 5, 0.5)

	history := []model.Message{{Role: model.RoleUser, Content: "之前的问题"}}
	results, err := r.Retrieve(context.Background(), "tenant-1", "那它呢", history, model.AccessPolicy{})

	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, 1, llm.calls)
}

func TestRetrieve_NoHistorySkipsRewrite(t *testing.T) {
	llm := &fakeLLM{response: "改写后的问题"}
	index := &fakeIndex{}
	r := NewRetriever(&fakeEmbedder{}, index, NewQueryRewriter(llm), 5, 0.5)

	_, err := r.Retrieve(context.Background(), "tenant-1", "首个问题", nil, model.AccessPolicy{})
	require.NoError(t, err)
	assert.Equal(t, 0, llm.calls)
}

func TestRetrieve_EmbedFailure(t *testing.T) {
	r := NewRetriever(&fakeEmbedder{err: errors.New("quota exceeded")}, &fakeIndex{}, nil, 5, 0.5)

	_, err := r.Retrieve(context.Background(), "tenant-1", "问题", nil, model.AccessPolicy{})
	assert.Error(t, err)
}

func TestRetrieve_SearchFailure(t *testing.T) {
	r := NewRetriever(&fakeEmbedder{}, &fakeIndex{searchErr: errors.New("milvus down")}, nil, 5, 0.5)

	_, err := r.Retrieve(context.Background(), "tenant-1", "问题", nil, model.AccessPolicy{})
	assert.Error(t, err)
}
