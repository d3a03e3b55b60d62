package ingest

import (
	"consultant-agent-backend/model"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDocumentStore struct {
	doc       *model.Document
	claimed   bool
	completed bool
	summary   string
	charCount int
	failedMsg string
	language  string
}

func (f *fakeDocumentStore) Get(string) (*model.Document, error) {
	return f.doc, nil
}

func (f *fakeDocumentStore) Claim(string) error {
	f.claimed = true
	f.doc.Status = model.StatusProcessing
	f.summary = ""
	f.charCount = 0
	f.failedMsg = ""
	return nil
}

func (f *fakeDocumentStore) Complete(_ string, summary string, charCount int) error {
	f.completed = true
	f.summary = summary
	f.charCount = charCount
	f.doc.Status = model.StatusCompleted
	return nil
}

func (f *fakeDocumentStore) Fail(_ string, message string) error {
	f.failedMsg = message
	f.doc.Status = model.StatusFailed
	return nil
}

func (f *fakeDocumentStore) FailStale(time.Duration) (int64, error) {
	return 0, nil
}

func (f *fakeDocumentStore) Language(string) (string, error) {
	if f.language == "" {
		return "zh", nil
	}
	return f.language, nil
}

func newTestPipeline(docs *fakeDocumentStore, store *fakeObjectStore, index *fakeIndex) *Pipeline {
	extractor := NewExtractor(store, nil, nil, 5, time.Minute)
	chunker := NewChunker(100, 20)
	indexer := NewIndexer(&fakeEmbedder{}, index)
	return NewPipeline(docs, store, extractor, chunker, indexer, 10, 30)
}

func TestProcess_HappyPath(t *testing.T) {
	content := strings.Repeat("知识库中的一段内容。", 30)
	docs := &fakeDocumentStore{doc: &model.Document{
		ID:         "doc-1",
		TenantID:   "tenant-1",
		FileName:   "note.txt",
		StorageKey: "tenant-1/note.txt",
		MediaKind:  model.MediaKindText,
		Status:     model.StatusPending,
	}}
	store := &fakeObjectStore{objects: map[string][]byte{
		"tenant-1/note.txt": []byte(content),
	}}
	index := &fakeIndex{}

	err := newTestPipeline(docs, store, index).Process(context.Background(), "doc-1")
	require.NoError(t, err)

	assert.True(t, docs.claimed)
	assert.True(t, docs.completed)
	assert.Equal(t, model.StatusCompleted, docs.doc.Status)
	assert.Equal(t, []string{"delete", "replace"}, index.ops)

	// 摘要为规整文本的前30个字符
	assert.Equal(t, 30, len([]rune(docs.summary)))
	assert.True(t, strings.HasPrefix(NormalizeText(content), docs.summary))
	assert.Equal(t, len([]rune(NormalizeText(content))), docs.charCount)
}

func TestProcess_TooShortTextFails(t *testing.T) {
	docs := &fakeDocumentStore{doc: &model.Document{
		ID:         "doc-1",
		TenantID:   "tenant-1",
		FileName:   "note.txt",
		StorageKey: "tenant-1/note.txt",
		MediaKind:  model.MediaKindText,
		Status:     model.StatusPending,
	}}
	store := &fakeObjectStore{objects: map[string][]byte{
		"tenant-1/note.txt": []byte("太短了"),
	}}
	index := &fakeIndex{}

	err := newTestPipeline(docs, store, index).Process(context.Background(), "doc-1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoUsableText))
	assert.Equal(t, model.StatusFailed, docs.doc.Status)
	assert.NotEmpty(t, docs.failedMsg)
	assert.Empty(t, index.ops, "无可用文本时不应触碰索引")
}

func TestProcess_DownloadFailureMarksFailed(t *testing.T) {
	docs := &fakeDocumentStore{doc: &model.Document{
		ID:         "doc-1",
		TenantID:   "tenant-1",
		StorageKey: "tenant-1/missing.txt",
		MediaKind:  model.MediaKindText,
		Status:     model.StatusPending,
	}}
	store := &fakeObjectStore{getErr: errors.New("object not found")}

	err := newTestPipeline(docs, store, &fakeIndex{}).Process(context.Background(), "doc-1")

	require.Error(t, err)
	assert.Equal(t, model.StatusFailed, docs.doc.Status)
	assert.Contains(t, docs.failedMsg, "download")
}

func TestProcess_MissingDocument(t *testing.T) {
	docs := &fakeDocumentStore{doc: nil}

	// Get返回nil时直接报错，不经过状态机
	p := NewPipeline(docs, &fakeObjectStore{}, nil, nil, nil, 10, 30)
	err := p.Process(context.Background(), "ghost")
	assert.Error(t, err)
}

func TestProcess_ReprocessIsIdempotent(t *testing.T) {
	content := strings.Repeat("可重复处理的内容。", 30)
	docs := &fakeDocumentStore{doc: &model.Document{
		ID:         "doc-1",
		TenantID:   "tenant-1",
		FileName:   "note.txt",
		StorageKey: "tenant-1/note.txt",
		MediaKind:  model.MediaKindText,
		Status:     model.StatusCompleted,
	}}
	store := &fakeObjectStore{objects: map[string][]byte{
		"tenant-1/note.txt": []byte(content),
	}}
	index := &fakeIndex{}
	p := newTestPipeline(docs, store, index)

	require.NoError(t, p.Process(context.Background(), "doc-1"))
	require.NoError(t, p.Process(context.Background(), "doc-1"))

	// 每轮处理都先清空旧chunk再写入
	assert.Equal(t, []string{"delete", "replace", "delete", "replace"}, index.ops)
	assert.Equal(t, model.StatusCompleted, docs.doc.Status)
}

func TestProcess_FailedRerunClearsPriorResults(t *testing.T) {
	docs := &fakeDocumentStore{
		doc: &model.Document{
			ID:         "doc-1",
			TenantID:   "tenant-1",
			FileName:   "note.txt",
			StorageKey: "tenant-1/note.txt",
			MediaKind:  model.MediaKindText,
			Status:     model.StatusCompleted,
		},
		summary:   "上一轮的摘要",
		charCount: 300,
	}
	store := &fakeObjectStore{getErr: errors.New("object not found")}

	err := newTestPipeline(docs, store, &fakeIndex{}).Process(context.Background(), "doc-1")

	// 重跑失败后不应残留上一轮的摘要与字符数
	require.Error(t, err)
	assert.Equal(t, model.StatusFailed, docs.doc.Status)
	assert.Empty(t, docs.summary)
	assert.Zero(t, docs.charCount)
}
