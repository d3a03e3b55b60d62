package chat

import (
	"consultant-agent-backend/model"
	"consultant-agent-backend/service/retrieval"
	"consultant-agent-backend/service/vectorindex"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type fakeChatStore struct {
	sessions map[string]*model.Session
	messages map[string][]model.Message
	tenant   *model.Tenant
	touched  []string
}

func newFakeChatStore() *fakeChatStore {
	return &fakeChatStore{
		sessions: map[string]*model.Session{},
		messages: map[string][]model.Message{},
	}
}

func (f *fakeChatStore) GetSession(sessionID string) (*model.Session, error) {
	return f.sessions[sessionID], nil
}

func (f *fakeChatStore) CreateSession(session *model.Session) error {
	f.sessions[session.SessionID] = session
	return nil
}

func (f *fakeChatStore) Messages(sessionID string) ([]model.Message, error) {
	return f.messages[sessionID], nil
}

func (f *fakeChatStore) AddMessage(message *model.Message) error {
	f.messages[message.SessionID] = append(f.messages[message.SessionID], *message)
	return nil
}

func (f *fakeChatStore) Touch(sessionID string) error {
	f.touched = append(f.touched, sessionID)
	return nil
}

func (f *fakeChatStore) Tenant(string) (*model.Tenant, error) {
	return f.tenant, nil
}

// streamLLM 按token流式返回固定回答，可在中途注入失败
type streamLLM struct {
	tokens     []string
	failAfter  int // 发出多少个token后失败，-1表示不失败
	lastPrompt string
}

func (f *streamLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	var opts llms.CallOptions
	for _, opt := range options {
		opt(&opts)
	}

	for _, part := range messages[0].Parts {
		if text, ok := part.(llms.TextContent); ok {
			f.lastPrompt = text.Text
		}
	}

	var full strings.Builder
	for i, token := range f.tokens {
		if f.failAfter >= 0 && i == f.failAfter {
			return nil, errors.New("upstream closed connection")
		}
		full.WriteString(token)
		if opts.StreamingFunc != nil {
			if err := opts.StreamingFunc(ctx, []byte(token)); err != nil {
				return nil, err
			}
		}
	}

	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: full.String()}},
	}, nil
}

func (f *streamLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := f.GenerateContent(ctx, []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)}, options...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

type stubEmbedder struct{}

func (stubEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = []float32{1}
	}
	return vectors, nil
}

func (stubEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return []float32{1}, nil
}

type stubIndex struct {
	chunks    []vectorindex.ScoredChunk
	searchErr error
}

func (s *stubIndex) Replace(_ context.Context, _ vectorindex.DocumentMeta, chunks []vectorindex.Chunk) (int, error) {
	return len(chunks), nil
}

func (s *stubIndex) Search(context.Context, string, []float32, model.AccessPolicy, int) ([]vectorindex.ScoredChunk, error) {
	return s.chunks, s.searchErr
}

func (s *stubIndex) DeleteDocument(context.Context, string, string) error {
	return nil
}

func testOrchestrator(llm llms.Model, store ChatStore, index *stubIndex, persistPartial bool) *Orchestrator {
	retriever := retrieval.NewRetriever(stubEmbedder{}, index, nil, 5, 0.5)
	return NewOrchestrator(llm, retriever, store, persistPartial)
}

func existingSession(store *fakeChatStore) *model.Session {
	session := &model.Session{
		TenantID:  "tenant-1",
		UserEmail: "user@example.com",
		SessionID: "session-1",
		Title:     "既有会话",
	}
	store.sessions[session.SessionID] = session
	return session
}

func TestResolveSession_NewCreatesWithGeneratedTitle(t *testing.T) {
	store := newFakeChatStore()
	llm := &streamLLM{tokens: []string{"血糖管理咨询"}, failAfter: -1}
	o := testOrchestrator(llm, store, &stubIndex{}, false)

	session, err := o.ResolveSession(context.Background(), "tenant-1", "user@example.com", model.NewSessionID, "我该如何控制血糖？")
	require.NoError(t, err)

	assert.NotEqual(t, model.NewSessionID, session.SessionID)
	assert.Equal(t, "血糖管理咨询", session.Title)
	assert.Equal(t, "tenant-1", session.TenantID)
	assert.Contains(t, store.sessions, session.SessionID)
}

func TestResolveSession_TitleFallbackOnLLMFailure(t *testing.T) {
	store := newFakeChatStore()
	llm := &streamLLM{tokens: []string{"x"}, failAfter: 0}
	o := testOrchestrator(llm, store, &stubIndex{}, false)

	first := strings.Repeat("很长的首条消息", 10)
	session, err := o.ResolveSession(context.Background(), "tenant-1", "user@example.com", model.NewSessionID, first)
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(session.Title, "..."))
	assert.Equal(t, 33, len([]rune(session.Title)))
}

func TestResolveSession_OwnershipMismatch(t *testing.T) {
	store := newFakeChatStore()
	existingSession(store)
	o := testOrchestrator(&streamLLM{failAfter: -1}, store, &stubIndex{}, false)

	_, err := o.ResolveSession(context.Background(), "tenant-2", "user@example.com", "session-1", "")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = o.ResolveSession(context.Background(), "tenant-1", "other@example.com", "session-1", "")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRespond_StreamsAndPersistsBothMessages(t *testing.T) {
	store := newFakeChatStore()
	session := existingSession(store)
	llm := &streamLLM{tokens: []string{"建议", "控制", "饮食"}, failAfter: -1}
	index := &stubIndex{chunks: []vectorindex.ScoredChunk{
		{DocumentID: "doc-1", Text: "低GI饮食有助于血糖平稳", Score: 0.9},
	}}
	o := testOrchestrator(llm, store, index, false)

	var streamed []string
	answer, err := o.Respond(context.Background(), session, model.AccessPolicy{}, "饮食上要注意什么？", func(token string) {
		streamed = append(streamed, token)
	})
	require.NoError(t, err)

	assert.Equal(t, "建议控制饮食", answer)
	assert.Equal(t, []string{"建议", "控制", "饮食"}, streamed)

	msgs := store.messages[session.SessionID]
	require.Len(t, msgs, 2)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.Equal(t, "饮食上要注意什么？", msgs[0].Content)
	assert.Equal(t, model.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "建议控制饮食", msgs[1].Content)

	// 助手消息落库的同时刷新会话活跃时间
	assert.Equal(t, []string{session.SessionID}, store.touched)

	// 检索结果注入系统提示词
	assert.Contains(t, llm.lastPrompt, "【片段1】低GI饮食有助于血糖平稳")
}

func TestRespond_NoRetrievalResultsUsesPlaceholder(t *testing.T) {
	store := newFakeChatStore()
	session := existingSession(store)
	llm := &streamLLM{tokens: []string{"好的"}, failAfter: -1}
	o := testOrchestrator(llm, store, &stubIndex{}, false)

	_, err := o.Respond(context.Background(), session, model.AccessPolicy{}, "你好", func(string) {})
	require.NoError(t, err)

	// 上下文段落始终存在，无结果时为占位说明
	assert.Contains(t, llm.lastPrompt, NoContextPlaceholder)
}

func TestRespond_RetrievalFailureDegradesToEmptyContext(t *testing.T) {
	store := newFakeChatStore()
	session := existingSession(store)
	llm := &streamLLM{tokens: []string{"回答"}, failAfter: -1}
	index := &stubIndex{searchErr: errors.New("milvus down")}
	o := testOrchestrator(llm, store, index, false)

	answer, err := o.Respond(context.Background(), session, model.AccessPolicy{}, "问题", func(string) {})
	require.NoError(t, err)
	assert.Equal(t, "回答", answer)
	assert.Contains(t, llm.lastPrompt, NoContextPlaceholder)
}

func TestRespond_MidStreamFailureKeepsUserDropsPartial(t *testing.T) {
	store := newFakeChatStore()
	session := existingSession(store)
	llm := &streamLLM{tokens: []string{"部分", "回答", "内容"}, failAfter: 2}
	o := testOrchestrator(llm, store, &stubIndex{}, false)

	_, err := o.Respond(context.Background(), session, model.AccessPolicy{}, "问题", func(string) {})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStreamInterrupted)

	// 用户消息在生成前已落库，部分回答默认丢弃
	msgs := store.messages[session.SessionID]
	require.Len(t, msgs, 1)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.Empty(t, store.touched)
}

func TestRespond_MidStreamFailurePersistsPartialWhenConfigured(t *testing.T) {
	store := newFakeChatStore()
	session := existingSession(store)
	llm := &streamLLM{tokens: []string{"部分", "回答", "内容"}, failAfter: 2}
	o := testOrchestrator(llm, store, &stubIndex{}, true)

	_, err := o.Respond(context.Background(), session, model.AccessPolicy{}, "问题", func(string) {})
	require.Error(t, err)

	msgs := store.messages[session.SessionID]
	require.Len(t, msgs, 2)
	assert.Equal(t, model.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "部分回答", msgs[1].Content)
}

func TestRespond_TenantPersonaInjected(t *testing.T) {
	store := newFakeChatStore()
	store.tenant = &model.Tenant{ID: "tenant-1", Persona: "你是一位资深营养师。"}
	session := existingSession(store)
	llm := &streamLLM{tokens: []string{"好"}, failAfter: -1}
	o := testOrchestrator(llm, store, &stubIndex{}, false)

	_, err := o.Respond(context.Background(), session, model.AccessPolicy{}, "你好", func(string) {})
	require.NoError(t, err)
	assert.Contains(t, llm.lastPrompt, "你是一位资深营养师。")
}
