package chat

import (
	"bytes"
	"consultant-agent-backend/model"
	"consultant-agent-backend/service/retrieval"
	"consultant-agent-backend/service/vectorindex"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"
)

//go:embed prompts/system_prompt.txt
var systemPrompt string

// NoContextPlaceholder 检索无结果时系统提示词中的占位说明，
// 上下文段落始终存在，不省略
const NoContextPlaceholder = "（知识库中未找到相关文档）"

const defaultPersona = "你是一位专业、友善的顾问助手。"

// 每轮对话携带的最大历史条数
const maxHistoryMessages = 20

var (
	ErrSessionNotFound = errors.New("session not found")

	// ErrStreamInterrupted 生成中断，已产生的部分回答不算完整回复
	ErrStreamInterrupted = errors.New("stream interrupted")
)

// Orchestrator 对话编排器。单轮流程：落库用户消息、检索、拼系统提示词、
// 流式生成并在完成后落库助手消息。生成只发起一次，中途失败不重试
type Orchestrator struct {
	llm            llms.Model
	retriever      *retrieval.Retriever
	store          ChatStore
	persistPartial bool
}

func NewOrchestrator(llm llms.Model, retriever *retrieval.Retriever, store ChatStore, persistPartial bool) *Orchestrator {
	return &Orchestrator{
		llm:            llm,
		retriever:      retriever,
		store:          store,
		persistPartial: persistPartial,
	}
}

// ResolveSession 解析或新建会话。新会话用首条消息生成标题
func (o *Orchestrator) ResolveSession(ctx context.Context, tenantID, email, sessionID, firstMessage string) (*model.Session, error) {
	if sessionID == model.NewSessionID {
		session := &model.Session{
			TenantID:  tenantID,
			UserEmail: email,
			SessionID: uuid.New().String(),
			Title:     o.generateTitle(ctx, firstMessage),
		}
		if err := o.store.CreateSession(session); err != nil {
			return nil, fmt.Errorf("failed to create session: %v", err)
		}
		return session, nil
	}

	session, err := o.store.GetSession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %v", err)
	}
	if session == nil || session.TenantID != tenantID || session.UserEmail != email {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Respond 执行一轮对话，将生成的token逐个交给emit，返回完整回答。
// 用户消息先于生成落库，生成失败也不丢用户输入
func (o *Orchestrator) Respond(ctx context.Context, session *model.Session, policy model.AccessPolicy, message string, emit func(token string)) (string, error) {
	history, err := o.store.Messages(session.SessionID)
	if err != nil {
		return "", fmt.Errorf("failed to load history: %v", err)
	}
	if len(history) > maxHistoryMessages {
		history = history[len(history)-maxHistoryMessages:]
	}

	if err := o.store.AddMessage(&model.Message{
		SessionID: session.SessionID,
		Role:      model.RoleUser,
		Content:   message,
	}); err != nil {
		return "", fmt.Errorf("failed to persist user message: %v", err)
	}

	// 检索失败降级为空上下文：对话本身比知识增强更重要
	chunks, err := o.retriever.Retrieve(ctx, session.TenantID, message, history, policy)
	if err != nil {
		slog.Warn("retrieval failed, degrading to empty context",
			"session_id", session.SessionID,
			"err", err,
		)
		chunks = nil
	}

	prompt, err := o.buildSystemPrompt(session.TenantID, chunks)
	if err != nil {
		return "", err
	}

	messages := make([]llms.MessageContent, 0, len(history)+2)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, prompt))
	for _, msg := range history {
		role := llms.ChatMessageTypeHuman
		if msg.Role == model.RoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, msg.Content))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, message))

	var full strings.Builder
	_, err = o.llm.GenerateContent(ctx, messages,
		llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			full.Write(chunk)
			emit(string(chunk))
			return nil
		}),
	)
	if err != nil {
		// 中断或失败：部分回答默认丢弃，不当作完整回复落库
		if o.persistPartial && full.Len() > 0 {
			o.persistAssistantMessage(session.SessionID, full.String())
		}
		return "", fmt.Errorf("%w: %v", ErrStreamInterrupted, err)
	}

	if err := o.persistAssistantMessage(session.SessionID, full.String()); err != nil {
		return "", err
	}

	return full.String(), nil
}

// persistAssistantMessage 落库助手消息并刷新会话活跃时间，
// 两者属于同一逻辑步骤：消息到了但排序不动是可见的bug
func (o *Orchestrator) persistAssistantMessage(sessionID, content string) error {
	if err := o.store.AddMessage(&model.Message{
		SessionID: sessionID,
		Role:      model.RoleAssistant,
		Content:   content,
	}); err != nil {
		return fmt.Errorf("failed to persist assistant message: %v", err)
	}
	if err := o.store.Touch(sessionID); err != nil {
		return fmt.Errorf("failed to touch session: %v", err)
	}
	return nil
}

func (o *Orchestrator) buildSystemPrompt(tenantID string, chunks []vectorindex.ScoredChunk) (string, error) {
	persona := defaultPersona
	tenant, err := o.store.Tenant(tenantID)
	if err != nil {
		slog.Warn("failed to load tenant, using default persona", "tenant_id", tenantID, "err", err)
	} else if tenant != nil && tenant.Persona != "" {
		persona = tenant.Persona
	}

	contextBlock := NoContextPlaceholder
	if len(chunks) > 0 {
		var sb strings.Builder
		for i, ch := range chunks {
			fmt.Fprintf(&sb, "【片段%d】%s\n", i+1, ch.Text)
		}
		contextBlock = sb.String()
	}

	tmpl, err := template.New("system").Parse(systemPrompt)
	if err != nil {
		return "", fmt.Errorf("failed to parse system prompt template: %v", err)
	}

	var buf bytes.Buffer
	data := struct {
		Persona string
		Context string
	}{
		Persona: persona,
		Context: contextBlock,
	}
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute system prompt template: %v", err)
	}

	return buf.String(), nil
}
