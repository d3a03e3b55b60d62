package retrieval

import (
	"bytes"
	"consultant-agent-backend/model"
	"context"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/tmc/langchaingo/llms"
)

//go:embed prompts/rewrite.txt
var rewritePrompt string

// 改写时最多携带的历史轮数
const maxHistoryMessages = 10

// QueryRewriter 把依赖上下文的追问改写为可独立检索的完整问题
type QueryRewriter struct {
	llm llms.Model
}

func NewQueryRewriter(llm llms.Model) *QueryRewriter {
	return &QueryRewriter{llm: llm}
}

func (r *QueryRewriter) Rewrite(ctx context.Context, query string, history []model.Message) (string, error) {
	if len(history) > maxHistoryMessages {
		history = history[len(history)-maxHistoryMessages:]
	}

	var sb strings.Builder
	for _, msg := range history {
		sb.WriteString(msg.Role)
		sb.WriteString(": ")
		sb.WriteString(msg.Content)
		sb.WriteString("\n")
	}

	tmpl, err := template.New("rewrite").Parse(rewritePrompt)
	if err != nil {
		return "", fmt.Errorf("failed to parse rewrite template: %v", err)
	}

	var buf bytes.Buffer
	data := struct {
		History string
		Query   string
	}{
		History: sb.String(),
		Query:   query,
	}
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute rewrite template: %v", err)
	}

	resp, err := llms.GenerateFromSinglePrompt(ctx, r.llm, buf.String())
	if err != nil {
		return "", fmt.Errorf("llm call error: %w", err)
	}

	return strings.TrimSpace(resp), nil
}
