package chat

import (
	"bytes"
	"consultant-agent-backend/model"
	"context"
	_ "embed"
	"strings"
	"text/template"

	"github.com/tmc/langchaingo/llms"
)

//go:embed prompts/title.txt
var titlePrompt string

// LLM生成失败时截取首条消息作为标题的长度
const fallbackTitleRunes = 30

// generateTitle 用短补全为新会话生成标题，失败时截断首条消息兜底
func (o *Orchestrator) generateTitle(ctx context.Context, firstMessage string) string {
	title, err := o.completeTitle(ctx, firstMessage)
	if err == nil && title != "" {
		return title
	}

	runes := []rune(strings.TrimSpace(firstMessage))
	if len(runes) == 0 {
		return model.DefaultSessionTitle
	}
	if len(runes) > fallbackTitleRunes {
		return string(runes[:fallbackTitleRunes]) + "..."
	}
	return string(runes)
}

func (o *Orchestrator) completeTitle(ctx context.Context, firstMessage string) (string, error) {
	tmpl, err := template.New("title").Parse(titlePrompt)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	data := struct {
		Message string
	}{
		Message: firstMessage,
	}
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	resp, err := llms.GenerateFromSinglePrompt(ctx, o.llm, buf.String())
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(resp), nil
}
