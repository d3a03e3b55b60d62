package ingest

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/tmc/langchaingo/documentloaders"
)

// extractFast 零成本的本地结构化解析。可恢复的失败返回空串，
// 由调用方的质量门限决定是否升级
func extractFast(ctx context.Context, data []byte, fileName string) string {
	var text string

	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".pdf":
		text = extractPDF(ctx, data)
	default:
		// txt/md等纯文本直接取原始内容
		text = string(data)
	}

	return decodeResidualEncoding(text)
}

func extractPDF(ctx context.Context, data []byte) string {
	loader := documentloaders.NewPDF(bytes.NewReader(data), int64(len(data)))

	docs, err := loader.Load(ctx)
	if err != nil {
		slog.Warn("fast pdf extraction failed", "err", err)
		return ""
	}

	pages := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc.PageContent != "" {
			pages = append(pages, doc.PageContent)
		}
	}

	return strings.Join(pages, "\n\n")
}

// decodeResidualEncoding 解码解析器残留的百分号编码，失败时保留原文
func decodeResidualEncoding(text string) string {
	if !strings.Contains(text, "%") {
		return text
	}
	decoded, err := url.PathUnescape(text)
	if err != nil {
		return text
	}
	return decoded
}
