package ingest

import (
	"consultant-agent-backend/model"
	"consultant-agent-backend/service/storage"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"
)

// ErrNoUsableText 提取结果经规整后不足最小长度
var ErrNoUsableText = errors.New("no usable text extracted")

// Pipeline 文档处理流水线：领取任务、提取、切片、嵌入写入，
// 并维护 PENDING -> PROCESSING -> {COMPLETED | FAILED} 状态机。
// 任何阶段的错误都在这里收口为文档的FAILED状态，worker不崩溃
type Pipeline struct {
	docs         DocumentStore
	store        storage.ObjectStore
	extractor    *Extractor
	chunker      *Chunker
	indexer      *Indexer
	minTextChars int
	summaryChars int
}

func NewPipeline(docs DocumentStore, store storage.ObjectStore, extractor *Extractor, chunker *Chunker, indexer *Indexer, minTextChars, summaryChars int) *Pipeline {
	return &Pipeline{
		docs:         docs,
		store:        store,
		extractor:    extractor,
		chunker:      chunker,
		indexer:      indexer,
		minTextChars: minTextChars,
		summaryChars: summaryChars,
	}
}

// Process 对单个文档执行一轮完整的处理。可对FAILED/COMPLETED文档
// 重复调用：每轮都会先清空旧chunk再写入，结果幂等
func (p *Pipeline) Process(ctx context.Context, documentID string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panic: %v", r)
			if failErr := p.docs.Fail(documentID, err.Error()); failErr != nil {
				slog.Error("failed to mark document failed", "document_id", documentID, "err", failErr)
			}
		}
	}()

	doc, err := p.docs.Get(documentID)
	if err != nil {
		return fmt.Errorf("failed to load document: %v", err)
	}
	if doc == nil {
		return fmt.Errorf("document not found: %s", documentID)
	}

	if err := p.docs.Claim(doc.ID); err != nil {
		return fmt.Errorf("failed to claim document: %v", err)
	}

	if err := p.run(ctx, doc); err != nil {
		slog.Error("document processing failed",
			"document_id", doc.ID,
			"err", err,
		)
		if failErr := p.docs.Fail(doc.ID, err.Error()); failErr != nil {
			slog.Error("failed to mark document failed", "document_id", doc.ID, "err", failErr)
		}
		return err
	}

	return nil
}

func (p *Pipeline) run(ctx context.Context, doc *model.Document) error {
	var data []byte
	if doc.MediaKind == model.MediaKindText {
		var err error
		data, err = p.store.Get(ctx, doc.StorageKey)
		if err != nil {
			return fmt.Errorf("failed to download document: %v", err)
		}
	}

	language, err := p.docs.Language(doc.TenantID)
	if err != nil {
		return fmt.Errorf("failed to load tenant language: %v", err)
	}

	result, err := p.extractor.Extract(ctx, doc, data, language)
	if err != nil {
		return err
	}

	text := NormalizeText(result.Text)
	charCount := utf8.RuneCountInString(text)
	if charCount < p.minTextChars {
		return ErrNoUsableText
	}

	chunks := p.chunker.Chunk(text)
	count, err := p.indexer.Reindex(ctx, doc, chunks, result.Strategy)
	if err != nil {
		return err
	}

	slog.Info("document indexed",
		"document_id", doc.ID,
		"strategy", result.Strategy,
		"char_count", charCount,
		"chunk_count", count,
	)

	return p.docs.Complete(doc.ID, leadingChars(text, p.summaryChars), charCount)
}

// leadingChars 取规整文本的前n个字符作为摘要
func leadingChars(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}

// StartJanitor 周期性将滞留在PROCESSING超过staleTimeout的文档置为失败，
// 避免worker中途退出后文档永久卡在非终态
func (p *Pipeline) StartJanitor(ctx context.Context, interval, staleTimeout time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				count, err := p.docs.FailStale(staleTimeout)
				if err != nil {
					slog.Error("failed to fail stale documents", "err", err)
					continue
				}
				if count > 0 {
					slog.Warn("failed stale processing documents", "count", count)
				}
			}
		}
	}()
}
