package ingest

import (
	"consultant-agent-backend/model"
	"consultant-agent-backend/service/storage"
	"consultant-agent-backend/service/transcription"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Strategy 提取策略，作为溯源信息写到该文档的每个chunk上
type Strategy string

const (
	StrategyFast          Strategy = "FAST"
	StrategySmart         Strategy = "SMART"
	StrategyTranscription Strategy = "TRANSCRIPTION"
)

type ExtractResult struct {
	Text     string
	Strategy Strategy
}

// SmartParser OCR/Markdown转换能力，处理扫描件等快速提取失败的文档
type SmartParser interface {
	Parse(ctx context.Context, data []byte, fileName, language string) (string, error)
}

// Extractor 提取级联：先尝试零成本的本地快速提取，结果过短时升级到
// 智能提取；音频/视频只走转写，失败不再降级
type Extractor struct {
	store           storage.ObjectStore
	smart           SmartParser               // nil表示未配置
	transcriber     transcription.Transcriber // nil表示未配置
	minFastChars    int
	strategyTimeout time.Duration
}

func NewExtractor(store storage.ObjectStore, smart SmartParser, transcriber transcription.Transcriber, minFastChars int, strategyTimeout time.Duration) *Extractor {
	return &Extractor{
		store:           store,
		smart:           smart,
		transcriber:     transcriber,
		minFastChars:    minFastChars,
		strategyTimeout: strategyTimeout,
	}
}

func (e *Extractor) Extract(ctx context.Context, doc *model.Document, data []byte, language string) (*ExtractResult, error) {
	if doc.MediaKind == model.MediaKindAudio || doc.MediaKind == model.MediaKindVideo {
		return e.extractTranscription(ctx, doc, language)
	}
	return e.extractText(ctx, doc, data, language)
}

// extractTranscription 音频/视频的唯一提取路径
func (e *Extractor) extractTranscription(ctx context.Context, doc *model.Document, language string) (*ExtractResult, error) {
	if e.transcriber == nil {
		return nil, fmt.Errorf("transcription is not configured")
	}

	tctx, cancel := context.WithTimeout(ctx, e.strategyTimeout)
	defer cancel()

	// 转写服务通过临时签名URL读取音频
	audioURL, err := e.store.PresignGet(tctx, doc.StorageKey, e.strategyTimeout+time.Minute)
	if err != nil {
		return nil, fmt.Errorf("failed to presign audio url: %v", err)
	}

	text, err := e.transcriber.Transcribe(tctx, audioURL, language)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %v", err)
	}

	return &ExtractResult{Text: text, Strategy: StrategyTranscription}, nil
}

func (e *Extractor) extractText(ctx context.Context, doc *model.Document, data []byte, language string) (*ExtractResult, error) {
	fctx, cancel := context.WithTimeout(ctx, e.strategyTimeout)
	text := extractFast(fctx, data, doc.FileName)
	cancel()

	// 质量门限：快速提取结果过短时视为扫描件，升级到智能提取
	if len(strings.TrimSpace(text)) >= e.minFastChars {
		return &ExtractResult{Text: text, Strategy: StrategyFast}, nil
	}

	slog.Info("fast extraction insufficient, escalating to smart extraction",
		"document_id", doc.ID,
		"fast_chars", len(strings.TrimSpace(text)),
	)

	if e.smart == nil {
		return nil, fmt.Errorf("fast extraction yielded no usable text and smart extraction is not configured")
	}

	sctx, cancel := context.WithTimeout(ctx, e.strategyTimeout)
	defer cancel()

	smartText, err := e.smart.Parse(sctx, data, doc.FileName, language)
	if err != nil {
		return nil, fmt.Errorf("smart extraction failed: %v", err)
	}

	return &ExtractResult{Text: smartText, Strategy: StrategySmart}, nil
}
