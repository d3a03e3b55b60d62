package ingest

import (
	"regexp"
	"strings"
)

const (
	DefaultWindowSize = 1000
	DefaultOverlap    = 200
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// Chunker 将规整后的文本切为带重叠的定长窗口。纯函数，结果确定：
// 文本长度L、窗口W、重叠O时，chunk数 = ceil((L-O)/(W-O))，L<=W时为1
type Chunker struct {
	windowSize int
	overlap    int
}

func NewChunker(windowSize, overlap int) *Chunker {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	if overlap < 0 || overlap >= windowSize {
		overlap = windowSize / 5
	}
	return &Chunker{
		windowSize: windowSize,
		overlap:    overlap,
	}
}

// NormalizeText 折叠空白符，保证窗口偏移稳定
func NormalizeText(text string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(text, " "))
}

// Chunk 输入应已经过NormalizeText处理。空文本返回零个chunk，
// 是否拒绝空文本由上游校验决定
func (c *Chunker) Chunk(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	stride := c.windowSize - c.overlap
	var chunks []string
	for start := 0; start < len(runes); start += stride {
		end := start + c.windowSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}

	return chunks
}
