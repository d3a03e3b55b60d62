package ingest

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "a b c", NormalizeText("  a\n\nb\t c  "))
	assert.Equal(t, "", NormalizeText(" \n\t "))
	assert.Equal(t, "糖尿病 饮食", NormalizeText("糖尿病\r\n饮食"))
}

func TestChunk_Empty(t *testing.T) {
	c := NewChunker(1000, 200)
	assert.Nil(t, c.Chunk(""))
}

func TestChunk_ShorterThanWindow(t *testing.T) {
	c := NewChunker(1000, 200)
	text := strings.Repeat("a", 999)
	chunks := c.Chunk(text)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestChunk_ExactWindow(t *testing.T) {
	c := NewChunker(1000, 200)
	chunks := c.Chunk(strings.Repeat("a", 1000))
	require.Len(t, chunks, 1)
}

func TestChunk_OverlapAndCount(t *testing.T) {
	c := NewChunker(1000, 200)

	// 3000字符，窗口1000重叠200：ceil((3000-200)/800) = 4
	text := strings.Repeat("x", 3000)
	chunks := c.Chunk(text)
	require.Len(t, chunks, 4)

	for i, ch := range chunks[:len(chunks)-1] {
		assert.Equal(t, 1000, utf8.RuneCountInString(ch), "chunk %d", i)
	}
	// 最后一个窗口覆盖到文本末尾，可以更短
	assert.Equal(t, 3000-3*800, utf8.RuneCountInString(chunks[len(chunks)-1]))
}

func TestChunk_AdjacentWindowsShareOverlap(t *testing.T) {
	c := NewChunker(10, 4)
	var sb strings.Builder
	for i := 0; i < 22; i++ {
		sb.WriteRune(rune('a' + i))
	}
	chunks := c.Chunk(sb.String())
	require.True(t, len(chunks) > 1)

	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1])
		cur := []rune(chunks[i])
		assert.Equal(t, string(prev[len(prev)-4:]), string(cur[:4]))
	}
}

func TestChunk_MultiByteRunes(t *testing.T) {
	c := NewChunker(10, 2)
	text := strings.Repeat("病", 25)
	chunks := c.Chunk(text)

	// ceil((25-2)/8) = 3
	require.Len(t, chunks, 3)
	for _, ch := range chunks {
		assert.True(t, utf8.ValidString(ch))
		assert.LessOrEqual(t, utf8.RuneCountInString(ch), 10)
	}
}

func TestNewChunker_InvalidParamsFallBackToDefaults(t *testing.T) {
	c := NewChunker(0, -1)
	assert.Equal(t, DefaultWindowSize, c.windowSize)
	assert.Equal(t, DefaultWindowSize/5, c.overlap)

	// 重叠不小于窗口时不可能推进
	c = NewChunker(100, 100)
	assert.Equal(t, 20, c.overlap)
}
