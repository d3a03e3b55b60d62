package transcription

import (
	"context"
)

// Transcriber 语音转写能力。audioURL为音频文件的临时签名URL
type Transcriber interface {
	Transcribe(ctx context.Context, audioURL, language string) (string, error)
}
