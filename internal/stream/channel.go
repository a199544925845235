package stream

import (
	"bytes"
	"encoding/json"

	"github.com/Hazehacker/Haze-AI-Hub/internal/domain"
)

const (
	ThinkOpen  = "<think>"
	ThinkClose = "</think>"

	// EmptyStreamSentinel replaces the text projection of a stream that
	// produced no output at all.
	EmptyStreamSentinel = "[ERROR]未收到任何响应数据，请查看服务器日志了解详情[/ERROR]"
)

// TextFramer renders chunks as one text stream, wrapping each contiguous
// thinking run in <think>...</think>. The zero value is ready to use.
type TextFramer struct {
	thinking bool
	emitted  bool
}

// Frame returns the text to emit for c. An empty result must be skipped.
func (f *TextFramer) Frame(c domain.StreamChunk) string {
	var out string
	switch c.Type {
	case domain.ChunkTypeThinking:
		if !f.thinking {
			f.thinking = true
			out = ThinkOpen + c.Content
		} else {
			out = c.Content
		}
	case domain.ChunkTypeAnswer:
		if f.thinking {
			f.thinking = false
			out = ThinkClose + c.Content
		} else {
			out = c.Content
		}
	}
	if out != "" {
		f.emitted = true
	}
	return out
}

// Thinking reports whether the framer is inside an open thinking run.
func (f *TextFramer) Thinking() bool { return f.thinking }

// Finish returns EmptyStreamSentinel if Frame never produced output, and ""
// otherwise.
func (f *TextFramer) Finish() string {
	if f.emitted {
		return ""
	}
	return EmptyStreamSentinel
}

// Record encodes c as one newline-terminated {"type","content"} JSON line.
// HTML characters are kept verbatim since the output is not HTML.
func Record(c domain.StreamChunk) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
