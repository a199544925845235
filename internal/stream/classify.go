package stream

import (
	"encoding/json"
	"fmt"
	"io"
	"iter"

	"github.com/Hazehacker/Haze-AI-Hub/internal/domain"
)

// completionFrame is the subset of an OpenAI-compatible chunk we read.
// Pointer fields distinguish a missing or null value from an empty string.
type completionFrame struct {
	Choices []struct {
		Delta *struct {
			Content          *string `json:"content"`
			ReasoningContent *string `json:"reasoning_content"`
			Reasoning        *string `json:"reasoning"`
		} `json:"delta"`
	} `json:"choices"`
}

// Classify maps one JSON payload to a chunk. Fields are checked in the order
// content, reasoning_content, reasoning; the first usable one wins, so a
// delta carrying both content and reasoning is always an answer.
//
// ok is false when the payload carries nothing usable. err is non-nil only
// for payloads that are not valid JSON of the expected shape.
func Classify(payload string) (chunk domain.StreamChunk, ok bool, err error) {
	var frame completionFrame
	if err := json.Unmarshal([]byte(payload), &frame); err != nil {
		return domain.StreamChunk{}, false, fmt.Errorf("malformed stream payload: %w", err)
	}
	if len(frame.Choices) == 0 || frame.Choices[0].Delta == nil {
		return domain.StreamChunk{}, false, nil
	}

	delta := frame.Choices[0].Delta
	switch {
	case usable(delta.Content):
		return domain.StreamChunk{Type: domain.ChunkTypeAnswer, Content: *delta.Content}, true, nil
	case usable(delta.ReasoningContent):
		return domain.StreamChunk{Type: domain.ChunkTypeThinking, Content: *delta.ReasoningContent}, true, nil
	case usable(delta.Reasoning):
		return domain.StreamChunk{Type: domain.ChunkTypeThinking, Content: *delta.Reasoning}, true, nil
	}
	return domain.StreamChunk{}, false, nil
}

// Some providers serialize a missing field as the string "null".
func usable(s *string) bool {
	return s != nil && *s != "" && *s != "null"
}

// MalformedFunc observes payloads the classifier rejected.
type MalformedFunc func(payload string, err error)

// Chunks runs the full decode pipeline over an SSE body: line reassembly,
// data-line filtering, and classification. Malformed payloads are reported
// to onMalformed (which may be nil) and skipped. A read error is yielded once
// and ends the sequence.
func Chunks(body io.Reader, onMalformed MalformedFunc) iter.Seq2[domain.StreamChunk, error] {
	return func(yield func(domain.StreamChunk, error) bool) {
		for payload, err := range Payloads(Lines(body)) {
			if err != nil {
				yield(domain.StreamChunk{}, err)
				return
			}
			chunk, ok, err := Classify(payload)
			if err != nil {
				if onMalformed != nil {
					onMalformed(payload, err)
				}
				continue
			}
			if !ok {
				continue
			}
			if !yield(chunk, nil) {
				return
			}
		}
	}
}
