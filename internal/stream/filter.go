package stream

import (
	"iter"
	"strings"
)

const (
	dataPrefix   = "data: "
	doneSentinel = "[DONE]"
)

// EventPayload extracts the JSON payload of an SSE data line. It reports
// false for non-data lines, the [DONE] terminator, and blank payloads.
func EventPayload(line string) (string, bool) {
	if !strings.HasPrefix(line, dataPrefix) {
		return "", false
	}
	payload := strings.TrimSpace(line[len(dataPrefix):])
	if payload == "" || payload == doneSentinel {
		return "", false
	}
	return payload, true
}

// Payloads filters a line sequence down to SSE data payloads.
func Payloads(lines iter.Seq2[string, error]) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for line, err := range lines {
			if err != nil {
				yield("", err)
				return
			}
			payload, ok := EventPayload(line)
			if !ok {
				continue
			}
			if !yield(payload, nil) {
				return
			}
		}
	}
}
