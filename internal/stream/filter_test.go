package stream

import (
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventPayload(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		want   string
		wantOK bool
	}{
		{name: "data line", line: `data: {"a":1}`, want: `{"a":1}`, wantOK: true},
		{name: "surrounding whitespace", line: "data:   {\"a\":1}  ", want: `{"a":1}`, wantOK: true},
		{name: "done sentinel", line: "data: [DONE]"},
		{name: "blank payload", line: "data:   "},
		{name: "comment", line: ": ping"},
		{name: "event field", line: "event: message"},
		{name: "missing space after colon", line: `data:{"a":1}`},
		{name: "empty", line: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := EventPayload(tt.line)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPayloads(t *testing.T) {
	body := "id: 1\ndata: {\"x\":1}\n\ndata: [DONE]\ndata:  \ndata: {\"x\":2}\n"

	var got []string
	for payload, err := range Payloads(Lines(strings.NewReader(body))) {
		require.NoError(t, err)
		got = append(got, payload)
	}
	assert.True(t, slices.Equal([]string{`{"x":1}`, `{"x":2}`}, got), "got %v", got)
}
