package stream

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sseFixture = "data: {\"choices\":[{\"delta\":{\"reasoning_content\":\"想一想\"}}]}\r\n\r\n" +
	"data: {\"choices\":[{\"delta\":{\"content\":\"answer1\"}}]}\n\n" +
	": keep-alive\n" +
	"data: [DONE]\n\n"

// chunkReader hands out pre-split buffers one Read at a time.
type chunkReader struct {
	chunks [][]byte
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	if n < len(r.chunks[0]) {
		r.chunks[0] = r.chunks[0][n:]
	} else {
		r.chunks = r.chunks[1:]
	}
	return n, nil
}

func collectLines(t *testing.T, r io.Reader) []string {
	t.Helper()
	var out []string
	for line, err := range Lines(r) {
		require.NoError(t, err)
		out = append(out, line)
	}
	return out
}

func feedAll(chunks ...string) []string {
	var ra Reassembler
	var out []string
	for _, c := range chunks {
		out = append(out, ra.Feed([]byte(c))...)
	}
	if tail := ra.Flush(); tail != "" {
		out = append(out, tail)
	}
	return out
}

func TestLinesSingleBuffer(t *testing.T) {
	got := collectLines(t, strings.NewReader(sseFixture))
	assert.Equal(t, []string{
		`data: {"choices":[{"delta":{"reasoning_content":"想一想"}}]}`,
		`data: {"choices":[{"delta":{"content":"answer1"}}]}`,
		": keep-alive",
		"data: [DONE]",
	}, got)
}

func TestLinesOneByteAtATime(t *testing.T) {
	want := collectLines(t, strings.NewReader(sseFixture))
	got := collectLines(t, iotest.OneByteReader(strings.NewReader(sseFixture)))
	assert.Equal(t, want, got)
}

func TestReassemblerEveryTwoWaySplit(t *testing.T) {
	want := feedAll(sseFixture)
	for i := 0; i <= len(sseFixture); i++ {
		got := feedAll(sseFixture[:i], sseFixture[i:])
		require.Equal(t, want, got, "split at byte %d", i)
	}
}

func TestReassemblerEveryThreeWaySplit(t *testing.T) {
	want := feedAll(sseFixture)
	for i := 0; i <= len(sseFixture); i++ {
		for j := i; j <= len(sseFixture); j++ {
			got := feedAll(sseFixture[:i], sseFixture[i:j], sseFixture[j:])
			require.Equal(t, want, got, "split at bytes %d,%d", i, j)
		}
	}
}

func TestReassemblerSplitCRLF(t *testing.T) {
	got := feedAll("data: a\r", "\n", "data: b\r\n")
	assert.Equal(t, []string{"data: a", "data: b"}, got)
}

func TestReassemblerHoldsPartialLine(t *testing.T) {
	var ra Reassembler
	assert.Empty(t, ra.Feed([]byte("data: {\"cho")))
	assert.Empty(t, ra.Feed([]byte("ices\":[]}")))
	assert.Equal(t, []string{`data: {"choices":[]}`}, ra.Feed([]byte("\n")))
	assert.Equal(t, "", ra.Flush())
}

func TestLinesFlushesUnterminatedTail(t *testing.T) {
	got := collectLines(t, &chunkReader{chunks: [][]byte{[]byte("data: x\n\nda"), []byte("ta: y")}})
	assert.Equal(t, []string{"data: x", "data: y"}, got)
}

func TestLinesSplitMultiByteRune(t *testing.T) {
	raw := []byte("data: 思考\n")
	// cut inside the first rune of 思
	got := collectLines(t, &chunkReader{chunks: [][]byte{raw[:7], raw[7:]}})
	assert.Equal(t, []string{"data: 思考"}, got)
}

func TestLinesYieldsReadError(t *testing.T) {
	boom := errors.New("connection reset")
	r := io.MultiReader(strings.NewReader("data: a\n"), iotest.ErrReader(boom))

	var lines []string
	var gotErr error
	for line, err := range Lines(r) {
		if err != nil {
			gotErr = err
			continue
		}
		lines = append(lines, line)
	}
	assert.Equal(t, []string{"data: a"}, lines)
	assert.ErrorIs(t, gotErr, boom)
}

func TestLinesStopsWhenConsumerStops(t *testing.T) {
	count := 0
	for range Lines(strings.NewReader("a\nb\nc\n")) {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}
