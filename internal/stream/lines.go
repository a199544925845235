// Package stream turns an upstream Server-Sent-Events byte stream into
// classified thinking/answer chunks.
package stream

import (
	"bytes"
	"io"
	"iter"
	"strings"
)

const readBufferSize = 4096

// Reassembler joins byte buffers of arbitrary size into complete lines.
// A line is only released once its terminator has arrived, so a line whose
// "\n" lands in a later buffer is emitted exactly once and whole.
type Reassembler struct {
	pending []byte
}

// Feed appends b and returns every line it completed, in order, with the
// "\n" or "\r\n" terminator stripped. Empty lines are dropped.
func (r *Reassembler) Feed(b []byte) []string {
	r.pending = append(r.pending, b...)

	var lines []string
	start := 0
	for {
		i := bytes.IndexByte(r.pending[start:], '\n')
		if i < 0 {
			break
		}
		if line := decodeLine(r.pending[start : start+i]); line != "" {
			lines = append(lines, line)
		}
		start += i + 1
	}
	if start > 0 {
		r.pending = append(r.pending[:0], r.pending[start:]...)
	}
	return lines
}

// Flush returns the unterminated tail left at end of input and resets the
// reassembler. It returns "" when nothing is pending.
func (r *Reassembler) Flush() string {
	line := decodeLine(r.pending)
	r.pending = r.pending[:0]
	return line
}

func decodeLine(b []byte) string {
	b = bytes.TrimSuffix(b, []byte{'\r'})
	if len(b) == 0 {
		return ""
	}
	return strings.ToValidUTF8(string(b), "�")
}

// Lines reads r to completion and yields its non-empty lines lazily. A read
// error is yielded once and ends the sequence. The sequence consumes r and
// cannot be restarted.
func Lines(r io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		var ra Reassembler
		buf := make([]byte, readBufferSize)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				for _, line := range ra.Feed(buf[:n]) {
					if !yield(line, nil) {
						return
					}
				}
			}
			if err == io.EOF {
				if tail := ra.Flush(); tail != "" {
					yield(tail, nil)
				}
				return
			}
			if err != nil {
				yield("", err)
				return
			}
		}
	}
}
