package stream

import (
	"strings"

	"github.com/Hazehacker/Haze-AI-Hub/internal/domain"
)

// Accumulator collects the per-channel totals of one turn in arrival order.
// It belongs to a single turn and is not safe for concurrent use.
type Accumulator struct {
	answer   strings.Builder
	thinking strings.Builder
	chunks   int
}

// Add appends c to its channel total.
func (a *Accumulator) Add(c domain.StreamChunk) {
	switch c.Type {
	case domain.ChunkTypeAnswer:
		a.answer.WriteString(c.Content)
	case domain.ChunkTypeThinking:
		a.thinking.WriteString(c.Content)
	default:
		return
	}
	a.chunks++
}

func (a *Accumulator) Answer() string   { return a.answer.String() }
func (a *Accumulator) Thinking() string { return a.thinking.String() }
func (a *Accumulator) HasAnswer() bool  { return a.answer.Len() > 0 }
func (a *Accumulator) Chunks() int      { return a.chunks }
