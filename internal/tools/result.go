package tools

import "github.com/revenuepulse/pulse-mcp/pkg/protocol"

// Result is what a tool execution yields. It is a tagged variant:
// either an already-conformant content envelope (TextResult) or a bare
// value (RawResult) the dispatcher must wrap. The split removes any
// need for structural sniffing at the dispatch boundary.
type Result interface {
	isResult()
}

// TextResult is a ready-made content envelope.
type TextResult struct {
	Blocks []protocol.ContentBlock
}

func (TextResult) isResult() {}

// Text builds a TextResult from plain strings.
func Text(blocks ...string) TextResult {
	out := TextResult{Blocks: make([]protocol.ContentBlock, 0, len(blocks))}
	for _, b := range blocks {
		out.Blocks = append(out.Blocks, protocol.TextBlock(b))
	}
	return out
}

// RawResult carries a bare value a tool chose not to shape itself.
// Slices become one text block per element; anything else becomes a
// single text block holding its serialized form.
type RawResult struct {
	Value interface{}
}

func (RawResult) isResult() {}
