package translator

import "context"

// Backend sends one already-built prompt to a language model and returns
// its raw completion text. It is intentionally this narrow: prompt
// construction, sentinel bookkeeping, and validation all live in this
// package, not in a backend implementation, so any backend - openaibackend,
// a future local-model adapter, or a test double - only ever has to satisfy
// one method.
// Deliberately narrower than a streaming-aware, multi-method client
// interface: this pipeline only ever needs one call, send text and get
// text back, so that's the whole surface.
type Backend interface {
	Complete(ctx context.Context, prompt string, maxOutputTokens int, temperature float64) (text string, inputTokens int, outputTokens int, err error)
	Name() string
}
