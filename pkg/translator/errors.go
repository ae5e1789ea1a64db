package translator

import "errors"

// Sentinel errors naming engine-level failure conditions, as distinct from a
// per-unit validate.Error (which names a content mismatch the repair loop
// can act on, not an engine failure). Engine itself returns none of them:
// TranslateAll reports ctx.Err() and wrapped backend errors.
var (
	ErrInvalidConfig    = errors.New("translator: invalid configuration")
	ErrInvalidAPIKey    = errors.New("translator: invalid API key")
	ErrTimeout          = errors.New("translator: operation timeout")
	ErrRateLimited      = errors.New("translator: rate limit exceeded")
	ErrNoBackend        = errors.New("translator: no backend configured for this language pair")
	ErrChunkTooLarge    = errors.New("translator: a single unit exceeds the configured chunk budget")
	ErrContextCancelled = errors.New("translator: context cancelled")
)
