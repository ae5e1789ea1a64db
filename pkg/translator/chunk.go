package translator

import (
	"unicode"

	"github.com/sentinelmt/docxtranslate/pkg/sentinel"
)

// TranslationUnit is one frozen, sentinel-bearing piece of source text the
// engine must turn into translated text of the same shape. Source already
// has control tokens and MT_NT freeze tokens substituted in by the caller
// (pkg/freezer + pkg/sentinel); this package never runs the freezer itself.
type TranslationUnit struct {
	ID     int
	Source string
}

// IsTrivial reports whether a unit has no letter content worth sending to a
// model at all - pure digits, punctuation, whitespace, and sentinel tokens.
// Such units are passed through unchanged: a translation model asked to
// "translate" a standalone page number or an already-frozen placeholder
// either stalls, or invents a wrapper sentence around it, both worse than
// leaving it untouched.
func (u TranslationUnit) IsTrivial() bool {
	stripped := stripAllSentinels(u.Source)
	hasLetter := false
	for _, r := range stripped {
		if isLetterRune(r) {
			hasLetter = true
			break
		}
	}
	return !hasLetter
}

func stripAllSentinels(s string) string {
	matches := sentinel.AnySentinelMatches(s)
	out := s
	for _, m := range matches {
		out = removeFirst(out, m)
	}
	return out
}

func removeFirst(s, sub string) string {
	idx := indexOfSub(s, sub)
	if idx < 0 {
		return s
	}
	return s[:idx] + s[idx+len(sub):]
}

func indexOfSub(s, sub string) int {
	if sub == "" {
		return -1
	}
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func isLetterRune(r rune) bool {
	return unicode.IsLetter(r)
}

// Chunk is a contiguous run of units packed together into one prompt, under
// the SEG/END segmented-output convention.
type Chunk struct {
	Units []TranslationUnit
}

// PackChunks greedily groups units into chunks so that no chunk exceeds
// maxChars total source characters (summed across its units, including
// sentinel markup) or maxItems units, whichever limit is hit first. A
// single unit larger than maxChars still gets its own one-unit chunk
// (ErrChunkTooLarge is for the caller to raise later if even that one unit
// can't fit a single-unit prompt's overhead - PackChunks itself never
// drops or truncates content).
func PackChunks(units []TranslationUnit, maxChars, maxItems int) []Chunk {
	var chunks []Chunk
	var cur []TranslationUnit
	curChars := 0

	flush := func() {
		if len(cur) > 0 {
			chunks = append(chunks, Chunk{Units: cur})
			cur = nil
			curChars = 0
		}
	}

	for _, u := range units {
		n := len(u.Source)
		if len(cur) > 0 && (curChars+n > maxChars || len(cur) >= maxItems) {
			flush()
		}
		cur = append(cur, u)
		curChars += n
	}
	flush()

	return chunks
}

// ChunkCharBudget computes a chunk's character budget from a model's context
// size: twice the context size in characters, minus fixed room for the
// system prompt and sentinel markup overhead, floored at 4000 so a
// small-context model still gets usable chunks instead of one-unit-per-
// prompt thrashing.
func ChunkCharBudget(contextSize int) int {
	budget := contextSize*2 - 1800
	if budget < 4000 {
		return 4000
	}
	return budget
}
