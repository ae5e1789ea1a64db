// Package sentinel implements the sentinel token vocabulary: the closed set
// of `<<MT_...>>` markers the pipeline uses to keep structural and frozen
// content out of the model's hands while it translates plaintext.
//
// Four disjoint families exist:
//
//   - Control tokens (TAB, BR, NBH, SHY) stand in for whitespace-sensitive
//     control characters so a model never has to reproduce them exactly.
//   - Freeze tokens (MT_NT:NNNN) replace spans the Freezer decided should
//     never be translated (URLs, identifiers, legal references, ...).
//   - Segment tokens (MT_SEG:NNNNNN / MT_END:NNNNNN) bracket one translation
//     unit inside a multi-unit chunk prompt.
//   - Slot tokens (MT_SLOT:NNNNNN) mark a single-unit prompt's output
//     position; 000000 is reserved as a terminator and never assigned.
package sentinel

import (
	"fmt"
	"regexp"
)

const (
	NTIDWidth   = 4
	SegIDWidth  = 6
	SlotIDWidth = 6
)

const (
	Tab = "<<MT_TAB>>"
	Br  = "<<MT_BR>>"
	Nbh = "<<MT_NBH>>"
	Shy = "<<MT_SHY>>"
)

// ControlTokens is every control-family token literal, in the order a
// hallucination scan should prefer reporting them.
var ControlTokens = []string{Tab, Br, Nbh, Shy}

// These are compiled with stdlib regexp: every alternative here is a fixed
// literal or a fixed-width digit run, so there's no backtracking hazard and
// no need for regexp2's engine (unlike the freezer, whose patterns use
// lookahead).
var (
	controlTokenRe = regexp.MustCompile(`<<MT_(?:TAB|BR|NBH|SHY)>>`)
	controlSeqRe   = regexp.MustCompile(`(?:<<MT_(?:TAB|BR|NBH|SHY)>>)+`)
	anySentinelRe  = regexp.MustCompile(`<<MT_(?:TAB|BR|NBH|SHY|NT:\d{4}|SEG:\d{6}|END:\d{6}|SLOT:\d{6})>>`)
	anyMTTokenRe   = regexp.MustCompile(`<<MT_[A-Za-z0-9_:\-]{1,64}>>`)
	ntTokenRe      = regexp.MustCompile(`<<MT_NT:(\d{4})>>`)
)

// NTToken formats a freeze placeholder for the given 0-based index.
func NTToken(id int) string { return fmt.Sprintf("<<MT_NT:%0*d>>", NTIDWidth, id) }

// SegStart formats the opening marker for translation unit id within a chunk.
func SegStart(id int) string { return fmt.Sprintf("<<MT_SEG:%0*d>>", SegIDWidth, id) }

// SegEnd formats the closing marker for translation unit id within a chunk.
func SegEnd(id int) string { return fmt.Sprintf("<<MT_END:%0*d>>", SegIDWidth, id) }

// SlotToken formats the single-unit output marker for id. id 0 is the
// reserved terminator and is never assigned to real content.
func SlotToken(id int) string { return fmt.Sprintf("<<MT_SLOT:%0*d>>", SlotIDWidth, id) }

// IsControlToken reports whether s is exactly one control-family token.
func IsControlToken(s string) bool {
	for _, t := range ControlTokens {
		if s == t {
			return true
		}
	}
	return false
}

// ControlTokensFrom returns every control-family token occurrence in text,
// in order.
func ControlTokensFrom(text string) []string {
	return controlTokenRe.FindAllString(text, -1)
}

// AnySentinelMatches returns every sentinel-family token occurrence (any of
// the four families) in text, in order.
func AnySentinelMatches(text string) []string {
	return anySentinelRe.FindAllString(text, -1)
}

// AnyMTTokenMatches returns every `<<MT_...>>`-shaped token in text, whether
// or not it belongs to a known family. Used by the Validator's hallucination
// check: a model inventing `<<MT_FOO>>` is still a `<<MT_...>>` shape even
// though it isn't one of our four real families.
func AnyMTTokenMatches(text string) []string {
	return anyMTTokenRe.FindAllString(text, -1)
}

// NTTokenIDs returns the numeric ids of every MT_NT token occurrence in text.
func NTTokenIDs(text string) []string {
	matches := ntTokenRe.FindAllStringSubmatch(text, -1)
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m[1]
	}
	return ids
}

// SplitByControlSequence splits text into alternating plaintext/control
// parts. The result always starts and ends with a plaintext part (possibly
// empty), and control parts are always maximal runs of adjacent control
// tokens collapsed into one part.
func SplitByControlSequence(text string) []string {
	locs := controlSeqRe.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []string{text}
	}
	var parts []string
	prev := 0
	for _, loc := range locs {
		parts = append(parts, text[prev:loc[0]])
		parts = append(parts, text[loc[0]:loc[1]])
		prev = loc[1]
	}
	parts = append(parts, text[prev:])
	return parts
}

// MustKeepTokens returns every sentinel-family token present in frozenSource
// that a repair prompt must be told to reproduce verbatim.
func MustKeepTokens(frozenSource string) []string {
	return AnySentinelMatches(frozenSource)
}

// Segment is one piece of a Split call: either a verbatim sentinel token, or
// a plaintext run between tokens.
type Segment struct {
	Text    string
	IsToken bool
}

// Split partitions text into alternating plaintext/sentinel-token segments
// (of any of the four families) covering the whole string exactly once, in
// order. The forced-translation fallback uses this to translate each
// plaintext piece independently and reassemble the result with the original
// tokens spliced back in unchanged, rather than asking a model to reproduce
// them.
func Split(text string) []Segment {
	locs := anySentinelRe.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []Segment{{Text: text}}
	}
	var out []Segment
	prev := 0
	for _, loc := range locs {
		if loc[0] > prev {
			out = append(out, Segment{Text: text[prev:loc[0]]})
		}
		out = append(out, Segment{Text: text[loc[0]:loc[1]], IsToken: true})
		prev = loc[1]
	}
	if prev < len(text) {
		out = append(out, Segment{Text: text[prev:]})
	}
	return out
}
