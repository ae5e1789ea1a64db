// Package freezer finds plaintext spans that must never reach the
// translation model unchanged - URLs, emails, file paths, placeholders,
// legal clause references, enumerators, foreign-script runs, trademarked
// identifiers - and replaces each with a numbered `<<MT_NT:NNNN>>` sentinel,
// recording the original text so it can be restored after translation.
//
// The numbered-placeholder mechanic generalizes to a richer, ordered
// pattern alternation (URLs before emails before legal clause refs, and so
// on, since an earlier pattern can otherwise swallow a later one's match),
// compiled with dlclark/regexp2 because the percent-slot, clause-reference
// and enumerator alternatives end in a negative lookahead ((?!\w)) so they
// do not match when a word character follows, and Go's RE2-based stdlib
// regexp cannot express lookaround.
package freezer

import (
	"sort"
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/sentinelmt/docxtranslate/pkg/sentinel"
)

// Span records where a frozen match originally sat in the source text, so a
// caller can reconstruct byte offsets if it needs to project the freeze back
// onto something other than the returned Text (the Mask/Offsets extractor
// does not need this; it freezes after slot substitution, operating purely
// on strings).
type Span struct {
	SrcStart int
	SrcEnd   int
	Token    string
	Original string
}

// Result is the output of Freeze: Text has every frozen span replaced by its
// sentinel token, NTMap maps each assigned token back to the original
// substring, and Mask records the spans in source order.
type Result struct {
	Text  string
	NTMap map[string]string
	Mask  []Span
}

// freezePattern is the single ordered alternation every plaintext segment is
// scanned with. Alternatives are listed in priority order: at any given
// starting position the earliest-listed alternative that matches wins.
const freezePattern = `` +
	`\b[\w][\w.'-]*(?:™|®|©)` + // trademark_token
	`|\bhttps?://[^\s<>"']+` + // url
	`|\b[\w.+-]+@[\w-]+\.[\w.-]+\b` + // email
	`|\b[A-Za-z]:\\(?:[^\\/:*?"<>|\r\n\s]+\\)*[^\\/:*?"<>|\r\n\s]+` + // win_path
	`|\{\{[^{}]+\}\}` + // placeholder {{...}}
	`|\$\{[^{}]+\}` + // placeholder ${...}
	`|\{[^{}]+\}` + // placeholder {...}
	`|%\d+(?!\w)` + // percent_slot
	`|\b\d+(?:\.\d+)+(?:\([a-zA-Z0-9]+\))*(?!\w)` + // clause_ref, e.g. 4.1(b)
	`|\b\d+(?:\([a-zA-Z0-9]+\))+(?!\w)` + // clause_ref, e.g. 4(b)(ii)
	`|\((?:[ivxlcdmIVXLCDM]+|\d+|[a-zA-Z])\)(?!\w)` + // enumerator (i) (1) (a)
	`|[._\-]{3,}` + // leader run
	`|\b[XYZ]\b` + // single-letter variable marker
	`|` + otherScriptClass + `+(?:[ \t]+` + otherScriptClass + `+)*` // other_script_run, words joined by spaces/tabs

// otherScriptClass is the non-Latin, non-CJK script ranges an
// other_script_run is built from.
const otherScriptClass = `[\x{0900}-\x{097F}\x{0600}-\x{06FF}\x{0400}-\x{04FF}\x{0370}-\x{03FF}` +
	`\x{0590}-\x{05FF}\x{0E00}-\x{0E7F}\x{AC00}-\x{D7A3}\x{3040}-\x{309F}\x{30A0}-\x{30FF}]`

var compiledFreeze = regexp2.MustCompile(freezePattern, regexp2.None)

var anySentinelSplitter = regexp2.MustCompile(`<<MT_[A-Za-z0-9_:\-]{1,64}>>`, regexp2.None)

// Freeze scans text, leaving any already-present sentinel token untouched
// (it partitions the input around them first) and replacing every plaintext
// match of freezePattern with a fresh, sequentially numbered MT_NT token.
func Freeze(text string) (Result, error) {
	res := Result{NTMap: make(map[string]string)}
	nextID := 0

	segments, err := splitOutSentinels(text)
	if err != nil {
		return Result{}, err
	}
	// Numbering continues after the highest MT_NT id already present, so a
	// fresh token never repeats one the input carried.
	for _, seg := range segments {
		if seg.isSentinel && strings.HasPrefix(seg.text, "<<MT_NT:") {
			if n, err := strconv.Atoi(strings.TrimSuffix(seg.text[len("<<MT_NT:"):], ">>")); err == nil && n >= nextID {
				nextID = n + 1
			}
		}
	}

	var out []byte
	cursor := 0
	for _, seg := range segments {
		if seg.isSentinel {
			out = append(out, seg.text...)
			cursor += len(seg.text)
			continue
		}
		frozen, spans, used, err := freezePlain(seg.text, cursor, &nextID)
		if err != nil {
			return Result{}, err
		}
		out = append(out, frozen...)
		res.Mask = append(res.Mask, spans...)
		for _, sp := range spans {
			res.NTMap[sp.Token] = sp.Original
		}
		cursor += used
	}

	res.Text = string(out)
	return res, nil
}

type segment struct {
	text       string
	isSentinel bool
}

func splitOutSentinels(text string) ([]segment, error) {
	var segments []segment
	cursor := 0
	m, err := anySentinelSplitter.FindStringMatch(text)
	if err != nil {
		return nil, err
	}
	for m != nil {
		start := m.Index
		end := start + m.Length
		if start > cursor {
			segments = append(segments, segment{text: text[cursor:start]})
		}
		segments = append(segments, segment{text: text[start:end], isSentinel: true})
		cursor = end
		m, err = anySentinelSplitter.FindNextMatch(m)
		if err != nil {
			return nil, err
		}
	}
	if cursor < len(text) {
		segments = append(segments, segment{text: text[cursor:]})
	}
	if len(segments) == 0 {
		segments = append(segments, segment{text: text})
	}
	return segments, nil
}

// freezePlain runs freezePattern over a plaintext segment (one already known
// to contain no sentinel tokens) and returns the rewritten text, the spans
// it froze (offset by baseOffset for Span bookkeeping), and the number of
// source bytes consumed (== len(plain), kept explicit for clarity at call
// sites that accumulate a running cursor).
func freezePlain(plain string, baseOffset int, nextID *int) (string, []Span, int, error) {
	var out []byte
	var spans []Span
	cursor := 0

	m, err := compiledFreeze.FindStringMatch(plain)
	if err != nil {
		return "", nil, 0, err
	}
	for m != nil {
		start := m.Index
		end := start + m.Length
		out = append(out, plain[cursor:start]...)

		token := sentinel.NTToken(*nextID)
		*nextID++
		out = append(out, token...)

		spans = append(spans, Span{
			SrcStart: baseOffset + start,
			SrcEnd:   baseOffset + end,
			Token:    token,
			Original: plain[start:end],
		})

		cursor = end
		m, err = compiledFreeze.FindNextMatch(m)
		if err != nil {
			return "", nil, 0, err
		}
	}
	out = append(out, plain[cursor:]...)
	return string(out), spans, len(plain), nil
}

// Unfreeze replaces every `<<MT_NT:NNNN>>` token in text with its recorded
// original text. Tokens with no entry in ntMap (a model hallucinating an
// id it was never given) are left intact.
func Unfreeze(text string, ntMap map[string]string) string {
	ids := make([]string, 0, len(ntMap))
	for k := range ntMap {
		ids = append(ids, k)
	}
	sort.Strings(ids)

	out := text
	for _, token := range ids {
		out = replaceAll(out, token, ntMap[token])
	}
	return out
}

func replaceAll(s, old, new string) string {
	if old == "" {
		return s
	}
	var b []byte
	for {
		idx := indexOf(s, old)
		if idx < 0 {
			b = append(b, s...)
			break
		}
		b = append(b, s[:idx]...)
		b = append(b, new...)
		s = s[idx+len(old):]
	}
	return string(b)
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
