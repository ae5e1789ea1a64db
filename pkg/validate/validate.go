// Package validate checks a translated chunk against the sentinel contract
// its source text was frozen under: every control token, freeze token and
// structural marker the source carried must reappear in the output, in the
// right shape, with nothing invented. A failure here is what sends a unit
// into the chunked translator's repair loop, so every check
// returns one of a fixed set of machine-readable error codes rather than a
// free-form message.
package validate

import (
	"fmt"
	"regexp"

	"github.com/sentinelmt/docxtranslate/pkg/sentinel"
	"golang.org/x/text/width"
)

// Code is a machine-readable validation failure reason. The exact strings
// are part of the contract other tooling (trace logs, the repair prompt
// builder) matches against, so they are never reworded once emitted.
type Code string

const (
	CodeEmptyOutput                 Code = "empty_output"
	CodeUnexpectedMTToken            Code = "unexpected_mt_token"
	CodeSentinelSequenceMismatch     Code = "sentinel_sequence_mismatch"
	CodeControlTokenSequenceMismatch Code = "control_token_sequence_mismatch"
	CodeControlTokenLayoutMismatch   Code = "control_token_layout_mismatch"
	CodeNTTokenCountMismatch         Code = "nt_token_count_mismatch"
	CodeDigitsMismatch               Code = "digits_mismatch"
	CodeLegalRefIDMismatch           Code = "legal_ref_id_mismatch"
	CodeCompoundLegalIDMismatch      Code = "compound_legal_id_mismatch"
	CodeQualityHeuristic             Code = "quality_heuristic"
)

// Error is a validation failure. Detail, when non-empty, is appended to the
// code with a colon (e.g. "unexpected_mt_token:<<MT_BOGUS>>") for per-token
// failures where naming the offending token helps a repair prompt.
type Error struct {
	Code   Code
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s:%s", e.Code, e.Detail)
}

func fail(code Code, detail string) error {
	return &Error{Code: code, Detail: detail}
}

// Options controls the optional strict checks and the soft quality
// heuristics' thresholds. StrictCompoundIDs is config-gated rather than
// always-on, since many translations legitimately renumber a compound
// clause id's sub-letter. The Quality* fields mirror internal/config's
// QualityConfig; a zero value for any of them falls back to
// DefaultThresholds.
type Options struct {
	StrictCompoundIDs bool

	QualityShortRatioHard float64
	QualityLongRatioHard  float64
	QualityMinCharsForLen int
}

// DefaultThresholds are the soft-heuristic cutoffs used when Options leaves
// the Quality* fields unset: an output under 30% or over 300% of the
// source's length is flagged, but only once the source is long enough
// (8+ characters) for a ratio to mean anything.
func DefaultThresholds() Options {
	return Options{QualityShortRatioHard: 0.3, QualityLongRatioHard: 3.0, QualityMinCharsForLen: 8}
}

func (o Options) withDefaults() Options {
	d := DefaultThresholds()
	if o.QualityShortRatioHard <= 0 {
		o.QualityShortRatioHard = d.QualityShortRatioHard
	}
	if o.QualityLongRatioHard <= 0 {
		o.QualityLongRatioHard = d.QualityLongRatioHard
	}
	if o.QualityMinCharsForLen <= 0 {
		o.QualityMinCharsForLen = d.QualityMinCharsForLen
	}
	return o
}

// Validate runs the full sequential check pipeline against one translated
// unit. source and output are the frozen (sentinel-bearing) source text and
// the model's raw output for that same unit. The checks run in a fixed
// order and stop at the first failure, since later checks assume the
// earlier invariants hold (e.g. the layout check assumes the sequence
// check already confirmed token identity).
func Validate(source, output string, opts Options) error {
	if len(trimmed(output)) == 0 {
		return fail(CodeEmptyOutput, "")
	}

	if tok := firstUnknownMTToken(output); tok != "" {
		return fail(CodeUnexpectedMTToken, tok)
	}

	if err := checkSentinelSequence(source, output); err != nil {
		return err
	}

	if err := checkControlTokenSequence(source, output); err != nil {
		return err
	}

	if err := checkControlTokenLayout(source, output); err != nil {
		return err
	}

	if err := checkNTTokenCounts(source, output); err != nil {
		return err
	}

	if err := checkDigits(source, output); err != nil {
		return err
	}

	if err := checkLegalRefIDs(source, output); err != nil {
		return err
	}

	if opts.StrictCompoundIDs {
		if err := checkCompoundLegalIDs(source, output); err != nil {
			return err
		}
	}

	return nil
}

func trimmed(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			out = append(out, c)
		}
	}
	return string(out)
}

// firstUnknownMTToken returns the first "<<MT_...>>"-shaped token in output
// that isn't one of the known sentinel families - a model hallucinating its
// own markup, or mangling a real one beyond recognition.
func firstUnknownMTToken(output string) string {
	known := make(map[string]bool)
	for _, t := range sentinel.AnySentinelMatches(output) {
		known[t] = true
	}
	for _, t := range sentinel.AnyMTTokenMatches(output) {
		if !known[t] {
			return t
		}
	}
	return ""
}

// checkSentinelSequence requires that the multiset of sentinel tokens
// (every family) in output exactly matches source: same tokens, same
// counts. Order is not checked here (checkControlTokenSequence and
// checkControlTokenLayout below cover ordering for control tokens
// specifically; SEG/END/SLOT ordering is enforced by the parser that reads
// them, upstream of Validate).
func checkSentinelSequence(source, output string) error {
	srcCounts := countTokens(sentinel.AnySentinelMatches(source))
	outCounts := countTokens(sentinel.AnySentinelMatches(output))
	if !sameCounts(srcCounts, outCounts) {
		return fail(CodeSentinelSequenceMismatch, "")
	}
	return nil
}

// checkControlTokenSequence requires the same count of each control token
// (tab/br/nbh/shy) appear in output as in source.
func checkControlTokenSequence(source, output string) error {
	srcCounts := countTokens(sentinel.ControlTokensFrom(source))
	outCounts := countTokens(sentinel.ControlTokensFrom(output))
	if !sameCounts(srcCounts, outCounts) {
		return fail(CodeControlTokenSequenceMismatch, "")
	}
	return nil
}

// checkControlTokenLayout requires the relative order of control tokens
// (ignoring the plain text between them) to match between source and
// output: a translation may reorder and rephrase freely, but it must not
// move a tab past a line break that wasn't already past it.
func checkControlTokenLayout(source, output string) error {
	srcSeq := sentinel.ControlTokensFrom(source)
	outSeq := sentinel.ControlTokensFrom(output)
	if len(srcSeq) != len(outSeq) {
		return fail(CodeControlTokenLayoutMismatch, "")
	}
	for i := range srcSeq {
		if srcSeq[i] != outSeq[i] {
			return fail(CodeControlTokenLayoutMismatch, "")
		}
	}
	return nil
}

// checkNTTokenCounts requires every MT_NT freeze token present in source to
// appear exactly once in output (frozen spans are opaque to translation;
// losing or duplicating one means the model edited content it should never
// have seen as anything but a marker).
func checkNTTokenCounts(source, output string) error {
	srcCounts := countTokens(ntTokensOnly(source))
	outCounts := countTokens(ntTokensOnly(output))
	for tok, n := range srcCounts {
		if outCounts[tok] != n {
			return fail(CodeNTTokenCountMismatch, tok)
		}
	}
	return nil
}

func ntTokensOnly(s string) []string {
	var out []string
	for _, t := range sentinel.AnySentinelMatches(s) {
		if len(t) > 7 && t[:7] == "<<MT_NT" {
			out = append(out, t)
		}
	}
	return out
}

// digitRunPattern matches a maximal run of ASCII digits, i.e. one whole
// numeric token such as "123" rather than its individual characters.
var digitRunPattern = regexp.MustCompile(`\d+`)

// checkDigits requires the same multiset of maximal digit runs (whole
// numbers, not individual digit characters) appear in the plaintext
// (sentinel-stripped) of source and output. Comparing whole runs, rather
// than a per-character tally, is what catches a transposed figure like
// "12" becoming "21": both have the same digit-character histogram, but
// different runs.
// checkDigits normalizes full-width digit forms to ASCII first (the same
// locale-rendering tolerance the legal-id check applies), since a model
// substituting full-width digits for ASCII ones is a cosmetic choice, not a
// changed figure.
func checkDigits(source, output string) error {
	srcDigits := digitRunHistogram(width.Narrow.String(stripSentinels(source)))
	outDigits := digitRunHistogram(width.Narrow.String(stripSentinels(output)))
	if !sameCounts(srcDigits, outDigits) {
		return fail(CodeDigitsMismatch, "")
	}
	return nil
}

func digitRunHistogram(s string) map[string]int {
	out := make(map[string]int)
	for _, run := range digitRunPattern.FindAllString(s, -1) {
		out[run]++
	}
	return out
}

func stripSentinels(s string) string {
	parts := sentinel.SplitByControlSequence(s)
	// SplitByControlSequence only strips control tokens; also drop any
	// freeze/segment/slot token text since its digits are id numbers, not
	// document content.
	var out []byte
	for _, p := range parts {
		if sentinel.IsControlToken(p) {
			continue
		}
		out = append(out, stripMTMarkers(p)...)
	}
	return string(out)
}

func stripMTMarkers(s string) string {
	matches := sentinel.AnySentinelMatches(s)
	if len(matches) == 0 {
		return s
	}
	out := s
	for _, m := range matches {
		out = removeAll(out, m)
	}
	return out
}

func removeAll(s, sub string) string {
	if sub == "" {
		return s
	}
	var b []byte
	for {
		idx := indexOf(s, sub)
		if idx < 0 {
			b = append(b, s...)
			break
		}
		b = append(b, s[:idx]...)
		s = s[idx+len(sub):]
	}
	return string(b)
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func countTokens(tokens []string) map[string]int {
	out := make(map[string]int)
	for _, t := range tokens {
		out[t]++
	}
	return out
}

func sameCounts(a, b map[string]int) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
