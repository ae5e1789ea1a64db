package validate

import (
	"regexp"
	"strings"

	"golang.org/x/text/width"
)

// legalRefPattern matches a clause/section reference like "4.1(b)" or
// "12.3" in already-unfrozen plain text, mirroring (loosely) the freezer's
// clause_ref alternative but applied here to whatever the translator left
// in place of a frozen token's literal content, for the rarer case where a
// legal id lives outside any frozen span (e.g. it appears inline in a
// heading the freezer's plaintext partitioning never reached because the
// whole heading was itself inside a frozen bracketed placeholder).
var legalRefPattern = regexp.MustCompile(`\b\d+(?:\.\d+)*(?:\([a-zA-Z0-9]+\))*\b`)

// enLegalRefPattern matches an English legal keyword immediately followed by
// a numeric id, e.g. "Section 4.1(b)" or "Article 12". checkLegalRefIDs only
// cares about ids that appear in this shape in the source: a bare number
// elsewhere in the document (a page number, a year, a plain count) is never
// a legal reference just because it looks like one.
var enLegalRefPattern = regexp.MustCompile(`(?i)\b(?:Section|Article|Clause|Paragraph|Schedule)s?\s+(\d+(?:\.\d+)*(?:\([a-zA-Z0-9]+\))*)`)

// compoundLegalIDPattern matches an id with genuine compound shape: digits
// followed by at least one dotted/hyphenated segment or parenthetical
// sub-clause. A plain digit run with none of those ("42", a page number or
// a year) never matches, so checkCompoundLegalIDs can't fire on it.
var compoundLegalIDPattern = regexp.MustCompile(`\b\d+(?:(?:[.\-][A-Za-z0-9]+\b)|(?:\([a-zA-Z0-9]+\)))+`)

// baseClauseRefPattern strips any trailing parenthetical sub-clause
// lettering/numbering, leaving just the dotted numeric stem: "4.1(b)" ->
// "4.1". checkLegalRefIDs compares at this looser grain; a sub-clause
// letter renumbering alone shouldn't fail the non-strict check.
var baseClauseRefPattern = regexp.MustCompile(`^(\d+(?:\.\d+)*)`)

func baseClauseRef(id string) string {
	m := baseClauseRefPattern.FindStringSubmatch(id)
	if m == nil {
		return id
	}
	return m[1]
}

// checkLegalRefIDs requires that every legal reference id's numeric stem -
// but only an id that appears immediately after an English legal keyword
// ("Section", "Article", "Clause", "Paragraph", "Schedule") in source's
// plaintext - also appears, unchanged after width normalization, in output's
// plaintext. The keyword gate matters: without it, every bare number in the
// document (a page number, a year, a plain count) would be treated as a
// must-preserve legal id. The keyword itself is not required to survive
// translation (it won't, in the target language) - only the id after it.
// Full-width and half-width digit/punctuation forms are folded to a single
// canonical form first, since some model backends "helpfully" localize
// ASCII digits into a target script's full-width equivalents - a rendering
// choice, not a content change, but one that would otherwise look like a
// corrupted clause number. Any parenthetical sub-clause suffix is ignored
// here; see checkCompoundLegalIDs for the strict, suffix-sensitive variant.
func checkLegalRefIDs(source, output string) error {
	srcPlain := width.Narrow.String(stripSentinels(source))
	outPlain := width.Narrow.String(stripSentinels(output))

	srcRefs := keywordGatedLegalIDs(srcPlain)
	if len(srcRefs) == 0 {
		return nil
	}
	outRefs := legalRefPattern.FindAllString(outPlain, -1)

	srcNorm := countTokens(baseClauseRefs(srcRefs))
	outNorm := countTokens(baseClauseRefs(outRefs))

	for id, n := range srcNorm {
		if outNorm[id] != n {
			return fail(CodeLegalRefIDMismatch, id)
		}
	}
	return nil
}

// keywordGatedLegalIDs returns every numeric id that appears immediately
// after an English legal keyword in s.
func keywordGatedLegalIDs(s string) []string {
	matches := enLegalRefPattern.FindAllStringSubmatch(s, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

func baseClauseRefs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, baseClauseRef(id))
	}
	return out
}

// checkCompoundLegalIDs is the strict variant of checkLegalRefIDs: only
// width is normalized away, not the literal text, so a compound id like
// "4.1(b)" must reappear exactly rather than being allowed to become
// "4.1(ii)" under a different drafting convention's sub-clause lettering. It
// is restricted to ids with genuine compound shape (a dot, a hyphen, a
// parenthesis) via compoundLegalIDPattern, not every bare digit run, so an
// ordinary number with none of those characters never trips it. Gated by
// Options.StrictCompoundIDs because that renumbering is sometimes a
// legitimate, intentional part of translating into a jurisdiction with a
// different convention.
func checkCompoundLegalIDs(source, output string) error {
	srcRefs := compoundLegalIDPattern.FindAllString(width.Narrow.String(stripSentinels(source)), -1)
	outRefs := compoundLegalIDPattern.FindAllString(width.Narrow.String(stripSentinels(output)), -1)

	srcCompound := countTokens(srcRefs)
	outCompound := countTokens(outRefs)

	for id, n := range srcCompound {
		if outCompound[id] != n {
			return fail(CodeCompoundLegalIDMismatch, id)
		}
	}
	return nil
}

// normalizeLegalID folds full-width digits/punctuation to their narrow
// (ASCII) equivalents via golang.org/x/text/width, so a model's locale-
// appropriate-but-cosmetic rendering of a clause number doesn't trip the
// mismatch checks.
func normalizeLegalID(id string) string {
	return width.Narrow.String(strings.TrimSpace(id))
}
