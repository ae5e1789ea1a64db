// Package langguess auto-detects a document's source language from the
// script/character distribution of its extracted text, for the common case
// where a user runs the CLI without specifying --source-lang. It never
// guesses the target language; that's always explicit.
package langguess

import (
	"sort"
	"unicode"
)

// Script is one of the coarse writing-system buckets this package
// distinguishes. It deliberately does not attempt to tell related Latin-
// script languages apart (English vs. French vs. German) - that
// distinction needs a real language model, which is out of scope for a
// cheap pre-flight guess. Latin-script documents are reported as "en" so
// the caller at least gets a sane default system prompt language name;
// anything else maps onto an ISO code picked for its script, not
// necessarily the one true language of that script's many speakers.
type Script string

const (
	ScriptLatin      Script = "en"
	ScriptCJKHan     Script = "zh"
	ScriptJapanese   Script = "ja"
	ScriptKorean     Script = "ko"
	ScriptCyrillic   Script = "ru"
	ScriptArabic     Script = "ar"
	ScriptHebrew     Script = "he"
	ScriptDevanagari Script = "hi"
	ScriptGreek      Script = "el"
	ScriptThai       Script = "th"
	ScriptUnknown    Script = ""
)

// GuessSourceLanguage counts letter runes by script across every paragraph
// of text and returns the ISO code of whichever script has the most, along
// with its share of all counted letters. Text below minLetters total letters
// returns ScriptUnknown with confidence 0, since a handful of stray letters
// (a lone symbol, a brand name) isn't enough signal.
func GuessSourceLanguage(paragraphs []string) (lang Script, confidence float64) {
	const minLetters = 20

	counts := make(map[Script]int)
	total := 0
	for _, p := range paragraphs {
		for _, r := range p {
			if !unicode.IsLetter(r) {
				continue
			}
			s := classify(r)
			if s == ScriptUnknown {
				continue
			}
			counts[s]++
			total++
		}
	}

	if total < minLetters {
		return ScriptUnknown, 0
	}

	var scripts []Script
	for s := range counts {
		scripts = append(scripts, s)
	}
	sort.Slice(scripts, func(i, j int) bool { return counts[scripts[i]] > counts[scripts[j]] })

	best := scripts[0]
	return best, float64(counts[best]) / float64(total)
}

// nonLatinScripts are the writing systems this package can positively detect
// in a run of text, excluding Latin (too common as loanwords/brand names
// inside any target language to use as a presence signal).
var nonLatinScripts = map[Script]bool{
	ScriptCJKHan: true, ScriptJapanese: true, ScriptKorean: true,
	ScriptCyrillic: true, ScriptArabic: true, ScriptHebrew: true,
	ScriptDevanagari: true, ScriptGreek: true, ScriptThai: true,
}

// ExpectedScript maps a target language code to the non-Latin script its
// text should be written in, for a quick "did the model actually switch
// scripts" sanity check. It returns ScriptUnknown for Latin-script targets
// and any code this package doesn't recognize, since absence of a known
// non-Latin script isn't evidence of anything.
func ExpectedScript(targetLangCode string) Script {
	s := Script(targetLangCode)
	if nonLatinScripts[s] {
		return s
	}
	return ScriptUnknown
}

// ContainsScript reports whether text has at least one letter classified as
// script s. Used by the translator's soft quality heuristics to flag a
// translation that never actually switched to the target writing system
// (e.g. a target of "zh" whose output is still pure Latin prose).
func ContainsScript(text string, s Script) bool {
	for _, r := range text {
		if unicode.IsLetter(r) && classify(r) == s {
			return true
		}
	}
	return false
}

func classify(r rune) Script {
	switch {
	case unicode.Is(unicode.Han, r):
		return ScriptCJKHan
	case unicode.Is(unicode.Hiragana, r), unicode.Is(unicode.Katakana, r):
		return ScriptJapanese
	case unicode.Is(unicode.Hangul, r):
		return ScriptKorean
	case unicode.Is(unicode.Cyrillic, r):
		return ScriptCyrillic
	case unicode.Is(unicode.Arabic, r):
		return ScriptArabic
	case unicode.Is(unicode.Hebrew, r):
		return ScriptHebrew
	case unicode.Is(unicode.Devanagari, r):
		return ScriptDevanagari
	case unicode.Is(unicode.Greek, r):
		return ScriptGreek
	case unicode.Is(unicode.Thai, r):
		return ScriptThai
	case unicode.Is(unicode.Latin, r):
		return ScriptLatin
	default:
		return ScriptUnknown
	}
}
