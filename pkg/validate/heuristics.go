package validate

import (
	"strings"
	"unicode"

	"github.com/sentinelmt/docxtranslate/pkg/langguess"
)

// Heuristics are soft quality signals computed in addition to the hard
// invariants Validate checks: none of these make a translation invalid on
// their own, but together they flag output worth a second attempt before
// it's accepted.
type Heuristics struct {
	LengthRatioExtreme  bool
	TargetScriptMissing bool
	IdenticalToSource   bool
	BracketCountDrift   bool
}

// WantsForceRetranslate reports whether any soft signal fired. The chunked
// translator treats this the same as a hard validation failure: one more
// trip through the repair prompt, still bounded by MaxRepairAttempts.
func (h Heuristics) WantsForceRetranslate() bool {
	return h.LengthRatioExtreme || h.TargetScriptMissing || h.IdenticalToSource || h.BracketCountDrift
}

var bracketPairs = [][2]rune{
	{'(', ')'}, {'[', ']'}, {'{', '}'},
	{'「', '」'}, // 「」
	{'《', '》'}, // 《》
	{'（', '）'}, // full-width parens
}

// ComputeHeuristics checks output against source and, when targetLang names
// a non-Latin script, against the expected target writing system. opts
// supplies the length-ratio thresholds (see Options.withDefaults).
func ComputeHeuristics(source, output, targetLang string, opts Options) Heuristics {
	opts = opts.withDefaults()
	srcPlain := stripSentinels(source)
	outPlain := stripSentinels(output)

	h := Heuristics{}

	srcLen, outLen := len([]rune(srcPlain)), len([]rune(outPlain))
	if srcLen >= opts.QualityMinCharsForLen {
		ratio := float64(outLen) / float64(srcLen)
		h.LengthRatioExtreme = ratio < opts.QualityShortRatioHard || ratio > opts.QualityLongRatioHard
	}

	if strings.TrimSpace(srcPlain) != "" && strings.TrimSpace(srcPlain) == strings.TrimSpace(outPlain) {
		h.IdenticalToSource = hasLetters(srcPlain)
	}

	if target := langguess.ExpectedScript(targetLang); target != langguess.ScriptUnknown && hasLetters(outPlain) {
		h.TargetScriptMissing = !langguess.ContainsScript(outPlain, target)
	}

	for _, pair := range bracketPairs {
		if strings.Count(srcPlain, string(pair[0])) != strings.Count(outPlain, string(pair[0])) ||
			strings.Count(srcPlain, string(pair[1])) != strings.Count(outPlain, string(pair[1])) {
			h.BracketCountDrift = true
			break
		}
	}

	return h
}

func hasLetters(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
