package translator

import (
	"fmt"
	"strings"

	"github.com/sentinelmt/docxtranslate/pkg/sentinel"
)

// buildSegmentedPrompt asks the model to translate several units at once,
// each wrapped in its SEG/END marker pair, and to echo those markers
// verbatim around the translated text for each unit in the same order.
func buildSegmentedPrompt(source, target string, units []TranslationUnit) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Translate the following text from %s to %s.\n\n", source, target)
	b.WriteString(sentinelInstructions())
	b.WriteString("\nEach unit below is wrapped in numbered markers. Reproduce each marker pair exactly, with the translated text of that unit (and nothing else) between them.\n\n")
	for _, u := range units {
		b.WriteString(sentinel.SegStart(u.ID))
		b.WriteString(u.Source)
		b.WriteString(sentinel.SegEnd(u.ID))
		b.WriteString("\n\n")
	}
	return b.String()
}

// buildSlotPrompt asks the model to translate exactly one unit, framed with
// a single content marker followed by the reserved terminator marker, so
// the response is unambiguous to parse even if the model adds stray
// whitespace around it.
func buildSlotPrompt(source, target string, unit TranslationUnit) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Translate the following text from %s to %s.\n\n", source, target)
	b.WriteString(sentinelInstructions())
	b.WriteString("\nRespond with exactly: the marker below, the translated text, then the terminator marker. Nothing else.\n\n")
	b.WriteString(sentinel.SlotToken(unit.ID))
	b.WriteString(unit.Source)
	b.WriteString(sentinel.SlotToken(sentinel.SlotTerminator))
	return b.String()
}

// buildRepairPrompt re-asks for a single unit's translation, naming the
// specific validation failure the previous attempt produced so the model
// has a concrete instruction rather than a vague "try again".
func buildRepairPrompt(source, target string, unit TranslationUnit, previous string, lastErr error) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your previous translation from %s to %s did not meet the required format.\n", source, target)
	if lastErr != nil {
		fmt.Fprintf(&b, "Problem: %s\n", lastErr.Error())
	}
	if previous != "" {
		fmt.Fprintf(&b, "Previous attempt:\n%s\n\n", previous)
	}
	b.WriteString(sentinelInstructions())
	b.WriteString("\nTranslate again, respond with exactly: the marker below, the translated text, then the terminator marker. Nothing else.\n\n")
	b.WriteString(sentinel.SlotToken(unit.ID))
	b.WriteString(unit.Source)
	b.WriteString(sentinel.SlotToken(sentinel.SlotTerminator))
	return b.String()
}

// buildForcedSegmentPrompt asks for a literal translation of one plaintext
// fragment that the forced-translation fallback split out from a unit's
// frozen source by its sentinel tokens. The fragment never contains a
// sentinel itself - those are spliced back in around the model's output
// without ever being sent - so there is nothing here to tell the model to
// preserve, only a plain passage to translate as literally as possible.
// holeBefore/holeAfter note whether content was cut away on either side, so
// the model doesn't try to complete a sentence that isn't actually there.
func buildForcedSegmentPrompt(source, target, fragment string, holeBefore, holeAfter bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Translate the following short text fragment from %s to %s as literally as possible.\n", source, target)
	switch {
	case holeBefore && holeAfter:
		b.WriteString("It is a fragment of a larger passage: other content was removed immediately before and after it, so it neither begins nor ends a sentence.\n")
	case holeBefore:
		b.WriteString("It is a fragment of a larger passage: other content was removed immediately before it, so it does not begin a sentence.\n")
	case holeAfter:
		b.WriteString("It is a fragment of a larger passage: other content was removed immediately after it, so it does not end a sentence.\n")
	}
	b.WriteString("Respond with exactly: the marker below, the translated fragment, then the terminator marker. Nothing else.\n\n")
	b.WriteString(sentinel.SlotToken(forcedSegmentSlotID))
	b.WriteString(fragment)
	b.WriteString(sentinel.SlotToken(sentinel.SlotTerminator))
	return b.String()
}

// forcedSegmentSlotID is the single content slot id used to frame every
// forced-translation fragment prompt; each fragment is its own one-shot
// exchange with the backend, so the id never needs to vary.
const forcedSegmentSlotID = 1

func sentinelInstructions() string {
	return "The text contains control markers such as " + sentinel.Tab + ", " + sentinel.Br +
		", and numbered " + sentinel.NTToken(0) + "-style tokens. " +
		"Reproduce every such marker exactly as written, in the same quantity, without translating or altering it; translate only the surrounding natural-language text."
}
