package sentinel

import (
	"fmt"
	"strings"
)

// ParseSegmentedOutput extracts each expected translation unit's text from a
// multi-unit chunk response, by sequentially locating the SEG/END marker
// pair for each id in expectedIDs. The model is expected to echo the markers
// in order; any missing pair is a hard error (the caller falls back to
// recursive bisection rather than guess at a partial result).
func ParseSegmentedOutput(text string, expectedIDs []int) (map[int]string, error) {
	out := make(map[int]string, len(expectedIDs))
	cursor := 0
	for _, id := range expectedIDs {
		start := SegStart(id)
		end := SegEnd(id)

		startIdx := strings.Index(text[cursor:], start)
		if startIdx < 0 {
			return nil, fmt.Errorf("sentinel: missing %s", start)
		}
		startIdx += cursor + len(start)

		endIdx := strings.Index(text[startIdx:], end)
		if endIdx < 0 {
			return nil, fmt.Errorf("sentinel: missing %s", end)
		}
		endIdx += startIdx

		out[id] = text[startIdx:endIdx]
		cursor = endIdx + len(end)
	}
	return out, nil
}

// SlotTerminator is the reserved id marking end-of-output in a single-unit
// prompt; it is never assigned to real content.
const SlotTerminator = 0

// ParseSlotOutput extracts a single-unit prompt's translated text. expectedIDs
// holds the content slot ids in order (never including SlotTerminator); the
// response is expected to be: optional leading whitespace, marker(id[0]),
// text, marker(id[1]), text, ..., marker(SlotTerminator), optional trailing
// whitespace. Anything else means the model added preamble/postamble around
// the translation rather than reproducing only the markers and the text
// between them.
func ParseSlotOutput(text string, expectedIDs []int) (map[int]string, error) {
	out := make(map[int]string, len(expectedIDs))
	ids := append(append([]int{}, expectedIDs...), SlotTerminator)

	cursor := 0
	for i, id := range ids {
		marker := SlotToken(id)
		idx := strings.Index(text[cursor:], marker)
		if idx < 0 {
			return nil, fmt.Errorf("sentinel: missing %s", marker)
		}
		idx += cursor

		if i == 0 {
			prefix := text[:idx]
			if strings.TrimSpace(prefix) != "" {
				return nil, fmt.Errorf("unexpected_prefix_before_first_slot")
			}
		} else {
			prev := ids[i-1]
			out[prev] = text[cursor:idx]
		}
		cursor = idx + len(marker)
	}

	if strings.TrimSpace(text[cursor:]) != "" {
		return nil, fmt.Errorf("slot_terminator_has_content")
	}

	return out, nil
}
