package sentinel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenFormatters(t *testing.T) {
	require.Equal(t, "<<MT_NT:0007>>", NTToken(7))
	require.Equal(t, "<<MT_SEG:000012>>", SegStart(12))
	require.Equal(t, "<<MT_END:000012>>", SegEnd(12))
	require.Equal(t, "<<MT_SLOT:000003>>", SlotToken(3))
}

func TestSplitByControlSequenceAlwaysAlternates(t *testing.T) {
	parts := SplitByControlSequence("a" + Tab + Br + "b" + Shy + "c")
	require.Equal(t, []string{"a", Tab + Br, "b", Shy, "c"}, parts)

	parts = SplitByControlSequence("no control tokens here")
	require.Equal(t, []string{"no control tokens here"}, parts)

	parts = SplitByControlSequence(Tab + "middle" + Br)
	require.Equal(t, []string{"", Tab, "middle", Br, ""}, parts)
}

func TestAnySentinelVsAnyMTToken(t *testing.T) {
	text := "hello " + NTToken(1) + " world <<MT_BOGUS>>"
	require.Equal(t, []string{NTToken(1)}, AnySentinelMatches(text))
	require.ElementsMatch(t, []string{NTToken(1), "<<MT_BOGUS>>"}, AnyMTTokenMatches(text))
}

func TestParseSegmentedOutputHappyPath(t *testing.T) {
	text := SegStart(1) + "bonjour" + SegEnd(1) + "\n\n" + SegStart(2) + "salut" + SegEnd(2)
	segs, err := ParseSegmentedOutput(text, []int{1, 2})
	require.NoError(t, err)
	require.Equal(t, "bonjour", segs[1])
	require.Equal(t, "salut", segs[2])
}

func TestParseSegmentedOutputMissingMarkerErrors(t *testing.T) {
	text := SegStart(1) + "bonjour" + SegEnd(1)
	_, err := ParseSegmentedOutput(text, []int{1, 2})
	require.Error(t, err)
}

func TestParseSlotOutputHappyPath(t *testing.T) {
	text := SlotToken(1) + "bonjour" + SlotToken(SlotTerminator)
	slots, err := ParseSlotOutput(text, []int{1})
	require.NoError(t, err)
	require.Equal(t, "bonjour", slots[1])
}

func TestParseSlotOutputRejectsPrefix(t *testing.T) {
	text := "preamble " + SlotToken(1) + "bonjour" + SlotToken(SlotTerminator)
	_, err := ParseSlotOutput(text, []int{1})
	require.ErrorContains(t, err, "unexpected_prefix_before_first_slot")
}

func TestParseSlotOutputRejectsSuffix(t *testing.T) {
	text := SlotToken(1) + "bonjour" + SlotToken(SlotTerminator) + " trailing"
	_, err := ParseSlotOutput(text, []int{1})
	require.ErrorContains(t, err, "slot_terminator_has_content")
}

func TestMustKeepTokens(t *testing.T) {
	frozen := "see " + NTToken(3) + Tab + "end"
	require.Equal(t, []string{NTToken(3), Tab}, MustKeepTokens(frozen))
}
