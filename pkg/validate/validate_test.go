package validate

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sentinelmt/docxtranslate/pkg/sentinel"
)

func TestValidateAcceptsFaithfulTranslation(t *testing.T) {
	source := "Visit " + sentinel.NTToken(0) + " today" + sentinel.Tab + "please."
	output := "Veuillez visiter " + sentinel.NTToken(0) + " aujourd'hui" + sentinel.Tab + "s'il vous plaît."
	require.NoError(t, Validate(source, output, Options{}))
}

func TestValidateRejectsEmptyOutput(t *testing.T) {
	err := Validate("hello", "   ", Options{})
	require.Error(t, err)
	require.Equal(t, CodeEmptyOutput, err.(*Error).Code)
}

func TestValidateRejectsHallucinatedToken(t *testing.T) {
	err := Validate("hello", "hello <<MT_BOGUS>>", Options{})
	require.Error(t, err)
	require.Equal(t, CodeUnexpectedMTToken, err.(*Error).Code)
}

func TestValidateRejectsDroppedNTToken(t *testing.T) {
	source := "see " + sentinel.NTToken(0) + " here"
	output := "voir ici"
	err := Validate(source, output, Options{})
	require.Error(t, err)
	require.Equal(t, CodeSentinelSequenceMismatch, err.(*Error).Code)
}

func TestValidateRejectsReorderedControlTokens(t *testing.T) {
	source := "a" + sentinel.Tab + "b" + sentinel.Br + "c"
	output := "a" + sentinel.Br + "b" + sentinel.Tab + "c"
	err := Validate(source, output, Options{})
	require.Error(t, err)
	require.Equal(t, CodeControlTokenLayoutMismatch, err.(*Error).Code)
}

func TestValidateRejectsDigitMismatch(t *testing.T) {
	err := Validate("pay $100 now", "pay $900 now", Options{})
	require.Error(t, err)
	require.Equal(t, CodeDigitsMismatch, err.(*Error).Code)
}

func TestValidateRejectsTransposedDigitRun(t *testing.T) {
	err := Validate("invoice 12 due", "invoice 21 due", Options{})
	require.Error(t, err)
	require.Equal(t, CodeDigitsMismatch, err.(*Error).Code)
}

func TestValidateAcceptsDigitsReorderedAcrossRuns(t *testing.T) {
	// Same digit-character histogram as a transposition, but the whole runs
	// "12" and "34" both survive untouched, just swapped in position - no
	// run was mangled, so this must pass even though per-character digit
	// tallies alone couldn't distinguish it from a real transposition.
	require.NoError(t, Validate("see 12 and 34", "voir 34 et 12", Options{}))
}

func TestValidateLegalRefIDsToleratesFullWidthDigits(t *testing.T) {
	source := "see clause 4.1(b) for details"
	output := "voir la clause ４.１(b) pour plus de détails"
	require.NoError(t, Validate(source, output, Options{}))
}

func TestValidateStrictCompoundIDsRejectsRenumbering(t *testing.T) {
	source := "see clause 4.1(b) for details"
	output := "see clause 4.1(ii) for details"
	err := Validate(source, output, Options{StrictCompoundIDs: true})
	require.Error(t, err)
}
