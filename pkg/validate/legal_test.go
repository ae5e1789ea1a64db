package validate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckLegalRefIDsIgnoresBareNumbersWithoutKeyword(t *testing.T) {
	// "42" here is a page number, not a legal reference - no "Section",
	// "Article", "Clause", "Paragraph" or "Schedule" precedes it - so a
	// translation that drops or changes it must not fail this check.
	err := checkLegalRefIDs("see page 42 for the diagram", "voir la page 99 pour le schéma")
	require.NoError(t, err)
}

func TestCheckLegalRefIDsCatchesMismatchAfterKeyword(t *testing.T) {
	err := checkLegalRefIDs("per Section 4.1(b) of the agreement", "selon l'article de l'accord")
	require.Error(t, err)
	require.Equal(t, CodeLegalRefIDMismatch, err.(*Error).Code)
}

func TestCheckLegalRefIDsAcceptsKeywordVariants(t *testing.T) {
	for _, kw := range []string{"Section", "Article", "Clause", "Paragraph", "Schedule", "Articles", "Sections"} {
		source := "pursuant to " + kw + " 9.2 hereof"
		output := "conformément à " + kw + " 9.2 des présentes"
		require.NoErrorf(t, checkLegalRefIDs(source, output), "keyword %s", kw)
	}
}

func TestCheckCompoundLegalIDsIgnoresPlainNumbers(t *testing.T) {
	// "2024" has none of the compound markers (dot, hyphen, paren) that
	// make an id a genuine compound clause reference, so a translation
	// changing it must not fail this check.
	err := checkCompoundLegalIDs("copyright 2024 all rights reserved", "copyright 2025 tous droits réservés")
	require.NoError(t, err)
}

func TestCheckCompoundLegalIDsCatchesRenumberedSuffix(t *testing.T) {
	err := checkCompoundLegalIDs("see clause 4.1(b) for details", "see clause 4.1(c) for details")
	require.Error(t, err)
	require.Equal(t, CodeCompoundLegalIDMismatch, err.(*Error).Code)
}
