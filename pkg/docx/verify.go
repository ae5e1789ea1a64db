package docx

import (
	"fmt"

	"github.com/sentinelmt/docxtranslate/pkg/xmlevent"
)

// verifyXMLEquivalent compares two XML parts by xmlevent.FullHash of their
// parsed event streams rather than raw bytes, since a parse/rewrite cycle
// may normalize attribute quoting or whitespace inside tags without
// changing the document's meaning.
func verifyXMLEquivalent(name string, a, b []byte) error {
	evA, err := xmlevent.Parse(a)
	if err != nil {
		return fmt.Errorf("docx: reparse %s (original): %w", name, err)
	}
	evB, err := xmlevent.Parse(b)
	if err != nil {
		return fmt.Errorf("docx: reparse %s (output): %w", name, err)
	}
	if xmlevent.FullHash(evA) != xmlevent.FullHash(evB) {
		return fmt.Errorf("docx: part %s changed content", name)
	}
	return nil
}
