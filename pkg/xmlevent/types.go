// Package xmlevent implements a hand-rolled XML tokenizer and writer for the
// Office Open XML parts inside a DOCX package.
//
// encoding/xml's Decoder always unescapes attribute values on Token(), which
// makes it unsuitable here: some Word documents carry literal CR/LF entity
// references inside attribute values (VML's o:gfxdata is the common case),
// and decoding/re-encoding them changes the byte sequence Word wrote even
// though the document is semantically untouched. Every attribute value is
// therefore kept as the exact raw bytes found in the source - already
// escaped - and written back verbatim. Element text content is decoded so
// translation code can work with plain runes, and re-escaped (only
// & < >) on write.
package xmlevent

// Kind discriminates the variants of an Event.
type Kind int

const (
	Decl Kind = iota
	Start
	End
	Empty
	Text
	CData
	Comment
	PI
	DocType
)

func (k Kind) String() string {
	switch k {
	case Decl:
		return "Decl"
	case Start:
		return "Start"
	case End:
		return "End"
	case Empty:
		return "Empty"
	case Text:
		return "Text"
	case CData:
		return "CData"
	case Comment:
		return "Comment"
	case PI:
		return "PI"
	case DocType:
		return "DocType"
	default:
		return "Unknown"
	}
}

// Attr is a single attribute. Value is the raw, already-escaped byte
// sequence exactly as it appeared in the source document.
type Attr struct {
	Name  string
	Value string
}

// Event is one token of the XML event stream for a part.
//
//   - Decl:    Attrs holds the xml/version/encoding/standalone pseudo-attrs.
//   - Start:   Name + Attrs, opens an element.
//   - End:     Name, closes an element.
//   - Empty:   Name + Attrs, a self-closing element.
//   - Text:    Text holds decoded character data.
//   - CData:   Text holds the raw CDATA payload, never escaped either way.
//   - Comment: Text holds the raw comment payload.
//   - PI:      Name is the target, Text is the raw instruction payload.
//   - DocType: Text holds the raw doctype payload (including internal subset).
type Event struct {
	Kind  Kind
	Name  string
	Attrs []Attr
	Text  string
}

// TextTags are the OOXML elements whose text content is the user-visible,
// translatable plaintext rather than structural markup. StructureHash omits
// the text found directly inside them; the Pure-Text and Mask extractors
// key off the same set when deciding what to treat as translatable content.
var TextTags = map[string]bool{
	"w:t":       true,
	"a:t":       true,
	"w:delText": true,
}
