package xmlevent

import (
	"crypto/sha256"
	"hash"
	"sort"
)

// StructureHash fingerprints everything about a part except its translatable
// content: attributes are sorted by name, xml:space is dropped entirely,
// w:lvlText's w:val attribute is blanked (its numbering-level text template
// is content, not structure), and the text found directly inside a TextTags
// element is omitted. Two parts with equal StructureHash differ, if at all,
// only in translatable text, which is what a text-only merge leaves
// unchanged.
func StructureHash(events []Event) [32]byte {
	h := sha256.New()
	var stack []string
	for _, ev := range events {
		switch ev.Kind {
		case Decl:
			h.Write([]byte{'?'})
			writeSortedAttrs(h, ev.Name, ev.Attrs)
		case Start:
			stack = append(stack, ev.Name)
			h.Write([]byte{'S'})
			h.Write([]byte(ev.Name))
			writeSortedAttrs(h, ev.Name, ev.Attrs)
		case Empty:
			h.Write([]byte{'S'})
			h.Write([]byte(ev.Name))
			writeSortedAttrs(h, ev.Name, ev.Attrs)
			h.Write([]byte{'E'})
			h.Write([]byte(ev.Name))
		case End:
			h.Write([]byte{'E'})
			h.Write([]byte(ev.Name))
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case Text:
			parent := ""
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			}
			h.Write([]byte{'T'})
			if !TextTags[parent] {
				h.Write([]byte(ev.Text))
			}
		case CData:
			h.Write([]byte{'C'})
			h.Write([]byte(ev.Text))
		case Comment:
			h.Write([]byte{'M'})
			h.Write([]byte(ev.Text))
		case PI:
			h.Write([]byte{'P'})
			h.Write([]byte(ev.Name))
			h.Write([]byte(ev.Text))
		case DocType:
			h.Write([]byte{'D'})
			h.Write([]byte(ev.Text))
		}
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func writeSortedAttrs(h hash.Hash, elemName string, attrs []Attr) {
	kept := make([]Attr, 0, len(attrs))
	for _, a := range attrs {
		if a.Name == "xml:space" {
			continue
		}
		kept = append(kept, a)
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].Name < kept[j].Name })
	for _, a := range kept {
		val := a.Value
		if elemName == "w:lvlText" && a.Name == "w:val" {
			val = ""
		}
		h.Write([]byte{'|'})
		h.Write([]byte(a.Name))
		h.Write([]byte{'='})
		h.Write([]byte(val))
	}
}

// FullHash fingerprints a part strictly: every event contributes, attributes
// are hashed in their original declaration order (deliberately not sorted,
// unlike StructureHash above, since a reparsed-and-rewritten part should
// preserve attribute order exactly), and text inside TextTags elements is
// included. Used by Package.VerifyRoundtrip to confirm a reparsed part has
// the same event stream as what was written.
func FullHash(events []Event) [32]byte {
	h := sha256.New()
	for _, ev := range events {
		switch ev.Kind {
		case Decl:
			h.Write([]byte{'?'})
			writeRawAttrHash(h, ev.Attrs)
		case Start:
			h.Write([]byte{'S'})
			h.Write([]byte(ev.Name))
			writeRawAttrHash(h, ev.Attrs)
		case Empty:
			h.Write([]byte{'X'})
			h.Write([]byte(ev.Name))
			writeRawAttrHash(h, ev.Attrs)
		case End:
			h.Write([]byte{'E'})
			h.Write([]byte(ev.Name))
		case Text:
			h.Write([]byte{'T'})
			h.Write([]byte(ev.Text))
		case CData:
			h.Write([]byte{'C'})
			h.Write([]byte(ev.Text))
		case Comment:
			h.Write([]byte{'M'})
			h.Write([]byte(ev.Text))
		case PI:
			h.Write([]byte{'P'})
			h.Write([]byte(ev.Name))
			h.Write([]byte(ev.Text))
		case DocType:
			h.Write([]byte{'D'})
			h.Write([]byte(ev.Text))
		}
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func writeRawAttrHash(h hash.Hash, attrs []Attr) {
	for _, a := range attrs {
		h.Write([]byte{'|'})
		h.Write([]byte(a.Name))
		h.Write([]byte{'='})
		h.Write([]byte(a.Value))
	}
}
