package xmlevent

import "strings"

// Write re-serializes an Event stream back into XML bytes. Attribute values
// are written exactly as stored (already escaped); text content is escaped
// for &, < and > only, matching what Word itself emits.
func Write(events []Event) []byte {
	var b strings.Builder
	for _, ev := range events {
		writeEvent(&b, ev)
	}
	return []byte(b.String())
}

func writeEvent(b *strings.Builder, ev Event) {
	switch ev.Kind {
	case Decl:
		b.WriteString("<?xml")
		writeRawAttrs(b, ev.Attrs)
		b.WriteString("?>")
	case Start:
		b.WriteByte('<')
		b.WriteString(ev.Name)
		writeRawAttrs(b, ev.Attrs)
		b.WriteByte('>')
	case End:
		b.WriteString("</")
		b.WriteString(ev.Name)
		b.WriteByte('>')
	case Empty:
		b.WriteByte('<')
		b.WriteString(ev.Name)
		writeRawAttrs(b, ev.Attrs)
		b.WriteString("/>")
	case Text:
		b.WriteString(escapeText(ev.Text))
	case CData:
		b.WriteString("<![CDATA[")
		b.WriteString(ev.Text)
		b.WriteString("]]>")
	case Comment:
		b.WriteString("<!--")
		b.WriteString(ev.Text)
		b.WriteString("-->")
	case PI:
		b.WriteString("<?")
		b.WriteString(ev.Name)
		b.WriteString(ev.Text)
		b.WriteString("?>")
	case DocType:
		b.WriteString("<!DOCTYPE")
		b.WriteString(ev.Text)
		b.WriteByte('>')
	}
}

func writeRawAttrs(b *strings.Builder, attrs []Attr) {
	for _, a := range attrs {
		b.WriteByte(' ')
		b.WriteString(a.Name)
		b.WriteString(`="`)
		b.WriteString(a.Value)
		b.WriteByte('"')
	}
}

// EscapeTextForMerge applies the same &/</> escaping Write uses for Text
// events, exported so callers that rebuild a part's bytes from separately
// stored text slots stay consistent with the writer without going through a
// full Event stream. pkg/docx's merge does not call it: it sets Text events
// and lets Write escape them.
func EscapeTextForMerge(s string) string {
	return escapeText(s)
}

// EscapeAttrForMerge escapes a replacement value for use inside a
// double-quoted attribute value: the same &/</> rule as text, plus the
// quote character itself, since writeRawAttrs never escapes on write and
// expects its input already safe to drop between the quotes.
func EscapeAttrForMerge(s string) string {
	if !strings.ContainsAny(s, "&<>\"") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func escapeText(s string) string {
	if !strings.ContainsAny(s, "&<>") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
