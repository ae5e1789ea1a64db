package docx

import (
	"strings"

	"github.com/sentinelmt/docxtranslate/pkg/xmlevent"
)

// Container names where in a document a PureParagraph's w:p element lives.
type Container string

const (
	ContainerBody      Container = "body"
	ContainerTableCell Container = "table_cell"
	ContainerHeader    Container = "header"
	ContainerFooter    Container = "footer"
)

// PureParagraph is one paragraph extracted from a document part: every text
// run concatenated in document order, with the handful of structural run
// children that carry no text of their own (tab, line break, non-breaking
// hyphen) rendered as their literal character so a translator sees them as
// text it must reproduce rather than losing them entirely. The metadata
// fields place a paragraph within its document structure well enough to
// regroup it (by section, by table cell) without re-parsing the XML.
type PureParagraph struct {
	Part         string `json:"part"`
	Index        int    `json:"index"`
	Text         string `json:"text"`
	Container    Container `json:"container"`
	SectionIndex int    `json:"section_index"`
	TableIndex   *int   `json:"table_index,omitempty"`
	RowIndex     *int   `json:"row_index,omitempty"`
	CellIndex    *int   `json:"cell_index,omitempty"`
	PStyle       string `json:"p_style,omitempty"`
	NumID        string `json:"num_id,omitempty"`
	NumIlvl      string `json:"num_ilvl,omitempty"`
	OutlineLvl   string `json:"outline_lvl,omitempty"`
}

// controlRunChild maps a self-closing run-child element name to the literal
// character it renders as in pure-text mode. w:softHyphen is intentionally
// absent: it's a rendering hint for where a line may break, not an
// orthographic character, and emitting nothing for it (rather than a
// placeholder) is what lets pure-text output read as natural prose.
var controlRunChild = map[string]string{
	"w:tab":           "\t",
	"w:ptab":          "\t",
	"w:cr":            "\n",
	"w:noBreakHyphen": "-",
}

// brIsLineBreak reports whether a w:br element's optional w:type attribute
// (absent, or "textWrapping") means a line break in running text, as
// opposed to a page or column break, which contributes no character.
func brIsLineBreak(ev xmlevent.Event) bool {
	t := attrVal(ev, "w:type")
	return t == "" || t == "textWrapping"
}

func attrVal(ev xmlevent.Event, name string) string {
	for _, a := range ev.Attrs {
		if a.Name == name {
			return a.Value
		}
	}
	return ""
}

// ExtractPureText walks word/document.xml plus every header/footer part
// referenced from it, and collects one PureParagraph per w:p element whose
// text does not trim to empty, in document order within each part.
func ExtractPureText(pkg *Package) (*TextJSON, error) {
	out := &TextJSON{SchemaVersion: 3}

	entries := make(map[string]Entry, len(pkg.Entries))
	for _, e := range pkg.Entries {
		entries[e.Name] = e
	}

	headers, footers := resolveHeaderFooterParts(entries)

	doc, ok := entries["word/document.xml"]
	if !ok {
		return out, nil
	}
	events, err := xmlevent.Parse(doc.Data)
	if err != nil {
		return nil, err
	}
	out.Paragraphs = append(out.Paragraphs, extractPartParagraphs(doc.Name, events, ContainerBody)...)

	for _, part := range pkg.XMLEntries() {
		var container Container
		switch {
		case headers[part.Name]:
			container = ContainerHeader
		case footers[part.Name]:
			container = ContainerFooter
		default:
			continue
		}
		events, err := xmlevent.Parse(part.Data)
		if err != nil {
			return nil, err
		}
		out.Paragraphs = append(out.Paragraphs, extractPartParagraphs(part.Name, events, container)...)
	}

	return out, nil
}

// resolveHeaderFooterParts parses word/_rels/document.xml.rels to find which
// parts are headers and which are footers, by Relationship Type.
func resolveHeaderFooterParts(entries map[string]Entry) (headers, footers map[string]bool) {
	headers = make(map[string]bool)
	footers = make(map[string]bool)

	rels, ok := entries["word/_rels/document.xml.rels"]
	if !ok {
		return headers, footers
	}
	events, err := xmlevent.Parse(rels.Data)
	if err != nil {
		return headers, footers
	}
	for _, ev := range events {
		if ev.Kind != xmlevent.Start && ev.Kind != xmlevent.Empty {
			continue
		}
		if ev.Name != "Relationship" {
			continue
		}
		typ := attrVal(ev, "Type")
		target := attrVal(ev, "Target")
		if target == "" {
			continue
		}
		partName := "word/" + strings.TrimPrefix(target, "/word/")
		switch {
		case strings.HasSuffix(typ, "/header"):
			headers[partName] = true
		case strings.HasSuffix(typ, "/footer"):
			footers[partName] = true
		}
	}
	return headers, footers
}

func extractPartParagraphs(partName string, events []xmlevent.Event, baseContainer Container) []PureParagraph {
	var out []PureParagraph
	index := 0
	sectionIndex := 0
	container := baseContainer

	var stack []string
	var textBuf []byte
	inParagraph := false
	paragraphDepth := 0

	// pPr metadata captured for the current paragraph, only while it's a
	// direct child of the w:p element (depth == paragraphDepth+1).
	var pprDepth int
	inPPr := false
	var pStyle, numID, numIlvl, outlineLvl string
	sectPrInThisPara := false

	tableDepth := 0
	tableIndex := -1
	rowIndex := -1
	cellIndex := -1

	flush := func() {
		p := PureParagraph{
			Part:         partName,
			Index:        index,
			Text:         string(textBuf),
			Container:    container,
			SectionIndex: sectionIndex,
			PStyle:       pStyle,
			NumID:        numID,
			NumIlvl:      numIlvl,
			OutlineLvl:   outlineLvl,
		}
		if container == ContainerTableCell && tableIndex >= 0 {
			ti, ri, ci := tableIndex, rowIndex, cellIndex
			p.TableIndex, p.RowIndex, p.CellIndex = &ti, &ri, &ci
		}
		if strings.TrimSpace(p.Text) != "" {
			out = append(out, p)
			index++
		}
		textBuf = nil
		inParagraph = false
		pStyle, numID, numIlvl, outlineLvl = "", "", "", ""
		if sectPrInThisPara {
			sectionIndex++
			sectPrInThisPara = false
		}
	}

	for _, ev := range events {
		switch ev.Kind {
		case xmlevent.Start:
			stack = append(stack, ev.Name)
			switch ev.Name {
			case "w:tbl":
				if tableDepth == 0 {
					tableIndex++
					rowIndex = -1
				}
				tableDepth++
			case "w:tr":
				if tableDepth == 1 {
					rowIndex++
					cellIndex = -1
				}
			case "w:tc":
				if tableDepth == 1 {
					cellIndex++
					container = ContainerTableCell
				}
			case "w:p":
				if !inParagraph {
					inParagraph = true
					paragraphDepth = len(stack)
					textBuf = nil
				}
			case "w:pPr":
				if inParagraph && len(stack) == paragraphDepth+1 {
					inPPr = true
					pprDepth = len(stack)
				}
			case "w:sectPr":
				if inParagraph && inPPr && len(stack) == pprDepth+1 {
					sectPrInThisPara = true
				}
			}
		case xmlevent.End:
			if inParagraph && ev.Name == "w:p" && len(stack) == paragraphDepth {
				flush()
			}
			if ev.Name == "w:pPr" && inPPr && len(stack) == pprDepth {
				inPPr = false
			}
			if ev.Name == "w:tbl" && tableDepth > 0 {
				tableDepth--
				if tableDepth == 0 {
					container = baseContainer
				}
			}
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xmlevent.Empty:
			if inPPr && inParagraph && len(stack) == pprDepth {
				switch ev.Name {
				case "w:pStyle":
					pStyle = attrVal(ev, "w:val")
				case "w:outlineLvl":
					outlineLvl = attrVal(ev, "w:val")
				}
			}
			// w:numId/w:ilvl live one level deeper, inside w:pPr/w:numPr.
			if inPPr && inParagraph && len(stack) == pprDepth+1 && stack[len(stack)-1] == "w:numPr" {
				switch ev.Name {
				case "w:numId":
					numID = attrVal(ev, "w:val")
				case "w:ilvl":
					numIlvl = attrVal(ev, "w:val")
				}
			}
			if inParagraph {
				if ev.Name == "w:br" {
					if brIsLineBreak(ev) {
						textBuf = append(textBuf, '\n')
					}
					continue
				}
				if ch, ok := controlRunChild[ev.Name]; ok {
					textBuf = append(textBuf, ch...)
				}
			}
		case xmlevent.Text:
			if !inParagraph || len(stack) == 0 {
				continue
			}
			parent := stack[len(stack)-1]
			if xmlevent.TextTags[parent] {
				textBuf = append(textBuf, ev.Text...)
			}
		}
	}
	if inParagraph {
		flush()
	}

	return out
}
