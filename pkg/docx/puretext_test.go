package docx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractPureTextJoinsRunsPerParagraph(t *testing.T) {
	pkg := samplePackage()
	doc, err := ExtractPureText(pkg)
	require.NoError(t, err)

	require.Len(t, doc.Paragraphs, 1)
	require.Equal(t, "Hello world again", doc.Paragraphs[0].Text)
	require.Equal(t, ContainerBody, doc.Paragraphs[0].Container)
}

func TestExtractPureTextRendersControlRunsAsLiteralCharacters(t *testing.T) {
	part := []byte(`<w:document xmlns:w="ns"><w:body>` +
		`<w:p><w:r><w:t>before</w:t></w:r><w:r><w:tab/></w:r>` +
		`<w:r><w:t>after</w:t></w:r><w:r><w:br/></w:r>` +
		`<w:r><w:t>more</w:t></w:r></w:p>` +
		`</w:body></w:document>`)
	pkg := &Package{Entries: []Entry{{Name: "word/document.xml", Data: part}}}

	doc, err := ExtractPureText(pkg)
	require.NoError(t, err)
	require.Len(t, doc.Paragraphs, 1)
	require.Equal(t, "before\tafter\nmore", doc.Paragraphs[0].Text)
}

func TestExtractPureTextDropsSoftHyphen(t *testing.T) {
	part := []byte(`<w:document xmlns:w="ns"><w:body>` +
		`<w:p><w:r><w:t>co</w:t></w:r><w:r><w:softHyphen/></w:r><w:r><w:t>operate</w:t></w:r></w:p>` +
		`</w:body></w:document>`)
	pkg := &Package{Entries: []Entry{{Name: "word/document.xml", Data: part}}}

	doc, err := ExtractPureText(pkg)
	require.NoError(t, err)
	require.Len(t, doc.Paragraphs, 1)
	require.Equal(t, "cooperate", doc.Paragraphs[0].Text)
}

func TestExtractPureTextHandlesMultipleParagraphsInOrder(t *testing.T) {
	part := []byte(`<w:document xmlns:w="ns"><w:body>` +
		`<w:p><w:r><w:t>first</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>second</w:t></w:r></w:p>` +
		`</w:body></w:document>`)
	pkg := &Package{Entries: []Entry{{Name: "word/document.xml", Data: part}}}

	doc, err := ExtractPureText(pkg)
	require.NoError(t, err)
	require.Len(t, doc.Paragraphs, 2)
	require.Equal(t, "first", doc.Paragraphs[0].Text)
	require.Equal(t, "second", doc.Paragraphs[1].Text)
}

func TestExtractPureTextCapturesParagraphMetadata(t *testing.T) {
	part := []byte(`<w:document xmlns:w="ns"><w:body>` +
		`<w:p><w:pPr><w:pStyle w:val="Heading1"/><w:numPr><w:ilvl w:val="0"/><w:numId w:val="3"/></w:numPr>` +
		`<w:outlineLvl w:val="1"/></w:pPr><w:r><w:t>Intro</w:t></w:r></w:p>` +
		`</w:body></w:document>`)
	pkg := &Package{Entries: []Entry{{Name: "word/document.xml", Data: part}}}

	doc, err := ExtractPureText(pkg)
	require.NoError(t, err)
	require.Len(t, doc.Paragraphs, 1)
	p := doc.Paragraphs[0]
	require.Equal(t, "Heading1", p.PStyle)
	require.Equal(t, "3", p.NumID)
	require.Equal(t, "0", p.NumIlvl)
	require.Equal(t, "1", p.OutlineLvl)
}

func TestExtractPureTextTracksTableCellPosition(t *testing.T) {
	part := []byte(`<w:document xmlns:w="ns"><w:body>` +
		`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>r0c0</w:t></w:r></w:p></w:tc>` +
		`<w:tc><w:p><w:r><w:t>r0c1</w:t></w:r></w:p></w:tc></w:tr></w:tbl>` +
		`</w:body></w:document>`)
	pkg := &Package{Entries: []Entry{{Name: "word/document.xml", Data: part}}}

	doc, err := ExtractPureText(pkg)
	require.NoError(t, err)
	require.Len(t, doc.Paragraphs, 2)
	require.Equal(t, ContainerTableCell, doc.Paragraphs[0].Container)
	require.Equal(t, 0, *doc.Paragraphs[0].TableIndex)
	require.Equal(t, 0, *doc.Paragraphs[0].RowIndex)
	require.Equal(t, 0, *doc.Paragraphs[0].CellIndex)
	require.Equal(t, 1, *doc.Paragraphs[1].CellIndex)
}

func TestExtractPureTextResolvesHeaderParts(t *testing.T) {
	rels := []byte(`<Relationships xmlns="ns">` +
		`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/header" Target="header1.xml"/>` +
		`</Relationships>`)
	header := []byte(`<w:hdr xmlns:w="ns"><w:p><w:r><w:t>Header text</w:t></w:r></w:p></w:hdr>`)
	pkg := &Package{Entries: []Entry{
		{Name: "word/document.xml", Data: samplePart()},
		{Name: "word/_rels/document.xml.rels", Data: rels},
		{Name: "word/header1.xml", Data: header},
	}}

	doc, err := ExtractPureText(pkg)
	require.NoError(t, err)

	var found bool
	for _, p := range doc.Paragraphs {
		if p.Container == ContainerHeader {
			found = true
			require.Equal(t, "Header text", p.Text)
		}
	}
	require.True(t, found)
}
