package docx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func samplePart() []byte {
	return []byte(`<?xml version="1.0" encoding="UTF-8"?>` +
		`<w:document xmlns:w="ns"><w:body><w:p><w:r><w:t>Hello world</w:t></w:r>` +
		`<w:r><w:t xml:space="preserve"> again</w:t></w:r></w:p></w:body></w:document>`)
}

func samplePackage() *Package {
	return &Package{Entries: []Entry{
		{Name: "word/document.xml", Data: samplePart()},
		{Name: "[Content_Types].xml", Data: []byte(`<Types/>`)},
	}}
}

func TestExtractMaskJSONAndOffsetsFindsTextRuns(t *testing.T) {
	pkg := samplePackage()
	mask, offsets, blobs, slotTexts, err := ExtractMaskJSONAndOffsets(pkg)
	require.NoError(t, err)

	require.Len(t, slotTexts, 2)
	require.Equal(t, "Hello world", slotTexts[0])
	require.Equal(t, " again", slotTexts[1])

	require.Len(t, offsets.Slots, 2)
	require.Equal(t, 1, offsets.Slots[0].ID)
	require.Equal(t, 2, offsets.Slots[1].ID)

	require.NoError(t, VerifyPlaceholderPurity(mask, offsets, blobs))
}

func TestExtractMaskJSONAndOffsetsSlotIDsAreGlobalAndContiguous(t *testing.T) {
	pkg := samplePackage()
	_, offsets, _, slotTexts, err := ExtractMaskJSONAndOffsets(pkg)
	require.NoError(t, err)

	require.NoError(t, checkSlotIDsContiguous(offsets.Slots))
	require.Len(t, slotTexts, len(offsets.Slots))
}

func TestExtractMaskJSONAndOffsetsStoresMaskedXMLExternally(t *testing.T) {
	pkg := samplePackage()
	mask, _, blobs, _, err := ExtractMaskJSONAndOffsets(pkg)
	require.NoError(t, err)

	var docEntry MaskEntry
	for _, e := range mask.Entries {
		if e.Name == "word/document.xml" {
			docEntry = e
		}
	}
	require.Equal(t, MaskKindExternal, docEntry.Data.Kind)
	require.Greater(t, len(blobs), 0)

	data, err := extractBlob(blobs, docEntry.Data)
	require.NoError(t, err)
	require.Contains(t, string(data), placeholderMagic)
}

func TestPlaceholderRoundtrip(t *testing.T) {
	ph := Placeholder("abcdef0123", 42)
	prefix, id, ok := ParsePlaceholder(ph)
	require.True(t, ok)
	require.Equal(t, "abcdef0123", prefix)
	require.Equal(t, 42, id)
}

func TestMaskLvlTextAttrIsMaskedAsAttrSlot(t *testing.T) {
	part := []byte(`<w:numbering xmlns:w="ns"><w:lvl><w:lvlText w:val="%1."/></w:lvl></w:numbering>`)
	pkg := &Package{Entries: []Entry{{Name: "word/numbering.xml", Data: part}}}

	mask, offsets, blobs, slotTexts, err := ExtractMaskJSONAndOffsets(pkg)
	require.NoError(t, err)
	require.Len(t, offsets.Slots, 1)
	require.Equal(t, SlotKindAttr, offsets.Slots[0].Kind)
	require.Equal(t, "w:val", offsets.Slots[0].AttrName)
	require.Equal(t, "%1.", slotTexts[0])
	require.NoError(t, VerifyPlaceholderPurity(mask, offsets, blobs))
}

func TestMaskCDataIsMaskedAsOwnSlotKind(t *testing.T) {
	part := []byte(`<w:document xmlns:w="ns"><w:body><w:p><w:r><w:t><![CDATA[raw text]]></w:t></w:r></w:p></w:body></w:document>`)
	pkg := &Package{Entries: []Entry{{Name: "word/document.xml", Data: part}}}

	mask, offsets, blobs, slotTexts, err := ExtractMaskJSONAndOffsets(pkg)
	require.NoError(t, err)
	require.Len(t, offsets.Slots, 1)
	require.Equal(t, SlotKindCData, offsets.Slots[0].Kind)
	require.Equal(t, "raw text", slotTexts[0])
	require.NoError(t, VerifyPlaceholderPurity(mask, offsets, blobs))
}

func TestVerifyPlaceholderPurityDetectsTamperedBlob(t *testing.T) {
	pkg := samplePackage()
	mask, offsets, blobs, _, err := ExtractMaskJSONAndOffsets(pkg)
	require.NoError(t, err)
	require.NoError(t, VerifyPlaceholderPurity(mask, offsets, blobs))

	tampered := append([]byte(nil), blobs...)
	for i := range tampered {
		if tampered[i] == 'M' {
			tampered[i] = 'X'
			break
		}
	}
	require.Error(t, VerifyPlaceholderPurity(mask, offsets, tampered))
}

func TestVerifyDocxRoundtripPassesOnUnmodifiedPackage(t *testing.T) {
	pkg := samplePackage()
	require.NoError(t, VerifyDocxRoundtrip(pkg))
}
