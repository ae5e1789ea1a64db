package docx

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/sentinelmt/docxtranslate/pkg/xmlevent"
)

// SlotKind discriminates where inside an XML part a TextSlot's placeholder
// lives.
type SlotKind string

const (
	SlotKindText  SlotKind = "text"
	SlotKindCData SlotKind = "cdata"
	SlotKindAttr  SlotKind = "attr"
)

// TextSlot locates one translatable placeholder: which part, which event in
// that part's re-parsed stream, and (for an attribute slot) which attribute.
// IDs are 1-based and globally contiguous across the whole document - not
// reset per part - so min(ID)==1 and max(ID)==len(offsets.Slots)==
// len(text.SlotTexts).
type TextSlot struct {
	ID         int      `json:"id"`
	Part       string   `json:"part_name"`
	Kind       SlotKind `json:"kind"`
	EventIndex int      `json:"event_index"`
	AttrName   string   `json:"attr_name,omitempty"`
}

// OffsetsJSON is schema v1: the flat, ordered list of every text slot's
// location. PlaceholderPrefix must match the mask and text documents it's
// paired with - the cross-check Merge runs before touching any content - so
// an accidental pairing of mask/offsets/text from two different extractions
// is caught rather than silently producing a corrupted merge.
type OffsetsJSON struct {
	SchemaVersion     int        `json:"schema_version"`
	PlaceholderPrefix string     `json:"placeholder_prefix"`
	Slots             []TextSlot `json:"slots"`
}

// TextJSON is schema v3: the document the Pure-Text extractor produces and
// the Merger consumes. A caller using this purely as the Merger's input only
// needs SlotTexts populated (one entry per TextSlot, indexed by ID-1);
// Paragraphs holds the coarse paragraph-grained view Pure-Text extraction
// exists for on its own.
type TextJSON struct {
	SchemaVersion     int             `json:"schema_version"`
	PlaceholderPrefix string          `json:"placeholder_prefix,omitempty"`
	SlotTexts         []string        `json:"slot_texts,omitempty"`
	Paragraphs        []PureParagraph `json:"paragraphs,omitempty"`
}

// MaskEntryKind discriminates how one ZIP entry's bytes are carried inside
// mask.json.
type MaskEntryKind string

const (
	// MaskKindExternal is used for every XML part whose translatable
	// content was masked: its bytes live in the side-car blob file,
	// addressed by offset/length/sha256, so mask.json stays small even for
	// a multi-megabyte document.xml.
	MaskKindExternal MaskEntryKind = "external"
	// MaskKindUtf8 inlines an entry's literal bytes directly as a JSON
	// string: non-XML text parts, or an XML part with nothing to mask.
	MaskKindUtf8 MaskEntryKind = "utf8"
	// MaskKindBase64 inlines an entry's raw bytes when they don't
	// round-trip cleanly as a UTF-8 JSON string (binary parts: media,
	// embedded objects).
	MaskKindBase64 MaskEntryKind = "base64"
	// MaskKindEmpty marks a directory entry or a zero-length file.
	MaskKindEmpty MaskEntryKind = "empty"
)

// MaskEntryData is a tagged union over the four ways an entry's bytes are
// stored.
type MaskEntryData struct {
	Kind MaskEntryKind `json:"kind"`
	// Utf8 holds an entry's literal content when it round-trips cleanly.
	Utf8 string `json:"utf8,omitempty"`
	// Base64 holds an entry's content when it does not round-trip cleanly
	// as JSON UTF-8.
	Base64 string `json:"base64,omitempty"`
	// Offset, Length and SHA256 locate and verify an External entry's bytes
	// inside the side-car blob file.
	Offset uint64 `json:"offset,omitempty"`
	Length uint64 `json:"length,omitempty"`
	SHA256 string `json:"sha256,omitempty"`
}

// MaskEntry mirrors one ZIP entry's scaffold metadata (name, compression,
// timestamp, unix mode) alongside its MaskEntryData, so the Merger can
// rebuild the archive with no access to the original DOCX at all.
type MaskEntry struct {
	Name        string        `json:"name"`
	Compression uint16        `json:"compression"`
	ModTime     uint16        `json:"mod_time"`
	ModDate     uint16        `json:"mod_date"`
	UnixMode    uint32        `json:"unix_mode"`
	IsDir       bool          `json:"is_dir"`
	Data        MaskEntryData `json:"data"`
}

// MaskJSON is schema v2: a full ZIP scaffold, one entry per original ZIP
// entry in order, plus a reference to the side-car blob file that carries
// every masked XML part's bytes.
type MaskJSON struct {
	SchemaVersion     int         `json:"schema_version"`
	PlaceholderPrefix string      `json:"placeholder_prefix"`
	BlobsFile         string      `json:"blobs_file"`
	Entries           []MaskEntry `json:"entries"`
}

const (
	placeholderMagic   = "__MT_MASK_"
	placeholderIDWidth = 8
)

// PlaceholderPrefix derives the 10-hex-character prefix shared by a
// document's mask, offsets and text JSON: the first 10 hex characters of
// the SHA-256 of the original input file's bytes. Deriving it from content
// rather than a random run id means an accidental cross-document pairing
// (mask from one extraction matched with offsets from another) is caught by
// a plain string comparison instead of silently producing a corrupted
// merge.
func PlaceholderPrefix(pkg *Package) string {
	return hex.EncodeToString(pkg.SourceSHA256[:])[:10]
}

// Placeholder formats the literal text a masked slot's XML position holds in
// place of its real content.
func Placeholder(prefix string, id int) string {
	return fmt.Sprintf("%s%s_%0*d__", placeholderMagic, prefix, placeholderIDWidth, id)
}

// ParsePlaceholder recovers the prefix and id from a placeholder literal, or
// reports ok=false if s isn't shaped like one.
func ParsePlaceholder(s string) (prefix string, id int, ok bool) {
	if !strings.HasPrefix(s, placeholderMagic) || !strings.HasSuffix(s, "__") {
		return "", 0, false
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(s, placeholderMagic), "__")
	idx := strings.LastIndexByte(inner, '_')
	if idx < 0 {
		return "", 0, false
	}
	prefix, idStr := inner[:idx], inner[idx+1:]
	if len(idStr) != placeholderIDWidth {
		return "", 0, false
	}
	n, err := strconv.Atoi(idStr)
	if err != nil {
		return "", 0, false
	}
	return prefix, n, true
}

// ExtractMaskJSONAndOffsets walks every ZIP entry of pkg, masking each XML
// part's translatable Text, CData and w:lvlText/@w:val positions with a
// fresh placeholder, and returns the mask and offsets documents, the blob
// bytes every masked part's bytes were moved into, and each slot's original
// (untranslated) content in id order - so a caller can write that out as a
// TextJSON for an identity round-trip, or feed it straight to a translator.
func ExtractMaskJSONAndOffsets(pkg *Package) (*MaskJSON, *OffsetsJSON, []byte, []string, error) {
	prefix := PlaceholderPrefix(pkg)
	mask := &MaskJSON{SchemaVersion: 2, PlaceholderPrefix: prefix, BlobsFile: "blobs.bin"}
	offsets := &OffsetsJSON{SchemaVersion: 1, PlaceholderPrefix: prefix}
	var blobs []byte
	var slotTexts []string
	nextID := 1

	for _, e := range pkg.Entries {
		entry := MaskEntry{
			Name:        e.Name,
			Compression: e.Method,
			ModTime:     e.ModifiedTime,
			ModDate:     e.ModifiedDate,
			UnixMode:    e.UnixMode,
			IsDir:       e.IsDir,
		}

		if e.IsDir || len(e.Data) == 0 {
			entry.Data = MaskEntryData{Kind: MaskKindEmpty}
			mask.Entries = append(mask.Entries, entry)
			continue
		}

		if !strings.HasSuffix(e.Name, ".xml") {
			entry.Data = inlineEntryData(e.Data)
			mask.Entries = append(mask.Entries, entry)
			continue
		}

		events, err := xmlevent.Parse(e.Data)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("docx: parse %s: %w", e.Name, err)
		}

		slots, texts := maskEvents(e.Name, events, prefix, &nextID)
		maskedBytes := xmlevent.Write(events)

		if len(slots) == 0 {
			entry.Data = inlineEntryData(maskedBytes)
			mask.Entries = append(mask.Entries, entry)
			continue
		}

		offsets.Slots = append(offsets.Slots, slots...)
		slotTexts = append(slotTexts, texts...)

		sum := sha256.Sum256(maskedBytes)
		entry.Data = MaskEntryData{
			Kind:   MaskKindExternal,
			Offset: uint64(len(blobs)),
			Length: uint64(len(maskedBytes)),
			SHA256: hex.EncodeToString(sum[:]),
		}
		blobs = append(blobs, maskedBytes...)
		mask.Entries = append(mask.Entries, entry)
	}

	return mask, offsets, blobs, slotTexts, nil
}

// maskEvents replaces every translatable Text, CData and w:lvlText/@w:val
// position in events in place with a fresh placeholder literal, assigning
// slot ids from the shared *nextID counter so ids stay contiguous across
// the whole document instead of resetting per part. It returns the TextSlot
// locating each placeholder and the original content it replaced, in the
// same order.
func maskEvents(partName string, events []xmlevent.Event, prefix string, nextID *int) ([]TextSlot, []string) {
	var slots []TextSlot
	var texts []string
	var stack []string

	for i := range events {
		ev := &events[i]
		switch ev.Kind {
		case xmlevent.Start:
			stack = append(stack, ev.Name)
			if ev.Name == "w:lvlText" {
				maskLvlTextAttr(partName, ev, i, prefix, nextID, &slots, &texts)
			}
		case xmlevent.End:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xmlevent.Empty:
			if ev.Name == "w:lvlText" {
				maskLvlTextAttr(partName, ev, i, prefix, nextID, &slots, &texts)
			}
		case xmlevent.Text:
			parent := ""
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			}
			if !xmlevent.TextTags[parent] {
				continue
			}
			id := *nextID
			*nextID++
			slots = append(slots, TextSlot{ID: id, Part: partName, Kind: SlotKindText, EventIndex: i})
			texts = append(texts, ev.Text)
			ev.Text = Placeholder(prefix, id)
		case xmlevent.CData:
			id := *nextID
			*nextID++
			slots = append(slots, TextSlot{ID: id, Part: partName, Kind: SlotKindCData, EventIndex: i})
			texts = append(texts, ev.Text)
			ev.Text = Placeholder(prefix, id)
		}
	}

	return slots, texts
}

// maskLvlTextAttr masks a w:lvlText element's w:val attribute: a numbering
// level's text template (e.g. "%1.") is itself translatable content.
func maskLvlTextAttr(partName string, ev *xmlevent.Event, eventIndex int, prefix string, nextID *int, slots *[]TextSlot, texts *[]string) {
	for i := range ev.Attrs {
		if ev.Attrs[i].Name != "w:val" {
			continue
		}
		id := *nextID
		*nextID++
		*slots = append(*slots, TextSlot{ID: id, Part: partName, Kind: SlotKindAttr, EventIndex: eventIndex, AttrName: "w:val"})
		*texts = append(*texts, ev.Attrs[i].Value)
		ev.Attrs[i].Value = Placeholder(prefix, id)
		return
	}
}

func inlineEntryData(data []byte) MaskEntryData {
	if isValidUTF8NoSurrogate(string(data)) {
		return MaskEntryData{Kind: MaskKindUtf8, Utf8: string(data)}
	}
	return MaskEntryData{Kind: MaskKindBase64, Base64: base64.StdEncoding.EncodeToString(data)}
}

func isValidUTF8NoSurrogate(s string) bool {
	for _, r := range s {
		if r == 0xFFFD {
			return false
		}
	}
	return true
}

func extractBlob(blobs []byte, d MaskEntryData) ([]byte, error) {
	end := d.Offset + d.Length
	if end > uint64(len(blobs)) {
		return nil, fmt.Errorf("blob range [%d:%d] exceeds blob file length %d", d.Offset, end, len(blobs))
	}
	data := blobs[d.Offset:end]
	sum := sha256.Sum256(data)
	if hex.EncodeToString(sum[:]) != d.SHA256 {
		return nil, fmt.Errorf("blob sha256 mismatch (want %s)", d.SHA256)
	}
	return data, nil
}

// MarshalIndent is a small convenience wrapper kept so callers (the CLI in
// particular) serialize every JSON document the same way.
func MarshalIndent(v interface{}) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// VerifyPlaceholderPurity confirms that every slot's recorded position,
// within its part's re-parsed event stream, holds exactly the placeholder
// literal offsets says it should - the placeholder purity property. It's
// meant to run immediately after masking, before any part's bytes are ever
// handed to a translation backend.
func VerifyPlaceholderPurity(mask *MaskJSON, offsets *OffsetsJSON, blobs []byte) error {
	if mask.PlaceholderPrefix != offsets.PlaceholderPrefix {
		return fmt.Errorf("docx: mask/offsets placeholder prefix mismatch (%q vs %q)", mask.PlaceholderPrefix, offsets.PlaceholderPrefix)
	}

	byPart := make(map[string][]TextSlot)
	for _, s := range offsets.Slots {
		byPart[s.Part] = append(byPart[s.Part], s)
	}

	for _, me := range mask.Entries {
		slots := byPart[me.Name]
		if len(slots) == 0 {
			continue
		}
		if me.Data.Kind != MaskKindExternal {
			return fmt.Errorf("docx: part %s has slots but is not stored externally", me.Name)
		}
		data, err := extractBlob(blobs, me.Data)
		if err != nil {
			return fmt.Errorf("docx: part %s: %w", me.Name, err)
		}
		events, err := xmlevent.Parse(data)
		if err != nil {
			return fmt.Errorf("docx: part %s: %w", me.Name, err)
		}
		for _, s := range slots {
			want := Placeholder(mask.PlaceholderPrefix, s.ID)
			if err := checkSlotPlaceholder(events, s, want); err != nil {
				return fmt.Errorf("docx: part %s: %w", me.Name, err)
			}
		}
	}
	return nil
}

func checkSlotPlaceholder(events []xmlevent.Event, s TextSlot, want string) error {
	if s.EventIndex < 0 || s.EventIndex >= len(events) {
		return fmt.Errorf("slot %d: event index %d out of range", s.ID, s.EventIndex)
	}
	ev := events[s.EventIndex]
	switch s.Kind {
	case SlotKindText:
		if ev.Kind != xmlevent.Text || ev.Text != want {
			return fmt.Errorf("slot %d: placeholder not pure at event %d", s.ID, s.EventIndex)
		}
	case SlotKindCData:
		if ev.Kind != xmlevent.CData || ev.Text != want {
			return fmt.Errorf("slot %d: placeholder not pure at event %d", s.ID, s.EventIndex)
		}
	case SlotKindAttr:
		for _, a := range ev.Attrs {
			if a.Name == s.AttrName && a.Value == want {
				return nil
			}
		}
		return fmt.Errorf("slot %d: placeholder attr %s not pure at event %d", s.ID, s.AttrName, s.EventIndex)
	default:
		return fmt.Errorf("slot %d: unknown kind %q", s.ID, s.Kind)
	}
	return nil
}

// VerifyDocxRoundtrip extracts mask+offsets+blobs from pkg, rebuilds a
// package with every slot's own original text merged back in unchanged (an
// identity merge), and compares the result against pkg. This is the
// "roundtrip" CLI command's whole job: prove the decomposition is lossless
// before ever sending anything to a model.
func VerifyDocxRoundtrip(pkg *Package) error {
	mask, offsets, blobs, slotTexts, err := ExtractMaskJSONAndOffsets(pkg)
	if err != nil {
		return err
	}
	if err := VerifyPlaceholderPurity(mask, offsets, blobs); err != nil {
		return err
	}
	text := &TextJSON{SchemaVersion: 3, PlaceholderPrefix: mask.PlaceholderPrefix, SlotTexts: slotTexts}
	rebuilt, err := Rebuild(mask, offsets, text, blobs)
	if err != nil {
		return err
	}
	return pkg.VerifyRoundtrip(rebuilt)
}
