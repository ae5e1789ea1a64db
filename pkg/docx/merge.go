package docx

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/sentinelmt/docxtranslate/pkg/xmlevent"
)

// MergeResult reports the shape of a completed merge.
type MergeResult struct {
	OutputPath string
	SlotsTotal int
}

// Merge rebuilds a full Package from mask/offsets/text/blobs and writes it to
// outputPath as a new DOCX.
func Merge(mask *MaskJSON, offsets *OffsetsJSON, text *TextJSON, blobs []byte, outputPath string) (*MergeResult, error) {
	pkg, err := Rebuild(mask, offsets, text, blobs)
	if err != nil {
		return nil, err
	}
	if err := pkg.WriteToFile(outputPath); err != nil {
		return nil, err
	}
	return &MergeResult{OutputPath: outputPath, SlotsTotal: len(offsets.Slots)}, nil
}

// Rebuild reconstructs a Package in memory from mask/offsets/text/blobs,
// substituting text.SlotTexts into each masked XML part in place of its
// placeholders. It cross-checks that mask, offsets and text all carry the
// same placeholder prefix before touching any content, so a translation run
// whose text.json was paired with the wrong extraction's mask/offsets fails
// loudly instead of silently producing a corrupted document.
func Rebuild(mask *MaskJSON, offsets *OffsetsJSON, text *TextJSON, blobs []byte) (*Package, error) {
	if mask.PlaceholderPrefix != offsets.PlaceholderPrefix {
		return nil, fmt.Errorf("docx: merge: mask/offsets placeholder prefix mismatch (%q vs %q)", mask.PlaceholderPrefix, offsets.PlaceholderPrefix)
	}
	if text.PlaceholderPrefix != "" && text.PlaceholderPrefix != mask.PlaceholderPrefix {
		return nil, fmt.Errorf("docx: merge: mask/text placeholder prefix mismatch (%q vs %q)", mask.PlaceholderPrefix, text.PlaceholderPrefix)
	}
	if len(text.SlotTexts) != len(offsets.Slots) {
		return nil, fmt.Errorf("docx: merge: text has %d slot texts but offsets has %d slots", len(text.SlotTexts), len(offsets.Slots))
	}
	if err := checkSlotIDsContiguous(offsets.Slots); err != nil {
		return nil, err
	}

	byPart := make(map[string][]TextSlot)
	for _, s := range offsets.Slots {
		byPart[s.Part] = append(byPart[s.Part], s)
	}

	pkg := &Package{}
	for _, me := range mask.Entries {
		data, err := rebuildEntryData(me, byPart[me.Name], text.SlotTexts, mask.PlaceholderPrefix, blobs)
		if err != nil {
			return nil, fmt.Errorf("docx: merge: entry %s: %w", me.Name, err)
		}
		pkg.Entries = append(pkg.Entries, Entry{
			Name:         me.Name,
			Data:         data,
			Method:       me.Compression,
			ModifiedTime: me.ModTime,
			ModifiedDate: me.ModDate,
			UnixMode:     me.UnixMode,
			IsDir:        me.IsDir,
		})
	}
	return pkg, nil
}

func checkSlotIDsContiguous(slots []TextSlot) error {
	if len(slots) == 0 {
		return nil
	}
	seen := make(map[int]bool, len(slots))
	min, max := slots[0].ID, slots[0].ID
	for _, s := range slots {
		if seen[s.ID] {
			return fmt.Errorf("docx: merge: duplicate slot id %d", s.ID)
		}
		seen[s.ID] = true
		if s.ID < min {
			min = s.ID
		}
		if s.ID > max {
			max = s.ID
		}
	}
	if min != 1 || max != len(slots) {
		return fmt.Errorf("docx: merge: slot ids not contiguous from 1: min=%d max=%d count=%d", min, max, len(slots))
	}
	return nil
}

func rebuildEntryData(me MaskEntry, slots []TextSlot, slotTexts []string, prefix string, blobs []byte) ([]byte, error) {
	switch me.Data.Kind {
	case MaskKindEmpty:
		return nil, nil
	case MaskKindUtf8:
		return []byte(me.Data.Utf8), nil
	case MaskKindBase64:
		data, err := base64.StdEncoding.DecodeString(me.Data.Base64)
		if err != nil {
			return nil, fmt.Errorf("decode base64: %w", err)
		}
		return data, nil
	case MaskKindExternal:
		maskedBytes, err := extractBlob(blobs, me.Data)
		if err != nil {
			return nil, err
		}
		if len(slots) == 0 {
			return maskedBytes, nil
		}
		return mergePartSlots(me.Name, maskedBytes, slots, slotTexts, prefix)
	default:
		return nil, fmt.Errorf("unknown mask entry kind %q", me.Data.Kind)
	}
}

// mergePartSlots re-parses a masked part's bytes and substitutes each slot's
// placeholder with its translated (or original, for an identity merge) text,
// then re-serializes. Any "__MT_MASK_" substring left over after every known
// slot has been substituted means a placeholder survived unmatched - a bug
// in the mask/offsets pairing, not something to silently ship.
func mergePartSlots(partName string, maskedBytes []byte, slots []TextSlot, slotTexts []string, prefix string) ([]byte, error) {
	events, err := xmlevent.Parse(maskedBytes)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	for _, s := range slots {
		if s.ID < 1 || s.ID > len(slotTexts) {
			return nil, fmt.Errorf("slot %d: no text available", s.ID)
		}
		value := slotTexts[s.ID-1]
		want := Placeholder(prefix, s.ID)

		if s.EventIndex < 0 || s.EventIndex >= len(events) {
			return nil, fmt.Errorf("slot %d: event index %d out of range", s.ID, s.EventIndex)
		}
		ev := &events[s.EventIndex]

		switch s.Kind {
		case SlotKindText:
			if ev.Kind != xmlevent.Text || ev.Text != want {
				return nil, fmt.Errorf("slot %d: placeholder not found at recorded position", s.ID)
			}
			ev.Text = value
		case SlotKindCData:
			if ev.Kind != xmlevent.CData || ev.Text != want {
				return nil, fmt.Errorf("slot %d: placeholder not found at recorded position", s.ID)
			}
			ev.Text = value
		case SlotKindAttr:
			found := false
			for i := range ev.Attrs {
				if ev.Attrs[i].Name == s.AttrName && ev.Attrs[i].Value == want {
					ev.Attrs[i].Value = xmlevent.EscapeAttrForMerge(value)
					found = true
					break
				}
			}
			if !found {
				return nil, fmt.Errorf("slot %d: placeholder attr %s not found at recorded position", s.ID, s.AttrName)
			}
		default:
			return nil, fmt.Errorf("slot %d: unknown kind %q", s.ID, s.Kind)
		}
	}

	out := xmlevent.Write(events)
	if strings.Contains(string(out), placeholderMagic) {
		return nil, fmt.Errorf("%s: leftover placeholder after merge", partName)
	}
	return out, nil
}
