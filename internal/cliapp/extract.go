package cliapp

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sentinelmt/docxtranslate/pkg/docx"
)

func newExtractMaskCommand() *cobra.Command {
	var maskOut, offsetsOut, textOut, blobsOut string
	cmd := &cobra.Command{
		Use:   "extract-mask <input.docx>",
		Short: "Extract a mask document, an offsets document, a text document and a blob file from a DOCX file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pkg, err := docx.ReadPackage(args[0])
			if err != nil {
				return err
			}
			mask, offsets, blobs, slotTexts, err := docx.ExtractMaskJSONAndOffsets(pkg)
			if err != nil {
				return err
			}
			text := &docx.TextJSON{SchemaVersion: 3, PlaceholderPrefix: mask.PlaceholderPrefix, SlotTexts: slotTexts}

			if err := writeJSONFile(maskOut, mask); err != nil {
				return err
			}
			if err := writeJSONFile(offsetsOut, offsets); err != nil {
				return err
			}
			if err := writeJSONFile(textOut, text); err != nil {
				return err
			}
			if err := os.WriteFile(blobsOut, blobs, 0o644); err != nil {
				return err
			}
			diagf("wrote mask (%d entries) to %s", len(mask.Entries), maskOut)
			diagf("wrote offsets (%d slots) to %s", len(offsets.Slots), offsetsOut)
			diagf("wrote text to %s", textOut)
			diagf("wrote blobs (%d bytes) to %s", len(blobs), blobsOut)
			return nil
		},
	}
	cmd.Flags().StringVar(&maskOut, "mask-out", "mask.json", "output path for the mask document")
	cmd.Flags().StringVar(&offsetsOut, "offsets-out", "offsets.json", "output path for the offsets document")
	cmd.Flags().StringVar(&textOut, "text-out", "text.json", "output path for the text document")
	cmd.Flags().StringVar(&blobsOut, "blobs-out", "blobs.bin", "output path for the masked-XML blob file")
	return cmd
}

func newExtractTextCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "extract-text <input.docx>",
		Short: "Extract paragraph-grained plain text for read-only review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pkg, err := docx.ReadPackage(args[0])
			if err != nil {
				return err
			}
			pureText, err := docx.ExtractPureText(pkg)
			if err != nil {
				return err
			}
			if err := writeJSONFile(out, pureText); err != nil {
				return err
			}
			diagf("wrote %d paragraphs to %s", len(pureText.Paragraphs), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "puretext.json", "output path for the pure-text document")
	return cmd
}

func writeJSONFile(path string, v interface{}) error {
	data, err := docx.MarshalIndent(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
