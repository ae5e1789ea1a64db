package cliapp

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sentinelmt/docxtranslate/pkg/docx"
)

func newMergeCommand() *cobra.Command {
	var maskPath, offsetsPath, textPath, blobsPath, out string
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge a text document back into a DOCX, using a previously extracted mask/offsets/blobs triplet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var mask docx.MaskJSON
			if err := readJSONFile(maskPath, &mask); err != nil {
				return fmt.Errorf("read mask: %w", err)
			}
			var offsets docx.OffsetsJSON
			if err := readJSONFile(offsetsPath, &offsets); err != nil {
				return fmt.Errorf("read offsets: %w", err)
			}
			var text docx.TextJSON
			if err := readJSONFile(textPath, &text); err != nil {
				return fmt.Errorf("read text: %w", err)
			}
			blobs, err := os.ReadFile(blobsPath)
			if err != nil {
				return fmt.Errorf("read blobs: %w", err)
			}

			result, err := docx.Merge(&mask, &offsets, &text, blobs, out)
			if err != nil {
				return err
			}
			diagf("wrote %s (%d slots)", result.OutputPath, result.SlotsTotal)
			return nil
		},
	}
	cmd.Flags().StringVar(&maskPath, "mask", "mask.json", "path to the mask document from extract-mask")
	cmd.Flags().StringVar(&offsetsPath, "offsets", "offsets.json", "path to the offsets document from extract-mask")
	cmd.Flags().StringVar(&textPath, "text", "text.json", "path to the text document (slot_texts populated with translations)")
	cmd.Flags().StringVar(&blobsPath, "blobs", "blobs.bin", "path to the masked-XML blob file from extract-mask")
	cmd.Flags().StringVar(&out, "out", "translated.docx", "output DOCX path")
	return cmd
}

func readJSONFile(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func newRoundtripCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roundtrip <input.docx>",
		Short: "Verify that extracting and re-merging a DOCX with no translation is lossless",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pkg, err := docx.ReadPackage(args[0])
			if err != nil {
				return err
			}
			if err := docx.VerifyDocxRoundtrip(pkg); err != nil {
				errorf("roundtrip check failed: %v", err)
				return err
			}
			diagf("roundtrip OK: %s", args[0])
			return nil
		},
	}
	return cmd
}
