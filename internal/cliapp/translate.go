package cliapp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/sentinelmt/docxtranslate/internal/trace"
	"github.com/sentinelmt/docxtranslate/pkg/docx"
	"github.com/sentinelmt/docxtranslate/pkg/freezer"
	"github.com/sentinelmt/docxtranslate/pkg/langguess"
	"github.com/sentinelmt/docxtranslate/pkg/translator"
	"github.com/sentinelmt/docxtranslate/pkg/translator/openaibackend"
	"github.com/sentinelmt/docxtranslate/pkg/validate"
)

func newTranslateCommand() *cobra.Command {
	var out, model string
	var traceDir string
	var sourceLang, targetLang string
	cmd := &cobra.Command{
		Use:   "translate <input.docx>",
		Short: "Translate a DOCX end to end: extract, freeze, translate, merge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := appConfig
			if cmd.Flags().Changed("source-lang") {
				cfg.SourceLang = sourceLang
			}
			if cmd.Flags().Changed("target-lang") {
				cfg.TargetLang = targetLang
			}
			pkg, err := docx.ReadPackage(args[0])
			if err != nil {
				return err
			}

			mask, offsets, blobs, slotTexts, err := docx.ExtractMaskJSONAndOffsets(pkg)
			if err != nil {
				return err
			}
			if err := docx.VerifyPlaceholderPurity(mask, offsets, blobs); err != nil {
				return fmt.Errorf("placeholder purity check failed: %w", err)
			}

			if cfg.SourceLang == "" {
				pureText, err := docx.ExtractPureText(pkg)
				if err == nil {
					var paragraphs []string
					for _, p := range pureText.Paragraphs {
						paragraphs = append(paragraphs, p.Text)
					}
					guess, confidence := langguess.GuessSourceLanguage(paragraphs)
					if guess != "" {
						diagf("guessed source language %q (confidence %.0f%%)", guess, confidence*100)
						cfg.SourceLang = string(guess)
					}
				}
			}

			ntMaps := make(map[int]map[string]string, len(offsets.Slots))
			units := make([]translator.TranslationUnit, 0, len(offsets.Slots))
			for i, s := range offsets.Slots {
				res, err := freezer.Freeze(slotTexts[i])
				if err != nil {
					return fmt.Errorf("freeze slot %s/%d: %w", s.Part, s.ID, err)
				}
				ntMaps[s.ID] = res.NTMap
				units = append(units, translator.TranslationUnit{ID: s.ID, Source: res.Text})
			}

			modelCfg, ok := cfg.Models[model]
			if !ok {
				return fmt.Errorf("no model named %q in config", model)
			}
			maxChunkChars := cfg.MaxChunkChars
			if maxChunkChars <= 0 {
				maxChunkChars = translator.ChunkCharBudget(modelCfg.ContextSize)
			}
			backend, err := openaibackend.New(modelCfg, appLogger.Zap())
			if err != nil {
				return err
			}

			var tw *trace.Writer
			if traceDir != "" {
				tw, err = trace.New(traceDir, "", time.Now())
				if err != nil {
					return err
				}
				defer tw.Close()
			}

			engine := translator.NewEngine(backend, translator.EngineConfig{
				SourceLang:        cfg.SourceLang,
				TargetLang:        cfg.TargetLang,
				MaxChunkChars:     maxChunkChars,
				MaxChunkItems:     cfg.MaxChunkItems,
				MaxRepairAttempts: cfg.MaxRepairAttempts,
				AutosaveEvery:     cfg.AutosaveEvery,
				ValidateOpts: validate.Options{
					StrictCompoundIDs:     cfg.StrictCompoundIDs,
					QualityShortRatioHard: cfg.Quality.ShortRatioHard,
					QualityLongRatioHard:  cfg.Quality.LongRatioHard,
					QualityMinCharsForLen: cfg.Quality.MinCharsForLen,
				},
				Progress: func(done, total int) {
					diagf("translated %d/%d units", done, total)
				},
				Autosave: func(done int, results map[int]string) {
					if err := autosaveMerge(mask, offsets, slotTexts, blobs, ntMaps, results, out); err != nil {
						warnf("autosave at %d units failed: %v", done, err)
					}
				},
			}, appLogger.Zap())

			result, err := engine.TranslateAll(context.Background(), units)
			if err != nil {
				return err
			}
			if tw != nil {
				for _, u := range units {
					tw.Record(trace.Event{UnitID: u.ID, Stage: string(result.Outcomes[u.ID]), Output: result.Translations[u.ID]})
				}
			}

			text := buildTextJSON(mask, offsets, slotTexts, ntMaps, result.Translations)
			mergeResult, err := docx.Merge(mask, offsets, text, blobs, out)
			if err != nil {
				return err
			}

			printSummary(result, mergeResult)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "translated.docx", "output DOCX path")
	cmd.Flags().StringVar(&model, "model", "", "model name from config to translate with")
	cmd.Flags().StringVar(&traceDir, "trace-dir", "", "directory to write a per-unit trace log (disabled if empty)")
	cmd.Flags().StringVar(&sourceLang, "source-lang", "", "source language (overrides config; guessed from the document when both are empty)")
	cmd.Flags().StringVar(&targetLang, "target-lang", "", "target language (overrides config)")
	cmd.MarkFlagRequired("model")
	return cmd
}

// buildTextJSON assembles the final text document to merge: every slot
// falls back to its original (untranslated) text unless results carries a
// finished translation for its id, unfrozen against the freeze map captured
// for that slot.
func buildTextJSON(mask *docx.MaskJSON, offsets *docx.OffsetsJSON, slotTexts []string, ntMaps map[int]map[string]string, results map[int]string) *docx.TextJSON {
	out := make([]string, len(offsets.Slots))
	copy(out, slotTexts)
	for i, s := range offsets.Slots {
		if translated, ok := results[s.ID]; ok {
			out[i] = freezer.Unfreeze(translated, ntMaps[s.ID])
		}
	}
	return &docx.TextJSON{SchemaVersion: 3, PlaceholderPrefix: mask.PlaceholderPrefix, SlotTexts: out}
}

// autosaveMerge re-runs the Merger against whatever translations have
// completed so far, onto a ".autosave" side-car path next to the final
// output, so a long run leaves a usable partial result if it's interrupted.
func autosaveMerge(mask *docx.MaskJSON, offsets *docx.OffsetsJSON, slotTexts []string, blobs []byte, ntMaps map[int]map[string]string, results map[int]string, out string) error {
	text := buildTextJSON(mask, offsets, slotTexts, ntMaps, results)
	_, err := docx.Merge(mask, offsets, text, blobs, autosavePath(out))
	return err
}

func autosavePath(out string) string {
	ext := filepath.Ext(out)
	return strings.TrimSuffix(out, ext) + ".autosave" + ext
}

func printSummary(result *translator.Result, merge *docx.MergeResult) {
	counts := make(map[translator.UnitOutcome]int)
	for _, o := range result.Outcomes {
		counts[o]++
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Outcome", "Units"})
	for _, o := range []translator.UnitOutcome{
		translator.OutcomeTranslated, translator.OutcomeRepaired,
		translator.OutcomeForced, translator.OutcomeIdentity, translator.OutcomeTrivial,
	} {
		if counts[o] > 0 {
			t.AppendRow(table.Row{o, counts[o]})
		}
	}
	t.AppendSeparator()
	t.AppendRow(table.Row{"Input tokens", result.InputTokens})
	t.AppendRow(table.Row{"Output tokens", result.OutputTokens})
	t.AppendRow(table.Row{"Slots merged", merge.SlotsTotal})
	t.Render()
}
