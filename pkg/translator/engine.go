package translator

import (
	"context"
	"fmt"
	"strings"

	"github.com/sentinelmt/docxtranslate/pkg/sentinel"
	"github.com/sentinelmt/docxtranslate/pkg/validate"
	"go.uber.org/zap"
)

// EngineConfig holds the knobs the chunked translator needs beyond the
// backend itself: chunk packing limits, repair attempts, and the optional
// progress/autosave callbacks.
type EngineConfig struct {
	SourceLang, TargetLang string
	MaxChunkChars          int
	MaxChunkItems          int
	MaxRepairAttempts      int
	AutosaveEvery          int
	ValidateOpts           validate.Options

	// Autosave, when non-nil, is invoked every AutosaveEvery completed units
	// with the translations gathered so far, so a caller can merge and write
	// a side-car DOCX without waiting for the whole run to finish. It is
	// checked after each chunk, and fires when that chunk carried the count
	// past a multiple of AutosaveEvery.
	Autosave func(done int, results map[int]string)
	// Progress, when non-nil, is invoked once before the first chunk and
	// again after every chunk completes, with the number of units finished
	// so far (trivial units count as finished from the start) out of all
	// units.
	Progress func(done, total int)
}

// UnitOutcome records how one unit's translation was ultimately obtained,
// for the run summary table.
type UnitOutcome string

const (
	OutcomeTranslated UnitOutcome = "translated"
	OutcomeRepaired   UnitOutcome = "repaired"
	OutcomeForced     UnitOutcome = "forced"
	OutcomeIdentity   UnitOutcome = "identity"
	OutcomeTrivial    UnitOutcome = "trivial"
)

// Result is the full outcome of one TranslateAll run.
type Result struct {
	Translations map[int]string
	Outcomes     map[int]UnitOutcome
	InputTokens  int
	OutputTokens int
}

// Engine drives the chunked translator: pack units into chunks, send each
// chunk's prompt to Backend, and parse the segmented response. A response
// that fails to parse is bisected down to single-unit prompts; a unit whose
// translation fails validate.Validate (or the quality heuristics) goes
// through repair prompts, then a per-fragment forced translation, then the
// identity fallback, so every unit ends up with some text.
type Engine struct {
	Backend Backend
	Config  EngineConfig
	Log     *zap.Logger
}

// NewEngine constructs an Engine. log may be nil (zap.NewNop() is used).
func NewEngine(backend Backend, cfg EngineConfig, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.MaxRepairAttempts <= 0 {
		cfg.MaxRepairAttempts = 2
	}
	return &Engine{Backend: backend, Config: cfg, Log: log}
}

// TranslateAll runs every unit through the chunked translator and returns
// the full set of results. It never returns an error for a content
// mismatch - those are resolved internally down to an identity fallback -
// only for context cancellation or a hard backend failure.
func (e *Engine) TranslateAll(ctx context.Context, units []TranslationUnit) (*Result, error) {
	res := &Result{
		Translations: make(map[int]string, len(units)),
		Outcomes:     make(map[int]UnitOutcome, len(units)),
	}

	var toTranslate []TranslationUnit
	for _, u := range units {
		if u.IsTrivial() {
			res.Translations[u.ID] = u.Source
			res.Outcomes[u.ID] = OutcomeTrivial
			continue
		}
		toTranslate = append(toTranslate, u)
	}

	chunks := PackChunks(toTranslate, e.Config.MaxChunkChars, e.Config.MaxChunkItems)

	done := len(units) - len(toTranslate)
	total := len(units)
	e.reportProgress(done, total)

	for _, chunk := range chunks {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		if err := e.translateChunk(ctx, chunk, res); err != nil {
			return res, err
		}

		prev := done
		done += len(chunk.Units)
		e.reportProgress(done, total)
		e.maybeAutosave(prev, done, res)
	}

	return res, nil
}

func (e *Engine) reportProgress(done, total int) {
	if e.Config.Progress != nil {
		e.Config.Progress(done, total)
	}
}

func (e *Engine) maybeAutosave(prev, done int, res *Result) {
	if e.Config.Autosave == nil || e.Config.AutosaveEvery <= 0 {
		return
	}
	if done/e.Config.AutosaveEvery > prev/e.Config.AutosaveEvery {
		e.Config.Autosave(done, res.Translations)
	}
}

// translateChunk sends one chunk's SEG/END-wrapped prompt, parses the
// response, and recovers any unit that failed to parse or failed
// validation. A chunk of size 1 that still fails parsing has nothing left
// to bisect; it goes straight to recoverUnit's single-unit slot prompt.
func (e *Engine) translateChunk(ctx context.Context, chunk Chunk, res *Result) error {
	if len(chunk.Units) == 0 {
		return nil
	}

	prompt := buildSegmentedPrompt(e.Config.SourceLang, e.Config.TargetLang, chunk.Units)
	output, in, out, err := e.Backend.Complete(ctx, prompt, estimateMaxTokens(chunk.Units), 0.2)
	if err != nil {
		return fmt.Errorf("translator: backend call failed: %w", err)
	}
	res.InputTokens += in
	res.OutputTokens += out

	ids := make([]int, len(chunk.Units))
	for i, u := range chunk.Units {
		ids[i] = u.ID
	}

	parsed, perr := sentinel.ParseSegmentedOutput(output, ids)
	if perr != nil {
		e.Log.Warn("chunk parse failed, bisecting", zap.Int("units", len(chunk.Units)), zap.Error(perr))
		return e.recoverByBisection(ctx, chunk, res)
	}

	bySource := make(map[int]TranslationUnit, len(chunk.Units))
	for _, u := range chunk.Units {
		bySource[u.ID] = u
	}

	for _, id := range ids {
		unit := bySource[id]
		translated, ok := parsed[id]
		if !ok {
			if err := e.recoverUnit(ctx, unit, res); err != nil {
				return err
			}
			continue
		}
		e.acceptOrRepair(ctx, unit, translated, OutcomeTranslated, res)
	}

	return nil
}

// recoverByBisection halves a chunk whose response failed to parse at all
// (a structural failure, not a per-unit validation failure) and retries
// each half independently, recursing down to single-unit chunks if needed.
// This is the pipeline's defense against one unit in a large batch
// derailing the whole batch's output shape.
func (e *Engine) recoverByBisection(ctx context.Context, chunk Chunk, res *Result) error {
	if len(chunk.Units) == 1 {
		return e.recoverUnit(ctx, chunk.Units[0], res)
	}
	mid := len(chunk.Units) / 2
	left := Chunk{Units: chunk.Units[:mid]}
	right := Chunk{Units: chunk.Units[mid:]}
	if err := e.translateChunk(ctx, left, res); err != nil {
		return err
	}
	return e.translateChunk(ctx, right, res)
}

// recoverUnit re-sends a single unit as a slot-style prompt (no SEG/END
// framing needed once it's alone) and runs it through the same
// accept-or-repair pipeline.
func (e *Engine) recoverUnit(ctx context.Context, unit TranslationUnit, res *Result) error {
	prompt := buildSlotPrompt(e.Config.SourceLang, e.Config.TargetLang, unit)
	output, in, out, err := e.Backend.Complete(ctx, prompt, estimateMaxTokens([]TranslationUnit{unit}), 0.2)
	if err != nil {
		return fmt.Errorf("translator: backend call failed for unit %d: %w", unit.ID, err)
	}
	res.InputTokens += in
	res.OutputTokens += out

	parsed, perr := sentinel.ParseSlotOutput(output, []int{unit.ID})
	if perr != nil {
		return e.repairOrFallback(ctx, unit, "", perr, res)
	}
	e.acceptOrRepair(ctx, unit, parsed[unit.ID], OutcomeTranslated, res)
	return nil
}

// acceptOrRepair validates one unit's candidate translation. If it passes
// both the hard validator and the soft quality heuristics, it's recorded
// with outcome; otherwise the unit enters the repair loop. The heuristics
// only gate the first attempt - repairOrFallback's own retries stop at the
// hard validator, so a heuristic-only objection never blocks forever.
func (e *Engine) acceptOrRepair(ctx context.Context, unit TranslationUnit, candidate string, outcome UnitOutcome, res *Result) {
	verr := validate.Validate(unit.Source, candidate, e.Config.ValidateOpts)
	if verr == nil {
		heur := validate.ComputeHeuristics(unit.Source, candidate, e.Config.TargetLang, e.Config.ValidateOpts)
		if !heur.WantsForceRetranslate() {
			res.Translations[unit.ID] = candidate
			res.Outcomes[unit.ID] = outcome
			return
		}
		verr = &validate.Error{Code: validate.CodeQualityHeuristic, Detail: heuristicDetail(heur)}
	}
	if err := e.repairOrFallback(ctx, unit, candidate, verr, res); err != nil {
		e.Log.Warn("repair pipeline error, using identity fallback", zap.Int("unit", unit.ID), zap.Error(err))
		res.Translations[unit.ID] = unit.Source
		res.Outcomes[unit.ID] = OutcomeIdentity
	}
}

// repairOrFallback retries a failed unit up to MaxRepairAttempts times with
// a prompt naming the exact validation failure, then tries forcedTranslate
// (each plaintext fragment translated on its own, sentinels spliced back
// in) and keeps that result if it passes validate.Validate, and finally
// falls back to the identity translation (the untranslated, still-frozen
// source) so the document never ends up with a hole where a unit used to
// be.
func (e *Engine) repairOrFallback(ctx context.Context, unit TranslationUnit, lastCandidate string, initialErr error, res *Result) error {
	candidate := lastCandidate
	lastErr := initialErr

	for attempt := 1; attempt <= e.Config.MaxRepairAttempts; attempt++ {
		prompt := buildRepairPrompt(e.Config.SourceLang, e.Config.TargetLang, unit, candidate, lastErr)
		output, in, out, err := e.Backend.Complete(ctx, prompt, estimateMaxTokens([]TranslationUnit{unit}), 0.1)
		if err != nil {
			return err
		}
		res.InputTokens += in
		res.OutputTokens += out

		parsed, perr := sentinel.ParseSlotOutput(output, []int{unit.ID})
		if perr != nil {
			lastErr = perr
			continue
		}
		candidate = parsed[unit.ID]
		if verr := validate.Validate(unit.Source, candidate, e.Config.ValidateOpts); verr == nil {
			res.Translations[unit.ID] = candidate
			res.Outcomes[unit.ID] = OutcomeRepaired
			return nil
		} else {
			lastErr = verr
		}
	}

	forced, in, out, err := e.forcedTranslate(ctx, unit)
	if err != nil {
		return err
	}
	res.InputTokens += in
	res.OutputTokens += out

	if verr := validate.Validate(unit.Source, forced, e.Config.ValidateOpts); verr == nil {
		res.Translations[unit.ID] = forced
		res.Outcomes[unit.ID] = OutcomeForced
		return nil
	}

	res.Translations[unit.ID] = unit.Source
	res.Outcomes[unit.ID] = OutcomeIdentity
	return nil
}

// forcedTranslate is the mechanical, non-model-retry step before identity
// fallback: it partitions the unit's frozen source by its sentinel tokens,
// translates each plaintext piece independently, and reassembles the result
// by splicing the original sentinel tokens back in unchanged. Sentinel
// preservation holds by construction - no token is ever sent to the model a
// third time - so the only way this step can still fail validate.Validate is
// a mistranslated digit or legal reference inside one of the fragments.
func (e *Engine) forcedTranslate(ctx context.Context, unit TranslationUnit) (string, int, int, error) {
	segments := sentinel.Split(unit.Source)
	var out strings.Builder
	totalIn, totalOut := 0, 0

	for i, seg := range segments {
		if seg.IsToken || strings.TrimSpace(seg.Text) == "" {
			out.WriteString(seg.Text)
			continue
		}

		holeBefore := i > 0 && segments[i-1].IsToken
		holeAfter := i < len(segments)-1 && segments[i+1].IsToken
		prompt := buildForcedSegmentPrompt(e.Config.SourceLang, e.Config.TargetLang, seg.Text, holeBefore, holeAfter)

		resp, in, outTok, err := e.Backend.Complete(ctx, prompt, estimateMaxTokens([]TranslationUnit{{Source: seg.Text}}), 0.0)
		if err != nil {
			return "", totalIn, totalOut, err
		}
		totalIn += in
		totalOut += outTok

		translated := seg.Text
		if parsed, perr := sentinel.ParseSlotOutput(resp, []int{forcedSegmentSlotID}); perr == nil {
			translated = stripHallucinatedTokens(parsed[forcedSegmentSlotID])
		}
		out.WriteString(translated)
	}

	return out.String(), totalIn, totalOut, nil
}

// stripHallucinatedTokens removes any "<<MT_...>>"-shaped token from a
// forced-translation fragment's output. The fragment sent to the model never
// contained a real sentinel - those were partitioned out before the call -
// so anything shaped like one in the response is the model inventing
// markup, not content to preserve.
func stripHallucinatedTokens(s string) string {
	for _, tok := range sentinel.AnyMTTokenMatches(s) {
		s = strings.ReplaceAll(s, tok, "")
	}
	return s
}

// heuristicDetail names which soft signal(s) fired, for the repair prompt's
// "Problem: ..." line.
func heuristicDetail(h validate.Heuristics) string {
	var parts []string
	if h.LengthRatioExtreme {
		parts = append(parts, "length ratio far from source")
	}
	if h.TargetScriptMissing {
		parts = append(parts, "output script doesn't match target language")
	}
	if h.IdenticalToSource {
		parts = append(parts, "output identical to source, looks untranslated")
	}
	if h.BracketCountDrift {
		parts = append(parts, "bracket count changed")
	}
	return strings.Join(parts, "; ")
}

// estimateMaxTokens gives the backend a generous output token budget: four
// characters per token is a conservative, language-agnostic rule of thumb,
// doubled to leave room for a target language that expands on the source
// (e.g. English -> German).
func estimateMaxTokens(units []TranslationUnit) int {
	chars := 0
	for _, u := range units {
		chars += len(u.Source)
	}
	tokens := (chars / 2) + 256
	if tokens < 256 {
		tokens = 256
	}
	return tokens
}
