package translator

import (
	"context"
	"strings"
	"testing"

	"github.com/sentinelmt/docxtranslate/pkg/sentinel"
	"github.com/stretchr/testify/require"
)

// stubBackend answers every prompt with whatever its respond function
// returns and counts the calls, so tests can exercise the engine's parsing
// and validation plumbing without a real model.
type stubBackend struct {
	respond func(prompt string) string
	calls   int
}

func (s *stubBackend) Name() string { return "stub" }

func (s *stubBackend) Complete(ctx context.Context, prompt string, maxTokens int, temp float64) (string, int, int, error) {
	s.calls++
	return s.respond(prompt), len(prompt) / 4, maxTokens, nil
}

func echoTranslate(prompt string) string {
	// naive stand-in "translation": uppercase the text between markers,
	// markers themselves pass through untouched.
	var out strings.Builder
	rest := prompt
	for {
		start := strings.Index(rest, "<<MT_")
		if start < 0 {
			break
		}
		end := strings.Index(rest[start:], ">>")
		if end < 0 {
			break
		}
		marker := rest[start : start+end+2]
		out.WriteString(strings.ToUpper(rest[:start]))
		out.WriteString(marker)
		rest = rest[start+end+2:]
	}
	out.WriteString(strings.ToUpper(rest))
	return out.String()
}

func TestEngineTranslatesSimpleUnitsSuccessfully(t *testing.T) {
	backend := &stubBackend{respond: func(prompt string) string {
		return sentinel.SegStart(1) + "BONJOUR" + sentinel.SegEnd(1) +
			sentinel.SegStart(2) + "SALUT" + sentinel.SegEnd(2)
	}}
	engine := NewEngine(backend, EngineConfig{
		SourceLang: "en", TargetLang: "fr",
		MaxChunkChars: 4000, MaxChunkItems: 32, MaxRepairAttempts: 2,
	}, nil)

	units := []TranslationUnit{{ID: 1, Source: "hello"}, {ID: 2, Source: "hi"}}
	res, err := engine.TranslateAll(context.Background(), units)
	require.NoError(t, err)
	require.Equal(t, "BONJOUR", res.Translations[1])
	require.Equal(t, "SALUT", res.Translations[2])
	require.Equal(t, OutcomeTranslated, res.Outcomes[1])
}

func TestEngineSkipsTrivialUnits(t *testing.T) {
	backend := &stubBackend{respond: func(prompt string) string {
		t.Fatal("backend should not be called for a trivial-only unit set")
		return ""
	}}
	engine := NewEngine(backend, EngineConfig{MaxChunkChars: 4000, MaxChunkItems: 32}, nil)

	units := []TranslationUnit{{ID: 1, Source: "42"}}
	res, err := engine.TranslateAll(context.Background(), units)
	require.NoError(t, err)
	require.Equal(t, "42", res.Translations[1])
	require.Equal(t, OutcomeTrivial, res.Outcomes[1])
	require.Equal(t, 0, backend.calls)
}

func TestEngineFallsBackToForcedWhenBackendNeverComplies(t *testing.T) {
	// The backend refuses every marker-framed prompt, including each
	// fragment of the forced-translation fallback, so every fragment keeps
	// its own untranslated text - the mechanical reassembly still produces
	// a validatable result (unchanged from source), so the unit lands as
	// Forced rather than falling all the way through to Identity.
	backend := &stubBackend{respond: func(prompt string) string {
		return "the model just refuses to use any markers at all"
	}}
	engine := NewEngine(backend, EngineConfig{
		SourceLang: "en", TargetLang: "fr",
		MaxChunkChars: 4000, MaxChunkItems: 32, MaxRepairAttempts: 1,
	}, nil)

	units := []TranslationUnit{{ID: 1, Source: "hello there"}}
	res, err := engine.TranslateAll(context.Background(), units)
	require.NoError(t, err)
	require.Equal(t, "hello there", res.Translations[1])
	require.Equal(t, OutcomeForced, res.Outcomes[1])
}

func TestEngineFallsBackToIdentityWhenForcedTranslationStillFailsValidation(t *testing.T) {
	// A source containing a legal reference after a gated keyword: the
	// backend "translates" every fragment by mangling the clause number, so
	// even the mechanical forced-translation fallback fails validate.Validate
	// and the engine must fall all the way through to the identity pass.
	backend := &stubBackend{respond: func(prompt string) string {
		if strings.Contains(prompt, sentinel.SlotToken(1)) {
			return sentinel.SlotToken(1) + "voir Section 9.9 ici" + sentinel.SlotToken(sentinel.SlotTerminator)
		}
		return "no usable markers here"
	}}
	engine := NewEngine(backend, EngineConfig{
		SourceLang: "en", TargetLang: "fr",
		MaxChunkChars: 4000, MaxChunkItems: 32, MaxRepairAttempts: 1,
	}, nil)

	units := []TranslationUnit{{ID: 1, Source: "see Section 4.1 here"}}
	res, err := engine.TranslateAll(context.Background(), units)
	require.NoError(t, err)
	require.Equal(t, "see Section 4.1 here", res.Translations[1])
	require.Equal(t, OutcomeIdentity, res.Outcomes[1])
}

func TestEngineBisectsOnChunkParseFailure(t *testing.T) {
	calls := 0
	backend := &stubBackend{respond: func(prompt string) string {
		calls++
		if strings.Contains(prompt, sentinel.SegStart(1)) && strings.Contains(prompt, sentinel.SegStart(2)) {
			// whole-chunk prompt: return garbage, forcing a bisection
			return "garbled nonsense"
		}
		return echoTranslate(prompt)
	}}
	engine := NewEngine(backend, EngineConfig{
		SourceLang: "en", TargetLang: "fr",
		MaxChunkChars: 4000, MaxChunkItems: 32, MaxRepairAttempts: 1,
	}, nil)

	units := []TranslationUnit{{ID: 1, Source: "hello"}, {ID: 2, Source: "world"}}
	res, err := engine.TranslateAll(context.Background(), units)
	require.NoError(t, err)
	require.Contains(t, res.Translations, 1)
	require.Contains(t, res.Translations, 2)
	require.Greater(t, calls, 1)
}

func TestEngineRetriesWhenHeuristicsFlagIdenticalOutput(t *testing.T) {
	calls := 0
	backend := &stubBackend{respond: func(prompt string) string {
		calls++
		switch {
		case strings.Contains(prompt, "did not meet the required format"):
			return sentinel.SlotToken(1) + "BONJOUR LE MONDE" + sentinel.SlotToken(sentinel.SlotTerminator)
		case strings.Contains(prompt, sentinel.SegStart(1)):
			// first pass: the model echoes the source back untranslated
			return sentinel.SegStart(1) + "hello world" + sentinel.SegEnd(1)
		default:
			t.Fatalf("unexpected prompt: %s", prompt)
			return ""
		}
	}}
	engine := NewEngine(backend, EngineConfig{
		SourceLang: "en", TargetLang: "fr",
		MaxChunkChars: 4000, MaxChunkItems: 32, MaxRepairAttempts: 2,
	}, nil)

	units := []TranslationUnit{{ID: 1, Source: "hello world"}}
	res, err := engine.TranslateAll(context.Background(), units)
	require.NoError(t, err)
	require.Equal(t, "BONJOUR LE MONDE", res.Translations[1])
	require.Equal(t, OutcomeRepaired, res.Outcomes[1])
	require.GreaterOrEqual(t, calls, 2)
}

func TestChunkCharBudgetFloorsAtFourThousand(t *testing.T) {
	require.Equal(t, 4000, ChunkCharBudget(100))
	require.Equal(t, 6200, ChunkCharBudget(4000))
}
