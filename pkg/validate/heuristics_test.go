package validate

import "testing"

func TestComputeHeuristicsFlagsIdenticalOutput(t *testing.T) {
	h := ComputeHeuristics("hello world", "hello world", "fr", Options{})
	if !h.IdenticalToSource {
		t.Fatal("expected IdenticalToSource to be flagged")
	}
	if !h.WantsForceRetranslate() {
		t.Fatal("expected WantsForceRetranslate to be true")
	}
}

func TestComputeHeuristicsFlagsMissingTargetScript(t *testing.T) {
	h := ComputeHeuristics("hello there, how are you doing", "still just english prose", "zh", Options{})
	if !h.TargetScriptMissing {
		t.Fatal("expected TargetScriptMissing to be flagged for a zh target with Latin-only output")
	}
}

func TestComputeHeuristicsAcceptsPlausibleTranslation(t *testing.T) {
	h := ComputeHeuristics("hello there, how are you doing today", "你好,你今天过得怎么样,希望你一切都好", "zh", Options{})
	if h.WantsForceRetranslate() {
		t.Fatalf("did not expect a force-retranslate signal, got %+v", h)
	}
}

func TestComputeHeuristicsFlagsLengthRatioExtreme(t *testing.T) {
	h := ComputeHeuristics("a reasonably long sentence with several words in it", "x", "fr", Options{})
	if !h.LengthRatioExtreme {
		t.Fatal("expected LengthRatioExtreme to be flagged for a drastically shorter output")
	}
}

func TestComputeHeuristicsFlagsBracketCountDrift(t *testing.T) {
	h := ComputeHeuristics("see note (a) and (b) below", "see note (a) below", "fr", Options{})
	if !h.BracketCountDrift {
		t.Fatal("expected BracketCountDrift to be flagged when a parenthetical is dropped")
	}
}

func TestComputeHeuristicsSkipsLengthRatioForShortText(t *testing.T) {
	h := ComputeHeuristics("hi", "salut", "fr", Options{})
	if h.LengthRatioExtreme {
		t.Fatal("short source text should not trigger the length-ratio heuristic")
	}
}
