package score

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veristat/veristat/internal/model"
)

func newSynth() *Synthesizer {
	return NewSynthesizer(model.DefaultConfig().Synthesis)
}

func testClaim() model.Claim {
	return model.Claim{ID: "c1", Text: "x", Fingerprint: "fp"}
}

func at() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func ok(name string, score, conf float64) model.VerifierResult {
	return model.OKResult(name, score, conf, nil)
}

func TestSynthesizeWorkedExample(t *testing.T) {
	// Three usable results of four registered verifiers; confidence lands
	// exactly on the 0.6 boundary, which is not enough for a true label.
	results := []model.VerifierResult{
		ok("a", 0.9, 0.9),
		ok("b", 0.8, 0.7),
		model.TimeoutResult("c"),
		ok("d", 0.85, 0.8),
	}

	v := newSynth().Synthesize(testClaim(), results, nil, at())

	assert.InDelta(t, 2.05/2.4, v.AggregateScore, 1e-9)
	assert.InDelta(t, 0.6, v.AggregateConfidence, 1e-9)
	assert.Equal(t, model.LabelMisleading, v.Label)
}

func TestSynthesizeConfidenceAboveBoundaryGivesTrue(t *testing.T) {
	results := []model.VerifierResult{
		ok("a", 0.9, 0.9),
		ok("b", 0.8, 0.8),
		ok("c", 0.85, 0.8),
	}

	v := newSynth().Synthesize(testClaim(), results, nil, at())

	assert.Greater(t, v.AggregateConfidence, 0.6)
	assert.Equal(t, model.LabelTrue, v.Label)
}

func TestSynthesizeLowScoreHighConfidenceGivesFalse(t *testing.T) {
	results := []model.VerifierResult{
		ok("a", 0.1, 0.9),
		ok("b", 0.2, 0.9),
		ok("c", 0.15, 0.9),
	}

	v := newSynth().Synthesize(testClaim(), results, nil, at())
	assert.Equal(t, model.LabelFalse, v.Label)
}

func TestSynthesizeLowConfidenceGivesUnverified(t *testing.T) {
	results := []model.VerifierResult{
		ok("a", 0.9, 0.3),
		model.ErrorResult("b", "boom"),
		model.TimeoutResult("c"),
	}

	v := newSynth().Synthesize(testClaim(), results, nil, at())
	assert.Equal(t, model.LabelUnverified, v.Label)
}

func TestSynthesizeNoUsableResults(t *testing.T) {
	results := []model.VerifierResult{
		model.TimeoutResult("a"),
		model.ErrorResult("b", "boom"),
	}

	v := newSynth().Synthesize(testClaim(), results, nil, at())

	assert.Equal(t, model.LabelUnverified, v.Label)
	assert.InDelta(t, 0.5, v.AggregateScore, 1e-9)
	assert.Zero(t, v.AggregateConfidence)
}

func TestSynthesizeBiasShiftCappedAndClamped(t *testing.T) {
	results := []model.VerifierResult{ok("a", 0.98, 0.9)}

	up := 1.0
	v := newSynth().Synthesize(testClaim(), results, &up, at())
	assert.LessOrEqual(t, v.AggregateScore, 1.0)
	assert.InDelta(t, 1.0, v.AggregateScore, 1e-9) // 0.98 + 0.1 clamped

	down := -1.0
	v = newSynth().Synthesize(testClaim(), results, &down, at())
	assert.InDelta(t, 0.88, v.AggregateScore, 1e-9)

	// Bias beyond [-1,1] is clamped before scaling.
	wild := 25.0
	v2 := newSynth().Synthesize(testClaim(), []model.VerifierResult{ok("a", 0.5, 0.9)}, &wild, at())
	assert.InDelta(t, 0.6, v2.AggregateScore, 1e-9)
}

func TestSynthesizeBiasNeverChangesConfidence(t *testing.T) {
	results := []model.VerifierResult{ok("a", 0.5, 0.8), ok("b", 0.6, 0.7)}

	bias := 0.9
	with := newSynth().Synthesize(testClaim(), results, &bias, at())
	without := newSynth().Synthesize(testClaim(), results, nil, at())

	assert.Equal(t, without.AggregateConfidence, with.AggregateConfidence)
}

func TestSynthesizePureFunction(t *testing.T) {
	results := []model.VerifierResult{
		ok("a", 0.7, 0.8),
		ok("b", 0.4, 0.6),
		model.TimeoutResult("c"),
	}
	bias := 0.25

	first := newSynth().Synthesize(testClaim(), results, &bias, at())
	second := newSynth().Synthesize(testClaim(), results, &bias, at())

	assert.Equal(t, first, second)
}

func TestSynthesizeOrderIndependent(t *testing.T) {
	a := []model.VerifierResult{ok("a", 0.9, 0.9), ok("b", 0.2, 0.5), model.TimeoutResult("c")}
	b := []model.VerifierResult{model.TimeoutResult("c"), ok("b", 0.2, 0.5), ok("a", 0.9, 0.9)}

	va := newSynth().Synthesize(testClaim(), a, nil, at())
	vb := newSynth().Synthesize(testClaim(), b, nil, at())

	assert.Equal(t, va.AggregateScore, vb.AggregateScore)
	assert.Equal(t, va.AggregateConfidence, vb.AggregateConfidence)
	assert.Equal(t, va.Label, vb.Label)
	assert.Equal(t, va.ContributingResults, vb.ContributingResults)
}

func TestSynthesizeAggregatesAlwaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	s := newSynth()

	for i := 0; i < 500; i++ {
		n := 1 + rng.Intn(6)
		results := make([]model.VerifierResult, n)
		for j := range results {
			switch rng.Intn(4) {
			case 0:
				results[j] = model.TimeoutResult("v")
			case 1:
				results[j] = model.ErrorResult("v", "x")
			default:
				results[j] = ok("v", rng.Float64(), rng.Float64())
			}
		}
		var bias *float64
		if rng.Intn(2) == 0 {
			b := rng.Float64()*4 - 2
			bias = &b
		}

		v := s.Synthesize(testClaim(), results, bias, at())

		require.GreaterOrEqual(t, v.AggregateScore, 0.0)
		require.LessOrEqual(t, v.AggregateScore, 1.0)
		require.GreaterOrEqual(t, v.AggregateConfidence, 0.0)
		require.LessOrEqual(t, v.AggregateConfidence, 1.0)
	}
}
