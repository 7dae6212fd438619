package orchestrate

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veristat/veristat/internal/model"
	"github.com/veristat/veristat/internal/sources"
	"github.com/veristat/veristat/internal/verifier"
)

type fakeVerifier struct {
	name  string
	delay time.Duration
	calls atomic.Int32

	score      float64
	confidence float64
	err        error
	errOnce    bool // fail only the first call
	panics     bool
	ignoresCtx bool // sleeps through cancellation instead of honoring it
}

func (f *fakeVerifier) Name() string { return f.name }

func (f *fakeVerifier) Verify(ctx context.Context, claim model.Claim) (model.VerifierResult, error) {
	call := f.calls.Add(1)

	if f.panics {
		panic("verifier exploded")
	}
	if f.delay > 0 {
		if f.ignoresCtx {
			time.Sleep(f.delay)
		} else {
			select {
			case <-ctx.Done():
				return model.VerifierResult{}, ctx.Err()
			case <-time.After(f.delay):
			}
		}
	}
	if f.err != nil && (!f.errOnce || call == 1) {
		return model.VerifierResult{}, f.err
	}
	return model.OKResult(f.name, f.score, f.confidence, nil), nil
}

func testConfig() model.VerifyConfig {
	return model.VerifyConfig{
		PerVerifierTimeout: 50 * time.Millisecond,
		OverallTimeout:     200 * time.Millisecond,
		RetryBaseDelay:     time.Millisecond,
	}
}

func testClaim() model.Claim {
	return model.Claim{ID: "c1", Text: "x", Fingerprint: "fp", SubmittedAt: time.Now()}
}

func TestVerifyRejectsClaimWithoutFingerprint(t *testing.T) {
	o := New(testConfig(), nil)

	_, err := o.Verify(context.Background(), model.Claim{Text: "x"})
	assert.ErrorIs(t, err, model.ErrMissingFingerprint)
}

func TestVerifyCollectsAllResults(t *testing.T) {
	vs := []*fakeVerifier{
		{name: "a", score: 0.9, confidence: 0.9},
		{name: "b", score: 0.8, confidence: 0.7},
		{name: "c", score: 0.85, confidence: 0.8},
	}
	o := New(testConfig(), toVerifiers(vs))

	results, err := o.Verify(context.Background(), testClaim())
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, r := range results {
		assert.Equal(t, vs[i].name, r.VerifierName)
		assert.Equal(t, model.StatusOK, r.Status)
		require.NotNil(t, r.Score)
	}
}

func TestVerifySlowVerifierRecordedAsTimeout(t *testing.T) {
	vs := []*fakeVerifier{
		{name: "fast", score: 0.5, confidence: 0.5},
		{name: "slow", delay: 500 * time.Millisecond, score: 0.9, confidence: 0.9},
	}
	o := New(testConfig(), toVerifiers(vs))

	start := time.Now()
	results, err := o.Verify(context.Background(), testClaim())
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, model.StatusOK, results[0].Status)
	assert.Equal(t, model.StatusTimeout, results[1].Status)
	assert.Nil(t, results[1].Score)
	// Bounded by per-verifier/overall timeout, not the slow verifier.
	assert.Less(t, elapsed, 300*time.Millisecond)
}

func TestVerifyLateOkRecordedAsTimeout(t *testing.T) {
	// Ignores its context and reports ok after the per-verifier deadline
	// but well before the overall timeout.
	v := &fakeVerifier{name: "stubborn", delay: 120 * time.Millisecond, ignoresCtx: true, score: 0.9, confidence: 0.9}
	o := New(testConfig(), toVerifiers([]*fakeVerifier{v}))

	results, err := o.Verify(context.Background(), testClaim())
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, model.StatusTimeout, results[0].Status)
	assert.Nil(t, results[0].Score)
}

func TestVerifyTransientErrorRetriedOnce(t *testing.T) {
	transient := &sources.TransientError{Err: fmt.Errorf("connection reset")}
	v := &fakeVerifier{name: "flaky", err: transient, errOnce: true, score: 0.7, confidence: 0.6}
	o := New(testConfig(), toVerifiers([]*fakeVerifier{v}))

	results, err := o.Verify(context.Background(), testClaim())
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, model.StatusOK, results[0].Status)
	assert.Equal(t, int32(2), v.calls.Load())
}

func TestVerifyPersistentTransientErrorRecordedAsError(t *testing.T) {
	transient := &sources.TransientError{Err: fmt.Errorf("connection reset")}
	v := &fakeVerifier{name: "down", err: transient}
	o := New(testConfig(), toVerifiers([]*fakeVerifier{v}))

	results, err := o.Verify(context.Background(), testClaim())
	require.NoError(t, err)

	assert.Equal(t, model.StatusError, results[0].Status)
	assert.Equal(t, int32(2), v.calls.Load())
}

func TestVerifyNonTransientErrorNotRetried(t *testing.T) {
	v := &fakeVerifier{name: "broken", err: fmt.Errorf("bad output")}
	o := New(testConfig(), toVerifiers([]*fakeVerifier{v}))

	results, err := o.Verify(context.Background(), testClaim())
	require.NoError(t, err)

	assert.Equal(t, model.StatusError, results[0].Status)
	assert.Equal(t, int32(1), v.calls.Load())
}

func TestVerifyPanicAbsorbed(t *testing.T) {
	vs := []*fakeVerifier{
		{name: "ok", score: 0.6, confidence: 0.5},
		{name: "panicky", panics: true},
	}
	o := New(testConfig(), toVerifiers(vs))

	results, err := o.Verify(context.Background(), testClaim())
	require.NoError(t, err)

	assert.Equal(t, model.StatusOK, results[0].Status)
	assert.Equal(t, model.StatusError, results[1].Status)
	assert.Contains(t, results[1].Detail, "panic")
}

func TestVerifyOutOfRangeOutputRecordedAsError(t *testing.T) {
	v := &fakeVerifier{name: "weird", score: 3.2, confidence: 0.5}
	o := New(testConfig(), toVerifiers([]*fakeVerifier{v}))

	results, err := o.Verify(context.Background(), testClaim())
	require.NoError(t, err)
	assert.Equal(t, model.StatusError, results[0].Status)
}

func toVerifiers(fakes []*fakeVerifier) []verifier.Verifier {
	out := make([]verifier.Verifier, len(fakes))
	for i, f := range fakes {
		out[i] = f
	}
	return out
}
