// Package orchestrate fans a claim out to every registered verifier and
// fans the partial results back in under two deadlines: a per-verifier
// timeout and an overall timeout. Verifier failures never escape as
// errors; they are absorbed into timeout/error results and degrade the
// synthesized confidence downstream.
package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/veristat/veristat/internal/model"
	"github.com/veristat/veristat/internal/util"
	"github.com/veristat/veristat/internal/verifier"
)

// Orchestrator dispatches verification tasks concurrently.
type Orchestrator struct {
	verifiers []verifier.Verifier
	cfg       model.VerifyConfig
}

// New creates an orchestrator over a fixed verifier set.
func New(cfg model.VerifyConfig, verifiers []verifier.Verifier) *Orchestrator {
	return &Orchestrator{verifiers: verifiers, cfg: cfg}
}

// Registered returns how many verifiers this orchestrator dispatches to.
func (o *Orchestrator) Registered() int { return len(o.verifiers) }

type indexedResult struct {
	idx    int
	result model.VerifierResult
}

// Verify runs every verifier concurrently against the claim and returns
// exactly one result per verifier, in registration order. The call returns
// as soon as all tasks have completed or the overall timeout expires;
// verifiers still running at that point are abandoned and recorded as
// timeouts, and their eventual output is discarded.
func (o *Orchestrator) Verify(ctx context.Context, claim model.Claim) ([]model.VerifierResult, error) {
	if err := claim.Validate(); err != nil {
		return nil, err
	}

	octx, cancel := context.WithTimeout(ctx, o.cfg.OverallTimeout)
	defer cancel()

	// Buffered so abandoned tasks can still deposit their result and exit.
	resultCh := make(chan indexedResult, len(o.verifiers))
	for i, v := range o.verifiers {
		go func(idx int, v verifier.Verifier) {
			resultCh <- indexedResult{idx: idx, result: o.runTask(octx, v, claim)}
		}(i, v)
	}

	results := make([]model.VerifierResult, len(o.verifiers))
	collected := make([]bool, len(o.verifiers))
	remaining := len(o.verifiers)

	for remaining > 0 {
		select {
		case r := <-resultCh:
			results[r.idx] = r.result
			collected[r.idx] = true
			remaining--
		case <-octx.Done():
			for i, done := range collected {
				if !done {
					results[i] = model.TimeoutResult(o.verifiers[i].Name())
					log.WithFields(log.Fields{
						"verifier": o.verifiers[i].Name(),
						"claim":    claim.Fingerprint,
					}).Warn("verifier abandoned at overall timeout")
				}
			}
			remaining = 0
		}
	}

	return results, nil
}

// runTask executes one verification task with the per-verifier deadline,
// one retry on transient failure, and panic absorption.
func (o *Orchestrator) runTask(ctx context.Context, v verifier.Verifier, claim model.Claim) model.VerifierResult {
	deadline := time.Now().Add(o.cfg.PerVerifierTimeout)

	result, err := o.invoke(ctx, v, claim, deadline)
	if err == nil {
		return result
	}

	if verifier.IsTransient(err) && ctx.Err() == nil {
		wait := util.Backoff(o.cfg.RetryBaseDelay, 1)
		select {
		case <-ctx.Done():
		case <-time.After(wait):
			result, err = o.invoke(ctx, v, claim, deadline)
			if err == nil {
				return result
			}
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return model.TimeoutResult(v.Name())
	}

	log.WithFields(log.Fields{
		"verifier": v.Name(),
		"claim":    claim.Fingerprint,
	}).WithError(err).Warn("verifier failed")
	return model.ErrorResult(v.Name(), err.Error())
}

// invoke calls the verifier under its task deadline, converting panics and
// malformed output into errors.
func (o *Orchestrator) invoke(ctx context.Context, v verifier.Verifier, claim model.Claim, deadline time.Time) (result model.VerifierResult, err error) {
	tctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("verifier panic: %v", r)
		}
	}()

	result, err = v.Verify(tctx, claim)
	if err != nil {
		if tctx.Err() != nil {
			return model.VerifierResult{}, tctx.Err()
		}
		return model.VerifierResult{}, err
	}

	// A verifier that ignores its context and reports ok after the task
	// deadline is still a timeout; its late score does not count.
	if tctx.Err() != nil {
		return model.VerifierResult{}, tctx.Err()
	}

	// A verifier reporting ok must produce a sane result; anything else is
	// recorded as an error, never propagated as a crash.
	if result.Status == model.StatusOK {
		if result.Score == nil {
			return model.VerifierResult{}, fmt.Errorf("verifier %s returned ok without score", v.Name())
		}
		if *result.Score < 0 || *result.Score > 1 || result.Confidence < 0 || result.Confidence > 1 {
			return model.VerifierResult{}, fmt.Errorf("verifier %s returned out-of-range output", v.Name())
		}
	}
	result.VerifierName = v.Name()
	return result, nil
}
