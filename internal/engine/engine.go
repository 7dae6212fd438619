// Package engine is the claim pipeline: it dedupes submissions by
// fingerprint, fans verification out, synthesizes the verdict, persists
// history, and registers low-confidence claims for follow-up.
package engine

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/veristat/veristat/internal/cache"
	"github.com/veristat/veristat/internal/model"
	"github.com/veristat/veristat/internal/score"
	"github.com/veristat/veristat/internal/util"
)

const verdictTTL = time.Hour

// Store is the persistence the engine needs.
type Store interface {
	SaveClaim(c model.Claim) error
	GetClaim(fingerprint string) (model.Claim, bool, error)
	AppendVerdict(v model.CredibilityVerdict) error
	CurrentVerdict(fingerprint string) (model.CredibilityVerdict, bool, error)
	RegisterQuery(q model.UnsolvedQuery) error
}

// Runner fans a claim out to the registered verifiers.
type Runner interface {
	Verify(ctx context.Context, claim model.Claim) ([]model.VerifierResult, error)
}

// FeedbackGate admits user feedback and aggregates the accepted portion
// into a per-claim bias signal.
type FeedbackGate interface {
	Submit(userID, claimID, claimFingerprint, text string, rating int) (model.FeedbackEvent, error)
	Bias(claimFingerprint string) (*float64, error)
}

// Engine wires verification, synthesis, trust, and persistence.
type Engine struct {
	cfg    *model.Config
	store  Store
	runner Runner
	synth  *score.Synthesizer
	gate   FeedbackGate
	cache  cache.Cache
	log    *logrus.Entry
	now    func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New builds an engine. The cache may be nil to disable verdict caching.
func New(cfg *model.Config, store Store, runner Runner, gate FeedbackGate, c cache.Cache, log *logrus.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		store:  store,
		runner: runner,
		synth:  score.NewSynthesizer(cfg.Synthesis),
		gate:   gate,
		cache:  c,
		log:    log.WithField("component", "engine"),
		now:    time.Now,
		locks:  make(map[string]*sync.Mutex),
	}
}

func (e *Engine) claimLock(fingerprint string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[fingerprint]
	if !ok {
		l = &sync.Mutex{}
		e.locks[fingerprint] = l
	}
	return l
}

// SubmitClaim verifies a claim and returns its verdict. Resubmitting
// text with the same fingerprint returns the existing verdict instead
// of running verification again.
func (e *Engine) SubmitClaim(ctx context.Context, text string) (model.CredibilityVerdict, error) {
	claim := model.Claim{
		ID:          uuid.NewString(),
		Text:        text,
		SubmittedAt: e.now(),
		Fingerprint: util.Fingerprint(text),
	}
	if err := claim.Validate(); err != nil {
		return model.CredibilityVerdict{}, err
	}

	if v, ok, err := e.CurrentVerdict(claim.Fingerprint); err != nil {
		return model.CredibilityVerdict{}, err
	} else if ok {
		e.log.WithField("claim", v.ClaimID).Debug("returning existing verdict")
		return v, nil
	}

	if err := e.store.SaveClaim(claim); err != nil {
		return model.CredibilityVerdict{}, err
	}
	return e.verify(ctx, claim)
}

// Recheck re-runs verification for an already-tracked claim.
func (e *Engine) Recheck(ctx context.Context, fingerprint string) (model.CredibilityVerdict, error) {
	claim, ok, err := e.store.GetClaim(fingerprint)
	if err != nil {
		return model.CredibilityVerdict{}, err
	}
	if !ok {
		return model.CredibilityVerdict{}, &UnknownClaimError{Fingerprint: fingerprint}
	}
	return e.verify(ctx, claim)
}

// verify runs one verification pass. Passes for the same fingerprint
// are serialized so verdict history stays ordered.
func (e *Engine) verify(ctx context.Context, claim model.Claim) (model.CredibilityVerdict, error) {
	lock := e.claimLock(claim.Fingerprint)
	lock.Lock()
	defer lock.Unlock()

	results, err := e.runner.Verify(ctx, claim)
	if err != nil {
		return model.CredibilityVerdict{}, err
	}

	var bias *float64
	if e.gate != nil {
		bias, err = e.gate.Bias(claim.Fingerprint)
		if err != nil {
			e.log.WithError(err).Warn("feedback bias unavailable")
			bias = nil
		}
	}

	verdict := e.synth.Synthesize(claim, results, bias, e.now())
	if err := e.store.AppendVerdict(verdict); err != nil {
		return model.CredibilityVerdict{}, err
	}
	e.cacheVerdict(verdict)

	if verdict.AggregateConfidence < e.cfg.Monitor.ResolveConfidence {
		q := model.UnsolvedQuery{
			ClaimID:       claim.ID,
			Fingerprint:   claim.Fingerprint,
			FirstSeenAt:   verdict.GeneratedAt,
			LastCheckedAt: verdict.GeneratedAt,
			Status:        model.QueryPending,
		}
		if err := e.store.RegisterQuery(q); err != nil {
			e.log.WithError(err).Warn("register unsolved query")
		}
	}

	e.log.WithFields(logrus.Fields{
		"claim":      claim.ID,
		"label":      string(verdict.Label),
		"score":      verdict.AggregateScore,
		"confidence": verdict.AggregateConfidence,
	}).Info("claim verified")
	return verdict, nil
}

// SubmitFeedback routes one feedback submission through the trust gate.
func (e *Engine) SubmitFeedback(userID, fingerprint, text string, rating int) (model.FeedbackEvent, error) {
	claim, ok, err := e.store.GetClaim(fingerprint)
	if err != nil {
		return model.FeedbackEvent{}, err
	}
	if !ok {
		return model.FeedbackEvent{}, &UnknownClaimError{Fingerprint: fingerprint}
	}
	return e.gate.Submit(userID, claim.ID, claim.Fingerprint, text, rating)
}

// CurrentVerdict returns the latest verdict for a fingerprint, serving
// from cache when possible.
func (e *Engine) CurrentVerdict(fingerprint string) (model.CredibilityVerdict, bool, error) {
	if e.cache != nil {
		if raw, ok := e.cache.Get(cache.VerdictKey(fingerprint)); ok {
			var v model.CredibilityVerdict
			if err := json.Unmarshal(raw, &v); err == nil {
				return v, true, nil
			}
		}
	}

	v, ok, err := e.store.CurrentVerdict(fingerprint)
	if err != nil || !ok {
		return model.CredibilityVerdict{}, false, err
	}
	e.cacheVerdict(v)
	return v, true, nil
}

func (e *Engine) cacheVerdict(v model.CredibilityVerdict) {
	if e.cache == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := e.cache.Set(cache.VerdictKey(v.Fingerprint), raw, verdictTTL); err != nil {
		e.log.WithError(err).Debug("cache verdict")
	}
}

// UnknownClaimError reports an operation against a fingerprint that has
// never been submitted.
type UnknownClaimError struct {
	Fingerprint string
}

func (e *UnknownClaimError) Error() string {
	return "unknown claim fingerprint " + e.Fingerprint
}
