// Package trust gates user feedback before it can influence verdicts.
// Every submission passes a reputation floor, a per-user rate limit, and
// manipulation screening before it is accepted and scored for quality.
package trust

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/veristat/veristat/internal/model"
	"github.com/veristat/veristat/internal/util"
)

// Store is the persistence the gate needs.
type Store interface {
	GetReputation(userID string) (model.UserReputation, bool, error)
	PutReputation(rep model.UserReputation) error
	SaveFeedback(ev model.FeedbackEvent) error
	AcceptedFeedback(fingerprint string) ([]model.FeedbackEvent, error)
	ListReputations() ([]model.UserReputation, error)
}

var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|prior|above)\s+instructions`),
	regexp.MustCompile(`(?i)disregard\s+(the\s+)?(system|previous|above)`),
	regexp.MustCompile(`(?i)pretend\s+(that\s+)?you\s+are`),
	regexp.MustCompile(`(?i)you\s+are\s+now\s+(a|an|in)\b`),
	regexp.MustCompile(`(?i)\b(jailbreak|jailbroken)\b`),
	regexp.MustCompile(`(?i)(bypass|override)\s+(the\s+)?(safety|filter|moderation|rules)`),
	regexp.MustCompile(`(?i)system\s+prompt`),
	regexp.MustCompile(`(?i)(everyone|all of you)\s+(rate|vote|report)`),
	regexp.MustCompile(`(?i)mass\s+(report|downvote|upvote)`),
}

var qualitySignals = []string{
	"http://", "https://", "source", "study", "report", "according to",
	"published", "dataset", "archived",
}

// Gate applies the trust policy. Safe for concurrent use; decisions for
// the same user are serialized so reputation updates never race.
type Gate struct {
	cfg   model.TrustConfig
	store Store
	log   *logrus.Entry
	now   func() time.Time

	// dupes maps a normalized-text fingerprint to the set of users that
	// recently submitted it, for coordination detection. dupeMu guards
	// the read-modify-write: submissions from different users hold
	// different user locks, so the per-user locks alone cannot keep the
	// set update atomic.
	dupeMu sync.Mutex
	dupes  *gocache.Cache

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewGate builds a gate over the given store.
func NewGate(cfg model.TrustConfig, store Store, log *logrus.Logger) *Gate {
	return &Gate{
		cfg:   cfg,
		store: store,
		log:   log.WithField("component", "trust"),
		now:   time.Now,
		dupes: gocache.New(cfg.DuplicateWindow, cfg.DuplicateWindow),
		locks: make(map[string]*sync.Mutex),
	}
}

func (g *Gate) userLock(userID string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	l, ok := g.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		g.locks[userID] = l
	}
	return l
}

// Submit runs one feedback submission through the gate and returns the
// recorded decision. A rejected submission is a normal outcome, not an
// error; errors are reserved for invalid input and storage failures.
func (g *Gate) Submit(userID, claimID, claimFingerprint, text string, rating int) (model.FeedbackEvent, error) {
	if userID == "" {
		return model.FeedbackEvent{}, fmt.Errorf("feedback requires a user id")
	}
	if strings.TrimSpace(text) == "" {
		return model.FeedbackEvent{}, fmt.Errorf("feedback requires text")
	}
	if rating < 1 || rating > 5 {
		return model.FeedbackEvent{}, fmt.Errorf("rating %d out of range [1,5]", rating)
	}

	lock := g.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	now := g.now()
	rep, ok, err := g.store.GetReputation(userID)
	if err != nil {
		return model.FeedbackEvent{}, err
	}
	if !ok {
		rep = model.UserReputation{
			UserID:          userID,
			Score:           g.cfg.InitialScore,
			LastWindowStart: now,
		}
	}

	ev := model.FeedbackEvent{
		ID:          uuid.NewString(),
		UserID:      userID,
		ClaimID:     claimID,
		Fingerprint: claimFingerprint,
		Text:        text,
		Rating:      rating,
		DecidedAt:   now,
	}

	switch {
	case rep.Score < g.cfg.ReputationFloor:
		ev.Reason = model.ReasonReputationTooLow
		rep.TotalFeedback++
		rep.RejectedFeedback++

	case g.rateLimited(&rep, now):
		ev.Reason = model.ReasonRateLimited
		rep.TotalFeedback++
		rep.RejectedFeedback++

	case g.manipulative(userID, text):
		ev.Reason = model.ReasonManipulationDetected
		rep.TotalFeedback++
		rep.RejectedFeedback++
		rep.Score = model.ClampScore(rep.Score - g.cfg.ManipulationDelta)

	default:
		ev.Accepted = true
		ev.Quality = quality(text)
		rep.TotalFeedback++
		rep.Score = model.ClampScore(rep.Score + g.cfg.AcceptDelta*ev.Quality)
	}

	rep.UpdatedAt = now
	if err := g.store.PutReputation(rep); err != nil {
		return model.FeedbackEvent{}, err
	}
	if err := g.store.SaveFeedback(ev); err != nil {
		return model.FeedbackEvent{}, err
	}

	g.log.WithFields(logrus.Fields{
		"user":     userID,
		"claim":    claimID,
		"accepted": ev.Accepted,
		"reason":   string(ev.Reason),
		"score":    rep.Score,
	}).Debug("feedback decision")
	return ev, nil
}

// rateLimited rolls the user's fixed window and counts this submission.
// Returns true when the window is already full; a limited submission
// does not consume window budget.
func (g *Gate) rateLimited(rep *model.UserReputation, now time.Time) bool {
	if now.Sub(rep.LastWindowStart) >= g.cfg.Window {
		rep.LastWindowStart = now
		rep.RequestsInWindow = 0
	}
	if rep.RequestsInWindow >= g.cfg.MaxPerWindow {
		return true
	}
	rep.RequestsInWindow++
	return false
}

// manipulative screens for prompt-injection phrasing and for the same
// text arriving from several distinct users inside the duplicate window.
func (g *Gate) manipulative(userID, text string) bool {
	for _, p := range injectionPatterns {
		if p.MatchString(text) {
			return true
		}
	}

	key := "dupe:" + util.Fingerprint(text)
	g.dupeMu.Lock()
	defer g.dupeMu.Unlock()
	users := map[string]struct{}{userID: {}}
	if v, ok := g.dupes.Get(key); ok {
		for u := range v.(map[string]struct{}) {
			users[u] = struct{}{}
		}
	}
	g.dupes.Set(key, users, gocache.DefaultExpiration)
	return len(users) >= g.cfg.DuplicateUserMin
}

// quality scores accepted feedback in [0,1]. Longer, sourced text earns
// a larger reputation reward than a bare rating.
func quality(text string) float64 {
	q := 0.3
	if len(strings.Fields(text)) >= 8 {
		q += 0.3
	}
	lower := strings.ToLower(text)
	for _, sig := range qualitySignals {
		if strings.Contains(lower, sig) {
			q += 0.4
			break
		}
	}
	if q > 1 {
		q = 1
	}
	return q
}

// DecayReputations drifts every score one step toward the resting score.
// Called periodically so old penalties and rewards both fade.
func (g *Gate) DecayReputations() error {
	reps, err := g.store.ListReputations()
	if err != nil {
		return err
	}
	now := g.now()
	for _, rep := range reps {
		lock := g.userLock(rep.UserID)
		lock.Lock()
		cur, ok, err := g.store.GetReputation(rep.UserID)
		if err != nil {
			lock.Unlock()
			return err
		}
		if !ok {
			lock.Unlock()
			continue
		}
		diff := g.cfg.DecayRestingScore - cur.Score
		if diff == 0 {
			lock.Unlock()
			continue
		}
		step := g.cfg.DecayStep
		if diff < 0 {
			step = -step
		}
		if abs(diff) < g.cfg.DecayStep {
			step = diff
		}
		cur.Score = model.ClampScore(cur.Score + step)
		cur.UpdatedAt = now
		if err := g.store.PutReputation(cur); err != nil {
			lock.Unlock()
			return err
		}
		lock.Unlock()
	}
	return nil
}

// Bias aggregates accepted feedback for a claim into a signed signal in
// [-1,1]: mean rating 3 is neutral, 5 maps to +1, 1 maps to -1. Returns
// nil when the claim has no accepted feedback.
func (g *Gate) Bias(claimFingerprint string) (*float64, error) {
	events, err := g.store.AcceptedFeedback(claimFingerprint)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}
	sum := 0.0
	for _, ev := range events {
		sum += float64(ev.Rating)
	}
	mean := sum / float64(len(events))
	bias := (mean - 3) / 2
	return &bias, nil
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
