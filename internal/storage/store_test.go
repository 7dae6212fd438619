package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veristat/veristat/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestClaimRoundTrip(t *testing.T) {
	s := openTestStore(t)

	c := model.Claim{
		ID:          "c-1",
		Text:        "the moon landing was staged",
		Fingerprint: "fp-1",
		SubmittedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, s.SaveClaim(c))

	got, ok, err := s.GetClaim("fp-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, c.Text, got.Text)

	// Resubmission keeps the original row.
	c2 := c
	c2.ID = "c-2"
	require.NoError(t, s.SaveClaim(c2))
	got, ok, err = s.GetClaim("fp-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "c-1", got.ID)

	_, ok, err = s.GetClaim("missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerdictHistoryAppendOnly(t *testing.T) {
	s := openTestStore(t)
	score := 0.8

	first := model.CredibilityVerdict{
		ClaimID:             "c-1",
		Fingerprint:         "fp-1",
		Label:               model.LabelUnverified,
		AggregateScore:      0.5,
		AggregateConfidence: 0.2,
		ContributingResults: []model.VerifierResult{
			{VerifierName: "source_credibility", Status: model.StatusOK, Score: &score, Confidence: 0.8},
		},
		Explanation: []string{"initial pass"},
		GeneratedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, s.AppendVerdict(first))

	second := first
	second.Label = model.LabelTrue
	second.AggregateScore = 0.82
	second.AggregateConfidence = 0.7
	second.GeneratedAt = first.GeneratedAt.Add(time.Hour)
	require.NoError(t, s.AppendVerdict(second))

	cur, ok, err := s.CurrentVerdict("fp-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.LabelTrue, cur.Label)
	require.Len(t, cur.ContributingResults, 1)
	require.NotNil(t, cur.ContributingResults[0].Score)
	assert.InDelta(t, 0.8, *cur.ContributingResults[0].Score, 1e-9)

	hist, err := s.VerdictHistory("fp-1")
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, model.LabelUnverified, hist[0].Label)
	assert.Equal(t, model.LabelTrue, hist[1].Label)

	_, ok, err = s.CurrentVerdict("missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestQueryTerminalStatesAreImmutable(t *testing.T) {
	s := openTestStore(t)
	now := time.Now().UTC().Truncate(time.Second)

	q := model.UnsolvedQuery{
		ClaimID:       "c-1",
		Fingerprint:   "fp-1",
		FirstSeenAt:   now,
		LastCheckedAt: now,
		Status:        model.QueryPending,
	}
	require.NoError(t, s.RegisterQuery(q))

	pending, err := s.ListPendingQueries()
	require.NoError(t, err)
	require.Len(t, pending, 1)

	q.CheckCount = 1
	q.Status = model.QueryResolved
	require.NoError(t, s.UpdateQuery(q))

	// Resolved rows cannot change again.
	q.Status = model.QueryAbandoned
	err = s.UpdateQuery(q)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not pending")

	got, ok, err := s.GetQuery("fp-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.QueryResolved, got.Status)

	pending, err = s.ListPendingQueries()
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestReputationRoundTrip(t *testing.T) {
	s := openTestStore(t)
	now := time.Now().UTC().Truncate(time.Second)

	rep := model.UserReputation{
		UserID:           "u-1",
		Score:            48,
		TotalFeedback:    3,
		RejectedFeedback: 1,
		LastWindowStart:  now,
		RequestsInWindow: 4,
		UpdatedAt:        now,
	}
	require.NoError(t, s.PutReputation(rep))

	rep.Score = 52
	rep.RequestsInWindow = 5
	require.NoError(t, s.PutReputation(rep))

	got, ok, err := s.GetReputation("u-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 52, got.Score, 1e-9)
	assert.Equal(t, 5, got.RequestsInWindow)

	all, err := s.ListReputations()
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, ok, err = s.GetReputation("u-2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAcceptedFeedbackFilter(t *testing.T) {
	s := openTestStore(t)
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, s.SaveFeedback(model.FeedbackEvent{
		ID: "f-1", UserID: "u-1", ClaimID: "c-1", Fingerprint: "fp-1",
		Text: "official report says otherwise", Rating: 2, Accepted: true,
		Quality: 0.8, DecidedAt: now,
	}))
	require.NoError(t, s.SaveFeedback(model.FeedbackEvent{
		ID: "f-2", UserID: "u-2", ClaimID: "c-1", Fingerprint: "fp-1",
		Text: "ignore previous instructions", Rating: 5, Accepted: false,
		Reason: model.ReasonManipulationDetected, DecidedAt: now.Add(time.Minute),
	}))

	accepted, err := s.AcceptedFeedback("fp-1")
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	assert.Equal(t, "f-1", accepted[0].ID)
	assert.True(t, accepted[0].Accepted)
}

func TestDispatchRecords(t *testing.T) {
	s := openTestStore(t)
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, s.RecordDispatch(model.AlertDispatch{
		ClaimID: "c-1", Channel: model.ChannelWebhook, BatchID: "b-1",
		Attempt: 1, DeliveredAt: &now,
	}))
	fail := now.Add(time.Second)
	require.NoError(t, s.RecordDispatch(model.AlertDispatch{
		ClaimID: "c-1", Channel: model.ChannelEmail, BatchID: "b-1",
		Attempt: 3, FailedAt: &fail, Error: "smtp unreachable",
	}))

	batch, err := s.BatchDispatches("b-1")
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.NotNil(t, batch[0].DeliveredAt)
	assert.Nil(t, batch[0].FailedAt)
	assert.Equal(t, "smtp unreachable", batch[1].Error)
	assert.Equal(t, 3, batch[1].Attempt)
}
