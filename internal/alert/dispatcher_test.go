package alert

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veristat/veristat/internal/model"
)

type fakeChannel struct {
	mu       sync.Mutex
	name     model.AlertChannel
	batches  [][]model.ResolutionEvent
	failures int
}

func (c *fakeChannel) Name() model.AlertChannel { return c.name }

func (c *fakeChannel) Send(_ context.Context, batch []model.ResolutionEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failures > 0 {
		c.failures--
		return errors.New("transport unavailable")
	}
	c.batches = append(c.batches, batch)
	return nil
}

func (c *fakeChannel) delivered() [][]model.ResolutionEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.batches
}

type memRecorder struct {
	mu         sync.Mutex
	dispatches []model.AlertDispatch
}

func (r *memRecorder) RecordDispatch(d model.AlertDispatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dispatches = append(r.dispatches, d)
	return nil
}

func (r *memRecorder) all() []model.AlertDispatch {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dispatches
}

func testDispatcher(channels []Channel, rec Recorder) *Dispatcher {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	cfg := model.DefaultConfig().Alert
	cfg.CoalesceWindow = 10 * time.Millisecond
	d := NewDispatcher(cfg, channels, rec, log)
	d.sleep = func(time.Duration) {}
	return d
}

func event(claimID string) model.ResolutionEvent {
	return model.ResolutionEvent{
		ClaimID:    claimID,
		Verdict:    model.CredibilityVerdict{ClaimID: claimID, Label: model.LabelTrue},
		ResolvedAt: time.Now(),
	}
}

func TestCoalescesIntoSingleBatch(t *testing.T) {
	ch := &fakeChannel{name: model.ChannelInApp}
	rec := &memRecorder{}
	d := testDispatcher([]Channel{ch}, rec)

	d.Resolved(event("c-1"))
	d.Resolved(event("c-2"))
	d.Resolved(event("c-3"))
	d.Flush()

	batches := ch.delivered()
	require.Len(t, batches, 1)
	assert.Len(t, batches[0], 3)

	dispatches := rec.all()
	require.Len(t, dispatches, 3)
	batchID := dispatches[0].BatchID
	for _, disp := range dispatches {
		assert.Equal(t, batchID, disp.BatchID)
		assert.NotNil(t, disp.DeliveredAt)
		assert.Equal(t, 1, disp.Attempt)
	}
}

func TestSeparateWindowsSeparateBatches(t *testing.T) {
	ch := &fakeChannel{name: model.ChannelInApp}
	rec := &memRecorder{}
	d := testDispatcher([]Channel{ch}, rec)

	d.Resolved(event("c-1"))
	d.Flush()
	d.Resolved(event("c-2"))
	d.Flush()

	require.Len(t, ch.delivered(), 2)
	dispatches := rec.all()
	require.Len(t, dispatches, 2)
	assert.NotEqual(t, dispatches[0].BatchID, dispatches[1].BatchID)
}

func TestRetriesThenSucceeds(t *testing.T) {
	ch := &fakeChannel{name: model.ChannelWebhook, failures: 2}
	rec := &memRecorder{}
	d := testDispatcher([]Channel{ch}, rec)

	d.Resolved(event("c-1"))
	d.Flush()

	require.Len(t, ch.delivered(), 1)
	dispatches := rec.all()
	require.Len(t, dispatches, 1)
	assert.Equal(t, 3, dispatches[0].Attempt)
	assert.NotNil(t, dispatches[0].DeliveredAt)
	assert.Nil(t, dispatches[0].FailedAt)
}

func TestExhaustedRetriesRecordFailure(t *testing.T) {
	ch := &fakeChannel{name: model.ChannelEmail, failures: 99}
	rec := &memRecorder{}
	d := testDispatcher([]Channel{ch}, rec)

	d.Resolved(event("c-1"))
	d.Flush()

	assert.Empty(t, ch.delivered())
	dispatches := rec.all()
	require.Len(t, dispatches, 1)
	assert.Equal(t, 3, dispatches[0].Attempt)
	assert.Nil(t, dispatches[0].DeliveredAt)
	require.NotNil(t, dispatches[0].FailedAt)
	assert.Equal(t, "transport unavailable", dispatches[0].Error)
}

func TestChannelsFailIndependently(t *testing.T) {
	good := &fakeChannel{name: model.ChannelInApp}
	bad := &fakeChannel{name: model.ChannelWebhook, failures: 99}
	rec := &memRecorder{}
	d := testDispatcher([]Channel{good, bad}, rec)

	d.Resolved(event("c-1"))
	d.Flush()

	require.Len(t, good.delivered(), 1)
	assert.Empty(t, bad.delivered())

	delivered, failed := 0, 0
	for _, disp := range rec.all() {
		switch {
		case disp.DeliveredAt != nil:
			delivered++
		case disp.FailedAt != nil:
			failed++
		}
	}
	assert.Equal(t, 1, delivered)
	assert.Equal(t, 1, failed)
}

func TestDispatchReturnsPerChannelOutcomes(t *testing.T) {
	good := &fakeChannel{name: model.ChannelInApp}
	bad := &fakeChannel{name: model.ChannelWebhook, failures: 99}
	rec := &memRecorder{}
	d := testDispatcher([]Channel{good, bad}, rec)

	outcomes := d.Dispatch(context.Background(), event("c-1"), []model.AlertChannel{
		model.ChannelInApp, model.ChannelWebhook, model.ChannelEmail,
	})
	require.Len(t, outcomes, 3)

	assert.NotNil(t, outcomes[0].DeliveredAt)
	assert.Equal(t, 1, outcomes[0].Attempt)

	require.NotNil(t, outcomes[1].FailedAt)
	assert.Equal(t, 3, outcomes[1].Attempt)

	// Email was never configured.
	require.NotNil(t, outcomes[2].FailedAt)
	assert.Equal(t, "channel not configured", outcomes[2].Error)

	// Outcomes are also persisted, sharing one batch.
	recorded := rec.all()
	require.Len(t, recorded, 3)
	assert.Equal(t, recorded[0].BatchID, recorded[1].BatchID)
}

func TestTimerFlushesWithoutExplicitFlush(t *testing.T) {
	ch := &fakeChannel{name: model.ChannelInApp}
	d := testDispatcher([]Channel{ch}, nil)

	d.Resolved(event("c-1"))

	assert.Eventually(t, func() bool {
		return len(ch.delivered()) == 1
	}, time.Second, 5*time.Millisecond)
}
