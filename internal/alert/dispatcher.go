// Package alert delivers resolution notifications. Resolutions arriving
// close together are coalesced into one batch per delivery window, and
// each channel retries independently before giving up on a batch.
package alert

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/veristat/veristat/internal/model"
	"github.com/veristat/veristat/internal/util"
)

// Channel is one delivery transport.
type Channel interface {
	Name() model.AlertChannel
	Send(ctx context.Context, batch []model.ResolutionEvent) error
}

// Recorder persists per-claim delivery outcomes.
type Recorder interface {
	RecordDispatch(d model.AlertDispatch) error
}

// Dispatcher coalesces resolution events and fans batches out to every
// configured channel.
type Dispatcher struct {
	cfg      model.AlertConfig
	channels []Channel
	recorder Recorder
	log      *logrus.Entry

	mu      sync.Mutex
	pending []model.ResolutionEvent
	timer   *time.Timer

	wg    sync.WaitGroup
	now   func() time.Time
	sleep func(d time.Duration)
}

// NewDispatcher builds a dispatcher over the given channels. The
// recorder may be nil when outcomes need not be persisted.
func NewDispatcher(cfg model.AlertConfig, channels []Channel, recorder Recorder, log *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		cfg:      cfg,
		channels: channels,
		recorder: recorder,
		log:      log.WithField("component", "alert"),
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// Resolved queues one resolution. The first event of a batch arms the
// coalescing timer; everything arriving before it fires shares a batch.
func (d *Dispatcher) Resolved(ev model.ResolutionEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = append(d.pending, ev)
	if d.timer == nil {
		d.timer = time.AfterFunc(d.cfg.CoalesceWindow, d.Flush)
	}
}

// Flush delivers the pending batch immediately. Called by the coalescing
// timer and on shutdown.
func (d *Dispatcher) Flush() {
	d.mu.Lock()
	batch := d.pending
	d.pending = nil
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	batchID := uuid.NewString()
	d.log.WithFields(logrus.Fields{
		"batch":  batchID,
		"events": len(batch),
	}).Info("dispatching resolution batch")

	for _, ch := range d.channels {
		d.wg.Add(1)
		go func(ch Channel) {
			defer d.wg.Done()
			d.deliver(ch, batchID, batch)
		}(ch)
	}
	d.wg.Wait()
}

// Close flushes anything still queued.
func (d *Dispatcher) Close() {
	d.Flush()
}

// Dispatch delivers one resolution to the named channels immediately,
// bypassing coalescing, and returns the per-channel outcomes. Channels
// not configured on the dispatcher report a failed outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, ev model.ResolutionEvent, channels []model.AlertChannel) []model.AlertDispatch {
	batchID := uuid.NewString()
	batch := []model.ResolutionEvent{ev}
	now := d.now()

	byName := make(map[model.AlertChannel]Channel, len(d.channels))
	for _, ch := range d.channels {
		byName[ch.Name()] = ch
	}

	out := make([]model.AlertDispatch, 0, len(channels))
	for _, name := range channels {
		dispatch := model.AlertDispatch{
			ClaimID: ev.ClaimID,
			Channel: name,
			BatchID: batchID,
		}
		ch, ok := byName[name]
		if !ok {
			dispatch.Attempt = 0
			dispatch.FailedAt = &now
			dispatch.Error = "channel not configured"
		} else if attempt, err := d.attemptSend(ctx, ch, batch); err != nil {
			dispatch.Attempt = attempt
			dispatch.FailedAt = &now
			dispatch.Error = err.Error()
		} else {
			dispatch.Attempt = attempt
			dispatch.DeliveredAt = &now
		}
		if d.recorder != nil {
			if err := d.recorder.RecordDispatch(dispatch); err != nil {
				d.log.WithError(err).Warn("record dispatch outcome")
			}
		}
		out = append(out, dispatch)
	}
	return out
}

func (d *Dispatcher) deliver(ch Channel, batchID string, batch []model.ResolutionEvent) {
	attempt, err := d.attemptSend(context.Background(), ch, batch)
	d.record(ch.Name(), batchID, batch, attempt, err)
}

// attemptSend retries one channel with backoff and reports the attempt
// count that settled the outcome.
func (d *Dispatcher) attemptSend(ctx context.Context, ch Channel, batch []model.ResolutionEvent) (int, error) {
	var lastErr error
	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			d.sleep(util.Backoff(d.cfg.RetryBaseDelay, attempt-1))
		}
		if err := ch.Send(ctx, batch); err != nil {
			lastErr = err
			d.log.WithError(err).WithFields(logrus.Fields{
				"channel": string(ch.Name()),
				"attempt": attempt,
			}).Warn("alert delivery failed")
			continue
		}
		return attempt, nil
	}
	return d.cfg.MaxAttempts, lastErr
}

func (d *Dispatcher) record(channel model.AlertChannel, batchID string, batch []model.ResolutionEvent, attempt int, failure error) {
	if d.recorder == nil {
		return
	}
	now := d.now()
	for _, ev := range batch {
		dispatch := model.AlertDispatch{
			ClaimID: ev.ClaimID,
			Channel: channel,
			BatchID: batchID,
			Attempt: attempt,
		}
		if failure == nil {
			dispatch.DeliveredAt = &now
		} else {
			dispatch.FailedAt = &now
			dispatch.Error = failure.Error()
		}
		if err := d.recorder.RecordDispatch(dispatch); err != nil {
			d.log.WithError(err).Warn("record dispatch outcome")
		}
	}
}
