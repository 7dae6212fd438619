// Package monitor re-checks unsolved queries in the background. Pending
// queries are swept on a schedule, re-verified on a backoff that doubles
// with each attempt, and abandoned after the configured maximum.
package monitor

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/veristat/veristat/internal/model"
	"github.com/veristat/veristat/internal/util"
	"github.com/veristat/veristat/internal/worker"
)

// Rechecker re-runs verification for a tracked claim.
type Rechecker interface {
	Recheck(ctx context.Context, fingerprint string) (model.CredibilityVerdict, error)
}

// Store is the query persistence the monitor needs.
type Store interface {
	ListPendingQueries() ([]model.UnsolvedQuery, error)
	UpdateQuery(q model.UnsolvedQuery) error
}

// Notifier receives resolution events. Emitted at most once per query;
// the pending-only update guard makes a second transition impossible.
type Notifier interface {
	Resolved(ev model.ResolutionEvent)
}

// Decayer ages user reputations between sweeps.
type Decayer interface {
	DecayReputations() error
}

// Monitor owns the sweep schedule.
type Monitor struct {
	cfg       model.MonitorConfig
	store     Store
	rechecker Rechecker
	notifier  Notifier
	decayer   Decayer
	log       *logrus.Entry
	cron      *cron.Cron
	now       func() time.Time
}

// New builds a monitor. The decayer may be nil when reputation aging is
// handled elsewhere.
func New(cfg model.MonitorConfig, store Store, rechecker Rechecker, notifier Notifier, decayer Decayer, log *logrus.Logger) *Monitor {
	return &Monitor{
		cfg:       cfg,
		store:     store,
		rechecker: rechecker,
		notifier:  notifier,
		decayer:   decayer,
		log:       log.WithField("component", "monitor"),
		now:       time.Now,
	}
}

// Start schedules sweeps until Stop is called. A sweep still running
// when the next tick fires is skipped, not stacked.
func (m *Monitor) Start(ctx context.Context) error {
	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.PrintfLogger(m.log)),
	))
	if _, err := c.AddFunc(m.cfg.SweepSchedule, func() { m.Sweep(ctx) }); err != nil {
		return err
	}
	if m.decayer != nil {
		if _, err := c.AddFunc("@hourly", func() {
			if err := m.decayer.DecayReputations(); err != nil {
				m.log.WithError(err).Warn("reputation decay failed")
			}
		}); err != nil {
			return err
		}
	}
	c.Start()
	m.cron = c
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (m *Monitor) Stop() {
	if m.cron != nil {
		<-m.cron.Stop().Done()
	}
}

// Sweep processes every due pending query on the worker pool and
// returns the number of queries it re-checked or retired.
func (m *Monitor) Sweep(ctx context.Context) int {
	pending, err := m.store.ListPendingQueries()
	if err != nil {
		m.log.WithError(err).Error("list pending queries")
		return 0
	}

	now := m.now()
	pool := worker.NewPool(m.cfg.SweepWorkers)
	pool.Start()

	submitted := 0
	for _, q := range pending {
		wait := util.GrowingInterval(m.cfg.BaseBackoff, m.cfg.MaxBackoff, q.CheckCount)
		if now.Sub(q.LastCheckedAt) < wait {
			continue
		}
		pool.Submit(&recheckJob{m: m, ctx: ctx, query: q})
		submitted++
	}

	results := pool.Drain()
	for _, res := range results {
		if err := res.Err(); err != nil {
			m.log.WithError(err).Warn("re-check failed")
		}
	}
	if submitted > 0 {
		m.log.WithFields(logrus.Fields{
			"pending": len(pending),
			"swept":   submitted,
		}).Info("sweep complete")
	}
	return submitted
}

type recheckJob struct {
	m     *Monitor
	ctx   context.Context
	query model.UnsolvedQuery
}

type recheckResult struct {
	err error
}

func (r recheckResult) Err() error { return r.err }

func (j *recheckJob) Run(context.Context) worker.Result {
	m := j.m
	q := j.query

	// Retire before running another check once the budget is spent.
	if q.CheckCount >= m.cfg.MaxChecks {
		q.Status = model.QueryAbandoned
		q.LastCheckedAt = m.now()
		if err := m.store.UpdateQuery(q); err != nil {
			return recheckResult{err: err}
		}
		m.log.WithField("claim", q.ClaimID).Info("query abandoned")
		return recheckResult{}
	}

	verdict, err := m.rechecker.Recheck(j.ctx, q.Fingerprint)

	// The attempt counts whether or not re-verification succeeded.
	q.CheckCount++
	q.LastCheckedAt = m.now()

	if err != nil {
		if uerr := m.store.UpdateQuery(q); uerr != nil {
			return recheckResult{err: uerr}
		}
		return recheckResult{err: err}
	}

	if verdict.AggregateConfidence >= m.cfg.ResolveConfidence {
		q.Status = model.QueryResolved
		if err := m.store.UpdateQuery(q); err != nil {
			return recheckResult{err: err}
		}
		if m.notifier != nil {
			m.notifier.Resolved(model.ResolutionEvent{
				ClaimID:     q.ClaimID,
				Fingerprint: q.Fingerprint,
				Verdict:     verdict,
				ResolvedAt:  q.LastCheckedAt,
			})
		}
		m.log.WithFields(logrus.Fields{
			"claim": q.ClaimID,
			"label": string(verdict.Label),
		}).Info("query resolved")
		return recheckResult{}
	}

	return recheckResult{err: m.store.UpdateQuery(q)}
}
