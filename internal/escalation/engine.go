// Package escalation turns detected offenses into progressively longer
// timeouts. Each offense increments the user's count; reaching certain counts
// imposes a timeout, up to a permanent one. An existing timeout is never
// shortened.
package escalation

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/whisper/chat-moderation/internal/metrics"
	"github.com/whisper/chat-moderation/internal/offense"
)

// Step is the timeout imposed on reaching an offense count.
type Step struct {
	Duration  time.Duration
	Permanent bool
}

// thresholds maps an offense count to its timeout. Count 4 is a grace
// warning; counts not listed impose nothing new.
var thresholds = map[int]Step{
	3:  {Duration: 5 * time.Minute},
	4:  {},
	5:  {Duration: 15 * time.Minute},
	6:  {Duration: time.Hour},
	7:  {Duration: 6 * time.Hour},
	8:  {Duration: 24 * time.Hour},
	9:  {Duration: 7 * 24 * time.Hour},
	10: {Duration: 30 * 24 * time.Hour},
	11: {Duration: 365 * 24 * time.Hour},
	12: {Permanent: true},
}

// graceCount is the offense count that only warns.
const graceCount = 4

// StepFor returns the step for count, if the table has one.
func StepFor(count int) (Step, bool) {
	s, ok := thresholds[count]
	return s, ok
}

// ErrEmptyUser is returned when an operation is given no user id.
var ErrEmptyUser = errors.New("escalation: empty user id")

// Outcome is the result of recording one offense.
type Outcome struct {
	OffenseCount int
	TimeoutUntil int64         // epoch millis, offense.Permanent when permanent
	Applied      time.Duration // timeout remaining as of the offense, zero if none
	Permanent    bool
	Warning      bool // grace count reached without an active timeout
}

// Status is a user's current timeout state.
type Status struct {
	TimedOut  bool
	TimeLeft  time.Duration
	Permanent bool
}

// Engine applies the escalation table against an offense.Store.
type Engine struct {
	store offense.Store
	log   logrus.FieldLogger
	now   func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine over store.
func New(store offense.Store, log logrus.FieldLogger, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		log:   log.WithField("component", "escalation"),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RecordOffense increments the user's offense count and applies the timeout
// for the new count, all in one atomic store update. Storage errors are
// returned unchanged; the caller decides the failure policy.
func (e *Engine) RecordOffense(ctx context.Context, userID string) (Outcome, error) {
	if userID == "" {
		return Outcome{}, ErrEmptyUser
	}
	now := e.now()
	nowMs := now.UnixMilli()

	var step Step
	var hasStep bool
	rec, err := e.store.Update(ctx, userID, func(r *offense.Record) {
		r.OffenseCount++
		step, hasStep = StepFor(r.OffenseCount)
		if !hasStep {
			return
		}
		switch {
		case step.Permanent:
			r.TimeoutUntil = offense.Permanent
		case step.Duration > 0 && !r.IsPermanent():
			if until := now.Add(step.Duration).UnixMilli(); until > r.TimeoutUntil {
				r.TimeoutUntil = until
			}
		}
	})
	if err != nil {
		e.log.WithError(err).WithField("user_id", userID).Error("record offense")
		return Outcome{}, err
	}

	out := Outcome{
		OffenseCount: rec.OffenseCount,
		TimeoutUntil: rec.TimeoutUntil,
		Permanent:    rec.IsPermanent(),
	}
	if !out.Permanent && rec.TimeoutUntil > nowMs {
		out.Applied = time.Duration(rec.TimeoutUntil-nowMs) * time.Millisecond
	}
	out.Warning = rec.OffenseCount == graceCount && !out.Permanent && out.Applied == 0

	metrics.OffensesRecorded.Inc()
	switch {
	case hasStep && step.Permanent:
		metrics.TimeoutsApplied.WithLabelValues("permanent").Inc()
	case hasStep && step.Duration > 0:
		metrics.TimeoutsApplied.WithLabelValues("timed").Inc()
	case out.Warning:
		metrics.TimeoutsApplied.WithLabelValues("warning").Inc()
	}

	e.log.WithFields(logrus.Fields{
		"user_id":       userID,
		"offense_count": out.OffenseCount,
		"timeout":       FormatDuration(out.Applied, out.Permanent),
	}).Warn("offense recorded")
	return out, nil
}

// IsTimedOut reports whether the user is currently timed out.
func (e *Engine) IsTimedOut(ctx context.Context, userID string) (Status, error) {
	if userID == "" {
		return Status{}, ErrEmptyUser
	}
	rec, err := e.store.Get(ctx, userID)
	if err != nil {
		return Status{}, err
	}
	if rec.IsPermanent() {
		return Status{TimedOut: true, Permanent: true}, nil
	}
	if nowMs := e.now().UnixMilli(); rec.TimeoutUntil > nowMs {
		return Status{
			TimedOut: true,
			TimeLeft: time.Duration(rec.TimeoutUntil-nowMs) * time.Millisecond,
		}, nil
	}
	return Status{}, nil
}

// Reset clears the user's count and timeout.
func (e *Engine) Reset(ctx context.Context, userID string) error {
	return e.Override(ctx, offense.Record{UserID: userID})
}

// Override replaces the user's record as given.
func (e *Engine) Override(ctx context.Context, rec offense.Record) error {
	if rec.UserID == "" {
		return ErrEmptyUser
	}
	if err := e.store.Put(ctx, rec); err != nil {
		return err
	}
	e.log.WithFields(logrus.Fields{
		"user_id":       rec.UserID,
		"offense_count": rec.OffenseCount,
		"timeout_until": rec.TimeoutUntil,
	}).Info("offense record overridden")
	return nil
}
