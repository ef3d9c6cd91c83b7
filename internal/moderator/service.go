// Package moderator reviews incoming chat messages: it suppresses timed-out
// users, masks everyday profanity, and escalates senders of egregious
// content.
package moderator

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/whisper/chat-moderation/internal/escalation"
	"github.com/whisper/chat-moderation/internal/metrics"
	"github.com/whisper/chat-moderation/internal/moderation"
	"github.com/whisper/chat-moderation/internal/sanitize"
)

// DefaultSanitizeNotice is the reply attached to a sanitized message.
const DefaultSanitizeNotice = "Your message contained profanity and was sanitized."

// Classifier detects egregious content.
type Classifier interface {
	Classify(text string) moderation.Detection
}

// Escalator tracks offenses and timeouts.
type Escalator interface {
	IsTimedOut(ctx context.Context, userID string) (escalation.Status, error)
	RecordOffense(ctx context.Context, userID string) (escalation.Outcome, error)
}

// Service decides what happens to one message.
type Service struct {
	classifier     Classifier
	escalator      Escalator
	sanitizer      sanitize.Sanitizer
	sanitizeNotice string
	log            logrus.FieldLogger
}

// Option configures a Service.
type Option func(*Service)

// WithSanitizeNotice replaces DefaultSanitizeNotice. An empty notice
// disables it.
func WithSanitizeNotice(notice string) Option {
	return func(s *Service) { s.sanitizeNotice = notice }
}

// New creates a Service.
func New(c Classifier, e Escalator, san sanitize.Sanitizer, log logrus.FieldLogger, opts ...Option) *Service {
	s := &Service{
		classifier:     c,
		escalator:      e,
		sanitizer:      san,
		sanitizeNotice: DefaultSanitizeNotice,
		log:            log.WithField("component", "moderator"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Review runs one message through the pipeline:
//
//	validate -> timed out? suppress -> sanitize -> classify -> escalate
//
// Sanitizing does not stop classification; a message can be both masked and
// escalated. The returned result always carries an Action. Offense store
// failures are returned as errors with Action set to ActionError.
func (s *Service) Review(ctx context.Context, req moderation.ModerationRequest) (moderation.ModerationResult, error) {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	res := moderation.ModerationResult{
		RequestID: req.RequestID,
		UserID:    req.UserID,
		ChannelID: req.ChannelID,
		Action:    moderation.ActionAllow,
	}
	log := s.log.WithFields(logrus.Fields{
		"request_id": req.RequestID,
		"user_id":    req.UserID,
		"channel_id": req.ChannelID,
	})

	if req.UserID == "" {
		return s.fail(res, fmt.Errorf("%w: missing user id", ErrInvalidMessage))
	}
	if err := ValidateMessage(req.Text); err != nil {
		return s.fail(res, err)
	}

	status, err := s.escalator.IsTimedOut(ctx, req.UserID)
	if err != nil {
		log.WithError(err).Error("timeout lookup failed")
		return s.fail(res, err)
	}
	if status.TimedOut {
		res.Action = moderation.ActionSuppress
		res.Permanent = status.Permanent
		res.TimeLeftMs = status.TimeLeft.Milliseconds()
		res.Notice = status.Notice()
		log.WithField("permanent", status.Permanent).Info("user is timed out, ignoring message")
		return s.done(res), nil
	}

	if cleaned, profane := sanitize.Sanitize(s.sanitizer, req.Text); profane {
		res.Action = moderation.ActionSanitize
		res.Sanitized = cleaned
		res.Notice = s.sanitizeNotice
		metrics.SanitizedMessages.Inc()
	}

	res.Detection = s.classifier.Classify(req.Text)
	if !res.Detection.Detected {
		return s.done(res), nil
	}

	out, err := s.escalator.RecordOffense(ctx, req.UserID)
	if err != nil {
		log.WithError(err).Error("record offense failed")
		return s.fail(res, err)
	}
	res.Action = moderation.ActionEscalate
	res.OffenseCount = out.OffenseCount
	res.TimeoutUntil = out.TimeoutUntil
	res.Permanent = out.Permanent
	res.TimeLeftMs = out.Applied.Milliseconds()
	res.Notice = out.Notice()

	log.WithFields(logrus.Fields{
		"method":        res.Detection.Method,
		"term":          res.Detection.Term,
		"degraded":      res.Detection.Degraded,
		"offense_count": out.OffenseCount,
	}).Warn("egregious content flagged")
	return s.done(res), nil
}

func (s *Service) done(res moderation.ModerationResult) moderation.ModerationResult {
	metrics.MessagesTotal.WithLabelValues(string(res.Action)).Inc()
	return res
}

func (s *Service) fail(res moderation.ModerationResult, err error) (moderation.ModerationResult, error) {
	res.Action = moderation.ActionError
	res.Error = err.Error()
	if errors.Is(err, ErrInvalidMessage) {
		s.log.WithError(err).WithField("request_id", res.RequestID).Debug("rejected message")
	}
	return s.done(res), err
}
