package moderator

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"

	"github.com/whisper/chat-moderation/internal/lexicon"
	"github.com/whisper/chat-moderation/internal/matcher"
	"github.com/whisper/chat-moderation/internal/messaging"
	"github.com/whisper/chat-moderation/internal/moderation"
)

// Publisher delivers results back to the message handler.
type Publisher interface {
	PublishModerationResult(userID string, data []byte) error
}

// Admin is the operator surface of the matcher.
type Admin interface {
	Reload() matcher.LoadStats
	AddTermToLexicon(term string) (lexicon.AddResult, error)
}

// AddTermRequest is the payload of moderation.lexicon.add.
type AddTermRequest struct {
	Term string `json:"term"`
}

// HandleCheck decodes one moderation.check payload, reviews it and publishes
// the result on moderation.result.<user_id>. Failed reviews are still
// published with Action "error"; the message handler decides what to do.
func (s *Service) HandleCheck(ctx context.Context, pub Publisher, data []byte) {
	var req moderation.ModerationRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.log.WithError(err).Warn("failed to unmarshal request")
		return
	}

	res, err := s.Review(ctx, req)
	if err != nil {
		s.log.WithError(err).WithField("request_id", res.RequestID).Warn("review failed")
	}
	if req.UserID == "" {
		return
	}

	payload, err := json.Marshal(res)
	if err != nil {
		s.log.WithError(err).Error("failed to marshal result")
		return
	}
	if err := pub.PublishModerationResult(req.UserID, payload); err != nil {
		s.log.WithError(err).WithField("user_id", req.UserID).Error("failed to publish result")
	}
}

// ReloadHandler answers moderation.reload with the new LoadStats.
func ReloadHandler(admin Admin, log logrus.FieldLogger) func([]byte) []byte {
	return func([]byte) []byte {
		stats := admin.Reload()
		log.WithField("method", stats.Mode).Info("reload requested")
		return mustJSON(stats, log)
	}
}

// AddTermHandler answers moderation.lexicon.add with a lexicon.AddResult.
func AddTermHandler(admin Admin, log logrus.FieldLogger) func([]byte) []byte {
	return func(data []byte) []byte {
		var req AddTermRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return mustJSON(lexicon.AddResult{Success: false, Message: "invalid request: " + err.Error()}, log)
		}
		res, err := admin.AddTermToLexicon(req.Term)
		if err != nil {
			res = lexicon.AddResult{Success: false, Message: "error adding term: " + err.Error()}
		}
		return mustJSON(res, log)
	}
}

// Register subscribes the service and the admin handlers on nc.
func (s *Service) Register(ctx context.Context, nc *messaging.NATSClient, admin Admin) error {
	if err := nc.SubscribeModerationCheck(func(data []byte) {
		s.HandleCheck(ctx, nc, data)
	}); err != nil {
		return err
	}
	if err := nc.HandleRequest(messaging.SubjectReload, ReloadHandler(admin, s.log)); err != nil {
		return err
	}
	return nc.HandleRequest(messaging.SubjectLexiconAdd, AddTermHandler(admin, s.log))
}

func mustJSON(v any, log logrus.FieldLogger) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		log.WithError(err).Error("failed to marshal reply")
		return []byte(`{}`)
	}
	return data
}
