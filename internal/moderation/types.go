package moderation

// Method names the matcher stage that produced a detection.
type Method string

const (
	MethodNone       Method = ""
	MethodExact      Method = "exact"
	MethodNormalized Method = "normalized"
	MethodRegex      Method = "regex"
	MethodSubstring  Method = "substring" // fallback list only
)

// Detection is the verdict of classifying one message against the banned
// lexicon.
type Detection struct {
	Detected bool   `json:"detected"`
	Method   Method `json:"method,omitempty"`
	Term     string `json:"term,omitempty"`     // canonical lexicon term
	Evidence string `json:"evidence,omitempty"` // token, normalized term or matched text
	Degraded bool   `json:"degraded,omitempty"` // classified against the fallback list
}

// Action is what the moderation service decided to do with a message.
type Action string

const (
	ActionAllow    Action = "allow"
	ActionSanitize Action = "sanitize"
	ActionEscalate Action = "escalate"
	ActionSuppress Action = "suppress"
	ActionError    Action = "error"
)

// ModerationRequest is published to moderation.check by the message handler
// for every incoming user message.
type ModerationRequest struct {
	RequestID string `json:"request_id"`
	UserID    string `json:"user_id"`
	ChannelID string `json:"channel_id"`
	Text      string `json:"text"`
	Ts        int64  `json:"ts"`
}

// ModerationResult is published back on moderation.result.<user_id>.
type ModerationResult struct {
	RequestID    string    `json:"request_id"`
	UserID       string    `json:"user_id"`
	ChannelID    string    `json:"channel_id"`
	Action       Action    `json:"action"`
	Sanitized    string    `json:"sanitized,omitempty"`
	Detection    Detection `json:"detection"`
	OffenseCount int       `json:"offense_count,omitempty"`
	TimeoutUntil int64     `json:"timeout_until,omitempty"` // epoch millis, max int64 = permanent
	TimeLeftMs   int64     `json:"time_left_ms,omitempty"`
	Permanent    bool      `json:"permanent,omitempty"`
	Notice       string    `json:"notice,omitempty"`
	Error        string    `json:"error,omitempty"`
}
