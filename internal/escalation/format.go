package escalation

import (
	"fmt"
	"time"
)

// FormatDuration renders d in its largest whole unit, e.g. "5 minutes" or
// "1 day". Non-positive durations are "already expired".
func FormatDuration(d time.Duration, permanent bool) string {
	if permanent {
		return "permanently"
	}
	if d <= 0 {
		return "already expired"
	}
	seconds := int64(d / time.Second)
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24
	switch {
	case days > 0:
		return plural(days, "day")
	case hours > 0:
		return plural(hours, "hour")
	case minutes > 0:
		return plural(minutes, "minute")
	default:
		return plural(seconds, "second")
	}
}

func plural(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// Notice is the message sent to the user after an offense.
func (o Outcome) Notice() string {
	msg := fmt.Sprintf("Your offense count is now %d.", o.OffenseCount)
	switch {
	case o.Permanent:
		msg += " You have been timed out permanently."
	case o.Applied > 0:
		msg += fmt.Sprintf(" You have been timed out for %s.", FormatDuration(o.Applied, false))
	case o.Warning:
		msg += " This is a warning. Further offenses will result in a timeout."
	}
	return msg
}

// Notice is the reminder sent to a timed-out user. Permanently timed-out
// users get none.
func (s Status) Notice() string {
	if !s.TimedOut || s.Permanent {
		return ""
	}
	return fmt.Sprintf("You are still timed out for %s. Please wait before sending more messages.",
		FormatDuration(s.TimeLeft, false))
}
