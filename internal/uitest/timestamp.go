package uitest

import (
	"context"
	"fmt"
	"time"
)

// FormatTimestamp renders t as "day/month/year @ hour:minute:second" with
// a 1-based month and no zero padding, e.g. "19/10/2026 @ 9:5:7".
func FormatTimestamp(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d @ %d:%d:%d",
		t.Day(), int(t.Month()), t.Year(), t.Hour(), t.Minute(), t.Second())
}

// Timestamp returns the helper clock's current time, formatted.
func (h *Helper) Timestamp() string {
	return FormatTimestamp(h.opts.Now().In(h.opts.Location))
}

// ConsoleLogTime returns a diagnostic line for who and message stamped with
// the current time. It emits nothing; see LogTime.
func (h *Helper) ConsoleLogTime(who, message string) string {
	return fmt.Sprintf("-- %s [%s]: %s", who, h.Timestamp(), message)
}

// LogTime writes the ConsoleLogTime line to the structured logger and returns it.
func (h *Helper) LogTime(ctx context.Context, who, message string) string {
	line := h.ConsoleLogTime(who, message)
	h.log(ctx).Info("ui_log_time", "who", who, "line", line)
	return line
}
