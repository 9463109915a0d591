package progress

import (
	"fmt"
	"time"
)

// FormatDuration renders a duration as HH:MM:SS. Negative durations clamp to
// "00:00:00"; hours widen past two digits when a run is that long.
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "00:00:00"
	}
	sec := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", sec/3600, sec%3600/60, sec%60)
}
