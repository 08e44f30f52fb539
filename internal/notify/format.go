package notify

import "time"

const (
	eventDateLayout = "Monday, 2 January 2006"
	eventTimeLayout = "15:04"
)

// FormatEventDateTime renders an event's schedule for notification bodies,
// e.g. "Saturday, 14 March 2026 at 09:00". The time clause is omitted when
// the event has no start time.
func FormatEventDateTime(date time.Time, startTime *time.Time) string {
	formatted := date.Format(eventDateLayout)
	if startTime == nil {
		return formatted
	}
	return formatted + " at " + startTime.Format(eventTimeLayout)
}
