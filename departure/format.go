package departure

import (
	"fmt"
	"strings"
	"time"
)

const clockFormat = "03:04 PM"

func (o *Optimizer) clock(t time.Time) string {
	loc := o.Location
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(clockFormat)
}

// FormatSuggestion renders a candidate for display.
func (o *Optimizer) FormatSuggestion(c Candidate, countdown bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s Line Track %s (%s)\n", c.RouteName, c.Track, c.Status)
	fmt.Fprintf(&b, "Departure: %s Leave by: %s", o.clock(c.DepartureTime), o.clock(c.LeaveTime))
	if countdown {
		fmt.Fprintf(&b, "\n⏱ %d minutes until departure", int(c.MinutesUntilDeparture))
	}
	if c.Feasible {
		b.WriteString("\n✓ Feasible")
	} else {
		b.WriteString("\n⚠ Too late to catch this train")
	}
	return b.String()
}

// NotificationMessage returns the leave-now reminder when now falls in
// [leave-lead, leave).
func (o *Optimizer) NotificationMessage(c Candidate, now time.Time, lead time.Duration) (string, bool) {
	notifyAt := c.LeaveTime.Add(-lead)
	if now.Before(notifyAt) || !now.Before(c.LeaveTime) {
		return "", false
	}
	return fmt.Sprintf("🚂 Time to leave for %s Line train!\nLeave by %s to catch train on Track %s",
		c.RouteName, o.clock(c.LeaveTime), c.Track), true
}
