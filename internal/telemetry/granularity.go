package telemetry

import (
	"fmt"
	"strings"
	"time"
)

type Granularity string

const (
	Today   Granularity = "today"
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
)

// ParseGranularity accepts the current selector values and the legacy
// live/day/month ones.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "today", "live":
		return Today, nil
	case "daily", "day":
		return Daily, nil
	case "weekly":
		return Weekly, nil
	case "monthly", "month":
		return Monthly, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownGranularity, s)
}

// Aggregates reports whether readings are grouped into buckets.
func (g Granularity) Aggregates() bool {
	return g == Daily || g == Weekly || g == Monthly
}

// BucketKey derives the bucket label of t. Dates are taken in t's own
// location, never UTC. Today has no buckets and yields "".
func BucketKey(t time.Time, g Granularity) string {
	switch g {
	case Daily:
		return t.Format(dateLayout)
	case Weekly:
		return StartOfWeek(t).Format(dateLayout)
	case Monthly:
		return t.Format(monthLayout)
	}
	return ""
}

// StartOfWeek returns local midnight of the Sunday starting t's week.
func StartOfWeek(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d-int(t.Weekday()), 0, 0, 0, 0, t.Location())
}

// CanonicalDate parses a bucket key back into a comparable date. Monthly keys
// resolve to the first of the month.
func CanonicalDate(key string, g Granularity) (time.Time, error) {
	layout := dateLayout
	if g == Monthly {
		layout = monthLayout
	}
	if !g.Aggregates() {
		return time.Time{}, fmt.Errorf("%w: %q has no bucket keys", ErrUnknownGranularity, g)
	}
	t, err := time.Parse(layout, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("bucket key %q: %w", key, err)
	}
	return t, nil
}
