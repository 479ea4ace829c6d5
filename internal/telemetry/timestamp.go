// Package telemetry turns raw power readings into chart series: it parses the
// plant API's DD/MM/YYYY timestamps, derives power factor and buckets readings
// by the selected granularity.
package telemetry

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrMalformedTimestamp = errors.New("malformed timestamp")
	ErrUnknownGranularity = errors.New("unknown granularity")
	ErrInvalidClock       = errors.New("invalid clock time")
)

const (
	isoLayout   = "2006-01-02T15:04:05"
	isoMinute   = "2006-01-02T15:04"
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
	clockLayout = "15:04"

	// ClockLabelLayout labels today-mode rows.
	ClockLabelLayout = "15:04:05"
)

// ParseTimestamp parses a plant timestamp of the form DD/MM/YYYY HH:MM:SS in
// loc. Seconds may be omitted. The day comes first; a month-first reading is
// never attempted.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, s)
	}
	day, month := parts[0], parts[1]
	yearTime := strings.SplitN(parts[2], " ", 2)
	if len(yearTime) != 2 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, s)
	}
	iso := yearTime[0] + "-" + month + "-" + day + "T" + yearTime[1]
	t, err := time.ParseInLocation(isoLayout, iso, loc)
	if err != nil {
		t, err = time.ParseInLocation(isoMinute, iso, loc)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, s)
	}
	return t, nil
}

// parseClock validates an HH:MM string and returns it zero-padded, so clock
// strings compare correctly as text.
func parseClock(s string) (string, error) {
	t, err := time.Parse(clockLayout, strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return t.Format(clockLayout), nil
}
