package core

import (
	"regexp"
	"time"
)

// TimestampLayout is the only calendar text form the engine accepts.
const TimestampLayout = "2006-01-02 15:04:05"

// timestampPattern gates the layout before time parsing: time.Parse tolerates
// unpadded fields, the wire contract does not.
var timestampPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`)

// IST is the fixed display zone; instants are seconds since the Unix epoch.
var IST = time.FixedZone("IST", 5*3600+30*60)

// Instant is an absolute point in time in seconds since the Unix epoch.
type Instant int64

// ParseTimestamp parses "YYYY-MM-DD HH:mm:ss" as an IST wall-clock reading and
// returns the corresponding instant. Calendar fields that do not round-trip
// through normalization (February 30th, hour 24) are rejected, never clamped.
func ParseTimestamp(text, field string) (Instant, error) {
	if !timestampPattern.MatchString(text) {
		return 0, &InvalidTimestampError{Field: field, Value: text}
	}
	t, err := time.ParseInLocation(TimestampLayout, text, IST)
	if err != nil {
		return 0, &InvalidTimestampError{Field: field, Value: text}
	}
	// ParseInLocation normalizes nothing, but keep the inverse as the single
	// source of truth for exactness.
	if t.Format(TimestampLayout) != text {
		return 0, &InvalidTimestampError{Field: field, Value: text}
	}
	return Instant(t.Unix()), nil
}

// FormatTimestamp is the exact inverse of ParseTimestamp for any instant the
// parser can produce.
func FormatTimestamp(i Instant) string {
	return time.Unix(int64(i), 0).In(IST).Format(TimestampLayout)
}
