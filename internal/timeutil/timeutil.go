// Package timeutil implements the small set of clock primitives the
// scheduler, rollup, and analytics components share: UTC day boundaries,
// current-minute flooring, and range-to-seconds conversion.
package timeutil

import "time"

// FloorToMinute anchors a unix-second timestamp to the start of its minute.
func FloorToMinute(unixSec int64) int64 {
	return (unixSec / 60) * 60
}

// UTCDayStart returns the unix-second timestamp of the UTC midnight that
// begins the day containing unixSec.
func UTCDayStart(unixSec int64) int64 {
	t := time.Unix(unixSec, 0).UTC()
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return d.Unix()
}

// PreviousUTCDay returns [dayStart, dayEnd) for the UTC day before the one
// containing unixSec.
func PreviousUTCDay(unixSec int64) (dayStart, dayEnd int64) {
	today := UTCDayStart(unixSec)
	dayEnd = today
	dayStart = today - 86400
	return
}

// RangeSeconds converts a range token ("24h","7d","30d","90d") into a
// duration in seconds. Returns 0, false on unrecognized input.
func RangeSeconds(rng string) (int64, bool) {
	switch rng {
	case "24h":
		return 86400, true
	case "7d":
		return 7 * 86400, true
	case "30d":
		return 30 * 86400, true
	case "90d":
		return 90 * 86400, true
	default:
		return 0, false
	}
}

// Now returns the current wall-clock time as unix seconds. Exists so
// callers can stub/inject time in tests without touching time.Now directly
// throughout the codebase.
func Now() int64 {
	return time.Now().UTC().Unix()
}
