package stats

import (
	"fmt"
	"time"
)

const (
	// DayLength is the rollover cadence in seconds.
	DayLength int64 = 86400
	// DefaultUTCOffsetHours anchors day boundaries to the UTC+5 market zone.
	DefaultUTCOffsetHours = 5
	// DefaultBoundaryHour and DefaultBoundaryMinute place the boundary at
	// 23:00 local time.
	DefaultBoundaryHour   = 23
	DefaultBoundaryMinute = 0
)

// NextBoundary returns the earliest instant strictly after ts whose local
// time in the fixed UTC+offsetHours zone reads hour:minute. An instant
// exactly on the boundary resolves to the following day.
func NextBoundary(ts int64, offsetHours, hour, minute int) int64 {
	zone := time.FixedZone(fmt.Sprintf("UTC%+d", offsetHours), offsetHours*3600)
	local := time.Unix(ts, 0).In(zone)
	boundary := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, zone)
	if !boundary.After(local) {
		boundary = boundary.AddDate(0, 0, 1)
	}
	return boundary.Unix()
}

// dayOpen returns the boundary that opened the day containing ts.
func dayOpen(ts int64, offsetHours, hour, minute int) int64 {
	return NextBoundary(ts, offsetHours, hour, minute) - DayLength
}
