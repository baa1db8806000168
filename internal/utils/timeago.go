package utils

import (
	"math"
	"time"

	"github.com/dustin/go-humanize"
)

const justNow = "just now"

var relMagnitudes = []humanize.RelTimeMagnitude{
	{D: time.Minute, Format: justNow, DivBy: 1},
	{D: 2 * time.Minute, Format: "1 minute", DivBy: 1},
	{D: time.Hour, Format: "%d minutes", DivBy: time.Minute},
	{D: 2 * time.Hour, Format: "1 hour", DivBy: 1},
	{D: humanize.Day, Format: "%d hours", DivBy: time.Hour},
	{D: 2 * humanize.Day, Format: "1 day", DivBy: 1},
	{D: humanize.Week, Format: "%d days", DivBy: humanize.Day},
	{D: 2 * humanize.Week, Format: "1 week", DivBy: 1},
	{D: humanize.Month, Format: "%d weeks", DivBy: humanize.Week},
	{D: 2 * humanize.Month, Format: "1 month", DivBy: 1},
	{D: 365 * humanize.Day, Format: "%d months", DivBy: humanize.Month},
	{D: 2 * 365 * humanize.Day, Format: "1 year", DivBy: 1},
	{D: math.MaxInt64, Format: "%d years", DivBy: 365 * humanize.Day},
}

// TimeAgo renders then relative to now: "3 days ago", "in 2 weeks" or "just now".
func TimeAgo(then, now time.Time) string {
	s := humanize.CustomRelTime(then, now, "", "", relMagnitudes)
	switch {
	case s == justNow:
		return s
	case then.After(now):
		return "in " + s
	default:
		return s + " ago"
	}
}
