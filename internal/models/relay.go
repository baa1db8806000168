package models

import "fmt"

// RelayPreset is a named relay offered for selection.
type RelayPreset struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}

// TimeRange bounds how far back notes are fetched.
type TimeRange string

const (
	RangeMonth   TimeRange = "month"
	RangeAllTime TimeRange = "all-time"
)

// ParseTimeRange accepts "", "month" and "all-time". The empty string means month.
func ParseTimeRange(s string) (TimeRange, error) {
	switch TimeRange(s) {
	case "", RangeMonth:
		return RangeMonth, nil
	case RangeAllTime:
		return RangeAllTime, nil
	}
	return "", fmt.Errorf("unknown time range %q", s)
}
