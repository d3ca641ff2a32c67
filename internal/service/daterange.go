package service

import (
	"time"
)

// ExclusionRule names which weekdays are dropped when expanding a date
// range into working days.
type ExclusionRule string

const (
	ExcludeNone     ExclusionRule = "None"
	ExcludeSaturday ExclusionRule = "Saturday"
	ExcludeSunday   ExclusionRule = "Sunday"
	ExcludeBoth     ExclusionRule = "Both"
)

const dateLayout = "2006-01-02"

// parseable layouts, most specific first. Legacy rows occasionally
// carry full timestamps.
var dateLayouts = []string{dateLayout, time.RFC3339, "2006-01-02T15:04:05"}

// NormalizeDate canonicalizes a raw date string to YYYY-MM-DD. The
// second return is false when the value cannot be parsed. Normalizing
// an already-normalized date returns the same value.
func NormalizeDate(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(dateLayout), true
		}
	}
	return "", false
}

func (r ExclusionRule) excludes(day time.Weekday) bool {
	switch r {
	case ExcludeSaturday:
		return day == time.Saturday
	case ExcludeSunday:
		return day == time.Sunday
	case ExcludeBoth:
		return day == time.Saturday || day == time.Sunday
	}
	return false
}

// ExpandDateRange walks day by day from start to end inclusive and
// returns the normalized working dates. A day is dropped when its
// weekday matches the exclusion rule or when it appears in excluded.
// Missing, unparsable, or inverted ranges yield an empty list: a
// malformed range means "not yet schedulable", never an error.
func ExpandDateRange(start, end string, rule ExclusionRule, excluded map[string]struct{}) []string {
	startNorm, ok := NormalizeDate(start)
	if !ok {
		return nil
	}
	endNorm, ok := NormalizeDate(end)
	if !ok {
		return nil
	}
	from, err := time.Parse(dateLayout, startNorm)
	if err != nil {
		return nil
	}
	to, err := time.Parse(dateLayout, endNorm)
	if err != nil {
		return nil
	}
	if from.After(to) {
		return nil
	}

	var dates []string
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		if rule.excludes(day.Weekday()) {
			continue
		}
		value := day.Format(dateLayout)
		if _, skip := excluded[value]; skip {
			continue
		}
		dates = append(dates, value)
	}
	return dates
}

// DateWithinRange reports whether date falls inside [start, end] after
// normalization. Unparsable inputs never match.
func DateWithinRange(date, start, end string) bool {
	d, ok := NormalizeDate(date)
	if !ok {
		return false
	}
	s, ok := NormalizeDate(start)
	if !ok {
		return false
	}
	e, ok := NormalizeDate(end)
	if !ok {
		return false
	}
	return d >= s && d <= e
}
