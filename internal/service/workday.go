package service

import (
	"math"
	"time"

	"github.com/noah-isme/tms-allocation-api/internal/models"
)

const clockLayout = "15:04"

// HoursPerDay derives the decimal teaching hours of one full workday
// from the institution's wall-clock parameters:
// (end - start) - (lunchEnd - lunchStart), clamped to >= 0 and rounded
// to two decimals. Unparsable values contribute zero.
func HoursPerDay(profile models.InstitutionProfile) float64 {
	working := clockSpanHours(profile.StartTime, profile.EndTime)
	lunch := clockSpanHours(profile.LunchStart, profile.LunchEnd)
	hours := working - lunch
	if hours < 0 {
		hours = 0
	}
	return math.Round(hours*100) / 100
}

// SlotHours returns the hours one slot of the day contributes: a half
// day for AM or PM, the full figure for AM&PM.
func SlotHours(profile models.InstitutionProfile, slot models.DayDuration) float64 {
	full := HoursPerDay(profile)
	switch slot {
	case models.DayDurationAM, models.DayDurationPM:
		return math.Round(full/2*100) / 100
	case models.DayDurationFull:
		return full
	}
	return 0
}

func clockSpanHours(from, to string) float64 {
	start, err := time.Parse(clockLayout, from)
	if err != nil {
		return 0
	}
	end, err := time.Parse(clockLayout, to)
	if err != nil {
		return 0
	}
	return end.Sub(start).Hours()
}
