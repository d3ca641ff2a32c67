package service

import (
	"fmt"

	"github.com/noah-isme/tms-allocation-api/internal/models"
)

// ConflictValidator performs the authoritative full scan of an
// allocation table against itself and against a global feed snapshot.
// It is a pure function of (table, feed, rule): callers re-run it after
// every mutation and every feed update, and must not act on a report
// computed against a superseded feed version.
type ConflictValidator struct {
	rule ExclusionRule
}

// NewConflictValidator builds a validator for the given exclusion rule.
func NewConflictValidator(rule ExclusionRule) *ConflictValidator {
	return &ConflictValidator{rule: rule}
}

type slotBooking struct {
	slot models.DayDuration
	key  models.AssignmentKey
}

type localAssignment struct {
	key   models.AssignmentKey
	sched models.AssignmentSchedule
	dates []string
	batch string
}

// Validate scans the whole table. Assignments missing trainer, slot, or
// either date are skipped as not yet schedulable.
func (v *ConflictValidator) Validate(table models.AllocationTable, feed *models.FeedSnapshot) *models.ValidationReport {
	return v.ValidateDomain(table, feed, "")
}

// ValidateDomain behaves like Validate restricted to rows of one
// domain; an empty domain scans everything.
func (v *ConflictValidator) ValidateDomain(table models.AllocationTable, feed *models.FeedSnapshot, domain string) *models.ValidationReport {
	report := &models.ValidationReport{
		Errors:          []models.ValidationError{},
		ConflictingKeys: make(map[models.AssignmentKey]struct{}),
	}
	if feed != nil {
		report.FeedVersion = feed.Version
	}

	locals := v.collectLocals(table, domain)
	seenMessages := make(map[string]struct{})
	appendError := func(message string) {
		if _, dup := seenMessages[message]; dup {
			return
		}
		seenMessages[message] = struct{}{}
		report.Errors = append(report.Errors, models.ValidationError{Message: message})
	}

	// Local vs local: per trainer, every already-seen booking on the
	// same date is compared against the incoming one.
	booked := make(map[string]map[string][]slotBooking)
	for _, local := range locals {
		trainerDates := booked[local.sched.TrainerID]
		if trainerDates == nil {
			trainerDates = make(map[string][]slotBooking)
			booked[local.sched.TrainerID] = trainerDates
		}
		for _, date := range local.dates {
			for _, prior := range trainerDates[date] {
				if !models.SlotsConflict(local.sched.Slot, prior.slot) {
					continue
				}
				report.ConflictingKeys[local.key] = struct{}{}
				report.ConflictingKeys[prior.key] = struct{}{}
				appendError(fmt.Sprintf("%s is booked more than once on %s (%s slot)",
					trainerLabel(local.sched), date, local.sched.Slot))
			}
			trainerDates[date] = append(trainerDates[date], slotBooking{slot: local.sched.Slot, key: local.key})
		}
	}

	// Local vs global feed.
	if feed != nil {
		for _, local := range locals {
			for _, date := range local.dates {
				for _, record := range feed.Records {
					if record.TrainerID != local.sched.TrainerID {
						continue
					}
					if !v.recordCoversDate(record, date) {
						continue
					}
					if !models.SlotsConflict(local.sched.Slot, record.DayDuration) {
						continue
					}
					report.ConflictingKeys[local.key] = struct{}{}
					appendError(fmt.Sprintf("%s is already committed to training %s (%s, batch %s, %s domain) for the %s slot on %s",
						trainerLabel(local.sched), record.SourceTrainingID, record.CollegeName,
						record.BatchCode, record.Domain, record.DayDuration, date))
				}
			}
		}
	}

	report.HasErrors = len(report.Errors) > 0
	return report
}

func (v *ConflictValidator) collectLocals(table models.AllocationTable, domain string) []localAssignment {
	var locals []localAssignment
	for rowIdx, row := range table {
		if domain != "" && row.Domain != domain {
			continue
		}
		for batchIdx, batch := range row.Batches {
			for trainerIdx, assignment := range batch.Trainers {
				sched, ok := assignment.Schedule()
				if !ok {
					continue
				}
				dates := ExpandDateRange(sched.StartDate, sched.EndDate, v.rule, nil)
				if len(dates) == 0 {
					continue
				}
				locals = append(locals, localAssignment{
					key:   models.AssignmentKey{Row: rowIdx, Batch: batchIdx, Trainer: trainerIdx},
					sched: sched,
					dates: dates,
					batch: batch.BatchCode,
				})
			}
		}
	}
	return locals
}

func (v *ConflictValidator) recordCoversDate(record models.GlobalAssignmentRecord, day string) bool {
	if record.Date != "" {
		normalized, ok := NormalizeDate(record.Date)
		return ok && normalized == day
	}
	for _, date := range ExpandDateRange(record.StartDate, record.EndDate, v.rule, nil) {
		if date == day {
			return true
		}
	}
	return false
}

func trainerLabel(sched models.AssignmentSchedule) string {
	if sched.TrainerName != "" {
		return fmt.Sprintf("%s (%s)", sched.TrainerName, sched.TrainerID)
	}
	return sched.TrainerID
}
