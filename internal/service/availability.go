package service

import (
	"github.com/noah-isme/tms-allocation-api/internal/models"
)

// AvailabilityIndex answers whether a trainer is free on a given date
// and slot. It scans the local allocation table being edited plus a
// read-only snapshot of the global assignment feed. It guards new
// edits only; the ConflictValidator remains the authoritative check
// for conflicts introduced by bulk operations or feed changes.
type AvailabilityIndex struct {
	table models.AllocationTable
	feed  []models.GlobalAssignmentRecord
	rule  ExclusionRule
}

// NewAvailabilityIndex builds an index over the table and feed.
func NewAvailabilityIndex(table models.AllocationTable, feed []models.GlobalAssignmentRecord, rule ExclusionRule) *AvailabilityIndex {
	return &AvailabilityIndex{table: table, feed: feed, rule: rule}
}

// IsAvailable reports whether trainerID is free for slot on date.
// excludeKey skips the trainer's own assignment during in-place edits;
// excludeBatch skips every assignment in one batch, used by swap
// evaluation where the whole batch-local comparison is intentional to
// leave out. Either may be nil. The scan stops at the first conflict.
func (a *AvailabilityIndex) IsAvailable(trainerID, date string, slot models.DayDuration, excludeKey *models.AssignmentKey, excludeBatch *models.BatchKey) bool {
	if trainerID == "" {
		return true
	}
	day, ok := NormalizeDate(date)
	if !ok {
		return true
	}

	for rowIdx, row := range a.table {
		for batchIdx, batch := range row.Batches {
			if excludeBatch != nil && excludeBatch.Row == rowIdx && excludeBatch.Batch == batchIdx {
				continue
			}
			for trainerIdx, assignment := range batch.Trainers {
				key := models.AssignmentKey{Row: rowIdx, Batch: batchIdx, Trainer: trainerIdx}
				if excludeKey != nil && *excludeKey == key {
					continue
				}
				sched, ok := assignment.Schedule()
				if !ok || sched.TrainerID != trainerID {
					continue
				}
				if !DateWithinRange(day, sched.StartDate, sched.EndDate) {
					continue
				}
				if models.SlotsConflict(slot, sched.Slot) {
					return false
				}
			}
		}
	}

	for _, record := range a.feed {
		if record.TrainerID != trainerID {
			continue
		}
		if !a.recordCoversDate(record, day) {
			continue
		}
		if models.SlotsConflict(slot, record.DayDuration) {
			return false
		}
	}
	return true
}

func (a *AvailabilityIndex) recordCoversDate(record models.GlobalAssignmentRecord, day string) bool {
	if record.Date != "" {
		normalized, ok := NormalizeDate(record.Date)
		return ok && normalized == day
	}
	for _, date := range ExpandDateRange(record.StartDate, record.EndDate, a.rule, nil) {
		if date == day {
			return true
		}
	}
	return false
}
