package service

import (
	"github.com/noah-isme/tms-allocation-api/internal/models"
	appErrors "github.com/noah-isme/tms-allocation-api/pkg/errors"
)

const swapRejectedReason = "one or both trainers are not available for the proposed exchange"

// ProposeSwap exchanges which trainer serves which slot across two
// batches. Only trainers currently holding an AM slot who are not also
// booked PM in the same batch are swap-eligible. Both directions are
// checked against the availability index (each assignment's own
// identity excluded); when either direction fails the whole operation
// is rejected with a single reason and nothing mutates.
//
// On success a new assignment is appended to each opposite batch
// carrying the other party's identity under the exchanged slot and
// range; the two original assignments remain untouched. This
// duplication-then-append shape is the documented behaviour of the
// workflow this service replaces, kept for compatibility.
func (m *AllocationModel) ProposeSwap(feed []models.GlobalAssignmentRecord, sourceKey, targetKey models.AssignmentKey) error {
	if sourceKey == targetKey {
		return appErrors.Clone(appErrors.ErrValidation, "source and target must differ")
	}
	source := m.Table.Assignment(sourceKey)
	target := m.Table.Assignment(targetKey)
	if source == nil || target == nil {
		return appErrors.Clone(appErrors.ErrNotFound, "trainer assignment not found")
	}
	sourceSched, ok := source.Schedule()
	if !ok {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "source assignment is not yet schedulable")
	}
	targetSched, ok := target.Schedule()
	if !ok {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "target assignment is not yet schedulable")
	}
	if err := m.checkSwapEligible(sourceKey, sourceSched); err != nil {
		return err
	}
	if err := m.checkSwapEligible(targetKey, targetSched); err != nil {
		return err
	}

	index := NewAvailabilityIndex(m.Table, feed, m.Rule)
	if !m.freeForExchange(index, targetSched.TrainerID, sourceSched, targetKey) {
		return appErrors.Clone(appErrors.ErrConflict, swapRejectedReason)
	}
	if !m.freeForExchange(index, sourceSched.TrainerID, targetSched, sourceKey) {
		return appErrors.Clone(appErrors.ErrConflict, swapRejectedReason)
	}

	sourceBatch := m.Table.BatchAt(sourceKey.BatchKey())
	targetBatch := m.Table.BatchAt(targetKey.BatchKey())
	sourceBatch.Trainers = append(sourceBatch.Trainers, exchangedAssignment(source, target))
	targetBatch.Trainers = append(targetBatch.Trainers, exchangedAssignment(target, source))
	return nil
}

// checkSwapEligible enforces the candidate rule: AM slot holders only,
// and not also booked PM in the same batch on an overlapping range.
func (m *AllocationModel) checkSwapEligible(key models.AssignmentKey, sched models.AssignmentSchedule) error {
	if sched.Slot != models.DayDurationAM {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "only trainers holding an AM slot can be swapped")
	}
	batch := m.Table.BatchAt(key.BatchKey())
	for idx, other := range batch.Trainers {
		if idx == key.Trainer {
			continue
		}
		otherSched, ok := other.Schedule()
		if !ok || otherSched.TrainerID != sched.TrainerID || otherSched.Slot != models.DayDurationPM {
			continue
		}
		if rangesOverlap(sched, otherSched) {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "trainers working both halves of a day are not swap-eligible")
		}
	}
	return nil
}

// freeForExchange verifies a trainer can take over the counterpart's
// schedule. Only the trainer's own current assignment is carved out of
// the scan; every other booking, including others in the destination
// batch, still blocks the exchange.
func (m *AllocationModel) freeForExchange(index *AvailabilityIndex, trainerID string, into models.AssignmentSchedule, own models.AssignmentKey) bool {
	for _, date := range ExpandDateRange(into.StartDate, into.EndDate, m.Rule, nil) {
		if !index.IsAvailable(trainerID, date, into.Slot, &own, nil) {
			return false
		}
	}
	return true
}

// exchangedAssignment builds the appended record: the counterpart's
// identity placed into the original assignment's slot and range.
func exchangedAssignment(original, counterpart *models.TrainerAssignment) *models.TrainerAssignment {
	appended := original.Clone()
	appended.TrainerID = counterpart.TrainerID
	appended.TrainerName = counterpart.TrainerName
	appended.PerHourCost = counterpart.PerHourCost
	appended.Topics = nil
	return appended
}

func rangesOverlap(a, b models.AssignmentSchedule) bool {
	aStart, ok := NormalizeDate(a.StartDate)
	if !ok {
		return false
	}
	aEnd, ok := NormalizeDate(a.EndDate)
	if !ok {
		return false
	}
	bStart, ok := NormalizeDate(b.StartDate)
	if !ok {
		return false
	}
	bEnd, ok := NormalizeDate(b.EndDate)
	if !ok {
		return false
	}
	return aStart <= bEnd && bStart <= aEnd
}
