package service

import (
	"fmt"

	"github.com/noah-isme/tms-allocation-api/internal/models"
	appErrors "github.com/noah-isme/tms-allocation-api/pkg/errors"
)

// MergeRows collapses two specialization rows into one planning row.
// Student counts are summed; the hour budget is the target's (the
// source's budget is discarded). Trainer assignments are not carried
// over and must be re-entered against the merged batch. The merged row
// takes the target's position and the source row is removed. A deep
// snapshot of both originals is kept so exactly one undo is possible.
//
// The caller is responsible for the advisory preconditions (same
// domain, equal total hours); this function only rejects out-of-range
// or self merges.
func (m *AllocationModel) MergeRows(sourceIdx, targetIdx int) error {
	if sourceIdx == targetIdx {
		return appErrors.Clone(appErrors.ErrValidation, "cannot merge a row with itself")
	}
	source, err := m.row(sourceIdx)
	if err != nil {
		return err
	}
	target, err := m.row(targetIdx)
	if err != nil {
		return err
	}

	mergedNames := fmt.Sprintf("%s-%s", source.SpecializationName, target.SpecializationName)
	combined := source.StudentCount + target.StudentCount
	merged := &models.SpecializationRow{
		Domain:             target.Domain,
		SpecializationName: target.SpecializationName,
		StudentCount:       combined,
		TotalHours:         target.TotalHours,
		IsMerged:           true,
		MergedFromNames:    mergedNames,
		Batches: []*models.Batch{{
			BatchCode:        mergedNames + "-1",
			StudentsAssigned: combined,
			HoursBudget:      target.TotalHours,
		}},
		Snapshot: &models.MergeRecord{
			Source:      source.Clone(),
			Target:      target.Clone(),
			SourceIndex: sourceIdx,
			TargetIndex: targetIdx,
		},
	}

	m.Table[targetIdx] = merged
	m.Table = append(m.Table[:sourceIdx], m.Table[sourceIdx+1:]...)
	return nil
}

// UndoMerge restores the two original rows of a previously merged row.
// Only one level of undo exists: a row whose snapshot was cleared by a
// later merge or edit reports a diagnostic and leaves the table alone.
func (m *AllocationModel) UndoMerge(mergedIdx int) error {
	row, err := m.row(mergedIdx)
	if err != nil {
		return err
	}
	if row.Snapshot == nil {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "nothing to undo for this row")
	}
	record := row.Snapshot

	restoredTarget := record.Target.Clone()
	restoredSource := record.Source.Clone()
	m.Table[mergedIdx] = restoredTarget

	insertAt := record.SourceIndex
	if insertAt < 0 || insertAt > len(m.Table) {
		insertAt = mergedIdx + 1
	}
	m.Table = append(m.Table, nil)
	copy(m.Table[insertAt+1:], m.Table[insertAt:])
	m.Table[insertAt] = restoredSource
	return nil
}
