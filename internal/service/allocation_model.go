package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/noah-isme/tms-allocation-api/internal/models"
	appErrors "github.com/noah-isme/tms-allocation-api/pkg/errors"
)

// TrainerDirectory resolves trainer identities supplied by the host.
type TrainerDirectory interface {
	Lookup(ctx context.Context, trainerID string) (*models.Trainer, error)
}

// Editable trainer assignment fields accepted by SetTrainerField.
const (
	FieldTrainerID   = "trainerId"
	FieldDayDuration = "dayDuration"
	FieldStartDate   = "startDate"
	FieldEndDate     = "endDate"
)

// AllocationModel owns one allocation table and enforces its
// accounting invariants. All mutations go through these operations;
// the surrounding session service is the single writer.
type AllocationModel struct {
	Table   models.AllocationTable
	Rule    ExclusionRule
	Profile models.InstitutionProfile
}

// EnsureRow auto-populates one row per course when a domain is
// selected. Re-selecting an already present specialization is a no-op.
func (m *AllocationModel) EnsureRow(domain, specialization string, studentCount int, totalHours float64) *models.SpecializationRow {
	for _, row := range m.Table {
		if row.Domain == domain && row.SpecializationName == specialization {
			return row
		}
	}
	row := &models.SpecializationRow{
		Domain:             domain,
		SpecializationName: specialization,
		StudentCount:       studentCount,
		TotalHours:         totalHours,
		Batches: []*models.Batch{{
			BatchCode:   specialization + "1",
			HoursBudget: totalHours,
		}},
	}
	m.Table = append(m.Table, row)
	return row
}

// AddBatch appends a batch mirroring batch #1's hour budget.
func (m *AllocationModel) AddBatch(rowIdx int) error {
	row, err := m.row(rowIdx)
	if err != nil {
		return err
	}
	budget := 0.0
	if len(row.Batches) > 0 {
		budget = row.Batches[0].HoursBudget
	}
	row.Batches = append(row.Batches, &models.Batch{
		BatchCode:   batchCodePrefix(row) + strconv.Itoa(len(row.Batches)+1),
		HoursBudget: budget,
	})
	m.touch(row)
	return nil
}

// RemoveBatch drops a batch and resequences the remaining codes. A row
// always retains at least one batch; removing the last one is a no-op.
func (m *AllocationModel) RemoveBatch(rowIdx, batchIdx int) error {
	row, err := m.row(rowIdx)
	if err != nil {
		return err
	}
	if len(row.Batches) <= 1 {
		return nil
	}
	if batchIdx < 0 || batchIdx >= len(row.Batches) {
		return appErrors.Clone(appErrors.ErrNotFound, "batch not found")
	}
	row.Batches = append(row.Batches[:batchIdx], row.Batches[batchIdx+1:]...)
	prefix := batchCodePrefix(row)
	for i, batch := range row.Batches {
		batch.BatchCode = prefix + strconv.Itoa(i+1)
	}
	m.touch(row)
	return nil
}

// SetStudentsAssigned sets a batch's student count, clamped so the
// row-level total never exceeds the specialization's student count.
func (m *AllocationModel) SetStudentsAssigned(rowIdx, batchIdx, value int) error {
	row, err := m.row(rowIdx)
	if err != nil {
		return err
	}
	batch, err := m.batch(row, batchIdx)
	if err != nil {
		return err
	}
	if value < 0 {
		value = 0
	}
	remainder := row.StudentCount
	for i, other := range row.Batches {
		if i == batchIdx {
			continue
		}
		remainder -= other.StudentsAssigned
	}
	if remainder < 0 {
		remainder = 0
	}
	if value > remainder {
		value = remainder
	}
	batch.StudentsAssigned = value
	m.touch(row)
	return nil
}

// SetHoursBudget sets a batch's hour budget, clamped to the row's
// total. Batch #1 is authoritative: editing it propagates to every
// other batch in the row.
func (m *AllocationModel) SetHoursBudget(rowIdx, batchIdx int, value float64) error {
	row, err := m.row(rowIdx)
	if err != nil {
		return err
	}
	batch, err := m.batch(row, batchIdx)
	if err != nil {
		return err
	}
	if value < 0 {
		value = 0
	}
	if value > row.TotalHours {
		value = row.TotalHours
	}
	batch.HoursBudget = value
	if batchIdx == 0 {
		for _, other := range row.Batches {
			other.HoursBudget = value
		}
	}
	m.touch(row)
	return nil
}

// AddTrainer appends an empty assignment. It contributes nothing to
// the hour accounting until a slot and date range are set.
func (m *AllocationModel) AddTrainer(rowIdx, batchIdx int) error {
	row, err := m.row(rowIdx)
	if err != nil {
		return err
	}
	batch, err := m.batch(row, batchIdx)
	if err != nil {
		return err
	}
	batch.Trainers = append(batch.Trainers, &models.TrainerAssignment{})
	m.touch(row)
	return nil
}

// RemoveTrainer drops an assignment from a batch.
func (m *AllocationModel) RemoveTrainer(rowIdx, batchIdx, trainerIdx int) error {
	row, err := m.row(rowIdx)
	if err != nil {
		return err
	}
	batch, err := m.batch(row, batchIdx)
	if err != nil {
		return err
	}
	if trainerIdx < 0 || trainerIdx >= len(batch.Trainers) {
		return appErrors.Clone(appErrors.ErrNotFound, "trainer assignment not found")
	}
	batch.Trainers = append(batch.Trainers[:trainerIdx], batch.Trainers[trainerIdx+1:]...)
	m.touch(row)
	return nil
}

// SetTrainerField edits one assignment field. Identity edits resolve
// the trainer against the directory and reset any chosen topics.
// Slot and date edits are pre-checked batch-locally: once slot, start,
// and end are all present, the tentative state is verified against the
// other trainers in the same batch, and the whole edit is dropped on a
// clash, leaving prior state untouched. Accepted schedule edits
// recompute active dates, uniform daily hours, and the assigned total.
func (m *AllocationModel) SetTrainerField(ctx context.Context, directory TrainerDirectory, key models.AssignmentKey, field, value string) error {
	row, err := m.row(key.Row)
	if err != nil {
		return err
	}
	batch, err := m.batch(row, key.Batch)
	if err != nil {
		return err
	}
	if key.Trainer < 0 || key.Trainer >= len(batch.Trainers) {
		return appErrors.Clone(appErrors.ErrNotFound, "trainer assignment not found")
	}
	assignment := batch.Trainers[key.Trainer]

	switch field {
	case FieldTrainerID:
		if value == "" {
			assignment.TrainerID = ""
			assignment.TrainerName = ""
			assignment.PerHourCost = 0
			assignment.Topics = nil
			m.touch(row)
			return nil
		}
		if directory == nil {
			return appErrors.Clone(appErrors.ErrInternal, "trainer directory unavailable")
		}
		trainer, err := directory.Lookup(ctx, value)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "trainer not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up trainer")
		}
		assignment.TrainerID = trainer.ID
		assignment.TrainerName = trainer.FullName
		assignment.PerHourCost = trainer.HourlyRate
		assignment.Topics = nil
		m.touch(row)
		return nil

	case FieldDayDuration, FieldStartDate, FieldEndDate:
		tentative := *assignment
		switch field {
		case FieldDayDuration:
			slot := models.DayDuration(value)
			if value != "" && !slot.Valid() {
				return appErrors.Clone(appErrors.ErrValidation, "dayDuration must be AM, PM, or AM&PM")
			}
			tentative.DayDuration = slot
		case FieldStartDate:
			tentative.StartDate = value
		case FieldEndDate:
			tentative.EndDate = value
		}

		if sched, ok := tentative.Schedule(); ok {
			if err := m.checkBatchLocal(batch, key.Trainer, sched); err != nil {
				return err
			}
			tentative.ActiveDates = ExpandDateRange(sched.StartDate, sched.EndDate, m.Rule, nil)
			perDay := SlotHours(m.Profile, sched.Slot)
			tentative.DailyHours = make([]float64, len(tentative.ActiveDates))
			for i := range tentative.DailyHours {
				tentative.DailyHours[i] = perDay
			}
			tentative.AssignedHours = sumHours(tentative.DailyHours)
		} else {
			tentative.ActiveDates = nil
			tentative.DailyHours = nil
			tentative.AssignedHours = 0
		}
		*assignment = tentative
		m.touch(row)
		return nil
	}
	return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown trainer field: %s", field))
}

// SetTrainerTotalHours spreads a total evenly across the active dates,
// placing the integer remainder on the last day.
func (m *AllocationModel) SetTrainerTotalHours(key models.AssignmentKey, value float64) error {
	assignment := m.Table.Assignment(key)
	if assignment == nil {
		return appErrors.Clone(appErrors.ErrNotFound, "trainer assignment not found")
	}
	if value < 0 {
		return appErrors.Clone(appErrors.ErrValidation, "total hours must be >= 0")
	}
	days := len(assignment.ActiveDates)
	if days == 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "assignment has no active dates to distribute hours over")
	}
	base := math.Floor(value / float64(days))
	hours := make([]float64, days)
	for i := 0; i < days-1; i++ {
		hours[i] = base
	}
	hours[days-1] = value - base*float64(days-1)
	assignment.DailyHours = hours
	assignment.AssignedHours = value
	if key.Row >= 0 && key.Row < len(m.Table) {
		m.touch(m.Table[key.Row])
	}
	return nil
}

// SetTrainerDailyHours edits a single day's hours free-form; the
// assigned total is re-derived from the daily values.
func (m *AllocationModel) SetTrainerDailyHours(key models.AssignmentKey, dayIdx int, value float64) error {
	assignment := m.Table.Assignment(key)
	if assignment == nil {
		return appErrors.Clone(appErrors.ErrNotFound, "trainer assignment not found")
	}
	if dayIdx < 0 || dayIdx >= len(assignment.DailyHours) {
		return appErrors.Clone(appErrors.ErrNotFound, "active date not found")
	}
	if value < 0 {
		return appErrors.Clone(appErrors.ErrValidation, "daily hours must be >= 0")
	}
	assignment.DailyHours[dayIdx] = value
	assignment.AssignedHours = sumHours(assignment.DailyHours)
	if key.Row >= 0 && key.Row < len(m.Table) {
		m.touch(m.Table[key.Row])
	}
	return nil
}

// checkBatchLocal verifies the tentative schedule against the other
// trainers in the same batch only. The table-wide and cross-training
// comparisons stay with the ConflictValidator.
func (m *AllocationModel) checkBatchLocal(batch *models.Batch, trainerIdx int, sched models.AssignmentSchedule) error {
	scope := models.AllocationTable{{Batches: []*models.Batch{batch}}}
	index := NewAvailabilityIndex(scope, nil, m.Rule)
	exclude := models.AssignmentKey{Row: 0, Batch: 0, Trainer: trainerIdx}
	for _, date := range ExpandDateRange(sched.StartDate, sched.EndDate, m.Rule, nil) {
		if !index.IsAvailable(sched.TrainerID, date, sched.Slot, &exclude, nil) {
			return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf(
				"%s is already booked in this batch for the %s slot between %s and %s",
				trainerLabel(sched), sched.Slot, sched.StartDate, sched.EndDate))
		}
	}
	return nil
}

// touch marks a row as edited, which forfeits any pending merge undo.
func (m *AllocationModel) touch(row *models.SpecializationRow) {
	row.Snapshot = nil
}

func (m *AllocationModel) row(idx int) (*models.SpecializationRow, error) {
	if idx < 0 || idx >= len(m.Table) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "specialization row not found")
	}
	return m.Table[idx], nil
}

func (m *AllocationModel) batch(row *models.SpecializationRow, idx int) (*models.Batch, error) {
	if idx < 0 || idx >= len(row.Batches) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "batch not found")
	}
	return row.Batches[idx], nil
}

func batchCodePrefix(row *models.SpecializationRow) string {
	if row.IsMerged && row.MergedFromNames != "" {
		return row.MergedFromNames + "-"
	}
	return row.SpecializationName
}

func sumHours(hours []float64) float64 {
	total := 0.0
	for _, h := range hours {
		total += h
	}
	return total
}
