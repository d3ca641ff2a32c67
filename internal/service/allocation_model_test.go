package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tms-allocation-api/internal/models"
	appErrors "github.com/noah-isme/tms-allocation-api/pkg/errors"
)

type stubDirectory struct {
	trainers map[string]*models.Trainer
}

func (d *stubDirectory) Lookup(_ context.Context, id string) (*models.Trainer, error) {
	trainer, ok := d.trainers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return trainer, nil
}

func newTestModel() *AllocationModel {
	return &AllocationModel{
		Rule:    ExcludeBoth,
		Profile: standardProfile(),
	}
}

func TestEnsureRowIdempotent(t *testing.T) {
	m := newTestModel()
	row := m.EnsureRow("Java", "JFS", 60, 80)
	require.Len(t, m.Table, 1)
	require.Len(t, row.Batches, 1)
	assert.Equal(t, "JFS1", row.Batches[0].BatchCode)
	assert.Equal(t, 80.0, row.Batches[0].HoursBudget)

	again := m.EnsureRow("Java", "JFS", 60, 80)
	assert.Same(t, row, again)
	assert.Len(t, m.Table, 1)
}

func TestAddBatchMirrorsFirstBudget(t *testing.T) {
	m := newTestModel()
	m.EnsureRow("Java", "JFS", 60, 80)

	require.NoError(t, m.AddBatch(0))
	row := m.Table[0]
	require.Len(t, row.Batches, 2)
	assert.Equal(t, "JFS2", row.Batches[1].BatchCode)
	assert.Equal(t, 80.0, row.Batches[1].HoursBudget)
}

func TestRemoveBatchResequencesCodes(t *testing.T) {
	m := newTestModel()
	m.EnsureRow("Java", "JFS", 60, 80)
	require.NoError(t, m.AddBatch(0))
	require.NoError(t, m.AddBatch(0))

	require.NoError(t, m.RemoveBatch(0, 1))
	row := m.Table[0]
	require.Len(t, row.Batches, 2)
	assert.Equal(t, "JFS1", row.Batches[0].BatchCode)
	assert.Equal(t, "JFS2", row.Batches[1].BatchCode)
}

func TestRemoveLastBatchIsNoop(t *testing.T) {
	m := newTestModel()
	m.EnsureRow("Java", "JFS", 60, 80)

	require.NoError(t, m.RemoveBatch(0, 0))
	assert.Len(t, m.Table[0].Batches, 1)
}

func TestSetStudentsAssignedClampsToRemainder(t *testing.T) {
	m := newTestModel()
	m.EnsureRow("Java", "JFS", 60, 80)
	require.NoError(t, m.AddBatch(0))

	require.NoError(t, m.SetStudentsAssigned(0, 0, 45))
	assert.Equal(t, 45, m.Table[0].Batches[0].StudentsAssigned)

	// only 15 seats remain for batch 2
	require.NoError(t, m.SetStudentsAssigned(0, 1, 30))
	assert.Equal(t, 15, m.Table[0].Batches[1].StudentsAssigned)

	require.NoError(t, m.SetStudentsAssigned(0, 0, -5))
	assert.Equal(t, 0, m.Table[0].Batches[0].StudentsAssigned)
}

func TestSetHoursBudgetFirstBatchPropagates(t *testing.T) {
	m := newTestModel()
	m.EnsureRow("Java", "JFS", 60, 80)
	require.NoError(t, m.AddBatch(0))

	require.NoError(t, m.SetHoursBudget(0, 1, 50))
	assert.Equal(t, 80.0, m.Table[0].Batches[0].HoursBudget)
	assert.Equal(t, 50.0, m.Table[0].Batches[1].HoursBudget)

	require.NoError(t, m.SetHoursBudget(0, 0, 60))
	assert.Equal(t, 60.0, m.Table[0].Batches[0].HoursBudget)
	assert.Equal(t, 60.0, m.Table[0].Batches[1].HoursBudget)

	// clamped to the row total
	require.NoError(t, m.SetHoursBudget(0, 0, 500))
	assert.Equal(t, 80.0, m.Table[0].Batches[0].HoursBudget)
}

func TestSetTrainerFieldResolvesIdentity(t *testing.T) {
	m := newTestModel()
	m.EnsureRow("Java", "JFS", 60, 80)
	require.NoError(t, m.AddTrainer(0, 0))

	directory := &stubDirectory{trainers: map[string]*models.Trainer{
		"t1": {ID: "t1", FullName: "Asha", HourlyRate: 1200},
	}}
	key := models.AssignmentKey{Row: 0, Batch: 0, Trainer: 0}

	require.NoError(t, m.SetTrainerField(context.Background(), directory, key, FieldTrainerID, "t1"))
	assignment := m.Table.Assignment(key)
	assert.Equal(t, "Asha", assignment.TrainerName)
	assert.Equal(t, 1200.0, assignment.PerHourCost)

	err := m.SetTrainerField(context.Background(), directory, key, FieldTrainerID, "missing")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)

	// clearing the id resets the identity fields
	require.NoError(t, m.SetTrainerField(context.Background(), directory, key, FieldTrainerID, ""))
	assert.Empty(t, assignment.TrainerID)
	assert.Empty(t, assignment.TrainerName)
	assert.Zero(t, assignment.PerHourCost)
}

func TestSetTrainerFieldComputesSchedule(t *testing.T) {
	m := newTestModel()
	m.EnsureRow("Java", "JFS", 60, 80)
	require.NoError(t, m.AddTrainer(0, 0))

	directory := &stubDirectory{trainers: map[string]*models.Trainer{
		"t1": {ID: "t1", FullName: "Asha"},
	}}
	ctx := context.Background()
	key := models.AssignmentKey{Row: 0, Batch: 0, Trainer: 0}

	require.NoError(t, m.SetTrainerField(ctx, directory, key, FieldTrainerID, "t1"))
	require.NoError(t, m.SetTrainerField(ctx, directory, key, FieldDayDuration, "AM"))
	assignment := m.Table.Assignment(key)
	assert.Empty(t, assignment.ActiveDates)

	require.NoError(t, m.SetTrainerField(ctx, directory, key, FieldStartDate, "2025-04-07"))
	require.NoError(t, m.SetTrainerField(ctx, directory, key, FieldEndDate, "2025-04-11"))

	assignment = m.Table.Assignment(key)
	require.Len(t, assignment.ActiveDates, 5)
	require.Len(t, assignment.DailyHours, 5)
	assert.Equal(t, 3.5, assignment.DailyHours[0])
	assert.Equal(t, 17.5, assignment.AssignedHours)
}

func TestSetTrainerFieldRejectsInvalidSlot(t *testing.T) {
	m := newTestModel()
	m.EnsureRow("Java", "JFS", 60, 80)
	require.NoError(t, m.AddTrainer(0, 0))

	key := models.AssignmentKey{Row: 0, Batch: 0, Trainer: 0}
	err := m.SetTrainerField(context.Background(), nil, key, FieldDayDuration, "EVENING")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestSetTrainerFieldBatchLocalRejection(t *testing.T) {
	m := newTestModel()
	m.EnsureRow("Java", "JFS", 60, 80)
	require.NoError(t, m.AddTrainer(0, 0))
	require.NoError(t, m.AddTrainer(0, 0))

	directory := &stubDirectory{trainers: map[string]*models.Trainer{
		"t1": {ID: "t1", FullName: "Asha"},
	}}
	ctx := context.Background()
	first := models.AssignmentKey{Row: 0, Batch: 0, Trainer: 0}
	second := models.AssignmentKey{Row: 0, Batch: 0, Trainer: 1}

	for _, step := range []struct{ field, value string }{
		{FieldTrainerID, "t1"},
		{FieldDayDuration, "AM"},
		{FieldStartDate, "2025-04-07"},
		{FieldEndDate, "2025-04-11"},
	} {
		require.NoError(t, m.SetTrainerField(ctx, directory, first, step.field, step.value))
	}

	require.NoError(t, m.SetTrainerField(ctx, directory, second, FieldTrainerID, "t1"))
	require.NoError(t, m.SetTrainerField(ctx, directory, second, FieldDayDuration, "AM"))
	require.NoError(t, m.SetTrainerField(ctx, directory, second, FieldStartDate, "2025-04-09"))

	// completing the overlapping range is the edit that gets dropped
	err := m.SetTrainerField(ctx, directory, second, FieldEndDate, "2025-04-09")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)

	// prior state is untouched
	assignment := m.Table.Assignment(second)
	assert.Empty(t, assignment.EndDate)
	assert.Empty(t, assignment.ActiveDates)
}

func TestSetTrainerTotalHoursRemainderOnLastDay(t *testing.T) {
	m := newTestModel()
	m.EnsureRow("Java", "JFS", 60, 80)
	require.NoError(t, m.AddTrainer(0, 0))

	key := models.AssignmentKey{Row: 0, Batch: 0, Trainer: 0}
	assignment := m.Table.Assignment(key)
	assignment.ActiveDates = []string{"2025-04-07", "2025-04-08", "2025-04-09"}
	assignment.DailyHours = []float64{3.5, 3.5, 3.5}

	require.NoError(t, m.SetTrainerTotalHours(key, 10))
	assert.Equal(t, []float64{3, 3, 4}, assignment.DailyHours)
	assert.Equal(t, 10.0, assignment.AssignedHours)
}

func TestSetTrainerTotalHoursRequiresActiveDates(t *testing.T) {
	m := newTestModel()
	m.EnsureRow("Java", "JFS", 60, 80)
	require.NoError(t, m.AddTrainer(0, 0))

	key := models.AssignmentKey{Row: 0, Batch: 0, Trainer: 0}
	err := m.SetTrainerTotalHours(key, 10)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)

	assert.Error(t, m.SetTrainerTotalHours(key, -1))
}

func TestSetTrainerDailyHoursRederivesTotal(t *testing.T) {
	m := newTestModel()
	m.EnsureRow("Java", "JFS", 60, 80)
	require.NoError(t, m.AddTrainer(0, 0))

	key := models.AssignmentKey{Row: 0, Batch: 0, Trainer: 0}
	assignment := m.Table.Assignment(key)
	assignment.ActiveDates = []string{"2025-04-07", "2025-04-08"}
	assignment.DailyHours = []float64{3.5, 3.5}
	assignment.AssignedHours = 7

	require.NoError(t, m.SetTrainerDailyHours(key, 1, 5))
	assert.Equal(t, 8.5, assignment.AssignedHours)

	assert.Error(t, m.SetTrainerDailyHours(key, 5, 1))
	assert.Error(t, m.SetTrainerDailyHours(key, 0, -1))
}

func TestRemoveTrainer(t *testing.T) {
	m := newTestModel()
	m.EnsureRow("Java", "JFS", 60, 80)
	require.NoError(t, m.AddTrainer(0, 0))
	require.NoError(t, m.AddTrainer(0, 0))

	require.NoError(t, m.RemoveTrainer(0, 0, 0))
	assert.Len(t, m.Table[0].Batches[0].Trainers, 1)

	assert.Error(t, m.RemoveTrainer(0, 0, 5))
}

func TestEditForfeitsMergeUndo(t *testing.T) {
	m := newTestModel()
	m.EnsureRow("Java", "JFS", 30, 80)
	m.EnsureRow("Java", "JBE", 20, 80)
	require.NoError(t, m.MergeRows(1, 0))
	require.NotNil(t, m.Table[0].Snapshot)

	require.NoError(t, m.AddBatch(0))
	assert.Nil(t, m.Table[0].Snapshot)

	err := m.UndoMerge(0)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
}
