package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tms-allocation-api/internal/models"
	appErrors "github.com/noah-isme/tms-allocation-api/pkg/errors"
)

func swapModel() *AllocationModel {
	return &AllocationModel{
		Rule:    ExcludeBoth,
		Profile: standardProfile(),
		Table: models.AllocationTable{
			{
				Domain:             "Java",
				SpecializationName: "JFS",
				Batches: []*models.Batch{{
					BatchCode: "JFS1",
					Trainers: []*models.TrainerAssignment{{
						TrainerID:   "t1",
						TrainerName: "Asha",
						PerHourCost: 1000,
						DayDuration: models.DayDurationAM,
						StartDate:   "2025-04-07",
						EndDate:     "2025-04-09",
						Topics:      []string{"Spring"},
					}},
				}},
			},
			{
				Domain:             "Java",
				SpecializationName: "JBE",
				Batches: []*models.Batch{{
					BatchCode: "JBE1",
					Trainers: []*models.TrainerAssignment{{
						TrainerID:   "t2",
						TrainerName: "Ravi",
						PerHourCost: 1500,
						DayDuration: models.DayDurationAM,
						StartDate:   "2025-04-10",
						EndDate:     "2025-04-11",
					}},
				}},
			},
		},
	}
}

var (
	swapSource = models.AssignmentKey{Row: 0, Batch: 0, Trainer: 0}
	swapTarget = models.AssignmentKey{Row: 1, Batch: 0, Trainer: 0}
)

func TestProposeSwapAppendsExchangedAssignments(t *testing.T) {
	m := swapModel()
	require.NoError(t, m.ProposeSwap(nil, swapSource, swapTarget))

	sourceBatch := m.Table[0].Batches[0]
	targetBatch := m.Table[1].Batches[0]
	require.Len(t, sourceBatch.Trainers, 2)
	require.Len(t, targetBatch.Trainers, 2)

	// originals stay untouched
	assert.Equal(t, "t1", sourceBatch.Trainers[0].TrainerID)
	assert.Equal(t, "t2", targetBatch.Trainers[0].TrainerID)

	// appended records carry the counterpart's identity under the
	// original slot and range
	appended := sourceBatch.Trainers[1]
	assert.Equal(t, "t2", appended.TrainerID)
	assert.Equal(t, "Ravi", appended.TrainerName)
	assert.Equal(t, 1500.0, appended.PerHourCost)
	assert.Equal(t, "2025-04-07", appended.StartDate)
	assert.Equal(t, "2025-04-09", appended.EndDate)
	assert.Equal(t, models.DayDurationAM, appended.DayDuration)
	assert.Nil(t, appended.Topics)

	counterpart := targetBatch.Trainers[1]
	assert.Equal(t, "t1", counterpart.TrainerID)
	assert.Equal(t, "2025-04-10", counterpart.StartDate)
	assert.Equal(t, "2025-04-11", counterpart.EndDate)
}

func TestProposeSwapRequiresAMSlot(t *testing.T) {
	m := swapModel()
	m.Table[0].Batches[0].Trainers[0].DayDuration = models.DayDurationPM

	err := m.ProposeSwap(nil, swapSource, swapTarget)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
}

func TestProposeSwapRejectsBothHalvesHolder(t *testing.T) {
	m := swapModel()
	batch := m.Table[0].Batches[0]
	batch.Trainers = append(batch.Trainers, &models.TrainerAssignment{
		TrainerID:   "t1",
		DayDuration: models.DayDurationPM,
		StartDate:   "2025-04-08",
		EndDate:     "2025-04-10",
	})

	err := m.ProposeSwap(nil, swapSource, swapTarget)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
	assert.Equal(t, "trainers working both halves of a day are not swap-eligible", appErr.Message)
}

func TestProposeSwapRejectsWhenCounterpartIsBusy(t *testing.T) {
	m := swapModel()
	// t2 already committed elsewhere during t1's range
	feed := []models.GlobalAssignmentRecord{{
		TrainerID:   "t2",
		Date:        "2025-04-08",
		DayDuration: models.DayDurationFull,
	}}

	err := m.ProposeSwap(feed, swapSource, swapTarget)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, "one or both trainers are not available for the proposed exchange", appErr.Message)

	// nothing mutated
	assert.Len(t, m.Table[0].Batches[0].Trainers, 1)
	assert.Len(t, m.Table[1].Batches[0].Trainers, 1)
}

func TestProposeSwapRejectsWhenEitherDirectionFails(t *testing.T) {
	m := swapModel()
	feed := []models.GlobalAssignmentRecord{{
		TrainerID:   "t1",
		Date:        "2025-04-10",
		DayDuration: models.DayDurationAM,
	}}

	err := m.ProposeSwap(feed, swapSource, swapTarget)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestProposeSwapValidatesKeys(t *testing.T) {
	m := swapModel()

	assert.Error(t, m.ProposeSwap(nil, swapSource, swapSource))
	assert.Error(t, m.ProposeSwap(nil, swapSource, models.AssignmentKey{Row: 9, Batch: 0, Trainer: 0}))

	m.Table[1].Batches[0].Trainers[0].EndDate = ""
	err := m.ProposeSwap(nil, swapSource, swapTarget)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "target assignment is not yet schedulable", appErr.Message)
}
