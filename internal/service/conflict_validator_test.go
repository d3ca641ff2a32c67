package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tms-allocation-api/internal/models"
)

func TestValidateCleanTable(t *testing.T) {
	table := models.AllocationTable{{
		Domain:             "Java",
		SpecializationName: "JFS",
		Batches: []*models.Batch{{
			BatchCode: "JFS1",
			Trainers: []*models.TrainerAssignment{
				{TrainerID: "t1", TrainerName: "Asha", DayDuration: models.DayDurationAM, StartDate: "2025-04-07", EndDate: "2025-04-11"},
				{TrainerID: "t2", TrainerName: "Ravi", DayDuration: models.DayDurationAM, StartDate: "2025-04-07", EndDate: "2025-04-11"},
			},
		}},
	}}

	report := NewConflictValidator(ExcludeBoth).Validate(table, nil)
	assert.False(t, report.HasErrors)
	assert.Empty(t, report.Errors)
	assert.Empty(t, report.ConflictingKeys)
}

func TestValidateLocalDoubleBooking(t *testing.T) {
	table := models.AllocationTable{
		{
			Domain:             "Java",
			SpecializationName: "JFS",
			Batches: []*models.Batch{{
				BatchCode: "JFS1",
				Trainers: []*models.TrainerAssignment{
					{TrainerID: "t1", TrainerName: "Asha", DayDuration: models.DayDurationAM, StartDate: "2025-04-07", EndDate: "2025-04-11"},
				},
			}},
		},
		{
			Domain:             "Java",
			SpecializationName: "JBE",
			Batches: []*models.Batch{{
				BatchCode: "JBE1",
				Trainers: []*models.TrainerAssignment{
					{TrainerID: "t1", TrainerName: "Asha", DayDuration: models.DayDurationFull, StartDate: "2025-04-09", EndDate: "2025-04-09"},
				},
			}},
		},
	}

	report := NewConflictValidator(ExcludeBoth).Validate(table, nil)
	require.True(t, report.HasErrors)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "Asha (t1) is booked more than once on 2025-04-09 (AM&PM slot)", report.Errors[0].Message)

	// both ends of the clash are flagged
	assert.Contains(t, report.ConflictingKeys, models.AssignmentKey{Row: 0, Batch: 0, Trainer: 0})
	assert.Contains(t, report.ConflictingKeys, models.AssignmentKey{Row: 1, Batch: 0, Trainer: 0})
}

func TestValidateDeduplicatesRepeatedMessages(t *testing.T) {
	// same pair clashes on every weekday of the range; the report
	// carries one message per distinct date, not one per comparison
	table := models.AllocationTable{{
		Domain:             "Java",
		SpecializationName: "JFS",
		Batches: []*models.Batch{
			{BatchCode: "JFS1", Trainers: []*models.TrainerAssignment{
				{TrainerID: "t1", TrainerName: "Asha", DayDuration: models.DayDurationAM, StartDate: "2025-04-07", EndDate: "2025-04-08"},
			}},
			{BatchCode: "JFS2", Trainers: []*models.TrainerAssignment{
				{TrainerID: "t1", TrainerName: "Asha", DayDuration: models.DayDurationAM, StartDate: "2025-04-07", EndDate: "2025-04-08"},
			}},
		},
	}}

	report := NewConflictValidator(ExcludeBoth).Validate(table, nil)
	require.True(t, report.HasErrors)
	assert.Len(t, report.Errors, 2)
}

func TestValidateAgainstFeed(t *testing.T) {
	table := models.AllocationTable{{
		Domain:             "Java",
		SpecializationName: "JFS",
		Batches: []*models.Batch{{
			BatchCode: "JFS1",
			Trainers: []*models.TrainerAssignment{
				{TrainerID: "t1", TrainerName: "Asha", DayDuration: models.DayDurationPM, StartDate: "2025-04-09", EndDate: "2025-04-09"},
			},
		}},
	}}
	feed := &models.FeedSnapshot{
		Version: 7,
		Records: []models.GlobalAssignmentRecord{{
			TrainerID:        "t1",
			Date:             "2025-04-09",
			DayDuration:      models.DayDurationFull,
			SourceTrainingID: "TRN-42",
			CollegeName:      "Sunrise College",
			BatchCode:        "PY1",
			Domain:           "Python",
		}},
	}

	report := NewConflictValidator(ExcludeBoth).Validate(table, feed)
	require.True(t, report.HasErrors)
	require.Len(t, report.Errors, 1)
	assert.Equal(t,
		"Asha (t1) is already committed to training TRN-42 (Sunrise College, batch PY1, Python domain) for the AM&PM slot on 2025-04-09",
		report.Errors[0].Message)
	assert.Equal(t, uint64(7), report.FeedVersion)
	assert.Contains(t, report.ConflictingKeys, models.AssignmentKey{Row: 0, Batch: 0, Trainer: 0})
}

func TestValidateSkipsUnschedulableAssignments(t *testing.T) {
	table := models.AllocationTable{{
		Domain:             "Java",
		SpecializationName: "JFS",
		Batches: []*models.Batch{{
			BatchCode: "JFS1",
			Trainers: []*models.TrainerAssignment{
				{TrainerID: "t1", DayDuration: models.DayDurationAM, StartDate: "2025-04-07"},
				{TrainerID: "t1", DayDuration: models.DayDurationAM, StartDate: "2025-04-07"},
			},
		}},
	}}

	report := NewConflictValidator(ExcludeBoth).Validate(table, nil)
	assert.False(t, report.HasErrors)
}

func TestValidateDomainRestrictsScan(t *testing.T) {
	table := models.AllocationTable{
		{
			Domain:             "Java",
			SpecializationName: "JFS",
			Batches: []*models.Batch{{Trainers: []*models.TrainerAssignment{
				{TrainerID: "t1", DayDuration: models.DayDurationAM, StartDate: "2025-04-07", EndDate: "2025-04-07"},
			}}},
		},
		{
			Domain:             "Python",
			SpecializationName: "PY",
			Batches: []*models.Batch{{Trainers: []*models.TrainerAssignment{
				{TrainerID: "t1", DayDuration: models.DayDurationAM, StartDate: "2025-04-07", EndDate: "2025-04-07"},
			}}},
		},
	}

	full := NewConflictValidator(ExcludeBoth).Validate(table, nil)
	assert.True(t, full.HasErrors)

	javaOnly := NewConflictValidator(ExcludeBoth).ValidateDomain(table, nil, "Java")
	assert.False(t, javaOnly.HasErrors)
}
