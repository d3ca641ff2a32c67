package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/tms-allocation-api/internal/dto"
	"github.com/noah-isme/tms-allocation-api/internal/models"
	appErrors "github.com/noah-isme/tms-allocation-api/pkg/errors"
)

type submissionFeedStore interface {
	ReplaceForTraining(ctx context.Context, trainingID string, records []models.GlobalAssignmentRecord) error
}

// SubmissionService turns a clean allocation session into global feed
// records. Submission is the only writer of the feed: it revalidates
// against the snapshot of the submit instant, refuses on any conflict,
// and otherwise persists one record per trainer per active date and slot.
type SubmissionService struct {
	sessions  *AllocationService
	feed      *FeedService
	store     submissionFeedStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubmissionService constructs a SubmissionService.
func NewSubmissionService(sessions *AllocationService, feed *FeedService, store submissionFeedStore, validate *validator.Validate, logger *zap.Logger) *SubmissionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{sessions: sessions, feed: feed, store: store, validator: validate, logger: logger}
}

// Submit finalizes a session. When validation fails the returned report
// carries the verbatim conflict messages and nothing is persisted.
func (s *SubmissionService) Submit(ctx context.Context, req dto.SubmitRequest) (*dto.SubmitResponse, *models.ValidationReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submit payload")
	}

	var (
		trainingID string
		records    []models.GlobalAssignmentRecord
		blocked    *models.ValidationReport
	)
	err := s.sessions.SessionState(req.SessionID, func(state SessionState) error {
		trainingID = state.TrainingID
		snapshot := s.feed.Snapshot()
		report := NewConflictValidator(state.Rule).Validate(state.Table, snapshot)
		if report.HasErrors {
			blocked = report
			return appErrors.Clone(appErrors.ErrConflict, "submission blocked by validation conflicts")
		}
		records = buildFeedRecords(state)
		return nil
	})
	if err != nil {
		return nil, blocked, err
	}

	if len(records) == 0 {
		return nil, nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "nothing to submit: no schedulable assignments")
	}

	if err := s.store.ReplaceForTraining(ctx, trainingID, records); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist submission")
	}
	if err := s.feed.Refresh(ctx); err != nil {
		s.logger.Warn("feed refresh after submission failed", zap.Error(err))
	}

	s.logger.Info("allocation submitted",
		zap.String("session_id", req.SessionID),
		zap.String("training_id", trainingID),
		zap.Int("records", len(records)))

	return &dto.SubmitResponse{
		SessionID:   req.SessionID,
		Records:     len(records),
		FeedVersion: s.feed.Version(),
	}, nil, nil
}

// buildFeedRecords flattens a clean table into one record per trainer
// per active date and slot, keyed {training}-{trainer}-{date}-{slot} so
// resubmissions land on the same identifiers. The slot is part of the
// key because a trainer validly booked AM and PM in different batches
// produces two records for the same date.
func buildFeedRecords(state SessionState) []models.GlobalAssignmentRecord {
	var records []models.GlobalAssignmentRecord
	for _, row := range state.Table {
		for _, batch := range row.Batches {
			for _, assignment := range batch.Trainers {
				sched, ok := assignment.Schedule()
				if !ok {
					continue
				}
				dates := assignment.ActiveDates
				if len(dates) == 0 {
					dates = ExpandDateRange(sched.StartDate, sched.EndDate, state.Rule, nil)
				}
				for _, date := range dates {
					records = append(records, models.GlobalAssignmentRecord{
						ID:               fmt.Sprintf("%s-%s-%s-%s", state.TrainingID, sched.TrainerID, date, sched.Slot),
						TrainerID:        sched.TrainerID,
						TrainerName:      sched.TrainerName,
						Date:             date,
						StartDate:        sched.StartDate,
						EndDate:          sched.EndDate,
						DayDuration:      sched.Slot,
						SourceTrainingID: state.TrainingID,
						Domain:           row.Domain,
						CollegeName:      state.CollegeName,
						BatchCode:        batch.BatchCode,
					})
				}
			}
		}
	}
	return records
}
