package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/tms-allocation-api/internal/models"
	appErrors "github.com/noah-isme/tms-allocation-api/pkg/errors"
)

type institutionRepository interface {
	FindByID(ctx context.Context, id string) (*models.InstitutionProfile, error)
	List(ctx context.Context) ([]models.InstitutionProfile, error)
	Upsert(ctx context.Context, profile *models.InstitutionProfile) error
}

// UpsertInstitutionRequest represents payload for saving a college
// workday profile. Times are HH:MM wall-clock strings.
type UpsertInstitutionRequest struct {
	ID         string `json:"id"`
	Name       string `json:"name" validate:"required"`
	StartTime  string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime    string `json:"end_time" validate:"required,datetime=15:04"`
	LunchStart string `json:"lunch_start" validate:"required,datetime=15:04"`
	LunchEnd   string `json:"lunch_end" validate:"required,datetime=15:04"`
}

// InstitutionService manages college workday profiles.
type InstitutionService struct {
	repo      institutionRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewInstitutionService constructs an InstitutionService.
func NewInstitutionService(repo institutionRepository, validate *validator.Validate, logger *zap.Logger) *InstitutionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstitutionService{repo: repo, validator: validate, logger: logger}
}

// List returns all stored profiles.
func (s *InstitutionService) List(ctx context.Context) ([]models.InstitutionProfile, error) {
	profiles, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list institutions")
	}
	return profiles, nil
}

// Get returns a profile by id.
func (s *InstitutionService) Get(ctx context.Context, id string) (*models.InstitutionProfile, error) {
	profile, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "institution not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load institution")
	}
	return profile, nil
}

// Save inserts or updates a profile. A profile saved while editing
// sessions are open only affects sessions opened afterwards; the day
// shape is captured when the session starts.
func (s *InstitutionService) Save(ctx context.Context, req UpsertInstitutionRequest) (*models.InstitutionProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid institution payload")
	}
	if HoursPerDay(models.InstitutionProfile{
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		LunchStart: req.LunchStart,
		LunchEnd:   req.LunchEnd,
	}) <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "workday times leave no teachable hours")
	}

	profile := &models.InstitutionProfile{
		ID:         strings.TrimSpace(req.ID),
		Name:       strings.TrimSpace(req.Name),
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		LunchStart: req.LunchStart,
		LunchEnd:   req.LunchEnd,
	}
	if err := s.repo.Upsert(ctx, profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save institution")
	}
	return profile, nil
}
