package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tms-allocation-api/internal/models"
	appErrors "github.com/noah-isme/tms-allocation-api/pkg/errors"
)

type mockTrainerRepo struct {
	trainers    map[string]*models.Trainer
	emailExists bool
	listErr     error
	created     *models.Trainer
	updated     *models.Trainer
	deactivated string
}

func (m *mockTrainerRepo) List(_ context.Context, _ models.TrainerFilter) ([]models.Trainer, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	var out []models.Trainer
	for _, trainer := range m.trainers {
		out = append(out, *trainer)
	}
	return out, len(out), nil
}

func (m *mockTrainerRepo) FindByID(_ context.Context, id string) (*models.Trainer, error) {
	trainer, ok := m.trainers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *trainer
	return &cp, nil
}

func (m *mockTrainerRepo) ExistsByEmail(_ context.Context, _, _ string) (bool, error) {
	return m.emailExists, nil
}

func (m *mockTrainerRepo) Create(_ context.Context, trainer *models.Trainer) error {
	m.created = trainer
	return nil
}

func (m *mockTrainerRepo) Update(_ context.Context, trainer *models.Trainer) error {
	m.updated = trainer
	return nil
}

func (m *mockTrainerRepo) Deactivate(_ context.Context, id string) error {
	m.deactivated = id
	return nil
}

func newTrainerFixture() (*TrainerService, *mockTrainerRepo) {
	repo := &mockTrainerRepo{trainers: map[string]*models.Trainer{
		"t1": {ID: "t1", FullName: "Asha", Email: "asha@example.com", Active: true},
		"t2": {ID: "t2", FullName: "Ravi", Email: "ravi@example.com", Active: false},
	}}
	return NewTrainerService(repo, nil, nil), repo
}

func TestTrainerListPaginationDefaults(t *testing.T) {
	svc, _ := newTrainerFixture()

	trainers, pagination, err := svc.List(context.Background(), models.TrainerFilter{})
	require.NoError(t, err)
	assert.Len(t, trainers, 2)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 2, pagination.TotalCount)
}

func TestTrainerListRepoFailure(t *testing.T) {
	svc, repo := newTrainerFixture()
	repo.listErr = errors.New("db down")

	_, _, err := svc.List(context.Background(), models.TrainerFilter{})
	require.Error(t, err)
}

func TestTrainerGet(t *testing.T) {
	svc, _ := newTrainerFixture()

	trainer, err := svc.Get(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "Asha", trainer.FullName)

	_, err = svc.Get(context.Background(), "missing")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestTrainerLookupRejectsInactive(t *testing.T) {
	svc, _ := newTrainerFixture()

	_, err := svc.Lookup(context.Background(), "t1")
	require.NoError(t, err)

	_, err = svc.Lookup(context.Background(), "t2")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
	assert.Equal(t, "trainer is inactive", appErr.Message)
}

func TestTrainerCreate(t *testing.T) {
	svc, repo := newTrainerFixture()

	trainer, err := svc.Create(context.Background(), CreateTrainerRequest{
		Email:       "  new@example.com ",
		FullName:    "New Trainer",
		PaymentType: "hourly",
		HourlyRate:  900,
		Domain:      "Java",
	})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", trainer.Email)
	assert.True(t, trainer.Active)
	assert.Same(t, trainer, repo.created)
}

func TestTrainerCreateValidation(t *testing.T) {
	svc, _ := newTrainerFixture()

	_, err := svc.Create(context.Background(), CreateTrainerRequest{
		Email:       "not-an-email",
		FullName:    "X",
		PaymentType: "hourly",
		Domain:      "Java",
	})
	require.Error(t, err)

	_, err = svc.Create(context.Background(), CreateTrainerRequest{
		Email:       "ok@example.com",
		FullName:    "X",
		PaymentType: "commission",
		Domain:      "Java",
	})
	require.Error(t, err)
}

func TestTrainerCreateDuplicateEmail(t *testing.T) {
	svc, repo := newTrainerFixture()
	repo.emailExists = true

	_, err := svc.Create(context.Background(), CreateTrainerRequest{
		Email:       "asha@example.com",
		FullName:    "Asha",
		PaymentType: "hourly",
		Domain:      "Java",
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestTrainerUpdate(t *testing.T) {
	svc, repo := newTrainerFixture()
	inactive := false

	trainer, err := svc.Update(context.Background(), "t1", UpdateTrainerRequest{
		Email:       "asha@example.com",
		FullName:    "Asha K",
		PaymentType: "fixed",
		HourlyRate:  0,
		Domain:      "Java",
		Active:      &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "Asha K", trainer.FullName)
	assert.False(t, trainer.Active)
	assert.Same(t, trainer, repo.updated)

	_, err = svc.Update(context.Background(), "missing", UpdateTrainerRequest{
		Email:       "x@example.com",
		FullName:    "X",
		PaymentType: "hourly",
		Domain:      "Java",
	})
	require.Error(t, err)
}

func TestTrainerDeactivate(t *testing.T) {
	svc, repo := newTrainerFixture()

	require.NoError(t, svc.Deactivate(context.Background(), "t1"))
	assert.Equal(t, "t1", repo.deactivated)

	err := svc.Deactivate(context.Background(), "missing")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
